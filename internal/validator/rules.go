package validator

import (
	"github.com/go-playground/validator/v10"

	"capebiz_backend/internal/models"
)

// registerCustomRules wires domain-specific validation tags.
func registerCustomRules(v *validator.Validate) error {
	return v.RegisterValidation("payment_type", func(fl validator.FieldLevel) bool {
		return models.PaymentType(fl.Field().String()).Valid()
	})
}
