package handlers

import "capebiz_backend/internal/services"

// AppHandlers bundles every handler for route registration.
type AppHandlers struct {
	Auth     *AuthHandler
	Business *BusinessHandler
	Plan     *PlanHandler
	Payment  *PaymentHandler
}

func NewAppHandlers(
	authService *services.AuthService,
	businessService *services.BusinessService,
	planService *services.PlanService,
	paymentService *services.PaymentService,
) *AppHandlers {
	base := NewBaseHandler()
	return &AppHandlers{
		Auth:     NewAuthHandler(base, authService),
		Business: NewBusinessHandler(base, businessService),
		Plan:     NewPlanHandler(base, planService),
		Payment:  NewPaymentHandler(base, paymentService),
	}
}
