package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"capebiz_backend/internal/models"
	"capebiz_backend/internal/validator"
	"capebiz_backend/pkg/apperrors"
)

// BaseHandler carries the shared request plumbing: binding, validation and
// identity extraction. All concrete handlers embed it.
type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler() *BaseHandler {
	return &BaseHandler{validator: validator.New()}
}

// BindAndValidateJSON binds the request body into req and runs struct
// validation. On failure the error response has already been written.
func (h *BaseHandler) BindAndValidateJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apperrors.HandleValidationError(c, err)
		return false
	}
	if err := h.validator.Validate(req); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
			return false
		}
		apperrors.HandleValidationError(c, err)
		return false
	}
	return true
}

// CurrentUserID returns the authenticated user id placed by the auth
// middleware. Writes a 401 response when it is missing.
func (h *BaseHandler) CurrentUserID(c *gin.Context) (uint, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authentication required"))
		return 0, false
	}
	id, ok := raw.(uint)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authentication required"))
		return 0, false
	}
	return id, true
}

// IsAdmin reports whether the authenticated user has the admin role.
func (h *BaseHandler) IsAdmin(c *gin.Context) bool {
	role, exists := c.Get("user_role")
	return exists && role == string(models.UserRoleAdmin)
}

// ParamUint parses a numeric path parameter, writing a 400 on failure.
func (h *BaseHandler) ParamUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid "+name+" parameter"))
		return 0, false
	}
	return uint(id), true
}

// OK writes the standard success envelope.
func (h *BaseHandler) OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Created writes the standard creation envelope.
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}
