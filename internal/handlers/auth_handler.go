package handlers

import (
	"github.com/gin-gonic/gin"

	"capebiz_backend/internal/dto"
	"capebiz_backend/internal/services"
	"capebiz_backend/pkg/apperrors"
)

type AuthHandler struct {
	*BaseHandler
	authService *services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService *services.AuthService) *AuthHandler {
	return &AuthHandler{BaseHandler: base, authService: authService}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, resp)
}
