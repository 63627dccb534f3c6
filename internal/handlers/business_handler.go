package handlers

import (
	"github.com/gin-gonic/gin"

	"capebiz_backend/internal/dto"
	"capebiz_backend/internal/repositories"
	"capebiz_backend/internal/services"
	"capebiz_backend/pkg/apperrors"
)

type BusinessHandler struct {
	*BaseHandler
	businessService *services.BusinessService
}

func NewBusinessHandler(base *BaseHandler, businessService *services.BusinessService) *BusinessHandler {
	return &BusinessHandler{BaseHandler: base, businessService: businessService}
}

// Create handles POST /api/v1/businesses.
func (h *BusinessHandler) Create(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	var req dto.CreateBusinessRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	business, err := h.businessService.Create(c.Request.Context(), userID, req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.Created(c, business)
}

// List handles GET /api/v1/businesses (public directory).
func (h *BusinessHandler) List(c *gin.Context) {
	var query dto.ListBusinessesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apperrors.HandleValidationError(c, err)
		return
	}

	businesses, total, err := h.businessService.List(c.Request.Context(), repositories.BusinessFilter{
		Town:     query.Town,
		Category: query.Category,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, gin.H{"businesses": businesses, "total": total})
}

// Get handles GET /api/v1/businesses/:id.
func (h *BusinessHandler) Get(c *gin.Context) {
	id, ok := h.ParamUint(c, "id")
	if !ok {
		return
	}

	business, err := h.businessService.Get(c.Request.Context(), id)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, business)
}

// Mine handles GET /api/v1/businesses/mine.
func (h *BusinessHandler) Mine(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	businesses, err := h.businessService.MyBusinesses(c.Request.Context(), userID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, businesses)
}

// Update handles PUT /api/v1/businesses/:id.
func (h *BusinessHandler) Update(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	id, ok := h.ParamUint(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateBusinessRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	business, err := h.businessService.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, business)
}

// Approve handles POST /api/v1/admin/businesses/:id/approve.
func (h *BusinessHandler) Approve(c *gin.Context) {
	id, ok := h.ParamUint(c, "id")
	if !ok {
		return
	}

	business, err := h.businessService.Approve(c.Request.Context(), id)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, business)
}
