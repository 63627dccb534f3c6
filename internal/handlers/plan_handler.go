package handlers

import (
	"github.com/gin-gonic/gin"

	"capebiz_backend/internal/dto"
	"capebiz_backend/internal/services"
	"capebiz_backend/pkg/apperrors"
)

type PlanHandler struct {
	*BaseHandler
	planService *services.PlanService
}

func NewPlanHandler(base *BaseHandler, planService *services.PlanService) *PlanHandler {
	return &PlanHandler{BaseHandler: base, planService: planService}
}

// List handles GET /api/v1/plans (public catalog).
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.planService.List(c.Request.Context(), true)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, plans)
}

// Get handles GET /api/v1/plans/:code.
func (h *PlanHandler) Get(c *gin.Context) {
	plan, err := h.planService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, plan)
}

// Create handles POST /api/v1/admin/plans.
func (h *PlanHandler) Create(c *gin.Context) {
	var req dto.CreatePlanRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.Created(c, plan)
}

// Update handles PUT /api/v1/admin/plans/:code.
func (h *PlanHandler) Update(c *gin.Context) {
	var req dto.UpdatePlanRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	plan, err := h.planService.Update(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, plan)
}
