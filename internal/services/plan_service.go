package services

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"

	"capebiz_backend/internal/dto"
	"capebiz_backend/internal/models"
	"capebiz_backend/internal/repositories"
	"capebiz_backend/pkg/apperrors"
)

type PlanService struct {
	store repositories.Store
}

func NewPlanService(store repositories.Store) *PlanService {
	return &PlanService{store: store}
}

func (s *PlanService) List(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error) {
	plans, err := s.store.Plans().GetAll(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return plans, nil
}

func (s *PlanService) GetByCode(ctx context.Context, code string) (*models.SubscriptionPlan, error) {
	plan, err := s.store.Plans().FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, apperrors.ErrNotFound(err, "subscription plan")
		}
		return nil, apperrors.InternalError(err)
	}
	return plan, nil
}

func (s *PlanService) Create(ctx context.Context, req dto.CreatePlanRequest) (*models.SubscriptionPlan, error) {
	features, err := json.Marshal(req.Features)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "ZAR"
	}
	duration := req.DurationDays
	if duration <= 0 {
		duration = 30
	}

	plan := &models.SubscriptionPlan{
		Code:         req.Code,
		Name:         req.Name,
		Price:        req.Price,
		Currency:     currency,
		DurationDays: duration,
		Features:     datatypes.JSON(features),
		IsActive:     true,
	}

	if err := s.store.Plans().Create(ctx, plan); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return plan, nil
}

func (s *PlanService) Update(ctx context.Context, code string, req dto.UpdatePlanRequest) (*models.SubscriptionPlan, error) {
	plan, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.DurationDays != nil {
		plan.DurationDays = *req.DurationDays
	}
	if req.Features != nil {
		features, err := json.Marshal(req.Features)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		plan.Features = datatypes.JSON(features)
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.store.Plans().Update(ctx, plan); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return plan, nil
}
