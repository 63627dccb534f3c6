package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"capebiz_backend/internal/models"
)

var ErrPlanNotFound = errors.New("subscription plan not found")

type PlanRepository interface {
	GetAll(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error)
	FindByCode(ctx context.Context, code string) (*models.SubscriptionPlan, error)
	Create(ctx context.Context, plan *models.SubscriptionPlan) error
	Update(ctx context.Context, plan *models.SubscriptionPlan) error
}

type PlanRepositoryImpl struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &PlanRepositoryImpl{db: db}
}

func (r *PlanRepositoryImpl) GetAll(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error) {
	query := r.db.WithContext(ctx).Model(&models.SubscriptionPlan{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var plans []models.SubscriptionPlan
	err := query.Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepositoryImpl) FindByCode(ctx context.Context, code string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.WithContext(ctx).First(&plan, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *models.SubscriptionPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *PlanRepositoryImpl) Update(ctx context.Context, plan *models.SubscriptionPlan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}
