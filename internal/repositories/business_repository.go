package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"capebiz_backend/internal/models"
)

var ErrBusinessNotFound = errors.New("business not found")

// BusinessFilter narrows directory listings.
type BusinessFilter struct {
	Town     string
	Category string
	Page     int
	PageSize int
}

type BusinessRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Business, error)
	// FindByIDForUpdate locks the row so concurrent payment completions for
	// the same business serialize on the subscription fields.
	FindByIDForUpdate(ctx context.Context, id uint) (*models.Business, error)
	FindByUser(ctx context.Context, userID uint) ([]models.Business, error)
	List(ctx context.Context, filter BusinessFilter) ([]models.Business, int64, error)
	Create(ctx context.Context, business *models.Business) error
	Update(ctx context.Context, business *models.Business) error
	IncrementViews(ctx context.Context, id uint) error
}

type BusinessRepositoryImpl struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &BusinessRepositoryImpl{db: db}
}

func (r *BusinessRepositoryImpl) FindByID(ctx context.Context, id uint) (*models.Business, error) {
	var business models.Business
	err := r.db.WithContext(ctx).First(&business, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return &business, nil
}

func (r *BusinessRepositoryImpl) FindByIDForUpdate(ctx context.Context, id uint) (*models.Business, error) {
	var business models.Business
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&business, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return &business, nil
}

func (r *BusinessRepositoryImpl) FindByUser(ctx context.Context, userID uint) ([]models.Business, error) {
	var businesses []models.Business
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&businesses).Error
	return businesses, err
}

func (r *BusinessRepositoryImpl) List(ctx context.Context, filter BusinessFilter) ([]models.Business, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Business{}).
		Where("is_approved = ? AND is_active = ?", true, true)

	if filter.Town != "" {
		query = query.Where("town = ?", filter.Town)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	var businesses []models.Business
	err := query.
		Order("is_featured DESC, views DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&businesses).Error
	return businesses, total, err
}

func (r *BusinessRepositoryImpl) Create(ctx context.Context, business *models.Business) error {
	return r.db.WithContext(ctx).Create(business).Error
}

func (r *BusinessRepositoryImpl) Update(ctx context.Context, business *models.Business) error {
	return r.db.WithContext(ctx).Save(business).Error
}

func (r *BusinessRepositoryImpl) IncrementViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Business{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}
