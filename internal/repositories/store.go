package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories and provides the single atomic commit
// boundary the payment flow needs: inside Transaction, every repository
// returned by the nested Store runs on the same database transaction, so a
// status transition and its business-side effect persist together or not
// at all.
type Store interface {
	Users() UserRepository
	Businesses() BusinessRepository
	Plans() PlanRepository
	Payments() PaymentRepository

	Transaction(ctx context.Context, fn func(Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository {
	return &UserRepositoryImpl{db: s.db}
}

func (s *gormStore) Businesses() BusinessRepository {
	return &BusinessRepositoryImpl{db: s.db}
}

func (s *gormStore) Plans() PlanRepository {
	return &PlanRepositoryImpl{db: s.db}
}

func (s *gormStore) Payments() PaymentRepository {
	return &PaymentRepositoryImpl{db: s.db}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
