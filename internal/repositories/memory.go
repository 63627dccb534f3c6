package repositories

import (
	"context"
	"sort"
	"sync"

	"capebiz_backend/internal/models"
)

// MemoryStore is an in-memory Store implementation. It backs tests and local
// development without a database. Transaction serializes callers with a
// single lock, which gives the same per-row exclusivity the SQL store gets
// from SELECT ... FOR UPDATE (coarser, but correct).
type MemoryStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users      map[uint]models.User
	businesses map[uint]models.Business
	plans      map[string]models.SubscriptionPlan
	payments   map[uint]models.Payment
	nextID     uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uint]models.User),
		businesses: make(map[uint]models.Business),
		plans:      make(map[string]models.SubscriptionPlan),
		payments:   make(map[uint]models.Payment),
	}
}

func (s *MemoryStore) Users() UserRepository          { return &memoryUserRepo{s} }
func (s *MemoryStore) Businesses() BusinessRepository { return &memoryBusinessRepo{s} }
func (s *MemoryStore) Plans() PlanRepository          { return &memoryPlanRepo{s} }
func (s *MemoryStore) Payments() PaymentRepository    { return &memoryPaymentRepo{s} }

func (s *MemoryStore) Transaction(ctx context.Context, fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

// allocID must be called with mu held.
func (s *MemoryStore) allocID() uint {
	s.nextID++
	return s.nextID
}

// --- users ---

type memoryUserRepo struct{ s *MemoryStore }

func (r *memoryUserRepo) FindByID(_ context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return ErrUserAlreadyExists
		}
	}
	if user.ID == 0 {
		user.ID = r.s.allocID()
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	r.s.users[user.ID] = *user
	return nil
}

// --- businesses ---

type memoryBusinessRepo struct{ s *MemoryStore }

func (r *memoryBusinessRepo) FindByID(_ context.Context, id uint) (*models.Business, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.businesses[id]
	if !ok {
		return nil, ErrBusinessNotFound
	}
	return &b, nil
}

func (r *memoryBusinessRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.Business, error) {
	// Exclusivity comes from the Transaction lock.
	return r.FindByID(ctx, id)
}

func (r *memoryBusinessRepo) FindByUser(_ context.Context, userID uint) ([]models.Business, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Business
	for _, b := range r.s.businesses {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryBusinessRepo) List(_ context.Context, filter BusinessFilter) ([]models.Business, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Business
	for _, b := range r.s.businesses {
		if !b.IsApproved || !b.IsActive {
			continue
		}
		if filter.Town != "" && b.Town != filter.Town {
			continue
		}
		if filter.Category != "" && b.Category != filter.Category {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsFeatured != out[j].IsFeatured {
			return out[i].IsFeatured
		}
		return out[i].Views > out[j].Views
	})
	return out, int64(len(out)), nil
}

func (r *memoryBusinessRepo) Create(_ context.Context, business *models.Business) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if business.ID == 0 {
		business.ID = r.s.allocID()
	}
	r.s.businesses[business.ID] = *business
	return nil
}

func (r *memoryBusinessRepo) Update(_ context.Context, business *models.Business) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.businesses[business.ID]; !ok {
		return ErrBusinessNotFound
	}
	r.s.businesses[business.ID] = *business
	return nil
}

func (r *memoryBusinessRepo) IncrementViews(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.businesses[id]
	if !ok {
		return ErrBusinessNotFound
	}
	b.Views++
	r.s.businesses[id] = b
	return nil
}

// --- plans ---

type memoryPlanRepo struct{ s *MemoryStore }

func (r *memoryPlanRepo) GetAll(_ context.Context, activeOnly bool) ([]models.SubscriptionPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.SubscriptionPlan
	for _, p := range r.s.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (r *memoryPlanRepo) FindByCode(_ context.Context, code string) (*models.SubscriptionPlan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.plans[code]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return &p, nil
}

func (r *memoryPlanRepo) Create(_ context.Context, plan *models.SubscriptionPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if plan.ID == 0 {
		plan.ID = r.s.allocID()
	}
	r.s.plans[plan.Code] = *plan
	return nil
}

func (r *memoryPlanRepo) Update(_ context.Context, plan *models.SubscriptionPlan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.plans[plan.Code]; !ok {
		return ErrPlanNotFound
	}
	r.s.plans[plan.Code] = *plan
	return nil
}

// --- payments ---

type memoryPaymentRepo struct{ s *MemoryStore }

func (r *memoryPaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if payment.ID == 0 {
		payment.ID = r.s.allocID()
	}
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r *memoryPaymentRepo) FindByID(_ context.Context, id uint) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return &p, nil
}

func (r *memoryPaymentRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *memoryPaymentRepo) FindByUser(_ context.Context, userID uint, limit, offset int) ([]models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Payment
	for _, p := range r.s.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryPaymentRepo) Update(_ context.Context, payment *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[payment.ID]; !ok {
		return ErrPaymentNotFound
	}
	r.s.payments[payment.ID] = *payment
	return nil
}
