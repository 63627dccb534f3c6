package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capebiz_backend/internal/dto"
	"capebiz_backend/internal/models"
	"capebiz_backend/internal/repositories"
	"capebiz_backend/pkg/apperrors"
)

func newBusinessFixture(t *testing.T) (*BusinessService, *repositories.MemoryStore, *models.User) {
	t.Helper()

	store := repositories.NewMemoryStore()
	owner := &models.User{Name: "Thandi", Email: "thandi@example.co.za", PasswordHash: "x", Role: models.UserRoleOwner}
	require.NoError(t, store.Users().Create(context.Background(), owner))

	return NewBusinessService(store, nil), store, owner
}

func createRequest() dto.CreateBusinessRequest {
	return dto.CreateBusinessRequest{
		Name:        "Karoo Bakery",
		Description: "Wood-fired bread and pastries",
		Category:    "Food",
		Town:        "Prince Albert",
		Email:       "hello@karoo.co.za",
		Phone:       "0211234567",
	}
}

func TestBusinessService_CreateStartsUnapproved(t *testing.T) {
	t.Parallel()
	svc, _, owner := newBusinessFixture(t)

	business, err := svc.Create(context.Background(), owner.ID, createRequest())
	require.NoError(t, err)

	assert.False(t, business.IsApproved, "new listings wait for admin approval")
	assert.True(t, business.IsActive)
	assert.Equal(t, owner.ID, business.UserID)
}

func TestBusinessService_ListShowsOnlyApproved(t *testing.T) {
	t.Parallel()
	svc, _, owner := newBusinessFixture(t)
	ctx := context.Background()

	business, err := svc.Create(ctx, owner.ID, createRequest())
	require.NoError(t, err)

	listed, total, err := svc.List(ctx, repositories.BusinessFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, listed)

	_, err = svc.Approve(ctx, business.ID)
	require.NoError(t, err)

	listed, total, err = svc.List(ctx, repositories.BusinessFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, listed, 1)
	assert.Equal(t, business.ID, listed[0].ID)
}

func TestBusinessService_UpdateRequiresOwnership(t *testing.T) {
	t.Parallel()
	svc, store, owner := newBusinessFixture(t)
	ctx := context.Background()

	business, err := svc.Create(ctx, owner.ID, createRequest())
	require.NoError(t, err)

	other := &models.User{Name: "Sipho", Email: "sipho@example.co.za", PasswordHash: "x"}
	require.NoError(t, store.Users().Create(ctx, other))

	newName := "Karoo Bakery & Deli"
	_, err = svc.Update(ctx, other.ID, business.ID, dto.UpdateBusinessRequest{Name: &newName})
	assert.ErrorIs(t, err, apperrors.ErrNotBusinessOwner)

	updated, err := svc.Update(ctx, owner.ID, business.ID, dto.UpdateBusinessRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
}

func TestBusinessService_GetCountsView(t *testing.T) {
	t.Parallel()
	svc, _, owner := newBusinessFixture(t)
	ctx := context.Background()

	business, err := svc.Create(ctx, owner.ID, createRequest())
	require.NoError(t, err)

	_, err = svc.Get(ctx, business.ID)
	require.NoError(t, err)
	got, err := svc.Get(ctx, business.ID)
	require.NoError(t, err)

	// The second read sees the first read's increment.
	assert.Equal(t, 1, got.Views)
}
