package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capebiz_backend/internal/auth"
	"capebiz_backend/internal/config"
	"capebiz_backend/internal/dto"
	"capebiz_backend/internal/repositories"
	"capebiz_backend/pkg/apperrors"
)

func newAuthFixture() (*AuthService, *repositories.MemoryStore) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = 60
	config.AppConfig = cfg

	store := repositories.NewMemoryStore()
	return NewAuthService(store), store
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	resp, err := svc.Register(ctx, dto.RegisterRequest{
		Name:     "Thandi",
		Email:    "thandi@example.co.za",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "owner", resp.User.Role)

	claims, err := auth.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "owner", claims.Role)

	login, err := svc.Login(ctx, dto.LoginRequest{Email: "thandi@example.co.za", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestAuthService_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	req := dto.RegisterRequest{Name: "Thandi", Email: "thandi@example.co.za", Password: "s3cret-pass"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestAuthService_BadCredentials(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterRequest{Name: "Thandi", Email: "thandi@example.co.za", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "thandi@example.co.za", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.co.za", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestAuthService_ShortPasswordRejected(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name: "Thandi", Email: "thandi@example.co.za", Password: "short",
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPCode)
}
