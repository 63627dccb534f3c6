package services

import (
	"context"
	"errors"
	"strconv"

	"capebiz_backend/internal/auth"
	"capebiz_backend/internal/dto"
	"capebiz_backend/internal/logger"
	"capebiz_backend/internal/models"
	"capebiz_backend/internal/repositories"
	"capebiz_backend/pkg/apperrors"
)

type AuthService struct {
	store repositories.Store
}

func NewAuthService(store repositories.Store) *AuthService {
	return &AuthService{store: store}
}

func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.UserRoleOwner,
		Status:       models.UserStatusActive,
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "user registered", "user_id", user.ID, "email", user.Email)

	return s.issueToken(user)
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.store.Users().FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.Status != models.UserStatusActive {
		return nil, apperrors.NewForbiddenError("Account is suspended")
	}

	return s.issueToken(user)
}

func (s *AuthService) issueToken(user *models.User) (*dto.AuthResponse, error) {
	token, err := auth.GenerateToken(strconv.FormatUint(uint64(user.ID), 10), string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.AuthResponse{
		Token: token,
		User:  dto.ToUserResponse(user),
	}, nil
}
