package services

import (
	"context"
	"errors"

	"capebiz_backend/internal/dto"
	"capebiz_backend/internal/email"
	"capebiz_backend/internal/logger"
	"capebiz_backend/internal/models"
	"capebiz_backend/internal/repositories"
	"capebiz_backend/pkg/apperrors"
)

type BusinessService struct {
	store repositories.Store
	email email.Provider
}

func NewBusinessService(store repositories.Store, emailProvider email.Provider) *BusinessService {
	return &BusinessService{store: store, email: emailProvider}
}

func (s *BusinessService) Create(ctx context.Context, userID uint, req dto.CreateBusinessRequest) (*models.Business, error) {
	business := &models.Business{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Town:        req.Town,
		Address:     req.Address,
		Email:       req.Email,
		Phone:       req.Phone,
		Website:     req.Website,
		IsActive:    true,
		UserID:      userID,
	}

	if err := s.store.Businesses().Create(ctx, business); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "business listing created", "business_id", business.ID, "user_id", userID)
	return business, nil
}

// Get returns one listing and counts the view. The counter is best-effort;
// a failed increment never fails the read.
func (s *BusinessService) Get(ctx context.Context, id uint) (*models.Business, error) {
	business, err := s.findBusiness(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.Businesses().IncrementViews(ctx, id); err != nil {
		logger.CtxWarn(ctx, "failed to increment views", "business_id", id, "error", err)
	}
	return business, nil
}

func (s *BusinessService) List(ctx context.Context, filter repositories.BusinessFilter) ([]models.Business, int64, error) {
	businesses, total, err := s.store.Businesses().List(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return businesses, total, nil
}

func (s *BusinessService) MyBusinesses(ctx context.Context, userID uint) ([]models.Business, error) {
	businesses, err := s.store.Businesses().FindByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return businesses, nil
}

func (s *BusinessService) Update(ctx context.Context, userID, id uint, req dto.UpdateBusinessRequest) (*models.Business, error) {
	business, err := s.findBusiness(ctx, id)
	if err != nil {
		return nil, err
	}
	if business.UserID != userID {
		return nil, apperrors.ErrNotBusinessOwner
	}

	if req.Name != nil {
		business.Name = *req.Name
	}
	if req.Description != nil {
		business.Description = *req.Description
	}
	if req.Category != nil {
		business.Category = *req.Category
	}
	if req.Town != nil {
		business.Town = *req.Town
	}
	if req.Address != nil {
		business.Address = *req.Address
	}
	if req.Email != nil {
		business.Email = *req.Email
	}
	if req.Phone != nil {
		business.Phone = *req.Phone
	}
	if req.Website != nil {
		business.Website = *req.Website
	}

	if err := s.store.Businesses().Update(ctx, business); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return business, nil
}

// Approve publishes a listing to the directory. Admin only (enforced at the
// route level) and notifies the owner by email.
func (s *BusinessService) Approve(ctx context.Context, id uint) (*models.Business, error) {
	business, err := s.findBusiness(ctx, id)
	if err != nil {
		return nil, err
	}

	if business.IsApproved {
		return business, nil
	}

	business.IsApproved = true
	if err := s.store.Businesses().Update(ctx, business); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "business listing approved", "business_id", business.ID)

	owner, err := s.store.Users().FindByID(ctx, business.UserID)
	if err == nil && s.email != nil {
		go func(b models.Business, u models.User) {
			sendErr := s.email.SendTemplate(
				[]string{u.Email},
				"Your listing is live on CapeBiz Connect",
				"listing_approved",
				email.TemplateData{"Name": u.Name, "BusinessName": b.Name},
			)
			if sendErr != nil {
				logger.WithError(sendErr).Error("failed to send approval email", "business_id", b.ID)
			}
		}(*business, *owner)
	}

	return business, nil
}

func (s *BusinessService) findBusiness(ctx context.Context, id uint) (*models.Business, error) {
	business, err := s.store.Businesses().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrBusinessNotFound) {
			return nil, apperrors.ErrNotFound(err, "business")
		}
		return nil, apperrors.InternalError(err)
	}
	return business, nil
}
