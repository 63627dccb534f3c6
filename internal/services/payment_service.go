package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"capebiz_backend/internal/dto"
	"capebiz_backend/internal/email"
	"capebiz_backend/internal/logger"
	"capebiz_backend/internal/models"
	"capebiz_backend/internal/payments"
	"capebiz_backend/internal/repositories"
	"capebiz_backend/pkg/apperrors"
)

const (
	// Featured boost: flat price, fixed window.
	boostPrice  = 99.00
	boostWindow = 7 * 24 * time.Hour

	defaultCurrency = "ZAR"
)

// CallbackURLs are the endpoints the gateway redirects to or posts to. The
// payment id is appended as a path segment when a request is built.
type CallbackURLs struct {
	Return string
	Cancel string
	Notify string
}

// PaymentService owns the payment lifecycle: initiation, gateway callbacks,
// status transitions and the business-side effects of completion.
type PaymentService struct {
	store  repositories.Store
	client *payments.Client
	email  email.Provider
	urls   CallbackURLs

	now func() time.Time
}

func NewPaymentService(store repositories.Store, client *payments.Client, emailProvider email.Provider, urls CallbackURLs) *PaymentService {
	return &PaymentService{
		store:  store,
		client: client,
		email:  emailProvider,
		urls:   urls,
		now:    time.Now,
	}
}

// CreatePayment records a pending payment. Validation happens here, before
// any row exists.
func (s *PaymentService) CreatePayment(ctx context.Context, userID, businessID uint, amount float64, paymentType models.PaymentType) (*models.Payment, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidPaymentAmount
	}
	if !paymentType.Valid() {
		return nil, apperrors.ErrInvalidPaymentType
	}

	payment := &models.Payment{
		UserID:            userID,
		BusinessID:        businessID,
		Amount:            amount,
		Currency:          defaultCurrency,
		PaymentType:       paymentType,
		Status:            models.PaymentStatusPending,
		MerchantReference: uuid.NewString(),
	}

	if err := s.store.Payments().Create(ctx, payment); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "payment created",
		"payment_id", payment.ID,
		"user_id", userID,
		"business_id", businessID,
		"amount", amount,
		"payment_type", string(paymentType),
	)
	return payment, nil
}

// InitiateSubscription creates a pending subscription payment for the given
// plan and returns the signed gateway payload. The plan code travels in
// custom_str2 and comes back in the callbacks; the payment id travels in
// custom_str1 and in the callback URL paths.
func (s *PaymentService) InitiateSubscription(ctx context.Context, userID, businessID uint, planCode string) (*dto.InitiatePaymentResponse, error) {
	plan, err := s.store.Plans().FindByCode(ctx, planCode)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, apperrors.ErrNotFound(err, "subscription plan")
		}
		return nil, apperrors.InternalError(err)
	}
	if !plan.IsActive {
		return nil, apperrors.NewBadRequestError("Subscription plan is no longer available")
	}

	business, err := s.ownedBusiness(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}

	payment, err := s.CreatePayment(ctx, userID, businessID, plan.Price, models.PaymentTypeSubscription)
	if err != nil {
		return nil, err
	}

	itemName := fmt.Sprintf("%s subscription for %s", plan.Name, business.Name)
	return s.buildResponse(ctx, payment, itemName, plan.Code)
}

// InitiateBoost creates a pending boost payment for a listing.
func (s *PaymentService) InitiateBoost(ctx context.Context, userID, businessID uint) (*dto.InitiatePaymentResponse, error) {
	business, err := s.ownedBusiness(ctx, userID, businessID)
	if err != nil {
		return nil, err
	}

	payment, err := s.CreatePayment(ctx, userID, businessID, boostPrice, models.PaymentTypeBoost)
	if err != nil {
		return nil, err
	}

	itemName := fmt.Sprintf("Featured boost for %s", business.Name)
	return s.buildResponse(ctx, payment, itemName, "")
}

func (s *PaymentService) buildResponse(ctx context.Context, payment *models.Payment, itemName, planCode string) (*dto.InitiatePaymentResponse, error) {
	emailAddress := ""
	if user, err := s.store.Users().FindByID(ctx, payment.UserID); err == nil {
		emailAddress = user.Email
	}

	paymentID := strconv.FormatUint(uint64(payment.ID), 10)
	payload := s.client.BuildPaymentRequest(payments.PaymentRequest{
		Amount:       payment.Amount,
		ItemName:     itemName,
		ReturnURL:    s.urls.Return + "/" + paymentID,
		CancelURL:    s.urls.Cancel + "/" + paymentID,
		NotifyURL:    s.urls.Notify + "/" + paymentID,
		EmailAddress: emailAddress,
		CustomStr1:   paymentID,
		CustomStr2:   planCode,
	})

	return &dto.InitiatePaymentResponse{
		PaymentID:  payment.ID,
		ProcessURL: s.client.ProcessURL(),
		Payload:    payload,
	}, nil
}

// HandleSuccess processes the gateway's browser return. The payload is signed
// like a notify; a bad signature leaves the payment untouched. raw is the
// payload as received on the wire, stored verbatim on completion.
func (s *PaymentService) HandleSuccess(ctx context.Context, paymentID uint, params map[string]string, raw string) (*models.Payment, error) {
	if !s.client.VerifyCallback(params) {
		logger.CtxWarn(ctx, "success callback signature mismatch", "payment_id", paymentID)
		return nil, apperrors.ErrSignatureMismatch
	}
	return s.markCompleted(ctx, paymentID, params, raw)
}

// HandleNotify processes the asynchronous server-to-server notification, the
// authoritative payment outcome. It is idempotent: a duplicate delivery for an
// already-completed payment is acknowledged without reapplying side effects.
// raw is the form body as received, stored verbatim on completion.
func (s *PaymentService) HandleNotify(ctx context.Context, paymentID uint, params map[string]string, raw string) error {
	if !s.client.VerifyCallback(params) {
		logger.CtxWarn(ctx, "notify signature mismatch", "payment_id", paymentID)
		return apperrors.ErrSignatureMismatch
	}
	_, err := s.markCompleted(ctx, paymentID, params, raw)
	return err
}

// HandleCancel transitions a pending payment to cancelled. User-initiated and
// informational, so no signature is required. Business fields are untouched.
func (s *PaymentService) HandleCancel(ctx context.Context, paymentID uint) (*models.Payment, error) {
	var payment *models.Payment
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		p, err := s.lockPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if !p.CanTransition(models.PaymentStatusCancelled) {
			return apperrors.ErrInvalidTransition
		}
		p.Status = models.PaymentStatusCancelled
		payment = p
		return tx.Payments().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "payment cancelled", "payment_id", paymentID)
	return payment, nil
}

// Refund transitions a completed payment to refunded. The actual money
// movement happens in the gateway dashboard; this records the outcome.
func (s *PaymentService) Refund(ctx context.Context, paymentID uint) (*models.Payment, error) {
	var payment *models.Payment
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		p, err := s.lockPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if !p.CanTransition(models.PaymentStatusRefunded) {
			return apperrors.ErrInvalidTransition
		}
		p.Status = models.PaymentStatusRefunded
		payment = p
		return tx.Payments().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	logger.CtxInfo(ctx, "payment refunded", "payment_id", paymentID)
	return payment, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, userID, paymentID uint, isAdmin bool) (*models.Payment, error) {
	payment, err := s.store.Payments().FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, apperrors.ErrNotFound(err, "payment")
		}
		return nil, apperrors.InternalError(err)
	}
	if payment.UserID != userID && !isAdmin {
		return nil, apperrors.NewForbiddenError("You do not own this payment")
	}
	return payment, nil
}

func (s *PaymentService) History(ctx context.Context, userID uint, page, pageSize int) ([]models.Payment, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	payments, err := s.store.Payments().FindByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return payments, nil
}

// markCompleted is the single completing transition. It runs inside one
// transaction with the payment row locked, so concurrent callbacks for the
// same payment id serialize and the side effect applies exactly once:
//
//   - already completed: no-op, returns the payment with no error so the
//     notify path can acknowledge and the gateway stops retrying
//   - other terminal state: AlreadyTerminal
//   - pending: transition plus the type-specific business mutation, committed
//     together
//
// A missing plan or business during side-effect application does not roll the
// completion back (the money was received); it surfaces as a recoverable
// error for reconciliation.
func (s *PaymentService) markCompleted(ctx context.Context, paymentID uint, params map[string]string, raw string) (*models.Payment, error) {
	var payment *models.Payment
	var sideEffectErr error
	var firstCompletion bool

	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		p, err := s.lockPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		payment = p

		if p.Status == models.PaymentStatusCompleted {
			// Duplicate delivery. Acknowledge, apply nothing.
			logger.CtxInfo(ctx, "duplicate completion ignored", "payment_id", p.ID)
			return nil
		}
		if !p.CanTransition(models.PaymentStatusCompleted) {
			return apperrors.ErrAlreadyTerminal
		}

		firstCompletion = true
		p.Status = models.PaymentStatusCompleted
		p.GatewayTransactionID = gatewayTransactionID(params, p.MerchantReference)
		// Stored verbatim for audit and side-effect replay; re-encoding
		// would lose the original ordering and escaping.
		p.GatewayResponse = raw
		if raw == "" {
			p.GatewayResponse = encodeParams(params)
		}

		if err := s.applySideEffect(ctx, tx, p, params); err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.CodeSideEffectFailed {
				// Keep the completion; flag for reconciliation.
				sideEffectErr = err
			} else {
				return err
			}
		}

		return tx.Payments().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	if sideEffectErr != nil {
		logger.CtxError(ctx, "payment completed but side effect failed, needs reconciliation",
			"payment_id", payment.ID,
			"payment_type", string(payment.PaymentType),
			"error", sideEffectErr,
		)
		return payment, sideEffectErr
	}

	if firstCompletion {
		logger.CtxInfo(ctx, "payment completed",
			"payment_id", payment.ID,
			"gateway_transaction_id", payment.GatewayTransactionID,
		)
		s.sendConfirmation(payment, params["item_name"])
	}

	return payment, nil
}

// applySideEffect mutates the business according to the payment type. Runs on
// the same transaction as the status change.
func (s *PaymentService) applySideEffect(ctx context.Context, tx repositories.Store, payment *models.Payment, params map[string]string) error {
	switch payment.PaymentType {
	case models.PaymentTypeSubscription:
		return s.applySubscription(ctx, tx, payment, params["custom_str2"])
	case models.PaymentTypeBoost:
		return s.applyBoost(ctx, tx, payment)
	}
	return nil
}

// applySubscription sets the tier and extends the expiry. A still-running
// subscription stacks the new duration onto its current expiry; a lapsed one
// restarts from now.
func (s *PaymentService) applySubscription(ctx context.Context, tx repositories.Store, payment *models.Payment, planCode string) error {
	plan, err := tx.Plans().FindByCode(ctx, planCode)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			logger.CtxWarn(ctx, "plan missing during side-effect application",
				"payment_id", payment.ID, "plan_code", planCode)
			return apperrors.ErrPlanNotFound
		}
		return err
	}

	business, err := tx.Businesses().FindByIDForUpdate(ctx, payment.BusinessID)
	if err != nil {
		if errors.Is(err, repositories.ErrBusinessNotFound) {
			logger.CtxWarn(ctx, "business missing during side-effect application",
				"payment_id", payment.ID, "business_id", payment.BusinessID)
			return apperrors.ErrBusinessNotFound
		}
		return err
	}

	now := s.now()
	base := now
	if business.SubscriptionExpiry != nil && business.SubscriptionExpiry.After(now) {
		base = *business.SubscriptionExpiry
	}
	expiry := base.Add(time.Duration(plan.DurationDays) * 24 * time.Hour)

	business.SubscriptionTier = plan.Code
	business.SubscriptionExpiry = &expiry

	return tx.Businesses().Update(ctx, business)
}

// applyBoost features the listing and records the boost window end on the
// payment itself. The marker is written at most once per payment.
func (s *PaymentService) applyBoost(ctx context.Context, tx repositories.Store, payment *models.Payment) error {
	business, err := tx.Businesses().FindByIDForUpdate(ctx, payment.BusinessID)
	if err != nil {
		if errors.Is(err, repositories.ErrBusinessNotFound) {
			logger.CtxWarn(ctx, "business missing during side-effect application",
				"payment_id", payment.ID, "business_id", payment.BusinessID)
			return apperrors.ErrBusinessNotFound
		}
		return err
	}

	business.IsFeatured = true
	payment.SetBoostExpiry(s.now().Add(boostWindow))

	return tx.Businesses().Update(ctx, business)
}

// sendConfirmation is fire-and-forget. Delivery failure never affects the
// committed payment state.
func (s *PaymentService) sendConfirmation(payment *models.Payment, itemName string) {
	if s.email == nil {
		return
	}
	go func(p models.Payment) {
		user, err := s.store.Users().FindByID(context.Background(), p.UserID)
		if err != nil {
			logger.WithError(err).Warn("confirmation email skipped, user lookup failed", "payment_id", p.ID)
			return
		}
		if itemName == "" {
			itemName = string(p.PaymentType)
		}
		sendErr := s.email.SendTemplate(
			[]string{user.Email},
			"Payment received",
			"payment_confirmation",
			email.TemplateData{
				"Name":      user.Name,
				"Amount":    p.Amount,
				"Currency":  p.Currency,
				"ItemName":  itemName,
				"Reference": p.MerchantReference,
			},
		)
		if sendErr != nil {
			logger.WithError(sendErr).Error("failed to send payment confirmation", "payment_id", p.ID)
		}
	}(*payment)
}

func (s *PaymentService) ownedBusiness(ctx context.Context, userID, businessID uint) (*models.Business, error) {
	business, err := s.store.Businesses().FindByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, repositories.ErrBusinessNotFound) {
			return nil, apperrors.ErrNotFound(err, "business")
		}
		return nil, apperrors.InternalError(err)
	}
	if business.UserID != userID {
		return nil, apperrors.ErrNotBusinessOwner
	}
	return business, nil
}

func (s *PaymentService) lockPayment(ctx context.Context, tx repositories.Store, paymentID uint) (*models.Payment, error) {
	p, err := tx.Payments().FindByIDForUpdate(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, apperrors.ErrNotFound(err, "payment")
		}
		return nil, err
	}
	return p, nil
}

// gatewayTransactionID prefers the gateway-assigned id; the invariant that a
// completed payment always carries one falls back to our own reference.
func gatewayTransactionID(params map[string]string, fallback string) string {
	if id := params["pf_payment_id"]; id != "" {
		return id
	}
	return fallback
}

// encodeParams is the audit fallback when no wire payload is available,
// canonical form-encoding of the parsed fields.
func encodeParams(params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}
