package services

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capebiz_backend/internal/models"
	"capebiz_backend/internal/payments"
	"capebiz_backend/internal/repositories"
	"capebiz_backend/pkg/apperrors"
)

const testPassphrase = "jt7NOE43FZPn"

type paymentFixture struct {
	store   *repositories.MemoryStore
	service *PaymentService
	client  *payments.Client
	now     time.Time

	owner    *models.User
	business *models.Business
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	store := repositories.NewMemoryStore()
	client := payments.NewClient(payments.Config{
		MerchantID:  "10000100",
		MerchantKey: "46f0cd694581a",
		Passphrase:  testPassphrase,
		Sandbox:     true,
	})

	service := NewPaymentService(store, client, nil, CallbackURLs{
		Return: "http://localhost:8080/api/v1/payments/success",
		Cancel: "http://localhost:8080/api/v1/payments/cancel",
		Notify: "http://localhost:8080/api/v1/payments/notify",
	})

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	ctx := context.Background()

	owner := &models.User{Name: "Thandi", Email: "thandi@example.co.za", PasswordHash: "x", Role: models.UserRoleOwner}
	require.NoError(t, store.Users().Create(ctx, owner))

	business := &models.Business{
		Name: "Karoo Bakery", Description: "Bread", Category: "Food", Town: "Prince Albert",
		Email: "hello@karoo.co.za", Phone: "0211234567",
		IsApproved: true, IsActive: true, SubscriptionTier: "free", UserID: owner.ID,
	}
	require.NoError(t, store.Businesses().Create(ctx, business))

	require.NoError(t, store.Plans().Create(ctx, &models.SubscriptionPlan{
		Code: "professional", Name: "Professional", Price: 499, Currency: "ZAR", DurationDays: 30, IsActive: true,
	}))

	return &paymentFixture{store: store, service: service, client: client, now: now, owner: owner, business: business}
}

// signedNotify builds a gateway notify payload for the payment with a valid
// signature over the given fields.
func (f *paymentFixture) signedNotify(payment *models.Payment, planCode string) map[string]string {
	params := map[string]string{
		"m_payment_id":  payment.MerchantReference,
		"pf_payment_id": "1089250",
		"amount_gross":  strconv.FormatFloat(payment.Amount, 'f', 2, 64),
		"item_name":     "Professional subscription for Karoo Bakery",
		"custom_str1":   strconv.FormatUint(uint64(payment.ID), 10),
	}
	if planCode != "" {
		params["custom_str2"] = planCode
	}
	params["signature"] = payments.Sign(params, testPassphrase)
	return params
}

func (f *paymentFixture) reloadPayment(t *testing.T, id uint) *models.Payment {
	t.Helper()
	p, err := f.store.Payments().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

// deliverNotify feeds params to HandleNotify along with the form-encoded
// body a gateway POST would carry.
func (f *paymentFixture) deliverNotify(ctx context.Context, paymentID uint, params map[string]string) error {
	return f.service.HandleNotify(ctx, paymentID, params, encodeForm(params))
}

func encodeForm(params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return values.Encode()
}

func (f *paymentFixture) reloadBusiness(t *testing.T) *models.Business {
	t.Helper()
	b, err := f.store.Businesses().FindByID(context.Background(), f.business.ID)
	require.NoError(t, err)
	return b
}

func TestCreatePayment_Validation(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	_, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 0, models.PaymentTypeSubscription)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPaymentAmount)

	_, err = f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, -5, models.PaymentTypeSubscription)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPaymentAmount)

	_, err = f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 10, models.PaymentType("donation"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidPaymentType)

	// Minimal unit is accepted.
	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 0.01, models.PaymentTypeSubscription)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.NotEmpty(t, payment.MerchantReference)
}

func TestInitiateSubscription_BuildsSignedPayload(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	resp, err := f.service.InitiateSubscription(ctx, f.owner.ID, f.business.ID, "professional")
	require.NoError(t, err)

	assert.Equal(t, "https://sandbox.payfast.co.za/eng/process", resp.ProcessURL)
	assert.Equal(t, "499.00", resp.Payload["amount"])
	assert.Equal(t, "professional", resp.Payload["custom_str2"])
	assert.Equal(t, strconv.FormatUint(uint64(resp.PaymentID), 10), resp.Payload["custom_str1"])
	assert.Contains(t, resp.Payload["item_name"], "Karoo Bakery")
	assert.Equal(t, "thandi@example.co.za", resp.Payload["email_address"])
	assert.True(t, f.client.VerifyCallback(resp.Payload))

	payment := f.reloadPayment(t, resp.PaymentID)
	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, models.PaymentTypeSubscription, payment.PaymentType)
}

func TestInitiateSubscription_NotOwner(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	other := &models.User{Name: "Sipho", Email: "sipho@example.co.za", PasswordHash: "x"}
	require.NoError(t, f.store.Users().Create(ctx, other))

	_, err := f.service.InitiateSubscription(ctx, other.ID, f.business.ID, "professional")
	assert.ErrorIs(t, err, apperrors.ErrNotBusinessOwner)
}

func TestHandleNotify_CompletesAndExtendsSubscription(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
	require.NoError(t, err)

	err = f.deliverNotify(ctx, payment.ID, f.signedNotify(payment, "professional"))
	require.NoError(t, err)

	got := f.reloadPayment(t, payment.ID)
	assert.Equal(t, models.PaymentStatusCompleted, got.Status)
	assert.Equal(t, "1089250", got.GatewayTransactionID)
	assert.Contains(t, got.GatewayResponse, "pf_payment_id=1089250")

	business := f.reloadBusiness(t)
	assert.Equal(t, "professional", business.SubscriptionTier)
	require.NotNil(t, business.SubscriptionExpiry)
	assert.True(t, business.SubscriptionExpiry.Equal(f.now.Add(30*24*time.Hour)))
}

func TestHandleNotify_StoresPayloadVerbatim(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
	require.NoError(t, err)

	params := f.signedNotify(payment, "professional")
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	// Reverse key order: re-encoding the parsed form would sort it.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+url.QueryEscape(params[k]))
	}
	raw := strings.Join(pairs, "&")

	require.NoError(t, f.service.HandleNotify(ctx, payment.ID, params, raw))
	assert.Equal(t, raw, f.reloadPayment(t, payment.ID).GatewayResponse)
}

func TestHandleNotify_DuplicateExtendsOnce(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
	require.NoError(t, err)

	params := f.signedNotify(payment, "professional")
	require.NoError(t, f.deliverNotify(ctx, payment.ID, params))
	// At-least-once delivery: the duplicate must be acknowledged, not
	// rejected, and must not reapply the side effect.
	require.NoError(t, f.deliverNotify(ctx, payment.ID, params))

	business := f.reloadBusiness(t)
	require.NotNil(t, business.SubscriptionExpiry)
	assert.True(t, business.SubscriptionExpiry.Equal(f.now.Add(30*24*time.Hour)),
		"expiry must reflect exactly one extension")
}

func TestHandleNotify_ConcurrentDuplicates(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
	require.NoError(t, err)
	params := f.signedNotify(payment, "professional")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.deliverNotify(ctx, payment.ID, params)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "delivery %d", i)
	}

	business := f.reloadBusiness(t)
	require.NotNil(t, business.SubscriptionExpiry)
	assert.True(t, business.SubscriptionExpiry.Equal(f.now.Add(30*24*time.Hour)),
		"exactly one side-effect application across concurrent deliveries")
}

func TestSubscriptionStacking(t *testing.T) {
	t.Parallel()

	t.Run("active subscription stacks onto current expiry", func(t *testing.T) {
		f := newPaymentFixture(t)
		ctx := context.Background()

		current := f.now.Add(5 * 24 * time.Hour)
		f.business.SubscriptionExpiry = &current
		require.NoError(t, f.store.Businesses().Update(ctx, f.business))

		payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
		require.NoError(t, err)
		require.NoError(t, f.deliverNotify(ctx, payment.ID, f.signedNotify(payment, "professional")))

		business := f.reloadBusiness(t)
		require.NotNil(t, business.SubscriptionExpiry)
		assert.True(t, business.SubscriptionExpiry.Equal(f.now.Add(35*24*time.Hour)))
	})

	t.Run("lapsed subscription restarts from now", func(t *testing.T) {
		f := newPaymentFixture(t)
		ctx := context.Background()

		lapsed := f.now.Add(-24 * time.Hour)
		f.business.SubscriptionExpiry = &lapsed
		require.NoError(t, f.store.Businesses().Update(ctx, f.business))

		payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
		require.NoError(t, err)
		require.NoError(t, f.deliverNotify(ctx, payment.ID, f.signedNotify(payment, "professional")))

		business := f.reloadBusiness(t)
		require.NotNil(t, business.SubscriptionExpiry)
		assert.True(t, business.SubscriptionExpiry.Equal(f.now.Add(30*24*time.Hour)),
			"duration must not stack onto the past")
	})
}

func TestBoostCompletion(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 99, models.PaymentTypeBoost)
	require.NoError(t, err)

	params := f.signedNotify(payment, "")
	require.NoError(t, f.deliverNotify(ctx, payment.ID, params))

	business := f.reloadBusiness(t)
	assert.True(t, business.IsFeatured)

	got := f.reloadPayment(t, payment.ID)
	expiry, ok := got.BoostExpiry()
	require.True(t, ok)
	assert.True(t, expiry.Equal(f.now.Add(7*24*time.Hour)), "boost window is exactly 7 days")

	// Duplicate delivery must not move the window.
	require.NoError(t, f.deliverNotify(ctx, payment.ID, params))
	got = f.reloadPayment(t, payment.ID)
	again, ok := got.BoostExpiry()
	require.True(t, ok)
	assert.True(t, again.Equal(expiry))
}

func TestHandleNotify_SignatureMismatch(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
	require.NoError(t, err)

	params := f.signedNotify(payment, "professional")
	params["amount_gross"] = "1.00"

	err = f.deliverNotify(ctx, payment.ID, params)
	assert.ErrorIs(t, err, apperrors.ErrSignatureMismatch)

	// Rejected callbacks leave everything untouched.
	assert.Equal(t, models.PaymentStatusPending, f.reloadPayment(t, payment.ID).Status)
	business := f.reloadBusiness(t)
	assert.Equal(t, "free", business.SubscriptionTier)
	assert.Nil(t, business.SubscriptionExpiry)
}

func TestHandleNotify_MissingPlanIsRecoverable(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
	require.NoError(t, err)

	err = f.deliverNotify(ctx, payment.ID, f.signedNotify(payment, "discontinued"))
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeSideEffectFailed, appErr.Code)

	// Money was received: the completion sticks even though the side effect
	// could not be applied.
	assert.Equal(t, models.PaymentStatusCompleted, f.reloadPayment(t, payment.ID).Status)
	assert.Equal(t, "free", f.reloadBusiness(t).SubscriptionTier)
}

func TestHandleNotify_TerminalStateRejected(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
	require.NoError(t, err)
	_, err = f.service.HandleCancel(ctx, payment.ID)
	require.NoError(t, err)

	err = f.deliverNotify(ctx, payment.ID, f.signedNotify(payment, "professional"))
	assert.ErrorIs(t, err, apperrors.ErrAlreadyTerminal)
}

func TestHandleCancel(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
	require.NoError(t, err)

	cancelled, err := f.service.HandleCancel(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCancelled, cancelled.Status)

	// Cancelling never touches the business.
	business := f.reloadBusiness(t)
	assert.Equal(t, "free", business.SubscriptionTier)
	assert.Nil(t, business.SubscriptionExpiry)
	assert.False(t, business.IsFeatured)
}

func TestHandleCancel_CompletedRejected(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
	require.NoError(t, err)
	require.NoError(t, f.deliverNotify(ctx, payment.ID, f.signedNotify(payment, "professional")))

	_, err = f.service.HandleCancel(ctx, payment.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestRefund(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
	require.NoError(t, err)

	// Only a completed payment can be refunded.
	_, err = f.service.Refund(ctx, payment.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	require.NoError(t, f.deliverNotify(ctx, payment.ID, f.signedNotify(payment, "professional")))

	refunded, err := f.service.Refund(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, refunded.Status)

	// Terminal: no way back.
	err = f.deliverNotify(ctx, payment.ID, f.signedNotify(payment, "professional"))
	assert.ErrorIs(t, err, apperrors.ErrAlreadyTerminal)
}

func TestGetPayment_Ownership(t *testing.T) {
	t.Parallel()
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.service.CreatePayment(ctx, f.owner.ID, f.business.ID, 499, models.PaymentTypeSubscription)
	require.NoError(t, err)

	got, err := f.service.GetPayment(ctx, f.owner.ID, payment.ID, false)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, got.ID)

	_, err = f.service.GetPayment(ctx, f.owner.ID+100, payment.ID, false)
	require.Error(t, err)

	// Admin may inspect any payment.
	_, err = f.service.GetPayment(ctx, f.owner.ID+100, payment.ID, true)
	assert.NoError(t, err)
}
