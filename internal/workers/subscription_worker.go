package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"capebiz_backend/internal/logger"
	"capebiz_backend/internal/models"
)

// SubscriptionWorker periodically reaps lapsed subscription tiers and boost
// windows. Both are written by the payment completion flow; the worker is the
// only thing that walks them back.
type SubscriptionWorker struct {
	db       *gorm.DB
	interval time.Duration
}

func NewSubscriptionWorker(db *gorm.DB, interval time.Duration) *SubscriptionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SubscriptionWorker{db: db, interval: interval}
}

// Start runs the reap loop until the context is cancelled.
func (w *SubscriptionWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				logger.Info("subscription worker stopped")
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

func (w *SubscriptionWorker) runOnce(ctx context.Context) {
	if err := w.downgradeExpired(ctx); err != nil {
		logger.WithError(err).Error("failed to downgrade expired subscriptions")
	}
	if err := w.unfeatureLapsedBoosts(ctx); err != nil {
		logger.WithError(err).Error("failed to unfeature lapsed boosts")
	}
}

// downgradeExpired moves businesses whose paid window has passed back to the
// free tier.
func (w *SubscriptionWorker) downgradeExpired(ctx context.Context) error {
	result := w.db.WithContext(ctx).Model(&models.Business{}).
		Where("subscription_tier <> ? AND subscription_expiry IS NOT NULL AND subscription_expiry < ?", "free", time.Now()).
		Updates(map[string]interface{}{
			"subscription_tier":   "free",
			"subscription_expiry": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		logger.Info("downgraded expired subscriptions", "count", result.RowsAffected)
	}
	return nil
}

// unfeatureLapsedBoosts clears is_featured on businesses whose most recent
// completed boost payment has passed its recorded boost window.
func (w *SubscriptionWorker) unfeatureLapsedBoosts(ctx context.Context) error {
	var businesses []models.Business
	err := w.db.WithContext(ctx).
		Where("is_featured = ?", true).
		Find(&businesses).Error
	if err != nil {
		return err
	}

	now := time.Now()
	var cleared int64

	for i := range businesses {
		business := &businesses[i]

		var boosts []models.Payment
		err := w.db.WithContext(ctx).
			Where("business_id = ? AND payment_type = ? AND status = ?",
				business.ID, models.PaymentTypeBoost, models.PaymentStatusCompleted).
			Order("updated_at DESC").
			Find(&boosts).Error
		if err != nil {
			return err
		}

		active := false
		for j := range boosts {
			if expiry, ok := boosts[j].BoostExpiry(); ok && expiry.After(now) {
				active = true
				break
			}
		}
		if active {
			continue
		}

		result := w.db.WithContext(ctx).Model(&models.Business{}).
			Where("id = ? AND is_featured = ?", business.ID, true).
			Update("is_featured", false)
		if result.Error != nil {
			return result.Error
		}
		cleared += result.RowsAffected
	}

	if cleared > 0 {
		logger.Info("unfeatured lapsed boosts", "count", cleared)
	}
	return nil
}
