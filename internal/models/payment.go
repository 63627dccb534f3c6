package models

import (
	"strings"
	"time"
)

// boostExpiryPrefix marks a boost expiry timestamp stored in GatewayResponse.
const boostExpiryPrefix = "boost_expiry:"

// Payment is one monetary transaction. Created pending, mutated only by the
// callback flow or an explicit cancel, never deleted.
type Payment struct {
	BaseModel
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	BusinessID  uint        `gorm:"index" json:"business_id"` // item reference: the business being paid for
	Amount      float64     `gorm:"not null" json:"amount"`
	Currency    string      `gorm:"size:3;default:'ZAR'" json:"currency"`
	PaymentType PaymentType `gorm:"type:varchar(20);not null" json:"payment_type"`
	Status      PaymentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	// MerchantReference is our id sent to the gateway (m_payment_id).
	MerchantReference string `gorm:"size:64;uniqueIndex" json:"merchant_reference"`

	// Set only on completion.
	GatewayTransactionID string `gorm:"size:100" json:"gateway_transaction_id"`
	// GatewayResponse stores the raw callback payload verbatim for audit.
	GatewayResponse string `gorm:"type:text" json:"-"`
}

// CanTransition reports whether the state machine allows moving to the target
// status. pending -> completed|cancelled|failed; completed -> refunded.
func (p *Payment) CanTransition(to PaymentStatus) bool {
	switch p.Status {
	case PaymentStatusPending:
		return to == PaymentStatusCompleted || to == PaymentStatusCancelled || to == PaymentStatusFailed
	case PaymentStatusCompleted:
		return to == PaymentStatusRefunded
	}
	return false
}

// SetBoostExpiry records the boost window end in the opaque response field,
// first completion wins. Returns false if a marker was already present.
func (p *Payment) SetBoostExpiry(expiry time.Time) bool {
	if p.HasBoostExpiry() {
		return false
	}
	marker := boostExpiryPrefix + expiry.UTC().Format(time.RFC3339)
	if p.GatewayResponse == "" {
		p.GatewayResponse = marker
	} else {
		p.GatewayResponse = marker + "\n" + p.GatewayResponse
	}
	return true
}

// HasBoostExpiry reports whether a boost expiry marker is already recorded.
func (p *Payment) HasBoostExpiry() bool {
	return strings.Contains(p.GatewayResponse, boostExpiryPrefix)
}

// BoostExpiry extracts the recorded boost window end, if any.
func (p *Payment) BoostExpiry() (time.Time, bool) {
	idx := strings.Index(p.GatewayResponse, boostExpiryPrefix)
	if idx < 0 {
		return time.Time{}, false
	}
	rest := p.GatewayResponse[idx+len(boostExpiryPrefix):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(rest))
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
