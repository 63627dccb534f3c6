package models

type UserRole string
type UserStatus string
type PaymentStatus string
type PaymentType string

const (
	UserRoleOwner UserRole = "owner"
	UserRoleAdmin UserRole = "admin"

	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

const (
	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypeBoost        PaymentType = "boost"
	PaymentTypeOther        PaymentType = "other"
)

// IsTerminal reports whether no forward gateway callback may leave this state.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusCompleted, PaymentStatusCancelled, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Valid reports whether t is a recognized payment type.
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeSubscription, PaymentTypeBoost, PaymentTypeOther:
		return true
	}
	return false
}
