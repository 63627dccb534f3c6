package models

import (
	"gorm.io/datatypes"
)

// SubscriptionPlan is a catalog entry. Read-only at payment time; a completed
// subscription payment references a plan by code to determine tier and expiry.
type SubscriptionPlan struct {
	BaseModel
	Code         string         `gorm:"size:20;uniqueIndex;not null" json:"code"` // free, starter, professional, ...
	Name         string         `gorm:"size:50;not null" json:"name"`
	Price        float64        `gorm:"not null" json:"price"`
	Currency     string         `gorm:"size:3;default:'ZAR'" json:"currency"`
	DurationDays int            `gorm:"default:30" json:"duration_days"`
	Features     datatypes.JSON `gorm:"type:jsonb" json:"features"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
}
