package models

import "time"

// Business is a directory listing. The subscription fields (tier, expiry,
// featured flag) are mutated only as a side effect of a completed payment.
type Business struct {
	BaseModel
	Name        string `gorm:"size:200;not null" json:"name"`
	Description string `gorm:"type:text;not null" json:"description"`
	Category    string `gorm:"size:100;not null" json:"category"`
	Town        string `gorm:"size:100;not null" json:"town"`
	Address     string `gorm:"type:text" json:"address"`
	Email       string `gorm:"size:120;not null" json:"email"`
	Phone       string `gorm:"size:20;not null" json:"phone"`
	Website     string `gorm:"size:200" json:"website"`

	// Status and visibility
	IsApproved bool `gorm:"default:false" json:"is_approved"`
	IsFeatured bool `gorm:"default:false" json:"is_featured"`
	IsActive   bool `gorm:"default:true" json:"is_active"`

	// Subscription state, owned by the payment subsystem
	SubscriptionTier   string     `gorm:"size:20;default:'free'" json:"subscription_tier"`
	SubscriptionExpiry *time.Time `json:"subscription_expiry"`

	// Simple counters for listing display
	Views  int `gorm:"default:0" json:"views"`
	Clicks int `gorm:"default:0" json:"clicks"`

	UserID uint `gorm:"not null;index" json:"user_id"`
}
