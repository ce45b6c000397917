package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Money amounts
	"gorm.io/gorm"                  // GORM hooks
)

// Commission source types
const (
	CommissionMining = "mining" // Share of a referral's daily accrual
	CommissionRebate = "rebate" // One-time payout when a referral rents a machine
)

// ReferralCommission is an immutable commission payout record
type ReferralCommission struct {
	ID         string          `gorm:"primaryKey;type:varchar(36)" json:"id"`             // Primary key
	UserID     string          `gorm:"type:varchar(36);index;not null" json:"userId"`     // Receiver
	FromUserID string          `gorm:"type:varchar(36);index;not null" json:"fromUserId"` // Referral who generated it
	Level      int             `gorm:"not null" json:"level"`                             // 1 or 2
	Amount     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`         // Paid amount
	SourceType string          `gorm:"type:varchar(16);not null" json:"sourceType"`       // mining or rebate
	SourceID   string          `gorm:"type:varchar(36)" json:"sourceId"`                  // Claim or owned machine id
	CreatedAt  time.Time       `json:"createdAt"`                                         // Payout time
}

// BeforeCreate assigns a uuid
func (r *ReferralCommission) BeforeCreate(*gorm.DB) error {
	newID(&r.ID)
	return nil
}

// Announcement Model
type Announcement struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"` // Primary key
	Title       string    `gorm:"not null" json:"title"`                 // Headline
	Description string    `gorm:"type:text;not null" json:"description"` // Body
	ImageURL    *string   `json:"imageUrl"`                              // Optional banner
	IconType    string    `gorm:"type:varchar(32);not null" json:"iconType"`
	IsActive    bool      `gorm:"index;not null" json:"isActive"` // Shown in the carousel
	Priority    int       `gorm:"not null" json:"priority"`       // Higher first
	CreatedBy   *string   `gorm:"type:varchar(36)" json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BeforeCreate assigns a uuid
func (a *Announcement) BeforeCreate(*gorm.DB) error {
	newID(&a.ID)
	return nil
}
