package domain

import (
	"time" // Timestamps

	"github.com/google/uuid"        // Primary key generation
	"github.com/shopspring/decimal" // Money amounts
	"gorm.io/gorm"                  // GORM hooks
)

// User Model
type User struct {
	ID                    string          `gorm:"primaryKey;type:varchar(36)" json:"id"`                     // Primary key (uuid)
	Username              string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`     // Unique username
	Password              string          `gorm:"not null" json:"-"`                                         // Hashed password, never serialized
	PhoneNumber           string          `gorm:"type:varchar(11)" json:"phoneNumber"`                       // Optional 11 digit phone number
	Balance               decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"balance"`                // Available, withdrawable funds
	CommissionBalance     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"commissionBalance"`      // Mining commission pool
	TotalReferralEarnings decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"totalReferralEarnings"`  // Lifetime counter, never withdrawn
	TotalMiners           int             `gorm:"not null" json:"totalMiners"`                               // Owned machine count
	IsAdmin               bool            `gorm:"not null" json:"isAdmin"`                                   // Admin flag
	ReferralCode          string          `gorm:"type:varchar(16);uniqueIndex;not null" json:"referralCode"` // Code handed to invitees
	ReferredByID          *string         `gorm:"type:varchar(36);index" json:"referredById"`                // Inviting user, set once at signup
	CreatedAt             time.Time       `json:"createdAt"`                                                 // Creation time
}

// BeforeCreate assigns a uuid when the caller did not
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// newID is shared by the other models' hooks
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
