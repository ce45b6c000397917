package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Money amounts
	"gorm.io/gorm"                  // GORM hooks
)

// Claim sources
const (
	ClaimSourceManual    = "manual"    // User pressed claim
	ClaimSourceScheduler = "scheduler" // Session sweeper credited the cycle
)

// OwnedMachine links a user to a rented catalog machine
type OwnedMachine struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)" json:"id"`         // Primary key
	UserID        string     `gorm:"type:varchar(36);index;not null" json:"userId"` // Owner
	MachineID     string     `gorm:"type:varchar(16);not null" json:"machineId"`    // Catalog id
	PurchasedAt   time.Time  `gorm:"not null" json:"purchasedAt"`                   // Rental time
	LastClaimedAt *time.Time `json:"lastClaimedAt"`                                 // nil until the first payout
	ClaimCount    int        `gorm:"not null" json:"claimCount"`                    // Cycles paid so far
	RebatePaid    bool       `gorm:"not null" json:"rebatePaid"`                    // Referrer rebate settled
	Version       int        `gorm:"not null" json:"-"`                             // Compare-and-set counter
}

// BeforeCreate assigns a uuid
func (m *OwnedMachine) BeforeCreate(*gorm.DB) error {
	newID(&m.ID)
	return nil
}

// MiningSession is the open 24h cycle of an owned machine
type MiningSession struct {
	ID             string          `gorm:"primaryKey;type:varchar(36)" json:"id"`                 // Primary key
	UserID         string          `gorm:"type:varchar(36);index;not null" json:"userId"`         // Owner
	OwnedMachineID string          `gorm:"type:varchar(36);index;not null" json:"ownedMachineId"` // Machine the cycle belongs to
	StartTime      time.Time       `gorm:"not null" json:"startTime"`                             // Cycle start
	EndTime        time.Time       `gorm:"index;not null" json:"endTime"`                         // Cycle end, swept after this
	Completed      bool            `gorm:"index;not null" json:"completed"`                       // Settled flag
	EarnedAmount   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"earnedAmount"`       // Amount credited for this cycle
	CompletedAt    *time.Time      `json:"completedAt"`                                           // Settlement time
}

// BeforeCreate assigns a uuid
func (s *MiningSession) BeforeCreate(*gorm.DB) error {
	newID(&s.ID)
	return nil
}

// MiningClaim is an append-only payout history row
type MiningClaim struct {
	ID             string          `gorm:"primaryKey;type:varchar(36)" json:"id"`                 // Primary key
	UserID         string          `gorm:"type:varchar(36);index;not null" json:"userId"`         // Credited user
	OwnedMachineID string          `gorm:"type:varchar(36);index;not null" json:"ownedMachineId"` // Paying machine
	SessionID      *string         `gorm:"type:varchar(36)" json:"sessionId"`                     // Closed session, if any
	Amount         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`             // Credited amount
	Source         string          `gorm:"type:varchar(16);not null" json:"source"`               // manual or scheduler
	ClaimedAt      time.Time       `gorm:"not null" json:"claimedAt"`                             // Payout time
}

// BeforeCreate assigns a uuid
func (c *MiningClaim) BeforeCreate(*gorm.DB) error {
	newID(&c.ID)
	return nil
}
