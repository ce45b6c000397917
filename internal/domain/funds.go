package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Money amounts
	"gorm.io/gorm"                  // GORM hooks
)

// Request statuses. A request leaves pending exactly once.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Balance pools a withdrawal can draw from
const (
	PoolBalance    = "balance"
	PoolCommission = "commission"
)

// WithdrawalRequest Model
type WithdrawalRequest struct {
	ID                string          `gorm:"primaryKey;type:varchar(36)" json:"id"`         // Primary key
	UserID            string          `gorm:"type:varchar(36);index;not null" json:"userId"` // Requesting user
	Pool              string          `gorm:"type:varchar(16);not null" json:"pool"`         // balance or commission
	Amount            decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`     // Debited amount in USD
	TaxAmount         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"taxAmount"`  // 10% tax
	NetAmount         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"netAmount"`  // Amount minus tax
	PKRAmount         decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"pkrAmount"`  // Net payout in PKR
	Method            string          `gorm:"type:varchar(16);not null" json:"method"`       // easypaisa or jazzcash
	AccountHolderName string          `gorm:"not null" json:"accountHolderName"`             // Payout account holder
	AccountNumber     string          `gorm:"not null" json:"accountNumber"`                 // Payout account number
	Status            string          `gorm:"type:varchar(16);index;not null" json:"status"` // pending, approved, rejected
	ReviewedBy        *string         `gorm:"type:varchar(36)" json:"reviewedBy"`            // Reviewing admin
	ReviewedAt        *time.Time      `json:"reviewedAt"`                                    // Review time
	CreatedAt         time.Time       `gorm:"index" json:"createdAt"`                        // Request time
}

// BeforeCreate assigns a uuid
func (w *WithdrawalRequest) BeforeCreate(*gorm.DB) error {
	newID(&w.ID)
	return nil
}

// DepositRequest Model
type DepositRequest struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)" json:"id"`         // Primary key
	UserID        string          `gorm:"type:varchar(36);index;not null" json:"userId"` // Depositing user
	Amount        decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`     // Credited amount in USD
	PKRAmount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"pkrAmount"`  // Amount the user transferred in PKR
	TransactionID string          `gorm:"not null" json:"transactionId"`                 // External payment reference
	ScreenshotURL *string         `json:"screenshotUrl"`                                 // Proof of payment
	Status        string          `gorm:"type:varchar(16);index;not null" json:"status"` // pending, approved, rejected
	ReviewedBy    *string         `gorm:"type:varchar(36)" json:"reviewedBy"`            // Reviewing admin
	ReviewedAt    *time.Time      `json:"reviewedAt"`                                    // Review time
	CreatedAt     time.Time       `gorm:"index" json:"createdAt"`                        // Request time
}

// BeforeCreate assigns a uuid
func (d *DepositRequest) BeforeCreate(*gorm.DB) error {
	newID(&d.ID)
	return nil
}
