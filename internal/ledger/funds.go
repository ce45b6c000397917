package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mining_rewards/internal/catalog"
	"mining_rewards/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Withdrawal and deposit limits in USD
var (
	TaxRate                 = decimal.RequireFromString("0.10")
	MinBalanceWithdrawal    = decimal.NewFromInt(2)
	MinCommissionWithdrawal = decimal.NewFromInt(30)
	MinDeposit              = decimal.NewFromInt(1)
)

var withdrawalMethods = map[string]bool{"easypaisa": true, "jazzcash": true}

// WithdrawalInput is a withdrawal as submitted by the user
type WithdrawalInput struct {
	UserID            string
	Pool              string
	Amount            decimal.Decimal
	Method            string
	AccountHolderName string
	AccountNumber     string
}

func (in WithdrawalInput) validate() error {
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	floor, ok := map[string]decimal.Decimal{
		domain.PoolBalance:    MinBalanceWithdrawal,
		domain.PoolCommission: MinCommissionWithdrawal,
	}[in.Pool]
	if !ok {
		return fmt.Errorf("%w: unknown pool %q", ErrInvalidInput, in.Pool)
	}
	if in.Amount.LessThan(floor) {
		return fmt.Errorf("%w: minimum withdrawal is $%s", ErrBelowMinimum, floor.String())
	}
	if !withdrawalMethods[in.Method] {
		return fmt.Errorf("%w: select easypaisa or jazzcash", ErrInvalidInput)
	}
	if len(strings.TrimSpace(in.AccountHolderName)) < 3 {
		return fmt.Errorf("%w: enter account holder name", ErrInvalidInput)
	}
	if len(strings.TrimSpace(in.AccountNumber)) < 11 {
		return fmt.Errorf("%w: enter a valid account number", ErrInvalidInput)
	}
	return nil
}

// WithdrawalBreakdown splits a withdrawal into tax, net and the PKR payout
func WithdrawalBreakdown(amount decimal.Decimal) (tax, net, pkr decimal.Decimal) {
	tax = amount.Mul(TaxRate)
	net = amount.Sub(tax)
	pkr = catalog.WithdrawPKR(net)
	return tax, net, pkr
}

// RequestWithdrawal debits the full amount from the chosen pool right away
// and records a pending request for an admin to pay out
func (s *Service) RequestWithdrawal(ctx context.Context, in WithdrawalInput) (*domain.WithdrawalRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	unlock := s.locker.Lock(in.UserID)
	defer unlock()

	now := s.Now()
	var out *domain.WithdrawalRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadUser(tx, in.UserID)
		if err != nil {
			return err
		}
		states, err := machineStates(tx, in.UserID, now)
		if err != nil {
			return err
		}
		if Summarize(states, now).ActiveMachines == 0 {
			return ErrNoActiveMachine
		}

		d := poolDelta{}
		available := user.Balance
		if in.Pool == domain.PoolCommission {
			available = user.CommissionBalance
			d.Commission = in.Amount.Neg()
		} else {
			d.Balance = in.Amount.Neg()
		}
		if available.LessThan(in.Amount) {
			return ErrInsufficientBalance
		}
		if _, err := applyDelta(tx, in.UserID, d); err != nil {
			return err
		}

		tax, net, pkr := WithdrawalBreakdown(in.Amount)
		out = &domain.WithdrawalRequest{
			UserID:            in.UserID,
			Pool:              in.Pool,
			Amount:            in.Amount,
			TaxAmount:         tax,
			NetAmount:         net,
			PKRAmount:         pkr,
			Method:            in.Method,
			AccountHolderName: strings.TrimSpace(in.AccountHolderName),
			AccountNumber:     strings.TrimSpace(in.AccountNumber),
			Status:            domain.StatusPending,
			CreatedAt:         now,
		}
		return tx.Create(out).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":       in.UserID,
		"withdrawal_id": out.ID,
		"pool":          in.Pool,
		"amount":        in.Amount.String(),
		"type":          "withdrawal_request",
	}).Info("Withdrawal requested")
	return out, nil
}

// ReviewWithdrawal approves or rejects a pending withdrawal. Rejection
// returns the debited amount to the pool it came from.
func (s *Service) ReviewWithdrawal(ctx context.Context, id, status, adminID string) (*domain.WithdrawalRequest, error) {
	if status != domain.StatusApproved && status != domain.StatusRejected {
		return nil, ErrInvalidStatus
	}
	var head domain.WithdrawalRequest
	if err := s.db.WithContext(ctx).First(&head, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	unlock := s.locker.Lock(head.UserID)
	defer unlock()

	now := s.Now()
	var out domain.WithdrawalRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, "id = ?", id).Error; err != nil {
			return err
		}
		if out.Status != domain.StatusPending {
			return ErrAlreadyReviewed
		}
		if err := markReviewed(tx, &domain.WithdrawalRequest{}, id, status, adminID, now); err != nil {
			return err
		}
		if status == domain.StatusRejected {
			refund := poolDelta{Balance: out.Amount}
			if out.Pool == domain.PoolCommission {
				refund = poolDelta{Commission: out.Amount}
			}
			if _, err := applyDelta(tx, out.UserID, refund); err != nil {
				return err
			}
		}
		out.Status, out.ReviewedBy, out.ReviewedAt = status, &adminID, &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"withdrawal_id": id,
		"user_id":       out.UserID,
		"status":        status,
		"admin_id":      adminID,
	}).Info("Withdrawal reviewed")
	return &out, nil
}

// DepositInput is a deposit as submitted by the user
type DepositInput struct {
	UserID        string
	Amount        decimal.Decimal
	TransactionID string
	ScreenshotURL string
}

// RequestDeposit records a deposit for admin review. Nothing is credited yet.
func (s *Service) RequestDeposit(ctx context.Context, in DepositInput) (*domain.DepositRequest, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if in.Amount.LessThan(MinDeposit) {
		return nil, fmt.Errorf("%w: minimum deposit is $%s", ErrBelowMinimum, MinDeposit.String())
	}
	txID := strings.TrimSpace(in.TransactionID)
	if len(txID) < 5 {
		return nil, fmt.Errorf("%w: enter a valid transaction ID", ErrInvalidInput)
	}
	db := s.db.WithContext(ctx)
	if _, err := loadUser(db, in.UserID); err != nil {
		return nil, err
	}

	dep := &domain.DepositRequest{
		UserID:        in.UserID,
		Amount:        in.Amount,
		PKRAmount:     catalog.DepositPKR(in.Amount),
		TransactionID: txID,
		Status:        domain.StatusPending,
		CreatedAt:     s.Now(),
	}
	if url := strings.TrimSpace(in.ScreenshotURL); url != "" {
		dep.ScreenshotURL = &url
	}
	if err := db.Create(dep).Error; err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":    in.UserID,
		"deposit_id": dep.ID,
		"amount":     in.Amount.String(),
		"type":       "deposit_request",
	}).Info("Deposit requested")
	return dep, nil
}

// ReviewDeposit approves or rejects a pending deposit. Approval credits the
// balance, and only a pending deposit can be approved, so repeated approvals
// credit once.
func (s *Service) ReviewDeposit(ctx context.Context, id, status, adminID string) (*domain.DepositRequest, error) {
	if status != domain.StatusApproved && status != domain.StatusRejected {
		return nil, ErrInvalidStatus
	}
	var head domain.DepositRequest
	if err := s.db.WithContext(ctx).First(&head, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	unlock := s.locker.Lock(head.UserID)
	defer unlock()

	now := s.Now()
	var out domain.DepositRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&out, "id = ?", id).Error; err != nil {
			return err
		}
		if out.Status != domain.StatusPending {
			return ErrAlreadyReviewed
		}
		if err := markReviewed(tx, &domain.DepositRequest{}, id, status, adminID, now); err != nil {
			return err
		}
		if status == domain.StatusApproved {
			if _, err := applyDelta(tx, out.UserID, poolDelta{Balance: out.Amount}); err != nil {
				return err
			}
		}
		out.Status, out.ReviewedBy, out.ReviewedAt = status, &adminID, &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"deposit_id": id,
		"user_id":    out.UserID,
		"amount":     out.Amount.String(),
		"status":     status,
		"admin_id":   adminID,
	}).Info("Deposit reviewed")
	return &out, nil
}

// markReviewed moves a request out of pending, failing if it already left
func markReviewed(tx *gorm.DB, model any, id, status, adminID string, now time.Time) error {
	res := tx.Model(model).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{"status": status, "reviewed_by": adminID, "reviewed_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyReviewed
	}
	return nil
}

// SetBalance overwrites a user's available balance from the admin panel
func (s *Service) SetBalance(ctx context.Context, userID string, balance decimal.Decimal) (*domain.User, error) {
	if balance.IsNegative() {
		return nil, ErrInvalidAmount
	}
	unlock := s.locker.Lock(userID)
	defer unlock()

	var out *domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		out, err = applyDelta(tx, userID, poolDelta{Balance: balance.Sub(user.Balance)})
		return err
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"balance": balance.String(),
		"type":    "admin_balance_edit",
	}).Info("Balance set by admin")
	return out, nil
}
