// Package ledger implements the mining accrual, referral commission and
// funds bookkeeping on top of the GORM store.
//
// Every operation that moves money resolves the users it touches, takes their
// locks from the Locker and then runs inside one database transaction that
// re-reads the rows it mutates. Reads that only report state take no lock.
package ledger

import (
	"context"
	"errors"
	"time"

	"mining_rewards/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is the ledger engine shared by the HTTP handlers and the sweeper
type Service struct {
	db     *gorm.DB
	locker *Locker
	now    func() time.Time
}

// Option customises a Service
type Option func(*Service)

// WithClock replaces time.Now, used by tests and the sweeper tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocker shares a Locker between services
func WithLocker(l *Locker) Option {
	return func(s *Service) { s.locker = l }
}

// NewService builds the ledger on top of a database handle
func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{db: db, locker: NewLocker(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the service clock in UTC
func (s *Service) Now() time.Time {
	return s.now().UTC()
}

// lockChain locks the user together with its referral chain. ReferredByID is
// immutable, so the chain read before locking is the chain used afterwards.
func (s *Service) lockChain(ctx context.Context, userID string) (func(), error) {
	ids := []string{userID}
	current := userID
	for hop := 0; hop < 2; hop++ {
		var u domain.User
		if err := s.db.WithContext(ctx).Select("id", "referred_by_id").First(&u, "id = ?", current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if hop == 0 {
					return nil, ErrUserNotFound
				}
				break
			}
			return nil, err
		}
		if u.ReferredByID == nil {
			break
		}
		current = *u.ReferredByID
		ids = append(ids, current)
	}
	return s.locker.Lock(ids...), nil
}

// loadUser reads a user inside a transaction
func loadUser(tx *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := tx.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// poolDelta is a signed change to the three balance pools of a user
type poolDelta struct {
	Balance          decimal.Decimal
	Commission       decimal.Decimal
	ReferralEarnings decimal.Decimal
}

// applyDelta re-reads the user, applies the delta and refuses to drive a
// withdrawable pool below zero
func applyDelta(tx *gorm.DB, userID string, d poolDelta) (*domain.User, error) {
	u, err := loadUser(tx, userID)
	if err != nil {
		return nil, err
	}
	u.Balance = u.Balance.Add(d.Balance)
	u.CommissionBalance = u.CommissionBalance.Add(d.Commission)
	u.TotalReferralEarnings = u.TotalReferralEarnings.Add(d.ReferralEarnings)
	if u.Balance.IsNegative() || u.CommissionBalance.IsNegative() {
		return nil, ErrInsufficientBalance
	}
	err = tx.Model(&domain.User{}).Where("id = ?", userID).Updates(map[string]any{
		"balance":                 u.Balance,
		"commission_balance":      u.CommissionBalance,
		"total_referral_earnings": u.TotalReferralEarnings,
	}).Error
	if err != nil {
		return nil, err
	}
	return u, nil
}
