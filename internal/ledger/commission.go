package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"mining_rewards/internal/catalog"
	"mining_rewards/internal/domain"
	"mining_rewards/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Mining commission rates by referral level
var (
	Level1Rate = decimal.RequireFromString("0.10")
	Level2Rate = decimal.RequireFromString("0.04")
)

var levelRates = []decimal.Decimal{Level1Rate, Level2Rate}

// referrers walks at most two hops up the referral chain of source. A hop
// that points back at a user already on the walk ends it.
func referrers(tx *gorm.DB, source *domain.User) ([]*domain.User, error) {
	seen := map[string]bool{source.ID: true}
	var chain []*domain.User
	next := source.ReferredByID
	for len(chain) < len(levelRates) && next != nil {
		if seen[*next] {
			logrus.WithFields(logrus.Fields{
				"user_id":     source.ID,
				"referrer_id": *next,
			}).Warn("Referral chain loops back, stopping commission walk")
			break
		}
		u, err := loadUser(tx, *next)
		if errors.Is(err, ErrUserNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		seen[u.ID] = true
		chain = append(chain, u)
		next = u.ReferredByID
	}
	return chain, nil
}

// payMiningCommission shares a mining payout with the source's referrers.
// It credits the commission pool and the lifetime counter, never the balance.
func (s *Service) payMiningCommission(tx *gorm.DB, source *domain.User, gross decimal.Decimal, sourceID string, now time.Time) ([]domain.ReferralCommission, error) {
	chain, err := referrers(tx, source)
	if err != nil {
		return nil, err
	}
	paid := make([]domain.ReferralCommission, 0, len(chain))
	for i, referrer := range chain {
		level := i + 1
		amount := gross.Mul(levelRates[i])
		if _, err := applyDelta(tx, referrer.ID, poolDelta{Commission: amount, ReferralEarnings: amount}); err != nil {
			return nil, err
		}
		rc := domain.ReferralCommission{
			UserID:     referrer.ID,
			FromUserID: source.ID,
			Level:      level,
			Amount:     amount,
			SourceType: domain.CommissionMining,
			SourceID:   sourceID,
			CreatedAt:  now,
		}
		if err := tx.Create(&rc).Error; err != nil {
			return nil, err
		}
		metrics.CommissionsPaid.WithLabelValues(domain.CommissionMining, strconv.Itoa(level)).Add(amount.InexactFloat64())
		paid = append(paid, rc)
	}
	return paid, nil
}

// settleRebate pays the catalog rebate of a freshly rented machine to the
// buyer's direct referrer. The rebate_paid flag flips false to true first, so
// repeated calls for the same owned machine pay nothing. Returns nil when no
// rebate was paid.
func settleRebate(tx *gorm.DB, owned *domain.OwnedMachine, buyer *domain.User, machine catalog.Machine, now time.Time) (*domain.ReferralCommission, error) {
	res := tx.Model(&domain.OwnedMachine{}).
		Where("id = ? AND rebate_paid = ?", owned.ID, false).
		Update("rebate_paid", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	owned.RebatePaid = true
	if buyer.ReferredByID == nil || *buyer.ReferredByID == buyer.ID || !machine.Rebate.IsPositive() {
		return nil, nil
	}

	referrer, err := loadUser(tx, *buyer.ReferredByID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := applyDelta(tx, referrer.ID, poolDelta{Balance: machine.Rebate}); err != nil {
		return nil, err
	}
	rc := &domain.ReferralCommission{
		UserID:     referrer.ID,
		FromUserID: buyer.ID,
		Level:      1,
		Amount:     machine.Rebate,
		SourceType: domain.CommissionRebate,
		SourceID:   owned.ID,
		CreatedAt:  now,
	}
	if err := tx.Create(rc).Error; err != nil {
		return nil, err
	}
	metrics.CommissionsPaid.WithLabelValues(domain.CommissionRebate, "1").Add(machine.Rebate.InexactFloat64())
	return rc, nil
}

// ReferralSummary is one invited user as seen by the inviter
type ReferralSummary struct {
	ID               string          `json:"id"`
	Username         string          `json:"username"`
	TotalMiners      int             `json:"totalMiners"`
	CreatedAt        time.Time       `json:"createdAt"`
	CommissionEarned decimal.Decimal `json:"commissionEarned"` // Everything this referral generated for the inviter
}

// ReferralTree is the two-level team of a user
type ReferralTree struct {
	Level1          []ReferralSummary `json:"level1"`
	Level2          []ReferralSummary `json:"level2"`
	TotalCommission decimal.Decimal   `json:"totalCommission"`
}

// Referrals lists the user's direct and second level referrals with the
// commission each of them generated
func (s *Service) Referrals(ctx context.Context, userID string) (*ReferralTree, error) {
	db := s.db.WithContext(ctx)
	if _, err := loadUser(db, userID); err != nil {
		return nil, err
	}

	var level1 []domain.User
	if err := db.Where("referred_by_id = ?", userID).Order("created_at asc").Find(&level1).Error; err != nil {
		return nil, err
	}
	var level2 []domain.User
	if len(level1) > 0 {
		ids := make([]string, len(level1))
		for i, u := range level1 {
			ids[i] = u.ID
		}
		if err := db.Where("referred_by_id IN ?", ids).Order("created_at asc").Find(&level2).Error; err != nil {
			return nil, err
		}
	}

	var commissions []domain.ReferralCommission
	if err := db.Where("user_id = ?", userID).Find(&commissions).Error; err != nil {
		return nil, err
	}
	earned := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, c := range commissions {
		earned[c.FromUserID] = earned[c.FromUserID].Add(c.Amount)
		total = total.Add(c.Amount)
	}

	summarize := func(users []domain.User) []ReferralSummary {
		out := make([]ReferralSummary, 0, len(users))
		for _, u := range users {
			e, ok := earned[u.ID]
			if !ok {
				e = decimal.Zero
			}
			out = append(out, ReferralSummary{
				ID:               u.ID,
				Username:         u.Username,
				TotalMiners:      u.TotalMiners,
				CreatedAt:        u.CreatedAt,
				CommissionEarned: e,
			})
		}
		return out
	}
	return &ReferralTree{
		Level1:          summarize(level1),
		Level2:          summarize(level2),
		TotalCommission: total,
	}, nil
}

// Commissions lists the commission records received by the user, newest first
func (s *Service) Commissions(ctx context.Context, userID string) ([]domain.ReferralCommission, error) {
	var out []domain.ReferralCommission
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&out).Error
	return out, err
}
