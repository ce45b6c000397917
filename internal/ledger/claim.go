package ledger

import (
	"context"
	"errors"
	"time"

	"mining_rewards/internal/domain"
	"mining_rewards/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ClaimResult is returned by a successful manual claim
type ClaimResult struct {
	Reward          decimal.Decimal      `json:"reward"`
	ClaimedMachines int                  `json:"claimedMachines"`
	Balance         decimal.Decimal      `json:"balance"`
	NextClaimTime   *time.Time           `json:"nextClaimTime"`
	ServerTime      time.Time            `json:"serverTime"`
	Claims          []domain.MiningClaim `json:"claims"`
}

// Claim pays every machine whose cycle has finished. Claiming again inside
// the same cycle fails with a *NotDueError and changes nothing.
func (s *Service) Claim(ctx context.Context, userID string) (*ClaimResult, error) {
	unlock, err := s.lockChain(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.Now()
	result := &ClaimResult{Reward: decimal.Zero, ServerTime: now}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		states, err := machineStates(tx, userID, now)
		if err != nil {
			return err
		}
		if len(states) == 0 {
			return ErrNoMachines
		}
		snap := Summarize(states, now)
		if snap.ClaimableMachines == 0 {
			notDue := &NotDueError{NextClaimTime: snap.NextClaimTime}
			if snap.NextClaimTime != nil {
				notDue.Remaining = snap.NextClaimTime.Sub(now)
			}
			return notDue
		}

		for _, st := range states {
			if !st.Claimable {
				continue
			}
			session, err := openSession(tx, st.Owned.ID)
			if err != nil {
				return err
			}
			claim, err := s.payCycle(tx, owner, st, now, domain.ClaimSourceManual, session)
			if err != nil {
				return err
			}
			result.Claims = append(result.Claims, *claim)
			result.Reward = result.Reward.Add(claim.Amount)
			result.ClaimedMachines++
		}

		updated, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		result.Balance = updated.Balance
		after, err := machineStates(tx, userID, now)
		if err != nil {
			return err
		}
		result.NextClaimTime = Summarize(after, now).NextClaimTime
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"reward":   result.Reward.String(),
		"machines": result.ClaimedMachines,
		"type":     "mining_claim",
	}).Info("Mining reward claimed")
	return result, nil
}

// openSession finds the unsettled session of an owned machine, nil when none
func openSession(tx *gorm.DB, ownedMachineID string) (*domain.MiningSession, error) {
	var sess domain.MiningSession
	err := tx.Where("owned_machine_id = ? AND completed = ?", ownedMachineID, false).
		Order("end_time asc").First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// payCycle pays one cycle of a claimable machine: it advances the machine
// with a compare-and-set on Version, credits the owner, writes the claim row,
// settles the session and opens its successor, and pays referral commission.
func (s *Service) payCycle(tx *gorm.DB, owner *domain.User, st MachineState, now time.Time, source string, session *domain.MiningSession) (*domain.MiningClaim, error) {
	amount := st.Machine.DailyProfit
	res := tx.Model(&domain.OwnedMachine{}).
		Where("id = ? AND version = ?", st.Owned.ID, st.Owned.Version).
		Updates(map[string]any{
			"last_claimed_at": now,
			"claim_count":     gorm.Expr("claim_count + 1"),
			"version":         gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrCycleConflict
	}

	if _, err := applyDelta(tx, owner.ID, poolDelta{Balance: amount}); err != nil {
		return nil, err
	}

	claim := &domain.MiningClaim{
		UserID:         owner.ID,
		OwnedMachineID: st.Owned.ID,
		Amount:         amount,
		Source:         source,
		ClaimedAt:      now,
	}
	if session != nil {
		claim.SessionID = &session.ID
	}
	if err := tx.Create(claim).Error; err != nil {
		return nil, err
	}

	if err := rollSession(tx, session, Evaluate(advance(st.Owned, now), st.Machine, now), amount, now); err != nil {
		return nil, err
	}

	if _, err := s.payMiningCommission(tx, owner, amount, claim.ID, now); err != nil {
		return nil, err
	}

	metrics.ClaimsTotal.WithLabelValues(source).Inc()
	metrics.RewardsPaid.WithLabelValues(source).Add(amount.InexactFloat64())
	return claim, nil
}

// rollSession settles the given session with earned and opens the next one
// when the machine is still inside its contract
func rollSession(tx *gorm.DB, session *domain.MiningSession, next MachineState, earned decimal.Decimal, now time.Time) error {
	if session != nil {
		res := tx.Model(&domain.MiningSession{}).
			Where("id = ? AND completed = ?", session.ID, false).
			Updates(map[string]any{
				"completed":     true,
				"earned_amount": earned,
				"completed_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSessionSettled
		}
	}
	if next.Expired {
		return nil
	}
	successor := &domain.MiningSession{
		UserID:         next.Owned.UserID,
		OwnedMachineID: next.Owned.ID,
		StartTime:      now,
		EndTime:        next.DueAt,
		EarnedAmount:   decimal.Zero,
	}
	return tx.Create(successor).Error
}
