package ledger

import (
	"context"
	"errors"
	"time"

	"mining_rewards/internal/catalog"
	"mining_rewards/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Settlement describes what SettleSession did with a session
type Settlement struct {
	SessionID string
	UserID    string
	Credited  decimal.Decimal     // Zero when the cycle had already been claimed
	Claim     *domain.MiningClaim // nil when nothing was credited
	Renewed   bool                // A successor session was opened
}

// DueSessions lists unsettled sessions whose end time has passed, oldest first
func (s *Service) DueSessions(ctx context.Context, limit int) ([]domain.MiningSession, error) {
	var sessions []domain.MiningSession
	q := s.db.WithContext(ctx).
		Where("completed = ? AND end_time <= ?", false, s.Now()).
		Order("end_time asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// SettleSession is the automatic claim path. It credits the session's machine
// if its cycle is still unpaid, closes the session and opens the next one.
// A cycle already paid by a manual claim closes with zero earnings.
func (s *Service) SettleSession(ctx context.Context, sessionID string) (*Settlement, error) {
	var head domain.MiningSession
	if err := s.db.WithContext(ctx).First(&head, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	unlock, err := s.lockChain(ctx, head.UserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.Now()
	out := &Settlement{SessionID: sessionID, UserID: head.UserID, Credited: decimal.Zero}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sess domain.MiningSession
		if err := tx.First(&sess, "id = ?", sessionID).Error; err != nil {
			return err
		}
		if sess.Completed {
			return ErrSessionSettled
		}
		if sess.EndTime.After(now) {
			return ErrSessionNotDue
		}

		var owned domain.OwnedMachine
		if err := tx.First(&owned, "id = ?", sess.OwnedMachineID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOwnedMachineNotFound
			}
			return err
		}
		machine, ok := catalog.Lookup(owned.MachineID)
		if !ok {
			return ErrMachineNotFound
		}
		owner, err := loadUser(tx, sess.UserID)
		if err != nil {
			return err
		}

		st := Evaluate(owned, machine, now)
		if st.Claimable {
			claim, err := s.payCycle(tx, owner, st, now, domain.ClaimSourceScheduler, &sess)
			if err != nil {
				return err
			}
			out.Claim = claim
			out.Credited = claim.Amount
			out.Renewed = !Evaluate(advance(owned, now), machine, now).Expired
			return nil
		}

		if err := rollSession(tx, &sess, st, decimal.Zero, now); err != nil {
			return err
		}
		out.Renewed = !st.Expired
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"user_id":    head.UserID,
		"credited":   out.Credited.String(),
		"renewed":    out.Renewed,
	}).Debug("Mining session settled")
	return out, nil
}

// advance returns the machine as it looks after one more paid cycle
func advance(om domain.OwnedMachine, now time.Time) domain.OwnedMachine {
	om.LastClaimedAt = &now
	om.ClaimCount++
	return om
}

// DiscardSession closes a session that can never be settled, with zero
// earnings and no successor
func (s *Service) DiscardSession(ctx context.Context, sessionID string) error {
	res := s.db.WithContext(ctx).Model(&domain.MiningSession{}).
		Where("id = ? AND completed = ?", sessionID, false).
		Updates(map[string]any{
			"completed":     true,
			"earned_amount": decimal.Zero,
			"completed_at":  s.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionSettled
	}
	return nil
}

// Unsettleable reports whether a SettleSession error is permanent: the
// session points at a machine, catalog entry or user that no longer exists
func Unsettleable(err error) bool {
	return errors.Is(err, ErrOwnedMachineNotFound) ||
		errors.Is(err, ErrMachineNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
