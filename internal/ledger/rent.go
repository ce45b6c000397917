package ledger

import (
	"context"

	"mining_rewards/internal/catalog"
	"mining_rewards/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RentResult is returned by RentMachine
type RentResult struct {
	User         *domain.User               `json:"user"`
	OwnedMachine *domain.OwnedMachine       `json:"ownedMachine"`
	Session      *domain.MiningSession      `json:"session"`
	Rebate       *domain.ReferralCommission `json:"rebate"` // nil when no referrer was paid
}

// RentMachine buys a catalog machine for the user. The debit, the machine
// row, its first session and the referrer rebate commit together.
func (s *Service) RentMachine(ctx context.Context, userID, machineID string) (*RentResult, error) {
	machine, ok := catalog.Lookup(machineID)
	if !ok {
		return nil, ErrMachineNotFound
	}
	unlock, err := s.lockChain(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.Now()
	out := &RentResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		buyer, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		if buyer.Balance.LessThan(machine.Price) {
			return ErrInsufficientBalance
		}
		var owned int64
		if err := tx.Model(&domain.OwnedMachine{}).
			Where("user_id = ? AND machine_id = ?", userID, machine.ID).
			Count(&owned).Error; err != nil {
			return err
		}
		if owned >= int64(machine.MaxRentals) {
			return ErrRentalLimitReached
		}

		if _, err := applyDelta(tx, userID, poolDelta{Balance: machine.Price.Neg()}); err != nil {
			return err
		}
		if err := tx.Model(&domain.User{}).Where("id = ?", userID).
			Update("total_miners", gorm.Expr("total_miners + 1")).Error; err != nil {
			return err
		}

		om := &domain.OwnedMachine{UserID: userID, MachineID: machine.ID, PurchasedAt: now}
		if err := tx.Create(om).Error; err != nil {
			return err
		}
		session := &domain.MiningSession{
			UserID:         userID,
			OwnedMachineID: om.ID,
			StartTime:      now,
			EndTime:        now.Add(CycleLength),
			EarnedAmount:   decimal.Zero,
		}
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		rebate, err := settleRebate(tx, om, buyer, machine, now)
		if err != nil {
			return err
		}

		updated, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		out.User, out.OwnedMachine, out.Session, out.Rebate = updated, om, session, rebate
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"machine_id": machine.ID,
		"price":      machine.Price.String(),
		"rebate":     out.Rebate != nil,
		"type":       "rent_machine",
	}).Info("Machine rented")
	return out, nil
}
