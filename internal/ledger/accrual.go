package ledger

import (
	"context"
	"time"

	"mining_rewards/internal/catalog"
	"mining_rewards/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CycleLength is the earning cycle of every machine
const CycleLength = 24 * time.Hour

// MachineState is an owned machine evaluated at a point in time
type MachineState struct {
	Owned     domain.OwnedMachine `json:"ownedMachine"`
	Machine   catalog.Machine     `json:"machine"`
	DueAt     time.Time           `json:"dueAt"`     // When the current cycle may be paid
	ExpiresAt time.Time           `json:"expiresAt"` // End of the rental contract
	Claimable bool                `json:"claimable"`
	Expired   bool                `json:"expired"`
}

// Evaluate decides whether an owned machine can be paid at now.
//
// A never-claimed machine is due at purchase. Afterwards it is due one cycle
// after the last payout. A cycle is only paid when it became due inside the
// contract and fewer than Duration cycles were paid, so a machine pays at most
// Duration times whether the payouts came from claims or from the sweeper.
func Evaluate(om domain.OwnedMachine, m catalog.Machine, now time.Time) MachineState {
	st := MachineState{
		Owned:     om,
		Machine:   m,
		DueAt:     om.PurchasedAt,
		ExpiresAt: om.PurchasedAt.Add(m.Contract()),
	}
	if om.LastClaimedAt != nil {
		st.DueAt = om.LastClaimedAt.Add(CycleLength)
	}
	st.Expired = om.ClaimCount >= m.Duration || st.DueAt.After(st.ExpiresAt)
	st.Claimable = !st.Expired && !now.Before(st.DueAt)
	return st
}

// Snapshot is the accrual summary shown on the dashboard
type Snapshot struct {
	ClaimableReward   decimal.Decimal `json:"claimableReward"`
	ClaimableMachines int             `json:"claimableMachines"`
	TotalMachines     int             `json:"totalMachines"`
	ActiveMachines    int             `json:"activeMachines"`
	DailyReward       decimal.Decimal `json:"dailyReward"`   // Sum of daily profit over active machines
	NextClaimTime     *time.Time      `json:"nextClaimTime"` // Earliest due time among pending machines
	ServerTime        time.Time       `json:"serverTime"`
}

// Summarize aggregates machine states into a Snapshot
func Summarize(states []MachineState, now time.Time) Snapshot {
	snap := Snapshot{
		ClaimableReward: decimal.Zero,
		DailyReward:     decimal.Zero,
		TotalMachines:   len(states),
		ServerTime:      now,
	}
	for _, st := range states {
		if st.Expired {
			continue
		}
		snap.ActiveMachines++
		snap.DailyReward = snap.DailyReward.Add(st.Machine.DailyProfit)
		if st.Claimable {
			snap.ClaimableMachines++
			snap.ClaimableReward = snap.ClaimableReward.Add(st.Machine.DailyProfit)
			continue
		}
		if snap.NextClaimTime == nil || st.DueAt.Before(*snap.NextClaimTime) {
			due := st.DueAt
			snap.NextClaimTime = &due
		}
	}
	return snap
}

// machineStates loads and evaluates every machine owned by the user
func machineStates(tx *gorm.DB, userID string, now time.Time) ([]MachineState, error) {
	var owned []domain.OwnedMachine
	if err := tx.Where("user_id = ?", userID).Order("purchased_at asc").Find(&owned).Error; err != nil {
		return nil, err
	}
	states := make([]MachineState, 0, len(owned))
	for _, om := range owned {
		m, ok := catalog.Lookup(om.MachineID)
		if !ok {
			logrus.WithFields(logrus.Fields{
				"owned_machine_id": om.ID,
				"machine_id":       om.MachineID,
			}).Warn("Owned machine references unknown catalog entry")
			continue
		}
		states = append(states, Evaluate(om, m, now))
	}
	return states, nil
}

// Status reports the user's claimable reward without changing anything
func (s *Service) Status(ctx context.Context, userID string) (*Snapshot, error) {
	db := s.db.WithContext(ctx)
	if _, err := loadUser(db, userID); err != nil {
		return nil, err
	}
	now := s.Now()
	states, err := machineStates(db, userID, now)
	if err != nil {
		return nil, err
	}
	snap := Summarize(states, now)
	return &snap, nil
}

// OwnedMachines lists the user's machines with their cycle state
func (s *Service) OwnedMachines(ctx context.Context, userID string) ([]MachineState, error) {
	db := s.db.WithContext(ctx)
	if _, err := loadUser(db, userID); err != nil {
		return nil, err
	}
	return machineStates(db, userID, s.Now())
}
