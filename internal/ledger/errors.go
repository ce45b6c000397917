package ledger

import (
	"errors"
	"fmt"
	"time"
)

// Lookup failures
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrMachineNotFound      = errors.New("machine not found")
	ErrOwnedMachineNotFound = errors.New("owned machine not found")
	ErrSessionNotFound      = errors.New("mining session not found")
	ErrDepositNotFound      = errors.New("deposit not found")
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
)

// Validation and business rule failures
var (
	ErrInvalidInput        = errors.New("invalid request")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrBelowMinimum        = errors.New("amount below minimum")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRentalLimitReached  = errors.New("rental limit reached for this machine")
	ErrNoMachines          = errors.New("no machines owned, rent a machine to start mining")
	ErrNothingClaimable    = errors.New("nothing to claim yet")
	ErrNoActiveMachine     = errors.New("please activate a machine to enable withdrawals")
	ErrAlreadyReviewed     = errors.New("request already reviewed")
	ErrSessionSettled      = errors.New("mining session already settled")
	ErrSessionNotDue       = errors.New("mining session has not ended")
	ErrCycleConflict       = errors.New("machine cycle was claimed concurrently")
)

// NotDueError is returned by Claim when no machine has finished its cycle
type NotDueError struct {
	NextClaimTime *time.Time    // Earliest time a machine becomes claimable, nil when none will
	Remaining     time.Duration // Time left until NextClaimTime
}

func (e *NotDueError) Error() string {
	if e.NextClaimTime == nil {
		return "nothing to claim, all machine contracts have ended"
	}
	return fmt.Sprintf("nothing to claim yet, next claim in %s", e.Remaining.Round(time.Second))
}

func (e *NotDueError) Unwrap() error { return ErrNothingClaimable }
