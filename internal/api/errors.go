package api

import (
	"errors"   // Error classification
	"math"     // Rounding remaining time
	"net/http" // HTTP status codes

	"mining_rewards/internal/ledger" // Domain errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

var notFoundErrors = []error{
	ledger.ErrUserNotFound,
	ledger.ErrMachineNotFound,
	ledger.ErrOwnedMachineNotFound,
	ledger.ErrSessionNotFound,
	ledger.ErrDepositNotFound,
	ledger.ErrWithdrawalNotFound,
}

var badRequestErrors = []error{
	ledger.ErrInvalidInput,
	ledger.ErrInvalidAmount,
	ledger.ErrBelowMinimum,
	ledger.ErrInvalidStatus,
	ledger.ErrInsufficientBalance,
	ledger.ErrRentalLimitReached,
	ledger.ErrNoMachines,
	ledger.ErrNoActiveMachine,
	ledger.ErrAlreadyReviewed,
}

var conflictErrors = []error{
	ledger.ErrCycleConflict,
	ledger.ErrSessionSettled,
}

func matches(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError writes the JSON error response for a ledger error
func respondError(c *gin.Context, err error) {
	var notDue *ledger.NotDueError
	switch {
	case errors.As(err, &notDue):
		body := gin.H{"error": notDue.Error(), "nextClaimTime": notDue.NextClaimTime}
		if notDue.NextClaimTime != nil {
			body["remainingSeconds"] = int64(math.Ceil(notDue.Remaining.Seconds()))
		}
		c.JSON(http.StatusBadRequest, body)
	case matches(err, notFoundErrors):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case matches(err, badRequestErrors):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case matches(err, conflictErrors):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).WithError(err).Error("Unhandled request error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
