package api

import (
	"net/http" // HTTP status codes

	"mining_rewards/internal/ledger"     // Accrual engine
	"mining_rewards/internal/middleware" // Caller identity
	"mining_rewards/internal/utils"      // Cache keys

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// MiningStatusHandler returns the claimable snapshot of :userId
func MiningStatusHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := svc.Status(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// ClaimHandler pays every finished cycle of the caller's machines
func ClaimHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Claim(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateAdminLists(c, rdb, utils.AdminUsersPrefix)
		c.JSON(http.StatusOK, res)
	}
}
