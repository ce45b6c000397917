package api

import (
	"net/http" // HTTP status codes

	"mining_rewards/internal/ledger" // Commission engine

	"github.com/gin-gonic/gin" // Gin web framework
)

// ReferralsHandler returns the two-level team of :userId
func ReferralsHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tree, err := svc.Referrals(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tree)
	}
}

// CommissionsHandler returns the commission history of :userId
func CommissionsHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := svc.Commissions(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"commissions": rows})
	}
}
