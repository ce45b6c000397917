package api

import (
	"net/http" // HTTP status codes

	"mining_rewards/internal/catalog"    // Machine tiers and rates
	"mining_rewards/internal/ledger"     // Rental
	"mining_rewards/internal/middleware" // Caller identity
	"mining_rewards/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// RentRequest is the body of POST /api/machines/rent
type RentRequest struct {
	MachineID string `json:"machineId" binding:"required"`
}

// CatalogResponse lists the machine tiers and the PKR rates
type CatalogResponse struct {
	Machines []catalog.Machine `json:"machines"`
	Rates    catalog.Rates     `json:"rates"`
}

// ListMachinesHandler returns the rentable catalog
func ListMachinesHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var cached CatalogResponse
		if found, err := utils.GetCache(ctx, rdb, utils.MachinesCacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		resp := CatalogResponse{Machines: catalog.All(), Rates: catalog.ExchangeRates}
		_ = utils.SetCache(ctx, rdb, utils.MachinesCacheKey, resp, utils.CacheTTL)
		c.JSON(http.StatusOK, resp)
	}
}

// RentMachineHandler buys a machine for the caller
func RentMachineHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		res, err := svc.RentMachine(c.Request.Context(), middleware.UserID(c), req.MachineID)
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateAdminLists(c, rdb, utils.AdminUsersPrefix)
		c.JSON(http.StatusCreated, res)
	}
}

// OwnedMachinesHandler lists :userId's machines with their cycle state
func OwnedMachinesHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		states, err := svc.OwnedMachines(c.Request.Context(), c.Param("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"machines": states, "serverTime": svc.Now()})
	}
}
