package api

import (
	"net/http" // HTTP status codes

	"mining_rewards/internal/domain"     // Request models
	"mining_rewards/internal/ledger"     // Funds adapter
	"mining_rewards/internal/middleware" // Caller identity
	"mining_rewards/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Money amounts
	"gorm.io/gorm"                  // GORM ORM library
)

// WithdrawalRequestBody is the body of the withdrawal endpoints
type WithdrawalRequestBody struct {
	Amount            decimal.Decimal `json:"amount"`                               // USD
	Method            string          `json:"method" binding:"required"`            // easypaisa or jazzcash
	AccountHolderName string          `json:"accountHolderName" binding:"required"` // Payout account holder
	AccountNumber     string          `json:"accountNumber" binding:"required"`     // Payout account number
}

// DepositRequestBody is the body of POST /api/deposits/request
type DepositRequestBody struct {
	Amount        decimal.Decimal `json:"amount"`                           // USD
	TransactionID string          `json:"transactionId" binding:"required"` // Payment reference
	ScreenshotURL string          `json:"screenshotUrl"`                    // Optional proof
}

// RequestWithdrawalHandler files a withdrawal from the given pool for the caller
func RequestWithdrawalHandler(svc *ledger.Service, rdb *redis.Client, pool string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WithdrawalRequestBody
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		w, err := svc.RequestWithdrawal(c.Request.Context(), ledger.WithdrawalInput{
			UserID:            middleware.UserID(c),
			Pool:              pool,
			Amount:            req.Amount,
			Method:            req.Method,
			AccountHolderName: req.AccountHolderName,
			AccountNumber:     req.AccountNumber,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateAdminLists(c, rdb, utils.AdminWithdrawsKey)
		c.JSON(http.StatusCreated, gin.H{"withdrawal": w})
	}
}

// RequestDepositHandler records a deposit for admin review
func RequestDepositHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DepositRequestBody
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		d, err := svc.RequestDeposit(c.Request.Context(), ledger.DepositInput{
			UserID:        middleware.UserID(c),
			Amount:        req.Amount,
			TransactionID: req.TransactionID,
			ScreenshotURL: req.ScreenshotURL,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateAdminLists(c, rdb, utils.AdminDepositsKey)
		c.JSON(http.StatusCreated, gin.H{"deposit": d})
	}
}

// UserWithdrawalsHandler returns :userId's withdrawal history, newest first
func UserWithdrawalsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rows []domain.WithdrawalRequest
		if err := db.WithContext(c.Request.Context()).Where("user_id = ?", c.Param("userId")).
			Order("created_at desc").Find(&rows).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"withdrawals": rows})
	}
}

// UserDepositsHandler returns :userId's deposit history, newest first
func UserDepositsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rows []domain.DepositRequest
		if err := db.WithContext(c.Request.Context()).Where("user_id = ?", c.Param("userId")).
			Order("created_at desc").Find(&rows).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deposits": rows})
	}
}

// invalidateAdminLists drops the cached admin pages and stats touched by a
// funds change
func invalidateAdminLists(c *gin.Context, rdb *redis.Client, prefixes ...string) {
	ctx := c.Request.Context()
	_ = utils.DeleteCache(ctx, rdb, utils.AdminStatsKey)
	for _, prefix := range prefixes {
		_ = utils.DeleteCachePrefix(ctx, rdb, prefix)
	}
}
