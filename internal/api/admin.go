package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Query parsing

	"mining_rewards/internal/domain"     // Models
	"mining_rewards/internal/ledger"     // Reviews and balance edits
	"mining_rewards/internal/middleware" // Caller identity
	"mining_rewards/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Money amounts
	"gorm.io/gorm"                  // GORM ORM library
)

// ReviewRequest is the body of the deposit and withdrawal review routes
type ReviewRequest struct {
	Status string `json:"status" binding:"required"` // approved or rejected
}

// BalanceRequest is the body of PATCH /api/admin/users/:id/balance
type BalanceRequest struct {
	Balance decimal.Decimal `json:"balance"` // New available balance in USD
}

// Page is one page of an admin list
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	Cached     bool  `json:"cached"`
}

// Stats is the admin dashboard summary
type Stats struct {
	TotalUsers         int64           `json:"totalUsers"`
	TotalMachines      int64           `json:"totalMachines"`
	TotalBalance       decimal.Decimal `json:"totalBalance"`
	TotalCommission    decimal.Decimal `json:"totalCommission"`
	ApprovedDeposits   decimal.Decimal `json:"approvedDeposits"`
	ApprovedWithdrawn  decimal.Decimal `json:"approvedWithdrawals"`
	PendingDeposits    int64           `json:"pendingDeposits"`
	PendingWithdrawals int64           `json:"pendingWithdrawals"`
	Cached             bool            `json:"cached"`
}

// pagination reads page and page_size, capping the size at 100
func pagination(c *gin.Context) (page, pageSize int) {
	page, pageSize = 1, 20
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}
	return page, pageSize
}

// listPage serves a paginated, cached admin list of T ordered newest first
func listPage[T any](c *gin.Context, query *gorm.DB, rdb *redis.Client, cacheKey string) {
	ctx := c.Request.Context()
	page, pageSize := pagination(c)
	cacheKey += "page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)

	var cached Page[T]
	if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
		cached.Cached = true
		c.JSON(http.StatusOK, cached)
		return
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	items := make([]T, 0, pageSize)
	if err := query.Session(&gorm.Session{}).Order("created_at desc").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		respondError(c, err)
		return
	}
	resp := Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (int(total) + pageSize - 1) / pageSize,
	}
	_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.CacheTTL)
	c.JSON(http.StatusOK, resp)
}

// statusFilter applies the optional ?status= filter
func statusFilter(c *gin.Context, query *gorm.DB) (*gorm.DB, string, bool) {
	status := c.Query("status")
	switch status {
	case "":
		return query, "all", true
	case domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
		return query.Where("status = ?", status), status, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
	return nil, "", false
}

// ListUsersHandler returns all users, paginated
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.WithContext(c.Request.Context()).Model(&domain.User{})
		listPage[domain.User](c, query, rdb, utils.AdminUsersPrefix)
	}
}

// ListDepositRequestsHandler returns deposits, optionally filtered by status
func ListDepositRequestsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		query, label, ok := statusFilter(c, db.WithContext(c.Request.Context()).Model(&domain.DepositRequest{}))
		if !ok {
			return
		}
		listPage[domain.DepositRequest](c, query, rdb, utils.AdminDepositsKey+"status="+label+":")
	}
}

// ListWithdrawalRequestsHandler returns withdrawals, optionally filtered by status
func ListWithdrawalRequestsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		query, label, ok := statusFilter(c, db.WithContext(c.Request.Context()).Model(&domain.WithdrawalRequest{}))
		if !ok {
			return
		}
		listPage[domain.WithdrawalRequest](c, query, rdb, utils.AdminWithdrawsKey+"status="+label+":")
	}
}

// ReviewDepositHandler approves or rejects a pending deposit
func ReviewDepositHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		d, err := svc.ReviewDeposit(c.Request.Context(), c.Param("id"), req.Status, middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateAdminLists(c, rdb, utils.AdminDepositsKey, utils.AdminUsersPrefix)
		c.JSON(http.StatusOK, gin.H{"deposit": d})
	}
}

// ReviewWithdrawalHandler approves or rejects a pending withdrawal
func ReviewWithdrawalHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		w, err := svc.ReviewWithdrawal(c.Request.Context(), c.Param("id"), req.Status, middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateAdminLists(c, rdb, utils.AdminWithdrawsKey, utils.AdminUsersPrefix)
		c.JSON(http.StatusOK, gin.H{"withdrawal": w})
	}
}

// SetBalanceHandler overwrites a user's available balance
func SetBalanceHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BalanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		u, err := svc.SetBalance(c.Request.Context(), c.Param("id"), req.Balance)
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateAdminLists(c, rdb, utils.AdminUsersPrefix)
		c.JSON(http.StatusOK, gin.H{"user": u})
	}
}

// StatsHandler returns platform totals for the admin dashboard
func StatsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var cached Stats
		if found, err := utils.GetCache(ctx, rdb, utils.AdminStatsKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}

		db := db.WithContext(ctx)
		var stats Stats
		var balances struct {
			Balance    decimal.Decimal
			Commission decimal.Decimal
		}
		var deposits, withdrawals struct{ Total decimal.Decimal }
		steps := []func() error{
			func() error { return db.Model(&domain.User{}).Count(&stats.TotalUsers).Error },
			func() error { return db.Model(&domain.OwnedMachine{}).Count(&stats.TotalMachines).Error },
			func() error {
				return db.Model(&domain.User{}).
					Select("COALESCE(SUM(balance), 0) AS balance, COALESCE(SUM(commission_balance), 0) AS commission").
					Scan(&balances).Error
			},
			func() error {
				return db.Model(&domain.DepositRequest{}).Where("status = ?", domain.StatusApproved).
					Select("COALESCE(SUM(amount), 0) AS total").Scan(&deposits).Error
			},
			func() error {
				return db.Model(&domain.WithdrawalRequest{}).Where("status = ?", domain.StatusApproved).
					Select("COALESCE(SUM(amount), 0) AS total").Scan(&withdrawals).Error
			},
			func() error {
				return db.Model(&domain.DepositRequest{}).Where("status = ?", domain.StatusPending).
					Count(&stats.PendingDeposits).Error
			},
			func() error {
				return db.Model(&domain.WithdrawalRequest{}).Where("status = ?", domain.StatusPending).
					Count(&stats.PendingWithdrawals).Error
			},
		}
		for _, step := range steps {
			if err := step(); err != nil {
				respondError(c, err)
				return
			}
		}
		stats.TotalBalance = balances.Balance
		stats.TotalCommission = balances.Commission
		stats.ApprovedDeposits = deposits.Total
		stats.ApprovedWithdrawn = withdrawals.Total

		_ = utils.SetCache(ctx, rdb, utils.AdminStatsKey, stats, utils.CacheTTL)
		c.JSON(http.StatusOK, stats)
	}
}
