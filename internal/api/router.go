package api

import (
	"net/http" // HTTP status codes

	"mining_rewards/internal/domain"     // Withdrawal pools
	"mining_rewards/internal/ledger"     // Ledger engine
	"mining_rewards/internal/middleware" // Auth, CORS, metrics

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
	"github.com/redis/go-redis/v9"                            // Redis client
	"gorm.io/gorm"                                            // GORM ORM library
)

// Deps are the collaborators the HTTP layer needs
type Deps struct {
	DB             *gorm.DB
	Redis          *redis.Client // Optional, caching is skipped when nil
	Ledger         *ledger.Service
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter builds the gin engine with every route registered
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(), middleware.CORS(d.AllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// Public routes
	api.POST("/auth/signup", SignupHandler(d.DB, d.Redis, d.JWTSecret))
	api.POST("/auth/login", LoginHandler(d.DB, d.JWTSecret))
	api.GET("/machines", ListMachinesHandler(d.Redis))
	api.GET("/announcements", ActiveAnnouncementsHandler(d.DB, d.Redis))

	// User routes, :userId must be the caller unless the caller is an admin
	user := api.Group("")
	user.Use(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.SelfOrAdminMiddleware(d.DB))
	user.GET("/users/:userId", GetUserHandler(d.DB))
	user.GET("/mining/status/:userId", MiningStatusHandler(d.Ledger))
	user.POST("/mining/claim", ClaimHandler(d.Ledger, d.Redis))
	user.POST("/machines/rent", RentMachineHandler(d.Ledger, d.Redis))
	user.GET("/machines/owned/:userId", OwnedMachinesHandler(d.Ledger))
	user.POST("/withdrawals/request", RequestWithdrawalHandler(d.Ledger, d.Redis, domain.PoolBalance))
	user.POST("/withdrawals/commission", RequestWithdrawalHandler(d.Ledger, d.Redis, domain.PoolCommission))
	user.GET("/withdrawals/:userId", UserWithdrawalsHandler(d.DB))
	user.POST("/deposits/request", RequestDepositHandler(d.Ledger, d.Redis))
	user.GET("/deposits/:userId", UserDepositsHandler(d.DB))
	user.GET("/referrals/:userId", ReferralsHandler(d.Ledger))
	user.GET("/referrals/:userId/commissions", CommissionsHandler(d.Ledger))

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.AdminOnlyMiddleware(d.DB))
	admin.GET("/stats", StatsHandler(d.DB, d.Redis))
	admin.GET("/users", ListUsersHandler(d.DB, d.Redis))
	admin.PATCH("/users/:id/balance", SetBalanceHandler(d.Ledger, d.Redis))
	admin.GET("/deposits", ListDepositRequestsHandler(d.DB, d.Redis))
	admin.PATCH("/deposits/:id", ReviewDepositHandler(d.Ledger, d.Redis))
	admin.GET("/withdrawals", ListWithdrawalRequestsHandler(d.DB, d.Redis))
	admin.PATCH("/withdrawals/:id", ReviewWithdrawalHandler(d.Ledger, d.Redis))
	admin.GET("/announcements", ListAnnouncementsHandler(d.DB))
	admin.POST("/announcements", CreateAnnouncementHandler(d.DB, d.Redis))
	admin.PATCH("/announcements/:id", UpdateAnnouncementHandler(d.DB, d.Redis))
	admin.DELETE("/announcements/:id", DeleteAnnouncementHandler(d.DB, d.Redis))

	return r
}
