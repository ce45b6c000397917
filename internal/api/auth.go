package api

import (
	"errors"   // Error checks
	"net/http" // HTTP status codes
	"regexp"   // Input validation
	"strings"  // Normalisation

	"mining_rewards/internal/domain" // User model
	"mining_rewards/internal/utils"  // JWT, cache and referral helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging
	"golang.org/x/crypto/bcrypt"   // Password hashing
	"gorm.io/gorm"                 // GORM ORM library
)

// SignupRequest is the body of POST /api/auth/signup
type SignupRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	PhoneNumber  string `json:"phoneNumber"`  // Optional, 11 digits
	ReferralCode string `json:"referralCode"` // Optional inviter code
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)
	phonePattern    = regexp.MustCompile(`^[0-9]{11}$`)
)

const referralCodeAttempts = 5

// SignupHandler creates an account, links it to the inviter behind
// referralCode when that code exists and returns a session token
func SignupHandler(db *gorm.DB, rdb *redis.Client, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		username := strings.ToLower(strings.TrimSpace(req.Username))
		if !usernamePattern.MatchString(username) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username must be 3-32 letters, digits or underscores"})
			return
		}
		if len(req.Password) < 6 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
			return
		}
		phone := strings.TrimSpace(req.PhoneNumber)
		if phone != "" && !phonePattern.MatchString(phone) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number must be 11 digits"})
			return
		}
		ctx := c.Request.Context()

		var taken int64
		if err := db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).Count(&taken).Error; err != nil {
			respondError(c, err)
			return
		}
		if taken > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := domain.User{Username: username, Password: string(hash), PhoneNumber: phone}

		if code := strings.ToUpper(strings.TrimSpace(req.ReferralCode)); code != "" {
			var inviter domain.User
			err := db.WithContext(ctx).Select("id").Where("referral_code = ?", code).First(&inviter).Error
			switch {
			case err == nil:
				user.ReferredByID = &inviter.ID
			case errors.Is(err, gorm.ErrRecordNotFound):
				logrus.WithField("referral_code", code).Warn("Signup with unknown referral code")
			default:
				respondError(c, err)
				return
			}
		}

		if err := createWithReferralCode(db.WithContext(ctx), &user); err != nil {
			var again int64
			if db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).Count(&again); again > 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
				return
			}
			respondError(c, err)
			return
		}

		token, err := utils.GenerateJWT(user.ID, user.Username, jwtSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		_ = utils.DeleteCache(ctx, rdb, utils.AdminStatsKey)
		_ = utils.DeleteCachePrefix(ctx, rdb, utils.AdminUsersPrefix)

		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,
			"username": user.Username,
			"referred": user.ReferredByID != nil,
		}).Info("User signed up")
		c.JSON(http.StatusCreated, AuthResponse{User: &user, Token: token})
	}
}

// createWithReferralCode inserts the user, drawing a fresh referral code
// when the previous one collided
func createWithReferralCode(db *gorm.DB, user *domain.User) error {
	var err error
	for i := 0; i < referralCodeAttempts; i++ {
		user.ReferralCode = utils.NewReferralCode()
		if err = db.Create(user).Error; err == nil {
			return nil
		}
		user.ID = ""
		var clash int64
		if db.Model(&domain.User{}).Where("referral_code = ?", user.ReferralCode).Count(&clash); clash == 0 {
			return err
		}
	}
	return err
}

// LoginHandler checks the credentials and returns the user with a token
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User
		username := strings.ToLower(strings.TrimSpace(req.Username))
		if err := db.WithContext(c.Request.Context()).Where("username = ?", username).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		token, err := utils.GenerateJWT(user.ID, user.Username, jwtSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{User: &user, Token: token})
	}
}

// GetUserHandler returns the profile and balances of :userId
func GetUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user domain.User
		err := db.WithContext(c.Request.Context()).First(&user, "id = ?", c.Param("userId")).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}
