package middleware

import (
	"net/http" // HTTP status codes

	"mining_rewards/internal/domain" // User model

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// ContextIsAdmin is set by the middlewares that load the caller's admin flag
const ContextIsAdmin = "isAdmin"

// isAdmin reads the caller's admin flag from the database, so a revoked admin
// loses access before their token expires
func isAdmin(c *gin.Context, db *gorm.DB) (bool, error) {
	var user domain.User
	if err := db.WithContext(c.Request.Context()).Select("id", "is_admin").
		First(&user, "id = ?", UserID(c)).Error; err != nil {
		return false, err
	}
	c.Set(ContextIsAdmin, user.IsAdmin)
	return user.IsAdmin, nil
}

// AdminOnlyMiddleware lets only admins through
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		admin, err := isAdmin(c, db)
		if err != nil || !admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// SelfOrAdminMiddleware guards routes that carry a :userId parameter. The
// caller must be that user or an admin.
func SelfOrAdminMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := UserID(c)
		if caller == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if target := c.Param("userId"); target == "" || target == caller {
			c.Next()
			return
		}
		if admin, err := isAdmin(c, db); err != nil || !admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Next()
	}
}
