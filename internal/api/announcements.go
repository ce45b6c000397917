package api

import (
	"errors"   // Error checks
	"net/http" // HTTP status codes
	"strings"  // Trimming

	"mining_rewards/internal/domain"     // Announcement model
	"mining_rewards/internal/middleware" // Caller identity
	"mining_rewards/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging
	"gorm.io/gorm"                 // GORM ORM library
)

const defaultIconType = "megaphone"

// AnnouncementRequest is the body of the announcement create and update routes.
// Nil fields are left unchanged on update.
type AnnouncementRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	IconType    *string `json:"iconType"`
	IsActive    *bool   `json:"isActive"`
	Priority    *int    `json:"priority"`
}

// ActiveAnnouncementsHandler returns the announcements shown to users
func ActiveAnnouncementsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var cached []domain.Announcement
		if found, err := utils.GetCache(ctx, rdb, utils.AnnouncementsKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"announcements": cached, "cached": true})
			return
		}
		var rows []domain.Announcement
		if err := db.WithContext(ctx).Where("is_active = ?", true).
			Order("priority desc").Order("created_at desc").Find(&rows).Error; err != nil {
			respondError(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, utils.AnnouncementsKey, rows, utils.CacheTTL)
		c.JSON(http.StatusOK, gin.H{"announcements": rows, "cached": false})
	}
}

// ListAnnouncementsHandler returns every announcement for the admin panel
func ListAnnouncementsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rows []domain.Announcement
		if err := db.WithContext(c.Request.Context()).
			Order("priority desc").Order("created_at desc").Find(&rows).Error; err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"announcements": rows})
	}
}

// CreateAnnouncementHandler publishes a new announcement
func CreateAnnouncementHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AnnouncementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.Title == nil || strings.TrimSpace(*req.Title) == "" ||
			req.Description == nil || strings.TrimSpace(*req.Description) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title and description are required"})
			return
		}
		adminID := middleware.UserID(c)
		a := domain.Announcement{
			Title:       strings.TrimSpace(*req.Title),
			Description: strings.TrimSpace(*req.Description),
			ImageURL:    req.ImageURL,
			IconType:    defaultIconType,
			IsActive:    true,
			CreatedBy:   &adminID,
		}
		if req.IconType != nil && *req.IconType != "" {
			a.IconType = *req.IconType
		}
		if req.IsActive != nil {
			a.IsActive = *req.IsActive
		}
		if req.Priority != nil {
			a.Priority = *req.Priority
		}
		if err := db.WithContext(c.Request.Context()).Create(&a).Error; err != nil {
			respondError(c, err)
			return
		}
		_ = utils.DeleteCache(c.Request.Context(), rdb, utils.AnnouncementsKey)
		logrus.WithFields(logrus.Fields{"announcement_id": a.ID, "admin_id": adminID}).Info("Announcement created")
		c.JSON(http.StatusCreated, gin.H{"announcement": a})
	}
}

// UpdateAnnouncementHandler edits the fields present in the body
func UpdateAnnouncementHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AnnouncementRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		updates := map[string]any{}
		if req.Title != nil {
			updates["title"] = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			updates["description"] = strings.TrimSpace(*req.Description)
		}
		if req.ImageURL != nil {
			updates["image_url"] = *req.ImageURL
		}
		if req.IconType != nil {
			updates["icon_type"] = *req.IconType
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if req.Priority != nil {
			updates["priority"] = *req.Priority
		}
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
			return
		}

		db := db.WithContext(c.Request.Context())
		var a domain.Announcement
		if err := db.First(&a, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
				return
			}
			respondError(c, err)
			return
		}
		if err := db.Model(&a).Updates(updates).Error; err != nil {
			respondError(c, err)
			return
		}
		if err := db.First(&a, "id = ?", a.ID).Error; err != nil {
			respondError(c, err)
			return
		}
		_ = utils.DeleteCache(c.Request.Context(), rdb, utils.AnnouncementsKey)
		c.JSON(http.StatusOK, gin.H{"announcement": a})
	}
}

// DeleteAnnouncementHandler removes an announcement
func DeleteAnnouncementHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := db.WithContext(c.Request.Context()).Delete(&domain.Announcement{}, "id = ?", c.Param("id"))
		if res.Error != nil {
			respondError(c, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
			return
		}
		_ = utils.DeleteCache(c.Request.Context(), rdb, utils.AnnouncementsKey)
		c.JSON(http.StatusOK, gin.H{"message": "Announcement deleted"})
	}
}
