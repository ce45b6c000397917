package main

import (
	"errors"  // Record lookups
	"strings" // Username normalisation

	"mining_rewards/internal/config" // Configuration
	"mining_rewards/internal/db"     // Database connection and schema
	"mining_rewards/internal/domain" // User model
	"mining_rewards/internal/utils"  // Referral codes

	"github.com/sirupsen/logrus" // Logging
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig()
	config.SetupLogging(cfg)

	database, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	logrus.Info("Migration completed")

	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		logrus.Info("ADMIN_USERNAME or ADMIN_PASSWORD not set, skipping admin seed")
		return
	}
	if err := seedAdmin(database, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logrus.Fatalf("failed to seed admin: %v", err)
	}
}

// seedAdmin creates the admin account, or promotes it when the username exists
func seedAdmin(database *gorm.DB, username, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	var existing domain.User
	err := database.Where("username = ?", username).First(&existing).Error
	if err == nil {
		if existing.IsAdmin {
			logrus.WithField("username", username).Info("Admin already present")
			return nil
		}
		logrus.WithField("username", username).Info("Promoting existing user to admin")
		return database.Model(&existing).Update("is_admin", true).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := domain.User{
		Username:     username,
		Password:     string(hash),
		IsAdmin:      true,
		ReferralCode: utils.NewReferralCode(),
	}
	if err := database.Create(&admin).Error; err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"username": username, "user_id": admin.ID}).Info("Admin seeded")
	return nil
}
