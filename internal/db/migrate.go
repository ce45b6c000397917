package db

import (
	"mining_rewards/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging
	"gorm.io/gorm"               // GORM ORM library
)

// Models lists every table owned by the service
func Models() []any {
	return []any{
		&domain.User{},
		&domain.OwnedMachine{},
		&domain.MiningSession{},
		&domain.MiningClaim{},
		&domain.WithdrawalRequest{},
		&domain.DepositRequest{},
		&domain.ReferralCommission{},
		&domain.Announcement{},
	}
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	logrus.Debug("Migration completed.")
	return nil
}
