// Package testutil provides a throwaway database and row factories for tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"mining_rewards/internal/db"
	"mining_rewards/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database private to the test
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// Clock is a settable time source
type Clock struct {
	now time.Time
}

// NewClock starts a clock at a fixed UTC instant
func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time { return c.now }

// Advance moves the clock forward
func (c *Clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// USD parses a decimal literal
func USD(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// UserOpt customises CreateUser
type UserOpt func(*domain.User)

// WithBalance sets the available balance
func WithBalance(v string) UserOpt {
	return func(u *domain.User) { u.Balance = USD(v) }
}

// WithCommission sets the commission balance
func WithCommission(v string) UserOpt {
	return func(u *domain.User) { u.CommissionBalance = USD(v) }
}

// ReferredBy links the user to an inviter
func ReferredBy(parent *domain.User) UserOpt {
	return func(u *domain.User) { u.ReferredByID = &parent.ID }
}

// AsAdmin marks the user as admin
func AsAdmin() UserOpt {
	return func(u *domain.User) { u.IsAdmin = true }
}

// CreateUser inserts a user with a unique name and referral code
func CreateUser(t *testing.T, gdb *gorm.DB, name string, opts ...UserOpt) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     name,
		Password:     "x",
		ReferralCode: strings.ToUpper(uuid.NewString()[:8]),
	}
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

// CreateOwnedMachine inserts an owned machine and its open session
func CreateOwnedMachine(t *testing.T, gdb *gorm.DB, user *domain.User, machineID string, purchasedAt time.Time, lastClaimedAt *time.Time) *domain.OwnedMachine {
	t.Helper()
	om := &domain.OwnedMachine{
		UserID:        user.ID,
		MachineID:     machineID,
		PurchasedAt:   purchasedAt,
		LastClaimedAt: lastClaimedAt,
		RebatePaid:    true,
	}
	if lastClaimedAt != nil {
		om.ClaimCount = 1
	}
	require.NoError(t, gdb.Create(om).Error)

	start := purchasedAt
	if lastClaimedAt != nil {
		start = *lastClaimedAt
	}
	session := &domain.MiningSession{
		UserID:         user.ID,
		OwnedMachineID: om.ID,
		StartTime:      start,
		EndTime:        start.Add(24 * time.Hour),
	}
	require.NoError(t, gdb.Create(session).Error)
	require.NoError(t, gdb.Model(&domain.User{}).Where("id = ?", user.ID).
		Update("total_miners", gorm.Expr("total_miners + 1")).Error)
	return om
}

// ReloadUser reads the user row again
func ReloadUser(t *testing.T, gdb *gorm.DB, id string) *domain.User {
	t.Helper()
	var u domain.User
	require.NoError(t, gdb.First(&u, "id = ?", id).Error)
	return &u
}

// RequireAmount compares decimals by value
func RequireAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, USD(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}
