package main

import (
	"testing"

	"mining_rewards/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedAdmin(t *testing.T) {
	gdb := testutil.NewDB(t)

	require.NoError(t, seedAdmin(gdb, " Root ", "hunter22"))
	require.NoError(t, seedAdmin(gdb, "root", "ignored"))

	var count int64
	require.NoError(t, gdb.Table("users").Where("username = ?", "root").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var admin struct {
		ID       string
		Password string
		IsAdmin  bool
	}
	require.NoError(t, gdb.Table("users").Where("username = ?", "root").Scan(&admin).Error)
	assert.True(t, admin.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("hunter22")))
}

func TestSeedAdmin_PromotesExistingUser(t *testing.T) {
	gdb := testutil.NewDB(t)
	user := testutil.CreateUser(t, gdb, "ops")

	require.NoError(t, seedAdmin(gdb, "ops", "whatever"))
	assert.True(t, testutil.ReloadUser(t, gdb, user.ID).IsAdmin)
}
