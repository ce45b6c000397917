package utils

import (
	"context"       // Redis calls
	"encoding/json" // Cached values are JSON
	"errors"        // redis.Nil check
	"time"          // TTLs

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache keys and lifetimes shared by the handlers
const (
	CacheTTL          = 60 * time.Second
	MachinesCacheKey  = "catalog:machines"
	AnnouncementsKey  = "announcements:active"
	AdminStatsKey     = "admin:stats"
	AdminUsersPrefix  = "admin:users:"
	AdminDepositsKey  = "admin:deposits:"
	AdminWithdrawsKey = "admin:withdrawals:"
)

// GetCache reads key into dest. A nil client is a permanent miss.
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(val, dest)
}

// SetCache stores value as JSON under key for ttl
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// DeleteCache drops the given keys
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// DeleteCachePrefix drops every key starting with prefix. Used for paginated
// admin lists whose page keys are not known up front.
func DeleteCachePrefix(ctx context.Context, rdb *redis.Client, prefix string) error {
	if rdb == nil {
		return nil
	}
	iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return DeleteCache(ctx, rdb, keys...)
}
