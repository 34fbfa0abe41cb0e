package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/beforepeak/beforepeak-backend/config"
	"github.com/beforepeak/beforepeak-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// BlacklistToken adds a token to the blacklist until it would have expired.
func BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	if client == nil {
		return nil
	}
	key := fmt.Sprintf("blacklist:%s", token)
	if err := client.Set(ctx, key, "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err, nil)
		return err
	}
	return nil
}

// IsTokenBlacklisted checks if a token is in the blacklist
func IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if client == nil {
		return false, nil
	}
	key := fmt.Sprintf("blacklist:%s", token)
	val, err := client.Get(ctx, key).Result()

	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
		return false, err
	}

	return val == "revoked", nil
}

// Review-gate cache. The pending_reviews table is authoritative; this only
// caches the navigation-block answer so the app shell can poll it cheaply.

func reviewGateKey(userID uint) string {
	return fmt.Sprintf("review_gate:%d", userID)
}

// CacheReviewGate stores the navigation-block flag for a user.
func CacheReviewGate(ctx context.Context, userID uint, blocked bool, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	val := "0"
	if blocked {
		val = "1"
	}
	return client.Set(ctx, reviewGateKey(userID), val, ttl).Err()
}

// GetCachedReviewGate returns (blocked, found).
func GetCachedReviewGate(ctx context.Context, userID uint) (bool, bool) {
	if client == nil {
		return false, false
	}
	val, err := client.Get(ctx, reviewGateKey(userID)).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

// InvalidateReviewGate drops the cached flag, forcing a DB read next time.
func InvalidateReviewGate(ctx context.Context, userID uint) {
	if client == nil {
		return
	}
	if err := client.Del(ctx, reviewGateKey(userID)).Err(); err != nil {
		logger.Warn("Failed to invalidate review gate cache", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}
