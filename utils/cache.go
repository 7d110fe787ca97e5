// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"workerlly/config"

	"github.com/go-redis/redis/v8"
)

var (
	// JobCacheClient serves the job-notification ZSETs and relay keys.
	// It must point at DB 0: the expiry subscriber listens on the
	// keyspace-event channel of that database.
	JobCacheClient *redis.Client
	// AuthCacheClient is the dedicated client for authorization caching.
	AuthCacheClient *redis.Client
	// OTPCacheClient holds short-lived login OTPs.
	OTPCacheClient *redis.Client
)

func newRedisClient(db int, label string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", label, err)
	}
	return client
}

// InitRedis initializes every Redis client the process uses.
func InitRedis() {
	JobCacheClient = newRedisClient(config.AppConfig.RedisJobDB, "Job Cache")
	AuthCacheClient = newRedisClient(config.AppConfig.RedisAuthDB, "Auth Cache")
	OTPCacheClient = newRedisClient(config.AppConfig.RedisOTPDB, "OTP Cache")
}

// GetJobCacheClient returns the job notification cache client.
func GetJobCacheClient() *redis.Client {
	if JobCacheClient == nil {
		JobCacheClient = newRedisClient(config.AppConfig.RedisJobDB, "Job Cache")
	}
	return JobCacheClient
}

// GetAuthCacheClient returns the Redis client for authorization caching.
func GetAuthCacheClient() *redis.Client {
	if AuthCacheClient == nil {
		AuthCacheClient = newRedisClient(config.AppConfig.RedisAuthDB, "Auth Cache")
	}
	return AuthCacheClient
}

// GetOTPCacheClient returns the Redis client for login OTPs.
func GetOTPCacheClient() *redis.Client {
	if OTPCacheClient == nil {
		OTPCacheClient = newRedisClient(config.AppConfig.RedisOTPDB, "OTP Cache")
	}
	return OTPCacheClient
}
