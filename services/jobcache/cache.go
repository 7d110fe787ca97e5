package jobcache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"workerlly/config"
	"workerlly/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// JobEvent is the cached new-job payload. It is both the catch-up member
// stored in the per-(category, city) ZSET and the data of the `new_job`
// frame, so late joiners see exactly what the live cohort saw.
type JobEvent struct {
	ID          string  `json:"id"`
	TaskID      string  `json:"task_id"`
	UserID      string  `json:"user_id"`
	CategoryID  string  `json:"category_id"`
	CityID      string  `json:"city_id"`
	SubCategory string  `json:"sub_category,omitempty"`
	Location    string  `json:"location,omitempty"`
	HourlyRate  float64 `json:"hourly_rate"`
	CreatedAt   string  `json:"created_at"`
}

// Cache is the Redis-backed notification cache: catch-up ZSETs plus the
// per-job relay timer whose expiry drives the re-announcement.
type Cache struct {
	client *redis.Client
}

// NewCache returns a cache bound to the job cache Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) cacheTTL() time.Duration {
	return time.Duration(config.AppConfig.JobCacheExpirySecs) * time.Second
}

func (c *Cache) relayTTL() time.Duration {
	return time.Duration(config.AppConfig.JobRelayExpirySecs) * time.Second
}

// Store caches the event for catch-up and arms the relay timer. Cache
// failures never block posting; callers log and proceed.
func (c *Cache) Store(ctx context.Context, event JobEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	key := utils.JobNotificationsKey(event.CategoryID, event.CityID)
	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(time.Now().Unix()), Member: payload})
	pipe.Expire(ctx, key, c.cacheTTL())
	pipe.Set(ctx, utils.JobRelayKey(event.ID), payload, c.relayTTL())
	pipe.Set(ctx, utils.JobCategoryKey(event.ID), event.CategoryID, c.cacheTTL())
	pipe.Set(ctx, utils.JobCityKey(event.ID), event.CityID, c.cacheTTL())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache job event: %w", err)
	}
	return nil
}

// Remove evicts the job from catch-up and disarms its relay. Called on
// assignment and on cancellation.
func (c *Cache) Remove(ctx context.Context, jobID, categoryID, cityID string) error {
	key := utils.JobNotificationsKey(categoryID, cityID)
	members, err := c.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to scan job cache: %w", err)
	}
	for _, member := range members {
		var event JobEvent
		if err := json.Unmarshal([]byte(member), &event); err != nil {
			continue
		}
		if event.ID == jobID {
			if err := c.client.ZRem(ctx, key, member).Err(); err != nil {
				return fmt.Errorf("failed to evict job %s: %w", jobID, err)
			}
			break
		}
	}

	if err := c.client.Del(ctx,
		utils.JobRelayKey(jobID),
		utils.JobCategoryKey(jobID),
		utils.JobCityKey(jobID),
	).Err(); err != nil {
		return fmt.Errorf("failed to delete relay keys for job %s: %w", jobID, err)
	}
	return nil
}

// Recent returns the cohort's cached events newest-first, for replay to
// a seeker the moment they connect.
func (c *Cache) Recent(ctx context.Context, categoryID, cityID string) ([]JobEvent, error) {
	key := utils.JobNotificationsKey(categoryID, cityID)
	members, err := c.client.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read job cache: %w", err)
	}

	events := make([]JobEvent, 0, len(members))
	for _, member := range members {
		var event JobEvent
		if err := json.Unmarshal([]byte(member), &event); err != nil {
			utils.GetLogger().Warn("skipping malformed cached job event", zap.Error(err))
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Lookup finds a cached event by job id using the reverse keys. Returns
// nil when the event has already expired or been evicted.
func (c *Cache) Lookup(ctx context.Context, jobID string) (*JobEvent, error) {
	categoryID, err := c.client.Get(ctx, utils.JobCategoryKey(jobID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read reverse key for job %s: %w", jobID, err)
	}
	cityID, err := c.client.Get(ctx, utils.JobCityKey(jobID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read reverse key for job %s: %w", jobID, err)
	}

	events, err := c.Recent(ctx, categoryID, cityID)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].ID == jobID {
			return &events[i], nil
		}
	}
	return nil, nil
}

// LookupUserCurrentJob scans every cohort stream for the first cached
// event posted by the user. Restores a provider's in-flight job context
// on reconnect.
func (c *Cache) LookupUserCurrentJob(ctx context.Context, userID string) (string, error) {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, "job_notifications:*", 100).Result()
		if err != nil {
			return "", fmt.Errorf("failed to scan job cache keys: %w", err)
		}
		for _, key := range keys {
			if !strings.HasPrefix(key, "job_notifications:") {
				continue
			}
			members, err := c.client.ZRange(ctx, key, 0, -1).Result()
			if err != nil {
				continue
			}
			for _, member := range members {
				var event JobEvent
				if err := json.Unmarshal([]byte(member), &event); err != nil {
					continue
				}
				if event.UserID == userID {
					return event.ID, nil
				}
			}
		}
		cursor = next
		if cursor == 0 {
			return "", nil
		}
	}
}
