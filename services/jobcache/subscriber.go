package jobcache

import (
	"context"
	"strings"
	"time"

	"workerlly/utils"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	expiredChannel  = "__keyevent@0__:expired"
	relayKeyPrefix  = "job_relay:"
	maxRetryBackoff = 30 * time.Second
)

// RelayHandler re-announces an expired relay. It receives the cached
// event still present in the catch-up stream; it must be idempotent,
// keyspace notifications are at-least-once.
type RelayHandler func(ctx context.Context, event JobEvent)

// Subscriber consumes key-expiration events and fires the relay
// re-announcement for each expired `job_relay:*` key.
type Subscriber struct {
	client  *redis.Client
	cache   *Cache
	handler RelayHandler
}

// NewSubscriber builds the expiry subscriber over the same Redis DB the
// cache writes to.
func NewSubscriber(client *redis.Client, cache *Cache, handler RelayHandler) *Subscriber {
	return &Subscriber{client: client, cache: cache, handler: handler}
}

// reconnectBackoff doubles the retry delay up to maxRetryBackoff and
// drops back to one second once a subscription is established again.
type reconnectBackoff struct {
	current time.Duration
}

func (b *reconnectBackoff) next() time.Duration {
	if b.current == 0 {
		b.current = time.Second
		return b.current
	}
	b.current *= 2
	if b.current > maxRetryBackoff {
		b.current = maxRetryBackoff
	}
	return b.current
}

func (b *reconnectBackoff) reset() {
	b.current = 0
}

// Run blocks consuming expiry notifications until ctx is cancelled.
// Connection loss triggers reconnect with doubling backoff; the backoff
// resets once the subscription comes back up.
func (s *Subscriber) Run(ctx context.Context) {
	logger := utils.GetLogger()

	// Keyspace notifications are off by default; best effort to turn on
	// expiry events. Managed Redis may refuse CONFIG, then the operator
	// must enable `notify-keyspace-events Ex` out of band.
	if err := s.client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		logger.Warn("could not enable keyspace notifications", zap.Error(err))
	}

	var backoff reconnectBackoff
	for {
		if ctx.Err() != nil {
			return
		}
		subscribed, err := s.consume(ctx)
		if subscribed {
			backoff.reset()
		}
		if err == nil {
			return
		}
		delay := backoff.next()
		logger.Error("relay subscriber disconnected", zap.Error(err),
			zap.Duration("retry_in", delay))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}
}

// consume reports whether the subscription was established before the
// returned error, so Run can tell a flapping connection from one that
// never came up.
func (s *Subscriber) consume(ctx context.Context) (bool, error) {
	pubsub := s.client.PSubscribe(ctx, expiredChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return false, err
	}

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return true, redis.ErrClosed
			}
			s.handleExpiry(ctx, msg.Payload)
		case <-ctx.Done():
			return true, nil
		}
	}
}

// handleExpiry processes one expired key. Non-relay expirations (the
// ZSETs and reverse keys also carry TTLs) are ignored.
func (s *Subscriber) handleExpiry(ctx context.Context, key string) {
	if !strings.HasPrefix(key, relayKeyPrefix) {
		return
	}
	jobID := strings.TrimPrefix(key, relayKeyPrefix)
	logger := utils.GetLogger()

	event, err := s.cache.Lookup(ctx, jobID)
	if err != nil {
		logger.Error("relay lookup failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	if event == nil {
		// Assigned or cancelled before the relay fired; eviction removed
		// the reverse keys, nothing to re-announce.
		logger.Debug("relay suppressed, job no longer cached", zap.String("job_id", jobID))
		return
	}

	logger.Info("re-announcing job", zap.String("job_id", jobID),
		zap.String("category_id", event.CategoryID), zap.String("city_id", event.CityID))
	s.handler(ctx, *event)
}
