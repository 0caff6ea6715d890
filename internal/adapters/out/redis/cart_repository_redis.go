// internal/adapters/out/redis/cart_repository_redis.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	cartdom "storefront/internal/domain/cart"
)

const keyPrefix = "cart:"

// CartRepositoryRedis implements cart.SnapshotRepository on Redis.
// One string key per session holds the JSON snapshot; the key TTL is the
// snapshot's ExpiresAt.
type CartRepositoryRedis struct {
	client redis.Cmdable
	log    *zap.Logger
}

func NewCartRepositoryRedis(client redis.Cmdable, log *zap.Logger) *CartRepositoryRedis {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartRepositoryRedis{client: client, log: log.Named("cart_repository_redis")}
}

// NewClient accepts either a redis:// URL or a bare "host[:port]".
func NewClient(addr string) *redis.Client {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		if !strings.Contains(addr, ":") {
			addr += ":6379"
		}
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  10 * time.Second,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			PoolSize:     10,
			PoolTimeout:  4 * time.Second,
			IdleTimeout:  180 * time.Second,
		}
	}
	return redis.NewClient(opts)
}

// WaitReady pings with exponential backoff until Redis answers or attempts
// run out.
func WaitReady(ctx context.Context, client redis.Cmdable, attempts int, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return nil
		}

		backoff := time.Duration(250*(1<<uint(i))) * time.Millisecond
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
		log.Warn("redis ping failed", zap.Int("attempt", i+1), zap.Duration("backoff", backoff), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("redis: not reachable after %d attempts", attempts)
}

func cartKey(sessionID string) string {
	return keyPrefix + sessionID
}

// Load returns (nil, nil) if not found (nil policy).
func (r *CartRepositoryRedis) Load(ctx context.Context, sessionID string) (*cartdom.Snapshot, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, errors.New("cart_repository_redis: sessionID is empty")
	}

	val, err := r.client.Get(ctx, cartKey(sid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart_repository_redis: get: %w", err)
	}

	snap, err := decodeSnapshot(val)
	if err != nil {
		// a corrupt value must not pin the session to a broken cart
		r.log.Warn("discarding undecodable snapshot", zap.String("sessionId", sid), zap.Error(err))
		return nil, nil
	}
	snap.SessionID = sid
	return snap, nil
}

func (r *CartRepositoryRedis) Save(ctx context.Context, s cartdom.Snapshot) error {
	sid := strings.TrimSpace(s.SessionID)
	if sid == "" {
		return cartdom.ErrInvalidSnapshot
	}

	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("cart_repository_redis: encode: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(sid), b, ttlFor(s, time.Now())).Err(); err != nil {
		return fmt.Errorf("cart_repository_redis: set: %w", err)
	}
	return nil
}

func (r *CartRepositoryRedis) Delete(ctx context.Context, sessionID string) error {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return errors.New("cart_repository_redis: sessionID is empty")
	}
	if err := r.client.Del(ctx, cartKey(sid)).Err(); err != nil {
		return fmt.Errorf("cart_repository_redis: del: %w", err)
	}
	return nil
}

func decodeSnapshot(b []byte) (*cartdom.Snapshot, error) {
	var s cartdom.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Items == nil {
		s.Items = []cartdom.LineItem{}
	}
	return &s, nil
}

// ttlFor falls back to the default window when ExpiresAt is unset or past.
func ttlFor(s cartdom.Snapshot, now time.Time) time.Duration {
	if s.ExpiresAt.IsZero() {
		return cartdom.DefaultSnapshotTTL
	}
	ttl := s.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return cartdom.DefaultSnapshotTTL
	}
	return ttl
}
