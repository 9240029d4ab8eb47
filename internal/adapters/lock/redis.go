package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"partyreminders/internal/domain"
)

const keyPrefix = "lock:reminders:occasion:"

// releaseScript deletes the key only if it still holds our ownership token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// extendScript resets the TTL only if the key still holds our ownership token.
var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

var errLeaseLost = errors.New("lease no longer held")

// RedisLocker hands out per-occasion leases using SET NX with a TTL so a crashed
// run cannot hold an occasion forever. A held lease is renewed every ttl/3 until
// released, so an occasion may take longer than the TTL to dispatch.
type RedisLocker struct {
	client     *redis.Client
	ttl        time.Duration
	renewEvery time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, renewEvery: ttl / 3}
}

// NewRedisLockerFromURL connects to Redis and verifies the connection.
func NewRedisLockerFromURL(ctx context.Context, redisURL string, ttl time.Duration) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewRedisLocker(client, ttl), nil
}

func (l *RedisLocker) Acquire(ctx context.Context, occasionID string) (domain.Lease, bool, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, false, fmt.Errorf("generate lease token: %w", err)
	}
	lease := &redisLease{client: l.client, key: keyPrefix + occasionID, value: hex.EncodeToString(b), ttl: l.ttl}
	ok, err := l.client.SetNX(ctx, lease.key, lease.value, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lease %s: %w", lease.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	if l.renewEvery > 0 {
		renewCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		lease.stop = cancel
		lease.done = make(chan struct{})
		go lease.renew(renewCtx, l.renewEvery)
	}
	return lease, true, nil
}

// Close closes the underlying client.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

type redisLease struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
	stop   context.CancelFunc
	done   chan struct{}
}

// renew extends the lease every interval until ctx is cancelled or the lease is lost.
// A failed extension is retried on the next tick.
func (l *redisLease) renew(ctx context.Context, every time.Duration) {
	defer close(l.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.extend(ctx); errors.Is(err, errLeaseLost) {
				return
			}
		}
	}
}

func (l *redisLease) extend(ctx context.Context) error {
	n, err := extendScript.Run(ctx, l.client, []string{l.key}, l.value, l.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("extend lease %s: %w", l.key, err)
	}
	if n == 0 {
		return errLeaseLost
	}
	return nil
}

func (l *redisLease) Release(ctx context.Context) error {
	if l.stop != nil {
		l.stop()
		<-l.done
	}
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Err(); err != nil {
		return fmt.Errorf("release lease %s: %w", l.key, err)
	}
	return nil
}

// NoopLocker always grants the lease. Used when no Redis is configured.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) (domain.Lease, bool, error) {
	return noopLease{}, true, nil
}

type noopLease struct{}

func (noopLease) Release(context.Context) error { return nil }
