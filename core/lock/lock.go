package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned when releasing a lock owned by someone else.
var ErrNotHeld = errors.New("lock not held")

// Config holds configuration for the run lock.
type Config struct {
	// Enabled guards each pass with a redis lock.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Addr is the redis address.
	Addr string `mapstructure:"addr" default:"localhost:6379"`
	// Password is the redis password.
	Password string `mapstructure:"password" default:""`
	// DB is the redis database index.
	DB int `mapstructure:"db" default:"0"`
	// Key is the lock key.
	Key string `mapstructure:"key" default:"ecomm-sync:pass"`
	// TTL bounds how long a crashed holder keeps the lock.
	TTL time.Duration `mapstructure:"ttl" default:"30m"`
}

// Locker guards a reconciliation pass against overlapping invocations.
type Locker interface {
	// TryAcquire reports whether the lock was obtained.
	TryAcquire(ctx context.Context) (bool, error)
	// Release gives the lock back.
	Release(ctx context.Context) error
	// Close releases the underlying connection.
	Close() error
}

// Noop is a Locker that always succeeds.
type Noop struct{}

func (Noop) TryAcquire(ctx context.Context) (bool, error) { return true, nil }
func (Noop) Release(ctx context.Context) error            { return nil }
func (Noop) Close() error                                 { return nil }

// redisClient is the subset of the redis client used by RedisLock.
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Close() error
}

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

// RedisLock is a single-holder lock stored in redis with SET NX.
type RedisLock struct {
	client redisClient
	key    string
	ttl    time.Duration
	token  string
}

// NewRedisLock creates a lock on key using client.
func NewRedisLock(client redisClient, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, key: key, ttl: ttl}
}

// New returns the Locker described by cfg.
func New(cfg Config) Locker {
	if !cfg.Enabled {
		return Noop{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisLock(client, cfg.Key, cfg.TTL)
}

// TryAcquire implements Locker.
func (l *RedisLock) TryAcquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release implements Locker.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return ErrNotHeld
	}
	n, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Int64()
	l.token = ""
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// Close closes the redis client.
func (l *RedisLock) Close() error {
	return l.client.Close()
}
