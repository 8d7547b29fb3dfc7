package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dormweb/pkg/logging"
)

const keyPrefix = "dormweb:%s"

// Cache stores opaque response bodies for a limited time.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Fetch returns the cached value for key, or calls load and caches its result.
// Cache failures never fail the call; load errors are returned uncached.
func Fetch(ctx context.Context, c Cache, logger *slog.Logger, key string, ttl time.Duration, load func() ([]byte, error)) ([]byte, error) {
	if value, ok, err := c.Get(ctx, key); err != nil {
		logger.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	} else if ok {
		return value, nil
	}

	value, err := load()
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return value, nil
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

type Memory struct {
	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.items, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

type Redis struct {
	cli    *redis.Client
	tracer trace.Tracer
}

// NewRedis connects to the server named by a redis:// URL and pings it.
func NewRedis(ctx context.Context, rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Redis{cli: cli, tracer: otel.Tracer("dormweb/cache")}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := r.tracer.Start(ctx, "Redis.Get")
	defer span.End()

	value, err := r.cli.Get(ctx, fmt.Sprintf(keyPrefix, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := r.tracer.Start(ctx, "Redis.Set")
	defer span.End()

	if err := r.cli.Set(ctx, fmt.Sprintf(keyPrefix, key), value, ttl).Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (r *Redis) Close() error {
	return r.cli.Close()
}

// New returns a redis-backed cache when rawURL is set and reachable, and an
// in-memory cache otherwise.
func New(ctx context.Context, rawURL string, logger *slog.Logger) (Cache, io.Closer) {
	if logger == nil {
		logger = logging.Discard()
	}
	if rawURL == "" {
		return NewMemory(), io.NopCloser(nil)
	}
	r, err := NewRedis(ctx, rawURL)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory cache", slog.String("error", err.Error()))
		return NewMemory(), io.NopCloser(nil)
	}
	logger.Info("connected to redis")
	return r, r
}
