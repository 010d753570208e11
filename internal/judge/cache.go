package judge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forgebench/go-gauntlet/internal/scoring"
)

const (
	cacheKeyPrefix    = "gauntlet:judge:"
	connectionTimeout = 5 * time.Second
	defaultCacheTTL   = time.Hour
)

// CacheConfig controls the Redis-backed judge response cache.
type CacheConfig struct {
	Enabled  bool          `json:"enabled"`
	Addr     string        `json:"addr"`
	Password string        `json:"-"` // Sensitive, never serialized.
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"`
}

// cachedJudge caches judge responses in Redis keyed by a hash of the model
// and prompt. Identical prompts are deterministic by construction, so a hit
// is always a valid answer. Redis failures degrade gracefully: the call
// falls through to the inner judge and the error is counted, not returned.
type cachedJudge struct {
	inner  scoring.Judge
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

// WithCache wraps a judge with a Redis response cache. When the cache is
// disabled or Redis is unreachable at startup, the inner judge is returned
// unchanged.
func WithCache(ctx context.Context, inner scoring.Judge, cfg CacheConfig, logger *slog.Logger) scoring.Judge {
	if !cfg.Enabled || cfg.Addr == "" {
		return inner
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultCacheTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, judge cache disabled", "addr", cfg.Addr, "error", err)
		return inner
	}

	return &cachedJudge{
		inner:  inner,
		client: client,
		ttl:    cfg.TTL,
		logger: logger.With("component", "judge_cache"),
	}
}

// Ask serves the response from cache when present, otherwise delegates to
// the inner judge and stores the reply best-effort.
func (c *cachedJudge) Ask(ctx context.Context, prompt, model string) (string, error) {
	key := cacheKey(model, prompt)

	cached, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		c.hits.Add(1)
		c.logger.Debug("judge cache hit", "model", model)
		return cached, nil
	case err != redis.Nil:
		c.errors.Add(1)
		c.logger.Warn("judge cache read failed", "error", err)
	default:
		c.misses.Add(1)
	}

	content, err := c.inner.Ask(ctx, prompt, model)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, content, c.ttl).Err(); err != nil {
		c.errors.Add(1)
		c.logger.Warn("judge cache write failed", "error", err)
	}
	return content, nil
}

// cacheKey derives the cache key from the model and prompt content.
func cacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
