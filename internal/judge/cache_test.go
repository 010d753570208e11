package judge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type constJudge struct{ reply string }

func (c constJudge) Ask(context.Context, string, string) (string, error) {
	return c.reply, nil
}

func TestWithCache_DisabledReturnsInner(t *testing.T) {
	inner := constJudge{reply: "{}"}

	got := WithCache(context.Background(), inner, CacheConfig{}, nil)
	assert.Equal(t, inner, got)

	got = WithCache(context.Background(), inner, CacheConfig{Enabled: true}, nil)
	assert.Equal(t, got, inner, "enabled without an address is disabled")
}

func TestWithCache_UnreachableRedisDegrades(t *testing.T) {
	inner := constJudge{reply: "{}"}

	got := WithCache(context.Background(), inner, CacheConfig{
		Enabled: true,
		Addr:    "127.0.0.1:1",
	}, nil)
	assert.Equal(t, inner, got, "unreachable cache falls back to the bare judge")
}

func TestCacheKey(t *testing.T) {
	a := cacheKey("model-a", "prompt")
	b := cacheKey("model-a", "prompt")
	c := cacheKey("model-b", "prompt")
	d := cacheKey("model-a", "other prompt")

	assert.Equal(t, a, b, "identical inputs share a key")
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Contains(t, a, "gauntlet:judge:")
}
