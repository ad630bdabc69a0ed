package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type payload struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(context.Background(), mr.Addr(), "", 0, time.Minute, zap.NewNop())
	require.NotNil(t, c, "expected cache to connect to miniredis")
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSetGetJSON_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	in := payload{Title: "Indie Game Jam", Count: 3}
	c.SetJSON(ctx, "collab:abc:detail", in)

	var out payload
	require.True(t, c.GetJSON(ctx, "collab:abc:detail", &out), "expected cache hit")
	assert.Equal(t, in, out)
}

func TestGetJSON_Miss(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var out payload
	assert.False(t, c.GetJSON(ctx, "collab:missing:detail", &out), "expected miss for absent key")
}

func TestDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.SetJSON(ctx, "collab:abc:detail", payload{Title: "x"})
	c.Delete(ctx, "collab:abc:detail")

	var out payload
	assert.False(t, c.GetJSON(ctx, "collab:abc:detail", &out), "expected miss after delete")
}

func TestBump_RotatesVersionedKeys(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	before := c.VersionedKey(ctx, "collab:abc", "detail")
	c.SetJSON(ctx, before, payload{Title: "stale"})

	c.Bump(ctx, "collab:abc")

	after := c.VersionedKey(ctx, "collab:abc", "detail")
	require.NotEqual(t, before, after, "expected bump to change the versioned key")

	var out payload
	assert.False(t, c.GetJSON(ctx, after, &out), "expected miss under the new version")
	// The old entry survives until TTL but is unreachable via VersionedKey.
	assert.True(t, c.GetJSON(ctx, before, &out), "expected old entry to still exist under the old key")
}

func TestVersion_StartsAtZero(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	assert.EqualValues(t, 0, c.Version(ctx, "challenges"))
	c.Bump(ctx, "challenges")
	assert.EqualValues(t, 1, c.Version(ctx, "challenges"))
}

func TestNilCache_NoOps(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var out payload
	assert.False(t, c.GetJSON(ctx, "k", &out), "nil cache should always miss")
	c.SetJSON(ctx, "k", payload{})
	c.Delete(ctx, "k")
	c.Bump(ctx, "scope")
	assert.Equal(t, "scope:v0:suffix", c.VersionedKey(ctx, "scope", "suffix"))
	assert.NoError(t, c.Close())
}

func TestNew_NoAddressDisables(t *testing.T) {
	c := New(context.Background(), "", "", 0, time.Minute, zap.NewNop())
	assert.Nil(t, c, "expected nil cache when no address is configured")
}
