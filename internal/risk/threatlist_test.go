package risk

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bantai/bantai/internal/common/database"
)

func newTestThreatList(t *testing.T) (*ThreatList, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewThreatList(&database.RedisClient{Client: client}, zap.NewNop()), mr
}

func TestThreatListAddContains(t *testing.T) {
	tl, _ := newTestThreatList(t)
	ctx := context.Background()

	require.NoError(t, tl.Add(ctx, "203.0.113.7"))
	assert.True(t, tl.Contains(ctx, "203.0.113.7"))
	assert.False(t, tl.Contains(ctx, "198.51.100.1"))
	assert.False(t, tl.Contains(ctx, ""))
}

func TestThreatListAddValidation(t *testing.T) {
	tl, _ := newTestThreatList(t)
	require.Error(t, tl.Add(context.Background(), ""))
}

func TestThreatListRemove(t *testing.T) {
	tl, _ := newTestThreatList(t)
	ctx := context.Background()

	require.NoError(t, tl.Add(ctx, "203.0.113.7"))
	require.NoError(t, tl.Remove(ctx, "203.0.113.7"))
	assert.False(t, tl.Contains(ctx, "203.0.113.7"))

	// Removing an absent IP is not an error
	require.NoError(t, tl.Remove(ctx, "203.0.113.7"))
}

func TestThreatListList(t *testing.T) {
	tl, _ := newTestThreatList(t)
	ctx := context.Background()

	require.NoError(t, tl.Add(ctx, "203.0.113.7"))
	require.NoError(t, tl.Add(ctx, "198.51.100.1"))

	ips, err := tl.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"203.0.113.7", "198.51.100.1"}, ips)
}

func TestThreatListFailOpenOnOutage(t *testing.T) {
	tl, mr := newTestThreatList(t)
	ctx := context.Background()

	require.NoError(t, tl.Add(ctx, "203.0.113.7"))
	mr.Close()

	// Lookups during an outage report a miss rather than blocking logins
	assert.False(t, tl.Contains(ctx, "203.0.113.7"))
}
