package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client), mr
}

func TestLock_AcquireAndRelease(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := c.AcquireLock(ctx, "lock:a", "owner-1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireLock(ctx, "lock:a", "owner-2", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	// a foreign owner cannot release it
	require.NoError(t, c.ReleaseLock(ctx, "lock:a", "owner-2"))
	assert.True(t, mr.Exists("lock:a"))

	require.NoError(t, c.ReleaseLock(ctx, "lock:a", "owner-1"))
	assert.False(t, mr.Exists("lock:a"))
}

func TestSeen(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	seen, err := c.Seen(ctx, "evt:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = c.Seen(ctx, "evt:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, seen)

	mr.FastForward(2 * time.Minute)
	seen, err = c.Seen(ctx, "evt:1", time.Minute)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestJSONRoundTripAndMiss(t *testing.T) {
	c, _ := setupTestRedis(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var out payload
	assert.ErrorIs(t, c.GetJSON(ctx, "missing", &out), ErrCacheMiss)

	require.NoError(t, c.SetJSON(ctx, "k", payload{Name: "burger", Count: 2}, time.Minute))
	require.NoError(t, c.GetJSON(ctx, "k", &out))
	assert.Equal(t, payload{Name: "burger", Count: 2}, out)
}

func TestDeletePattern(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	mr.Set("catalog:list:t1:a", "1")
	mr.Set("catalog:list:t1:b", "1")
	mr.Set("catalog:list:t2:a", "1")

	n, err := c.DeletePattern(ctx, "catalog:list:t1:*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("catalog:list:t2:a"))
	assert.False(t, mr.Exists("catalog:list:t1:a"))
}
