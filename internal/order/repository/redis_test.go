package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*RedisIdempotencyStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisIdempotencyStore(cache.New(client), 24*time.Hour), mr
}

func TestIdempotency_ClaimSaveReplay(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	receipt, claimed, err := s.Claim(ctx, "t1:abc")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Nil(t, receipt)

	// a concurrent duplicate sees the pending marker
	receipt, claimed, err = s.Claim(ctx, "t1:abc")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Nil(t, receipt)

	want := &dto.Receipt{OrderID: "ABCDEF12", Total: decimal.NewFromInt(20), Summary: "- 1x Haircut $20.00"}
	require.NoError(t, s.Save(ctx, "t1:abc", want))

	receipt, claimed, err = s.Claim(ctx, "t1:abc")
	require.NoError(t, err)
	assert.False(t, claimed)
	require.NotNil(t, receipt)
	assert.Equal(t, "ABCDEF12", receipt.OrderID)
	assert.True(t, want.Total.Equal(receipt.Total))
}

func TestIdempotency_ReleaseAllowsRetry(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	_, claimed, err := s.Claim(ctx, "k")
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, s.Release(ctx, "k"))
	assert.False(t, mr.Exists("idem:order:k"))

	_, claimed, err = s.Claim(ctx, "k")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestIdempotency_ReceiptExpires(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "k", &dto.Receipt{OrderID: "X"}))
	mr.FastForward(25 * time.Hour)

	_, claimed, err := s.Claim(ctx, "k")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestIdempotency_UnreadableEntryStaysClaimed(t *testing.T) {
	s, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("idem:order:k", "not-json"))

	receipt, claimed, err := s.Claim(ctx, "k")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Nil(t, receipt)
	assert.True(t, mr.Exists("idem:order:k"))
}
