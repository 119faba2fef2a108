package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   uint64
	Name string
}

func TestLocalCache_PutGetEvict(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache[item](time.Minute)

	_, found, err := c.Get(ctx, uint64(1))
	require.NoError(t, err)
	assert.False(t, found)

	original := &item{ID: 1, Name: "alice"}
	require.NoError(t, c.Put(ctx, uint64(1), original))

	got, found, err := c.Get(ctx, uint64(1))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice", got.Name)

	// cached state is a copy
	original.Name = "mallory"
	got.Name = "bob"
	again, _, _ := c.Get(ctx, uint64(1))
	assert.Equal(t, "alice", again.Name)

	require.NoError(t, c.Evict(ctx, uint64(1), uint64(2)))
	_, found, _ = c.Get(ctx, uint64(1))
	assert.False(t, found)
}

func TestLocalCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache[item](10 * time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put(ctx, "k", &item{ID: 9}))

	now = now.Add(9 * time.Minute)
	_, found, _ := c.Get(ctx, "k")
	assert.True(t, found)

	now = now.Add(2 * time.Minute)
	_, found, _ = c.Get(ctx, "k")
	assert.False(t, found)
	assert.Equal(t, 0, c.Len())
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "account:id:1000", GenerateKey(EntityAccount, "id", uint64(1000)))
	assert.Equal(t, "exchange_rate:id:USD", GenerateKey(EntityExchangeRate, "id", "USD"))
}
