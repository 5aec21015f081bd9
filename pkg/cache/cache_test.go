package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilClient(t *testing.T) {
	c := NewService(nil)
	ctx := context.Background()

	assert.False(t, c.IsAvailable())
	assert.Error(t, c.Ping(ctx))

	var out string
	assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrMiss)
	assert.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
}

func TestUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewService(client)
	require.True(t, c.IsAvailable())

	var out string
	err := c.Get(context.Background(), "k", &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
