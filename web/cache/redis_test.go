package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHitCountsWithinWindow(t *testing.T) {
	require.NoError(t, InitRedis(""))
	t.Cleanup(func() { _ = Close() })
	assert.True(t, IsEmbedded())

	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		n, ttl, err := Hit(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
		assert.Greater(t, ttl, time.Duration(0))
	}

	FastForward(2 * time.Minute)
	n, _, err := Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, Delete(ctx, "k"))
	n, _, err = Hit(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestHitWithoutClient(t *testing.T) {
	require.NoError(t, Close())
	_, _, err := Hit(context.Background(), "k", time.Minute)
	assert.Error(t, err)
}
