//go:build integration

package runlock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRedisLocker_ExclusiveUntilReleased(t *testing.T) {
	url := os.Getenv("RUNLOCK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RUNLOCK_TEST_REDIS_URL not set")
	}
	l, err := NewRedisLockerFromURL(url, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	ctx := context.Background()
	key := "test-" + time.Now().Format("150405.000000")

	release, err := l.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, key)
	require.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, release(ctx))

	release, err = l.Acquire(ctx, key)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}
