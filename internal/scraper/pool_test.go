package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserPool_AcquireRelease(t *testing.T) {
	pool, err := NewBrowserPool("http://localhost:7788", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Size())
	assert.Equal(t, 2, pool.Available())

	s1, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pool.Available())

	s2, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, pool.Available())
	assert.NotEqual(t, s1.ID, s2.ID)

	pool.Release(s1)
	assert.Equal(t, 1, pool.Available())
	pool.Release(s2)
	assert.Equal(t, 2, pool.Available())
}

func TestBrowserPool_RoundRobin(t *testing.T) {
	pool, err := NewBrowserPool("http://localhost:7788", 2)
	require.NoError(t, err)

	// 取出归还后，下一次取到的应是另一个会话
	s1, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Release(s1)

	s2, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID, s2.ID)
	pool.Release(s2)
}

func TestBrowserPool_AcquireBlocksUntilCancel(t *testing.T) {
	pool, err := NewBrowserPool("http://localhost:7788", 1)
	require.NoError(t, err)

	s, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	pool.Release(s)
}

func TestBrowserPool_InvalidSize(t *testing.T) {
	_, err := NewBrowserPool("http://localhost:7788", 0)
	assert.Error(t, err)
}

func TestBrowserPool_DoubleReleaseIgnored(t *testing.T) {
	pool, err := NewBrowserPool("http://localhost:7788", 1)
	require.NoError(t, err)

	s, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	pool.Release(s)
	pool.Release(s)
	assert.Equal(t, 1, pool.Available())
}
