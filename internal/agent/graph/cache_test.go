package graph

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheBuildsOncePerKey(t *testing.T) {
	var builds atomic.Int32
	cache := NewCache(func(ctx context.Context, endpoint string) (*Agent, error) {
		builds.Add(1)
		return &Agent{}, nil
	})

	var wg sync.WaitGroup
	agents := make([]*Agent, 8)
	for i := range agents {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := cache.GetOrBuild(context.Background(), "http://tools.local/mcp", time.Minute)
			require.NoError(t, err)
			agents[i] = a
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	for _, a := range agents[1:] {
		assert.Same(t, agents[0], a)
	}
}

func TestCacheTrailingSlashSharesKey(t *testing.T) {
	var builds atomic.Int32
	cache := NewCache(func(ctx context.Context, endpoint string) (*Agent, error) {
		builds.Add(1)
		return &Agent{}, nil
	})

	a1, err := cache.GetOrBuild(context.Background(), "http://tools.local/mcp", time.Minute)
	require.NoError(t, err)
	a2, err := cache.GetOrBuild(context.Background(), "http://tools.local/mcp/", time.Minute)
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.Equal(t, int32(1), builds.Load())
}

func TestCacheDistinctTimeoutsAreDistinctKeys(t *testing.T) {
	var builds atomic.Int32
	cache := NewCache(func(ctx context.Context, endpoint string) (*Agent, error) {
		builds.Add(1)
		return &Agent{}, nil
	})

	a1, err := cache.GetOrBuild(context.Background(), "http://tools.local/mcp", time.Minute)
	require.NoError(t, err)
	a2, err := cache.GetOrBuild(context.Background(), "http://tools.local/mcp", 2*time.Minute)
	require.NoError(t, err)

	assert.NotSame(t, a1, a2)
	assert.Equal(t, int32(2), builds.Load())
}

func TestCacheFailureIsNotCached(t *testing.T) {
	var builds atomic.Int32
	cache := NewCache(func(ctx context.Context, endpoint string) (*Agent, error) {
		if builds.Add(1) == 1 {
			return nil, errors.New("connect refused")
		}
		return &Agent{}, nil
	})

	_, err := cache.GetOrBuild(context.Background(), "http://tools.local/mcp", time.Minute)
	require.Error(t, err)

	a, err := cache.GetOrBuild(context.Background(), "http://tools.local/mcp", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, a)
	assert.Equal(t, int32(2), builds.Load())
}

func TestCacheBuildContextHasDeadline(t *testing.T) {
	cache := NewCache(func(ctx context.Context, endpoint string) (*Agent, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			return nil, errors.New("missing deadline")
		}
		if time.Until(deadline) > time.Minute {
			return nil, errors.New("deadline too far out")
		}
		return &Agent{}, nil
	})

	_, err := cache.GetOrBuild(context.Background(), "http://tools.local/mcp", 30*time.Second)
	require.NoError(t, err)
}
