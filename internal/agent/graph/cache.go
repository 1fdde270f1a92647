package graph

import (
	"context"
	"strings"
	"sync"
	"time"

	logx "github.com/mcp-orchestrator/server/pkg/logger"
)

// BuildFunc constructs an Agent bound to the tool service at endpoint. The
// ctx deadline bounds the construction.
type BuildFunc func(ctx context.Context, endpoint string) (*Agent, error)

type cacheKey struct {
	endpoint string
	timeout  time.Duration
}

type cacheEntry struct {
	mu    sync.Mutex
	agent *Agent
}

// Cache memoizes constructed agents per (tool-service endpoint, construction
// timeout) pair. Construction is expensive (MCP connect + tool discovery +
// graph compile), so the first caller for a key builds under a per-key lock
// and everyone else reuses the result for the process lifetime. A failed
// construction is not cached; a later call with the same key tries again.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
	build   BuildFunc
}

// NewCache creates a cache using build for first-use construction.
func NewCache(build BuildFunc) *Cache {
	return &Cache{
		entries: make(map[cacheKey]*cacheEntry),
		build:   build,
	}
}

// GetOrBuild returns the agent for the endpoint/timeout pair, constructing it
// on first use. Trailing slashes in endpoint do not produce distinct keys.
func (c *Cache) GetOrBuild(ctx context.Context, endpoint string, toolsTimeout time.Duration) (*Agent, error) {
	key := cacheKey{
		endpoint: strings.TrimRight(endpoint, "/"),
		timeout:  toolsTimeout,
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &cacheEntry{}
		c.entries[key] = entry
	}
	c.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.agent != nil {
		return entry.agent, nil
	}

	buildCtx, cancel := context.WithTimeout(ctx, toolsTimeout)
	defer cancel()

	agent, err := c.build(buildCtx, key.endpoint)
	if err != nil {
		logx.Error().Err(err).Str("endpoint", key.endpoint).Msg("Agent construction failed")
		return nil, err
	}

	entry.agent = agent
	logx.Debug().Str("endpoint", key.endpoint).Dur("tools_timeout", toolsTimeout).Msg("Agent cached")
	return agent, nil
}
