package artifacts

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// BundleLoader produces a bundle; *Loader is the production implementation.
type BundleLoader interface {
	Load(ctx context.Context) (*Bundle, error)
}

// Cache owns the process-wide bundle. The first successful Get populates it
// and every later call returns the same read-only bundle. A failed
// population is not remembered: the next Get tries again.
type Cache struct {
	loader BundleLoader
	logger *zap.Logger

	mu     sync.Mutex
	bundle *Bundle
}

// NewCache creates an empty cache over loader.
func NewCache(loader BundleLoader, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{loader: loader, logger: logger}
}

// Get returns the cached bundle, loading it on first use. Concurrent first
// callers wait for a single load.
func (c *Cache) Get(ctx context.Context) (*Bundle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bundle != nil {
		return c.bundle, nil
	}

	c.logger.Info("artifact cache cold, loading bundle")
	b, err := c.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.bundle = b
	return b, nil
}

// Loaded reports whether the cache is populated.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bundle != nil
}

// Reset drops the cached bundle; the next Get reloads.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.bundle = nil
	c.mu.Unlock()
}
