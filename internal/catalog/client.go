package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/dshills/Vectra/internal/errors"
	"github.com/dshills/Vectra/internal/log"
)

// Client resolves table locations with namespace caching and failover
// across replica metastore endpoints. Endpoints are tried in order; the
// first healthy answer wins and is cached until the TTL expires.
type Client struct {
	stores []Store
	ttl    time.Duration
	logger log.Logger

	mu    sync.Mutex
	cache map[TableRef]cacheEntry

	now func() time.Time // swapped in tests
}

type cacheEntry struct {
	locations []Location
	fetchedAt time.Time
}

// NewClient creates a client over the given endpoints, primary first.
func NewClient(stores []Store, ttl time.Duration, logger log.Logger) (*Client, error) {
	if len(stores) == 0 {
		return nil, errors.ConstructionError("catalog.Client", "at least one metastore endpoint is required")
	}
	if ttl < 0 {
		return nil, errors.ConstructionError("catalog.Client", "cache TTL must not be negative")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		stores: stores,
		ttl:    ttl,
		logger: logger,
		cache:  make(map[TableRef]cacheEntry),
		now:    time.Now,
	}, nil
}

// Locations resolves the data files of a table, serving from cache when
// fresh. On a miss every endpoint is tried in order; if all fail, the last
// failure is surfaced as a connection fault.
func (c *Client) Locations(ctx context.Context, ref TableRef) ([]Location, error) {
	c.mu.Lock()
	entry, ok := c.cache[ref]
	fresh := ok && c.now().Sub(entry.fetchedAt) < c.ttl
	c.mu.Unlock()
	if fresh {
		return entry.locations, nil
	}

	var lastErr error
	for i, store := range c.stores {
		locations, err := store.Locations(ctx, ref)
		if err != nil {
			c.logger.Warn("metastore endpoint failed, trying next replica",
				"table", ref.String(),
				"endpoint", i,
				"error", err.Error(),
			)
			lastErr = err
			continue
		}

		c.mu.Lock()
		c.cache[ref] = cacheEntry{locations: locations, fetchedAt: c.now()}
		c.mu.Unlock()
		return locations, nil
	}
	return nil, errors.MetastoreUnavailableError(lastErr).
		WithDetailf("table %s, %d endpoints tried", ref.String(), len(c.stores))
}

// Invalidate drops a cached namespace entry.
func (c *Client) Invalidate(ref TableRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, ref)
}

// Close closes every endpoint, returning the first error encountered.
func (c *Client) Close() error {
	var firstErr error
	for _, s := range c.stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
