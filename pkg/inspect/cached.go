package inspect

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/dllstage/pkg/cache"
	"github.com/matzehuels/dllstage/pkg/observability"
)

const cacheKeyType = "inspect"

// Cached remembers the results of another Inspector, keyed by the inspector
// ID and the SHA-256 of the file contents. Cache failures are logged and
// never fail an inspection.
type Cached struct {
	inner  Inspector
	id     string
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// NewCached wraps inner. id must change whenever inner would report
// different names for the same bytes (command, exclusions).
func NewCached(inner Inspector, id string, c cache.Cache, logger *log.Logger) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Cached{inner: inner, id: id, cache: c, keyer: cache.NewDefaultKeyer(), logger: logger}
}

// Inspect returns the cached names for path or delegates to the wrapped
// inspector and stores its result.
func (c *Cached) Inspect(ctx context.Context, path string) ([]Name, error) {
	hash, err := cache.HashFile(path)
	if err != nil {
		// Let the wrapped inspector report the unreadable file.
		return c.inner.Inspect(ctx, path)
	}
	key := c.keyer.InspectKey(c.id, hash)

	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("cache read failed", "file", path, "err", err)
	} else if ok {
		var names []Name
		if err := json.Unmarshal(data, &names); err == nil {
			observability.Cache().OnCacheHit(ctx, cacheKeyType)
			c.logger.Debug("inspected (cached)", "file", path, "deps", len(names))
			return names, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, cacheKeyType)

	names, err := c.inner.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(names)
	if err != nil {
		return names, nil
	}
	if err := c.cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		c.logger.Warn("cache write failed", "file", path, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
	}
	return names, nil
}

var _ Inspector = (*Cached)(nil)
