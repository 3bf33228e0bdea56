package views

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mr1hm/disaster-dashboard/internal/models"
)

// Resolver resolves a free-text place name. Implementations must not fail.
type Resolver interface {
	Resolve(ctx context.Context, place string) models.GeocodeResult
}

// GeocodeCache remembers geocode outcomes per distinct location string for
// the lifetime of the process. It lives beside the dataset rather than in it,
// so records are never mutated. Unresolved outcomes are cached too.
type GeocodeCache struct {
	mu      sync.RWMutex
	results map[string]models.GeocodeResult
	group   singleflight.Group
}

func NewGeocodeCache() *GeocodeCache {
	return &GeocodeCache{results: make(map[string]models.GeocodeResult)}
}

func (c *GeocodeCache) Get(place string) (models.GeocodeResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.results[place]
	return res, ok
}

func (c *GeocodeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

// Resolve returns the cached outcome for place or asks r exactly once, even
// under concurrent callers. hit reports whether the cache answered. Outcomes
// computed under a cancelled context are not stored, and callers whose own
// context is still live retry instead of sharing them.
func (c *GeocodeCache) Resolve(ctx context.Context, place string, r Resolver) (res models.GeocodeResult, hit bool) {
	for {
		if res, ok := c.Get(place); ok {
			return res, true
		}

		v, _, _ := c.group.Do(place, func() (any, error) {
			if res, ok := c.Get(place); ok {
				return flight{res: res}, nil
			}
			res := r.Resolve(ctx, place)
			if ctx.Err() != nil {
				return flight{res: res, cancelled: true}, nil
			}
			c.mu.Lock()
			c.results[place] = res
			c.mu.Unlock()
			return flight{res: res}, nil
		})

		f := v.(flight)
		if !f.cancelled || ctx.Err() != nil {
			return f.res, false
		}
	}
}

type flight struct {
	res       models.GeocodeResult
	cancelled bool
}
