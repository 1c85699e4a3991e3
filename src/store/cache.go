package store

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/theleywin/Backend-Kindred/src/lib"
	"github.com/theleywin/Backend-Kindred/src/models"
)

// CachedReader serves connection snapshots from an LRU cache in front of a store.
// Snapshots may be stale; writers must read through the store itself.
type CachedReader struct {
	store ConnectionReader
	cache *lru.Cache[string, *models.Connection]
	group singleflight.Group
	log   *lib.Logger

	// mu makes the version check and the insert in Put one step
	mu sync.Mutex
}

func NewCachedReader(store ConnectionReader, size int, baseLog *lib.Logger) (*CachedReader, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, *models.Connection](size)
	if err != nil {
		return nil, err
	}
	return &CachedReader{store: store, cache: cache, log: baseLog.With("store", "CachedReader")}, nil
}

func (r *CachedReader) Get(ctx context.Context, id string) (*models.Connection, error) {
	if c, ok := r.cache.Get(id); ok {
		return c.Clone(), nil
	}

	v, err, _ := r.group.Do(id, func() (interface{}, error) {
		c, err := r.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		r.Put(c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Connection).Clone(), nil
}

// Put stores a snapshot unless the cache already holds a newer version
func (r *CachedReader) Put(c *models.Connection) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.cache.Peek(c.ID); ok && cur.Version > c.Version {
		return
	}
	r.cache.Add(c.ID, c.Clone())
}

func (r *CachedReader) Invalidate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Remove(id)
}

func (r *CachedReader) Len() int {
	return r.cache.Len()
}
