package dataset

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoaderFunc loads a dataset from a source path
type LoaderFunc func(path string) (*Dataset, error)

// Cache memoizes datasets by source path for the life of the process.
// Entries are never invalidated; failed loads are not cached.
type Cache struct {
	load LoaderFunc

	mu      sync.RWMutex
	entries map[string]*Dataset
	group   singleflight.Group
}

// NewCache creates a cache backed by loader. A nil loader uses Load.
func NewCache(loader LoaderFunc) *Cache {
	if loader == nil {
		loader = Load
	}
	return &Cache{
		load:    loader,
		entries: make(map[string]*Dataset),
	}
}

// Get returns the dataset for path, loading it on first use. Concurrent
// first requests for the same path share a single load.
func (c *Cache) Get(path string) (*Dataset, error) {
	c.mu.RLock()
	ds, ok := c.entries[path]
	c.mu.RUnlock()
	if ok {
		return ds, nil
	}

	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		c.mu.RLock()
		ds, ok := c.entries[path]
		c.mu.RUnlock()
		if ok {
			return ds, nil
		}

		ds, err := c.load(path)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[path] = ds
		c.mu.Unlock()
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Dataset), nil
}

// Len returns the number of cached datasets
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
