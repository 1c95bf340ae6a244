package prompt

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/overheadlabs/geomask/raster"
)

// DefaultCacheBytes is the per-model feature cache budget when none is
// configured.
const DefaultCacheBytes = int64(1) << 30

// An ImageCache holds per-image derived state under a byte budget. Entries
// are keyed by image identity, so two generator runs over the same image
// reuse work while fresh crops accumulate until Release.
type ImageCache struct {
	maxBytes int64
	used     atomic.Int64
	mu       sync.Mutex
	entries  map[*raster.Image]interface{}
}

// NewImageCache returns a cache with the given budget, or DefaultCacheBytes
// when maxBytes is 0.
func NewImageCache(maxBytes int64) *ImageCache {
	if maxBytes == 0 {
		maxBytes = DefaultCacheBytes
	}
	return &ImageCache{
		maxBytes: maxBytes,
		entries:  map[*raster.Image]interface{}{},
	}
}

// Get returns the cached value for an image, if present.
func (c *ImageCache) Get(img *raster.Image) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[img]
	return v, ok
}

// Put stores a value of the given size. When the budget cannot fit it, the
// value is not stored and ErrResourceExhausted is returned.
func (c *ImageCache) Put(img *raster.Image, value interface{}, size int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[img]; ok {
		return nil
	}
	if c.used.Load()+size > c.maxBytes {
		return ErrResourceExhausted
	}
	c.entries[img] = value
	c.used.Add(size)
	return nil
}

// UsedBytes returns the bytes currently accounted for.
func (c *ImageCache) UsedBytes() int64 {
	return c.used.Load()
}

// Release drops every entry and resets the byte count.
func (c *ImageCache) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[*raster.Image]interface{}{}
	c.used.Store(0)
}
