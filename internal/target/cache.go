package target

import (
	"bytes"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheEntries = 16

// SizeCache holds generated /sizer bodies keyed by size. Bodies are built
// on first request and evicted least recently used first.
type SizeCache struct {
	bodies *lru.Cache[int, []byte]
}

func NewSizeCache(entries int) (*SizeCache, error) {
	if entries <= 0 {
		entries = DefaultCacheEntries
	}
	c, err := lru.New[int, []byte](entries)
	if err != nil {
		return nil, err
	}
	return &SizeCache{bodies: c}, nil
}

// Body returns size bytes of 'X'.
func (c *SizeCache) Body(size int) []byte {
	if b, ok := c.bodies.Get(size); ok {
		return b
	}
	b := bytes.Repeat([]byte{'X'}, size)
	c.bodies.Add(size, b)
	return b
}

func (c *SizeCache) Len() int {
	return c.bodies.Len()
}
