package genre

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/stagepass/stagepass-server/internal/domain"
)

// Cache memoizes built trees keyed by a fingerprint of the input snapshot.
// Any change to a record that affects the tree changes the fingerprint, so there
// is nothing to invalidate; stale entries age out of the LRU.
type Cache struct {
	trees   *lru.Cache[uint64, *Tree]
	opts    []BuildOption
	hits    atomic.Uint64
	misses  atomic.Uint64
	onBuild func(nodes int, took time.Duration)
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// NewCache creates a cache holding up to size trees.
func NewCache(size int, opts ...BuildOption) (*Cache, error) {
	trees, err := lru.New[uint64, *Tree](size)
	if err != nil {
		return nil, err
	}
	return &Cache{trees: trees, opts: opts, onBuild: func(int, time.Duration) {}}, nil
}

// OnBuild registers fn to run after every tree built on a miss.
// Call it before the cache is shared.
func (c *Cache) OnBuild(fn func(nodes int, took time.Duration)) {
	c.onBuild = fn
}

// Get returns the tree for genres, building it on a miss.
// The returned tree is shared and must be treated as read-only.
func (c *Cache) Get(genres []*domain.Genre) *Tree {
	key := Fingerprint(genres)
	if t, ok := c.trees.Get(key); ok {
		c.hits.Add(1)
		return t
	}

	c.misses.Add(1)
	start := time.Now()
	t := Build(genres, c.opts...)
	c.onBuild(t.Len(), time.Since(start))
	c.trees.Add(key, t)
	return t
}

// Purge drops every cached tree.
func (c *Cache) Purge() {
	c.trees.Purge()
}

// Stats returns a snapshot of the hit and miss counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.trees.Len(),
	}
}

// Fingerprint hashes every field a node exposes, in input order.
// Order matters because name collisions resolve to the later record.
func Fingerprint(genres []*domain.Genre) uint64 {
	d := xxhash.New()
	var stamp [8]byte
	for _, g := range genres {
		if g == nil {
			continue
		}
		for _, field := range []string{g.ID, g.Name, g.ParentID, g.Slug, g.Description, g.Color} {
			_, _ = d.WriteString(field)
			_, _ = d.Write([]byte{0})
		}
		binary.LittleEndian.PutUint64(stamp[:], uint64(g.UpdatedAt.UnixNano()))
		_, _ = d.Write(stamp[:])
		_, _ = d.Write([]byte{0x1e})
	}
	return d.Sum64()
}
