// Package clipcache provides a bounded least-recently-used cache of per-clip curve
// snapshots, time grids and sample memos used by the loop search.
//
// A Cache is owned by a single logical thread and performs no locking.
package clipcache

import (
	"math"

	"github.com/five82/looper/internal/curve"
	coreerrors "github.com/five82/looper/internal/errors"
	"github.com/five82/looper/internal/logging"
)

// DefaultCapacity is the number of clips kept before the least recently used is evicted.
const DefaultCapacity = 20

// DefaultSampleRate is the time grid density in samples per second.
const DefaultSampleRate = 30.0

// Stats counts cache activity since creation or the last ClearAll.
type Stats struct {
	Hits          int
	Misses        int
	Evictions     int
	Invalidations int
}

// Cache maps clip handles to curve snapshots with LRU eviction.
type Cache struct {
	provider   curve.Provider
	capacity   int
	sampleRate float64
	kinds      map[curve.Kind]bool

	items map[*curve.Clip]*node
	head  *node // most recently used
	tail  *node // least recently used
	stats Stats
}

type node struct {
	clip  *curve.Clip
	entry *Entry
	prev  *node
	next  *node
}

// New creates a cache reading clips through provider. Only bindings whose kind is
// listed in kinds are admitted; with no kinds every binding is admitted.
// Non-positive capacity and sample rate fall back to the defaults.
func New(provider curve.Provider, capacity int, sampleRate float64, kinds ...curve.Kind) *Cache {
	if provider == nil {
		provider = curve.Baked{}
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	var allowed map[curve.Kind]bool
	if len(kinds) > 0 {
		allowed = make(map[curve.Kind]bool, len(kinds))
		for _, k := range kinds {
			allowed[k] = true
		}
	}

	return &Cache{
		provider:   provider,
		capacity:   capacity,
		sampleRate: sampleRate,
		kinds:      allowed,
		items:      make(map[*curve.Clip]*node),
	}
}

// Provider returns the curve provider the cache reads through.
func (c *Cache) Provider() curve.Provider {
	return c.provider
}

// Accepts reports whether bindings of kind are admitted into entries.
func (c *Cache) Accepts(kind curve.Kind) bool {
	return c.kinds == nil || c.kinds[kind]
}

// GetOrBuild returns the entry for clip, building it on a miss or when the clip's
// length changed since the entry was built. Provider failures are returned as
// provider errors and leave the cache without an entry for clip.
func (c *Cache) GetOrBuild(clip *curve.Clip) (*Entry, error) {
	length, err := c.provider.Length(clip)
	if err != nil {
		return nil, coreerrors.NewProviderError(clipName(clip), err)
	}

	if n, ok := c.items[clip]; ok {
		if n.entry.Length == length {
			c.stats.Hits++
			c.moveToHead(n)
			logging.Debug("clip cache hit", "clip", clip.Name)
			return n.entry, nil
		}
		c.stats.Invalidations++
		c.remove(n)
		logging.Debug("clip cache entry stale", "clip", clip.Name,
			"cached_length", n.entry.Length, "length", length)
	}

	c.stats.Misses++
	entry, err := c.build(clip, length)
	if err != nil {
		return nil, err
	}

	if len(c.items) >= c.capacity {
		c.evictTail()
	}

	n := &node{clip: clip, entry: entry}
	c.items[clip] = n
	c.addToHead(n)
	logging.Debug("clip cache build", "clip", clip.Name,
		"bindings", len(entry.Bindings), "grid", len(entry.TimeGrid))

	return entry, nil
}

// build snapshots the eligible curves of clip. Nothing is inserted on failure.
func (c *Cache) build(clip *curve.Clip, length float64) (*Entry, error) {
	bindings, fns, err := c.eligible(clip)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Bindings: bindings,
		Curves:   make(map[curve.Binding]curve.Func, len(bindings)),
		TimeGrid: buildGrid(length, c.sampleRate),
		Length:   length,
		memo:     make(map[sampleKey]float64),
	}
	for i, b := range bindings {
		entry.Curves[b] = fns[i]
	}
	return entry, nil
}

// EligibleBindings returns the bindings an entry for clip would hold: accepted
// kinds with more than one key, first occurrence only. Nothing is cached.
func (c *Cache) EligibleBindings(clip *curve.Clip) ([]curve.Binding, error) {
	bindings, _, err := c.eligible(clip)
	return bindings, err
}

func (c *Cache) eligible(clip *curve.Clip) ([]curve.Binding, []curve.Func, error) {
	all, err := c.provider.Bindings(clip)
	if err != nil {
		return nil, nil, coreerrors.NewProviderError(clipName(clip), err)
	}

	var bindings []curve.Binding
	var fns []curve.Func
	seen := make(map[curve.Binding]bool, len(all))
	for _, b := range all {
		if !c.Accepts(b.Kind) || seen[b] {
			continue
		}
		fn, keys, err := c.provider.Curve(clip, b)
		if err != nil {
			return nil, nil, coreerrors.NewProviderError(clipName(clip), err)
		}
		if keys <= 1 {
			continue
		}
		seen[b] = true
		bindings = append(bindings, b)
		fns = append(fns, fn)
	}
	return bindings, fns, nil
}

// buildGrid returns ceil(length*rate)+1 uniformly spaced times spanning [0, length].
func buildGrid(length, rate float64) []float64 {
	if length <= 0 {
		return []float64{0}
	}
	n := int(math.Ceil(length*rate)) + 1
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = length * float64(i) / float64(n-1)
	}
	grid[n-1] = length
	return grid
}

// Contains reports whether clip has a cached entry, without promoting it.
func (c *Cache) Contains(clip *curve.Clip) bool {
	_, ok := c.items[clip]
	return ok
}

// Invalidate drops the entry for clip. Returns false if there was none.
func (c *Cache) Invalidate(clip *curve.Clip) bool {
	n, ok := c.items[clip]
	if !ok {
		return false
	}
	c.remove(n)
	return true
}

// ClearAll drops every entry and resets the statistics.
func (c *Cache) ClearAll() {
	c.items = make(map[*curve.Clip]*node)
	c.head = nil
	c.tail = nil
	c.stats = Stats{}
	logging.Debug("clip cache cleared")
}

// Len returns the number of cached clips.
func (c *Cache) Len() int {
	return len(c.items)
}

// Capacity returns the maximum number of cached clips.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns the activity counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Keys returns cached clips from most to least recently used.
func (c *Cache) Keys() []*curve.Clip {
	out := make([]*curve.Clip, 0, len(c.items))
	for n := c.head; n != nil; n = n.next {
		out = append(out, n.clip)
	}
	return out
}

func (c *Cache) addToHead(n *node) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *Cache) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}

func (c *Cache) moveToHead(n *node) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.addToHead(n)
}

func (c *Cache) remove(n *node) {
	c.unlink(n)
	delete(c.items, n.clip)
}

func (c *Cache) evictTail() {
	if c.tail == nil {
		return
	}
	victim := c.tail
	c.remove(victim)
	c.stats.Evictions++
	logging.Debug("clip cache evict", "clip", victim.clip.Name)
}

func clipName(clip *curve.Clip) string {
	if clip == nil {
		return "<nil>"
	}
	return clip.Name
}
