// Package raster provides pooled scratch surfaces for the tile cache.
package raster

import (
	"sync"

	"github.com/gogpu/stage"
)

// Pool is a pool of reusable scratch surfaces grouped by dimensions.
//
// Re-rendering content into scratch surfaces is the hottest allocation
// path of the tile cache; pooling identically-sized surfaces keeps it
// off the garbage collector.
//
// A surface obtained from Get is exclusively owned by the caller until
// returned with Put. The tile cache relies on this for its
// single-writer-per-caching-step discipline.
type Pool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*stage.Surface
	maxSize int // max surfaces retained per bucket
}

// poolKey identifies a bucket of identically-sized surfaces.
type poolKey struct {
	width  int
	height int
}

// NewPool creates a surface pool. maxPerBucket limits how many
// surfaces of each size are retained; 0 means unlimited.
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[poolKey][]*stage.Surface),
		maxSize: maxPerBucket,
	}
}

// Get retrieves a surface from the pool or creates a new one.
// Reused surfaces are cleared and reset to the identity transform.
func (p *Pool) Get(width, height int) *stage.Surface {
	key := poolKey{width: width, height: height}

	p.mu.Lock()
	bucket := p.buckets[key]
	if len(bucket) > 0 {
		s := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		s.Clear()
		s.SetTransform(stage.Identity())
		return s
	}
	p.mu.Unlock()

	return stage.NewSurface(width, height)
}

// Put returns a surface to the pool for reuse. Nil surfaces and
// surfaces over the bucket capacity are discarded.
func (p *Pool) Put(s *stage.Surface) {
	if s == nil {
		return
	}

	key := poolKey{width: s.Width(), height: s.Height()}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, s)
}

// Len returns the total number of pooled surfaces, for tests and
// stats.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, b := range p.buckets {
		n += len(b)
	}
	return n
}
