package atlas

import (
	"errors"
	"fmt"

	"github.com/gogpu/stage"
	"github.com/gogpu/stage/internal/gpu"
)

// Atlas errors.
var (
	// ErrAtlasFull is returned when the allocator cannot fit the
	// requested region. The caller must evict or move to another
	// atlas.
	ErrAtlasFull = errors.New("atlas: texture atlas is full")

	// ErrAtlasClosed is returned when operating on a closed atlas.
	ErrAtlasClosed = errors.New("atlas: atlas is closed")

	// ErrForeignRegion is returned when a region from another atlas or
	// generation is passed in.
	ErrForeignRegion = errors.New("atlas: region does not belong to this atlas")
)

// Default atlas settings.
const (
	// DefaultSize is the default atlas texture dimension (2048x2048).
	DefaultSize = 2048

	// MinSize is the minimum atlas texture dimension.
	MinSize = 256
)

// Region is a rectangular sub-allocation of an atlas texture.
//
// Regions carry a use counter and sit in the owning atlas's intrusive
// recency list, most recently used first. The core never evicts on its
// own; an external policy walks the recency list and calls Remove.
type Region struct {
	atlas *Atlas
	rect  Rect

	// generation matches the atlas generation at allocation time; a
	// Reset invalidates all outstanding regions atomically by bumping
	// the atlas generation.
	generation uint64

	uses uint64

	prev *Region
	next *Region
}

// Rect returns the region's rectangle within the atlas texture.
func (r *Region) Rect() Rect { return r.rect }

// Uses returns the region's use counter.
func (r *Region) Uses() uint64 { return r.uses }

// Alive reports whether the region still belongs to its atlas's
// current generation.
func (r *Region) Alive() bool {
	return r.atlas != nil && r.generation == r.atlas.generation
}

// Texture returns the owning atlas texture, or nil for a dead region.
func (r *Region) Texture() *gpu.Texture {
	if !r.Alive() {
		return nil
	}
	return r.atlas.texture
}

// Release returns the region to its atlas. Releasing a dead region is
// a no-op.
func (r *Region) Release() {
	if r.Alive() {
		r.atlas.Remove(r)
	}
}

// Touch marks the region most recently used in its atlas.
func (r *Region) Touch() {
	if r.Alive() {
		r.atlas.Touch(r)
	}
}

// Update re-uploads pixels into the region, keeping its binding
// stable. Returns ErrForeignRegion for a dead region.
func (r *Region) Update(pix []byte) error {
	if !r.Alive() {
		return ErrForeignRegion
	}
	return r.atlas.Update(r, pix)
}

// Config holds parameters for creating an Atlas.
type Config struct {
	// Width is the atlas width in pixels. Defaults to DefaultSize.
	Width int

	// Height is the atlas height in pixels. Defaults to DefaultSize.
	Height int

	// Allocator is the packing strategy. Defaults to a ShelfAllocator
	// with 1px padding.
	Allocator Allocator

	// Label is an optional debug label for the texture.
	Label string
}

// Atlas wraps one fixed-size GPU texture and a region allocator,
// packing many raster tiles into the texture so that draws batch on a
// single sampler binding.
//
// Atlas is not safe for concurrent use; the render pipeline is
// single-threaded by design.
type Atlas struct {
	texture   *gpu.Texture
	allocator Allocator

	width  int
	height int

	generation uint64
	liveCount  int

	// mru/lru are the ends of the intrusive recency list.
	mru *Region
	lru *Region

	closed bool
}

// New creates an atlas with the given configuration. A nil backend
// creates the texture in logical mode (tests).
func New(backend *gpu.Backend, config Config) (*Atlas, error) {
	width := config.Width
	if width < MinSize {
		width = DefaultSize
	}
	height := config.Height
	if height < MinSize {
		height = DefaultSize
	}
	alloc := config.Allocator
	if alloc == nil {
		alloc = NewShelfAllocator(width, height, 1)
	}

	tex, err := gpu.CreateTexture(backend, gpu.TextureConfig{
		Width:  width,
		Height: height,
		Label:  config.Label,
	})
	if err != nil {
		return nil, fmt.Errorf("atlas texture creation failed: %w", err)
	}

	stage.Logger().Info("atlas: created", "size", width, "label", config.Label)

	return &Atlas{
		texture:   tex,
		allocator: alloc,
		width:     width,
		height:    height,
	}, nil
}

// Width returns the atlas width in pixels.
func (a *Atlas) Width() int { return a.width }

// Height returns the atlas height in pixels.
func (a *Atlas) Height() int { return a.height }

// Texture returns the underlying GPU texture.
func (a *Atlas) Texture() *gpu.Texture { return a.texture }

// LiveRegions returns the number of outstanding regions.
func (a *Atlas) LiveRegions() int { return a.liveCount }

// Reserve allocates a region without uploading pixels, for callers
// that fill the region later. Returns ErrAtlasFull on exhaustion.
func (a *Atlas) Reserve(w, h int) (*Region, error) {
	if a.closed {
		return nil, ErrAtlasClosed
	}
	rect := a.allocator.Allocate(w, h)
	if !rect.IsValid() {
		return nil, ErrAtlasFull
	}

	r := &Region{
		atlas:      a,
		rect:       rect,
		generation: a.generation,
	}
	a.pushFront(r)
	a.liveCount++
	return r, nil
}

// Add allocates a region for a w x h pixel block and uploads the
// tightly-packed RGBA8 pixels into it. On exhaustion it returns
// ErrAtlasFull and the caller must evict, reset, or use another
// atlas.
func (a *Atlas) Add(pix []byte, w, h int) (*Region, error) {
	r, err := a.Reserve(w, h)
	if err != nil {
		return nil, err
	}
	if err := a.Update(r, pix); err != nil {
		a.Remove(r)
		return nil, err
	}
	return r, nil
}

// Update re-uploads pixels into an existing region, e.g. for dynamic
// content whose region binding is stable across frames.
func (a *Atlas) Update(r *Region, pix []byte) error {
	if a.closed {
		return ErrAtlasClosed
	}
	if r == nil || r.atlas != a || r.generation != a.generation {
		return ErrForeignRegion
	}
	if err := a.texture.UploadRegion(r.rect.X, r.rect.Y, r.rect.Width, r.rect.Height, pix); err != nil {
		return fmt.Errorf("atlas upload failed: %w", err)
	}
	a.Touch(r)
	return nil
}

// Remove releases a region back to the allocator and unlinks it from
// the recency list.
func (a *Atlas) Remove(r *Region) {
	if a.closed || r == nil || r.atlas != a || r.generation != a.generation {
		return
	}
	a.allocator.Free(r.rect)
	a.unlink(r)
	a.liveCount--
	// Dead regions compare unequal to any future generation.
	r.generation = a.generation - 1
}

// Touch marks the region most recently used and bumps its use
// counter.
func (a *Atlas) Touch(r *Region) {
	if r == nil || r.atlas != a || r.generation != a.generation {
		return
	}
	r.uses++
	if a.mru == r {
		return
	}
	a.unlink(r)
	a.pushFront(r)
}

// OldestRegion returns the least recently used live region, or nil.
// External eviction policies start here.
func (a *Atlas) OldestRegion() *Region { return a.lru }

// Reset discards the allocator state entirely and invalidates every
// outstanding region atomically. The texture contents are left as-is;
// callers repurposing the atlas upload over them.
func (a *Atlas) Reset() {
	if a.closed {
		return
	}
	a.allocator.Reset()
	a.generation++
	a.mru = nil
	a.lru = nil
	a.liveCount = 0
}

// Close releases the atlas texture. Outstanding regions die with it.
func (a *Atlas) Close() {
	if a.closed {
		return
	}
	a.Reset()
	a.texture.Close()
	a.closed = true
}

// pushFront links a region at the head of the recency list.
func (a *Atlas) pushFront(r *Region) {
	r.prev = nil
	r.next = a.mru
	if a.mru != nil {
		a.mru.prev = r
	}
	a.mru = r
	if a.lru == nil {
		a.lru = r
	}
}

// unlink removes a region from the recency list.
func (a *Atlas) unlink(r *Region) {
	if r.prev != nil {
		r.prev.next = r.next
	} else if a.mru == r {
		a.mru = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	} else if a.lru == r {
		a.lru = r.prev
	}
	r.prev = nil
	r.next = nil
}
