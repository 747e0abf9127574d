package tilecache

import (
	"errors"
	"image"
	"math"

	"github.com/gogpu/stage"
	"github.com/gogpu/stage/internal/debug"
	"github.com/gogpu/stage/internal/raster"
)

// Tile cache errors.
var (
	// ErrReentrantFetch is returned when a source's Render calls back
	// into Fetch on the same cache. The scratch surface is exclusively
	// owned during a caching step; reentrancy would corrupt it.
	ErrReentrantFetch = errors.New("tilecache: Fetch called during caching")

	// ErrPackDepth is returned when miss-batch bisection exceeds
	// maxPackDepth. A single tile always fits the scratch surface, so
	// this indicates broken packing logic, not bad content.
	ErrPackDepth = errors.New("tilecache: tile packing exceeded maximum bisection depth")

	// ErrNoUpload is returned when a cache without an upload callback
	// needs to bind tiles.
	ErrNoUpload = errors.New("tilecache: no upload callback configured")
)

// debugTints colors tiles in cache-visualization overlays. Assigned
// round-robin on first rasterization.
var debugTints = []stage.RGBA{
	{R: 1, G: 0.4, B: 0.4, A: 1},
	{R: 0.4, G: 1, B: 0.4, A: 1},
	{R: 0.4, G: 0.5, B: 1, A: 1},
	{R: 1, G: 0.9, B: 0.3, A: 1},
	{R: 0.9, G: 0.4, B: 1, A: 1},
	{R: 0.4, G: 1, B: 0.9, A: 1},
}

// Config holds parameters for creating a Cache.
type Config struct {
	// Source produces the pixels being cached. Required.
	Source stage.Source

	// Upload moves rasterized tiles into atlas storage. A cache
	// without it can still report tiles but never binds them.
	Upload UploadFunc

	// ScratchSize is the side of the scratch raster surface. Defaults
	// to DefaultScratchSize.
	ScratchSize int

	// Pool supplies scratch surfaces. Caches sharing a pool share
	// scratch memory; nil creates a private pool.
	Pool *raster.Pool
}

// Cache is the per-source tile store. It buckets cached rasters by
// quantized scale level and fills missing tiles by rendering the
// source into a pooled scratch surface, batching misses so the source
// renders once per batch rather than once per tile.
//
// Cache is not safe for concurrent use.
type Cache struct {
	source      stage.Source
	upload      UploadFunc
	scratchSize int
	pool        *raster.Pool

	levels map[int]*level

	// caching guards against a source's Render re-entering Fetch.
	caching bool

	hits    uint64
	misses  uint64
	tintIdx int
}

// New creates a tile cache for a source.
func New(config Config) *Cache {
	size := config.ScratchSize
	if size < TileSize {
		size = DefaultScratchSize
	}
	pool := config.Pool
	if pool == nil {
		pool = raster.NewPool(1)
	}
	return &Cache{
		source:      config.Source,
		upload:      config.Upload,
		scratchSize: size,
		pool:        pool,
		levels:      make(map[int]*level),
	}
}

// Source returns the source the cache is built over.
func (c *Cache) Source() stage.Source { return c.source }

// Stats returns the cumulative tile hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) { return c.hits, c.misses }

// Fetch returns the tiles covering the query rectangle at the cache
// level selected for the view transform, rasterizing missing or stale
// tiles first. query is in source-local units.
//
// Tiles that failed to bind (full atlas, missing upload callback)
// come back unbound; they read as transparent gaps and are retried on
// the next Fetch.
func (c *Cache) Fetch(query stage.Rect, view stage.Matrix) ([]*Tile, error) {
	if c.caching {
		fault("Fetch during caching")
		return nil, ErrReentrantFetch
	}

	bounds := c.source.Bounds()
	if bounds.IsEmpty() || query.Intersect(bounds).IsEmpty() {
		return nil, nil
	}

	dynamic := c.source.Dynamic()
	idx := LevelFor(view.DominantScale(), dynamic, c.source.Scalable(), bounds, c.scratchSize)
	lv := c.levelAt(idx, bounds)

	tiles := lv.collect(query, nil)

	stale := dynamic && c.source.Invalid()
	var missing []*Tile
	for _, t := range tiles {
		if stale || !t.Bound() {
			missing = append(missing, t)
		}
	}
	c.hits += uint64(len(tiles) - len(missing))
	c.misses += uint64(len(missing))

	if len(missing) == 0 {
		// Mark hit regions recently used so eviction policies see
		// them.
		for _, t := range tiles {
			if t.Bound() {
				t.region.Touch()
			}
		}
		return tiles, nil
	}

	if err := c.cacheTiles(missing, lv, 0); err != nil {
		return tiles, err
	}
	return tiles, nil
}

// Invalidate drops every cached tile and releases their atlas
// regions. The next Fetch re-rasterizes from scratch.
func (c *Cache) Invalidate() {
	for _, lv := range c.levels {
		for _, t := range lv.tiles {
			if t.region != nil {
				t.region.Release()
				t.region = nil
			}
		}
	}
	c.levels = make(map[int]*level)
}

// levelAt returns the level bucket for an index, creating it on first
// use. Content re-caches as a single full-bounds tile when it is
// dynamic, not tileable, or small enough that the grid would be one
// cell anyway.
func (c *Cache) levelAt(idx int, bounds stage.Rect) *level {
	if lv, ok := c.levels[idx]; ok {
		return lv
	}
	ls := LevelScale(idx)
	single := c.source.Dynamic() || !c.source.Tileable() ||
		(bounds.Width()*ls <= ContentSize && bounds.Height()*ls <= ContentSize)
	lv := newLevel(idx, bounds, single)
	c.levels[idx] = lv
	return lv
}

// cacheTiles rasterizes a batch of missing tiles. The source renders
// once into the scratch surface at the level's scale, translated so
// the batch union starts at the scratch origin; each tile then uploads
// its sub-rectangle. Tiles whose rectangle falls outside the scratch
// surface are deferred and the deferred list is bisected into halves,
// each recursed with a tighter union. The split is by list position,
// not spatially: tile order follows grid row order, so halving the
// list already halves the spatial spread in the common case without
// any partitioning logic.
func (c *Cache) cacheTiles(tiles []*Tile, lv *level, depth int) error {
	if depth > maxPackDepth {
		fault("tile packing exceeded maximum bisection depth")
		return ErrPackDepth
	}
	if len(tiles) == 0 {
		return nil
	}
	if c.upload == nil {
		return ErrNoUpload
	}

	union := tiles[0].bounds
	for _, t := range tiles[1:] {
		union = union.Union(t.bounds)
	}
	origin := union.Min
	ls := lv.scale

	scratch := c.pool.Get(c.scratchSize, c.scratchSize)
	defer c.pool.Put(scratch)

	scratch.SetTransform(stage.Scale(ls, ls).Multiply(stage.Translate(-origin.X, -origin.Y)))

	c.caching = true
	c.source.Render(scratch)
	c.caching = false

	scratchRect := image.Rect(0, 0, c.scratchSize, c.scratchSize)

	// Grid tiles never exceed one cell's content; a single full-bounds
	// tile may span anything up to the scratch surface.
	maxSide := ContentSize
	if lv.single {
		maxSide = c.scratchSize
	}

	var deferred []*Tile
	for _, t := range tiles {
		rect := tileScratchRect(t, origin, ls, maxSide)
		if !rect.In(scratchRect) {
			deferred = append(deferred, t)
			continue
		}

		old := t.region
		if old != nil && !old.Alive() {
			old = nil
		}
		t.region = c.upload(old, scratch, rect)
		if t.debugTint == (stage.RGBA{}) {
			t.debugTint = debugTints[c.tintIdx%len(debugTints)]
			c.tintIdx++
		}
	}

	if len(deferred) == 0 {
		return nil
	}
	half := len(deferred) / 2
	if half == 0 {
		half = 1
	}
	if err := c.cacheTiles(deferred[:half], lv, depth+1); err != nil {
		return err
	}
	if half < len(deferred) {
		return c.cacheTiles(deferred[half:], lv, depth+1)
	}
	return nil
}

// tileScratchRect computes a tile's content rectangle, in scratch
// surface pixels, for a batch rendered with the given origin. maxSide
// caps the rectangle's dimensions.
func tileScratchRect(t *Tile, origin stage.Point, ls float64, maxSide int) image.Rectangle {
	x0 := int(math.Floor((t.bounds.Min.X - origin.X) * ls))
	y0 := int(math.Floor((t.bounds.Min.Y - origin.Y) * ls))
	w := int(math.Ceil(t.bounds.Width() * ls))
	h := int(math.Ceil(t.bounds.Height() * ls))
	w = clamp(w, 1, maxSide)
	h = clamp(h, 1, maxSide)
	return image.Rect(x0, y0, x0+w, y0+h)
}

// fault reports a programmer error: panic in debug builds, warn
// otherwise.
func fault(msg string) {
	if debug.Enabled {
		panic("tilecache: " + msg)
	}
	stage.Logger().Warn("tilecache: " + msg)
}
