package tilecache

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/gogpu/stage"
)

// Scale level limits: six levels above native resolution and six
// below.
const (
	// MaxLevelUp is the finest level (negative levels are finer than
	// native).
	MaxLevelUp = -6

	// MaxLevelDown is the coarsest level.
	MaxLevelDown = 6
)

// LevelScale returns the raster scale factor of a level: 2 to the
// power of -level. Level 0 is native resolution, positive levels are
// coarser.
func LevelScale(level int) float64 {
	return math.Pow(2, float64(-level))
}

// LevelFor selects the cache level for a view scale, as a pure
// function of the scale and the source's flags and bounds.
//
// The base level is round(log2(1/scale)) clamped to the valid range.
// Non-scalable content never caches above native resolution, only
// below (eviction-driven downsampling stays possible). Dynamic content
// is clamped further down until its full bounds, scaled, fit inside
// the scratch surface, since dynamic content uses a single full-bounds
// tile.
func LevelFor(scale float64, dynamic, scalable bool, bounds stage.Rect, scratchSize int) int {
	if scale <= 0 {
		scale = 1
	}

	level := int(math32.Round(math32.Log2(1 / float32(scale))))
	level = clamp(level, MaxLevelUp, MaxLevelDown)

	if !scalable && level < 0 {
		level = 0
	}

	if dynamic {
		for level < MaxLevelDown {
			ls := LevelScale(level)
			if bounds.Width()*ls <= float64(scratchSize) &&
				bounds.Height()*ls <= float64(scratchSize) {
				break
			}
			level++
		}
	}

	return level
}

// level is one scale bucket of a cache: either a single full-bounds
// tile or a lazily populated square tile grid.
type level struct {
	index int
	scale float64

	// single marks dynamic, non-tileable, and small content, which
	// uses one full-bounds tile instead of a grid.
	single bool

	bounds stage.Rect

	// cellLocal is the grid cell size in source-local units.
	cellLocal float64
	cols      int
	rows      int

	// tiles maps row*cols+col to the tile, created on first access.
	// For single levels the sole tile lives at key 0.
	tiles map[int]*Tile
}

func newLevel(index int, bounds stage.Rect, single bool) *level {
	ls := LevelScale(index)
	lv := &level{
		index:  index,
		scale:  ls,
		single: single,
		bounds: bounds,
		tiles:  make(map[int]*Tile),
	}
	if single {
		lv.cols, lv.rows = 1, 1
		return lv
	}
	// Cells cover the tile's content footprint; the clamp border is
	// added at upload on top of it.
	lv.cellLocal = float64(ContentSize) / ls
	lv.cols = int(math.Ceil(bounds.Width() / lv.cellLocal))
	lv.rows = int(math.Ceil(bounds.Height() / lv.cellLocal))
	if lv.cols < 1 {
		lv.cols = 1
	}
	if lv.rows < 1 {
		lv.rows = 1
	}
	return lv
}

// tileAt returns the tile covering grid cell (col, row), creating it
// on first access.
func (lv *level) tileAt(col, row int) *Tile {
	key := row*lv.cols + col
	if t, ok := lv.tiles[key]; ok {
		return t
	}

	var b stage.Rect
	if lv.single {
		b = lv.bounds
	} else {
		x0 := lv.bounds.Min.X + float64(col)*lv.cellLocal
		y0 := lv.bounds.Min.Y + float64(row)*lv.cellLocal
		b = stage.NewRect(
			stage.Point{X: x0, Y: y0},
			stage.Point{
				X: math.Min(x0+lv.cellLocal, lv.bounds.Max.X),
				Y: math.Min(y0+lv.cellLocal, lv.bounds.Max.Y),
			},
		)
	}

	t := &Tile{bounds: b, level: lv.index}
	lv.tiles[key] = t
	return t
}

// collect appends the tiles intersecting the query rectangle,
// creating missing ones.
func (lv *level) collect(query stage.Rect, out []*Tile) []*Tile {
	q := query.Intersect(lv.bounds)
	if q.IsEmpty() {
		return out
	}
	if lv.single {
		return append(out, lv.tileAt(0, 0))
	}

	c0 := clamp(int((q.Min.X-lv.bounds.Min.X)/lv.cellLocal), 0, lv.cols-1)
	c1 := clamp(int((q.Max.X-lv.bounds.Min.X)/lv.cellLocal), 0, lv.cols-1)
	r0 := clamp(int((q.Min.Y-lv.bounds.Min.Y)/lv.cellLocal), 0, lv.rows-1)
	r1 := clamp(int((q.Max.Y-lv.bounds.Min.Y)/lv.cellLocal), 0, lv.rows-1)

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			out = append(out, lv.tileAt(col, row))
		}
	}
	return out
}
