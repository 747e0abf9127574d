// Package atlas packs raster tiles into fixed-size GPU textures
// through a pluggable region allocator, and tracks per-region usage
// for external reclamation policies.
package atlas

import "fmt"

// Rect is an integer pixel rectangle inside an atlas texture.
type Rect struct {
	// X is the left edge of the rectangle.
	X int
	// Y is the top edge of the rectangle.
	Y int
	// Width is the rectangle width.
	Width int
	// Height is the rectangle height.
	Height int
}

// IsValid returns true if the rectangle has positive dimensions.
func (r Rect) IsValid() bool {
	return r.Width > 0 && r.Height > 0
}

// String returns a string representation of the rectangle.
func (r Rect) String() string {
	return fmt.Sprintf("Rect(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Allocator hands out non-overlapping rectangles within a fixed area.
// Implementations are selected per atlas instance.
type Allocator interface {
	// Allocate finds space for a w x h rectangle. Returns an invalid
	// rectangle when the area is exhausted.
	Allocate(w, h int) Rect

	// Free returns a rectangle to the allocator. Allocators that
	// cannot reclaim individual rectangles treat this as a no-op.
	Free(r Rect)

	// Reset discards all allocations.
	Reset()
}

// GridAllocator divides the area into fixed-size square cells. It is
// the allocator of choice for uniform tile grids: allocation and free
// are O(1) via a free-cell list, at the cost of wasting space for
// requests smaller than a cell.
type GridAllocator struct {
	width    int
	height   int
	cellSize int

	cols int
	rows int

	// free is a stack of cell indices available for allocation.
	free []int
}

// NewGridAllocator creates a grid allocator with the given cell size.
// Requests larger than one cell always fail.
func NewGridAllocator(width, height, cellSize int) *GridAllocator {
	if cellSize <= 0 {
		cellSize = 1
	}
	a := &GridAllocator{
		width:    width,
		height:   height,
		cellSize: cellSize,
		cols:     width / cellSize,
		rows:     height / cellSize,
	}
	a.Reset()
	return a
}

// Allocate returns a free cell. w and h must fit within one cell.
func (a *GridAllocator) Allocate(w, h int) Rect {
	if w <= 0 || h <= 0 || w > a.cellSize || h > a.cellSize {
		return Rect{}
	}
	if len(a.free) == 0 {
		return Rect{}
	}
	idx := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	return Rect{
		X:      (idx % a.cols) * a.cellSize,
		Y:      (idx / a.cols) * a.cellSize,
		Width:  w,
		Height: h,
	}
}

// Free returns the rectangle's cell to the free list.
func (a *GridAllocator) Free(r Rect) {
	if !r.IsValid() {
		return
	}
	col := r.X / a.cellSize
	row := r.Y / a.cellSize
	if col < 0 || col >= a.cols || row < 0 || row >= a.rows {
		return
	}
	a.free = append(a.free, row*a.cols+col)
}

// Reset marks every cell free.
func (a *GridAllocator) Reset() {
	n := a.cols * a.rows
	a.free = a.free[:0]
	// Stack order makes the first allocations come from the top-left.
	for i := n - 1; i >= 0; i-- {
		a.free = append(a.free, i)
	}
}

// FreeCells returns the number of available cells.
func (a *GridAllocator) FreeCells() int { return len(a.free) }

// shelf represents a horizontal shelf in the shelf-packing algorithm.
type shelf struct {
	y      int // Top Y coordinate of this shelf
	height int // Height of this shelf (tallest item so far)
	nextX  int // Next available X position on this shelf
}

// ShelfAllocator implements a shelf-packing algorithm for
// variable-size rectangles.
//
// The area is divided into horizontal "shelves". Each new rectangle is
// placed on the first shelf it fits, or a new shelf is created below.
// Individual rectangles cannot be reclaimed; Free is a no-op and space
// only comes back on Reset.
type ShelfAllocator struct {
	width   int
	height  int
	padding int

	shelves []*shelf

	allocCount int
	usedArea   int
}

// NewShelfAllocator creates a shelf allocator. padding is the spacing
// kept between packed rectangles.
func NewShelfAllocator(width, height, padding int) *ShelfAllocator {
	if padding < 0 {
		padding = 0
	}
	return &ShelfAllocator{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]*shelf, 0, 16),
	}
}

// Allocate finds space for a w x h rectangle.
func (a *ShelfAllocator) Allocate(w, h int) Rect {
	if w <= 0 || h <= 0 {
		return Rect{}
	}

	paddedW := w + a.padding
	paddedH := h + a.padding
	if paddedW > a.width || paddedH > a.height {
		return Rect{}
	}

	for _, s := range a.shelves {
		if !a.fitsOnShelf(s, paddedW, paddedH) {
			continue
		}
		r := Rect{X: s.nextX, Y: s.y, Width: w, Height: h}
		s.nextX += paddedW
		if h+a.padding > s.height {
			s.height = h + a.padding
		}
		a.allocCount++
		a.usedArea += w * h
		return r
	}

	return a.allocateNewShelf(w, h, paddedW, paddedH)
}

// fitsOnShelf checks if a padded rectangle fits on the given shelf.
func (a *ShelfAllocator) fitsOnShelf(s *shelf, paddedW, paddedH int) bool {
	if s.nextX+paddedW > a.width {
		return false
	}
	// The shelf can only grow taller while it is still empty.
	if paddedH > s.height && s.nextX > 0 {
		return false
	}
	return true
}

// allocateNewShelf opens a new shelf below the existing ones.
func (a *ShelfAllocator) allocateNewShelf(w, h, paddedW, paddedH int) Rect {
	newY := 0
	if len(a.shelves) > 0 {
		last := a.shelves[len(a.shelves)-1]
		newY = last.y + last.height
	}
	if newY+paddedH > a.height {
		return Rect{}
	}

	a.shelves = append(a.shelves, &shelf{
		y:      newY,
		height: paddedH,
		nextX:  paddedW,
	})
	a.allocCount++
	a.usedArea += w * h
	return Rect{X: 0, Y: newY, Width: w, Height: h}
}

// Free is a no-op; shelf-packed space is reclaimed only by Reset.
func (a *ShelfAllocator) Free(Rect) {}

// Reset clears all shelves, making the entire area available again.
func (a *ShelfAllocator) Reset() {
	a.shelves = a.shelves[:0]
	a.allocCount = 0
	a.usedArea = 0
}

// Utilization returns the fraction of area used (0.0 to 1.0).
func (a *ShelfAllocator) Utilization() float64 {
	total := a.width * a.height
	if total == 0 {
		return 0
	}
	return float64(a.usedArea) / float64(total)
}

// AllocCount returns the number of successful allocations.
func (a *ShelfAllocator) AllocCount() int { return a.allocCount }
