package tilecache

import (
	"image"

	"github.com/gogpu/stage"
	"github.com/gogpu/stage/atlas"
)

const (
	// TileSize is the atlas footprint of a tile in pixels, border
	// included.
	TileSize = 256

	// Border is the clamp border baked around the rasterized content
	// on each side, so bilinear sampling at tile edges never bleeds
	// into neighbouring atlas regions.
	Border = 1

	// ContentSize is the rasterized content inside a tile.
	ContentSize = TileSize - 2*Border

	// DefaultScratchSize is the side of the shared scratch raster
	// surface miss batches are rendered into.
	DefaultScratchSize = 2048

	// maxPackDepth bounds the bisection of miss batches that do not
	// fit the scratch surface. Depth 4 splits a batch into sixteenth
	// parts; a single tile always fits, so hitting the bound means
	// the packing logic is broken.
	maxPackDepth = 4
)

// UploadFunc moves a rasterized tile from the scratch surface into
// atlas storage. old is the tile's previous region (nil for the first
// upload); src is the scratch surface and rect the tile's pixel
// rectangle inside it, content only. The returned region replaces the
// old one; returning nil leaves the tile unbound, which reads as a
// transparent gap and is retried on the next fetch.
type UploadFunc func(old *atlas.Region, src *stage.Surface, rect image.Rectangle) *atlas.Region

// Tile is one cached raster fragment of a source at a fixed level.
// Its bounds are in source-local units; its pixels, when bound, live
// in an atlas region.
type Tile struct {
	bounds stage.Rect
	level  int
	region *atlas.Region

	// debugTint colors the tile in cache-visualization overlays. It
	// is assigned on first rasterization and stable afterwards.
	debugTint stage.RGBA
}

// Bounds returns the tile's rectangle in source-local units.
func (t *Tile) Bounds() stage.Rect { return t.bounds }

// Level returns the scale level the tile belongs to.
func (t *Tile) Level() int { return t.level }

// Region returns the atlas region holding the tile's pixels, or nil
// when the tile is unbound.
func (t *Tile) Region() *atlas.Region { return t.region }

// DebugTint returns the tile's overlay color.
func (t *Tile) DebugTint() stage.RGBA { return t.debugTint }

// Bound reports whether the tile currently has live atlas pixels.
func (t *Tile) Bound() bool {
	return t.region != nil && t.region.Alive()
}
