// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/stage"
	"github.com/gogpu/stage/atlas"
	"github.com/gogpu/stage/internal/gpu"
	"github.com/gogpu/stage/internal/raster"
	"github.com/gogpu/stage/scene"
	"github.com/gogpu/stage/tilecache"
)

// Config holds parameters for creating a Pass.
type Config struct {
	// Device is the host-provided GPU device. Nil runs the pass in
	// logical mode: all accounting works, no pixels reach a real GPU.
	Device DeviceHandle

	// Logger receives per-frame diagnostics. Defaults to the package
	// logger.
	Logger *slog.Logger

	// AtlasSize is the side of each atlas texture. Defaults to
	// atlas.DefaultSize.
	AtlasSize int

	// ScratchSize is the side of the shared scratch raster surface.
	// Defaults to tilecache.DefaultScratchSize.
	ScratchSize int

	// DebugTiles tints each tile with its cache-visualization color
	// instead of drawing it white.
	DebugTiles bool
}

// Pass renders a scene tree: it walks the tree in paint order,
// resolves each visible content node's accumulated transform and
// color, fetches its raster tiles from the cache, and batches them
// through a Brush.
//
// The pass owns the tile caches, the scratch surface pool and the
// atlas list; all content nodes of a tree share them.
//
// Pass is not safe for concurrent use.
type Pass struct {
	backend *gpu.Backend
	brush   *Brush
	logger  *slog.Logger

	pool    *raster.Pool
	atlases []*atlas.Atlas
	caches  map[uint64]*tilecache.Cache

	atlasSize   int
	scratchSize int
	debugTiles  bool

	frames uint64
}

// NewPass creates a render pass.
func NewPass(config Config) (*Pass, error) {
	brush, err := NewBrush()
	if err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = stage.Logger()
	}
	atlasSize := config.AtlasSize
	if atlasSize < atlas.MinSize {
		atlasSize = atlas.DefaultSize
	}
	scratchSize := config.ScratchSize
	if scratchSize < tilecache.TileSize {
		scratchSize = tilecache.DefaultScratchSize
	}

	var backend *gpu.Backend
	if config.Device != nil {
		backend = adoptDevice(config.Device)
	}

	return &Pass{
		backend:     backend,
		brush:       brush,
		logger:      logger,
		pool:        raster.NewPool(2),
		caches:      make(map[uint64]*tilecache.Cache),
		atlasSize:   atlasSize,
		scratchSize: scratchSize,
		debugTiles:  config.DebugTiles,
	}, nil
}

// Brush returns the pass's quad brush, for callers layering extra
// geometry over the scene.
func (p *Pass) Brush() *Brush { return p.brush }

// Atlases returns the number of atlas textures the pass has opened.
func (p *Pass) Atlases() int { return len(p.atlases) }

// Render draws the tree rooted at root into a width x height target
// with the given view transform. Children draw in index order, so
// child zero is the backmost.
//
// Nodes carrying a clip count restrict the covered siblings to the
// clip node's device bounds. Mask subtrees are skipped here; mask
// compositing happens when the owning node's content is cached.
func (p *Pass) Render(root *scene.Node, view stage.Matrix, width, height int) error {
	p.brush.SetViewport(width, height)
	viewport := stage.RectWH(0, 0, float64(width), float64(height))

	clipStack := []stage.Rect{viewport}
	var firstErr error

	scene.Walk(root, &view, scene.WalkClips, func(n *scene.Node, xform stage.Matrix, flags scene.Flags) scene.VisitResult {
		if flags&scene.FlagLeaveClip != 0 {
			clipStack = clipStack[:len(clipStack)-1]
			return scene.VisitContinue
		}
		// Push before any skip: the matching leave entry arrives at
		// the sibling level regardless of whether this node descends.
		if flags&scene.FlagEnterClip != 0 {
			top := clipStack[len(clipStack)-1]
			clipStack = append(clipStack, top.Intersect(xform.TransformRect(n.Bounds())))
		}

		if !n.Visible() {
			return scene.VisitSkip
		}
		if n.Flags()&scene.FlagIsMask != 0 {
			return scene.VisitSkip
		}

		if src := n.Source(); src != nil {
			clip := clipStack[len(clipStack)-1]
			if err := p.drawNode(n, src, xform, clip); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return scene.VisitContinue
	})

	if err := p.brush.Flush(); err != nil && firstErr == nil {
		firstErr = err
	}

	p.frames++
	p.logger.Debug("render: frame",
		"frame", p.frames,
		"flushes", p.brush.Flushes(),
		"quads", p.brush.QuadsDrawn(),
		"atlases", len(p.atlases))
	return firstErr
}

// drawNode fetches a content node's tiles and submits them as
// textured quads.
func (p *Pass) drawNode(n *scene.Node, src stage.Source, xform stage.Matrix, clip stage.Rect) error {
	if clip.IsEmpty() {
		return nil
	}

	// Query in source-local units: the clip rect pulled back through
	// the node's transform.
	query := xform.Invert().TransformRect(clip).Intersect(src.Bounds())
	if query.IsEmpty() {
		return nil
	}

	if err := p.brush.SetColorMatrix(n.ConcatenatedColorMatrix()); err != nil {
		return err
	}
	if err := p.brush.SetBlendMode(n.BlendMode()); err != nil {
		return err
	}

	tiles, err := p.cacheFor(n).Fetch(query, xform)
	if err != nil {
		return fmt.Errorf("render: node %d: %w", n.ID(), err)
	}

	for _, t := range tiles {
		if !t.Bound() {
			// Unbound tiles read as transparent gaps; the cache
			// retries them next frame.
			continue
		}
		region := t.Region()
		rr := region.Rect()
		content := image.Rect(
			rr.X+tilecache.Border, rr.Y+tilecache.Border,
			rr.X+rr.Width-tilecache.Border, rr.Y+rr.Height-tilecache.Border,
		)
		tint := stage.White
		if p.debugTiles {
			tint = t.DebugTint()
		}
		if err := p.brush.DrawRegion(region, content, t.Bounds(), xform, tint); err != nil {
			return err
		}
	}

	n.SetRenderedBounds(xform.TransformRect(src.Bounds()))
	n.ClearFlags(scene.FlagPaintDirty)
	return nil
}

// cacheFor returns the node's tile cache, creating it on first use.
func (p *Pass) cacheFor(n *scene.Node) *tilecache.Cache {
	if c, ok := p.caches[n.ID()]; ok {
		return c
	}
	c := tilecache.New(tilecache.Config{
		Source:      n.Source(),
		Upload:      p.upload,
		ScratchSize: p.scratchSize,
		Pool:        p.pool,
	})
	p.caches[n.ID()] = c
	return c
}

// InvalidateNode drops the node's cached tiles; its content
// re-rasterizes on the next frame. Call after replacing a node's
// source or when non-dynamic content changed.
func (p *Pass) InvalidateNode(n *scene.Node) {
	if c, ok := p.caches[n.ID()]; ok {
		c.Invalidate()
		delete(p.caches, n.ID())
	}
}

// upload is the tile cache upload callback: it bakes a clamp border
// around the rasterized content and stores the bordered tile in an
// atlas, growing the atlas list when all existing atlases are full.
func (p *Pass) upload(old *atlas.Region, src *stage.Surface, rect image.Rectangle) *atlas.Region {
	pix, w, h := bakeBorder(src, rect)

	if old != nil && old.Rect().Width == w && old.Rect().Height == h {
		if err := old.Update(pix); err == nil {
			return old
		}
	}
	if old != nil {
		old.Release()
	}

	for _, a := range p.atlases {
		region, err := a.Add(pix, w, h)
		if err == nil {
			return region
		}
		if !errors.Is(err, atlas.ErrAtlasFull) {
			p.logger.Warn("render: tile upload failed", "error", err)
			return nil
		}
	}

	a, err := atlas.New(p.backend, atlas.Config{
		Width:  p.atlasSize,
		Height: p.atlasSize,
		Label:  fmt.Sprintf("tile atlas %d", len(p.atlases)),
	})
	if err != nil {
		p.logger.Warn("render: atlas creation failed", "error", err)
		return nil
	}
	p.atlases = append(p.atlases, a)

	region, err := a.Add(pix, w, h)
	if err != nil {
		p.logger.Warn("render: tile upload failed", "error", err)
		return nil
	}
	return region
}

// Close releases the pass's atlases and GPU resources.
func (p *Pass) Close() {
	for _, a := range p.atlases {
		a.Close()
	}
	p.atlases = nil
	p.caches = nil
	if p.backend != nil {
		p.backend.Close()
	}
}

// bakeBorder copies the rect pixels of src into a new buffer with a
// one-pixel clamp border on every side: the border replicates the
// nearest content pixel so bilinear sampling at tile edges stays
// inside the tile. Returns the buffer and its dimensions.
func bakeBorder(src *stage.Surface, rect image.Rectangle) ([]byte, int, int) {
	cw := rect.Dx()
	ch := rect.Dy()
	w := cw + 2*tilecache.Border
	h := ch + 2*tilecache.Border
	out := make([]byte, w*h*4)

	img := src.Image()
	for y := 0; y < h; y++ {
		sy := clampInt(rect.Min.Y+y-tilecache.Border, rect.Min.Y, rect.Max.Y-1)
		srcRow := img.Pix[sy*img.Stride:]
		dstRow := out[y*w*4:]

		// Row body.
		copy(dstRow[tilecache.Border*4:(tilecache.Border+cw)*4], srcRow[rect.Min.X*4:(rect.Min.X+cw)*4])

		// Replicate edge columns.
		copy(dstRow[:4], srcRow[rect.Min.X*4:rect.Min.X*4+4])
		copy(dstRow[(w-1)*4:w*4], srcRow[(rect.Max.X-1)*4:(rect.Max.X-1)*4+4])
	}
	return out, w, h
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
