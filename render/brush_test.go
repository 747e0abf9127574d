// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"
	"testing"

	"github.com/gogpu/stage"
	"github.com/gogpu/stage/atlas"
	"github.com/gogpu/stage/tilecache"
)

func newTestBrush(t *testing.T) *Brush {
	t.Helper()
	b, err := NewBrush()
	if err != nil {
		t.Skipf("shader toolchain unavailable: %v", err)
	}
	b.SetViewport(800, 600)
	return b
}

// regionInOwnAtlas allocates one full-size region in a dedicated
// atlas, so each call yields a distinct texture.
func regionInOwnAtlas(t *testing.T, size int) *atlas.Region {
	t.Helper()
	a, err := atlas.New(nil, atlas.Config{
		Width:     size,
		Height:    size,
		Allocator: atlas.NewGridAllocator(size, size, size),
	})
	if err != nil {
		t.Fatal(err)
	}
	r, err := a.Add(make([]byte, size*size*4), size, size)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestBrushFillRect(t *testing.T) {
	b := newTestBrush(t)

	if err := b.FillRect(stage.RectWH(0, 0, 10, 10), stage.Identity(), stage.White); err != nil {
		t.Fatal(err)
	}
	if b.PendingQuads() != 1 {
		t.Errorf("PendingQuads = %d, want 1", b.PendingQuads())
	}
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
	if b.Flushes() != 1 || b.QuadsDrawn() != 1 {
		t.Errorf("Flushes = %d, QuadsDrawn = %d", b.Flushes(), b.QuadsDrawn())
	}
	// Flushing again with nothing pending is a no-op.
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
	if b.Flushes() != 1 {
		t.Errorf("empty Flush counted: %d", b.Flushes())
	}
}

func TestBrushSamplerSlots(t *testing.T) {
	b := newTestBrush(t)
	dst := stage.RectWH(0, 0, 32, 32)
	src := image.Rect(1, 1, 31, 31)

	// Eight distinct textures share one batch.
	for i := 0; i < MaxSamplers; i++ {
		r := regionInOwnAtlas(t, 32)
		if err := b.DrawRegion(r, src, dst, stage.Identity(), stage.White); err != nil {
			t.Fatal(err)
		}
	}
	if b.Flushes() != 0 {
		t.Fatalf("eight textures flushed early: %d", b.Flushes())
	}
	if b.BoundTextures() != MaxSamplers {
		t.Fatalf("BoundTextures = %d, want %d", b.BoundTextures(), MaxSamplers)
	}

	// The ninth forces a flush and starts a fresh batch.
	r9 := regionInOwnAtlas(t, 32)
	if err := b.DrawRegion(r9, src, dst, stage.Identity(), stage.White); err != nil {
		t.Fatal(err)
	}
	if b.Flushes() != 1 {
		t.Errorf("Flushes after ninth texture = %d, want 1", b.Flushes())
	}
	if b.BoundTextures() != 1 || b.PendingQuads() != 1 {
		t.Errorf("fresh batch state: textures %d, quads %d", b.BoundTextures(), b.PendingQuads())
	}

	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
	if b.Flushes() != 2 || b.QuadsDrawn() != 9 {
		t.Errorf("final Flushes = %d, QuadsDrawn = %d", b.Flushes(), b.QuadsDrawn())
	}
}

func TestBrushTexturedQuadAtIndexLimit(t *testing.T) {
	// Filling a batch to the index limit and then drawing a textured
	// quad must flush before the sampler slot is resolved: the flush
	// clears the slot bindings, so a slot resolved first would point at
	// nothing in the new batch.
	b := newTestBrush(t)
	r := regionInOwnAtlas(t, 32)
	dst := stage.RectWH(0, 0, 32, 32)
	src := image.Rect(1, 1, 31, 31)

	if err := b.DrawRegion(r, src, dst, stage.Identity(), stage.White); err != nil {
		t.Fatal(err)
	}
	for b.PendingQuads() < maxQuads {
		if err := b.FillRect(dst, stage.Identity(), stage.White); err != nil {
			t.Fatal(err)
		}
	}

	if err := b.DrawRegion(r, src, dst, stage.Identity(), stage.White); err != nil {
		t.Fatal(err)
	}
	if b.Flushes() != 1 {
		t.Errorf("Flushes = %d, want 1", b.Flushes())
	}
	if b.PendingQuads() != 1 || b.BoundTextures() != 1 {
		t.Errorf("fresh batch state: quads %d, textures %d", b.PendingQuads(), b.BoundTextures())
	}
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
	if b.QuadsDrawn() != uint64(maxQuads)+1 {
		t.Errorf("QuadsDrawn = %d, want %d", b.QuadsDrawn(), maxQuads+1)
	}
}

func TestBrushReusesBoundTexture(t *testing.T) {
	b := newTestBrush(t)
	r := regionInOwnAtlas(t, 64)
	dst := stage.RectWH(0, 0, 32, 32)
	src := image.Rect(1, 1, 63, 63)

	for i := 0; i < 20; i++ {
		if err := b.DrawRegion(r, src, dst, stage.Identity(), stage.White); err != nil {
			t.Fatal(err)
		}
	}
	if b.BoundTextures() != 1 {
		t.Errorf("BoundTextures = %d, want 1 for repeated texture", b.BoundTextures())
	}
	if b.Flushes() != 0 {
		t.Errorf("repeated draws flushed: %d", b.Flushes())
	}
}

func TestBrushColorMatrixBreaksBatch(t *testing.T) {
	b := newTestBrush(t)

	if err := b.FillRect(stage.RectWH(0, 0, 10, 10), stage.Identity(), stage.White); err != nil {
		t.Fatal(err)
	}

	tinted := stage.IdentityColorMatrix()
	tinted.RScale = 0.5
	if err := b.SetColorMatrix(tinted); err != nil {
		t.Fatal(err)
	}
	if b.Flushes() != 1 {
		t.Errorf("color matrix change did not flush: %d", b.Flushes())
	}

	// Setting the same matrix again does not flush.
	if err := b.FillRect(stage.RectWH(0, 0, 10, 10), stage.Identity(), stage.White); err != nil {
		t.Fatal(err)
	}
	if err := b.SetColorMatrix(tinted); err != nil {
		t.Fatal(err)
	}
	if b.Flushes() != 1 {
		t.Errorf("identical color matrix flushed: %d", b.Flushes())
	}
}

func TestBrushBlendModeBreaksBatch(t *testing.T) {
	b := newTestBrush(t)

	if err := b.FillRect(stage.RectWH(0, 0, 10, 10), stage.Identity(), stage.White); err != nil {
		t.Fatal(err)
	}
	if err := b.SetBlendMode(stage.BlendAdd); err != nil {
		t.Fatal(err)
	}
	if b.Flushes() != 1 {
		t.Errorf("blend change did not flush: %d", b.Flushes())
	}
}

func TestBrushTexcoordsInsideBorder(t *testing.T) {
	// A full tile is 256px with a 1px baked border; its texcoords must
	// stay inside [1/W, (W-1)/W] so bilinear taps never cross into a
	// neighbouring region.
	b := newTestBrush(t)
	size := tilecache.TileSize
	r := regionInOwnAtlas(t, size)

	rr := r.Rect()
	content := image.Rect(
		rr.X+tilecache.Border, rr.Y+tilecache.Border,
		rr.X+rr.Width-tilecache.Border, rr.Y+rr.Height-tilecache.Border,
	)
	dst := stage.RectWH(0, 0, float64(tilecache.ContentSize), float64(tilecache.ContentSize))
	if err := b.DrawRegion(r, content, dst, stage.Identity(), stage.White); err != nil {
		t.Fatal(err)
	}

	floats := b.vertices.StagedFloat32s()
	const vertexFloats = 9 // position 2, texcoord 2, tint 4, slot 1
	if len(floats) != 4*vertexFloats {
		t.Fatalf("staged %d floats, want %d", len(floats), 4*vertexFloats)
	}

	lo := float32(1) / float32(size)
	hi := float32(size-1) / float32(size)
	for v := 0; v < 4; v++ {
		u := floats[v*vertexFloats+2]
		vv := floats[v*vertexFloats+3]
		if u < lo || u > hi || vv < lo || vv > hi {
			t.Errorf("vertex %d texcoord (%v, %v) outside [%v, %v]", v, u, vv, lo, hi)
		}
	}
}

func TestBrushDeadRegion(t *testing.T) {
	b := newTestBrush(t)
	r := regionInOwnAtlas(t, 32)
	r.Release()

	err := b.DrawRegion(r, image.Rect(1, 1, 31, 31), stage.RectWH(0, 0, 10, 10), stage.Identity(), stage.White)
	if err != ErrDeadRegion {
		t.Errorf("err = %v, want ErrDeadRegion", err)
	}
}
