// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"testing"

	"github.com/gogpu/stage"
	"github.com/gogpu/stage/scene"
)

type fillSource struct {
	bounds  stage.Rect
	color   stage.RGBA
	renders int
}

func (s *fillSource) Bounds() stage.Rect { return s.bounds }
func (s *fillSource) Dynamic() bool      { return false }
func (s *fillSource) Scalable() bool     { return true }
func (s *fillSource) Tileable() bool     { return true }
func (s *fillSource) Invalid() bool      { return false }
func (s *fillSource) Render(surf *stage.Surface) {
	s.renders++
	surf.FillRect(s.bounds, s.color)
}

func newTestPass(t *testing.T) *Pass {
	t.Helper()
	p, err := NewPass(Config{})
	if err != nil {
		t.Skipf("shader toolchain unavailable: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func contentNode(s stage.Source) *scene.Node {
	n := scene.New()
	n.SetSource(s)
	return n
}

func TestPassRendersScene(t *testing.T) {
	p := newTestPass(t)

	root := scene.NewStage()
	bg := &fillSource{bounds: stage.RectWH(0, 0, 100, 100), color: stage.RGBA{B: 1, A: 1}}
	fg := &fillSource{bounds: stage.RectWH(0, 0, 50, 50), color: stage.RGBA{R: 1, A: 1}}
	root.AddChild(contentNode(bg))
	fgNode := contentNode(fg)
	fgNode.SetPosition(stage.Point{X: 25, Y: 25})
	root.AddChild(fgNode)

	if err := p.Render(root, stage.Identity(), 800, 600); err != nil {
		t.Fatal(err)
	}

	if bg.renders != 1 || fg.renders != 1 {
		t.Errorf("renders = %d, %d, want 1, 1", bg.renders, fg.renders)
	}
	if p.Atlases() != 1 {
		t.Errorf("Atlases = %d, want 1", p.Atlases())
	}
	if p.Brush().QuadsDrawn() != 2 {
		t.Errorf("QuadsDrawn = %d, want 2", p.Brush().QuadsDrawn())
	}

	// The second frame is warm: nothing re-rasterizes.
	if err := p.Render(root, stage.Identity(), 800, 600); err != nil {
		t.Fatal(err)
	}
	if bg.renders != 1 || fg.renders != 1 {
		t.Errorf("warm frame re-rendered: %d, %d", bg.renders, fg.renders)
	}
	if p.Brush().QuadsDrawn() != 4 {
		t.Errorf("QuadsDrawn after two frames = %d, want 4", p.Brush().QuadsDrawn())
	}
}

func TestPassSkipsInvisibleAndMasks(t *testing.T) {
	p := newTestPass(t)

	root := scene.NewStage()
	hidden := contentNode(&fillSource{bounds: stage.RectWH(0, 0, 10, 10), color: stage.White})
	hidden.SetVisible(false)
	root.AddChild(hidden)

	mask := contentNode(&fillSource{bounds: stage.RectWH(0, 0, 10, 10), color: stage.White})
	owner := contentNode(&fillSource{bounds: stage.RectWH(0, 0, 10, 10), color: stage.White})
	root.AddChild(mask)
	root.AddChild(owner)
	owner.SetMask(mask)

	if err := p.Render(root, stage.Identity(), 800, 600); err != nil {
		t.Fatal(err)
	}
	if got := p.Brush().QuadsDrawn(); got != 1 {
		t.Errorf("QuadsDrawn = %d, want 1 (owner only)", got)
	}
}

func TestPassCullsOffscreenContent(t *testing.T) {
	p := newTestPass(t)

	root := scene.NewStage()
	off := &fillSource{bounds: stage.RectWH(0, 0, 50, 50)}
	offNode := contentNode(off)
	offNode.SetPosition(stage.Point{X: 5000, Y: 5000})
	root.AddChild(offNode)

	if err := p.Render(root, stage.Identity(), 800, 600); err != nil {
		t.Fatal(err)
	}
	if off.renders != 0 {
		t.Errorf("offscreen content rasterized %d times", off.renders)
	}
	if p.Brush().QuadsDrawn() != 0 {
		t.Errorf("QuadsDrawn = %d, want 0", p.Brush().QuadsDrawn())
	}
}

func TestPassClipRestrictsSiblings(t *testing.T) {
	p := newTestPass(t)

	root := scene.NewStage()
	clip := contentNode(&fillSource{bounds: stage.RectWH(0, 0, 40, 40), color: stage.White})
	clip.SetClipCount(1)
	clipped := &fillSource{bounds: stage.RectWH(0, 0, 50, 50)}
	clippedNode := contentNode(clipped)
	clippedNode.SetPosition(stage.Point{X: 200, Y: 200})
	free := &fillSource{bounds: stage.RectWH(0, 0, 50, 50)}
	freeNode := contentNode(free)
	freeNode.SetPosition(stage.Point{X: 200, Y: 200})

	root.AddChild(clip)
	root.AddChild(clippedNode)
	root.AddChild(freeNode)

	if err := p.Render(root, stage.Identity(), 800, 600); err != nil {
		t.Fatal(err)
	}

	// The clipped sibling sits outside the clip's device bounds and
	// is culled; the sibling after the bracket draws normally.
	if clipped.renders != 0 {
		t.Errorf("clipped sibling rasterized %d times", clipped.renders)
	}
	if free.renders != 1 {
		t.Errorf("post-bracket sibling renders = %d, want 1", free.renders)
	}
}

func TestPassInvalidateNode(t *testing.T) {
	p := newTestPass(t)

	root := scene.NewStage()
	src := &fillSource{bounds: stage.RectWH(0, 0, 60, 60), color: stage.White}
	n := contentNode(src)
	root.AddChild(n)

	if err := p.Render(root, stage.Identity(), 800, 600); err != nil {
		t.Fatal(err)
	}
	if err := p.Render(root, stage.Identity(), 800, 600); err != nil {
		t.Fatal(err)
	}
	if src.renders != 1 {
		t.Fatalf("renders before invalidation = %d, want 1", src.renders)
	}

	p.InvalidateNode(n)
	if err := p.Render(root, stage.Identity(), 800, 600); err != nil {
		t.Fatal(err)
	}
	if src.renders != 2 {
		t.Errorf("renders after invalidation = %d, want 2", src.renders)
	}
}

func TestPassScaledViewUsesFinerLevel(t *testing.T) {
	p := newTestPass(t)

	root := scene.NewStage()
	src := &fillSource{bounds: stage.RectWH(0, 0, 60, 60), color: stage.White}
	root.AddChild(contentNode(src))

	if err := p.Render(root, stage.Identity(), 800, 600); err != nil {
		t.Fatal(err)
	}
	// Zooming in selects a finer cache level, which rasterizes anew.
	if err := p.Render(root, stage.Scale(2, 2), 800, 600); err != nil {
		t.Fatal(err)
	}
	if src.renders != 2 {
		t.Errorf("renders across levels = %d, want 2", src.renders)
	}
	// Both levels stay warm afterwards.
	if err := p.Render(root, stage.Identity(), 800, 600); err != nil {
		t.Fatal(err)
	}
	if src.renders != 2 {
		t.Errorf("warm level re-rendered: %d", src.renders)
	}
}
