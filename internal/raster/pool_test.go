package raster

import (
	"testing"

	"github.com/gogpu/stage"
)

func TestPoolReuse(t *testing.T) {
	p := NewPool(4)

	s := p.Get(64, 64)
	if s.Width() != 64 || s.Height() != 64 {
		t.Fatalf("surface size = %dx%d, want 64x64", s.Width(), s.Height())
	}

	s.FillRect(stage.RectWH(0, 0, 64, 64), stage.White)
	s.SetTransform(stage.Scale(2, 2))
	p.Put(s)

	if p.Len() != 1 {
		t.Fatalf("pool Len = %d, want 1", p.Len())
	}

	reused := p.Get(64, 64)
	if reused != s {
		t.Error("same-size Get did not reuse the pooled surface")
	}
	for i, v := range reused.Pix() {
		if v != 0 {
			t.Fatalf("reused surface byte %d = %d, want cleared", i, v)
		}
	}
	if !reused.Transform().IsIdentity() {
		t.Errorf("reused surface transform = %+v, want identity", reused.Transform())
	}
}

func TestPoolSizeBuckets(t *testing.T) {
	p := NewPool(4)
	small := p.Get(32, 32)
	p.Put(small)

	big := p.Get(64, 64)
	if big == small {
		t.Error("Get returned a surface of the wrong size")
	}
}

func TestPoolCapacity(t *testing.T) {
	p := NewPool(1)
	a := p.Get(16, 16)
	b := stage.NewSurface(16, 16)
	p.Put(a)
	p.Put(b) // over capacity, discarded
	if p.Len() != 1 {
		t.Errorf("pool Len = %d, want 1", p.Len())
	}
}

func TestPoolNilPut(t *testing.T) {
	p := NewPool(1)
	p.Put(nil)
	if p.Len() != 0 {
		t.Errorf("pool Len = %d after nil Put, want 0", p.Len())
	}
}
