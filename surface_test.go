package stage

import "testing"

func TestSurfaceFillRect(t *testing.T) {
	s := NewSurface(16, 16)
	s.FillRect(RectWH(4, 4, 8, 8), RGBA{R: 1, A: 1})

	off := s.Image().PixOffset(8, 8)
	if s.Pix()[off] != 255 || s.Pix()[off+3] != 255 {
		t.Errorf("pixel inside fill = %v", s.Pix()[off:off+4])
	}
	off = s.Image().PixOffset(1, 1)
	if s.Pix()[off+3] != 0 {
		t.Errorf("pixel outside fill has alpha %d", s.Pix()[off+3])
	}
}

func TestSurfaceFillRectTransformed(t *testing.T) {
	s := NewSurface(16, 16)
	s.SetTransform(Translate(8, 0))
	s.FillRect(RectWH(0, 0, 4, 4), RGBA{G: 1, A: 1})

	off := s.Image().PixOffset(9, 1)
	if s.Pix()[off+1] != 255 {
		t.Errorf("translated fill missing at (9,1): %v", s.Pix()[off:off+4])
	}
	off = s.Image().PixOffset(1, 1)
	if s.Pix()[off+3] != 0 {
		t.Errorf("untranslated area filled at (1,1): %v", s.Pix()[off:off+4])
	}
}

func TestSurfaceClearKeepsTransform(t *testing.T) {
	s := NewSurface(4, 4)
	s.SetTransform(Scale(2, 2))
	s.FillRect(RectWH(0, 0, 2, 2), White)
	s.Clear()

	for i, v := range s.Pix() {
		if v != 0 {
			t.Fatalf("pixel byte %d = %d after Clear", i, v)
		}
	}
	if s.Transform() != Scale(2, 2) {
		t.Errorf("Clear reset the transform: %+v", s.Transform())
	}
}
