package stage

import (
	"image"
	"image/color"
	"image/draw"
)

// Surface is a CPU raster target: an RGBA8 pixel buffer plus a current
// transform. Content sources paint themselves into a Surface at its
// current transform; the tile cache then hands sub-rectangles of the
// surface to the GPU upload path.
//
// Surface is not safe for concurrent use. The tile cache treats the
// scratch surface as exclusively owned for the duration of one caching
// step.
type Surface struct {
	img       *image.RGBA
	transform Matrix
}

// NewSurface creates a surface of the given pixel dimensions with an
// identity transform.
func NewSurface(width, height int) *Surface {
	return &Surface{
		img:       image.NewRGBA(image.Rect(0, 0, width, height)),
		transform: Identity(),
	}
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.img.Rect.Dx() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Stride returns the number of bytes per pixel row.
func (s *Surface) Stride() int { return s.img.Stride }

// Pix returns the raw RGBA8 pixel data.
func (s *Surface) Pix() []byte { return s.img.Pix }

// Image returns the surface's backing image. The returned image shares
// pixel memory with the surface.
func (s *Surface) Image() *image.RGBA { return s.img }

// SetTransform replaces the surface's current transform.
func (s *Surface) SetTransform(m Matrix) { s.transform = m }

// Transform returns the surface's current transform.
func (s *Surface) Transform() Matrix { return s.transform }

// Clear sets every pixel to transparent black and does not touch the
// transform.
func (s *Surface) Clear() {
	clear(s.img.Pix)
}

// FillRect fills the axis-aligned bounding box of r, mapped through
// the current transform, with the given color. This is the minimal
// painting primitive the core itself needs (debug tinting, test
// sources); real content sources bring their own rasterizer.
func (s *Surface) FillRect(r Rect, c RGBA) {
	dev := s.transform.TransformRect(r)
	if dev.IsEmpty() {
		return
	}
	ir := image.Rect(
		int(dev.Min.X), int(dev.Min.Y),
		int(dev.Max.X+0.5), int(dev.Max.Y+0.5),
	).Intersect(s.img.Rect)
	if ir.Empty() {
		return
	}
	src := image.NewUniform(color.NRGBA{
		R: clampByte(c.R * 255),
		G: clampByte(c.G * 255),
		B: clampByte(c.B * 255),
		A: clampByte(c.A * 255),
	})
	draw.Draw(s.img, ir, src, image.Point{}, draw.Over)
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
