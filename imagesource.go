package stage

import (
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// DrawImage draws img into the surface through the surface's current
// transform with bilinear filtering.
func (s *Surface) DrawImage(img image.Image) {
	m := s.transform
	aff := f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
	xdraw.ApproxBiLinear.Transform(s.img, aff, img, img.Bounds(), xdraw.Over, nil)
}

// ImageSource is a content source backed by a static raster image.
// The image draws at its pixel size; it is not scalable above native
// resolution, so the tile cache only stores it at native scale and
// below.
type ImageSource struct {
	img image.Image
}

// NewImageSource wraps an image as a content source. The image must
// not be mutated afterward; wrap a new source to change content.
func NewImageSource(img image.Image) *ImageSource {
	return &ImageSource{img: img}
}

// Bounds returns the image dimensions as a rectangle at the origin.
func (s *ImageSource) Bounds() Rect {
	b := s.img.Bounds()
	return RectWH(0, 0, float64(b.Dx()), float64(b.Dy()))
}

// Dynamic reports false: the backing image never changes.
func (s *ImageSource) Dynamic() bool { return false }

// Scalable reports false: raster content has no detail above its
// native resolution.
func (s *ImageSource) Scalable() bool { return false }

// Tileable reports true.
func (s *ImageSource) Tileable() bool { return true }

// Invalid reports false.
func (s *ImageSource) Invalid() bool { return false }

// Render draws the image into the surface at the surface's current
// transform, compensating for the image's own origin offset.
func (s *ImageSource) Render(surf *Surface) {
	t := surf.Transform()
	defer surf.SetTransform(t)

	b := s.img.Bounds()
	surf.SetTransform(t.Multiply(Translate(-float64(b.Min.X), -float64(b.Min.Y))))
	surf.DrawImage(s.img)
}
