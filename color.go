package stage

// RGBA is a color with float components in the 0-1 range.
// Components are not premultiplied by alpha.
type RGBA struct {
	R, G, B, A float64
}

// RGB creates an opaque color from RGB components (0-1 range).
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// White and friends are the handful of colors the core itself needs
// (debug tile tinting, default fills).
var (
	White       = RGBA{R: 1, G: 1, B: 1, A: 1}
	Black       = RGBA{R: 0, G: 0, B: 0, A: 1}
	Transparent = RGBA{}
)

// Scaled returns the color with all four components multiplied by s.
func (c RGBA) Scaled(s float64) RGBA {
	return RGBA{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A * s}
}

// WithAlpha returns the color with its alpha replaced by a.
func (c RGBA) WithAlpha(a float64) RGBA {
	return RGBA{R: c.R, G: c.G, B: c.B, A: a}
}
