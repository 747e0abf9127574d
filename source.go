package stage

// Source is the contract between the rendering core and the code that
// produces pixels. The core never inspects how rendering is
// implemented; it asks for bounds and flags, and hands the source a
// Surface to paint into at the surface's current transform.
type Source interface {
	// Bounds returns the source's extent in its own unscaled
	// coordinate space.
	Bounds() Rect

	// Dynamic reports whether the content changes between frames.
	// Dynamic sources are cached as a single full-bounds tile and
	// re-rendered whenever Invalid reports true.
	Dynamic() bool

	// Scalable reports whether the content may be rasterized above its
	// native resolution. Non-scalable sources only cache at native
	// scale and below.
	Scalable() bool

	// Tileable reports whether the content can be split into grid
	// tiles. Non-tileable sources use a single full-bounds tile.
	Tileable() bool

	// Invalid reports whether previously cached pixels are stale.
	// Only consulted for dynamic sources.
	Invalid() bool

	// Render paints the source into the surface at the surface's
	// current transform.
	Render(*Surface)
}
