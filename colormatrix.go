package stage

// ColorMatrix is a per-channel color transform: each channel is scaled
// and then offset, and the whole result is modulated by a separate
// alpha multiplier. Offsets are in the 0-1 color range.
//
// This is the diagonal-plus-offset subset of a full 5x4 color matrix,
// which is all the stage pipeline needs for tinting and fading.
type ColorMatrix struct {
	RScale, GScale, BScale, AScale     float32
	ROffset, GOffset, BOffset, AOffset float32

	// Alpha is the overall alpha multiplier. It is tracked separately
	// from AScale and is NOT premultiplied into the channel scales when
	// two color matrices are combined. Folding it in changes rendered
	// output for nested translucent subtrees; keep the behavior as is.
	Alpha float32
}

// IdentityColorMatrix returns the color transform that leaves colors
// unchanged.
func IdentityColorMatrix() ColorMatrix {
	return ColorMatrix{
		RScale: 1, GScale: 1, BScale: 1, AScale: 1,
		Alpha: 1,
	}
}

// IsIdentity returns true if applying the matrix leaves any color
// unchanged.
func (m ColorMatrix) IsIdentity() bool {
	return m.RScale == 1 && m.GScale == 1 && m.BScale == 1 && m.AScale == 1 &&
		m.ROffset == 0 && m.GOffset == 0 && m.BOffset == 0 && m.AOffset == 0 &&
		m.Alpha == 1
}

// Multiply combines two color transforms (m * other). The combined
// transform applies other first, then m, mirroring Matrix.Multiply.
func (m ColorMatrix) Multiply(other ColorMatrix) ColorMatrix {
	return ColorMatrix{
		RScale:  m.RScale * other.RScale,
		GScale:  m.GScale * other.GScale,
		BScale:  m.BScale * other.BScale,
		AScale:  m.AScale * other.AScale,
		ROffset: other.ROffset*m.RScale + m.ROffset,
		GOffset: other.GOffset*m.GScale + m.GOffset,
		BOffset: other.BOffset*m.BScale + m.BOffset,
		AOffset: other.AOffset*m.AScale + m.AOffset,
		Alpha:   m.Alpha * other.Alpha,
	}
}

// Apply transforms a single color through the matrix. Used for CPU
// paths and tests; the GPU applies the same math per fragment.
func (m ColorMatrix) Apply(c RGBA) RGBA {
	return RGBA{
		R: c.R*float64(m.RScale) + float64(m.ROffset),
		G: c.G*float64(m.GScale) + float64(m.GOffset),
		B: c.B*float64(m.BScale) + float64(m.BOffset),
		A: (c.A*float64(m.AScale) + float64(m.AOffset)) * float64(m.Alpha),
	}
}
