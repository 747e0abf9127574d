package stage

import "fmt"

// BlendMode selects how a node's pixels combine with the pixels
// beneath it.
type BlendMode uint8

const (
	// BlendNormal is standard source-over alpha blending.
	BlendNormal BlendMode = iota

	// BlendAdd sums source and destination channels.
	BlendAdd

	// BlendMultiply multiplies source and destination channels.
	BlendMultiply

	// BlendScreen inverts, multiplies, and inverts again.
	BlendScreen

	// BlendErase subtracts source alpha from the destination.
	BlendErase
)

// String returns a human-readable name for the blend mode.
func (b BlendMode) String() string {
	switch b {
	case BlendNormal:
		return "Normal"
	case BlendAdd:
		return "Add"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendErase:
		return "Erase"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(b))
	}
}
