package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// bytesPerPixel is the RGBA8 pixel size; atlas textures are always
// RGBA8.
const bytesPerPixel = 4

// DefaultTextureUsage is the usage for textures created without
// specific flags.
const DefaultTextureUsage = gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding

// Texture is a GPU texture with sub-rectangle upload. A CPU shadow of
// the pixel data is retained so the texture can be restored after
// device loss and inspected by tests without a readback.
//
// Texture is safe for concurrent read access; UploadRegion and Close
// require external synchronization.
type Texture struct {
	mu sync.RWMutex

	// GPU resource IDs (stub until wgpu texture support is complete).
	textureID core.TextureID
	viewID    core.TextureViewID

	width  int
	height int
	label  string
	usage  gputypes.TextureUsage

	// shadow mirrors the GPU contents row-major, width*4 bytes per
	// row.
	shadow []byte

	released atomic.Bool
}

// TextureConfig holds parameters for creating a texture.
type TextureConfig struct {
	// Width is the texture width in pixels.
	Width int

	// Height is the texture height in pixels.
	Height int

	// Label is an optional debug label.
	Label string

	// Usage flags. Defaults to DefaultTextureUsage when zero.
	Usage gputypes.TextureUsage
}

// CreateTexture creates a GPU texture. A nil backend produces a
// logical texture without GPU resources, which is sufficient for
// tests.
//
// Note: actual wgpu texture allocation happens when wgpu texture
// support is complete; until then the texture is tracked logically and
// kept current through the CPU shadow.
func CreateTexture(backend *Backend, config TextureConfig) (*Texture, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if backend != nil && !backend.IsInitialized() {
		return nil, ErrNotInitialized
	}

	usage := config.Usage
	if usage == 0 {
		usage = DefaultTextureUsage
	}

	// TODO: core texture creation once available:
	//
	// desc := &gputypes.TextureDescriptor{
	//     Label: config.Label,
	//     Size: gputypes.Extent3D{
	//         Width:              uint32(config.Width),
	//         Height:             uint32(config.Height),
	//         DepthOrArrayLayers: 1,
	//     },
	//     MipLevelCount: 1,
	//     SampleCount:   1,
	//     Dimension:     gputypes.TextureDimension2D,
	//     Format:        gputypes.TextureFormatRGBA8Unorm,
	//     Usage:         usage,
	// }
	// textureID, err := core.CreateTexture(backend.Device(), desc)

	return &Texture{
		width:  config.Width,
		height: config.Height,
		label:  config.Label,
		usage:  usage,
		shadow: make([]byte, config.Width*config.Height*bytesPerPixel),
	}, nil
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// ID returns the underlying wgpu texture ID. Zero for logical
// textures.
func (t *Texture) ID() core.TextureID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.textureID
}

// View returns the texture view ID. Zero for logical textures.
func (t *Texture) View() core.TextureViewID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.viewID
}

// UploadRegion copies tightly-packed RGBA8 pixels into the rectangle
// (x, y, w, h) of the texture. len(pix) must be exactly w*h*4.
func (t *Texture) UploadRegion(x, y, w, h int, pix []byte) error {
	if t.released.Load() {
		return ErrTextureReleased
	}
	if w <= 0 || h <= 0 {
		return ErrInvalidDimensions
	}
	if x < 0 || y < 0 || x+w > t.width || y+h > t.height {
		return fmt.Errorf("%w: (%d,%d %dx%d) in %dx%d", ErrRegionOutOfBounds,
			x, y, w, h, t.width, t.height)
	}
	if len(pix) != w*h*bytesPerPixel {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrSizeMismatch,
			len(pix), w*h*bytesPerPixel)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	rowBytes := w * bytesPerPixel
	stride := t.width * bytesPerPixel
	for row := 0; row < h; row++ {
		dst := (y+row)*stride + x*bytesPerPixel
		copy(t.shadow[dst:dst+rowBytes], pix[row*rowBytes:(row+1)*rowBytes])
	}

	// TODO: core.QueueWriteTexture for the same rectangle once wgpu
	// texture upload is available; the shadow keeps the logical
	// contents authoritative meanwhile.

	return nil
}

// PixelAt returns the shadow copy of the pixel at (x, y). Intended for
// tests.
func (t *Texture) PixelAt(x, y int) [4]byte {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var p [4]byte
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return p
	}
	off := (y*t.width + x) * bytesPerPixel
	copy(p[:], t.shadow[off:off+bytesPerPixel])
	return p
}

// Close releases the texture. The texture must not be used afterward.
func (t *Texture) Close() {
	if t.released.Swap(true) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shadow = nil
}

// IsReleased reports whether Close has been called.
func (t *Texture) IsReleased() bool { return t.released.Load() }
