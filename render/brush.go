// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/stage"
	"github.com/gogpu/stage/atlas"
	"github.com/gogpu/stage/internal/gpu"
)

// Brush errors.
var (
	// ErrDeadRegion is returned when drawing from a released or
	// invalidated atlas region.
	ErrDeadRegion = errors.New("render: atlas region is dead")
)

const (
	// MaxSamplers is the number of texture sampler slots available to
	// one batch. Drawing from a ninth distinct texture forces a flush.
	MaxSamplers = 8

	// maxQuads bounds a batch by the 16-bit index range: four
	// vertices per quad.
	maxQuads = 65532 / 4
)

// Brush accumulates solid and textured quads into batches and submits
// each batch as a single indexed draw.
//
// A batch is broken (flushed) when any shared state changes: the
// color matrix, the blend mode, a ninth distinct texture, or index
// range exhaustion. Callers submit geometry in paint order and call
// Flush once at the end of the frame.
//
// Brush is not safe for concurrent use.
type Brush struct {
	program  *gpu.Program
	vertices *gpu.Buffer
	indices  *gpu.Buffer
	uniforms *gpu.Buffer

	viewportW float32
	viewportH float32

	textures [MaxSamplers]*gpu.Texture
	texCount int

	colorMatrix stage.ColorMatrix
	blend       stage.BlendMode

	quads   int
	flushes int
	drawn   uint64
}

// NewBrush compiles the brush shader pair and creates its buffers.
func NewBrush() (*Brush, error) {
	program, err := gpu.NewProgram("brush", brushVertexWGSL, brushFragmentWGSL,
		[]gpu.Attribute{
			{Name: "position", Components: 2},
			{Name: "texcoord", Components: 2},
			{Name: "tint", Components: 4},
			{Name: "slot", Components: 1},
		},
		[]string{"u"},
	)
	if err != nil {
		return nil, fmt.Errorf("render: brush program: %w", err)
	}
	return &Brush{
		program:     program,
		vertices:    gpu.CreateBuffer(gpu.BufferVertex, "brush vertices"),
		indices:     gpu.CreateBuffer(gpu.BufferIndex, "brush indices"),
		uniforms:    gpu.CreateBuffer(gpu.BufferUniform, "brush uniforms"),
		colorMatrix: stage.IdentityColorMatrix(),
	}, nil
}

// SetViewport sets the target dimensions used to map device pixels to
// clip space. Takes effect at the next flush.
func (b *Brush) SetViewport(width, height int) {
	b.viewportW = float32(width)
	b.viewportH = float32(height)
}

// SetColorMatrix sets the color matrix for subsequent quads, flushing
// the open batch if it differs from the current one.
func (b *Brush) SetColorMatrix(m stage.ColorMatrix) error {
	if m == b.colorMatrix {
		return nil
	}
	if b.quads > 0 {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	b.colorMatrix = m
	return nil
}

// SetBlendMode sets the blend mode for subsequent quads, flushing the
// open batch if it differs from the current one.
func (b *Brush) SetBlendMode(mode stage.BlendMode) error {
	if mode == b.blend {
		return nil
	}
	if b.quads > 0 {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	b.blend = mode
	return nil
}

// FillRect submits a solid-color quad covering rect mapped through
// xform.
func (b *Brush) FillRect(rect stage.Rect, xform stage.Matrix, tint stage.RGBA) error {
	return b.quad(rect, xform, image.Rectangle{}, -1, tint)
}

// DrawRegion submits a textured quad: the src texel rectangle of the
// region's atlas texture, drawn over dst mapped through xform and
// modulated by tint. src is relative to the atlas texture, not the
// region.
func (b *Brush) DrawRegion(region *atlas.Region, src image.Rectangle, dst stage.Rect, xform stage.Matrix, tint stage.RGBA) error {
	tex := region.Texture()
	if tex == nil {
		return ErrDeadRegion
	}
	// Flush for index exhaustion before resolving the slot: a flush
	// inside quad would clear the slot bindings after resolution.
	if b.quads == maxQuads {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	slot, err := b.slotFor(tex)
	if err != nil {
		return err
	}
	region.Touch()
	return b.quad(dst, xform, src, slot, tint)
}

// slotFor returns the sampler slot bound to tex, binding it if absent.
// When all slots are taken the open batch is flushed first.
func (b *Brush) slotFor(tex *gpu.Texture) (int, error) {
	for i := 0; i < b.texCount; i++ {
		if b.textures[i] == tex {
			return i, nil
		}
	}
	if b.texCount == MaxSamplers {
		if err := b.Flush(); err != nil {
			return 0, err
		}
	}
	slot := b.texCount
	b.textures[slot] = tex
	b.texCount++
	return slot, nil
}

// quad stages one quad. slot is the sampler slot or -1 for a solid
// fill; src is ignored for solid fills.
func (b *Brush) quad(dst stage.Rect, xform stage.Matrix, src image.Rectangle, slot int, tint stage.RGBA) error {
	if b.quads == maxQuads {
		if err := b.Flush(); err != nil {
			return err
		}
	}

	tl := xform.TransformPoint(dst.Min)
	tr := xform.TransformPoint(stage.Point{X: dst.Max.X, Y: dst.Min.Y})
	bl := xform.TransformPoint(stage.Point{X: dst.Min.X, Y: dst.Max.Y})
	br := xform.TransformPoint(dst.Max)

	var u0, v0, u1, v1 float32
	if slot >= 0 {
		tex := b.textures[slot]
		w := float32(tex.Width())
		h := float32(tex.Height())
		u0 = float32(src.Min.X) / w
		v0 = float32(src.Min.Y) / h
		u1 = float32(src.Max.X) / w
		v1 = float32(src.Max.Y) / h
	}

	r := float32(tint.R)
	g := float32(tint.G)
	bb := float32(tint.B)
	a := float32(tint.A)
	s := float32(slot)

	err := b.vertices.WriteFloat32(
		float32(tl.X), float32(tl.Y), u0, v0, r, g, bb, a, s,
		float32(tr.X), float32(tr.Y), u1, v0, r, g, bb, a, s,
		float32(bl.X), float32(bl.Y), u0, v1, r, g, bb, a, s,
		float32(br.X), float32(br.Y), u1, v1, r, g, bb, a, s,
	)
	if err != nil {
		return err
	}

	base := uint16(b.quads * 4)
	err = b.indices.WriteUint16(base, base+1, base+2, base+2, base+1, base+3)
	if err != nil {
		return err
	}
	b.quads++
	return nil
}

// Flush submits the open batch as one indexed draw and resets the
// batch state. Flushing an empty batch is a no-op.
func (b *Brush) Flush() error {
	if b.quads == 0 {
		return nil
	}

	cm := b.colorMatrix
	err := b.uniforms.WriteFloat32(
		0, 0, b.viewportW, b.viewportH,
		cm.RScale, cm.GScale, cm.BScale, cm.AScale,
		cm.ROffset, cm.GOffset, cm.BOffset, cm.AOffset,
		cm.Alpha, 0, 0, 0,
	)
	if err != nil {
		return err
	}
	if err := b.uniforms.Upload(); err != nil {
		return err
	}

	if err := b.program.DrawIndexed(b.vertices, b.indices, b.quads*6); err != nil {
		return err
	}

	b.drawn += uint64(b.quads)
	b.quads = 0
	b.texCount = 0
	clear(b.textures[:])
	b.flushes++
	return nil
}

// Flushes returns the number of completed flushes.
func (b *Brush) Flushes() int { return b.flushes }

// PendingQuads returns the number of quads in the open batch.
func (b *Brush) PendingQuads() int { return b.quads }

// BoundTextures returns the number of sampler slots in use by the
// open batch.
func (b *Brush) BoundTextures() int { return b.texCount }

// QuadsDrawn returns the total number of quads submitted across all
// flushes.
func (b *Brush) QuadsDrawn() uint64 { return b.drawn }
