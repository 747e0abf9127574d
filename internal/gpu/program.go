package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

// Attribute describes one entry of a program's fixed vertex layout.
type Attribute struct {
	// Name is the attribute name in the shader source.
	Name string

	// Location is the shader location index.
	Location int

	// Offset is the byte offset within one interleaved vertex.
	Offset int

	// Components is the number of float32 components.
	Components int
}

// Program is a compiled vertex/fragment shader pair with a fixed,
// precomputed attribute layout and named uniforms.
//
// Sources are WGSL; they are validated and translated to SPIR-V with
// naga at creation so that shader errors surface at startup rather
// than at first draw.
type Program struct {
	mu sync.Mutex

	label string

	vertexSPIRV   []uint32
	fragmentSPIRV []uint32

	attributes []Attribute
	attrByName map[string]int
	uniforms   map[string]int
	stride     int

	// Draw statistics for tests and diagnostics.
	drawCalls   int
	indexesSent int
}

// NewProgram compiles a named WGSL vertex/fragment source pair and
// precomputes the attribute layout. Attributes are laid out in the
// given order, tightly packed.
func NewProgram(label, vertexSrc, fragmentSrc string, attrs []Attribute, uniformNames []string) (*Program, error) {
	vs, err := compileWGSL(vertexSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s vertex: %w", ErrShaderCompile, label, err)
	}
	fs, err := compileWGSL(fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s fragment: %w", ErrShaderCompile, label, err)
	}

	p := &Program{
		label:         label,
		vertexSPIRV:   vs,
		fragmentSPIRV: fs,
		attributes:    attrs,
		attrByName:    make(map[string]int, len(attrs)),
		uniforms:      make(map[string]int, len(uniformNames)),
	}
	offset := 0
	for i := range p.attributes {
		p.attributes[i].Location = i
		p.attributes[i].Offset = offset
		offset += p.attributes[i].Components * 4
		p.attrByName[p.attributes[i].Name] = i
	}
	p.stride = offset
	for i, name := range uniformNames {
		p.uniforms[name] = i
	}
	return p, nil
}

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, err
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// Label returns the program's debug label.
func (p *Program) Label() string { return p.label }

// Stride returns the byte size of one interleaved vertex.
func (p *Program) Stride() int { return p.stride }

// VertexFloats returns the number of float32 values per vertex.
func (p *Program) VertexFloats() int { return p.stride / 4 }

// Attribute returns the layout entry for a named attribute.
func (p *Program) Attribute(name string) (Attribute, error) {
	i, ok := p.attrByName[name]
	if !ok {
		return Attribute{}, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	return p.attributes[i], nil
}

// UniformSlot returns the binding slot of a named uniform.
func (p *Program) UniformSlot(name string) (int, error) {
	i, ok := p.uniforms[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	return i, nil
}

// DrawIndexed submits one indexed draw of indexCount indices using the
// given vertex and index buffers with the program's attribute layout
// bound.
func (p *Program) DrawIndexed(vertices, indices *Buffer, indexCount int) error {
	if err := vertices.Upload(); err != nil {
		return fmt.Errorf("vertex upload failed: %w", err)
	}
	if err := indices.Upload(); err != nil {
		return fmt.Errorf("index upload failed: %w", err)
	}

	p.mu.Lock()
	p.drawCalls++
	p.indexesSent += indexCount
	p.mu.Unlock()

	// TODO: bind pipeline + attribute layout and issue
	// DrawIndexed(indexCount, 1, 0, 0, 0) on a core render pass once
	// wgpu render pipelines land.

	return nil
}

// DrawCalls returns the number of submitted draws, for stats.
func (p *Program) DrawCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drawCalls
}
