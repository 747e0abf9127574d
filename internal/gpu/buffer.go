package gpu

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
)

// Buffer errors.
var (
	// ErrBufferDestroyed is returned when operating on a destroyed buffer.
	ErrBufferDestroyed = errors.New("gpu: buffer has been destroyed")
)

// BufferKind distinguishes vertex, index and uniform buffers.
type BufferKind uint8

const (
	// BufferVertex holds interleaved vertex attributes.
	BufferVertex BufferKind = iota

	// BufferIndex holds 16-bit indices.
	BufferIndex

	// BufferUniform holds shader uniform data.
	BufferUniform
)

// Buffer is a growable GPU buffer with CPU staging. Data is staged
// with Write* and pushed to the GPU by Upload at flush boundaries.
type Buffer struct {
	mu sync.Mutex

	kind  BufferKind
	label string

	staged []byte

	// uploaded tracks the byte size of the last Upload, for stats.
	uploaded int

	destroyed bool
}

// CreateBuffer creates an empty buffer. As with textures, GPU-side
// allocation is deferred; staging always works.
func CreateBuffer(kind BufferKind, label string) *Buffer {
	return &Buffer{kind: kind, label: label}
}

// Kind returns the buffer kind.
func (b *Buffer) Kind() BufferKind { return b.kind }

// Label returns the debug label.
func (b *Buffer) Label() string { return b.label }

// Len returns the number of staged bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.staged)
}

// WriteFloat32 appends float32 values to the staging area in GPU byte
// order (little-endian).
func (b *Buffer) WriteFloat32(vals ...float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return ErrBufferDestroyed
	}
	for _, v := range vals {
		b.staged = binary.LittleEndian.AppendUint32(b.staged, math.Float32bits(v))
	}
	return nil
}

// WriteUint16 appends 16-bit index values to the staging area.
func (b *Buffer) WriteUint16(vals ...uint16) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return ErrBufferDestroyed
	}
	for _, v := range vals {
		b.staged = binary.LittleEndian.AppendUint16(b.staged, v)
	}
	return nil
}

// StagedFloat32s decodes the staging area as float32 values, for
// tests and diagnostics.
func (b *Buffer) StagedFloat32s() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]float32, len(b.staged)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b.staged[i*4:]))
	}
	return out
}

// Upload pushes the staged bytes to the GPU and clears the staging
// area. The staged length is recorded for stats.
func (b *Buffer) Upload() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return ErrBufferDestroyed
	}

	b.uploaded = len(b.staged)

	// TODO: core.QueueWriteBuffer once wgpu buffer upload is
	// available; staged data is authoritative meanwhile.

	b.staged = b.staged[:0]
	return nil
}

// UploadedBytes returns the byte size of the most recent Upload.
func (b *Buffer) UploadedBytes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploaded
}

// Close destroys the buffer.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.staged = nil
	b.destroyed = true
}
