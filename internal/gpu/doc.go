// Package gpu wraps the wgpu resources the stage pipeline needs:
// device/queue acquisition, textures with sub-rectangle upload,
// vertex/index buffers, and the shader program for the batched quad
// brush.
//
// Handles are treated as opaque; the rest of the module never touches
// wgpu directly. A nil Backend yields logical resources without GPU
// state, which is how the tests run without a device.
package gpu
