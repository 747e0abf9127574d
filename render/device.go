// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/stage/internal/gpu"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (a windowing framework, a compositor) owns the device and
// hands it down; the render package never creates one on its own when
// a handle is supplied. DeviceHandle is an alias for
// gpucontext.DeviceProvider so any gpucontext-compatible host plugs in
// directly.
type DeviceHandle = gpucontext.DeviceProvider

// adoptDevice wraps a host-provided device handle in a backend. The
// backend does not own the device and will not release it on Close.
func adoptDevice(handle DeviceHandle) *gpu.Backend {
	b := gpu.NewBackend()
	b.Adopt(handle)
	return b
}
