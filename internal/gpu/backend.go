package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/stage"
	"github.com/gogpu/wgpu/core"
)

// Backend owns the GPU instance, adapter, device and queue used by the
// stage pipeline.
//
// A backend is either self-initialized via Init (creating its own
// instance and adapter) or adopts a device shared by the host
// application via a gpucontext.DeviceProvider.
type Backend struct {
	mu sync.RWMutex

	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID

	// shared holds the host-provided device when the backend did not
	// create its own. Resources from a shared device are not released
	// on Close.
	shared gpucontext.DeviceProvider

	initialized bool
}

// NewBackend creates an uninitialized backend. Call Init or Adopt
// before creating resources.
func NewBackend() *Backend {
	return &Backend{}
}

// Init creates the backend's own GPU resources: instance, adapter
// (preferring the high-performance GPU), device and queue.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	desc := &gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
	}
	b.instance = core.NewInstance(desc)

	adapterID, err := b.instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoGPU, err)
	}
	b.adapter = adapterID

	deviceID, err := createDevice(adapterID, "stage-device")
	if err != nil {
		return fmt.Errorf("device creation failed: %w", err)
	}
	b.device = deviceID

	queueID, err := getDeviceQueue(deviceID)
	if err != nil {
		_ = releaseDevice(deviceID)
		return fmt.Errorf("queue retrieval failed: %w", err)
	}
	b.queue = queueID

	b.initialized = true
	stage.Logger().Info("gpu: backend initialized")
	return nil
}

// Adopt makes the backend use a device shared by the host application
// instead of creating its own. The provider keeps ownership; Close
// will not release the device.
func (b *Backend) Adopt(provider gpucontext.DeviceProvider) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.shared = provider
	b.initialized = true
	stage.Logger().Info("gpu: adopted shared device")
}

// Close releases the backend's own resources. A backend using an
// adopted device only forgets the reference.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return
	}
	if b.shared == nil && !b.device.IsZero() {
		_ = releaseDevice(b.device)
	}
	b.shared = nil
	b.instance = nil
	b.initialized = false
}

// IsInitialized reports whether the backend can create resources.
func (b *Backend) IsInitialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}

// Device returns the backend's device ID.
func (b *Backend) Device() core.DeviceID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.device
}

// Queue returns the backend's queue ID.
func (b *Backend) Queue() core.QueueID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.queue
}
