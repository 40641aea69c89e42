//go:build !nogpu

// Package gpu opens GPU devices for the renderer.
//
// Open creates a device the caller owns, on the Vulkan backend by default.
// FromProvider borrows the device of a host framework (e.g., gogpu) so that
// splats render on the same device as the rest of the frame.
//
// Build with -tags nogpu to drop the wgpu dependency; Open and FromProvider
// then return gsplat.ErrNoDevice and callers fall back to
// gpucore.NewMemoryDevice.
//
// Usage:
//
//	dev, err := gpu.Open()
//	if err != nil {
//	    dev = gpucore.NewMemoryDevice() // CPU rendering
//	}
//	defer dev.Destroy()
package gpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gsplat"
	"github.com/gogpu/gsplat/gpucore"
	gpuimpl "github.com/gogpu/gsplat/internal/gpu"
)

// Open creates a GPU device. The caller owns it and must call Destroy.
func Open(opts ...Option) (gpucore.Device, error) {
	o := buildOptions(opts)
	dev, err := gpuimpl.Open(o.backend, gpuimpl.Options{SPIRV: o.spirv})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gsplat.ErrNoDevice, err)
	}
	return dev, nil
}

// FromProvider wraps the device of a host framework. The provider must also
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue. Destroy on the result releases nothing the host owns.
func FromProvider(provider gpucontext.DeviceProvider, opts ...Option) (gpucore.Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, gsplat.ErrNoDevice
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", gsplat.ErrNoDevice)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", gsplat.ErrNoDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", gsplat.ErrNoDevice)
	}
	o := buildOptions(opts)
	dev, err := gpuimpl.Wrap(device, queue, "shared", gpuimpl.Options{SPIRV: o.spirv})
	if err != nil {
		return nil, err
	}
	return dev, nil
}
