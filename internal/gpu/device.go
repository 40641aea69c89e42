//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gsplat/gpucore"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// fenceTimeout bounds every Commit.
const fenceTimeout = 5 * time.Second

// ErrNoAdapter is returned by Open when the backend reports no adapters.
var ErrNoAdapter = errors.New("gpu: no GPU adapters found")

// HALDevice implements gpucore.Device using gogpu/wgpu/hal directly.
//
// Thread Safety: HALDevice is safe for concurrent use. Command buffers are
// not; each belongs to one goroutine until committed.
type HALDevice struct {
	mu       sync.Mutex
	instance hal.Instance // nil when borrowed
	device   hal.Device
	queue    hal.Queue
	name     string
	limits   gputypes.Limits
	spirv    bool
	external bool // true when using a shared device (don't destroy on Destroy)
	lost     bool
}

// Options selects how shaders reach the driver.
type Options struct {
	// SPIRV compiles WGSL with naga before module creation instead of
	// handing WGSL to the backend.
	SPIRV bool
}

// Open creates an instance on the registered hal backend b, picks a
// discrete or integrated adapter when available and opens a device on it.
func Open(b gputypes.Backend, opts Options) (*HALDevice, error) {
	backend, ok := hal.GetBackend(b)
	if !ok {
		return nil, fmt.Errorf("gpu: backend %v not available", b)
	}
	return OpenBackend(backend, opts)
}

// InstanceFactory is the part of a hal backend Open needs. Registered
// backends and hal/noop's API both satisfy it.
type InstanceFactory interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// OpenBackend is Open for an explicit backend value.
func OpenBackend(backend InstanceFactory, opts Options) (*HALDevice, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}
	d := &HALDevice{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		name:     selected.Info.Name,
		limits:   limits,
		spirv:    opts.SPIRV,
	}
	slogger().Info("gpu: device opened", "adapter", d.name, "spirv", d.spirv)
	return d, nil
}

// Wrap borrows a device and queue owned by the host. Destroy releases
// nothing but marks the wrapper unusable.
func Wrap(device hal.Device, queue hal.Queue, name string, opts Options) (*HALDevice, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("gpu: wrap: nil device or queue")
	}
	return &HALDevice{
		device:   device,
		queue:    queue,
		name:     name,
		limits:   gputypes.DefaultLimits(),
		spirv:    opts.SPIRV,
		external: true,
	}, nil
}

// Name implements gpucore.Device.
func (d *HALDevice) Name() string { return d.name }

// SupportsCompute implements gpucore.Device.
func (d *HALDevice) SupportsCompute() bool { return true }

// MaxBufferSize implements gpucore.Device.
func (d *HALDevice) MaxBufferSize() uint64 { return d.limits.MaxBufferSize }

// External reports whether the hal device is borrowed.
func (d *HALDevice) External() bool { return d.external }

// Destroy implements gpucore.Device. Owned hal objects are destroyed; a
// borrowed device is left to its owner.
func (d *HALDevice) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return
	}
	d.lost = true
	if d.external {
		return
	}
	if d.device != nil {
		d.device.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
}

func (d *HALDevice) checkLive() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return gpucore.ErrDeviceLost
	}
	return nil
}

// CreateBuffer implements gpucore.Device.
func (d *HALDevice) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.Buffer, error) {
	if desc == nil || desc.Size == 0 || desc.Size > d.MaxBufferSize() {
		return nil, gpucore.ErrInvalidBufferSize
	}
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  alignUp4(desc.Size),
		Usage: halBufferUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", gpucore.ErrOutOfMemory, desc.Label, err)
	}
	return &halBuffer{dev: d, buf: buf, label: desc.Label, size: desc.Size, usage: desc.Usage}, nil
}

// WriteBuffer implements gpucore.Device.
func (d *HALDevice) WriteBuffer(buf gpucore.Buffer, offset uint64, data []byte) error {
	b, err := d.buffer(buf)
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > b.size {
		return gpucore.ErrInvalidBufferSize
	}
	d.queue.WriteBuffer(b.buf, offset, data)
	return nil
}

// ReadBuffer implements gpucore.Device. The buffer should carry
// BufferUsageMapRead.
func (d *HALDevice) ReadBuffer(buf gpucore.Buffer, offset uint64, dst []byte) error {
	b, err := d.buffer(buf)
	if err != nil {
		return err
	}
	if offset+uint64(len(dst)) > b.size {
		return gpucore.ErrInvalidBufferSize
	}
	if err := d.queue.ReadBuffer(b.buf, offset, dst); err != nil {
		return fmt.Errorf("gpu: readback %s: %w", b.label, err)
	}
	return nil
}

func (d *HALDevice) buffer(buf gpucore.Buffer) (*halBuffer, error) {
	b, ok := buf.(*halBuffer)
	if !ok || b.dev != d {
		return nil, gpucore.ErrForeignResource
	}
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	if b.buf == nil {
		return nil, gpucore.ErrBufferDestroyed
	}
	return b, nil
}

// NewCommandBuffer implements gpucore.Device.
func (d *HALDevice) NewCommandBuffer(label string) (gpucore.CommandBuffer, error) {
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	return &halCommandBuffer{dev: d, label: label}, nil
}

func halBufferUsage(u gpucore.BufferUsage) gputypes.BufferUsage {
	var out gputypes.BufferUsage
	if u&gpucore.BufferUsageMapRead != 0 {
		out |= gputypes.BufferUsageMapRead
	}
	if u&gpucore.BufferUsageCopySrc != 0 {
		out |= gputypes.BufferUsageCopySrc
	}
	if u&gpucore.BufferUsageCopyDst != 0 {
		out |= gputypes.BufferUsageCopyDst
	}
	if u&gpucore.BufferUsageUniform != 0 {
		out |= gputypes.BufferUsageUniform
	}
	if u&gpucore.BufferUsageStorage != 0 {
		out |= gputypes.BufferUsageStorage
	}
	return out
}

func alignUp4(n uint64) uint64 { return (n + 3) &^ 3 }

type halBuffer struct {
	dev   *HALDevice
	buf   hal.Buffer
	label string
	size  uint64
	usage gpucore.BufferUsage
}

func (b *halBuffer) Label() string              { return b.label }
func (b *halBuffer) Size() uint64               { return b.size }
func (b *halBuffer) Usage() gpucore.BufferUsage { return b.usage }

func (b *halBuffer) Destroy() {
	if b.buf == nil {
		return
	}
	if b.dev.checkLive() == nil {
		b.dev.device.DestroyBuffer(b.buf)
	}
	b.buf = nil
}

var _ gpucore.Device = (*HALDevice)(nil)
