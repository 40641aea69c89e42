package gpucore

import (
	"fmt"
	"sync"
)

// DefaultMaxBufferSize is the MemoryDevice buffer size limit (256 MiB),
// the same as the WebGPU default maxBufferSize.
const DefaultMaxBufferSize = 256 << 20

// MemoryOption configures a MemoryDevice.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	budget  uint64
	maxSize uint64
}

// WithMemoryBudget limits the total bytes of live buffers. Zero means
// unlimited.
func WithMemoryBudget(bytes uint64) MemoryOption {
	return func(o *memoryOptions) {
		o.budget = bytes
	}
}

// WithMaxBufferSize sets the largest single buffer allocation.
func WithMaxBufferSize(bytes uint64) MemoryOption {
	return func(o *memoryOptions) {
		if bytes > 0 {
			o.maxSize = bytes
		}
	}
}

// MemoryDevice is a Device backed by host memory.
//
// It supports buffers and copy commands but no compute pipelines. It is the
// device used when no GPU is available and in tests.
type MemoryDevice struct {
	mu        sync.Mutex
	opts      memoryOptions
	allocated uint64
	lost      bool
}

// NewMemoryDevice creates a host-memory device.
func NewMemoryDevice(opts ...MemoryOption) *MemoryDevice {
	o := memoryOptions{maxSize: DefaultMaxBufferSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryDevice{opts: o}
}

// Name implements Device.
func (d *MemoryDevice) Name() string { return "host memory" }

// SupportsCompute implements Device. Always false.
func (d *MemoryDevice) SupportsCompute() bool { return false }

// MaxBufferSize implements Device.
func (d *MemoryDevice) MaxBufferSize() uint64 { return d.opts.maxSize }

// Allocated returns the bytes held by live buffers.
func (d *MemoryDevice) Allocated() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocated
}

// Lose marks the device as lost. Every later operation fails with
// ErrDeviceLost.
func (d *MemoryDevice) Lose() {
	d.mu.Lock()
	d.lost = true
	d.mu.Unlock()
}

// CreateBuffer implements Device.
func (d *MemoryDevice) CreateBuffer(desc *BufferDesc) (Buffer, error) {
	if desc == nil || desc.Size == 0 || desc.Size > d.opts.maxSize {
		return nil, ErrInvalidBufferSize
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lost {
		return nil, ErrDeviceLost
	}
	if d.opts.budget > 0 && d.allocated+desc.Size > d.opts.budget {
		return nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			ErrOutOfMemory, desc.Size, d.allocated, d.opts.budget)
	}
	d.allocated += desc.Size
	return &memoryBuffer{
		dev:   d,
		label: desc.Label,
		usage: desc.Usage,
		data:  make([]byte, desc.Size),
	}, nil
}

// WriteBuffer implements Device.
func (d *MemoryDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	mb, err := d.buffer(buf)
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > uint64(len(mb.data)) {
		return ErrInvalidBufferSize
	}
	copy(mb.data[offset:], data)
	return nil
}

// ReadBuffer implements Device. MemoryDevice does not enforce
// BufferUsageMapRead; every buffer is host-visible.
func (d *MemoryDevice) ReadBuffer(buf Buffer, offset uint64, dst []byte) error {
	mb, err := d.buffer(buf)
	if err != nil {
		return err
	}
	if offset+uint64(len(dst)) > uint64(len(mb.data)) {
		return ErrInvalidBufferSize
	}
	copy(dst, mb.data[offset:])
	return nil
}

// CreateComputePipeline implements Device. Always ErrComputeUnsupported.
func (d *MemoryDevice) CreateComputePipeline(*ComputePipelineDesc) (ComputePipeline, error) {
	if d.isLost() {
		return nil, ErrDeviceLost
	}
	return nil, ErrComputeUnsupported
}

// CreateBindGroup implements Device. Always ErrComputeUnsupported.
func (d *MemoryDevice) CreateBindGroup(ComputePipeline, []BindGroupEntry) (BindGroup, error) {
	if d.isLost() {
		return nil, ErrDeviceLost
	}
	return nil, ErrComputeUnsupported
}

// NewCommandBuffer implements Device. The returned command buffer accepts
// copies only.
func (d *MemoryDevice) NewCommandBuffer(label string) (CommandBuffer, error) {
	if d.isLost() {
		return nil, ErrDeviceLost
	}
	return &memoryCommandBuffer{dev: d, label: label}, nil
}

// Destroy implements Device. The device behaves as lost afterwards.
func (d *MemoryDevice) Destroy() {
	d.Lose()
}

func (d *MemoryDevice) isLost() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lost
}

func (d *MemoryDevice) buffer(buf Buffer) (*memoryBuffer, error) {
	mb, ok := buf.(*memoryBuffer)
	if !ok || mb.dev != d {
		return nil, ErrForeignResource
	}
	if d.isLost() {
		return nil, ErrDeviceLost
	}
	if mb.data == nil {
		return nil, ErrBufferDestroyed
	}
	return mb, nil
}

func (d *MemoryDevice) release(n uint64) {
	d.mu.Lock()
	d.allocated -= n
	d.mu.Unlock()
}

type memoryBuffer struct {
	dev   *MemoryDevice
	label string
	usage BufferUsage
	size  uint64
	data  []byte
}

func (b *memoryBuffer) Label() string      { return b.label }
func (b *memoryBuffer) Usage() BufferUsage { return b.usage }

func (b *memoryBuffer) Size() uint64 {
	if b.data == nil {
		return b.size
	}
	return uint64(len(b.data))
}

func (b *memoryBuffer) Destroy() {
	if b.data == nil {
		return
	}
	b.size = uint64(len(b.data))
	b.dev.release(b.size)
	b.data = nil
}

type memoryCopy struct {
	src, dst             *memoryBuffer
	srcOff, dstOff, size uint64
}

type memoryCommandBuffer struct {
	dev       *MemoryDevice
	label     string
	copies    []memoryCopy
	committed bool
}

func (c *memoryCommandBuffer) Dispatch(ComputePipeline, BindGroup, uint32, uint32, uint32) error {
	if c.committed {
		return ErrCommandBufferCommitted
	}
	return ErrComputeUnsupported
}

func (c *memoryCommandBuffer) CopyBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64) error {
	if c.committed {
		return ErrCommandBufferCommitted
	}
	s, err := c.dev.buffer(src)
	if err != nil {
		return err
	}
	d, err := c.dev.buffer(dst)
	if err != nil {
		return err
	}
	if srcOffset+size > s.Size() || dstOffset+size > d.Size() {
		return ErrInvalidBufferSize
	}
	c.copies = append(c.copies, memoryCopy{src: s, dst: d, srcOff: srcOffset, dstOff: dstOffset, size: size})
	return nil
}

func (c *memoryCommandBuffer) Commit() error {
	if c.committed {
		return ErrCommandBufferCommitted
	}
	c.committed = true
	if c.dev.isLost() {
		return ErrDeviceLost
	}
	for _, cp := range c.copies {
		if cp.src.data == nil || cp.dst.data == nil {
			return fmt.Errorf("%s: %w", c.label, ErrBufferDestroyed)
		}
		copy(cp.dst.data[cp.dstOff:cp.dstOff+cp.size], cp.src.data[cp.srcOff:cp.srcOff+cp.size])
	}
	c.copies = nil
	return nil
}

var _ Device = (*MemoryDevice)(nil)
