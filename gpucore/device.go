package gpucore

// Device is a GPU (or GPU-like) device that owns buffers and compute
// pipelines and records command buffers.
//
// Implementations must be safe for concurrent use; the resources they hand
// out are not.
type Device interface {
	// Name returns a human readable adapter name for logging.
	Name() string

	// SupportsCompute reports whether compute pipelines can be created.
	SupportsCompute() bool

	// MaxBufferSize returns the largest buffer size in bytes the device
	// will allocate.
	MaxBufferSize() uint64

	// CreateBuffer allocates a buffer. The contents are zeroed.
	CreateBuffer(desc *BufferDesc) (Buffer, error)

	// WriteBuffer uploads data into buf at offset.
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// ReadBuffer copies len(dst) bytes from buf at offset into dst.
	// The buffer must have been created with BufferUsageMapRead.
	ReadBuffer(buf Buffer, offset uint64, dst []byte) error

	// CreateComputePipeline compiles a compute pipeline.
	CreateComputePipeline(desc *ComputePipelineDesc) (ComputePipeline, error)

	// CreateBindGroup binds buffers to a pipeline's group 0 layout.
	CreateBindGroup(p ComputePipeline, entries []BindGroupEntry) (BindGroup, error)

	// NewCommandBuffer starts recording a command buffer.
	NewCommandBuffer(label string) (CommandBuffer, error)

	// Destroy releases the device. Resources created from it become invalid.
	Destroy()
}

// Buffer is an opaque device buffer.
type Buffer interface {
	Label() string
	Size() uint64
	Usage() BufferUsage

	// Destroy releases the buffer. Calling Destroy twice is a no-op.
	Destroy()
}

// ComputePipeline is an opaque compiled compute pipeline.
type ComputePipeline interface {
	Label() string
	Destroy()
}

// BindGroup is an opaque set of buffer bindings for one pipeline.
type BindGroup interface {
	Destroy()
}

// CommandBuffer records GPU work and submits it once.
//
// Commands execute in recording order. Every Dispatch runs in its own compute
// pass, so all storage writes of one dispatch are visible to the next.
type CommandBuffer interface {
	// Dispatch records one compute pass running p with bind group g.
	Dispatch(p ComputePipeline, g BindGroup, x, y, z uint32) error

	// CopyBuffer records a buffer-to-buffer copy.
	CopyBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64) error

	// Commit submits the recorded work and waits for it to complete.
	// A command buffer can be committed only once.
	Commit() error
}
