package gpucore

import "fmt"

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageMapRead indicates the buffer can be read back to the host.
	BufferUsageMapRead BufferUsage = 1 << 0

	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 2

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 3

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 6

	// BufferUsageStorage indicates the buffer can be used as a storage buffer.
	BufferUsageStorage BufferUsage = 1 << 7
)

// String returns a compact description of the usage flags.
func (u BufferUsage) String() string {
	if u == 0 {
		return "None"
	}
	names := []struct {
		flag BufferUsage
		name string
	}{
		{BufferUsageMapRead, "MapRead"},
		{BufferUsageCopySrc, "CopySrc"},
		{BufferUsageCopyDst, "CopyDst"},
		{BufferUsageUniform, "Uniform"},
		{BufferUsageStorage, "Storage"},
	}
	s := ""
	for _, n := range names {
		if u&n.flag == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += n.name
	}
	if s == "" {
		return fmt.Sprintf("BufferUsage(%d)", uint32(u))
	}
	return s
}

// BindingType specifies the type of a shader buffer binding.
type BindingType uint32

// Binding types.
const (
	// BindingTypeUniformBuffer is a uniform buffer binding.
	BindingTypeUniformBuffer BindingType = iota + 1

	// BindingTypeStorageBuffer is a storage buffer binding (read-write).
	BindingTypeStorageBuffer

	// BindingTypeReadOnlyStorageBuffer is a read-only storage buffer binding.
	BindingTypeReadOnlyStorageBuffer
)

// BufferDesc describes a buffer to create.
type BufferDesc struct {
	// Label is an optional debug label.
	Label string

	// Size is the buffer size in bytes. Must be positive.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage BufferUsage
}

// BindingLayout describes one buffer binding of a compute pipeline.
type BindingLayout struct {
	// Binding is the @binding index in the shader's group 0.
	Binding uint32

	// Type is the type of buffer bound at this index.
	Type BindingType
}

// ComputePipelineDesc describes a compute pipeline.
type ComputePipelineDesc struct {
	// Label is an optional debug label.
	Label string

	// WGSL is the shader source.
	WGSL string

	// EntryPoint is the name of the compute entry point. Defaults to "main".
	EntryPoint string

	// Bindings lists the buffer bindings of bind group 0.
	Bindings []BindingLayout
}

// BindGroupEntry binds a buffer range to a binding index.
type BindGroupEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Buffer is the buffer to bind.
	Buffer Buffer

	// Offset is the offset into the buffer.
	Offset uint64

	// Size is the size of the bound range. Use 0 to bind the whole buffer
	// from Offset.
	Size uint64
}

// RangeSize resolves a zero Size to the rest of the buffer.
func (e BindGroupEntry) RangeSize() uint64 {
	if e.Size != 0 || e.Buffer == nil {
		return e.Size
	}
	return e.Buffer.Size() - e.Offset
}
