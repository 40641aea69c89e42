package gpucore

import "errors"

// Device errors.
var (
	// ErrOutOfMemory is returned when an allocation exceeds the device budget.
	ErrOutOfMemory = errors.New("gpucore: out of device memory")

	// ErrDeviceLost is returned by every operation on a lost device.
	ErrDeviceLost = errors.New("gpucore: device lost")

	// ErrComputeUnsupported is returned when compute work is requested from a
	// device that cannot run it.
	ErrComputeUnsupported = errors.New("gpucore: compute not supported")

	// ErrInvalidBufferSize is returned for zero-sized buffers, buffers larger
	// than MaxBufferSize and out-of-range accesses.
	ErrInvalidBufferSize = errors.New("gpucore: invalid buffer size")

	// ErrBufferDestroyed is returned when a destroyed buffer is used.
	ErrBufferDestroyed = errors.New("gpucore: buffer destroyed")

	// ErrCommandBufferCommitted is returned when recording into or committing
	// a command buffer that was already committed.
	ErrCommandBufferCommitted = errors.New("gpucore: command buffer already committed")

	// ErrForeignResource is returned when a resource created by another
	// device is passed in.
	ErrForeignResource = errors.New("gpucore: resource belongs to another device")
)
