package gpucore

import (
	"bytes"
	"errors"
	"testing"
)

func TestMemoryDeviceCapabilities(t *testing.T) {
	dev := NewMemoryDevice()

	if dev.SupportsCompute() {
		t.Error("MemoryDevice should not support compute")
	}
	if dev.MaxBufferSize() != DefaultMaxBufferSize {
		t.Errorf("MaxBufferSize = %d, want %d", dev.MaxBufferSize(), DefaultMaxBufferSize)
	}
	if dev.Name() == "" {
		t.Error("Name should not be empty")
	}
	if _, err := dev.CreateComputePipeline(&ComputePipelineDesc{Label: "x"}); !errors.Is(err, ErrComputeUnsupported) {
		t.Errorf("CreateComputePipeline err = %v, want ErrComputeUnsupported", err)
	}
}

func TestMemoryDeviceWriteRead(t *testing.T) {
	dev := NewMemoryDevice()
	buf, err := dev.CreateBuffer(&BufferDesc{Label: "data", Size: 16, Usage: BufferUsageStorage | BufferUsageCopyDst})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	defer buf.Destroy()

	if buf.Label() != "data" || buf.Size() != 16 {
		t.Errorf("buffer = %q/%d, want data/16", buf.Label(), buf.Size())
	}

	want := []byte{1, 2, 3, 4}
	if err := dev.WriteBuffer(buf, 4, want); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	got := make([]byte, 4)
	if err := dev.ReadBuffer(buf, 4, got); err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadBuffer = %v, want %v", got, want)
	}

	if err := dev.WriteBuffer(buf, 14, want); !errors.Is(err, ErrInvalidBufferSize) {
		t.Errorf("overflowing write err = %v, want ErrInvalidBufferSize", err)
	}
}

func TestMemoryDeviceInvalidSizes(t *testing.T) {
	dev := NewMemoryDevice(WithMaxBufferSize(64))

	tests := []struct {
		name string
		desc *BufferDesc
	}{
		{"nil", nil},
		{"zero", &BufferDesc{Size: 0}},
		{"too large", &BufferDesc{Size: 65}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := dev.CreateBuffer(tt.desc); !errors.Is(err, ErrInvalidBufferSize) {
				t.Errorf("err = %v, want ErrInvalidBufferSize", err)
			}
		})
	}
}

func TestMemoryDeviceBudget(t *testing.T) {
	dev := NewMemoryDevice(WithMemoryBudget(100))

	a, err := dev.CreateBuffer(&BufferDesc{Size: 60})
	if err != nil {
		t.Fatalf("first allocation: %v", err)
	}
	if _, err := dev.CreateBuffer(&BufferDesc{Size: 60}); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("second allocation err = %v, want ErrOutOfMemory", err)
	}
	if dev.Allocated() != 60 {
		t.Errorf("Allocated = %d, want 60", dev.Allocated())
	}

	a.Destroy()
	a.Destroy() // double destroy is a no-op
	if dev.Allocated() != 0 {
		t.Errorf("Allocated after Destroy = %d, want 0", dev.Allocated())
	}
	if _, err := dev.CreateBuffer(&BufferDesc{Size: 60}); err != nil {
		t.Errorf("allocation after release: %v", err)
	}
	if err := dev.WriteBuffer(a, 0, []byte{1}); !errors.Is(err, ErrBufferDestroyed) {
		t.Errorf("write to destroyed buffer err = %v, want ErrBufferDestroyed", err)
	}
}

func TestMemoryDeviceLost(t *testing.T) {
	dev := NewMemoryDevice()
	buf, err := dev.CreateBuffer(&BufferDesc{Size: 8})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}

	dev.Lose()

	if _, err := dev.CreateBuffer(&BufferDesc{Size: 8}); !errors.Is(err, ErrDeviceLost) {
		t.Errorf("CreateBuffer err = %v, want ErrDeviceLost", err)
	}
	if err := dev.WriteBuffer(buf, 0, []byte{1}); !errors.Is(err, ErrDeviceLost) {
		t.Errorf("WriteBuffer err = %v, want ErrDeviceLost", err)
	}
	if _, err := dev.NewCommandBuffer("x"); !errors.Is(err, ErrDeviceLost) {
		t.Errorf("NewCommandBuffer err = %v, want ErrDeviceLost", err)
	}
}

func TestMemoryCommandBufferCopy(t *testing.T) {
	dev := NewMemoryDevice()
	src, _ := dev.CreateBuffer(&BufferDesc{Size: 8, Usage: BufferUsageCopySrc})
	dst, _ := dev.CreateBuffer(&BufferDesc{Size: 8, Usage: BufferUsageCopyDst | BufferUsageMapRead})
	if err := dev.WriteBuffer(src, 0, []byte{9, 8, 7, 6, 5, 4, 3, 2}); err != nil {
		t.Fatal(err)
	}

	cmd, err := dev.NewCommandBuffer("copy")
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.CopyBuffer(src, 2, dst, 0, 4); err != nil {
		t.Fatalf("CopyBuffer: %v", err)
	}

	// Copies are deferred until Commit.
	got := make([]byte, 4)
	_ = dev.ReadBuffer(dst, 0, got)
	if !bytes.Equal(got, []byte{0, 0, 0, 0}) {
		t.Errorf("before Commit dst = %v, want zeros", got)
	}

	if err := cmd.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	_ = dev.ReadBuffer(dst, 0, got)
	if !bytes.Equal(got, []byte{7, 6, 5, 4}) {
		t.Errorf("after Commit dst = %v, want [7 6 5 4]", got)
	}

	if err := cmd.Commit(); !errors.Is(err, ErrCommandBufferCommitted) {
		t.Errorf("second Commit err = %v, want ErrCommandBufferCommitted", err)
	}
	if err := cmd.CopyBuffer(src, 0, dst, 0, 1); !errors.Is(err, ErrCommandBufferCommitted) {
		t.Errorf("record after Commit err = %v, want ErrCommandBufferCommitted", err)
	}
	if err := cmd.Dispatch(nil, nil, 1, 1, 1); !errors.Is(err, ErrCommandBufferCommitted) {
		t.Errorf("Dispatch after Commit err = %v, want ErrCommandBufferCommitted", err)
	}
}

func TestMemoryDeviceForeignBuffer(t *testing.T) {
	a := NewMemoryDevice()
	b := NewMemoryDevice()
	buf, _ := a.CreateBuffer(&BufferDesc{Size: 4})

	if err := b.WriteBuffer(buf, 0, []byte{1}); !errors.Is(err, ErrForeignResource) {
		t.Errorf("err = %v, want ErrForeignResource", err)
	}
}

func TestBufferUsageString(t *testing.T) {
	tests := []struct {
		usage BufferUsage
		want  string
	}{
		{0, "None"},
		{BufferUsageStorage, "Storage"},
		{BufferUsageCopySrc | BufferUsageMapRead, "MapRead|CopySrc"},
		{BufferUsage(1 << 20), "BufferUsage(1048576)"},
	}
	for _, tt := range tests {
		if got := tt.usage.String(); got != tt.want {
			t.Errorf("BufferUsage(%d).String() = %q, want %q", uint32(tt.usage), got, tt.want)
		}
	}
}

func TestBindGroupEntryRangeSize(t *testing.T) {
	dev := NewMemoryDevice()
	buf, _ := dev.CreateBuffer(&BufferDesc{Size: 32})

	e := BindGroupEntry{Buffer: buf, Offset: 8}
	if got := e.RangeSize(); got != 24 {
		t.Errorf("RangeSize = %d, want 24", got)
	}
	e.Size = 4
	if got := e.RangeSize(); got != 4 {
		t.Errorf("RangeSize = %d, want 4", got)
	}
}
