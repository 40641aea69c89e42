// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gsplat"
	"github.com/gogpu/gsplat/gpucore"
)

// splatRecordSize is the size of one Splat in composite.wgsl.
const splatRecordSize = 64

// gpuCompositor runs composite.wgsl: one thread per layer pixel, each
// walking the sorted splat list.
type gpuCompositor struct {
	dev  gpucore.Device
	pipe gpucore.ComputePipeline

	splats  gpucore.Buffer
	pixels  gpucore.Buffer
	staging gpucore.Buffer
	scratch []byte
}

func newGPUCompositor(dev gpucore.Device) (*gpuCompositor, error) {
	desc := compositePipelineDesc
	pipe, err := dev.CreateComputePipeline(&desc)
	if err != nil {
		return nil, err
	}
	return &gpuCompositor{dev: dev, pipe: pipe}, nil
}

// draw records the composite pass into cmd, commits it and reads the
// premultiplied RGBA8 result into dst (width*height*4 bytes, tightly packed).
// uniforms must already hold the frame block for this layer.
func (c *gpuCompositor) draw(cmd gpucore.CommandBuffer, uniforms gpucore.Buffer, splats []splat, width, height int, dst []byte) error {
	c.scratch = encodeSplats(c.scratch[:0], splats)
	if len(c.scratch) == 0 {
		c.scratch = make([]byte, splatRecordSize)
	}
	var err error
	if c.splats, err = c.ensure(c.splats, "gsplat_splats", uint64(len(c.scratch)),
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst); err != nil {
		return err
	}
	pixelBytes := uint64(width) * uint64(height) * 4
	if c.pixels, err = c.ensure(c.pixels, "gsplat_pixels", pixelBytes,
		gpucore.BufferUsageStorage|gpucore.BufferUsageCopySrc); err != nil {
		return err
	}
	if c.staging, err = c.ensure(c.staging, "gsplat_pixels_staging", pixelBytes,
		gpucore.BufferUsageMapRead|gpucore.BufferUsageCopyDst); err != nil {
		return err
	}
	if err := c.dev.WriteBuffer(c.splats, 0, c.scratch); err != nil {
		return fmt.Errorf("upload splats: %w", err)
	}

	group, err := c.dev.CreateBindGroup(c.pipe, []gpucore.BindGroupEntry{
		{Binding: 0, Buffer: uniforms, Offset: 0, Size: frameUniformsSize},
		{Binding: 1, Buffer: c.splats, Offset: 0, Size: uint64(len(c.scratch))},
		{Binding: 2, Buffer: c.pixels, Offset: 0, Size: pixelBytes},
	})
	if err != nil {
		return fmt.Errorf("composite bind group: %w", err)
	}
	defer group.Destroy()

	gx := uint32((width + compositeWorkgroupSize - 1) / compositeWorkgroupSize)  //nolint:gosec // layer sizes are small
	gy := uint32((height + compositeWorkgroupSize - 1) / compositeWorkgroupSize) //nolint:gosec // layer sizes are small
	if err := cmd.Dispatch(c.pipe, group, gx, gy, 1); err != nil {
		return fmt.Errorf("composite dispatch: %w", err)
	}
	if err := cmd.CopyBuffer(c.pixels, 0, c.staging, 0, pixelBytes); err != nil {
		return fmt.Errorf("composite readback copy: %w", err)
	}
	if err := cmd.Commit(); err != nil {
		return fmt.Errorf("composite submit: %w", err)
	}
	return c.dev.ReadBuffer(c.staging, 0, dst[:pixelBytes])
}

// ensure returns buf if it holds size bytes, otherwise a new buffer.
func (c *gpuCompositor) ensure(buf gpucore.Buffer, label string, size uint64, usage gpucore.BufferUsage) (gpucore.Buffer, error) {
	if buf != nil && buf.Size() >= size {
		return buf, nil
	}
	if buf != nil {
		buf.Destroy()
	}
	nb, err := c.dev.CreateBuffer(&gpucore.BufferDesc{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	gsplat.Logger().Debug("render: buffer allocated", "label", label, "bytes", size)
	return nb, nil
}

func (c *gpuCompositor) close() {
	for _, b := range []gpucore.Buffer{c.splats, c.pixels, c.staging} {
		if b != nil {
			b.Destroy()
		}
	}
	c.splats, c.pixels, c.staging = nil, nil, nil
	if c.pipe != nil {
		c.pipe.Destroy()
		c.pipe = nil
	}
}

// encodeSplats appends the composite.wgsl layout of splats to dst.
func encodeSplats(dst []byte, splats []splat) []byte {
	f := func(v float32) { dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v)) }
	for i := range splats {
		s := &splats[i]
		f(s.x)
		f(s.y)
		f(s.conicA)
		f(s.conicB)
		f(s.conicC)
		f(0)
		f(0)
		f(0)
		f(s.r)
		f(s.g)
		f(s.b)
		f(s.alpha)
		f(float32(s.x0))
		f(float32(s.y0))
		f(float32(s.x1))
		f(float32(s.y1))
	}
	return dst
}
