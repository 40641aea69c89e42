//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gsplat/gpucore"
)

// CreateComputePipeline implements gpucore.Device.
//
// The pipeline owns its shader module and layouts. With Options.SPIRV the
// WGSL is compiled by naga first; otherwise the backend receives WGSL.
func (d *HALDevice) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipeline, error) {
	if desc == nil || desc.WGSL == "" {
		return nil, fmt.Errorf("gpu: pipeline: empty shader")
	}
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	entry := desc.EntryPoint
	if entry == "" {
		entry = "main"
	}

	src := hal.ShaderSource{WGSL: desc.WGSL}
	if d.spirv {
		words, err := CompileSPIRV(desc.WGSL)
		if err != nil {
			return nil, fmt.Errorf("gpu: pipeline %s: %w", desc.Label, err)
		}
		src = hal.ShaderSource{SPIRV: words}
	}

	p := &halPipeline{dev: d, label: desc.Label}
	var err error
	p.module, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{Label: desc.Label, Source: src})
	if err != nil {
		return nil, fmt.Errorf("gpu: compile %s shader: %w", desc.Label, err)
	}

	entries := make([]gputypes.BindGroupLayoutEntry, len(desc.Bindings))
	for i, b := range desc.Bindings {
		typ, err := halBindingType(b.Type)
		if err != nil {
			p.Destroy()
			return nil, fmt.Errorf("gpu: pipeline %s binding %d: %w", desc.Label, b.Binding, err)
		}
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    b.Binding,
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: typ},
		}
	}
	p.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_bind_layout",
		Entries: entries,
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create %s bind group layout: %w", desc.Label, err)
	}

	p.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: desc.Label + "_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create %s pipeline layout: %w", desc.Label, err)
	}

	p.pipeline, err = d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: desc.Label, Layout: p.pipeLayout,
		Compute: hal.ComputeState{Module: p.module, EntryPoint: entry},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("gpu: create %s compute pipeline: %w", desc.Label, err)
	}
	slogger().Debug("gpu: pipeline created", "label", desc.Label, "bindings", len(entries))
	return p, nil
}

// CreateBindGroup implements gpucore.Device.
func (d *HALDevice) CreateBindGroup(pipe gpucore.ComputePipeline, entries []gpucore.BindGroupEntry) (gpucore.BindGroup, error) {
	p, ok := pipe.(*halPipeline)
	if !ok || p.dev != d {
		return nil, gpucore.ErrForeignResource
	}
	if p.pipeline == nil {
		return nil, fmt.Errorf("gpu: bind group for destroyed pipeline %s", p.label)
	}
	bound := make([]gputypes.BindGroupEntry, len(entries))
	for i, e := range entries {
		b, err := d.buffer(e.Buffer)
		if err != nil {
			return nil, err
		}
		size := e.RangeSize()
		if size == 0 || e.Offset+size > b.size {
			return nil, gpucore.ErrInvalidBufferSize
		}
		bound[i] = gputypes.BindGroupEntry{
			Binding:  e.Binding,
			Resource: gputypes.BufferBinding{Buffer: b.buf.NativeHandle(), Offset: e.Offset, Size: size},
		}
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.label + "_bind_group",
		Layout:  p.bindLayout,
		Entries: bound,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s bind group: %w", p.label, err)
	}
	return &halBindGroup{dev: d, group: bg}, nil
}

func halBindingType(t gpucore.BindingType) (gputypes.BufferBindingType, error) {
	switch t {
	case gpucore.BindingTypeUniformBuffer:
		return gputypes.BufferBindingTypeUniform, nil
	case gpucore.BindingTypeStorageBuffer:
		return gputypes.BufferBindingTypeStorage, nil
	case gpucore.BindingTypeReadOnlyStorageBuffer:
		return gputypes.BufferBindingTypeReadOnlyStorage, nil
	default:
		return 0, fmt.Errorf("unknown binding type %d", t)
	}
}

type halPipeline struct {
	dev        *HALDevice
	label      string
	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

func (p *halPipeline) Label() string { return p.label }

// Destroy releases whatever was created, in reverse order.
func (p *halPipeline) Destroy() {
	live := p.dev.checkLive() == nil
	dev := p.dev.device
	if p.pipeline != nil && live {
		dev.DestroyComputePipeline(p.pipeline)
	}
	if p.pipeLayout != nil && live {
		dev.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil && live {
		dev.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.module != nil && live {
		dev.DestroyShaderModule(p.module)
	}
	p.pipeline, p.pipeLayout, p.bindLayout, p.module = nil, nil, nil, nil
}

type halBindGroup struct {
	dev   *HALDevice
	group hal.BindGroup
}

func (g *halBindGroup) Destroy() {
	if g.group == nil {
		return
	}
	if g.dev.checkLive() == nil {
		g.dev.device.DestroyBindGroup(g.group)
	}
	g.group = nil
}

// halOp is one recorded command. A nil pipe means a copy.
type halOp struct {
	pipe    *halPipeline
	group   *halBindGroup
	x, y, z uint32

	src, dst       *halBuffer
	srcOff, dstOff uint64
	size           uint64
}

// halCommandBuffer records lazily: Dispatch and CopyBuffer only validate and
// append, Commit encodes everything into one hal encoder. An abandoned
// command buffer therefore holds no driver objects.
type halCommandBuffer struct {
	dev       *HALDevice
	label     string
	ops       []halOp
	committed bool
}

// Dispatch implements gpucore.CommandBuffer.
func (c *halCommandBuffer) Dispatch(pipe gpucore.ComputePipeline, group gpucore.BindGroup, x, y, z uint32) error {
	if c.committed {
		return gpucore.ErrCommandBufferCommitted
	}
	p, ok := pipe.(*halPipeline)
	if !ok || p.dev != c.dev {
		return gpucore.ErrForeignResource
	}
	g, ok := group.(*halBindGroup)
	if !ok || g.dev != c.dev {
		return gpucore.ErrForeignResource
	}
	if p.pipeline == nil || g.group == nil {
		return fmt.Errorf("gpu: dispatch %s: destroyed pipeline or bind group", p.label)
	}
	if x == 0 || y == 0 || z == 0 {
		return nil
	}
	c.ops = append(c.ops, halOp{pipe: p, group: g, x: x, y: y, z: z})
	return nil
}

// CopyBuffer implements gpucore.CommandBuffer.
func (c *halCommandBuffer) CopyBuffer(src gpucore.Buffer, srcOffset uint64, dst gpucore.Buffer, dstOffset uint64, size uint64) error {
	if c.committed {
		return gpucore.ErrCommandBufferCommitted
	}
	s, err := c.dev.buffer(src)
	if err != nil {
		return err
	}
	d, err := c.dev.buffer(dst)
	if err != nil {
		return err
	}
	if size == 0 || srcOffset+size > s.size || dstOffset+size > d.size ||
		size%4 != 0 || srcOffset%4 != 0 || dstOffset%4 != 0 {
		return gpucore.ErrInvalidBufferSize
	}
	c.ops = append(c.ops, halOp{src: s, dst: d, srcOff: srcOffset, dstOff: dstOffset, size: size})
	return nil
}

// Commit implements gpucore.CommandBuffer. It submits one hal command buffer
// and waits on a fence for at most fenceTimeout.
func (c *halCommandBuffer) Commit() error {
	if c.committed {
		return gpucore.ErrCommandBufferCommitted
	}
	c.committed = true
	if err := c.dev.checkLive(); err != nil {
		return err
	}
	if len(c.ops) == 0 {
		return nil
	}
	device, queue := c.dev.device, c.dev.queue

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: c.label + "_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(c.label); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}
	for _, op := range c.ops {
		if op.pipe == nil {
			encoder.CopyBufferToBuffer(op.src.buf, op.dst.buf, []hal.BufferCopy{
				{SrcOffset: op.srcOff, DstOffset: op.dstOff, Size: op.size},
			})
			continue
		}
		// One pass per dispatch: pass boundaries order storage writes.
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: op.pipe.label + "_pass"})
		pass.SetPipeline(op.pipe.pipeline)
		pass.SetBindGroup(0, op.group.group, nil)
		pass.Dispatch(op.x, op.y, op.z)
		pass.End()
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	fence, err := device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer device.DestroyFence(fence)
	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit %s: %w", c.label, err)
	}
	ok, err := device.Wait(fence, 1, fenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("gpu: wait for %s: ok=%v err=%w", c.label, ok, err)
	}
	slogger().Debug("gpu: committed", "label", c.label, "ops", len(c.ops))
	return nil
}

var (
	_ gpucore.ComputePipeline = (*halPipeline)(nil)
	_ gpucore.BindGroup       = (*halBindGroup)(nil)
	_ gpucore.CommandBuffer   = (*halCommandBuffer)(nil)
)
