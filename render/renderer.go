// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsplat"
	"github.com/gogpu/gsplat/gpucore"
	"github.com/gogpu/gsplat/internal/blend"
	"github.com/gogpu/gsplat/internal/parallel"
)

// Renderer draws Gaussian clouds.
//
// A Renderer caches pipelines, GPU buffers and CPU scratch sized to the
// largest frame seen so far. It is not safe for concurrent use.
type Renderer struct {
	cfg  RenderConfig
	opts rendererOptions

	dev         gpucore.Device
	initialized bool
	pool        *parallel.WorkerPool
	cpuSort     *CPUSorter
	gpuSort     *GPUSorter
	compositor  *gpuCompositor
	uniforms    gpucore.Buffer

	stats RenderStats
	frame uint64

	splats   []splat
	keep     []bool
	layer    []float32
	layerImg *image.RGBA
}

// NewRenderer creates a renderer. Initialize must succeed before Render.
func NewRenderer(cfg RenderConfig, opts ...Option) *Renderer {
	var o rendererOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Renderer{cfg: cfg.Normalized(), opts: o}
}

// Initialize binds the renderer to dev.
//
// On a compute-capable device the composite pipeline is required and the
// sort pipelines are optional: if they fail to build the CPU sorter is used.
// A device without compute renders entirely on the CPU; it still holds the
// cloud mirror and the frame uniforms.
//
// Initialize may be called again to move to another device.
func (r *Renderer) Initialize(dev gpucore.Device) error {
	if dev == nil {
		return gsplat.ErrNoDevice
	}
	if r.initialized {
		r.releaseGPU()
		r.initialized = false
	}

	uniforms, err := dev.CreateBuffer(&gpucore.BufferDesc{
		Label: "gsplat_frame_uniforms",
		Size:  uniformAlign,
		Usage: gpucore.BufferUsageUniform | gpucore.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("render: frame uniforms: %w", err)
	}

	var (
		comp    *gpuCompositor
		gpuSort *GPUSorter
	)
	if dev.SupportsCompute() {
		comp, err = newGPUCompositor(dev)
		if err != nil {
			uniforms.Destroy()
			return fmt.Errorf("render: composite pipeline: %w", err)
		}
		gpuSort, err = NewGPUSorter(dev)
		if err != nil {
			gsplat.Logger().Warn("render: GPU sort unavailable, using CPU sort", "err", err)
			gpuSort = nil
		}
	}

	if r.pool == nil || !r.pool.IsRunning() {
		r.pool = parallel.NewWorkerPool(r.opts.workers)
		r.cpuSort = newPooledCPUSorter(r.pool)
	}
	r.dev = dev
	r.uniforms = uniforms
	r.compositor = comp
	r.gpuSort = gpuSort
	r.initialized = true

	gsplat.Logger().Info("render: initialized",
		"device", dev.Name(),
		"compute", dev.SupportsCompute(),
		"sorter", r.SortBackend(),
		"workers", r.pool.Workers())
	return nil
}

// Config returns the active configuration.
func (r *Renderer) Config() RenderConfig { return r.cfg }

// SetConfig replaces the configuration; it is normalized first.
func (r *Renderer) SetConfig(cfg RenderConfig) { r.cfg = cfg.Normalized() }

// Stats returns the statistics of the last Render call.
func (r *Renderer) Stats() RenderStats { return r.stats }

// SortBackend names the sorter the next frame will try first.
func (r *Renderer) SortBackend() string {
	switch {
	case !r.cfg.DepthSort:
		return "none"
	case r.opts.sorter != nil:
		return r.opts.sorter.Name()
	case r.gpuSort != nil:
		return r.gpuSort.Name()
	default:
		return "cpu"
	}
}

// Initialized reports whether Render may be called.
func (r *Renderer) Initialized() bool { return r.initialized }

// Render draws cloud as seen through view and proj over the content of
// target.
//
// The steps are: refresh the cloud mirror, sort back-to-front, project to
// screen-space splats, composite. cmd may be nil; when given it carries the
// composite pass on compute devices and is committed before Render returns
// in every case. An empty or nil cloud renders nothing and succeeds.
func (r *Renderer) Render(cloud *gsplat.Cloud, view, proj mgl32.Mat4, target RenderTarget, cmd gpucore.CommandBuffer) (err error) {
	if !r.initialized {
		return ErrNotInitialized
	}
	if target == nil {
		return ErrNilTarget
	}
	consumed := false
	defer func() {
		if cmd == nil || consumed {
			return
		}
		// A failed composite may have committed cmd already.
		cerr := cmd.Commit()
		if cerr != nil && !errors.Is(cerr, gpucore.ErrCommandBufferCommitted) && err == nil {
			err = fmt.Errorf("render: commit: %w", cerr)
		}
	}()

	start := time.Now()
	stats := RenderStats{SortBackend: "none", DrawBackend: "cpu"}
	dst, err := targetImage(target)
	if err != nil {
		return err
	}
	bgra, err := channelOrder(target.Format())
	if err != nil {
		return err
	}

	if cloud == nil || cloud.IsEmpty() || dst.Rect.Empty() {
		if cloud != nil {
			stats.Total = cloud.Len()
			stats.Culled = stats.Total
		}
		r.finish(&stats, start)
		return nil
	}
	stats.Total = cloud.Len()

	if err := cloud.SyncBuffer(r.dev); err != nil {
		return fmt.Errorf("render: upload gaussians: %w", err)
	}

	sortStart := time.Now()
	order, backend := r.sort(cloud, view)
	stats.SortTime = time.Since(sortStart)
	stats.SortBackend = backend

	drawStart := time.Now()
	k := r.cfg.Supersample
	lw, lh := dst.Rect.Dx()*k, dst.Rect.Dy()*k
	pr := newProjector(view, proj, lw, lh, r.cfg)
	splats := r.project(cloud.Data(), order, pr)
	stats.Visible = len(splats)
	stats.Culled = stats.Total - stats.Visible

	u := newFrameUniforms(view, proj, r.cfg, lw, lh, len(splats))
	if err := r.dev.WriteBuffer(r.uniforms, 0, u.Bytes()); err != nil {
		return fmt.Errorf("render: upload frame uniforms: %w", err)
	}

	layer := r.layerImage(lw, lh)
	if r.compositor != nil {
		if err := r.drawGPU(cmd, splats, layer); err != nil {
			gsplat.Logger().Warn("render: GPU composite failed, using CPU", "err", err)
			r.drawCPU(splats, layer)
		} else {
			consumed = true
			stats.DrawBackend = "gpu-compute"
		}
	} else {
		r.drawCPU(splats, layer)
	}
	present(dst, layer, bgra)
	stats.DrawTime = time.Since(drawStart)

	r.finish(&stats, start)
	return nil
}

func (r *Renderer) finish(stats *RenderStats, start time.Time) {
	r.frame++
	stats.FrameIndex = r.frame
	stats.TotalTime = time.Since(start)
	r.stats = *stats
	gsplat.Logger().Debug("render: frame", "stats", stats.String())
}

// sort returns the draw order and the name of the sorter that made it.
func (r *Renderer) sort(cloud *gsplat.Cloud, view mgl32.Mat4) ([]int, string) {
	if !r.cfg.DepthSort {
		return identityOrder(cloud.Len()), "none"
	}
	var first DepthSorter
	switch {
	case r.opts.sorter != nil:
		first = r.opts.sorter
	case r.gpuSort != nil:
		first = r.gpuSort
	}
	if first != nil {
		order, err := first.Sort(cloud, view)
		if err == nil && len(order) == cloud.Len() {
			return order, first.Name()
		}
		if err == nil {
			err = fmt.Errorf("%w: %s returned %d of %d indices", ErrFallbackToCPU, first.Name(), len(order), cloud.Len())
		}
		if errors.Is(err, ErrFallbackToCPU) {
			gsplat.Logger().Warn("render: sort fell back to CPU", "sorter", first.Name(), "err", err)
		} else {
			gsplat.Logger().Warn("render: sorter failed, using CPU", "sorter", first.Name(), "err", err)
		}
	}
	order, _ := r.cpuSort.Sort(cloud, view)
	return order, r.cpuSort.Name()
}

// project maps the Gaussians in draw order to splats, dropping culled
// ones while keeping the order.
func (r *Renderer) project(gs []gsplat.Gaussian, order []int, pr *projector) []splat {
	n := len(order)
	r.splats = slices.Grow(r.splats[:0], n)[:n]
	r.keep = slices.Grow(r.keep[:0], n)[:n]
	splats, keep := r.splats, r.keep
	r.pool.ParallelFor(n, 1024, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			splats[i], keep[i] = pr.project(&gs[order[i]])
		}
	})
	w := 0
	for i := range n {
		if keep[i] {
			splats[w] = splats[i]
			w++
		}
	}
	return splats[:w]
}

func (r *Renderer) layerImage(w, h int) *image.RGBA {
	if r.layerImg == nil || r.layerImg.Rect.Dx() != w || r.layerImg.Rect.Dy() != h {
		r.layerImg = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return r.layerImg
}

func (r *Renderer) drawCPU(splats []splat, layer *image.RGBA) {
	w, h := layer.Rect.Dx(), layer.Rect.Dy()
	n := w * h * 4
	r.layer = slices.Grow(r.layer[:0], n)[:n]
	rasterize(r.pool, r.layer, w, h, splats)
	blend.QuantizeF32(layer.Pix, r.layer)
}

func (r *Renderer) drawGPU(cmd gpucore.CommandBuffer, splats []splat, layer *image.RGBA) error {
	if cmd == nil {
		var err error
		if cmd, err = r.dev.NewCommandBuffer("gsplat_composite"); err != nil {
			return err
		}
	}
	return r.compositor.draw(cmd, r.uniforms, splats, layer.Rect.Dx(), layer.Rect.Dy(), layer.Pix)
}

// Close releases GPU resources and stops the worker pool. The device
// itself belongs to the caller. Render fails with ErrNotInitialized
// afterwards until Initialize is called again.
func (r *Renderer) Close() {
	r.releaseGPU()
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	r.cpuSort = nil
	r.initialized = false
}

func (r *Renderer) releaseGPU() {
	if r.compositor != nil {
		r.compositor.close()
		r.compositor = nil
	}
	if r.gpuSort != nil {
		r.gpuSort.Close()
		r.gpuSort = nil
	}
	if r.uniforms != nil {
		r.uniforms.Destroy()
		r.uniforms = nil
	}
	r.dev = nil
}
