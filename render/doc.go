// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render draws Gaussian clouds into pixel targets.
//
// # Key Principle
//
// render RECEIVES a GPU device from the host application, it does NOT create
// its own. The device arrives as a gpucore.Device: a hal-backed device from the
// gpu package, or gpucore.MemoryDevice for CPU-only hosts.
//
// # Frame Pipeline
//
//	cloud ──► SyncBuffer ──► depth sort ──► projection ──► composite ──► target
//	             (mirror)    (GPU bitonic    (EWA 2D        (GPU compute
//	                          or CPU)         covariance)     or CPU bands)
//
// Every stage that can run on the GPU has a CPU twin. GPU failures are logged
// at Warn and the frame continues on the CPU; they never surface from Render.
//
// # Core Types
//
//   - Renderer: executes one frame per Render call
//   - RenderConfig / RenderStats: per-frame configuration and observation
//   - DepthSorter: back-to-front ordering strategy (CPUSorter, GPUSorter)
//   - RenderTarget: where pixels go (PixmapTarget)
//   - Camera: view/projection source driven by campath
//
// # Example
//
//	dev := gpucore.NewMemoryDevice()
//	r := render.NewRenderer(render.DefaultRenderConfig())
//	if err := r.Initialize(dev); err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	cam := render.NewCamera()
//	target := render.NewPixmapTarget(800, 600)
//	err := r.Render(cloud, cam.View(), cam.Projection(target.Aspect()), target, nil)
//
// # Thread Safety
//
// Renderer is not safe for concurrent use. Internally it fans projection and
// rasterization out to a worker pool.
package render
