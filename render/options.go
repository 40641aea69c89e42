// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

// Option configures a Renderer during creation.
//
// Example:
//
//	// Default: GPU bitonic sort when the device computes, CPU otherwise
//	r := render.NewRenderer(render.DefaultRenderConfig())
//
//	// Force the reference sorter on 4 workers
//	r := render.NewRenderer(cfg, render.WithSorter(render.NewCPUSorter()), render.WithWorkers(4))
type Option func(*rendererOptions)

// rendererOptions holds optional configuration for Renderer creation.
type rendererOptions struct {
	sorter  DepthSorter
	workers int
}

// WithSorter replaces the automatic sorter choice. A sorter failing with
// ErrFallbackToCPU still falls back to the CPU sorter.
func WithSorter(s DepthSorter) Option {
	return func(o *rendererOptions) {
		o.sorter = s
	}
}

// WithWorkers sets the size of the projection and rasterization worker
// pool. Zero or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *rendererOptions) {
		o.workers = n
	}
}
