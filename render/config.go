// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"time"

	"github.com/gogpu/gsplat"
)

// MaxSupersample is the largest accepted Supersample factor.
const MaxSupersample = 4

// RenderConfig controls a single Render call. It is copied by value.
type RenderConfig struct {
	// DepthSort orders splats back-to-front before drawing. Disabling it
	// draws in cloud order, which is only correct for opaque content.
	DepthSort bool

	// AntiAliasing compensates opacity for the screen-space low-pass
	// filter so small splats do not look too dense.
	AntiAliasing bool

	// Supersample renders at k times the target resolution and
	// downsamples. Values are clamped to [1, MaxSupersample].
	Supersample int

	// SphericalHarmonics enables view-dependent color up to SHDegree.
	SphericalHarmonics bool
	SHDegree           int

	// SplatScale multiplies every Gaussian's extent.
	SplatScale float32

	// OpacityMultiplier scales every Gaussian's opacity before clamping.
	OpacityMultiplier float32

	// MinOpacity culls splats whose effective opacity is below it.
	MinOpacity float32

	// FrustumCulling drops splats outside the near and far planes or entirely
	// off-screen. Splats behind the camera are always dropped.
	FrustumCulling bool
}

// DefaultRenderConfig returns the configuration used by NewRenderer when
// none is given: sorted, anti-aliased, full SH, 1/255 opacity cutoff.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		DepthSort:          true,
		AntiAliasing:       true,
		Supersample:        1,
		SphericalHarmonics: true,
		SHDegree:           gsplat.MaxSHDegree,
		SplatScale:         1,
		OpacityMultiplier:  1,
		MinOpacity:         1.0 / 255,
		FrustumCulling:     true,
	}
}

// Normalized returns a copy with every field clamped to its valid range.
func (c RenderConfig) Normalized() RenderConfig {
	c.Supersample = min(max(c.Supersample, 1), MaxSupersample)
	c.SHDegree = min(max(c.SHDegree, 0), gsplat.MaxSHDegree)
	if !(c.SplatScale > 0) {
		c.SplatScale = 1
	}
	if !(c.OpacityMultiplier > 0) {
		c.OpacityMultiplier = 1
	}
	if !(c.MinOpacity >= 0) {
		c.MinOpacity = 0
	}
	return c
}

// shDegree is the degree actually evaluated.
func (c RenderConfig) shDegree() int {
	if !c.SphericalHarmonics {
		return 0
	}
	return c.SHDegree
}

// RenderStats describes the last rendered frame.
type RenderStats struct {
	Total   int // Gaussians in the cloud
	Visible int // splats submitted for compositing
	Culled  int // Total - Visible

	SortTime  time.Duration
	DrawTime  time.Duration
	TotalTime time.Duration

	// FrameIndex increases by one on every successful Render call.
	FrameIndex uint64

	// SortBackend names the sorter that produced the order ("cpu",
	// "gpu-bitonic", "none" when sorting is disabled).
	SortBackend string

	// DrawBackend is "gpu-compute" or "cpu".
	DrawBackend string
}

// String returns a one-line summary.
func (s RenderStats) String() string {
	return fmt.Sprintf("frame %d: %d/%d visible, sort %v (%s), draw %v (%s), total %v",
		s.FrameIndex, s.Visible, s.Total, s.SortTime, s.SortBackend, s.DrawTime, s.DrawBackend, s.TotalTime)
}
