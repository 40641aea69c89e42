// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"cmp"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsplat"
	"github.com/gogpu/gsplat/internal/parallel"
)

// DepthSorter orders a cloud back-to-front for one view.
//
// Implementations must return a permutation of [0, cloud.Len()) in which
// depth never increases, with ties broken by ascending index, so that every
// sorter yields the same total order.
type DepthSorter interface {
	Name() string
	Sort(cloud *gsplat.Cloud, view mgl32.Mat4) ([]int, error)
}

// Depth returns the distance of p in front of the camera along its forward
// axis: -(view·[p,1]).z for a right-handed view matrix.
func Depth(view mgl32.Mat4, p mgl32.Vec3) float32 {
	return -viewZ(view, p)
}

func viewZ(view mgl32.Mat4, p mgl32.Vec3) float32 {
	return view[2]*p[0] + view[6]*p[1] + view[10]*p[2] + view[14]
}

// sortKey is the ascending sort key of a position: its view-space z,
// clamped to finite range. NaN sorts first, like an infinitely far splat.
// The depth-key shader computes the same value.
func sortKey(view mgl32.Mat4, p mgl32.Vec3) float32 {
	z := viewZ(view, p)
	switch {
	case z != z:
		return -math.MaxFloat32
	case z < -math.MaxFloat32:
		return -math.MaxFloat32
	case z > math.MaxFloat32:
		return math.MaxFloat32
	}
	return z
}

// CPUSorter is the reference sorter: depth keys computed in parallel, then
// a comparison sort on (key, index).
type CPUSorter struct {
	pool *parallel.WorkerPool
	keys []float32
}

// NewCPUSorter returns a sorter that computes keys on the calling goroutine.
// The renderer builds its own sorter sharing the frame worker pool.
func NewCPUSorter() *CPUSorter {
	return &CPUSorter{}
}

func newPooledCPUSorter(pool *parallel.WorkerPool) *CPUSorter {
	return &CPUSorter{pool: pool}
}

// Name returns "cpu".
func (s *CPUSorter) Name() string { return "cpu" }

// Sort returns the back-to-front permutation. It never fails.
func (s *CPUSorter) Sort(cloud *gsplat.Cloud, view mgl32.Mat4) ([]int, error) {
	gs := cloud.Data()
	n := len(gs)
	keys := slices.Grow(s.keys[:0], n)[:n]
	fill := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			keys[i] = sortKey(view, gs[i].Position)
		}
	}
	if s.pool != nil {
		s.pool.ParallelFor(n, 4096, fill)
	} else {
		fill(0, n)
	}
	s.keys = keys

	order := identityOrder(n)
	slices.SortFunc(order, func(a, b int) int {
		if c := cmp.Compare(keys[a], keys[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return order, nil
}

// identityOrder is the draw order when sorting is disabled.
func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

var _ DepthSorter = (*CPUSorter)(nil)
