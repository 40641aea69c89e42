// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// frameUniformsSize is the std140 size of FrameUniforms in composite.wgsl.
const frameUniformsSize = 240

// uniformAlign is the minimum uniform-buffer offset alignment on all
// supported backends.
const uniformAlign = 256

// FrameUniforms is the per-frame constant block shared with the shaders.
type FrameUniforms struct {
	View        mgl32.Mat4
	Proj        mgl32.Mat4
	ViewProj    mgl32.Mat4
	CameraPos   mgl32.Vec3
	SplatScale  float32
	OpacityMult float32
	SHDegree    uint32
	Width       uint32
	Height      uint32
	Count       uint32
	Padded      uint32
}

// newFrameUniforms fills the block for one frame. The camera position is
// the translation column of the inverse view matrix.
func newFrameUniforms(view, proj mgl32.Mat4, cfg RenderConfig, width, height, count int) FrameUniforms {
	return FrameUniforms{
		View:        view,
		Proj:        proj,
		ViewProj:    proj.Mul4(view),
		CameraPos:   cameraPosition(view),
		SplatScale:  cfg.SplatScale,
		OpacityMult: cfg.OpacityMultiplier,
		SHDegree:    uint32(cfg.shDegree()),  //nolint:gosec // clamped to [0,3]
		Width:       uint32(width),           //nolint:gosec // target sizes are small
		Height:      uint32(height),          //nolint:gosec // target sizes are small
		Count:       uint32(count),           //nolint:gosec // count < 2^32 splats
		Padded:      nextPow2(uint32(count)), //nolint:gosec // count < 2^32 splats
	}
}

func cameraPosition(view mgl32.Mat4) mgl32.Vec3 {
	return view.Inv().Col(3).Vec3()
}

// Bytes encodes the block in the WGSL layout.
func (u *FrameUniforms) Bytes() []byte {
	buf := make([]byte, 0, frameUniformsSize)
	f := func(v float32) { buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v)) }
	w := func(v uint32) { buf = binary.LittleEndian.AppendUint32(buf, v) }
	for _, m := range []*mgl32.Mat4{&u.View, &u.Proj, &u.ViewProj} {
		for _, v := range m {
			f(v)
		}
	}
	f(u.CameraPos[0])
	f(u.CameraPos[1])
	f(u.CameraPos[2])
	f(u.SplatScale)
	f(u.OpacityMult)
	w(u.SHDegree)
	w(u.Width)
	w(u.Height)
	w(u.Count)
	w(u.Padded)
	w(0)
	w(0)
	return buf
}

func nextPow2(n uint32) uint32 {
	p := uint32(1)
	for p < n {
		p <<= 1
	}
	return p
}

