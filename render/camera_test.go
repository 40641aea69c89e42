// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsplat/campath"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-4 }

func TestCameraViewLooksDownNegativeZ(t *testing.T) {
	cam := NewCamera()
	cam.SetPosition(mgl32.Vec3{3, 1, -2})
	cam.LookAt(mgl32.Vec3{0, 1, 2})

	p := cam.View().Mul4x1(mgl32.Vec4{0, 1, 2, 1})
	if !near(p[0], 0) || !near(p[1], 0) || !near(p[2], -5) {
		t.Errorf("target in view space = %v, want (0,0,-5)", p)
	}
	if got := cameraPosition(cam.View()); !got.ApproxEqualThreshold(cam.Position, 1e-4) {
		t.Errorf("cameraPosition = %v, want %v", got, cam.Position)
	}
}

func TestCameraViewParallelUp(t *testing.T) {
	cam := NewCamera()
	cam.SetPosition(mgl32.Vec3{0, 10, 0})
	cam.LookAt(mgl32.Vec3{})

	view := cam.View()
	for _, v := range view {
		if v != v {
			t.Fatalf("view has NaN when looking along Up: %v", view)
		}
	}
	if d := Depth(view, mgl32.Vec3{}); !near(d, 10) {
		t.Errorf("Depth(origin) = %v, want 10", d)
	}
}

func TestCameraProjection(t *testing.T) {
	cam := NewCamera()
	cam.SetFOV(90)
	proj := cam.Projection(2)
	// tan(45°) = 1: focal terms are 1/aspect and 1.
	if !near(proj.At(0, 0), 0.5) || !near(proj.At(1, 1), 1) {
		t.Errorf("projection focal terms = %v, %v", proj.At(0, 0), proj.At(1, 1))
	}
}

func TestCameraDrivenByPath(t *testing.T) {
	path := campath.NewOrbit(campath.OrbitParams{
		Axis:     mgl32.Vec3{0, 1, 0},
		Radius:   5,
		Duration: 4,
	})
	path.SetFOV(45)
	path.Seek(1)

	cam := NewCamera()
	path.ApplyToCamera(cam)
	if p := cam.Position; !near(p[0], 0) || !near(p[1], 0) || !near(p[2], 5) {
		t.Errorf("Position = %v", cam.Position)
	}
	if cam.FOV != 45 {
		t.Errorf("FOV = %v", cam.FOV)
	}
	if d := Depth(cam.View(), mgl32.Vec3{}); !near(d, 5) {
		t.Errorf("orbit center depth = %v, want 5", d)
	}
}
