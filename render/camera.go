// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsplat/campath"
)

// Camera is a perspective pinhole camera. It satisfies campath.Camera so a
// Path can drive it directly.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	FOV      float32 // vertical, degrees
	Near     float32
	Far      float32
}

// NewCamera returns a camera at (0,0,5) looking at the origin with a 60°
// field of view.
func NewCamera() *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, 0, 5},
		Up:       mgl32.Vec3{0, 1, 0},
		FOV:      campath.DefaultFOV,
		Near:     0.1,
		Far:      1000,
	}
}

// SetPosition moves the camera.
func (c *Camera) SetPosition(p mgl32.Vec3) { c.Position = p }

// LookAt points the camera at target.
func (c *Camera) LookAt(target mgl32.Vec3) { c.Target = target }

// SetFOV sets the vertical field of view in degrees.
func (c *Camera) SetFOV(degrees float32) { c.FOV = degrees }

// View returns the right-handed world-to-camera matrix.
// When the view direction is parallel to Up, Z is used as up instead.
func (c *Camera) View() mgl32.Mat4 {
	up := c.Up
	fwd := c.Target.Sub(c.Position)
	if fwd.Cross(up).Len() < 1e-6 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return mgl32.LookAtV(c.Position, c.Target, up)
}

// Projection returns an OpenGL-style perspective matrix for aspect.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

var _ campath.Camera = (*Camera)(nil)
