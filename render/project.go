// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsplat"
)

const (
	// lowPass is added to the 2D covariance diagonal so every splat covers
	// at least about one pixel.
	lowPass = 0.3

	// minCameraDepth drops splats at or behind the camera plane.
	minCameraDepth = 1e-4

	// frustumSlack widens the tangent clamp of the Jacobian so splats just
	// outside the view keep a sane footprint.
	frustumSlack = 1.3

	splatSigma = 3
)

// splat is a Gaussian projected to screen space, in layer pixels.
// Its bbox is [x0, x1) × [y0, y1), already clipped to the layer.
type splat struct {
	x, y                   float32
	conicA, conicB, conicC float32
	r, g, b, alpha         float32
	x0, y0, x1, y1         int32
}

// projector maps Gaussians into one layer for one view.
type projector struct {
	view   mgl32.Mat4
	viewT  mgl32.Mat3 // transpose of the view rotation
	proj   mgl32.Mat4
	camPos mgl32.Vec3
	width  int
	height int
	fx, fy float32
	limX   float32
	limY   float32
	cfg    RenderConfig
	degree int
}

func newProjector(view, proj mgl32.Mat4, width, height int, cfg RenderConfig) *projector {
	p := &projector{
		view:   view,
		viewT:  view.Mat3().Transpose(),
		proj:   proj,
		camPos: cameraPosition(view),
		width:  width,
		height: height,
		fx:     proj.At(0, 0) * float32(width) / 2,
		fy:     proj.At(1, 1) * float32(height) / 2,
		cfg:    cfg,
		degree: cfg.shDegree(),
	}
	p.limX = frustumSlack / proj.At(0, 0)
	p.limY = frustumSlack / proj.At(1, 1)
	return p
}

// project returns the splat for g. ok is false when g is culled.
func (p *projector) project(g *gsplat.Gaussian) (s splat, ok bool) {
	opacity := min(max(g.Opacity*p.cfg.OpacityMultiplier, 0), 1)
	if !(opacity > 0) || opacity < p.cfg.MinOpacity {
		return s, false
	}

	cam := p.view.Mul4x1(g.Position.Vec4(1))
	tz := -cam[2]
	if !(tz > minCameraDepth) {
		return s, false
	}
	clip := p.proj.Mul4x1(cam)
	if !(clip[3] > 0) {
		return s, false
	}
	if p.cfg.FrustumCulling && (clip[2] < -clip[3] || clip[2] > clip[3]) {
		return s, false
	}
	s.x = (clip[0]/clip[3] + 1) * 0.5 * float32(p.width)
	s.y = (1 - clip[1]/clip[3]) * 0.5 * float32(p.height)

	// EWA: Σ' = J·W·Σ·Wᵀ·Jᵀ with J the Jacobian of the perspective divide.
	cx := clampf(cam[0]/tz, -p.limX, p.limX) * tz
	cy := clampf(cam[1]/tz, -p.limY, p.limY) * tz
	tz2 := tz * tz
	j0 := mgl32.Vec3{p.fx / tz, 0, p.fx * cx / tz2}
	j1 := mgl32.Vec3{0, -p.fy / tz, -p.fy * cy / tz2}
	t0 := p.viewT.Mul3x1(j0)
	t1 := p.viewT.Mul3x1(j1)
	sigma := g.ScaledCovariance(p.cfg.SplatScale)
	s1 := sigma.Mul3x1(t1)
	a := t0.Dot(sigma.Mul3x1(t0))
	b := t0.Dot(s1)
	c := t1.Dot(s1)

	detRaw := a*c - b*b
	a += lowPass
	c += lowPass
	det := a*c - b*b
	if !(det > 0) {
		return s, false
	}
	alpha := opacity
	if p.cfg.AntiAliasing {
		alpha *= math32.Sqrt(max(detRaw, 0) / det)
	}
	inv := 1 / det
	s.conicA, s.conicB, s.conicC = c*inv, -b*inv, a*inv

	mid := 0.5 * (a + c)
	lambda := mid + math32.Sqrt(max(0.1, mid*mid-det))
	radius := math32.Ceil(splatSigma * math32.Sqrt(lambda))
	s.x0 = clampPixel(math32.Floor(s.x-radius), p.width)
	s.x1 = clampPixel(math32.Ceil(s.x+radius), p.width)
	s.y0 = clampPixel(math32.Floor(s.y-radius), p.height)
	s.y1 = clampPixel(math32.Ceil(s.y+radius), p.height)
	if p.cfg.FrustumCulling && (s.x0 >= s.x1 || s.y0 >= s.y1) {
		return s, false
	}

	col := g.EvaluateColor(g.Position.Sub(p.camPos), p.degree)
	s.r, s.g, s.b = col[0], col[1], col[2]
	s.alpha = alpha
	return s, true
}

func clampf(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}

// clampPixel converts v to a pixel coordinate in [0, limit].
func clampPixel(v float32, limit int) int32 {
	switch {
	case !(v > 0):
		return 0
	case v >= float32(limit):
		return int32(limit) //nolint:gosec // layer sizes are small
	}
	return int32(v)
}
