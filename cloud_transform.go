package gsplat

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// degenerateEpsilon is the smallest basis column length Transform accepts.
const degenerateEpsilon = 1e-8

// Translate moves every Gaussian by offset.
func (c *Cloud) Translate(offset mgl32.Vec3) {
	if len(c.gaussians) == 0 {
		return
	}
	for i := range c.gaussians {
		c.gaussians[i].Position = c.gaussians[i].Position.Add(offset)
	}
	c.markDirty()
}

// Rotate rotates the cloud by q about its bounds center.
func (c *Cloud) Rotate(q mgl32.Quat) {
	if len(c.gaussians) == 0 {
		return
	}
	c.RotateAround(q, c.BoundsCenter())
}

// RotateAround rotates each position by q about center and left-multiplies
// each orientation by q. Repeated calls accumulate.
func (c *Cloud) RotateAround(q mgl32.Quat, center mgl32.Vec3) {
	if len(c.gaussians) == 0 {
		return
	}
	q = q.Normalize()
	for i := range c.gaussians {
		g := &c.gaussians[i]
		g.Position = center.Add(q.Rotate(g.Position.Sub(center)))
		g.Rotation = q.Mul(g.Rotation).Normalize()
	}
	c.markDirty()
}

// Scale scales the cloud uniformly by factor about its bounds center.
func (c *Cloud) Scale(factor float32) {
	c.ScaleVec(mgl32.Vec3{factor, factor, factor})
}

// ScaleVec scales position offsets from the bounds center and each Gaussian's
// scale per axis. Non-uniform factors skew rotated ellipsoids.
func (c *Cloud) ScaleVec(factors mgl32.Vec3) {
	if len(c.gaussians) == 0 {
		return
	}
	center := c.BoundsCenter()
	abs := mgl32.Vec3{math32.Abs(factors[0]), math32.Abs(factors[1]), math32.Abs(factors[2])}
	for i := range c.gaussians {
		g := &c.gaussians[i]
		d := g.Position.Sub(center)
		g.Position = center.Add(mgl32.Vec3{d[0] * factors[0], d[1] * factors[1], d[2] * factors[2]})
		g.Scale = mgl32.Vec3{g.Scale[0] * abs[0], g.Scale[1] * abs[1], g.Scale[2] * abs[2]}
	}
	c.markDirty()
}

// Transform applies an affine matrix.
//
// Positions are transformed exactly. The upper 3x3 block is decomposed into
// per-axis scale (column lengths) and rotation (normalized columns): the
// rotation is composed into each orientation and the scale multiplies each
// Gaussian's scale. A reflection is folded into the rotation since an
// ellipsoid is symmetric under it. Matrices with a zero-length column return
// ErrDegenerateTransform and leave the cloud untouched.
func (c *Cloud) Transform(m mgl32.Mat4) error {
	basis := m.Mat3()
	var s mgl32.Vec3
	var cols [3]mgl32.Vec3
	for i := 0; i < 3; i++ {
		col := basis.Col(i)
		l := col.Len()
		if !(l > degenerateEpsilon) || math32.IsInf(l, 0) {
			return fmt.Errorf("%w: column %d has length %g", ErrDegenerateTransform, i, l)
		}
		s[i] = l
		cols[i] = col.Mul(1 / l)
	}
	rot := mgl32.Mat3FromCols(cols[0], cols[1], cols[2])
	if rot.Det() < 0 {
		rot = rot.Mul(-1)
	}
	q := mgl32.Mat4ToQuat(rot.Mat4()).Normalize()

	for i := range c.gaussians {
		g := &c.gaussians[i]
		g.Position = mgl32.TransformCoordinate(g.Position, m)
		g.Rotation = q.Mul(g.Rotation).Normalize()
		g.Scale = mgl32.Vec3{g.Scale[0] * s[0], g.Scale[1] * s[1], g.Scale[2] * s[2]}
	}
	if len(c.gaussians) > 0 {
		c.markDirty()
	}
	return nil
}
