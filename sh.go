package gsplat

import "github.com/go-gl/mathgl/mgl32"

// Real spherical-harmonics basis constants for degrees 1-3.
const (
	shC1 = 0.4886025119029199
)

var shC2 = [5]float32{
	1.0925484305920792,
	-1.0925484305920792,
	0.31539156525252005,
	-1.0925484305920792,
	0.5462742152960396,
}

var shC3 = [7]float32{
	-0.5900435899266435,
	2.890611442640554,
	-0.4570457994644658,
	0.3731763325901154,
	-0.4570457994644658,
	1.445305721320277,
	-0.5900435899266435,
}

// EvaluateColor returns the color of g seen along viewDir (from the camera
// towards the Gaussian) using spherical harmonics up to degree.
//
// ColorDC is treated as the already-evaluated degree 0 term, so degree 0, or
// a Gaussian without SH coefficients, yields ColorDC unchanged. Higher degrees
// add the real-SH directional terms. Negative channels are clamped to zero;
// there is no upper clamp so HDR colors survive until output quantization.
func (g Gaussian) EvaluateColor(viewDir mgl32.Vec3, degree int) mgl32.Vec3 {
	if degree <= 0 {
		return clampNonNegative(g.ColorDC)
	}
	if degree > MaxSHDegree {
		degree = MaxSHDegree
	}
	l := viewDir.Len()
	if l == 0 {
		return clampNonNegative(g.ColorDC)
	}
	d := viewDir.Mul(1 / l)
	x, y, z := d[0], d[1], d[2]
	sh := &g.ColorSH

	c := g.ColorDC
	c = c.Add(sh[0].Mul(-shC1 * y)).
		Add(sh[1].Mul(shC1 * z)).
		Add(sh[2].Mul(-shC1 * x))

	if degree >= 2 {
		xx, yy, zz := x*x, y*y, z*z
		xy, yz, xz := x*y, y*z, x*z
		c = c.Add(sh[3].Mul(shC2[0] * xy)).
			Add(sh[4].Mul(shC2[1] * yz)).
			Add(sh[5].Mul(shC2[2] * (2*zz - xx - yy))).
			Add(sh[6].Mul(shC2[3] * xz)).
			Add(sh[7].Mul(shC2[4] * (xx - yy)))

		if degree >= 3 {
			c = c.Add(sh[8].Mul(shC3[0] * y * (3*xx - yy))).
				Add(sh[9].Mul(shC3[1] * xy * z)).
				Add(sh[10].Mul(shC3[2] * y * (4*zz - xx - yy))).
				Add(sh[11].Mul(shC3[3] * z * (2*zz - 3*xx - 3*yy))).
				Add(sh[12].Mul(shC3[4] * x * (4*zz - xx - yy))).
				Add(sh[13].Mul(shC3[5] * z * (xx - yy))).
				Add(sh[14].Mul(shC3[6] * x * (xx - 3*yy)))
		}
	}
	return clampNonNegative(c)
}

func clampNonNegative(c mgl32.Vec3) mgl32.Vec3 {
	for i := range c {
		if c[i] < 0 {
			c[i] = 0
		}
	}
	return c
}
