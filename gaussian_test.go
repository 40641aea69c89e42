package gsplat

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-5

func assertVec3(t *testing.T, want, got mgl32.Vec3, msg ...any) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], eps, msg...)
	}
}

// quatNear compares quaternions component-wise with an absolute tolerance.
func quatNear(a, b mgl32.Quat, tol float32) bool {
	d := a.Sub(b)
	for _, v := range [4]float32{d.W, d.V[0], d.V[1], d.V[2]} {
		if math32.Abs(v) > tol {
			return false
		}
	}
	return true
}

func TestCovarianceIdentityRotation(t *testing.T) {
	g := NewGaussian(mgl32.Vec3{}, 1, 1, mgl32.Vec3{1, 1, 1})
	g.Scale = mgl32.Vec3{1, 2, 3}

	cov := g.Covariance()
	want := mgl32.Diag3(mgl32.Vec3{1, 4, 9})
	for i := range want {
		assert.InDelta(t, want[i], cov[i], eps)
	}
}

func TestCovarianceRotated(t *testing.T) {
	g := NewGaussian(mgl32.Vec3{}, 1, 1, mgl32.Vec3{})
	g.Scale = mgl32.Vec3{2, 1, 1}
	// 90 degrees about Z maps the long X axis onto Y.
	g.Rotation = mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 0, 1})

	cov := g.Covariance()
	assert.InDelta(t, 1, cov.At(0, 0), eps)
	assert.InDelta(t, 4, cov.At(1, 1), eps)
	assert.InDelta(t, 1, cov.At(2, 2), eps)
	assert.InDelta(t, 0, cov.At(0, 1), eps)
}

func TestCovarianceSymmetric(t *testing.T) {
	g := Gaussian{
		Scale:    mgl32.Vec3{0.3, 1.7, 0.9},
		Rotation: mgl32.QuatRotate(0.7, mgl32.Vec3{1, 2, 3}.Normalize()),
	}
	cov := g.Covariance()
	for r := 0; r < 3; r++ {
		assert.Greater(t, cov.At(r, r), float32(0))
		for c := 0; c < 3; c++ {
			assert.InDelta(t, cov.At(r, c), cov.At(c, r), eps)
		}
	}
	assert.GreaterOrEqual(t, cov.Det(), float32(-eps))
}

func TestRadius(t *testing.T) {
	g := Gaussian{Scale: mgl32.Vec3{0.5, 2, 1}}
	assert.Equal(t, float32(6), g.Radius())
}

func TestEvaluateColorDCOnly(t *testing.T) {
	g := NewGaussian(mgl32.Vec3{}, 1, 1, mgl32.Vec3{0.2, 0.4, 0.6})
	assert.False(t, g.HasSH())

	for degree := 0; degree <= 3; degree++ {
		got := g.EvaluateColor(mgl32.Vec3{0.3, -0.2, 1}, degree)
		assert.Equal(t, g.ColorDC, got, "degree %d", degree)
	}
}

func TestEvaluateColorDegreeOne(t *testing.T) {
	g := NewGaussian(mgl32.Vec3{}, 1, 1, mgl32.Vec3{0.5, 0.5, 0.5})
	g.ColorSH[1] = mgl32.Vec3{0.1, 0.2, 0.3} // z term
	require.True(t, g.HasSH())

	got := g.EvaluateColor(mgl32.Vec3{0, 0, 2}, 1)
	assertVec3(t, mgl32.Vec3{
		0.5 + shC1*0.1,
		0.5 + shC1*0.2,
		0.5 + shC1*0.3,
	}, got)

	// Degree 0 ignores SH entirely.
	assert.Equal(t, g.ColorDC, g.EvaluateColor(mgl32.Vec3{0, 0, 1}, 0))
	// Zero direction falls back to DC.
	assert.Equal(t, g.ColorDC, g.EvaluateColor(mgl32.Vec3{}, 3))
}

func TestEvaluateColorClamps(t *testing.T) {
	g := NewGaussian(mgl32.Vec3{}, 1, 1, mgl32.Vec3{0.1, 0.1, 0.1})
	g.ColorSH[1] = mgl32.Vec3{-5, 0, 5}

	got := g.EvaluateColor(mgl32.Vec3{0, 0, 1}, 9)
	assert.Equal(t, float32(0), got[0])
	assert.InDelta(t, 0.1, got[1], eps)
	assert.Greater(t, got[2], float32(1))
}

func TestEncodeDecodeGaussian(t *testing.T) {
	g := Gaussian{
		Position: mgl32.Vec3{1, 2, 3},
		Scale:    mgl32.Vec3{0.1, 0.2, 0.3},
		Rotation: mgl32.Quat{W: 0.5, V: mgl32.Vec3{0.5, 0.5, 0.5}},
		Opacity:  0.75,
		ColorDC:  mgl32.Vec3{0.9, 0.8, 0.7},
	}
	for i := range g.ColorSH {
		g.ColorSH[i] = mgl32.Vec3{float32(i), -float32(i), float32(i) / 2}
	}

	rec := AppendGaussian(nil, g)
	require.Len(t, rec, GaussianSize)
	assert.Equal(t, 0, GaussianSize%16, "records must stay 16-byte aligned")
	assert.Equal(t, g, DecodeGaussian(rec))

	all := EncodeGaussians([]Gaussian{g, g})
	assert.Len(t, all, 2*GaussianSize)
	assert.Equal(t, rec, all[GaussianSize:])
}
