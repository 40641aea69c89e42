package gsplat

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SHCoefficients is the number of view-dependent spherical-harmonics
// coefficients stored per color channel (degrees 1 to 3).
const SHCoefficients = 15

// MaxSHDegree is the highest spherical-harmonics degree a Gaussian carries.
const MaxSHDegree = 3

// radiusSigma is the culling radius in standard deviations. Three sigma
// covers about 99.7% of a Gaussian's mass.
const radiusSigma = 3

// Gaussian is a single anisotropic 3D Gaussian primitive.
//
// Rotation must be a unit quaternion; operations in this package keep it
// normalized. ColorDC is the view-independent base color, ColorSH holds the
// degree 1-3 coefficients in the usual 3DGS ordering (index 0-2 degree 1,
// 3-7 degree 2, 8-14 degree 3).
type Gaussian struct {
	Position mgl32.Vec3
	Scale    mgl32.Vec3
	Rotation mgl32.Quat
	Opacity  float32
	ColorDC  mgl32.Vec3
	ColorSH  [SHCoefficients]mgl32.Vec3
}

// NewGaussian returns an isotropic, unrotated Gaussian.
func NewGaussian(position mgl32.Vec3, size, opacity float32, color mgl32.Vec3) Gaussian {
	return Gaussian{
		Position: position,
		Scale:    mgl32.Vec3{size, size, size},
		Rotation: mgl32.QuatIdent(),
		Opacity:  opacity,
		ColorDC:  color,
	}
}

// Covariance returns the 3x3 covariance R·S·Sᵀ·Rᵀ, where R is the rotation
// matrix of the orientation quaternion and S = diag(Scale).
// The result is symmetric positive semi-definite.
func (g Gaussian) Covariance() mgl32.Mat3 {
	return covariance(g.Rotation, g.Scale)
}

// ScaledCovariance is Covariance with every axis multiplied by s.
func (g Gaussian) ScaledCovariance(s float32) mgl32.Mat3 {
	return covariance(g.Rotation, g.Scale.Mul(s))
}

func covariance(q mgl32.Quat, scale mgl32.Vec3) mgl32.Mat3 {
	r := q.Normalize().Mat4().Mat3()
	m := r.Mul3(mgl32.Diag3(scale))
	return m.Mul3(m.Transpose())
}

// Radius is the effective culling radius, 3·max(Scale).
func (g Gaussian) Radius() float32 {
	return radiusSigma * maxComponent(g.Scale)
}

// HasSH reports whether any view-dependent coefficient is non-zero.
func (g Gaussian) HasSH() bool {
	for _, c := range g.ColorSH {
		if c != (mgl32.Vec3{}) {
			return true
		}
	}
	return false
}

func maxComponent(v mgl32.Vec3) float32 {
	m := v[0]
	if v[1] > m {
		m = v[1]
	}
	if v[2] > m {
		m = v[2]
	}
	return m
}

// Record layout of a Gaussian in GPU buffers and in the cloud mirror:
// 60 little-endian float32 values, 240 bytes, 16-byte aligned.
const (
	// GaussianFloats is the number of float32 slots per encoded Gaussian.
	GaussianFloats = 60

	// GaussianSize is the encoded size of one Gaussian in bytes.
	GaussianSize = GaussianFloats * 4
)

// Offsets (in float32 slots) of the fields inside an encoded record.
const (
	recPosition = 0
	recScale    = 3
	recRotation = 6 // x, y, z, w
	recOpacity  = 10
	recColorDC  = 11
	recColorSH  = 14
	recPad      = recColorSH + SHCoefficients*3
)

// AppendGaussian appends the 240-byte GPU record of g to dst.
func AppendGaussian(dst []byte, g Gaussian) []byte {
	var rec [GaussianFloats]float32
	copy(rec[recPosition:], g.Position[:])
	copy(rec[recScale:], g.Scale[:])
	rec[recRotation+0] = g.Rotation.V[0]
	rec[recRotation+1] = g.Rotation.V[1]
	rec[recRotation+2] = g.Rotation.V[2]
	rec[recRotation+3] = g.Rotation.W
	rec[recOpacity] = g.Opacity
	copy(rec[recColorDC:], g.ColorDC[:])
	for i, c := range g.ColorSH {
		copy(rec[recColorSH+i*3:], c[:])
	}
	rec[recPad] = 0

	for _, f := range rec {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

// EncodeGaussians serializes gs in order into one contiguous buffer.
func EncodeGaussians(gs []Gaussian) []byte {
	buf := make([]byte, 0, len(gs)*GaussianSize)
	for i := range gs {
		buf = AppendGaussian(buf, gs[i])
	}
	return buf
}

// DecodeGaussian parses one record produced by AppendGaussian.
// rec must be at least GaussianSize bytes long.
func DecodeGaussian(rec []byte) Gaussian {
	f := func(slot int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(rec[slot*4:]))
	}
	var g Gaussian
	g.Position = mgl32.Vec3{f(recPosition), f(recPosition + 1), f(recPosition + 2)}
	g.Scale = mgl32.Vec3{f(recScale), f(recScale + 1), f(recScale + 2)}
	g.Rotation = mgl32.Quat{
		W: f(recRotation + 3),
		V: mgl32.Vec3{f(recRotation), f(recRotation + 1), f(recRotation + 2)},
	}
	g.Opacity = f(recOpacity)
	g.ColorDC = mgl32.Vec3{f(recColorDC), f(recColorDC + 1), f(recColorDC + 2)}
	for i := range g.ColorSH {
		base := recColorSH + i*3
		g.ColorSH[i] = mgl32.Vec3{f(base), f(base + 1), f(base + 2)}
	}
	return g
}
