package gsplat

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/gsplat/gpucore"
)

func unitGaussian(x, y, z float32) Gaussian {
	return NewGaussian(mgl32.Vec3{x, y, z}, 1, 1, mgl32.Vec3{1, 1, 1})
}

// randomCloud builds a deterministic cloud with varied shapes.
func randomCloud(n int) *Cloud {
	c := NewCloud()
	seed := uint32(12345)
	next := func() float32 {
		seed = seed*1664525 + 1013904223
		return float32(seed>>8) / float32(1<<24)
	}
	for i := 0; i < n; i++ {
		axis := mgl32.Vec3{next() - 0.5, next() - 0.5, next() + 0.1}.Normalize()
		c.Add(Gaussian{
			Position: mgl32.Vec3{next()*20 - 10, next()*20 - 10, next()*20 - 10},
			Scale:    mgl32.Vec3{next() + 0.01, next() + 0.01, next() + 0.01},
			Rotation: mgl32.QuatRotate(next()*6, axis),
			Opacity:  next(),
			ColorDC:  mgl32.Vec3{next(), next(), next()},
		})
	}
	return c
}

func TestCloudBoundsScenario(t *testing.T) {
	c := NewCloud()
	c.Add(unitGaussian(0, 0, 0))
	c.Add(unitGaussian(10, 0, 0))

	lo, hi := c.Bounds()
	assert.Equal(t, mgl32.Vec3{-3, -3, -3}, lo)
	assert.Equal(t, mgl32.Vec3{13, 3, 3}, hi)
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, c.BoundsCenter())
	assert.Equal(t, mgl32.Vec3{16, 6, 6}, c.BoundsSize())
}

func TestCloudBoundsInvariant(t *testing.T) {
	c := randomCloud(200)
	lo, hi := c.Bounds()

	for a := 0; a < 3; a++ {
		touchLo, touchHi := false, false
		for _, g := range c.Data() {
			r := g.Radius()
			assert.LessOrEqual(t, lo[a], g.Position[a]-r)
			assert.GreaterOrEqual(t, hi[a], g.Position[a]+r)
			touchLo = touchLo || lo[a] == g.Position[a]-r
			touchHi = touchHi || hi[a] == g.Position[a]+r
		}
		assert.True(t, touchLo, "axis %d min not attained", a)
		assert.True(t, touchHi, "axis %d max not attained", a)
	}
}

func TestCloudBoundsRecomputedAfterMutation(t *testing.T) {
	c := NewCloud()
	assert.Equal(t, mgl32.Vec3{}, c.BoundsMin(), "empty cloud has zero bounds")

	c.Add(unitGaussian(0, 0, 0))
	assert.Equal(t, mgl32.Vec3{3, 3, 3}, c.BoundsMax())

	require.NoError(t, c.Set(0, unitGaussian(1, 0, 0)))
	assert.Equal(t, mgl32.Vec3{4, 3, 3}, c.BoundsMax())

	c.Translate(mgl32.Vec3{0, 1, 0})
	assert.Equal(t, mgl32.Vec3{4, 4, 3}, c.BoundsMax())

	c.Clear()
	assert.Equal(t, mgl32.Vec3{}, c.BoundsMax())
}

func TestCloudIndexing(t *testing.T) {
	c := NewCloud()
	c.AddRange([]Gaussian{unitGaussian(1, 0, 0), unitGaussian(2, 0, 0)})

	g, err := c.At(1)
	require.NoError(t, err)
	assert.Equal(t, float32(2), g.Position[0])

	for _, i := range []int{-1, 2, 100} {
		_, err := c.At(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
		assert.ErrorIs(t, c.Set(i, g), ErrIndexOutOfRange)
	}
}

func TestCloudReserveAndClear(t *testing.T) {
	c := NewCloud()
	c.Reserve(64)
	assert.GreaterOrEqual(t, c.Cap(), 64)
	assert.Equal(t, 0, c.Len())

	c.Add(unitGaussian(0, 0, 0))
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.GreaterOrEqual(t, c.Cap(), 64, "Clear keeps capacity")
}

func TestCloudGaussiansIsCopy(t *testing.T) {
	c := NewCloud()
	c.Add(unitGaussian(0, 0, 0))
	gs := c.Gaussians()
	gs[0].Opacity = 0
	g, _ := c.At(0)
	assert.Equal(t, float32(1), g.Opacity)
}

func TestCloudAllStopsEarly(t *testing.T) {
	c := randomCloud(10)
	n := 0
	for i := range c.All() {
		n++
		if i == 3 {
			break
		}
	}
	assert.Equal(t, 4, n)
}

func TestCloudTake(t *testing.T) {
	c := randomCloud(5)
	want := c.Gaussians()

	moved := c.Take()
	assert.Equal(t, want, moved.Gaussians())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, mgl32.Vec3{}, c.BoundsMax())
}

func TestCloudReorder(t *testing.T) {
	c := NewCloud()
	c.AddRange([]Gaussian{unitGaussian(0, 0, 0), unitGaussian(1, 0, 0), unitGaussian(2, 0, 0)})

	require.NoError(t, c.Reorder([]int{2, 0, 1}))
	xs := []float32{}
	for _, g := range c.All() {
		xs = append(xs, g.Position[0])
	}
	assert.Equal(t, []float32{2, 0, 1}, xs)

	for _, perm := range [][]int{{0, 1}, {0, 0, 1}, {0, 1, 3}, {-1, 0, 1}} {
		assert.ErrorIs(t, c.Reorder(perm), ErrInvalidPermutation, "perm %v", perm)
	}
}

func TestCloudTranslateRoundTrip(t *testing.T) {
	c := randomCloud(100)
	before := c.Gaussians()
	v := mgl32.Vec3{3.5, -2.25, 7}

	c.Translate(v)
	c.Translate(v.Mul(-1))

	for i, g := range c.Data() {
		assertVec3(t, before[i].Position, g.Position)
	}
}

func TestCloudScaleRoundTrip(t *testing.T) {
	c := randomCloud(100)
	before := c.Gaussians()

	c.Scale(2.5)
	c.Scale(1 / 2.5)

	for i, g := range c.Data() {
		for a := 0; a < 3; a++ {
			assert.InDelta(t, before[i].Position[a], g.Position[a], 1e-4)
			assert.InDelta(t, before[i].Scale[a], g.Scale[a], 1e-5)
		}
	}
}

func TestCloudScaleVecKeepsScalePositive(t *testing.T) {
	c := NewCloud()
	c.Add(unitGaussian(-1, 0, 0))
	c.Add(unitGaussian(1, 0, 0))

	c.ScaleVec(mgl32.Vec3{-2, 1, 1})

	a, _ := c.At(0)
	b, _ := c.At(1)
	assert.Equal(t, mgl32.Vec3{2, 0, 0}, a.Position)
	assert.Equal(t, mgl32.Vec3{-2, 0, 0}, b.Position)
	assert.Equal(t, mgl32.Vec3{2, 1, 1}, a.Scale)
}

func TestCloudRotateKeepsUnitQuaternions(t *testing.T) {
	c := randomCloud(200)
	q := mgl32.QuatRotate(1.234, mgl32.Vec3{0.3, 0.9, -0.2}.Normalize())

	for k := 0; k < 10; k++ {
		c.Rotate(q)
	}
	for _, g := range c.Data() {
		assert.InDelta(t, 1, g.Rotation.Len(), 1e-5)
	}
}

func TestCloudRotateAroundPivot(t *testing.T) {
	c := NewCloud()
	c.Add(unitGaussian(2, 0, 0))

	q := mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 0, 1})
	c.RotateAround(q, mgl32.Vec3{1, 0, 0})

	g, _ := c.At(0)
	assertVec3(t, mgl32.Vec3{1, 1, 0}, g.Position)
	assert.True(t, quatNear(g.Rotation, q, 1e-6), "rotation = %v, want %v", g.Rotation, q)
}

func TestCloudRotateAboutCenterPreservesCenter(t *testing.T) {
	c := NewCloud()
	c.Add(unitGaussian(0, 0, 0))
	c.Add(unitGaussian(10, 0, 0))

	c.Rotate(mgl32.QuatRotate(math32.Pi, mgl32.Vec3{0, 1, 0}))

	a, _ := c.At(0)
	b, _ := c.At(1)
	assertVec3(t, mgl32.Vec3{10, 0, 0}, a.Position)
	assertVec3(t, mgl32.Vec3{0, 0, 0}, b.Position)
}

func TestCloudTransform(t *testing.T) {
	c := NewCloud()
	c.Add(unitGaussian(1, 0, 0))

	rot := mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 0, 1})
	m := mgl32.Translate3D(5, 0, 0).Mul4(rot.Mat4()).Mul4(mgl32.Scale3D(2, 2, 2))
	require.NoError(t, c.Transform(m))

	g, _ := c.At(0)
	assertVec3(t, mgl32.Vec3{5, 2, 0}, g.Position)
	assertVec3(t, mgl32.Vec3{2, 2, 2}, g.Scale)
	assert.InDelta(t, 1, g.Rotation.Len(), eps)
	assert.True(t, quatNear(g.Rotation, rot, 1e-5) || quatNear(g.Rotation, rot.Scale(-1), 1e-5),
		"rotation = %v, want ±%v", g.Rotation, rot)
}

func TestCloudTransformReflection(t *testing.T) {
	c := NewCloud()
	c.Add(unitGaussian(1, 2, 3))

	require.NoError(t, c.Transform(mgl32.Scale3D(-1, 1, 1)))

	g, _ := c.At(0)
	assertVec3(t, mgl32.Vec3{-1, 2, 3}, g.Position)
	assertVec3(t, mgl32.Vec3{1, 1, 1}, g.Scale)
	assert.InDelta(t, 1, g.Rotation.Len(), eps)
}

func TestCloudTransformDegenerate(t *testing.T) {
	c := NewCloud()
	c.Add(unitGaussian(1, 2, 3))
	before := c.Gaussians()

	err := c.Transform(mgl32.Scale3D(1, 0, 1))
	assert.ErrorIs(t, err, ErrDegenerateTransform)
	assert.Equal(t, before, c.Gaussians(), "failed transform must not mutate")
}

func TestCloudFilters(t *testing.T) {
	mk := func(x, opacity, size float32) Gaussian {
		return NewGaussian(mgl32.Vec3{x, 0, 0}, size, opacity, mgl32.Vec3{})
	}
	tests := []struct {
		name    string
		apply   func(c *Cloud) int
		removed int
		keptX   []float32
	}{
		{
			name:    "opacity",
			apply:   func(c *Cloud) int { return c.FilterByOpacity(0.5) },
			removed: 2,
			keptX:   []float32{1, 3},
		},
		{
			name:    "size",
			apply:   func(c *Cloud) int { return c.FilterBySize(1, 4) },
			removed: 2,
			keptX:   []float32{2, 3},
		},
		{
			name:    "bounds",
			apply:   func(c *Cloud) int { return c.FilterByBounds(mgl32.Vec3{1.5, -1, -1}, mgl32.Vec3{4, 1, 1}) },
			removed: 2,
			keptX:   []float32{2, 3},
		},
		{
			name:    "invisible",
			apply:   func(c *Cloud) int { return c.RemoveInvisible(DefaultInvisibleThreshold) },
			removed: 1,
			keptX:   []float32{1, 2, 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCloud()
			c.AddRange([]Gaussian{
				mk(0, 0.001, 0.1),
				mk(1, 0.9, 2),
				mk(2, 0.2, 1),
				mk(3, 0.6, 0.5),
			})
			_ = c.BoundsMax()

			assert.Equal(t, tt.removed, tt.apply(c))
			var xs []float32
			for _, g := range c.Data() {
				xs = append(xs, g.Position[0])
			}
			assert.Equal(t, tt.keptX, xs, "filters must be stable")
		})
	}
}

func TestCloudStats(t *testing.T) {
	c := NewCloud()
	assert.Zero(t, c.AverageOpacity())
	assert.Zero(t, c.AverageScale())

	c.Add(NewGaussian(mgl32.Vec3{}, 1, 0.2, mgl32.Vec3{}))
	c.Add(NewGaussian(mgl32.Vec3{}, 2, 0.6, mgl32.Vec3{}))

	assert.InDelta(t, 0.4, c.AverageOpacity(), eps)
	assert.InDelta(t, 4.5, c.AverageScale(), eps)

	cpu := c.MemoryUsage()
	assert.Positive(t, cpu)
	require.NoError(t, c.SyncBuffer(gpucore.NewMemoryDevice()))
	assert.Equal(t, cpu+2*GaussianSize, c.MemoryUsage())
}
