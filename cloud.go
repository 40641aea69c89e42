package gsplat

import (
	"fmt"
	"iter"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gsplat/gpucore"
)

// noCopy may be embedded into structs which must not be copied after first
// use. go vet's copylocks check reports copies.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Cloud is an ordered collection of Gaussians.
//
// Cloud caches its axis-aligned bounds and an optional GPU mirror buffer.
// Every mutation goes through markDirty, which invalidates both; bounds are
// recomputed on the next read and the mirror on the next SyncBuffer.
//
// A Cloud is exclusively owned. Pass *Cloud around and use Take to move the
// contents into a new owner. Cloud is not safe for concurrent use.
type Cloud struct {
	_ noCopy

	gaussians []Gaussian

	boundsMin   mgl32.Vec3
	boundsMax   mgl32.Vec3
	boundsDirty bool

	buffer      gpucore.Buffer
	bufferDev   gpucore.Device
	bufferDirty bool
	scratch     []byte
}

// NewCloud returns an empty cloud.
func NewCloud() *Cloud {
	return &Cloud{boundsDirty: true, bufferDirty: true}
}

// NewCloudFrom returns a cloud holding a copy of gs.
func NewCloudFrom(gs []Gaussian) *Cloud {
	c := NewCloud()
	c.gaussians = slices.Clone(gs)
	return c
}

// markDirty invalidates every cache derived from the Gaussians.
// All mutators must call it.
func (c *Cloud) markDirty() {
	c.boundsDirty = true
	c.bufferDirty = true
}

// Len returns the number of Gaussians.
func (c *Cloud) Len() int { return len(c.gaussians) }

// Cap returns the capacity of the backing storage.
func (c *Cloud) Cap() int { return cap(c.gaussians) }

// IsEmpty reports whether the cloud holds no Gaussians.
func (c *Cloud) IsEmpty() bool { return len(c.gaussians) == 0 }

// Add appends g.
func (c *Cloud) Add(g Gaussian) {
	c.gaussians = append(c.gaussians, g)
	c.markDirty()
}

// AddRange appends gs in order.
func (c *Cloud) AddRange(gs []Gaussian) {
	if len(gs) == 0 {
		return
	}
	c.gaussians = append(c.gaussians, gs...)
	c.markDirty()
}

// Reserve grows the capacity to hold at least n Gaussians in total.
// The contents do not change.
func (c *Cloud) Reserve(n int) {
	if n > len(c.gaussians) {
		c.gaussians = slices.Grow(c.gaussians, n-len(c.gaussians))
	}
}

// Clear removes all Gaussians, keeping the allocated capacity.
func (c *Cloud) Clear() {
	c.gaussians = c.gaussians[:0]
	c.markDirty()
}

// At returns the Gaussian at index i.
func (c *Cloud) At(i int) (Gaussian, error) {
	if i < 0 || i >= len(c.gaussians) {
		return Gaussian{}, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(c.gaussians))
	}
	return c.gaussians[i], nil
}

// Set replaces the Gaussian at index i.
func (c *Cloud) Set(i int, g Gaussian) error {
	if i < 0 || i >= len(c.gaussians) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(c.gaussians))
	}
	c.gaussians[i] = g
	c.markDirty()
	return nil
}

// Gaussians returns a copy of the Gaussians in order.
func (c *Cloud) Gaussians() []Gaussian {
	return slices.Clone(c.gaussians)
}

// Data returns the backing slice without copying.
// The caller must not modify it; use Set for mutation.
func (c *Cloud) Data() []Gaussian {
	return c.gaussians
}

// All returns an iterator over index/Gaussian pairs in order.
func (c *Cloud) All() iter.Seq2[int, Gaussian] {
	return func(yield func(int, Gaussian) bool) {
		for i, g := range c.gaussians {
			if !yield(i, g) {
				return
			}
		}
	}
}

// Take moves the contents, including the GPU mirror, into a new cloud and
// leaves c empty.
func (c *Cloud) Take() *Cloud {
	out := &Cloud{
		gaussians:   c.gaussians,
		boundsMin:   c.boundsMin,
		boundsMax:   c.boundsMax,
		boundsDirty: c.boundsDirty,
		buffer:      c.buffer,
		bufferDev:   c.bufferDev,
		bufferDirty: c.bufferDirty,
	}
	c.gaussians = nil
	c.buffer = nil
	c.bufferDev = nil
	c.scratch = nil
	c.markDirty()
	return out
}

// Reorder permutes the Gaussians so that the new element i is the old
// element perm[i].
func (c *Cloud) Reorder(perm []int) error {
	n := len(c.gaussians)
	if len(perm) != n {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidPermutation, len(perm), n)
	}
	seen := make([]bool, n)
	for _, p := range perm {
		if p < 0 || p >= n || seen[p] {
			return fmt.Errorf("%w: bad index %d", ErrInvalidPermutation, p)
		}
		seen[p] = true
	}
	out := make([]Gaussian, n)
	for i, p := range perm {
		out[i] = c.gaussians[p]
	}
	c.gaussians = out
	c.markDirty()
	return nil
}

// Bounds returns the axis-aligned box enclosing every Gaussian's culling
// sphere. An empty cloud has zero bounds.
func (c *Cloud) Bounds() (lo, hi mgl32.Vec3) {
	c.updateBounds()
	return c.boundsMin, c.boundsMax
}

// BoundsMin returns the minimum corner of Bounds.
func (c *Cloud) BoundsMin() mgl32.Vec3 {
	c.updateBounds()
	return c.boundsMin
}

// BoundsMax returns the maximum corner of Bounds.
func (c *Cloud) BoundsMax() mgl32.Vec3 {
	c.updateBounds()
	return c.boundsMax
}

// BoundsCenter returns the center of Bounds.
func (c *Cloud) BoundsCenter() mgl32.Vec3 {
	c.updateBounds()
	return c.boundsMin.Add(c.boundsMax).Mul(0.5)
}

// BoundsSize returns the extent of Bounds along each axis.
func (c *Cloud) BoundsSize() mgl32.Vec3 {
	c.updateBounds()
	return c.boundsMax.Sub(c.boundsMin)
}

func (c *Cloud) updateBounds() {
	if !c.boundsDirty {
		return
	}
	c.boundsDirty = false
	if len(c.gaussians) == 0 {
		c.boundsMin, c.boundsMax = mgl32.Vec3{}, mgl32.Vec3{}
		return
	}
	g := &c.gaussians[0]
	r := g.Radius()
	lo := g.Position.Sub(mgl32.Vec3{r, r, r})
	hi := g.Position.Add(mgl32.Vec3{r, r, r})
	for i := 1; i < len(c.gaussians); i++ {
		g = &c.gaussians[i]
		r = g.Radius()
		for a := 0; a < 3; a++ {
			lo[a] = min(lo[a], g.Position[a]-r)
			hi[a] = max(hi[a], g.Position[a]+r)
		}
	}
	c.boundsMin, c.boundsMax = lo, hi
}
