package gsplat

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultInvisibleThreshold is the opacity below which RemoveInvisible drops
// a Gaussian by default.
const DefaultInvisibleThreshold = 0.01

// retain drops every Gaussian for which keep returns false, preserving the
// order of the rest, and returns the number removed.
func (c *Cloud) retain(keep func(*Gaussian) bool) int {
	n := len(c.gaussians)
	c.gaussians = slices.DeleteFunc(c.gaussians, func(g Gaussian) bool {
		return !keep(&g)
	})
	removed := n - len(c.gaussians)
	if removed > 0 {
		c.markDirty()
	}
	return removed
}

// FilterByOpacity keeps Gaussians with Opacity >= minOpacity.
func (c *Cloud) FilterByOpacity(minOpacity float32) int {
	return c.retain(func(g *Gaussian) bool { return g.Opacity >= minOpacity })
}

// FilterBySize keeps Gaussians whose Radius lies in [minRadius, maxRadius].
func (c *Cloud) FilterBySize(minRadius, maxRadius float32) int {
	return c.retain(func(g *Gaussian) bool {
		r := g.Radius()
		return r >= minRadius && r <= maxRadius
	})
}

// FilterByBounds keeps Gaussians whose center lies inside the box [lo, hi].
func (c *Cloud) FilterByBounds(lo, hi mgl32.Vec3) int {
	return c.retain(func(g *Gaussian) bool {
		p := g.Position
		return p[0] >= lo[0] && p[0] <= hi[0] &&
			p[1] >= lo[1] && p[1] <= hi[1] &&
			p[2] >= lo[2] && p[2] <= hi[2]
	})
}

// RemoveInvisible drops Gaussians with Opacity below threshold.
// Use DefaultInvisibleThreshold for the usual cutoff.
func (c *Cloud) RemoveInvisible(threshold float32) int {
	return c.FilterByOpacity(threshold)
}
