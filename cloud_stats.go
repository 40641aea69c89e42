package gsplat

import "unsafe"

// MemoryUsage returns the bytes held by the cloud: CPU capacity plus the
// GPU mirror buffer, if any.
func (c *Cloud) MemoryUsage() uint64 {
	n := uint64(cap(c.gaussians)) * uint64(unsafe.Sizeof(Gaussian{}))
	if c.buffer != nil {
		n += c.buffer.Size()
	}
	return n
}

// AverageOpacity returns the mean opacity, or 0 for an empty cloud.
func (c *Cloud) AverageOpacity() float32 {
	if len(c.gaussians) == 0 {
		return 0
	}
	var sum float64
	for i := range c.gaussians {
		sum += float64(c.gaussians[i].Opacity)
	}
	return float32(sum / float64(len(c.gaussians)))
}

// AverageScale returns the mean culling radius, or 0 for an empty cloud.
func (c *Cloud) AverageScale() float32 {
	if len(c.gaussians) == 0 {
		return 0
	}
	var sum float64
	for i := range c.gaussians {
		sum += float64(c.gaussians[i].Radius())
	}
	return float32(sum / float64(len(c.gaussians)))
}
