package gsplat

import (
	"fmt"

	"github.com/gogpu/gsplat/gpucore"
)

// SyncBuffer brings the GPU mirror up to date on dev.
//
// The buffer is (re)allocated when absent, undersized or owned by another
// device, then filled with the encoded Gaussians in order (GaussianSize
// bytes each). On success the mirror is byte-identical to EncodeGaussians
// of the current contents and BufferDirty reports false. On failure the
// dirty flag stays set and the caller may retry.
func (c *Cloud) SyncBuffer(dev gpucore.Device) error {
	if dev == nil {
		return ErrNoDevice
	}
	if c.bufferDev != nil && c.bufferDev != dev {
		c.ReleaseBuffer()
	}
	if len(c.gaussians) == 0 {
		c.bufferDirty = false
		return nil
	}
	if !c.bufferDirty && c.buffer != nil {
		return nil
	}

	need := uint64(len(c.gaussians)) * GaussianSize
	if c.buffer == nil || c.buffer.Size() < need {
		buf, err := dev.CreateBuffer(&gpucore.BufferDesc{
			Label: "gsplat_gaussians",
			Size:  need,
			Usage: gpucore.BufferUsageStorage | gpucore.BufferUsageCopyDst | gpucore.BufferUsageCopySrc,
		})
		if err != nil {
			return fmt.Errorf("gsplat: allocate %d byte mirror: %w", need, err)
		}
		if c.buffer != nil {
			c.buffer.Destroy()
		}
		c.buffer = buf
		c.bufferDev = dev
		Logger().Debug("gsplat: mirror buffer allocated", "bytes", need, "gaussians", len(c.gaussians))
	}

	c.scratch = c.scratch[:0]
	for i := range c.gaussians {
		c.scratch = AppendGaussian(c.scratch, c.gaussians[i])
	}
	if err := dev.WriteBuffer(c.buffer, 0, c.scratch); err != nil {
		return fmt.Errorf("gsplat: upload mirror: %w", err)
	}
	c.bufferDirty = false
	return nil
}

// Buffer returns the GPU mirror, or nil if none has been allocated.
// The buffer may be larger than BufferBytes.
func (c *Cloud) Buffer() gpucore.Buffer { return c.buffer }

// BufferBytes returns the number of meaningful bytes in the mirror.
func (c *Cloud) BufferBytes() uint64 { return uint64(len(c.gaussians)) * GaussianSize }

// BufferDirty reports whether the mirror is out of date.
func (c *Cloud) BufferDirty() bool {
	if len(c.gaussians) > 0 && c.buffer == nil {
		return true
	}
	return c.bufferDirty
}

// ReleaseBuffer destroys the GPU mirror.
func (c *Cloud) ReleaseBuffer() {
	if c.buffer != nil {
		c.buffer.Destroy()
	}
	c.buffer = nil
	c.bufferDev = nil
	c.scratch = nil
	c.bufferDirty = true
}
