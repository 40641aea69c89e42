// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
)

// RenderTarget defines where rendering output goes.
//
// The renderer composites splats over the existing content, so hosts that
// want a fresh frame clear the target first. Pixels must be premultiplied,
// 4 bytes per pixel, in the channel order given by Format.
type RenderTarget interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Format returns the pixel format of the target. RGBA8Unorm and
	// BGRA8Unorm are accepted.
	Format() gputypes.TextureFormat

	// Pixels returns direct access to pixel data, or nil for GPU-only targets.
	Pixels() []byte

	// Stride returns the number of bytes per row.
	Stride() int
}

// PixmapTarget is a CPU-backed render target using *image.RGBA.
//
// Example:
//
//	target := render.NewPixmapTarget(800, 600)
//	target.Clear(color.Black)
//	renderer.Render(cloud, view, proj, target, nil)
//	png.Encode(f, target.Image())
type PixmapTarget struct {
	img *image.RGBA
}

// NewPixmapTarget creates a new CPU-backed render target.
func NewPixmapTarget(width, height int) *PixmapTarget {
	return &PixmapTarget{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// NewPixmapTargetFromImage wraps an existing *image.RGBA as a render target.
// The image is used directly without copying.
func NewPixmapTargetFromImage(img *image.RGBA) *PixmapTarget {
	return &PixmapTarget{img: img}
}

// Width returns the target width in pixels.
func (t *PixmapTarget) Width() int {
	return t.img.Bounds().Dx()
}

// Height returns the target height in pixels.
func (t *PixmapTarget) Height() int {
	return t.img.Bounds().Dy()
}

// Aspect returns width/height, or 1 for an empty target.
func (t *PixmapTarget) Aspect() float32 {
	if t.Height() == 0 {
		return 1
	}
	return float32(t.Width()) / float32(t.Height())
}

// Format returns the pixel format (RGBA8).
func (t *PixmapTarget) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Pixels returns direct access to the pixel data.
func (t *PixmapTarget) Pixels() []byte {
	return t.img.Pix
}

// Stride returns the number of bytes per row.
func (t *PixmapTarget) Stride() int {
	return t.img.Stride
}

// Image returns the underlying *image.RGBA.
// The returned image shares memory with the target.
func (t *PixmapTarget) Image() *image.RGBA {
	return t.img
}

// Clear fills the entire target with the given color.
func (t *PixmapTarget) Clear(c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	pix := t.img.Pix
	if len(pix) == 0 {
		return
	}
	row := t.Width() * 4
	for x := 0; x < row; x += 4 {
		pix[x], pix[x+1], pix[x+2], pix[x+3] = rgba.R, rgba.G, rgba.B, rgba.A
	}
	for y := 1; y < t.Height(); y++ {
		off := y * t.img.Stride
		copy(pix[off:off+row], pix[:row])
	}
}

// SetPixel sets a single pixel at the given coordinates.
func (t *PixmapTarget) SetPixel(x, y int, c color.Color) {
	t.img.Set(x, y, c)
}

// GetPixel returns the color at the given coordinates.
func (t *PixmapTarget) GetPixel(x, y int) color.RGBA {
	return t.img.RGBAAt(x, y)
}

// Resize replaces the backing image. The contents are not preserved.
func (t *PixmapTarget) Resize(width, height int) {
	t.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ RenderTarget = (*PixmapTarget)(nil)

// channelOrder reports whether format stores blue first.
func channelOrder(format gputypes.TextureFormat) (bgra bool, err error) {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
		return false, nil
	case gputypes.TextureFormatBGRA8Unorm:
		return true, nil
	default:
		return false, ErrUnsupportedFormat
	}
}

// targetImage views the pixels of t as an *image.RGBA without copying.
func targetImage(t RenderTarget) (*image.RGBA, error) {
	pix := t.Pixels()
	if pix == nil {
		return nil, ErrTargetNotCPUAccessible
	}
	w, h := t.Width(), t.Height()
	if h > 0 && len(pix) < (h-1)*t.Stride()+w*4 {
		return nil, ErrTargetNotCPUAccessible
	}
	return &image.RGBA{Pix: pix, Stride: t.Stride(), Rect: image.Rect(0, 0, w, h)}, nil
}
