// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"

	"github.com/gogpu/gsplat/internal/blend"
	"github.com/gogpu/gsplat/internal/parallel"
)

const (
	// maxSplatAlpha keeps a single splat from fully occluding what is
	// behind it.
	maxSplatAlpha = 0.99

	// minSplatAlpha skips contributions below one 8-bit step.
	minSplatAlpha = 1.0 / 255

	bandRows = 16
)

// rasterize composites splats, already in back-to-front order, into layer:
// premultiplied float32 RGBA, width×height, cleared first.
//
// Bands of rows run in parallel. Each band walks every splat in order, so
// the per-pixel compositing order is the sorted order.
func rasterize(pool *parallel.WorkerPool, layer []float32, width, height int, splats []splat) {
	clear(layer)
	pool.Bands(height, bandRows, func(y0, y1 int) {
		for i := range splats {
			rasterizeBand(layer, width, &splats[i], y0, y1)
		}
	})
}

func rasterizeBand(layer []float32, width int, s *splat, y0, y1 int) {
	sy0, sy1 := max(int(s.y0), y0), min(int(s.y1), y1)
	for y := sy0; y < sy1; y++ {
		dy := float32(y) + 0.5 - s.y
		row := layer[y*width*4 : (y+1)*width*4]
		for x := int(s.x0); x < int(s.x1); x++ {
			dx := float32(x) + 0.5 - s.x
			power := -0.5*(s.conicA*dx*dx+s.conicC*dy*dy) - s.conicB*dx*dy
			if power > 0 {
				continue
			}
			a := min(maxSplatAlpha, s.alpha*math32.Exp(power))
			if a < minSplatAlpha {
				continue
			}
			blend.OverF32(row[x*4:x*4+4], s.r, s.g, s.b, a)
		}
	}
}

// present composites the quantized layer over dst. A layer larger than
// dst is filtered down with bilinear sampling.
func present(dst, layer *image.RGBA, bgra bool) {
	if bgra {
		swapRB(layer.Pix)
	}
	if layer.Rect.Size() != dst.Rect.Size() {
		draw.ApproxBiLinear.Scale(dst, dst.Rect, layer, layer.Rect, draw.Over, nil)
		return
	}
	w := dst.Rect.Dx() * 4
	for y := range dst.Rect.Dy() {
		d := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		s := layer.Pix[y*layer.Stride : y*layer.Stride+w]
		blend.SourceOverSpan(d, s)
	}
}

func swapRB(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
