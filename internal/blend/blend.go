// Package blend implements source-over compositing for splat rendering.
//
// Two representations are supported: premultiplied float32 RGBA used while
// accumulating splats, and premultiplied 8-bit RGBA used by image.RGBA
// targets. Both follow the Porter-Duff "over" operator:
//
//	out = S + D*(1-Sa)
//
// References:
//   - Porter-Duff: "Compositing Digital Images" (1984)
//   - W3C Compositing and Blending Level 1: https://www.w3.org/TR/compositing-1/
package blend

// OverF32 composites a straight (non-premultiplied) color with coverage
// alpha over the premultiplied pixel dst, which must hold 4 values.
func OverF32(dst []float32, r, g, b, alpha float32) {
	inv := 1 - alpha
	dst[0] = r*alpha + dst[0]*inv
	dst[1] = g*alpha + dst[1]*inv
	dst[2] = b*alpha + dst[2]*inv
	dst[3] = alpha + dst[3]*inv
}

// QuantizeF32 converts premultiplied float RGBA in src to 8-bit RGBA in dst.
// Values are clamped to [0, 1] and color channels to the alpha, so dst is
// always a valid premultiplied image.RGBA buffer.
func QuantizeF32(dst []byte, src []float32) {
	n := min(len(dst), len(src)) &^ 3
	for i := 0; i < n; i += 4 {
		a := clamp01(src[i+3])
		dst[i+0] = toByte(min(clamp01(src[i+0]), a))
		dst[i+1] = toByte(min(clamp01(src[i+1]), a))
		dst[i+2] = toByte(min(clamp01(src[i+2]), a))
		dst[i+3] = toByte(a)
	}
}

func clamp01(v float32) float32 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toByte(v float32) byte {
	return byte(v*255 + 0.5)
}
