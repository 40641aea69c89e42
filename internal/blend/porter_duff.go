package blend

// SourceOver composites premultiplied src over premultiplied dst.
// Formula: S + D*(1-Sa)
func SourceOver(sr, sg, sb, sa, dr, dg, db, da byte) (r, g, b, a byte) {
	invSa := 255 - sa
	return addDiv255(sr, mulDiv255(dr, invSa)),
		addDiv255(sg, mulDiv255(dg, invSa)),
		addDiv255(sb, mulDiv255(db, invSa)),
		addDiv255(sa, mulDiv255(da, invSa))
}

// SourceOverSpan composites a run of premultiplied RGBA8 pixels from src
// over dst in place. Both slices hold 4 bytes per pixel; the shorter one
// bounds the run.
func SourceOverSpan(dst, src []byte) {
	n := min(len(dst), len(src)) &^ 3
	for i := 0; i < n; i += 4 {
		sa := src[i+3]
		switch sa {
		case 0:
			continue
		case 255:
			copy(dst[i:i+4], src[i:i+4])
			continue
		}
		dst[i], dst[i+1], dst[i+2], dst[i+3] = SourceOver(
			src[i], src[i+1], src[i+2], sa,
			dst[i], dst[i+1], dst[i+2], dst[i+3])
	}
}
