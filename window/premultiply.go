package window

// PremultiplyToBGRA converts straight-alpha RGBA pixels in src to
// premultiplied BGRA in dst, the layout layered windows composite. dst
// and src may be the same slice. Only whole pixels present in both are
// converted.
//
// Each color channel becomes (c*a + 127) / 255. Alpha 255 and alpha 0
// take shortcuts that produce the same values.
func PremultiplyToBGRA(dst, src []byte) {
	n := min(len(dst), len(src)) &^ 3
	for i := 0; i < n; i += 4 {
		r, g, b, a := src[i], src[i+1], src[i+2], src[i+3]
		switch a {
		case 255:
			dst[i], dst[i+1], dst[i+2], dst[i+3] = b, g, r, 255
		case 0:
			dst[i], dst[i+1], dst[i+2], dst[i+3] = 0, 0, 0, 0
		default:
			dst[i] = premul(b, a)
			dst[i+1] = premul(g, a)
			dst[i+2] = premul(r, a)
			dst[i+3] = a
		}
	}
}

func premul(c, a uint8) uint8 {
	return uint8((uint32(c)*uint32(a) + 127) / 255)
}
