package character

import "math"

// staticFrame returns the fallback frame for a size: a flat disc with
// anti-aliased edges, drawn without gg so it cannot fail.
func (r *Renderer) staticFrame(width, height int) []byte {
	key := [2]int{width, height}
	if pix, ok := r.static[key]; ok {
		return pix
	}

	pix := make([]byte, width*height*4)
	cx, cy := float64(width)/2, float64(height)/2
	radius := 0.36 * float64(min(width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			d := radius - math.Sqrt(dx*dx+dy*dy)
			if d <= -0.5 {
				continue
			}
			a := 1.0
			if d < 0.5 {
				a = d + 0.5
			}
			i := (y*width + x) * 4
			pix[i], pix[i+1], pix[i+2] = 250, 199, 92
			pix[i+3] = uint8(a*255 + 0.5)
		}
	}
	r.static[key] = pix
	return pix
}
