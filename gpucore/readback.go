package gpucore

import "fmt"

// PixelReadback is a host copy of a render target: Width*Height*4 bytes of
// straight RGBA, top-down, tightly packed.
//
// The buffer is reused across frames. Allocate only reallocates when the
// dimensions change.
type PixelReadback struct {
	Data   []byte
	Width  int
	Height int
}

// Allocate sizes the buffer for a width x height image. The existing
// backing array is kept when it already has the exact size.
func (p *PixelReadback) Allocate(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	size := width * height * 4
	if len(p.Data) != size {
		if cap(p.Data) >= size {
			p.Data = p.Data[:size]
		} else {
			p.Data = make([]byte, size)
		}
	}
	p.Width = width
	p.Height = height
	return nil
}

// IsValid reports whether both dimensions are positive and the buffer
// length matches them.
func (p *PixelReadback) IsValid() bool {
	return p != nil && p.Width > 0 && p.Height > 0 && len(p.Data) == p.Width*p.Height*4
}

// Clear zeroes the pixels, keeping the allocation.
func (p *PixelReadback) Clear() {
	clear(p.Data)
}

// Release drops the buffer and resets the dimensions.
func (p *PixelReadback) Release() {
	p.Data = nil
	p.Width = 0
	p.Height = 0
}

// Stride returns the row length in bytes.
func (p *PixelReadback) Stride() int {
	return p.Width * 4
}

// RGBA returns the pixel at (x, y). Out-of-range coordinates return zeros.
func (p *PixelReadback) RGBA(x, y int) (r, g, b, a uint8) {
	if !p.IsValid() || x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return 0, 0, 0, 0
	}
	i := (y*p.Width + x) * 4
	return p.Data[i], p.Data[i+1], p.Data[i+2], p.Data[i+3]
}
