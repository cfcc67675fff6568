package window

import "sync"

// AlphaHitTester classifies surface pixels as click-through or not by
// their alpha. It borrows the BGRA buffer it is given and never copies
// or frees it; the owner must call UpdateBuffer (or clear it) before the
// memory goes away.
//
// AlphaHitTester is safe for concurrent use.
type AlphaHitTester struct {
	mu        sync.RWMutex
	pixels    []byte
	width     int
	height    int
	threshold uint8
}

// NewAlphaHitTester returns a tester with no buffer.
func NewAlphaHitTester(threshold uint8) *AlphaHitTester {
	return &AlphaHitTester{threshold: threshold}
}

// UpdateBuffer replaces the borrowed buffer. A nil or short buffer or a
// non-positive size clears it.
func (h *AlphaHitTester) UpdateBuffer(pixels []byte, width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if pixels == nil || width <= 0 || height <= 0 || len(pixels) < width*height*4 {
		h.pixels, h.width, h.height = nil, 0, 0
		return
	}
	h.pixels, h.width, h.height = pixels, width, height
}

// WriteBuffer runs fn on the borrowed buffer under the write lock, so
// queries never read a partly written frame. It returns false without
// calling fn when no buffer is set.
func (h *AlphaHitTester) WriteBuffer(fn func(pixels []byte)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pixels == nil {
		return false
	}
	fn(h.pixels)
	return true
}

// SetThreshold sets the click-through alpha threshold.
func (h *AlphaHitTester) SetThreshold(t uint8) {
	h.mu.Lock()
	h.threshold = t
	h.mu.Unlock()
}

// Threshold returns the click-through alpha threshold.
func (h *AlphaHitTester) Threshold() uint8 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.threshold
}

// AlphaAt returns the alpha at (x, y), or 0 outside the buffer.
func (h *AlphaHitTester) AlphaAt(x, y int) uint8 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	a, _ := h.alphaAt(x, y)
	return a
}

// IsTransparentAt reports whether input at client position (x, y) should
// pass through: the alpha there is at or below the threshold, the point
// is outside the buffer, or no buffer is set.
func (h *AlphaHitTester) IsTransparentAt(x, y int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	a, ok := h.alphaAt(x, y)
	return !ok || a <= h.threshold
}

func (h *AlphaHitTester) alphaAt(x, y int) (uint8, bool) {
	if h.pixels == nil || x < 0 || y < 0 || x >= h.width || y >= h.height {
		return 0, false
	}
	return h.pixels[(y*h.width+x)*4+3], true
}
