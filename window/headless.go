package window

import (
	"errors"
	"sync"

	"github.com/gogpu/gpucontext"
)

// Presentation is one compositor update recorded by Headless.
type Presentation struct {
	X, Y          int
	Width, Height int
	Alpha         uint8
	// Pixels is a copy of the premultiplied BGRA surface.
	Pixels []byte
}

// EffectiveAlpha returns the alpha the compositor would show at (x, y):
// the per-pixel alpha scaled by the constant alpha.
func (p Presentation) EffectiveAlpha(x, y int) uint8 {
	if x < 0 || y < 0 || x >= p.Width || y >= p.Height {
		return 0
	}
	a := uint32(p.Pixels[(y*p.Width+x)*4+3])
	return uint8((a*uint32(p.Alpha) + 127) / 255)
}

// Headless is a Native without an OS window. Surfaces live in Go memory
// and every Present is recorded, which makes it the backend for tests and
// for platforms without layered windows.
type Headless struct {
	mu sync.Mutex

	cb      Callbacks
	created bool
	title   string

	selected *Surface
	live     map[*Surface]struct{}
	x, y     int
	visible  bool
	topmost  bool
	scale    float64
	quit     bool

	presents int
	last     Presentation
}

// NewHeadless returns a headless native window with a scale factor of 1.
func NewHeadless() *Headless {
	return &Headless{scale: 1, live: make(map[*Surface]struct{})}
}

// Create records cfg and cb. A Headless can be created again after
// Destroy.
func (h *Headless) Create(cfg Config, cb Callbacks) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.created {
		return errors.New("window: headless window already created")
	}
	h.cb = cb
	h.created = true
	h.title = cfg.Title
	h.x, h.y = cfg.X, cfg.Y
	h.topmost = cfg.AlwaysOnTop
	return nil
}

// AllocSurface allocates a zeroed surface in Go memory.
func (h *Headless) AllocSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	s := &Surface{Pixels: make([]byte, width*height*4), Width: width, Height: height}
	h.mu.Lock()
	h.live[s] = struct{}{}
	h.mu.Unlock()
	return s, nil
}

// SelectSurface makes s the surface Present records.
func (h *Headless) SelectSurface(s *Surface) {
	h.mu.Lock()
	h.selected = s
	h.mu.Unlock()
}

// FreeSurface forgets s and deselects it if it is selected.
func (h *Headless) FreeSurface(s *Surface) {
	h.mu.Lock()
	delete(h.live, s)
	if h.selected == s {
		h.selected = nil
	}
	h.mu.Unlock()
}

// Present records a copy of the selected surface.
func (h *Headless) Present(x, y int, alpha uint8) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.created {
		return ErrNotInitialized
	}
	s := h.selected
	if s == nil {
		return errors.New("window: no surface to present")
	}
	h.x, h.y = x, y
	h.presents++
	h.last = Presentation{
		X: x, Y: y,
		Width: s.Width, Height: s.Height,
		Alpha:  alpha,
		Pixels: append([]byte(nil), s.Pixels...),
	}
	return nil
}

// Move records the position.
func (h *Headless) Move(x, y int) error {
	h.mu.Lock()
	h.x, h.y = x, y
	h.mu.Unlock()
	return nil
}

// SetTopmost records the topmost flag.
func (h *Headless) SetTopmost(on bool) error {
	h.mu.Lock()
	h.topmost = on
	h.mu.Unlock()
	return nil
}

// SetVisible records the visibility.
func (h *Headless) SetVisible(on bool) {
	h.mu.Lock()
	h.visible = on
	h.mu.Unlock()
}

// Pump reports false once Quit has been called.
func (h *Headless) Pump() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.quit
}

// ScaleFactor returns the value set by SetScaleFactor, 1 by default.
func (h *Headless) ScaleFactor() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scale
}

// Handle returns 0.
func (h *Headless) Handle() uintptr { return 0 }

// Destroy frees all surfaces and hides the window.
func (h *Headless) Destroy() {
	h.mu.Lock()
	clear(h.live)
	h.selected = nil
	h.created = false
	h.visible = false
	h.mu.Unlock()
}

// LiveSurfaces returns the number of surfaces allocated and not yet freed.
func (h *Headless) LiveSurfaces() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// SetScaleFactor sets the value ScaleFactor reports.
func (h *Headless) SetScaleFactor(s float64) {
	h.mu.Lock()
	h.scale = s
	h.mu.Unlock()
}

// LastPresentation returns the most recent Present and the number of
// presents so far.
func (h *Headless) LastPresentation() (Presentation, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last, h.presents
}

// Visible reports the last SetVisible value.
func (h *Headless) Visible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible
}

// Topmost reports the last SetTopmost value.
func (h *Headless) Topmost() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.topmost
}

// Position returns the window's screen position.
func (h *Headless) Position() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.x, h.y
}

// HitTest converts a screen point to window-local coordinates and asks the
// window whether input there passes through, as WM_NCHITTEST does.
func (h *Headless) HitTest(screenX, screenY int) bool {
	h.mu.Lock()
	cb, x, y := h.cb, h.x, h.y
	h.mu.Unlock()
	if cb.HitTest == nil {
		return true
	}
	return cb.HitTest(screenX-x, screenY-y)
}

// SendPointer delivers a pointer event at a window-local point, unless the
// point is click-through. For moves, button names the held button.
func (h *Headless) SendPointer(typ gpucontext.PointerEventType, button gpucontext.Button, clientX, clientY int) bool {
	h.mu.Lock()
	cb, x, y := h.cb, h.x, h.y
	h.mu.Unlock()
	if cb.Pointer == nil || (cb.HitTest != nil && cb.HitTest(clientX, clientY)) {
		return false
	}
	held := buttonsFor(typ, button)
	if typ == gpucontext.PointerMove {
		button = gpucontext.ButtonNone
	}
	ev := Event{
		PointerEvent: gpucontext.PointerEvent{
			Type:        typ,
			PointerID:   1,
			X:           float64(clientX),
			Y:           float64(clientY),
			Button:      button,
			Buttons:     held,
			PointerType: gpucontext.PointerTypeMouse,
			IsPrimary:   true,
		},
		ScreenX: float64(clientX + x),
		ScreenY: float64(clientY + y),
	}
	cb.Pointer(ev)
	return true
}

// RequestClose simulates the OS close request.
func (h *Headless) RequestClose() {
	h.mu.Lock()
	cb := h.cb
	h.mu.Unlock()
	if cb.Close != nil {
		cb.Close()
	}
}

// Quit makes the next Pump report that the application should exit.
func (h *Headless) Quit() {
	h.mu.Lock()
	h.quit = true
	h.mu.Unlock()
}

func buttonsFor(typ gpucontext.PointerEventType, b gpucontext.Button) gpucontext.Buttons {
	if typ == gpucontext.PointerUp {
		return gpucontext.ButtonsNone
	}
	switch b {
	case gpucontext.ButtonLeft:
		return gpucontext.ButtonsLeft
	case gpucontext.ButtonRight:
		return gpucontext.ButtonsRight
	case gpucontext.ButtonMiddle:
		return gpucontext.ButtonsMiddle
	}
	return gpucontext.ButtonsNone
}

var _ Native = (*Headless)(nil)
