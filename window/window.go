package window

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/overlay"
)

// Option configures a TransparentWindow.
type Option func(*TransparentWindow)

// WithNative replaces the platform window, typically with a Headless one.
func WithNative(n Native) Option {
	return func(w *TransparentWindow) { w.native = n }
}

// WithEventLimit bounds the number of queued move events.
func WithEventLimit(n int) Option {
	return func(w *TransparentWindow) { w.events = newEventQueue(n) }
}

// TransparentWindow is a borderless overlay window composited with
// per-pixel alpha. Fully transparent regions let input through to the
// windows below; opaque regions own it.
//
// Frames arrive as straight-alpha RGBA from the renderer and are
// converted in place into the native premultiplied BGRA surface.
// Initialize, UpdateFrame and PumpMessages must be called from the
// goroutine that owns the native window. The query methods are safe to
// call from any goroutine.
type TransparentWindow struct {
	native Native
	hit    *AlphaHitTester
	events *eventQueue

	// mu guards the compositing state. Surface pixels are written and
	// read only under the hit tester's lock.
	mu          sync.RWMutex
	cfg         Config
	surface     *Surface
	x, y        int
	globalAlpha uint8
	topmost     bool
	visible     bool
	initialized bool

	closeMu sync.Mutex
	onClose func()

	closeRequested atomic.Bool
	redraw         atomic.Bool
}

// New returns an uninitialized window.
func New(opts ...Option) *TransparentWindow {
	w := &TransparentWindow{
		hit:         NewAlphaHitTester(DefaultHitThreshold),
		events:      newEventQueue(defaultEventLimit),
		globalAlpha: 255,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.native == nil {
		w.native = newPlatformNative()
	}
	return w
}

// Initialize creates the native window and a transparent surface sized to
// cfg. Calling it on an initialized window is a no-op.
func (w *TransparentWindow) Initialize(cfg Config) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.initialized {
		overlay.Logger().Warn("window: already initialized")
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cb := Callbacks{
		HitTest: w.hit.IsTransparentAt,
		Pointer: w.events.push,
		Close:   w.handleClose,
	}
	if err := w.native.Create(cfg, cb); err != nil {
		overlay.Logger().Error("window: create failed", "err", err)
		return err
	}
	surface, err := w.native.AllocSurface(cfg.Width, cfg.Height)
	if err != nil {
		w.native.Destroy()
		overlay.Logger().Error("window: surface allocation failed", "err", err)
		return err
	}
	clear(surface.Pixels)
	w.native.SelectSurface(surface)

	w.cfg = cfg
	w.surface = surface
	w.x, w.y = cfg.X, cfg.Y
	w.globalAlpha = cfg.Opacity
	w.topmost = cfg.AlwaysOnTop
	w.hit.SetThreshold(cfg.HitThreshold)
	w.hit.UpdateBuffer(surface.Pixels, surface.Width, surface.Height)
	w.closeRequested.Store(false)
	w.initialized = true

	if cfg.Visible {
		w.native.SetVisible(true)
		w.visible = true
	}
	if err := w.native.Present(w.x, w.y, w.globalAlpha); err != nil {
		overlay.Logger().Warn("window: initial present failed", "err", err)
	}

	overlay.Logger().Info("window: initialized",
		"x", cfg.X, "y", cfg.Y, "width", cfg.Width, "height", cfg.Height,
		"topmost", cfg.AlwaysOnTop, "threshold", cfg.HitThreshold)
	return nil
}

// UpdateFrame converts straight-alpha RGBA pixels of size width x height
// into the surface and presents it. A size different from the current
// surface reallocates the surface first; if that fails the previous
// surface stays in place.
func (w *TransparentWindow) UpdateFrame(pixels []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(pixels) < width*height*4 {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrInvalidPixels, len(pixels), width*height*4)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.initialized {
		return ErrNotInitialized
	}

	src := pixels[:width*height*4]
	if width != w.surface.Width || height != w.surface.Height {
		if err := w.replaceSurface(src, width, height); err != nil {
			return err
		}
		return w.present()
	}

	w.hit.WriteBuffer(func(dst []byte) { PremultiplyToBGRA(dst, src) })
	return w.present()
}

// replaceSurface allocates a surface of the new size, converts src into
// it and swaps it in. The old surface is freed only after the hit tester
// and the native window have moved to the new one.
func (w *TransparentWindow) replaceSurface(src []byte, width, height int) error {
	next, err := w.native.AllocSurface(width, height)
	if err != nil {
		overlay.Logger().Error("window: surface reallocation failed, keeping previous surface",
			"width", width, "height", height, "err", err)
		return err
	}
	PremultiplyToBGRA(next.Pixels, src)

	prev := w.surface
	w.hit.UpdateBuffer(next.Pixels, width, height)
	w.native.SelectSurface(next)
	w.surface = next
	w.native.FreeSurface(prev)
	overlay.Logger().Debug("window: surface resized", "width", width, "height", height)
	return nil
}

func (w *TransparentWindow) present() error {
	if err := w.native.Present(w.x, w.y, w.globalAlpha); err != nil {
		overlay.Logger().Error("window: present failed", "err", err)
		return err
	}
	return nil
}

// SetGlobalAlpha sets the uniform alpha applied over per-pixel alpha and
// re-presents the current surface.
func (w *TransparentWindow) SetGlobalAlpha(alpha uint8) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.globalAlpha = alpha
	if !w.initialized {
		return nil
	}
	return w.present()
}

// GlobalAlpha returns the uniform alpha.
func (w *TransparentWindow) GlobalAlpha() uint8 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.globalAlpha
}

// SetPosition moves the window's top-left corner to (x, y).
func (w *TransparentWindow) SetPosition(x, y int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.initialized {
		return ErrNotInitialized
	}
	if err := w.native.Move(x, y); err != nil {
		return err
	}
	w.x, w.y = x, y
	return w.present()
}

// Position returns the window's top-left screen position.
func (w *TransparentWindow) Position() (x, y int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.x, w.y
}

// SetAlwaysOnTop moves the window into or out of the topmost band.
func (w *TransparentWindow) SetAlwaysOnTop(on bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.initialized {
		return ErrNotInitialized
	}
	if err := w.native.SetTopmost(on); err != nil {
		return err
	}
	w.topmost = on
	return nil
}

// IsAlwaysOnTop reports whether the window is topmost.
func (w *TransparentWindow) IsAlwaysOnTop() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.topmost
}

// Show shows the window without taking focus.
func (w *TransparentWindow) Show() { w.setVisible(true) }

// Hide hides the window. Its surface and state are kept.
func (w *TransparentWindow) Hide() { w.setVisible(false) }

func (w *TransparentWindow) setVisible(on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.initialized || w.visible == on {
		return
	}
	w.native.SetVisible(on)
	w.visible = on
}

// IsVisible reports whether the window is shown.
func (w *TransparentWindow) IsVisible() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.visible
}

// SetHitThreshold sets the alpha at or below which input passes through.
func (w *TransparentWindow) SetHitThreshold(t uint8) { w.hit.SetThreshold(t) }

// HitThreshold returns the click-through threshold.
func (w *TransparentWindow) HitThreshold() uint8 { return w.hit.Threshold() }

// AlphaAt returns the premultiplied surface alpha at window-local (x, y).
func (w *TransparentWindow) AlphaAt(x, y int) uint8 { return w.hit.AlphaAt(x, y) }

// IsTransparentAt reports whether input at window-local (x, y) passes
// through the window.
func (w *TransparentWindow) IsTransparentAt(x, y int) bool { return w.hit.IsTransparentAt(x, y) }

// DrainEvents appends queued pointer events to dst and returns it.
func (w *TransparentWindow) DrainEvents(dst []Event) []Event { return w.events.drain(dst) }

// DroppedEvents returns the number of move events dropped on overflow.
func (w *TransparentWindow) DroppedEvents() uint64 { return w.events.droppedCount() }

// OnClose registers fn to run when the platform asks the window to close.
// The window is hidden, not destroyed.
func (w *TransparentWindow) OnClose(fn func()) {
	w.closeMu.Lock()
	w.onClose = fn
	w.closeMu.Unlock()
}

// CloseRequested reports whether a close request has been received.
func (w *TransparentWindow) CloseRequested() bool { return w.closeRequested.Load() }

func (w *TransparentWindow) handleClose() {
	overlay.Logger().Info("window: close requested")
	w.closeRequested.Store(true)
	w.Hide()

	w.closeMu.Lock()
	fn := w.onClose
	w.closeMu.Unlock()
	if fn != nil {
		fn()
	}
}

// PumpMessages dispatches pending native messages without blocking. It
// returns false once the window should stop running.
func (w *TransparentWindow) PumpMessages() bool {
	w.mu.RLock()
	ok := w.initialized
	w.mu.RUnlock()
	if !ok {
		return false
	}
	return w.native.Pump() && !w.closeRequested.Load()
}

// Handle returns the native window handle, or 0 when headless.
func (w *TransparentWindow) Handle() uintptr { return w.native.Handle() }

// IsInitialized reports whether Initialize succeeded and Shutdown has not
// run.
func (w *TransparentWindow) IsInitialized() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.initialized
}

// Shutdown destroys the native window and its surface. It is safe to call
// more than once.
func (w *TransparentWindow) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.initialized {
		return
	}
	w.hit.UpdateBuffer(nil, 0, 0)
	w.native.Destroy()
	w.surface = nil
	w.visible = false
	w.initialized = false
	overlay.Logger().Info("window: shut down")
}

// Size returns the surface size in pixels.
func (w *TransparentWindow) Size() (width, height int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.surface == nil {
		return 0, 0
	}
	return w.surface.Width, w.surface.Height
}

// ScaleFactor returns the DPI scale of the window's monitor.
func (w *TransparentWindow) ScaleFactor() float64 { return w.native.ScaleFactor() }

// RequestRedraw marks the window as needing a new frame.
func (w *TransparentWindow) RequestRedraw() { w.redraw.Store(true) }

// TakeRedraw reports whether a redraw was requested since the last call
// and clears the request.
func (w *TransparentWindow) TakeRedraw() bool { return w.redraw.Swap(false) }

var _ gpucontext.WindowProvider = (*TransparentWindow)(nil)
