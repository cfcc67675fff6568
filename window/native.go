package window

// Callbacks are the hooks a Native invokes from its message dispatch.
type Callbacks struct {
	// HitTest reports whether input at a window-local point passes
	// through to whatever is beneath the window.
	HitTest func(clientX, clientY int) bool

	// Pointer receives button and move events on owned input.
	Pointer func(Event)

	// Close is called when the OS asks the window to close.
	Close func()
}

// Surface is an OS-owned, top-down BGRA pixel buffer allocated by a
// Native. Pixels stays valid until the surface is passed to FreeSurface
// or the window is destroyed.
type Surface struct {
	Pixels []byte
	Width  int
	Height int
}

// Native is the platform side of a TransparentWindow: a borderless
// layered window and OS-owned BGRA surfaces composited with per-pixel
// alpha.
//
// All methods are called from the goroutine that created the window.
type Native interface {
	// Create creates the window. It is not shown.
	Create(cfg Config, cb Callbacks) error

	// AllocSurface allocates a surface cleared to transparent. The
	// selected surface is not affected, so a failed allocation leaves
	// the window presentable.
	AllocSurface(width, height int) (*Surface, error)

	// SelectSurface makes s the surface Present composites.
	SelectSurface(s *Surface)

	// FreeSurface releases s. Freeing the selected surface deselects it.
	FreeSurface(s *Surface)

	// Present composites the selected surface at screen position (x, y) with alpha
	// as a uniform multiplier on per-pixel alpha.
	Present(x, y int, alpha uint8) error

	// Move moves the window without resizing it.
	Move(x, y int) error

	// SetTopmost moves the window into or out of the topmost z-order band.
	SetTopmost(on bool) error

	// SetVisible shows the window without activating it, or hides it.
	SetVisible(on bool)

	// Pump dispatches pending messages without blocking. It returns false
	// once the platform asks the application to quit.
	Pump() bool

	// ScaleFactor returns the DPI scale of the window's monitor.
	ScaleFactor() float64

	// Handle returns the native window handle, or 0.
	Handle() uintptr

	// Destroy destroys the window and frees every surface still allocated.
	Destroy()
}
