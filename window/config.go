package window

import (
	"errors"
	"fmt"
)

// DefaultHitThreshold is the alpha at or below which a pixel is
// click-through.
const DefaultHitThreshold = 10

var (
	// ErrNotInitialized is returned by operations on a window before
	// Initialize or after Shutdown.
	ErrNotInitialized = errors.New("window: not initialized")

	// ErrInvalidDimensions is returned for non-positive sizes.
	ErrInvalidDimensions = errors.New("window: invalid dimensions")

	// ErrInvalidPixels is returned by UpdateFrame when the buffer is
	// shorter than width*height*4.
	ErrInvalidPixels = errors.New("window: invalid pixel buffer")
)

// Config describes the overlay window.
type Config struct {
	// X and Y are the top-left screen position.
	X, Y int

	Width, Height int

	AlwaysOnTop bool
	Visible     bool

	// ToolWindow hides the window from the taskbar and the task switcher.
	ToolWindow bool

	Title string

	// HitThreshold is the alpha at or below which input passes through.
	HitThreshold uint8

	// Opacity is the initial global alpha applied on top of per-pixel alpha.
	Opacity uint8
}

// DefaultConfig returns a visible, always-on-top 512x512 tool window at
// (100, 100).
func DefaultConfig() Config {
	return Config{
		X:            100,
		Y:            100,
		Width:        512,
		Height:       512,
		AlwaysOnTop:  true,
		Visible:      true,
		ToolWindow:   true,
		Title:        "Overlay",
		HitThreshold: DefaultHitThreshold,
		Opacity:      255,
	}
}

// Validate checks the window size.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, c.Width, c.Height)
	}
	return nil
}
