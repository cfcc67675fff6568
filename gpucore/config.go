package gpucore

import (
	"errors"
	"fmt"
)

// ErrInvalidDimensions is returned when a width or height is not positive.
var ErrInvalidDimensions = errors.New("gpucore: invalid dimensions")

// Default render configuration values.
const (
	DefaultWidth  = 512
	DefaultHeight = 512
)

// RenderConfig configures a render pipeline. It is supplied once at
// initialization; only Width and Height change afterwards, through the
// pipeline's resize path.
type RenderConfig struct {
	// PreferredBackend is tried first when not BackendNone.
	PreferredBackend BackendType

	// DebugValidation enables API validation layers where the backend has them.
	DebugValidation bool

	// Width and Height are the off-screen target size in pixels.
	Width  int
	Height int

	// ClearColor is applied at the start of every frame.
	ClearColor Color
}

// DefaultRenderConfig returns a 512x512 configuration that clears to
// transparent black and has no backend preference.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		PreferredBackend: BackendNone,
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		ClearColor:       Transparent,
	}
}

// Validate checks the configured target size.
func (c RenderConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, c.Width, c.Height)
	}
	return nil
}

// RenderTargetDescriptor describes an off-screen target to create. Drivers
// consume it and do not retain it.
type RenderTargetDescriptor struct {
	Width       int
	Height      int
	Format      TargetFormat
	DepthBuffer bool
	// SampleCount is the MSAA sample count; values below 1 are treated as 1.
	SampleCount int
}

// Samples returns the effective sample count (at least 1).
func (d RenderTargetDescriptor) Samples() int {
	if d.SampleCount < 1 {
		return 1
	}
	return d.SampleCount
}

// Validate checks the descriptor dimensions and format.
func (d RenderTargetDescriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, d.Width, d.Height)
	}
	if d.Format != FormatRGBA8 && d.Format != FormatRGBA16Float {
		return fmt.Errorf("gpucore: unsupported target format %s", d.Format)
	}
	return nil
}

// WithSize returns a copy of d with new dimensions.
func (d RenderTargetDescriptor) WithSize(width, height int) RenderTargetDescriptor {
	d.Width = width
	d.Height = height
	return d
}
