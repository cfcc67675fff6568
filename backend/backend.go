package backend

import (
	"errors"

	"github.com/gogpu/overlay/gpucore"
)

// Common driver errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not registered.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Initialize.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrUnsupported is returned by Initialize when the support probe fails.
	ErrUnsupported = errors.New("backend: not supported on this system")

	// ErrNoTarget is returned by frame and readback operations when no
	// off-screen target exists.
	ErrNoTarget = errors.New("backend: no render target")

	// ErrFrameActive is returned when BeginFrame is called inside a frame,
	// or a target is changed while a frame is recording.
	ErrFrameActive = errors.New("backend: frame already active")

	// ErrNoActiveFrame is returned when a frame operation is called outside
	// a BeginFrame/EndFrame bracket.
	ErrNoActiveFrame = errors.New("backend: no active frame")

	// ErrInvalidPixels is returned by DrawPixels when the source buffer is
	// shorter than width*height*4.
	ErrInvalidPixels = errors.New("backend: invalid pixel buffer")
)

// Driver is the graphics driver contract shared by every backend. A driver
// owns a device, at most one off-screen render target and the per-frame
// state. All methods must be called from the goroutine that owns the
// driver's GPU context.
//
// Failures are returned as errors; a driver never panics across this
// boundary and never degrades silently mid-lifetime.
type Driver interface {
	// Name returns a human-readable backend name.
	Name() string

	// Type returns the backend identifier used by the registry.
	Type() gpucore.BackendType

	// IsSupported probes whether the backend can run on this system.
	// It does not change the driver's state.
	IsSupported() bool

	// Initialize creates the device. Calling it again on an initialized
	// driver returns the cached result without side effects. On failure
	// the driver stays uninitialized.
	Initialize(window uintptr, cfg gpucore.RenderConfig) error

	// Shutdown releases the target and the device. Safe to call repeatedly.
	Shutdown()

	// IsInitialized reports whether Initialize succeeded and Shutdown has
	// not been called since.
	IsInitialized() bool

	// CreateTarget creates the off-screen target, replacing any existing one.
	CreateTarget(desc gpucore.RenderTargetDescriptor) error

	// ResizeTarget changes the target size. Unchanged dimensions are a
	// no-op. On failure the previous target stays usable.
	ResizeTarget(width, height int) error

	// DestroyTarget releases the off-screen target.
	DestroyTarget()

	// TargetSize returns the current target dimensions, or 0, 0 without a target.
	TargetSize() (width, height int)

	// BeginFrame opens a frame. It fails without a target.
	BeginFrame() error

	// Clear fills the whole target with c.
	Clear(c gpucore.Color) error

	// SetViewport sets the rectangle subsequent draws map to.
	SetViewport(vp gpucore.Viewport) error

	// DrawPixels copies a straight-alpha RGBA image into the target at the
	// viewport origin, clipped to the viewport, replacing the destination.
	DrawPixels(pixels []byte, width, height int) error

	// EndFrame closes the frame and resolves its timing.
	EndFrame() error

	// AbortFrame drops an open frame without submitting it or counting
	// it in the statistics. It is a no-op outside a frame.
	AbortFrame()

	// ReadbackPixels copies the target into out as top-down RGBA, resizing
	// out when its dimensions differ from the target's.
	ReadbackPixels(out *gpucore.PixelReadback) error

	// Capabilities, AdapterInfo and FrameStats are valid after Initialize.
	Capabilities() gpucore.DriverCapabilities
	AdapterInfo() gpucore.AdapterInfo
	FrameStats() gpucore.FrameStatistics
}

// ValidatePixels checks a DrawPixels source buffer.
func ValidatePixels(pixels []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return gpucore.ErrInvalidDimensions
	}
	if len(pixels) < width*height*4 {
		return ErrInvalidPixels
	}
	return nil
}
