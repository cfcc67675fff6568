package backend

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/gpucore"
)

// softwareMaxTextureSize bounds software targets to keep a single
// allocation below 1 GiB.
const softwareMaxTextureSize = 16384

// SoftwareDriver is the CPU fallback driver. The target is a host pixel
// array, so it is always supported and never reports GPU time.
//
// RGBA16Float targets are stored with 8 bits per channel; the readback
// format is the same either way.
type SoftwareDriver struct {
	initialized bool
	window      uintptr

	pixels []byte
	depth  []float32
	desc   gpucore.RenderTargetDescriptor
	hasTgt bool

	inFrame    bool
	frameStart time.Time
	viewport   gpucore.Viewport
	stats      gpucore.FrameStatistics
}

func init() {
	Register(gpucore.BackendSoftware, PrioritySoftware, func() Driver {
		return NewSoftwareDriver()
	})
}

// NewSoftwareDriver creates an uninitialized software driver.
func NewSoftwareDriver() *SoftwareDriver {
	return &SoftwareDriver{}
}

// Name returns the backend name.
func (d *SoftwareDriver) Name() string { return "Software" }

// Type returns gpucore.BackendSoftware.
func (d *SoftwareDriver) Type() gpucore.BackendType { return gpucore.BackendSoftware }

// IsSupported always returns true.
func (d *SoftwareDriver) IsSupported() bool { return true }

// Initialize marks the driver ready. The window handle is recorded only.
func (d *SoftwareDriver) Initialize(window uintptr, _ gpucore.RenderConfig) error {
	if d.initialized {
		return nil
	}
	d.window = window
	d.initialized = true
	overlay.Logger().Info("backend: software driver initialized")
	return nil
}

// Shutdown releases the target.
func (d *SoftwareDriver) Shutdown() {
	if !d.initialized {
		return
	}
	d.DestroyTarget()
	d.initialized = false
	d.inFrame = false
	overlay.Logger().Info("backend: software driver shut down")
}

// IsInitialized reports whether Initialize succeeded.
func (d *SoftwareDriver) IsInitialized() bool { return d.initialized }

// CreateTarget allocates the pixel array.
func (d *SoftwareDriver) CreateTarget(desc gpucore.RenderTargetDescriptor) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if d.inFrame {
		return ErrFrameActive
	}
	if err := desc.Validate(); err != nil {
		return err
	}
	if desc.Width > softwareMaxTextureSize || desc.Height > softwareMaxTextureSize {
		return fmt.Errorf("backend: software target %dx%d exceeds %d", desc.Width, desc.Height, softwareMaxTextureSize)
	}
	if desc.Samples() > 1 {
		overlay.Logger().Warn("backend: software driver does not multisample, using 1 sample",
			"requested", desc.SampleCount)
		desc.SampleCount = 1
	}

	d.pixels = make([]byte, desc.Width*desc.Height*4)
	d.depth = nil
	if desc.DepthBuffer {
		d.depth = make([]float32, desc.Width*desc.Height)
	}
	d.desc = desc
	d.hasTgt = true
	overlay.Logger().Debug("backend: software target created",
		"width", desc.Width, "height", desc.Height, "depth", desc.DepthBuffer)
	return nil
}

// ResizeTarget reallocates the pixel array.
func (d *SoftwareDriver) ResizeTarget(width, height int) error {
	if !d.hasTgt {
		return ErrNoTarget
	}
	if width == d.desc.Width && height == d.desc.Height {
		return nil
	}
	return d.CreateTarget(d.desc.WithSize(width, height))
}

// DestroyTarget drops the pixel array.
func (d *SoftwareDriver) DestroyTarget() {
	d.pixels = nil
	d.depth = nil
	d.hasTgt = false
	d.desc = gpucore.RenderTargetDescriptor{}
}

// TargetSize returns the target dimensions.
func (d *SoftwareDriver) TargetSize() (int, int) {
	if !d.hasTgt {
		return 0, 0
	}
	return d.desc.Width, d.desc.Height
}

// BeginFrame opens a frame and resets the viewport to the full target.
func (d *SoftwareDriver) BeginFrame() error {
	switch {
	case !d.initialized:
		return ErrNotInitialized
	case !d.hasTgt:
		return ErrNoTarget
	case d.inFrame:
		return ErrFrameActive
	}
	d.stats.ResetFrameCounters()
	d.viewport = gpucore.FullViewport(d.desc.Width, d.desc.Height)
	d.frameStart = time.Now()
	d.inFrame = true
	return nil
}

// Clear fills every pixel with c and resets depth to 1.
func (d *SoftwareDriver) Clear(c gpucore.Color) error {
	if !d.inFrame {
		return ErrNoActiveFrame
	}
	r, g, b, a := c.Bytes()
	px := d.pixels
	if len(px) >= 4 {
		px[0], px[1], px[2], px[3] = r, g, b, a
		// Doubling copy fills the rest from the first pixel.
		for n := 4; n < len(px); n *= 2 {
			copy(px[n:], px[:n])
		}
	}
	for i := range d.depth {
		d.depth[i] = 1
	}
	return nil
}

// SetViewport stores vp for subsequent draws.
func (d *SoftwareDriver) SetViewport(vp gpucore.Viewport) error {
	if !d.inFrame {
		return ErrNoActiveFrame
	}
	d.viewport = vp
	return nil
}

// DrawPixels copies src into the viewport.
func (d *SoftwareDriver) DrawPixels(pixels []byte, width, height int) error {
	if !d.inFrame {
		return ErrNoActiveFrame
	}
	if err := ValidatePixels(pixels, width, height); err != nil {
		return err
	}
	x0, y0, x1, y1 := d.viewport.Bounds(d.desc.Width, d.desc.Height)
	cols := min(width, x1-x0)
	rows := min(height, y1-y0)
	if cols > 0 && rows > 0 {
		stride := d.desc.Width * 4
		for y := 0; y < rows; y++ {
			dst := (y0+y)*stride + x0*4
			src := y * width * 4
			copy(d.pixels[dst:dst+cols*4], pixels[src:src+cols*4])
		}
	}
	d.stats.DrawCalls++
	d.stats.Triangles += 2
	return nil
}

// EndFrame closes the frame.
func (d *SoftwareDriver) EndFrame() error {
	if !d.inFrame {
		return ErrNoActiveFrame
	}
	d.inFrame = false
	d.stats.FrameCount++
	d.stats.CPUTime = time.Since(d.frameStart)
	d.stats.GPUTime = 0
	return nil
}

// AbortFrame closes an open frame without counting it. Pixels already
// written stay in the array.
func (d *SoftwareDriver) AbortFrame() {
	d.inFrame = false
}

// ReadbackPixels copies the pixel array into out.
func (d *SoftwareDriver) ReadbackPixels(out *gpucore.PixelReadback) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if !d.hasTgt {
		return ErrNoTarget
	}
	if err := out.Allocate(d.desc.Width, d.desc.Height); err != nil {
		return err
	}
	copy(out.Data, d.pixels)
	return nil
}

// Capabilities describes the CPU rasterizer.
func (d *SoftwareDriver) Capabilities() gpucore.DriverCapabilities {
	return gpucore.DriverCapabilities{
		MaxTextureSize:   softwareMaxTextureSize,
		MaxRenderTargets: 1,
		MaxSampleCount:   1,
		ShaderTier:       "software",
	}
}

// AdapterInfo describes the CPU adapter.
func (d *SoftwareDriver) AdapterInfo() gpucore.AdapterInfo {
	return gpucore.AdapterInfo{
		Description: "CPU rasterizer",
		Hardware:    false,
		Type:        gpucontext.AdapterTypeSoftware,
		Backend:     gpucore.BackendSoftware,
	}
}

// FrameStats returns the statistics of the last frame.
func (d *SoftwareDriver) FrameStats() gpucore.FrameStatistics { return d.stats }
