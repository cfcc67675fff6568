package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
)

// gpuTarget is the off-screen color texture plus its optional MSAA and
// depth companions and the staging buffer used for readback.
type gpuTarget struct {
	desc   gpucore.RenderTargetDescriptor
	format gputypes.TextureFormat
	bpp    uint32
	pitch  uint32

	color     hal.Texture
	colorView hal.TextureView

	msaa     hal.Texture
	msaaView hal.TextureView

	depth     hal.Texture
	depthView hal.TextureView

	staging hal.Buffer
}

func (t *gpuTarget) width() uint32  { return uint32(t.desc.Width) }
func (t *gpuTarget) height() uint32 { return uint32(t.desc.Height) }

func textureFormat(f gpucore.TargetFormat) gputypes.TextureFormat {
	if f == gpucore.FormatRGBA16Float {
		return gputypes.TextureFormatRGBA16Float
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// alignUp rounds v up to a multiple of a (a power of two).
func alignUp(v, a uint32) uint32 {
	return (v + a - 1) &^ (a - 1)
}

// CreateTarget creates the off-screen target, replacing the current one
// only after the new one is complete.
func (d *Driver) CreateTarget(desc gpucore.RenderTargetDescriptor) error {
	if !d.IsInitialized() {
		return backend.ErrNotInitialized
	}
	if d.frame.active {
		return backend.ErrFrameActive
	}
	if err := desc.Validate(); err != nil {
		return err
	}
	if maxSize := d.caps.MaxTextureSize; maxSize > 0 && (desc.Width > maxSize || desc.Height > maxSize) {
		return fmt.Errorf("wgpu: target %dx%d exceeds max texture size %d", desc.Width, desc.Height, maxSize)
	}
	if desc.Samples() > 1 && (!d.msaa || desc.Samples() > d.caps.MaxSampleCount) {
		overlay.Logger().Warn("wgpu: multisampling unsupported, using 1 sample",
			"requested", desc.SampleCount, "max", d.caps.MaxSampleCount)
		desc.SampleCount = 1
	}

	t, err := d.newTarget(desc)
	if err != nil {
		return err
	}
	if d.target != nil {
		d.releaseTarget(d.target)
	}
	d.target = t
	overlay.Logger().Debug("wgpu: target created",
		"width", desc.Width, "height", desc.Height,
		"format", desc.Format, "samples", desc.Samples(),
		"depth", desc.DepthBuffer, "pitch", t.pitch)
	return nil
}

// ResizeTarget recreates the target at the new size. Unchanged dimensions
// are a no-op; on failure the previous target is kept.
func (d *Driver) ResizeTarget(width, height int) error {
	if d.target == nil {
		return backend.ErrNoTarget
	}
	if width == d.target.desc.Width && height == d.target.desc.Height {
		return nil
	}
	return d.CreateTarget(d.target.desc.WithSize(width, height))
}

// DestroyTarget releases the target.
func (d *Driver) DestroyTarget() {
	if d.target == nil {
		return
	}
	d.AbortFrame()
	if d.device != nil {
		if err := d.device.WaitIdle(); err != nil {
			overlay.Logger().Warn("wgpu: wait idle before target release", "err", err)
		}
	}
	d.releaseInflight()
	d.releaseTarget(d.target)
	d.target = nil
}

// TargetSize returns the target dimensions.
func (d *Driver) TargetSize() (int, int) {
	if d.target == nil {
		return 0, 0
	}
	return d.target.desc.Width, d.target.desc.Height
}

func (d *Driver) newTarget(desc gpucore.RenderTargetDescriptor) (t *gpuTarget, err error) {
	t = &gpuTarget{
		desc:   desc,
		format: textureFormat(desc.Format),
		bpp:    uint32(desc.Format.BytesPerPixel()),
	}
	t.pitch = alignUp(uint32(desc.Width)*t.bpp, d.pitchAlign)

	defer func() {
		if err != nil {
			d.releaseTarget(t)
		}
	}()

	size := hal.Extent3D{Width: t.width(), Height: t.height(), DepthOrArrayLayers: 1}

	t.color, t.colorView, err = d.createTexture("overlay_target", size, t.format, 1,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc|gputypes.TextureUsageCopyDst)
	if err != nil {
		return t, fmt.Errorf("create color target: %w", err)
	}

	if samples := desc.Samples(); samples > 1 {
		t.msaa, t.msaaView, err = d.createTexture("overlay_target_msaa", size, t.format, uint32(samples),
			gputypes.TextureUsageRenderAttachment)
		if err != nil {
			return t, fmt.Errorf("create msaa target: %w", err)
		}
	}

	if desc.DepthBuffer {
		t.depth, t.depthView, err = d.createTexture("overlay_depth", size, gputypes.TextureFormatDepth24PlusStencil8,
			uint32(desc.Samples()), gputypes.TextureUsageRenderAttachment)
		if err != nil {
			return t, fmt.Errorf("create depth buffer: %w", err)
		}
	}

	t.staging, err = d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "overlay_readback",
		Size:  uint64(t.pitch) * uint64(t.height()),
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return t, fmt.Errorf("create readback buffer: %w", err)
	}
	return t, nil
}

func (d *Driver) createTexture(label string, size hal.Extent3D, format gputypes.TextureFormat,
	samples uint32, usage gputypes.TextureUsage,
) (hal.Texture, hal.TextureView, error) {
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, err
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, nil, err
	}
	return tex, view, nil
}

func (d *Driver) releaseTarget(t *gpuTarget) {
	if t == nil || d.device == nil {
		return
	}
	if t.staging != nil {
		d.device.DestroyBuffer(t.staging)
	}
	for _, pair := range []struct {
		view hal.TextureView
		tex  hal.Texture
	}{
		{t.depthView, t.depth},
		{t.msaaView, t.msaa},
		{t.colorView, t.color},
	} {
		if pair.view != nil {
			d.device.DestroyTextureView(pair.view)
		}
		if pair.tex != nil {
			d.device.DestroyTexture(pair.tex)
		}
	}
	*t = gpuTarget{}
}
