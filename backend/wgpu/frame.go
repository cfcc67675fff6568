package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
)

// frameState is the recording state between BeginFrame and EndFrame.
type frameState struct {
	active   bool
	encoder  hal.CommandEncoder
	passes   int
	viewport gpucore.Viewport
	start    time.Time
}

func (f *frameState) discard() {
	if f.encoder != nil {
		f.encoder.DiscardEncoding()
	}
	*f = frameState{}
}

// submission is a command buffer the GPU may still be executing.
type submission struct {
	index uint64
	cmd   hal.CommandBuffer
}

// BeginFrame starts recording a frame into a fresh command encoder.
func (d *Driver) BeginFrame() error {
	switch {
	case !d.IsInitialized():
		return backend.ErrNotInitialized
	case d.target == nil:
		return backend.ErrNoTarget
	case d.frame.active:
		return backend.ErrFrameActive
	}

	d.reapInflight()

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "overlay_frame"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("overlay_frame"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	d.stats.ResetFrameCounters()
	d.upload.reset()
	d.frame = frameState{
		active:   true,
		encoder:  encoder,
		viewport: gpucore.FullViewport(d.target.desc.Width, d.target.desc.Height),
		start:    time.Now(),
	}
	return nil
}

// Clear records a render pass that clears the color target to c and the
// depth buffer to 1.
func (d *Driver) Clear(c gpucore.Color) error {
	if !d.frame.active {
		return backend.ErrNoActiveFrame
	}
	d.recordPass(passClear, gputypes.Color{R: c.R, G: c.G, B: c.B, A: c.A})
	return nil
}

// SetViewport stores vp; it is applied to every subsequent pass and
// bounds DrawPixels.
func (d *Driver) SetViewport(vp gpucore.Viewport) error {
	if !d.frame.active {
		return backend.ErrNoActiveFrame
	}
	d.frame.viewport = vp
	return nil
}

// DrawPixels uploads a straight-alpha RGBA image and records a copy into
// the target at the viewport origin, clipped to the viewport.
func (d *Driver) DrawPixels(pixels []byte, width, height int) error {
	if !d.frame.active {
		return backend.ErrNoActiveFrame
	}
	if err := backend.ValidatePixels(pixels, width, height); err != nil {
		return err
	}
	if d.frame.passes == 0 {
		d.recordPass(passOpen, gputypes.Color{})
	}

	t := d.target
	x0, y0, x1, y1 := d.frame.viewport.Bounds(t.desc.Width, t.desc.Height)
	cols := min(width, x1-x0)
	rows := min(height, y1-y0)
	d.stats.DrawCalls++
	d.stats.Triangles += 2
	if cols <= 0 || rows <= 0 {
		return nil
	}

	pitch := alignUp(uint32(cols)*t.bpp, d.pitchAlign)
	data := d.upload.stage(pixels, width, cols, rows, pitch, t.desc.Format)
	buf, offset, err := d.upload.alloc(d.device, uint64(len(data)))
	if err != nil {
		return fmt.Errorf("wgpu: upload buffer: %w", err)
	}
	if err := d.queue.WriteBuffer(buf, offset, data); err != nil {
		return fmt.Errorf("wgpu: write upload buffer: %w", err)
	}

	enc := d.frame.encoder
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopyDst,
		},
	}})
	enc.CopyBufferToTexture(buf, t.color, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: offset, BytesPerRow: pitch, RowsPerImage: uint32(rows)},
		TextureBase: hal.ImageCopyTexture{
			Texture: t.color,
			Origin:  hal.Origin3D{X: uint32(x0), Y: uint32(y0)},
			Aspect:  gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{Width: uint32(cols), Height: uint32(rows), DepthOrArrayLayers: 1},
	}})
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopyDst,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	return nil
}

// AbortFrame discards the recorded commands of an open frame. Nothing is
// submitted and the frame is not counted.
func (d *Driver) AbortFrame() {
	if !d.frame.active {
		return
	}
	d.frame.discard()
	d.upload.reset()
	overlay.Logger().Debug("wgpu: frame aborted", "backend", d.variant.Name)
}

// EndFrame closes the frame with a timestamped pass, submits it and waits
// up to the frame budget for completion.
func (d *Driver) EndFrame() error {
	if !d.frame.active {
		return backend.ErrNoActiveFrame
	}

	d.recordPass(passClose, gputypes.Color{})
	if d.timer != nil {
		d.timer.record(d.frame.encoder)
	}

	encoder := d.frame.encoder
	start := d.frame.start
	d.frame = frameState{}

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	idx, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		d.device.FreeCommandBuffer(cmd)
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	d.inflight = append(d.inflight, submission{index: idx, cmd: cmd})

	d.stats.FrameCount++
	d.stats.GPUTime = 0
	if d.waitSubmission(idx, d.frameBudget) {
		if d.timer != nil {
			d.stats.GPUTime = d.timer.read()
		}
		d.reapInflight()
	} else {
		overlay.Logger().Warn("wgpu: frame exceeded budget, GPU time unavailable",
			"budget", d.frameBudget)
	}
	d.stats.CPUTime = time.Since(start)
	return nil
}

type passKind uint8

const (
	passClear passKind = iota // LoadOp clear, first in frame gets the begin timestamp
	passOpen                  // empty load pass carrying the begin timestamp
	passClose                 // empty load pass carrying the end timestamp
)

// recordPass records an empty render pass. The first pass of a frame
// writes the beginning timestamp; the closing pass writes the end one.
func (d *Driver) recordPass(kind passKind, clear gputypes.Color) {
	t := d.target
	color := hal.RenderPassColorAttachment{
		View:    t.colorView,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	desc := &hal.RenderPassDescriptor{Label: "overlay_pass"}

	if kind == passClear {
		color.LoadOp = gputypes.LoadOpClear
		color.ClearValue = clear
		if t.msaaView != nil {
			color.View = t.msaaView
			color.ResolveTarget = t.colorView
		}
		if t.depthView != nil {
			desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
				View:              t.depthView,
				DepthLoadOp:       gputypes.LoadOpClear,
				DepthStoreOp:      gputypes.StoreOpStore,
				DepthClearValue:   1,
				StencilLoadOp:     gputypes.LoadOpClear,
				StencilStoreOp:    gputypes.StoreOpStore,
				StencilClearValue: 0,
			}
		}
	}
	desc.ColorAttachments = []hal.RenderPassColorAttachment{color}

	if d.timer != nil {
		switch {
		case kind == passClose && d.frame.passes == 0:
			desc.TimestampWrites = d.timer.writes(true, true)
		case kind == passClose:
			desc.TimestampWrites = d.timer.writes(false, true)
		case d.frame.passes == 0:
			desc.TimestampWrites = d.timer.writes(true, false)
		}
	}

	pass := d.frame.encoder.BeginRenderPass(desc)
	vp := d.frame.viewport
	pass.SetViewport(vp.X, vp.Y, vp.Width, vp.Height, vp.MinDepth, vp.MaxDepth)
	pass.End()
	d.frame.passes++
}

// reapInflight frees command buffers the GPU has finished with.
func (d *Driver) reapInflight() {
	if len(d.inflight) == 0 {
		return
	}
	done := d.queue.PollCompleted()
	kept := d.inflight[:0]
	for _, s := range d.inflight {
		if s.index <= done {
			d.device.FreeCommandBuffer(s.cmd)
			continue
		}
		kept = append(kept, s)
	}
	d.inflight = kept
	if len(d.inflight) == 0 {
		d.upload.releaseRetired(d.device)
	}
}

// releaseInflight frees every tracked command buffer. Callers wait for
// the device to go idle first.
func (d *Driver) releaseInflight() {
	if d.device == nil {
		return
	}
	for _, s := range d.inflight {
		d.device.FreeCommandBuffer(s.cmd)
	}
	d.inflight = nil
	d.upload.releaseRetired(d.device)
}
