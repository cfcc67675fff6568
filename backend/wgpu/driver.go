// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
)

const (
	// defaultFrameBudget bounds the EndFrame wait for GPU completion.
	defaultFrameBudget = 100 * time.Millisecond

	// defaultReadbackTimeout bounds the wait for a pixel copy to land.
	defaultReadbackTimeout = 5 * time.Second

	// copyPitchAlignment is the WebGPU bytes-per-row alignment for
	// buffer/texture copies. Adapters may require more.
	copyPitchAlignment = 256

	// copyOffsetAlignment keeps upload offsets valid for D3D12 placed
	// footprints as well as WebGPU.
	copyOffsetAlignment = 512
)

// Option configures a Driver.
type Option func(*Driver)

// WithFrameBudget sets how long EndFrame waits for the GPU before
// reporting the frame's GPU time as unavailable.
func WithFrameBudget(d time.Duration) Option {
	return func(drv *Driver) {
		if d > 0 {
			drv.frameBudget = d
		}
	}
}

// WithReadbackTimeout sets how long ReadbackPixels waits for the copy.
func WithReadbackTimeout(d time.Duration) Option {
	return func(drv *Driver) {
		if d > 0 {
			drv.readbackTimeout = d
		}
	}
}

// Driver renders into an off-screen texture through one gogpu/wgpu HAL
// backend and reads it back to host memory.
//
// Driver is not safe for concurrent use. All calls must come from the
// goroutine that owns the device.
type Driver struct {
	variant Variant

	frameBudget     time.Duration
	readbackTimeout time.Duration

	initDone bool
	initErr  error
	window   uintptr

	instance   hal.Instance
	adapter    hal.Adapter
	device     hal.Device
	queue      hal.Queue
	caps       gpucore.DriverCapabilities
	info       gpucore.AdapterInfo
	pitchAlign uint32
	msaa       bool

	target *gpuTarget
	timer  *frameTimer
	upload uploadRing

	frame    frameState
	inflight []submission
	stats    gpucore.FrameStatistics
}

// New creates an uninitialized driver for a HAL backend variant.
func New(v Variant, opts ...Option) *Driver {
	d := &Driver{
		variant:         v,
		frameBudget:     defaultFrameBudget,
		readbackTimeout: defaultReadbackTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the variant name, e.g. "Vulkan".
func (d *Driver) Name() string { return d.variant.Name }

// Type returns the backend identifier.
func (d *Driver) Type() gpucore.BackendType { return d.variant.Type }

// IsSupported creates a throwaway instance and checks that at least one
// adapter is exposed. The driver's own state is not touched.
func (d *Driver) IsSupported() bool {
	b, ok := hal.GetBackend(d.variant.HAL)
	if !ok {
		return false
	}
	inst, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		overlay.Logger().Debug("wgpu: support probe failed", "backend", d.variant.Name, "err", err)
		return false
	}
	defer inst.Destroy()
	return len(inst.EnumerateAdapters(nil)) > 0
}

// Initialize opens the device. The result is cached: later calls return
// the first outcome until Shutdown. A failed initialization leaves nothing
// allocated.
func (d *Driver) Initialize(window uintptr, cfg gpucore.RenderConfig) error {
	if d.initDone {
		return d.initErr
	}
	d.initDone = true
	d.initErr = d.open(window, cfg)
	if d.initErr != nil {
		d.closeDevice()
		overlay.Logger().Warn("wgpu: initialization failed", "backend", d.variant.Name, "err", d.initErr)
	}
	return d.initErr
}

func (d *Driver) open(window uintptr, cfg gpucore.RenderConfig) error {
	b, ok := hal.GetBackend(d.variant.HAL)
	if !ok {
		return fmt.Errorf("%w: %s HAL is not linked", backend.ErrUnsupported, d.variant.Name)
	}

	flags := gputypes.InstanceFlagsNone
	if cfg.DebugValidation {
		flags |= gputypes.InstanceFlagsDebug | gputypes.InstanceFlagsValidation
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: flags})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	d.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("%w: no %s adapters", backend.ErrUnsupported, d.variant.Name)
	}
	selected := selectAdapter(adapters)

	var features gputypes.Features
	if selected.Features.Contains(gputypes.FeatureTimestampQuery) {
		features.Insert(gputypes.FeatureTimestampQuery)
	}
	openDev, err := selected.Adapter.Open(features, gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	d.adapter = selected.Adapter
	d.device = openDev.Device
	d.queue = openDev.Queue
	d.window = window

	d.pitchAlign = copyPitchAlignment
	if p := selected.Capabilities.AlignmentsMask.BufferCopyPitch; p > copyPitchAlignment {
		d.pitchAlign = uint32(p)
	}
	rgba := selected.Adapter.TextureFormatCapabilities(gputypes.TextureFormatRGBA8Unorm)
	d.msaa = rgba.Flags&hal.TextureFormatCapabilityMultisample != 0 &&
		rgba.Flags&hal.TextureFormatCapabilityMultisampleResolve != 0
	d.caps = capabilitiesOf(d.variant, selected, d.msaa)
	d.info = adapterInfoOf(d.variant, selected.Info)

	if features.Contains(gputypes.FeatureTimestampQuery) {
		d.timer = newFrameTimer(d.device, d.queue)
	}

	overlay.Logger().Info("wgpu: device opened",
		"backend", d.variant.Name,
		"adapter", d.info.Description,
		"hardware", d.info.Hardware,
		"timestamps", d.timer != nil)
	return nil
}

// selectAdapter prefers discrete, then integrated GPUs, then whatever is
// first.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

func capabilitiesOf(v Variant, a *hal.ExposedAdapter, msaa bool) gpucore.DriverCapabilities {
	limits := a.Capabilities.Limits
	samples := 1
	if msaa {
		samples = 4
	}
	compute := v.HAL != gputypes.BackendGL ||
		a.Capabilities.DownlevelCapabilities.Flags&hal.DownlevelFlagsComputeShaders != 0

	tier := v.Type.String()
	if sm := a.Capabilities.DownlevelCapabilities.ShaderModel; sm > 0 {
		tier = fmt.Sprintf("%s/sm%d.%d", tier, sm/10, sm%10)
	}
	return gpucore.DriverCapabilities{
		MaxTextureSize:   int(limits.MaxTextureDimension2D),
		MaxRenderTargets: int(limits.MaxColorAttachments),
		MaxSampleCount:   samples,
		Compute:          compute,
		ShaderTier:       tier,
	}
}

func adapterInfoOf(v Variant, info gputypes.AdapterInfo) gpucore.AdapterInfo {
	out := gpucore.AdapterInfo{
		Description: info.Name,
		VendorID:    info.VendorID,
		DeviceID:    info.DeviceID,
		Backend:     v.Type,
	}
	switch info.DeviceType {
	case gputypes.DeviceTypeDiscreteGPU:
		out.Hardware = true
		out.Type = gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		out.Hardware = true
		out.Type = gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		out.Type = gpucontext.AdapterTypeSoftware
	default:
		out.Hardware = info.DeviceType == gputypes.DeviceTypeVirtualGPU
		out.Type = gpucontext.AdapterTypeUnknown
	}
	return out
}

// Shutdown waits for the GPU, releases the target and closes the device.
// The driver can be initialized again afterwards.
func (d *Driver) Shutdown() {
	if !d.initDone {
		return
	}
	if d.frame.active {
		d.frame.discard()
	}
	if d.device != nil {
		if err := d.device.WaitIdle(); err != nil {
			overlay.Logger().Warn("wgpu: wait idle during shutdown", "err", err)
		}
	}
	d.DestroyTarget()
	d.closeDevice()
	d.initDone = false
	d.initErr = nil
	overlay.Logger().Info("wgpu: driver shut down", "backend", d.variant.Name)
}

func (d *Driver) closeDevice() {
	if d.device != nil {
		d.releaseInflight()
		d.upload.release(d.device)
		if d.timer != nil {
			d.timer.release()
			d.timer = nil
		}
		d.device.Destroy()
	}
	if d.adapter != nil {
		d.adapter.Destroy()
	}
	if d.instance != nil {
		d.instance.Destroy()
	}
	d.device = nil
	d.queue = nil
	d.adapter = nil
	d.instance = nil
}

// IsInitialized reports whether the device is open.
func (d *Driver) IsInitialized() bool {
	return d.initDone && d.initErr == nil
}

// Capabilities returns the limits queried at initialization.
func (d *Driver) Capabilities() gpucore.DriverCapabilities { return d.caps }

// AdapterInfo describes the selected adapter.
func (d *Driver) AdapterInfo() gpucore.AdapterInfo { return d.info }

// FrameStats returns the statistics of the last frame.
func (d *Driver) FrameStats() gpucore.FrameStatistics { return d.stats }

// waitSubmission spins until the queue reports idx complete or the timeout
// elapses. It returns false on timeout.
func (d *Driver) waitSubmission(idx uint64, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for spins := 0; d.queue.PollCompleted() < idx; spins++ {
		if time.Now().After(deadline) {
			return false
		}
		if spins > 64 {
			time.Sleep(50 * time.Microsecond)
		}
	}
	return true
}

var _ backend.Driver = (*Driver)(nil)
