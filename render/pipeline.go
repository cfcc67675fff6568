// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
)

// ErrNoBackend is returned by Initialize when no registered backend could
// be started.
var ErrNoBackend = errors.New("render: no backend could be initialized")

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRegistry selects backends from r instead of the default registry.
func WithRegistry(r *backend.Registry) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithClock replaces time.Now for CPU frame timing.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline owns the active driver and the primary surface and enforces
// the BeginFrame, EndFrame, ReadbackFrame ordering.
type Pipeline struct {
	registry *backend.Registry
	now      func() time.Time

	cfg     gpucore.RenderConfig
	driver  backend.Driver
	surface *Surface

	initialized bool
	frameActive bool
	frameStart  time.Time
	stats       gpucore.FrameStatistics
}

// New creates an uninitialized pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		registry: backend.DefaultRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize selects a backend and creates the primary surface. The
// preferred backend in cfg is tried first; the rest of the registry
// follows in priority order. Calling Initialize on an initialized
// pipeline is a no-op.
func (p *Pipeline) Initialize(window uintptr, cfg gpucore.RenderConfig) error {
	if p.initialized {
		overlay.Logger().Warn("render: pipeline already initialized", "backend", p.ActiveBackend())
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var (
		candidates []backend.Entry
		failures   []error
	)
	if !cfg.PreferredBackend.IsNone() {
		if e, ok := p.registry.Lookup(cfg.PreferredBackend); ok {
			candidates = append(candidates, e)
		} else {
			overlay.Logger().Warn("render: preferred backend not registered", "backend", cfg.PreferredBackend)
		}
	}
	for _, e := range p.registry.Entries() {
		if e.Type == cfg.PreferredBackend {
			continue
		}
		candidates = append(candidates, e)
	}

	for _, e := range candidates {
		drv, surface, err := p.start(e, window, cfg)
		if err != nil {
			overlay.Logger().Warn("render: backend unavailable", "backend", e.Type, "err", err)
			failures = append(failures, fmt.Errorf("%s: %w", e.Type, err))
			continue
		}
		p.cfg = cfg
		p.driver = drv
		p.surface = surface
		p.initialized = true
		p.stats = gpucore.FrameStatistics{}

		info := drv.AdapterInfo()
		overlay.Logger().Info("render: backend selected",
			"backend", drv.Type(),
			"name", drv.Name(),
			"adapter", info.Description,
			"hardware", info.Hardware,
			"width", cfg.Width, "height", cfg.Height)
		return nil
	}

	err := fmt.Errorf("%w: registry is empty", ErrNoBackend)
	if len(failures) > 0 {
		err = fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(failures...))
	}
	overlay.Logger().Error("render: initialization failed", "err", err)
	return err
}

// start probes, initializes and creates the primary surface on one
// backend. Any failure shuts the driver down again.
func (p *Pipeline) start(e backend.Entry, window uintptr, cfg gpucore.RenderConfig) (backend.Driver, *Surface, error) {
	drv := e.Factory()
	if drv == nil {
		return nil, nil, ErrNilDriver
	}
	if !drv.IsSupported() {
		return nil, nil, backend.ErrUnsupported
	}
	if err := drv.Initialize(window, cfg); err != nil {
		drv.Shutdown()
		return nil, nil, err
	}

	surface := &Surface{}
	err := surface.Create(drv, gpucore.RenderTargetDescriptor{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      gpucore.FormatRGBA8,
		DepthBuffer: true,
		SampleCount: 1,
	})
	if err != nil {
		drv.Shutdown()
		return nil, nil, fmt.Errorf("create surface: %w", err)
	}
	return drv, surface, nil
}

// BeginFrame opens a frame, clears the surface to the configured clear
// color and sets a full-surface viewport.
func (p *Pipeline) BeginFrame() error {
	if !p.initialized {
		return backend.ErrNotInitialized
	}
	if p.frameActive {
		return backend.ErrFrameActive
	}
	if err := p.driver.BeginFrame(); err != nil {
		return err
	}

	w, h := p.surface.Size()
	if err := p.driver.Clear(p.cfg.ClearColor); err != nil {
		p.driver.AbortFrame()
		overlay.Logger().Error("render: clear failed, frame dropped", "err", err)
		return fmt.Errorf("render: clear: %w", err)
	}
	if err := p.driver.SetViewport(gpucore.FullViewport(w, h)); err != nil {
		p.driver.AbortFrame()
		overlay.Logger().Error("render: set viewport failed, frame dropped", "err", err)
		return fmt.Errorf("render: set viewport: %w", err)
	}

	p.stats.DrawCalls = 0
	p.stats.Triangles = 0
	p.frameStart = p.now()
	p.frameActive = true
	return nil
}

// DrawPixels draws a straight-alpha RGBA image at the viewport origin.
func (p *Pipeline) DrawPixels(pixels []byte, width, height int) error {
	if !p.frameActive {
		return backend.ErrNoActiveFrame
	}
	return p.driver.DrawPixels(pixels, width, height)
}

// EndFrame closes the frame and records its statistics. The frame is
// closed even when the driver reports an error.
func (p *Pipeline) EndFrame() error {
	if !p.frameActive {
		return backend.ErrNoActiveFrame
	}
	p.frameActive = false

	err := p.driver.EndFrame()
	cpu := p.now().Sub(p.frameStart)
	if err != nil {
		return fmt.Errorf("render: end frame: %w", err)
	}

	ds := p.driver.FrameStats()
	p.stats.FrameCount++
	p.stats.CPUTime = cpu
	p.stats.GPUTime = ds.GPUTime
	p.stats.DrawCalls = ds.DrawCalls
	p.stats.Triangles = ds.Triangles
	return nil
}

// ReadbackFrame copies the last completed frame to host memory. The
// returned buffer is reused by the next call.
func (p *Pipeline) ReadbackFrame() (*gpucore.PixelReadback, error) {
	if !p.initialized {
		return nil, backend.ErrNotInitialized
	}
	if p.frameActive {
		return nil, backend.ErrFrameActive
	}
	return p.surface.ReadPixels()
}

// Resize changes the surface size. It is rejected while a frame is active;
// a failed resize keeps the previous surface.
func (p *Pipeline) Resize(width, height int) error {
	if !p.initialized {
		return backend.ErrNotInitialized
	}
	if p.frameActive {
		return backend.ErrFrameActive
	}
	if err := p.surface.Resize(width, height); err != nil {
		return err
	}
	p.cfg.Width, p.cfg.Height = width, height
	return nil
}

// NewSecondaryTarget creates an auxiliary target record on the active
// driver.
func (p *Pipeline) NewSecondaryTarget(name string, desc gpucore.RenderTargetDescriptor) (*SecondaryTarget, error) {
	if !p.initialized {
		return nil, backend.ErrNotInitialized
	}
	return NewSecondaryTarget(name, p.driver, desc)
}

// Shutdown destroys the surface and then the driver. It is safe to call
// more than once.
func (p *Pipeline) Shutdown() {
	if !p.initialized {
		return
	}
	if p.frameActive {
		overlay.Logger().Warn("render: shutdown during active frame")
		p.frameActive = false
	}
	backendType := p.driver.Type()
	p.surface.Destroy()
	p.driver.Shutdown()
	p.surface = nil
	p.driver = nil
	p.initialized = false
	overlay.Logger().Info("render: pipeline shut down", "backend", backendType, "frames", p.stats.FrameCount)
}

// ActiveBackend returns the selected backend, or gpucore.BackendNone.
func (p *Pipeline) ActiveBackend() gpucore.BackendType {
	if p.driver == nil {
		return gpucore.BackendNone
	}
	return p.driver.Type()
}

// Driver returns the active driver, or nil.
func (p *Pipeline) Driver() backend.Driver { return p.driver }

// Surface returns the primary surface, or nil.
func (p *Pipeline) Surface() *Surface { return p.surface }

// Config returns the configuration the pipeline was initialized with,
// with the current surface size.
func (p *Pipeline) Config() gpucore.RenderConfig { return p.cfg }

// Stats returns the statistics of the last completed frame.
func (p *Pipeline) Stats() gpucore.FrameStatistics { return p.stats }

// IsInitialized reports whether a backend is active.
func (p *Pipeline) IsInitialized() bool { return p.initialized }

// IsFrameActive reports whether BeginFrame has been called without a
// matching EndFrame.
func (p *Pipeline) IsFrameActive() bool { return p.frameActive }
