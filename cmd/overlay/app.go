package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/internal/character"
	"github.com/gogpu/overlay/internal/config"
	"github.com/gogpu/overlay/internal/monitor"
	"github.com/gogpu/overlay/internal/opacity"
	"github.com/gogpu/overlay/render"
	"github.com/gogpu/overlay/window"
)

// exitFadeSlack bounds the fade-out loop beyond the configured duration.
const exitFadeSlack = time.Second

type app struct {
	cfg      config.Config
	pipeline *render.Pipeline
	win      *window.TransparentWindow
	anim     *opacity.Animator
	face     *character.Renderer
	reloads  chan config.Config
	now      func() time.Time

	maxFrames int
	frames    int
	alpha     uint8
	events    []window.Event
	drag      drag
}

// drag tracks a left-button drag that moves the window.
type drag struct {
	active           bool
	offsetX, offsetY int
}

type appOption func(*app)

func withPipeline(p *render.Pipeline) appOption { return func(a *app) { a.pipeline = p } }

func withWindow(w *window.TransparentWindow) appOption { return func(a *app) { a.win = w } }

func withClock(now func() time.Time) appOption { return func(a *app) { a.now = now } }

func newApp(cfg config.Config, opts ...appOption) *app {
	easing := opacity.Linear
	if cfg.Animation.Smoothstep() {
		easing = opacity.Smoothstep
	}
	a := &app{
		cfg:     cfg,
		anim:    opacity.New(opacity.WithInitial(0), opacity.WithEasing(easing)),
		face:    character.New(),
		reloads: make(chan config.Config, 1),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.pipeline == nil {
		a.pipeline = render.New()
	}
	if a.win == nil {
		a.win = window.New()
	}
	return a
}

// start brings up the pipeline, then the window centered on the primary
// monitor, and begins the fade in.
func (a *app) start() error {
	rc := a.cfg.RenderConfig()
	if err := a.pipeline.Initialize(0, rc); err != nil {
		return fmt.Errorf("no usable graphics backend: %w", err)
	}
	overlay.Logger().Info("overlay: rendering", "backend", a.pipeline.ActiveBackend(),
		"width", rc.Width, "height", rc.Height)

	wc := a.cfg.WindowConfig()
	if a.cfg.Window.Center {
		m := monitor.Primary()
		wc.X, wc.Y = monitor.Center(wc.Width, wc.Height, m)
		overlay.Logger().Info("overlay: primary monitor",
			"work_area", m.WorkArea.String(), "scale", m.Scale)
	}
	wc.Opacity = 0
	if err := a.win.Initialize(wc); err != nil {
		return fmt.Errorf("window: %w", err)
	}
	a.alpha = 0

	a.anim.OnFadeComplete(func(v float64) {
		overlay.Logger().Info("overlay: fade complete", "opacity", v)
	})
	a.anim.FadeTo(a.targetOpacity(), time.Duration(a.cfg.Animation.FadeIn))
	a.win.OnClose(func() { overlay.Logger().Info("overlay: close requested by user") })
	return nil
}

func (a *app) targetOpacity() float64 {
	return float64(a.cfg.Window.Opacity) / 255
}

// reload queues a new configuration for the frame loop, replacing any
// queued one. It is safe to call from any goroutine.
func (a *app) reload(cfg config.Config) {
	for {
		select {
		case a.reloads <- cfg:
			return
		default:
		}
		select {
		case <-a.reloads:
		default:
		}
	}
}

// run drives frames at the configured rate until the window closes, ctx
// is done or maxFrames is reached, then fades out.
func (a *app) run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Animation.FrameInterval())
	defer ticker.Stop()

	start := a.now()
	last := start
	for {
		select {
		case <-ctx.Done():
			overlay.Logger().Info("overlay: interrupted")
			a.fadeOut()
			return nil
		case cfg := <-a.reloads:
			a.apply(cfg)
		case <-ticker.C:
			now := a.now()
			if err := a.frame(now.Sub(start), now.Sub(last)); err != nil {
				return err
			}
			last = now
			if !a.win.PumpMessages() {
				return nil
			}
			a.handleEvents()
			if a.maxFrames > 0 && a.frames >= a.maxFrames {
				a.fadeOut()
				return nil
			}
		}
	}
}

// frame renders the character at animation time t and composites it.
func (a *app) frame(t, dt time.Duration) error {
	rc := a.pipeline.Config()
	pix, err := a.face.Render(t, rc.Width, rc.Height)
	if err != nil {
		return err
	}

	if err := a.pipeline.BeginFrame(); err != nil {
		return err
	}
	if err := a.pipeline.DrawPixels(pix, rc.Width, rc.Height); err != nil {
		_ = a.pipeline.EndFrame()
		return err
	}
	if err := a.pipeline.EndFrame(); err != nil {
		return err
	}
	rb, err := a.pipeline.ReadbackFrame()
	if err != nil {
		return err
	}
	if err := a.win.UpdateFrame(rb.Data, rb.Width, rb.Height); err != nil {
		return err
	}

	a.anim.Advance(dt)
	a.applyAlpha()

	a.frames++
	if a.frames%600 == 0 {
		s := a.pipeline.Stats()
		overlay.Logger().Debug("overlay: frame stats", "frames", s.FrameCount,
			"cpu", s.CPUTime, "gpu", s.GPUTime, "draws", s.DrawCalls)
	}
	return nil
}

func (a *app) applyAlpha() {
	alpha := a.anim.CurrentAlphaByte()
	if alpha == a.alpha {
		return
	}
	if err := a.win.SetGlobalAlpha(alpha); err != nil {
		overlay.Logger().Warn("overlay: set alpha failed", "err", err)
		return
	}
	a.alpha = alpha
}

func (a *app) handleEvents() {
	a.events = a.win.DrainEvents(a.events[:0])
	for _, ev := range a.events {
		switch ev.Type {
		case gpucontext.PointerDown:
			overlay.Logger().Info("overlay: pointer down", "button", ev.Button.String(),
				"x", ev.X, "y", ev.Y, "screen_x", ev.ScreenX, "screen_y", ev.ScreenY)
			if ev.Button == gpucontext.ButtonLeft {
				a.drag = drag{active: true, offsetX: int(ev.X), offsetY: int(ev.Y)}
			}
		case gpucontext.PointerUp:
			overlay.Logger().Info("overlay: pointer up", "button", ev.Button.String(),
				"x", ev.X, "y", ev.Y)
			if ev.Button == gpucontext.ButtonLeft {
				a.drag.active = false
			}
		case gpucontext.PointerMove:
			if !a.drag.active || !ev.Buttons.HasLeft() {
				continue
			}
			x, y := int(ev.ScreenX)-a.drag.offsetX, int(ev.ScreenY)-a.drag.offsetY
			if err := a.win.SetPosition(x, y); err != nil {
				overlay.Logger().Warn("overlay: move failed", "err", err)
			}
		}
	}
}

// apply takes over the live-tunable settings of a reloaded configuration.
func (a *app) apply(cfg config.Config) {
	old := a.cfg.Window
	a.cfg.Window = cfg.Window
	a.cfg.Animation.FadeIn = cfg.Animation.FadeIn
	a.cfg.Animation.FadeOut = cfg.Animation.FadeOut

	w := cfg.Window
	if w.Opacity != old.Opacity {
		a.anim.FadeTo(a.targetOpacity(), time.Duration(cfg.Animation.FadeIn))
	}
	if w.HitThreshold != old.HitThreshold {
		a.win.SetHitThreshold(uint8(w.HitThreshold))
	}
	if w.AlwaysOnTop != old.AlwaysOnTop {
		if err := a.win.SetAlwaysOnTop(w.AlwaysOnTop); err != nil {
			overlay.Logger().Warn("overlay: always-on-top failed", "err", err)
		}
	}
	if !w.Center && (w.X != old.X || w.Y != old.Y || old.Center) {
		if err := a.win.SetPosition(w.X, w.Y); err != nil {
			overlay.Logger().Warn("overlay: move failed", "err", err)
		}
	}
	overlay.Logger().Info("overlay: configuration applied")
}

// fadeOut fades the window to transparent without rendering new frames.
func (a *app) fadeOut() {
	d := time.Duration(a.cfg.Animation.FadeOut)
	if !a.win.IsVisible() || d <= 0 {
		return
	}
	a.anim.FadeOut(d)
	interval := a.cfg.Animation.FrameInterval()
	deadline := a.now().Add(d + exitFadeSlack)
	last := a.now()
	for a.anim.IsFading() && a.now().Before(deadline) {
		time.Sleep(interval)
		now := a.now()
		a.anim.Advance(now.Sub(last))
		last = now
		a.applyAlpha()
		a.win.PumpMessages()
	}
}

func (a *app) shutdown() {
	a.win.Shutdown()
	a.pipeline.Shutdown()
	if err := a.face.Close(); err != nil {
		overlay.Logger().Warn("overlay: character close failed", "err", err)
	}
	overlay.Logger().Info("overlay: shut down")
}
