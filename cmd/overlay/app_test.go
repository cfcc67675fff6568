package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
	"github.com/gogpu/overlay/internal/config"
	"github.com/gogpu/overlay/render"
	"github.com/gogpu/overlay/window"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Render.Width, cfg.Render.Height = 64, 64
	cfg.Window.Center = false
	cfg.Window.X, cfg.Window.Y = 10, 20
	cfg.Animation.FPS = 1000
	cfg.Animation.FadeIn = 0
	cfg.Animation.FadeOut = 0
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config) (*app, *window.Headless) {
	t.Helper()
	reg := backend.NewRegistry()
	reg.Register(gpucore.BackendSoftware, backend.PrioritySoftware, func() backend.Driver {
		return backend.NewSoftwareDriver()
	})
	h := window.NewHeadless()
	a := newApp(cfg,
		withPipeline(render.New(render.WithRegistry(reg))),
		withWindow(window.New(window.WithNative(h))),
	)
	t.Cleanup(a.shutdown)
	return a, h
}

func TestAppRunsFrames(t *testing.T) {
	a, h := newTestApp(t, testConfig())
	require.NoError(t, a.start())
	assert.Equal(t, gpucore.BackendSoftware, a.pipeline.ActiveBackend())

	a.maxFrames = 3
	require.NoError(t, a.run(context.Background()))
	assert.Equal(t, 3, a.frames)
	assert.Equal(t, uint64(3), a.pipeline.Stats().FrameCount)

	p, _ := h.LastPresentation()
	assert.Equal(t, 10, p.X)
	assert.Equal(t, 20, p.Y)
	assert.Equal(t, 64, p.Width)
	assert.Equal(t, uint8(255), p.Alpha, "instant fade in")
	assert.Equal(t, uint8(255), p.EffectiveAlpha(32, 32), "character body is opaque")
	assert.Equal(t, uint8(0), p.EffectiveAlpha(0, 0))

	assert.False(t, a.win.IsTransparentAt(32, 32))
	assert.True(t, a.win.IsTransparentAt(0, 0))
}

func TestAppFadeIn(t *testing.T) {
	cfg := testConfig()
	cfg.Animation.FadeIn = config.Duration(time.Second)
	cfg.Animation.Easing = "linear"
	a, h := newTestApp(t, cfg)
	require.NoError(t, a.start())

	require.NoError(t, a.frame(0, 500*time.Millisecond))
	p, _ := h.LastPresentation()
	assert.Equal(t, uint8(128), p.Alpha)
}

// steppingClock advances by step on every reading.
func steppingClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestAppFadesOutOnExit(t *testing.T) {
	cfg := testConfig()
	cfg.Animation.FadeOut = config.Duration(40 * time.Millisecond)
	reg := backend.NewRegistry()
	reg.Register(gpucore.BackendSoftware, backend.PrioritySoftware, func() backend.Driver {
		return backend.NewSoftwareDriver()
	})
	h := window.NewHeadless()
	a := newApp(cfg,
		withPipeline(render.New(render.WithRegistry(reg))),
		withWindow(window.New(window.WithNative(h))),
		withClock(steppingClock(10*time.Millisecond)),
	)
	defer a.shutdown()
	require.NoError(t, a.start())

	a.maxFrames = 1
	require.NoError(t, a.run(context.Background()))
	assert.False(t, a.anim.IsFading())
	assert.Equal(t, uint8(0), a.win.GlobalAlpha())
	p, _ := h.LastPresentation()
	assert.Equal(t, uint8(0), p.Alpha)
}

func TestAppStopsOnClose(t *testing.T) {
	a, h := newTestApp(t, testConfig())
	require.NoError(t, a.start())
	h.RequestClose()

	require.NoError(t, a.run(context.Background()))
	assert.Equal(t, 1, a.frames)
	assert.False(t, a.win.IsVisible())
}

func TestAppStopsOnCancel(t *testing.T) {
	a, _ := newTestApp(t, testConfig())
	require.NoError(t, a.start())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, a.run(ctx))
}

func TestAppDragMovesWindow(t *testing.T) {
	a, h := newTestApp(t, testConfig())
	require.NoError(t, a.start())
	require.NoError(t, a.frame(time.Second, 0))

	require.True(t, h.SendPointer(gpucontext.PointerDown, gpucontext.ButtonLeft, 32, 32))
	require.True(t, h.SendPointer(gpucontext.PointerMove, gpucontext.ButtonLeft, 40, 36))
	a.handleEvents()
	assert.True(t, a.drag.active)

	x, y := a.win.Position()
	assert.Equal(t, 18, x)
	assert.Equal(t, 24, y)
	hx, hy := h.Position()
	assert.Equal(t, 18, hx)
	assert.Equal(t, 24, hy)

	require.True(t, h.SendPointer(gpucontext.PointerUp, gpucontext.ButtonLeft, 32, 32))
	a.handleEvents()
	assert.False(t, a.drag.active)

	// Moves without a drag leave the window in place.
	require.True(t, h.SendPointer(gpucontext.PointerMove, gpucontext.ButtonLeft, 32, 32))
	a.handleEvents()
	x, y = a.win.Position()
	assert.Equal(t, 18, x)
	assert.Equal(t, 24, y)
}

func TestAppApplyReload(t *testing.T) {
	a, h := newTestApp(t, testConfig())
	require.NoError(t, a.start())
	require.NoError(t, a.frame(0, 0))

	next := testConfig()
	next.Window.Opacity = 51
	next.Window.HitThreshold = 200
	next.Window.AlwaysOnTop = false
	next.Window.X, next.Window.Y = 300, 400
	a.reload(testConfig())
	a.reload(next)
	a.apply(<-a.reloads)

	assert.Equal(t, uint8(200), a.win.HitThreshold())
	assert.False(t, a.win.IsAlwaysOnTop())
	assert.False(t, h.Topmost())
	x, y := a.win.Position()
	assert.Equal(t, 300, x)
	assert.Equal(t, 400, y)

	a.anim.Advance(time.Millisecond)
	a.applyAlpha()
	assert.Equal(t, uint8(51), a.win.GlobalAlpha())
}

func TestAppStartFailsWithoutBackend(t *testing.T) {
	a := newApp(testConfig(),
		withPipeline(render.New(render.WithRegistry(backend.NewRegistry()))),
		withWindow(window.New(window.WithNative(window.NewHeadless()))),
	)
	defer a.shutdown()
	err := a.start()
	require.Error(t, err)
	assert.ErrorIs(t, err, render.ErrNoBackend)
	assert.False(t, a.win.IsInitialized(), "window is not created without a backend")
}

func TestLoadConfigFlags(t *testing.T) {
	f := flags{backend: "software", width: 128, x: 5, opacity: 99, logLevel: "debug", logFile: "o.log", fps: 30}
	cfg, err := loadConfig(f, map[string]bool{
		"backend": true, "width": true, "x": true, "opacity": true, "log-level": true, "log-file": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "software", cfg.Render.Backend)
	assert.Equal(t, 128, cfg.Render.Width)
	assert.Equal(t, 512, cfg.Render.Height)
	assert.False(t, cfg.Window.Center)
	assert.Equal(t, 5, cfg.Window.X)
	assert.Equal(t, config.Default().Window.Y, cfg.Window.Y)
	assert.Equal(t, 99, cfg.Window.Opacity)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "o.log", cfg.LogFile)
	assert.Equal(t, 60, cfg.Animation.FPS, "unset flags keep file values")

	_, err = loadConfig(flags{width: -1}, map[string]bool{"width": true})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestNewLoggerWritesConsoleAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.log")
	require.NoError(t, os.WriteFile(path, []byte("earlier\n"), 0o644))

	cfg := config.Default()
	cfg.LogFile = path
	var console bytes.Buffer
	logger, closeLog, err := newLogger(&console, cfg)
	require.NoError(t, err)
	logger.Info("frame loop started", "fps", 60)
	logger.Debug("hidden at info")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, console.String(), "frame loop started")
	assert.NotContains(t, console.String(), "hidden at info")
	assert.True(t, bytes.HasPrefix(data, []byte("earlier\n")), "file is appended to")
	assert.Contains(t, string(data), "msg=\"frame loop started\" fps=60")
}

func TestNewLoggerConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger, closeLog, err := newLogger(&console, config.Default())
	require.NoError(t, err)
	logger.Warn("no file")
	assert.NoError(t, closeLog())
	assert.Contains(t, console.String(), "no file")
}

func TestNewLoggerBadFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "missing", "overlay.log")
	_, closeLog, err := newLogger(&bytes.Buffer{}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log file")
	assert.NoError(t, closeLog())
}
