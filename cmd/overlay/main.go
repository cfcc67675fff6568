// Command overlay shows an animated character in a transparent,
// click-through desktop window.
//
// Frames are rendered off-screen on the best available GPU backend (or
// the software fallback), read back, and composited by the platform with
// per-pixel alpha. Only the character's opaque pixels take mouse input.
//
// Usage:
//
//	overlay [-config overlay.toml] [-watch] [-backend vulkan] [-log-file overlay.log] ...
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/gogpu/overlay"
	_ "github.com/gogpu/overlay/backend/wgpu"
	"github.com/gogpu/overlay/internal/config"
)

// GPU contexts and native windows are bound to the thread that creates
// them; the frame loop runs on the main goroutine, locked here.
func init() { runtime.LockOSThread() }

type flags struct {
	config    string
	watch     bool
	backend   string
	debug     bool
	width     int
	height    int
	x, y      int
	fps       int
	opacity   int
	threshold int
	logLevel  string
	logFile   string
	frames    int
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "configuration file (.toml, .yaml or .yml)")
	flag.BoolVar(&f.watch, "watch", false, "reload the configuration file when it changes")
	flag.StringVar(&f.backend, "backend", "", "preferred backend: none, vulkan, dx12, metal, gl, wgpu-software, software")
	flag.BoolVar(&f.debug, "debug", false, "enable GPU validation layers")
	flag.IntVar(&f.width, "width", 0, "render width in pixels")
	flag.IntVar(&f.height, "height", 0, "render height in pixels")
	flag.IntVar(&f.x, "x", 0, "window x position (disables centering)")
	flag.IntVar(&f.y, "y", 0, "window y position (disables centering)")
	flag.IntVar(&f.fps, "fps", 0, "frames per second")
	flag.IntVar(&f.opacity, "opacity", 0, "window opacity 0-255")
	flag.IntVar(&f.threshold, "threshold", 0, "click-through alpha threshold 0-255")
	flag.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error, off")
	flag.StringVar(&f.logFile, "log-file", "", "also append log records to this file")
	flag.IntVar(&f.frames, "frames", 0, "exit after this many frames (0 runs until closed)")
	flag.Parse()

	cfg, err := loadConfig(f, setFlags())
	if err != nil {
		log.Fatalf("overlay: %v", err)
	}

	logger, closeLog, err := newLogger(os.Stderr, cfg)
	if err != nil {
		log.Fatalf("overlay: %v", err)
	}
	defer closeLog()
	overlay.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg)
	a.maxFrames = f.frames
	if f.watch && f.config != "" {
		go func() {
			if err := config.Watch(ctx, f.config, a.reload); err != nil {
				overlay.Logger().Warn("overlay: config watch stopped", "err", err)
			}
		}()
	}

	if err := a.start(); err != nil {
		overlay.Logger().Error("overlay: startup failed", "err", err)
		a.shutdown()
		stop()
		log.Fatalf("overlay: %v", err)
	}
	if err := a.run(ctx); err != nil {
		overlay.Logger().Error("overlay: frame loop failed", "err", err)
	}
	a.shutdown()
}

// newLogger builds the process logger. Records go to console and, when
// cfg.LogFile is set, are appended to that file as well. The returned
// func closes the file.
func newLogger(console io.Writer, cfg config.Config) (*slog.Logger, func() error, error) {
	nop := func() error { return nil }
	if cfg.LogFile == "" {
		logger, err := overlay.NewTextLogger(console, cfg.LogLevel)
		return logger, nop, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nop, fmt.Errorf("log file: %w", err)
	}
	logger, err := overlay.NewTextLogger(io.MultiWriter(console, f), cfg.LogLevel)
	if err != nil {
		_ = f.Close()
		return nil, nop, err
	}
	return logger, f.Close, nil
}

func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

// loadConfig reads the configuration file, if any, and applies the flags
// that were set on the command line.
func loadConfig(f flags, set map[string]bool) (config.Config, error) {
	cfg := config.Default()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return cfg, err
		}
	}

	if set["backend"] {
		cfg.Render.Backend = f.backend
	}
	if set["debug"] {
		cfg.Render.Debug = f.debug
	}
	if set["width"] {
		cfg.Render.Width = f.width
	}
	if set["height"] {
		cfg.Render.Height = f.height
	}
	if set["x"] || set["y"] {
		cfg.Window.Center = false
		if set["x"] {
			cfg.Window.X = f.x
		}
		if set["y"] {
			cfg.Window.Y = f.y
		}
	}
	if set["fps"] {
		cfg.Animation.FPS = f.fps
	}
	if set["opacity"] {
		cfg.Window.Opacity = f.opacity
	}
	if set["threshold"] {
		cfg.Window.HitThreshold = f.threshold
	}
	if set["log-level"] {
		cfg.LogLevel = f.logLevel
	}
	if set["log-file"] {
		cfg.LogFile = f.logFile
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
