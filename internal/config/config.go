// Package config loads the overlay's settings from TOML or YAML files and
// maps them onto the render and window configurations.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/gpucore"
	"github.com/gogpu/overlay/window"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Duration is a time.Duration written as a string such as "750ms".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats d as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the file-level configuration.
type Config struct {
	// LogLevel is debug, info, warn, error or off.
	LogLevel string `toml:"log_level" yaml:"log_level"`
	// LogFile, when set, receives a copy of every log record.
	LogFile   string    `toml:"log_file" yaml:"log_file"`
	Render    Render    `toml:"render" yaml:"render"`
	Window    Window    `toml:"window" yaml:"window"`
	Animation Animation `toml:"animation" yaml:"animation"`
}

// Render configures the render pipeline.
type Render struct {
	Backend    string     `toml:"backend" yaml:"backend"`
	Debug      bool       `toml:"debug" yaml:"debug"`
	Width      int        `toml:"width" yaml:"width"`
	Height     int        `toml:"height" yaml:"height"`
	ClearColor [4]float64 `toml:"clear_color" yaml:"clear_color"`
}

// Window configures the overlay window. X and Y are ignored when Center
// is set.
type Window struct {
	Center       bool   `toml:"center" yaml:"center"`
	X            int    `toml:"x" yaml:"x"`
	Y            int    `toml:"y" yaml:"y"`
	AlwaysOnTop  bool   `toml:"always_on_top" yaml:"always_on_top"`
	Visible      bool   `toml:"visible" yaml:"visible"`
	ToolWindow   bool   `toml:"tool_window" yaml:"tool_window"`
	Title        string `toml:"title" yaml:"title"`
	HitThreshold int    `toml:"hit_threshold" yaml:"hit_threshold"`
	Opacity      int    `toml:"opacity" yaml:"opacity"`
}

// Animation configures the frame loop and fades.
type Animation struct {
	FPS     int      `toml:"fps" yaml:"fps"`
	FadeIn  Duration `toml:"fade_in" yaml:"fade_in"`
	FadeOut Duration `toml:"fade_out" yaml:"fade_out"`
	Easing  string   `toml:"easing" yaml:"easing"`
}

// Default returns the built-in configuration.
func Default() Config {
	rc := gpucore.DefaultRenderConfig()
	wc := window.DefaultConfig()
	return Config{
		LogLevel: "info",
		Render: Render{
			Backend: rc.PreferredBackend.String(),
			Width:   rc.Width,
			Height:  rc.Height,
		},
		Window: Window{
			Center:       true,
			X:            wc.X,
			Y:            wc.Y,
			AlwaysOnTop:  wc.AlwaysOnTop,
			Visible:      wc.Visible,
			ToolWindow:   wc.ToolWindow,
			Title:        wc.Title,
			HitThreshold: int(wc.HitThreshold),
			Opacity:      int(wc.Opacity),
		},
		Animation: Animation{
			FPS:     60,
			FadeIn:  Duration(500 * time.Millisecond),
			FadeOut: Duration(300 * time.Millisecond),
			Easing:  "smoothstep",
		},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, _, err := overlay.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level: %w", ErrInvalid, err)
	}
	if _, err := gpucore.ParseBackendType(c.Render.Backend); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("%w: render size %dx%d", ErrInvalid, c.Render.Width, c.Render.Height)
	}
	for i, v := range c.Render.ClearColor {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: clear_color[%d] = %g outside [0, 1]", ErrInvalid, i, v)
		}
	}
	if err := byteRange("hit_threshold", c.Window.HitThreshold); err != nil {
		return err
	}
	if err := byteRange("opacity", c.Window.Opacity); err != nil {
		return err
	}
	if c.Animation.FPS <= 0 {
		return fmt.Errorf("%w: fps %d", ErrInvalid, c.Animation.FPS)
	}
	if c.Animation.FadeIn < 0 || c.Animation.FadeOut < 0 {
		return fmt.Errorf("%w: negative fade duration", ErrInvalid)
	}
	switch strings.ToLower(c.Animation.Easing) {
	case "", "linear", "smoothstep":
	default:
		return fmt.Errorf("%w: easing %q", ErrInvalid, c.Animation.Easing)
	}
	return nil
}

func byteRange(name string, v int) error {
	if v < 0 || v > 255 {
		return fmt.Errorf("%w: %s %d outside 0..255", ErrInvalid, name, v)
	}
	return nil
}

// RenderConfig returns the render pipeline configuration. c must be valid.
func (c Config) RenderConfig() gpucore.RenderConfig {
	backend, _ := gpucore.ParseBackendType(c.Render.Backend)
	cc := c.Render.ClearColor
	return gpucore.RenderConfig{
		PreferredBackend: backend,
		DebugValidation:  c.Render.Debug,
		Width:            c.Render.Width,
		Height:           c.Render.Height,
		ClearColor:       gpucore.Color{R: cc[0], G: cc[1], B: cc[2], A: cc[3]},
	}
}

// WindowConfig returns the window configuration sized to the render
// target. c must be valid.
func (c Config) WindowConfig() window.Config {
	w := c.Window
	return window.Config{
		X:            w.X,
		Y:            w.Y,
		Width:        c.Render.Width,
		Height:       c.Render.Height,
		AlwaysOnTop:  w.AlwaysOnTop,
		Visible:      w.Visible,
		ToolWindow:   w.ToolWindow,
		Title:        w.Title,
		HitThreshold: uint8(w.HitThreshold),
		Opacity:      uint8(w.Opacity),
	}
}

// Smoothstep reports whether fades use smoothstep easing.
func (a Animation) Smoothstep() bool {
	return strings.EqualFold(a.Easing, "smoothstep")
}

// FrameInterval returns the time between frames.
func (a Animation) FrameInterval() time.Duration {
	if a.FPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(a.FPS)
}
