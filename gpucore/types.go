package gpucore

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// BackendType identifies a graphics driver implementation.
type BackendType string

// Backend identifiers. BackendNone means "no preference" in a RenderConfig.
const (
	BackendNone         BackendType = "none"
	BackendVulkan       BackendType = "vulkan"
	BackendDX12         BackendType = "dx12"
	BackendMetal        BackendType = "metal"
	BackendGL           BackendType = "gl"
	BackendWGPUSoftware BackendType = "wgpu-software"
	BackendSoftware     BackendType = "software"
)

var knownBackends = []BackendType{
	BackendNone,
	BackendVulkan,
	BackendDX12,
	BackendMetal,
	BackendGL,
	BackendWGPUSoftware,
	BackendSoftware,
}

// String returns the identifier.
func (b BackendType) String() string {
	if b == "" {
		return string(BackendNone)
	}
	return string(b)
}

// IsNone reports whether b carries no backend preference.
func (b BackendType) IsNone() bool {
	return b == "" || b == BackendNone
}

// ParseBackendType parses a backend name. Matching ignores case and
// surrounding whitespace; the empty string parses as BackendNone.
func ParseBackendType(s string) (BackendType, error) {
	name := cases.Fold().String(strings.TrimSpace(s))
	if name == "" {
		return BackendNone, nil
	}
	for _, b := range knownBackends {
		if string(b) == name {
			return b, nil
		}
	}
	return BackendNone, fmt.Errorf("gpucore: unknown backend %q", s)
}

// TargetFormat is the pixel format of an off-screen render target.
type TargetFormat uint8

// Target formats.
const (
	// FormatRGBA8 is 8 bits per channel, normalized unsigned.
	FormatRGBA8 TargetFormat = iota
	// FormatRGBA16Float is 16-bit float per channel.
	FormatRGBA16Float
)

// String returns the format name.
func (f TargetFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBA16Float:
		return "RGBA16Float"
	default:
		return fmt.Sprintf("TargetFormat(%d)", uint8(f))
	}
}

// BytesPerPixel returns the texel size of the format in GPU memory.
func (f TargetFormat) BytesPerPixel() int {
	if f == FormatRGBA16Float {
		return 8
	}
	return 4
}

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// Transparent is fully transparent black.
var Transparent = Color{}

// Bytes converts c to 8-bit channels, clamping and rounding to nearest.
func (c Color) Bytes() (r, g, b, a uint8) {
	return unitToByte(c.R), unitToByte(c.G), unitToByte(c.B), unitToByte(c.A)
}

func unitToByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// Viewport is the rectangle of the target that draws are mapped to.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// FullViewport returns a viewport covering a width x height target with the
// full [0, 1] depth range.
func FullViewport(width, height int) Viewport {
	return Viewport{
		Width:    float32(width),
		Height:   float32(height),
		MaxDepth: 1,
	}
}

// Bounds returns the integer pixel rectangle of v clipped to a
// width x height target as (x0, y0, x1, y1). An empty intersection
// yields x0 == x1 or y0 == y1.
func (v Viewport) Bounds(width, height int) (x0, y0, x1, y1 int) {
	x0 = clampInt(int(v.X), 0, width)
	y0 = clampInt(int(v.Y), 0, height)
	x1 = clampInt(int(v.X+v.Width), x0, width)
	y1 = clampInt(int(v.Y+v.Height), y0, height)
	return x0, y0, x1, y1
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
