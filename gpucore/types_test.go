package gpucore

import (
	"errors"
	"testing"
)

func TestPixelReadbackAllocate(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"square", 64, 64},
		{"wide", 300, 1},
		{"tall", 1, 513},
		{"single", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PixelReadback
			if err := p.Allocate(tt.w, tt.h); err != nil {
				t.Fatalf("Allocate(%d, %d) error = %v", tt.w, tt.h, err)
			}
			if !p.IsValid() {
				t.Error("IsValid() = false after Allocate")
			}
			if got, want := len(p.Data), tt.w*tt.h*4; got != want {
				t.Errorf("len(Data) = %d, want %d", got, want)
			}
		})
	}
}

func TestPixelReadbackAllocateInvalid(t *testing.T) {
	var p PixelReadback
	if err := p.Allocate(8, 8); err != nil {
		t.Fatal(err)
	}
	for _, dims := range [][2]int{{0, 8}, {8, 0}, {-1, 4}} {
		err := p.Allocate(dims[0], dims[1])
		if !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("Allocate(%d, %d) error = %v, want ErrInvalidDimensions", dims[0], dims[1], err)
		}
	}
	if p.Width != 8 || p.Height != 8 || !p.IsValid() {
		t.Errorf("failed Allocate changed state: %dx%d valid=%v", p.Width, p.Height, p.IsValid())
	}
}

func TestPixelReadbackReuse(t *testing.T) {
	var p PixelReadback
	if err := p.Allocate(16, 16); err != nil {
		t.Fatal(err)
	}
	first := &p.Data[0]
	if err := p.Allocate(16, 16); err != nil {
		t.Fatal(err)
	}
	if &p.Data[0] != first {
		t.Error("Allocate with unchanged size reallocated the buffer")
	}
	if err := p.Allocate(32, 16); err != nil {
		t.Fatal(err)
	}
	if len(p.Data) != 32*16*4 {
		t.Errorf("len(Data) = %d after resize", len(p.Data))
	}
}

func TestPixelReadbackIsValid(t *testing.T) {
	var nilReadback *PixelReadback
	if nilReadback.IsValid() {
		t.Error("nil readback reported valid")
	}
	p := PixelReadback{Data: make([]byte, 10), Width: 2, Height: 2}
	if p.IsValid() {
		t.Error("mismatched length reported valid")
	}
	p.Release()
	if p.IsValid() || p.Data != nil {
		t.Error("Release did not reset the readback")
	}
}

func TestPixelReadbackRGBA(t *testing.T) {
	var p PixelReadback
	if err := p.Allocate(2, 2); err != nil {
		t.Fatal(err)
	}
	copy(p.Data[(1*2+1)*4:], []byte{1, 2, 3, 4})
	r, g, b, a := p.RGBA(1, 1)
	if r != 1 || g != 2 || b != 3 || a != 4 {
		t.Errorf("RGBA(1,1) = %d,%d,%d,%d", r, g, b, a)
	}
	if _, _, _, a := p.RGBA(2, 0); a != 0 {
		t.Error("out of range RGBA returned data")
	}
	p.Clear()
	if _, _, _, a := p.RGBA(1, 1); a != 0 {
		t.Error("Clear did not zero pixels")
	}
}

func TestParseBackendType(t *testing.T) {
	tests := []struct {
		in   string
		want BackendType
		err  bool
	}{
		{"", BackendNone, false},
		{"none", BackendNone, false},
		{"Vulkan", BackendVulkan, false},
		{"  DX12 ", BackendDX12, false},
		{"SOFTWARE", BackendSoftware, false},
		{"wgpu-software", BackendWGPUSoftware, false},
		{"directx9", BackendNone, true},
	}
	for _, tt := range tests {
		got, err := ParseBackendType(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseBackendType(%q) error = %v, wantErr %v", tt.in, err, tt.err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBackendType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColorBytes(t *testing.T) {
	r, g, b, a := Color{R: 1, G: 0.5, B: -1, A: 2}.Bytes()
	if r != 255 || g != 128 || b != 0 || a != 255 {
		t.Errorf("Bytes() = %d,%d,%d,%d, want 255,128,0,255", r, g, b, a)
	}
}

func TestViewportBounds(t *testing.T) {
	tests := []struct {
		name           string
		vp             Viewport
		x0, y0, x1, y1 int
	}{
		{"full", FullViewport(64, 32), 0, 0, 64, 32},
		{"inset", Viewport{X: 8, Y: 4, Width: 16, Height: 8}, 8, 4, 24, 12},
		{"overhang", Viewport{X: 60, Y: 30, Width: 16, Height: 16}, 60, 30, 64, 32},
		{"outside", Viewport{X: 100, Y: 100, Width: 8, Height: 8}, 64, 32, 64, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x0, y0, x1, y1 := tt.vp.Bounds(64, 32)
			if x0 != tt.x0 || y0 != tt.y0 || x1 != tt.x1 || y1 != tt.y1 {
				t.Errorf("Bounds() = (%d,%d,%d,%d), want (%d,%d,%d,%d)",
					x0, y0, x1, y1, tt.x0, tt.y0, tt.x1, tt.y1)
			}
		})
	}
}

func TestRenderTargetDescriptorValidate(t *testing.T) {
	good := RenderTargetDescriptor{Width: 4, Height: 4, Format: FormatRGBA8, DepthBuffer: true}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if good.Samples() != 1 {
		t.Errorf("Samples() = %d, want 1", good.Samples())
	}
	if err := good.WithSize(0, 4).Validate(); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Validate() zero width = %v", err)
	}
	bad := good
	bad.Format = TargetFormat(9)
	if err := bad.Validate(); err == nil {
		t.Error("Validate() accepted unknown format")
	}
}

func TestDefaultRenderConfig(t *testing.T) {
	c := DefaultRenderConfig()
	if c.Width != 512 || c.Height != 512 {
		t.Errorf("default size = %dx%d", c.Width, c.Height)
	}
	if c.ClearColor != Transparent || !c.PreferredBackend.IsNone() {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
