package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
)

// ReadbackPixels copies the target into the staging buffer, waits for the
// copy and converts the rows into tightly packed RGBA8 in out.
func (d *Driver) ReadbackPixels(out *gpucore.PixelReadback) error {
	if !d.IsInitialized() {
		return backend.ErrNotInitialized
	}
	if d.target == nil {
		return backend.ErrNoTarget
	}
	if d.frame.active {
		return backend.ErrFrameActive
	}
	t := d.target

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "overlay_readback"})
	if err != nil {
		return fmt.Errorf("wgpu: create readback encoder: %w", err)
	}
	if err := encoder.BeginEncoding("overlay_readback"); err != nil {
		return fmt.Errorf("wgpu: begin readback encoding: %w", err)
	}

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.color, t.staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: t.pitch, RowsPerImage: t.height()},
		TextureBase: hal.ImageCopyTexture{
			Texture: t.color,
			Aspect:  gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{Width: t.width(), Height: t.height(), DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.color,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end readback encoding: %w", err)
	}
	idx, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		d.device.FreeCommandBuffer(cmd)
		return fmt.Errorf("wgpu: submit readback: %w", err)
	}
	d.inflight = append(d.inflight, submission{index: idx, cmd: cmd})
	if !d.waitSubmission(idx, d.readbackTimeout) {
		return fmt.Errorf("wgpu: readback did not complete within %v", d.readbackTimeout)
	}
	d.reapInflight()

	if err := out.Allocate(t.desc.Width, t.desc.Height); err != nil {
		return err
	}

	size := uint64(t.pitch) * uint64(t.height())
	mapping, err := d.device.MapBuffer(t.staging, 0, size)
	if err != nil {
		return fmt.Errorf("wgpu: map readback buffer: %w", err)
	}
	defer func() { _ = d.device.UnmapBuffer(t.staging) }()

	src := unsafe.Slice((*byte)(mapping.Ptr), size)
	unpackRows(out.Data, src, t.desc.Width, t.desc.Height, int(t.pitch), t.desc.Format)
	return nil
}

// unpackRows strips row padding and converts the target format to RGBA8.
func unpackRows(dst, src []byte, width, height, pitch int, format gpucore.TargetFormat) {
	rowBytes := width * 4
	for y := 0; y < height; y++ {
		row := src[y*pitch:]
		out := dst[y*rowBytes : (y+1)*rowBytes]
		if format != gpucore.FormatRGBA16Float {
			copy(out, row[:rowBytes])
			continue
		}
		for i := range out {
			out[i] = halfToByte(binary.LittleEndian.Uint16(row[i*2:]))
		}
	}
}

// byteToHalf encodes b/255 as an IEEE 754 binary16 value.
func byteToHalf(b uint8) uint16 {
	return float32ToHalf(float32(b) / 255)
}

// halfToByte decodes a binary16 channel, clamps it to [0, 1] and scales it
// to 0..255 with rounding.
func halfToByte(h uint16) uint8 {
	f := halfToFloat32(h)
	switch {
	case math.IsNaN(float64(f)) || f <= 0:
		return 0
	case f >= 1:
		return 255
	}
	return uint8(f*255 + 0.5)
}

func float32ToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int(bits>>23&0xff) - 127 + 15
	mant := bits & 0x7fffff

	switch {
	case bits&0x7fffffff == 0:
		return sign
	case exp >= 0x1f:
		if bits&0x7f800000 == 0x7f800000 && mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint(14 - exp)
		h := uint16(mant >> shift)
		if mant>>(shift-1)&1 != 0 {
			h++
		}
		return sign | h
	}
	h := sign | uint16(exp)<<10 | uint16(mant>>13)
	if mant&0x1000 != 0 {
		h++
	}
	return h
}

func halfToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)

	switch exp {
	case 0:
		f := float32(mant) / (1 << 24)
		if sign != 0 {
			return -f
		}
		return f
	case 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | mant<<13)
	}
	return math.Float32frombits(sign | (exp-15+127)<<23 | mant<<13)
}
