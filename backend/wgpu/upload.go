package wgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay/gpucore"
)

// minUploadSize is the initial capacity of the upload buffer.
const minUploadSize = 1 << 20

// uploadRing is a per-frame bump allocator over a host-writable buffer
// used as the source of DrawPixels copies. When a frame outgrows it a
// larger buffer replaces it; the old one is kept until no submission can
// still read from it.
type uploadRing struct {
	buf     hal.Buffer
	size    uint64
	offset  uint64
	retired []hal.Buffer
	scratch []byte
}

func (u *uploadRing) reset() { u.offset = 0 }

// alloc reserves n bytes at a copy-aligned offset.
func (u *uploadRing) alloc(device hal.Device, n uint64) (hal.Buffer, uint64, error) {
	off := uint64(alignUp(uint32(u.offset), copyOffsetAlignment))
	if u.buf == nil || off+n > u.size {
		size := max(u.size*2, minUploadSize)
		for size < n {
			size *= 2
		}
		buf, err := device.CreateBuffer(&hal.BufferDescriptor{
			Label: "overlay_upload",
			Size:  size,
			Usage: gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("create %d byte upload buffer: %w", size, err)
		}
		if u.buf != nil {
			u.retired = append(u.retired, u.buf)
		}
		u.buf, u.size, off = buf, size, 0
	}
	u.offset = off + n
	return u.buf, off, nil
}

// stage packs rows of a tightly packed RGBA8 image into rows of pitch
// bytes in the target's format. The returned slice is reused by the next
// call.
func (u *uploadRing) stage(pixels []byte, srcWidth, cols, rows int, pitch uint32, format gpucore.TargetFormat) []byte {
	n := int(pitch) * rows
	if cap(u.scratch) < n {
		u.scratch = make([]byte, n)
	}
	out := u.scratch[:n]
	clear(out)

	for y := 0; y < rows; y++ {
		src := pixels[y*srcWidth*4 : y*srcWidth*4+cols*4]
		dst := out[y*int(pitch):]
		if format != gpucore.FormatRGBA16Float {
			copy(dst, src)
			continue
		}
		for i, b := range src {
			binary.LittleEndian.PutUint16(dst[i*2:], byteToHalf(b))
		}
	}
	return out
}

func (u *uploadRing) releaseRetired(device hal.Device) {
	for _, b := range u.retired {
		device.DestroyBuffer(b)
	}
	u.retired = nil
}

func (u *uploadRing) release(device hal.Device) {
	u.releaseRetired(device)
	if u.buf != nil {
		device.DestroyBuffer(u.buf)
	}
	*u = uploadRing{}
}
