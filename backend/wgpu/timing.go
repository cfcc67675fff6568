package wgpu

import (
	"encoding/binary"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/overlay"
)

const (
	queryBegin = 0
	queryEnd   = 1

	timestampBytes = 2 * 8
)

// frameTimer measures GPU frame time with a pair of timestamp queries
// written by the first and last render pass of a frame.
type frameTimer struct {
	device  hal.Device
	queue   hal.Queue
	queries hal.QuerySet
	resolve hal.Buffer
	result  hal.Buffer
	period  float64 // nanoseconds per tick
}

// newFrameTimer returns nil when the device cannot create timestamp
// queries; frames then report zero GPU time.
func newFrameTimer(device hal.Device, queue hal.Queue) *frameTimer {
	t := &frameTimer{device: device, queue: queue, period: float64(queue.GetTimestampPeriod())}

	var err error
	t.queries, err = device.CreateQuerySet(&hal.QuerySetDescriptor{
		Label: "overlay_frame_timestamps",
		Type:  hal.QueryTypeTimestamp,
		Count: 2,
	})
	if err != nil {
		overlay.Logger().Debug("wgpu: timestamp queries unavailable", "err", err)
		return nil
	}
	t.resolve, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "overlay_timestamp_resolve",
		Size:  timestampBytes,
		Usage: gputypes.BufferUsageQueryResolve | gputypes.BufferUsageCopySrc,
	})
	if err == nil {
		t.result, err = device.CreateBuffer(&hal.BufferDescriptor{
			Label: "overlay_timestamp_result",
			Size:  timestampBytes,
			Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		})
	}
	if err != nil {
		overlay.Logger().Debug("wgpu: timestamp buffers unavailable", "err", err)
		t.release()
		return nil
	}
	if t.period <= 0 {
		t.period = 1
	}
	return t
}

// writes returns the timestamp attachment for a pass.
func (t *frameTimer) writes(begin, end bool) *hal.RenderPassTimestampWrites {
	w := &hal.RenderPassTimestampWrites{QuerySet: t.queries}
	if begin {
		idx := uint32(queryBegin)
		w.BeginningOfPassWriteIndex = &idx
	}
	if end {
		idx := uint32(queryEnd)
		w.EndOfPassWriteIndex = &idx
	}
	return w
}

// record encodes the copy of both timestamps into the mappable buffer.
func (t *frameTimer) record(enc hal.CommandEncoder) {
	enc.ResolveQuerySet(t.queries, queryBegin, 2, t.resolve, 0)
	enc.CopyBufferToBuffer(t.resolve, t.result, []hal.BufferCopy{{Size: timestampBytes}})
}

// read maps the resolved timestamps of a completed frame. A disjoint or
// unwritten pair yields zero.
func (t *frameTimer) read() time.Duration {
	mapping, err := t.device.MapBuffer(t.result, 0, timestampBytes)
	if err != nil {
		overlay.Logger().Debug("wgpu: map timestamp buffer", "err", err)
		return 0
	}
	raw := unsafe.Slice((*byte)(mapping.Ptr), timestampBytes)
	begin := binary.LittleEndian.Uint64(raw[0:8])
	end := binary.LittleEndian.Uint64(raw[8:16])
	if err := t.device.UnmapBuffer(t.result); err != nil {
		overlay.Logger().Debug("wgpu: unmap timestamp buffer", "err", err)
	}

	if begin == 0 || end <= begin {
		overlay.Logger().Debug("wgpu: disjoint timestamps", "begin", begin, "end", end)
		return 0
	}
	return time.Duration(float64(end-begin) * t.period)
}

func (t *frameTimer) release() {
	if t.result != nil {
		t.device.DestroyBuffer(t.result)
	}
	if t.resolve != nil {
		t.device.DestroyBuffer(t.resolve)
	}
	if t.queries != nil {
		t.device.DestroyQuerySet(t.queries)
	}
	t.result, t.resolve, t.queries = nil, nil, nil
}
