package gpucore

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
)

// FrameStatistics describes the most recent frame.
type FrameStatistics struct {
	// FrameCount is the number of completed frames. It never decreases.
	FrameCount uint64

	// CPUTime is the wall-clock time between BeginFrame and EndFrame.
	CPUTime time.Duration

	// GPUTime is the measured GPU execution time, 0 when unavailable.
	GPUTime time.Duration

	// DrawCalls and Triangles are reset at BeginFrame.
	DrawCalls uint32
	Triangles uint32
}

// ResetFrameCounters zeroes the per-frame counters, keeping FrameCount.
func (s *FrameStatistics) ResetFrameCounters() {
	s.CPUTime = 0
	s.GPUTime = 0
	s.DrawCalls = 0
	s.Triangles = 0
}

// String formats the statistics for logging.
func (s FrameStatistics) String() string {
	return fmt.Sprintf("frame %d: cpu=%v gpu=%v draws=%d tris=%d",
		s.FrameCount, s.CPUTime, s.GPUTime, s.DrawCalls, s.Triangles)
}

// DriverCapabilities is queried once after driver initialization.
type DriverCapabilities struct {
	MaxTextureSize   int
	MaxRenderTargets int
	MaxSampleCount   int

	Compute      bool
	Geometry     bool
	Tessellation bool

	// ShaderTier is a free-form description such as "vulkan/sm5.0".
	ShaderTier string
}

// AdapterInfo describes the adapter a driver runs on.
type AdapterInfo struct {
	Description string
	VendorID    uint32
	DeviceID    uint32

	DedicatedMemory uint64
	SharedMemory    uint64

	// Hardware is false for CPU rasterizers.
	Hardware bool

	Type    gpucontext.AdapterType
	Backend BackendType
}

// String returns a short human-readable description.
func (a AdapterInfo) String() string {
	kind := "software"
	if a.Hardware {
		kind = "hardware"
	}
	return fmt.Sprintf("%s (%s, %s)", a.Description, a.Backend, kind)
}
