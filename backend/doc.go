// Package backend defines the graphics driver contract and the registry
// that the render pipeline selects drivers from.
//
// # Backend Registration
//
// Backends register a factory and a priority from init() functions. Lower
// priorities are tried first. The software driver in this package is
// registered automatically with the last-resort priority:
//
//	import _ "github.com/gogpu/overlay/backend/wgpu" // GPU drivers
//
// # Backend Selection
//
// The registry only orders factories; the render pipeline probes and
// initializes them in order and keeps the first one that works:
//
//	for _, e := range backend.DefaultRegistry().Entries() {
//		d := e.Factory()
//		if d.IsSupported() && d.Initialize(0, cfg) == nil {
//			return d
//		}
//	}
//
// # Available Backends
//
//   - "vulkan", "dx12", "metal", "gl": GPU drivers over gogpu/wgpu (backend/wgpu)
//   - "wgpu-software": the gogpu/wgpu CPU rasterizer HAL (backend/wgpu)
//   - "software": host pixel array, always available
package backend
