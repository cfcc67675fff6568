// Package overlay renders an animated character onto the desktop as a
// borderless, per-pixel transparent, always-on-top surface that only takes
// mouse input over its visibly opaque pixels.
//
// # Architecture
//
// The module is organized into:
//   - gpucore: shared data (render configuration, readback buffers, statistics)
//   - backend: the graphics driver contract, the backend registry and the
//     software fallback driver
//   - backend/wgpu: GPU drivers over gogpu/wgpu (Vulkan, DX12, Metal, GL)
//   - render: the frame pipeline, the primary render surface and secondary targets
//   - window: the layered overlay window, premultiplied-alpha conversion and
//     alpha hit-testing
//
// The cmd/overlay command wires these together with the internal opacity
// animator, monitor query, character renderer and file configuration.
//
// Per frame:
//
//	pipeline.BeginFrame()   // clear + full viewport
//	pipeline.DrawPixels(...)
//	pipeline.EndFrame()     // CPU and GPU timing
//	rb, _ := pipeline.ReadbackFrame()
//	win.UpdateFrame(rb.Data, rb.Width, rb.Height)
//
// # Logging
//
// The package holds the logger shared by every sub-package. See [SetLogger].
package overlay
