// Package wgpu implements backend.Driver on top of the gogpu/wgpu HAL.
//
// One Driver is registered per HAL backend (Vulkan, DirectX 12, Metal,
// OpenGL and the wgpu software rasterizer). A variant is usable only when
// its HAL package is linked into the binary; blank-import
// github.com/gogpu/wgpu/hal/allbackends to link the platform's default set.
//
// # Frame Flow
//
// Each frame is recorded into a single command encoder:
//
//	BeginFrame -> Clear (render pass, LoadOp clear)
//	           -> DrawPixels (upload buffer -> CopyBufferToTexture)
//	           -> EndFrame (closing pass, timestamp resolve, submit)
//
// EndFrame waits for the submission up to the frame budget. When the
// adapter exposes timestamp queries, the first and the closing pass write
// a begin/end pair and the difference becomes FrameStatistics.GPUTime.
// Otherwise, or when the wait times out, GPU time is reported as zero.
//
// # Readback
//
// ReadbackPixels copies the color target into a MapRead staging buffer
// whose rows are padded to the adapter's copy pitch alignment (at least
// 256 bytes), waits for the copy, and strips the padding into a tightly
// packed RGBA8 gpucore.PixelReadback. RGBA16Float targets are converted
// channel by channel with clamping to [0, 1].
//
// # Thread Safety
//
// A Driver must be used from a single goroutine.
package wgpu
