// Package window implements the transparent overlay window.
//
// A TransparentWindow owns a borderless, optionally always-on-top native
// window and a native BGRA surface that the platform compositor blends
// with per-pixel alpha. Each UpdateFrame converts straight-alpha RGBA
// output from the renderer into premultiplied BGRA and presents it with a
// global alpha, which SetGlobalAlpha changes without a new frame.
//
// Input follows the image: the AlphaHitTester reads the alpha channel of
// the surface, and pixels at or below the threshold let clicks through to
// the windows beneath. Pointer events on opaque pixels are queued by value
// and drained by the frame loop with DrainEvents.
//
// On Windows the native side is a WS_EX_LAYERED popup updated with
// UpdateLayeredWindow. Other platforms, and tests, use Headless.
package window
