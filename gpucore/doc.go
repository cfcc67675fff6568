// Package gpucore defines the data shared by every overlay graphics
// component: render configuration, off-screen target descriptors, the
// host-side pixel readback buffer, frame statistics and the capability and
// adapter descriptors reported by drivers.
//
// The package has no behavior beyond validation and small helpers. It sits
// at the bottom of the import graph so that drivers ([backend]), the frame
// pipeline ([render]) and the compositor ([window]) can exchange values
// without depending on each other.
//
// # Pixel layout
//
// A [PixelReadback] always holds straight (non-premultiplied) RGBA, 8 bits
// per channel, rows top-down with no padding:
//
//	offset(x, y) = (y*Width + x) * 4
//
// Drivers that store pixels differently (padded rows, 16-bit float texels)
// convert before handing a readback across the pipeline boundary.
package gpucore
