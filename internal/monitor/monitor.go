// Package monitor reports the displays' bounds, work areas and DPI scales
// and places windows within them.
package monitor

import (
	"fmt"
	"math"
)

// Rect is a screen rectangle in physical pixels.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && y >= r.Y && x < r.Right() && y < r.Bottom()
}

// Union returns the smallest rectangle containing r and o. Empty
// rectangles are ignored.
func (r Rect) Union(o Rect) Rect {
	switch {
	case o.Empty():
		return r
	case r.Empty():
		return o
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.Right(), o.Right()), max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Info describes a display.
type Info struct {
	// Bounds is the full display area.
	Bounds Rect

	// WorkArea excludes the taskbar and docked toolbars.
	WorkArea Rect

	// Scale is the DPI scale, dpi/96 on Windows.
	Scale float64

	// Primary marks the display holding the origin of the desktop.
	Primary bool
}

// Headless is what Primary reports when no display can be queried.
var Headless = Info{
	Bounds:   Rect{Width: 1920, Height: 1080},
	WorkArea: Rect{Width: 1920, Height: 1080},
	Scale:    1,
	Primary:  true,
}

// Primary returns the primary display. It falls back to Headless when the
// platform query fails.
func Primary() Info {
	info, ok := primary()
	if !ok || info.WorkArea.Empty() {
		return Headless
	}
	if info.Scale <= 0 {
		info.Scale = 1
	}
	info.Primary = true
	return info
}

// All returns every attached display, the primary one first. It falls
// back to the primary display alone when enumeration fails.
func All() []Info {
	list, ok := all()
	out := make([]Info, 0, len(list))
	for _, m := range list {
		if m.Bounds.Empty() {
			continue
		}
		if m.WorkArea.Empty() {
			m.WorkArea = m.Bounds
		}
		if m.Scale <= 0 {
			m.Scale = 1
		}
		if m.Primary {
			out = append([]Info{m}, out...)
		} else {
			out = append(out, m)
		}
	}
	if !ok || len(out) == 0 {
		return []Info{Primary()}
	}
	return out
}

// At returns the display containing the screen point (x, y), or the
// display nearest to it.
func At(x, y int) Info {
	return Nearest(All(), x, y)
}

// Nearest returns the display in ms whose bounds contain (x, y), or the
// one closest to it. It returns Headless for an empty list.
func Nearest(ms []Info, x, y int) Info {
	best, bestDist := Headless, math.Inf(1)
	for _, m := range ms {
		if m.Bounds.Contains(x, y) {
			return m
		}
		if d := distance(m.Bounds, x, y); d < bestDist {
			best, bestDist = m, d
		}
	}
	return best
}

// VirtualBounds returns the bounding box of all displays in ms.
func VirtualBounds(ms []Info) Rect {
	var r Rect
	for _, m := range ms {
		r = r.Union(m.Bounds)
	}
	return r
}

func distance(r Rect, x, y int) float64 {
	dx := max(r.X-x, 0, x-(r.Right()-1))
	dy := max(r.Y-y, 0, y-(r.Bottom()-1))
	return math.Hypot(float64(dx), float64(dy))
}

// Center returns the top-left position that centers a width x height
// window in the work area of m, clamped so the window stays on screen.
func Center(width, height int, m Info) (x, y int) {
	wa := m.WorkArea
	r := Rect{
		X:      wa.X + (wa.Width-width)/2,
		Y:      wa.Y + (wa.Height-height)/2,
		Width:  width,
		Height: height,
	}
	r = Clamp(r, m)
	return r.X, r.Y
}

// Clamp moves r so it lies inside the work area of m. A rectangle larger
// than the work area is aligned to its top-left corner.
func Clamp(r Rect, m Info) Rect {
	wa := m.WorkArea
	if r.Right() > wa.Right() {
		r.X = wa.Right() - r.Width
	}
	if r.Bottom() > wa.Bottom() {
		r.Y = wa.Bottom() - r.Height
	}
	if r.X < wa.X {
		r.X = wa.X
	}
	if r.Y < wa.Y {
		r.Y = wa.Y
	}
	return r
}
