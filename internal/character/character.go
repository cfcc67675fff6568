// Package character draws the overlay's procedural character: a face
// that breathes and blinks on a transparent background.
//
// Frames are drawn with gg at a fixed design size and scaled to the
// requested size with x/image/draw. Output is straight-alpha RGBA, the
// layout the render pipeline uploads.
package character

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/overlay"
)

const (
	defaultBaseSize = 256

	breathPeriod = 4 * time.Second
	breathSteps  = 48
	blinkPeriod  = 4200 * time.Millisecond
	blinkLength  = 150 * time.Millisecond

	defaultCacheFrames = 2 * breathSteps
)

// ErrInvalidSize is returned for non-positive output sizes.
var ErrInvalidSize = errors.New("character: invalid size")

// Pose is the animation state of one frame.
type Pose struct {
	// Step is the breathing phase in [0, breathSteps).
	Step int
	// Blink closes the eyes.
	Blink bool
}

// PoseAt returns the pose at animation time t.
func PoseAt(t time.Duration) Pose {
	if t < 0 {
		t = 0
	}
	step := int(t % breathPeriod * breathSteps / breathPeriod)
	return Pose{Step: step, Blink: t%blinkPeriod < blinkLength}
}

// Breath returns the body scale for p, oscillating around 1.
func (p Pose) Breath() float64 {
	return 1 + 0.04*math.Sin(2*math.Pi*float64(p.Step)/breathSteps)
}

type drawFunc func(dc *gg.Context, p Pose) error

// Option configures a Renderer.
type Option func(*Renderer)

// WithBaseSize sets the design resolution frames are drawn at.
func WithBaseSize(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.base = n
		}
	}
}

// WithCacheFrames bounds the number of scaled frames kept.
func WithCacheFrames(n int) Option {
	return func(r *Renderer) { r.cacheLimit = n }
}

// Renderer produces character frames. After the first drawing failure it
// switches permanently to a static frame and does not try again.
//
// Returned pixel slices are owned by the Renderer and must not be
// modified; they stay valid until the frame is evicted from the cache.
type Renderer struct {
	mu         sync.Mutex
	base       int
	cacheLimit int
	dc         *gg.Context
	draw       drawFunc
	frames     *frameCache
	fallback   bool
	static     map[[2]int][]byte
	scratch    *image.NRGBA
}

// New returns a renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		base:       defaultBaseSize,
		cacheLimit: defaultCacheFrames,
		draw:       drawFace,
		static:     make(map[[2]int][]byte),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.frames = newFrameCache(r.cacheLimit)
	return r
}

// Render returns the straight-alpha RGBA frame of size width x height at
// animation time t.
func (r *Renderer) Render(t time.Duration, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fallback {
		return r.staticFrame(width, height), nil
	}

	key := frameKey{pose: PoseAt(t), width: width, height: height}
	if pix, ok := r.frames.get(key); ok {
		return pix, nil
	}

	pix, err := r.renderPose(key)
	if err != nil {
		overlay.Logger().Warn("character: rendering failed, using static frame", "err", err)
		r.fallback = true
		r.frames.clear()
		return r.staticFrame(width, height), nil
	}
	r.frames.put(key, pix)
	return pix, nil
}

func (r *Renderer) renderPose(key frameKey) (pix []byte, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("character: draw panicked: %v", v)
		}
	}()

	if r.dc == nil {
		r.dc = gg.NewContext(r.base, r.base)
	}
	r.dc.Clear()
	if err := r.draw(r.dc, key.pose); err != nil {
		return nil, err
	}
	return r.scale(r.dc.Image(), key.width, key.height), nil
}

// scale resamples src to width x height, converting premultiplied input
// to straight alpha.
func (r *Renderer) scale(src image.Image, width, height int) []byte {
	if r.scratch == nil || r.scratch.Rect.Dx() != width || r.scratch.Rect.Dy() != height {
		r.scratch = image.NewNRGBA(image.Rect(0, 0, width, height))
	}
	xdraw.BiLinear.Scale(r.scratch, r.scratch.Rect, src, src.Bounds(), xdraw.Src, nil)
	return append([]byte(nil), r.scratch.Pix...)
}

// CacheStats returns the number of frame cache hits and misses.
func (r *Renderer) CacheStats() (hits, misses uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames.hits, r.frames.misses
}

// Fallback reports whether the renderer has switched to the static frame.
func (r *Renderer) Fallback() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fallback
}

// Close releases the drawing context.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames.clear()
	clear(r.static)
	if r.dc == nil {
		return nil
	}
	err := r.dc.Close()
	r.dc = nil
	return err
}

func drawFace(dc *gg.Context, p Pose) error {
	size := float64(dc.Width())
	cx, cy := size/2, size*0.54
	body := size * 0.36 * p.Breath()

	// Shadow.
	dc.SetRGBA(0, 0, 0, 0.25)
	dc.DrawEllipse(cx, size*0.93, body*0.8, size*0.04)
	if err := dc.Fill(); err != nil {
		return err
	}

	dc.SetRGB(0.98, 0.78, 0.36)
	dc.DrawEllipse(cx, cy, body, body*0.94)
	if err := dc.Fill(); err != nil {
		return err
	}

	dc.SetRGB(0.93, 0.49, 0.45)
	dc.DrawCircle(cx-body*0.58, cy+body*0.22, body*0.12)
	dc.DrawCircle(cx+body*0.58, cy+body*0.22, body*0.12)
	if err := dc.Fill(); err != nil {
		return err
	}

	dc.SetRGB(0.18, 0.13, 0.12)
	ex, ey := body*0.34, cy-body*0.2
	if p.Blink {
		dc.SetLineWidth(size * 0.015)
		dc.MoveTo(cx-ex-body*0.1, ey)
		dc.LineTo(cx-ex+body*0.1, ey)
		dc.MoveTo(cx+ex-body*0.1, ey)
		dc.LineTo(cx+ex+body*0.1, ey)
		if err := dc.Stroke(); err != nil {
			return err
		}
	} else {
		dc.DrawEllipse(cx-ex, ey, body*0.08, body*0.12)
		dc.DrawEllipse(cx+ex, ey, body*0.08, body*0.12)
		if err := dc.Fill(); err != nil {
			return err
		}
	}

	dc.SetLineWidth(size * 0.014)
	dc.DrawArc(cx, cy+body*0.12, body*0.22, math.Pi*0.15, math.Pi*0.85)
	return dc.Stroke()
}
