// Package opacity animates the overlay's global alpha.
package opacity

import (
	"math"
	"sync"
	"time"

	"github.com/gogpu/overlay"
)

// Easing maps linear fade progress in [0, 1] to eased progress.
type Easing func(t float64) float64

// Linear is the identity easing.
func Linear(t float64) float64 { return t }

// Smoothstep eases in and out: 3t² - 2t³.
func Smoothstep(t float64) float64 { return t * t * (3 - 2*t) }

// Option configures an Animator.
type Option func(*Animator)

// WithEasing sets the fade curve. The default is Linear.
func WithEasing(e Easing) Option {
	return func(a *Animator) {
		if e != nil {
			a.ease = e
		}
	}
}

// WithInitial sets the starting opacity. The default is 1.
func WithInitial(v float64) Option {
	return func(a *Animator) { a.current, a.target = clamp01(v), clamp01(v) }
}

// Animator interpolates opacity toward a target over a fixed duration.
// It is advanced explicitly by the frame loop and is safe for concurrent
// use.
type Animator struct {
	mu       sync.Mutex
	ease     Easing
	current  float64
	from     float64
	target   float64
	elapsed  time.Duration
	duration time.Duration
	fading   bool
	onDone   func(final float64)
}

// New returns an animator at full opacity.
func New(opts ...Option) *Animator {
	a := &Animator{ease: Linear, current: 1, target: 1}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SetOpacity jumps to v and cancels any fade.
func (a *Animator) SetOpacity(v float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.jump(clamp01(v))
}

// FadeTo starts a fade from the current opacity to target. A non-positive
// duration, or a target already reached, applies immediately without
// calling the completion callback.
func (a *Animator) FadeTo(target float64, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	target = clamp01(target)
	if d <= 0 || math.Abs(target-a.current) < 1e-3 {
		a.jump(target)
		return
	}
	a.from = a.current
	a.target = target
	a.elapsed = 0
	a.duration = d
	a.fading = true
	overlay.Logger().Debug("opacity: fade started",
		"from", a.from, "to", target, "duration", d)
}

// FadeIn fades to fully opaque.
func (a *Animator) FadeIn(d time.Duration) { a.FadeTo(1, d) }

// FadeOut fades to fully transparent.
func (a *Animator) FadeOut(d time.Duration) { a.FadeTo(0, d) }

func (a *Animator) jump(v float64) {
	a.current, a.from, a.target = v, v, v
	a.elapsed, a.duration = 0, 0
	a.fading = false
}

// Advance moves the fade forward by dt. When the fade completes the
// callback registered with OnFadeComplete runs, outside the lock.
func (a *Animator) Advance(dt time.Duration) {
	if dt <= 0 {
		return
	}

	a.mu.Lock()
	if !a.fading {
		a.mu.Unlock()
		return
	}
	a.elapsed += dt
	t := float64(a.elapsed) / float64(a.duration)
	var done func(float64)
	if t >= 1 {
		a.current = a.target
		a.fading = false
		done = a.onDone
		overlay.Logger().Debug("opacity: fade completed", "opacity", a.current)
	} else {
		a.current = clamp01(a.from + (a.target-a.from)*a.ease(t))
	}
	final := a.current
	a.mu.Unlock()

	if done != nil {
		done(final)
	}
}

// Current returns the opacity in [0, 1].
func (a *Animator) Current() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Target returns the opacity the animator is heading to.
func (a *Animator) Target() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target
}

// CurrentAlphaByte returns the opacity as a rounded alpha byte.
func (a *Animator) CurrentAlphaByte() uint8 {
	return AlphaByte(a.Current())
}

// IsFading reports whether a fade is in progress.
func (a *Animator) IsFading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fading
}

// OnFadeComplete registers fn to run when a fade reaches its target.
func (a *Animator) OnFadeComplete(fn func(final float64)) {
	a.mu.Lock()
	a.onDone = fn
	a.mu.Unlock()
}

// AlphaByte converts an opacity to a byte, clamping to [0, 1].
func AlphaByte(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
