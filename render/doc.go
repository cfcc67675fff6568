// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package render drives the off-screen frame cycle on top of a
// backend.Driver.
//
// A Pipeline selects the first backend from a priority-ordered registry
// that both reports support and initializes, creates the primary Surface
// through it, and then runs frames:
//
//	p := render.New()
//	if err := p.Initialize(hwnd, cfg); err != nil {
//		// no backend could start
//	}
//	defer p.Shutdown()
//
//	p.BeginFrame()            // clears to cfg.ClearColor, full viewport
//	p.DrawPixels(img, w, h)
//	p.EndFrame()
//	pixels, err := p.ReadbackFrame() // straight RGBA, top-down
//
// The buffer returned by ReadbackFrame is owned by the pipeline and reused
// by the next call; callers must not retain it past the next
// ReadbackFrame or Shutdown.
//
// # Thread Safety
//
// Pipeline, Surface and SecondaryTarget are not safe for concurrent use.
// All calls must come from the goroutine that owns the GPU context.
package render
