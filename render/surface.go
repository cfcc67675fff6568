// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
)

var (
	// ErrNilDriver is returned when a surface or target is bound to a nil
	// driver.
	ErrNilDriver = errors.New("render: nil driver")

	// ErrNoSurface is returned by Surface operations before Create.
	ErrNoSurface = errors.New("render: surface not created")
)

// Surface binds a driver to the primary off-screen target and owns the
// readback buffer. The buffer is allocated at Create and on every resize
// so steady-state frames do not allocate.
//
// Surface does not own the driver.
type Surface struct {
	driver   backend.Driver
	desc     gpucore.RenderTargetDescriptor
	readback gpucore.PixelReadback
	created  bool
}

// Create validates drv and desc and creates the driver-side target.
func (s *Surface) Create(drv backend.Driver, desc gpucore.RenderTargetDescriptor) error {
	if drv == nil {
		return ErrNilDriver
	}
	if !drv.IsInitialized() {
		return backend.ErrNotInitialized
	}
	if err := desc.Validate(); err != nil {
		return err
	}
	if err := drv.CreateTarget(desc); err != nil {
		return err
	}
	if err := s.readback.Allocate(desc.Width, desc.Height); err != nil {
		drv.DestroyTarget()
		return err
	}
	s.driver = drv
	s.desc = desc
	s.created = true
	overlay.Logger().Debug("render: surface created", "width", desc.Width, "height", desc.Height)
	return nil
}

// Resize resizes the target. Unchanged dimensions are a no-op; invalid
// ones fail without touching the current target.
func (s *Surface) Resize(width, height int) error {
	if !s.created {
		return ErrNoSurface
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", gpucore.ErrInvalidDimensions, width, height)
	}
	if width == s.desc.Width && height == s.desc.Height {
		return nil
	}
	if err := s.driver.ResizeTarget(width, height); err != nil {
		return fmt.Errorf("render: resize surface: %w", err)
	}
	s.desc = s.desc.WithSize(width, height)
	if err := s.readback.Allocate(width, height); err != nil {
		return err
	}
	overlay.Logger().Debug("render: surface resized", "width", width, "height", height)
	return nil
}

// ReadPixels reads the target into the surface's buffer and returns it.
// On failure it returns nil and the error.
func (s *Surface) ReadPixels() (*gpucore.PixelReadback, error) {
	if !s.created {
		return nil, ErrNoSurface
	}
	if err := s.driver.ReadbackPixels(&s.readback); err != nil {
		return nil, err
	}
	return &s.readback, nil
}

// Destroy releases the driver-side target. The driver itself is left
// running.
func (s *Surface) Destroy() {
	if !s.created {
		return
	}
	s.driver.DestroyTarget()
	s.readback.Release()
	s.created = false
	s.driver = nil
}

// Size returns the surface dimensions.
func (s *Surface) Size() (int, int) { return s.desc.Width, s.desc.Height }

// Descriptor returns the target descriptor.
func (s *Surface) Descriptor() gpucore.RenderTargetDescriptor { return s.desc }

// IsCreated reports whether the target exists.
func (s *Surface) IsCreated() bool { return s.created }
