// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"github.com/gogpu/overlay/backend"
	"github.com/gogpu/overlay/gpucore"
)

// SecondaryTarget is a validated descriptor for an auxiliary pass target.
// It owns no GPU image: Bind only restricts the shared driver's viewport
// to the target's size. Multi-target rendering is not implemented.
type SecondaryTarget struct {
	name   string
	driver backend.Driver
	desc   gpucore.RenderTargetDescriptor
	bound  bool
}

// NewSecondaryTarget validates drv and desc.
func NewSecondaryTarget(name string, drv backend.Driver, desc gpucore.RenderTargetDescriptor) (*SecondaryTarget, error) {
	if drv == nil {
		return nil, ErrNilDriver
	}
	if !drv.IsInitialized() {
		return nil, backend.ErrNotInitialized
	}
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &SecondaryTarget{name: name, driver: drv, desc: desc}, nil
}

// Bind applies a viewport covering the target. It requires an active
// frame.
func (t *SecondaryTarget) Bind() error {
	if err := t.driver.SetViewport(gpucore.FullViewport(t.desc.Width, t.desc.Height)); err != nil {
		return err
	}
	t.bound = true
	return nil
}

// Unbind restores the viewport of the primary target.
func (t *SecondaryTarget) Unbind() error {
	if !t.bound {
		return nil
	}
	w, h := t.driver.TargetSize()
	if err := t.driver.SetViewport(gpucore.FullViewport(w, h)); err != nil {
		return err
	}
	t.bound = false
	return nil
}

// Resize updates the descriptor size.
func (t *SecondaryTarget) Resize(width, height int) error {
	desc := t.desc.WithSize(width, height)
	if err := desc.Validate(); err != nil {
		return err
	}
	t.desc = desc
	return nil
}

// Name returns the target name.
func (t *SecondaryTarget) Name() string { return t.name }

// Descriptor returns the target descriptor.
func (t *SecondaryTarget) Descriptor() gpucore.RenderTargetDescriptor { return t.desc }

// IsBound reports whether Bind was called without Unbind.
func (t *SecondaryTarget) IsBound() bool { return t.bound }
