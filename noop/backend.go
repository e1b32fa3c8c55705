// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"fmt"

	"github.com/gogpu/hal"
	"github.com/gogpu/hal/internal/spirv"
)

func init() {
	hal.RegisterBackend(New())
}

// Backend creates noop instances.
type Backend struct {
	opts options
}

// New returns a backend configured by opts.
func New(opts ...Option) *Backend {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Backend{opts: o}
}

// Variant returns hal.VariantNoop.
func (*Backend) Variant() hal.Variant { return hal.VariantNoop }

// CreateInstance creates an instance. A nil descriptor is the zero
// descriptor.
func (b *Backend) CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error) {
	if desc == nil {
		desc = &hal.InstanceDescriptor{}
	}
	adapters := b.opts.adapters
	if len(adapters) == 0 {
		adapters = []AdapterConfig{DefaultAdapter()}
	}
	cfg := Config{Adapters: adapters}
	if err := cfg.Validate(); err != nil {
		return nil, hal.WrapInstanceError("noop: cannot create instance", err)
	}

	inst := &Instance{
		backend:    b,
		name:       desc.Name,
		flags:      desc.Flags,
		canary:     desc.ValidationCanary,
		assertions: desc.Flags&(hal.InstanceFlagsDebug|hal.InstanceFlagsValidation) != 0,
		validation: desc.Flags.Contains(hal.InstanceFlagsValidation),
		compiler:   spirv.NewCompiler(b.opts.shaderCache),
		surfaces:   make(map[*Surface]struct{}),
	}
	if b.opts.assertions != nil {
		inst.assertions = *b.opts.assertions
	}
	for i, ac := range adapters {
		inst.adapters = append(inst.adapters, newAdapter(inst, i, ac))
	}
	hal.Logger().Info("noop: instance created",
		"name", desc.Name,
		"flags", fmt.Sprintf("%#x", uint8(desc.Flags)),
		"adapters", len(inst.adapters))
	return inst, nil
}
