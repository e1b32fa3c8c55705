// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"sync"

	"github.com/gogpu/hal"
	"github.com/gogpu/hal/internal/spirv"
)

// Instance is a noop instance.
type Instance struct {
	backend    *Backend
	name       string
	flags      hal.InstanceFlags
	canary     *hal.ValidationCanary
	assertions bool
	validation bool
	compiler   *spirv.Compiler
	adapters   []*Adapter

	mu        sync.Mutex
	surfaces  map[*Surface]struct{}
	destroyed bool
}

var _ hal.Instance = (*Instance)(nil)

func (i *Instance) violate(format string, args ...any) {
	if i.assertions {
		hal.Unreachable(format, args...)
	}
}

// report sends a validation message to the canary, or to the logger when
// the instance has none.
func (i *Instance) report(message string) {
	if i.canary != nil {
		i.canary.Add(message)
		return
	}
	hal.Logger().Warn("noop: validation", "message", message)
}

// CreateSurface creates a surface for a window. A zero window handle is
// rejected.
func (i *Instance) CreateSurface(displayHandle, windowHandle uintptr) (hal.Surface, error) {
	if windowHandle == 0 {
		return nil, hal.NewInstanceError("noop: window handle is null")
	}
	s := newSurface(i, displayHandle, windowHandle, i.backend.opts.surfaceExtent)

	i.mu.Lock()
	i.surfaces[s] = struct{}{}
	i.mu.Unlock()
	return s, nil
}

// DestroySurface destroys an unconfigured surface.
func (i *Instance) DestroySurface(surface hal.Surface) {
	s, ok := surface.(*Surface)
	if !ok || s.instance != i {
		i.violate("DestroySurface: %T is not a surface of this instance", surface)
		return
	}
	if s.isConfigured() {
		i.violate("DestroySurface: surface is still configured")
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if _, live := i.surfaces[s]; !live {
		i.violate("DestroySurface: surface destroyed twice")
		return
	}
	delete(i.surfaces, s)
}

// EnumerateAdapters returns the configured adapters. With a surface hint,
// headless adapters are omitted.
func (i *Instance) EnumerateAdapters(surfaceHint hal.Surface) []hal.ExposedAdapter {
	exposed := make([]hal.ExposedAdapter, 0, len(i.adapters))
	for _, a := range i.adapters {
		if surfaceHint != nil && a.cfg.Headless {
			continue
		}
		exposed = append(exposed, a.expose())
	}
	return exposed
}

// Destroy destroys the instance. Every surface must have been destroyed.
func (i *Instance) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		i.violate("Destroy: instance destroyed twice")
		return
	}
	if n := len(i.surfaces); n > 0 {
		i.violate("Destroy: %d surfaces still alive", n)
	}
	i.destroyed = true
	hal.Logger().Info("noop: instance destroyed", "name", i.name)
}
