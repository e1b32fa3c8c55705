// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"errors"
	"slices"
	"sync"
)

// ErrBackendNotAvailable is returned by DefaultBackend when no backend is
// registered.
var ErrBackendNotAvailable = errors.New("hal: no backend available")

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[Variant]Backend)

	// Priority order for DefaultBackend (first registered wins). Native
	// backends come first, noop is the fallback.
	backendPriority = []Variant{VariantVulkan, VariantMetal, VariantDX12, VariantGL, VariantNoop}
)

// RegisterBackend registers a backend under its variant.
// This is typically called from init() functions in backend packages.
// A backend registered with the same variant is replaced.
func RegisterBackend(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[b.Variant()] = b
	Logger().Debug("hal: backend registered", "variant", b.Variant())
}

// UnregisterBackend removes a backend from the registry.
// This is useful for testing.
func UnregisterBackend(v Variant) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, v)
}

// GetBackend returns the backend registered for v.
func GetBackend(v Variant) (Backend, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := backends[v]
	return b, ok
}

// AvailableBackends returns the registered variants in ascending order.
func AvailableBackends() []Variant {
	registryMu.RLock()
	defer registryMu.RUnlock()

	variants := make([]Variant, 0, len(backends))
	for v := range backends {
		variants = append(variants, v)
	}
	slices.Sort(variants)
	return variants
}

// DefaultBackend returns the preferred registered backend.
func DefaultBackend() (Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, v := range backendPriority {
		if b, ok := backends[v]; ok {
			return b, nil
		}
	}
	return nil, ErrBackendNotAvailable
}
