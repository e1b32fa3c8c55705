// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package noop is an in-memory reference backend for the hal package.
//
// It implements every interface of the Api object graph with observable
// behaviour and no native API: buffers and textures hold real bytes that
// copies, clears and mappings operate on; submissions run in order on a
// dedicated goroutine that plays the GPU timeline and signals fences when
// they complete; surfaces are a ring of MaximumFrameLatency+1 textures;
// acceleration structure builds produce contents derived from their
// inputs. Draws and dispatches execute no shader code. They feed queries
// and counters only.
//
// Importing the package registers the backend under hal.VariantNoop:
//
//	import _ "github.com/gogpu/hal/noop"
//
//	b, _ := hal.GetBackend(hal.VariantNoop)
//	inst, err := b.CreateInstance(&hal.InstanceDescriptor{
//		Flags: hal.InstanceFlagsDebug,
//	})
//
// # Assertions
//
// When the instance is created with hal.InstanceFlagsDebug or
// hal.InstanceFlagsValidation, or with WithAssertions(true), caller
// contracts that the backend can observe are checked and broken ones panic
// with *hal.ContractViolation. Without assertions the backend trusts the
// caller and drops commands it cannot execute.
//
// With hal.InstanceFlagsValidation the backend also behaves like a native
// validation layer: it tracks the usage each buffer and texture really has
// on the GPU timeline and reports mismatched barriers to the instance's
// hal.ValidationCanary.
package noop
