// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package hal defines a portable, low-overhead hardware abstraction layer
// over modern GPU APIs.
//
// The package declares one uniform object graph, implemented identically in
// observable behaviour by every backend:
//
//	Backend -> Instance -> Adapter -> OpenDevice{Device, Queue}
//	                    -> Surface
//	Device  -> Buffer, Texture, TextureView, Sampler, BindGroupLayout,
//	           PipelineLayout, BindGroup, ShaderModule, RenderPipeline,
//	           ComputePipeline, QuerySet, Fence, AccelerationStructure,
//	           CommandEncoder -> CommandBuffer
//
// # Validation is the caller's responsibility
//
// hal performs no validation, no resource state tracking and no safety
// enforcement. Returned errors only cover conditions the caller cannot
// anticipate: running out of memory, losing the device, a shader that the
// platform compiler rejects. Anything else (mapping a buffer that is not
// mappable, recording into a closed encoder, destroying a resource that is
// still in flight) is a contract violation with undefined behaviour.
//
// Checks that a backend performs anyway report failure through
// [Unreachable], which panics with a [*ContractViolation]. Such a panic always
// indicates a bug in the calling layer and is never a recoverable error.
//
// # Backends
//
// Backends register themselves with [RegisterBackend], usually from an init
// function, and are looked up by [Variant]:
//
//	import _ "github.com/gogpu/hal/noop"
//
//	backend, ok := hal.GetBackend(hal.VariantNoop)
//	if !ok {
//		log.Fatal("noop backend not linked in")
//	}
//	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Name: "app"})
//
// The noop package is an in-memory backend implementing the full contract.
// It is used by the tests of this module and by callers that need a device
// without a GPU.
//
// # Explicit barriers
//
// Every buffer and texture access is described by a usage bit-set
// ([BufferUses], [TextureUses], [AccelerationStructureUses]). Whenever the
// usage required by the next operation differs from the current one, or is
// not in the ORDERED mask, the caller must record a transition with
// CommandEncoder.TransitionBuffers or CommandEncoder.TransitionTextures.
// [BufferUses.RequiresTransition] and [TextureUses.RequiresTransition] encode
// the rule.
//
// # Logging
//
// hal produces no log output by default. See [SetLogger].
package hal
