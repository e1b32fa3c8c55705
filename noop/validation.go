// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"fmt"

	"github.com/gogpu/hal"
)

// validator emulates a native validation layer. It tracks the state of
// every buffer and texture subresource on the GPU timeline and reports
// barriers whose old usage does not match, and uses of a resource in a
// state that does not include the use.
//
// Messages go to the instance's canary. All methods run with the device
// contents lock held and are no-ops on a nil validator.
type validator struct {
	inst *Instance
}

func newValidator(inst *Instance) *validator {
	return &validator{inst: inst}
}

func (v *validator) reportf(format string, args ...any) {
	v.inst.report(fmt.Sprintf(format, args...))
}

func (v *validator) bufferBarrier(b *Buffer, tr hal.BufferUsageTransition) {
	if v == nil {
		return
	}
	if b.state != 0 && b.state != tr.OldUsage {
		v.reportf("buffer %q: barrier from %v but buffer is in %v", b.label, tr.OldUsage, b.state)
	}
}

// textureBarrier checks one barrier against the tracked states. An old
// usage carrying a tracker sentinel is accepted as is.
func (v *validator) textureBarrier(t *Texture, r subresourceRange, tr hal.TextureUsageTransition) {
	if v == nil || tr.OldUsage.IsTrackerSentinel() {
		return
	}
	for mip := r.baseMip; mip < r.baseMip+r.mipCount; mip++ {
		for layer := r.baseLayer; layer < r.baseLayer+r.layerCount; layer++ {
			if s := t.states[t.subresource(mip, layer)]; s != tr.OldUsage {
				v.reportf("texture %q mip %d layer %d: barrier from %v but subresource is in %v",
					t.label, mip, layer, tr.OldUsage, s)
				return
			}
		}
	}
}

// bufferUse reports a use of b in a state lacking use. A buffer never
// transitioned is accepted in any state.
func (v *validator) bufferUse(op string, b *Buffer, use hal.BufferUses) {
	if v == nil || b.state == 0 {
		return
	}
	if !b.state.Contains(use) {
		v.reportf("%s: buffer %q used as %v while in %v", op, b.label, use, b.state)
	}
}

func (v *validator) textureUse(op string, t *Texture, r subresourceRange, use hal.TextureUses) {
	if v == nil {
		return
	}
	for mip := r.baseMip; mip < r.baseMip+r.mipCount; mip++ {
		for layer := r.baseLayer; layer < r.baseLayer+r.layerCount; layer++ {
			if s := t.states[t.subresource(mip, layer)]; !s.Contains(use) {
				v.reportf("%s: texture %q mip %d layer %d used as %v while in %v",
					op, t.label, mip, layer, use, s)
				return
			}
		}
	}
}

// accelerationStructureRead reports a read of a structure built earlier
// in the same stream with no acceleration structure barrier in between.
func (v *validator) accelerationStructureRead(op string, as *AccelerationStructure, unordered bool) {
	if v == nil || !unordered {
		return
	}
	v.reportf("%s: acceleration structure %q read without a barrier after its build", op, as.label)
}

// whole returns the range covering every subresource of t.
func (t *Texture) whole() subresourceRange {
	return subresourceRange{
		aspects:    t.aspects,
		mipCount:   t.desc.MipLevelCount,
		layerCount: t.layers,
	}
}

// single returns the range of one subresource.
func single(mip, layer uint32) subresourceRange {
	return subresourceRange{mipCount: 1, baseMip: mip, baseLayer: layer, layerCount: 1}
}
