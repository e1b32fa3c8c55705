// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import "slices"

// BindGroupCompat tracks which bound groups stay usable under the
// layout-driven compatibility rule of CommandEncoder.SetBindGroup.
//
// Every bind records the bind group layouts of the pipeline layout it was
// made with. A group at index i is usable with a pipeline layout P only if
// every group at indices 0..i was bound with a layout whose first k+1 group
// layouts equal those of P at the time it was bound. Binding at index i
// with a different prefix invalidates every group above i.
//
// The zero value has nothing bound. When Assertions is set, binding at an
// index of MaxBindGroups or more panics with *ContractViolation; otherwise
// the bind is ignored.
type BindGroupCompat struct {
	Assertions bool

	slots [MaxBindGroups]compatSlot
}

type compatSlot struct {
	group  BindGroup
	prefix []BindGroupLayout
	valid  bool
}

// Bind records group bound at index through a pipeline layout made of
// layouts.
func (c *BindGroupCompat) Bind(layouts []BindGroupLayout, index uint32, group BindGroup) {
	if index >= MaxBindGroups {
		if c.Assertions {
			Unreachable("bind group index %d exceeds %d", index, MaxBindGroups)
		}
		return
	}
	prefix := layoutPrefix(layouts, index)
	for j := index + 1; j < MaxBindGroups; j++ {
		s := &c.slots[j]
		if s.valid && !slices.Equal(layoutPrefix(s.prefix, index), prefix) {
			*s = compatSlot{}
		}
	}
	c.slots[index] = compatSlot{group: group, prefix: slices.Clone(prefix), valid: true}
}

// IsCompatible reports whether the group at index may be used with a
// pipeline layout made of layouts.
func (c *BindGroupCompat) IsCompatible(layouts []BindGroupLayout, index uint32) bool {
	if index >= MaxBindGroups || int(index) >= len(layouts) {
		return false
	}
	for k := uint32(0); k <= index; k++ {
		s := &c.slots[k]
		if !s.valid || !slices.Equal(s.prefix, layoutPrefix(layouts, k)) {
			return false
		}
	}
	return true
}

// FirstIncompatible returns the lowest index of layouts whose group is not
// usable, or -1 when all of them are.
func (c *BindGroupCompat) FirstIncompatible(layouts []BindGroupLayout) int {
	for i := range layouts {
		if !c.IsCompatible(layouts, uint32(i)) {
			return i
		}
	}
	return -1
}

// Group returns the group bound at index, or nil.
func (c *BindGroupCompat) Group(index uint32) BindGroup {
	if index >= MaxBindGroups || !c.slots[index].valid {
		return nil
	}
	return c.slots[index].group
}

// Reset unbinds everything.
func (c *BindGroupCompat) Reset() {
	c.slots = [MaxBindGroups]compatSlot{}
}

func layoutPrefix(layouts []BindGroupLayout, index uint32) []BindGroupLayout {
	n := min(int(index)+1, len(layouts))
	return layouts[:n]
}
