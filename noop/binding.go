// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/hal"
)

// BindGroupLayout is a noop bind group layout.
type BindGroupLayout struct {
	object
	flags   hal.BindGroupLayoutFlags
	entries map[uint32]gputypes.BindGroupLayoutEntry
}

// CreateBindGroupLayout creates a layout. Binding numbers must be unique.
func (d *Device) CreateBindGroupLayout(desc *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	if desc == nil {
		d.violate("CreateBindGroupLayout: nil descriptor")
		return nil, nil
	}
	l := &BindGroupLayout{
		flags:   desc.Flags,
		entries: make(map[uint32]gputypes.BindGroupLayoutEntry, len(desc.Entries)),
	}
	for _, e := range desc.Entries {
		if _, dup := l.entries[e.Binding]; dup {
			d.violate("CreateBindGroupLayout(%q): binding %d declared twice", desc.Label, e.Binding)
			return nil, nil
		}
		kinds := 0
		for _, set := range []bool{e.Buffer != nil, e.Sampler != nil, e.Texture != nil, e.StorageTexture != nil} {
			if set {
				kinds++
			}
		}
		if kinds > 1 {
			d.violate("CreateBindGroupLayout(%q): binding %d has %d resource types", desc.Label, e.Binding, kinds)
			return nil, nil
		}
		l.entries[e.Binding] = e
	}
	return insert(d, &d.bindGroupLayouts, l, desc.Label), nil
}

// DestroyBindGroupLayout destroys a layout.
func (d *Device) DestroyBindGroupLayout(layout hal.BindGroupLayout) {
	remove(d, &d.bindGroupLayouts, "DestroyBindGroupLayout", layout)
}

// PipelineLayout is a noop pipeline layout.
type PipelineLayout struct {
	object
	flags         hal.PipelineLayoutFlags
	groups        []hal.BindGroupLayout
	pushConstants []hal.PushConstantRange
}

// CreatePipelineLayout creates a pipeline layout.
func (d *Device) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	if desc == nil {
		d.violate("CreatePipelineLayout: nil descriptor")
		return nil, nil
	}
	if len(desc.BindGroupLayouts) > hal.MaxBindGroups {
		d.violate("CreatePipelineLayout(%q): %d bind groups exceed %d", desc.Label, len(desc.BindGroupLayouts), hal.MaxBindGroups)
		return nil, nil
	}
	for _, bgl := range desc.BindGroupLayouts {
		if _, ok := resolve(d, &d.bindGroupLayouts, "CreatePipelineLayout", bgl); !ok {
			return nil, nil
		}
	}
	for i, r := range desc.PushConstantRanges {
		if r.Start%4 != 0 || r.End%4 != 0 || r.Start >= r.End {
			d.violate("CreatePipelineLayout(%q): bad push constant range %d..%d", desc.Label, r.Start, r.End)
			return nil, nil
		}
		for _, o := range desc.PushConstantRanges[:i] {
			if o.Stages&r.Stages != 0 {
				d.violate("CreatePipelineLayout(%q): stages %v in two push constant ranges", desc.Label, o.Stages&r.Stages)
				return nil, nil
			}
		}
	}
	l := &PipelineLayout{
		flags:         desc.Flags,
		groups:        slices.Clone(desc.BindGroupLayouts),
		pushConstants: slices.Clone(desc.PushConstantRanges),
	}
	return insert(d, &d.pipelineLayouts, l, desc.Label), nil
}

// DestroyPipelineLayout destroys a pipeline layout.
func (d *Device) DestroyPipelineLayout(layout hal.PipelineLayout) {
	remove(d, &d.pipelineLayouts, "DestroyPipelineLayout", layout)
}

// BindGroup is a noop bind group.
type BindGroup struct {
	object
	layout   *BindGroupLayout
	buffers  []boundBuffer
	textures []boundTexture
	samplers []*Sampler
	accels   []*AccelerationStructure
}

type boundBuffer struct {
	buffer       *Buffer
	offset, size uint64
	use          hal.BufferUses
}

type boundTexture struct {
	view *TextureView
	use  hal.TextureUses
}

func bufferBindingUse(t gputypes.BufferBindingType) hal.BufferUses {
	switch t {
	case gputypes.BufferBindingTypeStorage:
		return hal.BufferUsesStorageReadWrite
	case gputypes.BufferBindingTypeReadOnlyStorage:
		return hal.BufferUsesStorageRead
	default:
		return hal.BufferUsesUniform
	}
}

// CreateBindGroup creates a bind group. Every entry must name a binding of
// the layout and a resource range of the matching list of desc.
func (d *Device) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	if desc == nil {
		d.violate("CreateBindGroup: nil descriptor")
		return nil, nil
	}
	layout, ok := resolve(d, &d.bindGroupLayouts, "CreateBindGroup", desc.Layout)
	if !ok {
		return nil, nil
	}

	g := &BindGroup{layout: layout}
	for _, e := range desc.Entries {
		le, declared := layout.entries[e.Binding]
		if !declared {
			d.violate("CreateBindGroup(%q): binding %d is not in the layout", desc.Label, e.Binding)
			return nil, nil
		}
		count := max(e.Count, 1)
		first, last := int(e.ResourceIndex), int(e.ResourceIndex+count)
		inRange := func(n int) bool {
			if last > n {
				d.violate("CreateBindGroup(%q): binding %d uses resources %d..%d of %d", desc.Label, e.Binding, first, last, n)
				return false
			}
			return true
		}

		switch {
		case le.Buffer != nil:
			if !inRange(len(desc.Buffers)) {
				return nil, nil
			}
			use := bufferBindingUse(le.Buffer.Type)
			for _, bb := range desc.Buffers[first:last] {
				b, ok := resolve(d, &d.buffers, "CreateBindGroup", bb.Buffer)
				if !ok {
					return nil, nil
				}
				size := bb.Size
				if size == 0 && bb.Offset <= b.size {
					size = b.size - bb.Offset
				}
				if !b.checkRange(bb.Offset, size) {
					d.violate("CreateBindGroup(%q): binding %d range %d+%d exceeds %q", desc.Label, e.Binding, bb.Offset, size, b.label)
					return nil, nil
				}
				if !b.usage.Contains(use) {
					d.violate("CreateBindGroup(%q): %q lacks usage %v", desc.Label, b.label, use)
				}
				if size < uint64(le.Buffer.MinBindingSize) {
					d.violate("CreateBindGroup(%q): binding %d is %d bytes, minimum %d", desc.Label, e.Binding, size, le.Buffer.MinBindingSize)
				}
				g.buffers = append(g.buffers, boundBuffer{buffer: b, offset: bb.Offset, size: size, use: use})
			}
		case le.Sampler != nil:
			if !inRange(len(desc.Samplers)) {
				return nil, nil
			}
			for _, s := range desc.Samplers[first:last] {
				smp, ok := resolve(d, &d.samplers, "CreateBindGroup", s)
				if !ok {
					return nil, nil
				}
				g.samplers = append(g.samplers, smp)
			}
		case le.Texture != nil, le.StorageTexture != nil:
			if !inRange(len(desc.Textures)) {
				return nil, nil
			}
			for _, tb := range desc.Textures[first:last] {
				v, ok := resolve(d, &d.views, "CreateBindGroup", tb.View)
				if !ok {
					return nil, nil
				}
				use := tb.Usage
				if use == 0 {
					use = hal.TextureUsesResource
					if le.StorageTexture != nil {
						use = hal.TextureUsesStorageReadWrite
					}
				}
				g.textures = append(g.textures, boundTexture{view: v, use: use})
			}
		default:
			if !inRange(len(desc.AccelerationStructures)) {
				return nil, nil
			}
			for _, as := range desc.AccelerationStructures[first:last] {
				a, ok := resolve(d, &d.accelerationStructures, "CreateBindGroup", as)
				if !ok {
					return nil, nil
				}
				g.accels = append(g.accels, a)
			}
		}
	}
	return insert(d, &d.bindGroups, g, desc.Label), nil
}

// DestroyBindGroup destroys a bind group.
func (d *Device) DestroyBindGroup(group hal.BindGroup) {
	remove(d, &d.bindGroups, "DestroyBindGroup", group)
}
