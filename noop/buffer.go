// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"github.com/gogpu/hal"
)

// Buffer is a noop buffer. Its bytes live in host memory.
type Buffer struct {
	object
	size   uint64
	usage  hal.BufferUses
	memory hal.MemoryFlags

	data    []byte
	mapping *bufferMapping

	// state is the usage validation believes the buffer is in.
	state hal.BufferUses
}

type bufferMapping struct {
	start, end uint64

	// staging is the host copy of a non-coherent mapping.
	staging []byte
}

// Size returns the size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// Usage returns the usages the buffer was created with.
func (b *Buffer) Usage() hal.BufferUses { return b.usage }

// CreateBuffer allocates a zeroed buffer.
func (d *Device) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	if desc == nil {
		d.violate("CreateBuffer: nil descriptor")
		return nil, nil
	}
	if desc.Size > d.limits.MaxBufferSize {
		return nil, hal.ErrResourceCreationFailed
	}
	if desc.Usage.Contains(hal.BufferUsesMapRead | hal.BufferUsesMapWrite) {
		d.violate("CreateBuffer(%q): MAP_READ and MAP_WRITE together", desc.Label)
	}
	if err := d.reserve(desc.Size); err != nil {
		return nil, err
	}
	b := &Buffer{
		size:   desc.Size,
		usage:  desc.Usage,
		memory: desc.Memory,
		data:   make([]byte, desc.Size),
	}
	return insert(d, &d.buffers, b, desc.Label), nil
}

// DestroyBuffer frees a buffer. A mapped buffer is unmapped first. The
// bytes stay reachable from work already submitted.
func (d *Device) DestroyBuffer(buffer hal.Buffer) {
	b, ok := remove(d, &d.buffers, "DestroyBuffer", buffer)
	if !ok {
		return
	}
	d.contents.Lock()
	b.mapping = nil
	d.contents.Unlock()
	d.release(b.size)
}

// MapBuffer maps r of a buffer created with MAP_READ or MAP_WRITE.
//
// Buffers created with hal.MemoryFlagsPreferCoherent map coherently: the
// returned bytes are the buffer's storage. Other buffers map through a
// host copy that FlushMappedRanges and InvalidateMappedRanges synchronize.
func (d *Device) MapBuffer(buffer hal.Buffer, r hal.MemoryRange) (hal.BufferMapping, error) {
	if err := d.checkLive(); err != nil {
		return hal.BufferMapping{}, err
	}
	b, ok := resolve(d, &d.buffers, "MapBuffer", buffer)
	if !ok {
		return hal.BufferMapping{}, nil
	}
	if !b.usage.Intersects(hal.BufferUsesMapRead | hal.BufferUsesMapWrite) {
		d.violate("MapBuffer(%q): buffer has usage %v", b.label, b.usage)
		return hal.BufferMapping{}, nil
	}
	end := r.End(b.size)
	if r.Offset > end || end > b.size {
		d.violate("MapBuffer(%q): range %d..%d exceeds size %d", b.label, r.Offset, end, b.size)
		return hal.BufferMapping{}, nil
	}

	d.contents.Lock()
	defer d.contents.Unlock()
	if b.mapping != nil {
		d.violate("MapBuffer(%q): buffer is already mapped", b.label)
		return hal.BufferMapping{}, nil
	}
	m := &bufferMapping{start: r.Offset, end: end}
	b.mapping = m
	if b.memory&hal.MemoryFlagsPreferCoherent != 0 {
		return hal.BufferMapping{Data: b.data[r.Offset:end:end], IsCoherent: true}, nil
	}
	m.staging = append([]byte(nil), b.data[r.Offset:end]...)
	return hal.BufferMapping{Data: m.staging, IsCoherent: false}, nil
}

// UnmapBuffer ends the mapping. Writes to a non-coherent mapping that were
// not flushed are lost.
func (d *Device) UnmapBuffer(buffer hal.Buffer) {
	b, ok := resolve(d, &d.buffers, "UnmapBuffer", buffer)
	if !ok {
		return
	}
	d.contents.Lock()
	defer d.contents.Unlock()
	if b.mapping == nil {
		d.violate("UnmapBuffer(%q): buffer is not mapped", b.label)
		return
	}
	b.mapping = nil
}

// IsMapped reports whether the buffer is mapped.
func (b *Buffer) IsMapped() bool {
	d := b.device
	d.contents.Lock()
	defer d.contents.Unlock()
	return b.mapping != nil
}

// FlushMappedRanges makes host writes in ranges visible to the device.
func (d *Device) FlushMappedRanges(buffer hal.Buffer, ranges []hal.MemoryRange) {
	d.syncMapping("FlushMappedRanges", buffer, ranges, func(m *bufferMapping, data []byte, start, end uint64) {
		copy(data[start:end], m.staging[start-m.start:end-m.start])
	})
}

// InvalidateMappedRanges makes device writes in ranges visible to the host.
func (d *Device) InvalidateMappedRanges(buffer hal.Buffer, ranges []hal.MemoryRange) {
	d.syncMapping("InvalidateMappedRanges", buffer, ranges, func(m *bufferMapping, data []byte, start, end uint64) {
		copy(m.staging[start-m.start:end-m.start], data[start:end])
	})
}

func (d *Device) syncMapping(op string, buffer hal.Buffer, ranges []hal.MemoryRange,
	apply func(m *bufferMapping, data []byte, start, end uint64),
) {
	b, ok := resolve(d, &d.buffers, op, buffer)
	if !ok {
		return
	}
	d.contents.Lock()
	defer d.contents.Unlock()
	m := b.mapping
	if m == nil {
		d.violate("%s(%q): buffer is not mapped", op, b.label)
		return
	}
	if m.staging == nil {
		return
	}
	for _, r := range ranges {
		end := r.End(m.end)
		if r.Offset < m.start || end > m.end || r.Offset > end {
			d.violate("%s(%q): range %d..%d outside mapping %d..%d", op, b.label, r.Offset, end, m.start, m.end)
			continue
		}
		apply(m, b.data, r.Offset, end)
	}
}

// checkRange reports whether [offset, offset+size) lies inside b.
func (b *Buffer) checkRange(offset, size uint64) bool {
	return offset <= b.size && size <= b.size-offset
}
