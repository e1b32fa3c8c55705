// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"encoding/binary"

	"github.com/gogpu/hal"
)

// MaxQueries is the largest query set the backend creates.
const MaxQueries = 4096

// QuerySet is a noop query set. Occlusion queries count the vertices drawn
// while active, pipeline statistics queries count draws and workgroups,
// and timestamps read the device clock.
type QuerySet struct {
	object
	kind    hal.QueryType
	results []uint64
}

// CreateQuerySet creates a query set with every result zero.
func (d *Device) CreateQuerySet(desc *hal.QuerySetDescriptor) (hal.QuerySet, error) {
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	if desc == nil {
		d.violate("CreateQuerySet: nil descriptor")
		return nil, nil
	}
	if desc.Count == 0 || desc.Count > MaxQueries {
		d.violate("CreateQuerySet(%q): %d queries, want 1..%d", desc.Label, desc.Count, MaxQueries)
		return nil, nil
	}
	q := &QuerySet{kind: desc.Type, results: make([]uint64, desc.Count)}
	return insert(d, &d.querySets, q, desc.Label), nil
}

// DestroyQuerySet destroys a query set.
func (d *Device) DestroyQuerySet(set hal.QuerySet) {
	remove(d, &d.querySets, "DestroyQuerySet", set)
}

// Results returns a copy of the query results.
func (q *QuerySet) Results() []uint64 {
	d := q.device
	d.contents.Lock()
	defer d.contents.Unlock()
	return append([]uint64(nil), q.results...)
}

func (e *CommandEncoder) query(op string, set hal.QuerySet, index uint32) (*QuerySet, bool) {
	q, ok := resolve(e.device, &e.device.querySets, op, set)
	if !ok {
		return nil, false
	}
	if int(index) >= len(q.results) {
		e.violate("%s: index %d outside query set %q of %d", op, index, q.label, len(q.results))
		return nil, false
	}
	return q, true
}

// BeginQuery starts an occlusion or pipeline statistics query. Occlusion
// queries are only valid inside a render pass using set.
func (e *CommandEncoder) BeginQuery(set hal.QuerySet, index uint32) {
	e.state.RequireRecording("BeginQuery")
	q, ok := e.query("BeginQuery", set, index)
	if !ok {
		return
	}
	switch q.kind {
	case hal.QueryTypeTimestamp:
		e.violate("BeginQuery: %q is a timestamp query set", q.label)
		return
	case hal.QueryTypeOcclusion:
		if e.pass == nil || e.pass.occlusion != q {
			e.violate("BeginQuery: %q is not the occlusion query set of the current render pass", q.label)
			return
		}
	}
	e.record(func(x *execContext) { x.beginQuery(q, index) })
}

// EndQuery ends a query started with BeginQuery.
func (e *CommandEncoder) EndQuery(set hal.QuerySet, index uint32) {
	e.state.RequireRecording("EndQuery")
	if q, ok := e.query("EndQuery", set, index); ok {
		e.record(func(x *execContext) { x.endQuery(q, index) })
	}
}

// WriteTimestamp writes the device clock, in timestamp ticks, once the
// preceding commands executed.
func (e *CommandEncoder) WriteTimestamp(set hal.QuerySet, index uint32) {
	e.state.RequireRecording("WriteTimestamp")
	q, ok := e.query("WriteTimestamp", set, index)
	if !ok {
		return
	}
	if q.kind != hal.QueryTypeTimestamp {
		e.violate("WriteTimestamp: %q is not a timestamp query set", q.label)
		return
	}
	e.record(func(x *execContext) { x.writeTimestamp(q, index) })
}

// ResetQueries zeroes count results starting at first.
func (e *CommandEncoder) ResetQueries(set hal.QuerySet, first, count uint32) {
	e.state.RequireOutsidePass("ResetQueries")
	q, ok := resolve(e.device, &e.device.querySets, "ResetQueries", set)
	if !ok {
		return
	}
	if uint64(first)+uint64(count) > uint64(len(q.results)) {
		e.violate("ResetQueries: %d+%d outside query set %q of %d", first, count, q.label, len(q.results))
		return
	}
	e.record(func(*execContext) { clear(q.results[first : first+count]) })
}

// CopyQueryResults writes count results as little endian uint64 values
// into buffer, stride bytes apart.
func (e *CommandEncoder) CopyQueryResults(set hal.QuerySet, first, count uint32, buffer hal.Buffer, offset, stride uint64) {
	const op = "CopyQueryResults"
	e.state.RequireOutsidePass(op)
	d := e.device
	q, ok := resolve(d, &d.querySets, op, set)
	if !ok {
		return
	}
	b, ok := resolve(d, &d.buffers, op, buffer)
	if !ok {
		return
	}
	if uint64(first)+uint64(count) > uint64(len(q.results)) {
		e.violate("%s: %d+%d outside query set %q of %d", op, first, count, q.label, len(q.results))
		return
	}
	if !b.usage.Contains(hal.BufferUsesQueryResolve) {
		e.violate("%s: buffer %q lacks QUERY_RESOLVE usage", op, b.label)
	}
	if stride < hal.QuerySize || offset%hal.QuerySize != 0 {
		e.violate("%s: stride %d and offset %d must be multiples of %d", op, stride, offset, hal.QuerySize)
		return
	}
	if count > 0 && (uint64(count-1) > b.size/stride || !b.checkRange(offset, uint64(count-1)*stride+hal.QuerySize)) {
		e.violate("%s: %d results at %d stride %d overflow buffer %q", op, count, offset, stride, b.label)
		return
	}
	e.record(func(x *execContext) {
		x.v.bufferUse(op, b, hal.BufferUsesQueryResolve)
		for i := range uint64(count) {
			binary.LittleEndian.PutUint64(b.data[offset+i*stride:], q.results[uint64(first)+i])
		}
		x.d.counters.bytesCopied.Add(uint64(count) * hal.QuerySize)
	})
}
