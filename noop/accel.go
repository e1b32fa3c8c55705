// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/hal"
)

// InstanceSize is the size in bytes of one top-level instance record.
const InstanceSize = 64

// InstanceRecord is one record of top-level build input, laid out as
// VkAccelerationStructureInstanceKHR.
type InstanceRecord struct {
	// Transform is a row-major 3x4 matrix.
	Transform                [12]float32
	CustomIndex              uint32
	Mask                     uint8
	ShaderBindingTableOffset uint32
	Flags                    uint8

	// AccelerationStructureReference is the device address of a
	// bottom-level structure.
	AccelerationStructureReference uint64
}

// IdentityTransform is the row-major 3x4 identity.
var IdentityTransform = [12]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0}

// EncodeInstances returns the records of instances, ready to be written
// into an instance buffer.
func EncodeInstances(instances []InstanceRecord) []byte {
	out := make([]byte, len(instances)*InstanceSize)
	for i, inst := range instances {
		b := out[i*InstanceSize:]
		for j, f := range inst.Transform {
			binary.LittleEndian.PutUint32(b[j*4:], math.Float32bits(f))
		}
		binary.LittleEndian.PutUint32(b[48:], inst.CustomIndex&0xFFFFFF|uint32(inst.Mask)<<24)
		binary.LittleEndian.PutUint32(b[52:], inst.ShaderBindingTableOffset&0xFFFFFF|uint32(inst.Flags)<<24)
		binary.LittleEndian.PutUint64(b[56:], inst.AccelerationStructureReference)
	}
	return out
}

// AccelerationStructure is a noop acceleration structure. A build stores a
// digest of its inputs, so rebuilding from the same data yields the same
// contents and an update chains from the structure it refits.
type AccelerationStructure struct {
	object
	format  hal.AccelerationStructureFormat
	size    uint64
	address uint64

	// data, built and digest are guarded by the device contents lock.
	data   []byte
	built  bool
	digest uint64

	// recorded describes the last recorded build.
	mu       sync.Mutex
	recorded *recordedBuild
}

type recordedBuild struct {
	flags      hal.AccelerationStructureBuildFlags
	primitives uint64
}

// Format returns the level of the structure.
func (a *AccelerationStructure) Format() hal.AccelerationStructureFormat { return a.format }

// Size returns the size in bytes.
func (a *AccelerationStructure) Size() uint64 { return a.size }

// Digest returns the digest of the last executed build, and whether one
// executed.
func (a *AccelerationStructure) Digest() (uint64, bool) {
	d := a.device
	d.contents.Lock()
	defer d.contents.Unlock()
	return a.digest, a.built
}

func (a *AccelerationStructure) lastRecorded() *recordedBuild {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recorded
}

func align256(n uint64) uint64 { return (n + 255) &^ 255 }

// GetAccelerationStructureBuildSizes returns sizes that grow with the
// primitive count and never shrink.
func (d *Device) GetAccelerationStructureBuildSizes(desc *hal.GetAccelerationStructureBuildSizesDescriptor) hal.AccelerationStructureBuildSizes {
	if desc == nil || desc.Entries == nil {
		d.violate("GetAccelerationStructureBuildSizes: no entries")
		return hal.AccelerationStructureBuildSizes{}
	}
	return buildSizes(desc.Entries, desc.Flags)
}

func buildSizes(entries hal.AccelerationStructureEntries, flags hal.AccelerationStructureBuildFlags) hal.AccelerationStructureBuildSizes {
	prims := entries.PrimitiveCount()
	per := uint64(64)
	if _, ok := entries.(hal.AABBGeometries); ok {
		per = 32
	}
	s := hal.AccelerationStructureBuildSizes{
		AccelerationStructureSize: align256(64 + prims*per),
		BuildScratchSize:          align256(128 + prims*32),
	}
	if flags.Contains(hal.AccelerationStructureBuildFlagsAllowUpdate) {
		s.UpdateScratchSize = align256(64 + prims*16)
	}
	return s
}

func scratchSize(desc *hal.BuildAccelerationStructureDescriptor) uint64 {
	if desc.Entries == nil {
		return 0
	}
	s := buildSizes(desc.Entries, desc.Flags)
	if desc.Mode == hal.AccelerationStructureBuildModeUpdate {
		return s.UpdateScratchSize
	}
	return s.BuildScratchSize
}

// CreateAccelerationStructure allocates a structure and its device
// address.
func (d *Device) CreateAccelerationStructure(desc *hal.AccelerationStructureDescriptor) (hal.AccelerationStructure, error) {
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	if desc == nil || desc.Size == 0 {
		d.violate("CreateAccelerationStructure: missing descriptor or size")
		return nil, nil
	}
	if desc.Size > d.limits.MaxBufferSize {
		return nil, hal.ErrResourceCreationFailed
	}
	if err := d.reserve(desc.Size); err != nil {
		return nil, err
	}
	a := &AccelerationStructure{
		format: desc.Format,
		size:   desc.Size,
		data:   make([]byte, desc.Size),
	}
	d.addrMu.Lock()
	a.address = d.nextAddress
	d.nextAddress += align256(desc.Size)
	d.addresses[a.address] = a
	d.addrMu.Unlock()
	return insert(d, &d.accelerationStructures, a, desc.Label), nil
}

// DestroyAccelerationStructure frees a structure and its address.
func (d *Device) DestroyAccelerationStructure(as hal.AccelerationStructure) {
	a, ok := remove(d, &d.accelerationStructures, "DestroyAccelerationStructure", as)
	if !ok {
		return
	}
	d.addrMu.Lock()
	delete(d.addresses, a.address)
	d.addrMu.Unlock()
	d.release(a.size)
}

// GetAccelerationStructureDeviceAddress returns the address instance
// records use to reference as.
func (d *Device) GetAccelerationStructureDeviceAddress(as hal.AccelerationStructure) uint64 {
	a, ok := resolve(d, &d.accelerationStructures, "GetAccelerationStructureDeviceAddress", as)
	if !ok {
		return 0
	}
	return a.address
}

func (d *Device) accelerationStructureAt(address uint64) *AccelerationStructure {
	d.addrMu.RLock()
	defer d.addrMu.RUnlock()
	return d.addresses[address]
}

// instanceReferences decodes the references of instances as they are in
// the buffer now.
func (d *Device) instanceReferences(instances *hal.AccelerationStructureInstances) ([]*AccelerationStructure, []uint64) {
	b, ok := resolve(d, &d.buffers, "BuildAccelerationStructures", instances.Buffer)
	if !ok {
		return nil, nil
	}
	d.contents.Lock()
	defer d.contents.Unlock()
	var (
		found   []*AccelerationStructure
		unknown []uint64
	)
	for i := range uint64(instances.Count) {
		off := uint64(instances.Offset) + i*InstanceSize + 56
		if off+8 > uint64(len(b.data)) {
			break
		}
		ref := binary.LittleEndian.Uint64(b.data[off:])
		if a := d.accelerationStructureAt(ref); a != nil {
			found = append(found, a)
		} else {
			unknown = append(unknown, ref)
		}
	}
	return found, unknown
}

// build is a resolved build of a batch.
type build struct {
	dst, src   *AccelerationStructure
	entries    hal.AccelerationStructureEntries
	mode       hal.AccelerationStructureBuildMode
	flags      hal.AccelerationStructureBuildFlags
	scratch    *Buffer
	inputs     []buildRange
	referenced []*AccelerationStructure
}

// buildRange is the part of an input buffer a build reads.
type buildRange struct {
	buf          *Buffer
	offset, size uint64
}

// bytes returns the range clamped to the buffer contents.
func (r buildRange) bytes() []byte {
	n := uint64(len(r.buf.data))
	lo := min(r.offset, n)
	hi := lo + min(r.size, n-lo)
	return r.buf.data[lo:hi]
}

// BuildAccelerationStructures records a batch of builds. Instance data is
// read when recording to check that no build reads another's output.
func (e *CommandEncoder) BuildAccelerationStructures(descs []hal.BuildAccelerationStructureDescriptor) {
	const op = "BuildAccelerationStructures"
	e.state.RequireOutsidePass(op)
	d := e.device

	checker := hal.AccelerationStructureBatchChecker{
		ScratchSize: scratchSize,
		InstanceInputs: func(instances *hal.AccelerationStructureInstances) []hal.AccelerationStructure {
			found, _ := d.instanceReferences(instances)
			out := make([]hal.AccelerationStructure, len(found))
			for i, a := range found {
				out[i] = a
			}
			return out
		},
		BuiltFlags: func(as hal.AccelerationStructure) (hal.AccelerationStructureBuildFlags, bool) {
			a, ok := as.(*AccelerationStructure)
			if !ok || a == nil {
				return 0, false
			}
			if r := a.lastRecorded(); r != nil {
				return r.flags, true
			}
			return 0, false
		},
	}
	if err := checker.Check(descs); err != nil {
		e.violate("%s: %v", op, err)
		return
	}

	builds := make([]build, 0, len(descs))
	for i := range descs {
		if b, ok := e.resolveBuild(op, &descs[i]); ok {
			builds = append(builds, b)
		}
	}
	for _, b := range builds {
		b.dst.mu.Lock()
		b.dst.recorded = &recordedBuild{flags: b.flags, primitives: b.entries.PrimitiveCount()}
		b.dst.mu.Unlock()
	}
	e.record(func(x *execContext) {
		for _, b := range builds {
			x.build(op, &b)
		}
	})
}

func (e *CommandEncoder) resolveBuild(op string, desc *hal.BuildAccelerationStructureDescriptor) (build, bool) {
	d := e.device
	b := build{entries: desc.Entries, mode: desc.Mode, flags: desc.Flags}
	if desc.Entries == nil {
		e.violate("%s: build without entries", op)
		return b, false
	}
	dst, ok := resolve(d, &d.accelerationStructures, op, desc.DestinationAccelerationStructure)
	if !ok {
		return b, false
	}
	b.dst = dst
	if dst.format != desc.Entries.Format() {
		e.violate("%s: %v entries into %v structure %q", op, desc.Entries.Format(), dst.format, dst.label)
		return b, false
	}
	sizes := buildSizes(desc.Entries, desc.Flags)
	if dst.size < sizes.AccelerationStructureSize {
		e.violate("%s: %q has %d bytes, build needs %d", op, dst.label, dst.size, sizes.AccelerationStructureSize)
		return b, false
	}

	if desc.Mode == hal.AccelerationStructureBuildModeUpdate {
		b.src = dst
		if desc.SourceAccelerationStructure != nil {
			src, ok := resolve(d, &d.accelerationStructures, op, desc.SourceAccelerationStructure)
			if !ok {
				return b, false
			}
			b.src = src
		}
		if r := b.src.lastRecorded(); r == nil || r.primitives != desc.Entries.PrimitiveCount() {
			e.violate("%s: update of %q changes the primitive count", op, b.src.label)
			return b, false
		}
	}

	scratch, ok := resolve(d, &d.buffers, op, desc.ScratchBuffer)
	if !ok {
		return b, false
	}
	if !scratch.usage.Contains(hal.BufferUsesAccelerationStructureScratch) {
		e.violate("%s: scratch %q lacks ACCELERATION_STRUCTURE_SCRATCH usage", op, scratch.label)
	}
	if !scratch.checkRange(desc.ScratchBufferOffset, scratchSize(desc)) {
		e.violate("%s: scratch %q too small at offset %d", op, scratch.label, desc.ScratchBufferOffset)
		return b, false
	}
	b.scratch = scratch

	switch entries := desc.Entries.(type) {
	case *hal.AccelerationStructureInstances:
		buf, ok := e.buildInput(op, entries.Buffer, hal.BufferUsesTopLevelAccelerationStructureInput)
		if !ok {
			return b, false
		}
		b.inputs = append(b.inputs, buildRange{buf, uint64(entries.Offset), uint64(entries.Count) * InstanceSize})
		found, unknown := d.instanceReferences(entries)
		if len(unknown) > 0 {
			e.violate("%s: instances of %q reference unknown address %#x", op, dst.label, unknown[0])
		}
		b.referenced = found
	case hal.TriangleGeometries:
		for i := range entries {
			g := &entries[i]
			for _, in := range triangleInputs(g) {
				buf, ok := e.buildInput(op, in.ref, hal.BufferUsesBottomLevelAccelerationStructureInput)
				if !ok {
					return b, false
				}
				b.inputs = append(b.inputs, buildRange{buf, in.offset, in.size})
			}
		}
	case hal.AABBGeometries:
		for i := range entries {
			g := &entries[i]
			buf, ok := e.buildInput(op, g.Buffer, hal.BufferUsesBottomLevelAccelerationStructureInput)
			if !ok {
				return b, false
			}
			stride := g.Stride
			if stride == 0 {
				stride = aabbSize
			}
			b.inputs = append(b.inputs, buildRange{buf, uint64(g.Offset), uint64(g.Count) * stride})
		}
	}
	return b, true
}

const (
	// aabbSize is the packed size of six float32 bounds.
	aabbSize = 24
	// transformSize is the size of a 3x4 float32 matrix.
	transformSize = 48
)

type triangleInput struct {
	ref          hal.Buffer
	offset, size uint64
}

// triangleInputs returns the vertex, index and transform ranges g reads.
func triangleInputs(g *hal.AccelerationStructureTriangles) []triangleInput {
	var in []triangleInput
	if g.VertexBuffer != nil {
		in = append(in, triangleInput{g.VertexBuffer, uint64(g.FirstVertex) * g.VertexStride, uint64(g.VertexCount) * g.VertexStride})
	}
	if g.Indices != nil && g.Indices.Buffer != nil {
		size := uint64(2)
		if g.Indices.Format == gputypes.IndexFormatUint32 {
			size = 4
		}
		in = append(in, triangleInput{g.Indices.Buffer, uint64(g.Indices.Offset), uint64(g.Indices.Count) * size})
	}
	if g.Transform != nil && g.Transform.Buffer != nil {
		in = append(in, triangleInput{g.Transform.Buffer, uint64(g.Transform.Offset), transformSize})
	}
	return in
}

func (e *CommandEncoder) buildInput(op string, r hal.Buffer, use hal.BufferUses) (*Buffer, bool) {
	b, ok := resolve(e.device, &e.device.buffers, op, r)
	if !ok {
		return nil, false
	}
	if !b.usage.Contains(use) {
		e.violate("%s: input %q lacks %v usage", op, b.label, use)
	}
	return b, true
}

// build executes one build, hashing its inputs into the destination.
func (x *execContext) build(op string, b *build) {
	x.v.bufferUse(op, b.scratch, hal.BufferUsesAccelerationStructureScratch)
	h := fnv.New64a()
	var word [8]byte
	if b.mode == hal.AccelerationStructureBuildModeUpdate {
		if !b.src.built && x.v != nil {
			x.v.reportf("%s: update of %q which was never built", op, b.src.label)
		}
		binary.LittleEndian.PutUint64(word[:], b.src.digest)
		h.Write(word[:])
	}
	for _, in := range b.inputs {
		x.v.bufferUse(op, in.buf, inputUse(b.entries))
		h.Write(in.bytes())
	}
	for _, ref := range b.referenced {
		_, pending := x.unordered[ref]
		x.v.accelerationStructureRead(op, ref, pending)
		if !ref.built && x.v != nil {
			x.v.reportf("%s: instance references %q which was never built", op, ref.label)
		}
		binary.LittleEndian.PutUint64(word[:], ref.digest)
		h.Write(word[:])
	}

	dst := b.dst
	dst.digest = h.Sum64()
	dst.built = true
	if len(dst.data) >= 16 {
		binary.LittleEndian.PutUint64(dst.data[0:], dst.digest)
		binary.LittleEndian.PutUint64(dst.data[8:], b.entries.PrimitiveCount())
	}
	x.unordered[dst] = struct{}{}
	x.d.counters.builds.Add(1)
}

func inputUse(entries hal.AccelerationStructureEntries) hal.BufferUses {
	if entries.Format() == hal.AccelerationStructureFormatTopLevel {
		return hal.BufferUsesTopLevelAccelerationStructureInput
	}
	return hal.BufferUsesBottomLevelAccelerationStructureInput
}

// PlaceAccelerationStructureBarrier orders builds before later reads.
func (e *CommandEncoder) PlaceAccelerationStructureBarrier(barrier hal.AccelerationStructureBarrier) {
	e.state.RequireOutsidePass("PlaceAccelerationStructureBarrier")
	if barrier.Usage.OldUsage.Contains(hal.AccelerationStructureUsesBuildOutput) {
		e.record(func(x *execContext) { clear(x.unordered) })
	}
}
