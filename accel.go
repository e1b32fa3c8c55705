// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// AccelerationStructureFormat is the level of an acceleration structure.
type AccelerationStructureFormat uint8

// Acceleration structure formats.
const (
	AccelerationStructureFormatTopLevel AccelerationStructureFormat = iota
	AccelerationStructureFormatBottomLevel
)

func (f AccelerationStructureFormat) String() string {
	if f == AccelerationStructureFormatTopLevel {
		return "top-level"
	}
	return "bottom-level"
}

// AccelerationStructureDescriptor describes an acceleration structure.
// Size comes from Device.GetAccelerationStructureBuildSizes.
type AccelerationStructureDescriptor struct {
	Label  string
	Size   uint64
	Format AccelerationStructureFormat
}

// AccelerationStructureBuildMode selects between a full build and an
// update of an already built structure.
type AccelerationStructureBuildMode uint8

// Build modes.
const (
	AccelerationStructureBuildModeBuild AccelerationStructureBuildMode = iota

	// AccelerationStructureBuildModeUpdate refits a structure built with
	// AccelerationStructureBuildFlagsAllowUpdate. Only data may differ from
	// the original build, never the entry shape.
	AccelerationStructureBuildModeUpdate
)

// AccelerationStructureBuildFlags tune a build.
type AccelerationStructureBuildFlags uint8

// Build flags.
const (
	AccelerationStructureBuildFlagsPreferFastTrace AccelerationStructureBuildFlags = 1 << iota
	AccelerationStructureBuildFlagsPreferFastBuild
	AccelerationStructureBuildFlagsAllowUpdate
	AccelerationStructureBuildFlagsAllowCompaction
	AccelerationStructureBuildFlagsLowMemory
)

// Contains reports whether every flag of other is set.
func (f AccelerationStructureBuildFlags) Contains(other AccelerationStructureBuildFlags) bool {
	return f&other == other
}

// AccelerationStructureGeometryFlags modify how geometry is traced.
type AccelerationStructureGeometryFlags uint8

// Geometry flags.
const (
	AccelerationStructureGeometryFlagsOpaque AccelerationStructureGeometryFlags = 1 << iota
	AccelerationStructureGeometryFlagsNoDuplicateAnyHitInvocation
)

// AccelerationStructureEntries is the input of a build. It is one of
// *AccelerationStructureInstances, TriangleGeometries or AABBGeometries.
type AccelerationStructureEntries interface {
	// Format returns the level of structure the entries build.
	Format() AccelerationStructureFormat

	// PrimitiveCount returns the number of instances or primitives.
	PrimitiveCount() uint64

	accelerationStructureEntries()
}

// AccelerationStructureInstances are the instances of a top-level build.
// Each instance record references a bottom-level structure by the address
// returned from Device.GetAccelerationStructureDeviceAddress.
type AccelerationStructureInstances struct {
	Buffer Buffer
	Offset uint32
	Count  uint32
}

func (*AccelerationStructureInstances) Format() AccelerationStructureFormat {
	return AccelerationStructureFormatTopLevel
}

func (e *AccelerationStructureInstances) PrimitiveCount() uint64 { return uint64(e.Count) }

func (*AccelerationStructureInstances) accelerationStructureEntries() {}

// AccelerationStructureTriangleIndices is the index data of a triangle geometry.
type AccelerationStructureTriangleIndices struct {
	Format gputypes.IndexFormat
	Buffer Buffer
	Offset uint32
	Count  uint32
}

// AccelerationStructureTriangleTransform is a 3x4 row-major transform
// applied to a triangle geometry.
type AccelerationStructureTriangleTransform struct {
	Buffer Buffer
	Offset uint32
}

// AccelerationStructureTriangles is one triangle geometry.
type AccelerationStructureTriangles struct {
	VertexBuffer Buffer
	VertexFormat gputypes.VertexFormat
	FirstVertex  uint32
	VertexCount  uint32
	VertexStride uint64
	Indices      *AccelerationStructureTriangleIndices
	Transform    *AccelerationStructureTriangleTransform
	Flags        AccelerationStructureGeometryFlags
}

// TriangleCount returns the number of triangles of the geometry.
func (t *AccelerationStructureTriangles) TriangleCount() uint64 {
	if t.Indices != nil {
		return uint64(t.Indices.Count / 3)
	}
	return uint64(t.VertexCount / 3)
}

// TriangleGeometries are the geometries of a bottom-level triangle build.
type TriangleGeometries []AccelerationStructureTriangles

func (TriangleGeometries) Format() AccelerationStructureFormat {
	return AccelerationStructureFormatBottomLevel
}

func (g TriangleGeometries) PrimitiveCount() uint64 {
	var n uint64
	for i := range g {
		n += g[i].TriangleCount()
	}
	return n
}

func (TriangleGeometries) accelerationStructureEntries() {}

// AccelerationStructureAABBs is one geometry of axis aligned boxes, each
// six float32 values (min xyz, max xyz) at the given stride.
type AccelerationStructureAABBs struct {
	Buffer Buffer
	Offset uint32
	Count  uint32
	Stride uint64
	Flags  AccelerationStructureGeometryFlags
}

// AABBGeometries are the geometries of a bottom-level AABB build.
type AABBGeometries []AccelerationStructureAABBs

func (AABBGeometries) Format() AccelerationStructureFormat {
	return AccelerationStructureFormatBottomLevel
}

func (g AABBGeometries) PrimitiveCount() uint64 {
	var n uint64
	for i := range g {
		n += uint64(g[i].Count)
	}
	return n
}

func (AABBGeometries) accelerationStructureEntries() {}

// GetAccelerationStructureBuildSizesDescriptor describes the shape of a
// build for sizing.
type GetAccelerationStructureBuildSizesDescriptor struct {
	Entries AccelerationStructureEntries
	Flags   AccelerationStructureBuildFlags
}

// AccelerationStructureBuildSizes are the memory requirements of a build.
// They are conservative: a build of the same shape with fewer primitives
// never needs more.
type AccelerationStructureBuildSizes struct {
	AccelerationStructureSize uint64
	UpdateScratchSize         uint64
	BuildScratchSize          uint64
}

// BuildAccelerationStructureDescriptor describes one build of a batch.
type BuildAccelerationStructureDescriptor struct {
	Entries AccelerationStructureEntries
	Mode    AccelerationStructureBuildMode
	Flags   AccelerationStructureBuildFlags

	// SourceAccelerationStructure is read by an update. When nil, the
	// destination is updated in place.
	SourceAccelerationStructure      AccelerationStructure
	DestinationAccelerationStructure AccelerationStructure
	ScratchBuffer                    Buffer
	ScratchBufferOffset              uint64
}

// AccelerationStructureUsageTransition is a change of acceleration
// structure usage.
type AccelerationStructureUsageTransition struct {
	OldUsage AccelerationStructureUses
	NewUsage AccelerationStructureUses
}

// AccelerationStructureBarrier orders acceleration structure accesses.
type AccelerationStructureBarrier struct {
	Usage AccelerationStructureUsageTransition
}

// Batch rule violations reported by AccelerationStructureBatchChecker.
var (
	ErrScratchAliased        = errors.New("hal: scratch regions of a build batch overlap")
	ErrDuplicateDestination  = errors.New("hal: acceleration structure is built twice in one batch")
	ErrBuildInputAlsoOutput  = errors.New("hal: acceleration structure is both built and read in one batch")
	ErrUpdateWithoutAllowing = errors.New("hal: update of a structure not built with AllowUpdate")
)

// AccelerationStructureBatchChecker checks the rules a batch passed to
// CommandEncoder.BuildAccelerationStructures must satisfy.
type AccelerationStructureBatchChecker struct {
	// ScratchSize returns the scratch bytes one build uses. When nil, only
	// scratch start offsets are compared.
	ScratchSize func(desc *BuildAccelerationStructureDescriptor) uint64

	// InstanceInputs returns the bottom-level structures referenced by
	// instance data. When nil, the input/output rule is not checked.
	InstanceInputs func(instances *AccelerationStructureInstances) []AccelerationStructure

	// BuiltFlags returns the flags a structure was last built with, and
	// whether it was built at all. When nil, updates are not checked.
	BuiltFlags func(as AccelerationStructure) (AccelerationStructureBuildFlags, bool)
}

// CheckAccelerationStructureBatch checks the rules that need no backend
// knowledge: distinct destinations and distinct scratch offsets.
func CheckAccelerationStructureBatch(descs []BuildAccelerationStructureDescriptor) error {
	return AccelerationStructureBatchChecker{}.Check(descs)
}

// Check returns the first rule violated by descs, or nil.
func (c AccelerationStructureBatchChecker) Check(descs []BuildAccelerationStructureDescriptor) error {
	type span struct{ start, end uint64 }
	destinations := make(map[AccelerationStructure]int, len(descs))
	scratch := make(map[Buffer][]span, len(descs))

	for i := range descs {
		d := &descs[i]
		if j, ok := destinations[d.DestinationAccelerationStructure]; ok {
			return fmt.Errorf("%w: builds %d and %d", ErrDuplicateDestination, j, i)
		}
		destinations[d.DestinationAccelerationStructure] = i

		s := span{start: d.ScratchBufferOffset, end: d.ScratchBufferOffset + 1}
		if c.ScratchSize != nil {
			s.end = d.ScratchBufferOffset + max(c.ScratchSize(d), 1)
		}
		for _, o := range scratch[d.ScratchBuffer] {
			if s.start < o.end && o.start < s.end {
				return fmt.Errorf("%w: build %d at offset %d", ErrScratchAliased, i, d.ScratchBufferOffset)
			}
		}
		scratch[d.ScratchBuffer] = append(scratch[d.ScratchBuffer], s)

		if d.Mode == AccelerationStructureBuildModeUpdate && c.BuiltFlags != nil {
			src := d.SourceAccelerationStructure
			if src == nil {
				src = d.DestinationAccelerationStructure
			}
			if flags, ok := c.BuiltFlags(src); !ok || !flags.Contains(AccelerationStructureBuildFlagsAllowUpdate) {
				return fmt.Errorf("%w: build %d", ErrUpdateWithoutAllowing, i)
			}
		}
	}

	if c.InstanceInputs == nil {
		return nil
	}
	for i := range descs {
		instances, ok := descs[i].Entries.(*AccelerationStructureInstances)
		if !ok {
			continue
		}
		for _, blas := range c.InstanceInputs(instances) {
			if j, built := destinations[blas]; built {
				return fmt.Errorf("%w: build %d reads the output of build %d", ErrBuildInputAlsoOutput, i, j)
			}
		}
	}
	return nil
}
