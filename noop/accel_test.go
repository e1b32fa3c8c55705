// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/hal"
)

func TestEncodeInstances(t *testing.T) {
	raw := EncodeInstances([]InstanceRecord{
		{Transform: IdentityTransform},
		{
			Transform:                      IdentityTransform,
			CustomIndex:                    0x123456,
			Mask:                           0xAB,
			ShaderBindingTableOffset:       0x000102,
			Flags:                          0x04,
			AccelerationStructureReference: 0x1000,
		},
	})
	require.Len(t, raw, 2*InstanceSize)

	rec := raw[InstanceSize:]
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(rec[0:])))
	assert.Equal(t, float32(0), math.Float32frombits(binary.LittleEndian.Uint32(rec[4:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(rec[20:])))
	assert.Equal(t, uint32(0xAB123456), binary.LittleEndian.Uint32(rec[48:]))
	assert.Equal(t, uint32(0x04000102), binary.LittleEndian.Uint32(rec[52:]))
	assert.Equal(t, uint64(0x1000), binary.LittleEndian.Uint64(rec[56:]))
}

func TestBuildSizes(t *testing.T) {
	f := debugFixture(t)
	tests := []struct {
		name    string
		entries hal.AccelerationStructureEntries
		flags   hal.AccelerationStructureBuildFlags
		want    hal.AccelerationStructureBuildSizes
	}{
		{
			name:    "one triangle",
			entries: hal.TriangleGeometries{{VertexCount: 3}},
			want:    hal.AccelerationStructureBuildSizes{AccelerationStructureSize: 256, BuildScratchSize: 256},
		},
		{
			name:    "indexed triangles with updates",
			entries: hal.TriangleGeometries{{VertexCount: 4, Indices: &hal.AccelerationStructureTriangleIndices{Count: 6}}},
			flags:   hal.AccelerationStructureBuildFlagsAllowUpdate,
			want: hal.AccelerationStructureBuildSizes{
				AccelerationStructureSize: 256, BuildScratchSize: 256, UpdateScratchSize: 256,
			},
		},
		{
			name:    "boxes",
			entries: hal.AABBGeometries{{Count: 10}},
			want:    hal.AccelerationStructureBuildSizes{AccelerationStructureSize: 512, BuildScratchSize: 512},
		},
		{
			name:    "instances",
			entries: &hal.AccelerationStructureInstances{Count: 100},
			flags:   hal.AccelerationStructureBuildFlagsAllowUpdate,
			want: hal.AccelerationStructureBuildSizes{
				AccelerationStructureSize: 6656, BuildScratchSize: 3328, UpdateScratchSize: 1792,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.dev.GetAccelerationStructureBuildSizes(&hal.GetAccelerationStructureBuildSizesDescriptor{
				Entries: tt.entries,
				Flags:   tt.flags,
			})
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Contains(t, violation(t, func() {
		f.dev.GetAccelerationStructureBuildSizes(&hal.GetAccelerationStructureBuildSizesDescriptor{})
	}), "no entries")
}

// scene holds the inputs of a one-triangle bottom-level build.
type scene struct {
	f        *fixture
	vertices *Buffer
	scratch  *Buffer
}

func newScene(f *fixture) *scene {
	s := &scene{
		f:        f,
		vertices: f.buffer("vertices", 36, hal.BufferUsesBottomLevelAccelerationStructureInput|hal.BufferUsesMapWrite),
		scratch:  f.buffer("scratch", 4096, hal.BufferUsesAccelerationStructureScratch),
	}
	s.setVertices(0, 0, 0, 1, 0, 0, 0, 1, 0)
	return s
}

func (s *scene) setVertices(coords ...float32) {
	raw := make([]byte, 4*len(coords))
	for i, c := range coords {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(c))
	}
	s.f.write(s.vertices, 0, raw)
}

func (s *scene) structure(label string, format hal.AccelerationStructureFormat) *AccelerationStructure {
	f := s.f
	f.t.Helper()
	as, err := f.dev.CreateAccelerationStructure(&hal.AccelerationStructureDescriptor{
		Label:  label,
		Size:   1024,
		Format: format,
	})
	require.NoError(f.t, err)
	f.t.Cleanup(func() { f.dev.DestroyAccelerationStructure(as) })
	return as.(*AccelerationStructure)
}

func (s *scene) triangles() hal.TriangleGeometries {
	return hal.TriangleGeometries{{
		VertexBuffer: s.vertices,
		VertexFormat: gputypes.VertexFormatFloat32x3,
		VertexCount:  3,
		VertexStride: 12,
		Flags:        hal.AccelerationStructureGeometryFlagsOpaque,
	}}
}

func (s *scene) blas(dst *AccelerationStructure, mode hal.AccelerationStructureBuildMode, flags hal.AccelerationStructureBuildFlags, scratchOffset uint64) hal.BuildAccelerationStructureDescriptor {
	return hal.BuildAccelerationStructureDescriptor{
		Entries:                          s.triangles(),
		Mode:                             mode,
		Flags:                            flags,
		DestinationAccelerationStructure: dst,
		ScratchBuffer:                    s.scratch,
		ScratchBufferOffset:              scratchOffset,
	}
}

// instances returns a buffer of one instance per bottom-level structure.
func (s *scene) instances(blases ...*AccelerationStructure) *Buffer {
	f := s.f
	recs := make([]InstanceRecord, len(blases))
	for i, b := range blases {
		recs[i] = InstanceRecord{
			Transform:                      IdentityTransform,
			Mask:                           0xFF,
			AccelerationStructureReference: f.dev.GetAccelerationStructureDeviceAddress(b),
		}
	}
	buf := f.buffer("instances", uint64(len(recs))*InstanceSize,
		hal.BufferUsesTopLevelAccelerationStructureInput|hal.BufferUsesMapWrite)
	f.write(buf, 0, EncodeInstances(recs))
	return buf
}

func (s *scene) tlas(dst *AccelerationStructure, instances *Buffer, count uint32, scratchOffset uint64) hal.BuildAccelerationStructureDescriptor {
	return hal.BuildAccelerationStructureDescriptor{
		Entries:                          &hal.AccelerationStructureInstances{Buffer: instances, Count: count},
		DestinationAccelerationStructure: dst,
		ScratchBuffer:                    s.scratch,
		ScratchBufferOffset:              scratchOffset,
	}
}

var buildBarrier = hal.AccelerationStructureBarrier{Usage: hal.AccelerationStructureUsageTransition{
	OldUsage: hal.AccelerationStructureUsesBuildOutput,
	NewUsage: hal.AccelerationStructureUsesBuildInput,
}}

func TestBuildIsDeterministic(t *testing.T) {
	f := debugFixture(t)
	s := newScene(f)
	a := s.structure("a", hal.AccelerationStructureFormatBottomLevel)
	b := s.structure("b", hal.AccelerationStructureFormatBottomLevel)
	c := s.structure("c", hal.AccelerationStructureFormatBottomLevel)

	_, built := a.Digest()
	assert.False(t, built)

	f.run(func(e *CommandEncoder) {
		e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{
			s.blas(a, hal.AccelerationStructureBuildModeBuild, 0, 0),
			s.blas(b, hal.AccelerationStructureBuildModeBuild, 0, 1024),
		})
	})
	s.setVertices(0, 0, 0, 2, 0, 0, 0, 2, 0)
	f.run(func(e *CommandEncoder) {
		e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{
			s.blas(c, hal.AccelerationStructureBuildModeBuild, 0, 0),
		})
	})

	da, ok := a.Digest()
	require.True(t, ok)
	db, _ := b.Digest()
	dc, _ := c.Digest()
	assert.Equal(t, da, db, "same inputs give the same contents")
	assert.NotEqual(t, da, dc)
	assert.Equal(t, uint64(3), f.dev.Stats().Builds)
}

func TestTopLevelBuild(t *testing.T) {
	f := newFixture(t, hal.InstanceFlagsDebug|hal.InstanceFlagsValidation)
	s := newScene(f)
	blas := s.structure("blas", hal.AccelerationStructureFormatBottomLevel)
	tlas := s.structure("tlas", hal.AccelerationStructureFormatTopLevel)
	instances := s.instances(blas)

	f.run(func(e *CommandEncoder) {
		e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{
			s.blas(blas, hal.AccelerationStructureBuildModeBuild, 0, 0),
		})
		e.PlaceAccelerationStructureBarrier(buildBarrier)
		e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{s.tlas(tlas, instances, 1, 0)})
	})
	assert.Empty(t, f.canary.GetAndReset())
	first, ok := tlas.Digest()
	require.True(t, ok)

	// Rebuilding the bottom level from other vertices changes the top level.
	s.setVertices(1, 1, 1, 2, 0, 0, 0, 2, 0)
	f.run(func(e *CommandEncoder) {
		e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{
			s.blas(blas, hal.AccelerationStructureBuildModeBuild, 0, 0),
		})
		e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{s.tlas(tlas, instances, 1, 0)})
	})
	second, _ := tlas.Digest()
	assert.NotEqual(t, first, second)

	msgs := f.canary.GetAndReset()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], `acceleration structure "blas" read without a barrier after its build`)
}

func TestUpdateChainsFromSource(t *testing.T) {
	f := debugFixture(t)
	s := newScene(f)
	refit := s.structure("refit", hal.AccelerationStructureFormatBottomLevel)
	rebuilt := s.structure("rebuilt", hal.AccelerationStructureFormatBottomLevel)
	allow := hal.AccelerationStructureBuildFlagsAllowUpdate

	f.run(func(e *CommandEncoder) {
		e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{
			s.blas(refit, hal.AccelerationStructureBuildModeBuild, allow, 0),
		})
	})
	s.setVertices(0, 0, 0, 1, 1, 0, 0, 1, 0)
	f.run(func(e *CommandEncoder) {
		e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{
			s.blas(refit, hal.AccelerationStructureBuildModeUpdate, allow, 0),
			s.blas(rebuilt, hal.AccelerationStructureBuildModeBuild, allow, 1024),
		})
	})

	updated, _ := refit.Digest()
	fresh, _ := rebuilt.Digest()
	assert.NotEqual(t, fresh, updated, "an update also hashes the structure it refits")
}

func TestUpdateKeepsSize(t *testing.T) {
	f := debugFixture(t)
	s := newScene(f)
	refit := s.structure("refit", hal.AccelerationStructureFormatBottomLevel)
	allow := hal.AccelerationStructureBuildFlagsAllowUpdate
	sizes := func() hal.AccelerationStructureBuildSizes {
		return f.dev.GetAccelerationStructureBuildSizes(&hal.GetAccelerationStructureBuildSizesDescriptor{
			Entries: s.triangles(),
			Flags:   allow,
		})
	}

	f.run(func(e *CommandEncoder) {
		e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{
			s.blas(refit, hal.AccelerationStructureBuildModeBuild, allow, 0),
		})
	})
	size, built := refit.Size(), sizes()
	before := structureBytes(f, refit)

	s.setVertices(0, 0, 0, 1, 1, 0, 0, 1, 0)
	f.run(func(e *CommandEncoder) {
		e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{
			s.blas(refit, hal.AccelerationStructureBuildModeUpdate, allow, 0),
		})
	})

	assert.Equal(t, size, refit.Size())
	assert.Equal(t, built, sizes())
	after := structureBytes(f, refit)
	assert.NotEqual(t, before[:8], after[:8], "the digest header changes")
	assert.Equal(t, before[8:16], after[8:16], "the primitive count does not")
}

// structureBytes copies the contents of a.
func structureBytes(f *fixture, a *AccelerationStructure) []byte {
	f.dev.contents.Lock()
	defer f.dev.contents.Unlock()
	return append([]byte(nil), a.data...)
}

func TestBuildHashesReferencedRange(t *testing.T) {
	f := debugFixture(t)
	s := newScene(f)
	// Two triangles in one buffer, built as separate structures.
	s.vertices = f.buffer("shared", 72, hal.BufferUsesBottomLevelAccelerationStructureInput|hal.BufferUsesMapWrite)
	s.setVertices(0, 0, 0, 1, 0, 0, 0, 1, 0, 5, 5, 5, 6, 5, 5, 5, 6, 5)

	build := func(dst *AccelerationStructure, first uint32) uint64 {
		desc := s.blas(dst, hal.AccelerationStructureBuildModeBuild, 0, 0)
		g := s.triangles()
		g[0].FirstVertex = first
		desc.Entries = g
		f.run(func(e *CommandEncoder) {
			e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{desc})
		})
		d, ok := dst.Digest()
		require.True(t, ok)
		return d
	}

	low := build(s.structure("low", hal.AccelerationStructureFormatBottomLevel), 0)
	high := build(s.structure("high", hal.AccelerationStructureFormatBottomLevel), 3)
	assert.NotEqual(t, low, high, "each structure hashes only its own vertices")

	// Bytes past the low range do not affect it.
	f.write(s.vertices, 36, make([]byte, 36))
	again := build(s.structure("again", hal.AccelerationStructureFormatBottomLevel), 0)
	assert.Equal(t, low, again)
}

func TestBuildViolations(t *testing.T) {
	f := debugFixture(t)
	s := newScene(f)
	fixed := s.structure("fixed", hal.AccelerationStructureFormatBottomLevel)
	updatable := s.structure("updatable", hal.AccelerationStructureFormatBottomLevel)
	tlas := s.structure("tlas", hal.AccelerationStructureFormatTopLevel)
	stray := s.instances(fixed)
	f.write(stray, 56, []byte{0xEF, 0xBE, 0xAD, 0xDE, 0, 0, 0, 0})

	f.run(func(e *CommandEncoder) {
		e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{
			s.blas(fixed, hal.AccelerationStructureBuildModeBuild, 0, 0),
			s.blas(updatable, hal.AccelerationStructureBuildModeBuild, hal.AccelerationStructureBuildFlagsAllowUpdate, 1024),
		})
	})

	moreTriangles := s.blas(updatable, hal.AccelerationStructureBuildModeUpdate, hal.AccelerationStructureBuildFlagsAllowUpdate, 0)
	moreTriangles.Entries = hal.TriangleGeometries{s.triangles()[0], s.triangles()[0]}
	wrongLevel := s.blas(tlas, hal.AccelerationStructureBuildModeBuild, 0, 0)

	tests := []struct {
		name  string
		batch []hal.BuildAccelerationStructureDescriptor
		msg   string
	}{
		{"duplicate destination", []hal.BuildAccelerationStructureDescriptor{
			s.blas(fixed, hal.AccelerationStructureBuildModeBuild, 0, 0),
			s.blas(fixed, hal.AccelerationStructureBuildModeBuild, 0, 1024),
		}, hal.ErrDuplicateDestination.Error()},
		{"aliased scratch", []hal.BuildAccelerationStructureDescriptor{
			s.blas(fixed, hal.AccelerationStructureBuildModeBuild, 0, 0),
			s.blas(updatable, hal.AccelerationStructureBuildModeBuild, 0, 128),
		}, hal.ErrScratchAliased.Error()},
		{"update without allowing", []hal.BuildAccelerationStructureDescriptor{
			s.blas(fixed, hal.AccelerationStructureBuildModeUpdate, 0, 0),
		}, hal.ErrUpdateWithoutAllowing.Error()},
		{"input also output", []hal.BuildAccelerationStructureDescriptor{
			s.blas(fixed, hal.AccelerationStructureBuildModeBuild, 0, 0),
			s.tlas(tlas, s.instances(fixed), 1, 1024),
		}, hal.ErrBuildInputAlsoOutput.Error()},
		{"primitive count", []hal.BuildAccelerationStructureDescriptor{moreTriangles}, "changes the primitive count"},
		{"wrong level", []hal.BuildAccelerationStructureDescriptor{wrongLevel}, "entries into"},
		{"unknown address", []hal.BuildAccelerationStructureDescriptor{s.tlas(tlas, stray, 1, 0)}, "reference unknown address 0xdeadbeef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := f.encoder()
			require.NoError(t, e.BeginEncoding(tt.name))
			defer e.DiscardEncoding()
			msg := violation(t, func() { e.BuildAccelerationStructures(tt.batch) })
			assert.Contains(t, msg, "BuildAccelerationStructures: ")
			assert.Contains(t, msg, tt.msg)
		})
	}

	t.Run("inside a pass", func(t *testing.T) {
		e := f.encoder()
		require.NoError(t, e.BeginEncoding("pass"))
		defer e.DiscardEncoding()
		e.BeginComputePass(nil)
		assert.Contains(t, violation(t, func() {
			e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{
				s.blas(fixed, hal.AccelerationStructureBuildModeBuild, 0, 0),
			})
		}), "BuildAccelerationStructures inside a compute pass")
	})
}

func TestUpdateOfUnbuiltStructure(t *testing.T) {
	f := newFixture(t, hal.InstanceFlagsDebug|hal.InstanceFlagsValidation)
	s := newScene(f)
	as := s.structure("pending", hal.AccelerationStructureFormatBottomLevel)
	allow := hal.AccelerationStructureBuildFlagsAllowUpdate

	// The build is recorded but never submitted.
	pending := f.encoder()
	require.NoError(t, pending.BeginEncoding("never submitted"))
	pending.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{
		s.blas(as, hal.AccelerationStructureBuildModeBuild, allow, 0),
	})
	pending.DiscardEncoding()

	f.run(func(e *CommandEncoder) {
		e.BuildAccelerationStructures([]hal.BuildAccelerationStructureDescriptor{
			s.blas(as, hal.AccelerationStructureBuildModeUpdate, allow, 0),
		})
	})
	msgs := f.canary.GetAndReset()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], `update of "pending" which was never built`)
}
