// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import "math/bits"

// BufferUses describes how a buffer is used at one point of the command
// stream. It is the internal counterpart of the WebGPU buffer usage flags.
type BufferUses uint16

// Buffer usages.
const (
	// BufferUsesMapRead is the argument to a read-only mapping.
	BufferUsesMapRead BufferUses = 1 << 0
	// BufferUsesMapWrite is the argument to a write-only mapping.
	BufferUsesMapWrite BufferUses = 1 << 1
	// BufferUsesCopySrc is the source of a hardware copy.
	BufferUsesCopySrc BufferUses = 1 << 2
	// BufferUsesCopyDst is the destination of a hardware copy.
	BufferUsesCopyDst BufferUses = 1 << 3
	// BufferUsesIndex is the index buffer used for drawing.
	BufferUsesIndex BufferUses = 1 << 4
	// BufferUsesVertex is a vertex buffer used for drawing.
	BufferUsesVertex BufferUses = 1 << 5
	// BufferUsesUniform is a uniform buffer bound in a bind group.
	BufferUsesUniform BufferUses = 1 << 6
	// BufferUsesStorageRead is a read-only storage buffer bound in a bind group.
	BufferUsesStorageRead BufferUses = 1 << 7
	// BufferUsesStorageReadWrite is a read-write or write-only storage buffer.
	BufferUsesStorageReadWrite BufferUses = 1 << 8
	// BufferUsesIndirect is the indirect or count buffer of an indirect draw or dispatch.
	BufferUsesIndirect BufferUses = 1 << 9
	// BufferUsesQueryResolve is a buffer receiving query results.
	BufferUsesQueryResolve BufferUses = 1 << 10
	// BufferUsesAccelerationStructureScratch is scratch memory of a build.
	BufferUsesAccelerationStructureScratch BufferUses = 1 << 11
	// BufferUsesBottomLevelAccelerationStructureInput holds vertices, indices,
	// transforms or AABBs read by a bottom-level build.
	BufferUsesBottomLevelAccelerationStructureInput BufferUses = 1 << 12
	// BufferUsesTopLevelAccelerationStructureInput holds instances read by a
	// top-level build.
	BufferUsesTopLevelAccelerationStructureInput BufferUses = 1 << 13

	// BufferUsesInclusive is the set of usages a buffer may hold at the same time.
	BufferUsesInclusive = BufferUsesMapRead | BufferUsesCopySrc | BufferUsesIndex |
		BufferUsesVertex | BufferUsesUniform | BufferUsesStorageRead | BufferUsesIndirect |
		BufferUsesBottomLevelAccelerationStructureInput | BufferUsesTopLevelAccelerationStructureInput

	// BufferUsesExclusive is the set of usages a buffer must hold alone.
	BufferUsesExclusive = BufferUsesMapWrite | BufferUsesCopyDst |
		BufferUsesStorageReadWrite | BufferUsesAccelerationStructureScratch

	// BufferUsesOrdered is the set of usages the hardware orders implicitly:
	// if the usage does not change between two operations, no barrier is needed.
	BufferUsesOrdered = BufferUsesInclusive | BufferUsesMapWrite
)

// Compile-time check that no buffer usage is both shareable and exclusive.
var _ = [1]struct{}{}[BufferUsesInclusive&BufferUsesExclusive]

// IsEmpty reports whether no usage bit is set.
func (u BufferUses) IsEmpty() bool { return u == 0 }

// Contains reports whether every bit of other is set in u.
func (u BufferUses) Contains(other BufferUses) bool { return u&other == other }

// Intersects reports whether u and other share a bit.
func (u BufferUses) Intersects(other BufferUses) bool { return u&other != 0 }

// IsOrdered reports whether every bit of u is hardware ordered.
func (u BufferUses) IsOrdered() bool { return BufferUsesOrdered.Contains(u) }

// IsReadOnly reports whether u contains only inclusive (read) usages.
func (u BufferUses) IsReadOnly() bool { return BufferUsesInclusive.Contains(u) }

// IsValid reports whether u is a state a buffer can be in: either any
// combination of inclusive usages, or exactly one exclusive usage.
func (u BufferUses) IsValid() bool {
	if !u.Intersects(BufferUsesExclusive) {
		return true
	}
	return bits.OnesCount16(uint16(u)) == 1
}

// RequiresTransition reports whether a barrier must be recorded between an
// operation using the buffer as u and a following one using it as next.
// No barrier is needed only when the usage is unchanged and ordered.
func (u BufferUses) RequiresTransition(next BufferUses) bool {
	return !(u == next && u.IsOrdered())
}

var bufferUsesNames = []flagName{
	{uint64(BufferUsesMapRead), "MAP_READ"},
	{uint64(BufferUsesMapWrite), "MAP_WRITE"},
	{uint64(BufferUsesCopySrc), "COPY_SRC"},
	{uint64(BufferUsesCopyDst), "COPY_DST"},
	{uint64(BufferUsesIndex), "INDEX"},
	{uint64(BufferUsesVertex), "VERTEX"},
	{uint64(BufferUsesUniform), "UNIFORM"},
	{uint64(BufferUsesStorageRead), "STORAGE_READ"},
	{uint64(BufferUsesStorageReadWrite), "STORAGE_READ_WRITE"},
	{uint64(BufferUsesIndirect), "INDIRECT"},
	{uint64(BufferUsesQueryResolve), "QUERY_RESOLVE"},
	{uint64(BufferUsesAccelerationStructureScratch), "ACCELERATION_STRUCTURE_SCRATCH"},
	{uint64(BufferUsesBottomLevelAccelerationStructureInput), "BOTTOM_LEVEL_ACCELERATION_STRUCTURE_INPUT"},
	{uint64(BufferUsesTopLevelAccelerationStructureInput), "TOP_LEVEL_ACCELERATION_STRUCTURE_INPUT"},
}

func (u BufferUses) String() string { return formatFlags(uint64(u), bufferUsesNames) }

// TextureUses describes how a texture subresource is used at one point of
// the command stream.
type TextureUses uint16

// Texture usages.
const (
	// TextureUsesUninitialized is the state of a freshly created texture.
	TextureUsesUninitialized TextureUses = 1 << 0
	// TextureUsesPresent is ready to present to the surface.
	TextureUsesPresent TextureUses = 1 << 1
	// TextureUsesCopySrc is the source of a hardware copy.
	TextureUsesCopySrc TextureUses = 1 << 2
	// TextureUsesCopyDst is the destination of a hardware copy.
	TextureUsesCopyDst TextureUses = 1 << 3
	// TextureUsesResource is a read-only sampled or fetched resource.
	TextureUsesResource TextureUses = 1 << 4
	// TextureUsesColorTarget is the color target of a render pass.
	TextureUsesColorTarget TextureUses = 1 << 5
	// TextureUsesDepthStencilRead is read-only depth stencil usage.
	TextureUsesDepthStencilRead TextureUses = 1 << 6
	// TextureUsesDepthStencilWrite is read-write depth stencil usage.
	TextureUsesDepthStencilWrite TextureUses = 1 << 7
	// TextureUsesStorageRead is read-only storage usage. It corresponds to a
	// UAV on D3D12 and is therefore exclusive despite being read only.
	TextureUsesStorageRead TextureUses = 1 << 8
	// TextureUsesStorageReadWrite is read-write or write-only storage usage.
	TextureUsesStorageReadWrite TextureUses = 1 << 9

	// TextureUsesInclusive is the set of usages a texture may hold at the same time.
	TextureUsesInclusive = TextureUsesCopySrc | TextureUsesResource | TextureUsesDepthStencilRead

	// TextureUsesExclusive is the set of usages a texture must hold alone.
	TextureUsesExclusive = TextureUsesCopyDst | TextureUsesColorTarget | TextureUsesDepthStencilWrite |
		TextureUsesStorageRead | TextureUsesStorageReadWrite | TextureUsesPresent

	// TextureUsesOrdered is the set of usages the hardware orders implicitly.
	TextureUsesOrdered = TextureUsesInclusive | TextureUsesColorTarget |
		TextureUsesDepthStencilWrite | TextureUsesStorageRead

	// TextureUsesComplex is set by caller-side trackers when subresources of
	// one texture are in different states. Backends never interpret it.
	TextureUsesComplex TextureUses = 1 << 10

	// TextureUsesUnknown is set by caller-side trackers when the state of a
	// subresource is not known. This differs from TextureUsesUninitialized,
	// which is a known state. Backends never interpret it.
	TextureUsesUnknown TextureUses = 1 << 11
)

// Compile-time check that no texture usage is both shareable and exclusive.
var _ = [1]struct{}{}[TextureUsesInclusive&TextureUsesExclusive]

// IsEmpty reports whether no usage bit is set.
func (u TextureUses) IsEmpty() bool { return u == 0 }

// Contains reports whether every bit of other is set in u.
func (u TextureUses) Contains(other TextureUses) bool { return u&other == other }

// Intersects reports whether u and other share a bit.
func (u TextureUses) Intersects(other TextureUses) bool { return u&other != 0 }

// IsOrdered reports whether every bit of u is hardware ordered.
func (u TextureUses) IsOrdered() bool { return TextureUsesOrdered.Contains(u) }

// IsReadOnly reports whether u contains only inclusive (read) usages.
func (u TextureUses) IsReadOnly() bool { return TextureUsesInclusive.Contains(u) }

// IsTrackerSentinel reports whether u carries a caller-side tracker bit.
func (u TextureUses) IsTrackerSentinel() bool {
	return u.Intersects(TextureUsesComplex | TextureUsesUnknown)
}

// IsValid reports whether u is a state a texture subresource can be in:
// either any combination of inclusive usages, or exactly one exclusive
// usage. Tracker sentinels are never valid states.
func (u TextureUses) IsValid() bool {
	if u.IsTrackerSentinel() {
		return false
	}
	if !u.Intersects(TextureUsesExclusive) {
		return true
	}
	return bits.OnesCount16(uint16(u)) == 1
}

// RequiresTransition reports whether a barrier must be recorded between an
// operation using the texture as u and a following one using it as next.
func (u TextureUses) RequiresTransition(next TextureUses) bool {
	return !(u == next && u.IsOrdered())
}

var textureUsesNames = []flagName{
	{uint64(TextureUsesUninitialized), "UNINITIALIZED"},
	{uint64(TextureUsesPresent), "PRESENT"},
	{uint64(TextureUsesCopySrc), "COPY_SRC"},
	{uint64(TextureUsesCopyDst), "COPY_DST"},
	{uint64(TextureUsesResource), "RESOURCE"},
	{uint64(TextureUsesColorTarget), "COLOR_TARGET"},
	{uint64(TextureUsesDepthStencilRead), "DEPTH_STENCIL_READ"},
	{uint64(TextureUsesDepthStencilWrite), "DEPTH_STENCIL_WRITE"},
	{uint64(TextureUsesStorageRead), "STORAGE_READ"},
	{uint64(TextureUsesStorageReadWrite), "STORAGE_READ_WRITE"},
	{uint64(TextureUsesComplex), "COMPLEX"},
	{uint64(TextureUsesUnknown), "UNKNOWN"},
}

func (u TextureUses) String() string { return formatFlags(uint64(u), textureUsesNames) }

// AccelerationStructureUses describes how an acceleration structure is used.
type AccelerationStructureUses uint8

// Acceleration structure usages.
const (
	// AccelerationStructureUsesBuildInput is a BLAS read by a TLAS build.
	AccelerationStructureUsesBuildInput AccelerationStructureUses = 1 << 0
	// AccelerationStructureUsesBuildOutput is the target of a build.
	AccelerationStructureUsesBuildOutput AccelerationStructureUses = 1 << 1
	// AccelerationStructureUsesShaderInput is a TLAS read by a shader.
	AccelerationStructureUsesShaderInput AccelerationStructureUses = 1 << 2

	// AccelerationStructureUsesInclusive is the set of usages a structure may hold at once.
	AccelerationStructureUsesInclusive = AccelerationStructureUsesBuildInput | AccelerationStructureUsesShaderInput

	// AccelerationStructureUsesExclusive is the set of usages a structure must hold alone.
	AccelerationStructureUsesExclusive = AccelerationStructureUsesBuildOutput
)

var _ = [1]struct{}{}[AccelerationStructureUsesInclusive&AccelerationStructureUsesExclusive]

// Contains reports whether every bit of other is set in u.
func (u AccelerationStructureUses) Contains(other AccelerationStructureUses) bool {
	return u&other == other
}

// RequiresTransition reports whether a barrier must be placed between two
// uses of an acceleration structure. Only unchanged read-only use is free.
func (u AccelerationStructureUses) RequiresTransition(next AccelerationStructureUses) bool {
	return !(u == next && AccelerationStructureUsesInclusive.Contains(u))
}

var accelerationStructureUsesNames = []flagName{
	{uint64(AccelerationStructureUsesBuildInput), "BUILD_INPUT"},
	{uint64(AccelerationStructureUsesBuildOutput), "BUILD_OUTPUT"},
	{uint64(AccelerationStructureUsesShaderInput), "SHADER_INPUT"},
}

func (u AccelerationStructureUses) String() string {
	return formatFlags(uint64(u), accelerationStructureUsesNames)
}
