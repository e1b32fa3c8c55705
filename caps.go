// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

// DownlevelFlags are features that recent APIs always have but older ones
// may lack.
type DownlevelFlags uint32

// Downlevel flags.
const (
	DownlevelFlagsComputeShaders DownlevelFlags = 1 << iota
	DownlevelFlagsFragmentWritableStorage
	DownlevelFlagsIndirectExecution
	DownlevelFlagsBaseVertex
	DownlevelFlagsReadOnlyDepthStencil
	DownlevelFlagsNonPowerOfTwoMipmappedTextures
	DownlevelFlagsCubeArrayTextures
	DownlevelFlagsComparisonSamplers
	DownlevelFlagsIndependentBlend
	DownlevelFlagsAnisotropicFiltering
	DownlevelFlagsMultisampledShading
	DownlevelFlagsVertexStorage

	// DownlevelFlagsCompliant is the set a fully compliant adapter reports.
	DownlevelFlagsCompliant = DownlevelFlagsComputeShaders | DownlevelFlagsFragmentWritableStorage |
		DownlevelFlagsIndirectExecution | DownlevelFlagsBaseVertex | DownlevelFlagsReadOnlyDepthStencil |
		DownlevelFlagsNonPowerOfTwoMipmappedTextures | DownlevelFlagsCubeArrayTextures |
		DownlevelFlagsComparisonSamplers | DownlevelFlagsIndependentBlend |
		DownlevelFlagsAnisotropicFiltering | DownlevelFlagsMultisampledShading | DownlevelFlagsVertexStorage
)

// Contains reports whether every flag of other is set.
func (f DownlevelFlags) Contains(other DownlevelFlags) bool { return f&other == other }

var downlevelFlagsNames = []flagName{
	{uint64(DownlevelFlagsComputeShaders), "COMPUTE_SHADERS"},
	{uint64(DownlevelFlagsFragmentWritableStorage), "FRAGMENT_WRITABLE_STORAGE"},
	{uint64(DownlevelFlagsIndirectExecution), "INDIRECT_EXECUTION"},
	{uint64(DownlevelFlagsBaseVertex), "BASE_VERTEX"},
	{uint64(DownlevelFlagsReadOnlyDepthStencil), "READ_ONLY_DEPTH_STENCIL"},
	{uint64(DownlevelFlagsNonPowerOfTwoMipmappedTextures), "NON_POWER_OF_TWO_MIPMAPPED_TEXTURES"},
	{uint64(DownlevelFlagsCubeArrayTextures), "CUBE_ARRAY_TEXTURES"},
	{uint64(DownlevelFlagsComparisonSamplers), "COMPARISON_SAMPLERS"},
	{uint64(DownlevelFlagsIndependentBlend), "INDEPENDENT_BLEND"},
	{uint64(DownlevelFlagsAnisotropicFiltering), "ANISOTROPIC_FILTERING"},
	{uint64(DownlevelFlagsMultisampledShading), "MULTISAMPLED_SHADING"},
	{uint64(DownlevelFlagsVertexStorage), "VERTEX_STORAGE"},
}

func (f DownlevelFlags) String() string { return formatFlags(uint64(f), downlevelFlagsNames) }

// ShaderModel is the shader capability tier of an adapter.
type ShaderModel uint8

// Shader models.
const (
	ShaderModelSM2 ShaderModel = iota
	ShaderModelSM4
	ShaderModelSM5
)

// DownlevelCapabilities describe how far an adapter falls short of a
// fully compliant one.
type DownlevelCapabilities struct {
	Flags       DownlevelFlags
	ShaderModel ShaderModel
}

// IsCompliant reports whether nothing is missing.
func (c DownlevelCapabilities) IsCompliant() bool {
	return c.Flags.Contains(DownlevelFlagsCompliant) && c.ShaderModel >= ShaderModelSM5
}
