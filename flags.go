// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"strconv"
	"strings"
)

// Limits that are fixed by the abstraction rather than queried per adapter.
const (
	MaxConcurrentShaderStages = 2
	MaxAnisotropy             = 16
	MaxBindGroups             = 8
	MaxVertexBuffers          = 16
	MaxColorAttachments       = 8
	MaxMipLevels              = 16

	// QuerySize is the size in bytes of one query result.
	QuerySize = 8
)

type flagName struct {
	bit  uint64
	name string
}

// formatFlags renders a bit-set as NAME|NAME, with unknown bits in hex.
func formatFlags(v uint64, names []flagName) string {
	if v == 0 {
		return "NONE"
	}
	var sb strings.Builder
	for _, n := range names {
		if v&n.bit == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(n.name)
		v &^= n.bit
	}
	if v != 0 {
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString("0x")
		sb.WriteString(strings.ToUpper(strconv.FormatUint(v, 16)))
	}
	return sb.String()
}

// ShaderStages is a set of programmable pipeline stages.
type ShaderStages uint8

// Shader stages.
const (
	ShaderStageVertex ShaderStages = 1 << iota
	ShaderStageFragment
	ShaderStageCompute

	ShaderStagesVertexFragment = ShaderStageVertex | ShaderStageFragment
)

var shaderStagesNames = []flagName{
	{uint64(ShaderStageVertex), "VERTEX"},
	{uint64(ShaderStageFragment), "FRAGMENT"},
	{uint64(ShaderStageCompute), "COMPUTE"},
}

func (s ShaderStages) String() string { return formatFlags(uint64(s), shaderStagesNames) }

// InstanceFlags configure instance creation.
type InstanceFlags uint8

// Instance flags.
const (
	// InstanceFlagsDebug enables debug labels, markers and backend assertions.
	InstanceFlagsDebug InstanceFlags = 1 << iota

	// InstanceFlagsValidation enables the backend validation layer. Messages
	// it produces are reported to InstanceDescriptor.ValidationCanary.
	InstanceFlagsValidation
)

// Contains reports whether every flag of other is set.
func (f InstanceFlags) Contains(other InstanceFlags) bool { return f&other == other }

// TextureFormatCapabilities describes what an adapter can do with a format.
type TextureFormatCapabilities uint32

// Texture format capabilities.
const (
	// TextureFormatCapabilitySampled allows sampling and fetching.
	TextureFormatCapabilitySampled TextureFormatCapabilities = 1 << iota
	// TextureFormatCapabilitySampledLinear allows linear filtering.
	TextureFormatCapabilitySampledLinear
	// TextureFormatCapabilitySampledMinMax allows min/max reduction filtering.
	TextureFormatCapabilitySampledMinMax
	// TextureFormatCapabilityStorage allows write-only storage access.
	TextureFormatCapabilityStorage
	// TextureFormatCapabilityStorageReadWrite allows read-write storage access.
	TextureFormatCapabilityStorageReadWrite
	// TextureFormatCapabilityStorageAtomic allows atomics on storage texels.
	TextureFormatCapabilityStorageAtomic
	// TextureFormatCapabilityColorAttachment allows use as a color target.
	TextureFormatCapabilityColorAttachment
	// TextureFormatCapabilityColorAttachmentBlend allows blending on a color target.
	TextureFormatCapabilityColorAttachmentBlend
	// TextureFormatCapabilityDepthStencilAttachment allows use as a depth stencil target.
	TextureFormatCapabilityDepthStencilAttachment
	// TextureFormatCapabilityMultisampleX2 allows 2 samples.
	TextureFormatCapabilityMultisampleX2
	// TextureFormatCapabilityMultisampleX4 allows 4 samples.
	TextureFormatCapabilityMultisampleX4
	// TextureFormatCapabilityMultisampleX8 allows 8 samples.
	TextureFormatCapabilityMultisampleX8
	// TextureFormatCapabilityMultisampleX16 allows 16 samples.
	TextureFormatCapabilityMultisampleX16
	// TextureFormatCapabilityMultisampleResolve allows resolving multisampled attachments.
	TextureFormatCapabilityMultisampleResolve
	// TextureFormatCapabilityCopySrc allows the format as a copy source.
	TextureFormatCapabilityCopySrc
	// TextureFormatCapabilityCopyDst allows the format as a copy destination.
	TextureFormatCapabilityCopyDst
)

var textureFormatCapabilitiesNames = []flagName{
	{uint64(TextureFormatCapabilitySampled), "SAMPLED"},
	{uint64(TextureFormatCapabilitySampledLinear), "SAMPLED_LINEAR"},
	{uint64(TextureFormatCapabilitySampledMinMax), "SAMPLED_MINMAX"},
	{uint64(TextureFormatCapabilityStorage), "STORAGE"},
	{uint64(TextureFormatCapabilityStorageReadWrite), "STORAGE_READ_WRITE"},
	{uint64(TextureFormatCapabilityStorageAtomic), "STORAGE_ATOMIC"},
	{uint64(TextureFormatCapabilityColorAttachment), "COLOR_ATTACHMENT"},
	{uint64(TextureFormatCapabilityColorAttachmentBlend), "COLOR_ATTACHMENT_BLEND"},
	{uint64(TextureFormatCapabilityDepthStencilAttachment), "DEPTH_STENCIL_ATTACHMENT"},
	{uint64(TextureFormatCapabilityMultisampleX2), "MULTISAMPLE_X2"},
	{uint64(TextureFormatCapabilityMultisampleX4), "MULTISAMPLE_X4"},
	{uint64(TextureFormatCapabilityMultisampleX8), "MULTISAMPLE_X8"},
	{uint64(TextureFormatCapabilityMultisampleX16), "MULTISAMPLE_X16"},
	{uint64(TextureFormatCapabilityMultisampleResolve), "MULTISAMPLE_RESOLVE"},
	{uint64(TextureFormatCapabilityCopySrc), "COPY_SRC"},
	{uint64(TextureFormatCapabilityCopyDst), "COPY_DST"},
}

// Contains reports whether every capability of other is present.
func (c TextureFormatCapabilities) Contains(other TextureFormatCapabilities) bool {
	return c&other == other
}

// SupportsSampleCount reports whether count samples are supported.
// A count of 1 is always supported.
func (c TextureFormatCapabilities) SupportsSampleCount(count uint32) bool {
	switch count {
	case 1:
		return true
	case 2:
		return c.Contains(TextureFormatCapabilityMultisampleX2)
	case 4:
		return c.Contains(TextureFormatCapabilityMultisampleX4)
	case 8:
		return c.Contains(TextureFormatCapabilityMultisampleX8)
	case 16:
		return c.Contains(TextureFormatCapabilityMultisampleX16)
	default:
		return false
	}
}

func (c TextureFormatCapabilities) String() string {
	return formatFlags(uint64(c), textureFormatCapabilitiesNames)
}

// FormatAspects is the set of planes a format or a subresource range covers.
type FormatAspects uint8

// Format aspects.
const (
	FormatAspectColor FormatAspects = 1 << iota
	FormatAspectDepth
	FormatAspectStencil
	FormatAspectPlane0
	FormatAspectPlane1
	FormatAspectPlane2

	FormatAspectDepthStencil = FormatAspectDepth | FormatAspectStencil
)

var formatAspectsNames = []flagName{
	{uint64(FormatAspectColor), "COLOR"},
	{uint64(FormatAspectDepth), "DEPTH"},
	{uint64(FormatAspectStencil), "STENCIL"},
	{uint64(FormatAspectPlane0), "PLANE_0"},
	{uint64(FormatAspectPlane1), "PLANE_1"},
	{uint64(FormatAspectPlane2), "PLANE_2"},
}

// Contains reports whether every aspect of other is present.
func (a FormatAspects) Contains(other FormatAspects) bool { return a&other == other }

// IsOne reports whether exactly one aspect is set.
func (a FormatAspects) IsOne() bool { return a != 0 && a&(a-1) == 0 }

func (a FormatAspects) String() string { return formatFlags(uint64(a), formatAspectsNames) }

// MemoryFlags are hints for buffer and texture allocation.
type MemoryFlags uint8

// Memory flags.
const (
	// MemoryFlagsTransient marks an allocation that lives for one frame at most.
	MemoryFlagsTransient MemoryFlags = 1 << iota
	// MemoryFlagsPreferCoherent asks for host-coherent memory when mapping.
	MemoryFlagsPreferCoherent
)

// AttachmentOps select the load and store behaviour of a pass attachment.
// Without AttachmentOpsLoad the attachment is cleared; without
// AttachmentOpsStore its contents are discarded at the end of the pass.
type AttachmentOps uint8

// Attachment operations.
const (
	AttachmentOpsLoad AttachmentOps = 1 << iota
	AttachmentOpsStore
)

func (o AttachmentOps) String() string {
	return formatFlags(uint64(o), []flagName{
		{uint64(AttachmentOpsLoad), "LOAD"},
		{uint64(AttachmentOpsStore), "STORE"},
	})
}

// PipelineLayoutFlags request implicit shader inputs.
type PipelineLayoutFlags uint8

// Pipeline layout flags.
const (
	// PipelineLayoutFlagsFirstVertexInstance exposes first vertex and first
	// instance to the shader, which some APIs do not provide natively.
	PipelineLayoutFlagsFirstVertexInstance PipelineLayoutFlags = 1 << iota
	// PipelineLayoutFlagsNumWorkGroups exposes the dispatch size to the shader.
	PipelineLayoutFlagsNumWorkGroups
)

// BindGroupLayoutFlags modify how a bind group layout is bound.
type BindGroupLayoutFlags uint8

// Bind group layout flags.
const (
	// BindGroupLayoutFlagsPartiallyBound allows entries to be left unbound.
	BindGroupLayoutFlagsPartiallyBound BindGroupLayoutFlags = 1 << iota
)
