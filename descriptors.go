// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import "github.com/gogpu/gputypes"

// BufferDescriptor describes a buffer.
type BufferDescriptor struct {
	Label  string
	Size   uint64
	Usage  BufferUses
	Memory MemoryFlags
}

// TextureDescriptor describes a texture.
type TextureDescriptor struct {
	Label         string
	Size          gputypes.Extent3D
	MipLevelCount uint32
	SampleCount   uint32
	Dimension     gputypes.TextureDimension
	Format        gputypes.TextureFormat
	Usage         TextureUses
	Memory        MemoryFlags

	// ViewFormats lists the formats views of this texture may use besides
	// Format.
	ViewFormats []gputypes.TextureFormat
}

// ArrayLayerCount returns the number of array layers. Only 2D textures
// have more than one.
func (d *TextureDescriptor) ArrayLayerCount() uint32 {
	if d.Dimension == gputypes.TextureDimension2D {
		return d.Size.DepthOrArrayLayers
	}
	return 1
}

// IsCubeCompatible reports whether views of the texture may be cubes or
// cube arrays.
func (d *TextureDescriptor) IsCubeCompatible() bool {
	return d.Dimension == gputypes.TextureDimension2D &&
		d.Size.DepthOrArrayLayers%6 == 0 &&
		d.SampleCount == 1 &&
		d.Size.Width == d.Size.Height
}

// CopyExtent returns the extent of mip level 0 in copy units.
func (d *TextureDescriptor) CopyExtent() CopyExtent {
	return MapExtentToCopySize(d.Size, d.Dimension)
}

// MipLevelExtent returns the extent of one mip level in copy units.
func (d *TextureDescriptor) MipLevelExtent(level uint32) CopyExtent {
	e := d.CopyExtent()
	e.Width = max(e.Width>>level, 1)
	e.Height = max(e.Height>>level, 1)
	if d.Dimension == gputypes.TextureDimension3D {
		e.Depth = max(e.Depth>>level, 1)
	}
	return e
}

// TextureViewDescriptor describes a texture view. A MipLevelCount or
// ArrayLayerCount of 0 covers every remaining level or layer.
type TextureViewDescriptor struct {
	Label           string
	Format          gputypes.TextureFormat
	Dimension       gputypes.TextureViewDimension
	Usage           TextureUses
	Aspect          gputypes.TextureAspect
	BaseMipLevel    uint32
	MipLevelCount   uint32
	BaseArrayLayer  uint32
	ArrayLayerCount uint32
}

// SamplerBorderColor is the color sampled outside a clamp-to-border texture.
type SamplerBorderColor uint8

// Sampler border colors.
const (
	SamplerBorderColorTransparentBlack SamplerBorderColor = iota
	SamplerBorderColorOpaqueBlack
	SamplerBorderColorOpaqueWhite
	SamplerBorderColorZero
)

// SamplerDescriptor describes a sampler.
type SamplerDescriptor struct {
	Label        string
	AddressModes [3]gputypes.AddressMode
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
	MipmapFilter gputypes.FilterMode
	LodMinClamp  float32
	LodMaxClamp  float32

	// Compare makes the sampler a comparison sampler when not nil.
	Compare *gputypes.CompareFunction

	// AnisotropyClamp must be between 1 and MaxAnisotropy. Values above 1
	// require linear filtering.
	AnisotropyClamp uint16

	BorderColor *SamplerBorderColor
}

// CommandEncoderDescriptor describes a command encoder.
type CommandEncoderDescriptor struct {
	Label string

	// Queue is the queue the produced command buffers are submitted to.
	Queue Queue
}

// BindGroupLayoutDescriptor describes a bind group layout.
type BindGroupLayoutDescriptor struct {
	Label   string
	Flags   BindGroupLayoutFlags
	Entries []gputypes.BindGroupLayoutEntry
}

// PushConstantRange is a range of push constant bytes visible to stages.
type PushConstantRange struct {
	Stages ShaderStages
	Start  uint32
	End    uint32
}

// PipelineLayoutDescriptor describes a pipeline layout.
type PipelineLayoutDescriptor struct {
	Label              string
	Flags              PipelineLayoutFlags
	BindGroupLayouts   []BindGroupLayout
	PushConstantRanges []PushConstantRange
}

// BufferBinding is a buffer range bound to a pipeline. A Size of 0 covers
// the rest of the buffer.
type BufferBinding struct {
	Buffer Buffer
	Offset uint64
	Size   uint64
}

// TextureBinding is a texture view bound to a pipeline, with the usage the
// texture is in while bound.
type TextureBinding struct {
	View  TextureView
	Usage TextureUses
}

// BindGroupEntry maps a layout binding to Count consecutive resources of
// the descriptor's resource list for that binding type, starting at
// ResourceIndex.
type BindGroupEntry struct {
	Binding       uint32
	ResourceIndex uint32
	Count         uint32
}

// BindGroupDescriptor describes a bind group. Resources are listed per type
// and referenced from Entries by index.
type BindGroupDescriptor struct {
	Label                  string
	Layout                 BindGroupLayout
	Buffers                []BufferBinding
	Samplers               []Sampler
	Textures               []TextureBinding
	AccelerationStructures []AccelerationStructure
	Entries                []BindGroupEntry
}

// ShaderSource is the code of a shader module. Exactly one field is set.
type ShaderSource struct {
	WGSL  string
	SPIRV []uint32
}

// ShaderModuleDescriptor describes a shader module.
type ShaderModuleDescriptor struct {
	Label  string
	Source ShaderSource

	// RuntimeChecks enables bounds checks in generated code.
	RuntimeChecks bool
}

// VertexState is the vertex stage of a render pipeline.
type VertexState struct {
	Module     ShaderModule
	EntryPoint string
	Constants  map[string]float64
	Buffers    []gputypes.VertexBufferLayout
}

// FragmentState is the fragment stage of a render pipeline.
type FragmentState struct {
	Module     ShaderModule
	EntryPoint string
	Constants  map[string]float64
	Targets    []gputypes.ColorTargetState
}

// ComputeState is the stage of a compute pipeline.
type ComputeState struct {
	Module     ShaderModule
	EntryPoint string
	Constants  map[string]float64
}

// StencilOperation is applied to the stencil value after a stencil test.
type StencilOperation uint8

// Stencil operations.
const (
	StencilOperationKeep StencilOperation = iota
	StencilOperationZero
	StencilOperationReplace
	StencilOperationInvert
	StencilOperationIncrementClamp
	StencilOperationDecrementClamp
	StencilOperationIncrementWrap
	StencilOperationDecrementWrap
)

// StencilFaceState is the stencil test of one face.
type StencilFaceState struct {
	Compare     gputypes.CompareFunction
	FailOp      StencilOperation
	DepthFailOp StencilOperation
	PassOp      StencilOperation
}

// DepthStencilState is the depth and stencil configuration of a pipeline.
type DepthStencilState struct {
	Format            gputypes.TextureFormat
	DepthWriteEnabled bool
	DepthCompare      gputypes.CompareFunction
	StencilFront      StencilFaceState
	StencilBack       StencilFaceState
	StencilReadMask   uint32
	StencilWriteMask  uint32
	DepthBias         int32
	DepthBiasSlope    float32
	DepthBiasClamp    float32
}

// RenderPipelineDescriptor describes a render pipeline.
type RenderPipelineDescriptor struct {
	Label        string
	Layout       PipelineLayout
	Vertex       VertexState
	Primitive    gputypes.PrimitiveState
	DepthStencil *DepthStencilState
	Multisample  gputypes.MultisampleState
	Fragment     *FragmentState

	// Multiview is the number of views rendered at once, or 0.
	Multiview uint32
}

// ComputePipelineDescriptor describes a compute pipeline.
type ComputePipelineDescriptor struct {
	Label   string
	Layout  PipelineLayout
	Compute ComputeState
}

// QueryType is the kind of query in a query set.
type QueryType uint8

// Query types.
const (
	QueryTypeOcclusion QueryType = iota
	QueryTypeTimestamp
	QueryTypePipelineStatistics
)

// QuerySetDescriptor describes a query set.
type QuerySetDescriptor struct {
	Label string
	Type  QueryType
	Count uint32
}
