// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import "github.com/gogpu/gputypes"

// BufferUsageTransition is a change of buffer usage.
type BufferUsageTransition struct {
	OldUsage BufferUses
	NewUsage BufferUses
}

// TextureUsageTransition is a change of texture usage.
type TextureUsageTransition struct {
	OldUsage TextureUses
	NewUsage TextureUses
}

// BufferBarrier transitions a whole buffer.
type BufferBarrier struct {
	Buffer Buffer
	Usage  BufferUsageTransition
}

// TextureSubresourceRange selects mip levels and array layers of a texture.
// A zero count covers every remaining level or layer, so the zero value
// selects the whole texture.
type TextureSubresourceRange struct {
	Aspect          gputypes.TextureAspect
	BaseMipLevel    uint32
	MipLevelCount   uint32
	BaseArrayLayer  uint32
	ArrayLayerCount uint32
}

// TextureBarrier transitions a range of a texture.
type TextureBarrier struct {
	Texture Texture
	Range   TextureSubresourceRange
	Usage   TextureUsageTransition
}

// BufferCopy is a region of a buffer to buffer copy.
type BufferCopy struct {
	SrcOffset uint64
	DstOffset uint64
	Size      uint64
}

// CopyExtent is the size of a copy region. Depth counts array layers for
// 1D and 2D textures.
type CopyExtent struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// Min returns the component-wise minimum of e and other.
func (e CopyExtent) Min(other CopyExtent) CopyExtent {
	return CopyExtent{
		Width:  min(e.Width, other.Width),
		Height: min(e.Height, other.Height),
		Depth:  min(e.Depth, other.Depth),
	}
}

// IsEmpty reports whether the extent covers no texel.
func (e CopyExtent) IsEmpty() bool {
	return e.Width == 0 || e.Height == 0 || e.Depth == 0
}

// MapExtentToCopySize converts a texture extent to a copy extent. 1D
// textures have a height of one, and the third component of 1D and 2D
// textures counts array layers.
func MapExtentToCopySize(extent gputypes.Extent3D, dim gputypes.TextureDimension) CopyExtent {
	e := CopyExtent{Width: extent.Width, Height: extent.Height, Depth: extent.DepthOrArrayLayers}
	if dim == gputypes.TextureDimension1D {
		e.Height = 1
	}
	return e
}

// ImageCopyTexture is the texture side of a copy.
type ImageCopyTexture struct {
	Texture    Texture
	MipLevel   uint32
	ArrayLayer uint32
	Origin     gputypes.Origin3D
	Aspect     gputypes.TextureAspect
}

// ImageDataLayout is the buffer side layout of a buffer texture copy.
// A BytesPerRow of 0 means tightly packed rows; a RowsPerImage of 0 means
// tightly packed images.
type ImageDataLayout struct {
	Offset       uint64
	BytesPerRow  uint32
	RowsPerImage uint32
}

// TextureCopy is a region of a texture to texture copy.
type TextureCopy struct {
	SrcBase ImageCopyTexture
	DstBase ImageCopyTexture
	Size    CopyExtent
}

// BufferTextureCopy is a region of a copy between a buffer and a texture.
type BufferTextureCopy struct {
	BufferLayout ImageDataLayout
	TextureBase  ImageCopyTexture
	Size         CopyExtent
}

// Rect is an axis aligned rectangle.
type Rect[T ~uint32 | ~float32] struct {
	X, Y, W, H T
}

// RenderPassColorAttachment is a color target of a render pass.
type RenderPassColorAttachment struct {
	View          TextureView
	ResolveTarget TextureView
	LoadOp        gputypes.LoadOp
	StoreOp       gputypes.StoreOp
	ClearValue    gputypes.Color
}

// Ops returns the attachment operations of the target.
func (a *RenderPassColorAttachment) Ops() AttachmentOps {
	return attachmentOps(a.LoadOp, a.StoreOp)
}

// RenderPassDepthStencilAttachment is the depth stencil target of a render
// pass. A read-only aspect is neither cleared nor stored.
type RenderPassDepthStencilAttachment struct {
	View              TextureView
	DepthLoadOp       gputypes.LoadOp
	DepthStoreOp      gputypes.StoreOp
	DepthClearValue   float32
	DepthReadOnly     bool
	StencilLoadOp     gputypes.LoadOp
	StencilStoreOp    gputypes.StoreOp
	StencilClearValue uint32
	StencilReadOnly   bool
}

// DepthOps returns the operations on the depth aspect.
func (a *RenderPassDepthStencilAttachment) DepthOps() AttachmentOps {
	if a.DepthReadOnly {
		return AttachmentOpsLoad | AttachmentOpsStore
	}
	return attachmentOps(a.DepthLoadOp, a.DepthStoreOp)
}

// StencilOps returns the operations on the stencil aspect.
func (a *RenderPassDepthStencilAttachment) StencilOps() AttachmentOps {
	if a.StencilReadOnly {
		return AttachmentOpsLoad | AttachmentOpsStore
	}
	return attachmentOps(a.StencilLoadOp, a.StencilStoreOp)
}

func attachmentOps(load gputypes.LoadOp, store gputypes.StoreOp) AttachmentOps {
	var ops AttachmentOps
	if load == gputypes.LoadOpLoad {
		ops |= AttachmentOpsLoad
	}
	if store == gputypes.StoreOpStore {
		ops |= AttachmentOpsStore
	}
	return ops
}

// PassTimestampWrites records timestamps at the start and end of a pass.
// A nil index skips the write.
type PassTimestampWrites struct {
	QuerySet                  QuerySet
	BeginningOfPassWriteIndex *uint32
	EndOfPassWriteIndex       *uint32
}

// RenderPassDescriptor describes a render pass.
type RenderPassDescriptor struct {
	Label                  string
	Extent                 gputypes.Extent3D
	SampleCount            uint32
	ColorAttachments       []RenderPassColorAttachment
	DepthStencilAttachment *RenderPassDepthStencilAttachment
	Multiview              uint32
	TimestampWrites        *PassTimestampWrites
	OcclusionQuerySet      QuerySet
}

// ComputePassDescriptor describes a compute pass.
type ComputePassDescriptor struct {
	Label           string
	TimestampWrites *PassTimestampWrites
}
