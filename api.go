// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"time"

	"github.com/gogpu/gputypes"
)

// WaitForever is passed as a timeout to block without limit.
const WaitForever time.Duration = -1

// Resource is implemented by every backend object handle.
type Resource interface {
	// NativeHandle returns the backend's native object as an integer, or 0
	// when the backend has no single native object for it.
	NativeHandle() uintptr
}

// Handles to backend objects. They are opaque: only the backend that
// created a handle interprets it, and its lifetime is managed by the caller
// through the matching Destroy method.
type (
	Buffer                Resource
	Texture               Resource
	TextureView           Resource
	Sampler               Resource
	QuerySet              Resource
	Fence                 Resource
	BindGroupLayout       Resource
	BindGroup             Resource
	PipelineLayout        Resource
	ShaderModule          Resource
	RenderPipeline        Resource
	ComputePipeline       Resource
	AccelerationStructure Resource
	CommandBuffer         Resource
)

// SurfaceTexture is a texture acquired from a surface. It is consumed by
// exactly one of Queue.Present or Surface.DiscardTexture.
type SurfaceTexture interface {
	Texture

	// Surface returns the surface the texture was acquired from.
	Surface() Surface
}

// Variant identifies a backend implementation.
type Variant uint8

// Backend variants.
const (
	VariantNoop Variant = iota
	VariantVulkan
	VariantMetal
	VariantDX12
	VariantGL
)

func (v Variant) String() string {
	switch v {
	case VariantNoop:
		return "noop"
	case VariantVulkan:
		return "vulkan"
	case VariantMetal:
		return "metal"
	case VariantDX12:
		return "dx12"
	case VariantGL:
		return "gl"
	default:
		return "unknown"
	}
}

// Backend is the entry point of one native API. All objects created
// through one backend belong to it and must never be mixed with objects of
// another backend.
type Backend interface {
	Variant() Variant

	// CreateInstance loads the native API. It fails with *InstanceError.
	CreateInstance(desc *InstanceDescriptor) (Instance, error)
}

// InstanceDescriptor configures instance creation.
type InstanceDescriptor struct {
	Name  string
	Flags InstanceFlags

	// ValidationCanary receives validation layer messages when
	// InstanceFlagsValidation is set. It may be nil.
	ValidationCanary *ValidationCanary
}

// Instance is a connection to a native API.
//
// Adapters are owned by the instance. Surfaces must be destroyed with
// DestroySurface before the instance is destroyed.
type Instance interface {
	// CreateSurface wraps a platform window. It fails with *InstanceError.
	CreateSurface(displayHandle, windowHandle uintptr) (Surface, error)

	// DestroySurface destroys an unconfigured surface.
	DestroySurface(surface Surface)

	// EnumerateAdapters lists the adapters of the instance. If surfaceHint
	// is not nil, adapters that cannot present to it may be omitted.
	EnumerateAdapters(surfaceHint Surface) []ExposedAdapter

	Destroy()
}

// Surface is a presentable target. See AcquireTexture for the frame cycle.
type Surface interface {
	Resource

	// Configure binds the surface to device, replacing a configuration made
	// with the same device.
	Configure(device Device, config *SurfaceConfiguration) error

	// Unconfigure releases the binding to device. It must be called before
	// the surface is used with another device or destroyed.
	Unconfigure(device Device)

	// AcquireTexture returns the next presentable texture. It returns
	// (nil, nil) when timeout expires first, and blocks without limit for
	// WaitForever. Backends that cannot honour a timeout ignore it.
	//
	// Errors match ErrSurfaceLost or ErrSurfaceOutdated with errors.Is.
	AcquireTexture(timeout time.Duration) (*AcquiredSurfaceTexture, error)

	// DiscardTexture returns an acquired texture without presenting it.
	DiscardTexture(texture SurfaceTexture)
}

// AdapterInfo describes an adapter.
type AdapterInfo struct {
	Name       string
	Vendor     uint32
	Device     uint32
	DeviceType gputypes.DeviceType
	Driver     string
	DriverInfo string
	Backend    Variant
}

// Alignments are the buffer alignments an adapter requires.
type Alignments struct {
	// BufferCopyOffset is the alignment of buffer offsets in copies.
	BufferCopyOffset uint64

	// BufferCopyPitch is the alignment of BytesPerRow in buffer texture copies.
	BufferCopyPitch uint64

	// UniformBoundsCheckBytes is the granularity at which uniform buffer
	// accesses are bounds checked. Zero means exact checks.
	UniformBoundsCheckBytes uint32
}

// Capabilities are the static capabilities of an adapter, gathered when the
// adapter is enumerated and never changed afterwards.
type Capabilities struct {
	Limits     gputypes.Limits
	Alignments Alignments
	Downlevel  DownlevelCapabilities
}

// ExposedAdapter is an adapter together with what it supports.
type ExposedAdapter struct {
	Adapter      Adapter
	Info         AdapterInfo
	Features     gputypes.Features
	Capabilities Capabilities
}

// OpenDevice is a device and queue opened together. They are exited
// together with Device.Exit.
type OpenDevice struct {
	Device Device
	Queue  Queue
}

// PresentationTimestamp is a point in time on the presentation clock, in
// nanoseconds.
type PresentationTimestamp uint64

// InvalidPresentationTimestamp is reported when the adapter has no
// presentation clock.
const InvalidPresentationTimestamp PresentationTimestamp = ^PresentationTimestamp(0)

// Adapter is a physical or logical GPU.
type Adapter interface {
	// Open creates a device and its queue. It fails with
	// ErrResourceCreationFailed when features or limits exceed what the
	// adapter supports, and ErrOutOfMemory when allocation fails.
	Open(features gputypes.Features, limits gputypes.Limits) (OpenDevice, error)

	// TextureFormatCapabilities returns what the adapter supports for format.
	TextureFormatCapabilities(format gputypes.TextureFormat) TextureFormatCapabilities

	// SurfaceCapabilities returns nil if the adapter cannot present to surface.
	SurfaceCapabilities(surface Surface) *SurfaceCapabilities

	// PresentationTimestamp returns the current presentation clock value.
	PresentationTimestamp() PresentationTimestamp
}

// FenceValue is a value of a fence's monotonic counter.
type FenceValue uint64

// FenceSignal raises Fence to Value once submitted work completes.
type FenceSignal struct {
	Fence Fence
	Value FenceValue
}

// MemoryRange is a byte range of a buffer. A Size of 0 covers the rest of
// the buffer.
type MemoryRange struct {
	Offset uint64
	Size   uint64
}

// End returns the end of the range for a buffer of the given size.
func (r MemoryRange) End(bufferSize uint64) uint64 {
	if r.Size == 0 {
		return bufferSize
	}
	return r.Offset + r.Size
}

// BufferMapping is host access to a mapped buffer range.
//
// When IsCoherent is false, writes must be made visible with
// FlushMappedRanges and reads refreshed with InvalidateMappedRanges.
type BufferMapping struct {
	Data       []byte
	IsCoherent bool
}

// Device is a logical connection to an adapter and the owner of every
// resource created through it.
//
// A Device is safe for concurrent use. Destroy methods must not be called
// while the resource is used by work that has not finished executing.
// Every resource must be destroyed before Exit.
type Device interface {
	// Exit destroys the device together with its queue.
	Exit(queue Queue)

	CreateBuffer(desc *BufferDescriptor) (Buffer, error)
	DestroyBuffer(buffer Buffer)

	// MapBuffer maps a range of a buffer created with a MAP usage.
	MapBuffer(buffer Buffer, r MemoryRange) (BufferMapping, error)

	// UnmapBuffer ends a mapping. Unmapping a buffer that is not mapped is a
	// contract violation.
	UnmapBuffer(buffer Buffer)

	FlushMappedRanges(buffer Buffer, ranges []MemoryRange)
	InvalidateMappedRanges(buffer Buffer, ranges []MemoryRange)

	CreateTexture(desc *TextureDescriptor) (Texture, error)
	DestroyTexture(texture Texture)
	CreateTextureView(texture Texture, desc *TextureViewDescriptor) (TextureView, error)
	DestroyTextureView(view TextureView)
	CreateSampler(desc *SamplerDescriptor) (Sampler, error)
	DestroySampler(sampler Sampler)

	// CreateCommandEncoder returns an encoder in the closed state.
	CreateCommandEncoder(desc *CommandEncoderDescriptor) (CommandEncoder, error)

	// DestroyCommandEncoder destroys an encoder. Every command buffer it
	// produced must have been released with ResetAll.
	DestroyCommandEncoder(encoder CommandEncoder)

	CreateBindGroupLayout(desc *BindGroupLayoutDescriptor) (BindGroupLayout, error)
	DestroyBindGroupLayout(layout BindGroupLayout)
	CreatePipelineLayout(desc *PipelineLayoutDescriptor) (PipelineLayout, error)
	DestroyPipelineLayout(layout PipelineLayout)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)
	DestroyBindGroup(group BindGroup)

	// CreateShaderModule fails with *ShaderError.
	CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error)
	DestroyShaderModule(module ShaderModule)

	// CreateRenderPipeline fails with *PipelineError.
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)
	DestroyRenderPipeline(pipeline RenderPipeline)

	// CreateComputePipeline fails with *PipelineError.
	CreateComputePipeline(desc *ComputePipelineDescriptor) (ComputePipeline, error)
	DestroyComputePipeline(pipeline ComputePipeline)

	CreateQuerySet(desc *QuerySetDescriptor) (QuerySet, error)
	DestroyQuerySet(set QuerySet)

	// CreateFence returns a fence with value 0.
	CreateFence() (Fence, error)
	DestroyFence(fence Fence)

	// GetFenceValue returns the highest value the fence has reached.
	GetFenceValue(fence Fence) (FenceValue, error)

	// Wait blocks until fence reaches value or timeout expires, and reports
	// whether the value was reached. It returns true without blocking when
	// the fence has already reached value.
	Wait(fence Fence, value FenceValue, timeout time.Duration) (bool, error)

	// StartCapture begins a graphics debugger capture and reports whether
	// one was started.
	StartCapture() bool
	StopCapture()

	CreateAccelerationStructure(desc *AccelerationStructureDescriptor) (AccelerationStructure, error)
	DestroyAccelerationStructure(as AccelerationStructure)

	// GetAccelerationStructureBuildSizes returns conservative sizes for a
	// build of the described shape.
	GetAccelerationStructureBuildSizes(desc *GetAccelerationStructureBuildSizesDescriptor) AccelerationStructureBuildSizes

	// GetAccelerationStructureDeviceAddress returns the address used to
	// reference a bottom-level structure from instance data.
	GetAccelerationStructureDeviceAddress(as AccelerationStructure) uint64
}

// Queue submits work and presents. It is safe for concurrent use.
type Queue interface {
	// Submit schedules command buffers for execution in order.
	//
	// Every command buffer must come from an encoder created for this
	// queue, and must stay alive with its encoder until execution finishes.
	// Every surface texture written by the command buffers must be listed
	// in surfaceTextures. If signal is not nil, its fence reaches its value
	// once all the work has completed.
	Submit(commandBuffers []CommandBuffer, surfaceTextures []SurfaceTexture, signal *FenceSignal) error

	// Present consumes an acquired texture.
	Present(surface Surface, texture SurfaceTexture) error

	// TimestampPeriod returns the number of nanoseconds per timestamp tick.
	TimestampPeriod() float32
}

// CommandEncoder records commands into command buffers.
//
// An encoder is closed when created. BeginEncoding moves it to recording;
// EndEncoding and DiscardEncoding move it back. Recording methods are only
// valid while recording, pass commands only inside the matching pass.
//
// An encoder is not safe for concurrent use.
type CommandEncoder interface {
	Resource

	// BeginEncoding starts a new command list.
	BeginEncoding(label string) error

	// DiscardEncoding drops everything recorded since BeginEncoding. It must
	// be used after any error during recording. Calling it twice in a row
	// is not guaranteed to be harmless.
	DiscardEncoding()

	// EndEncoding returns a buffer holding every command recorded since
	// BeginEncoding.
	EndEncoding() (CommandBuffer, error)

	// ResetAll releases command buffers produced by this encoder. The
	// caller must pass every one that is still alive.
	ResetAll(commandBuffers []CommandBuffer)

	TransitionBuffers(barriers []BufferBarrier)
	TransitionTextures(barriers []TextureBarrier)

	// ClearBuffer fills a range with zeros.
	ClearBuffer(buffer Buffer, r MemoryRange)
	CopyBufferToBuffer(src, dst Buffer, regions []BufferCopy)

	// CopyTextureToTexture copies between textures. srcUsage is the usage
	// src is currently in, which must include COPY_SRC.
	CopyTextureToTexture(src Texture, srcUsage TextureUses, dst Texture, regions []TextureCopy)
	CopyBufferToTexture(src Buffer, dst Texture, regions []BufferTextureCopy)
	CopyTextureToBuffer(src Texture, srcUsage TextureUses, dst Buffer, regions []BufferTextureCopy)

	// SetBindGroup binds group at index. See BindGroupCompat for which
	// bindings remain valid.
	SetBindGroup(layout PipelineLayout, index uint32, group BindGroup, dynamicOffsets []uint32)
	SetPushConstants(layout PipelineLayout, stages ShaderStages, offsetBytes uint32, data []uint32)

	InsertDebugMarker(label string)
	BeginDebugMarker(groupLabel string)
	EndDebugMarker()

	BeginQuery(set QuerySet, index uint32)
	EndQuery(set QuerySet, index uint32)
	WriteTimestamp(set QuerySet, index uint32)
	ResetQueries(set QuerySet, first, count uint32)
	CopyQueryResults(set QuerySet, first, count uint32, buffer Buffer, offset, stride uint64)

	// BeginRenderPass enters a render pass. No pipeline, bind group or
	// buffer binding survives the pass boundary.
	BeginRenderPass(desc *RenderPassDescriptor)
	EndRenderPass()
	SetRenderPipeline(pipeline RenderPipeline)
	SetIndexBuffer(binding BufferBinding, format gputypes.IndexFormat)
	SetVertexBuffer(index uint32, binding BufferBinding)
	SetViewport(rect Rect[float32], minDepth, maxDepth float32)
	SetScissorRect(rect Rect[uint32])
	SetStencilReference(value uint32)
	SetBlendConstants(color [4]float32)
	Draw(firstVertex, vertexCount, firstInstance, instanceCount uint32)
	DrawIndexed(firstIndex, indexCount uint32, baseVertex int32, firstInstance, instanceCount uint32)
	DrawIndirect(buffer Buffer, offset uint64, drawCount uint32)
	DrawIndexedIndirect(buffer Buffer, offset uint64, drawCount uint32)
	DrawIndirectCount(buffer Buffer, offset uint64, countBuffer Buffer, countOffset uint64, maxCount uint32)
	DrawIndexedIndirectCount(buffer Buffer, offset uint64, countBuffer Buffer, countOffset uint64, maxCount uint32)

	// BeginComputePass enters a compute pass. No pipeline or bind group
	// survives the pass boundary.
	BeginComputePass(desc *ComputePassDescriptor)
	EndComputePass()
	SetComputePipeline(pipeline ComputePipeline)
	Dispatch(count [3]uint32)
	DispatchIndirect(buffer Buffer, offset uint64)

	// BuildAccelerationStructures records builds. The batch must satisfy
	// CheckAccelerationStructureBatch.
	BuildAccelerationStructures(descriptors []BuildAccelerationStructureDescriptor)
	PlaceAccelerationStructureBarrier(barrier AccelerationStructureBarrier)
}
