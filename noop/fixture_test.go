// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/hal"
	"github.com/gogpu/hal/internal/spirv"
)

// fixture is an open device with its instance. Resources created through
// its helpers are destroyed before the device exits.
type fixture struct {
	t      *testing.T
	inst   *Instance
	dev    *Device
	queue  *Queue
	canary *hal.ValidationCanary
	fence  hal.Fence
	value  hal.FenceValue
}

func newFixture(t *testing.T, flags hal.InstanceFlags, opts ...Option) *fixture {
	t.Helper()
	canary := &hal.ValidationCanary{}
	inst, err := New(opts...).CreateInstance(&hal.InstanceDescriptor{
		Name:             t.Name(),
		Flags:            flags,
		ValidationCanary: canary,
	})
	require.NoError(t, err)
	adapters := inst.EnumerateAdapters(nil)
	require.NotEmpty(t, adapters)
	od, err := adapters[0].Adapter.Open(0, gputypes.Limits{})
	require.NoError(t, err)

	f := &fixture{
		t:      t,
		inst:   inst.(*Instance),
		dev:    od.Device.(*Device),
		queue:  od.Queue.(*Queue),
		canary: canary,
	}
	t.Cleanup(func() {
		f.dev.Exit(f.queue)
		f.inst.Destroy()
	})
	f.fence, err = f.dev.CreateFence()
	require.NoError(t, err)
	t.Cleanup(func() { f.dev.DestroyFence(f.fence) })
	return f
}

// debugFixture asserts contracts.
func debugFixture(t *testing.T, opts ...Option) *fixture {
	return newFixture(t, hal.InstanceFlagsDebug, opts...)
}

func (f *fixture) buffer(label string, size uint64, usage hal.BufferUses) *Buffer {
	f.t.Helper()
	b, err := f.dev.CreateBuffer(&hal.BufferDescriptor{
		Label:  label,
		Size:   size,
		Usage:  usage,
		Memory: hal.MemoryFlagsPreferCoherent,
	})
	require.NoError(f.t, err)
	f.t.Cleanup(func() { f.dev.DestroyBuffer(b) })
	return b.(*Buffer)
}

func (f *fixture) texture(label string, format gputypes.TextureFormat, w, h uint32, usage hal.TextureUses) *Texture {
	f.t.Helper()
	return f.textureDesc(&hal.TextureDescriptor{
		Label:         label,
		Size:          gputypes.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
}

func (f *fixture) textureDesc(desc *hal.TextureDescriptor) *Texture {
	f.t.Helper()
	tex, err := f.dev.CreateTexture(desc)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { f.dev.DestroyTexture(tex) })
	return tex.(*Texture)
}

func (f *fixture) view(t hal.Texture, desc *hal.TextureViewDescriptor) *TextureView {
	f.t.Helper()
	v, err := f.dev.CreateTextureView(t, desc)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { f.dev.DestroyTextureView(v) })
	return v.(*TextureView)
}

func (f *fixture) querySet(kind hal.QueryType, count uint32) *QuerySet {
	f.t.Helper()
	q, err := f.dev.CreateQuerySet(&hal.QuerySetDescriptor{Type: kind, Count: count})
	require.NoError(f.t, err)
	f.t.Cleanup(func() { f.dev.DestroyQuerySet(q) })
	return q.(*QuerySet)
}

func (f *fixture) encoder() *CommandEncoder {
	f.t.Helper()
	e, err := f.dev.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "test", Queue: f.queue})
	require.NoError(f.t, err)
	f.t.Cleanup(func() { f.dev.DestroyCommandEncoder(e) })
	return e.(*CommandEncoder)
}

// run records one command buffer with record, submits it and waits for it
// to complete.
func (f *fixture) run(record func(e *CommandEncoder), surfaceTextures ...hal.SurfaceTexture) {
	f.t.Helper()
	e := f.encoder()
	require.NoError(f.t, e.BeginEncoding("run"))
	record(e)
	cb, err := e.EndEncoding()
	require.NoError(f.t, err)
	f.submit([]hal.CommandBuffer{cb}, surfaceTextures...)
	e.ResetAll([]hal.CommandBuffer{cb})
}

func (f *fixture) submit(cbs []hal.CommandBuffer, surfaceTextures ...hal.SurfaceTexture) {
	f.t.Helper()
	f.value++
	require.NoError(f.t, f.queue.Submit(cbs, surfaceTextures, &hal.FenceSignal{Fence: f.fence, Value: f.value}))
	f.wait()
}

func (f *fixture) wait() {
	f.t.Helper()
	ok, err := f.dev.Wait(f.fence, f.value, 5*time.Second)
	require.NoError(f.t, err)
	require.True(f.t, ok, "submission did not complete")
}

// read returns the bytes of a coherent mappable buffer.
func (f *fixture) read(b *Buffer) []byte {
	f.t.Helper()
	m, err := f.dev.MapBuffer(b, hal.MemoryRange{})
	require.NoError(f.t, err)
	defer f.dev.UnmapBuffer(b)
	return append([]byte(nil), m.Data...)
}

// write fills a coherent mappable buffer from offset.
func (f *fixture) write(b *Buffer, offset uint64, data []byte) {
	f.t.Helper()
	m, err := f.dev.MapBuffer(b, hal.MemoryRange{Offset: offset, Size: uint64(len(data))})
	require.NoError(f.t, err)
	copy(m.Data, data)
	f.dev.UnmapBuffer(b)
}

// renderPipeline returns a pipeline with an empty layout drawing into
// targets color targets.
func (f *fixture) renderPipeline(targets int, groups ...hal.BindGroupLayout) (*RenderPipeline, *PipelineLayout) {
	f.t.Helper()
	layout := f.pipelineLayout(groups...)
	module := f.shader(
		spirv.EntryPoint{Name: "vs_main", Model: spirv.ExecutionModelVertex},
		spirv.EntryPoint{Name: "fs_main", Model: spirv.ExecutionModelFragment},
	)
	desc := &hal.RenderPipelineDescriptor{
		Label:  "pipeline",
		Layout: layout,
		Vertex: hal.VertexState{Module: module},
	}
	if targets > 0 {
		desc.Fragment = &hal.FragmentState{Module: module}
		for range targets {
			desc.Fragment.Targets = append(desc.Fragment.Targets, gputypes.ColorTargetState{
				Format:    gputypes.TextureFormatRGBA8Unorm,
				WriteMask: gputypes.ColorWriteMaskAll,
			})
		}
	}
	p, err := f.dev.CreateRenderPipeline(desc)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { f.dev.DestroyRenderPipeline(p) })
	return p.(*RenderPipeline), layout
}

func (f *fixture) computePipeline(groups ...hal.BindGroupLayout) (*ComputePipeline, *PipelineLayout) {
	f.t.Helper()
	layout := f.pipelineLayout(groups...)
	module := f.shader(spirv.EntryPoint{Name: "main", Model: spirv.ExecutionModelCompute})
	p, err := f.dev.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Layout:  layout,
		Compute: hal.ComputeState{Module: module},
	})
	require.NoError(f.t, err)
	f.t.Cleanup(func() { f.dev.DestroyComputePipeline(p) })
	return p.(*ComputePipeline), layout
}

func (f *fixture) pipelineLayout(groups ...hal.BindGroupLayout) *PipelineLayout {
	f.t.Helper()
	l, err := f.dev.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{BindGroupLayouts: groups})
	require.NoError(f.t, err)
	f.t.Cleanup(func() { f.dev.DestroyPipelineLayout(l) })
	return l.(*PipelineLayout)
}

func (f *fixture) shader(eps ...spirv.EntryPoint) hal.ShaderModule {
	f.t.Helper()
	m, err := f.dev.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Source: hal.ShaderSource{SPIRV: spirv.Module(eps...)},
	})
	require.NoError(f.t, err)
	f.t.Cleanup(func() { f.dev.DestroyShaderModule(m) })
	return m
}

// violation runs fn and returns the message of the ContractViolation it
// panicked with.
func violation(t *testing.T, fn func()) (msg string) {
	t.Helper()
	defer func() {
		r := recover()
		v, ok := r.(*hal.ContractViolation)
		if !ok {
			t.Fatalf("recovered %v (%T), want *hal.ContractViolation", r, r)
		}
		msg = v.Message
	}()
	fn()
	return ""
}
