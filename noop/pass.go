// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/hal"
)

// passInfo is what the encoder remembers about the open pass.
type passInfo struct {
	kind       hal.PassKind
	label      string
	extent     gputypes.Extent3D
	colors     []colorAttachment
	colorSlots int
	depth      *depthAttachment
	timestamps *passTimestamps
	occlusion  *QuerySet
}

type colorAttachment struct {
	view, resolve *TextureView
	ops           hal.AttachmentOps
}

type depthAttachment struct {
	view                 *TextureView
	depthOps, stencilOps hal.AttachmentOps
	readOnly             bool
}

type passTimestamps struct {
	set        *QuerySet
	begin, end *uint32
}

func (e *CommandEncoder) passTimestamps(op string, w *hal.PassTimestampWrites) *passTimestamps {
	if w == nil {
		return nil
	}
	set, ok := resolve(e.device, &e.device.querySets, op, w.QuerySet)
	if !ok {
		return nil
	}
	if set.kind != hal.QueryTypeTimestamp {
		e.violate("%s: timestamp writes into a non-timestamp query set %q", op, set.label)
		return nil
	}
	for _, idx := range []*uint32{w.BeginningOfPassWriteIndex, w.EndOfPassWriteIndex} {
		if idx != nil && int(*idx) >= len(set.results) {
			e.violate("%s: timestamp index %d outside %q", op, *idx, set.label)
			return nil
		}
	}
	return &passTimestamps{set: set, begin: w.BeginningOfPassWriteIndex, end: w.EndOfPassWriteIndex}
}

func (e *CommandEncoder) attachment(op string, view hal.TextureView, use hal.TextureUses) (*TextureView, bool) {
	v, ok := resolve(e.device, &e.device.views, op, view)
	if !ok {
		return nil, false
	}
	if !v.texture.desc.Usage.Contains(use) {
		e.violate("%s: view %q of a texture without %v usage", op, v.label, use)
	}
	e.current.addFrameIfRecording(v.texture)
	return v, true
}

// BeginRenderPass enters a render pass, clearing attachments that are not
// loaded.
func (e *CommandEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) {
	e.state.BeginPass(hal.PassRender)
	e.renderPipeline = nil
	if desc == nil {
		e.violate("BeginRenderPass: nil descriptor")
		desc = &hal.RenderPassDescriptor{}
	}
	const op = "BeginRenderPass"
	p := &passInfo{
		kind:       hal.PassRender,
		label:      desc.Label,
		extent:     desc.Extent,
		colorSlots: len(desc.ColorAttachments),
	}
	if len(desc.ColorAttachments) > hal.MaxColorAttachments {
		e.violate("%s(%q): %d color attachments exceed %d", op, desc.Label, len(desc.ColorAttachments), hal.MaxColorAttachments)
	}
	var clears []func(*execContext)
	for i := range desc.ColorAttachments {
		a := &desc.ColorAttachments[i]
		if a.View == nil {
			continue
		}
		v, ok := e.attachment(op, a.View, hal.TextureUsesColorTarget)
		if !ok {
			continue
		}
		c := colorAttachment{view: v, ops: a.Ops()}
		if a.ResolveTarget != nil {
			if r, ok := e.attachment(op, a.ResolveTarget, hal.TextureUsesColorTarget); ok {
				c.resolve = r
			}
		}
		if c.ops&hal.AttachmentOpsLoad == 0 {
			texel := encodeColor(v.format, a.ClearValue)
			clears = append(clears, func(*execContext) { clearView(v, hal.FormatAspectColor, texel) })
		}
		p.colors = append(p.colors, c)
	}
	if ds := desc.DepthStencilAttachment; ds != nil {
		if v, ok := e.attachment(op, ds.View, hal.TextureUsesDepthStencilWrite); ok {
			a := &depthAttachment{
				view:       v,
				depthOps:   ds.DepthOps(),
				stencilOps: ds.StencilOps(),
				readOnly:   ds.DepthReadOnly && ds.StencilReadOnly,
			}
			if v.aspects.Contains(hal.FormatAspectDepth) && a.depthOps&hal.AttachmentOpsLoad == 0 {
				texel := encodeDepth(v.texture.desc.Format, ds.DepthClearValue)
				clears = append(clears, func(*execContext) { clearView(v, hal.FormatAspectDepth, texel) })
			}
			if v.aspects.Contains(hal.FormatAspectStencil) && a.stencilOps&hal.AttachmentOpsLoad == 0 {
				texel := []byte{byte(ds.StencilClearValue)}
				clears = append(clears, func(*execContext) { clearView(v, hal.FormatAspectStencil, texel) })
			}
			p.depth = a
		}
	}
	if desc.OcclusionQuerySet != nil {
		if set, ok := resolve(e.device, &e.device.querySets, op, desc.OcclusionQuerySet); ok {
			if set.kind != hal.QueryTypeOcclusion {
				e.violate("%s(%q): %q is not an occlusion query set", op, desc.Label, set.label)
			}
			p.occlusion = set
		}
	}
	p.timestamps = e.passTimestamps(op, desc.TimestampWrites)
	e.pass = p

	ts := p.timestamps
	e.record(func(x *execContext) {
		for _, c := range p.colors {
			x.v.textureUse(op, c.view.texture, c.view.subresources(), hal.TextureUsesColorTarget)
		}
		if p.depth != nil {
			use := hal.TextureUsesDepthStencilWrite
			if p.depth.readOnly {
				use = hal.TextureUsesDepthStencilRead
			}
			x.v.textureUse(op, p.depth.view.texture, p.depth.view.subresources(), use)
		}
		if ts != nil && ts.begin != nil {
			x.writeTimestamp(ts.set, *ts.begin)
		}
		for _, c := range clears {
			c(x)
		}
	})
	if desc.Label != "" {
		label := desc.Label
		e.record(func(x *execContext) { x.d.captureMarker("render pass " + label) })
	}
}

// EndRenderPass leaves the render pass. Attachments that are not stored
// are discarded, and multisampled targets are resolved.
func (e *CommandEncoder) EndRenderPass() {
	e.state.EndPass(hal.PassRender)
	p := e.pass
	e.pass, e.renderPipeline = nil, nil
	if p == nil || p.kind != hal.PassRender {
		return
	}
	e.record(func(x *execContext) {
		for _, c := range p.colors {
			if c.resolve != nil {
				resolveView(c.view, c.resolve)
			}
			if c.ops&hal.AttachmentOpsStore == 0 {
				clearView(c.view, hal.FormatAspectColor, nil)
			}
		}
		if a := p.depth; a != nil {
			if a.depthOps&hal.AttachmentOpsStore == 0 {
				clearView(a.view, hal.FormatAspectDepth, nil)
			}
			if a.stencilOps&hal.AttachmentOpsStore == 0 {
				clearView(a.view, hal.FormatAspectStencil, nil)
			}
		}
		x.queries = x.queries[:0]
		if ts := p.timestamps; ts != nil && ts.end != nil {
			x.writeTimestamp(ts.set, *ts.end)
		}
	})
}

// SetRenderPipeline binds a render pipeline.
func (e *CommandEncoder) SetRenderPipeline(pipeline hal.RenderPipeline) {
	e.state.SetPipeline(hal.PassRender)
	p, ok := resolve(e.device, &e.device.renderPipelines, "SetRenderPipeline", pipeline)
	if !ok {
		return
	}
	if e.pass != nil && p.targets != e.pass.colorSlots {
		e.violate("SetRenderPipeline: %q has %d targets, pass %q has %d color attachments",
			p.label, p.targets, e.pass.label, e.pass.colorSlots)
	}
	e.renderPipeline = p
}

func (e *CommandEncoder) bufferBinding(op string, binding hal.BufferBinding, use hal.BufferUses) (*Buffer, bool) {
	b, ok := resolve(e.device, &e.device.buffers, op, binding.Buffer)
	if !ok {
		return nil, false
	}
	if !b.usage.Contains(use) {
		e.violate("%s: buffer %q lacks %v usage", op, b.label, use)
	}
	end := binding.Offset + binding.Size
	if binding.Size == 0 {
		end = b.size
	}
	if binding.Offset > b.size || end > b.size {
		e.violate("%s: range %d..%d outside buffer %q of %d bytes", op, binding.Offset, end, b.label, b.size)
		return nil, false
	}
	return b, true
}

// SetIndexBuffer binds the index buffer.
func (e *CommandEncoder) SetIndexBuffer(binding hal.BufferBinding, format gputypes.IndexFormat) {
	e.state.SetIndexBuffer()
	if b, ok := e.bufferBinding("SetIndexBuffer", binding, hal.BufferUsesIndex); ok {
		e.record(func(x *execContext) { x.v.bufferUse("SetIndexBuffer", b, hal.BufferUsesIndex) })
	}
}

// SetVertexBuffer binds a vertex buffer at slot index.
func (e *CommandEncoder) SetVertexBuffer(index uint32, binding hal.BufferBinding) {
	e.state.SetVertexBuffer(index)
	if b, ok := e.bufferBinding("SetVertexBuffer", binding, hal.BufferUsesVertex); ok {
		e.record(func(x *execContext) { x.v.bufferUse("SetVertexBuffer", b, hal.BufferUsesVertex) })
	}
}

// SetViewport sets the viewport. Depths must lie in [0, 1].
func (e *CommandEncoder) SetViewport(rect hal.Rect[float32], minDepth, maxDepth float32) {
	e.state.RequirePass("SetViewport", hal.PassRender)
	if rect.W <= 0 || rect.H <= 0 {
		e.violate("SetViewport: empty viewport %+v", rect)
	}
	if minDepth < 0 || maxDepth > 1 || minDepth > maxDepth {
		e.violate("SetViewport: depth range %v..%v", minDepth, maxDepth)
	}
}

// SetScissorRect sets the scissor rectangle, which must lie within the
// pass extent.
func (e *CommandEncoder) SetScissorRect(rect hal.Rect[uint32]) {
	e.state.RequirePass("SetScissorRect", hal.PassRender)
	if p := e.pass; p != nil && p.extent.Width > 0 &&
		(rect.X+rect.W > p.extent.Width || rect.Y+rect.H > p.extent.Height) {
		e.violate("SetScissorRect: %+v outside pass extent %dx%d", rect, p.extent.Width, p.extent.Height)
	}
}

// SetStencilReference sets the stencil reference value.
func (e *CommandEncoder) SetStencilReference(uint32) {
	e.state.RequirePass("SetStencilReference", hal.PassRender)
}

// SetBlendConstants sets the blend constant color.
func (e *CommandEncoder) SetBlendConstants([4]float32) {
	e.state.RequirePass("SetBlendConstants", hal.PassRender)
}

// requireDraw runs the shared draw checks and reports whether the draw
// should be recorded.
func (e *CommandEncoder) requireDraw(op string, indexed bool) bool {
	e.state.RequireDraw(op, indexed)
	p := e.renderPipeline
	if p == nil {
		return false
	}
	if i := e.state.Bindings.FirstIncompatible(p.layout.groups); i >= 0 {
		e.violate("%s: bind group %d is not compatible with the layout of %q", op, i, p.label)
	}
	for slot := range uint32(p.vertexBuffers) {
		if !e.state.HasVertexBuffer(slot) {
			e.violate("%s: no vertex buffer bound at slot %d for %q", op, slot, p.label)
		}
	}
	return true
}

// Draw records a non-indexed draw.
func (e *CommandEncoder) Draw(firstVertex, vertexCount, firstInstance, instanceCount uint32) {
	if !e.requireDraw("Draw", false) {
		return
	}
	groups := len(e.renderPipeline.layout.groups)
	e.record(func(x *execContext) {
		x.bindGroupUses("Draw", groups)
		x.draw(uint64(vertexCount) * uint64(instanceCount))
	})
}

// DrawIndexed records an indexed draw. Occlusion queries count indices.
func (e *CommandEncoder) DrawIndexed(firstIndex, indexCount uint32, baseVertex int32, firstInstance, instanceCount uint32) {
	if !e.requireDraw("DrawIndexed", true) {
		return
	}
	groups := len(e.renderPipeline.layout.groups)
	e.record(func(x *execContext) {
		x.bindGroupUses("DrawIndexed", groups)
		x.draw(uint64(indexCount) * uint64(instanceCount))
	})
}

// Sizes of the indirect argument records.
const (
	drawIndirectSize        = 16
	drawIndexedIndirectSize = 20
	dispatchIndirectSize    = 12
)

func (e *CommandEncoder) indirectBuffer(op string, buffer hal.Buffer, offset, size uint64) (*Buffer, bool) {
	b, ok := resolve(e.device, &e.device.buffers, op, buffer)
	if !ok {
		return nil, false
	}
	if !b.usage.Contains(hal.BufferUsesIndirect) {
		e.violate("%s: buffer %q lacks INDIRECT usage", op, b.label)
	}
	if offset%4 != 0 || !b.checkRange(offset, size) {
		e.violate("%s: %d bytes at %d outside buffer %q of %d bytes", op, size, offset, b.label, b.size)
		return nil, false
	}
	return b, true
}

// drawIndirect records drawCount draws whose arguments are read from
// buffer at execution time. count, when set, caps the draws with a value
// read from its buffer.
func (e *CommandEncoder) drawIndirect(op string, indexed bool, buffer hal.Buffer, offset uint64, drawCount uint32, count *indirectCount) {
	if !e.requireDraw(op, indexed) {
		return
	}
	stride := uint64(drawIndirectSize)
	if indexed {
		stride = drawIndexedIndirectSize
	}
	b, ok := e.indirectBuffer(op, buffer, offset, stride*uint64(drawCount))
	if !ok {
		return
	}
	groups := len(e.renderPipeline.layout.groups)
	e.record(func(x *execContext) {
		x.v.bufferUse(op, b, hal.BufferUsesIndirect)
		x.bindGroupUses(op, groups)
		n := drawCount
		if count != nil {
			x.v.bufferUse(op, count.buffer, hal.BufferUsesIndirect)
			if w := readUint32s(count.buffer, count.offset, 1); w != nil {
				n = min(w[0], drawCount)
			}
		}
		for i := range uint64(n) {
			args := readUint32s(b, offset+i*stride, 2)
			if args == nil {
				return
			}
			x.draw(uint64(args[0]) * uint64(args[1]))
		}
	})
}

type indirectCount struct {
	buffer *Buffer
	offset uint64
}

func (e *CommandEncoder) countBuffer(op string, buffer hal.Buffer, offset uint64) *indirectCount {
	b, ok := e.indirectBuffer(op, buffer, offset, 4)
	if !ok {
		return nil
	}
	return &indirectCount{buffer: b, offset: offset}
}

// DrawIndirect records draws with arguments read from buffer.
func (e *CommandEncoder) DrawIndirect(buffer hal.Buffer, offset uint64, drawCount uint32) {
	e.drawIndirect("DrawIndirect", false, buffer, offset, drawCount, nil)
}

// DrawIndexedIndirect records indexed draws with arguments read from buffer.
func (e *CommandEncoder) DrawIndexedIndirect(buffer hal.Buffer, offset uint64, drawCount uint32) {
	e.drawIndirect("DrawIndexedIndirect", true, buffer, offset, drawCount, nil)
}

// DrawIndirectCount records at most maxCount draws, the count read from
// countBuffer.
func (e *CommandEncoder) DrawIndirectCount(buffer hal.Buffer, offset uint64, countBuffer hal.Buffer, countOffset uint64, maxCount uint32) {
	c := e.countBuffer("DrawIndirectCount", countBuffer, countOffset)
	if c == nil {
		return
	}
	e.drawIndirect("DrawIndirectCount", false, buffer, offset, maxCount, c)
}

// DrawIndexedIndirectCount is DrawIndirectCount for indexed draws.
func (e *CommandEncoder) DrawIndexedIndirectCount(buffer hal.Buffer, offset uint64, countBuffer hal.Buffer, countOffset uint64, maxCount uint32) {
	c := e.countBuffer("DrawIndexedIndirectCount", countBuffer, countOffset)
	if c == nil {
		return
	}
	e.drawIndirect("DrawIndexedIndirectCount", true, buffer, offset, maxCount, c)
}

// BeginComputePass enters a compute pass.
func (e *CommandEncoder) BeginComputePass(desc *hal.ComputePassDescriptor) {
	e.state.BeginPass(hal.PassCompute)
	e.computePipeline = nil
	if desc == nil {
		desc = &hal.ComputePassDescriptor{}
	}
	p := &passInfo{kind: hal.PassCompute, label: desc.Label}
	p.timestamps = e.passTimestamps("BeginComputePass", desc.TimestampWrites)
	e.pass = p
	if ts := p.timestamps; ts != nil && ts.begin != nil {
		e.record(func(x *execContext) { x.writeTimestamp(ts.set, *ts.begin) })
	}
}

// EndComputePass leaves the compute pass.
func (e *CommandEncoder) EndComputePass() {
	e.state.EndPass(hal.PassCompute)
	p := e.pass
	e.pass, e.computePipeline = nil, nil
	if p == nil || p.kind != hal.PassCompute {
		return
	}
	if ts := p.timestamps; ts != nil && ts.end != nil {
		e.record(func(x *execContext) { x.writeTimestamp(ts.set, *ts.end) })
	}
}

// SetComputePipeline binds a compute pipeline.
func (e *CommandEncoder) SetComputePipeline(pipeline hal.ComputePipeline) {
	e.state.SetPipeline(hal.PassCompute)
	if p, ok := resolve(e.device, &e.device.computePipelines, "SetComputePipeline", pipeline); ok {
		e.computePipeline = p
	}
}

func (e *CommandEncoder) requireDispatch(op string) bool {
	e.state.RequireDispatch(op)
	p := e.computePipeline
	if p == nil {
		return false
	}
	if i := e.state.Bindings.FirstIncompatible(p.layout.groups); i >= 0 {
		e.violate("%s: bind group %d is not compatible with the layout of %q", op, i, p.label)
	}
	return true
}

// Dispatch records a dispatch of count workgroups.
func (e *CommandEncoder) Dispatch(count [3]uint32) {
	if !e.requireDispatch("Dispatch") {
		return
	}
	groups := len(e.computePipeline.layout.groups)
	total := uint64(count[0]) * uint64(count[1]) * uint64(count[2])
	e.record(func(x *execContext) {
		x.bindGroupUses("Dispatch", groups)
		x.dispatch(total)
	})
}

// DispatchIndirect records a dispatch whose size is read from buffer.
func (e *CommandEncoder) DispatchIndirect(buffer hal.Buffer, offset uint64) {
	if !e.requireDispatch("DispatchIndirect") {
		return
	}
	b, ok := e.indirectBuffer("DispatchIndirect", buffer, offset, dispatchIndirectSize)
	if !ok {
		return
	}
	groups := len(e.computePipeline.layout.groups)
	e.record(func(x *execContext) {
		x.v.bufferUse("DispatchIndirect", b, hal.BufferUsesIndirect)
		x.bindGroupUses("DispatchIndirect", groups)
		if w := readUint32s(b, offset, 3); w != nil {
			x.dispatch(uint64(w[0]) * uint64(w[1]) * uint64(w[2]))
		}
	})
}
