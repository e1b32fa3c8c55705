// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"sync/atomic"

	"github.com/gogpu/hal"
)

// command is one recorded operation, run on the GPU timeline.
type command func(x *execContext)

// CommandBuffer is a finished list of commands. It stays owned by its
// encoder until released with ResetAll.
type CommandBuffer struct {
	encoder  *CommandEncoder
	id       uint64
	label    string
	commands []command

	// frames lists the surface textures the commands write.
	frames []*SurfaceTexture
	live   bool

	// inflight counts submissions not yet executed.
	inflight atomic.Int32
}

// NativeHandle returns an identifier unique within the encoder.
func (c *CommandBuffer) NativeHandle() uintptr { return uintptr(c.id) }

// Label returns the label given to BeginEncoding.
func (c *CommandBuffer) Label() string { return c.label }

// Len returns the number of recorded commands.
func (c *CommandBuffer) Len() int { return len(c.commands) }

func (c *CommandBuffer) addFrame(t *Texture) {
	if t.frame == nil {
		return
	}
	for _, f := range c.frames {
		if f == t.frame {
			return
		}
	}
	c.frames = append(c.frames, t.frame)
}

// CommandEncoder records command buffers. Released command buffers are
// recycled by later BeginEncoding calls.
type CommandEncoder struct {
	object
	state hal.EncoderState
	queue *Queue

	current *CommandBuffer
	live    map[*CommandBuffer]struct{}
	free    []*CommandBuffer
	nextID  uint64

	renderPipeline  *RenderPipeline
	computePipeline *ComputePipeline
	pass            *passInfo
}

var _ hal.CommandEncoder = (*CommandEncoder)(nil)

// CreateCommandEncoder creates a closed encoder for desc.Queue.
func (d *Device) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	if desc == nil {
		d.violate("CreateCommandEncoder: nil descriptor")
		return nil, nil
	}
	if q, ok := desc.Queue.(*Queue); !ok || q != d.queue {
		d.violate("CreateCommandEncoder(%q): queue %T was not opened with this device", desc.Label, desc.Queue)
	}
	e := &CommandEncoder{
		queue: d.queue,
		live:  make(map[*CommandBuffer]struct{}),
	}
	e.state.Assertions = d.assertions
	e.state.Bindings.Assertions = d.assertions
	return insert(d, &d.encoders, e, desc.Label), nil
}

// DestroyCommandEncoder destroys an encoder whose command buffers were all
// released.
func (d *Device) DestroyCommandEncoder(encoder hal.CommandEncoder) {
	if e, ok := encoder.(*CommandEncoder); ok && e != nil && len(e.live) > 0 {
		d.violate("DestroyCommandEncoder(%q): %d command buffers were not reset", e.label, len(e.live))
	}
	e, ok := remove(d, &d.encoders, "DestroyCommandEncoder", encoder)
	if !ok {
		return
	}
	e.free = nil
}

// LiveCommandBuffers returns the number of command buffers produced by the
// encoder and not yet released.
func (e *CommandEncoder) LiveCommandBuffers() int { return len(e.live) }

// Phase returns the lifecycle state of the encoder.
func (e *CommandEncoder) Phase() hal.EncoderPhase { return e.state.Phase() }

func (e *CommandEncoder) violate(format string, args ...any) {
	e.device.violate(format, args...)
}

func (e *CommandEncoder) record(c command) {
	if e.current != nil {
		e.current.commands = append(e.current.commands, c)
	}
}

// BeginEncoding starts a command buffer. It fails once the device is lost.
func (e *CommandEncoder) BeginEncoding(label string) error {
	if err := e.device.checkLive(); err != nil {
		return err
	}
	e.state.Begin(label)
	if e.current != nil {
		e.recycle(e.current)
	}
	cb := e.take()
	cb.label = label
	e.current = cb
	e.renderPipeline, e.computePipeline, e.pass = nil, nil, nil
	return nil
}

func (e *CommandEncoder) take() *CommandBuffer {
	if n := len(e.free); n > 0 {
		cb := e.free[n-1]
		e.free = e.free[:n-1]
		e.nextID++
		cb.id = e.nextID
		return cb
	}
	e.nextID++
	return &CommandBuffer{encoder: e, id: e.nextID}
}

func (e *CommandEncoder) recycle(cb *CommandBuffer) {
	clear(cb.commands)
	cb.commands = cb.commands[:0]
	cb.frames = cb.frames[:0]
	cb.live = false
	e.free = append(e.free, cb)
}

// DiscardEncoding drops the commands recorded since BeginEncoding.
func (e *CommandEncoder) DiscardEncoding() {
	e.state.Discard()
	if e.current != nil {
		e.recycle(e.current)
		e.current = nil
	}
	e.renderPipeline, e.computePipeline, e.pass = nil, nil, nil
}

// EndEncoding finishes the command buffer.
func (e *CommandEncoder) EndEncoding() (hal.CommandBuffer, error) {
	if err := e.device.checkLive(); err != nil {
		e.DiscardEncoding()
		return nil, err
	}
	e.state.End()
	cb := e.current
	e.current = nil
	if cb == nil {
		return nil, nil
	}
	cb.live = true
	e.live[cb] = struct{}{}
	return cb, nil
}

// ResetAll releases command buffers for reuse. Every live command buffer
// of the encoder must be passed, and none may still be executing.
func (e *CommandEncoder) ResetAll(commandBuffers []hal.CommandBuffer) {
	e.state.RequireClosed("ResetAll")
	for _, c := range commandBuffers {
		cb, ok := c.(*CommandBuffer)
		if !ok || cb.encoder != e {
			e.violate("ResetAll(%q): %T was not produced by this encoder", e.label, c)
			continue
		}
		if _, live := e.live[cb]; !live {
			e.violate("ResetAll(%q): command buffer %q released twice", e.label, cb.label)
			continue
		}
		if cb.inflight.Load() > 0 {
			e.violate("ResetAll(%q): command buffer %q is still executing", e.label, cb.label)
		}
		delete(e.live, cb)
		e.recycle(cb)
	}
	if n := len(e.live); n > 0 {
		e.violate("ResetAll(%q): %d live command buffers were not passed", e.label, n)
	}
}

// TransitionBuffers records buffer barriers.
func (e *CommandEncoder) TransitionBuffers(barriers []hal.BufferBarrier) {
	e.state.RequireOutsidePass("TransitionBuffers")
	type barrier struct {
		buffer *Buffer
		usage  hal.BufferUsageTransition
	}
	resolved := make([]barrier, 0, len(barriers))
	for _, b := range barriers {
		buf, ok := resolve(e.device, &e.device.buffers, "TransitionBuffers", b.Buffer)
		if !ok {
			continue
		}
		if !b.Usage.NewUsage.IsValid() {
			e.violate("TransitionBuffers: %q to invalid usage %v", buf.label, b.Usage.NewUsage)
		}
		resolved = append(resolved, barrier{buf, b.Usage})
	}
	e.record(func(x *execContext) {
		for _, b := range resolved {
			x.transitionBuffer(b.buffer, b.usage)
		}
	})
}

// TransitionTextures records texture barriers.
func (e *CommandEncoder) TransitionTextures(barriers []hal.TextureBarrier) {
	e.state.RequireOutsidePass("TransitionTextures")
	type barrier struct {
		texture *Texture
		rng     subresourceRange
		usage   hal.TextureUsageTransition
	}
	resolved := make([]barrier, 0, len(barriers))
	for _, b := range barriers {
		t, ok := e.device.texture("TransitionTextures", b.Texture)
		if !ok {
			continue
		}
		if !b.Usage.NewUsage.IsValid() {
			e.violate("TransitionTextures: %q to invalid usage %v", t.label, b.Usage.NewUsage)
		}
		rng, ok := t.subresources(b.Range)
		if !ok {
			e.violate("TransitionTextures: range %+v outside %q", b.Range, t.label)
			continue
		}
		if b.Usage.NewUsage.Intersects(hal.TextureUsesColorTarget | hal.TextureUsesPresent | hal.TextureUsesCopyDst) {
			e.current.addFrameIfRecording(t)
		}
		resolved = append(resolved, barrier{t, rng, b.Usage})
	}
	e.record(func(x *execContext) {
		for _, b := range resolved {
			x.transitionTexture(b.texture, b.rng, b.usage)
		}
	})
}

func (c *CommandBuffer) addFrameIfRecording(t *Texture) {
	if c != nil {
		c.addFrame(t)
	}
}

// subresourceRange is a resolved hal.TextureSubresourceRange.
type subresourceRange struct {
	aspects              hal.FormatAspects
	baseMip, mipCount    uint32
	baseLayer, layerCount uint32
}

func (t *Texture) subresources(r hal.TextureSubresourceRange) (subresourceRange, bool) {
	s := subresourceRange{
		aspects:    hal.NewFormatAspects(t.desc.Format, r.Aspect),
		baseMip:    r.BaseMipLevel,
		mipCount:   r.MipLevelCount,
		baseLayer:  r.BaseArrayLayer,
		layerCount: r.ArrayLayerCount,
	}
	if s.mipCount == 0 && s.baseMip < t.desc.MipLevelCount {
		s.mipCount = t.desc.MipLevelCount - s.baseMip
	}
	if s.layerCount == 0 && s.baseLayer < t.layers {
		s.layerCount = t.layers - s.baseLayer
	}
	ok := s.aspects != 0 && s.mipCount > 0 && s.layerCount > 0 &&
		s.baseMip+s.mipCount <= t.desc.MipLevelCount && s.baseLayer+s.layerCount <= t.layers
	return s, ok
}

func (v *TextureView) subresources() subresourceRange {
	return subresourceRange{
		aspects:    v.aspects,
		baseMip:    v.baseMip,
		mipCount:   v.mipCount,
		baseLayer:  v.baseLayer,
		layerCount: v.layerCount,
	}
}

// InsertDebugMarker records a marker.
func (e *CommandEncoder) InsertDebugMarker(label string) {
	e.state.RequireRecording("InsertDebugMarker")
	e.record(func(x *execContext) { x.d.captureMarker(label) })
}

// BeginDebugMarker opens a debug group.
func (e *CommandEncoder) BeginDebugMarker(groupLabel string) {
	e.state.PushDebugGroup()
	e.record(func(x *execContext) { x.d.captureMarker("begin " + groupLabel) })
}

// EndDebugMarker closes the innermost debug group.
func (e *CommandEncoder) EndDebugMarker() {
	e.state.PopDebugGroup()
	e.record(func(x *execContext) { x.d.captureMarker("end") })
}

// SetBindGroup binds group at index for the current pass.
func (e *CommandEncoder) SetBindGroup(layout hal.PipelineLayout, index uint32, group hal.BindGroup, dynamicOffsets []uint32) {
	e.state.RequireAnyPass("SetBindGroup")
	d := e.device
	pl, ok := resolve(d, &d.pipelineLayouts, "SetBindGroup", layout)
	if !ok {
		return
	}
	g, ok := resolve(d, &d.bindGroups, "SetBindGroup", group)
	if !ok {
		return
	}
	if int(index) >= len(pl.groups) {
		e.violate("SetBindGroup: index %d beyond the %d groups of %q", index, len(pl.groups), pl.label)
		return
	}
	if l, _ := pl.groups[index].(*BindGroupLayout); l != g.layout {
		e.violate("SetBindGroup: group %q was not created with layout %d of %q", g.label, index, pl.label)
	}
	for _, off := range dynamicOffsets {
		if off%256 != 0 {
			e.violate("SetBindGroup: dynamic offset %d is not 256-byte aligned", off)
		}
	}
	e.state.Bindings.Bind(pl.groups, index, group)
	e.record(func(x *execContext) { x.groups[index] = g })
}

// SetPushConstants records push constant data. The range must lie within
// a push constant range of layout that covers stages.
func (e *CommandEncoder) SetPushConstants(layout hal.PipelineLayout, stages hal.ShaderStages, offsetBytes uint32, data []uint32) {
	e.state.RequireRecording("SetPushConstants")
	pl, ok := resolve(e.device, &e.device.pipelineLayouts, "SetPushConstants", layout)
	if !ok {
		return
	}
	end := offsetBytes + uint32(len(data))*4
	covered := false
	for _, r := range pl.pushConstants {
		if r.Stages&stages == stages && r.Start <= offsetBytes && end <= r.End {
			covered = true
			break
		}
	}
	if !covered || offsetBytes%4 != 0 {
		e.violate("SetPushConstants: %v bytes %d..%d not covered by %q", stages, offsetBytes, end, pl.label)
	}
	e.record(func(*execContext) {})
}
