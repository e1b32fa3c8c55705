// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

// EncoderPhase is the lifecycle state of a command encoder.
type EncoderPhase uint8

// Encoder phases.
const (
	EncoderClosed EncoderPhase = iota
	EncoderRecording
)

func (p EncoderPhase) String() string {
	if p == EncoderRecording {
		return "recording"
	}
	return "closed"
}

// PassKind is the pass an encoder is recording, if any.
type PassKind uint8

// Pass kinds.
const (
	PassNone PassKind = iota
	PassRender
	PassCompute
)

func (k PassKind) String() string {
	switch k {
	case PassRender:
		return "render pass"
	case PassCompute:
		return "compute pass"
	default:
		return "no pass"
	}
}

// EncoderState is the command encoder state machine shared by backends:
//
//	Closed --BeginEncoding--> Recording --EndEncoding/DiscardEncoding--> Closed
//	Recording --BeginRenderPass/BeginComputePass--> pass --End*Pass--> Recording
//
// It also tracks what is bound inside the current pass. Entering a pass
// clears every binding.
//
// When Assertions is set, calls made in the wrong state panic with
// *ContractViolation. Otherwise the state is tracked but never checked.
type EncoderState struct {
	Assertions bool

	// Bindings tracks bind group compatibility within the current pass.
	Bindings BindGroupCompat

	phase        EncoderPhase
	pass         PassKind
	label        string
	debugDepth   int
	pipeline     bool
	indexBuffer  bool
	vertexBuffer uint32
}

// Phase returns the lifecycle state.
func (s *EncoderState) Phase() EncoderPhase { return s.phase }

// Pass returns the current pass.
func (s *EncoderState) Pass() PassKind { return s.pass }

// Label returns the label given to BeginEncoding.
func (s *EncoderState) Label() string { return s.label }

// IsRecording reports whether commands may be recorded.
func (s *EncoderState) IsRecording() bool { return s.phase == EncoderRecording }

func (s *EncoderState) violate(format string, args ...any) {
	if s.Assertions {
		Unreachable(format, args...)
	}
}

// Begin moves Closed to Recording.
func (s *EncoderState) Begin(label string) {
	if s.phase != EncoderClosed {
		s.violate("BeginEncoding(%q) while already recording %q", label, s.label)
	}
	s.phase = EncoderRecording
	s.pass = PassNone
	s.label = label
	s.debugDepth = 0
	s.clearBindings()
}

// End moves Recording to Closed. Every pass and debug group must be closed.
func (s *EncoderState) End() {
	switch {
	case s.phase != EncoderRecording:
		s.violate("EndEncoding while closed")
	case s.pass != PassNone:
		s.violate("EndEncoding inside a %v", s.pass)
	case s.debugDepth != 0:
		s.violate("EndEncoding with %d open debug groups", s.debugDepth)
	}
	s.close()
}

// Discard moves Recording to Closed from any sub-state. Discarding a closed
// encoder is not supported and is reported as a violation.
func (s *EncoderState) Discard() {
	if s.phase != EncoderRecording {
		s.violate("DiscardEncoding while closed")
	}
	s.close()
}

func (s *EncoderState) close() {
	s.phase = EncoderClosed
	s.pass = PassNone
	s.debugDepth = 0
	s.clearBindings()
}

// RequireClosed checks that op, such as ResetAll, runs while closed.
func (s *EncoderState) RequireClosed(op string) {
	if s.phase != EncoderClosed {
		s.violate("%s while recording %q", op, s.label)
	}
}

// RequireRecording checks that op is recorded while recording, in or out
// of a pass.
func (s *EncoderState) RequireRecording(op string) {
	if s.phase != EncoderRecording {
		s.violate("%s on a closed encoder", op)
	}
}

// RequireOutsidePass checks that op, such as a copy or a barrier, is
// recorded outside of any pass.
func (s *EncoderState) RequireOutsidePass(op string) {
	s.RequireRecording(op)
	if s.pass != PassNone {
		s.violate("%s inside a %v", op, s.pass)
	}
}

// RequirePass checks that op is recorded inside a pass of the given kind.
func (s *EncoderState) RequirePass(op string, kind PassKind) {
	s.RequireRecording(op)
	if s.pass != kind {
		s.violate("%s requires a %v, encoder is in %v", op, kind, s.pass)
	}
}

// RequireAnyPass checks that op is recorded inside a render or compute pass.
func (s *EncoderState) RequireAnyPass(op string) {
	s.RequireRecording(op)
	if s.pass == PassNone {
		s.violate("%s outside of a pass", op)
	}
}

// BeginPass enters a pass and clears every binding.
func (s *EncoderState) BeginPass(kind PassKind) {
	s.RequireOutsidePass("Begin" + kindOp(kind))
	s.pass = kind
	s.clearBindings()
}

// EndPass leaves a pass of the given kind.
func (s *EncoderState) EndPass(kind PassKind) {
	s.RequirePass("End"+kindOp(kind), kind)
	s.pass = PassNone
	s.clearBindings()
}

func kindOp(kind PassKind) string {
	if kind == PassCompute {
		return "ComputePass"
	}
	return "RenderPass"
}

// PushDebugGroup opens a debug group.
func (s *EncoderState) PushDebugGroup() {
	s.RequireRecording("BeginDebugMarker")
	s.debugDepth++
}

// PopDebugGroup closes a debug group.
func (s *EncoderState) PopDebugGroup() {
	s.RequireRecording("EndDebugMarker")
	if s.debugDepth == 0 {
		s.violate("EndDebugMarker without BeginDebugMarker")
		return
	}
	s.debugDepth--
}

// SetPipeline records that a pipeline of the current pass kind is bound.
func (s *EncoderState) SetPipeline(kind PassKind) {
	s.RequirePass("Set"+pipelineOp(kind), kind)
	s.pipeline = true
}

func pipelineOp(kind PassKind) string {
	if kind == PassCompute {
		return "ComputePipeline"
	}
	return "RenderPipeline"
}

// SetIndexBuffer records that an index buffer is bound.
func (s *EncoderState) SetIndexBuffer() {
	s.RequirePass("SetIndexBuffer", PassRender)
	s.indexBuffer = true
}

// SetVertexBuffer records that a vertex buffer is bound at slot.
func (s *EncoderState) SetVertexBuffer(slot uint32) {
	s.RequirePass("SetVertexBuffer", PassRender)
	if slot >= MaxVertexBuffers {
		s.violate("vertex buffer slot %d exceeds %d", slot, MaxVertexBuffers)
		return
	}
	s.vertexBuffer |= 1 << slot
}

// HasVertexBuffer reports whether a vertex buffer is bound at slot.
func (s *EncoderState) HasVertexBuffer(slot uint32) bool {
	return slot < MaxVertexBuffers && s.vertexBuffer&(1<<slot) != 0
}

// RequireDraw checks that a draw can be recorded: a render pass is open
// and a pipeline (plus an index buffer when indexed) is bound.
func (s *EncoderState) RequireDraw(op string, indexed bool) {
	s.RequirePass(op, PassRender)
	if !s.pipeline {
		s.violate("%s without a render pipeline", op)
	}
	if indexed && !s.indexBuffer {
		s.violate("%s without an index buffer", op)
	}
}

// RequireDispatch checks that a dispatch can be recorded.
func (s *EncoderState) RequireDispatch(op string) {
	s.RequirePass(op, PassCompute)
	if !s.pipeline {
		s.violate("%s without a compute pipeline", op)
	}
}

func (s *EncoderState) clearBindings() {
	s.Bindings.Reset()
	s.pipeline = false
	s.indexBuffer = false
	s.vertexBuffer = 0
}
