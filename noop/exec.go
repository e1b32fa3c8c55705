// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"encoding/binary"
	"math"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"github.com/x448/float16"

	"github.com/gogpu/hal"
)

// execContext is the GPU timeline state of one submission. Commands run
// in order with the device contents lock held.
type execContext struct {
	d *Device
	v *validator

	groups  [hal.MaxBindGroups]*BindGroup
	queries []activeQuery

	// unordered holds structures built since the last acceleration
	// structure barrier.
	unordered map[*AccelerationStructure]struct{}
}

type activeQuery struct {
	set   *QuerySet
	index uint32
}

func newExecContext(d *Device) *execContext {
	return &execContext{
		d:         d,
		v:         d.validator,
		unordered: make(map[*AccelerationStructure]struct{}),
	}
}

func (x *execContext) transitionBuffer(b *Buffer, tr hal.BufferUsageTransition) {
	x.v.bufferBarrier(b, tr)
	b.state = tr.NewUsage
}

func (x *execContext) transitionTexture(t *Texture, r subresourceRange, tr hal.TextureUsageTransition) {
	x.v.textureBarrier(t, r, tr)
	t.setState(r, tr.NewUsage)
}

func (t *Texture) setState(r subresourceRange, use hal.TextureUses) {
	for mip := r.baseMip; mip < r.baseMip+r.mipCount; mip++ {
		for layer := r.baseLayer; layer < r.baseLayer+r.layerCount; layer++ {
			t.states[t.subresource(mip, layer)] = use
		}
	}
}

// draw accounts for one draw of vertices total vertices.
func (x *execContext) draw(vertices uint64) {
	x.d.counters.draws.Add(1)
	for _, q := range x.queries {
		switch q.set.kind {
		case hal.QueryTypeOcclusion:
			q.set.results[q.index] += vertices
		case hal.QueryTypePipelineStatistics:
			q.set.results[q.index]++
		}
	}
}

func (x *execContext) dispatch(workgroups uint64) {
	x.d.counters.dispatches.Add(1)
	x.d.counters.workgroups.Add(workgroups)
	for _, q := range x.queries {
		if q.set.kind == hal.QueryTypePipelineStatistics {
			q.set.results[q.index] += workgroups
		}
	}
}

func (x *execContext) beginQuery(set *QuerySet, index uint32) {
	set.results[index] = 0
	x.queries = append(x.queries, activeQuery{set, index})
}

func (x *execContext) endQuery(set *QuerySet, index uint32) {
	for i, q := range x.queries {
		if q.set == set && q.index == index {
			x.queries = append(x.queries[:i], x.queries[i+1:]...)
			return
		}
	}
}

func (x *execContext) writeTimestamp(set *QuerySet, index uint32) {
	set.results[index] = x.d.queue.ticks(x.d.now())
}

// bindGroupUses checks every resource of the bound groups against its
// tracked state.
func (x *execContext) bindGroupUses(op string, groups int) {
	if x.v == nil {
		return
	}
	for _, g := range x.groups[:min(groups, hal.MaxBindGroups)] {
		if g == nil {
			continue
		}
		for _, b := range g.buffers {
			x.v.bufferUse(op, b.buffer, b.use)
		}
		for _, t := range g.textures {
			x.v.textureUse(op, t.view.texture, t.view.subresources(), t.use)
		}
		for _, as := range g.accels {
			_, pending := x.unordered[as]
			x.v.accelerationStructureRead(op, as, pending)
		}
	}
}

// readUint32s decodes n little endian words of b at offset. It returns
// nil when the range falls outside the buffer.
func readUint32s(b *Buffer, offset uint64, n int) []uint32 {
	end := offset + uint64(n)*4
	if end > uint64(len(b.data)) || end < offset {
		return nil
	}
	words := make([]uint32, n)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b.data[offset+uint64(i)*4:])
	}
	return words
}

// fill repeats pattern over dst.
func fill(dst, pattern []byte) {
	if len(pattern) == 0 {
		return
	}
	if len(pattern) == 1 {
		for i := range dst {
			dst[i] = pattern[0]
		}
		return
	}
	n := copy(dst, pattern)
	for n < len(dst) {
		n += copy(dst[n:], dst[:n])
	}
}

// clearView fills every subresource of v with pattern for aspect.
func clearView(v *TextureView, aspect hal.FormatAspects, pattern []byte) {
	t := v.texture
	for mip := v.baseMip; mip < v.baseMip+v.mipCount; mip++ {
		for layer := v.baseLayer; layer < v.baseLayer+v.layerCount; layer++ {
			if p := t.plane(aspect, mip, layer); p != nil {
				if pattern == nil {
					clear(p)
				} else {
					fill(p, pattern)
				}
			}
		}
	}
}

// resolveView copies the first subresource of src to dst. Multisampled
// planes hold one sample per texel, so resolving is a copy.
func resolveView(src, dst *TextureView) {
	s := src.texture.plane(hal.FormatAspectColor, src.baseMip, src.baseLayer)
	d := dst.texture.plane(hal.FormatAspectColor, dst.baseMip, dst.baseLayer)
	copy(d, s)
}

// encodeColor returns one texel of format holding c, or nil when the
// format is not a color format the backend stores.
func encodeColor(format gputypes.TextureFormat, c gputypes.Color) []byte {
	rgba := [4]float64{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return []byte{unorm8(rgba[0])}
	case gputypes.TextureFormatRG8Unorm:
		return []byte{unorm8(rgba[0]), unorm8(rgba[1])}
	case gputypes.TextureFormatRGBA8Unorm:
		return []byte{unorm8(rgba[0]), unorm8(rgba[1]), unorm8(rgba[2]), unorm8(rgba[3])}
	case gputypes.TextureFormatBGRA8Unorm:
		return []byte{unorm8(rgba[2]), unorm8(rgba[1]), unorm8(rgba[0]), unorm8(rgba[3])}
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return []byte{srgb8(rgba[0]), srgb8(rgba[1]), srgb8(rgba[2]), unorm8(rgba[3])}
	case gputypes.TextureFormatBGRA8UnormSrgb:
		return []byte{srgb8(rgba[2]), srgb8(rgba[1]), srgb8(rgba[0]), unorm8(rgba[3])}
	case gputypes.TextureFormatR32Float:
		return float32s(rgba[:1])
	case gputypes.TextureFormatRG32Float:
		return float32s(rgba[:2])
	case gputypes.TextureFormatRGBA32Float:
		return float32s(rgba[:])
	case gputypes.TextureFormatRGBA16Float:
		out := make([]byte, 8)
		for i, v := range rgba {
			binary.LittleEndian.PutUint16(out[i*2:], float16.Fromfloat32(float32(v)).Bits())
		}
		return out
	default:
		return nil
	}
}

func unorm8(v float64) byte {
	f := math32.Max(0, math32.Min(1, float32(v)))
	return byte(math32.Floor(f*255 + 0.5))
}

// srgb8 encodes a linear value with the sRGB transfer function.
func srgb8(v float64) byte {
	f := math32.Max(0, math32.Min(1, float32(v)))
	if f <= 0.0031308 {
		f *= 12.92
	} else {
		f = 1.055*math32.Pow(f, 1/2.4) - 0.055
	}
	return byte(math32.Floor(f*255 + 0.5))
}

func float32s(vs []float64) []byte {
	out := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
	}
	return out
}

// encodeDepth returns one depth texel of format holding v, or nil when the
// depth aspect of format has no stored layout.
func encodeDepth(format gputypes.TextureFormat, v float32) []byte {
	switch hal.BlockSize(format, hal.FormatAspectDepth) {
	case 2:
		out := make([]byte, 2)
		binary.LittleEndian.PutUint16(out, uint16(math32.Floor(math32.Max(0, math32.Min(1, v))*65535+0.5)))
		return out
	case 4:
		out := make([]byte, 4)
		binary.LittleEndian.PutUint32(out, math.Float32bits(v))
		return out
	default:
		return nil
	}
}
