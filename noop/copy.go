// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/hal"
)

// copyAlignment is the alignment of buffer offsets and sizes in clears and
// buffer copies.
const copyAlignment = 4

// ClearBuffer zeroes a range of buffer.
func (e *CommandEncoder) ClearBuffer(buffer hal.Buffer, r hal.MemoryRange) {
	const op = "ClearBuffer"
	e.state.RequireOutsidePass(op)
	b, ok := resolve(e.device, &e.device.buffers, op, buffer)
	if !ok {
		return
	}
	end := r.End(b.size)
	if r.Offset%copyAlignment != 0 || end%copyAlignment != 0 {
		e.violate("%s: range %d..%d of %q is not %d-byte aligned", op, r.Offset, end, b.label, copyAlignment)
	}
	if !b.usage.Contains(hal.BufferUsesCopyDst) {
		e.violate("%s: buffer %q lacks COPY_DST usage", op, b.label)
	}
	if r.Offset > end || end > b.size {
		e.violate("%s: range %d..%d outside %q of %d bytes", op, r.Offset, end, b.label, b.size)
		return
	}
	e.record(func(x *execContext) {
		x.v.bufferUse(op, b, hal.BufferUsesCopyDst)
		clear(b.data[r.Offset:end])
		x.d.counters.bytesCopied.Add(end - r.Offset)
	})
}

// CopyBufferToBuffer copies regions between buffers. Regions copying
// within one buffer must not overlap.
func (e *CommandEncoder) CopyBufferToBuffer(src, dst hal.Buffer, regions []hal.BufferCopy) {
	const op = "CopyBufferToBuffer"
	e.state.RequireOutsidePass(op)
	d := e.device
	s, ok := resolve(d, &d.buffers, op, src)
	if !ok {
		return
	}
	t, ok := resolve(d, &d.buffers, op, dst)
	if !ok {
		return
	}
	if !s.usage.Contains(hal.BufferUsesCopySrc) {
		e.violate("%s: source %q lacks COPY_SRC usage", op, s.label)
	}
	if !t.usage.Contains(hal.BufferUsesCopyDst) {
		e.violate("%s: destination %q lacks COPY_DST usage", op, t.label)
	}
	valid := make([]hal.BufferCopy, 0, len(regions))
	for _, r := range regions {
		switch {
		case r.SrcOffset%copyAlignment != 0 || r.DstOffset%copyAlignment != 0 || r.Size%copyAlignment != 0:
			e.violate("%s: region %+v is not %d-byte aligned", op, r, copyAlignment)
			continue
		case !s.checkRange(r.SrcOffset, r.Size) || !t.checkRange(r.DstOffset, r.Size):
			e.violate("%s: region %+v outside %q (%d) or %q (%d)", op, r, s.label, s.size, t.label, t.size)
			continue
		case s == t && r.SrcOffset < r.DstOffset+r.Size && r.DstOffset < r.SrcOffset+r.Size:
			e.violate("%s: region %+v overlaps itself in %q", op, r, s.label)
		}
		valid = append(valid, r)
	}
	e.record(func(x *execContext) {
		x.v.bufferUse(op, s, hal.BufferUsesCopySrc)
		x.v.bufferUse(op, t, hal.BufferUsesCopyDst)
		for _, r := range valid {
			copy(t.data[r.DstOffset:r.DstOffset+r.Size], s.data[r.SrcOffset:r.SrcOffset+r.Size])
			x.d.counters.bytesCopied.Add(r.Size)
		}
	})
}

// texelRegion is a resolved box of one texture aspect.
type texelRegion struct {
	texture *Texture
	aspect  hal.FormatAspects
	mip     uint32
	origin  gputypes.Origin3D
	layer   uint32
	block   uint64
	size    hal.CopyExtent
}

// texelRegion checks base and size against the texture and returns the
// resolved region.
func (e *CommandEncoder) texelRegion(op string, base hal.ImageCopyTexture, size hal.CopyExtent) (texelRegion, bool) {
	t, ok := e.device.texture(op, base.Texture)
	if !ok {
		return texelRegion{}, false
	}
	r := texelRegion{
		texture: t,
		aspect:  hal.NewFormatAspects(t.desc.Format, base.Aspect),
		mip:     base.MipLevel,
		origin:  base.Origin,
		layer:   base.ArrayLayer,
		size:    size,
	}
	if !r.aspect.IsOne() {
		e.violate("%s: copy of %q must select one aspect, got %v", op, t.label, r.aspect)
		return r, false
	}
	r.block = uint64(hal.BlockSize(t.desc.Format, r.aspect))
	if r.block == 0 {
		e.violate("%s: aspect %v of %v cannot be copied", op, r.aspect, t.desc.Format)
		return r, false
	}
	if r.mip >= t.desc.MipLevelCount {
		e.violate("%s: mip level %d of %q with %d levels", op, r.mip, t.label, t.desc.MipLevelCount)
		return r, false
	}
	me := t.desc.MipLevelExtent(r.mip)
	depth := uint64(r.origin.Z) + uint64(size.Depth)
	if t.desc.Dimension != gputypes.TextureDimension3D {
		depth = uint64(r.layer) + uint64(size.Depth)
		me.Depth = t.layers
	}
	if uint64(r.origin.X)+uint64(size.Width) > uint64(me.Width) ||
		uint64(r.origin.Y)+uint64(size.Height) > uint64(me.Height) || depth > uint64(me.Depth) {
		e.violate("%s: box %+v at %+v layer %d outside mip %d of %q (%+v)",
			op, size, r.origin, r.layer, r.mip, t.label, me)
		return r, false
	}
	if t.frame != nil {
		e.current.addFrameIfRecording(t)
	}
	return r, true
}

// subresources returns the range of subresources the region touches.
func (r *texelRegion) subresources() subresourceRange {
	s := single(r.mip, r.layer)
	s.aspects = r.aspect
	if r.texture.desc.Dimension != gputypes.TextureDimension3D {
		s.layerCount = max(r.size.Depth, 1)
	}
	return s
}

// row returns the bytes of row y of image z of the region.
func (r *texelRegion) row(y, z uint32) []byte {
	layer, slice := r.layer+z, r.origin.Z
	if r.texture.desc.Dimension == gputypes.TextureDimension3D {
		layer, slice = r.layer, r.origin.Z+z
	}
	p := r.texture.plane(r.aspect, r.mip, layer)
	me := r.texture.desc.MipLevelExtent(r.mip)
	start := ((uint64(slice)*uint64(me.Height)+uint64(r.origin.Y+y))*uint64(me.Width) + uint64(r.origin.X)) * r.block
	end := start + uint64(r.size.Width)*r.block
	if p == nil || end > uint64(len(p)) {
		return nil
	}
	return p[start:end]
}

// bufferLayout is a resolved hal.ImageDataLayout.
type bufferLayout struct {
	offset, bytesPerRow, rowsPerImage uint64
}

func (e *CommandEncoder) bufferLayout(op string, b *Buffer, l hal.ImageDataLayout, r texelRegion) (bufferLayout, bool) {
	bl := bufferLayout{offset: l.Offset, bytesPerRow: uint64(l.BytesPerRow), rowsPerImage: uint64(l.RowsPerImage)}
	rowBytes := uint64(r.size.Width) * r.block
	if bl.bytesPerRow == 0 {
		bl.bytesPerRow = rowBytes
	}
	if bl.rowsPerImage == 0 {
		bl.rowsPerImage = uint64(r.size.Height)
	}
	if bl.bytesPerRow < rowBytes || bl.rowsPerImage < uint64(r.size.Height) {
		e.violate("%s: layout %+v too small for %+v", op, l, r.size)
		return bl, false
	}
	if l.Offset%r.block != 0 {
		e.violate("%s: buffer offset %d is not a multiple of the texel size %d", op, l.Offset, r.block)
	}
	if r.size.IsEmpty() {
		return bl, true
	}
	last := bl.offset + (uint64(r.size.Depth)-1)*bl.rowsPerImage*bl.bytesPerRow +
		(uint64(r.size.Height)-1)*bl.bytesPerRow + rowBytes
	if last > b.size {
		e.violate("%s: copy reaches byte %d of %q with %d bytes", op, last, b.label, b.size)
		return bl, false
	}
	return bl, true
}

func (l *bufferLayout) row(b *Buffer, y, z uint32, n int) []byte {
	start := l.offset + uint64(z)*l.rowsPerImage*l.bytesPerRow + uint64(y)*l.bytesPerRow
	return b.data[start : start+uint64(n)]
}

type bufferTextureRegion struct {
	layout bufferLayout
	texels texelRegion
}

func (e *CommandEncoder) bufferTextureRegions(op string, b *Buffer, regions []hal.BufferTextureCopy) []bufferTextureRegion {
	out := make([]bufferTextureRegion, 0, len(regions))
	for _, c := range regions {
		r, ok := e.texelRegion(op, c.TextureBase, c.Size)
		if !ok {
			continue
		}
		l, ok := e.bufferLayout(op, b, c.BufferLayout, r)
		if !ok {
			continue
		}
		out = append(out, bufferTextureRegion{layout: l, texels: r})
	}
	return out
}

// CopyBufferToTexture copies regions of src into dst.
func (e *CommandEncoder) CopyBufferToTexture(src hal.Buffer, dst hal.Texture, regions []hal.BufferTextureCopy) {
	const op = "CopyBufferToTexture"
	e.state.RequireOutsidePass(op)
	b, ok := resolve(e.device, &e.device.buffers, op, src)
	if !ok {
		return
	}
	if !b.usage.Contains(hal.BufferUsesCopySrc) {
		e.violate("%s: source %q lacks COPY_SRC usage", op, b.label)
	}
	rs := e.bufferTextureRegions(op, b, withTexture(regions, dst))
	for _, r := range rs {
		if !r.texels.texture.desc.Usage.Contains(hal.TextureUsesCopyDst) {
			e.violate("%s: destination %q lacks COPY_DST usage", op, r.texels.texture.label)
		}
	}
	e.record(func(x *execContext) {
		x.v.bufferUse(op, b, hal.BufferUsesCopySrc)
		for _, r := range rs {
			x.v.textureUse(op, r.texels.texture, r.texels.subresources(), hal.TextureUsesCopyDst)
			x.d.counters.bytesCopied.Add(eachRow(&r.texels, func(y, z uint32, texels []byte) {
				copy(texels, r.layout.row(b, y, z, len(texels)))
			}))
		}
	})
}

// CopyTextureToBuffer copies regions of src into dst. srcUsage must
// include COPY_SRC.
func (e *CommandEncoder) CopyTextureToBuffer(src hal.Texture, srcUsage hal.TextureUses, dst hal.Buffer, regions []hal.BufferTextureCopy) {
	const op = "CopyTextureToBuffer"
	e.state.RequireOutsidePass(op)
	if !srcUsage.Contains(hal.TextureUsesCopySrc) {
		e.violate("%s: source usage %v lacks COPY_SRC", op, srcUsage)
	}
	b, ok := resolve(e.device, &e.device.buffers, op, dst)
	if !ok {
		return
	}
	if !b.usage.Contains(hal.BufferUsesCopyDst) {
		e.violate("%s: destination %q lacks COPY_DST usage", op, b.label)
	}
	rs := e.bufferTextureRegions(op, b, withTexture(regions, src))
	e.record(func(x *execContext) {
		x.v.bufferUse(op, b, hal.BufferUsesCopyDst)
		for _, r := range rs {
			x.v.textureUse(op, r.texels.texture, r.texels.subresources(), hal.TextureUsesCopySrc)
			x.d.counters.bytesCopied.Add(eachRow(&r.texels, func(y, z uint32, texels []byte) {
				copy(r.layout.row(b, y, z, len(texels)), texels)
			}))
		}
	})
}

// withTexture returns regions with every TextureBase pointing at t.
func withTexture(regions []hal.BufferTextureCopy, t hal.Texture) []hal.BufferTextureCopy {
	out := make([]hal.BufferTextureCopy, len(regions))
	for i, r := range regions {
		r.TextureBase.Texture = t
		out[i] = r
	}
	return out
}

// eachRow calls fn with the texels of every row of r and returns the
// number of bytes visited.
func eachRow(r *texelRegion, fn func(y, z uint32, texels []byte)) uint64 {
	var n uint64
	for z := range r.size.Depth {
		for y := range r.size.Height {
			if row := r.row(y, z); row != nil {
				fn(y, z, row)
				n += uint64(len(row))
			}
		}
	}
	return n
}

// CopyTextureToTexture copies regions of src into dst. The formats must
// have the same texel size. srcUsage must include COPY_SRC.
func (e *CommandEncoder) CopyTextureToTexture(src hal.Texture, srcUsage hal.TextureUses, dst hal.Texture, regions []hal.TextureCopy) {
	const op = "CopyTextureToTexture"
	e.state.RequireOutsidePass(op)
	if !srcUsage.Contains(hal.TextureUsesCopySrc) {
		e.violate("%s: source usage %v lacks COPY_SRC", op, srcUsage)
	}
	type pair struct{ src, dst texelRegion }
	pairs := make([]pair, 0, len(regions))
	for _, c := range regions {
		c.SrcBase.Texture, c.DstBase.Texture = src, dst
		s, ok := e.texelRegion(op, c.SrcBase, c.Size)
		if !ok {
			continue
		}
		d, ok := e.texelRegion(op, c.DstBase, c.Size)
		if !ok {
			continue
		}
		if s.block != d.block {
			e.violate("%s: texel sizes %d and %d differ", op, s.block, d.block)
			continue
		}
		if !d.texture.desc.Usage.Contains(hal.TextureUsesCopyDst) {
			e.violate("%s: destination %q lacks COPY_DST usage", op, d.texture.label)
		}
		pairs = append(pairs, pair{s, d})
	}
	e.record(func(x *execContext) {
		for _, p := range pairs {
			x.v.textureUse(op, p.src.texture, p.src.subresources(), hal.TextureUsesCopySrc)
			x.v.textureUse(op, p.dst.texture, p.dst.subresources(), hal.TextureUsesCopyDst)
			x.d.counters.bytesCopied.Add(eachRow(&p.src, func(y, z uint32, texels []byte) {
				copy(p.dst.row(y, z), texels)
			}))
		}
	})
}
