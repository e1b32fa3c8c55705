// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"bytes"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/hal"
)

func TestEncoderLifecycle(t *testing.T) {
	f := debugFixture(t)
	e := f.encoder()
	assert.Equal(t, hal.EncoderClosed, e.Phase())

	require.NoError(t, e.BeginEncoding("first"))
	assert.Equal(t, hal.EncoderRecording, e.Phase())
	assert.Contains(t, violation(t, func() { _ = e.BeginEncoding("second") }), `while already recording "first"`)

	e.InsertDebugMarker("one")
	cb, err := e.EndEncoding()
	require.NoError(t, err)
	assert.Equal(t, "first", cb.(*CommandBuffer).Label())
	assert.Equal(t, 1, cb.(*CommandBuffer).Len())
	assert.Equal(t, 1, e.LiveCommandBuffers())

	assert.Contains(t, violation(t, func() { e.DiscardEncoding() }), "DiscardEncoding while closed")
	assert.Contains(t, violation(t, func() { f.dev.DestroyCommandEncoder(e) }), "were not reset")

	e.ResetAll([]hal.CommandBuffer{cb})
	assert.Zero(t, e.LiveCommandBuffers())
	assert.Contains(t, violation(t, func() { e.ResetAll([]hal.CommandBuffer{cb}) }), "released twice")
}

func TestEncoderDebugGroups(t *testing.T) {
	f := debugFixture(t)
	e := f.encoder()

	require.NoError(t, e.BeginEncoding("groups"))
	e.BeginDebugMarker("outer")
	assert.Contains(t, violation(t, func() { _, _ = e.EndEncoding() }), "1 open debug groups")
	assert.Equal(t, hal.EncoderRecording, e.Phase())
	e.DiscardEncoding()

	require.NoError(t, e.BeginEncoding("again"))
	assert.Contains(t, violation(t, func() { e.EndDebugMarker() }), "without BeginDebugMarker")
	e.DiscardEncoding()
}

func TestEncoderRecyclesCommandBuffers(t *testing.T) {
	f := debugFixture(t)
	e := f.encoder()

	require.NoError(t, e.BeginEncoding("a"))
	e.InsertDebugMarker("x")
	a, err := e.EndEncoding()
	require.NoError(t, err)
	require.NoError(t, e.BeginEncoding("b"))
	b, err := e.EndEncoding()
	require.NoError(t, err)
	assert.NotEqual(t, a.NativeHandle(), b.NativeHandle())

	f.submit([]hal.CommandBuffer{a, b})
	e.ResetAll([]hal.CommandBuffer{a, b})

	require.NoError(t, e.BeginEncoding("c"))
	c, err := e.EndEncoding()
	require.NoError(t, err)
	cb := c.(*CommandBuffer)
	assert.True(t, cb == a.(*CommandBuffer) || cb == b.(*CommandBuffer), "command buffer was not recycled")
	assert.Zero(t, cb.Len(), "recycled command buffer kept its commands")
	e.ResetAll([]hal.CommandBuffer{c})
}

func TestSubmitReleasedCommandBuffer(t *testing.T) {
	f := debugFixture(t)
	e := f.encoder()
	require.NoError(t, e.BeginEncoding("gone"))
	cb, err := e.EndEncoding()
	require.NoError(t, err)
	e.ResetAll([]hal.CommandBuffer{cb})

	assert.Contains(t, violation(t, func() { _ = f.queue.Submit([]hal.CommandBuffer{cb}, nil, nil) }), "was released")
}

func TestClearAndCopyBuffer(t *testing.T) {
	f := debugFixture(t)
	src := f.buffer("src", 16, hal.BufferUsesCopySrc|hal.BufferUsesMapWrite)
	dst := f.buffer("dst", 16, hal.BufferUsesCopyDst|hal.BufferUsesMapRead)
	f.write(src, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
	f.write(dst, 0, bytes.Repeat([]byte{0xFF}, 16))

	f.run(func(e *CommandEncoder) {
		e.CopyBufferToBuffer(src, dst, []hal.BufferCopy{{SrcOffset: 4, DstOffset: 0, Size: 8}})
		e.ClearBuffer(dst, hal.MemoryRange{Offset: 12, Size: 4})
	})

	assert.Equal(t, []byte{5, 6, 7, 8, 9, 10, 11, 12, 0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0}, f.read(dst))
	assert.Equal(t, uint64(12), f.dev.Stats().BytesCopied)
	assert.Equal(t, uint64(1), f.dev.Stats().Submissions)
}

func TestCopyBufferViolations(t *testing.T) {
	f := debugFixture(t)
	b := f.buffer("both", 64, hal.BufferUsesCopySrc|hal.BufferUsesCopyDst)
	e := f.encoder()

	tests := []struct {
		name   string
		record func()
		msg    string
	}{
		{"unaligned clear", func() { e.ClearBuffer(b, hal.MemoryRange{Offset: 2, Size: 4}) }, "4-byte aligned"},
		{"unaligned copy", func() {
			e.CopyBufferToBuffer(b, b, []hal.BufferCopy{{SrcOffset: 0, DstOffset: 32, Size: 6}})
		}, "4-byte aligned"},
		{"overlap", func() {
			e.CopyBufferToBuffer(b, b, []hal.BufferCopy{{SrcOffset: 0, DstOffset: 8, Size: 16}})
		}, "overlaps itself"},
		{"out of range", func() {
			e.CopyBufferToBuffer(b, b, []hal.BufferCopy{{SrcOffset: 48, DstOffset: 0, Size: 32}})
		}, "outside"},
		{"offset wraps", func() {
			e.CopyBufferToBuffer(b, b, []hal.BufferCopy{{SrcOffset: math.MaxUint64 - 3, DstOffset: 0, Size: 8}})
		}, "outside"},
		{"inside a pass", func() {
			e.BeginComputePass(nil)
			e.ClearBuffer(b, hal.MemoryRange{})
		}, "ClearBuffer inside a compute pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, e.BeginEncoding(tt.name))
			defer e.DiscardEncoding()
			assert.Contains(t, violation(t, tt.record), tt.msg)
		})
	}
}

func TestCopyBufferWrappingRegionIsDropped(t *testing.T) {
	f := newFixture(t, 0)
	b := f.buffer("both", 64, hal.BufferUsesCopySrc|hal.BufferUsesCopyDst)
	assert.NotPanics(t, func() {
		f.run(func(e *CommandEncoder) {
			e.CopyBufferToBuffer(b, b, []hal.BufferCopy{
				{SrcOffset: math.MaxUint64 - 3, DstOffset: 0, Size: 8},
				{SrcOffset: 2, DstOffset: 60, Size: 6},
			})
		})
	})
	assert.Zero(t, f.dev.Stats().BytesCopied)
}

func TestTextureUploadDownload(t *testing.T) {
	f := debugFixture(t)
	tex := f.texture("image", gputypes.TextureFormatRGBA8Unorm, 4, 2,
		hal.TextureUsesCopySrc|hal.TextureUsesCopyDst|hal.TextureUsesResource)

	// Rows are padded to 256 bytes in the staging buffers.
	const pitch = 256
	pixels := make([]byte, 4*2*4)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	upload := f.buffer("upload", 2*pitch, hal.BufferUsesCopySrc|hal.BufferUsesMapWrite)
	f.write(upload, 0, pixels[:16])
	f.write(upload, pitch, pixels[16:])
	download := f.buffer("download", 2*pitch, hal.BufferUsesCopyDst|hal.BufferUsesMapRead)

	layout := hal.ImageDataLayout{BytesPerRow: pitch}
	size := hal.CopyExtent{Width: 4, Height: 2, Depth: 1}
	f.run(func(e *CommandEncoder) {
		e.TransitionTextures([]hal.TextureBarrier{{
			Texture: tex,
			Usage:   hal.TextureUsageTransition{OldUsage: hal.TextureUsesUninitialized, NewUsage: hal.TextureUsesCopyDst},
		}})
		e.CopyBufferToTexture(upload, tex, []hal.BufferTextureCopy{{BufferLayout: layout, Size: size}})
		e.TransitionTextures([]hal.TextureBarrier{{
			Texture: tex,
			Usage:   hal.TextureUsageTransition{OldUsage: hal.TextureUsesCopyDst, NewUsage: hal.TextureUsesCopySrc},
		}})
		e.CopyTextureToBuffer(tex, hal.TextureUsesCopySrc, download, []hal.BufferTextureCopy{{BufferLayout: layout, Size: size}})
	})

	assert.Equal(t, pixels, tex.ReadPlane(hal.FormatAspectColor, 0, 0))
	got := f.read(download)
	assert.Equal(t, pixels[:16], got[:16])
	assert.Equal(t, pixels[16:], got[pitch:pitch+16])
	assert.Zero(t, f.canary.Len())
}

func TestCopyTextureToTexture(t *testing.T) {
	f := debugFixture(t)
	usage := hal.TextureUsesCopySrc | hal.TextureUsesCopyDst
	src := f.texture("src", gputypes.TextureFormatR8Unorm, 4, 4, usage)
	dst := f.texture("dst", gputypes.TextureFormatR8Unorm, 4, 4, usage)
	staging := f.buffer("staging", 16, hal.BufferUsesCopySrc|hal.BufferUsesMapWrite)
	f.write(staging, 0, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15})

	f.run(func(e *CommandEncoder) {
		e.CopyBufferToTexture(staging, src, []hal.BufferTextureCopy{{Size: hal.CopyExtent{Width: 4, Height: 4, Depth: 1}}})
		e.CopyTextureToTexture(src, hal.TextureUsesCopySrc, dst, []hal.TextureCopy{{
			SrcBase: hal.ImageCopyTexture{Origin: gputypes.Origin3D{X: 1, Y: 1}},
			DstBase: hal.ImageCopyTexture{Origin: gputypes.Origin3D{X: 0, Y: 2}},
			Size:    hal.CopyExtent{Width: 2, Height: 2, Depth: 1},
		}})
	})

	assert.Equal(t, []byte{
		0, 0, 0, 0,
		0, 0, 0, 0,
		5, 6, 0, 0,
		9, 10, 0, 0,
	}, dst.ReadPlane(hal.FormatAspectColor, 0, 0))
}

func TestTextureCopyViolations(t *testing.T) {
	f := debugFixture(t)
	tex := f.texture("small", gputypes.TextureFormatRGBA8Unorm, 2, 2, hal.TextureUsesCopySrc|hal.TextureUsesCopyDst)
	depth := f.texture("depth", gputypes.TextureFormatDepth24Plus, 2, 2, hal.TextureUsesDepthStencilWrite)
	buf := f.buffer("buf", 64, hal.BufferUsesCopySrc|hal.BufferUsesCopyDst)
	e := f.encoder()

	tests := []struct {
		name   string
		record func()
		msg    string
	}{
		{"box outside", func() {
			e.CopyBufferToTexture(buf, tex, []hal.BufferTextureCopy{{
				TextureBase: hal.ImageCopyTexture{Origin: gputypes.Origin3D{X: 1}},
				Size:        hal.CopyExtent{Width: 2, Height: 1, Depth: 1},
			}})
		}, "outside mip 0"},
		{"buffer too small", func() {
			e.CopyTextureToBuffer(tex, hal.TextureUsesCopySrc, buf, []hal.BufferTextureCopy{{
				BufferLayout: hal.ImageDataLayout{BytesPerRow: 256},
				Size:         hal.CopyExtent{Width: 2, Height: 2, Depth: 1},
			}})
		}, "copy reaches byte"},
		{"source usage", func() {
			e.CopyTextureToBuffer(tex, hal.TextureUsesResource, buf, nil)
		}, "lacks COPY_SRC"},
		{"uncopyable aspect", func() {
			e.CopyTextureToBuffer(depth, hal.TextureUsesCopySrc, buf, []hal.BufferTextureCopy{{
				Size: hal.CopyExtent{Width: 1, Height: 1, Depth: 1},
			}})
		}, "cannot be copied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, e.BeginEncoding(tt.name))
			defer e.DiscardEncoding()
			assert.Contains(t, violation(t, tt.record), tt.msg)
		})
	}
}

func TestCommandsDroppedWithoutAssertions(t *testing.T) {
	f := newFixture(t, 0)
	assert.False(t, f.dev.Assertions())
	b := f.buffer("b", 8, hal.BufferUsesCopyDst|hal.BufferUsesMapRead)
	f.write(b, 0, []byte{1, 1, 1, 1, 1, 1, 1, 1})

	f.run(func(e *CommandEncoder) {
		e.ClearBuffer(b, hal.MemoryRange{Offset: 4, Size: 8})
	})
	assert.Equal(t, []byte{1, 1, 1, 1, 1, 1, 1, 1}, f.read(b), "out of range clear was executed")
}
