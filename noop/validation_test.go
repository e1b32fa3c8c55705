// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/hal"
)

func validationFixture(t *testing.T) *fixture {
	return newFixture(t, hal.InstanceFlagsDebug|hal.InstanceFlagsValidation)
}

func bufferBarrier(b hal.Buffer, from, to hal.BufferUses) hal.BufferBarrier {
	return hal.BufferBarrier{Buffer: b, Usage: hal.BufferUsageTransition{OldUsage: from, NewUsage: to}}
}

func textureBarrier(t hal.Texture, from, to hal.TextureUses) hal.TextureBarrier {
	return hal.TextureBarrier{Texture: t, Usage: hal.TextureUsageTransition{OldUsage: from, NewUsage: to}}
}

func TestValidationBufferStates(t *testing.T) {
	f := validationFixture(t)
	b := f.buffer("b", 16, hal.BufferUsesCopySrc|hal.BufferUsesCopyDst)

	f.run(func(e *CommandEncoder) {
		// A buffer never transitioned accepts any use.
		e.ClearBuffer(b, hal.MemoryRange{})
		e.TransitionBuffers([]hal.BufferBarrier{bufferBarrier(b, hal.BufferUsesCopyDst, hal.BufferUsesCopySrc)})
	})
	assert.Empty(t, f.canary.GetAndReset())

	f.run(func(e *CommandEncoder) {
		e.ClearBuffer(b, hal.MemoryRange{})
		e.TransitionBuffers([]hal.BufferBarrier{bufferBarrier(b, hal.BufferUsesCopyDst, hal.BufferUsesCopySrc)})
	})
	assert.Equal(t, []string{
		`ClearBuffer: buffer "b" used as COPY_DST while in COPY_SRC`,
		`buffer "b": barrier from COPY_DST but buffer is in COPY_SRC`,
	}, f.canary.GetAndReset())
}

func TestValidationTextureStates(t *testing.T) {
	f := validationFixture(t)
	tex := f.textureDesc(&hal.TextureDescriptor{
		Label:         "tex",
		Size:          gputypes.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1},
		MipLevelCount: 2,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR8Unorm,
		Usage:         hal.TextureUsesCopyDst | hal.TextureUsesCopySrc,
	})
	staging := f.buffer("staging", 256*4, hal.BufferUsesCopySrc|hal.BufferUsesMapWrite)
	upload := []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: 256},
		Size:         hal.CopyExtent{Width: 4, Height: 4, Depth: 1},
	}}

	t.Run("uninitialized", func(t *testing.T) {
		f.run(func(e *CommandEncoder) { e.CopyBufferToTexture(staging, tex, upload) })
		assert.Equal(t, []string{
			`CopyBufferToTexture: texture "tex" mip 0 layer 0 used as COPY_DST while in UNINITIALIZED`,
		}, f.canary.GetAndReset())
	})
	t.Run("transitioned", func(t *testing.T) {
		f.run(func(e *CommandEncoder) {
			e.TransitionTextures([]hal.TextureBarrier{textureBarrier(tex, hal.TextureUsesUninitialized, hal.TextureUsesCopyDst)})
			e.CopyBufferToTexture(staging, tex, upload)
		})
		assert.Empty(t, f.canary.GetAndReset())
	})
	t.Run("stale old usage", func(t *testing.T) {
		f.run(func(e *CommandEncoder) {
			e.TransitionTextures([]hal.TextureBarrier{textureBarrier(tex, hal.TextureUsesColorTarget, hal.TextureUsesCopySrc)})
		})
		assert.Equal(t, []string{
			`texture "tex" mip 0 layer 0: barrier from COLOR_TARGET but subresource is in COPY_DST`,
		}, f.canary.GetAndReset())
	})
	t.Run("tracker sentinel", func(t *testing.T) {
		f.run(func(e *CommandEncoder) {
			e.TransitionTextures([]hal.TextureBarrier{textureBarrier(tex, hal.TextureUsesUnknown, hal.TextureUsesCopySrc)})
			e.TransitionTextures([]hal.TextureBarrier{textureBarrier(tex, hal.TextureUsesComplex, hal.TextureUsesCopyDst)})
		})
		assert.Empty(t, f.canary.GetAndReset())
	})
	t.Run("per mip", func(t *testing.T) {
		mip1 := textureBarrier(tex, hal.TextureUsesCopyDst, hal.TextureUsesCopySrc)
		mip1.Range = hal.TextureSubresourceRange{BaseMipLevel: 1, MipLevelCount: 1}
		f.run(func(e *CommandEncoder) {
			e.TransitionTextures([]hal.TextureBarrier{mip1})
			e.TransitionTextures([]hal.TextureBarrier{textureBarrier(tex, hal.TextureUsesCopyDst, hal.TextureUsesCopySrc)})
		})
		assert.Equal(t, []string{
			`texture "tex" mip 1 layer 0: barrier from COPY_DST but subresource is in COPY_SRC`,
		}, f.canary.GetAndReset())
	})
}

func TestValidationInvalidTarget(t *testing.T) {
	f := validationFixture(t)
	tex := f.texture("tex", gputypes.TextureFormatR8Unorm, 1, 1, hal.TextureUsesCopyDst)
	e := f.encoder()
	require.NoError(t, e.BeginEncoding("invalid"))
	defer e.DiscardEncoding()

	msg := violation(t, func() {
		e.TransitionTextures([]hal.TextureBarrier{textureBarrier(tex, hal.TextureUsesUninitialized, hal.TextureUsesUnknown)})
	})
	assert.Contains(t, msg, "to invalid usage UNKNOWN")
}

func TestNoValidationWithoutFlag(t *testing.T) {
	f := debugFixture(t)
	b := f.buffer("b", 16, hal.BufferUsesCopySrc|hal.BufferUsesCopyDst)
	f.run(func(e *CommandEncoder) {
		e.TransitionBuffers([]hal.BufferBarrier{bufferBarrier(b, hal.BufferUsesCopyDst, hal.BufferUsesCopySrc)})
		e.TransitionBuffers([]hal.BufferBarrier{bufferBarrier(b, hal.BufferUsesCopyDst, hal.BufferUsesCopySrc)})
		e.ClearBuffer(b, hal.MemoryRange{})
	})
	assert.Zero(t, f.canary.Len())
}
