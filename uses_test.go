// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsageMasksAreDisjoint(t *testing.T) {
	assert.Zero(t, BufferUsesInclusive&BufferUsesExclusive, "buffer INCLUSIVE and EXCLUSIVE overlap")
	assert.Zero(t, TextureUsesInclusive&TextureUsesExclusive, "texture INCLUSIVE and EXCLUSIVE overlap")
	assert.Zero(t, AccelerationStructureUsesInclusive&AccelerationStructureUsesExclusive)
}

func TestBufferUsesBitValues(t *testing.T) {
	tests := []struct {
		u    BufferUses
		want uint16
	}{
		{BufferUsesMapRead, 1},
		{BufferUsesMapWrite, 2},
		{BufferUsesCopySrc, 4},
		{BufferUsesCopyDst, 8},
		{BufferUsesIndex, 16},
		{BufferUsesVertex, 32},
		{BufferUsesUniform, 64},
		{BufferUsesStorageRead, 128},
		{BufferUsesStorageReadWrite, 256},
		{BufferUsesIndirect, 512},
		{BufferUsesQueryResolve, 1024},
		{BufferUsesAccelerationStructureScratch, 2048},
		{BufferUsesBottomLevelAccelerationStructureInput, 4096},
		{BufferUsesTopLevelAccelerationStructureInput, 8192},
	}
	for _, tt := range tests {
		if uint16(tt.u) != tt.want {
			t.Errorf("%v = %d, want %d", tt.u, uint16(tt.u), tt.want)
		}
	}
}

// Every subset of ORDERED needs no barrier when it is unchanged.
func TestRequiresTransitionElidesOrderedUsage(t *testing.T) {
	for u := BufferUses(0); u <= BufferUsesOrdered; u++ {
		if u&^BufferUsesOrdered != 0 {
			continue
		}
		if u.RequiresTransition(u) {
			t.Fatalf("BufferUses %v -> %v requires a transition", u, u)
		}
	}
	for u := TextureUses(0); u <= TextureUsesOrdered; u++ {
		if u&^TextureUsesOrdered != 0 {
			continue
		}
		if u.RequiresTransition(u) {
			t.Fatalf("TextureUses %v -> %v requires a transition", u, u)
		}
	}
}

func TestRequiresTransition(t *testing.T) {
	tests := []struct {
		name      string
		old, next BufferUses
		want      bool
	}{
		{"same inclusive", BufferUsesVertex | BufferUsesIndex, BufferUsesVertex | BufferUsesIndex, false},
		{"same map write", BufferUsesMapWrite, BufferUsesMapWrite, false},
		{"same copy dst", BufferUsesCopyDst, BufferUsesCopyDst, true},
		{"same storage rw", BufferUsesStorageReadWrite, BufferUsesStorageReadWrite, true},
		{"read to write", BufferUsesUniform, BufferUsesCopyDst, true},
		{"read to other read", BufferUsesUniform, BufferUsesVertex, true},
		{"query resolve", BufferUsesQueryResolve, BufferUsesQueryResolve, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.old.RequiresTransition(tt.next))
		})
	}

	assert.False(t, TextureUsesColorTarget.RequiresTransition(TextureUsesColorTarget))
	assert.False(t, TextureUsesStorageRead.RequiresTransition(TextureUsesStorageRead))
	assert.True(t, TextureUsesStorageReadWrite.RequiresTransition(TextureUsesStorageReadWrite))
	assert.True(t, TextureUsesPresent.RequiresTransition(TextureUsesPresent))
	assert.True(t, TextureUsesUninitialized.RequiresTransition(TextureUsesCopyDst))

	assert.False(t, AccelerationStructureUsesShaderInput.RequiresTransition(AccelerationStructureUsesShaderInput))
	assert.True(t, AccelerationStructureUsesBuildOutput.RequiresTransition(AccelerationStructureUsesBuildOutput))
}

func TestIsValid(t *testing.T) {
	assert.True(t, BufferUses(0).IsValid())
	assert.True(t, (BufferUsesVertex | BufferUsesUniform | BufferUsesCopySrc).IsValid())
	assert.True(t, BufferUsesCopyDst.IsValid())
	assert.False(t, (BufferUsesCopyDst | BufferUsesVertex).IsValid())
	assert.False(t, (BufferUsesCopyDst | BufferUsesMapWrite).IsValid())

	assert.True(t, (TextureUsesResource | TextureUsesCopySrc).IsValid())
	assert.True(t, TextureUsesColorTarget.IsValid())
	assert.False(t, (TextureUsesColorTarget | TextureUsesResource).IsValid())
	assert.False(t, TextureUsesComplex.IsValid())
	assert.False(t, (TextureUsesUnknown | TextureUsesResource).IsValid())
}

func TestIsReadOnly(t *testing.T) {
	assert.True(t, (BufferUsesMapRead | BufferUsesCopySrc).IsReadOnly())
	assert.False(t, BufferUsesMapWrite.IsReadOnly())
	assert.True(t, TextureUsesDepthStencilRead.IsReadOnly())
	assert.False(t, TextureUsesStorageRead.IsReadOnly(), "storage read is exclusive")
}

func TestUsesString(t *testing.T) {
	assert.Equal(t, "NONE", BufferUses(0).String())
	assert.Equal(t, "MAP_READ|COPY_DST", (BufferUsesMapRead | BufferUsesCopyDst).String())
	assert.Equal(t, "COLOR_TARGET", TextureUsesColorTarget.String())
	assert.Equal(t, "COPY_SRC|0x8000", (BufferUsesCopySrc | 1<<15).String())
	assert.Equal(t, "BUILD_INPUT|SHADER_INPUT", AccelerationStructureUsesInclusive.String())
}
