// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package spirv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const computeWGSL = `
@group(0) @binding(0) var<storage, read_write> data: array<u32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = data[id.x] * 2u;
}
`

func TestEntryPointsOfAssembledModule(t *testing.T) {
	want := []EntryPoint{
		{Name: "vs_main", Model: ExecutionModelVertex},
		{Name: "fs", Model: ExecutionModelFragment},
		{Name: "main", Model: ExecutionModelCompute},
	}
	got, err := EntryPoints(Module(want...))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, ok := Find(got, "fs", ExecutionModelFragment)
	assert.True(t, ok)
	_, ok = Find(got, "fs", ExecutionModelVertex)
	assert.False(t, ok, "name matched with the wrong stage")
}

func TestEntryPointsRejectsMalformed(t *testing.T) {
	good := Module(EntryPoint{Name: "main", Model: ExecutionModelCompute})

	bad := append([]uint32(nil), good...)
	bad[0] = 0xdeadbeef

	tests := []struct {
		name  string
		words []uint32
		want  error
	}{
		{"short", good[:3], ErrTooShort},
		{"magic", bad, ErrBadMagic},
		{"truncated", good[:len(good)-1], ErrTruncated},
		{"zero word count", append(append([]uint32(nil), good[:5]...), 0), ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EntryPoints(tt.words)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestWords(t *testing.T) {
	w, err := Words([]byte{0x03, 0x02, 0x23, 0x07})
	require.NoError(t, err)
	assert.Equal(t, []uint32{Magic}, w)

	_, err = Words([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrUnaligned)
}

func TestCompileWGSL(t *testing.T) {
	words, err := Compile(computeWGSL)
	require.NoError(t, err)
	require.NoError(t, Validate(words))

	eps, err := EntryPoints(words)
	require.NoError(t, err)
	_, ok := Find(eps, "main", ExecutionModelCompute)
	assert.True(t, ok, "entry points: %v", eps)
}

func TestCompileInvalidWGSL(t *testing.T) {
	_, err := Compile("fn main( {")
	assert.Error(t, err)
}

func TestCompilerCaches(t *testing.T) {
	c := NewCompiler(4)
	a, err := c.Compile(computeWGSL)
	require.NoError(t, err)
	b, err := c.Compile(computeWGSL)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	s := c.Stats()
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
}
