// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceError(t *testing.T) {
	assert.True(t, ErrDeviceLost.IsFatal())
	assert.False(t, ErrOutOfMemory.IsFatal())
	assert.False(t, ErrResourceCreationFailed.IsFatal())
	assert.Equal(t, "hal: out of memory", ErrOutOfMemory.Error())
	assert.Contains(t, DeviceError(42).Error(), "42")

	wrapped := fmt.Errorf("create buffer: %w", ErrOutOfMemory)
	assert.ErrorIs(t, wrapped, ErrOutOfMemory)
}

func TestShaderError(t *testing.T) {
	compile := NewShaderCompilationError("unexpected token")
	assert.True(t, compile.IsCompilation())
	assert.Contains(t, compile.Error(), "unexpected token")
	assert.NoError(t, compile.Unwrap())

	device := &ShaderError{Device: ErrDeviceLost}
	assert.False(t, device.IsCompilation())
	assert.ErrorIs(t, device, ErrDeviceLost)
}

func TestPipelineError(t *testing.T) {
	link := NewLinkageError(ShaderStageFragment, "location 0 mismatch")
	assert.Equal(t, "hal: linkage failed for stage FRAGMENT: location 0 mismatch", link.Error())

	entry := NewEntryPointError(ShaderStageCompute)
	assert.Contains(t, entry.Error(), "COMPUTE")
	assert.Nil(t, entry.Unwrap())

	var pe *PipelineError
	err := fmt.Errorf("pipeline: %w", NewPipelineDeviceError(ErrOutOfMemory))
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, PipelineErrorDevice, pe.Kind)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestSurfaceErrorMatching(t *testing.T) {
	outdated := &SurfaceError{Kind: SurfaceErrorOutdated}
	assert.ErrorIs(t, outdated, ErrSurfaceOutdated)
	assert.NotErrorIs(t, outdated, ErrSurfaceLost)

	wrapped := fmt.Errorf("acquire: %w", ErrSurfaceLost)
	assert.ErrorIs(t, wrapped, ErrSurfaceLost)

	dev := NewSurfaceDeviceError(ErrDeviceLost)
	assert.ErrorIs(t, dev, ErrDeviceLost)
	assert.ErrorIs(t, dev, &SurfaceError{Kind: SurfaceErrorDevice})
	assert.NotErrorIs(t, dev, NewSurfaceDeviceError(ErrOutOfMemory))

	other := NewSurfaceOtherError("compositor gone")
	assert.Equal(t, "hal: surface error: compositor gone", other.Error())
}

func TestInstanceError(t *testing.T) {
	plain := NewInstanceError("vulkan loader not found")
	assert.Equal(t, "vulkan loader not found", plain.Error())
	assert.Nil(t, plain.Unwrap())

	wrapped := WrapInstanceError("open libvulkan", io.ErrUnexpectedEOF)
	assert.Equal(t, "open libvulkan: unexpected EOF", wrapped.Error())
	assert.True(t, errors.Is(wrapped, io.ErrUnexpectedEOF))
}

func TestUnreachablePanicsWithContractViolation(t *testing.T) {
	defer func() {
		r := recover()
		v, ok := r.(*ContractViolation)
		if !ok {
			t.Fatalf("recovered %T, want *ContractViolation", r)
		}
		if v.Message != "buffer 7 unmapped twice" {
			t.Errorf("Message = %q", v.Message)
		}
	}()
	Unreachable("buffer %d unmapped twice", 7)
}
