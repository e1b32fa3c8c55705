// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"errors"
	"fmt"
)

// DeviceError is the closed set of failures a device can report.
//
// ErrOutOfMemory and ErrResourceCreationFailed are locally recoverable: the
// caller may retry with a smaller request or different parameters.
// ErrDeviceLost is terminal for the device; every later operation on it
// should be assumed to fail.
type DeviceError uint8

// Device errors.
const (
	// ErrOutOfMemory is returned when host or device memory is exhausted.
	ErrOutOfMemory DeviceError = iota + 1

	// ErrDeviceLost is returned once the device has been lost.
	ErrDeviceLost

	// ErrResourceCreationFailed is returned when creating a resource fails
	// for a reason other than running out of memory.
	ErrResourceCreationFailed
)

func (e DeviceError) Error() string {
	switch e {
	case ErrOutOfMemory:
		return "hal: out of memory"
	case ErrDeviceLost:
		return "hal: device is lost"
	case ErrResourceCreationFailed:
		return "hal: creation of a resource failed for a reason other than running out of memory"
	default:
		return fmt.Sprintf("hal: device error %d", uint8(e))
	}
}

// IsFatal reports whether the device can no longer be used.
func (e DeviceError) IsFatal() bool { return e == ErrDeviceLost }

// ShaderError is returned by Device.CreateShaderModule.
//
// Exactly one of Message and Device is meaningful: Message holds the
// backend compiler diagnostics when compilation failed, Device is set when
// the failure was a device error.
type ShaderError struct {
	Message string
	Device  DeviceError
}

// NewShaderCompilationError returns a ShaderError carrying compiler output.
func NewShaderCompilationError(message string) *ShaderError {
	return &ShaderError{Message: message}
}

// IsCompilation reports whether the shader was rejected by the compiler.
func (e *ShaderError) IsCompilation() bool { return e.Device == 0 }

func (e *ShaderError) Error() string {
	if e.Device != 0 {
		return e.Device.Error()
	}
	return fmt.Sprintf("hal: shader compilation failed: %q", e.Message)
}

func (e *ShaderError) Unwrap() error {
	if e.Device != 0 {
		return e.Device
	}
	return nil
}

// PipelineErrorKind identifies the variant of a PipelineError.
type PipelineErrorKind uint8

// Pipeline error kinds.
const (
	PipelineErrorLinkage PipelineErrorKind = iota + 1
	PipelineErrorEntryPoint
	PipelineErrorDevice
)

// PipelineError is returned by pipeline creation.
type PipelineError struct {
	Kind PipelineErrorKind

	// Stage is the failing stage for Linkage and EntryPoint errors.
	Stage ShaderStages

	// Message carries linker output for Linkage errors.
	Message string

	// Device is set for PipelineErrorDevice.
	Device DeviceError
}

// NewLinkageError reports that linking the given stages failed.
func NewLinkageError(stage ShaderStages, message string) *PipelineError {
	return &PipelineError{Kind: PipelineErrorLinkage, Stage: stage, Message: message}
}

// NewEntryPointError reports that the entry point for stage is invalid.
func NewEntryPointError(stage ShaderStages) *PipelineError {
	return &PipelineError{Kind: PipelineErrorEntryPoint, Stage: stage}
}

// NewPipelineDeviceError wraps a device error raised during pipeline creation.
func NewPipelineDeviceError(err DeviceError) *PipelineError {
	return &PipelineError{Kind: PipelineErrorDevice, Device: err}
}

func (e *PipelineError) Error() string {
	switch e.Kind {
	case PipelineErrorLinkage:
		return fmt.Sprintf("hal: linkage failed for stage %v: %s", e.Stage, e.Message)
	case PipelineErrorEntryPoint:
		return fmt.Sprintf("hal: entry point for stage %v is invalid", e.Stage)
	default:
		return e.Device.Error()
	}
}

func (e *PipelineError) Unwrap() error {
	if e.Kind == PipelineErrorDevice {
		return e.Device
	}
	return nil
}

// SurfaceErrorKind identifies the variant of a SurfaceError.
type SurfaceErrorKind uint8

// Surface error kinds.
const (
	SurfaceErrorLost SurfaceErrorKind = iota + 1
	SurfaceErrorOutdated
	SurfaceErrorDevice
	SurfaceErrorOther
)

// SurfaceError is returned by the presentation path.
//
// Outdated is recoverable by reconfiguring the surface. Lost requires the
// surface to be recreated.
type SurfaceError struct {
	Kind    SurfaceErrorKind
	Device  DeviceError
	Message string
}

// Surface error sentinels, matched with errors.Is.
var (
	// ErrSurfaceLost is returned when the surface is gone.
	ErrSurfaceLost = &SurfaceError{Kind: SurfaceErrorLost}

	// ErrSurfaceOutdated is returned when the surface no longer matches its
	// configuration and must be reconfigured.
	ErrSurfaceOutdated = &SurfaceError{Kind: SurfaceErrorOutdated}
)

// NewSurfaceDeviceError wraps a device error raised on the presentation path.
func NewSurfaceDeviceError(err DeviceError) *SurfaceError {
	return &SurfaceError{Kind: SurfaceErrorDevice, Device: err}
}

// NewSurfaceOtherError reports a backend-specific presentation failure.
func NewSurfaceOtherError(message string) *SurfaceError {
	return &SurfaceError{Kind: SurfaceErrorOther, Message: message}
}

func (e *SurfaceError) Error() string {
	switch e.Kind {
	case SurfaceErrorLost:
		return "hal: surface is lost"
	case SurfaceErrorOutdated:
		return "hal: surface is outdated, needs to be re-created"
	case SurfaceErrorDevice:
		return e.Device.Error()
	default:
		return "hal: surface error: " + e.Message
	}
}

// Is matches surface errors by kind, so errors.Is(err, ErrSurfaceOutdated)
// holds for any outdated error.
func (e *SurfaceError) Is(target error) bool {
	var t *SurfaceError
	if !errors.As(target, &t) {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Kind != SurfaceErrorDevice || t.Device == 0 || t.Device == e.Device
}

func (e *SurfaceError) Unwrap() error {
	if e.Kind == SurfaceErrorDevice {
		return e.Device
	}
	return nil
}

// InstanceError reports a failure to create an instance or a surface.
// The causes are too platform specific to be an enumeration, so the message
// should be detailed enough for a bug report.
type InstanceError struct {
	Message string
	Source  error
}

// NewInstanceError returns an InstanceError without a cause.
func NewInstanceError(message string) *InstanceError {
	return &InstanceError{Message: message}
}

// WrapInstanceError returns an InstanceError caused by source.
func WrapInstanceError(message string, source error) *InstanceError {
	return &InstanceError{Message: message, Source: source}
}

func (e *InstanceError) Error() string {
	if e.Source != nil {
		return e.Message + ": " + e.Source.Error()
	}
	return e.Message
}

func (e *InstanceError) Unwrap() error { return e.Source }

// ContractViolation is the panic value raised when a caller breaks a
// documented precondition that a backend happens to check.
//
// It is never returned as an error: its presence always indicates a bug in
// the calling layer.
type ContractViolation struct {
	Message string
}

func (v *ContractViolation) Error() string {
	return "hal: contract violation: " + v.Message
}

// Unreachable panics with a ContractViolation built from the format string.
func Unreachable(format string, args ...any) {
	panic(&ContractViolation{Message: fmt.Sprintf(format, args...)})
}
