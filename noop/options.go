// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"time"

	"github.com/gogpu/gputypes"
)

// Option configures a Backend.
//
// Example:
//
//	b := noop.New(
//		noop.WithAdapters(noop.AdapterConfig{Name: "fake-dgpu", MaxDevices: 1}),
//		noop.WithExecutionDelay(2*time.Millisecond),
//	)
type Option func(*options)

type options struct {
	adapters        []AdapterConfig
	memoryBudget    uint64
	executionDelay  time.Duration
	surfaceExtent   gputypes.Extent3D
	timestampPeriod float32
	assertions      *bool
	shaderCache     int
}

func defaultOptions() options {
	return options{
		surfaceExtent:   gputypes.Extent3D{Width: 800, Height: 600, DepthOrArrayLayers: 1},
		timestampPeriod: 1,
		shaderCache:     128,
	}
}

// WithAdapters replaces the default adapter with the given ones, exposed
// in order.
func WithAdapters(adapters ...AdapterConfig) Option {
	return func(o *options) {
		o.adapters = append([]AdapterConfig(nil), adapters...)
	}
}

// WithMemoryBudget limits the bytes of buffer and texture storage one
// device may allocate. Allocations beyond it fail with hal.ErrOutOfMemory.
// Zero means unlimited. An adapter's own budget takes precedence.
func WithMemoryBudget(bytes uint64) Option {
	return func(o *options) {
		o.memoryBudget = bytes
	}
}

// WithExecutionDelay makes the GPU timeline sleep for d before executing
// each submission.
func WithExecutionDelay(d time.Duration) Option {
	return func(o *options) {
		o.executionDelay = d
	}
}

// WithSurfaceExtent sets the initial window size of created surfaces.
func WithSurfaceExtent(width, height uint32) Option {
	return func(o *options) {
		o.surfaceExtent = gputypes.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}
	}
}

// WithTimestampPeriod sets the nanoseconds per timestamp tick reported by
// queues.
func WithTimestampPeriod(period float32) Option {
	return func(o *options) {
		o.timestampPeriod = period
	}
}

// WithAssertions forces contract assertions on or off regardless of the
// instance flags.
func WithAssertions(enabled bool) Option {
	return func(o *options) {
		o.assertions = &enabled
	}
}

// WithShaderCache sets how many compiled WGSL modules an instance keeps.
func WithShaderCache(modules int) Option {
	return func(o *options) {
		o.shaderCache = modules
	}
}
