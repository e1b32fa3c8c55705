// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuctx

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/hal"
)

var (
	// ErrNilInstance is returned by Open for a nil instance.
	ErrNilInstance = errors.New("gpuctx: instance is nil")

	// ErrNoAdapter is returned by Open when no adapter matches the options.
	ErrNoAdapter = errors.New("gpuctx: no suitable adapter")

	// ErrClosed is returned by Submit after the device was destroyed.
	ErrClosed = errors.New("gpuctx: device destroyed")
)

// DefaultSurfaceFormat is reported when the provider has no surface.
const DefaultSurfaceFormat = gputypes.TextureFormatBGRA8Unorm

// Option configures Open.
type Option func(*options)

type options struct {
	features gputypes.Features
	limits   gputypes.Limits
	surface  hal.Surface
	adapter  string
	format   gputypes.TextureFormat
}

// WithFeatures requests features when opening the device.
func WithFeatures(f gputypes.Features) Option {
	return func(o *options) { o.features = f }
}

// WithLimits requests limits when opening the device.
func WithLimits(l gputypes.Limits) Option {
	return func(o *options) { o.limits = l }
}

// WithSurface selects an adapter that can present to s. The surface
// format becomes the first format the adapter supports for s.
func WithSurface(s hal.Surface) Option {
	return func(o *options) { o.surface = s }
}

// WithAdapterName selects the adapter with the given name.
func WithAdapterName(name string) Option {
	return func(o *options) { o.adapter = name }
}

// WithSurfaceFormat overrides the reported surface format.
func WithSurfaceFormat(f gputypes.TextureFormat) Option {
	return func(o *options) { o.format = f }
}

// Provider is a gpucontext.DeviceProvider backed by a HAL device.
type Provider struct {
	adapter *Adapter
	device  *Device
	queue   *Queue
	format  gputypes.TextureFormat
}

var _ gpucontext.DeviceProvider = (*Provider)(nil)

// Open enumerates the adapters of inst, opens the first one matching the
// options and wraps it in a Provider. Adapters are tried in enumeration
// order; an adapter that fails to open is skipped.
func Open(inst hal.Instance, opts ...Option) (*Provider, error) {
	if inst == nil {
		return nil, ErrNilInstance
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var errs []error
	for _, exposed := range inst.EnumerateAdapters(o.surface) {
		if o.adapter != "" && exposed.Info.Name != o.adapter {
			continue
		}
		format := o.format
		if o.surface != nil {
			caps := exposed.Adapter.SurfaceCapabilities(o.surface)
			if caps == nil || len(caps.Formats) == 0 {
				continue
			}
			if format == gputypes.TextureFormatUndefined {
				format = caps.Formats[0]
			}
		}
		od, err := exposed.Adapter.Open(o.features, o.limits)
		if err != nil {
			hal.Logger().Info("gpuctx: adapter skipped", "adapter", exposed.Info.Name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", exposed.Info.Name, err))
			continue
		}
		return New(exposed, od, format)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, errors.Join(errs...))
	}
	return nil, ErrNoAdapter
}

// New wraps an already opened device. The provider takes ownership of od:
// destroying the provider's device exits it. A zero format reports
// DefaultSurfaceFormat.
func New(exposed hal.ExposedAdapter, od hal.OpenDevice, format gputypes.TextureFormat) (*Provider, error) {
	fence, err := od.Device.CreateFence()
	if err != nil {
		od.Device.Exit(od.Queue)
		return nil, fmt.Errorf("gpuctx: create fence: %w", err)
	}
	if format == gputypes.TextureFormatUndefined {
		format = DefaultSurfaceFormat
	}
	d := &Device{hal: od.Device, halQueue: od.Queue, fence: fence}
	p := &Provider{
		adapter: &Adapter{exposed: exposed},
		device:  d,
		queue:   &Queue{device: d},
		format:  format,
	}
	hal.Logger().Info("gpuctx: provider ready", "adapter", exposed.Info.Name, "format", format)
	return p, nil
}

// Device returns the device as a gpucontext.Device.
func (p *Provider) Device() gpucontext.Device { return p.device }

// Queue returns the queue as a gpucontext.Queue.
func (p *Provider) Queue() gpucontext.Queue { return p.queue }

// Adapter returns the adapter as a gpucontext.Adapter.
func (p *Provider) Adapter() gpucontext.Adapter { return p.adapter }

// SurfaceFormat returns the preferred format of presented textures.
func (p *Provider) SurfaceFormat() gputypes.TextureFormat { return p.format }

// AdapterInfo reports the adapter name and kind in gpucontext terms.
func (p *Provider) AdapterInfo() gpucontext.AdapterInfo { return p.adapter.AdapterInfo() }

// HalDevice returns the hal.Device.
func (p *Provider) HalDevice() any { return p.device.hal }

// HalQueue returns the hal.Queue.
func (p *Provider) HalQueue() any { return p.queue.device.halQueue }

// Submit submits command buffers through the provider's queue.
func (p *Provider) Submit(commandBuffers []hal.CommandBuffer, surfaceTextures ...hal.SurfaceTexture) (hal.FenceValue, error) {
	return p.queue.Submit(commandBuffers, surfaceTextures...)
}

// Close destroys the device. It is the same as p.Device().Destroy().
func (p *Provider) Close() { p.device.Destroy() }

// Adapter is the gpucontext.Adapter of a Provider.
type Adapter struct {
	exposed hal.ExposedAdapter
}

var _ gpucontext.Adapter = (*Adapter)(nil)

// Info returns the adapter description.
func (a *Adapter) Info() hal.AdapterInfo { return a.exposed.Info }

// AdapterInfo maps Info onto gpucontext.AdapterInfo. Virtual and other
// device types are reported as gpucontext.AdapterTypeUnknown.
func (a *Adapter) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{
		Name: a.exposed.Info.Name,
		Type: adapterType(a.exposed.Info.DeviceType),
	}
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

// Features returns the features the adapter supports.
func (a *Adapter) Features() gputypes.Features { return a.exposed.Features }

// Capabilities returns limits, alignments and downlevel flags.
func (a *Adapter) Capabilities() hal.Capabilities { return a.exposed.Capabilities }

// Unwrap returns the hal.Adapter.
func (a *Adapter) Unwrap() hal.Adapter { return a.exposed.Adapter }
