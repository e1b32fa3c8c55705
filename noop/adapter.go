// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/hal"
)

// Adapter is a simulated GPU.
type Adapter struct {
	instance *Instance
	index    int
	cfg      AdapterConfig
	info     hal.AdapterInfo
	features gputypes.Features
	caps     hal.Capabilities
	epoch    time.Time

	mu   sync.Mutex
	open int
}

var _ hal.Adapter = (*Adapter)(nil)

func newAdapter(inst *Instance, index int, cfg AdapterConfig) *Adapter {
	def := DefaultAdapter()
	if cfg.Vendor == 0 {
		cfg.Vendor = def.Vendor
	}
	devType := gputypes.DeviceType(cfg.DeviceType)
	if cfg.DeviceType == 0 {
		devType = gputypes.DeviceType(def.DeviceType)
	}

	limits := gputypes.DefaultLimits()
	if cfg.MaxBufferSize > 0 {
		limits.MaxBufferSize = cfg.MaxBufferSize
	}
	if cfg.MaxTextureDimension2D > 0 {
		limits.MaxTextureDimension2D = cfg.MaxTextureDimension2D
	}

	downlevel := hal.DownlevelCapabilities{
		Flags:       hal.DownlevelFlagsCompliant,
		ShaderModel: hal.ShaderModelSM5,
	}
	if cfg.Downlevel {
		downlevel = hal.DownlevelCapabilities{
			Flags:       hal.DownlevelFlagsCompliant &^ (hal.DownlevelFlagsComputeShaders | hal.DownlevelFlagsVertexStorage),
			ShaderModel: hal.ShaderModelSM4,
		}
	}

	return &Adapter{
		instance: inst,
		index:    index,
		cfg:      cfg,
		info: hal.AdapterInfo{
			Name:       cfg.Name,
			Vendor:     cfg.Vendor,
			Device:     cfg.Device,
			DeviceType: devType,
			Driver:     "noop",
			DriverInfo: "in-memory reference backend",
			Backend:    hal.VariantNoop,
		},
		features: gputypes.Features(cfg.Features),
		caps: hal.Capabilities{
			Limits: limits,
			Alignments: hal.Alignments{
				BufferCopyOffset: 4,
				BufferCopyPitch:  256,
			},
			Downlevel: downlevel,
		},
		epoch: time.Now(),
	}
}

func (a *Adapter) expose() hal.ExposedAdapter {
	return hal.ExposedAdapter{
		Adapter:      a,
		Info:         a.info,
		Features:     a.features,
		Capabilities: a.caps,
	}
}

// Open creates a device and its queue.
func (a *Adapter) Open(features gputypes.Features, limits gputypes.Limits) (hal.OpenDevice, error) {
	if features&^a.features != 0 {
		hal.Logger().Info("noop: unsupported features requested",
			"adapter", a.info.Name, "requested", uint64(features), "supported", uint64(a.features))
		return hal.OpenDevice{}, hal.ErrResourceCreationFailed
	}
	supported := a.caps.Limits
	if name, ok := checkLimits(limits, supported); !ok {
		hal.Logger().Info("noop: limits exceed adapter", "adapter", a.info.Name, "limit", name)
		return hal.OpenDevice{}, hal.ErrResourceCreationFailed
	}

	a.mu.Lock()
	if a.cfg.MaxDevices > 0 && a.open >= a.cfg.MaxDevices {
		a.mu.Unlock()
		return hal.OpenDevice{}, hal.ErrOutOfMemory
	}
	a.open++
	a.mu.Unlock()

	limits = completeLimits(limits, supported)

	budget := a.instance.backend.opts.memoryBudget
	if a.cfg.MemoryBudget > 0 {
		budget = a.cfg.MemoryBudget
	}
	d := newDevice(a, features, limits, budget)
	q := newQueue(d, a.instance.backend.opts.executionDelay, a.instance.backend.opts.timestampPeriod)
	d.queue = q

	hal.Logger().Info("noop: device opened", "adapter", a.info.Name, "budget", budget)
	return hal.OpenDevice{Device: d, Queue: q}, nil
}

func (a *Adapter) closeDevice() {
	a.mu.Lock()
	a.open--
	a.mu.Unlock()
}

// OpenDevices returns the number of devices currently open.
func (a *Adapter) OpenDevices() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open
}

const (
	colorCaps = hal.TextureFormatCapabilitySampled |
		hal.TextureFormatCapabilitySampledLinear |
		hal.TextureFormatCapabilityColorAttachment |
		hal.TextureFormatCapabilityColorAttachmentBlend |
		hal.TextureFormatCapabilityMultisampleX4 |
		hal.TextureFormatCapabilityMultisampleResolve |
		hal.TextureFormatCapabilityCopySrc |
		hal.TextureFormatCapabilityCopyDst

	storageCaps = hal.TextureFormatCapabilityStorage | hal.TextureFormatCapabilityStorageReadWrite

	// 32-bit float formats are neither filterable nor blendable.
	float32Caps = hal.TextureFormatCapabilitySampled |
		hal.TextureFormatCapabilityColorAttachment |
		hal.TextureFormatCapabilityMultisampleX4 |
		hal.TextureFormatCapabilityCopySrc |
		hal.TextureFormatCapabilityCopyDst |
		storageCaps

	depthCaps = hal.TextureFormatCapabilitySampled |
		hal.TextureFormatCapabilityDepthStencilAttachment |
		hal.TextureFormatCapabilityMultisampleX4
)

var formatCaps = map[gputypes.TextureFormat]hal.TextureFormatCapabilities{
	gputypes.TextureFormatR8Unorm:        colorCaps,
	gputypes.TextureFormatRG8Unorm:       colorCaps,
	gputypes.TextureFormatRGBA8Unorm:     colorCaps | storageCaps,
	gputypes.TextureFormatRGBA8UnormSrgb: colorCaps,
	gputypes.TextureFormatBGRA8Unorm:     colorCaps,
	gputypes.TextureFormatBGRA8UnormSrgb: colorCaps,
	gputypes.TextureFormatRGBA16Float:    colorCaps | storageCaps,
	gputypes.TextureFormatR32Float:       float32Caps | hal.TextureFormatCapabilityStorageAtomic,
	gputypes.TextureFormatRG32Float:      float32Caps,
	gputypes.TextureFormatRGBA32Float:    float32Caps,

	gputypes.TextureFormatDepth16Unorm:         depthCaps | hal.TextureFormatCapabilityCopySrc | hal.TextureFormatCapabilityCopyDst,
	gputypes.TextureFormatDepth24Plus:          depthCaps,
	gputypes.TextureFormatDepth32Float:         depthCaps | hal.TextureFormatCapabilityCopySrc,
	gputypes.TextureFormatDepth24PlusStencil8:  depthCaps | hal.TextureFormatCapabilityCopySrc | hal.TextureFormatCapabilityCopyDst,
	gputypes.TextureFormatDepth32FloatStencil8: depthCaps | hal.TextureFormatCapabilityCopySrc,
	gputypes.TextureFormatStencil8:             depthCaps | hal.TextureFormatCapabilityCopySrc | hal.TextureFormatCapabilityCopyDst,
}

// TextureFormatCapabilities returns what the adapter supports for format.
// Formats it cannot store report no capabilities.
func (a *Adapter) TextureFormatCapabilities(format gputypes.TextureFormat) hal.TextureFormatCapabilities {
	caps := formatCaps[format]
	if a.cfg.Downlevel {
		caps &^= storageCaps | hal.TextureFormatCapabilityStorageAtomic
	}
	return caps
}

var surfaceFormats = []gputypes.TextureFormat{
	gputypes.TextureFormatBGRA8Unorm,
	gputypes.TextureFormatBGRA8UnormSrgb,
	gputypes.TextureFormatRGBA8Unorm,
	gputypes.TextureFormatRGBA8UnormSrgb,
}

// Frame latency bounds of noop surfaces.
const (
	MinFrameLatency = 1
	MaxFrameLatency = 3
)

// SurfaceCapabilities returns nil for headless adapters and for surfaces
// of another instance.
func (a *Adapter) SurfaceCapabilities(surface hal.Surface) *hal.SurfaceCapabilities {
	s, ok := surface.(*Surface)
	if !ok || s.instance != a.instance || a.cfg.Headless {
		return nil
	}
	extent := s.Extent()
	return &hal.SurfaceCapabilities{
		Formats:         append([]gputypes.TextureFormat(nil), surfaceFormats...),
		MinFrameLatency: MinFrameLatency,
		MaxFrameLatency: MaxFrameLatency,
		CurrentExtent:   &extent,
		Usage:           hal.TextureUsesColorTarget | hal.TextureUsesCopySrc | hal.TextureUsesCopyDst,
		PresentModes: []hal.PresentMode{
			hal.PresentModeFifo, hal.PresentModeFifoRelaxed, hal.PresentModeImmediate, hal.PresentModeMailbox,
		},
		CompositeAlphaModes: []hal.CompositeAlphaMode{hal.CompositeAlphaModeOpaque, hal.CompositeAlphaModePreMultiplied},
	}
}

// PresentationTimestamp returns nanoseconds since the adapter was created,
// or hal.InvalidPresentationTimestamp for headless adapters.
func (a *Adapter) PresentationTimestamp() hal.PresentationTimestamp {
	if a.cfg.Headless {
		return hal.InvalidPresentationTimestamp
	}
	return hal.PresentationTimestamp(time.Since(a.epoch).Nanoseconds())
}

// checkLimits reports whether the adapter satisfies req, and otherwise the
// first field it cannot.
// Max* fields must not exceed sup and Min* alignments must be at least
// sup's. Zero fields are unspecified.
func checkLimits(req, sup gputypes.Limits) (string, bool) {
	rv, sv := reflect.ValueOf(req), reflect.ValueOf(sup)
	for i := range rv.NumField() {
		r, s := rv.Field(i).Uint(), sv.Field(i).Uint()
		if r == 0 {
			continue
		}
		name := rv.Type().Field(i).Name
		if strings.HasPrefix(name, "Min") {
			if r < s {
				return name, false
			}
		} else if r > s {
			return name, false
		}
	}
	return "", true
}

// completeLimits fills the unspecified fields of req from sup.
func completeLimits(req, sup gputypes.Limits) gputypes.Limits {
	rv, sv := reflect.ValueOf(&req).Elem(), reflect.ValueOf(sup)
	for i := range rv.NumField() {
		if rv.Field(i).Uint() == 0 {
			rv.Field(i).SetUint(sv.Field(i).Uint())
		}
	}
	return req
}
