// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"slices"

	"github.com/gogpu/gputypes"
)

// PresentMode selects how acquired textures are queued for display.
type PresentMode uint8

// Present modes.
const (
	// PresentModeFifo waits for vertical blank. It is always supported.
	PresentModeFifo PresentMode = iota
	// PresentModeFifoRelaxed waits for vertical blank unless a frame was late.
	PresentModeFifoRelaxed
	// PresentModeImmediate presents without waiting and may tear.
	PresentModeImmediate
	// PresentModeMailbox replaces the queued frame with the newest one.
	PresentModeMailbox
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo-relaxed"
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	default:
		return "unknown"
	}
}

// CompositeAlphaMode selects how the compositor treats surface alpha.
type CompositeAlphaMode uint8

// Composite alpha modes.
const (
	CompositeAlphaModeOpaque CompositeAlphaMode = iota
	CompositeAlphaModePreMultiplied
	CompositeAlphaModePostMultiplied
	CompositeAlphaModeInherit
)

// SurfaceCapabilities describe what an adapter supports for a surface.
type SurfaceCapabilities struct {
	// Formats lists the supported formats, preferred first. Never empty.
	Formats []gputypes.TextureFormat

	// MinFrameLatency and MaxFrameLatency bound
	// SurfaceConfiguration.MaximumFrameLatency.
	MinFrameLatency uint32
	MaxFrameLatency uint32

	// CurrentExtent is the current size of the surface, if known.
	CurrentExtent *gputypes.Extent3D

	// Usage is the set of usages a surface texture can have. It always
	// includes TextureUsesColorTarget.
	Usage TextureUses

	// PresentModes lists the supported modes. It always includes Fifo.
	PresentModes []PresentMode

	// CompositeAlphaModes lists the supported modes. Never empty.
	CompositeAlphaModes []CompositeAlphaMode
}

// SupportsFormat reports whether format is in c.Formats.
func (c *SurfaceCapabilities) SupportsFormat(format gputypes.TextureFormat) bool {
	return slices.Contains(c.Formats, format)
}

// SupportsPresentMode reports whether mode is in c.PresentModes.
func (c *SurfaceCapabilities) SupportsPresentMode(mode PresentMode) bool {
	return slices.Contains(c.PresentModes, mode)
}

// SurfaceConfiguration configures a surface for a device.
type SurfaceConfiguration struct {
	// MaximumFrameLatency is the number of frames that may be queued for
	// presentation. It must lie within the capability range.
	MaximumFrameLatency uint32
	PresentMode         PresentMode
	CompositeAlphaMode  CompositeAlphaMode
	Format              gputypes.TextureFormat

	// Extent must equal SurfaceCapabilities.CurrentExtent when that is set.
	// DepthOrArrayLayers must be 1.
	Extent gputypes.Extent3D

	Usage       TextureUses
	ViewFormats []gputypes.TextureFormat
}

// AcquiredSurfaceTexture is the result of Surface.AcquireTexture.
type AcquiredSurfaceTexture struct {
	Texture SurfaceTexture

	// Suboptimal is set when presenting still works but the surface should
	// be reconfigured soon.
	Suboptimal bool
}
