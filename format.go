// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import "github.com/gogpu/gputypes"

// FormatAspectsOf returns every aspect present in format.
func FormatAspectsOf(format gputypes.TextureFormat) FormatAspects {
	switch format {
	case gputypes.TextureFormatStencil8:
		return FormatAspectStencil
	case gputypes.TextureFormatDepth16Unorm,
		gputypes.TextureFormatDepth24Plus,
		gputypes.TextureFormatDepth32Float:
		return FormatAspectDepth
	case gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatDepth32FloatStencil8:
		return FormatAspectDepthStencil
	case gputypes.TextureFormatUndefined:
		return 0
	default:
		return FormatAspectColor
	}
}

// NewFormatAspects returns the aspects of format selected by aspect.
// The result is empty if aspect names a plane the format does not have.
func NewFormatAspects(format gputypes.TextureFormat, aspect gputypes.TextureAspect) FormatAspects {
	var selected FormatAspects
	switch aspect {
	case gputypes.TextureAspectDepthOnly:
		selected = FormatAspectDepth
	case gputypes.TextureAspectStencilOnly:
		selected = FormatAspectStencil
	default:
		selected = FormatAspectColor | FormatAspectDepthStencil
	}
	return selected & FormatAspectsOf(format)
}

// Map converts a single aspect to its texture aspect. It panics with a
// ContractViolation when a is not exactly one aspect.
func (a FormatAspects) Map() gputypes.TextureAspect {
	if !a.IsOne() {
		Unreachable("aspect set %v is not a single aspect", a)
	}
	switch a {
	case FormatAspectDepth:
		return gputypes.TextureAspectDepthOnly
	case FormatAspectStencil:
		return gputypes.TextureAspectStencilOnly
	default:
		return gputypes.TextureAspectAll
	}
}

// IsDepthStencilFormat reports whether format has a depth or stencil plane.
func IsDepthStencilFormat(format gputypes.TextureFormat) bool {
	return FormatAspectsOf(format).Intersects(FormatAspectDepthStencil)
}

// Intersects reports whether a and other share an aspect.
func (a FormatAspects) Intersects(other FormatAspects) bool { return a&other != 0 }

// BlockSize returns the size in bytes of one texel block of format for the
// given aspect, as laid out in buffer copies. It returns 0 for formats that
// cannot be copied, such as Depth24Plus.
func BlockSize(format gputypes.TextureFormat, aspect FormatAspects) uint32 {
	switch format {
	case gputypes.TextureFormatR8Unorm, gputypes.TextureFormatStencil8:
		return 1
	case gputypes.TextureFormatRG8Unorm, gputypes.TextureFormatDepth16Unorm:
		return 2
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatR32Float, gputypes.TextureFormatDepth32Float:
		return 4
	case gputypes.TextureFormatRG32Float, gputypes.TextureFormatRGBA16Float:
		return 8
	case gputypes.TextureFormatRGBA32Float:
		return 16
	case gputypes.TextureFormatDepth24PlusStencil8:
		if aspect == FormatAspectStencil {
			return 1
		}
		return 0
	case gputypes.TextureFormatDepth32FloatStencil8:
		if aspect == FormatAspectStencil {
			return 1
		}
		if aspect == FormatAspectDepth {
			return 4
		}
		return 0
	default:
		return 0
	}
}
