// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"math/bits"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/hal"
)

// Texture is a noop texture. Every aspect of every mip level and array
// layer has its own tightly packed plane.
type Texture struct {
	object
	desc    hal.TextureDescriptor
	aspects hal.FormatAspects
	layers  uint32
	bytes   uint64

	// planes is indexed by planeIndex. Planes of aspects without a
	// copyable layout stay nil.
	planes [][]byte

	// states holds the usage of each mip level and layer as seen by
	// validation, indexed like planes without the aspect.
	states []hal.TextureUses

	// frame is set for surface textures.
	frame *SurfaceTexture
}

// Descriptor returns the descriptor the texture was created with.
func (t *Texture) Descriptor() hal.TextureDescriptor { return t.desc }

func aspectSlot(a hal.FormatAspects) uint32 {
	if a == hal.FormatAspectStencil {
		return 1
	}
	return 0
}

func (t *Texture) planeIndex(aspect hal.FormatAspects, mip, layer uint32) int {
	return int((aspectSlot(aspect)*t.desc.MipLevelCount+mip)*t.layers + layer)
}

func (t *Texture) subresource(mip, layer uint32) int {
	return int(mip*t.layers + layer)
}

// plane returns the bytes of one subresource aspect, or nil.
func (t *Texture) plane(aspect hal.FormatAspects, mip, layer uint32) []byte {
	if mip >= t.desc.MipLevelCount || layer >= t.layers {
		return nil
	}
	return t.planes[t.planeIndex(aspect, mip, layer)]
}

// depthSlices returns the number of depth slices of a mip level.
func (t *Texture) depthSlices(mip uint32) uint32 {
	if t.desc.Dimension == gputypes.TextureDimension3D {
		return t.desc.MipLevelExtent(mip).Depth
	}
	return 1
}

// ReadPlane copies out the bytes of one subresource aspect. The bytes are
// rows of texels, tightly packed, slice after slice.
func (t *Texture) ReadPlane(aspect hal.FormatAspects, mip, layer uint32) []byte {
	d := t.device
	d.contents.Lock()
	defer d.contents.Unlock()
	return slices.Clone(t.plane(aspect, mip, layer))
}

func maxMipLevels(e hal.CopyExtent, dim gputypes.TextureDimension) uint32 {
	m := max(e.Width, e.Height)
	if dim == gputypes.TextureDimension3D {
		m = max(m, e.Depth)
	}
	return uint32(bits.Len32(m))
}

// CreateTexture allocates a zeroed texture. Every subresource starts in
// hal.TextureUsesUninitialized.
func (d *Device) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	if desc == nil {
		d.violate("CreateTexture: nil descriptor")
		return nil, nil
	}
	t, err := d.newTexture(desc)
	if t == nil {
		return nil, err
	}
	return insert(d, &d.textures, t, desc.Label), nil
}

func (d *Device) newTexture(desc *hal.TextureDescriptor) (*Texture, error) {
	caps := d.adapter.TextureFormatCapabilities(desc.Format)
	if caps == 0 {
		return nil, hal.ErrResourceCreationFailed
	}
	e := desc.CopyExtent()
	if e.IsEmpty() {
		d.violate("CreateTexture(%q): empty size %+v", desc.Label, desc.Size)
		return nil, nil
	}
	if max(e.Width, e.Height) > d.limits.MaxTextureDimension2D {
		return nil, hal.ErrResourceCreationFailed
	}
	if desc.MipLevelCount == 0 || desc.MipLevelCount > maxMipLevels(e, desc.Dimension) {
		d.violate("CreateTexture(%q): %d mip levels for %+v", desc.Label, desc.MipLevelCount, desc.Size)
		return nil, nil
	}
	if desc.SampleCount == 0 {
		d.violate("CreateTexture(%q): sample count 0", desc.Label)
		return nil, nil
	}
	if !caps.SupportsSampleCount(desc.SampleCount) {
		return nil, hal.ErrResourceCreationFailed
	}
	if desc.SampleCount > 1 && desc.MipLevelCount > 1 {
		d.violate("CreateTexture(%q): multisampled textures have one mip level", desc.Label)
		return nil, nil
	}
	if desc.Usage.Intersects(hal.TextureUsesStorageRead|hal.TextureUsesStorageReadWrite) &&
		!caps.Contains(hal.TextureFormatCapabilityStorage) {
		return nil, hal.ErrResourceCreationFailed
	}

	t := &Texture{
		desc:    *desc,
		aspects: hal.FormatAspectsOf(desc.Format),
		layers:  desc.ArrayLayerCount(),
	}
	t.desc.ViewFormats = slices.Clone(desc.ViewFormats)
	t.planes = make([][]byte, 2*desc.MipLevelCount*t.layers)
	t.states = make([]hal.TextureUses, desc.MipLevelCount*t.layers)
	for i := range t.states {
		t.states[i] = hal.TextureUsesUninitialized
	}
	for _, aspect := range []hal.FormatAspects{hal.FormatAspectColor, hal.FormatAspectDepth, hal.FormatAspectStencil} {
		if !t.aspects.Contains(aspect) {
			continue
		}
		block := uint64(hal.BlockSize(desc.Format, aspect))
		if block == 0 {
			continue
		}
		for mip := range desc.MipLevelCount {
			me := desc.MipLevelExtent(mip)
			n := uint64(me.Width) * uint64(me.Height) * uint64(t.depthSlices(mip)) * block
			for layer := range t.layers {
				t.planes[t.planeIndex(aspect, mip, layer)] = make([]byte, n)
				t.bytes += n
			}
		}
	}
	if err := d.reserve(t.bytes); err != nil {
		return nil, err
	}
	return t, nil
}

// DestroyTexture frees a texture. Surface textures are owned by their
// surface and cannot be destroyed.
func (d *Device) DestroyTexture(texture hal.Texture) {
	if _, ok := texture.(*SurfaceTexture); ok {
		d.violate("DestroyTexture: surface textures are owned by the surface")
		return
	}
	t, ok := remove(d, &d.textures, "DestroyTexture", texture)
	if !ok {
		return
	}
	d.freeTexture(t)
}

func (d *Device) freeTexture(t *Texture) {
	d.release(t.bytes)
}

// texture resolves a texture or surface texture handle.
func (d *Device) texture(op string, r hal.Texture) (*Texture, bool) {
	if st, ok := r.(*SurfaceTexture); ok {
		if st == nil {
			d.violate("%s: nil surface texture", op)
			return nil, false
		}
		r = st.Texture
	}
	return resolve(d, &d.textures, op, r)
}

// TextureView is a noop texture view.
type TextureView struct {
	object
	texture    *Texture
	format     gputypes.TextureFormat
	dimension  gputypes.TextureViewDimension
	aspects    hal.FormatAspects
	usage      hal.TextureUses
	baseMip    uint32
	mipCount   uint32
	baseLayer  uint32
	layerCount uint32
}

// Texture returns the viewed texture.
func (v *TextureView) Texture() *Texture { return v.texture }

// CreateTextureView creates a view of a subresource range of texture.
func (d *Device) CreateTextureView(texture hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	t, ok := d.texture("CreateTextureView", texture)
	if !ok {
		return nil, nil
	}
	if desc == nil {
		desc = &hal.TextureViewDescriptor{}
	}

	v := &TextureView{
		texture:   t,
		format:    desc.Format,
		dimension: desc.Dimension,
		usage:     desc.Usage,
		baseMip:   desc.BaseMipLevel,
		baseLayer: desc.BaseArrayLayer,
	}
	if v.format == gputypes.TextureFormatUndefined {
		v.format = t.desc.Format
	}
	if v.format != t.desc.Format && !slices.Contains(t.desc.ViewFormats, v.format) {
		d.violate("CreateTextureView(%q): format %v is not a view format of %q", desc.Label, v.format, t.label)
		return nil, nil
	}
	if desc.Dimension == 0 {
		switch t.desc.Dimension {
		case gputypes.TextureDimension1D:
			v.dimension = gputypes.TextureViewDimension1D
		case gputypes.TextureDimension3D:
			v.dimension = gputypes.TextureViewDimension3D
		default:
			v.dimension = gputypes.TextureViewDimension2D
		}
	}
	if v.usage == 0 {
		v.usage = t.desc.Usage
	}
	if !t.desc.Usage.Contains(v.usage) {
		d.violate("CreateTextureView(%q): usage %v not in texture usage %v", desc.Label, v.usage, t.desc.Usage)
	}
	v.aspects = hal.NewFormatAspects(t.desc.Format, desc.Aspect)
	if v.aspects == 0 {
		d.violate("CreateTextureView(%q): aspect %v not in format %v", desc.Label, desc.Aspect, t.desc.Format)
		return nil, nil
	}

	v.mipCount = desc.MipLevelCount
	if v.mipCount == 0 && v.baseMip < t.desc.MipLevelCount {
		v.mipCount = t.desc.MipLevelCount - v.baseMip
	}
	v.layerCount = desc.ArrayLayerCount
	if v.layerCount == 0 && v.baseLayer < t.layers {
		v.layerCount = t.layers - v.baseLayer
	}
	if v.mipCount == 0 || v.baseMip+v.mipCount > t.desc.MipLevelCount ||
		v.layerCount == 0 || v.baseLayer+v.layerCount > t.layers {
		d.violate("CreateTextureView(%q): range mips %d+%d layers %d+%d outside %q",
			desc.Label, v.baseMip, v.mipCount, v.baseLayer, v.layerCount, t.label)
		return nil, nil
	}
	return insert(d, &d.views, v, desc.Label), nil
}

// DestroyTextureView destroys a view.
func (d *Device) DestroyTextureView(view hal.TextureView) {
	remove(d, &d.views, "DestroyTextureView", view)
}

// Sampler is a noop sampler.
type Sampler struct {
	object
	desc hal.SamplerDescriptor
}

// CreateSampler creates a sampler.
func (d *Device) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	if desc == nil {
		d.violate("CreateSampler: nil descriptor")
		return nil, nil
	}
	s := &Sampler{desc: *desc}
	if s.desc.AnisotropyClamp == 0 {
		s.desc.AnisotropyClamp = 1
	}
	if s.desc.AnisotropyClamp > hal.MaxAnisotropy {
		d.violate("CreateSampler(%q): anisotropy %d exceeds %d", desc.Label, desc.AnisotropyClamp, hal.MaxAnisotropy)
	}
	if s.desc.AnisotropyClamp > 1 && (desc.MagFilter != gputypes.FilterModeLinear ||
		desc.MinFilter != gputypes.FilterModeLinear || desc.MipmapFilter != gputypes.FilterModeLinear) {
		d.violate("CreateSampler(%q): anisotropic filtering requires linear filters", desc.Label)
	}
	if desc.LodMinClamp > desc.LodMaxClamp {
		d.violate("CreateSampler(%q): lod clamp %v > %v", desc.Label, desc.LodMinClamp, desc.LodMaxClamp)
	}
	return insert(d, &d.samplers, s, desc.Label), nil
}

// DestroySampler destroys a sampler.
func (d *Device) DestroySampler(sampler hal.Sampler) {
	remove(d, &d.samplers, "DestroySampler", sampler)
}
