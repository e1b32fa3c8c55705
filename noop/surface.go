// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/hal"
)

// Surface is a noop surface backed by a ring of offscreen frames. A
// configuration with maximum frame latency n owns n+1 frames.
type Surface struct {
	instance *Instance
	display  uintptr
	window   uintptr

	mu         sync.Mutex
	device     *Device
	config     hal.SurfaceConfiguration
	frames     []*SurfaceTexture
	free       chan *SurfaceTexture
	extent     gputypes.Extent3D
	outdated   bool
	suboptimal bool
	lost       bool

	presents atomic.Uint64
}

var _ hal.Surface = (*Surface)(nil)

// SurfaceTexture is a frame of a surface.
type SurfaceTexture struct {
	*Texture
	surface  *Surface
	index    int
	acquired bool
}

var _ hal.SurfaceTexture = (*SurfaceTexture)(nil)

// Surface returns the surface the frame belongs to.
func (t *SurfaceTexture) Surface() hal.Surface { return t.surface }

// Index returns the position of the frame in the ring.
func (t *SurfaceTexture) Index() int { return t.index }

func newSurface(inst *Instance, display, window uintptr, extent gputypes.Extent3D) *Surface {
	return &Surface{instance: inst, display: display, window: window, extent: extent}
}

// NativeHandle returns the window handle.
func (s *Surface) NativeHandle() uintptr { return s.window }

// Extent returns the current size of the window.
func (s *Surface) Extent() gputypes.Extent3D {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extent
}

// Resize changes the window size. A configured surface becomes outdated.
func (s *Surface) Resize(width, height uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extent = gputypes.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}
	if s.device != nil && (width != s.config.Extent.Width || height != s.config.Extent.Height) {
		s.outdated = true
	}
}

// MarkSuboptimal makes the next acquires report Suboptimal until the
// surface is reconfigured.
func (s *Surface) MarkSuboptimal() {
	s.mu.Lock()
	s.suboptimal = true
	s.mu.Unlock()
}

// Lose makes every later acquire and present fail with hal.ErrSurfaceLost.
func (s *Surface) Lose() {
	s.mu.Lock()
	s.lost = true
	s.mu.Unlock()
}

// PresentCount returns the number of frames presented so far.
func (s *Surface) PresentCount() uint64 { return s.presents.Load() }

func (s *Surface) isConfigured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.device != nil
}

// Configure creates the frame ring for device.
func (s *Surface) Configure(device hal.Device, config *hal.SurfaceConfiguration) error {
	d, ok := device.(*Device)
	if !ok || d == nil || d.instance != s.instance {
		s.instance.violate("Configure: %T is not a device of the surface's instance", device)
		return nil
	}
	if err := d.checkLive(); err != nil {
		return hal.NewSurfaceDeviceError(hal.ErrDeviceLost)
	}
	if config == nil {
		d.violate("Configure: nil configuration")
		return nil
	}
	if !slices.Contains(surfaceFormats, config.Format) {
		d.violate("Configure: unsupported format %v", config.Format)
		return nil
	}
	if config.MaximumFrameLatency < MinFrameLatency || config.MaximumFrameLatency > MaxFrameLatency {
		d.violate("Configure: frame latency %d outside %d..%d", config.MaximumFrameLatency, MinFrameLatency, MaxFrameLatency)
		return nil
	}
	if !config.Usage.Contains(hal.TextureUsesColorTarget) {
		d.violate("Configure: usage %v lacks COLOR_TARGET", config.Usage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lost {
		return hal.ErrSurfaceLost
	}
	if s.device != nil && s.device != d {
		d.violate("Configure: surface is configured with another device")
		return nil
	}
	if config.Extent.Width != s.extent.Width || config.Extent.Height != s.extent.Height ||
		config.Extent.DepthOrArrayLayers != 1 {
		d.violate("Configure: extent %+v does not match the window %+v", config.Extent, s.extent)
		return nil
	}
	for _, f := range s.frames {
		if f.acquired {
			d.violate("Configure: frame %d is still acquired", f.index)
		}
	}
	s.freeFrames()

	n := int(config.MaximumFrameLatency) + 1
	frames := make([]*SurfaceTexture, 0, n)
	for i := range n {
		label := fmt.Sprintf("surface frame %d", i)
		t, err := d.newTexture(&hal.TextureDescriptor{
			Label:         label,
			Size:          config.Extent,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        config.Format,
			Usage:         config.Usage | hal.TextureUsesPresent,
			ViewFormats:   config.ViewFormats,
		})
		if t == nil {
			for _, f := range frames {
				remove(d, &d.textures, "Configure", f.Texture)
				d.freeTexture(f.Texture)
			}
			if err != nil {
				return hal.NewSurfaceDeviceError(hal.ErrOutOfMemory)
			}
			return nil
		}
		st := &SurfaceTexture{Texture: insert(d, &d.textures, t, label), surface: s, index: i}
		t.frame = st
		frames = append(frames, st)
	}

	s.device = d
	s.config = *config
	s.config.ViewFormats = slices.Clone(config.ViewFormats)
	s.frames = frames
	s.free = make(chan *SurfaceTexture, n)
	for _, f := range frames {
		s.free <- f
	}
	s.outdated, s.suboptimal = false, false
	hal.Logger().Debug("noop: surface configured",
		"format", config.Format, "extent", fmt.Sprintf("%dx%d", config.Extent.Width, config.Extent.Height), "frames", n)
	return nil
}

// freeFrames destroys the frame ring. s.mu must be held.
func (s *Surface) freeFrames() {
	d := s.device
	for _, f := range s.frames {
		remove(d, &d.textures, "Unconfigure", f.Texture)
		d.freeTexture(f.Texture)
	}
	s.frames, s.free = nil, nil
}

// Unconfigure releases the frames. Every acquired frame must have been
// presented or discarded.
func (s *Surface) Unconfigure(device hal.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, _ := device.(*Device)
	if s.device == nil || s.device != d {
		s.instance.violate("Unconfigure: surface is not configured with this device")
		return
	}
	for _, f := range s.frames {
		if f.acquired {
			d.violate("Unconfigure: frame %d is still acquired", f.index)
		}
	}
	s.freeFrames()
	s.device = nil
}

// AcquireTexture returns the next free frame. It waits for a present to
// return a frame for timeout, without limit for hal.WaitForever, and not
// at all for a zero timeout.
func (s *Surface) AcquireTexture(timeout time.Duration) (*hal.AcquiredSurfaceTexture, error) {
	s.mu.Lock()
	switch {
	case s.lost:
		s.mu.Unlock()
		return nil, hal.ErrSurfaceLost
	case s.device == nil:
		s.mu.Unlock()
		s.instance.violate("AcquireTexture: surface is not configured")
		return nil, nil
	case s.outdated:
		s.mu.Unlock()
		return nil, hal.ErrSurfaceOutdated
	}
	free, d := s.free, s.device
	s.mu.Unlock()
	if d.IsLost() {
		return nil, hal.NewSurfaceDeviceError(hal.ErrDeviceLost)
	}

	var f *SurfaceTexture
	switch {
	case timeout == 0:
		select {
		case f = <-free:
		default:
			return nil, nil
		}
	case timeout < 0:
		select {
		case f = <-free:
		case <-d.lostCh:
			return nil, hal.NewSurfaceDeviceError(hal.ErrDeviceLost)
		}
	default:
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case f = <-free:
		case <-d.lostCh:
			return nil, hal.NewSurfaceDeviceError(hal.ErrDeviceLost)
		case <-timer.C:
			return nil, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f.acquired = true
	d.contents.Lock()
	f.setState(f.whole(), hal.TextureUsesUninitialized)
	d.contents.Unlock()
	return &hal.AcquiredSurfaceTexture{Texture: f, Suboptimal: s.suboptimal}, nil
}

// consume ends the acquisition of f for a present. It reports false when
// f must not be presented.
func (s *Surface) consume(f *SurfaceTexture) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !f.acquired {
		s.instance.violate("Present: frame %d was not acquired", f.index)
		return false, nil
	}
	f.acquired = false
	if s.lost {
		s.returnFrame(f)
		return false, hal.ErrSurfaceLost
	}
	return true, nil
}

// release returns a presented frame to the ring.
func (s *Surface) release(f *SurfaceTexture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presents.Add(1)
	s.returnFrame(f)
}

// returnFrame puts f back on the free ring unless the ring was replaced.
// s.mu must be held.
func (s *Surface) returnFrame(f *SurfaceTexture) {
	if slices.Contains(s.frames, f) {
		s.free <- f
	}
}

func (s *Surface) presentStatus() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outdated {
		return hal.ErrSurfaceOutdated
	}
	return nil
}

// DiscardTexture returns an acquired frame without presenting it.
func (s *Surface) DiscardTexture(texture hal.SurfaceTexture) {
	f, ok := texture.(*SurfaceTexture)
	if !ok || f == nil || f.surface != s {
		s.instance.violate("DiscardTexture: texture was not acquired from this surface")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !f.acquired {
		s.instance.violate("DiscardTexture: frame %d was not acquired", f.index)
		return
	}
	f.acquired = false
	s.returnFrame(f)
}
