// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpuctx

import (
	"errors"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/hal"
)

// Device is the gpucontext.Device of a Provider. It counts the
// submissions made through its Queue on a fence.
type Device struct {
	hal      hal.Device
	halQueue hal.Queue
	fence    hal.Fence

	mu        sync.Mutex
	submitted hal.FenceValue
	destroyed bool
}

var _ gpucontext.Device = (*Device)(nil)

// Poll reports completed work. With wait it blocks until everything
// submitted so far has completed or the device is lost.
func (d *Device) Poll(wait bool) {
	d.mu.Lock()
	target, destroyed := d.submitted, d.destroyed
	d.mu.Unlock()
	if destroyed || !wait {
		return
	}
	if _, err := d.hal.Wait(d.fence, target, hal.WaitForever); err != nil {
		hal.Logger().Warn("gpuctx: poll", "err", err)
	}
}

// Wait blocks until the submission that returned value has completed.
func (d *Device) Wait(value hal.FenceValue, timeout time.Duration) (bool, error) {
	d.mu.Lock()
	destroyed := d.destroyed
	d.mu.Unlock()
	if destroyed {
		return false, ErrClosed
	}
	return d.hal.Wait(d.fence, value, timeout)
}

// Completed returns the value of the last completed submission.
func (d *Device) Completed() (hal.FenceValue, error) {
	d.mu.Lock()
	destroyed := d.destroyed
	d.mu.Unlock()
	if destroyed {
		return 0, ErrClosed
	}
	return d.hal.GetFenceValue(d.fence)
}

// Destroy waits for submitted work, then exits the device together with
// its queue. Later calls do nothing.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return
	}
	d.destroyed = true
	if _, err := d.hal.Wait(d.fence, d.submitted, hal.WaitForever); err != nil && !errors.Is(err, hal.ErrDeviceLost) {
		hal.Logger().Warn("gpuctx: wait before destroy", "err", err)
	}
	d.hal.DestroyFence(d.fence)
	d.hal.Exit(d.halQueue)
}

// Queue is the gpucontext.Queue of a Provider.
type Queue struct {
	device *Device
}

var _ gpucontext.Queue = (*Queue)(nil)

// Submit submits command buffers and returns the fence value that marks
// their completion. The returned value is also what Device.Poll waits for.
func (q *Queue) Submit(commandBuffers []hal.CommandBuffer, surfaceTextures ...hal.SurfaceTexture) (hal.FenceValue, error) {
	d := q.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return 0, ErrClosed
	}
	value := d.submitted + 1
	if err := d.halQueue.Submit(commandBuffers, surfaceTextures, &hal.FenceSignal{Fence: d.fence, Value: value}); err != nil {
		return 0, err
	}
	d.submitted = value
	return value, nil
}

// Present presents an acquired surface texture.
func (q *Queue) Present(surface hal.Surface, texture hal.SurfaceTexture) error {
	d := q.device
	d.mu.Lock()
	destroyed := d.destroyed
	d.mu.Unlock()
	if destroyed {
		return ErrClosed
	}
	return d.halQueue.Present(surface, texture)
}
