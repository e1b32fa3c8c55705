// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"sync"
	"time"

	"github.com/gogpu/hal"
)

// Fence is a monotonic counter raised by the GPU timeline.
type Fence struct {
	object

	mu    sync.Mutex
	value hal.FenceValue

	// changed is closed and replaced whenever value grows.
	changed chan struct{}
}

// CreateFence returns a fence with value 0.
func (d *Device) CreateFence() (hal.Fence, error) {
	if err := d.checkLive(); err != nil {
		return nil, err
	}
	return insert(d, &d.fences, &Fence{changed: make(chan struct{})}, ""), nil
}

// DestroyFence destroys a fence.
func (d *Device) DestroyFence(fence hal.Fence) {
	remove(d, &d.fences, "DestroyFence", fence)
}

func (f *Fence) load() (hal.FenceValue, <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.changed
}

// signal raises the fence to v. Lower values are ignored.
func (f *Fence) signal(v hal.FenceValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v <= f.value {
		return
	}
	f.value = v
	close(f.changed)
	f.changed = make(chan struct{})
}

// GetFenceValue returns the value the fence has reached.
func (d *Device) GetFenceValue(fence hal.Fence) (hal.FenceValue, error) {
	if err := d.checkLive(); err != nil {
		return 0, err
	}
	f, ok := resolve(d, &d.fences, "GetFenceValue", fence)
	if !ok {
		return 0, nil
	}
	v, _ := f.load()
	return v, nil
}

// Wait blocks until the fence reaches value. It returns (true, nil)
// without blocking when the value is already reached, (false, nil) when
// timeout expires first and hal.ErrDeviceLost when the device is lost
// before value is reached. A negative timeout waits forever.
func (d *Device) Wait(fence hal.Fence, value hal.FenceValue, timeout time.Duration) (bool, error) {
	f, ok := resolve(d, &d.fences, "Wait", fence)
	if !ok {
		return false, nil
	}

	cur, changed := f.load()
	if cur >= value {
		return true, nil
	}
	if err := d.checkLive(); err != nil {
		return false, err
	}
	if timeout == 0 {
		return false, nil
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	for {
		select {
		case <-changed:
		case <-d.lostCh:
			return false, hal.ErrDeviceLost
		case <-expired:
			cur, _ = f.load()
			return cur >= value, nil
		}
		cur, changed = f.load()
		if cur >= value {
			return true, nil
		}
	}
}
