// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/hal"
	"github.com/gogpu/hal/internal/arena"
)

// object is embedded by every resource handle.
type object struct {
	device *Device
	handle arena.Handle
	label  string
}

// NativeHandle returns the arena handle of the object.
func (o *object) NativeHandle() uintptr { return uintptr(o.handle) }

// Label returns the label the object was created with.
func (o *object) Label() string { return o.label }

func (o *object) base() *object { return o }

type resource interface {
	comparable
	base() *object
}

// Stats are cumulative counters of work a device executed.
type Stats struct {
	Submissions    uint64
	CommandBuffers uint64
	Draws          uint64
	Dispatches     uint64
	Workgroups     uint64
	BytesCopied    uint64
	Builds         uint64
	AllocatedBytes uint64
}

type counters struct {
	submissions    atomic.Uint64
	commandBuffers atomic.Uint64
	draws          atomic.Uint64
	dispatches     atomic.Uint64
	workgroups     atomic.Uint64
	bytesCopied    atomic.Uint64
	builds         atomic.Uint64
}

// Device is a noop device.
type Device struct {
	adapter    *Adapter
	instance   *Instance
	features   gputypes.Features
	limits     gputypes.Limits
	budget     uint64
	assertions bool
	queue      *Queue
	epoch      time.Time
	validator  *validator

	// contents guards the bytes of every buffer, texture and acceleration
	// structure. The GPU timeline holds it while executing a submission.
	contents sync.Mutex

	memMu     sync.Mutex
	allocated uint64

	lost     atomic.Bool
	lostOnce sync.Once
	lostCh   chan struct{}
	exited   atomic.Bool

	capturing  atomic.Bool
	captureMu  sync.Mutex
	captureLog []string

	addrMu      sync.RWMutex
	addresses   map[uint64]*AccelerationStructure
	nextAddress uint64

	counters counters

	buffers                arena.Arena[*Buffer]
	textures               arena.Arena[*Texture]
	views                  arena.Arena[*TextureView]
	samplers               arena.Arena[*Sampler]
	encoders               arena.Arena[*CommandEncoder]
	bindGroupLayouts       arena.Arena[*BindGroupLayout]
	pipelineLayouts        arena.Arena[*PipelineLayout]
	bindGroups             arena.Arena[*BindGroup]
	shaderModules          arena.Arena[*ShaderModule]
	renderPipelines        arena.Arena[*RenderPipeline]
	computePipelines       arena.Arena[*ComputePipeline]
	querySets              arena.Arena[*QuerySet]
	fences                 arena.Arena[*Fence]
	accelerationStructures arena.Arena[*AccelerationStructure]
}

var _ hal.Device = (*Device)(nil)

// Base of the device address space handed to acceleration structures.
const addressBase = 0x1_0000_0000

func newDevice(a *Adapter, features gputypes.Features, limits gputypes.Limits, budget uint64) *Device {
	d := &Device{
		adapter:     a,
		instance:    a.instance,
		features:    features,
		limits:      limits,
		budget:      budget,
		assertions:  a.instance.assertions,
		epoch:       time.Now(),
		lostCh:      make(chan struct{}),
		addresses:   make(map[uint64]*AccelerationStructure),
		nextAddress: addressBase,
	}
	if a.instance.validation {
		d.validator = newValidator(a.instance)
	}
	return d
}

func (d *Device) violate(format string, args ...any) {
	if d.assertions {
		hal.Unreachable(format, args...)
	}
}

// Assertions reports whether contract assertions are enabled.
func (d *Device) Assertions() bool { return d.assertions }

// Limits returns the limits the device was opened with.
func (d *Device) Limits() gputypes.Limits { return d.limits }

// Features returns the features the device was opened with.
func (d *Device) Features() gputypes.Features { return d.features }

// Adapter returns the adapter the device was opened on.
func (d *Device) Adapter() *Adapter { return d.adapter }

// checkLive returns hal.ErrDeviceLost once the device is lost.
func (d *Device) checkLive() error {
	if d.lost.Load() {
		return hal.ErrDeviceLost
	}
	return nil
}

// Lose makes the device lost. Every later operation that can fail returns
// hal.ErrDeviceLost, pending submissions are dropped and fence waiters wake
// up.
func (d *Device) Lose() {
	d.lostOnce.Do(func() {
		d.lost.Store(true)
		close(d.lostCh)
		hal.Logger().Warn("noop: device lost", "adapter", d.adapter.info.Name)
	})
}

// IsLost reports whether Lose was called.
func (d *Device) IsLost() bool { return d.lost.Load() }

// Stats returns a snapshot of the work counters.
func (d *Device) Stats() Stats {
	d.memMu.Lock()
	allocated := d.allocated
	d.memMu.Unlock()
	return Stats{
		Submissions:    d.counters.submissions.Load(),
		CommandBuffers: d.counters.commandBuffers.Load(),
		Draws:          d.counters.draws.Load(),
		Dispatches:     d.counters.dispatches.Load(),
		Workgroups:     d.counters.workgroups.Load(),
		BytesCopied:    d.counters.bytesCopied.Load(),
		Builds:         d.counters.builds.Load(),
		AllocatedBytes: allocated,
	}
}

// reserve accounts n bytes of storage against the memory budget.
func (d *Device) reserve(n uint64) error {
	d.memMu.Lock()
	defer d.memMu.Unlock()
	if d.budget > 0 && d.allocated+n > d.budget {
		return hal.ErrOutOfMemory
	}
	d.allocated += n
	return nil
}

func (d *Device) release(n uint64) {
	d.memMu.Lock()
	d.allocated -= n
	d.memMu.Unlock()
}

// resolve checks that r is a live handle of kind T created by d.
func resolve[T resource](d *Device, a *arena.Arena[T], op string, r hal.Resource) (T, bool) {
	var zero T
	v, ok := r.(T)
	if !ok || v == zero {
		d.violate("%s: %T is not a handle of this backend", op, r)
		return zero, false
	}
	o := v.base()
	if o.device != d {
		d.violate("%s: %q belongs to another device", op, o.label)
		return zero, false
	}
	if !a.Contains(o.handle) {
		d.violate("%s: %q used after it was destroyed", op, o.label)
		return zero, false
	}
	return v, true
}

// remove destroys the handle r of kind T.
func remove[T resource](d *Device, a *arena.Arena[T], op string, r hal.Resource) (T, bool) {
	var zero T
	v, ok := r.(T)
	if !ok || v == zero {
		d.violate("%s: %T is not a handle of this backend", op, r)
		return zero, false
	}
	o := v.base()
	if o.device != d {
		d.violate("%s: %q belongs to another device", op, o.label)
		return zero, false
	}
	if _, ok := a.Remove(o.handle); !ok {
		d.violate("%s: %q destroyed twice", op, o.label)
		return zero, false
	}
	return v, true
}

// insert registers a new object with d.
func insert[T resource](d *Device, a *arena.Arena[T], v T, label string) T {
	o := v.base()
	o.device = d
	o.label = label
	o.handle = a.Insert(v)
	return v
}

// LiveResources returns the number of live objects per kind, omitting
// kinds with none.
func (d *Device) LiveResources() map[string]int {
	live := map[string]int{
		"buffer":                 d.buffers.Len(),
		"texture":                d.textures.Len(),
		"texture view":           d.views.Len(),
		"sampler":                d.samplers.Len(),
		"command encoder":        d.encoders.Len(),
		"bind group layout":      d.bindGroupLayouts.Len(),
		"pipeline layout":        d.pipelineLayouts.Len(),
		"bind group":             d.bindGroups.Len(),
		"shader module":          d.shaderModules.Len(),
		"render pipeline":        d.renderPipelines.Len(),
		"compute pipeline":       d.computePipelines.Len(),
		"query set":              d.querySets.Len(),
		"fence":                  d.fences.Len(),
		"acceleration structure": d.accelerationStructures.Len(),
	}
	for k, n := range live {
		if n == 0 {
			delete(live, k)
		}
	}
	return live
}

// Exit stops the queue and destroys the device. Every resource must have
// been destroyed.
func (d *Device) Exit(queue hal.Queue) {
	if d.exited.Swap(true) {
		d.violate("Exit: device exited twice")
		return
	}
	if q, ok := queue.(*Queue); !ok || q != d.queue {
		d.violate("Exit: queue %T was not opened with this device", queue)
	}
	d.queue.stop()

	if live := d.LiveResources(); len(live) > 0 {
		kinds := make([]string, 0, len(live))
		for k, n := range live {
			kinds = append(kinds, fmt.Sprintf("%d %s", n, k))
		}
		sort.Strings(kinds)
		d.violate("Exit with live resources: %s", strings.Join(kinds, ", "))
	}
	d.adapter.closeDevice()
	hal.Logger().Info("noop: device closed", "adapter", d.adapter.info.Name)
}

// StartCapture starts recording the debug markers the GPU timeline
// executes. It returns false when a capture is already running.
func (d *Device) StartCapture() bool {
	if !d.capturing.CompareAndSwap(false, true) {
		return false
	}
	d.captureMu.Lock()
	d.captureLog = nil
	d.captureMu.Unlock()
	return true
}

// StopCapture ends the current capture.
func (d *Device) StopCapture() {
	d.capturing.Store(false)
}

// CaptureLog returns the markers recorded by the last capture.
func (d *Device) CaptureLog() []string {
	d.captureMu.Lock()
	defer d.captureMu.Unlock()
	return append([]string(nil), d.captureLog...)
}

func (d *Device) captureMarker(label string) {
	if !d.capturing.Load() {
		return
	}
	d.captureMu.Lock()
	d.captureLog = append(d.captureLog, label)
	d.captureMu.Unlock()
}

// now returns the device clock in nanoseconds.
func (d *Device) now() uint64 {
	return uint64(time.Since(d.epoch).Nanoseconds())
}
