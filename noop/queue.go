// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"slices"
	"sync"
	"time"

	"github.com/gogpu/hal"
)

// Queue is a noop queue. Submitted work runs on a single timeline
// goroutine in submission order; presents are ordered with submissions.
type Queue struct {
	device *Device
	delay  time.Duration
	period float32

	mu      sync.Mutex
	cond    *sync.Cond
	pending []work
	closed  bool
	done    chan struct{}
}

var _ hal.Queue = (*Queue)(nil)

// work is one item of the timeline: a submission or a present.
type work struct {
	lists   [][]command
	buffers []*CommandBuffer
	fence   *Fence
	value   hal.FenceValue

	present *SurfaceTexture
}

func newQueue(d *Device, delay time.Duration, period float32) *Queue {
	q := &Queue{
		device: d,
		delay:  delay,
		period: period,
		done:   make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

func (q *Queue) enqueue(w work) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.pending = append(q.pending, w)
	q.cond.Signal()
	return true
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		w := q.pending[0]
		q.pending[0] = work{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.execute(&w)
	}
}

func (q *Queue) execute(w *work) {
	d := q.device
	if q.delay > 0 && w.present == nil {
		time.Sleep(q.delay)
	}
	lost := d.IsLost()
	if !lost {
		d.contents.Lock()
		x := newExecContext(d)
		for _, list := range w.lists {
			for _, c := range list {
				c(x)
			}
		}
		if st := w.present; st != nil {
			x.v.textureUse("Present", st.Texture, st.whole(), hal.TextureUsesPresent)
		}
		d.contents.Unlock()
	}

	// Command buffers are resettable once the fence signals.
	for _, cb := range w.buffers {
		cb.inflight.Add(-1)
	}
	if w.present != nil {
		w.present.surface.release(w.present)
	}
	if w.fence != nil && !lost {
		w.fence.signal(w.value)
	}
}

// stop drains the timeline and ends its goroutine.
func (q *Queue) stop() {
	q.mu.Lock()
	q.closed = true
	q.cond.Signal()
	q.mu.Unlock()
	<-q.done
}

// Submit schedules command buffers. It fails with hal.ErrDeviceLost once
// the device is lost.
func (q *Queue) Submit(commandBuffers []hal.CommandBuffer, surfaceTextures []hal.SurfaceTexture, signal *hal.FenceSignal) error {
	d := q.device
	if err := d.checkLive(); err != nil {
		return err
	}
	w := work{
		lists:   make([][]command, 0, len(commandBuffers)),
		buffers: make([]*CommandBuffer, 0, len(commandBuffers)),
	}
	listed := make(map[*SurfaceTexture]bool, len(surfaceTextures))
	for _, t := range surfaceTextures {
		st, ok := t.(*SurfaceTexture)
		if !ok || st == nil {
			d.violate("Submit: %T is not a surface texture", t)
			continue
		}
		listed[st] = true
	}
	for _, c := range commandBuffers {
		cb, ok := c.(*CommandBuffer)
		if !ok || cb == nil || cb.encoder.queue != q {
			d.violate("Submit: %T was not encoded for this queue", c)
			continue
		}
		if !cb.live {
			d.violate("Submit: command buffer %q was released", cb.label)
			continue
		}
		for _, f := range cb.frames {
			if !listed[f] {
				d.violate("Submit: command buffer %q writes surface texture %d which is not listed", cb.label, f.index)
			}
		}
		w.lists = append(w.lists, slices.Clone(cb.commands))
		w.buffers = append(w.buffers, cb)
	}
	if signal != nil {
		f, ok := resolve(d, &d.fences, "Submit", signal.Fence)
		if ok {
			w.fence, w.value = f, signal.Value
		}
	}
	for _, cb := range w.buffers {
		cb.inflight.Add(1)
	}
	if !q.enqueue(w) {
		for _, cb := range w.buffers {
			cb.inflight.Add(-1)
		}
		d.violate("Submit: queue was stopped")
		return nil
	}
	d.counters.submissions.Add(1)
	d.counters.commandBuffers.Add(uint64(len(w.buffers)))
	return nil
}

// Present queues texture for display after the work submitted before it.
func (q *Queue) Present(surface hal.Surface, texture hal.SurfaceTexture) error {
	d := q.device
	s, ok := surface.(*Surface)
	if !ok || s == nil {
		d.violate("Present: %T is not a noop surface", surface)
		return nil
	}
	st, ok := texture.(*SurfaceTexture)
	if !ok || st == nil || st.surface != s {
		d.violate("Present: texture was not acquired from this surface")
		return nil
	}
	if ok, err := s.consume(st); !ok {
		return err
	}
	if !q.enqueue(work{present: st}) {
		s.release(st)
	}
	if d.IsLost() {
		return hal.NewSurfaceDeviceError(hal.ErrDeviceLost)
	}
	return s.presentStatus()
}

// TimestampPeriod returns the nanoseconds per timestamp tick.
func (q *Queue) TimestampPeriod() float32 { return q.period }

// ticks converts nanoseconds of the device clock to timestamp ticks.
func (q *Queue) ticks(ns uint64) uint64 {
	if q.period <= 0 {
		return ns
	}
	return uint64(float64(ns) / float64(q.period))
}
