// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package arena stores backend objects behind generation-checked handles.
//
// Removing an entry tombstones its slot: the slot is reused for later
// inserts with a new generation, so a stale handle never resolves to a
// different object. Lookups and removals through a stale handle report
// failure, which lets backends detect double destruction and use after
// destruction.
package arena

import "sync"

// Handle identifies an entry. The zero Handle is never returned by Insert.
type Handle uint64

// Index returns the slot index of h.
func (h Handle) Index() uint32 { return uint32(h) }

// Generation returns the generation of h. It is never zero for a handle
// returned by Insert.
func (h Handle) Generation() uint32 { return uint32(h >> 32) }

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

type slot[T any] struct {
	value T
	gen   uint32
	live  bool
}

// Arena is a slot allocator for values of type T.
//
// Arena is safe for concurrent use.
type Arena[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
	live  int
}

// Insert stores v and returns its handle.
func (a *Arena[T]) Insert(v T) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}
	s := &a.slots[index]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.value = v
	s.live = true
	a.live++
	return makeHandle(index, s.gen)
}

// Get returns the value for h and whether h is live.
func (a *Arena[T]) Get(h Handle) (T, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s, ok := a.lookup(h)
	if !ok {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Remove tombstones h and returns its value. It returns false when h was
// already removed or never inserted.
func (a *Arena[T]) Remove(h Handle) (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.lookup(h)
	if !ok {
		var zero T
		return zero, false
	}
	v := s.value
	var zero T
	s.value = zero
	s.live = false
	a.free = append(a.free, h.Index())
	a.live--
	return v, true
}

// Contains reports whether h is live.
func (a *Arena[T]) Contains(h Handle) bool {
	_, ok := a.Get(h)
	return ok
}

// Len returns the number of live entries.
func (a *Arena[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.live
}

// Range calls fn for every live entry until fn returns false. fn must not
// modify the arena.
func (a *Arena[T]) Range(fn func(Handle, T) bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for i := range a.slots {
		s := &a.slots[i]
		if !s.live {
			continue
		}
		if !fn(makeHandle(uint32(i), s.gen), s.value) {
			return
		}
	}
}

func (a *Arena[T]) lookup(h Handle) (*slot[T], bool) {
	i := h.Index()
	if h.Generation() == 0 || int(i) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[i]
	if !s.live || s.gen != h.Generation() {
		return nil, false
	}
	return s, true
}
