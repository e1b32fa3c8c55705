// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b survived although it was least recently used")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s was evicted", k)
		}
	}
	if s := c.Stats(); s.Evictions != 1 || s.Len != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestSetReplaces(t *testing.T) {
	c := New[int, string](0)
	c.Set(1, "old")
	c.Set(1, "new")
	if v, _ := c.Get(1); v != "new" || c.Len() != 1 {
		t.Errorf("Get(1) = %q, Len() = %d", v, c.Len())
	}
	if !c.Delete(1) || c.Delete(1) {
		t.Error("Delete did not report presence correctly")
	}
}

func TestGetOrCreate(t *testing.T) {
	c := New[string, []uint32](8)
	calls := 0
	create := func() ([]uint32, error) {
		calls++
		return []uint32{0x07230203}, nil
	}

	for range 3 {
		v, err := c.GetOrCreate("shader", create)
		if err != nil || len(v) != 1 {
			t.Fatalf("GetOrCreate() = %v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}

	boom := errors.New("compile failed")
	if _, err := c.GetOrCreate("bad", func() ([]uint32, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("failed creation was cached")
	}

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 3 {
		t.Errorf("hits=%d misses=%d, want 2 and 3", s.Hits, s.Misses)
	}
	if r := s.HitRate(); r < 0.39 || r > 0.41 {
		t.Errorf("HitRate() = %v, want 0.4", r)
	}
}

func TestConcurrentGetOrCreate(t *testing.T) {
	c := New[string, int](16)
	var (
		mu    sync.Mutex
		calls = map[string]int{}
		wg    sync.WaitGroup
	)
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := strconv.Itoa(i % 4)
			_, _ = c.GetOrCreate(key, func() (int, error) {
				mu.Lock()
				calls[key]++
				mu.Unlock()
				return i, nil
			})
		}()
	}
	wg.Wait()
	for k, n := range calls {
		if n != 1 {
			t.Errorf("key %s created %d times", k, n)
		}
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New[string, int](1000)
	for i := range 100 {
		c.Set(strconv.Itoa(i), i)
	}
	b.ResetTimer()
	for b.Loop() {
		c.Get("50")
	}
}
