// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import (
	"sync"
	"testing"
)

func TestValidationCanary(t *testing.T) {
	var c ValidationCanary
	if got := c.GetAndReset(); len(got) != 0 {
		t.Fatalf("fresh canary holds %v", got)
	}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add("missing barrier")
		}()
	}
	wg.Wait()

	if c.Len() != 16 {
		t.Errorf("Len() = %d, want 16", c.Len())
	}
	if got := c.GetAndReset(); len(got) != 16 {
		t.Errorf("GetAndReset() returned %d messages, want 16", len(got))
	}
	if c.Len() != 0 {
		t.Error("canary not empty after GetAndReset")
	}
}
