// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hal

import "sync"

// ValidationCanary accumulates validation layer messages.
//
// A test harness creates one, passes it through
// InstanceDescriptor.ValidationCanary and drains it after each test. It is
// safe for concurrent use. The zero value is ready to use.
type ValidationCanary struct {
	mu       sync.Mutex
	messages []string
}

// Add records a validation message.
func (c *ValidationCanary) Add(message string) {
	c.mu.Lock()
	c.messages = append(c.messages, message)
	c.mu.Unlock()
}

// GetAndReset returns every recorded message and clears the canary.
func (c *ValidationCanary) GetAndReset() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.messages
	c.messages = nil
	return m
}

// Len returns the number of messages recorded since the last reset.
func (c *ValidationCanary) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
