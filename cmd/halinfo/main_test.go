// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/hal"
	"github.com/gogpu/hal/noop"
)

const twoAdapters = `
adapters:
  - name: fake-dgpu
    device_type: discrete
  - name: fake-compute
    headless: true
`

func TestReport(t *testing.T) {
	var out bytes.Buffer
	b := noop.New(noop.WithAdapters(
		noop.AdapterConfig{Name: "fake-dgpu"},
		noop.AdapterConfig{Name: "fake-compute", Headless: true, Downlevel: true},
	))
	require.NoError(t, report(&out, b))

	text := out.String()
	assert.Contains(t, text, "backend noop: 2 adapter(s)")
	assert.Contains(t, text, "adapter 0: fake-dgpu")
	assert.Contains(t, text, "adapter 1: fake-compute")
	assert.Contains(t, text, "max_buffer_size")
	assert.Contains(t, text, "surface:   cannot present")
	assert.Equal(t, 1, strings.Count(text, "latency 1..3"))
}

func TestSelectBackend(t *testing.T) {
	b, err := selectBackend("noop", "")
	require.NoError(t, err)
	assert.Equal(t, hal.VariantNoop, b.Variant())

	b, err = selectBackend("", "")
	require.NoError(t, err)
	assert.NotNil(t, b)

	_, err = selectBackend("glide", "")
	assert.ErrorIs(t, err, hal.ErrBackendNotAvailable)

	_, err = selectBackend("", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunWithConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoAdapters), 0o600))

	var out bytes.Buffer
	require.NoError(t, run("", path, &out))
	assert.Contains(t, out.String(), "adapter 0: fake-dgpu")
	assert.Contains(t, out.String(), "adapter 1: fake-compute")
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adapters:\n  - name: first\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- watchConfig(ctx, path, out) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "adapter 0: first")
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(twoAdapters), 0o600))
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "adapter 1: fake-compute")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "changed")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watchConfig did not return after cancel")
	}
}
