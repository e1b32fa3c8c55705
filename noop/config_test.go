// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const yamlConfig = `
adapters:
  - name: fake-dgpu
    device_type: discrete
    max_buffer_size: 268435456
    max_devices: 1
  - name: fake-igpu
    headless: true
memory_budget: 1073741824
execution_delay: 1ms
surface_width: 1280
surface_height: 720
assertions: false
`

const tomlConfig = `
memory_budget = 1073741824
execution_delay = "1ms"
surface_width = 1280
surface_height = 720
assertions = false

[[adapters]]
name = "fake-dgpu"
device_type = "discrete"
max_buffer_size = 268435456
max_devices = 1

[[adapters]]
name = "fake-igpu"
headless = true
`

func TestParseConfigFormats(t *testing.T) {
	off := false
	want := &Config{
		Adapters: []AdapterConfig{
			{
				Name:          "fake-dgpu",
				DeviceType:    DeviceType(gputypes.DeviceTypeDiscreteGPU),
				MaxBufferSize: 268435456,
				MaxDevices:    1,
			},
			{Name: "fake-igpu", Headless: true},
		},
		MemoryBudget:   1 << 30,
		ExecutionDelay: Duration(time.Millisecond),
		SurfaceWidth:   1280,
		SurfaceHeight:  720,
		Assertions:     &off,
	}

	fromYAML, err := ParseConfig([]byte(yamlConfig))
	require.NoError(t, err)
	fromTOML, err := ParseTOMLConfig([]byte(tomlConfig))
	require.NoError(t, err)

	assert.Equal(t, want, fromYAML)
	assert.Equal(t, want, fromTOML)
}

func TestParseConfigEmpty(t *testing.T) {
	c, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, c.Options())
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"unknown key", "adapters:\n  - name: a\n    colour: red\n", "colour"},
		{"missing name", "adapters:\n  - device_type: discrete\n", "adapter 0 has no name"},
		{"duplicate", "adapters:\n  - name: a\n  - name: a\n", `duplicate adapter "a"`},
		{"negative devices", "adapters:\n  - name: a\n    max_devices: -1\n", "negative max_devices"},
		{"half a surface", "surface_width: 100\n", "must be set together"},
		{"device type", "adapters:\n  - name: a\n    device_type: virtual\n", `unknown device type "virtual"`},
		{"duration", "execution_delay: soon\n", "invalid config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	t.Run("toml unknown key", func(t *testing.T) {
		_, err := ParseTOMLConfig([]byte("[[adapters]]\nname = \"a\"\ncolour = \"red\"\n"))
		assert.Error(t, err)
	})
	t.Run("toml duplicate", func(t *testing.T) {
		_, err := ParseTOMLConfig([]byte("[[adapters]]\nname = \"a\"\n[[adapters]]\nname = \"a\"\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestDeviceTypeRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(AdapterConfig{Name: "a", DeviceType: DeviceType(gputypes.DeviceTypeDiscreteGPU)})
	require.NoError(t, err)
	assert.Contains(t, string(out), "device_type: discrete")

	text, err := DeviceType(gputypes.DeviceTypeIntegratedGPU).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "integrated", string(text))
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "noop.yaml")
	tomlPath := filepath.Join(dir, "noop.toml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlConfig), 0o600))
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlConfig), 0o600))

	for _, path := range []string{yamlPath, tomlPath} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			c, err := LoadConfig(path)
			require.NoError(t, err)

			inst, err := New(c.Options()...).CreateInstance(nil)
			require.NoError(t, err)
			defer inst.Destroy()

			adapters := inst.EnumerateAdapters(nil)
			require.Len(t, adapters, 2)
			assert.Equal(t, "fake-dgpu", adapters[0].Info.Name)
			assert.Equal(t, gputypes.DeviceTypeDiscreteGPU, adapters[0].Info.DeviceType)
			assert.Equal(t, "fake-igpu", adapters[1].Info.Name)

			s, err := inst.CreateSurface(0, 1)
			require.NoError(t, err)
			defer inst.DestroySurface(s)
			assert.Equal(t, uint32(1280), s.(*Surface).Extent().Width)
			assert.Nil(t, adapters[1].Adapter.SurfaceCapabilities(s), "headless adapters cannot present")
			assert.NotNil(t, adapters[0].Adapter.SurfaceCapabilities(s))
		})
	}

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
