// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every configuration validation error.
var ErrInvalidConfig = errors.New("noop: invalid config")

// DeviceType is the kind of GPU an adapter pretends to be. It reads from
// YAML and TOML as "discrete" or "integrated".
type DeviceType gputypes.DeviceType

// UnmarshalYAML decodes a device type name.
func (t *DeviceType) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: device_type must be a string (line %d)", ErrInvalidConfig, node.Line)
	}
	v, err := parseDeviceType(node.Value)
	if err != nil {
		return fmt.Errorf("%w (line %d)", err, node.Line)
	}
	*t = v
	return nil
}

// MarshalYAML encodes a device type name.
func (t DeviceType) MarshalYAML() (any, error) {
	if gputypes.DeviceType(t) == gputypes.DeviceTypeDiscreteGPU {
		return "discrete", nil
	}
	return "integrated", nil
}

// UnmarshalText decodes a device type name.
func (t *DeviceType) UnmarshalText(text []byte) error {
	v, err := parseDeviceType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText encodes a device type name.
func (t DeviceType) MarshalText() ([]byte, error) {
	name, _ := t.MarshalYAML()
	return []byte(name.(string)), nil
}

// Duration is a time.Duration written as a string such as "250us".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML parses a duration scalar.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: duration must be a string (line %d)", ErrInvalidConfig, node.Line)
	}
	return d.UnmarshalText([]byte(node.Value))
}

func parseDeviceType(s string) (DeviceType, error) {
	switch s {
	case "discrete":
		return DeviceType(gputypes.DeviceTypeDiscreteGPU), nil
	case "", "integrated":
		return DeviceType(gputypes.DeviceTypeIntegratedGPU), nil
	default:
		return 0, fmt.Errorf("%w: unknown device type %q", ErrInvalidConfig, s)
	}
}

// AdapterConfig describes one adapter exposed by the backend. Zero fields
// take the defaults of DefaultAdapter.
type AdapterConfig struct {
	Name       string     `yaml:"name" toml:"name"`
	DeviceType DeviceType `yaml:"device_type" toml:"device_type"`
	Vendor     uint32     `yaml:"vendor" toml:"vendor"`
	Device     uint32     `yaml:"device" toml:"device"`

	// Features is the raw gputypes.Features bit set the adapter supports.
	Features uint64 `yaml:"features" toml:"features"`

	MaxBufferSize         uint64 `yaml:"max_buffer_size" toml:"max_buffer_size"`
	MaxTextureDimension2D uint32 `yaml:"max_texture_dimension_2d" toml:"max_texture_dimension_2d"`

	// MemoryBudget overrides WithMemoryBudget for devices of this adapter.
	MemoryBudget uint64 `yaml:"memory_budget" toml:"memory_budget"`

	// MaxDevices is how many devices may be open at once. Opening more
	// fails with hal.ErrOutOfMemory. Zero means unlimited.
	MaxDevices int `yaml:"max_devices" toml:"max_devices"`

	// Headless adapters cannot present to surfaces.
	Headless bool `yaml:"headless" toml:"headless"`

	// Downlevel marks the adapter as not fully compliant: it reports
	// shader model 4 and lacks compute shaders.
	Downlevel bool `yaml:"downlevel" toml:"downlevel"`
}

// DefaultAdapter is exposed when no adapters are configured.
func DefaultAdapter() AdapterConfig {
	return AdapterConfig{
		Name:       "noop",
		DeviceType: DeviceType(gputypes.DeviceTypeIntegratedGPU),
		Vendor:     0x10005,
	}
}

// Config is the declarative form of the backend options.
//
//	adapters:
//	  - name: fake-dgpu
//	    device_type: discrete
//	    max_buffer_size: 268435456
//	  - name: fake-igpu
//	    headless: true
//	memory_budget: 1073741824
//	execution_delay: 1ms
type Config struct {
	Adapters       []AdapterConfig `yaml:"adapters" toml:"adapters"`
	MemoryBudget   uint64          `yaml:"memory_budget" toml:"memory_budget"`
	ExecutionDelay Duration        `yaml:"execution_delay" toml:"execution_delay"`
	SurfaceWidth   uint32          `yaml:"surface_width" toml:"surface_width"`
	SurfaceHeight  uint32          `yaml:"surface_height" toml:"surface_height"`
	Assertions     *bool           `yaml:"assertions" toml:"assertions"`
}

// ParseConfig decodes and validates a YAML configuration. Unknown keys are
// rejected.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("noop: parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ParseTOMLConfig is ParseConfig for TOML documents.
//
//	memory_budget = 1073741824
//	execution_delay = "1ms"
//
//	[[adapters]]
//	name = "fake-dgpu"
//	device_type = "discrete"
func ParseTOMLConfig(data []byte) (*Config, error) {
	var c Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("noop: parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadConfig reads a configuration file. Files ending in .toml are read as
// TOML, everything else as YAML.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("noop: load config: %w", err)
	}
	if filepath.Ext(path) == ".toml" {
		return ParseTOMLConfig(data)
	}
	return ParseConfig(data)
}

// Validate checks that adapter names are present and unique.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Adapters))
	for i, a := range c.Adapters {
		if a.Name == "" {
			return fmt.Errorf("%w: adapter %d has no name", ErrInvalidConfig, i)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate adapter %q", ErrInvalidConfig, a.Name)
		}
		seen[a.Name] = true
		if a.MaxDevices < 0 {
			return fmt.Errorf("%w: adapter %q: negative max_devices", ErrInvalidConfig, a.Name)
		}
	}
	if (c.SurfaceWidth == 0) != (c.SurfaceHeight == 0) {
		return fmt.Errorf("%w: surface_width and surface_height must be set together", ErrInvalidConfig)
	}
	return nil
}

// Options converts the configuration to backend options.
func (c *Config) Options() []Option {
	var opts []Option
	if len(c.Adapters) > 0 {
		opts = append(opts, WithAdapters(c.Adapters...))
	}
	if c.MemoryBudget > 0 {
		opts = append(opts, WithMemoryBudget(c.MemoryBudget))
	}
	if c.ExecutionDelay > 0 {
		opts = append(opts, WithExecutionDelay(time.Duration(c.ExecutionDelay)))
	}
	if c.SurfaceWidth > 0 {
		opts = append(opts, WithSurfaceExtent(c.SurfaceWidth, c.SurfaceHeight))
	}
	if c.Assertions != nil {
		opts = append(opts, WithAssertions(*c.Assertions))
	}
	return opts
}
