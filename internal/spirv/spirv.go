// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package spirv compiles WGSL to SPIR-V and inspects SPIR-V modules.
package spirv

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/hal/internal/cache"
)

// Magic is the first word of every SPIR-V module.
const Magic uint32 = 0x07230203

const (
	headerWords   = 5
	opEntryPoint  = 15
	opcodeMask    = 0xffff
	wordCountBits = 16
)

// ExecutionModel is the pipeline stage an entry point runs in.
type ExecutionModel uint32

// Execution models relevant to render and compute pipelines.
const (
	ExecutionModelVertex   ExecutionModel = 0
	ExecutionModelFragment ExecutionModel = 4
	ExecutionModelCompute  ExecutionModel = 5
)

func (m ExecutionModel) String() string {
	switch m {
	case ExecutionModelVertex:
		return "vertex"
	case ExecutionModelFragment:
		return "fragment"
	case ExecutionModelCompute:
		return "compute"
	default:
		return fmt.Sprintf("model(%d)", uint32(m))
	}
}

// EntryPoint is an OpEntryPoint declaration.
type EntryPoint struct {
	Name  string
	Model ExecutionModel
}

// Errors returned when decoding a module.
var (
	ErrTooShort     = errors.New("spirv: module shorter than header")
	ErrBadMagic     = errors.New("spirv: bad magic number")
	ErrTruncated    = errors.New("spirv: truncated instruction")
	ErrUnaligned    = errors.New("spirv: byte length not a multiple of 4")
	ErrUnterminated = errors.New("spirv: unterminated literal string")
)

// Compiler compiles WGSL through naga and memoizes the results.
// The zero value is not usable; use NewCompiler.
type Compiler struct {
	modules *cache.Cache[string, []uint32]
}

// NewCompiler returns a compiler caching up to capacity modules.
func NewCompiler(capacity int) *Compiler {
	return &Compiler{modules: cache.New[string, []uint32](capacity)}
}

// Compile returns SPIR-V words for source. The returned slice is shared
// with the cache and must not be modified.
func (c *Compiler) Compile(source string) ([]uint32, error) {
	return c.modules.GetOrCreate(source, func() ([]uint32, error) {
		return Compile(source)
	})
}

// Stats returns the compile cache counters.
func (c *Compiler) Stats() cache.Stats { return c.modules.Stats() }

// Compile translates WGSL source to SPIR-V words.
func Compile(source string) ([]uint32, error) {
	b, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("spirv: compile: %w", err)
	}
	return Words(b)
}

// Words converts a little-endian SPIR-V byte stream to words.
func Words(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, ErrUnaligned
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}

// Validate checks the header and that every instruction fits the module.
func Validate(words []uint32) error {
	_, err := EntryPoints(words)
	return err
}

// EntryPoints returns the entry points declared by a module in
// declaration order.
func EntryPoints(words []uint32) ([]EntryPoint, error) {
	if len(words) < headerWords {
		return nil, ErrTooShort
	}
	if words[0] != Magic {
		return nil, ErrBadMagic
	}

	var eps []EntryPoint
	for i := headerWords; i < len(words); {
		count := int(words[i] >> wordCountBits)
		op := words[i] & opcodeMask
		if count == 0 || i+count > len(words) {
			return nil, fmt.Errorf("%w at word %d", ErrTruncated, i)
		}
		if op == opEntryPoint {
			// model, function id, name...
			if count < 4 {
				return nil, fmt.Errorf("%w at word %d", ErrTruncated, i)
			}
			name, err := literalString(words[i+3 : i+count])
			if err != nil {
				return nil, err
			}
			eps = append(eps, EntryPoint{Name: name, Model: ExecutionModel(words[i+1])})
		}
		i += count
	}
	return eps, nil
}

// Find returns the entry point with the given name and model.
func Find(eps []EntryPoint, name string, model ExecutionModel) (EntryPoint, bool) {
	for _, ep := range eps {
		if ep.Name == name && ep.Model == model {
			return ep, true
		}
	}
	return EntryPoint{}, false
}

func literalString(words []uint32) (string, error) {
	buf := make([]byte, 0, len(words)*4)
	for _, w := range words {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], w)
		for _, c := range b {
			if c == 0 {
				return string(buf), nil
			}
			buf = append(buf, c)
		}
	}
	return "", ErrUnterminated
}

// Module assembles a minimal module declaring the given entry points.
// Backends use it to synthesize modules in tests.
func Module(eps ...EntryPoint) []uint32 {
	words := []uint32{Magic, 0x00010300, 0, uint32(len(eps) + 1), 0}
	for i, ep := range eps {
		name := encodeString(ep.Name)
		count := 3 + len(name)
		words = append(words, uint32(count)<<wordCountBits|opEntryPoint, uint32(ep.Model), uint32(i+1))
		words = append(words, name...)
	}
	return words
}

func encodeString(s string) []uint32 {
	b := append([]byte(s), 0)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}
