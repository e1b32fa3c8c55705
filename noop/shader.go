// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package noop

import (
	"github.com/gogpu/hal"
	"github.com/gogpu/hal/internal/spirv"
)

// ShaderModule is a noop shader module holding SPIR-V.
type ShaderModule struct {
	object
	words       []uint32
	entryPoints []spirv.EntryPoint
}

// EntryPoints returns the entry points the module declares.
func (m *ShaderModule) EntryPoints() []spirv.EntryPoint {
	return append([]spirv.EntryPoint(nil), m.entryPoints...)
}

// CreateShaderModule compiles WGSL with naga or takes SPIR-V as is.
// Compilation failures and malformed SPIR-V are reported as compilation
// errors.
func (d *Device) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	if err := d.checkLive(); err != nil {
		return nil, &hal.ShaderError{Device: hal.ErrDeviceLost}
	}
	if desc == nil {
		d.violate("CreateShaderModule: nil descriptor")
		return nil, nil
	}

	var words []uint32
	switch src := desc.Source; {
	case src.WGSL != "" && src.SPIRV != nil:
		d.violate("CreateShaderModule(%q): both WGSL and SPIR-V given", desc.Label)
		return nil, nil
	case src.WGSL != "":
		w, err := d.instance.compiler.Compile(src.WGSL)
		if err != nil {
			return nil, hal.NewShaderCompilationError(err.Error())
		}
		words = w
	case src.SPIRV != nil:
		words = append([]uint32(nil), src.SPIRV...)
	default:
		return nil, hal.NewShaderCompilationError("empty shader source")
	}

	eps, err := spirv.EntryPoints(words)
	if err != nil {
		return nil, hal.NewShaderCompilationError(err.Error())
	}
	hal.Logger().Debug("noop: shader module created", "label", desc.Label, "entry_points", len(eps))
	return insert(d, &d.shaderModules, &ShaderModule{words: words, entryPoints: eps}, desc.Label), nil
}

// DestroyShaderModule destroys a shader module.
func (d *Device) DestroyShaderModule(module hal.ShaderModule) {
	remove(d, &d.shaderModules, "DestroyShaderModule", module)
}

// entryPoint finds name for stage in module. An empty name selects the
// only entry point of the stage. It reports false when module is not a
// live module of d.
func (d *Device) entryPoint(op string, module hal.ShaderModule, name string, stage hal.ShaderStages) (bool, error) {
	m, ok := resolve(d, &d.shaderModules, op, module)
	if !ok {
		return false, nil
	}
	model := executionModel(stage)
	if name != "" {
		if _, found := spirv.Find(m.entryPoints, name, model); !found {
			return false, hal.NewEntryPointError(stage)
		}
		return true, nil
	}
	n := 0
	for _, ep := range m.entryPoints {
		if ep.Model == model {
			n++
		}
	}
	if n != 1 {
		return false, hal.NewEntryPointError(stage)
	}
	return true, nil
}

func executionModel(stage hal.ShaderStages) spirv.ExecutionModel {
	switch stage {
	case hal.ShaderStageFragment:
		return spirv.ExecutionModelFragment
	case hal.ShaderStageCompute:
		return spirv.ExecutionModelCompute
	default:
		return spirv.ExecutionModelVertex
	}
}

// RenderPipeline is a noop render pipeline.
type RenderPipeline struct {
	object
	layout        *PipelineLayout
	vertexBuffers int
	targets       int
	depthStencil  bool
}

// CreateRenderPipeline checks the stages against their modules.
func (d *Device) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if err := d.checkLive(); err != nil {
		return nil, hal.NewPipelineDeviceError(hal.ErrDeviceLost)
	}
	if desc == nil {
		d.violate("CreateRenderPipeline: nil descriptor")
		return nil, nil
	}
	layout, ok := resolve(d, &d.pipelineLayouts, "CreateRenderPipeline", desc.Layout)
	if !ok {
		return nil, nil
	}
	if len(desc.Vertex.Buffers) > hal.MaxVertexBuffers {
		d.violate("CreateRenderPipeline(%q): %d vertex buffers exceed %d", desc.Label, len(desc.Vertex.Buffers), hal.MaxVertexBuffers)
		return nil, nil
	}
	if ok, err := d.entryPoint("CreateRenderPipeline", desc.Vertex.Module, desc.Vertex.EntryPoint, hal.ShaderStageVertex); !ok {
		return nil, err
	}

	p := &RenderPipeline{
		layout:        layout,
		vertexBuffers: len(desc.Vertex.Buffers),
		depthStencil:  desc.DepthStencil != nil,
	}
	if f := desc.Fragment; f != nil {
		if len(f.Targets) > hal.MaxColorAttachments {
			d.violate("CreateRenderPipeline(%q): %d color targets exceed %d", desc.Label, len(f.Targets), hal.MaxColorAttachments)
			return nil, nil
		}
		if ok, err := d.entryPoint("CreateRenderPipeline", f.Module, f.EntryPoint, hal.ShaderStageFragment); !ok {
			return nil, err
		}
		p.targets = len(f.Targets)
	}
	if ds := desc.DepthStencil; ds != nil && !hal.IsDepthStencilFormat(ds.Format) {
		d.violate("CreateRenderPipeline(%q): %v is not a depth stencil format", desc.Label, ds.Format)
		return nil, nil
	}
	return insert(d, &d.renderPipelines, p, desc.Label), nil
}

// DestroyRenderPipeline destroys a render pipeline.
func (d *Device) DestroyRenderPipeline(pipeline hal.RenderPipeline) {
	remove(d, &d.renderPipelines, "DestroyRenderPipeline", pipeline)
}

// ComputePipeline is a noop compute pipeline.
type ComputePipeline struct {
	object
	layout *PipelineLayout
}

// CreateComputePipeline checks the compute stage against its module.
func (d *Device) CreateComputePipeline(desc *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	if err := d.checkLive(); err != nil {
		return nil, hal.NewPipelineDeviceError(hal.ErrDeviceLost)
	}
	if desc == nil {
		d.violate("CreateComputePipeline: nil descriptor")
		return nil, nil
	}
	if !d.adapter.caps.Downlevel.Flags.Contains(hal.DownlevelFlagsComputeShaders) {
		return nil, hal.NewPipelineDeviceError(hal.ErrResourceCreationFailed)
	}
	layout, ok := resolve(d, &d.pipelineLayouts, "CreateComputePipeline", desc.Layout)
	if !ok {
		return nil, nil
	}
	if ok, err := d.entryPoint("CreateComputePipeline", desc.Compute.Module, desc.Compute.EntryPoint, hal.ShaderStageCompute); !ok {
		return nil, err
	}
	return insert(d, &d.computePipelines, &ComputePipeline{layout: layout}, desc.Label), nil
}

// DestroyComputePipeline destroys a compute pipeline.
func (d *Device) DestroyComputePipeline(pipeline hal.ComputePipeline) {
	remove(d, &d.computePipelines, "DestroyComputePipeline", pipeline)
}
