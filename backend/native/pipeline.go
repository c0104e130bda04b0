// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph/rhi"
)

// pipelineCacheSize bounds the number of compiled pipelines per device.
const pipelineCacheSize = 128

// pipeline is a compiled PipelineStateObject with its layouts.
type pipeline struct {
	name       string
	shaderPath string
	module     hal.ShaderModule
	groups     []hal.BindGroupLayout
	bindings   [][]rhi.UniformBinding // per set, sorted by binding
	layout     hal.PipelineLayout
	raw        hal.RenderPipeline
}

// binding returns the declaration for (set, binding).
func (p *pipeline) binding(set, binding uint32) (rhi.UniformBinding, bool) {
	if int(set) >= len(p.bindings) {
		return rhi.UniformBinding{}, false
	}
	for _, b := range p.bindings[set] {
		if b.Binding == binding {
			return b, true
		}
	}
	return rhi.UniformBinding{}, false
}

// destroy releases every HAL object, in reverse creation order.
func (p *pipeline) destroy(dev hal.Device) {
	if p.raw != nil {
		dev.DestroyRenderPipeline(p.raw)
	}
	if p.layout != nil {
		dev.DestroyPipelineLayout(p.layout)
	}
	for _, g := range p.groups {
		if g != nil {
			dev.DestroyBindGroupLayout(g)
		}
	}
	if p.module != nil {
		dev.DestroyShaderModule(p.module)
	}
}

// groupUniforms splits bindings by set. Sets without bindings in between
// get an empty group so set indices line up with the pipeline layout.
func groupUniforms(uniforms []rhi.UniformBinding) [][]rhi.UniformBinding {
	if len(uniforms) == 0 {
		return nil
	}
	var maxSet uint32
	for _, u := range uniforms {
		maxSet = max(maxSet, u.Set)
	}
	sets := make([][]rhi.UniformBinding, maxSet+1)
	for _, u := range uniforms {
		sets[u.Set] = append(sets[u.Set], u)
	}
	for _, s := range sets {
		sort.Slice(s, func(i, j int) bool { return s[i].Binding < s[j].Binding })
	}
	return sets
}

// createPipeline compiles pso. On error every partially created object is
// released.
func (d *Device) createPipeline(pso rhi.PipelineStateObject) (_ *pipeline, err error) {
	p := &pipeline{
		name:       pso.Name,
		shaderPath: d.shaderPath(pso.Shader),
		bindings:   groupUniforms(pso.Uniforms),
	}
	defer func() {
		if err != nil {
			p.destroy(d.device)
		}
	}()

	p.module, err = d.createShaderModule(pso.Shader)
	if err != nil {
		return nil, err
	}

	for set, bindings := range p.bindings {
		entries := make([]gputypes.BindGroupLayoutEntry, len(bindings))
		for i, b := range bindings {
			entries[i] = gputypes.BindGroupLayoutEntry{
				Binding:    b.Binding,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			}
		}
		group, gerr := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s_set%d", pso.Name, set),
			Entries: entries,
		})
		if gerr != nil {
			return nil, fmt.Errorf("native: pipeline %q: bind group layout %d: %w", pso.Name, set, gerr)
		}
		p.groups = append(p.groups, group)
	}

	p.layout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            pso.Name + "_layout",
		BindGroupLayouts: p.groups,
	})
	if err != nil {
		return nil, fmt.Errorf("native: pipeline %q: layout: %w", pso.Name, err)
	}

	p.raw, err = d.device.CreateRenderPipeline(renderPipelineDescriptor(pso, p))
	if err != nil {
		return nil, fmt.Errorf("native: pipeline %q: %w", pso.Name, err)
	}
	slogger().Debug("native: pipeline created", "name", pso.Name, "shader", pso.Shader.Name)
	return p, nil
}

func renderPipelineDescriptor(pso rhi.PipelineStateObject, p *pipeline) *hal.RenderPipelineDescriptor {
	vs, fs := pso.Shader.Entries()

	var fragment *hal.FragmentState
	if len(pso.ColorFormats) > 0 {
		targets := make([]gputypes.ColorTargetState, len(pso.ColorFormats))
		for i, f := range pso.ColorFormats {
			targets[i] = gputypes.ColorTargetState{Format: f, WriteMask: gputypes.ColorWriteMaskAll}
		}
		fragment = &hal.FragmentState{Module: p.module, EntryPoint: fs, Targets: targets}
	}

	var depth *hal.DepthStencilState
	if pso.DepthFormat != gputypes.TextureFormatUndefined {
		compare := gputypes.CompareFunctionAlways
		if pso.DepthTest {
			compare = pso.DepthCompare
			if compare == 0 {
				compare = gputypes.CompareFunctionLess
			}
		}
		keep := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		depth = &hal.DepthStencilState{
			Format:            pso.DepthFormat,
			DepthWriteEnabled: pso.DepthWrite,
			DepthCompare:      compare,
			StencilFront:      keep,
			StencilBack:       keep,
			StencilReadMask:   0xFF,
			StencilWriteMask:  0xFF,
		}
	}

	// The zero topology means "unspecified"; render graph PSOs built from a
	// bare shader draw triangle lists.
	topology := pso.Topology
	if topology == 0 {
		topology = gputypes.PrimitiveTopologyTriangleList
	}

	return &hal.RenderPipelineDescriptor{
		Label:  pso.Name,
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: vs,
			Buffers:    pso.VertexBuffers,
		},
		Fragment:     fragment,
		DepthStencil: depth,
		Primitive: gputypes.PrimitiveState{
			Topology: topology,
			CullMode: pso.CullMode,
		},
		Multisample: gputypes.MultisampleState{
			Count: max(pso.SampleCount, 1),
			Mask:  0xFFFFFFFF,
		},
	}
}

// retirePipeline queues p for destruction once no submission can use it.
// It runs as the pipeline cache's eviction callback.
func (d *Device) retirePipeline(_ uint64, p *pipeline) {
	d.graveMu.Lock()
	d.graveyard = append(d.graveyard, p)
	d.graveMu.Unlock()
}

// collectPipelines destroys retired pipelines. Callers must have waited for
// every submission that could reference them.
func (d *Device) collectPipelines() {
	d.graveMu.Lock()
	dead := d.graveyard
	d.graveyard = nil
	d.graveMu.Unlock()
	for _, p := range dead {
		p.destroy(d.device)
	}
}

// InvalidateShader drops every cached pipeline built from the shader file
// at path and reports how many were dropped. The next bind recompiles them.
func (d *Device) InvalidateShader(path string) int {
	n := d.pipelines.DeleteFunc(func(_ uint64, p *pipeline) bool {
		return p.shaderPath != "" && p.shaderPath == path
	})
	if n > 0 {
		slogger().Info("native: shader changed, pipelines invalidated", "path", path, "pipelines", n)
	}
	return n
}
