// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/gogpu/gputypes"
)

// ShaderDesc identifies a shader program. Source holds WGSL text; when it is
// empty the backend loads Path from disk.
type ShaderDesc struct {
	// Name is a debug label and part of the pipeline cache key.
	Name string

	// Path is the shader file, used when Source is empty and for hot reload.
	Path string

	// Source is inline WGSL.
	Source string

	// VertexEntry is the vertex entry point (default "vs_main").
	VertexEntry string

	// FragmentEntry is the fragment entry point (default "fs_main").
	// An empty FragmentEntry with a depth-only pipeline disables the fragment stage.
	FragmentEntry string
}

// IsZero reports whether no shader was set.
func (s ShaderDesc) IsZero() bool {
	return s.Name == "" && s.Path == "" && s.Source == ""
}

// Entries returns the vertex and fragment entry points with defaults applied.
func (s ShaderDesc) Entries() (vertex, fragment string) {
	vertex, fragment = s.VertexEntry, s.FragmentEntry
	if vertex == "" {
		vertex = "vs_main"
	}
	if fragment == "" {
		fragment = "fs_main"
	}
	return vertex, fragment
}

// UniformBinding declares a uniform buffer slot used by a pipeline.
type UniformBinding struct {
	Set     uint32
	Binding uint32
	Size    uint64
}

// PipelineStateObject describes the fixed-function and shader state of a
// graphics pipeline. Backends cache compiled pipelines by [PipelineStateObject.Key].
type PipelineStateObject struct {
	// Name is a debug label.
	Name string

	// Shader is the program bound by the pipeline.
	Shader ShaderDesc

	// ColorFormats are the render target formats, in attachment order.
	ColorFormats []gputypes.TextureFormat

	// DepthFormat is the depth attachment format, or TextureFormatUndefined.
	DepthFormat gputypes.TextureFormat

	// DepthTest enables depth comparison with DepthCompare.
	DepthTest bool

	// DepthWrite enables writing depth.
	DepthWrite bool

	// DepthCompare is the depth comparison function when DepthTest is set.
	DepthCompare gputypes.CompareFunction

	// CullMode selects which faces are culled.
	CullMode gputypes.CullMode

	// Topology is the primitive topology.
	Topology gputypes.PrimitiveTopology

	// SampleCount is the MSAA sample count (0 means 1).
	SampleCount uint32

	// Uniforms lists the uniform buffer bindings the shader expects.
	Uniforms []UniformBinding

	// VertexBuffers describes the vertex buffer slots read by the vertex stage.
	// Slot i matches SetVertexData(i, ...).
	VertexBuffers []gputypes.VertexBufferLayout
}

// IsZero reports whether the PSO was never set.
func (p PipelineStateObject) IsZero() bool {
	return p.Name == "" && p.Shader.IsZero() && len(p.ColorFormats) == 0 &&
		p.DepthFormat == gputypes.TextureFormatUndefined
}

// Key returns a stable hash of every field that affects the compiled pipeline.
// Name is a label and does not participate.
func (p PipelineStateObject) Key() uint64 {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%s|%s|", p.Shader.Name, p.Shader.Path, p.Shader.VertexEntry, p.Shader.FragmentEntry, p.Shader.Source)
	for _, f := range p.ColorFormats {
		fmt.Fprintf(&b, "c%d,", f)
	}
	fmt.Fprintf(&b, "|d%d|%t|%t|%d|%d|%d|%d|", p.DepthFormat, p.DepthTest, p.DepthWrite,
		p.DepthCompare, p.CullMode, p.Topology, p.SampleCount)
	for _, u := range p.Uniforms {
		fmt.Fprintf(&b, "u%d.%d.%d,", u.Set, u.Binding, u.Size)
	}
	for _, vb := range p.VertexBuffers {
		fmt.Fprintf(&b, "|v%d.%d", vb.ArrayStride, vb.StepMode)
		for _, a := range vb.Attributes {
			fmt.Fprintf(&b, ",%d@%d:%d", a.Format, a.Offset, a.ShaderLocation)
		}
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(b.String()))
	return h.Sum64()
}

// WithTargets returns a copy of p whose attachment formats match desc.
// The render graph uses it to keep a pass's PSO consistent with the
// render pass it is bound inside.
func (p PipelineStateObject) WithTargets(desc RenderpassDescription) PipelineStateObject {
	if len(p.ColorFormats) == 0 {
		p.ColorFormats = desc.ColorFormats()
	}
	if p.DepthFormat == gputypes.TextureFormatUndefined {
		p.DepthFormat = desc.DepthFormat()
	}
	return p
}
