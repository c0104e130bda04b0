// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph/rhi"
)

// CompileWGSL compiles WGSL source to SPIR-V words.
func CompileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("native: compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("native: compile shader: SPIR-V length %d is not word aligned", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return code, nil
}

// shaderPath resolves a shader file against the device's shader directory.
// It returns "" for inline shaders.
func (d *Device) shaderPath(desc rhi.ShaderDesc) string {
	if desc.Source != "" || desc.Path == "" {
		return ""
	}
	if filepath.IsAbs(desc.Path) || d.opts.ShaderDir == "" {
		return filepath.Clean(desc.Path)
	}
	return filepath.Join(d.opts.ShaderDir, desc.Path)
}

// loadShader returns the WGSL text for desc.
func (d *Device) loadShader(desc rhi.ShaderDesc) (string, error) {
	if desc.Source != "" {
		return desc.Source, nil
	}
	path := d.shaderPath(desc)
	if path == "" {
		return "", fmt.Errorf("native: shader %q has neither source nor path", desc.Name)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("native: load shader %q: %w", desc.Name, err)
	}
	return string(src), nil
}

// createShaderModule loads and compiles desc. Vulkan devices receive
// SPIR-V compiled by naga; other HALs take WGSL directly.
func (d *Device) createShaderModule(desc rhi.ShaderDesc) (hal.ShaderModule, error) {
	src, err := d.loadShader(desc)
	if err != nil {
		return nil, err
	}

	source := hal.ShaderSource{WGSL: src}
	if d.spirv {
		code, err := CompileWGSL(src)
		if err != nil {
			return nil, fmt.Errorf("%w (shader %q)", err, desc.Name)
		}
		source = hal.ShaderSource{SPIRV: code}
	}

	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Name,
		Source: source,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create shader module %q: %w", desc.Name, err)
	}
	return module, nil
}
