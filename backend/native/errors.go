// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import "errors"

// Native backend errors.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrVulkanUnavailable is returned when the Vulkan HAL is not compiled in.
	ErrVulkanUnavailable = errors.New("native: vulkan backend not available")

	// ErrInvalidProvider is returned when a device provider does not expose
	// HAL device and queue objects.
	ErrInvalidProvider = errors.New("native: provider does not expose HAL types")

	// ErrForeignTexture is returned when a texture created by another device
	// is passed in.
	ErrForeignTexture = errors.New("native: texture belongs to another device")

	// ErrNoRenderpass is returned by draw-state calls outside a render pass.
	ErrNoRenderpass = errors.New("native: no open render pass")

	// ErrNoPipeline is returned by SetUniform before BindPipeline.
	ErrNoPipeline = errors.New("native: no pipeline bound")

	// ErrUnknownBinding is returned by SetUniform for a (set, binding) pair the
	// bound pipeline does not declare.
	ErrUnknownBinding = errors.New("native: binding not declared by pipeline")
)
