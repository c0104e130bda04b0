// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rhi defines the render hardware interface consumed by the render
// graph.
//
// The graph core depends only on the interfaces in this package: [Device],
// [CommandList], [Texture] and [Swapchain]. Concrete implementations live in
// backend packages and are selected once at startup through the backend
// registry:
//
//   - backend/native: GPU rendering on the gogpu/wgpu HAL
//   - backend/recording: headless command log, used by tests and tooling
//
// # Vocabulary
//
// Texture formats, load/store operations and clear colors reuse the WebGPU
// types from github.com/gogpu/gputypes so descriptors flow to the HAL without
// conversion. Resource states ([ResourceState]) are the barrier planner's view
// of a texture; each state maps onto a gputypes.TextureUsage for the HAL
// barrier call.
//
// # Ownership
//
// Textures created through [Device.CreateTexture] are owned by the caller and
// must be released with [Device.DestroyTexture]. Command lists are single use:
// they are either submitted or discarded. Swapchain images are owned by the
// swapchain and are only valid between Acquire and Present.
package rhi
