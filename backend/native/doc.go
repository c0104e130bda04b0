// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package native implements rhi.Device on the gogpu/wgpu hardware
// abstraction layer.
//
// Importing the package registers the "native" backend, which opens a
// Vulkan device:
//
//	import _ "github.com/gogpu/rendergraph/backend/native"
//
//	dev, err := backend.Get("vulkan", backend.Options{Width: 1280, Height: 720})
//
// Applications that already own a GPU device (for example a gogpu window)
// share it through [NewFromProvider]. Tests run on the noop HAL through
// [NewFromHAL].
//
// # Resources
//
// Every texture carries a default view. Barriers map onto
// hal.CommandEncoder.TransitionTextures. Pipelines are compiled on first
// bind from WGSL through naga and cached by PipelineStateObject.Key.
// Uniform, vertex and index data are uploaded into buffers owned by the
// command list and released once its submission has been waited on.
//
// # Swapchain
//
// The device renders into an offscreen ring of FramesInFlight images.
// Presenting advances the ring; hosts that own a surface copy or sample the
// presented image.
//
// # Hot Reload
//
// With Options.HotReload set, a [ShaderWatcher] watches shader files and
// drops cached pipelines built from a file when it changes, so the next
// BindPipeline recompiles it.
package native
