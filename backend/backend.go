// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Backend names.
const (
	// BackendNative renders on the GPU through the gogpu/wgpu HAL.
	BackendNative = "native"

	// BackendRecording records commands in memory without a GPU.
	BackendRecording = "recording"
)

var (
	// ErrBackendNotAvailable is returned when the requested backend is not
	// registered or could not open a device.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNoBackends is returned by Default when nothing is registered.
	ErrNoBackends = errors.New("backend: no backends registered")
)

// Options configures device creation. Zero fields take backend defaults.
type Options struct {
	// API is the graphics API name as requested by the caller, before alias
	// resolution (e.g. "vulkan", "v", "dx12").
	API string

	// Width and Height size the swapchain images.
	Width, Height uint32

	// Format is the swapchain format; TextureFormatUndefined picks
	// the backend's preferred format.
	Format gputypes.TextureFormat

	// FramesInFlight sizes the swapchain image ring.
	FramesInFlight int

	// ShaderDir is the root for relative shader paths.
	ShaderDir string

	// HotReload watches shader files and rebuilds pipelines on change.
	HotReload bool
}

// WithDefaults returns o with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Width == 0 {
		o.Width = 1920
	}
	if o.Height == 0 {
		o.Height = 1080
	}
	if o.FramesInFlight <= 0 {
		o.FramesInFlight = 2
	}
	return o
}
