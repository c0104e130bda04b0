// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// TextureUsage specifies how a texture can be used.
// These flags can be combined with bitwise OR.
type TextureUsage uint32

const (
	// TextureUsageSampled allows the texture to be read from shaders.
	TextureUsageSampled TextureUsage = 1 << iota

	// TextureUsageColorAttachment allows the texture to be a color render target.
	TextureUsageColorAttachment

	// TextureUsageDepthAttachment allows the texture to be a depth/stencil target.
	TextureUsageDepthAttachment

	// TextureUsageStorage allows the texture to be used in a storage binding.
	TextureUsageStorage

	// TextureUsageTransferSrc allows the texture to be used as a copy source.
	TextureUsageTransferSrc

	// TextureUsageTransferDst allows the texture to be used as a copy destination.
	TextureUsageTransferDst
)

// Has reports whether all bits of other are set in u.
func (u TextureUsage) Has(other TextureUsage) bool {
	return u&other == other
}

// GPU converts the usage set to WebGPU texture usage flags.
// Color and depth attachments both map to RenderAttachment.
func (u TextureUsage) GPU() gputypes.TextureUsage {
	var out gputypes.TextureUsage
	if u.Has(TextureUsageSampled) {
		out |= gputypes.TextureUsageTextureBinding
	}
	if u&(TextureUsageColorAttachment|TextureUsageDepthAttachment) != 0 {
		out |= gputypes.TextureUsageRenderAttachment
	}
	if u.Has(TextureUsageStorage) {
		out |= gputypes.TextureUsageStorageBinding
	}
	if u.Has(TextureUsageTransferSrc) {
		out |= gputypes.TextureUsageCopySrc
	}
	if u.Has(TextureUsageTransferDst) {
		out |= gputypes.TextureUsageCopyDst
	}
	return out
}

// String returns a compact representation such as "sampled|color".
func (u TextureUsage) String() string {
	if u == 0 {
		return "none"
	}
	names := [...]string{"sampled", "color", "depth", "storage", "transfer-src", "transfer-dst"}
	s := ""
	for i, name := range names {
		if u&(1<<i) == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += name
	}
	return s
}

// TextureDescriptor describes a texture to create.
// Descriptors are plain values and are never mutated after creation.
type TextureDescriptor struct {
	// Name is the debug label; render graph textures use their logical name.
	Name string

	// Width is the texture width in pixels.
	Width uint32

	// Height is the texture height in pixels.
	Height uint32

	// DepthOrArrayLayers is the array layer count (1 for a plain 2D texture).
	DepthOrArrayLayers uint32

	// MipLevelCount is the number of mipmap levels (1 for no mipmaps).
	MipLevelCount uint32

	// SampleCount is the number of samples (1 for no multisampling).
	SampleCount uint32

	// Format is the texture pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the texture will be used.
	Usage TextureUsage
}

// Texture2D returns a single-layer, single-mip descriptor. Usage defaults to
// sampled plus the attachment kind implied by format.
func Texture2D(name string, width, height uint32, format gputypes.TextureFormat) TextureDescriptor {
	usage := TextureUsageSampled | TextureUsageColorAttachment
	if IsDepthFormat(format) {
		usage = TextureUsageSampled | TextureUsageDepthAttachment
	}
	return TextureDescriptor{
		Name:               name,
		Width:              width,
		Height:             height,
		DepthOrArrayLayers: 1,
		MipLevelCount:      1,
		SampleCount:        1,
		Format:             format,
		Usage:              usage,
	}
}

// Normalized returns d with zero layer, mip and sample counts replaced by 1.
func (d TextureDescriptor) Normalized() TextureDescriptor {
	if d.DepthOrArrayLayers == 0 {
		d.DepthOrArrayLayers = 1
	}
	if d.MipLevelCount == 0 {
		d.MipLevelCount = 1
	}
	if d.SampleCount == 0 {
		d.SampleCount = 1
	}
	return d
}

// Validate reports whether the descriptor can be allocated.
func (d TextureDescriptor) Validate() error {
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("texture %q: zero size %dx%d", d.Name, d.Width, d.Height)
	}
	if d.Format == gputypes.TextureFormatUndefined {
		return fmt.Errorf("texture %q: undefined format", d.Name)
	}
	return nil
}

// Compatible reports whether a texture allocated for d can serve other.
// Size, layer count, mip count, sample count and format must match.
// Name and usage are ignored; usage coverage is checked separately.
func (d TextureDescriptor) Compatible(other TextureDescriptor) bool {
	a, b := d.Normalized(), other.Normalized()
	return a.Width == b.Width &&
		a.Height == b.Height &&
		a.DepthOrArrayLayers == b.DepthOrArrayLayers &&
		a.MipLevelCount == b.MipLevelCount &&
		a.SampleCount == b.SampleCount &&
		a.Format == b.Format
}

// SizeBytes estimates the memory footprint of the texture, ignoring mips.
func (d TextureDescriptor) SizeBytes() uint64 {
	n := d.Normalized()
	return uint64(n.Width) * uint64(n.Height) * uint64(n.DepthOrArrayLayers) *
		uint64(n.SampleCount) * uint64(BytesPerPixel(n.Format))
}

// IsDepthFormat reports whether format is a depth or depth/stencil format.
func IsDepthFormat(format gputypes.TextureFormat) bool {
	switch format {
	case gputypes.TextureFormatDepth16Unorm,
		gputypes.TextureFormatDepth24Plus,
		gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatDepth32Float:
		return true
	default:
		return false
	}
}

// BytesPerPixel returns the texel size used for memory accounting.
// Unknown formats are counted as 4 bytes.
func BytesPerPixel(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatDepth16Unorm:
		return 2
	default:
		return 4
	}
}

// Texture is a backend texture object.
type Texture interface {
	// Descriptor returns the descriptor the texture was created with.
	Descriptor() TextureDescriptor
}

// ResourceState is the barrier planner's view of how a texture is being used.
type ResourceState uint8

const (
	// StateUndefined means the contents are undefined (newly created or discarded).
	StateUndefined ResourceState = iota

	// StateColorAttachment means the texture is bound as a color render target.
	StateColorAttachment

	// StateDepthAttachment means the texture is bound as a writable depth target.
	StateDepthAttachment

	// StateDepthRead means a depth texture is sampled from shaders.
	StateDepthRead

	// StateShaderRead means the texture is sampled from shaders.
	StateShaderRead

	// StateStorage means the texture is bound for storage access.
	StateStorage

	// StateTransferSrc means the texture is the source of a copy.
	StateTransferSrc

	// StateTransferDst means the texture is the destination of a copy.
	StateTransferDst

	// StatePresent means the swapchain image is ready to be presented.
	StatePresent
)

var resourceStateNames = [...]string{
	StateUndefined:       "undefined",
	StateColorAttachment: "color-attachment",
	StateDepthAttachment: "depth-attachment",
	StateDepthRead:       "depth-read",
	StateShaderRead:      "shader-read",
	StateStorage:         "storage",
	StateTransferSrc:     "transfer-src",
	StateTransferDst:     "transfer-dst",
	StatePresent:         "present",
}

// String returns the name of the state.
func (s ResourceState) String() string {
	if int(s) < len(resourceStateNames) {
		return resourceStateNames[s]
	}
	return fmt.Sprintf("ResourceState(%d)", s)
}

// IsWrite reports whether the state allows the GPU to write the texture.
func (s ResourceState) IsWrite() bool {
	switch s {
	case StateColorAttachment, StateDepthAttachment, StateStorage, StateTransferDst:
		return true
	default:
		return false
	}
}

// Usage maps the state onto the WebGPU usage used for HAL barriers.
// Present maps to CopySrc: an offscreen backbuffer is read back or blitted
// to the surface.
func (s ResourceState) Usage() gputypes.TextureUsage {
	switch s {
	case StateColorAttachment, StateDepthAttachment:
		return gputypes.TextureUsageRenderAttachment
	case StateDepthRead, StateShaderRead:
		return gputypes.TextureUsageTextureBinding
	case StateStorage:
		return gputypes.TextureUsageStorageBinding
	case StateTransferSrc, StatePresent:
		return gputypes.TextureUsageCopySrc
	case StateTransferDst:
		return gputypes.TextureUsageCopyDst
	default:
		return 0
	}
}

// TextureBarrier transitions one texture between states.
type TextureBarrier struct {
	// Name is the logical name of the texture, for diagnostics.
	Name string

	// Texture is the backend texture; nil while planning.
	Texture Texture

	// Before is the state the texture was last left in.
	Before ResourceState

	// After is the state the next access requires.
	After ResourceState
}

// String returns "name: before -> after".
func (b TextureBarrier) String() string {
	return fmt.Sprintf("%s: %s -> %s", b.Name, b.Before, b.After)
}
