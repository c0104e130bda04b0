// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"github.com/gogpu/gputypes"
)

// AttachmentDescription describes one attachment of a render pass.
type AttachmentDescription struct {
	// Texture is the attachment target. The render graph fills it in when the
	// description is derived; manual descriptions may leave it nil and name
	// the target through the pass's declared writes.
	Texture Texture

	// Format is the attachment format.
	Format gputypes.TextureFormat

	// LoadOp is applied when the render pass begins.
	LoadOp gputypes.LoadOp

	// StoreOp is applied when the render pass ends.
	StoreOp gputypes.StoreOp

	// ClearColor is used for color attachments with LoadOpClear.
	ClearColor gputypes.Color

	// ClearDepth is used for depth attachments with LoadOpClear.
	ClearDepth float32

	// ClearStencil is used for depth/stencil attachments with LoadOpClear.
	ClearStencil uint32

	// InitialState is the state the attachment is in when the pass begins.
	InitialState ResourceState

	// FinalState is the state the attachment is left in when the pass ends.
	FinalState ResourceState
}

// RenderpassDescription describes the attachment layout of a render pass.
type RenderpassDescription struct {
	// ColorAttachments are bound in order to fragment outputs 0..n.
	ColorAttachments []AttachmentDescription

	// DepthStencil is the optional depth/stencil attachment.
	DepthStencil *AttachmentDescription
}

// IsEmpty reports whether the description has no attachments.
func (d RenderpassDescription) IsEmpty() bool {
	return len(d.ColorAttachments) == 0 && d.DepthStencil == nil
}

// ColorFormats returns the formats of the color attachments in order.
func (d RenderpassDescription) ColorFormats() []gputypes.TextureFormat {
	formats := make([]gputypes.TextureFormat, len(d.ColorAttachments))
	for i, a := range d.ColorAttachments {
		formats[i] = a.Format
	}
	return formats
}

// DepthFormat returns the depth attachment format, or TextureFormatUndefined.
func (d RenderpassDescription) DepthFormat() gputypes.TextureFormat {
	if d.DepthStencil == nil {
		return gputypes.TextureFormatUndefined
	}
	return d.DepthStencil.Format
}

// Clone returns a deep copy so callers can keep the description past the
// frame without sharing the attachment slice.
func (d RenderpassDescription) Clone() RenderpassDescription {
	out := RenderpassDescription{
		ColorAttachments: append([]AttachmentDescription(nil), d.ColorAttachments...),
	}
	if d.DepthStencil != nil {
		ds := *d.DepthStencil
		out.DepthStencil = &ds
	}
	return out
}

// Viewport is a rectangle in framebuffer coordinates with a depth range.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// FullViewport returns a viewport covering width x height with depth [0, 1].
func FullViewport(width, height uint32) Viewport {
	return Viewport{Width: float32(width), Height: float32(height), MaxDepth: 1}
}

// Rect is a scissor rectangle in pixels.
type Rect struct {
	X, Y          uint32
	Width, Height uint32
}

// FullRect returns a rectangle covering width x height.
func FullRect(width, height uint32) Rect {
	return Rect{Width: width, Height: height}
}
