// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph/rhi"
)

// Texture is a HAL texture with its default view.
type Texture struct {
	dev       *Device
	raw       hal.Texture
	view      hal.TextureView
	desc      rhi.TextureDescriptor
	swapchain bool
	destroyed bool
}

// Descriptor returns the descriptor the texture was created with.
func (t *Texture) Descriptor() rhi.TextureDescriptor { return t.desc }

// Raw returns the HAL texture, or nil after destruction.
func (t *Texture) Raw() hal.Texture {
	if t.destroyed {
		return nil
	}
	return t.raw
}

// View returns the default texture view, or nil after destruction.
func (t *Texture) View() hal.TextureView {
	if t.destroyed {
		return nil
	}
	return t.view
}

// newTexture creates a 2D texture and its default view.
func newTexture(dev *Device, desc rhi.TextureDescriptor) (*Texture, error) {
	desc = desc.Normalized()
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	raw, err := dev.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Name,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: desc.DepthOrArrayLayers,
		},
		MipLevelCount: desc.MipLevelCount,
		SampleCount:   desc.SampleCount,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage.GPU() | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture %q: %w", desc.Name, err)
	}

	view, err := dev.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label: desc.Name + "_view",
	})
	if err != nil {
		dev.device.DestroyTexture(raw)
		return nil, fmt.Errorf("native: create view for %q: %w", desc.Name, err)
	}
	return &Texture{dev: dev, raw: raw, view: view, desc: desc}, nil
}

// destroy releases the view and texture. Safe to call twice.
func (t *Texture) destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.dev.device.DestroyTextureView(t.view)
	t.dev.device.DestroyTexture(t.raw)
}

// stateUsage maps a barrier state to the WebGPU usage the HAL derives
// layouts and access masks from. Presented images stay readable as a copy
// source so a host can blit them to its surface.
func stateUsage(s rhi.ResourceState) gputypes.TextureUsage {
	switch s {
	case rhi.StateColorAttachment, rhi.StateDepthAttachment:
		return gputypes.TextureUsageRenderAttachment
	case rhi.StateShaderRead, rhi.StateDepthRead:
		return gputypes.TextureUsageTextureBinding
	case rhi.StateStorage:
		return gputypes.TextureUsageStorageBinding
	case rhi.StateTransferSrc, rhi.StatePresent:
		return gputypes.TextureUsageCopySrc
	case rhi.StateTransferDst:
		return gputypes.TextureUsageCopyDst
	default:
		return 0
	}
}

// halBarriers converts render graph barriers into HAL barriers, skipping
// nil textures and textures owned by another device.
func (d *Device) halBarriers(barriers []rhi.TextureBarrier) []hal.TextureBarrier {
	out := make([]hal.TextureBarrier, 0, len(barriers))
	for _, b := range barriers {
		tex, ok := b.Texture.(*Texture)
		if !ok || tex == nil || tex.dev != d || tex.destroyed {
			continue
		}
		out = append(out, hal.TextureBarrier{
			Texture: tex.raw,
			Usage: hal.TextureUsageTransition{
				OldUsage: stateUsage(b.Before),
				NewUsage: stateUsage(b.After),
			},
		})
	}
	return out
}

// hasStencil reports whether format carries a stencil aspect.
func hasStencil(format gputypes.TextureFormat) bool {
	return format == gputypes.TextureFormatDepth24PlusStencil8
}
