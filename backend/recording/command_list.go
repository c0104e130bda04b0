// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"errors"
	"fmt"

	"github.com/gogpu/rendergraph/rhi"
)

// CommandList records commands in order. It is not safe for concurrent use,
// matching the single-recorder contract of real command lists.
type CommandList struct {
	dev    *Device
	label  string
	cmds   []Command
	inPass bool
	closed bool
}

var _ rhi.CommandList = (*CommandList)(nil)

// Label returns the debug label.
func (c *CommandList) Label() string { return c.label }

// Commands returns the commands recorded so far.
func (c *CommandList) Commands() []Command { return c.cmds }

func (c *CommandList) record(cmd Command) {
	if c.closed {
		return
	}
	c.cmds = append(c.cmds, cmd)
}

// TransitionTextures records the barriers and updates device state tracking.
func (c *CommandList) TransitionTextures(barriers []rhi.TextureBarrier) {
	if len(barriers) == 0 || c.closed {
		return
	}
	c.record(TransitionCommand{Barriers: append([]rhi.TextureBarrier(nil), barriers...)})
	c.dev.transition(barriers)
}

// BeginRenderpass opens a render pass. Every attachment must carry a texture.
func (c *CommandList) BeginRenderpass(desc rhi.RenderpassDescription) error {
	if c.closed {
		return rhi.ErrCommandListClosed
	}
	if c.inPass {
		return errors.New("recording: render pass already open")
	}
	for i, a := range desc.ColorAttachments {
		if a.Texture == nil {
			return fmt.Errorf("recording: color attachment %d has no texture", i)
		}
	}
	if desc.DepthStencil != nil && desc.DepthStencil.Texture == nil {
		return errors.New("recording: depth attachment has no texture")
	}
	c.inPass = true
	c.record(BeginRenderpassCommand{Desc: desc.Clone()})
	return nil
}

// EndRenderpass closes the open render pass.
func (c *CommandList) EndRenderpass() {
	if !c.inPass {
		return
	}
	c.inPass = false
	c.record(EndRenderpassCommand{})
}

// BindPipeline records a bind and resolves the PSO through the cache.
func (c *CommandList) BindPipeline(pso rhi.PipelineStateObject) error {
	if c.closed {
		return rhi.ErrCommandListClosed
	}
	created, err := c.dev.bindPipeline(pso)
	if err != nil {
		return err
	}
	c.record(BindPipelineCommand{PSO: pso, Created: created})
	return nil
}

// SetViewport records a viewport change.
func (c *CommandList) SetViewport(vp rhi.Viewport) {
	c.record(SetViewportCommand{Viewport: vp})
}

// SetScissor records a scissor change.
func (c *CommandList) SetScissor(rect rhi.Rect) {
	c.record(SetScissorCommand{Rect: rect})
}

// SetUniform records a copy of data.
func (c *CommandList) SetUniform(set, binding uint32, data []byte) error {
	if c.closed {
		return rhi.ErrCommandListClosed
	}
	c.record(SetUniformCommand{Set: set, Binding: binding, Data: append([]byte(nil), data...)})
	return nil
}

// SetTexture records a texture binding.
func (c *CommandList) SetTexture(set, binding uint32, tex rhi.Texture) error {
	if c.closed {
		return rhi.ErrCommandListClosed
	}
	if tex == nil {
		return fmt.Errorf("recording: SetTexture(%d, %d): nil texture", set, binding)
	}
	c.record(SetTextureCommand{Set: set, Binding: binding, Texture: tex})
	return nil
}

// SetVertexData records a vertex upload.
func (c *CommandList) SetVertexData(slot uint32, data []byte) error {
	if c.closed {
		return rhi.ErrCommandListClosed
	}
	c.record(SetVertexDataCommand{Slot: slot, Size: len(data)})
	return nil
}

// SetIndexData records an index upload.
func (c *CommandList) SetIndexData(indices []uint16) error {
	if c.closed {
		return rhi.ErrCommandListClosed
	}
	c.record(SetIndexDataCommand{Count: len(indices)})
	return nil
}

// Draw records a draw.
func (c *CommandList) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	c.record(DrawCommand{vertexCount, instanceCount, firstVertex, firstInstance})
}

// DrawIndexed records an indexed draw.
func (c *CommandList) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	c.record(DrawIndexedCommand{indexCount, instanceCount, firstIndex, baseVertex, firstInstance})
}

// Discard abandons the recording.
func (c *CommandList) Discard() {
	c.closed = true
	c.inPass = false
}
