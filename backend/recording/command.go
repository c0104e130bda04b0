// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"fmt"
	"strings"

	"github.com/gogpu/rendergraph/rhi"
)

// CommandType identifies the type of a recorded command.
type CommandType uint8

const (
	// Synchronization
	CmdTransition CommandType = iota // Texture state transitions

	// Render pass scope
	CmdBeginRenderpass // Open a render pass
	CmdEndRenderpass   // Close the open render pass

	// State
	CmdBindPipeline // Bind a pipeline state object
	CmdSetViewport  // Set viewport
	CmdSetScissor   // Set scissor rectangle

	// Resources
	CmdSetUniform    // Upload and bind uniform data
	CmdSetTexture    // Bind a sampled texture
	CmdSetVertexData // Upload and bind vertex data
	CmdSetIndexData  // Upload and bind index data

	// Draws
	CmdDraw        // Non-indexed draw
	CmdDrawIndexed // Indexed draw
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdTransition:      "Transition",
	CmdBeginRenderpass: "BeginRenderpass",
	CmdEndRenderpass:   "EndRenderpass",
	CmdBindPipeline:    "BindPipeline",
	CmdSetViewport:     "SetViewport",
	CmdSetScissor:      "SetScissor",
	CmdSetUniform:      "SetUniform",
	CmdSetTexture:      "SetTexture",
	CmdSetVertexData:   "SetVertexData",
	CmdSetIndexData:    "SetIndexData",
	CmdDraw:            "Draw",
	CmdDrawIndexed:     "DrawIndexed",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all recorded commands.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType

	// String returns a one-line description used in test failures and dumps.
	String() string
}

// TransitionCommand records one TransitionTextures call.
type TransitionCommand struct {
	Barriers []rhi.TextureBarrier
}

func (TransitionCommand) Type() CommandType { return CmdTransition }

func (c TransitionCommand) String() string {
	parts := make([]string, len(c.Barriers))
	for i, b := range c.Barriers {
		parts[i] = b.String()
	}
	return "Transition[" + strings.Join(parts, ", ") + "]"
}

// BeginRenderpassCommand opens a render pass with Desc.
type BeginRenderpassCommand struct {
	Desc rhi.RenderpassDescription
}

func (BeginRenderpassCommand) Type() CommandType { return CmdBeginRenderpass }

func (c BeginRenderpassCommand) String() string {
	var b strings.Builder
	b.WriteString("BeginRenderpass(")
	for i, a := range c.Desc.ColorAttachments {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s load=%v", textureName(a.Texture), a.LoadOp)
	}
	if ds := c.Desc.DepthStencil; ds != nil {
		if len(c.Desc.ColorAttachments) > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "depth %s load=%v", textureName(ds.Texture), ds.LoadOp)
	}
	b.WriteString(")")
	return b.String()
}

// EndRenderpassCommand closes the open render pass.
type EndRenderpassCommand struct{}

func (EndRenderpassCommand) Type() CommandType { return CmdEndRenderpass }
func (EndRenderpassCommand) String() string    { return "EndRenderpass" }

// BindPipelineCommand binds a PSO. Created reports whether the bind compiled
// a new pipeline rather than hitting the cache.
type BindPipelineCommand struct {
	PSO     rhi.PipelineStateObject
	Created bool
}

func (BindPipelineCommand) Type() CommandType { return CmdBindPipeline }

func (c BindPipelineCommand) String() string {
	return fmt.Sprintf("BindPipeline(%s)", c.PSO.Name)
}

// SetViewportCommand sets the viewport.
type SetViewportCommand struct {
	Viewport rhi.Viewport
}

func (SetViewportCommand) Type() CommandType { return CmdSetViewport }

func (c SetViewportCommand) String() string {
	return fmt.Sprintf("SetViewport(%gx%g)", c.Viewport.Width, c.Viewport.Height)
}

// SetScissorCommand sets the scissor rectangle.
type SetScissorCommand struct {
	Rect rhi.Rect
}

func (SetScissorCommand) Type() CommandType { return CmdSetScissor }

func (c SetScissorCommand) String() string {
	return fmt.Sprintf("SetScissor(%dx%d)", c.Rect.Width, c.Rect.Height)
}

// SetUniformCommand uploads a copy of Data to (Set, Binding).
type SetUniformCommand struct {
	Set, Binding uint32
	Data         []byte
}

func (SetUniformCommand) Type() CommandType { return CmdSetUniform }

func (c SetUniformCommand) String() string {
	return fmt.Sprintf("SetUniform(%d.%d, %d bytes)", c.Set, c.Binding, len(c.Data))
}

// SetTextureCommand binds Texture at (Set, Binding).
type SetTextureCommand struct {
	Set, Binding uint32
	Texture      rhi.Texture
}

func (SetTextureCommand) Type() CommandType { return CmdSetTexture }

func (c SetTextureCommand) String() string {
	return fmt.Sprintf("SetTexture(%d.%d, %s)", c.Set, c.Binding, textureName(c.Texture))
}

// SetVertexDataCommand uploads vertex data to Slot.
type SetVertexDataCommand struct {
	Slot uint32
	Size int
}

func (SetVertexDataCommand) Type() CommandType { return CmdSetVertexData }

func (c SetVertexDataCommand) String() string {
	return fmt.Sprintf("SetVertexData(%d, %d bytes)", c.Slot, c.Size)
}

// SetIndexDataCommand uploads Count 16-bit indices.
type SetIndexDataCommand struct {
	Count int
}

func (SetIndexDataCommand) Type() CommandType { return CmdSetIndexData }

func (c SetIndexDataCommand) String() string {
	return fmt.Sprintf("SetIndexData(%d)", c.Count)
}

// DrawCommand is a non-indexed draw.
type DrawCommand struct {
	VertexCount, InstanceCount, FirstVertex, FirstInstance uint32
}

func (DrawCommand) Type() CommandType { return CmdDraw }

func (c DrawCommand) String() string {
	return fmt.Sprintf("Draw(%d, %d)", c.VertexCount, c.InstanceCount)
}

// DrawIndexedCommand is an indexed draw.
type DrawIndexedCommand struct {
	IndexCount, InstanceCount, FirstIndex uint32
	BaseVertex                            int32
	FirstInstance                         uint32
}

func (DrawIndexedCommand) Type() CommandType { return CmdDrawIndexed }

func (c DrawIndexedCommand) String() string {
	return fmt.Sprintf("DrawIndexed(%d, %d)", c.IndexCount, c.InstanceCount)
}

func textureName(t rhi.Texture) string {
	if t == nil {
		return "<nil>"
	}
	return t.Descriptor().Name
}
