// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rendergraph/rhi"
)

// transient holds per-submission buffers and bind groups. They are freed
// when the submission is waited on.
type transient struct {
	buffers []hal.Buffer
	groups  []hal.BindGroup
}

func (t *transient) release(dev hal.Device) {
	for _, g := range t.groups {
		dev.DestroyBindGroup(g)
	}
	for _, b := range t.buffers {
		dev.DestroyBuffer(b)
	}
	t.groups, t.buffers = nil, nil
}

type uniformBuffer struct {
	buf  hal.Buffer
	size uint64
}

// CommandList records into a HAL command encoder. Errors from calls that
// cannot return one are kept and reported by Submit.
type CommandList struct {
	dev     *Device
	label   string
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
	bound   *pipeline

	// uniforms holds the buffers set for the bound pipeline, per set and
	// binding. A set is rebound before the next draw when dirty.
	uniforms map[uint32]map[uint32]uniformBuffer
	dirty    map[uint32]bool

	res    *transient
	err    error
	closed bool
}

var _ rhi.CommandList = (*CommandList)(nil)

// Label returns the debug label.
func (c *CommandList) Label() string { return c.label }

func (c *CommandList) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// TransitionTextures records texture barriers. Barriers are only legal
// between render passes.
func (c *CommandList) TransitionTextures(barriers []rhi.TextureBarrier) {
	if c.closed || len(barriers) == 0 {
		return
	}
	if c.pass != nil {
		c.fail(errors.New("native: texture transition inside a render pass"))
		return
	}
	if hb := c.dev.halBarriers(barriers); len(hb) > 0 {
		c.encoder.TransitionTextures(hb)
	}
}

func (c *CommandList) attachmentView(a rhi.AttachmentDescription) (hal.TextureView, error) {
	tex, ok := a.Texture.(*Texture)
	if !ok || tex == nil {
		return nil, ErrForeignTexture
	}
	if tex.dev != c.dev {
		return nil, ErrForeignTexture
	}
	if tex.destroyed {
		return nil, fmt.Errorf("native: attachment %q was destroyed", tex.desc.Name)
	}
	return tex.view, nil
}

// BeginRenderpass opens a HAL render pass over desc's attachments.
func (c *CommandList) BeginRenderpass(desc rhi.RenderpassDescription) error {
	if c.closed {
		return rhi.ErrCommandListClosed
	}
	if c.pass != nil {
		return errors.New("native: render pass already open")
	}

	rpDesc := &hal.RenderPassDescriptor{Label: c.label}
	for i, a := range desc.ColorAttachments {
		view, err := c.attachmentView(a)
		if err != nil {
			return fmt.Errorf("native: color attachment %d: %w", i, err)
		}
		rpDesc.ColorAttachments = append(rpDesc.ColorAttachments, hal.RenderPassColorAttachment{
			View:       view,
			LoadOp:     a.LoadOp,
			StoreOp:    a.StoreOp,
			ClearValue: a.ClearColor,
		})
	}
	if ds := desc.DepthStencil; ds != nil {
		view, err := c.attachmentView(*ds)
		if err != nil {
			return fmt.Errorf("native: depth attachment: %w", err)
		}
		att := &hal.RenderPassDepthStencilAttachment{
			View:            view,
			DepthLoadOp:     ds.LoadOp,
			DepthStoreOp:    ds.StoreOp,
			DepthClearValue: ds.ClearDepth,
		}
		if hasStencil(ds.Format) {
			att.StencilLoadOp = ds.LoadOp
			att.StencilStoreOp = ds.StoreOp
			att.StencilClearValue = ds.ClearStencil
		}
		rpDesc.DepthStencilAttachment = att
	}

	c.pass = c.encoder.BeginRenderPass(rpDesc)
	c.bound = nil
	return nil
}

// EndRenderpass closes the open render pass.
func (c *CommandList) EndRenderpass() {
	if c.pass == nil {
		return
	}
	c.pass.End()
	c.pass = nil
	c.bound = nil
}

// BindPipeline binds the pipeline for pso, compiling it on first use.
func (c *CommandList) BindPipeline(pso rhi.PipelineStateObject) error {
	if c.closed {
		return rhi.ErrCommandListClosed
	}
	if c.pass == nil {
		return ErrNoRenderpass
	}
	p, err := c.dev.pipelines.GetOrCreate(pso.Key(), func() (*pipeline, error) {
		return c.dev.createPipeline(pso)
	})
	if err != nil {
		return err
	}
	c.pass.SetPipeline(p.raw)
	if c.bound != p {
		c.bound = p
		c.uniforms = nil
		c.dirty = nil
	}
	return nil
}

// SetViewport sets the viewport of the open render pass.
func (c *CommandList) SetViewport(vp rhi.Viewport) {
	if c.pass == nil {
		c.fail(fmt.Errorf("native: SetViewport: %w", ErrNoRenderpass))
		return
	}
	c.pass.SetViewport(vp.X, vp.Y, vp.Width, vp.Height, vp.MinDepth, vp.MaxDepth)
}

// SetScissor sets the scissor rectangle of the open render pass.
func (c *CommandList) SetScissor(r rhi.Rect) {
	if c.pass == nil {
		c.fail(fmt.Errorf("native: SetScissor: %w", ErrNoRenderpass))
		return
	}
	c.pass.SetScissorRect(r.X, r.Y, r.Width, r.Height)
}

// upload creates a buffer for data that lives until the submission completes.
func (c *CommandList) upload(label string, usage gputypes.BufferUsage, data []byte, align int) (hal.Buffer, uint64, error) {
	size := (len(data) + align - 1) / align * align
	if size == 0 {
		size = align
	}
	buf, err := c.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(size),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("native: create %s buffer: %w", label, err)
	}
	c.res.buffers = append(c.res.buffers, buf)
	if len(data) < size {
		padded := make([]byte, size)
		copy(padded, data)
		data = padded
	}
	c.dev.queue.WriteBuffer(buf, 0, data)
	return buf, uint64(size), nil
}

// SetUniform uploads data and binds it at (set, binding) for the following
// draws. The binding must be declared by the bound pipeline.
func (c *CommandList) SetUniform(set, binding uint32, data []byte) error {
	if c.closed {
		return rhi.ErrCommandListClosed
	}
	if c.bound == nil {
		return ErrNoPipeline
	}
	decl, ok := c.bound.binding(set, binding)
	if !ok {
		return fmt.Errorf("%w: (%d, %d) in %q", ErrUnknownBinding, set, binding, c.bound.name)
	}
	if decl.Size > 0 && uint64(len(data)) > decl.Size {
		return fmt.Errorf("native: uniform (%d, %d) is %d bytes, pipeline declares %d", set, binding, len(data), decl.Size)
	}
	buf, size, err := c.upload(fmt.Sprintf("%s_uniform_%d_%d", c.label, set, binding), gputypes.BufferUsageUniform, data, 16)
	if err != nil {
		return err
	}
	if c.uniforms == nil {
		c.uniforms = make(map[uint32]map[uint32]uniformBuffer)
		c.dirty = make(map[uint32]bool)
	}
	if c.uniforms[set] == nil {
		c.uniforms[set] = make(map[uint32]uniformBuffer)
	}
	c.uniforms[set][binding] = uniformBuffer{buf: buf, size: size}
	c.dirty[set] = true
	return nil
}

// SetTexture is not supported: pipelines built from a PipelineStateObject
// only declare uniform buffers.
func (c *CommandList) SetTexture(set, binding uint32, _ rhi.Texture) error {
	return fmt.Errorf("native: SetTexture(%d, %d): %w", set, binding, rhi.ErrUnsupported)
}

// SetVertexData uploads data and binds it at slot.
func (c *CommandList) SetVertexData(slot uint32, data []byte) error {
	if c.closed {
		return rhi.ErrCommandListClosed
	}
	if c.pass == nil {
		return ErrNoRenderpass
	}
	buf, _, err := c.upload(fmt.Sprintf("%s_vertex_%d", c.label, slot), gputypes.BufferUsageVertex, data, 4)
	if err != nil {
		return err
	}
	c.pass.SetVertexBuffer(slot, buf, 0)
	return nil
}

// SetIndexData uploads 16-bit indices for DrawIndexed.
func (c *CommandList) SetIndexData(indices []uint16) error {
	if c.closed {
		return rhi.ErrCommandListClosed
	}
	if c.pass == nil {
		return ErrNoRenderpass
	}
	data := make([]byte, len(indices)*2)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(data[i*2:], idx)
	}
	buf, _, err := c.upload(c.label+"_index", gputypes.BufferUsageIndex, data, 4)
	if err != nil {
		return err
	}
	c.pass.SetIndexBuffer(buf, gputypes.IndexFormatUint16, 0)
	return nil
}

// flushBindings creates bind groups for sets whose uniforms changed.
func (c *CommandList) flushBindings() bool {
	for set, decls := range c.bound.bindings {
		if len(decls) > 0 && c.uniforms[uint32(set)] == nil {
			c.fail(fmt.Errorf("native: pipeline %q: no uniforms set for group %d before draw", c.bound.name, set))
			return false
		}
	}
	for set, dirty := range c.dirty {
		if !dirty {
			continue
		}
		decls := c.bound.bindings[set]
		entries := make([]gputypes.BindGroupEntry, 0, len(decls))
		for _, d := range decls {
			u, ok := c.uniforms[set][d.Binding]
			if !ok {
				c.fail(fmt.Errorf("native: pipeline %q: uniform (%d, %d) not set before draw", c.bound.name, set, d.Binding))
				return false
			}
			entries = append(entries, gputypes.BindGroupEntry{
				Binding:  d.Binding,
				Resource: gputypes.BufferBinding{Buffer: u.buf.NativeHandle(), Offset: 0, Size: u.size},
			})
		}
		group, err := c.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   fmt.Sprintf("%s_set%d", c.bound.name, set),
			Layout:  c.bound.groups[set],
			Entries: entries,
		})
		if err != nil {
			c.fail(fmt.Errorf("native: bind group %d: %w", set, err))
			return false
		}
		c.res.groups = append(c.res.groups, group)
		c.pass.SetBindGroup(set, group, nil)
		c.dirty[set] = false
	}
	return true
}

func (c *CommandList) readyToDraw(op string) bool {
	switch {
	case c.closed:
		return false
	case c.pass == nil:
		c.fail(fmt.Errorf("native: %s: %w", op, ErrNoRenderpass))
		return false
	case c.bound == nil:
		c.fail(fmt.Errorf("native: %s: %w", op, ErrNoPipeline))
		return false
	}
	return c.flushBindings()
}

// Draw issues a non-indexed draw.
func (c *CommandList) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !c.readyToDraw("Draw") {
		return
	}
	c.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// DrawIndexed issues an indexed draw.
func (c *CommandList) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if !c.readyToDraw("DrawIndexed") {
		return
	}
	c.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

// Discard abandons the recording and frees its transient buffers.
func (c *CommandList) Discard() {
	if c.closed {
		return
	}
	if c.pass != nil {
		c.pass.End()
		c.pass = nil
	}
	c.encoder.DiscardEncoding()
	c.res.release(c.dev.device)
	c.closed = true
	c.bound = nil
	c.dev.listClosed()
}
