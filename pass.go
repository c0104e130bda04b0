// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"fmt"

	"github.com/gogpu/rendergraph/rhi"
)

// SetupFunc declares a pass's resources through b and fills in data, which
// is handed to the pass's ExecuteFunc by value.
type SetupFunc[T any] func(data *T, b *Builder) error

// ExecuteFunc records the pass's GPU commands. When it runs, barriers for
// every declared access have been recorded and, unless the pass declared no
// attachments, a render pass scope is open.
type ExecuteFunc[T any] func(data T, ctx *ExecuteContext) error

// passRecord is the type-erased view of a pass the graph stores.
type passRecord interface {
	passName() string
	runSetup(b *Builder) error
	runExecute(ctx *ExecuteContext) error
}

// pass binds a payload type to its callbacks.
type pass[T any] struct {
	name    string
	data    T
	setup   SetupFunc[T]
	execute ExecuteFunc[T]
}

func (p *pass[T]) passName() string { return p.name }

func (p *pass[T]) runSetup(b *Builder) error {
	if p.setup == nil {
		return nil
	}
	return p.setup(&p.data, b)
}

func (p *pass[T]) runExecute(ctx *ExecuteContext) error {
	return p.execute(p.data, ctx)
}

// AddPass registers a pass for the next Execute. Passes run in the order
// they are added. The payload starts as initial, is filled in by setup and
// is passed to execute by value; it is discarded when the frame retires.
//
// Registration problems (empty or duplicate name, nil execute, calls from
// inside a running frame) are reported by the next Execute.
//
//	type shadowData struct{ shadow rendergraph.TextureHandle }
//
//	rendergraph.AddPass(g, "ShadowPass",
//	    func(d *shadowData, b *rendergraph.Builder) error {
//	        d.shadow = b.CreateTexture("Shadow", rhi.Texture2D("Shadow", 1024, 1024, gputypes.TextureFormatDepth24PlusStencil8))
//	        b.WriteDepthStencil(d.shadow)
//	        return nil
//	    },
//	    func(d shadowData, ctx *rendergraph.ExecuteContext) error {
//	        ctx.Cmd.Draw(3, 1, 0, 0)
//	        return nil
//	    },
//	    shadowData{})
func AddPass[T any](g *Graph, name string, setup SetupFunc[T], execute ExecuteFunc[T], initial T) {
	switch {
	case g.state != StateUninitialized && g.state != StateRetired:
		g.lateErrs = append(g.lateErrs, contractErr(name, "AddPass", "", InvalidHandle, ErrReentrant))
		return
	case name == "":
		g.declErrs = append(g.declErrs, contractErr(name, "AddPass", "", InvalidHandle, fmt.Errorf("%w: empty name", ErrInvalidPass)))
		return
	case execute == nil:
		g.declErrs = append(g.declErrs, contractErr(name, "AddPass", "", InvalidHandle, fmt.Errorf("%w: nil execute callback", ErrInvalidPass)))
		return
	}
	for _, p := range g.passes {
		if p.passName() == name {
			g.declErrs = append(g.declErrs, contractErr(name, "AddPass", "", InvalidHandle, fmt.Errorf("%w: duplicate name", ErrInvalidPass)))
			return
		}
	}
	g.passes = append(g.passes, &pass[T]{name: name, data: initial, setup: setup, execute: execute})
}

// ExecuteContext is passed to every execute callback.
type ExecuteContext struct {
	// Graph is the graph executing the pass.
	Graph *Graph
	// Cmd is the frame's command list.
	Cmd rhi.CommandList
	// Frame is the frame's context, shared by every pass.
	Frame *FrameContext
	// Pass is the name of the running pass.
	Pass string

	decl *passDecl
}

// Texture resolves a handle to its backend texture.
func (c *ExecuteContext) Texture(h TextureHandle) (rhi.Texture, error) {
	return c.Graph.GetRHITexture(h)
}

// Renderpass returns the render pass the engine opened for this pass, or
// the manual description the pass supplied.
func (c *ExecuteContext) Renderpass() rhi.RenderpassDescription {
	return c.decl.renderpass
}

// Pipeline returns the pipeline state bound for this pass.
func (c *ExecuteContext) Pipeline() rhi.PipelineStateObject {
	return c.decl.bound
}
