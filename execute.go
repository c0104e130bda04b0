// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"errors"
	"fmt"

	"github.com/gogpu/rendergraph/rhi"
)

// Execute runs one frame: every setup callback, then validation and barrier
// planning, then every execute callback in declaration order on one command
// list, which is submitted and presented.
//
// Contract violations abort the frame before any GPU work is recorded and
// are returned joined; each matches ErrContractViolation. An execute
// callback or backend error discards the frame's command list and skips the
// remaining passes, and an acquired swapchain image is released unpresented.
// In every case the frame retires: the pass list is cleared and the frame
// index advances.
func (g *Graph) Execute() (err error) {
	if g.released {
		return ErrReleased
	}
	if g.state != StateUninitialized && g.state != StateRetired {
		return ErrReentrant
	}
	defer func() {
		if err != nil && g.backbuffer != nil {
			g.dev.Swapchain().Release()
		}
		late := g.lateErrs
		g.retire()
		if len(late) > 0 {
			err = errors.Join(err, errors.Join(late...))
		}
	}()

	// Building.
	g.state = StateBuilding
	g.frame = &FrameContext{
		FrameIndex:       g.frameIndex,
		FrameNumber:      g.frameNumber,
		RenderResolution: g.opts.render,
		OutputResolution: g.opts.output,
	}
	if g.frameGlobals != nil {
		g.frameGlobals(g.frame)
	}
	slot := g.submissions.Get()
	if err := g.dev.Wait(*slot, rhi.DefaultWaitTimeout); err != nil {
		return g.fail(fmt.Errorf("rendergraph: wait for frame slot %d: %w", g.frameIndex, err))
	}
	*slot = 0

	decls, errs := g.runSetups()
	if len(errs) > 0 {
		return g.contractFailure(errs)
	}

	// Barriered.
	g.state = StateBarriered
	edges, errs := g.schedule(decls)
	if len(errs) > 0 {
		return g.contractFailure(errs)
	}
	g.last = frameSnapshot{decls: decls, edges: edges, names: g.table.names()}

	if err := g.table.realize(g.dev, *g.caches.Get(), g.opts.evictAfter, g.log()); err != nil {
		return g.fail(err)
	}
	if touchesSwapchain(decls) {
		img, err := g.dev.Swapchain().Acquire()
		if err != nil {
			return g.fail(fmt.Errorf("rendergraph: acquire swapchain image: %w", err))
		}
		g.backbuffer = img
	}
	plan := g.plan(decls, g.backbuffer)
	g.last.plan = plan

	// Executing.
	g.state = StateExecuting
	return g.record(decls, plan)
}

// runSetups runs every setup callback. All of them run even after a
// failure, so one frame reports every broken declaration.
func (g *Graph) runSetups() ([]*passDecl, []error) {
	errs := append([]error(nil), g.declErrs...)
	decls := make([]*passDecl, 0, len(g.passes))
	for i, p := range g.passes {
		d := newPassDecl(i, p)
		b := &Builder{g: g, decl: d}
		if err := p.runSetup(b); err != nil {
			errs = append(errs, fmt.Errorf("rendergraph: pass %q setup: %w", d.name, err))
		}
		errs = append(errs, d.errs...)
		decls = append(decls, d)
	}
	g.decls = decls
	return decls, errs
}

func touchesSwapchain(decls []*passDecl) bool {
	for _, d := range decls {
		if d.swapchainRead || d.writesSwapchain() {
			return true
		}
	}
	return false
}

// record replays the passes into a fresh command list, then submits and
// presents it.
func (g *Graph) record(decls []*passDecl, plan FramePlan) error {
	cmd, err := g.dev.BeginCommandList(fmt.Sprintf("frame %d", g.frameNumber))
	if err != nil {
		return g.fail(fmt.Errorf("rendergraph: begin command list: %w", err))
	}

	if g.preRender != nil {
		if err := g.preRender(g, cmd); err != nil {
			cmd.Discard()
			return g.fail(fmt.Errorf("rendergraph: pre-render: %w", err))
		}
	}

	for _, d := range decls {
		if err := g.runPass(cmd, d); err != nil {
			cmd.Discard()
			return g.fail(fmt.Errorf("rendergraph: pass %q: %w", d.name, err))
		}
	}

	if g.postRender != nil {
		if err := g.postRender(g, cmd); err != nil {
			cmd.Discard()
			return g.fail(fmt.Errorf("rendergraph: post-render: %w", err))
		}
	}

	if len(plan.Final) > 0 {
		cmd.TransitionTextures(plan.Final)
	}
	sub, err := g.dev.Submit(cmd)
	if err != nil {
		return g.fail(fmt.Errorf("rendergraph: submit: %w", err))
	}
	*g.submissions.Get() = sub

	if g.backbuffer != nil {
		if err := g.dev.Swapchain().Present(); err != nil {
			return g.fail(fmt.Errorf("rendergraph: present: %w", err))
		}
		g.backbuffer = nil
	}
	return nil
}

// runPass records one pass: its barriers, its render pass scope with
// pipeline, viewport and scissor, and its execute callback.
func (g *Graph) runPass(cmd rhi.CommandList, d *passDecl) error {
	if len(d.barriers) > 0 {
		cmd.TransitionTextures(d.barriers)
	}

	open := !d.renderpass.IsEmpty()
	if open {
		if err := cmd.BeginRenderpass(d.renderpass); err != nil {
			return err
		}
		if !d.bound.IsZero() {
			if err := cmd.BindPipeline(d.bound); err != nil {
				cmd.EndRenderpass()
				return err
			}
		}
		vp, sc := g.viewportFor(d)
		cmd.SetViewport(rhi.FullViewport(vp.Width, vp.Height))
		cmd.SetScissor(rhi.FullRect(sc.Width, sc.Height))
	}

	err := d.rec.runExecute(&ExecuteContext{Graph: g, Cmd: cmd, Frame: g.frame, Pass: d.name, decl: d})
	if open {
		cmd.EndRenderpass()
	}
	return err
}

// viewportFor returns the viewport and scissor sizes of d. Both default to
// the size of the pass's first attachment.
func (g *Graph) viewportFor(d *passDecl) (vp, sc Resolution) {
	def := g.opts.render
	switch {
	case len(d.renderpass.ColorAttachments) > 0 && d.renderpass.ColorAttachments[0].Texture != nil:
		desc := d.renderpass.ColorAttachments[0].Texture.Descriptor()
		def = Resolution{Width: desc.Width, Height: desc.Height}
	case d.renderpass.DepthStencil != nil && d.renderpass.DepthStencil.Texture != nil:
		desc := d.renderpass.DepthStencil.Texture.Descriptor()
		def = Resolution{Width: desc.Width, Height: desc.Height}
	}
	vp, sc = def, def
	if d.viewport != nil {
		vp = *d.viewport
	}
	if d.scissor != nil {
		sc = *d.scissor
	}
	return vp, sc
}

// contractFailure reports a frame aborted by contract violations.
func (g *Graph) contractFailure(errs []error) error {
	err := errors.Join(errs...)
	g.log().Error("rendergraph: frame aborted", "frame", g.frameNumber, "errors", len(errs), "err", err)
	if g.opts.panicOnError {
		panic(err)
	}
	return err
}

// fail reports a frame aborted by an execute or backend error.
func (g *Graph) fail(err error) error {
	g.log().Error("rendergraph: frame aborted", "frame", g.frameNumber, "state", g.state, "err", err)
	return err
}

// retire ends the frame whatever its outcome: pass data is dropped, handles
// issued this frame stop resolving and the frame index advances.
func (g *Graph) retire() {
	g.passes = nil
	g.declErrs = nil
	g.lateErrs = nil
	g.decls = nil
	g.frame = nil
	g.backbuffer = nil
	g.frameIndex = (g.frameIndex + 1) % g.opts.framesInFlight
	g.frameNumber++
	g.table = newFrameTable(generationFor(g.frameNumber))
	g.state = StateRetired
}
