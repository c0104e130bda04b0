// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/rhi"
)

// BarrierPlan is the set of transitions recorded before one pass.
type BarrierPlan struct {
	PassIndex int
	Pass      string
	Barriers  []rhi.TextureBarrier
}

// FramePlan is the barrier plan of a whole frame.
type FramePlan struct {
	Passes []BarrierPlan
	// Final holds the transitions recorded after the last pass, which is
	// where the swapchain image is handed to presentation.
	Final []rhi.TextureBarrier
}

// Count returns the number of barriers in the plan.
func (p FramePlan) Count() int {
	n := len(p.Final)
	for _, bp := range p.Passes {
		n += len(bp.Barriers)
	}
	return n
}

// For returns the barriers recorded before the named pass.
func (p FramePlan) For(pass string) []rhi.TextureBarrier {
	for _, bp := range p.Passes {
		if bp.Pass == pass {
			return bp.Barriers
		}
	}
	return nil
}

// stateTracker follows each texture's state through the frame's passes.
// Every texture starts the frame Undefined: transient contents do not
// survive into the next frame.
type stateTracker struct {
	states map[TextureHandle]rhi.ResourceState
}

func (t *stateTracker) get(h TextureHandle) rhi.ResourceState {
	return t.states[h]
}

// require moves h to state and returns the barrier that does it, or false
// when h is already there. With skip set the state still advances but no
// barrier is emitted; the pass has taken over synchronization.
func (t *stateTracker) require(h TextureHandle, state rhi.ResourceState, skip bool) (rhi.TextureBarrier, bool) {
	old := t.states[h]
	t.states[h] = state
	if old == state || skip {
		return rhi.TextureBarrier{}, false
	}
	return rhi.TextureBarrier{Before: old, After: state}, true
}

// requiredState returns the state a pass needs h in for kind.
func requiredState(kind Access) rhi.ResourceState {
	switch kind {
	case AccessWriteColor:
		return rhi.StateColorAttachment
	case AccessWriteDepth:
		return rhi.StateDepthAttachment
	default:
		return rhi.StateShaderRead
	}
}

// plan computes barriers, render pass descriptions and pipeline state for
// every pass. Textures must be realized and the swapchain image acquired.
func (g *Graph) plan(decls []*passDecl, backbuffer rhi.Texture) FramePlan {
	tracker := &stateTracker{states: make(map[TextureHandle]rhi.ResourceState)}
	var fp FramePlan
	touchedSwapchain := false

	resolve := func(h TextureHandle) (rhi.Texture, string) {
		if h.IsSwapchain() {
			return backbuffer, "swapchain"
		}
		ft, _ := g.table.lookup(h)
		return ft.tex, ft.desc.Name
	}
	emit := func(d *passDecl, h TextureHandle, state rhi.ResourceState, skip bool) {
		b, ok := tracker.require(h, state, skip)
		if !ok {
			return
		}
		b.Texture, b.Name = resolve(h)
		d.barriers = append(d.barriers, b)
	}

	for _, d := range decls {
		d.barriers = nil
		initial := make(map[TextureHandle]rhi.ResourceState, len(d.writes))
		for _, a := range d.writes {
			initial[a.handle] = tracker.get(a.handle)
		}

		for _, h := range d.reads {
			emit(d, h, rhi.StateShaderRead, d.skipReads)
		}
		if d.swapchainRead {
			touchedSwapchain = true
			if !d.writesSwapchain() {
				emit(d, SwapchainHandle, rhi.StateShaderRead, d.skipReads)
			}
		}
		for _, a := range d.writes {
			if a.handle.IsSwapchain() {
				touchedSwapchain = true
			}
			emit(d, a.handle, requiredState(a.kind), d.skipWrites)
		}

		d.renderpass = g.deriveRenderpass(d, initial, resolve)
		d.bound = derivePipeline(d)

		fp.Passes = append(fp.Passes, BarrierPlan{PassIndex: d.index, Pass: d.name, Barriers: d.barriers})
		if len(d.barriers) > 0 {
			g.log().Debug("rendergraph: barriers planned", "pass", d.name, "count", len(d.barriers))
		}
	}

	if touchedSwapchain {
		if b, ok := tracker.require(SwapchainHandle, rhi.StatePresent, false); ok {
			b.Texture, b.Name = backbuffer, "swapchain"
			fp.Final = append(fp.Final, b)
		}
	}
	return fp
}

// deriveRenderpass returns the render pass for d: the manual description
// with its open attachments bound, or one derived from d's writes. Colors
// come in write order, then depth. The first writer of a texture clears
// it; passthrough writers load it.
func (g *Graph) deriveRenderpass(d *passDecl, initial map[TextureHandle]rhi.ResourceState,
	resolve func(TextureHandle) (rhi.Texture, string)) rhi.RenderpassDescription {

	attachment := func(h TextureHandle, kind Access) rhi.AttachmentDescription {
		tex, _ := resolve(h)
		a := rhi.AttachmentDescription{
			Texture:      tex,
			Format:       g.formatOf(h),
			LoadOp:       gputypes.LoadOpClear,
			StoreOp:      gputypes.StoreOpStore,
			ClearColor:   gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			ClearDepth:   1,
			InitialState: initial[h],
			FinalState:   requiredState(kind),
		}
		if d.loads[h] {
			a.LoadOp = gputypes.LoadOpLoad
		}
		return a
	}

	if d.manual != nil {
		desc := d.manual.Clone()
		colors := d.colorWrites()
		for i := range desc.ColorAttachments {
			a := &desc.ColorAttachments[i]
			if a.Texture == nil && i < len(colors) {
				a.Texture, _ = resolve(colors[i])
				a.InitialState = initial[colors[i]]
				a.FinalState = rhi.StateColorAttachment
			}
			if a.Format == gputypes.TextureFormatUndefined && a.Texture != nil {
				a.Format = a.Texture.Descriptor().Format
			}
		}
		if ds := desc.DepthStencil; ds != nil {
			if h, ok := d.depthWrite(); ok && ds.Texture == nil {
				ds.Texture, _ = resolve(h)
				ds.InitialState = initial[h]
				ds.FinalState = rhi.StateDepthAttachment
			}
			if ds.Format == gputypes.TextureFormatUndefined && ds.Texture != nil {
				ds.Format = ds.Texture.Descriptor().Format
			}
		}
		return desc
	}

	var desc rhi.RenderpassDescription
	for _, a := range d.writes {
		if a.kind == AccessWriteColor {
			desc.ColorAttachments = append(desc.ColorAttachments, attachment(a.handle, a.kind))
		}
	}
	if h, ok := d.depthWrite(); ok {
		ds := attachment(h, AccessWriteDepth)
		desc.DepthStencil = &ds
	}
	return desc
}

// derivePipeline merges SetPipeline and SetShader and fills attachment
// formats from the pass's render pass.
func derivePipeline(d *passDecl) rhi.PipelineStateObject {
	var pso rhi.PipelineStateObject
	switch {
	case d.hasPSO:
		pso = d.pso
		if pso.Shader.IsZero() {
			pso.Shader = d.shader
		}
	case !d.shader.IsZero():
		pso = rhi.PipelineStateObject{Shader: d.shader}
	default:
		return rhi.PipelineStateObject{}
	}
	if pso.Name == "" {
		pso.Name = d.name
	}
	return pso.WithTargets(d.renderpass)
}

func (g *Graph) formatOf(h TextureHandle) gputypes.TextureFormat {
	if h.IsSwapchain() {
		return g.dev.Swapchain().Format()
	}
	ft, _ := g.table.lookup(h)
	return ft.desc.Format
}
