// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"slices"

	"github.com/gogpu/rendergraph/rhi"
)

// access is one declared write.
type access struct {
	handle TextureHandle
	kind   Access
}

// passDecl is everything a pass declared during setup, plus what the
// scheduler and barrier planner derive from it.
type passDecl struct {
	index int
	name  string
	rec   passRecord

	reads         []TextureHandle
	writes        []access
	fetched       map[TextureHandle]bool
	swapchainRead bool

	shader   rhi.ShaderDesc
	pso      rhi.PipelineStateObject
	hasPSO   bool
	viewport *Resolution
	scissor  *Resolution
	manual   *rhi.RenderpassDescription

	skipReads  bool
	skipWrites bool

	errs []error

	// Derived before execution.
	loads      map[TextureHandle]bool
	barriers   []rhi.TextureBarrier
	renderpass rhi.RenderpassDescription
	bound      rhi.PipelineStateObject
}

func newPassDecl(index int, rec passRecord) *passDecl {
	return &passDecl{
		index:   index,
		name:    rec.passName(),
		rec:     rec,
		fetched: make(map[TextureHandle]bool),
		loads:   make(map[TextureHandle]bool),
	}
}

func (d *passDecl) writesSwapchain() bool {
	return slices.ContainsFunc(d.writes, func(a access) bool { return a.handle.IsSwapchain() })
}

func (d *passDecl) writeKind(h TextureHandle) (Access, bool) {
	for _, a := range d.writes {
		if a.handle == h {
			return a.kind, true
		}
	}
	return 0, false
}

func (d *passDecl) depthWrite() (TextureHandle, bool) {
	for _, a := range d.writes {
		if a.kind == AccessWriteDepth {
			return a.handle, true
		}
	}
	return InvalidHandle, false
}

func (d *passDecl) colorWrites() []TextureHandle {
	var out []TextureHandle
	for _, a := range d.writes {
		if a.kind == AccessWriteColor {
			out = append(out, a.handle)
		}
	}
	return out
}

// Builder records one pass's declarations during setup. It never touches
// the device: textures are allocated after every setup has run, so usage
// can be derived from all of a frame's accesses.
//
// Contract violations are recorded rather than returned, so one setup
// reports all of its mistakes; Execute fails the frame with the joined list.
type Builder struct {
	g    *Graph
	decl *passDecl
}

func (b *Builder) fail(op, name string, h TextureHandle, kind error) {
	b.decl.errs = append(b.decl.errs, contractErr(b.decl.name, op, name, h, kind))
}

// PassName returns the name of the pass being set up.
func (b *Builder) PassName() string { return b.decl.name }

// Frame returns the frame's context.
func (b *Builder) Frame() *FrameContext { return b.g.frame }

// RenderResolution returns the internal render resolution.
func (b *Builder) RenderResolution() Resolution { return b.g.opts.render }

// OutputResolution returns the swapchain resolution.
func (b *Builder) OutputResolution() Resolution { return b.g.opts.output }

// CreateTexture declares a transient texture for this frame and returns its
// handle. Declaring the same name again with a compatible descriptor returns
// the same handle; an incompatible descriptor is a contract violation.
func (b *Builder) CreateTexture(name string, desc rhi.TextureDescriptor) TextureHandle {
	h, err := b.g.table.create(name, desc)
	if err != nil {
		b.fail("CreateTexture", name, InvalidHandle, err)
		return InvalidHandle
	}
	return h
}

// GetTexture looks up a texture created earlier this frame. A missing name
// is a contract violation and returns InvalidHandle.
//
// Writing a handle obtained here continues the earlier writer's contents
// (passthrough): the render pass loads instead of clearing.
func (b *Builder) GetTexture(name string) TextureHandle {
	h := b.g.table.handle(name)
	if !h.IsValid() {
		b.fail("GetTexture", name, InvalidHandle, ErrTextureNotFound)
		return InvalidHandle
	}
	b.decl.fetched[h] = true
	return h
}

// ReadTexture declares a sampled read of h and returns h.
// SwapchainHandle reads the back buffer, which an earlier pass (or this
// pass, as a load) must write.
func (b *Builder) ReadTexture(h TextureHandle) TextureHandle {
	if h.IsSwapchain() {
		b.decl.swapchainRead = true
		return h
	}
	ft, ok := b.g.table.lookup(h)
	if !ok {
		b.fail("ReadTexture", "", h, ErrUnknownHandle)
		return h
	}
	if !slices.Contains(b.decl.reads, h) {
		b.decl.reads = append(b.decl.reads, h)
	}
	ft.desc.Usage |= rhi.TextureUsageSampled
	return h
}

// WriteTexture declares h as a color attachment and returns h.
// WriteTexture(SwapchainHandle) is SetAsRenderToSwapchain.
func (b *Builder) WriteTexture(h TextureHandle) TextureHandle {
	if h.IsSwapchain() {
		b.SetAsRenderToSwapchain()
		return h
	}
	ft, ok := b.g.table.lookup(h)
	switch {
	case !ok:
		b.fail("WriteTexture", "", h, ErrUnknownHandle)
		return h
	case rhi.IsDepthFormat(ft.desc.Format):
		b.fail("WriteTexture", ft.desc.Name, h, ErrInvalidAccess)
		return h
	}
	b.addWrite(h, AccessWriteColor)
	ft.desc.Usage |= rhi.TextureUsageColorAttachment
	return h
}

// WriteDepthStencil declares h as the depth/stencil attachment and returns
// h. A pass has at most one depth attachment.
func (b *Builder) WriteDepthStencil(h TextureHandle) TextureHandle {
	if h.IsSwapchain() {
		b.fail("WriteDepthStencil", "", h, ErrInvalidAccess)
		return h
	}
	ft, ok := b.g.table.lookup(h)
	switch {
	case !ok:
		b.fail("WriteDepthStencil", "", h, ErrUnknownHandle)
		return h
	case !rhi.IsDepthFormat(ft.desc.Format):
		b.fail("WriteDepthStencil", ft.desc.Name, h, ErrInvalidAccess)
		return h
	}
	if prev, ok := b.decl.depthWrite(); ok && prev != h {
		b.fail("WriteDepthStencil", ft.desc.Name, h, ErrInvalidAccess)
		return h
	}
	b.addWrite(h, AccessWriteDepth)
	ft.desc.Usage |= rhi.TextureUsageDepthAttachment
	return h
}

func (b *Builder) addWrite(h TextureHandle, kind Access) {
	if _, ok := b.decl.writeKind(h); ok {
		return
	}
	b.decl.writes = append(b.decl.writes, access{handle: h, kind: kind})
}

// SetAsRenderToSwapchain makes the back buffer one of the pass's color
// attachments, in declaration order with its other writes.
func (b *Builder) SetAsRenderToSwapchain() {
	b.addWrite(SwapchainHandle, AccessWriteColor)
}

// SetShader sets the shader used when the pass does not supply a full PSO.
func (b *Builder) SetShader(desc rhi.ShaderDesc) {
	b.decl.shader = desc
}

// SetPipeline sets the pipeline state. Attachment formats left empty are
// filled in from the pass's render pass, and an empty shader falls back to
// the one given to SetShader.
func (b *Builder) SetPipeline(pso rhi.PipelineStateObject) {
	b.decl.pso = pso
	b.decl.hasPSO = true
}

// SetViewport sets the viewport size. The default covers the first
// attachment.
func (b *Builder) SetViewport(width, height uint32) {
	b.decl.viewport = &Resolution{Width: width, Height: height}
}

// SetScissor sets the scissor size. The default covers the first attachment.
func (b *Builder) SetScissor(width, height uint32) {
	b.decl.scissor = &Resolution{Width: width, Height: height}
}

// SetRenderpass replaces the render pass the engine would derive from the
// pass's writes. Attachments with a nil Texture are bound to the pass's
// declared writes by position: color attachment i to the i-th color write,
// the depth attachment to the depth write.
func (b *Builder) SetRenderpass(desc rhi.RenderpassDescription) {
	d := desc.Clone()
	b.decl.manual = &d
}

// SkipTextureReadBarriers excludes this pass's reads from barrier planning.
// The pass's execute callback becomes responsible for their transitions.
func (b *Builder) SkipTextureReadBarriers() {
	b.decl.skipReads = true
}

// SkipTextureWriteBarriers excludes this pass's writes from barrier
// planning. The final transition of the swapchain to present is still
// recorded by the engine.
func (b *Builder) SkipTextureWriteBarriers() {
	b.decl.skipWrites = true
}
