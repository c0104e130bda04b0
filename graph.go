// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/rendergraph/rhi"
)

// State is the lifecycle state of the frame being executed.
type State uint8

const (
	// StateUninitialized is the state before the first Execute.
	StateUninitialized State = iota
	// StateBuilding runs the setup callbacks.
	StateBuilding
	// StateBarriered has validated the passes and planned their barriers.
	StateBarriered
	// StateExecuting runs the execute callbacks.
	StateExecuting
	// StateRetired has advanced the frame index; the next frame may be declared.
	StateRetired
)

var stateNames = [...]string{
	StateUninitialized: "Uninitialized",
	StateBuilding:      "Building",
	StateBarriered:     "Barriered",
	StateExecuting:     "Executing",
	StateRetired:       "Retired",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// Hook runs against the frame's command list before the first pass or
// after the last one.
type Hook func(g *Graph, cmd rhi.CommandList) error

// Graph is a frame graph: passes are declared with [AddPass], and
// [Graph.Execute] runs them once, in declaration order, with the barriers
// their declarations imply.
//
// A Graph is not safe for concurrent use. It is driven from one thread,
// once per frame.
type Graph struct {
	dev  rhi.Device
	opts graphOptions

	state       State
	frameIndex  int
	frameNumber uint64
	released    bool

	passes   []passRecord
	declErrs []error
	lateErrs []error

	table      *frameTable
	frame      *FrameContext
	decls      []*passDecl
	backbuffer rhi.Texture

	caches      *FrameResource[*textureCache]
	submissions *FrameResource[rhi.Submission]

	preRender    Hook
	postRender   Hook
	frameGlobals func(*FrameContext)

	last frameSnapshot
}

// frameSnapshot keeps the last executed frame for introspection.
type frameSnapshot struct {
	decls []*passDecl
	edges []Edge
	plan  FramePlan
	names map[TextureHandle]string
}

// New creates a graph that renders with dev.
func New(dev rhi.Device, opts ...Option) *Graph {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	g := &Graph{
		dev:   dev,
		opts:  o,
		table: newFrameTable(generationFor(0)),
	}
	g.caches = NewFrameResource(g, newTextureCache)
	g.submissions = NewFrameResource[rhi.Submission](g, nil)
	propagateLogger(dev, g.log())
	g.log().Debug("rendergraph: graph created",
		"backend", dev.Name(), "frames_in_flight", o.framesInFlight, "validation", o.validation)
	return g
}

func (g *Graph) log() *slog.Logger {
	if g.opts.logger != nil {
		return g.opts.logger
	}
	return Logger()
}

// Device returns the device the graph renders with.
func (g *Graph) Device() rhi.Device { return g.dev }

// State returns the lifecycle state.
func (g *Graph) State() State { return g.state }

// FrameIndex returns the frame-in-flight slot of the frame being declared
// or executed.
func (g *Graph) FrameIndex() int { return g.frameIndex }

// FrameNumber returns the number of frames executed so far.
func (g *Graph) FrameNumber() uint64 { return g.frameNumber }

// FramesInFlight returns the number of frame slots.
func (g *Graph) FramesInFlight() int { return g.opts.framesInFlight }

// SetRenderResolution sets the internal render resolution seen by
// following frames.
func (g *Graph) SetRenderResolution(width, height uint32) {
	g.opts.render = Resolution{Width: width, Height: height}
}

// SetOutputResolution sets the output resolution seen by following frames.
// Resizing the swapchain itself is up to the caller.
func (g *Graph) SetOutputResolution(width, height uint32) {
	g.opts.output = Resolution{Width: width, Height: height}
}

// RenderResolution returns the internal render resolution.
func (g *Graph) RenderResolution() Resolution { return g.opts.render }

// OutputResolution returns the output resolution.
func (g *Graph) OutputResolution() Resolution { return g.opts.output }

// SetPreRender sets the hook run on the frame's command list before the
// first pass, typically to upload per-frame uniforms.
func (g *Graph) SetPreRender(h Hook) { g.preRender = h }

// SetPostRender sets the hook run after the last pass, before the swapchain
// is handed to presentation. It is skipped when the frame failed.
func (g *Graph) SetPostRender(h Hook) { g.postRender = h }

// SetFrameGlobals sets a function that fills each frame's FrameContext
// before any setup callback runs.
func (g *Graph) SetFrameGlobals(fn func(*FrameContext)) { g.frameGlobals = fn }

// CreateTexture declares a transient texture for the frame being declared,
// outside of any pass. See [Builder.CreateTexture].
func (g *Graph) CreateTexture(name string, desc rhi.TextureDescriptor) (TextureHandle, error) {
	if g.released {
		return InvalidHandle, ErrReleased
	}
	if g.state == StateBarriered || g.state == StateExecuting {
		return InvalidHandle, ErrReentrant
	}
	h, err := g.table.create(name, desc)
	if err != nil {
		return InvalidHandle, contractErr("", "CreateTexture", name, InvalidHandle, err)
	}
	return h, nil
}

// GetTexture returns the handle of a texture declared this frame, or
// InvalidHandle.
func (g *Graph) GetTexture(name string) TextureHandle {
	return g.table.handle(name)
}

// GetRHITexture resolves h to its backend texture. SwapchainHandle resolves
// to the acquired swapchain image. Textures exist once the frame has been
// barriered; earlier calls return ErrNotRealized.
func (g *Graph) GetRHITexture(h TextureHandle) (rhi.Texture, error) {
	if h.IsSwapchain() {
		if g.backbuffer == nil {
			return nil, ErrNotRealized
		}
		return g.backbuffer, nil
	}
	ft, ok := g.table.lookup(h)
	if !ok {
		return nil, contractErr("", "GetRHITexture", "", h, ErrUnknownHandle)
	}
	if ft.tex == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotRealized, ft.desc.Name)
	}
	return ft.tex, nil
}

// findPass returns the named pass of the running frame, or of the last
// executed frame between frames.
func (g *Graph) findPass(name string) (*passDecl, bool) {
	decls := g.decls
	if decls == nil {
		decls = g.last.decls
	}
	for _, d := range decls {
		if d.name == name {
			return d, true
		}
	}
	return nil, false
}

// GetRenderpassDescription returns the render pass of the named pass: the
// manual description it supplied, or the one derived from its writes.
func (g *Graph) GetRenderpassDescription(passName string) (rhi.RenderpassDescription, bool) {
	d, ok := g.findPass(passName)
	if !ok {
		return rhi.RenderpassDescription{}, false
	}
	return d.renderpass.Clone(), true
}

// GetPipelineStateObject returns the pipeline state bound for the named
// pass. It reports false for unknown passes and for passes that set no
// shader or pipeline.
func (g *Graph) GetPipelineStateObject(passName string) (rhi.PipelineStateObject, bool) {
	d, ok := g.findPass(passName)
	if !ok {
		return rhi.PipelineStateObject{}, false
	}
	return d.bound, !d.bound.IsZero()
}

// Edges returns the dependency edges of the last executed frame.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.last.edges...)
}

// LastPlan returns the barrier plan of the last executed frame.
func (g *Graph) LastPlan() FramePlan {
	return g.last.plan
}

// CacheStats sums the texture cache statistics of every frame slot.
func (g *Graph) CacheStats() CacheStats {
	var s CacheStats
	g.caches.ForEach(func(_ int, c **textureCache) {
		s.add((*c).stats)
	})
	return s
}

// SubmitAndWait records fn into a one-off command list, submits it and
// blocks until the GPU has finished it. It is meant for synchronous work
// such as uploads before first use, never for per-frame rendering.
func (g *Graph) SubmitAndWait(fn func(cmd rhi.CommandList) error) error {
	if g.released {
		return ErrReleased
	}
	cmd, err := g.dev.BeginCommandList("immediate")
	if err != nil {
		return fmt.Errorf("rendergraph: immediate command list: %w", err)
	}
	if err := fn(cmd); err != nil {
		cmd.Discard()
		return err
	}
	if err := g.dev.SubmitAndWait(cmd); err != nil {
		return fmt.Errorf("rendergraph: immediate submit: %w", err)
	}
	return nil
}

// Release waits for the GPU to go idle and destroys every cached texture.
// The graph cannot be used afterwards. The device is not destroyed.
func (g *Graph) Release() error {
	if g.released {
		return nil
	}
	g.released = true
	err := g.dev.WaitIdle()
	if err != nil {
		err = fmt.Errorf("rendergraph: release: %w", err)
	}
	g.caches.ForEach(func(_ int, c **textureCache) {
		(*c).release(g.dev)
	})
	g.submissions.Reset(nil)
	g.log().Debug("rendergraph: released", "frames", g.frameNumber)
	return err
}
