// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import "fmt"

// Access is the kind of a dependency edge.
type Access uint8

const (
	// AccessRead is a sampled read.
	AccessRead Access = iota
	// AccessWriteColor is a color attachment write.
	AccessWriteColor
	// AccessWriteDepth is a depth/stencil attachment write.
	AccessWriteDepth
)

var accessNames = [...]string{
	AccessRead:       "read",
	AccessWriteColor: "write-color",
	AccessWriteDepth: "write-depth",
}

func (a Access) String() string {
	if int(a) < len(accessNames) {
		return accessNames[a]
	}
	return fmt.Sprintf("Access(%d)", a)
}

// Edge is a dependency from the pass that last wrote Handle to a pass that
// reads it or writes it again. Passes are identified by declaration index.
type Edge struct {
	Producer int
	Consumer int
	Handle   TextureHandle
	Access   Access
}

func (e Edge) String() string {
	return fmt.Sprintf("%d -> %d (%v %v)", e.Producer, e.Consumer, e.Handle, e.Access)
}

// schedule validates the declared passes and returns their dependency edges.
// Passes keep their declaration order; edges are used for validation,
// barrier planning and debugging, never to reorder.
//
// It also marks which writes continue earlier contents (loads) rather than
// starting fresh (clears).
func (g *Graph) schedule(decls []*passDecl) ([]Edge, []error) {
	var (
		edges      []Edge
		errs       []error
		lastWriter = make(map[TextureHandle]int)
	)
	nameOf := func(h TextureHandle) string {
		if ft, ok := g.table.lookup(h); ok {
			return ft.desc.Name
		}
		return ""
	}

	for _, d := range decls {
		i := d.index

		for _, h := range d.reads {
			if _, writes := d.writeKind(h); writes {
				errs = append(errs, contractErr(d.name, "ReadTexture", nameOf(h), h, ErrUnresolvableState))
				continue
			}
			w, ok := lastWriter[h]
			if !ok {
				if g.opts.validation == ValidationFull {
					errs = append(errs, contractErr(d.name, "ReadTexture", nameOf(h), h, ErrReadBeforeWrite))
				} else {
					g.log().Warn("rendergraph: read of unwritten texture, contents undefined",
						"pass", d.name, "texture", nameOf(h))
				}
				continue
			}
			edges = append(edges, Edge{Producer: w, Consumer: i, Handle: h, Access: AccessRead})
		}

		if d.swapchainRead {
			w, ok := lastWriter[SwapchainHandle]
			switch {
			case ok:
				edges = append(edges, Edge{Producer: w, Consumer: i, Handle: SwapchainHandle, Access: AccessRead})
			case d.writesSwapchain():
				// Read and written by one pass: the attachment is loaded.
			case g.opts.validation == ValidationFull:
				errs = append(errs, contractErr(d.name, "ReadTexture", "", SwapchainHandle, ErrSwapchainNotProduced))
			default:
				g.log().Warn("rendergraph: swapchain read before it was written", "pass", d.name)
			}
		}

		for _, a := range d.writes {
			h := a.handle
			w, ok := lastWriter[h]
			if ok {
				if !h.IsSwapchain() && !d.fetched[h] {
					errs = append(errs, contractErr(d.name, writeOp(a.kind), nameOf(h), h, ErrConflictingWrites))
				}
				edges = append(edges, Edge{Producer: w, Consumer: i, Handle: h, Access: a.kind})
				d.loads[h] = true
			} else if h.IsSwapchain() && d.swapchainRead {
				d.loads[h] = true
			}
			lastWriter[h] = i
		}

		if err := checkManualRenderpass(d); err != nil {
			errs = append(errs, err)
		}
		if err := checkPipelineTargets(d); err != nil {
			errs = append(errs, err)
		}
	}
	return edges, errs
}

func writeOp(kind Access) string {
	if kind == AccessWriteDepth {
		return "WriteDepthStencil"
	}
	return "WriteTexture"
}

// checkManualRenderpass verifies that every attachment left for the engine
// to fill in has a declared write to bind to.
func checkManualRenderpass(d *passDecl) error {
	if d.manual == nil {
		return nil
	}
	colors := d.colorWrites()
	for i, a := range d.manual.ColorAttachments {
		if a.Texture == nil && i >= len(colors) {
			return contractErr(d.name, "SetRenderpass", fmt.Sprintf("color attachment %d", i), InvalidHandle, ErrInvalidAccess)
		}
	}
	if ds := d.manual.DepthStencil; ds != nil && ds.Texture == nil {
		if _, ok := d.depthWrite(); !ok {
			return contractErr(d.name, "SetRenderpass", "depth attachment", InvalidHandle, ErrInvalidAccess)
		}
	}
	return nil
}

// checkPipelineTargets rejects a pipeline on a pass that opens no render
// pass. Pipelines are graphics pipelines and bind only inside one.
func checkPipelineTargets(d *passDecl) error {
	if !d.hasPSO && d.shader.IsZero() {
		return nil
	}
	if len(d.writes) > 0 || (d.manual != nil && !d.manual.IsEmpty()) {
		return nil
	}
	op := "SetShader"
	if d.hasPSO {
		op = "SetPipeline"
	}
	return contractErr(d.name, op, "", InvalidHandle, ErrPipelineWithoutTargets)
}
