// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteDOT writes the last executed frame as a Graphviz digraph: one node
// per pass in declaration order, one edge per dependency, labeled with the
// texture and access. Edges point from producer to consumer, following the
// flow of the frame.
//
//	g.WriteDOT(f) // dot -Tsvg frame.dot -o frame.svg
func (g *Graph) WriteDOT(w io.Writer) error {
	bw := bufio.NewWriter(w)
	frame := g.frameNumber
	if frame > 0 {
		frame--
	}
	fmt.Fprintf(bw, "digraph frame_%d {\n", frame)
	fmt.Fprintln(bw, "\trankdir=LR;")
	fmt.Fprintln(bw, "\tnode [shape=box, fontname=\"monospace\"];")

	for _, d := range g.last.decls {
		// "\l" ends a left-aligned line.
		label := dotEscape(d.name) + `\l`
		if n := len(d.barriers); n > 0 {
			label += fmt.Sprintf(`barriers: %d\l`, n)
		}
		if d.skipReads || d.skipWrites {
			label += `skips barriers\l`
		}
		fmt.Fprintf(bw, "\tp%d [label=\"%s\"];\n", d.index, label)
	}

	for _, e := range g.last.edges {
		style := ""
		if e.Access != AccessRead {
			style = ", style=dashed"
		}
		fmt.Fprintf(bw, "\tp%d -> p%d [label=\"%s\"%s];\n", e.Producer, e.Consumer, g.edgeLabel(e), style)
	}

	if len(g.last.plan.Final) > 0 && len(g.last.decls) > 0 {
		fmt.Fprintln(bw, "\tpresent [shape=ellipse];")
		fmt.Fprintf(bw, "\tp%d -> present;\n", lastSwapchainWriter(g.last.decls))
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func (g *Graph) edgeLabel(e Edge) string {
	name := "swapchain"
	if !e.Handle.IsSwapchain() {
		name = g.last.names[e.Handle]
	}
	return fmt.Sprintf("%s (%v)", dotEscape(name), e.Access)
}

func dotEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func lastSwapchainWriter(decls []*passDecl) int {
	last := decls[len(decls)-1].index
	for _, d := range decls {
		if d.writesSwapchain() || d.swapchainRead {
			last = d.index
		}
	}
	return last
}
