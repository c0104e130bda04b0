// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import "fmt"

// TextureHandle identifies a logical texture within one frame's graph.
//
// Handles are opaque: they encode the frame generation that issued them, so
// a handle kept past Execute is rejected as unknown in the next frame rather
// than silently aliasing a different texture. Textures are shared across
// frames by re-declaring the same name, never by reusing a handle.
//
// Generations wrap every 32767 frames: a handle kept from frame N resolves
// again in frame N+32767 if that frame issued the same index. Detection of
// stale handles is therefore a debugging aid, not a guarantee.
type TextureHandle int

const (
	// InvalidHandle is the "no resource" result of a failed lookup. As an
	// argument to ReadTexture or WriteTexture it denotes the swapchain image.
	InvalidHandle TextureHandle = -1

	// SwapchainHandle is InvalidHandle spelled for readability at call sites
	// that target the back buffer.
	SwapchainHandle = InvalidHandle
)

const (
	handleIndexBits = 16
	handleIndexMask = 1<<handleIndexBits - 1
	// generations wrap well inside int32 so handles stay positive on 32-bit targets.
	handleGenerations = 1<<15 - 1
)

// makeHandle packs a generation and a per-frame resource index.
func makeHandle(gen uint32, index int) TextureHandle {
	return TextureHandle(int(gen)<<handleIndexBits | index&handleIndexMask)
}

// generationFor maps a frame number to a non-zero handle generation.
func generationFor(frameNumber uint64) uint32 {
	return uint32(frameNumber%handleGenerations) + 1
}

func (h TextureHandle) index() int { return int(h) & handleIndexMask }

func (h TextureHandle) generation() uint32 { return uint32(int(h) >> handleIndexBits) }

// IsValid reports whether h refers to a texture rather than the
// invalid/swapchain sentinel.
func (h TextureHandle) IsValid() bool { return h >= 0 }

// IsSwapchain reports whether h is the swapchain sentinel.
func (h TextureHandle) IsSwapchain() bool { return h == SwapchainHandle }

// String returns "swapchain" for the sentinel and "tex#gen.index" otherwise.
func (h TextureHandle) String() string {
	if h.IsSwapchain() {
		return "swapchain"
	}
	if h < 0 {
		return fmt.Sprintf("TextureHandle(%d)", int(h))
	}
	return fmt.Sprintf("tex#%d.%d", h.generation(), h.index())
}
