// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import "fmt"

// Resolution is a width/height pair in pixels.
type Resolution struct {
	Width, Height uint32
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// FrameContext carries the per-frame values every pass can see. It is built
// at the start of Execute and discarded when the frame retires.
type FrameContext struct {
	// FrameIndex is the frame-in-flight slot, in [0, FramesInFlight).
	FrameIndex int
	// FrameNumber counts executed frames since the graph was created.
	FrameNumber uint64
	// RenderResolution is the internal render resolution for this frame.
	RenderResolution Resolution
	// OutputResolution is the swapchain resolution for this frame.
	OutputResolution Resolution

	globals map[string]any
}

// SetGlobal stores a frame-scoped value, such as camera matrices or the
// light list, for passes to read.
func (fc *FrameContext) SetGlobal(key string, v any) {
	if fc.globals == nil {
		fc.globals = make(map[string]any)
	}
	fc.globals[key] = v
}

// Global returns the value stored under key.
func (fc *FrameContext) Global(key string) (any, bool) {
	v, ok := fc.globals[key]
	return v, ok
}

// FrameGlobal returns the value stored under key as T. The second result is
// false when the key is missing or holds a different type.
func FrameGlobal[T any](fc *FrameContext, key string) (T, bool) {
	v, ok := fc.globals[key].(T)
	return v, ok
}
