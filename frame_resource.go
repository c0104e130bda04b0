// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

// FrameIndexer reports which frame slot is being recorded.
// [*Graph] implements it.
type FrameIndexer interface {
	FrameIndex() int
	FramesInFlight() int
}

// FrameResource holds one value of T per frame in flight and hands out the
// one for the frame currently being recorded.
//
// Per-frame CPU data (uniform staging, descriptor pools, the graph's own
// texture cache) lives here so that writing frame N+1 never touches memory
// the GPU may still read for frame N.
//
//	uniforms := rendergraph.NewFrameResource(g, func(int) []byte {
//	    return make([]byte, 256)
//	})
//	buf := uniforms.Get() // slot for g.FrameIndex()
type FrameResource[T any] struct {
	src    FrameIndexer
	values []T
}

// NewFrameResource allocates src.FramesInFlight() values. If init is
// non-nil it is called once per slot.
func NewFrameResource[T any](src FrameIndexer, init func(i int) T) *FrameResource[T] {
	n := max(src.FramesInFlight(), 1)
	fr := &FrameResource[T]{src: src, values: make([]T, n)}
	if init != nil {
		for i := range fr.values {
			fr.values[i] = init(i)
		}
	}
	return fr
}

// Get returns the value for the current frame index.
func (fr *FrameResource[T]) Get() *T {
	return &fr.values[fr.src.FrameIndex()%len(fr.values)]
}

// At returns the value for slot i. It panics if i is out of range.
func (fr *FrameResource[T]) At(i int) *T {
	return &fr.values[i]
}

// Len returns the number of slots.
func (fr *FrameResource[T]) Len() int { return len(fr.values) }

// ForEach calls fn for every slot in index order.
func (fr *FrameResource[T]) ForEach(fn func(i int, v *T)) {
	for i := range fr.values {
		fn(i, &fr.values[i])
	}
}

// Reset calls fn on every slot, or zeroes them when fn is nil.
func (fr *FrameResource[T]) Reset(fn func(v *T)) {
	for i := range fr.values {
		if fn == nil {
			var zero T
			fr.values[i] = zero
			continue
		}
		fn(&fr.values[i])
	}
}
