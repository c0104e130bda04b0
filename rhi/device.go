// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"errors"
	"time"

	"github.com/gogpu/gputypes"
)

// Backend errors. Implementations wrap these with fmt.Errorf so callers can
// test with errors.Is.
var (
	// ErrDeviceLost is returned when the GPU device is no longer usable.
	ErrDeviceLost = errors.New("rhi: device lost")

	// ErrOutOfMemory is returned when an allocation fails.
	ErrOutOfMemory = errors.New("rhi: out of memory")

	// ErrUnsupported is returned for operations a backend does not implement.
	ErrUnsupported = errors.New("rhi: unsupported operation")

	// ErrTimeout is returned when waiting on a submission exceeds its deadline.
	ErrTimeout = errors.New("rhi: wait timed out")

	// ErrCommandListClosed is returned when a submitted or discarded command
	// list is used again.
	ErrCommandListClosed = errors.New("rhi: command list closed")
)

// DefaultWaitTimeout bounds CPU stalls on GPU fences.
const DefaultWaitTimeout = 5 * time.Second

// Submission identifies one queue submission. The zero value is a completed
// submission, so waiting on it returns immediately.
type Submission uint64

// Device is the capability set the render graph needs from a backend.
type Device interface {
	// Name returns the backend name, e.g. "vulkan" or "recording".
	Name() string

	// CreateTexture allocates a texture.
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// DestroyTexture releases a texture created by CreateTexture.
	DestroyTexture(tex Texture)

	// Swapchain returns the presentation target.
	Swapchain() Swapchain

	// BeginCommandList starts recording a new command list.
	BeginCommandList(label string) (CommandList, error)

	// Submit queues a command list for execution without waiting.
	Submit(cmd CommandList) (Submission, error)

	// Wait blocks until the submission has completed on the GPU and releases
	// the resources it kept alive.
	Wait(sub Submission, timeout time.Duration) error

	// SubmitAndWait submits cmd and blocks until it completes.
	SubmitAndWait(cmd CommandList) error

	// WaitIdle blocks until all submitted work has completed.
	WaitIdle() error

	// Destroy releases the device. All textures must be destroyed first.
	Destroy()
}

// Swapchain is the presentable image chain.
type Swapchain interface {
	// Format returns the image format.
	Format() gputypes.TextureFormat

	// Size returns the image size in pixels.
	Size() (width, height uint32)

	// Resize recreates the images. Callers must wait for idle first.
	Resize(width, height uint32) error

	// Acquire returns the image to render into for the current frame.
	Acquire() (Texture, error)

	// Present hands the acquired image to the display.
	Present() error

	// Release gives the acquired image back without presenting it, for
	// frames that fail after Acquire. It does nothing when no image is
	// acquired.
	Release()
}

// CommandList records GPU commands for one submission.
type CommandList interface {
	// Label returns the debug label the list was created with.
	Label() string

	// TransitionTextures records state transitions. Barriers with a nil
	// texture are ignored.
	TransitionTextures(barriers []TextureBarrier)

	// BeginRenderpass opens a render pass scope.
	BeginRenderpass(desc RenderpassDescription) error

	// EndRenderpass closes the open render pass scope.
	EndRenderpass()

	// BindPipeline binds the pipeline for pso, creating it on first use.
	BindPipeline(pso PipelineStateObject) error

	// SetViewport sets the viewport of the open render pass.
	SetViewport(vp Viewport)

	// SetScissor sets the scissor rectangle of the open render pass.
	SetScissor(rect Rect)

	// SetUniform uploads data and binds it at (set, binding).
	SetUniform(set, binding uint32, data []byte) error

	// SetTexture binds tex for sampling at (set, binding).
	SetTexture(set, binding uint32, tex Texture) error

	// SetVertexData uploads vertex data and binds it at slot.
	SetVertexData(slot uint32, data []byte) error

	// SetIndexData uploads 16-bit indices and binds them for DrawIndexed.
	SetIndexData(indices []uint16) error

	// Draw issues a non-indexed draw.
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)

	// DrawIndexed issues an indexed draw using the index data set by SetIndexData.
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)

	// Discard abandons the recording. It is a no-op after Submit.
	Discard()
}
