// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import (
	"errors"
	"fmt"
)

// ErrContractViolation is matched by every *ContractError. Contract
// violations are programmer errors in pass declarations; a frame that has
// one is aborted before any execute callback runs.
var ErrContractViolation = errors.New("rendergraph: contract violation")

// Contract violation kinds. A *ContractError wraps exactly one of these.
var (
	// ErrTextureNotFound is recorded when a pass looks up a name that was not
	// created this frame.
	ErrTextureNotFound = errors.New("texture not created this frame")

	// ErrUnknownHandle is recorded for handles that were not issued this frame.
	ErrUnknownHandle = errors.New("handle not issued this frame")

	// ErrReadBeforeWrite is recorded when a pass reads a texture no earlier
	// pass has written this frame.
	ErrReadBeforeWrite = errors.New("read of a texture with no earlier writer")

	// ErrSwapchainNotProduced is recorded when a pass reads the swapchain
	// before any pass has written it.
	ErrSwapchainNotProduced = errors.New("swapchain read before it was produced")

	// ErrConflictingWrites is recorded when a second pass writes a texture
	// without taking it over through GetTexture.
	ErrConflictingWrites = errors.New("conflicting writes without passthrough")

	// ErrUnresolvableState is recorded when one pass both reads and writes
	// the same texture.
	ErrUnresolvableState = errors.New("texture read and written in the same pass")

	// ErrDescriptorMismatch is recorded when a name is created twice in one
	// frame with incompatible descriptors.
	ErrDescriptorMismatch = errors.New("texture recreated with an incompatible descriptor")

	// ErrInvalidDescriptor is recorded for descriptors that cannot be allocated.
	ErrInvalidDescriptor = errors.New("invalid texture descriptor")

	// ErrInvalidAccess is recorded when an access does not fit the texture
	// format, such as WriteDepthStencil on a color texture.
	ErrInvalidAccess = errors.New("access does not match texture format")

	// ErrPipelineWithoutTargets is recorded when a pass sets a shader or
	// pipeline but declares no attachment for it to draw into.
	ErrPipelineWithoutTargets = errors.New("pipeline set on a pass with no attachments")

	// ErrInvalidPass is recorded for AddPass calls with an empty or duplicate
	// name or a nil execute callback.
	ErrInvalidPass = errors.New("invalid pass registration")
)

// Graph lifecycle errors.
var (
	// ErrNotRealized is returned by GetRHITexture before the frame's
	// textures have been allocated.
	ErrNotRealized = errors.New("rendergraph: texture not realized yet")

	// ErrReleased is returned by operations on a released graph.
	ErrReleased = errors.New("rendergraph: graph released")

	// ErrReentrant is returned when Execute or AddPass is called from inside
	// a pass callback.
	ErrReentrant = errors.New("rendergraph: graph is executing")
)

// ContractError describes one contract violation.
type ContractError struct {
	// Pass is the name of the offending pass; empty for graph-level calls.
	Pass string
	// Op is the builder or graph operation, e.g. "ReadTexture".
	Op string
	// Name is the logical texture name, when known.
	Name string
	// Handle is the texture handle involved, or InvalidHandle.
	Handle TextureHandle
	// Err is the specific violation kind.
	Err error
}

func (e *ContractError) Error() string {
	where := e.Op
	if e.Pass != "" {
		where = fmt.Sprintf("pass %q: %s", e.Pass, e.Op)
	}
	subject := e.Handle.String()
	if e.Name != "" {
		subject = fmt.Sprintf("%q", e.Name)
	}
	return fmt.Sprintf("rendergraph: %s(%s): %v", where, subject, e.Err)
}

// Unwrap exposes both the specific kind and ErrContractViolation to errors.Is.
func (e *ContractError) Unwrap() []error {
	return []error{e.Err, ErrContractViolation}
}

func contractErr(pass, op, name string, h TextureHandle, kind error) *ContractError {
	return &ContractError{Pass: pass, Op: op, Name: name, Handle: h, Err: kind}
}
