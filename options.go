// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rendergraph

import "log/slog"

// Validation selects how strictly the scheduler checks pass declarations.
type Validation uint8

const (
	// ValidationFull rejects every contract violation. This is the default.
	ValidationFull Validation = iota

	// ValidationOff tolerates reads with no earlier writer (logged at Warn,
	// contents undefined). Violations that would produce an invalid command
	// stream are rejected in both modes.
	ValidationOff
)

// String returns "full" or "off".
func (v Validation) String() string {
	if v == ValidationOff {
		return "off"
	}
	return "full"
}

const (
	defaultFramesInFlight = 2
	maxFramesInFlight     = 4
	defaultWidth          = 1920
	defaultHeight         = 1080
	defaultEvictAfter     = 3
)

// Option configures a Graph during creation.
//
// Example:
//
//	g := rendergraph.New(dev,
//	    rendergraph.WithFramesInFlight(3),
//	    rendergraph.WithRenderResolution(1280, 720),
//	)
type Option func(*graphOptions)

type graphOptions struct {
	framesInFlight int
	validation     Validation
	logger         *slog.Logger
	panicOnError   bool
	render         Resolution
	output         Resolution
	evictAfter     int
}

func defaultOptions() graphOptions {
	return graphOptions{
		framesInFlight: defaultFramesInFlight,
		validation:     ValidationFull,
		render:         Resolution{Width: defaultWidth, Height: defaultHeight},
		output:         Resolution{Width: defaultWidth, Height: defaultHeight},
		evictAfter:     defaultEvictAfter,
	}
}

// WithFramesInFlight sets how many frames the CPU may record ahead of the
// GPU. Values are clamped to [1, 4].
func WithFramesInFlight(n int) Option {
	return func(o *graphOptions) {
		o.framesInFlight = min(max(n, 1), maxFramesInFlight)
	}
}

// WithValidation selects the validation mode.
func WithValidation(v Validation) Option {
	return func(o *graphOptions) {
		o.validation = v
	}
}

// WithLogger sets a logger for this graph only. Without it the graph logs
// through the package logger configured by [SetLogger].
func WithLogger(l *slog.Logger) Option {
	return func(o *graphOptions) {
		o.logger = l
	}
}

// WithPanicOnContractViolation makes Execute panic with the joined contract
// errors instead of returning them. Useful in debug builds where a bad
// declaration should stop the program at the offending frame.
func WithPanicOnContractViolation() Option {
	return func(o *graphOptions) {
		o.panicOnError = true
	}
}

// WithRenderResolution sets the internal render resolution.
func WithRenderResolution(width, height uint32) Option {
	return func(o *graphOptions) {
		o.render = Resolution{Width: width, Height: height}
	}
}

// WithOutputResolution sets the output (swapchain) resolution.
func WithOutputResolution(width, height uint32) Option {
	return func(o *graphOptions) {
		o.output = Resolution{Width: width, Height: height}
	}
}

// WithEvictAfter sets how many uses of a frame slot a cached texture may go
// undeclared before it is destroyed. Zero disables eviction.
func WithEvictAfter(n int) Option {
	return func(o *graphOptions) {
		o.evictAfter = max(n, 0)
	}
}
