// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/backend"
	"github.com/gogpu/rendergraph/internal/pipecache"
	"github.com/gogpu/rendergraph/rhi"
)

func init() {
	backend.Register(backend.BackendRecording, func(opts backend.Options) (rhi.Device, error) {
		return New(opts), nil
	})
}

// pipelineCacheSize bounds the number of PSOs kept per device.
const pipelineCacheSize = 256

// Op names a device operation that FailNext can make fail.
type Op uint8

const (
	OpCreateTexture Op = iota
	OpBeginCommandList
	OpBindPipeline
	OpSubmit
	OpAcquire
	OpPresent
)

var opNames = [...]string{
	OpCreateTexture:    "CreateTexture",
	OpBeginCommandList: "BeginCommandList",
	OpBindPipeline:     "BindPipeline",
	OpSubmit:           "Submit",
	OpAcquire:          "Acquire",
	OpPresent:          "Present",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}

// Texture is a recorded texture. It has identity but no storage.
type Texture struct {
	id        uint64
	desc      rhi.TextureDescriptor
	swapchain bool
	destroyed bool
}

// Descriptor returns the descriptor the texture was created with.
func (t *Texture) Descriptor() rhi.TextureDescriptor { return t.desc }

// ID returns the device-unique texture id.
func (t *Texture) ID() uint64 { return t.id }

// Destroyed reports whether DestroyTexture was called.
func (t *Texture) Destroyed() bool { return t.destroyed }

// Submitted is one entry of the submission log.
type Submitted struct {
	ID       rhi.Submission
	Label    string
	Commands []Command
	// Waited is set once Wait, SubmitAndWait or WaitIdle observed completion.
	Waited bool
}

// Stats counts device activity.
type Stats struct {
	TexturesCreated   int
	TexturesDestroyed int
	LiveTextures      int
	PipelinesCreated  int
	Submissions       int
	Presents          int
	Releases          int
}

// Device is an rhi.Device that records every command instead of executing
// it. It tracks the state each barrier leaves a texture in and reports
// barriers whose Before state disagrees with what the device last saw.
//
// Device is safe for concurrent use.
type Device struct {
	mu sync.Mutex

	opts      backend.Options
	nextID    uint64
	live      map[uint64]*Texture
	states    map[uint64]rhi.ResourceState
	swapchain *Swapchain
	pipelines *pipecache.Cache[uint64, rhi.PipelineStateObject]

	submissions []*Submitted
	nextSub     rhi.Submission
	violations  []string
	failures    map[Op]error

	created, destroyed, psosCreated int
	destroyedDevice                 bool
}

var _ rhi.Device = (*Device)(nil)

// New creates a recording device.
func New(opts backend.Options) *Device {
	opts = opts.WithDefaults()
	if opts.Format == gputypes.TextureFormatUndefined {
		opts.Format = gputypes.TextureFormatBGRA8Unorm
	}
	d := &Device{
		opts:     opts,
		live:     make(map[uint64]*Texture),
		states:   make(map[uint64]rhi.ResourceState),
		failures: make(map[Op]error),
	}
	d.pipelines = pipecache.New[uint64, rhi.PipelineStateObject](pipelineCacheSize, nil)
	d.swapchain = newSwapchain(d, opts.Width, opts.Height, opts.Format, opts.FramesInFlight)
	slogger().Debug("recording: device created",
		"width", opts.Width, "height", opts.Height, "images", opts.FramesInFlight)
	return d
}

// Name returns "recording".
func (d *Device) Name() string { return backend.BackendRecording }

// FailNext makes the next call of op return err (wrapped).
func (d *Device) FailNext(op Op, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[op] = err
}

// takeFailureLocked consumes an injected failure. Caller must hold d.mu.
func (d *Device) takeFailureLocked(op Op) error {
	err, ok := d.failures[op]
	if !ok {
		return nil
	}
	delete(d.failures, op)
	return fmt.Errorf("recording: %s: %w", op, err)
}

func (d *Device) takeFailure(op Op) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.takeFailureLocked(op)
}

// CreateTexture records a texture allocation.
func (d *Device) CreateTexture(desc rhi.TextureDescriptor) (rhi.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.takeFailureLocked(OpCreateTexture); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("recording: %w", err)
	}
	return d.newTextureLocked(desc.Normalized(), false), nil
}

func (d *Device) newTextureLocked(desc rhi.TextureDescriptor, swapchain bool) *Texture {
	d.nextID++
	t := &Texture{id: d.nextID, desc: desc, swapchain: swapchain}
	d.live[t.id] = t
	d.states[t.id] = rhi.StateUndefined
	if !swapchain {
		d.created++
	}
	return t
}

// DestroyTexture records a texture release. Destroying a texture twice or
// destroying a swapchain image is recorded as a violation.
func (d *Device) DestroyTexture(tex rhi.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := tex.(*Texture)
	if !ok || t == nil {
		d.violations = append(d.violations, "DestroyTexture: foreign texture")
		return
	}
	if t.destroyed {
		d.violations = append(d.violations, fmt.Sprintf("DestroyTexture: %q destroyed twice", t.desc.Name))
		return
	}
	if t.swapchain {
		d.violations = append(d.violations, fmt.Sprintf("DestroyTexture: %q is a swapchain image", t.desc.Name))
		return
	}
	t.destroyed = true
	delete(d.live, t.id)
	delete(d.states, t.id)
	d.destroyed++
}

// Swapchain returns the recording swapchain.
func (d *Device) Swapchain() rhi.Swapchain { return d.swapchain }

// BeginCommandList starts a new recording.
func (d *Device) BeginCommandList(label string) (rhi.CommandList, error) {
	if err := d.takeFailure(OpBeginCommandList); err != nil {
		return nil, err
	}
	return &CommandList{dev: d, label: label}, nil
}

// Submit appends the command list to the submission log.
func (d *Device) Submit(cmd rhi.CommandList) (rhi.Submission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.submitLocked(cmd)
	if err != nil {
		return 0, err
	}
	return s.ID, nil
}

func (d *Device) submitLocked(cmd rhi.CommandList) (*Submitted, error) {
	cl, ok := cmd.(*CommandList)
	if !ok || cl.dev != d {
		return nil, errors.New("recording: command list from another device")
	}
	if cl.closed {
		return nil, rhi.ErrCommandListClosed
	}
	if cl.inPass {
		return nil, errors.New("recording: submit with an open render pass")
	}
	if err := d.takeFailureLocked(OpSubmit); err != nil {
		cl.closed = true
		return nil, err
	}
	cl.closed = true
	d.nextSub++
	s := &Submitted{ID: d.nextSub, Label: cl.label, Commands: cl.cmds}
	d.submissions = append(d.submissions, s)
	return s, nil
}

// Wait marks the submission complete. Recorded work completes instantly.
func (d *Device) Wait(sub rhi.Submission, _ time.Duration) error {
	if sub == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.submissions {
		if s.ID == sub {
			s.Waited = true
			return nil
		}
	}
	return fmt.Errorf("recording: unknown submission %d", sub)
}

// SubmitAndWait submits cmd and marks it complete.
func (d *Device) SubmitAndWait(cmd rhi.CommandList) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, err := d.submitLocked(cmd)
	if err != nil {
		return err
	}
	s.Waited = true
	return nil
}

// WaitIdle marks every submission complete.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.submissions {
		s.Waited = true
	}
	return nil
}

// Destroy releases the device. Live textures are reported as violations.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyedDevice {
		return
	}
	d.destroyedDevice = true
	for _, t := range d.live {
		if !t.swapchain {
			d.violations = append(d.violations, fmt.Sprintf("Destroy: texture %q leaked", t.desc.Name))
		}
	}
	d.pipelines.Clear()
}

// bindPipeline resolves pso through the pipeline cache.
func (d *Device) bindPipeline(pso rhi.PipelineStateObject) (created bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.takeFailureLocked(OpBindPipeline); err != nil {
		return false, err
	}
	_, err = d.pipelines.GetOrCreate(pso.Key(), func() (rhi.PipelineStateObject, error) {
		created = true
		d.psosCreated++
		slogger().Debug("recording: pipeline created", "name", pso.Name)
		return pso, nil
	})
	return created, err
}

// transition applies barriers to the tracked states. A barrier whose Before
// is neither the tracked state nor Undefined is a violation; Undefined is
// always a legal source and discards contents.
func (d *Device) transition(barriers []rhi.TextureBarrier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range barriers {
		t, ok := b.Texture.(*Texture)
		if !ok || t == nil {
			continue
		}
		if cur := d.states[t.id]; b.Before != rhi.StateUndefined && b.Before != cur {
			d.violations = append(d.violations,
				fmt.Sprintf("Transition %s: texture is in %s", b, cur))
		}
		d.states[t.id] = b.After
	}
}

// StateOf returns the state the last barrier left tex in.
func (d *Device) StateOf(tex rhi.Texture) rhi.ResourceState {
	t, ok := tex.(*Texture)
	if !ok || t == nil {
		return rhi.StateUndefined
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[t.id]
}

// Submissions returns a snapshot of the submission log.
func (d *Device) Submissions() []Submitted {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Submitted, len(d.submissions))
	for i, s := range d.submissions {
		out[i] = *s
	}
	return out
}

// LastSubmission returns the most recent submission.
func (d *Device) LastSubmission() (Submitted, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.submissions) == 0 {
		return Submitted{}, false
	}
	return *d.submissions[len(d.submissions)-1], true
}

// Violations returns the barrier and lifetime violations seen so far.
func (d *Device) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.violations...)
}

// Stats returns device counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		TexturesCreated:   d.created,
		TexturesDestroyed: d.destroyed,
		LiveTextures:      d.created - d.destroyed,
		PipelinesCreated:  d.psosCreated,
		Submissions:       len(d.submissions),
		Presents:          d.swapchain.presents,
		Releases:          d.swapchain.releases,
	}
}
