// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // registers the Vulkan HAL

	"github.com/gogpu/rendergraph/backend"
	"github.com/gogpu/rendergraph/internal/pipecache"
	"github.com/gogpu/rendergraph/rhi"
)

func init() {
	backend.Register(backend.BackendNative, func(opts backend.Options) (rhi.Device, error) {
		d, err := Open(opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}

// Device implements rhi.Device on a HAL device and queue.
type Device struct {
	instance hal.Instance // nil when the device is shared
	device   hal.Device
	queue    hal.Queue
	owned    bool
	spirv    bool
	adapter  string
	opts     backend.Options

	swapchain *Swapchain
	pipelines *pipecache.Cache[uint64, *pipeline]
	watcher   *ShaderWatcher

	graveMu   sync.Mutex
	graveyard []*pipeline

	mu        sync.Mutex
	live      map[*Texture]struct{}
	inflight  map[rhi.Submission]*inflight
	lastSub   rhi.Submission
	openLists int
	destroyed bool
}

// inflight is a submitted command buffer and everything it keeps alive.
type inflight struct {
	fence hal.Fence
	cmd   hal.CommandBuffer
	res   *transient
}

// Open creates a standalone Vulkan device. It prefers a discrete or
// integrated GPU over software adapters.
func Open(opts backend.Options) (*Device, error) {
	vk, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrVulkanUnavailable
	}
	instance, err := vk.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	d, err := newDevice(openDev.Device, openDev.Queue, opts, true)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	d.owned = true
	d.adapter = selected.Info.Name
	slogger().Info("native: device opened", "adapter", d.adapter)
	return d, nil
}

// NewFromProvider shares the device and queue of a host application, such
// as a gogpu window. The provider must also expose HalDevice() and
// HalQueue(). The swapchain uses the provider's surface format unless
// opts.Format is set. The host keeps ownership of the device.
func NewFromProvider(provider gpucontext.DeviceProvider, opts backend.Options) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrInvalidProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrInvalidProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrInvalidProvider)
	}
	if opts.Format == gputypes.TextureFormatUndefined {
		opts.Format = provider.SurfaceFormat()
	}
	return newDevice(device, queue, opts, backend.Resolve(opts.API) == backend.BackendNative)
}

// NewFromHAL wraps an existing HAL device and queue, which the caller keeps
// owning. Shaders are compiled to SPIR-V when opts.API names Vulkan.
func NewFromHAL(device hal.Device, queue hal.Queue, opts backend.Options) (*Device, error) {
	if device == nil || queue == nil {
		return nil, errors.New("native: nil HAL device or queue")
	}
	return newDevice(device, queue, opts, backend.Resolve(opts.API) == backend.BackendNative)
}

func newDevice(device hal.Device, queue hal.Queue, opts backend.Options, spirv bool) (*Device, error) {
	opts = opts.WithDefaults()
	if opts.Format == gputypes.TextureFormatUndefined {
		opts.Format = gputypes.TextureFormatBGRA8Unorm
	}
	d := &Device{
		device:   device,
		queue:    queue,
		spirv:    spirv,
		opts:     opts,
		live:     make(map[*Texture]struct{}),
		inflight: make(map[rhi.Submission]*inflight),
	}
	d.pipelines = pipecache.New(pipelineCacheSize, d.retirePipeline)

	sc, err := newSwapchain(d, opts.Width, opts.Height, opts.Format, opts.FramesInFlight)
	if err != nil {
		return nil, err
	}
	d.swapchain = sc

	if opts.HotReload && opts.ShaderDir != "" {
		w, err := NewShaderWatcher(d)
		if err == nil {
			err = w.Watch(opts.ShaderDir)
		}
		if err != nil {
			slogger().Warn("native: shader hot reload disabled", "dir", opts.ShaderDir, "error", err)
			if w != nil {
				_ = w.Close()
			}
		} else {
			d.watcher = w
		}
	}
	return d, nil
}

// Name returns "native".
func (d *Device) Name() string { return backend.BackendNative }

// HAL exposes the underlying device and queue for work the render graph
// does not model, such as compute or readback.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.device, d.queue }

// Adapter returns the adapter name for devices created by Open.
func (d *Device) Adapter() string { return d.adapter }

// ShaderWatcher returns the hot reload watcher, or nil when disabled.
func (d *Device) ShaderWatcher() *ShaderWatcher { return d.watcher }

// PipelineCount returns the number of cached pipelines.
func (d *Device) PipelineCount() int { return d.pipelines.Len() }

// CreateTexture allocates a texture and its default view.
func (d *Device) CreateTexture(desc rhi.TextureDescriptor) (rhi.Texture, error) {
	tex, err := newTexture(d, desc)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.live[tex] = struct{}{}
	d.mu.Unlock()
	return tex, nil
}

// DestroyTexture releases a texture created by CreateTexture. Swapchain
// images and textures of other devices are ignored.
func (d *Device) DestroyTexture(t rhi.Texture) {
	tex, ok := t.(*Texture)
	if !ok || tex == nil || tex.dev != d || tex.swapchain {
		slogger().Warn("native: DestroyTexture on a foreign texture ignored")
		return
	}
	d.mu.Lock()
	delete(d.live, tex)
	d.mu.Unlock()
	tex.destroy()
}

// Swapchain returns the offscreen image ring.
func (d *Device) Swapchain() rhi.Swapchain { return d.swapchain }

// BeginCommandList starts a command encoder.
func (d *Device) BeginCommandList(label string) (rhi.CommandList, error) {
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}
	d.mu.Lock()
	d.openLists++
	d.mu.Unlock()
	return &CommandList{dev: d, label: label, encoder: enc, res: &transient{}}, nil
}

// Submit ends encoding and queues the command buffer with its own fence.
func (d *Device) Submit(c rhi.CommandList) (rhi.Submission, error) {
	cl, ok := c.(*CommandList)
	if !ok || cl.dev != d {
		return 0, errors.New("native: command list belongs to another device")
	}
	if cl.closed {
		return 0, rhi.ErrCommandListClosed
	}
	if cl.pass != nil {
		cl.Discard()
		return 0, fmt.Errorf("native: submit %q with an open render pass", cl.label)
	}
	if cl.err != nil {
		err := cl.err
		cl.Discard()
		return 0, fmt.Errorf("native: submit %q: %w", cl.label, err)
	}

	cmd, err := cl.encoder.EndEncoding()
	if err != nil {
		cl.Discard()
		return 0, fmt.Errorf("native: end encoding: %w", err)
	}
	cl.closed = true
	cl.bound = nil

	// The list stays counted as open until it is tracked as in flight, so
	// retired pipelines it may reference are not collected in between.
	fence, err := d.device.CreateFence()
	if err != nil {
		d.device.FreeCommandBuffer(cmd)
		cl.res.release(d.device)
		d.listClosed()
		return 0, fmt.Errorf("native: create fence: %w", err)
	}
	if err := d.queue.Submit([]hal.CommandBuffer{cmd}, fence, 1); err != nil {
		d.device.DestroyFence(fence)
		d.device.FreeCommandBuffer(cmd)
		cl.res.release(d.device)
		d.listClosed()
		return 0, fmt.Errorf("native: submit: %w", err)
	}

	d.mu.Lock()
	d.openLists--
	d.lastSub++
	sub := d.lastSub
	d.inflight[sub] = &inflight{fence: fence, cmd: cmd, res: cl.res}
	d.mu.Unlock()
	return sub, nil
}

// Wait blocks until sub has completed and releases its resources.
// Submissions that were already waited on return immediately.
func (d *Device) Wait(sub rhi.Submission, timeout time.Duration) error {
	if sub == 0 {
		return nil
	}
	d.mu.Lock()
	f, ok := d.inflight[sub]
	last := d.lastSub
	d.mu.Unlock()
	if !ok {
		if sub > last {
			return fmt.Errorf("native: unknown submission %d", sub)
		}
		return nil
	}

	done, err := d.device.Wait(f.fence, 1, timeout)
	if err != nil {
		return fmt.Errorf("native: wait for submission %d: %w: %w", sub, rhi.ErrDeviceLost, err)
	}
	if !done {
		return fmt.Errorf("native: submission %d: %w", sub, rhi.ErrTimeout)
	}

	d.mu.Lock()
	delete(d.inflight, sub)
	idle := len(d.inflight) == 0 && d.openLists == 0
	d.mu.Unlock()

	d.device.DestroyFence(f.fence)
	d.device.FreeCommandBuffer(f.cmd)
	f.res.release(d.device)
	if idle {
		d.collectPipelines()
	}
	return nil
}

// SubmitAndWait submits cmd and blocks until it completes.
func (d *Device) SubmitAndWait(cmd rhi.CommandList) error {
	sub, err := d.Submit(cmd)
	if err != nil {
		return err
	}
	return d.Wait(sub, rhi.DefaultWaitTimeout)
}

// WaitIdle waits for every outstanding submission in submission order.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	subs := make([]rhi.Submission, 0, len(d.inflight))
	for s := range d.inflight {
		subs = append(subs, s)
	}
	d.mu.Unlock()
	sort.Slice(subs, func(i, j int) bool { return subs[i] < subs[j] })

	var errs []error
	for _, s := range subs {
		if err := d.Wait(s, rhi.DefaultWaitTimeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Destroy waits for the GPU, releases every resource the device created
// and, for devices created by Open, the HAL device itself.
func (d *Device) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	d.mu.Unlock()

	if err := d.WaitIdle(); err != nil {
		slogger().Warn("native: destroy: wait idle failed", "error", err)
	}
	if d.watcher != nil {
		_ = d.watcher.Close()
	}
	d.pipelines.Clear()
	d.collectPipelines()
	d.swapchain.destroyImages()

	d.mu.Lock()
	leaked := make([]*Texture, 0, len(d.live))
	for tex := range d.live {
		leaked = append(leaked, tex)
	}
	d.live = make(map[*Texture]struct{})
	d.mu.Unlock()
	for _, tex := range leaked {
		slogger().Warn("native: texture leaked", "name", tex.desc.Name)
		tex.destroy()
	}

	if d.owned {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
}

// listClosed is called when a command list is discarded or fails to submit.
func (d *Device) listClosed() {
	d.mu.Lock()
	d.openLists--
	idle := len(d.inflight) == 0 && d.openLists == 0
	d.mu.Unlock()
	if idle {
		d.collectPipelines()
	}
}
