package backend

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/rhi"
)

// stubDevice is the smallest rhi.Device the registry needs to hand back.
type stubDevice struct {
	name string
	opts Options
}

func (d *stubDevice) Name() string { return d.name }
func (d *stubDevice) CreateTexture(rhi.TextureDescriptor) (rhi.Texture, error) {
	return nil, rhi.ErrUnsupported
}
func (d *stubDevice) DestroyTexture(rhi.Texture) {}
func (d *stubDevice) Swapchain() rhi.Swapchain  { return nil }
func (d *stubDevice) BeginCommandList(string) (rhi.CommandList, error) {
	return nil, rhi.ErrUnsupported
}
func (d *stubDevice) Submit(rhi.CommandList) (rhi.Submission, error) { return 0, nil }
func (d *stubDevice) Wait(rhi.Submission, time.Duration) error       { return nil }
func (d *stubDevice) SubmitAndWait(rhi.CommandList) error            { return nil }
func (d *stubDevice) WaitIdle() error                                { return nil }
func (d *stubDevice) Destroy()                                       {}

func withRegistry(t *testing.T, entries map[string]Factory) {
	t.Helper()
	registryMu.Lock()
	saved := factories
	factories = make(map[string]Factory, len(entries))
	for k, v := range entries {
		factories[k] = v
	}
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		factories = saved
		registryMu.Unlock()
	})
}

func okFactory(name string) Factory {
	return func(opts Options) (rhi.Device, error) {
		return &stubDevice{name: name, opts: opts}, nil
	}
}

func failFactory(err error) Factory {
	return func(Options) (rhi.Device, error) { return nil, err }
}

func TestResolve(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"vulkan", BackendNative},
		{"V", BackendNative},
		{" vk ", BackendNative},
		{"native", BackendNative},
		{"recording", BackendRecording},
		{"null", BackendRecording},
		{"DX12", "dx12"},
	}
	for _, tt := range tests {
		if got := Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetPassesRequestedAPI(t *testing.T) {
	withRegistry(t, map[string]Factory{BackendNative: okFactory(BackendNative)})

	dev, err := Get("vulkan", Options{})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	sd := dev.(*stubDevice)
	if sd.opts.API != "vulkan" {
		t.Errorf("API = %q, want vulkan", sd.opts.API)
	}
	if sd.opts.Width != 1920 || sd.opts.Height != 1080 || sd.opts.FramesInFlight != 2 {
		t.Errorf("defaults not applied: %+v", sd.opts)
	}
}

func TestGetUnknown(t *testing.T) {
	withRegistry(t, map[string]Factory{BackendRecording: okFactory(BackendRecording)})

	_, err := Get("dx12", Options{})
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Fatalf("expected ErrBackendNotAvailable, got %v", err)
	}
}

func TestDefaultPriority(t *testing.T) {
	withRegistry(t, map[string]Factory{
		"zeta":           okFactory("zeta"),
		BackendRecording: okFactory(BackendRecording),
		BackendNative:    okFactory(BackendNative),
	})

	dev, err := Default(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if dev.Name() != BackendNative {
		t.Errorf("Default() = %q, want %q", dev.Name(), BackendNative)
	}
}

func TestDefaultFallsBack(t *testing.T) {
	noGPU := errors.New("no adapters")
	withRegistry(t, map[string]Factory{
		BackendNative:    failFactory(noGPU),
		BackendRecording: okFactory(BackendRecording),
	})

	dev, err := Default(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if dev.Name() != BackendRecording {
		t.Errorf("Default() = %q, want fallback to recording", dev.Name())
	}
}

func TestDefaultAllFail(t *testing.T) {
	noGPU := errors.New("no adapters")
	withRegistry(t, map[string]Factory{BackendNative: failFactory(noGPU)})

	_, err := Default(Options{})
	if !errors.Is(err, ErrBackendNotAvailable) || !errors.Is(err, noGPU) {
		t.Errorf("expected joined error, got %v", err)
	}

	withRegistry(t, nil)
	if _, err := Default(Options{}); !errors.Is(err, ErrNoBackends) {
		t.Errorf("expected ErrNoBackends, got %v", err)
	}
}

func TestOpenEmptyNameUsesDefault(t *testing.T) {
	withRegistry(t, map[string]Factory{BackendRecording: okFactory(BackendRecording)})

	dev, err := Open("", Options{Format: gputypes.TextureFormatRGBA8Unorm})
	if err != nil {
		t.Fatal(err)
	}
	if dev.Name() != BackendRecording {
		t.Errorf("Open(\"\") = %q", dev.Name())
	}
}

func TestRegisterPanics(t *testing.T) {
	withRegistry(t, nil)

	assertPanics := func(name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}
	assertPanics("nil factory", func() { Register("x", nil) })
	Register("x", okFactory("x"))
	assertPanics("duplicate", func() { Register("x", okFactory("x")) })

	if !IsRegistered("x") {
		t.Error("x should be registered")
	}
	if got := Available(); !slices.Equal(got, []string{"x"}) {
		t.Errorf("Available() = %v", got)
	}
	Unregister("x")
	if IsRegistered("x") {
		t.Error("x should be unregistered")
	}
}
