package rendergraph

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/rendergraph/rhi"
)

func TestCreateTextureIdempotent(t *testing.T) {
	g, dev := newTestGraph(t)

	h1, err := g.CreateTexture("Colour", colorDesc("Colour", 1920, 1080))
	if err != nil {
		t.Fatal(err)
	}
	h2, err := g.CreateTexture("Colour", colorDesc("Colour", 1920, 1080))
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("same name returned %v and %v", h1, h2)
	}
	if g.GetTexture("Colour") != h1 {
		t.Error("GetTexture disagrees with CreateTexture")
	}
	if g.GetTexture("Missing") != InvalidHandle {
		t.Error("GetTexture of a missing name should return InvalidHandle")
	}

	var fromPass TextureHandle
	AddPass(g, "p",
		func(d *TextureHandle, b *Builder) error {
			*d = b.CreateTexture("Colour", colorDesc("Colour", 1920, 1080))
			b.WriteTexture(*d)
			return nil
		},
		func(d TextureHandle, _ *ExecuteContext) error {
			fromPass = d
			return nil
		},
		InvalidHandle)
	if err := g.Execute(); err != nil {
		t.Fatal(err)
	}
	if fromPass != h1 {
		t.Errorf("pass got %v, want %v", fromPass, h1)
	}
	if n := dev.Stats().TexturesCreated; n != 1 {
		t.Errorf("TexturesCreated = %d, want 1", n)
	}
}

// runWriter executes one frame that writes name with desc and returns the
// backend texture it was given.
func runWriter(t *testing.T, g *Graph, name string, desc rhi.TextureDescriptor) rhi.Texture {
	t.Helper()
	var tex rhi.Texture
	AddPass(g, "writer",
		func(d *TextureHandle, b *Builder) error {
			*d = b.WriteTexture(b.CreateTexture(name, desc))
			return nil
		},
		func(h TextureHandle, ctx *ExecuteContext) error {
			var err error
			tex, err = ctx.Texture(h)
			return err
		},
		InvalidHandle)
	if err := g.Execute(); err != nil {
		t.Fatalf("frame %d: %v", g.FrameNumber(), err)
	}
	return tex
}

func TestCacheReusePerFrameSlot(t *testing.T) {
	g, dev := newTestGraph(t, WithFramesInFlight(2))
	desc := colorDesc("Colour", 64, 64)

	slot0 := runWriter(t, g, "Colour", desc)
	slot1 := runWriter(t, g, "Colour", desc)
	again0 := runWriter(t, g, "Colour", desc)
	again1 := runWriter(t, g, "Colour", desc)

	if slot0 == slot1 {
		t.Error("frame slots must not share a texture")
	}
	if again0 != slot0 || again1 != slot1 {
		t.Error("a slot should reuse its cached texture")
	}
	if n := dev.Stats().TexturesCreated; n != 2 {
		t.Errorf("TexturesCreated = %d, want 2", n)
	}
	if s := g.CacheStats(); s.Hits != 2 || s.Created != 2 || s.Textures != 2 {
		t.Errorf("CacheStats = %v", s)
	}
}

func TestResizeRecreatesTexture(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))
	g, dev := newTestGraph(t, WithFramesInFlight(1), WithLogger(logger))

	var stale TextureHandle
	AddPass(g, "writer",
		func(d *TextureHandle, b *Builder) error {
			*d = b.WriteTexture(b.CreateTexture("Colour", colorDesc("Colour", 1280, 720)))
			stale = *d
			return nil
		},
		nopExecute[TextureHandle],
		InvalidHandle)
	if err := g.Execute(); err != nil {
		t.Fatal(err)
	}

	old := dev.Stats()
	tex := runWriter(t, g, "Colour", colorDesc("Colour", 1920, 1080))

	if d := tex.Descriptor(); d.Width != 1920 || d.Height != 1080 {
		t.Errorf("recreated texture is %dx%d", d.Width, d.Height)
	}
	s := dev.Stats()
	if s.TexturesCreated != old.TexturesCreated+1 || s.TexturesDestroyed != old.TexturesDestroyed+1 {
		t.Errorf("stats %+v -> %+v, want one destroy and one create", old, s)
	}
	if g.CacheStats().Recreated != 1 {
		t.Errorf("CacheStats = %v", g.CacheStats())
	}
	if !strings.Contains(logs.String(), "recreating texture") || !strings.Contains(logs.String(), "1280x720") {
		t.Errorf("resize was not logged:\n%s", logs.String())
	}
	if _, err := g.GetRHITexture(stale); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("stale handle resolved: %v", err)
	}
}

func TestUsageWidening(t *testing.T) {
	g, dev := newTestGraph(t, WithFramesInFlight(1))
	desc := colorDesc("Target", 32, 32)
	desc.Usage = rhi.TextureUsageColorAttachment

	first := runWriter(t, g, "Target", desc)
	if !first.Descriptor().Usage.Has(rhi.TextureUsageColorAttachment) {
		t.Fatalf("usage = %v", first.Descriptor().Usage)
	}

	// A frame that also samples the texture needs a wider allocation.
	addSetup(g, "w", func(b *Builder) { b.WriteTexture(b.CreateTexture("Target", desc)) })
	addSetup(g, "r", func(b *Builder) {
		b.ReadTexture(b.GetTexture("Target"))
		b.WriteTexture(SwapchainHandle)
	})
	if err := g.Execute(); err != nil {
		t.Fatal(err)
	}
	wider := runWriter(t, g, "Target", desc)
	if wider == first {
		t.Fatal("texture without sampled usage was not replaced")
	}
	if u := wider.Descriptor().Usage; !u.Has(rhi.TextureUsageSampled | rhi.TextureUsageColorAttachment) {
		t.Errorf("widened usage = %v", u)
	}
	// Usage never shrinks, so the last write-only frame reused the wide texture.
	if n := dev.Stats().TexturesCreated; n != 2 {
		t.Errorf("TexturesCreated = %d, want 2", n)
	}
}

func TestFrameIsolation(t *testing.T) {
	g, _ := newTestGraph(t)
	runWriter(t, g, "Temp", colorDesc("Temp", 8, 8))

	var got TextureHandle
	var lookupErr error
	AddPass(g, "next",
		func(_ *struct{}, b *Builder) error {
			got = b.g.GetTexture("Temp")
			return nil
		},
		nopExecute[struct{}],
		struct{}{})
	lookupErr = g.Execute()
	if got != InvalidHandle {
		t.Errorf("texture from the previous frame is visible: %v", got)
	}
	if lookupErr != nil {
		t.Errorf("graph-level lookup should not fail the frame: %v", lookupErr)
	}
}

func TestStaleTexturesAreEvicted(t *testing.T) {
	g, dev := newTestGraph(t, WithFramesInFlight(1), WithEvictAfter(2))
	runWriter(t, g, "Once", colorDesc("Once", 8, 8))

	runWriter(t, g, "Other", colorDesc("Other", 8, 8))
	if dev.Stats().TexturesDestroyed != 0 {
		t.Fatal("evicted too early")
	}
	runWriter(t, g, "Other", colorDesc("Other", 8, 8))
	if dev.Stats().TexturesDestroyed != 1 {
		t.Errorf("TexturesDestroyed = %d, want 1", dev.Stats().TexturesDestroyed)
	}
	if g.CacheStats().Evicted != 1 {
		t.Errorf("CacheStats = %v", g.CacheStats())
	}
}

func TestGetRHITextureLifecycle(t *testing.T) {
	g, _ := newTestGraph(t)
	h, _ := g.CreateTexture("A", colorDesc("A", 8, 8))
	if _, err := g.GetRHITexture(h); !errors.Is(err, ErrNotRealized) {
		t.Errorf("before Execute: %v", err)
	}
	if _, err := g.GetRHITexture(SwapchainHandle); !errors.Is(err, ErrNotRealized) {
		t.Errorf("swapchain before Execute: %v", err)
	}

	var inSetup, inExecute error
	AddPass(g, "p",
		func(_ *struct{}, b *Builder) error {
			b.WriteTexture(h)
			_, inSetup = b.g.GetRHITexture(h)
			return nil
		},
		func(_ struct{}, ctx *ExecuteContext) error {
			_, inExecute = ctx.Texture(h)
			return nil
		},
		struct{}{})
	if err := g.Execute(); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(inSetup, ErrNotRealized) || inExecute != nil {
		t.Errorf("setup: %v, execute: %v", inSetup, inExecute)
	}
}

func TestCacheStatsString(t *testing.T) {
	s := CacheStats{Textures: 3, Bytes: 3 << 20, Created: 4, Recreated: 1, Evicted: 0, Hits: 10}
	want := "TextureCache[3 textures, 3.0 MB, 4 created, 1 recreated, 0 evicted, 10 hits]"
	if s.String() != want {
		t.Errorf("String() = %q", s.String())
	}
}
