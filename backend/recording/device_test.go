package recording

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/backend"
	"github.com/gogpu/rendergraph/rhi"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	d := New(backend.Options{Width: 64, Height: 32, FramesInFlight: 2})
	t.Cleanup(d.Destroy)
	return d
}

func TestRegistered(t *testing.T) {
	dev, err := backend.Get("null", backend.Options{})
	if err != nil {
		t.Fatalf("Get(null): %v", err)
	}
	defer dev.Destroy()
	if dev.Name() != backend.BackendRecording {
		t.Errorf("Name() = %q", dev.Name())
	}
}

func TestCreateDestroyTexture(t *testing.T) {
	d := newTestDevice(t)

	tex, err := d.CreateTexture(rhi.Texture2D("Colour", 16, 16, gputypes.TextureFormatRGBA8Unorm))
	if err != nil {
		t.Fatal(err)
	}
	if got := tex.Descriptor().Name; got != "Colour" {
		t.Errorf("name = %q", got)
	}
	if s := d.Stats(); s.TexturesCreated != 1 || s.LiveTextures != 1 {
		t.Errorf("stats after create = %+v", s)
	}

	d.DestroyTexture(tex)
	d.DestroyTexture(tex)
	if s := d.Stats(); s.TexturesDestroyed != 1 || s.LiveTextures != 0 {
		t.Errorf("stats after destroy = %+v", s)
	}
	if v := d.Violations(); len(v) != 1 || !strings.Contains(v[0], "destroyed twice") {
		t.Errorf("violations = %v", v)
	}
}

func TestCreateTextureInvalid(t *testing.T) {
	d := newTestDevice(t)
	if _, err := d.CreateTexture(rhi.Texture2D("bad", 0, 0, gputypes.TextureFormatRGBA8Unorm)); err == nil {
		t.Error("zero-size texture should fail")
	}
}

func TestFailNext(t *testing.T) {
	d := newTestDevice(t)
	oom := rhi.ErrOutOfMemory
	d.FailNext(OpCreateTexture, oom)

	_, err := d.CreateTexture(rhi.Texture2D("a", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	if !errors.Is(err, oom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, err := d.CreateTexture(rhi.Texture2D("a", 4, 4, gputypes.TextureFormatRGBA8Unorm)); err != nil {
		t.Errorf("failure should only apply once: %v", err)
	}
	d.DestroyTexture(mustTexture(t, d))
}

func mustTexture(t *testing.T, d *Device) rhi.Texture {
	t.Helper()
	for _, tex := range d.live {
		if !tex.swapchain {
			return tex
		}
	}
	t.Fatal("no live texture")
	return nil
}

func TestCommandListRecording(t *testing.T) {
	d := newTestDevice(t)
	tex, _ := d.CreateTexture(rhi.Texture2D("Colour", 16, 16, gputypes.TextureFormatRGBA8Unorm))
	defer d.DestroyTexture(tex)

	cmd, err := d.BeginCommandList("frame")
	if err != nil {
		t.Fatal(err)
	}
	cmd.TransitionTextures([]rhi.TextureBarrier{{Name: "Colour", Texture: tex, Before: rhi.StateUndefined, After: rhi.StateColorAttachment}})
	if err := cmd.BeginRenderpass(rhi.RenderpassDescription{
		ColorAttachments: []rhi.AttachmentDescription{{Texture: tex, LoadOp: gputypes.LoadOpClear}},
	}); err != nil {
		t.Fatal(err)
	}
	pso := rhi.PipelineStateObject{Name: "fill", Shader: rhi.ShaderDesc{Name: "fill"}}
	if err := cmd.BindPipeline(pso); err != nil {
		t.Fatal(err)
	}
	if err := cmd.BindPipeline(pso); err != nil {
		t.Fatal(err)
	}
	cmd.Draw(3, 1, 0, 0)
	cmd.EndRenderpass()

	if _, err := d.Submit(cmd); err != nil {
		t.Fatal(err)
	}

	last, ok := d.LastSubmission()
	if !ok {
		t.Fatal("no submission")
	}
	want := []CommandType{CmdTransition, CmdBeginRenderpass, CmdBindPipeline, CmdBindPipeline, CmdDraw, CmdEndRenderpass}
	if len(last.Commands) != len(want) {
		t.Fatalf("got %d commands, want %d: %v", len(last.Commands), len(want), last.Commands)
	}
	for i, c := range last.Commands {
		if c.Type() != want[i] {
			t.Errorf("command %d = %v, want %v", i, c.Type(), want[i])
		}
	}
	first := last.Commands[2].(BindPipelineCommand)
	second := last.Commands[3].(BindPipelineCommand)
	if !first.Created || second.Created {
		t.Errorf("pipeline cache: created=%v then %v", first.Created, second.Created)
	}
	if d.StateOf(tex) != rhi.StateColorAttachment {
		t.Errorf("StateOf = %v", d.StateOf(tex))
	}
	if d.Stats().PipelinesCreated != 1 {
		t.Errorf("PipelinesCreated = %d", d.Stats().PipelinesCreated)
	}
}

func TestSubmitRules(t *testing.T) {
	d := newTestDevice(t)
	tex, _ := d.CreateTexture(rhi.Texture2D("c", 4, 4, gputypes.TextureFormatRGBA8Unorm))
	defer d.DestroyTexture(tex)

	open, _ := d.BeginCommandList("open")
	_ = open.BeginRenderpass(rhi.RenderpassDescription{ColorAttachments: []rhi.AttachmentDescription{{Texture: tex}}})
	if _, err := d.Submit(open); err == nil {
		t.Error("submit with an open render pass should fail")
	}

	done, _ := d.BeginCommandList("done")
	if err := d.SubmitAndWait(done); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Submit(done); !errors.Is(err, rhi.ErrCommandListClosed) {
		t.Errorf("resubmit: %v", err)
	}

	discarded, _ := d.BeginCommandList("discarded")
	discarded.Discard()
	if _, err := d.Submit(discarded); !errors.Is(err, rhi.ErrCommandListClosed) {
		t.Errorf("submit after discard: %v", err)
	}
}

func TestBarrierMismatchIsViolation(t *testing.T) {
	d := newTestDevice(t)
	tex, _ := d.CreateTexture(rhi.Texture2D("Shadow", 8, 8, gputypes.TextureFormatDepth24PlusStencil8))
	defer d.DestroyTexture(tex)

	cmd, _ := d.BeginCommandList("bad")
	cmd.TransitionTextures([]rhi.TextureBarrier{
		{Name: "Shadow", Texture: tex, Before: rhi.StateUndefined, After: rhi.StateDepthAttachment},
		{Name: "Shadow", Texture: tex, Before: rhi.StateColorAttachment, After: rhi.StateDepthRead},
	})
	cmd.Discard()

	if v := d.Violations(); len(v) != 1 {
		t.Errorf("violations = %v", v)
	}
}

func TestSwapchainPresent(t *testing.T) {
	d := newTestDevice(t)
	sc := d.Swapchain()

	if err := sc.Present(); err == nil {
		t.Error("present without acquire should fail")
	}

	img, err := sc.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	cmd, _ := d.BeginCommandList("present")
	cmd.TransitionTextures([]rhi.TextureBarrier{{Texture: img, Before: rhi.StateUndefined, After: rhi.StatePresent}})
	if err := d.SubmitAndWait(cmd); err != nil {
		t.Fatal(err)
	}
	if err := sc.Present(); err != nil {
		t.Fatal(err)
	}

	next, _ := sc.Acquire()
	if next == img {
		t.Error("ring should advance after present")
	}
	if err := sc.Present(); err != nil {
		t.Fatal(err)
	}
	if v := d.Violations(); len(v) != 1 || !strings.Contains(v[0], "Present") {
		t.Errorf("expected one present violation, got %v", v)
	}
	if d.Stats().Presents != 2 {
		t.Errorf("Presents = %d", d.Stats().Presents)
	}
}

func TestSwapchainRelease(t *testing.T) {
	d := newTestDevice(t)
	sc := d.Swapchain()

	sc.Release()
	img, _ := sc.Acquire()
	sc.Release()
	if err := sc.Resize(32, 32); err != nil {
		t.Fatalf("resize after release: %v", err)
	}
	if next, _ := sc.Acquire(); next.Descriptor().Name != img.Descriptor().Name {
		t.Errorf("release advanced the ring: %q then %q", img.Descriptor().Name, next.Descriptor().Name)
	}
	sc.Release()
	if s := d.Stats(); s.Releases != 2 || s.Presents != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestSwapchainResize(t *testing.T) {
	d := newTestDevice(t)
	sc := d.Swapchain()
	if err := sc.Resize(128, 96); err != nil {
		t.Fatal(err)
	}
	w, h := sc.Size()
	if w != 128 || h != 96 {
		t.Errorf("Size() = %dx%d", w, h)
	}
	img, _ := sc.Acquire()
	if got := img.Descriptor(); got.Width != 128 || got.Height != 96 {
		t.Errorf("image size = %dx%d", got.Width, got.Height)
	}
	if err := sc.Resize(1, 1); err == nil {
		t.Error("resize while acquired should fail")
	}
}

func TestWaitMarksSubmission(t *testing.T) {
	d := newTestDevice(t)
	cmd, _ := d.BeginCommandList("a")
	sub, err := d.Submit(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Wait(sub, rhi.DefaultWaitTimeout); err != nil {
		t.Fatal(err)
	}
	if !d.Submissions()[0].Waited {
		t.Error("submission should be marked waited")
	}
	if err := d.Wait(0, 0); err != nil {
		t.Errorf("zero submission: %v", err)
	}
	if err := d.Wait(99, 0); err == nil {
		t.Error("unknown submission should fail")
	}
}

func TestDestroyReportsLeaks(t *testing.T) {
	d := New(backend.Options{})
	if _, err := d.CreateTexture(rhi.Texture2D("leak", 4, 4, gputypes.TextureFormatRGBA8Unorm)); err != nil {
		t.Fatal(err)
	}
	d.Destroy()
	if v := d.Violations(); len(v) != 1 || !strings.Contains(v[0], "leak") {
		t.Errorf("violations = %v", v)
	}
}

func TestCommandStrings(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{EndRenderpassCommand{}, "EndRenderpass"},
		{DrawCommand{VertexCount: 3, InstanceCount: 1}, "Draw(3, 1)"},
		{SetUniformCommand{Set: 0, Binding: 1, Data: make([]byte, 64)}, "SetUniform(0.1, 64 bytes)"},
		{BindPipelineCommand{PSO: rhi.PipelineStateObject{Name: "gbuffer"}}, "BindPipeline(gbuffer)"},
		{TransitionCommand{Barriers: []rhi.TextureBarrier{{Name: "A", Before: rhi.StateUndefined, After: rhi.StateShaderRead}}},
			"Transition[A: undefined -> shader-read]"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if CommandType(255).String() != "Unknown" {
		t.Error("unknown command type name")
	}
}
