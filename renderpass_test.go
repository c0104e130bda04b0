package rendergraph

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/backend/recording"
	"github.com/gogpu/rendergraph/rhi"
)

func TestDerivedRenderpassAndPipeline(t *testing.T) {
	g, _ := newTestGraph(t)
	var order []string
	addDeferredFrame(g, &order)
	if err := g.Execute(); err != nil {
		t.Fatal(err)
	}

	rp, ok := g.GetRenderpassDescription("GBufferPass")
	if !ok {
		t.Fatal("no render pass for GBufferPass")
	}
	if len(rp.ColorAttachments) != 1 || rp.DepthStencil == nil {
		t.Fatalf("attachments = %+v", rp)
	}
	c := rp.ColorAttachments[0]
	if c.Texture == nil || c.Texture.Descriptor().Name != "Colour" {
		t.Errorf("color attachment = %+v", c)
	}
	if c.LoadOp != gputypes.LoadOpClear || c.StoreOp != gputypes.StoreOpStore {
		t.Errorf("load/store = %v/%v", c.LoadOp, c.StoreOp)
	}
	if c.InitialState != rhi.StateUndefined || c.FinalState != rhi.StateColorAttachment {
		t.Errorf("states = %v -> %v", c.InitialState, c.FinalState)
	}
	if rp.DepthStencil.Format != gputypes.TextureFormatDepth24PlusStencil8 {
		t.Errorf("depth format = %v", rp.DepthStencil.Format)
	}

	pso, ok := g.GetPipelineStateObject("GBufferPass")
	if !ok {
		t.Fatal("no pipeline for GBufferPass")
	}
	if pso.Name != "GBufferPass" || pso.Shader.Name != "gbuffer" {
		t.Errorf("pso = %+v", pso)
	}
	if len(pso.ColorFormats) != 1 || pso.ColorFormats[0] != gputypes.TextureFormatRGBA8Unorm ||
		pso.DepthFormat != gputypes.TextureFormatDepth24PlusStencil8 {
		t.Errorf("pso targets = %v / %v", pso.ColorFormats, pso.DepthFormat)
	}

	// The composite pass reads the swapchain it writes, so it loads.
	rp, _ = g.GetRenderpassDescription("CompositePass")
	if len(rp.ColorAttachments) != 1 || rp.ColorAttachments[0].LoadOp != gputypes.LoadOpLoad {
		t.Errorf("composite attachments = %+v", rp.ColorAttachments)
	}
	if _, ok := g.GetPipelineStateObject("CompositePass"); ok {
		t.Error("pass without shader or PSO should report no pipeline")
	}
	if _, ok := g.GetRenderpassDescription("Missing"); ok {
		t.Error("unknown pass returned a render pass")
	}
}

func TestManualRenderpass(t *testing.T) {
	g, _ := newTestGraph(t)
	addSetup(g, "MRT", func(b *Builder) {
		b.WriteTexture(b.CreateTexture("Albedo", colorDesc("Albedo", 256, 256)))
		b.WriteTexture(b.CreateTexture("Normal", rhi.Texture2D("Normal", 256, 256, gputypes.TextureFormatBGRA8Unorm)))
		b.WriteDepthStencil(b.CreateTexture("Depth", depthDesc("Depth", 256, 256)))
		b.SetRenderpass(rhi.RenderpassDescription{
			ColorAttachments: []rhi.AttachmentDescription{
				{LoadOp: gputypes.LoadOpClear, StoreOp: gputypes.StoreOpStore, ClearColor: gputypes.Color{R: 1, A: 1}},
				{LoadOp: gputypes.LoadOpClear, StoreOp: gputypes.StoreOpDiscard},
			},
			DepthStencil: &rhi.AttachmentDescription{LoadOp: gputypes.LoadOpClear, ClearDepth: 0},
		})
		b.SetPipeline(rhi.PipelineStateObject{Name: "mrt", Shader: rhi.ShaderDesc{Name: "mrt"}, DepthTest: true})
	})
	if err := g.Execute(); err != nil {
		t.Fatal(err)
	}

	rp, _ := g.GetRenderpassDescription("MRT")
	names := []string{"Albedo", "Normal"}
	formats := []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm}
	for i, a := range rp.ColorAttachments {
		if a.Texture == nil || a.Texture.Descriptor().Name != names[i] {
			t.Errorf("attachment %d = %+v, want %s", i, a, names[i])
			continue
		}
		if a.Format != formats[i] {
			t.Errorf("attachment %d format = %v", i, a.Format)
		}
	}
	if rp.ColorAttachments[0].ClearColor.R != 1 || rp.ColorAttachments[1].StoreOp != gputypes.StoreOpDiscard {
		t.Error("manual load/store settings were not kept")
	}
	if rp.DepthStencil == nil || rp.DepthStencil.Texture == nil || rp.DepthStencil.ClearDepth != 0 {
		t.Errorf("depth = %+v", rp.DepthStencil)
	}

	pso, _ := g.GetPipelineStateObject("MRT")
	if pso.Name != "mrt" || !pso.DepthTest || len(pso.ColorFormats) != 2 {
		t.Errorf("pso = %+v", pso)
	}
}

func TestViewportAndScissor(t *testing.T) {
	g, dev := newTestGraph(t)
	addSetup(g, "Half", func(b *Builder) {
		b.WriteTexture(b.CreateTexture("Half", colorDesc("Half", 960, 540)))
	})
	addSetup(g, "Clipped", func(b *Builder) {
		b.ReadTexture(b.GetTexture("Half"))
		b.WriteTexture(SwapchainHandle)
		b.SetViewport(800, 600)
		b.SetScissor(100, 50)
	})
	if err := g.Execute(); err != nil {
		t.Fatal(err)
	}

	var viewports []rhi.Viewport
	var scissors []rhi.Rect
	for _, c := range submittedCommands(t, dev) {
		switch c := c.(type) {
		case recording.SetViewportCommand:
			viewports = append(viewports, c.Viewport)
		case recording.SetScissorCommand:
			scissors = append(scissors, c.Rect)
		}
	}
	wantVP := []rhi.Viewport{rhi.FullViewport(960, 540), rhi.FullViewport(800, 600)}
	wantSC := []rhi.Rect{rhi.FullRect(960, 540), rhi.FullRect(100, 50)}
	if len(viewports) != 2 || viewports[0] != wantVP[0] || viewports[1] != wantVP[1] {
		t.Errorf("viewports = %+v", viewports)
	}
	if len(scissors) != 2 || scissors[0] != wantSC[0] || scissors[1] != wantSC[1] {
		t.Errorf("scissors = %+v", scissors)
	}
}

func TestPassWithoutWritesOpensNoRenderpass(t *testing.T) {
	g, dev := newTestGraph(t)
	addSetup(g, "Producer", func(b *Builder) {
		b.WriteTexture(b.CreateTexture("Data", colorDesc("Data", 16, 16)))
	})
	var ran bool
	AddPass(g, "Readback",
		func(_ *struct{}, b *Builder) error {
			b.ReadTexture(b.GetTexture("Data"))
			return nil
		},
		func(_ struct{}, ctx *ExecuteContext) error {
			ran = true
			if !ctx.Renderpass().IsEmpty() {
				t.Error("read-only pass has a render pass")
			}
			return nil
		},
		struct{}{})
	if err := g.Execute(); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("execute did not run")
	}
	if n := countType(submittedCommands(t, dev), recording.CmdBeginRenderpass); n != 1 {
		t.Errorf("BeginRenderpass count = %d, want 1", n)
	}
}
