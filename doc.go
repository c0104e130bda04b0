// Package rendergraph provides a frame graph for GPU rendering in Go.
//
// # Overview
//
// A frame is described as a sequence of named passes. Each pass declares,
// in a setup callback, which textures it creates, reads and writes; in an
// execute callback it records draw calls. The graph turns those
// declarations into a validated dependency graph, allocates transient
// textures per frame in flight and records the state transitions (barriers)
// each pass needs before it runs.
//
// # Quick Start
//
//	dev, _ := backend.Open("", backend.Options{Width: 1920, Height: 1080})
//	g := rendergraph.New(dev)
//	defer g.Release()
//
//	type gbufferData struct{ colour rendergraph.TextureHandle }
//
//	rendergraph.AddPass(g, "GBufferPass",
//	    func(d *gbufferData, b *rendergraph.Builder) error {
//	        d.colour = b.CreateTexture("Colour", rhi.Texture2D("Colour", 1920, 1080, gputypes.TextureFormatRGBA8Unorm))
//	        b.WriteTexture(d.colour)
//	        b.SetShader(rhi.ShaderDesc{Name: "gbuffer", Path: "gbuffer.wgsl"})
//	        return nil
//	    },
//	    func(d gbufferData, ctx *rendergraph.ExecuteContext) error {
//	        ctx.Cmd.Draw(3, 1, 0, 0)
//	        return nil
//	    },
//	    gbufferData{})
//
//	if err := g.Execute(); err != nil {
//	    log.Fatal(err)
//	}
//
// Passes are added again every frame. Nothing declared in one frame,
// handles included, is visible in the next; textures persist across frames
// only by being declared again under the same name.
//
// # Frame Lifecycle
//
// Execute moves through [StateBuilding] (setup callbacks run),
// [StateBarriered] (dependencies validated, textures realized, barriers
// planned), [StateExecuting] (execute callbacks run on one command list)
// and [StateRetired] (frame index advances). Passes always run in the order
// they were added; the dependency graph validates that order and never
// changes it.
//
// # Errors
//
// Declaration mistakes, such as reading a texture no earlier pass wrote or
// two passes writing the same texture without a passthrough, are contract
// violations. They abort the frame before any GPU work is recorded, and
// every one of them matches [ErrContractViolation] with errors.Is.
//
// # Backends
//
// The graph depends only on the [rhi.Device] interface. Backends live in
// backend/native (Vulkan through gogpu/wgpu) and backend/recording (an
// in-memory command log used for tests) and are selected once at startup
// through the backend registry.
package rendergraph
