package main

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/rhi"
)

const shadowMapSize = 1024

type shadowPass struct{ shadow rendergraph.TextureHandle }

type gbufferPass struct {
	shadow, albedo, normal, depth rendergraph.TextureHandle
}

type compositePass struct {
	albedo, normal rendergraph.TextureHandle
	exposure       float32
}

// slotStats counts work per frame slot.
type slotStats struct {
	frames int
	draws  int
}

func fullscreenDraw(stats *rendergraph.FrameResource[slotStats]) func(ctx *rendergraph.ExecuteContext) {
	return func(ctx *rendergraph.ExecuteContext) {
		ctx.Cmd.Draw(3, 1, 0, 0)
		stats.Get().draws++
	}
}

// addFrame declares Shadow -> GBuffer -> Composite -> swapchain.
func addFrame(g *rendergraph.Graph, exposure float32, stats *rendergraph.FrameResource[slotStats]) {
	draw := fullscreenDraw(stats)

	rendergraph.AddPass(g, "ShadowPass",
		func(d *shadowPass, b *rendergraph.Builder) error {
			d.shadow = b.CreateTexture("Shadow",
				rhi.Texture2D("Shadow", shadowMapSize, shadowMapSize, gputypes.TextureFormatDepth24PlusStencil8))
			b.WriteDepthStencil(d.shadow)
			b.SetPipeline(rhi.PipelineStateObject{
				Shader:     rhi.ShaderDesc{Name: "shadow", Source: shadowWGSL},
				DepthTest:  true,
				DepthWrite: true,
				CullMode:   gputypes.CullModeNone,
			})
			return nil
		},
		func(_ shadowPass, ctx *rendergraph.ExecuteContext) error {
			stats.Get().frames++
			draw(ctx)
			return nil
		},
		shadowPass{})

	rendergraph.AddPass(g, "GBufferPass",
		func(d *gbufferPass, b *rendergraph.Builder) error {
			res := b.RenderResolution()
			d.shadow = b.ReadTexture(b.GetTexture("Shadow"))
			d.albedo = b.WriteTexture(b.CreateTexture("Albedo",
				rhi.Texture2D("Albedo", res.Width, res.Height, gputypes.TextureFormatRGBA8Unorm)))
			d.normal = b.WriteTexture(b.CreateTexture("Normal",
				rhi.Texture2D("Normal", res.Width, res.Height, gputypes.TextureFormatRGBA8Unorm)))
			d.depth = b.WriteDepthStencil(b.CreateTexture("Depth",
				rhi.Texture2D("Depth", res.Width, res.Height, gputypes.TextureFormatDepth24PlusStencil8)))
			b.SetPipeline(rhi.PipelineStateObject{
				Shader:     rhi.ShaderDesc{Name: "gbuffer", Source: gbufferWGSL},
				DepthTest:  true,
				DepthWrite: true,
				CullMode:   gputypes.CullModeNone,
			})
			return nil
		},
		func(_ gbufferPass, ctx *rendergraph.ExecuteContext) error {
			draw(ctx)
			return nil
		},
		gbufferPass{})

	rendergraph.AddPass(g, "CompositePass",
		func(d *compositePass, b *rendergraph.Builder) error {
			d.albedo = b.ReadTexture(b.GetTexture("Albedo"))
			d.normal = b.ReadTexture(b.GetTexture("Normal"))
			b.WriteTexture(rendergraph.SwapchainHandle)
			b.SetPipeline(rhi.PipelineStateObject{
				Shader:   rhi.ShaderDesc{Name: "composite", Source: compositeWGSL},
				Uniforms: []rhi.UniformBinding{{Set: 0, Binding: 0, Size: 16}},
			})
			out := b.OutputResolution()
			b.SetViewport(out.Width, out.Height)
			return nil
		},
		func(d compositePass, ctx *rendergraph.ExecuteContext) error {
			elapsed, _ := rendergraph.FrameGlobal[time.Duration](ctx.Frame, "elapsed")
			if err := ctx.Cmd.SetUniform(0, 0, frameUniform(elapsed, d.exposure)); err != nil {
				return err
			}
			draw(ctx)
			return nil
		},
		compositePass{exposure: exposure})
}

// frameUniform packs the composite pass's Frame struct.
func frameUniform(elapsed time.Duration, exposure float32) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(elapsed.Seconds())))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(exposure))
	return buf
}
