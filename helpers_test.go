package rendergraph

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rendergraph/backend"
	"github.com/gogpu/rendergraph/backend/recording"
	"github.com/gogpu/rendergraph/rhi"
)

// newTestGraph returns a graph on a recording device. Cleanup releases the
// graph and fails the test if the device saw a barrier or lifetime
// violation.
func newTestGraph(t *testing.T, opts ...Option) (*Graph, *recording.Device) {
	t.Helper()
	dev := recording.New(backend.Options{Width: 1920, Height: 1080, FramesInFlight: 2})
	g := New(dev, opts...)
	t.Cleanup(func() {
		if err := g.Release(); err != nil {
			t.Errorf("Release: %v", err)
		}
		dev.Destroy()
		if v := dev.Violations(); len(v) > 0 {
			t.Errorf("device violations:\n%v", v)
		}
	})
	return g, dev
}

func colorDesc(name string, w, h uint32) rhi.TextureDescriptor {
	return rhi.Texture2D(name, w, h, gputypes.TextureFormatRGBA8Unorm)
}

func depthDesc(name string, w, h uint32) rhi.TextureDescriptor {
	return rhi.Texture2D(name, w, h, gputypes.TextureFormatDepth24PlusStencil8)
}

// nopExecute is an execute callback that draws a full-screen triangle.
func nopExecute[T any](_ T, ctx *ExecuteContext) error {
	ctx.Cmd.Draw(3, 1, 0, 0)
	return nil
}

// addSetup adds a pass whose payload is unused.
func addSetup(g *Graph, name string, setup func(b *Builder)) {
	AddPass(g, name,
		func(_ *struct{}, b *Builder) error {
			setup(b)
			return nil
		},
		nopExecute[struct{}],
		struct{}{})
}

// submittedCommands returns the command log of the last submission.
func submittedCommands(t *testing.T, dev *recording.Device) []recording.Command {
	t.Helper()
	last, ok := dev.LastSubmission()
	if !ok {
		t.Fatal("nothing submitted")
	}
	return last.Commands
}

// transitions returns every barrier in cmds, in recording order.
func transitions(cmds []recording.Command) []rhi.TextureBarrier {
	var out []rhi.TextureBarrier
	for _, c := range cmds {
		if tc, ok := c.(recording.TransitionCommand); ok {
			out = append(out, tc.Barriers...)
		}
	}
	return out
}

func barrierStrings(bs []rhi.TextureBarrier) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.String()
	}
	return out
}

func countType(cmds []recording.Command, typ recording.CommandType) int {
	n := 0
	for _, c := range cmds {
		if c.Type() == typ {
			n++
		}
	}
	return n
}
