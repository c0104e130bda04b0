package rendergraph

import "testing"

func TestDefaultOptions(t *testing.T) {
	g, _ := newTestGraph(t)
	if g.FramesInFlight() != 2 {
		t.Errorf("FramesInFlight() = %d, want 2", g.FramesInFlight())
	}
	if r := g.RenderResolution(); r != (Resolution{Width: 1920, Height: 1080}) {
		t.Errorf("render resolution = %v", r)
	}
	if g.opts.validation != ValidationFull || g.opts.evictAfter != 3 {
		t.Errorf("options = %+v", g.opts)
	}
}

func TestWithFramesInFlightClamps(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, 1},
		{0, 1},
		{1, 1},
		{3, 3},
		{4, 4},
		{16, 4},
	}
	for _, tt := range tests {
		o := defaultOptions()
		WithFramesInFlight(tt.in)(&o)
		if o.framesInFlight != tt.want {
			t.Errorf("WithFramesInFlight(%d) = %d, want %d", tt.in, o.framesInFlight, tt.want)
		}
	}
}

func TestResolutionOptions(t *testing.T) {
	g, _ := newTestGraph(t,
		WithRenderResolution(1280, 720),
		WithOutputResolution(2560, 1440),
		WithEvictAfter(-5),
	)
	if r := g.RenderResolution(); r != (Resolution{Width: 1280, Height: 720}) {
		t.Errorf("render resolution = %v", r)
	}
	if r := g.OutputResolution(); r != (Resolution{Width: 2560, Height: 1440}) {
		t.Errorf("output resolution = %v", r)
	}
	if g.opts.evictAfter != 0 {
		t.Errorf("evictAfter = %d, want 0", g.opts.evictAfter)
	}

	g.SetRenderResolution(640, 360)
	var seen Resolution
	addSetup(g, "p", func(b *Builder) {
		seen = b.RenderResolution()
		b.WriteTexture(SwapchainHandle)
	})
	if err := g.Execute(); err != nil {
		t.Fatal(err)
	}
	if seen != (Resolution{Width: 640, Height: 360}) {
		t.Errorf("builder saw %v", seen)
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{ValidationFull.String(), "full"},
		{ValidationOff.String(), "off"},
		{StateUninitialized.String(), "Uninitialized"},
		{StateRetired.String(), "Retired"},
		{State(42).String(), "State(42)"},
		{AccessWriteDepth.String(), "write-depth"},
		{Access(9).String(), "Access(9)"},
		{Resolution{Width: 1920, Height: 1080}.String(), "1920x1080"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}
