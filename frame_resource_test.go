package rendergraph

import "testing"

type fixedIndexer struct{ index, n int }

func (f *fixedIndexer) FrameIndex() int     { return f.index }
func (f *fixedIndexer) FramesInFlight() int { return f.n }

func TestFrameResourceSlots(t *testing.T) {
	src := &fixedIndexer{n: 3}
	fr := NewFrameResource(src, func(i int) []byte { return make([]byte, 0, 16*(i+1)) })

	if fr.Len() != 3 {
		t.Fatalf("Len() = %d", fr.Len())
	}
	for i := range 3 {
		src.index = i
		if got := cap(*fr.Get()); got != 16*(i+1) {
			t.Errorf("slot %d cap = %d", i, got)
		}
		*fr.Get() = append(*fr.Get(), byte(i))
	}
	for i := range 3 {
		if v := *fr.At(i); len(v) != 1 || v[0] != byte(i) {
			t.Errorf("slot %d = %v", i, v)
		}
	}
}

func TestFrameResourceForEachAndReset(t *testing.T) {
	src := &fixedIndexer{n: 2}
	fr := NewFrameResource[int](src, nil)

	fr.ForEach(func(i int, v *int) { *v = i + 10 })
	if *fr.At(0) != 10 || *fr.At(1) != 11 {
		t.Errorf("after ForEach: %d %d", *fr.At(0), *fr.At(1))
	}

	fr.Reset(func(v *int) { *v *= 2 })
	if *fr.At(1) != 22 {
		t.Errorf("after Reset(fn): %d", *fr.At(1))
	}
	fr.Reset(nil)
	if *fr.At(0) != 0 || *fr.At(1) != 0 {
		t.Error("Reset(nil) should zero every slot")
	}
}

func TestFrameResourceNoSlots(t *testing.T) {
	fr := NewFrameResource[string](&fixedIndexer{n: 0}, nil)
	if fr.Len() != 1 {
		t.Errorf("Len() = %d, want at least one slot", fr.Len())
	}
}

func TestFrameResourceFollowsGraph(t *testing.T) {
	g, _ := newTestGraph(t, WithFramesInFlight(3))
	counts := NewFrameResource[int](g, nil)

	for range 7 {
		*counts.Get()++
		addSetup(g, "p", func(b *Builder) { b.WriteTexture(SwapchainHandle) })
		if err := g.Execute(); err != nil {
			t.Fatal(err)
		}
	}
	want := []int{3, 2, 2}
	for i, w := range want {
		if *counts.At(i) != w {
			t.Errorf("slot %d used %d times, want %d", i, *counts.At(i), w)
		}
	}
}

func TestFrameContextGlobals(t *testing.T) {
	fc := &FrameContext{}
	if _, ok := fc.Global("time"); ok {
		t.Error("empty context returned a global")
	}
	fc.SetGlobal("time", 1.5)
	fc.SetGlobal("camera", "main")

	if v, ok := FrameGlobal[float64](fc, "time"); !ok || v != 1.5 {
		t.Errorf("FrameGlobal[float64] = %v, %v", v, ok)
	}
	if _, ok := FrameGlobal[int](fc, "time"); ok {
		t.Error("FrameGlobal with the wrong type should report false")
	}
	if _, ok := FrameGlobal[string](fc, "missing"); ok {
		t.Error("missing key should report false")
	}
}
