// Command rgdemo runs a deferred-shading frame graph (shadow map, G-buffer,
// composite to the swapchain) for a number of frames and reports what the
// graph did.
//
// Usage:
//
//	rgdemo [-config render.toml] [-graphicsapi vulkan|v|dx12|recording] [-frames 120] [-dot graph.dot] [-v]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/backend"
	_ "github.com/gogpu/rendergraph/backend/native"
	_ "github.com/gogpu/rendergraph/backend/recording"
	"github.com/gogpu/rendergraph/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML or YAML render configuration")
		api        = flag.String("graphicsapi", "", "graphics API (vulkan, v, dx12, recording); overrides the config")
		frames     = flag.Int("frames", 120, "number of frames to render")
		dotPath    = flag.String("dot", "", "write the last frame's dependency graph as DOT to this file")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *api != "" {
		cfg.Backend = *api
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger := cfg.Logger(os.Stderr)
	rendergraph.SetLogger(logger)

	dev, err := backend.Open(cfg.Backend, cfg.BackendOptions())
	if err != nil {
		log.Fatalf("open backend: %v (available: %v)", err, backend.Available())
	}
	defer dev.Destroy()
	log.Printf("backend %s, %d frames in flight, render %v, output %v",
		dev.Name(), cfg.FramesInFlight, cfg.RenderResolution, cfg.OutputResolution)

	g := rendergraph.New(dev, cfg.GraphOptions(logger)...)
	defer func() {
		if err := g.Release(); err != nil {
			log.Printf("release: %v", err)
		}
	}()

	stats := rendergraph.NewFrameResource[slotStats](g, nil)
	start := time.Now()
	g.SetFrameGlobals(func(fc *rendergraph.FrameContext) {
		fc.SetGlobal("elapsed", time.Since(start))
	})

	for i := 0; i < *frames; i++ {
		addFrame(g, 1.0, stats)
		if err := g.Execute(); err != nil {
			log.Fatalf("frame %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	if *dotPath != "" {
		if err := writeDOT(g, *dotPath); err != nil {
			log.Fatal(err)
		}
		log.Printf("dependency graph written to %s", *dotPath)
	}

	log.Printf("%d frames in %v (%.1f fps)", *frames, elapsed.Round(time.Millisecond),
		float64(*frames)/elapsed.Seconds())
	stats.ForEach(func(slot int, s *slotStats) {
		log.Printf("slot %d: %d frames, %d draws", slot, s.frames, s.draws)
	})
	log.Print(g.CacheStats())
}

func writeDOT(g *rendergraph.Graph, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return g.WriteDOT(f)
}
