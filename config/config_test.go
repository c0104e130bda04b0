package config

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/backend/recording"
)

const sampleTOML = `
backend = "vulkan"
frames_in_flight = 3
validation = "off"
shader_dir = "shaders"
hot_reload = true
log_level = "debug"

[render_resolution]
width = 1280
height = 720
`

const sampleYAML = `
backend: v
frames_in_flight: 3
validation: "off"
shader_dir: shaders
hot_reload: true
log_level: debug
render_resolution:
  width: 1280
  height: 720
`

func TestDefault(t *testing.T) {
	c := Default()
	if c.FramesInFlight != 2 || c.Validation != "full" || c.EvictAfter != 3 {
		t.Errorf("Default() = %+v", c)
	}
	if c.RenderResolution != (Resolution{1920, 1080}) || c.OutputResolution != c.RenderResolution {
		t.Errorf("resolutions = %v / %v", c.RenderResolution, c.OutputResolution)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		input   string
		backend string
	}{
		{"toml", FormatTOML, sampleTOML, "vulkan"},
		{"yaml", FormatYAML, sampleYAML, "v"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if c.Backend != tt.backend || c.FramesInFlight != 3 || c.Validation != "off" {
				t.Errorf("decoded %+v", c)
			}
			if c.RenderResolution != (Resolution{1280, 720}) {
				t.Errorf("render resolution = %v", c.RenderResolution)
			}
			if c.OutputResolution != c.RenderResolution {
				t.Errorf("output resolution should default to the render resolution, got %v", c.OutputResolution)
			}
			if l, _ := c.Level(); l != slog.LevelDebug {
				t.Errorf("Level() = %v", l)
			}
		})
	}
}

func TestDecodeEmptyYAML(t *testing.T) {
	c, err := Decode(strings.NewReader(""), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if c != Default() {
		t.Errorf("empty file = %+v, want defaults", c)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		format Format
		input  string
	}{
		{FormatTOML, "frames_in_flite = 2\n"},
		{FormatYAML, "frames_in_flite: 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.input), tt.format); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("unknown key: %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"frames", func(c *Config) { c.FramesInFlight = 9 }, "frames_in_flight"},
		{"validation", func(c *Config) { c.Validation = "strict" }, "validation"},
		{"render", func(c *Config) { c.RenderResolution.Width = 0 }, "render_resolution"},
		{"output", func(c *Config) { c.OutputResolution.Height = 0 }, "output_resolution"},
		{"hot reload", func(c *Config) { c.HotReload = true }, "shader_dir"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	want := Default()
	want.Backend = "recording"
	want.FramesInFlight = 3
	want.RenderResolution = Resolution{640, 360}

	for _, name := range []string{"render.toml", "render.yaml", "render.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := want.Save(path); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got != want {
				t.Errorf("round trip:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "render.json")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("json: %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: %v", err)
	}
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("frames_in_flight = 0\nvalidation = \"maybe\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("invalid values: %v", err)
	}
}

func TestOptionsApplyToGraph(t *testing.T) {
	c := Default()
	c.FramesInFlight = 3
	c.RenderResolution = Resolution{1280, 720}
	c.OutputResolution = Resolution{2560, 1440}

	bo := c.BackendOptions()
	if bo.Width != 2560 || bo.Height != 1440 || bo.FramesInFlight != 3 {
		t.Errorf("BackendOptions() = %+v", bo)
	}

	dev := recording.New(bo)
	defer dev.Destroy()
	g := rendergraph.New(dev, c.GraphOptions(nil)...)
	defer g.Release()

	if g.FramesInFlight() != 3 {
		t.Errorf("FramesInFlight() = %d", g.FramesInFlight())
	}
	if r := g.RenderResolution(); r.Width != 1280 || r.Height != 720 {
		t.Errorf("RenderResolution() = %v", r)
	}
	if r := g.OutputResolution(); r.Width != 2560 || r.Height != 1440 {
		t.Errorf("OutputResolution() = %v", r)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	c := Default()
	c.LogLevel = "info"
	l := c.Logger(&buf)
	if l.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at info level")
	}
	l.Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"a.toml", FormatTOML, true},
		{"a.TOML", FormatTOML, true},
		{"a.yaml", FormatYAML, true},
		{"a.yml", FormatYAML, true},
		{"a.ini", 0, false},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("FormatFor(%q) = %v, %v", tt.path, got, err)
		}
	}
}
