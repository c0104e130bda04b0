// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads engine render settings from TOML or YAML files and
// turns them into render graph and backend options.
//
// A minimal TOML file:
//
//	backend = "vulkan"
//	frames_in_flight = 3
//
//	[render_resolution]
//	width = 1280
//	height = 720
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/rendergraph"
	"github.com/gogpu/rendergraph/backend"
)

// ErrInvalidConfig is returned by Validate and Load for values outside
// their allowed range.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// ErrUnknownFormat is returned for files that are neither TOML nor YAML.
var ErrUnknownFormat = errors.New("config: unknown file format")

// Format is a configuration file syntax.
type Format uint8

const (
	FormatTOML Format = iota
	FormatYAML
)

// String returns "toml" or "yaml".
func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "toml"
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// Resolution is a width and height in pixels.
type Resolution struct {
	Width  uint32 `toml:"width" yaml:"width"`
	Height uint32 `toml:"height" yaml:"height"`
}

// Config holds engine render settings. Zero fields are filled by Defaults.
type Config struct {
	// Backend is a graphics API name or alias ("vulkan", "v", "dx12",
	// "native", "recording"). Empty picks the first backend that opens.
	Backend string `toml:"backend" yaml:"backend"`

	FramesInFlight int `toml:"frames_in_flight" yaml:"frames_in_flight"`

	// Validation is "full" or "off".
	Validation string `toml:"validation" yaml:"validation"`

	RenderResolution Resolution `toml:"render_resolution" yaml:"render_resolution"`
	OutputResolution Resolution `toml:"output_resolution" yaml:"output_resolution"`

	// EvictAfter is how many uses of a frame slot an undeclared texture
	// survives. Negative disables eviction.
	EvictAfter int `toml:"evict_after" yaml:"evict_after"`

	ShaderDir string `toml:"shader_dir" yaml:"shader_dir"`
	HotReload bool   `toml:"hot_reload" yaml:"hot_reload"`

	// LogLevel is a slog level name: "debug", "info", "warn" or "error".
	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// Default returns a configuration with every field set to its default.
func Default() Config {
	var c Config
	c.Defaults()
	return c
}

// Defaults fills zero fields.
func (c *Config) Defaults() {
	if c.FramesInFlight == 0 {
		c.FramesInFlight = 2
	}
	if c.Validation == "" {
		c.Validation = "full"
	}
	if c.RenderResolution == (Resolution{}) {
		c.RenderResolution = Resolution{Width: 1920, Height: 1080}
	}
	if c.OutputResolution == (Resolution{}) {
		c.OutputResolution = c.RenderResolution
	}
	if c.EvictAfter == 0 {
		c.EvictAfter = 3
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate reports every invalid field, joined.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}
	if c.FramesInFlight < 1 || c.FramesInFlight > 4 {
		bad("frames_in_flight %d outside [1, 4]", c.FramesInFlight)
	}
	if _, err := parseValidation(c.Validation); err != nil {
		bad("%v", err)
	}
	if c.RenderResolution.Width == 0 || c.RenderResolution.Height == 0 {
		bad("render_resolution %dx%d", c.RenderResolution.Width, c.RenderResolution.Height)
	}
	if c.OutputResolution.Width == 0 || c.OutputResolution.Height == 0 {
		bad("output_resolution %dx%d", c.OutputResolution.Width, c.OutputResolution.Height)
	}
	if c.HotReload && c.ShaderDir == "" {
		bad("hot_reload needs shader_dir")
	}
	if _, err := c.Level(); err != nil {
		bad("%v", err)
	}
	return errors.Join(errs...)
}

func parseValidation(s string) (rendergraph.Validation, error) {
	switch strings.ToLower(s) {
	case "", "full":
		return rendergraph.ValidationFull, nil
	case "off":
		return rendergraph.ValidationOff, nil
	}
	return 0, fmt.Errorf("validation %q is not \"full\" or \"off\"", s)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// GraphOptions converts c into render graph options. The logger, when not
// nil, is attached with WithLogger.
func (c Config) GraphOptions(logger *slog.Logger) []rendergraph.Option {
	v, _ := parseValidation(c.Validation)
	opts := []rendergraph.Option{
		rendergraph.WithFramesInFlight(c.FramesInFlight),
		rendergraph.WithValidation(v),
		rendergraph.WithRenderResolution(c.RenderResolution.Width, c.RenderResolution.Height),
		rendergraph.WithOutputResolution(c.OutputResolution.Width, c.OutputResolution.Height),
		rendergraph.WithEvictAfter(c.EvictAfter),
	}
	if logger != nil {
		opts = append(opts, rendergraph.WithLogger(logger))
	}
	return opts
}

// BackendOptions converts c into device options. The swapchain matches the
// output resolution.
func (c Config) BackendOptions() backend.Options {
	return backend.Options{
		API:            c.Backend,
		Width:          c.OutputResolution.Width,
		Height:         c.OutputResolution.Height,
		FramesInFlight: c.FramesInFlight,
		ShaderDir:      c.ShaderDir,
		HotReload:      c.HotReload,
	}
}

// Load reads path, applies defaults and validates the result.
func Load(path string) (Config, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Decode parses r, applies defaults and validates the result. Unknown keys
// are rejected so typos do not pass silently.
func Decode(r io.Reader, format Format) (Config, error) {
	var c Config
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	default:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	c.Defaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Encode writes c in format.
func (c Config) Encode(w io.Writer, format Format) error {
	var err error
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(c)
		if err == nil {
			err = enc.Close()
		}
	default:
		err = toml.NewEncoder(w).Encode(c)
	}
	if err != nil {
		return fmt.Errorf("config: encode %s: %w", format, err)
	}
	return nil
}

// Save writes c to path in the format its extension names.
func (c Config) Save(path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := c.Encode(&buf, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Logger returns a text logger writing to w at LogLevel.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
