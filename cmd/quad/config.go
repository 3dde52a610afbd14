package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/gogpu/gputypes"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/quad"
)

// Config is the CLI configuration. It is read from an optional YAML file
// and then overridden by explicitly set flags.
type Config struct {
	Backend      string `yaml:"backend"`
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	Frames       uint64 `yaml:"frames"`
	FrameLatency int    `yaml:"frame_latency"`
	Debug        bool   `yaml:"debug"`
	LogLevel     string `yaml:"log_level"`
	Progress     bool   `yaml:"progress"`

	// Snapshot is the PNG path for the last rendered frame. Only backends
	// with a CPU-visible framebuffer (software) support it.
	Snapshot string `yaml:"snapshot"`

	// Preview is the PNG path for the CPU rendering of the last frame.
	Preview string `yaml:"preview"`

	// Scale enlarges written PNGs by this factor.
	Scale float64 `yaml:"scale"`

	// MaxDiff fails the run when the snapshot and the preview differ by
	// more than this mean per-channel amount. Zero disables the check.
	MaxDiff float64 `yaml:"max_diff"`
}

func defaultConfig() Config {
	return Config{
		Backend:      quad.BackendSoftware,
		Width:        800,
		Height:       600,
		Frames:       120,
		FrameLatency: 2,
		LogLevel:     "info",
		Progress:     true,
		Scale:        1,
		MaxDiff:      8,
	}
}

// loadConfig reads a YAML config file on top of the defaults. Unknown keys
// are rejected.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// parseArgs builds the configuration from command-line arguments.
func parseArgs(args []string, output io.Writer) (Config, error) {
	def := defaultConfig()
	fs := flag.NewFlagSet("quad", flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		configPath   = fs.String("config", "", "YAML config file")
		backend      = fs.String("backend", def.Backend, "GPU backend: auto, vulkan, metal, dx12, gl, software")
		width        = fs.Int("width", def.Width, "window width in points")
		height       = fs.Int("height", def.Height, "window height in points")
		frames       = fs.Uint64("frames", def.Frames, "frames to render (0 = until interrupted)")
		frameLatency = fs.Int("latency", def.FrameLatency, "max frames in flight")
		debug        = fs.Bool("debug", def.Debug, "enable backend validation")
		logLevel     = fs.String("log", def.LogLevel, "log level: debug, info, warn, error")
		progress     = fs.Bool("progress", def.Progress, "show a progress bar")
		snapshot     = fs.String("snapshot", def.Snapshot, "write the last frame to this PNG (software backend)")
		preview      = fs.String("preview", def.Preview, "write the CPU rendering of the last frame to this PNG")
		scale        = fs.Float64("scale", def.Scale, "scale factor for written PNGs")
		maxDiff      = fs.Float64("max-diff", def.MaxDiff, "fail when snapshot and preview differ more (0 = no check)")
	)
	if err := fs.Parse(args); err != nil {
		return def, err
	}

	cfg := def
	if *configPath != "" {
		var err error
		if cfg, err = loadConfig(*configPath); err != nil {
			return cfg, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *backend
		case "width":
			cfg.Width = *width
		case "height":
			cfg.Height = *height
		case "frames":
			cfg.Frames = *frames
		case "latency":
			cfg.FrameLatency = *frameLatency
		case "debug":
			cfg.Debug = *debug
		case "log":
			cfg.LogLevel = *logLevel
		case "progress":
			cfg.Progress = *progress
		case "snapshot":
			cfg.Snapshot = *snapshot
		case "preview":
			cfg.Preview = *preview
		case "scale":
			cfg.Scale = *scale
		case "max-diff":
			cfg.MaxDiff = *maxDiff
		}
	})
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Width, c.Height)
	}
	if c.FrameLatency < 1 {
		return fmt.Errorf("invalid frame latency %d", c.FrameLatency)
	}
	if c.Scale <= 0 {
		return fmt.Errorf("invalid scale %g", c.Scale)
	}
	if c.MaxDiff < 0 {
		return fmt.Errorf("invalid max diff %g", c.MaxDiff)
	}
	if c.Snapshot != "" && c.Frames == 0 {
		return errors.New("-snapshot needs a frame count")
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return l, nil
}

// quadOptions prefers an RGBA8Unorm surface. Its bytes are already in
// image.RGBA order, and the software rasterizer loads the cleared
// background of a BGRA8Unorm target with red and blue exchanged.
func (c Config) quadOptions() []quad.Option {
	return []quad.Option{
		quad.WithBackend(c.Backend),
		quad.WithFrameLatency(c.FrameLatency),
		quad.WithSurfaceFormat(gputypes.TextureFormatRGBA8Unorm),
		quad.WithDebug(c.Debug),
	}
}

// scaled returns the size of a PNG written for a width×height frame.
func (c Config) scaled(width, height int) (int, int) {
	return max(1, int(math.Round(float64(width)*c.Scale))), max(1, int(math.Round(float64(height)*c.Scale)))
}
