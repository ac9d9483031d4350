// Package config loads engine settings from TOML or YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/framebuffer"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gl/engine/states"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned by Load for files that are neither TOML nor YAML.
var ErrUnknownFormat = errors.New("unknown config format")

// Config is the engine configuration. Keys missing from a file keep their Default value.
type Config struct {
	Window  Window  `toml:"window" yaml:"window"`
	Render  Render  `toml:"render" yaml:"render"`
	GBuffer GBuffer `toml:"gbuffer" yaml:"gbuffer"`
	Package Package `toml:"package" yaml:"package"`
	Log     Log     `toml:"log" yaml:"log"`
}

// Window configures the main window.
type Window struct {
	Title  string `toml:"title" yaml:"title"`
	Width  int    `toml:"width" yaml:"width"`
	Height int    `toml:"height" yaml:"height"`
	VSync  bool   `toml:"vsync" yaml:"vsync"`

	// FrameLimit caps the frames per second, zero for no cap.
	FrameLimit int `toml:"frame_limit" yaml:"frame_limit"`

	// Samples is the multisample count of the default framebuffer, zero to disable.
	Samples int `toml:"samples" yaml:"samples"`
}

// Render configures the graphic engine.
type Render struct {
	// Mode is "forward" or "deferred".
	Mode string `toml:"mode" yaml:"mode"`

	// Filter is the post-process filter, by short name ("blur") or instance name.
	Filter string `toml:"filter" yaml:"filter"`

	// Version is the directive prepended to every shader stage.
	Version string `toml:"version" yaml:"version"`

	// ShaderDir is the package directory holding the engine shaders. Empty uses the built-in ones.
	ShaderDir string `toml:"shader_dir" yaml:"shader_dir"`

	// WatchShaders reloads the programs when a file below ShaderDir changes on disk.
	WatchShaders bool `toml:"watch_shaders" yaml:"watch_shaders"`
}

// GBuffer configures the debug G-buffer viewer.
type GBuffer struct {
	// Viewer is the channel index plus one, zero to disable.
	Viewer int `toml:"viewer" yaml:"viewer"`
	X      int `toml:"x" yaml:"x"`
	Y      int `toml:"y" yaml:"y"`
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`
}

// Package configures the game package.
type Package struct {
	Path    string `toml:"path" yaml:"path"`
	Workers int    `toml:"workers" yaml:"workers"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `toml:"level" yaml:"level"`
	Development bool   `toml:"development" yaml:"development"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Window: Window{
			Title:  "oxy-gl",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Render: Render{
			Mode:    states.RenderModeDeferred.String(),
			Filter:  "default",
			Version: shader.DefaultVersion,
		},
		GBuffer: GBuffer{
			Width:  320,
			Height: 180,
		},
		Package: Package{
			Workers: 2,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load reads a configuration file on top of Default. The format is chosen by extension: ".toml",
// ".yaml" or ".yml". Unknown keys are rejected.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the loaded and validated configuration
//   - error: an error if the file cannot be read, decoded or validated
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(&cfg); errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return Config{}, fmt.Errorf("%q: %w", ext, ErrUnknownFormat)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	common.Log().Debug("config loaded", zap.String("path", path))
	return cfg, nil
}

// Validate checks every field that is parsed later.
//
// Returns:
//   - error: the joined validation errors, nil if the configuration is usable
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Window.FrameLimit < 0 {
		errs = append(errs, fmt.Errorf("frame limit %d is negative", c.Window.FrameLimit))
	}
	if c.Window.Samples < 0 {
		errs = append(errs, fmt.Errorf("sample count %d is negative", c.Window.Samples))
	}
	if _, _, err := c.ContextVersion(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.RenderMode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Filter(); err != nil {
		errs = append(errs, err)
	}
	if c.GBuffer.Viewer < 0 || c.GBuffer.Viewer > int(framebuffer.ChannelCount) {
		errs = append(errs, fmt.Errorf("gbuffer viewer %d out of range [0, %d]", c.GBuffer.Viewer, framebuffer.ChannelCount))
	}
	if c.Package.Workers < 0 {
		errs = append(errs, fmt.Errorf("package workers %d is negative", c.Package.Workers))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ContextVersion derives the OpenGL context version from the shader version directive, so
// "#version 410 core" asks for a 4.1 context.
//
// Returns:
//   - major, minor: the context version
//   - error: an error if Render.Version is not a GLSL 1.40 or later directive
func (c Config) ContextVersion() (major, minor int, err error) {
	var n int
	if _, err := fmt.Sscanf(c.Render.Version, "#version %d", &n); err != nil {
		return 0, 0, fmt.Errorf("shader version %q: %w", c.Render.Version, err)
	}
	if n < 140 {
		return 0, 0, fmt.Errorf("shader version %d is older than 140", n)
	}
	return n / 100, n % 100 / 10, nil
}

// RenderMode parses Render.Mode.
func (c Config) RenderMode() (states.RenderMode, error) {
	return states.ParseRenderMode(c.Render.Mode)
}

// Filter parses Render.Filter.
func (c Config) Filter() (shader.Filter, error) {
	f, ok := shader.ParseFilter(c.Render.Filter)
	if !ok {
		return shader.FilterDefault, fmt.Errorf("unknown filter %q", c.Render.Filter)
	}
	return f, nil
}

// DebugViewer returns the G-buffer viewer selection.
func (c Config) DebugViewer() states.DebugViewer {
	return states.DebugViewer{
		Index: c.GBuffer.Viewer,
		Rect: common.Rect{
			X:      c.GBuffer.X,
			Y:      c.GBuffer.Y,
			Width:  c.GBuffer.Width,
			Height: c.GBuffer.Height,
		},
	}
}

// States builds the runtime render settings.
//
// Returns:
//   - *states.States: settings holding the configured mode, filter and viewer
//   - error: an error if a field does not parse
func (c Config) States() (*states.States, error) {
	mode, err := c.RenderMode()
	if err != nil {
		return nil, err
	}
	filter, err := c.Filter()
	if err != nil {
		return nil, err
	}
	s := states.NewStates(mode)
	s.SetFilter(filter)
	s.SetDebugViewer(c.DebugViewer())
	return s, nil
}

// Logger builds a zap logger from the Log section: the development config with console output
// when Development is set, the production JSON config otherwise.
//
// Returns:
//   - *zap.Logger: the logger
//   - error: an error if the level does not parse or the logger cannot be built
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
