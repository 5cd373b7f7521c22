package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"pbr-demo/ibl"
	"pbr-demo/libscn"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

const DefaultConfigPath = "config.toml"

const (
	ShadingTextured = "textured"
	ShadingConstant = "constant"
)

type Config struct {
	Window WindowConfig `toml:"window"`
	Render RenderConfig `toml:"render"`
	Grid   GridConfig   `toml:"grid"`
	IBL    IBLConfig    `toml:"ibl"`
	Assets AssetsConfig `toml:"assets"`
	Input  InputConfig  `toml:"input"`
	Log    LogConfig    `toml:"log"`
}

type WindowConfig struct {
	Width                int    `toml:"width"`
	Height               int    `toml:"height"`
	Title                string `toml:"title"`
	CompatibilityProfile bool   `toml:"compatibility_profile"`
}

type RenderConfig struct {
	// Shading is textured or constant
	Shading    string     `toml:"shading"`
	LightColor [3]float32 `toml:"light_color"`
	Anisotropy float32    `toml:"anisotropy"`
	Lights     bool       `toml:"show_lights"`
}

type GridConfig struct {
	Rows      int        `toml:"rows"`
	Columns   int        `toml:"columns"`
	Spacing   float32    `toml:"spacing"`
	Scale     float32    `toml:"scale"`
	Origin    [3]float32 `toml:"origin"`
	Metallic  [2]float32 `toml:"metallic"`
	Roughness [2]float32 `toml:"roughness"`
}

type IBLConfig struct {
	Size    int `toml:"size"`
	Quality int `toml:"quality"`
	// Environment is an hdri name in the asset pack. Empty uses the gradient sky.
	Environment string `toml:"environment"`
}

type AssetsConfig struct {
	Index    string `toml:"index"`
	Mesh     string `toml:"mesh"`
	Material string `toml:"material"`
	// Model overrides Mesh and Material with a model description from the pack.
	Model string `toml:"model"`
}

type InputConfig struct {
	Fly             bool    `toml:"fly"`
	LookSensitivity float32 `toml:"look_sensitivity"`
	FlySpeed        float32 `toml:"fly_speed"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func DefaultConfig() Config {
	grid := libscn.DefaultSphereGrid()
	return Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "PBR Spheres",
		},
		Render: RenderConfig{
			Shading:    ShadingTextured,
			LightColor: [3]float32{300, 300, 300},
			Anisotropy: 16,
			Lights:     true,
		},
		Grid: GridConfig{
			Rows:      grid.Rows,
			Columns:   grid.Columns,
			Spacing:   grid.Spacing,
			Scale:     grid.Scale,
			Origin:    grid.Origin,
			Metallic:  grid.MetallicRange,
			Roughness: grid.RoughnessRange,
		},
		IBL: IBLConfig{
			Size:    ibl.DefaultIrradianceSize,
			Quality: ibl.DefaultKernelQuality,
		},
		Assets: AssetsConfig{
			Index:    "assets/index.json",
			Mesh:     "sphere",
			Material: "sphere",
		},
		Input: InputConfig{
			LookSensitivity: 0.35,
			FlySpeed:        5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig decodes a TOML file over the defaults.
// A missing file is only an error when it is not the default path.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) && path == DefaultConfigPath {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("could not open config %q: %w", path, err)
	}
	defer file.Close()

	if err := DecodeConfig(file, &cfg); err != nil {
		return cfg, fmt.Errorf("could not load config %q: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig overwrites the fields present in r and validates the result.
func DecodeConfig(r io.Reader, cfg *Config) error {
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

func (cfg *Config) Validate() error {
	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d is not positive", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Render.Shading != ShadingTextured && cfg.Render.Shading != ShadingConstant {
		return fmt.Errorf("unknown shading mode %q", cfg.Render.Shading)
	}
	if cfg.IBL.Size < 0 {
		return fmt.Errorf("irradiance size %d is negative", cfg.IBL.Size)
	}
	if cfg.IBL.Quality < 0 {
		return fmt.Errorf("kernel quality %d is negative", cfg.IBL.Quality)
	}
	if cfg.Grid.Rows < 0 || cfg.Grid.Columns < 0 {
		return fmt.Errorf("grid %dx%d has a negative dimension", cfg.Grid.Rows, cfg.Grid.Columns)
	}
	if _, err := cfg.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, fmt.Errorf("bad log level: %w", err)
	}
	return level, nil
}

func (g GridConfig) SphereGrid(mesh, material string) libscn.SphereGrid {
	return libscn.SphereGrid{
		Rows:           g.Rows,
		Columns:        g.Columns,
		Spacing:        g.Spacing,
		Scale:          g.Scale,
		Origin:         mgl32.Vec3(g.Origin),
		MetallicRange:  g.Metallic,
		RoughnessRange: g.Roughness,
		Mesh:           mesh,
		Material:       material,
	}
}

// ParseArgs loads the config named by -config and applies the remaining flags on top.
func ParseArgs(name string, args []string) (Config, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	path := flags.String("config", DefaultConfigPath, "path to a TOML config file")
	level := flags.String("log-level", "", "debug, info, warn or error")
	compat := flags.Bool("enable-compatibility-profile", false, "request a compatibility profile context")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	cfg, err := LoadConfig(*path)
	if err != nil {
		return cfg, err
	}

	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.Log.Level = *level
		case "enable-compatibility-profile":
			cfg.Window.CompatibilityProfile = *compat
		}
	})
	return cfg, cfg.Validate()
}
