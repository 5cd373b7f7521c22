package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigMatchesDemo(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, 64, cfg.IBL.Size)
	assert.Equal(t, 32, cfg.IBL.Quality)
	assert.Equal(t, 1, cfg.Grid.Rows)
	assert.Equal(t, 5, cfg.Grid.Columns)
	assert.Equal(t, ShadingTextured, cfg.Render.Shading)
	assert.Equal(t, [3]float32{300, 300, 300}, cfg.Render.LightColor)
}

func TestDecodeConfigOverridesDefaults(t *testing.T) {
	src := `
[window]
width = 800

[render]
shading = "constant"

[grid]
rows = 3
origin = [1, 2, 3]

[ibl]
size = 32
environment = "studio"

[log]
level = "debug"
`
	cfg := DefaultConfig()
	require.NoError(t, DecodeConfig(strings.NewReader(src), &cfg))

	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "untouched fields keep their default")
	assert.Equal(t, ShadingConstant, cfg.Render.Shading)
	assert.Equal(t, 3, cfg.Grid.Rows)
	assert.Equal(t, 5, cfg.Grid.Columns)
	assert.Equal(t, 32, cfg.IBL.Size)
	assert.Equal(t, 32, cfg.IBL.Quality)
	assert.Equal(t, "studio", cfg.IBL.Environment)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	grid := cfg.Grid.SphereGrid("ball", "paint")
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, grid.Origin)
	assert.Equal(t, "ball", grid.Mesh)
	assert.Len(t, grid.Entities(), 15)
}

func TestDecodeConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown field":   "[window]\nfullscreen = true\n",
		"bad shading":     "[render]\nshading = \"toon\"\n",
		"bad level":       "[log]\nlevel = \"loud\"\n",
		"negative size":   "[ibl]\nsize = -1\n",
		"zero width":      "[window]\nwidth = 0\n",
		"negative rows":   "[grid]\nrows = -2\n",
		"wrong type":      "[ibl]\nsize = \"big\"\n",
		"malformed table": "[window\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			assert.Error(t, DecodeConfig(strings.NewReader(src), &cfg))
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := LoadConfig(DefaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = LoadConfig(filepath.Join(dir, "other.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseArgsFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n[ibl]\nquality = 8\n"), 0o644))

	cfg, err := ParseArgs("demo", []string{"-config", path, "-log-level", "error", "-enable-compatibility-profile"})
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 8, cfg.IBL.Quality)
	assert.True(t, cfg.Window.CompatibilityProfile)

	cfg, err = ParseArgs("demo", []string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.False(t, cfg.Window.CompatibilityProfile)

	_, err = ParseArgs("demo", []string{"-config", path, "-log-level", "loud"})
	assert.Error(t, err)
}
