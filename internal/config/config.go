package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

// Config holds input/output paths and export settings.
type Config struct {
	// Paths
	InputDir  string `json:"input_dir"`
	Pattern   string `json:"pattern"` // glob matched against file names in InputDir
	OutputDir string `json:"output_dir"`

	// Export
	WriteOBJ      *bool   `json:"write_obj"`
	PreviewFormat string  `json:"preview_format"` // "webp", "tga" or "none"
	PreviewSize   int     `json:"preview_size"`
	Supersample   int     `json:"supersample"`
	FillRatio     float64 `json:"fill_ratio"`
	Yaw           float64 `json:"yaw"`
	Pitch         float64 `json:"pitch"`

	// Decoding
	Workers        int  `json:"workers"`         // package files in flight
	DecoderWorkers int  `json:"decoder_workers"` // resources per package in flight
	SkipBroken     bool `json:"skip_broken"`
	Strict         bool `json:"strict"` // reject meshes with indices past their vertices
}

// Load reads a JSON config file. Fields not set in the file keep their zero
// values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config: read %s", path)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "config: parse %s", path)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings. Zero
// values mean "not given".
type Flags struct {
	InputDir      string
	OutputDir     string
	Pattern       string
	PreviewFormat string
	PreviewSize   int
	Workers       int
	NoOBJ         bool
	SkipBroken    bool
	Strict        bool
}

// Resolve applies flags over the file settings, then fills defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Pattern != "" {
		c.Pattern = flags.Pattern
	}
	if flags.PreviewFormat != "" {
		c.PreviewFormat = flags.PreviewFormat
	}
	if flags.PreviewSize > 0 {
		c.PreviewSize = flags.PreviewSize
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.NoOBJ {
		no := false
		c.WriteOBJ = &no
	}
	if flags.SkipBroken {
		c.SkipBroken = true
	}
	if flags.Strict {
		c.Strict = true
	}

	if c.InputDir == "" {
		c.InputDir = "."
	}
	if c.Pattern == "" {
		c.Pattern = "*.package"
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.InputDir, "export")
	} else if !filepath.IsAbs(c.OutputDir) && flags.OutputDir == "" {
		// relative paths in the file are relative to the input
		c.OutputDir = filepath.Join(c.InputDir, c.OutputDir)
	}

	if c.WriteOBJ == nil {
		yes := true
		c.WriteOBJ = &yes
	}
	if c.PreviewFormat == "" {
		c.PreviewFormat = "webp"
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.FillRatio <= 0 || c.FillRatio > 1 {
		c.FillRatio = 0.9
	}
	if c.Yaw == 0 && c.Pitch == 0 {
		c.Yaw, c.Pitch = -35, 20
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.DecoderWorkers <= 0 {
		c.DecoderWorkers = 1
	}
}

// Previews reports whether preview images are enabled.
func (c *Config) Previews() bool {
	return c.PreviewFormat != "none"
}
