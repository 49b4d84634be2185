// Package config merges the optional JSON config file, the .env file and the
// command line into one viewer configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables consulted for still-empty fields.
const (
	EnvScene     = "QUARKVIEW_SCENE"
	EnvBase      = "QUARKVIEW_BASE"
	EnvSnapshots = "QUARKVIEW_SNAPSHOTS"
)

// Config holds everything the viewer needs to start.
type Config struct {
	// Scene source
	Scene   string `json:"scene"`
	BaseDir string `json:"base_dir"`

	// Viewport
	Width  int  `json:"width"`
	Height int  `json:"height"`
	HUD    bool `json:"hud"`

	// Loop
	Headless    bool `json:"headless"`
	Hz          int  `json:"hz"`
	Frames      int  `json:"frames"`
	Paused      bool `json:"paused"`
	MaxSubsteps int  `json:"max_substeps"`

	// Snapshots
	SnapshotDir   string `json:"snapshot_dir"`
	SnapshotEvery int    `json:"snapshot_every"`
	Supersample   int    `json:"supersample"`
	Extended      bool   `json:"extended"`
}

// Load reads a JSON config file. Fields not set in the file keep their zero
// values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv loads path (".env" when empty) into the process environment.
// A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: env %s: %w", path, err)
	}
	return nil
}

// Flags holds command line values. Zero values mean "not given", except for
// the booleans which can only switch a feature on.
type Flags struct {
	Scene         string
	BaseDir       string
	Width         int
	Height        int
	HUD           bool
	Headless      bool
	Hz            int
	Frames        int
	Paused        bool
	SnapshotDir   string
	SnapshotEvery int
	Supersample   int
	Extended      bool
}

// Resolve applies flags over the file values, then fills empty fields from
// the environment and finally from defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.Scene != "" {
		c.Scene = flags.Scene
	}
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Hz > 0 {
		c.Hz = flags.Hz
	}
	if flags.Frames > 0 {
		c.Frames = flags.Frames
	}
	if flags.SnapshotDir != "" {
		c.SnapshotDir = flags.SnapshotDir
	}
	if flags.SnapshotEvery > 0 {
		c.SnapshotEvery = flags.SnapshotEvery
	}
	if flags.Supersample > 0 {
		c.Supersample = flags.Supersample
	}
	c.HUD = c.HUD || flags.HUD
	c.Headless = c.Headless || flags.Headless
	c.Paused = c.Paused || flags.Paused
	c.Extended = c.Extended || flags.Extended

	if c.Scene == "" {
		c.Scene = os.Getenv(EnvScene)
	}
	if c.BaseDir == "" {
		c.BaseDir = os.Getenv(EnvBase)
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = os.Getenv(EnvSnapshots)
	}

	if c.BaseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			c.BaseDir = wd
		}
	}
	if c.SnapshotDir != "" && !filepath.IsAbs(c.SnapshotDir) && c.BaseDir != "" {
		c.SnapshotDir = filepath.Join(c.BaseDir, c.SnapshotDir)
	}

	if c.Width <= 0 {
		c.Width = 960
	}
	if c.Height <= 0 {
		c.Height = 600
	}
	if c.Hz <= 0 {
		c.Hz = 60
	}
	if c.MaxSubsteps <= 0 {
		c.MaxSubsteps = 64
	}
	if c.SnapshotEvery <= 0 {
		c.SnapshotEvery = 60
	}
	if c.Supersample <= 0 {
		c.Supersample = 1
	}
}

// ErrNoScene is returned by Validate when no scene was configured.
var ErrNoScene = errors.New("config: no scene given")

// Validate checks a resolved config.
func (c Config) Validate() error {
	if c.Scene == "" {
		return ErrNoScene
	}
	if c.Supersample > 8 {
		return fmt.Errorf("config: supersample %d out of range 1..8", c.Supersample)
	}
	return nil
}
