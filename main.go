package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"

	"quarkview/app"
	"quarkview/hal"
	"quarkview/internal/buildinfo"
	"quarkview/internal/config"
	"quarkview/quark/snapshot"
)

func main() {
	var (
		flags      config.Flags
		configPath string
		envPath    string
		version    bool
	)
	flag.StringVar(&flags.Scene, "scene", "", "Scene document URL or path.")
	flag.StringVar(&flags.BaseDir, "base", "", "Directory relative scene paths are resolved against.")
	flag.StringVar(&configPath, "config", "", "Optional JSON config file.")
	flag.StringVar(&envPath, "env", ".env", "Optional .env file.")
	flag.BoolVar(&flags.Headless, "headless", false, "Run without a window.")
	flag.IntVar(&flags.Hz, "hz", 0, "Frame rate (default 60).")
	flag.IntVar(&flags.Frames, "frames", 0, "Stop after N frames in headless mode (0 = run until interrupted).")
	flag.IntVar(&flags.Width, "width", 0, "Viewport width (default 960).")
	flag.IntVar(&flags.Height, "height", 0, "Viewport height (default 600).")
	flag.BoolVar(&flags.Paused, "paused", false, "Start with the simulation paused.")
	flag.BoolVar(&flags.HUD, "hud", false, "Show the text overlay.")
	flag.StringVar(&flags.SnapshotDir, "snapshots", "", "Write headless frames as WebP into this directory.")
	flag.IntVar(&flags.SnapshotEvery, "snapshot-every", 0, "Write every Nth frame (default 60).")
	flag.IntVar(&flags.Supersample, "supersample", 0, "Render snapshots at N times the size and scale down.")
	flag.BoolVar(&flags.Extended, "extended", false, "Write snapshots in the extended WebP container.")
	flag.BoolVar(&version, "version", false, "Print the version and exit.")
	flag.Parse()

	if version {
		fmt.Println(buildinfo.Banner("quarkview"))
		return
	}
	if flags.Scene == "" && flag.NArg() > 0 {
		flags.Scene = flag.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, flags, configPath, envPath); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, flags config.Flags, configPath, envPath string) error {
	if err := config.LoadEnv(envPath); err != nil {
		return err
	}
	var cfg config.Config
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := hal.NewLogger(os.Stdout)
	hal.Logf(log, "%s", buildinfo.Banner("quarkview"))

	// Supersampling only pays off when frames are written out.
	supersample := 1
	if cfg.Headless && cfg.SnapshotDir != "" {
		supersample = cfg.Supersample
	}
	v, err := app.Setup(ctx, app.Options{
		Scene:       cfg.Scene,
		BaseDir:     cfg.BaseDir,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Supersample: supersample,
		Paused:      cfg.Paused,
		HUD:         cfg.HUD,
		MaxSubsteps: cfg.MaxSubsteps,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	if !cfg.Headless {
		err := hal.RunWindow(ctx, v, hal.WindowConfig{
			Title:  "QuarkView - " + v.Scene.Model.Name + " (" + buildinfo.Short() + ")",
			Width:  cfg.Width,
			Height: cfg.Height,
			Hz:     cfg.Hz,
		})
		if errors.Is(err, hal.ErrNotImplemented) {
			hal.Logf(log, "window: unavailable in this build, rerun with -headless")
		}
		return err
	}

	hcfg := hal.HeadlessConfig{Hz: cfg.Hz, Frames: cfg.Frames, Width: cfg.Width, Height: cfg.Height}
	if cfg.SnapshotDir != "" {
		w, err := snapshot.New(cfg.SnapshotDir, cfg.SnapshotEvery, supersample)
		if err != nil {
			return err
		}
		w.Extended = cfg.Extended
		hcfg.OnFrame = func(frame int, surface *image.RGBA) error {
			if !w.Due(frame) {
				return nil
			}
			_, err := w.Capture(frame, surface)
			return err
		}
		defer func() { hal.Logf(log, "snapshot: wrote %d frames to %s", w.Written(), cfg.SnapshotDir) }()
	}
	err = hal.RunHeadless(ctx, v, hcfg)
	hal.Logf(log, "frame: %d frames, sim t=%.3fs", v.Frames(), v.Scene.State.Time)
	return err
}
