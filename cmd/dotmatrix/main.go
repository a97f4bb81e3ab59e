package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "dotmatrix"
	app.Description = "A Game Boy (DMG) emulator"
	app.Usage = "dotmatrix [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Frontend to use: terminal, sdl2, ebiten or headless",
			Value: "terminal",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without a frontend (same as --backend headless)",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Stop after N frames (required for headless)",
			Value: 0,
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window scale factor for the sdl2 and ebiten backends",
			Value: 3,
		},
		cli.Float64Flag{
			Name:  "speed",
			Usage: "Emulation speed multiplier (min 0.01)",
			Value: 1.0,
		},
		cli.Float64Flag{
			Name:  "volume",
			Usage: "Audio volume multiplier, 0 to 2 (0 mutes)",
			Value: 1.0,
		},
		cli.StringFlag{
			Name:  "wav",
			Usage: "Record the audio stream to a WAV file (disables playback)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.BoolFlag{
			Name:  "serial",
			Usage: "Log bytes written to the link port",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("emulator exited with error", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	cfg := config{
		romPath:          romPath,
		backend:          c.String("backend"),
		frames:           c.Int("frames"),
		scale:            c.Int("scale"),
		speed:            c.Float64("speed"),
		volume:           c.Float64("volume"),
		wavPath:          c.String("wav"),
		snapshotInterval: c.Int("snapshot-interval"),
		snapshotDir:      c.String("snapshot-dir"),
		logSerial:        c.Bool("serial"),
	}
	if c.Bool("headless") {
		cfg.backend = "headless"
	}
	if cfg.backend == "headless" && cfg.frames <= 0 {
		return errors.New("headless mode requires --frames with a positive value")
	}

	return run(cfg)
}
