package backend

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-dotmatrix/dotmatrix/debug"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

// Headless runs without a display for automated testing and batch
// processing. It counts frames, optionally dumping PNG snapshots, and
// requests quit once the frame budget is spent.
type Headless struct {
	config         Config
	frameCount     int
	maxFrames      int
	snapshotConfig SnapshotConfig
}

// SnapshotConfig holds configuration for frame snapshots.
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // Save a snapshot every N frames
	Directory string // Directory to save snapshots
	ROMName   string // ROM name for snapshot filenames
}

func NewHeadless(maxFrames int, snapshotConfig SnapshotConfig) *Headless {
	return &Headless{
		maxFrames:      maxFrames,
		snapshotConfig: snapshotConfig,
	}
}

func (h *Headless) Init(config Config) error {
	h.config = config
	slog.Info("running headless",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshotConfig.Interval,
		"snapshot_dir", h.snapshotConfig.Directory)
	return nil
}

// Update counts the frame and handles snapshots.
func (h *Headless) Update(frame *video.FrameBuffer) (Input, error) {
	h.frameCount++

	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval == 0 {
		h.saveSnapshot(frame)
	}

	if h.frameCount%600 == 0 {
		slog.Info("frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	if h.frameCount >= h.maxFrames {
		// Final snapshot unless the interval already produced one.
		if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval != 0 {
			h.saveSnapshot(frame)
		}
		if h.snapshotConfig.Enabled {
			slog.Info("headless run complete", "frames", h.maxFrames, "snapshot_dir", h.snapshotConfig.Directory)
		} else {
			slog.Info("headless run complete", "frames", h.maxFrames)
		}
		return Input{Quit: true}, nil
	}

	return Input{}, nil
}

func (h *Headless) Cleanup() error {
	return nil
}

// CreateSnapshotConfig builds a snapshot configuration from CLI
// parameters. An interval of zero disables snapshots; an empty
// directory means a fresh temporary one.
func CreateSnapshotConfig(interval int, directory, romPath string) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
	}

	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "dotmatrix-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("creating snapshot directory: %w", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0755); err != nil {
			return config, fmt.Errorf("creating snapshot directory: %w", err)
		}
		config.Directory = directory
	}

	config.ROMName = filepath.Base(romPath)
	config.ROMName = strings.TrimSuffix(config.ROMName, filepath.Ext(config.ROMName))

	return config, nil
}

func (h *Headless) saveSnapshot(frame *video.FrameBuffer) {
	name := fmt.Sprintf("%s_frame_%d.png", h.snapshotConfig.ROMName, h.frameCount)
	path := filepath.Join(h.snapshotConfig.Directory, name)
	if err := debug.WriteFramePNG(frame, path); err != nil {
		slog.Error("failed to save snapshot", "frame", h.frameCount, "error", err)
	}
}
