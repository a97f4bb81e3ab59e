package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valerio/go-dotmatrix/dotmatrix"
	"github.com/valerio/go-dotmatrix/dotmatrix/backend"
	"github.com/valerio/go-dotmatrix/dotmatrix/debug"
	"github.com/valerio/go-dotmatrix/dotmatrix/serial"
	"github.com/valerio/go-dotmatrix/dotmatrix/timing"
	"github.com/valerio/go-dotmatrix/dotmatrix/video"
)

// fastForwardSpeed multiplies the configured speed while fast forward
// is active.
const fastForwardSpeed = 4.0

type config struct {
	romPath          string
	backend          string
	frames           int
	scale            int
	speed            float64
	volume           float64
	wavPath          string
	snapshotInterval int
	snapshotDir      string
	logSerial        bool
}

func run(cfg config) error {
	rom, err := os.ReadFile(cfg.romPath)
	if err != nil {
		return fmt.Errorf("reading ROM: %w", err)
	}

	var opts []dotmatrix.Option
	if cfg.logSerial {
		opts = append(opts, dotmatrix.WithSerialDevice(serial.NewLogSink()))
	}

	machine, err := dotmatrix.New(rom, opts...)
	if err != nil {
		return err
	}

	info := machine.CartridgeInfo()
	slog.Info("starting emulation",
		"title", info.Title,
		"type", info.Kind,
		"rom_banks", info.ROMBanks,
		"ram_bytes", info.RAMSize,
		"battery", info.HasBattery)

	b, limiter, err := newBackend(cfg)
	if err != nil {
		return err
	}

	romName := strings.TrimSuffix(filepath.Base(cfg.romPath), filepath.Ext(cfg.romPath))
	d := &driver{
		machine:     machine,
		limiter:     limiter,
		speed:       timing.ClampSpeed(cfg.speed),
		frameBudget: cfg.frames,
		romName:     romName,
		statePath:   strings.TrimSuffix(cfg.romPath, filepath.Ext(cfg.romPath)) + ".state",
		sampleBuf:   make([]int16, 4096),
	}
	if a, ok := limiter.(*timing.AdaptiveLimiter); ok {
		d.adaptive = a
	}

	if cfg.wavPath != "" {
		recorder, err := debug.NewWAVRecorder(cfg.wavPath, machine.SampleRate())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := recorder.Close(); cerr != nil {
				slog.Error("closing WAV recorder", "error", cerr)
			}
		}()
		d.recorder = recorder
		slog.Info("recording audio", "path", cfg.wavPath)
	}

	// The WAV recorder and the speaker drain the same sample stream, so
	// playback stays off while recording.
	if cfg.backend != "headless" && cfg.wavPath == "" && cfg.volume > 0 {
		speaker, err := backend.NewSpeaker(machine, cfg.volume)
		if err != nil {
			slog.Warn("audio device unavailable, running silent", "error", err)
		} else {
			speaker.Start()
			defer speaker.Close()
		}
	}

	if err := b.Init(backend.Config{Title: "dotmatrix - " + info.Title, Scale: cfg.scale}); err != nil {
		return err
	}
	defer func() {
		if cerr := b.Cleanup(); cerr != nil {
			slog.Error("backend cleanup failed", "error", cerr)
		}
	}()

	if owner, ok := b.(backend.LoopOwner); ok {
		return owner.RunLoop(d.step)
	}
	return d.loop(b)
}

func newBackend(cfg config) (backend.Backend, timing.Limiter, error) {
	switch cfg.backend {
	case "headless":
		snap, err := backend.CreateSnapshotConfig(cfg.snapshotInterval, cfg.snapshotDir, cfg.romPath)
		if err != nil {
			return nil, nil, err
		}
		return backend.NewHeadless(cfg.frames, snap), timing.NewNoOpLimiter(), nil
	case "terminal":
		return backend.NewTerminal(), timing.NewAdaptiveLimiter(cfg.speed), nil
	case "sdl2":
		return backend.NewSDL2(), timing.NewAdaptiveLimiter(cfg.speed), nil
	case "ebiten":
		// Ebiten paces its own update loop, no wall-clock limiter needed.
		return backend.NewEbiten(), timing.NewNoOpLimiter(), nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want terminal, sdl2, ebiten or headless)", cfg.backend)
	}
}

// driver owns the machine and turns backend input into emulation
// progress. Its step method is the StepFunc handed to backends.
type driver struct {
	machine  *dotmatrix.DMG
	limiter  timing.Limiter
	adaptive *timing.AdaptiveLimiter
	recorder *debug.WAVRecorder

	speed       float64
	frameBudget int
	framesRun   int
	romName     string
	statePath   string
	sampleBuf   []int16

	paused bool
	fast   bool
}

// loop steps the machine, then hands the finished frame to the backend
// for presentation and input. Backends that own their loop (ebiten)
// bypass this and call step from inside RunLoop instead.
func (d *driver) loop(b backend.Backend) error {
	var input backend.Input
	for {
		frame, err := d.step(input)
		if errors.Is(err, backend.ErrStopped) {
			return nil
		}
		if err != nil {
			return err
		}
		input, err = b.Update(frame)
		if err != nil {
			return err
		}
		d.limiter.WaitForNextFrame()
	}
}

func (d *driver) step(input backend.Input) (*video.FrameBuffer, error) {
	if input.Quit {
		return nil, backend.ErrStopped
	}
	if d.frameBudget > 0 && d.framesRun >= d.frameBudget {
		slog.Info("frame budget reached", "frames", d.framesRun)
		return nil, backend.ErrStopped
	}
	if input.TogglePause {
		d.paused = !d.paused
		slog.Info("pause toggled", "paused", d.paused)
	}
	d.setFastForward(input.FastForward)
	if input.SaveState {
		d.saveState()
	}
	if input.LoadState {
		d.loadState()
	}

	d.machine.SetInput(input.Buttons)

	if !d.paused {
		frames := 1
		if d.fast && d.adaptive == nil {
			frames = int(fastForwardSpeed)
		}
		if d.frameBudget > 0 && d.framesRun+frames > d.frameBudget {
			frames = d.frameBudget - d.framesRun
		}
		for i := 0; i < frames; i++ {
			if err := d.machine.RunFrame(); err != nil {
				d.dumpFault()
				return nil, err
			}
			d.framesRun++
		}
		d.drainAudio()
	}

	frame := d.machine.Frame()
	if input.Screenshot {
		d.screenshot(frame)
	}
	return frame, nil
}

// setFastForward adjusts pacing on transitions. Backends where the
// driver owns the loop get a faster limiter target; loop-owning
// backends run extra machine frames per tick instead.
func (d *driver) setFastForward(on bool) {
	if on == d.fast {
		return
	}
	d.fast = on
	speed := d.speed
	if on {
		speed *= fastForwardSpeed
	}
	if d.adaptive != nil {
		d.adaptive.SetSpeed(speed)
	}
	slog.Debug("fast forward", "enabled", on)
}

func (d *driver) drainAudio() {
	if d.recorder == nil {
		return
	}
	for {
		n := d.machine.Samples(d.sampleBuf)
		if n == 0 {
			return
		}
		if err := d.recorder.Write(d.sampleBuf[:n]); err != nil {
			slog.Error("recording audio", "error", err)
			d.recorder = nil
			return
		}
	}
}

func (d *driver) saveState() {
	f, err := os.Create(d.statePath)
	if err != nil {
		slog.Error("creating save state", "path", d.statePath, "error", err)
		return
	}
	defer f.Close()
	if err := d.machine.Save(f); err != nil {
		slog.Error("writing save state", "path", d.statePath, "error", err)
		return
	}
	slog.Info("state saved", "path", d.statePath)
}

func (d *driver) loadState() {
	f, err := os.Open(d.statePath)
	if err != nil {
		slog.Error("opening save state", "path", d.statePath, "error", err)
		return
	}
	defer f.Close()
	if err := d.machine.Load(f); err != nil {
		slog.Error("loading save state", "path", d.statePath, "error", err)
		return
	}
	slog.Info("state loaded", "path", d.statePath)
}

func (d *driver) screenshot(frame *video.FrameBuffer) {
	path, err := debug.SaveFramePNG(frame, d.romName, "")
	if err != nil {
		slog.Error("saving screenshot", "error", err)
		return
	}
	slog.Info("screenshot saved", "path", path)
}

// dumpFault writes the last completed frame next to the working
// directory so a crash leaves something to inspect.
func (d *driver) dumpFault() {
	path, err := debug.SaveFramePNG(d.machine.Frame(), d.romName+"_fault", "")
	if err != nil {
		slog.Error("saving fault snapshot", "error", err)
		return
	}
	slog.Info("fault snapshot saved", "path", path)
}
