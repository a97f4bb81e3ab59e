package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-dotmatrix/dotmatrix"
	"github.com/valerio/go-dotmatrix/dotmatrix/backend"
	"github.com/valerio/go-dotmatrix/dotmatrix/debug"
	"github.com/valerio/go-dotmatrix/dotmatrix/timing"
)

// idleROM spins on a relative jump forever.
func idleROM() []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x134:], "DRIVER")
	rom[0x100] = 0x18 // JR -2
	rom[0x101] = 0xFE
	return rom
}

func testDriver(t *testing.T) *driver {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	machine, err := dotmatrix.New(idleROM(), dotmatrix.WithLogger(logger))
	assert.NoError(t, err)
	return &driver{
		machine:   machine,
		limiter:   timing.NewNoOpLimiter(),
		speed:     1.0,
		romName:   "driver",
		statePath: filepath.Join(t.TempDir(), "driver.state"),
		sampleBuf: make([]int16, 1024),
	}
}

func TestDriverStepRunsOneFrame(t *testing.T) {
	d := testDriver(t)

	frame, err := d.step(backend.Input{})

	assert.NoError(t, err)
	assert.NotNil(t, frame)
	assert.Equal(t, 1, d.framesRun)
}

func TestDriverStepQuit(t *testing.T) {
	d := testDriver(t)

	frame, err := d.step(backend.Input{Quit: true})

	assert.ErrorIs(t, err, backend.ErrStopped)
	assert.Nil(t, frame)
	assert.Equal(t, 0, d.framesRun)
}

func TestDriverFrameBudget(t *testing.T) {
	d := testDriver(t)
	d.frameBudget = 2

	for i := 0; i < 2; i++ {
		_, err := d.step(backend.Input{})
		assert.NoError(t, err)
	}
	_, err := d.step(backend.Input{})

	assert.ErrorIs(t, err, backend.ErrStopped)
	assert.Equal(t, 2, d.framesRun)
}

func TestDriverPause(t *testing.T) {
	d := testDriver(t)

	_, err := d.step(backend.Input{TogglePause: true})
	assert.NoError(t, err)
	assert.True(t, d.paused)
	assert.Equal(t, 0, d.framesRun)

	_, err = d.step(backend.Input{TogglePause: true})
	assert.NoError(t, err)
	assert.False(t, d.paused)
	assert.Equal(t, 1, d.framesRun)
}

func TestDriverFastForwardWithoutLimiter(t *testing.T) {
	d := testDriver(t)

	_, err := d.step(backend.Input{FastForward: true})
	assert.NoError(t, err)
	assert.Equal(t, 4, d.framesRun)

	_, err = d.step(backend.Input{})
	assert.NoError(t, err)
	assert.Equal(t, 5, d.framesRun)
}

func TestDriverFastForwardWithAdaptiveLimiter(t *testing.T) {
	d := testDriver(t)
	d.adaptive = timing.NewAdaptiveLimiter(1.0)

	_, err := d.step(backend.Input{FastForward: true})

	assert.NoError(t, err)
	assert.Equal(t, 1, d.framesRun)
}

func TestDriverFastForwardClampedToBudget(t *testing.T) {
	d := testDriver(t)
	d.frameBudget = 3

	_, err := d.step(backend.Input{FastForward: true})

	assert.NoError(t, err)
	assert.Equal(t, 3, d.framesRun)
}

func TestDriverSaveAndLoadState(t *testing.T) {
	d := testDriver(t)

	_, err := d.step(backend.Input{})
	assert.NoError(t, err)
	_, err = d.step(backend.Input{TogglePause: true})
	assert.NoError(t, err)

	_, err = d.step(backend.Input{SaveState: true})
	assert.NoError(t, err)
	assert.FileExists(t, d.statePath)
	saved := d.machine.Cycles()

	_, err = d.step(backend.Input{TogglePause: true})
	assert.NoError(t, err)
	_, err = d.step(backend.Input{})
	assert.NoError(t, err)
	assert.Greater(t, d.machine.Cycles(), saved)

	_, err = d.step(backend.Input{TogglePause: true})
	assert.NoError(t, err)
	_, err = d.step(backend.Input{LoadState: true})
	assert.NoError(t, err)
	assert.Equal(t, saved, d.machine.Cycles())
}

func TestDriverLoadStateMissingFile(t *testing.T) {
	d := testDriver(t)

	_, err := d.step(backend.Input{LoadState: true})

	assert.NoError(t, err)
	assert.Equal(t, 1, d.framesRun)
}

func TestDriverRecordsWAV(t *testing.T) {
	d := testDriver(t)
	path := filepath.Join(t.TempDir(), "out.wav")
	recorder, err := debug.NewWAVRecorder(path, d.machine.SampleRate())
	assert.NoError(t, err)
	d.recorder = recorder

	for i := 0; i < 3; i++ {
		_, err := d.step(backend.Input{})
		assert.NoError(t, err)
	}
	assert.NoError(t, recorder.Close())

	stat, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Greater(t, stat.Size(), int64(44), "should hold samples beyond the header")
}

func TestNewBackendSelection(t *testing.T) {
	testCases := []struct {
		desc         string
		cfg          config
		wantErr      bool
		wantAdaptive bool
	}{
		{
			desc: "headless gets no wall-clock pacing",
			cfg:  config{backend: "headless", frames: 5},
		},
		{
			desc:         "terminal paces against the wall clock",
			cfg:          config{backend: "terminal", speed: 1},
			wantAdaptive: true,
		},
		{
			desc:    "unknown backend",
			cfg:     config{backend: "gameboy"},
			wantErr: true,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			b, limiter, err := newBackend(tC.cfg)
			if tC.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, b)
			_, adaptive := limiter.(*timing.AdaptiveLimiter)
			assert.Equal(t, tC.wantAdaptive, adaptive)
		})
	}
}

func TestRunHeadless(t *testing.T) {
	romPath := filepath.Join(t.TempDir(), "idle.gb")
	assert.NoError(t, os.WriteFile(romPath, idleROM(), 0644))

	err := run(config{
		romPath: romPath,
		backend: "headless",
		frames:  3,
		speed:   1,
	})

	assert.NoError(t, err)
}

func TestRunMissingROM(t *testing.T) {
	err := run(config{
		romPath: filepath.Join(t.TempDir(), "missing.gb"),
		backend: "headless",
		frames:  1,
	})

	assert.Error(t, err)
}
