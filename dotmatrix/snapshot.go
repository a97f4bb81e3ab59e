package dotmatrix

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/valerio/go-dotmatrix/dotmatrix/cpu"
	"github.com/valerio/go-dotmatrix/dotmatrix/memory"
)

// snapshotVersion is bumped whenever the snapshot layout changes.
// Older snapshots are rejected rather than misread.
const snapshotVersion = 1

// snapshot is the serialized machine image. The ROM itself is not
// part of it: a snapshot only loads back into a machine running the
// same cartridge.
type snapshot struct {
	Version int

	CPU    cpu.CPUState
	Bus    memory.BusState
	Cycles uint64
}

// Save writes the complete machine state to w.
func (d *DMG) Save(w io.Writer) error {
	snap := snapshot{
		Version: snapshotVersion,
		CPU:     d.cpu.State(),
		Bus:     d.bus.State(),
		Cycles:  d.cycles,
	}
	if err := gob.NewEncoder(w).Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// Load restores machine state produced by Save. Execution resumes at
// the exact instruction boundary the snapshot was taken on.
func (d *DMG) Load(r io.Reader) error {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	d.cpu.Restore(snap.CPU)
	d.bus.Restore(snap.Bus)
	d.cycles = snap.Cycles
	return nil
}
