package memory

// DMA is the OAM transfer engine. Writing 0xFF46 starts a 160-byte copy
// from the written page into OAM, one byte per four cycles, driven by
// the same Advance path as everything else. While a transfer runs the
// CPU can only reach the IO window, HRAM and IE; the bus blocks the
// rest. The engine's own source reads go through an unblocked path.
type DMA struct {
	active  bool
	source  uint16
	index   int
	counter int
	reg     byte

	read  func(address uint16) byte
	write func(index int, value byte)
}

// Start arms a transfer from page<<8. A write mid-flight restarts.
func (d *DMA) Start(page byte) {
	d.reg = page
	d.source = uint16(page) << 8
	d.index = 0
	d.counter = 0
	d.active = true
}

// Tick moves the transfer forward by the given number of cycles.
func (d *DMA) Tick(cycles int) {
	if !d.active {
		return
	}
	for i := 0; i < cycles; i++ {
		d.counter++
		if d.counter < 4 {
			continue
		}
		d.counter = 0
		d.write(d.index, d.read(d.source+uint16(d.index)))
		d.index++
		if d.index == 160 {
			d.active = false
			return
		}
	}
}

// Active reports whether a transfer is in flight.
func (d *DMA) Active() bool { return d.active }

// Register returns the last page written to 0xFF46.
func (d *DMA) Register() byte { return d.reg }

// DMAState is the serializable transfer snapshot.
type DMAState struct {
	Active  bool
	Source  uint16
	Index   int
	Counter int
	Reg     byte
}

func (d *DMA) State() DMAState {
	return DMAState{
		Active:  d.active,
		Source:  d.source,
		Index:   d.index,
		Counter: d.counter,
		Reg:     d.reg,
	}
}

func (d *DMA) Restore(state DMAState) {
	d.active = state.Active
	d.source = state.Source
	d.index = state.Index
	d.counter = state.Counter
	d.reg = state.Reg
}
