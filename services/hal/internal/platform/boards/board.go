package boards

import (
	"sort"
	"time"
)

// NoPin marks an absent GPIO line.
const NoPin = -1

// PowerScheme selects how sensors are brought up and down.
type PowerScheme uint8

const (
	// ResetLine boards hold an active-low reset and an enable line shared by
	// all sensors. Sensors move Unknown -> Ready -> Busy.
	ResetLine PowerScheme = iota
	// EnableOnly boards gate a single enable line. Sensors move
	// Disabled <-> Enabled.
	EnableOnly
)

// SPI is the board's fixed SPI wiring and clock.
type SPI struct {
	Bus, Device int
	SpeedHz     uint32
	Mode        uint8
}

// Descriptor describes what the PCB wires up. Pins are host BCM numbers.
type Descriptor struct {
	Name        string
	SensorCount int
	Power       PowerScheme

	// Interrupt[i] is the data-ready line of sensor i+1. Sensors may share one.
	Interrupt []int
	Enable    int
	Reset     int // active low
	// SlaveSelect is a CS line held inactive (high) so a breakout's own CS
	// logic is not driven; NoPin when absent.
	SlaveSelect int
	// ChipSelectMux lists the GPIO lines that decode sensor-1 as a binary
	// index, most significant first. Empty when CS is hardware driven.
	ChipSelectMux []int

	SPI SPI

	RefFreqHz float32
	// Settle is the wait after enable before the sensor is released.
	Settle time.Duration
}

// Pins lists every GPIO line the descriptor touches, without duplicates.
func (d Descriptor) Pins() []int {
	seen := map[int]bool{}
	var out []int
	add := func(n int) {
		if n != NoPin && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, n := range d.Interrupt {
		add(n)
	}
	add(d.Enable)
	add(d.Reset)
	add(d.SlaveSelect)
	for _, n := range d.ChipSelectMux {
		add(n)
	}
	return out
}

var registry = map[string]Descriptor{}

func register(d Descriptor) { registry[d.Name] = d }

// Lookup returns the descriptor registered under name.
func Lookup(name string) (Descriptor, bool) {
	d, ok := registry[name]
	return d, ok
}

// Names lists registered boards, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
