// services/hal/internal/halcore/types.go
package halcore

import (
	"errors"

	"tinygo.org/x/drivers"
)

var (
	// ErrNoIRQ when a pin cannot deliver edge interrupts.
	ErrNoIRQ = errors.New("no_irq")
)

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// GPIOPin is one host GPIO line. Set reports driver failures; Get is a
// plain register read and safe to call from an interrupt handler.
type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool) error
	Get() bool
	Number() int
}

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// IRQPin extends GPIOPin with interrupts. The handler runs in interrupt
// (or edge-watcher) context and must not block.
type IRQPin interface {
	GPIOPin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// PinFactory supplies GPIO pins by host (BCM) number.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

// ---- SPI abstractions ----

// SPIConfig selects and parameterises one SPI device node.
type SPIConfig struct {
	Bus     int
	Device  int
	SpeedHz uint32
	Mode    uint8 // 0..3
}

// SPI is the TinyGo drivers.SPI contract. Tx is full duplex; w and r may
// be the same slice for in-place transfers.
type SPI = drivers.SPI

// SPIPort is an opened SPI device.
type SPIPort interface {
	SPI
	// MaxTransferSize is the longest single Tx the backend accepts.
	MaxTransferSize() int
	Close() error
}

// SPIFactory opens SPI devices.
type SPIFactory interface {
	Open(cfg SPIConfig) (SPIPort, error)
}

// Util
func EdgeToString(e Edge) string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}
