// services/hal/internal/spibus/arbiter.go
package spibus

import (
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/errcode"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/halcore"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/osal"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/types"
)

// ChipSelect drives board-specific CS lines around a transfer.
type ChipSelect interface {
	Select(id types.SensorID, assert bool) error
}

// Arbiter serialises every transfer on one SPI bus. The lock is held for
// exactly one Transfer and released on every exit path.
type Arbiter struct {
	os    osal.Primitives
	lock  osal.Mutex
	port  halcore.SPIPort
	cs    ChipSelect // nil when CS is hardware driven
	count int
}

// New takes ownership of port. cs may be nil.
func New(os osal.Primitives, port halcore.SPIPort, cs ChipSelect, sensorCount int) *Arbiter {
	return &Arbiter{
		os:    os,
		lock:  os.MutexCreate(),
		port:  port,
		cs:    cs,
		count: sensorCount,
	}
}

// MaxTransferSize is the longest buffer Transfer accepts.
func (a *Arbiter) MaxTransferSize() int { return a.port.MaxTransferSize() }

// Transfer clocks buf out and overwrites it with the bytes clocked in.
func (a *Arbiter) Transfer(id types.SensorID, buf []byte) error {
	if !id.Valid(a.count) {
		return errcode.Wrap(errcode.InvalidSensor, "transfer", uint32(id), nil)
	}
	if limit := a.port.MaxTransferSize(); limit > 0 && len(buf) > limit {
		return &errcode.E{C: errcode.TransferTooLarge, Op: "transfer", Sensor: uint32(id)}
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	if a.cs != nil {
		if err := a.cs.Select(id, true); err != nil {
			return errcode.Wrap(errcode.GPIOError, "chip_select", uint32(id), err)
		}
	}
	if err := a.port.Tx(buf, buf); err != nil {
		// CS left as is; the next Select drives every mux line again.
		return errcode.Wrap(errcode.SPIError, "transfer", uint32(id), err)
	}
	if a.cs != nil {
		if err := a.cs.Select(id, false); err != nil {
			return errcode.Wrap(errcode.GPIOError, "chip_select", uint32(id), err)
		}
	}
	return nil
}

// Close releases the bus lock and port.
func (a *Arbiter) Close() error {
	a.os.MutexDestroy(a.lock)
	return a.port.Close()
}
