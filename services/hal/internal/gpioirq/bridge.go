// services/hal/internal/gpioirq/bridge.go
package gpioirq

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/errcode"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/halcore"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/osal"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/types"
)

// Stats counts interrupt traffic for one sensor.
type Stats struct {
	Signals uint32 // edges seen by the handler
	Drops   uint32 // edges lost because the semaphore was full
	Drained uint32 // stale signals discarded by Drain
}

type line struct {
	pin halcore.IRQPin
	sem *osal.Semaphore
	// isr is the same semaphore, narrowed to the non-blocking ISR path.
	// It is all the edge handler can reach.
	isr osal.ISRSignaler

	signals atomic.Uint32
	drained atomic.Uint32
}

// Bridge turns rising edges on each sensor's data-ready line into
// semaphore signals that WaitForInterrupt consumes.
type Bridge struct {
	os osal.Primitives

	mu    sync.RWMutex
	lines []*line         // index = sensor-1
	byPin map[int][]*line // pin number -> sensors sharing it
	pins  map[int]halcore.IRQPin
}

func New(os osal.Primitives, sensorCount int) *Bridge {
	return &Bridge{
		os:    os,
		lines: make([]*line, sensorCount),
		byPin: map[int][]*line{},
		pins:  map[int]halcore.IRQPin{},
	}
}

// Register creates the sensor's semaphore and installs a rising-edge
// handler on pin. Sensors wired to the same pin are all signalled.
func (b *Bridge) Register(id types.SensorID, pin halcore.IRQPin) error {
	if !id.Valid(len(b.lines)) {
		return errcode.Wrap(errcode.InvalidSensor, "irq_register", uint32(id), nil)
	}
	sem, err := b.os.SemaphoreCreate()
	if err != nil || sem == nil {
		return errcode.Wrap(errcode.SemaphoreError, "irq_register", uint32(id), err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lines[id.Index()] != nil {
		b.os.SemaphoreDestroy(sem)
		return errcode.Wrap(errcode.AlreadyActive, "irq_register", uint32(id), nil)
	}
	l := &line{pin: pin, sem: sem, isr: sem}
	n := pin.Number()
	targets := append(append([]*line(nil), b.byPin[n]...), l)

	// Reinstalled with the full target list; the handler only touches
	// atomics and the non-blocking ISR signal path.
	handler := isrHandler(targets)
	if err := pin.SetIRQ(halcore.EdgeRising, handler); err != nil {
		b.os.SemaphoreDestroy(sem)
		return &errcode.E{C: errcode.GPIOError, Op: "irq_register", Sensor: uint32(id),
			Msg: halcore.EdgeToString(halcore.EdgeRising) + " edge on gpio " + strconv.Itoa(n), Err: err}
	}
	b.byPin[n] = targets
	b.pins[n] = pin
	b.lines[id.Index()] = l
	return nil
}

type isrTarget struct {
	signals *atomic.Uint32
	sem     osal.ISRSignaler
}

// isrHandler builds the edge callback. It only sees ISRSignaler views and
// counters, so it cannot take the semaphore's ordinary Signal lock.
func isrHandler(lines []*line) func() {
	targets := make([]isrTarget, len(lines))
	for i, l := range lines {
		targets[i] = isrTarget{signals: &l.signals, sem: l.isr}
	}
	return func() {
		for _, t := range targets {
			t.signals.Add(1)
			t.sem.SignalFromISR()
		}
	}
}

func (b *Bridge) line(op string, id types.SensorID) (*line, error) {
	if !id.Valid(len(b.lines)) {
		return nil, errcode.Wrap(errcode.InvalidSensor, op, uint32(id), nil)
	}
	b.mu.RLock()
	l := b.lines[id.Index()]
	b.mu.RUnlock()
	if l == nil {
		return nil, errcode.Wrap(errcode.NotInitialised, op, uint32(id), nil)
	}
	return l, nil
}

// Wait blocks until the sensor's interrupt fires or timeout elapses.
// A zero timeout polls once.
func (b *Bridge) Wait(id types.SensorID, timeout time.Duration) (bool, error) {
	l, err := b.line("wait_for_interrupt", id)
	if err != nil {
		return false, err
	}
	return l.sem.Wait(timeout), nil
}

// Drain discards signals that arrived while the sensor was inactive and
// returns how many were dropped.
func (b *Bridge) Drain(id types.SensorID) (int, error) {
	l, err := b.line("irq_drain", id)
	if err != nil {
		return 0, err
	}
	n := 0
	for l.sem.Wait(0) {
		n++
	}
	l.drained.Add(uint32(n))
	return n, nil
}

func (b *Bridge) Stats(id types.SensorID) (Stats, error) {
	l, err := b.line("irq_stats", id)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Signals: l.signals.Load(),
		Drops:   l.sem.Drops(),
		Drained: l.drained.Load(),
	}, nil
}

// Close removes every handler and destroys the semaphores.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.pins {
		_ = p.ClearIRQ()
	}
	for i, l := range b.lines {
		if l != nil {
			b.os.SemaphoreDestroy(l.sem)
			b.lines[i] = nil
		}
	}
	b.byPin = map[int][]*line{}
	b.pins = map[int]halcore.IRQPin{}
}
