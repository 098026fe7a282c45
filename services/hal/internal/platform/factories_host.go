// services/hal/internal/platform/factories_host.go
package platform

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/halcore"
)

// ----------------------------- GPIO (host) -----------------------------------

// PinWrite is one recorded output write, in factory-wide order.
type PinWrite struct {
	Pin   int
	Level bool
}

// FakePin implements GPIOPin and IRQPin for host-side tests.
// Level changes that match the configured edge call the IRQ handler
// synchronously, standing in for interrupt context.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	pull    halcore.Pull
	irqEdge halcore.Edge
	irqFunc func()
	failSet error
	failCfg error

	journal *journal
}

func (p *FakePin) ConfigureInput(pull halcore.Pull) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCfg != nil {
		return p.failCfg
	}
	p.modeOut = false
	p.pull = pull
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	if p.failCfg != nil {
		p.mu.Unlock()
		return p.failCfg
	}
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	p.journal.add(p.number, initial)
	return nil
}

func (p *FakePin) Set(level bool) error {
	p.mu.Lock()
	if p.failSet != nil {
		err := p.failSet
		p.mu.Unlock()
		return err
	}
	old := p.level
	p.level = level
	want := irqWanted(p.irqEdge, edgeFrom(old, level))
	irq := p.irqFunc
	p.mu.Unlock()

	p.journal.add(p.number, level)
	if want && irq != nil {
		irq() // ISR-style callback
	}
	return nil
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) SetIRQ(edge halcore.Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.irqFunc = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = halcore.EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

// Pulse drives a low->high->low sequence, firing a rising-edge IRQ.
func (p *FakePin) Pulse() {
	_ = p.Set(false)
	_ = p.Set(true)
	_ = p.Set(false)
}

// FailSet makes every following Set return err (nil clears).
func (p *FakePin) FailSet(err error) {
	p.mu.Lock()
	p.failSet = err
	p.mu.Unlock()
}

// FailConfigure makes Configure* return err (nil clears).
func (p *FakePin) FailConfigure(err error) {
	p.mu.Lock()
	p.failCfg = err
	p.mu.Unlock()
}

// IsOutput reports the configured direction.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// Pull reports the configured input pull.
func (p *FakePin) Pull() halcore.Pull {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pull
}

// HasIRQ reports whether a handler is registered.
func (p *FakePin) HasIRQ() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.irqFunc != nil
}

func edgeFrom(old, new bool) halcore.Edge {
	switch {
	case !old && new:
		return halcore.EdgeRising
	case old && !new:
		return halcore.EdgeFalling
	default:
		return halcore.EdgeNone
	}
}

func irqWanted(cfg, seen halcore.Edge) bool {
	switch cfg {
	case halcore.EdgeBoth:
		return seen == halcore.EdgeRising || seen == halcore.EdgeFalling
	case halcore.EdgeNone:
		return false
	default:
		return cfg == seen
	}
}

type journal struct {
	mu     sync.Mutex
	writes []PinWrite
}

func (j *journal) add(pin int, level bool) {
	if j == nil {
		return
	}
	j.mu.Lock()
	j.writes = append(j.writes, PinWrite{Pin: pin, Level: level})
	j.mu.Unlock()
}

// HostPinFactory returns stable *FakePin instances per number.
type HostPinFactory struct {
	mu   sync.Mutex
	pins map[int]*FakePin
	j    journal
}

func NewHostPinFactory() *HostPinFactory {
	return &HostPinFactory{pins: make(map[int]*FakePin)}
}

func (f *HostPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	return f.Pin(n), true
}

// Pin exposes the underlying *FakePin for tests (e.g. to drive IRQ edges).
func (f *HostPinFactory) Pin(n int) *FakePin {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = &FakePin{number: n, journal: &f.j}
		f.pins[n] = p
	}
	return p
}

// Writes returns every output write so far, across all pins, in order.
func (f *HostPinFactory) Writes() []PinWrite {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	return append([]PinWrite(nil), f.j.writes...)
}

// WritesTo filters Writes to one pin.
func (f *HostPinFactory) WritesTo(pin int) []bool {
	var out []bool
	for _, w := range f.Writes() {
		if w.Pin == pin {
			out = append(out, w.Level)
		}
	}
	return out
}

// ResetWrites clears the write journal.
func (f *HostPinFactory) ResetWrites() {
	f.j.mu.Lock()
	f.j.writes = nil
	f.j.mu.Unlock()
}

// ----------------------------- SPI (host) ------------------------------------

// DefaultMaxTransferSize matches the Linux spidev default bufsiz.
const DefaultMaxTransferSize = 4096

// SPIRecord is one completed Tx as seen by the fake bus.
type SPIRecord struct {
	TX, RX     []byte
	Start, End time.Time
}

// FakeSPI records transfers and answers each byte with its complement.
// Overlaps counts Tx calls that began while another was still in flight.
type FakeSPI struct {
	Cfg halcore.SPIConfig

	mu      sync.Mutex
	records []SPIRecord
	delay   time.Duration
	failTx  error
	closed  bool
	max     int

	inFlight atomic.Int32
	overlaps atomic.Int32
}

func (s *FakeSPI) Tx(w, r []byte) error {
	if s.inFlight.Add(1) > 1 {
		s.overlaps.Add(1)
	}
	defer s.inFlight.Add(-1)

	s.mu.Lock()
	delay, fail := s.delay, s.failTx
	s.mu.Unlock()

	start := time.Now()
	if delay > 0 {
		time.Sleep(delay)
	}
	if fail != nil {
		return fail
	}
	tx := append([]byte(nil), w...)
	for i := range r {
		var b byte
		if i < len(tx) {
			b = tx[i]
		}
		r[i] = ^b
	}
	rec := SPIRecord{TX: tx, RX: append([]byte(nil), r...), Start: start, End: time.Now()}

	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return nil
}

func (s *FakeSPI) Transfer(b byte) (byte, error) {
	buf := []byte{b}
	err := s.Tx(buf, buf)
	return buf[0], err
}

func (s *FakeSPI) MaxTransferSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.max > 0 {
		return s.max
	}
	return DefaultMaxTransferSize
}

func (s *FakeSPI) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// SetDelay makes each Tx take at least d.
func (s *FakeSPI) SetDelay(d time.Duration) { s.mu.Lock(); s.delay = d; s.mu.Unlock() }

// FailTx makes each Tx return err (nil clears).
func (s *FakeSPI) FailTx(err error) { s.mu.Lock(); s.failTx = err; s.mu.Unlock() }

// SetMaxTransferSize overrides DefaultMaxTransferSize.
func (s *FakeSPI) SetMaxTransferSize(n int) { s.mu.Lock(); s.max = n; s.mu.Unlock() }

func (s *FakeSPI) Records() []SPIRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SPIRecord(nil), s.records...)
}

func (s *FakeSPI) Overlaps() int { return int(s.overlaps.Load()) }

func (s *FakeSPI) Closed() bool { s.mu.Lock(); defer s.mu.Unlock(); return s.closed }

// HostSPIFactory hands out one FakeSPI per bus/device node.
type HostSPIFactory struct {
	mu    sync.Mutex
	ports map[string]*FakeSPI
	fail  error
}

func NewHostSPIFactory() *HostSPIFactory {
	return &HostSPIFactory{ports: make(map[string]*FakeSPI)}
}

func (f *HostSPIFactory) Open(cfg halcore.SPIConfig) (halcore.SPIPort, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	if f.ports == nil {
		f.ports = make(map[string]*FakeSPI)
	}
	k := spiKey(cfg.Bus, cfg.Device)
	p, ok := f.ports[k]
	if !ok {
		p = &FakeSPI{}
		f.ports[k] = p
	}
	p.mu.Lock()
	p.Cfg = cfg
	p.closed = false
	p.mu.Unlock()
	return p, nil
}

// Port returns the fake opened for bus/device, if any.
func (f *HostSPIFactory) Port(bus, device int) (*FakeSPI, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.ports[spiKey(bus, device)]
	return p, ok
}

// FailOpen makes Open return err (nil clears).
func (f *HostSPIFactory) FailOpen(err error) { f.mu.Lock(); f.fail = err; f.mu.Unlock() }

func spiKey(bus, device int) string {
	return strconv.Itoa(bus) + "." + strconv.Itoa(device)
}
