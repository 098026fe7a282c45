// Package hal binds one radar board to the processing library: it owns the
// sensor power state, interrupt bridge and SPI arbiter, and builds the HAL
// capability table from them.
package hal

import (
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/errcode"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/config"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/gpioirq"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/halcore"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/osal"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/platform"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/platform/boards"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/sensorpower"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/spibus"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/logx"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/types"
)

// Deps are the backends a Board is built on. They are created once at
// process start and passed in; nothing here is package-level state.
type Deps struct {
	OS osal.Primitives
	// Threading is nil when the library runs single-threaded.
	Threading osal.Threading
	Pins      halcore.PinFactory
	SPI       halcore.SPIFactory
	Log       *logx.Sink
}

// NewDeps builds the platform default backends for cfg. Log output goes to
// out (stdout when nil) and to cfg.Log.File when set.
func NewDeps(cfg config.Board, out io.Writer) Deps {
	host := osal.NewHost(cfg.SemaphoreDepth)
	d := Deps{
		OS:   host,
		Pins: platform.DefaultPinFactory(),
		SPI:  platform.DefaultSPIFactory(),
		Log: logx.New(logx.Options{
			Level:      cfg.LogLevel(),
			Out:        out,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			Clock:      host.GetTime,
			ThreadID:   host.GetThreadID,
		}),
	}
	if cfg.Threading {
		d.Threading = host
	}
	return d
}

// session is everything Init creates and Deinit tears down.
type session struct {
	port  halcore.SPIPort
	spi   *spibus.Arbiter
	mux   *spibus.MuxChipSelect
	irq   *gpioirq.Bridge
	power *sensorpower.Machine
}

// Board is one physical radar board.
type Board struct {
	desc boards.Descriptor
	deps Deps
	log  *logx.Logger

	mu       sync.RWMutex
	pins     map[int]halcore.GPIOPin
	s        *session
	gpioDone bool
}

// New validates cfg and deps. No hardware is touched until Init.
func New(cfg config.Board, deps Deps) (*Board, error) {
	desc, err := cfg.Descriptor()
	if err != nil {
		return nil, err
	}
	if deps.OS == nil || deps.Pins == nil || deps.SPI == nil {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "board_new", Msg: "os, pins and spi backends are required"}
	}
	return &Board{
		desc: desc,
		deps: deps,
		log:  deps.Log.Module("board"),
		pins: map[int]halcore.GPIOPin{},
	}, nil
}

func (b *Board) Name() string        { return b.desc.Name }
func (b *Board) SensorCount() int    { return b.desc.SensorCount }
func (b *Board) LogSink() *logx.Sink { return b.deps.Log }

// pin resolves and caches a GPIO line. Caller holds b.mu.
func (b *Board) pin(op string, n int) (halcore.GPIOPin, error) {
	if p, ok := b.pins[n]; ok {
		return p, nil
	}
	p, ok := b.deps.Pins.ByNumber(n)
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownPin, Op: op, Msg: "gpio " + strconv.Itoa(n)}
	}
	b.pins[n] = p
	return p, nil
}

func (b *Board) sleep(d time.Duration) {
	b.deps.OS.SleepUs(uint32(d / time.Microsecond))
}

// Init opens the SPI bus, registers every sensor's interrupt and puts all
// sensors in their initial state. Repeated calls succeed without effect.
// On failure everything created so far is released.
func (b *Board) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.s != nil {
		return nil
	}

	s := &session{}
	err := b.open(s)
	if err != nil {
		b.release(s)
		b.log.Errorf("board init failed: %v", err)
		return err
	}
	b.s = s
	b.log.Infof("%s: %d sensor(s), spi%d.%d at %d Hz", b.desc.Name, b.desc.SensorCount,
		b.desc.SPI.Bus, b.desc.SPI.Device, b.desc.SPI.SpeedHz)
	return nil
}

func (b *Board) open(s *session) error {
	d := b.desc
	port, err := b.deps.SPI.Open(halcore.SPIConfig{
		Bus:     d.SPI.Bus,
		Device:  d.SPI.Device,
		SpeedHz: d.SPI.SpeedHz,
		Mode:    d.SPI.Mode,
	})
	if err != nil {
		return errcode.Wrap(errcode.UnknownBus, "spi_open", 0, err)
	}
	s.port = port

	var cs spibus.ChipSelect
	if len(d.ChipSelectMux) > 0 {
		lines := make([]halcore.GPIOPin, 0, len(d.ChipSelectMux))
		for _, n := range d.ChipSelectMux {
			p, err := b.pin("board_init", n)
			if err != nil {
				return err
			}
			lines = append(lines, p)
		}
		s.mux = spibus.NewMuxChipSelect(lines...)
		cs = s.mux
	}
	s.spi = spibus.New(b.deps.OS, port, cs, d.SensorCount)

	s.irq = gpioirq.New(b.deps.OS, d.SensorCount)
	for i, n := range d.Interrupt {
		id := types.SensorID(i + 1)
		p, err := b.pin("board_init", n)
		if err != nil {
			return err
		}
		ip, ok := p.(halcore.IRQPin)
		if !ok {
			return errcode.Wrap(errcode.GPIOError, "irq_register", uint32(id), halcore.ErrNoIRQ)
		}
		if err := ip.ConfigureInput(halcore.PullDown); err != nil {
			return errcode.Wrap(errcode.GPIOError, "irq_register", uint32(id), err)
		}
		if err := s.irq.Register(id, ip); err != nil {
			return err
		}
	}

	cfg := sensorpower.Config{
		Scheme: sensorpower.SchemeReset,
		Count:  d.SensorCount,
		Settle: d.Settle,
		Sleep:  b.sleep,
		Drain:  s.irq,
		Log:    b.log,
	}
	if d.Power == boards.EnableOnly {
		cfg.Scheme = sensorpower.SchemeEnable
	}
	if cfg.Enable, err = b.pin("board_init", d.Enable); err != nil {
		return err
	}
	if d.Reset != boards.NoPin {
		if cfg.Reset, err = b.pin("board_init", d.Reset); err != nil {
			return err
		}
	}
	s.power = sensorpower.New(cfg)
	return nil
}

// release tears down whatever s holds. Caller holds b.mu.
func (b *Board) release(s *session) {
	if s.irq != nil {
		s.irq.Close()
	}
	if s.spi != nil {
		if err := s.spi.Close(); err != nil {
			b.log.Warnf("spi close: %v", err)
		}
	} else if s.port != nil {
		_ = s.port.Close()
	}
}

// GPIOInit drives the board's output lines to their safe levels: reset
// asserted, enable low, slave select high, mux lines low. Interrupt lines
// are configured by Init. Repeated calls succeed without effect.
func (b *Board) GPIOInit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.gpioDone {
		return nil
	}
	d := b.desc
	type level struct {
		n    int
		high bool
	}
	outs := []level{{d.Enable, false}}
	if d.Reset != boards.NoPin {
		outs = append(outs, level{d.Reset, false})
	}
	if d.SlaveSelect != boards.NoPin {
		outs = append(outs, level{d.SlaveSelect, true})
	}
	for _, n := range d.ChipSelectMux {
		outs = append(outs, level{n, false})
	}
	for _, o := range outs {
		p, err := b.pin("gpio_init", o.n)
		if err != nil {
			b.log.Warnf("failed to set initial pull: %v", err)
			return err
		}
		if err := p.ConfigureOutput(o.high); err != nil {
			b.log.Warnf("failed to set initial pull on gpio %d: %v", o.n, err)
			return errcode.Wrap(errcode.GPIOError, "gpio_init", 0, err)
		}
	}
	b.gpioDone = true
	return nil
}

// DriverInit is the full bring-up order: board init then GPIO init.
func (b *Board) DriverInit() error {
	if err := b.Init(); err != nil {
		return err
	}
	return b.GPIOInit()
}

// Deinit destroys the semaphores, removes interrupt handlers and closes the
// SPI bus. A later Init starts from scratch.
func (b *Board) Deinit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.s == nil {
		return nil
	}
	b.release(b.s)
	b.s = nil
	b.gpioDone = false
	return nil
}

// active returns the live session after validating id. Sensor ids are
// checked first so an out-of-range id never reaches shared state.
func (b *Board) active(op string, id types.SensorID) (*session, error) {
	if !id.Valid(b.desc.SensorCount) {
		return nil, errcode.Wrap(errcode.InvalidSensor, op, uint32(id), nil)
	}
	b.mu.RLock()
	s := b.s
	b.mu.RUnlock()
	if s == nil {
		return nil, errcode.Wrap(errcode.NotInitialised, op, uint32(id), nil)
	}
	return s, nil
}

// PowerOn makes id active. Already active sensors are left as they are.
func (b *Board) PowerOn(id types.SensorID) error {
	s, err := b.active("power_on", id)
	if err != nil {
		return err
	}
	return s.power.PowerOn(id)
}

// PowerOff makes id inactive; errcode.AlreadyInactive if it was not active.
func (b *Board) PowerOff(id types.SensorID) error {
	s, err := b.active("power_off", id)
	if err != nil {
		return err
	}
	return s.power.PowerOff(id)
}

func (b *Board) IsSensorActive(id types.SensorID) (bool, error) {
	s, err := b.active("is_sensor_active", id)
	if err != nil {
		return false, err
	}
	return s.power.IsActive(id)
}

// WaitForInterrupt blocks up to timeout for id's data-ready edge. A timeout
// is reported as false with a nil error.
func (b *Board) WaitForInterrupt(id types.SensorID, timeout time.Duration) (bool, error) {
	s, err := b.active("wait_for_interrupt", id)
	if err != nil {
		return false, err
	}
	return s.irq.Wait(id, timeout)
}

// Transfer clocks buf through id's chip select, full duplex, in place.
func (b *Board) Transfer(id types.SensorID, buf []byte) error {
	s, err := b.active("transfer", id)
	if err != nil {
		return err
	}
	return s.spi.Transfer(id, buf)
}

// ChipSelect drives the mux to id. Boards with hardware CS accept any
// valid id without touching GPIO.
func (b *Board) ChipSelect(id types.SensorID, assert bool) error {
	s, err := b.active("chip_select", id)
	if err != nil {
		return err
	}
	if s.mux == nil {
		return nil
	}
	if err := s.mux.Select(id, assert); err != nil {
		return errcode.Wrap(errcode.GPIOError, "chip_select", uint32(id), err)
	}
	return nil
}

// ReferenceFrequency is the sensor oscillator frequency in Hz.
func (b *Board) ReferenceFrequency() float32 { return b.desc.RefFreqHz }

// SetReferenceFrequency is not supported by any board: the oscillator is
// fixed on the PCB.
func (b *Board) SetReferenceFrequency(hz float32) error {
	return &errcode.E{C: errcode.Unsupported, Op: "set_reference_frequency"}
}

// Properties reports the sensor count and the SPI backend's transfer limit.
func (b *Board) Properties() (types.Properties, error) {
	b.mu.RLock()
	s := b.s
	b.mu.RUnlock()
	if s == nil {
		return types.Properties{}, errcode.Wrap(errcode.NotInitialised, "properties", 0, nil)
	}
	return types.Properties{
		SensorCount:        uint32(b.desc.SensorCount),
		MaxSPITransferSize: s.spi.MaxTransferSize(),
	}, nil
}

// SensorStates snapshots every sensor, index = id-1.
func (b *Board) SensorStates() []types.SensorState {
	b.mu.RLock()
	s := b.s
	b.mu.RUnlock()
	if s == nil {
		return nil
	}
	return s.power.States()
}

// InterruptStats reports signal, drop and drain counters for id.
func (b *Board) InterruptStats(id types.SensorID) (gpioirq.Stats, error) {
	s, err := b.active("interrupt_stats", id)
	if err != nil {
		return gpioirq.Stats{}, err
	}
	return s.irq.Stats(id)
}
