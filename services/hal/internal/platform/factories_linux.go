// services/hal/internal/platform/factories_linux.go
//go:build linux

package platform

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/halcore"
)

var (
	hostOnce sync.Once
	hostErr  error
)

func initHost() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostErr = fmt.Errorf("periph host init: %w", err)
		}
	})
	return hostErr
}

// DefaultPinFactory maps BCM numbers to periph.io GPIO lines.
func DefaultPinFactory() halcore.PinFactory { return linuxPinFactory{} }

// DefaultSPIFactory opens /dev/spidevB.D through periph.io.
func DefaultSPIFactory() halcore.SPIFactory { return linuxSPIFactory{} }

// ----------------------------- GPIO (linux) ----------------------------------

type linuxPinFactory struct{}

func (linuxPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	if initHost() != nil {
		return nil, false
	}
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if p == nil {
		return nil, false
	}
	return &periphPin{pin: p, n: n}, true
}

// periphPin adapts gpio.PinIO. Edge delivery runs on a watcher goroutine
// blocked in WaitForEdge, which stands in for interrupt context.
type periphPin struct {
	pin  gpio.PinIO
	n    int
	pull gpio.Pull

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (p *periphPin) Number() int { return p.n }

func toPeriphPull(pull halcore.Pull) gpio.Pull {
	switch pull {
	case halcore.PullUp:
		return gpio.PullUp
	case halcore.PullDown:
		return gpio.PullDown
	default:
		return gpio.Float
	}
}

func (p *periphPin) ConfigureInput(pull halcore.Pull) error {
	p.pull = toPeriphPull(pull)
	return p.pin.In(p.pull, gpio.NoEdge)
}

func (p *periphPin) ConfigureOutput(initial bool) error {
	return p.pin.Out(gpio.Level(initial))
}

func (p *periphPin) Set(level bool) error { return p.pin.Out(gpio.Level(level)) }

func (p *periphPin) Get() bool { return p.pin.Read() == gpio.High }

func (p *periphPin) SetIRQ(edge halcore.Edge, handler func()) error {
	var pe gpio.Edge
	switch edge {
	case halcore.EdgeRising:
		pe = gpio.RisingEdge
	case halcore.EdgeFalling:
		pe = gpio.FallingEdge
	case halcore.EdgeBoth:
		pe = gpio.BothEdges
	default:
		return p.ClearIRQ()
	}
	if err := p.ClearIRQ(); err != nil {
		return err
	}
	if err := p.pin.In(p.pull, pe); err != nil {
		return err
	}

	stop, done := make(chan struct{}), make(chan struct{})
	p.mu.Lock()
	p.stop, p.done = stop, done
	p.mu.Unlock()

	go func() {
		defer close(done)
		for {
			// -1 blocks until an edge; Halt() in ClearIRQ unblocks it.
			edged := p.pin.WaitForEdge(-1)
			select {
			case <-stop:
				return
			default:
			}
			if edged {
				handler()
			}
		}
	}()
	return nil
}

func (p *periphPin) ClearIRQ() error {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()
	if stop == nil {
		return nil
	}
	close(stop)
	_ = p.pin.Halt()
	<-done
	return p.pin.In(p.pull, gpio.NoEdge)
}

// ----------------------------- SPI (linux) -----------------------------------

type linuxSPIFactory struct{}

func (linuxSPIFactory) Open(cfg halcore.SPIConfig) (halcore.SPIPort, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("/dev/spidev%d.%d", cfg.Bus, cfg.Device)
	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	c, err := port.Connect(physic.Frequency(cfg.SpeedHz)*physic.Hertz, spi.Mode(cfg.Mode), 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("connect %s: %w", name, err)
	}
	limit := DefaultMaxTransferSize
	if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 {
		limit = l.MaxTxSize()
	}
	return &periphSPI{port: port, c: c, max: limit}, nil
}

// periphSPI adapts spi.Conn to drivers.SPI.
type periphSPI struct {
	port spi.PortCloser
	c    spi.Conn
	max  int
}

func (s *periphSPI) Tx(w, r []byte) error { return s.c.Tx(w, r) }

func (s *periphSPI) Transfer(b byte) (byte, error) {
	buf := []byte{b}
	if err := s.c.Tx(buf, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (s *periphSPI) MaxTransferSize() int { return s.max }

func (s *periphSPI) Close() error { return s.port.Close() }
