// services/hal/internal/gpioirq/bridge_test.go

package gpioirq

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/errcode"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/halcore"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/osal"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/types"
)

// fakeIRQPin implements halcore.IRQPin with minimal behaviour for tests.
type fakeIRQPin struct {
	mu      sync.Mutex
	level   bool
	edge    halcore.Edge
	handler func()
	number  int
	failIRQ error
}

func (p *fakeIRQPin) ConfigureInput(_ halcore.Pull) error { return nil }
func (p *fakeIRQPin) ConfigureOutput(initial bool) error  { p.level = initial; return nil }
func (p *fakeIRQPin) Set(b bool) error                    { p.mu.Lock(); p.level = b; p.mu.Unlock(); return nil }
func (p *fakeIRQPin) Get() bool                           { p.mu.Lock(); defer p.mu.Unlock(); return p.level }
func (p *fakeIRQPin) Number() int                         { return p.number }
func (p *fakeIRQPin) SetIRQ(e halcore.Edge, h func()) error {
	if p.failIRQ != nil {
		return p.failIRQ
	}
	p.mu.Lock()
	p.edge, p.handler = e, h
	p.mu.Unlock()
	return nil
}
func (p *fakeIRQPin) ClearIRQ() error { p.mu.Lock(); p.handler = nil; p.mu.Unlock(); return nil }
func (p *fakeIRQPin) fire() {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h != nil {
		h()
	}
}

func newBridge(t *testing.T, count int) (*Bridge, []*fakeIRQPin) {
	t.Helper()
	b := New(osal.NewHost(4), count)
	pins := make([]*fakeIRQPin, count)
	for i := range pins {
		pins[i] = &fakeIRQPin{number: 20 + i}
		if err := b.Register(types.SensorID(i+1), pins[i]); err != nil {
			t.Fatalf("Register(%d): %v", i+1, err)
		}
	}
	return b, pins
}

func TestRegisterUsesRisingEdge(t *testing.T) {
	_, pins := newBridge(t, 1)
	if pins[0].edge != halcore.EdgeRising {
		t.Fatalf("edge = %s", halcore.EdgeToString(pins[0].edge))
	}
}

func TestWaitObservesInterrupt(t *testing.T) {
	b, pins := newBridge(t, 1)
	go func() {
		time.Sleep(10 * time.Millisecond)
		pins[0].fire()
	}()
	start := time.Now()
	ok, err := b.Wait(1, 100*time.Millisecond)
	if err != nil || !ok {
		t.Fatalf("Wait = %v, %v", ok, err)
	}
	if el := time.Since(start); el > 90*time.Millisecond {
		t.Fatalf("wake took %v", el)
	}
}

func TestWaitTimesOut(t *testing.T) {
	b, _ := newBridge(t, 1)
	start := time.Now()
	ok, err := b.Wait(1, 50*time.Millisecond)
	el := time.Since(start)
	if err != nil || ok {
		t.Fatalf("Wait = %v, %v", ok, err)
	}
	if el < 45*time.Millisecond || el > 500*time.Millisecond {
		t.Fatalf("timeout after %v", el)
	}
}

func TestDrainClearsStaleSignals(t *testing.T) {
	b, pins := newBridge(t, 1)
	for i := 0; i < 6; i++ {
		pins[0].fire()
	}
	n, err := b.Drain(1)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if n != 4 { // bounded by semaphore depth
		t.Fatalf("drained %d, want 4", n)
	}
	if ok, _ := b.Wait(1, 0); ok {
		t.Fatal("signal survived drain")
	}
	st, _ := b.Stats(1)
	if st.Signals != 6 || st.Drops != 2 || st.Drained != 4 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestSensorsAreIndependent(t *testing.T) {
	b, pins := newBridge(t, 2)
	pins[1].fire()
	if ok, _ := b.Wait(1, 0); ok {
		t.Fatal("sensor 1 saw sensor 2's interrupt")
	}
	if ok, _ := b.Wait(2, 0); !ok {
		t.Fatal("sensor 2 missed its interrupt")
	}
}

func TestSharedPinSignalsAllSensors(t *testing.T) {
	b := New(osal.NewHost(4), 2)
	pin := &fakeIRQPin{number: 25}
	for id := types.SensorID(1); id <= 2; id++ {
		if err := b.Register(id, pin); err != nil {
			t.Fatalf("Register(%d): %v", id, err)
		}
	}
	pin.fire()
	for id := types.SensorID(1); id <= 2; id++ {
		if ok, _ := b.Wait(id, 0); !ok {
			t.Fatalf("sensor %d missed shared interrupt", id)
		}
	}
}

func TestInvalidSensor(t *testing.T) {
	b, _ := newBridge(t, 1)
	for _, id := range []types.SensorID{0, 2} {
		if _, err := b.Wait(id, 0); errcode.Of(err) != errcode.InvalidSensor {
			t.Fatalf("Wait(%d) err = %v", id, err)
		}
		if _, err := b.Drain(id); errcode.Of(err) != errcode.InvalidSensor {
			t.Fatalf("Drain(%d) err = %v", id, err)
		}
	}
}

func TestRegisterFailures(t *testing.T) {
	b := New(osal.NewHost(0), 2)
	if _, err := b.Wait(1, 0); errcode.Of(err) != errcode.NotInitialised {
		t.Fatalf("unregistered wait err = %v", err)
	}
	bad := &fakeIRQPin{number: 3, failIRQ: errors.New("export failed")}
	err := b.Register(1, bad)
	if errcode.Of(err) != errcode.GPIOError {
		t.Fatalf("Register err = %v", err)
	}
	if !strings.Contains(err.Error(), "rising edge on gpio 3") || !errors.Is(err, bad.failIRQ) {
		t.Fatalf("Register err lacks pin context: %v", err)
	}
	good := &fakeIRQPin{number: 4}
	if err := b.Register(1, good); err != nil {
		t.Fatalf("Register after failure: %v", err)
	}
	if err := b.Register(1, good); errcode.Of(err) != errcode.AlreadyActive {
		t.Fatalf("double Register err = %v", err)
	}
}

func TestCloseRemovesHandlers(t *testing.T) {
	b, pins := newBridge(t, 1)
	b.Close()
	if pins[0].handler != nil {
		t.Fatal("handler still installed")
	}
	if _, err := b.Wait(1, 0); errcode.Of(err) != errcode.NotInitialised {
		t.Fatalf("Wait after Close err = %v", err)
	}
}

type isrRecorder struct{ n atomic.Int32 }

func (r *isrRecorder) SignalFromISR() { r.n.Add(1) }

func TestHandlerUsesISRPathOnly(t *testing.T) {
	a, c := &isrRecorder{}, &isrRecorder{}
	la, lc := &line{isr: a}, &line{isr: c}
	h := isrHandler([]*line{la, lc})
	h()
	h()
	if a.n.Load() != 2 || c.n.Load() != 2 {
		t.Fatalf("ISR signals = %d, %d; want 2, 2", a.n.Load(), c.n.Load())
	}
	if la.signals.Load() != 2 || lc.signals.Load() != 2 {
		t.Fatalf("signal counters = %d, %d", la.signals.Load(), lc.signals.Load())
	}
}
