package platform

import (
	"errors"
	"testing"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/halcore"
)

func TestFakePinRisingEdgeIRQ(t *testing.T) {
	f := NewHostPinFactory()
	p := f.Pin(25)
	if err := p.ConfigureInput(halcore.PullDown); err != nil {
		t.Fatalf("ConfigureInput: %v", err)
	}
	n := 0
	if err := p.SetIRQ(halcore.EdgeRising, func() { n++ }); err != nil {
		t.Fatalf("SetIRQ: %v", err)
	}
	p.Pulse()
	_ = p.Set(false) // no edge
	if n != 1 {
		t.Fatalf("irq fired %d times, want 1", n)
	}
	_ = p.ClearIRQ()
	p.Pulse()
	if n != 1 {
		t.Fatalf("irq fired after ClearIRQ")
	}
	if got, ok := f.ByNumber(25); !ok || got != halcore.GPIOPin(p) {
		t.Fatalf("ByNumber returned a different pin")
	}
}

func TestFakePinJournalAndFailures(t *testing.T) {
	f := NewHostPinFactory()
	_ = f.Pin(6).ConfigureOutput(false)
	_ = f.Pin(27).Set(true)
	_ = f.Pin(6).Set(true)
	if got := f.WritesTo(6); len(got) != 2 || got[0] || !got[1] {
		t.Fatalf("WritesTo(6) = %v", got)
	}
	if w := f.Writes(); len(w) != 3 || w[1] != (PinWrite{Pin: 27, Level: true}) {
		t.Fatalf("Writes = %v", w)
	}

	boom := errors.New("boom")
	f.Pin(27).FailSet(boom)
	if err := f.Pin(27).Set(false); !errors.Is(err, boom) {
		t.Fatalf("Set err = %v", err)
	}
	if !f.Pin(27).Get() {
		t.Fatalf("failed Set changed the level")
	}
	f.ResetWrites()
	if len(f.Writes()) != 0 {
		t.Fatalf("ResetWrites kept entries")
	}
}

func TestFakeSPIInPlace(t *testing.T) {
	f := NewHostSPIFactory()
	port, err := f.Open(halcore.SPIConfig{Bus: 0, Device: 1, SpeedHz: 1_000_000})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	buf := []byte{0x00, 0x0f, 0xff}
	if err := port.Tx(buf, buf); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if buf[0] != 0xff || buf[1] != 0xf0 || buf[2] != 0x00 {
		t.Fatalf("rx = % x", buf)
	}
	fake, ok := f.Port(0, 1)
	if !ok || len(fake.Records()) != 1 || fake.Records()[0].TX[1] != 0x0f {
		t.Fatalf("records = %+v", fake.Records())
	}
	if port.MaxTransferSize() != DefaultMaxTransferSize {
		t.Fatalf("max = %d", port.MaxTransferSize())
	}

	_ = port.Close()
	if !fake.Closed() {
		t.Fatalf("Close not recorded")
	}
	if _, err := f.Open(halcore.SPIConfig{Bus: 0, Device: 1}); err != nil || fake.Closed() {
		t.Fatalf("reopen: %v closed=%v", err, fake.Closed())
	}

	f.FailOpen(errors.New("no device"))
	if _, err := f.Open(halcore.SPIConfig{}); err == nil {
		t.Fatalf("FailOpen ignored")
	}
}
