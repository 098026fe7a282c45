package boards

import "testing"

func TestRegistry(t *testing.T) {
	want := []string{"sparkfun_a111", "sparkx_a111", "xc111"}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, ok := Lookup("nope"); ok {
		t.Fatal("unknown board found")
	}
}

func TestDescriptorsConsistent(t *testing.T) {
	for _, n := range Names() {
		d, _ := Lookup(n)
		if len(d.Interrupt) != d.SensorCount {
			t.Fatalf("%s: %d interrupt lines for %d sensors", n, len(d.Interrupt), d.SensorCount)
		}
		if d.Power == ResetLine && d.Reset == NoPin {
			t.Fatalf("%s: reset scheme without reset pin", n)
		}
		if d.SensorCount > 1<<len(d.ChipSelectMux) && d.SensorCount > 1 {
			t.Fatalf("%s: mux too narrow for %d sensors", n, d.SensorCount)
		}
		if d.RefFreqHz <= 0 || d.SPI.SpeedHz == 0 {
			t.Fatalf("%s: missing clock constants", n)
		}
	}
}

func TestPinsDeduplicated(t *testing.T) {
	d := Descriptor{Interrupt: []int{25, 25}, Enable: 27, Reset: NoPin, SlaveSelect: 8, ChipSelectMux: []int{27}}
	pins := d.Pins()
	if len(pins) != 3 || pins[0] != 25 || pins[1] != 27 || pins[2] != 8 {
		t.Fatalf("Pins() = %v", pins)
	}
}
