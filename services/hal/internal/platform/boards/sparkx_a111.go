package boards

import "time"

// SparkX A111 board: enable-gated, no reset line, SS_N held high at init.
var SparkXA111 = Descriptor{
	Name:        "sparkx_a111",
	SensorCount: 1,
	Power:       EnableOnly,
	Interrupt:   []int{25},
	Enable:      27,
	Reset:       NoPin,
	SlaveSelect: 8,
	SPI:         SPI{Bus: 0, Device: 0, SpeedHz: 15_000_000},
	RefFreqHz:   26_000_000,
	Settle:      5 * time.Millisecond,
}

func init() { register(SparkXA111) }
