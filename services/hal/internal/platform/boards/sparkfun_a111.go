package boards

import "time"

// SparkFun A111 pulsed radar breakout on a Raspberry Pi. RSTn is wired on
// the header even though the breakout leaves it unconnected.
var SparkFunA111 = Descriptor{
	Name:        "sparkfun_a111",
	SensorCount: 1,
	Power:       ResetLine,
	Interrupt:   []int{25},
	Enable:      27,
	Reset:       6,
	SlaveSelect: NoPin,
	SPI:         SPI{Bus: 0, Device: 0, SpeedHz: 1_000_000},
	RefFreqHz:   26_000_000,
	Settle:      2 * time.Millisecond,
}

func init() { register(SparkFunA111) }
