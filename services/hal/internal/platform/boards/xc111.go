package boards

import "time"

// XC111 connector board: four sensors sharing reset/enable, one SPI CS
// multiplexed by CE_A/CE_B. Pin numbers and the 24 MHz reference follow the
// vendor's published XC111 pinout for the Raspberry Pi header.
var XC111 = Descriptor{
	Name:          "xc111",
	SensorCount:   4,
	Power:         ResetLine,
	Interrupt:     []int{20, 21, 24, 25},
	Enable:        27,
	Reset:         6,
	SlaveSelect:   NoPin,
	ChipSelectMux: []int{17, 18},
	SPI:           SPI{Bus: 0, Device: 0, SpeedHz: 15_000_000},
	RefFreqHz:     24_000_000,
	Settle:        2 * time.Millisecond,
}

func init() { register(XC111) }
