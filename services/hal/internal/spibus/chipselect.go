package spibus

import (
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/errcode"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/halcore"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/types"
)

// MuxChipSelect decodes sensor-1 as a binary number onto GPIO lines,
// most significant line first. With CE_A, CE_B: sensor 1 -> 00,
// 2 -> 01, 3 -> 10, 4 -> 11. Deassert leaves the lines as they are.
type MuxChipSelect struct {
	lines []halcore.GPIOPin
}

func NewMuxChipSelect(lines ...halcore.GPIOPin) *MuxChipSelect {
	return &MuxChipSelect{lines: lines}
}

func (m *MuxChipSelect) Select(id types.SensorID, assert bool) error {
	if !assert {
		return nil
	}
	idx := id.Index()
	if idx < 0 || idx >= 1<<len(m.lines) {
		return errcode.InvalidSensor
	}
	n := len(m.lines)
	for i, l := range m.lines {
		bit := idx>>(n-1-i)&1 == 1
		if err := l.Set(bit); err != nil {
			return err
		}
	}
	return nil
}
