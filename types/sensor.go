package types

import "strconv"

// SensorID addresses one radar sensor on the board, 1..SensorCount.
type SensorID uint32

func (s SensorID) String() string { return strconv.FormatUint(uint64(s), 10) }

// Index returns the zero-based slot for s. Callers must validate first.
func (s SensorID) Index() int { return int(s) - 1 }

// Valid reports whether s lies within [1, count]. The comparison is done
// in 64 bits so ids above MaxInt32 cannot wrap on 32-bit targets.
func (s SensorID) Valid(count int) bool {
	return s >= 1 && count > 0 && uint64(s) <= uint64(count)
}

// SensorState is the power state of one sensor slot.
//
// Boards with a reset line use Unknown -> Ready -> Busy. Boards that only
// gate an enable line use the reduced Disabled/Enabled pair.
type SensorState uint8

const (
	StateUnknown SensorState = iota
	StateReady
	StateBusy
	StateDisabled
	StateEnabled
)

func (s SensorState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateDisabled:
		return "disabled"
	case StateEnabled:
		return "enabled"
	default:
		return "unknown"
	}
}

// Active reports whether the sensor is powered and owned by a session.
func (s SensorState) Active() bool { return s == StateBusy || s == StateEnabled }

// Properties is the fixed property block handed to the processing library.
type Properties struct {
	SensorCount        uint32
	MaxSPITransferSize int
}
