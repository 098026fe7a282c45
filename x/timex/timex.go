package timex

import "time"

// Ms converts a millisecond count as used by the HAL contract.
func Ms(ms uint32) time.Duration { return time.Duration(ms) * time.Millisecond }

// Us converts a microsecond count as used by the HAL contract.
func Us(us uint32) time.Duration { return time.Duration(us) * time.Microsecond }

// Clock reports microseconds elapsed since it was created. The value wraps
// at 2^32 µs (~71 minutes), matching the 32-bit get_time contract.
type Clock struct{ start time.Time }

func NewClock() Clock { return Clock{start: time.Now()} }

func (c Clock) Micros() uint32 { return uint32(time.Since(c.start) / time.Microsecond) }

// SplitMicros breaks a µs timestamp into h, m, s, ms for log lines.
func SplitMicros(us uint32) (h, m, s, ms uint32) {
	h = us / 1000 / 1000 / 60 / 60
	m = us / 1000 / 1000 / 60 % 60
	s = us / 1000 / 1000 % 60
	ms = us / 1000 % 1000
	return
}
