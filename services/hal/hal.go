// services/hal/hal.go
package hal

import (
	"errors"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/errcode"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/osal"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/types"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/x/timex"
)

// -----------------------------------------------------------------------------
// Capability table
// -----------------------------------------------------------------------------

// OS is the primitives block. When the library runs single-threaded the
// three Thread entries are nil.
type OS struct {
	Sleep       func(us uint32)
	MemAlloc    func(size int) []byte
	MemFree     func(b []byte)
	GetThreadID func() uint32
	GetTime     func() uint32

	MutexCreate  func() osal.Mutex
	MutexLock    func(m osal.Mutex)
	MutexUnlock  func(m osal.Mutex)
	MutexDestroy func(m osal.Mutex)

	ThreadCreate  func(fn func(arg any), arg any, name string) osal.Thread
	ThreadExit    func()
	ThreadCleanup func(t osal.Thread) bool

	SemaphoreCreate              func() *osal.Semaphore
	SemaphoreWait                func(s *osal.Semaphore, timeoutMs uint32) bool
	SemaphoreSignal              func(s *osal.Semaphore)
	SemaphoreSignalFromInterrupt func(s *osal.Semaphore)
	SemaphoreDestroy             func(s *osal.Semaphore)
}

// SensorDevice is the per-sensor entry point block. Entries have no error
// return; failures are written to the log block.
type SensorDevice struct {
	PowerOn               func(id types.SensorID)
	PowerOff              func(id types.SensorID)
	WaitForInterrupt      func(id types.SensorID, timeoutMs uint32) bool
	Transfer              func(id types.SensorID, buf []byte)
	GetReferenceFrequency func() float32
}

// Log is the log block: messages above Level are discarded.
type Log struct {
	Level types.LogLevel
	Log   func(level types.LogLevel, module, msg string)
}

// HAL is the capability table handed to the processing library. It is a
// value; the library keeps its own copy for the session.
type HAL struct {
	Properties   types.Properties
	OS           OS
	SensorDevice SensorDevice
	Log          Log
}

// -----------------------------------------------------------------------------
// Builder
// -----------------------------------------------------------------------------

// Build assembles the table from an initialised board. It fails with
// errcode.NotInitialised until both Init and GPIOInit have succeeded.
func (b *Board) Build() (HAL, error) {
	b.mu.RLock()
	ready := b.s != nil && b.gpioDone
	b.mu.RUnlock()
	if !ready {
		return HAL{}, &errcode.E{C: errcode.NotInitialised, Op: "hal_build", Msg: "board and gpio init required"}
	}
	props, err := b.Properties()
	if err != nil {
		return HAL{}, err
	}

	h := HAL{
		Properties:   props,
		OS:           b.osBlock(),
		SensorDevice: b.sensorBlock(),
	}
	if sink := b.deps.Log; sink != nil {
		h.Log = Log{Level: sink.Limit(), Log: sink.Log}
	} else {
		h.Log = Log{Level: types.LogError, Log: func(types.LogLevel, string, string) {}}
	}
	return h, nil
}

func (b *Board) osBlock() OS {
	os := b.deps.OS
	o := OS{
		Sleep:       os.SleepUs,
		MemAlloc:    os.MemAlloc,
		MemFree:     os.MemFree,
		GetThreadID: os.GetThreadID,
		GetTime:     os.GetTime,

		MutexCreate:  os.MutexCreate,
		MutexLock:    func(m osal.Mutex) { m.Lock() },
		MutexUnlock:  func(m osal.Mutex) { m.Unlock() },
		MutexDestroy: os.MutexDestroy,

		SemaphoreCreate: func() *osal.Semaphore {
			s, err := os.SemaphoreCreate()
			if err != nil {
				b.log.Errorf("semaphore create: %v", err)
				return nil
			}
			return s
		},
		SemaphoreWait: func(s *osal.Semaphore, timeoutMs uint32) bool {
			if s == nil {
				return false
			}
			return s.Wait(timex.Ms(timeoutMs))
		},
		SemaphoreSignal: func(s *osal.Semaphore) {
			if s != nil {
				s.Signal()
			}
		},
		SemaphoreSignalFromInterrupt: func(s *osal.Semaphore) {
			if s != nil {
				s.SignalFromISR()
			}
		},
		SemaphoreDestroy: os.SemaphoreDestroy,
	}
	if th := b.deps.Threading; th != nil {
		o.ThreadCreate = func(fn func(arg any), arg any, name string) osal.Thread {
			t, err := th.ThreadCreate(fn, arg, name)
			if err != nil {
				b.log.Errorf("thread create %q: %v", name, err)
				return nil
			}
			return t
		}
		o.ThreadExit = th.ThreadExit
		o.ThreadCleanup = th.ThreadCleanup
	}
	return o
}

func (b *Board) sensorBlock() SensorDevice {
	return SensorDevice{
		PowerOn: func(id types.SensorID) {
			if err := b.PowerOn(id); err != nil {
				b.log.Errorf("power on sensor %d: %v", id, err)
			}
		},
		PowerOff: func(id types.SensorID) {
			err := b.PowerOff(id)
			switch {
			case err == nil:
			case errors.Is(err, errcode.AlreadyInactive):
				b.log.Warnf("sensor %d already inactive", id)
			default:
				b.log.Errorf("power off sensor %d: %v", id, err)
			}
		},
		WaitForInterrupt: func(id types.SensorID, timeoutMs uint32) bool {
			ok, err := b.WaitForInterrupt(id, timex.Ms(timeoutMs))
			if err != nil {
				b.log.Errorf("wait for interrupt sensor %d: %v", id, err)
				return false
			}
			return ok
		},
		Transfer: func(id types.SensorID, buf []byte) {
			if err := b.Transfer(id, buf); err != nil {
				b.log.Errorf("transfer sensor %d (%d bytes): %v", id, len(buf), err)
			}
		},
		GetReferenceFrequency: b.ReferenceFrequency,
	}
}
