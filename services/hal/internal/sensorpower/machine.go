// services/hal/internal/sensorpower/machine.go
package sensorpower

import (
	"sync"
	"time"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/errcode"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/halcore"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/logx"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/types"
)

// Scheme selects the power sequence and the state names used.
type Scheme uint8

const (
	// SchemeReset: shared active-low reset plus enable.
	// Unknown -> Ready (after reset pulse) -> Busy.
	SchemeReset Scheme = iota
	// SchemeEnable: shared enable only. Disabled <-> Enabled.
	SchemeEnable
)

// Drainer clears interrupts that fired while a sensor was inactive.
type Drainer interface {
	Drain(id types.SensorID) (int, error)
}

// Config wires the shared lines. Reset is nil for SchemeEnable.
type Config struct {
	Scheme Scheme
	Count  int
	Reset  halcore.GPIOPin
	Enable halcore.GPIOPin
	Settle time.Duration
	Sleep  func(time.Duration)
	Drain  Drainer
	Log    *logx.Logger
}

// Machine holds every sensor's state plus the shared active count in one
// arena. Every transition runs under mu, so "first in" and "last out" are
// decided by exactly one caller.
type Machine struct {
	cfg Config

	mu     sync.Mutex
	states []types.SensorState
	active int
}

func New(cfg Config) *Machine {
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	m := &Machine{cfg: cfg, states: make([]types.SensorState, cfg.Count)}
	m.resetStates()
	return m
}

func (m *Machine) idle() types.SensorState {
	if m.cfg.Scheme == SchemeEnable {
		return types.StateDisabled
	}
	return types.StateUnknown
}

func (m *Machine) busy() types.SensorState {
	if m.cfg.Scheme == SchemeEnable {
		return types.StateEnabled
	}
	return types.StateBusy
}

func (m *Machine) resetStates() {
	for i := range m.states {
		m.states[i] = m.idle()
	}
	m.active = 0
}

// Reset forces every sensor back to its initial state without touching
// GPIO. Used by board init.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.resetStates()
	m.mu.Unlock()
}

func (m *Machine) check(op string, id types.SensorID) error {
	if !id.Valid(len(m.states)) {
		return errcode.Wrap(errcode.InvalidSensor, op, uint32(id), nil)
	}
	return nil
}

// PowerOn brings id to Busy/Enabled. An already active sensor is a no-op.
// On any failure the logical state is left exactly as before the call.
func (m *Machine) PowerOn(id types.SensorID) error {
	if err := m.check("power_on", id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := id.Index()
	if m.states[i].Active() {
		return nil
	}
	saved := append([]types.SensorState(nil), m.states...)

	if m.active == 0 {
		if err := m.up(); err != nil {
			m.safeDown()
			copy(m.states, saved)
			return errcode.Wrap(errcode.GPIOError, "power_on", uint32(id), err)
		}
		if m.cfg.Scheme == SchemeReset {
			for j := range m.states {
				m.states[j] = types.StateReady
			}
		}
	}

	if m.cfg.Scheme == SchemeReset && m.states[i] != types.StateReady {
		// Only reachable while another sensor holds the shared reset high.
		m.cfg.Log.Errorf("sensor %d has not been reset", id)
		return errcode.Wrap(errcode.NotReady, "power_on", uint32(id), nil)
	}

	if m.cfg.Drain != nil {
		n, err := m.cfg.Drain.Drain(id)
		if err != nil {
			if m.active == 0 {
				m.safeDown()
			}
			copy(m.states, saved)
			return err
		}
		if n > 0 {
			m.cfg.Log.Debugf("sensor %d: dropped %d stale interrupt(s)", id, n)
		}
	}

	m.states[i] = m.busy()
	m.active++
	return nil
}

// PowerOff returns id to Unknown/Disabled. The last active sensor out puts
// the shared lines back into reset/disabled and invalidates Ready states.
func (m *Machine) PowerOff(id types.SensorID) error {
	if err := m.check("power_off", id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := id.Index()
	if !m.states[i].Active() {
		return errcode.Wrap(errcode.AlreadyInactive, "power_off", uint32(id), nil)
	}

	if m.active == 1 {
		if err := m.down(); err != nil {
			return errcode.Wrap(errcode.GPIOError, "power_off", uint32(id), err)
		}
		m.resetStates()
		return nil
	}
	m.states[i] = m.idle()
	m.active--
	return nil
}

// IsActive reports whether id is Busy/Enabled.
func (m *Machine) IsActive(id types.SensorID) (bool, error) {
	if err := m.check("is_sensor_active", id); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[id.Index()].Active(), nil
}

// State returns the current state of id.
func (m *Machine) State(id types.SensorID) (types.SensorState, error) {
	if err := m.check("sensor_state", id); err != nil {
		return types.StateUnknown, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[id.Index()], nil
}

// States is a snapshot of every sensor, index = id-1.
func (m *Machine) States() []types.SensorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.SensorState(nil), m.states...)
}

// ActiveCount is the number of sensors currently Busy/Enabled.
func (m *Machine) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}
