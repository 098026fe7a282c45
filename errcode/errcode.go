package errcode

import (
	"errors"
	"strconv"
)

// Code is a stable, log-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	Unsupported    Code = "unsupported"
	InvalidConfig  Code = "invalid_config"
	NotInitialised Code = "not_initialised"

	// Sensor addressing and power sequencing
	InvalidSensor   Code = "invalid_sensor"
	NotReady        Code = "not_ready"
	AlreadyActive   Code = "already_active"
	AlreadyInactive Code = "already_inactive"

	// Driver backends
	UnknownPin       Code = "unknown_pin"
	UnknownBus       Code = "unknown_bus"
	GPIOError        Code = "gpio_error"
	SPIError         Code = "spi_error"
	TransferTooLarge Code = "transfer_too_large"
	SemaphoreError   Code = "semaphore_error"

	Error Code = "error" // generic fallback
)

// E keeps context and a cause alongside a Code.
// Sensor is 0 when the error is not tied to one sensor.
type E struct {
	C      Code
	Op     string
	Sensor uint32
	Msg    string
	Err    error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Sensor != 0 {
		s += " (sensor " + strconv.FormatUint(uint64(e.Sensor), 10) + ")"
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.X) match a wrapped *E by code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap builds an *E for op/sensor around a driver cause.
func Wrap(c Code, op string, sensor uint32, err error) error {
	return &E{C: c, Op: op, Sensor: sensor, Err: err}
}

// Of extracts the outermost Code from an error chain, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var e *E
	if errors.As(err, &e) {
		return e.C
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}
