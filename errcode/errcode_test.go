package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"invalid_sensor":     InvalidSensor,
		"not_ready":          NotReady,
		"already_inactive":   AlreadyInactive,
		"gpio_error":         GPIOError,
		"spi_error":          SPIError,
		"transfer_too_large": TransferTooLarge,
		"not_initialised":    NotInitialised,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestWrapKeepsCodeAndCause(t *testing.T) {
	cause := errors.New("ioctl failed")
	err := Wrap(SPIError, "transfer", 2, cause)

	if Of(err) != SPIError {
		t.Fatalf("Of: got %q", Of(err))
	}
	if !errors.Is(err, SPIError) {
		t.Fatal("errors.Is(code) = false")
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is(cause) = false")
	}
	if errors.Is(err, GPIOError) {
		t.Fatal("matched unrelated code")
	}
	if got, want := err.Error(), "transfer: spi_error (sensor 2): ioctl failed"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestOf(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("nil should map to ok")
	}
	if Of(NotReady) != NotReady {
		t.Fatal("bare code not preserved")
	}
	if Of(fmt.Errorf("driver init: %w", Wrap(GPIOError, "gpio_init", 0, nil))) != GPIOError {
		t.Fatal("code lost through fmt wrapping")
	}
	if Of(errors.New("x")) != Error {
		t.Fatal("foreign error should map to generic code")
	}
}
