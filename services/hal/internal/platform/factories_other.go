// services/hal/internal/platform/factories_other.go
//go:build !linux

package platform

import "github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/services/hal/internal/halcore"

// Off Linux there is no spidev/gpiochip; default to inert host fakes so the
// HAL can be exercised end to end.
func DefaultPinFactory() halcore.PinFactory { return NewHostPinFactory() }
func DefaultSPIFactory() halcore.SPIFactory { return NewHostSPIFactory() }
