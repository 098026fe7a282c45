//go:build !linux

package osal

import "os"

// No per-thread id outside Linux; the process id keeps log lines stable.
func threadID() uint32 { return uint32(os.Getpid()) }
