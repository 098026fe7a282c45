//go:build linux

package osal

import "golang.org/x/sys/unix"

// threadID is the kernel tid of the OS thread running the caller.
func threadID() uint32 { return uint32(unix.Gettid()) }
