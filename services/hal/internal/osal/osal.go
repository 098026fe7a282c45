// services/hal/internal/osal/osal.go
package osal

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/errcode"
	"github.com/sparkfun/SparkFun-Pulsed-Radar-A111-Example-Code/x/timex"
)

// Mutex is an OS-level lock handle.
type Mutex interface {
	Lock()
	Unlock()
}

// Thread is a handle returned by ThreadCreate.
type Thread interface {
	Name() string
	Done() <-chan struct{}
}

// Primitives is the OS integration every board component depends on.
// It is built once at process start and passed explicitly.
type Primitives interface {
	SleepUs(us uint32)
	MemAlloc(size int) []byte
	MemFree(b []byte)
	GetThreadID() uint32
	GetTime() uint32 // µs since start, wraps at 2^32

	MutexCreate() Mutex
	MutexDestroy(m Mutex)

	SemaphoreCreate() (*Semaphore, error)
	SemaphoreDestroy(s *Semaphore)
}

// Threading is optional. A nil Threading means the session runs
// single-threaded and the HAL table leaves the thread entries unset.
type Threading interface {
	ThreadCreate(fn func(arg any), arg any, name string) (Thread, error)
	// ThreadExit ends the calling thread. Only valid inside fn.
	ThreadExit()
	// ThreadCleanup waits for the thread to finish.
	ThreadCleanup(t Thread) bool
}

// Host implements Primitives and Threading on the Go runtime.
type Host struct {
	clock    timex.Clock
	semDepth int

	heapInUse atomic.Int64
	heapPeak  atomic.Int64
}

var (
	_ Primitives = (*Host)(nil)
	_ Threading  = (*Host)(nil)
)

// NewHost creates the OS integration. semDepth <= 0 selects the default.
func NewHost(semDepth int) *Host {
	return &Host{clock: timex.NewClock(), semDepth: semDepth}
}

func (h *Host) SleepUs(us uint32) { time.Sleep(timex.Us(us)) }

// MemAlloc returns nil for non-positive sizes, like malloc(0) may.
func (h *Host) MemAlloc(size int) []byte {
	if size <= 0 {
		return nil
	}
	n := h.heapInUse.Add(int64(size))
	for {
		peak := h.heapPeak.Load()
		if n <= peak || h.heapPeak.CompareAndSwap(peak, n) {
			break
		}
	}
	return make([]byte, size)
}

func (h *Host) MemFree(b []byte) {
	if b == nil {
		return
	}
	h.heapInUse.Add(-int64(cap(b)))
}

// HeapUsage reports bytes currently allocated through MemAlloc and the peak.
func (h *Host) HeapUsage() (inUse, peak int64) { return h.heapInUse.Load(), h.heapPeak.Load() }

func (h *Host) GetThreadID() uint32 { return threadID() }

func (h *Host) GetTime() uint32 { return h.clock.Micros() }

func (h *Host) MutexCreate() Mutex { return &sync.Mutex{} }

func (h *Host) MutexDestroy(Mutex) {}

func (h *Host) SemaphoreCreate() (*Semaphore, error) {
	return NewSemaphore(h.semDepth), nil
}

func (h *Host) SemaphoreDestroy(s *Semaphore) {
	if s != nil {
		s.Destroy()
	}
}

type hostThread struct {
	name string
	done chan struct{}
}

func (t *hostThread) Name() string          { return t.name }
func (t *hostThread) Done() <-chan struct{} { return t.done }

func (h *Host) ThreadCreate(fn func(arg any), arg any, name string) (Thread, error) {
	if fn == nil {
		return nil, errcode.Wrap(errcode.InvalidConfig, "thread_create", 0, nil)
	}
	t := &hostThread{name: name, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		fn(arg)
	}()
	return t, nil
}

// ThreadExit runs deferred calls and ends the calling goroutine.
func (h *Host) ThreadExit() { runtime.Goexit() }

func (h *Host) ThreadCleanup(t Thread) bool {
	if t == nil {
		return false
	}
	<-t.Done()
	return true
}
