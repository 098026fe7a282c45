package osal

import (
	"sync"
	"testing"
	"time"
)

func TestSemaphoreZeroTimeoutPolls(t *testing.T) {
	s := NewSemaphore(4)
	start := time.Now()
	if s.Wait(0) {
		t.Fatal("empty semaphore returned true")
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Fatal("zero timeout blocked")
	}
	s.Signal()
	if !s.Wait(0) {
		t.Fatal("signalled semaphore returned false")
	}
}

func TestSemaphoreTimeout(t *testing.T) {
	s := NewSemaphore(1)
	start := time.Now()
	if s.Wait(30 * time.Millisecond) {
		t.Fatal("unexpected signal")
	}
	if el := time.Since(start); el < 25*time.Millisecond {
		t.Fatalf("returned too early: %v", el)
	}
}

func TestSemaphoreISRSignalWakesWaiter(t *testing.T) {
	s := NewSemaphore(1)
	var isr ISRSignaler = s
	go func() {
		time.Sleep(5 * time.Millisecond)
		isr.SignalFromISR()
	}()
	if !s.Wait(200 * time.Millisecond) {
		t.Fatal("waiter not woken")
	}
}

func TestSemaphoreBounded(t *testing.T) {
	s := NewSemaphore(2)
	for i := 0; i < 5; i++ {
		s.SignalFromISR()
	}
	if s.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", s.Pending())
	}
	if s.Drops() != 3 {
		t.Fatalf("drops = %d, want 3", s.Drops())
	}
}

func TestSemaphoreDestroy(t *testing.T) {
	s := NewSemaphore(2)
	s.Signal()
	s.Destroy()
	s.Signal()
	s.SignalFromISR()
	if s.Wait(0) {
		t.Fatal("destroyed semaphore returned a signal")
	}
}

func TestHostMemAccounting(t *testing.T) {
	h := NewHost(0)
	if h.MemAlloc(0) != nil {
		t.Fatal("zero alloc should be nil")
	}
	a := h.MemAlloc(100)
	b := h.MemAlloc(50)
	if len(a) != 100 || len(b) != 50 {
		t.Fatal("bad sizes")
	}
	h.MemFree(a)
	inUse, peak := h.HeapUsage()
	if inUse != 50 || peak != 150 {
		t.Fatalf("inUse=%d peak=%d", inUse, peak)
	}
}

func TestHostThreads(t *testing.T) {
	h := NewHost(0)
	var mu sync.Mutex
	ran := false
	th, err := h.ThreadCreate(func(arg any) {
		defer func() { mu.Lock(); ran = arg.(bool); mu.Unlock() }()
		h.ThreadExit()
	}, true, "worker")
	if err != nil {
		t.Fatalf("ThreadCreate: %v", err)
	}
	if th.Name() != "worker" {
		t.Fatalf("name = %q", th.Name())
	}
	if !h.ThreadCleanup(th) {
		t.Fatal("cleanup failed")
	}
	mu.Lock()
	defer mu.Unlock()
	if !ran {
		t.Fatal("deferred call did not run on exit")
	}
	if _, err := h.ThreadCreate(nil, nil, "x"); err == nil {
		t.Fatal("nil fn accepted")
	}
}

func TestHostTimeAndMutex(t *testing.T) {
	h := NewHost(0)
	t0 := h.GetTime()
	h.SleepUs(2000)
	if h.GetTime()-t0 < 1500 {
		t.Fatal("time did not advance")
	}
	m := h.MutexCreate()
	m.Lock()
	m.Unlock()
	h.MutexDestroy(m)
	if h.GetThreadID() == 0 {
		t.Fatal("thread id is zero")
	}
}

func TestSignalFromISRDoesNotTakeLock(t *testing.T) {
	s := NewSemaphore(1)
	s.mu.Lock()
	done := make(chan struct{})
	go func() {
		var isr ISRSignaler = s
		isr.SignalFromISR()
		isr.SignalFromISR() // full: dropped, not blocked
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.mu.Unlock()
		t.Fatal("SignalFromISR blocked on the Signal lock")
	}
	s.mu.Unlock()
	if s.Pending() != 1 || s.Drops() != 1 {
		t.Fatalf("pending = %d drops = %d", s.Pending(), s.Drops())
	}
}
