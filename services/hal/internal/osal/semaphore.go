// services/hal/internal/osal/semaphore.go
package osal

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSemaphoreDepth bounds outstanding signals per semaphore.
const DefaultSemaphoreDepth = 16

// ISRSignaler is the view of a semaphore that interrupt handlers hold
// (see gpioirq). SignalFromISR never blocks or takes a lock.
type ISRSignaler interface {
	SignalFromISR()
}

// Semaphore is a bounded counting semaphore. Signals past the bound are
// dropped and counted; Drops reports how many.
type Semaphore struct {
	tokens chan struct{}

	// mu orders ordinary Signal against Destroy. The ISR path never takes it.
	mu        sync.Mutex
	destroyed atomic.Bool
	drops     atomic.Uint32
}

// NewSemaphore returns a semaphore holding at most depth signals.
func NewSemaphore(depth int) *Semaphore {
	if depth <= 0 {
		depth = DefaultSemaphoreDepth
	}
	return &Semaphore{tokens: make(chan struct{}, depth)}
}

// Wait blocks until a signal is consumed or timeout elapses.
// A zero timeout polls once without blocking.
func (s *Semaphore) Wait(timeout time.Duration) bool {
	if s.destroyed.Load() {
		return false
	}
	if timeout <= 0 {
		select {
		case <-s.tokens:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-s.tokens:
		return true
	case <-t.C:
		return false
	}
}

// Signal posts one signal from ordinary thread context.
func (s *Semaphore) Signal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed.Load() {
		return
	}
	s.post()
}

// SignalFromISR posts one signal from interrupt/callback context.
func (s *Semaphore) SignalFromISR() {
	if s.destroyed.Load() {
		return
	}
	s.post()
}

func (s *Semaphore) post() {
	select {
	case s.tokens <- struct{}{}:
	default:
		s.drops.Add(1)
	}
}

// Pending reports signals not yet consumed.
func (s *Semaphore) Pending() int { return len(s.tokens) }

func (s *Semaphore) Drops() uint32 { return s.drops.Load() }

// Destroy discards pending signals; later waits return false at once.
func (s *Semaphore) Destroy() {
	s.mu.Lock()
	s.destroyed.Store(true)
	s.mu.Unlock()
	for {
		select {
		case <-s.tokens:
		default:
			return
		}
	}
}
