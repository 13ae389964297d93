// Package preempt holds the lock and flag shared by the phase controller and the sensor watcher.
// Every actuator write that must be atomic with respect to the flag happens inside WithLock.
package preempt

import (
	"sync"
)

// Flag is the preempt-requested flag. It can only be reached from inside State.WithLock.
type Flag struct {
	raised bool
}

// Raise marks a preemption as requested. Only the sensor watcher calls it.
func (f *Flag) Raise() {
	f.raised = true
}

// Raised reports whether a preemption is pending
func (f *Flag) Raised() bool {
	return f.raised
}

// Clear consumes a pending preemption. Only the phase controller calls it.
func (f *Flag) Clear() {
	f.raised = false
}

// State pairs the single arbitration lock with the flag it guards
type State struct {
	mu   sync.Mutex
	flag Flag
}

// New returns a State with the flag lowered
func New() *State {
	return &State{}
}

// WithLock runs body while holding the lock. The lock is released on every exit path,
// including a panic inside body.
func (s *State) WithLock(body func(*Flag) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return body(&s.flag)
}
