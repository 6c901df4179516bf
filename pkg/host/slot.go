package host

import "sync"

// Slot is the mutable tool-output slot a chat host exposes to an embedded
// widget. The host may populate it before the widget starts, after, or never;
// readers see whatever value is present at that instant.
type Slot struct {
	mu    sync.RWMutex
	value interface{}
}

func NewSlot() *Slot {
	return &Slot{}
}

func (s *Slot) Set(v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
}

func (s *Slot) Get() interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = nil
}
