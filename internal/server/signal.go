package server

import "sync"

// RunningSignal is the shutdown flag shared by a connection's reader
// and writer goroutines. Either side may stop both. Setting it does not
// wake a writer blocked on its mailbox; that takes the disconnect latch.
type RunningSignal struct {
	mu  sync.Mutex
	run bool
}

func NewRunningSignal() *RunningSignal {
	return &RunningSignal{run: true}
}

func (s *RunningSignal) IsRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

func (s *RunningSignal) SetStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = false
}
