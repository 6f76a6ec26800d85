// Package mailbox provides the per-user delivery queue: an ordered FIFO
// of outgoing status objects with a blocking batch pop and a disconnect
// latch that wakes any blocked consumer.
package mailbox

import (
	"sync"

	"textchat/internal/wire"
)

// Mailbox is a monitor around a status queue. Push is called by the
// dispatcher under no lock but its own; PopAll is called by exactly one
// writer goroutine per user.
type Mailbox struct {
	mu           sync.Mutex
	hasMsg       *sync.Cond
	queue        []wire.Status
	disconnected bool
}

func New() *Mailbox {
	m := &Mailbox{}
	m.hasMsg = sync.NewCond(&m.mu)
	return m
}

// Push appends s and wakes a blocked consumer. Insertion order is the
// delivery order.
func (m *Mailbox) Push(s wire.Status) {
	m.mu.Lock()
	m.queue = append(m.queue, s)
	m.hasMsg.Signal()
	m.mu.Unlock()
}

// PopAll blocks until the queue is non-empty or the disconnect latch is
// set, then drains the whole queue. The second return is false only for
// the disconnect sentinel. Statuses pushed before the latch fired are
// still delivered; the sentinel is returned by the following call.
func (m *Mailbox) PopAll() ([]wire.Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for len(m.queue) == 0 && !m.disconnected {
		m.hasMsg.Wait()
	}
	if len(m.queue) == 0 {
		return nil, false
	}
	batch := m.queue
	m.queue = nil
	return batch, true
}

// ReleaseOnDisconnect sets the latch and wakes any blocked consumer.
func (m *Mailbox) ReleaseOnDisconnect() {
	m.mu.Lock()
	m.disconnected = true
	m.hasMsg.Broadcast()
	m.mu.Unlock()
}

// Disconnected reports whether the latch has been set.
func (m *Mailbox) Disconnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnected
}

// Len returns the number of queued statuses.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
