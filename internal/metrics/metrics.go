// Package metrics keeps the server's operational counters. Scalar
// counters are atomics; the per-command map is guarded by its own
// RWMutex. Snapshots for the ops API come from GetSummary.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Metrics struct {
	// Connection counters.
	ActiveConnections int64
	TotalConnections  int64
	Disconnections    int64

	// Frame counters. FramesRead counts well-formed frames extracted
	// from the stream; BadFrames counts frames whose command code did
	// not decode. StatusesWritten counts statuses flushed to sockets.
	FramesRead      int64
	BadFrames       int64
	StatusesWritten int64

	CommandCounts map[string]int64
	RoomOccupancy map[string]int64

	StartTime time.Time

	Mutex sync.RWMutex
}

func New() *Metrics {
	return &Metrics{
		CommandCounts: make(map[string]int64),
		RoomOccupancy: make(map[string]int64),
		StartTime:     time.Now(),
	}
}

func (m *Metrics) ConnectionOpened() {
	atomic.AddInt64(&m.ActiveConnections, 1)
	atomic.AddInt64(&m.TotalConnections, 1)
}

func (m *Metrics) ConnectionClosed() {
	atomic.AddInt64(&m.ActiveConnections, -1)
	atomic.AddInt64(&m.Disconnections, 1)
}

func (m *Metrics) FrameRead() {
	atomic.AddInt64(&m.FramesRead, 1)
}

func (m *Metrics) BadFrame() {
	atomic.AddInt64(&m.BadFrames, 1)
}

func (m *Metrics) StatusWritten() {
	atomic.AddInt64(&m.StatusesWritten, 1)
}

// CommandHandled bumps the per-command counter for a decoded request.
func (m *Metrics) CommandHandled(code string) {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()
	m.CommandCounts[code]++
}

func (m *Metrics) GetActiveConnections() int64 {
	return atomic.LoadInt64(&m.ActiveConnections)
}

func (m *Metrics) GetTotalConnections() int64 {
	return atomic.LoadInt64(&m.TotalConnections)
}

func (m *Metrics) GetFramesRead() int64 {
	return atomic.LoadInt64(&m.FramesRead)
}

func (m *Metrics) GetBadFrames() int64 {
	return atomic.LoadInt64(&m.BadFrames)
}

func (m *Metrics) GetStatusesWritten() int64 {
	return atomic.LoadInt64(&m.StatusesWritten)
}

// GetCommandCounts returns a copy of the per-command counters.
func (m *Metrics) GetCommandCounts() map[string]int64 {
	m.Mutex.RLock()
	defer m.Mutex.RUnlock()
	counts := make(map[string]int64, len(m.CommandCounts))
	for k, v := range m.CommandCounts {
		counts[k] = v
	}
	return counts
}

// SetRoomOccupancy records the current member count of a room.
func (m *Metrics) SetRoomOccupancy(room string, count int64) {
	m.Mutex.Lock()
	defer m.Mutex.Unlock()
	m.RoomOccupancy[room] = count
}

// GetAllRoomOccupancy returns a copy of the per-room member counts.
func (m *Metrics) GetAllRoomOccupancy() map[string]int64 {
	m.Mutex.RLock()
	defer m.Mutex.RUnlock()
	occupancy := make(map[string]int64, len(m.RoomOccupancy))
	for k, v := range m.RoomOccupancy {
		occupancy[k] = v
	}
	return occupancy
}

func (m *Metrics) GetUptime() time.Duration {
	return time.Since(m.StartTime)
}

// GetSummary returns a snapshot of all counters for the ops API.
func (m *Metrics) GetSummary() map[string]interface{} {
	return map[string]interface{}{
		"active_connections": m.GetActiveConnections(),
		"total_connections":  m.GetTotalConnections(),
		"disconnections":     atomic.LoadInt64(&m.Disconnections),
		"frames_read":        m.GetFramesRead(),
		"bad_frames":         m.GetBadFrames(),
		"statuses_written":   m.GetStatusesWritten(),
		"command_counts":     m.GetCommandCounts(),
		"room_occupancy":     m.GetAllRoomOccupancy(),
		"uptime_seconds":     m.GetUptime().Seconds(),
	}
}
