package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionCounters(t *testing.T) {
	m := New()
	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()

	assert.Equal(t, int64(1), m.GetActiveConnections())
	assert.Equal(t, int64(2), m.GetTotalConnections())
}

func TestFrameCounters(t *testing.T) {
	m := New()
	m.FrameRead()
	m.FrameRead()
	m.BadFrame()
	m.StatusWritten()

	assert.Equal(t, int64(2), m.GetFramesRead())
	assert.Equal(t, int64(1), m.GetBadFrames())
	assert.Equal(t, int64(1), m.GetStatusesWritten())
}

func TestCommandCountsConcurrent(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.CommandHandled("00003")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), m.GetCommandCounts()["00003"])
}

func TestRoomOccupancy(t *testing.T) {
	m := New()
	m.SetRoomOccupancy("devs", 2)
	m.SetRoomOccupancy("devs", 1)
	m.SetRoomOccupancy("ops", 3)

	occupancy := m.GetAllRoomOccupancy()
	assert.Equal(t, int64(1), occupancy["devs"])
	assert.Equal(t, int64(3), occupancy["ops"])
}

func TestSummaryKeys(t *testing.T) {
	m := New()
	m.ConnectionOpened()
	m.CommandHandled("00001")
	m.SetRoomOccupancy("devs", 1)

	summary := m.GetSummary()
	assert.Equal(t, int64(1), summary["active_connections"])
	assert.Equal(t, int64(1), summary["total_connections"])
	counts := summary["command_counts"].(map[string]int64)
	assert.Equal(t, int64(1), counts["00001"])
	assert.Equal(t, int64(1), summary["room_occupancy"].(map[string]int64)["devs"])
	assert.Contains(t, summary, "uptime_seconds")
}
