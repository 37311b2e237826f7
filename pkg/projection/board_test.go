package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoardShowsDisconnected(t *testing.T) {
	b := NewBoard()
	assert.False(t, b.Flag(FlagConnected))
	assert.True(t, b.Flag(FlagDisconnected))

	b.SetConnected(true)
	assert.True(t, b.Flag(FlagConnected))
	assert.False(t, b.Flag(FlagDisconnected))
}

func TestSlotsAndHighlights(t *testing.T) {
	b := NewBoard()
	b.SetSlot("heading", "87.3°")
	b.SetActive("forward", true)

	v, ok := b.Slot("heading")
	require.True(t, ok)
	assert.Equal(t, "87.3°", v)
	assert.True(t, b.Flag("active.forward"))

	b.ClearSlot("heading")
	_, ok = b.Slot("heading")
	assert.False(t, ok)
}

func TestSnapshotIsIsolated(t *testing.T) {
	b := NewBoard()
	b.LogChanged("drive", []string{"[10:00:00] Manual control ready"}, nil)

	snap := b.Snapshot()
	snap.Logs["drive"].Local[0] = "changed"
	snap.Slots["x"] = 1

	again := b.Snapshot()
	assert.Equal(t, "[10:00:00] Manual control ready", again.Logs["drive"].Local[0])
	_, ok := again.Slots["x"]
	assert.False(t, ok)
}

func TestSubscriberGetsLatestOnly(t *testing.T) {
	b := NewBoard()
	ch, cancel := b.Subscribe()
	defer cancel()

	first := <-ch
	b.SetSlot("speed", "1.00 km/h")
	b.SetSlot("speed", "2.00 km/h")

	latest := <-ch
	assert.Greater(t, latest.Version, first.Version)
	assert.Equal(t, "2.00 km/h", latest.Slots["speed"])

	select {
	case <-ch:
		t.Fatalf("Expected no queued stale snapshot")
	default:
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := NewBoard()
	ch, cancel := b.Subscribe()
	<-ch
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	b.SetFlag("connected", true)
}
