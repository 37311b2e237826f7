// Package projection is the display model the console pushes to its
// views: named slots, boolean flags and the activity log views. Views
// subscribe and redraw from snapshots; they never see engine state.
package projection

import (
	"sync"
	"time"
)

// Flag names shared with the views.
const (
	FlagConnected    = "connected"
	FlagDisconnected = "disconnected"
	activePrefix     = "active."
)

// ActiveFlag names the highlight flag for a control button.
func ActiveFlag(button string) string {
	return activePrefix + button
}

// LogView is one view's pair of logs.
type LogView struct {
	Local  []string `json:"local"`
	Server []string `json:"server"`
}

// Snapshot is a copy of the board at one version.
type Snapshot struct {
	Version uint64                 `json:"version"`
	Updated time.Time              `json:"updated"`
	Slots   map[string]interface{} `json:"slots"`
	Flags   map[string]bool        `json:"flags"`
	Logs    map[string]LogView     `json:"logs"`
}

// Board holds the current display state.
type Board struct {
	mu      sync.RWMutex
	version uint64
	updated time.Time
	slots   map[string]interface{}
	flags   map[string]bool
	logs    map[string]LogView
	subs    map[int]chan Snapshot
	nextSub int
}

// NewBoard creates an empty board showing a disconnected rover.
func NewBoard() *Board {
	return &Board{
		slots: make(map[string]interface{}),
		flags: map[string]bool{FlagConnected: false, FlagDisconnected: true},
		logs:  make(map[string]LogView),
		subs:  make(map[int]chan Snapshot),
	}
}

// SetSlot sets a display value.
func (b *Board) SetSlot(name string, value interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots[name] = value
	b.publishLocked()
}

// ClearSlot removes a display value.
func (b *Board) ClearSlot(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.slots[name]; !ok {
		return
	}
	delete(b.slots, name)
	b.publishLocked()
}

// SetFlag sets a boolean display flag.
func (b *Board) SetFlag(name string, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.flags[name]; ok && cur == on {
		return
	}
	b.flags[name] = on
	b.publishLocked()
}

// SetConnected sets the paired connection flags in one update.
func (b *Board) SetConnected(connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flags[FlagConnected] = connected
	b.flags[FlagDisconnected] = !connected
	b.publishLocked()
}

// SetActive highlights or clears a control button.
func (b *Board) SetActive(button string, active bool) {
	b.SetFlag(ActiveFlag(button), active)
}

// LogChanged replaces a log view.
func (b *Board) LogChanged(view string, local []string, server []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs[view] = LogView{Local: local, Server: server}
	b.publishLocked()
}

// Snapshot returns a copy of the board.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

// Slot returns a single display value.
func (b *Board) Slot(name string) (interface{}, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.slots[name]
	return v, ok
}

// Flag returns a single flag.
func (b *Board) Flag(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.flags[name]
}

// Subscribe returns a channel that always holds the newest snapshot a
// subscriber has not read yet, starting with the current one. Slow readers
// skip intermediate versions. Call cancel to unsubscribe.
func (b *Board) Subscribe() (<-chan Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- b.snapshotLocked()
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

func (b *Board) publishLocked() {
	b.version++
	b.updated = time.Now()
	if len(b.subs) == 0 {
		return
	}
	snap := b.snapshotLocked()
	for _, ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (b *Board) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version: b.version,
		Updated: b.updated,
		Slots:   make(map[string]interface{}, len(b.slots)),
		Flags:   make(map[string]bool, len(b.flags)),
		Logs:    make(map[string]LogView, len(b.logs)),
	}
	for k, v := range b.slots {
		snap.Slots[k] = v
	}
	for k, v := range b.flags {
		snap.Flags[k] = v
	}
	for k, v := range b.logs {
		snap.Logs[k] = LogView{
			Local:  append([]string(nil), v.Local...),
			Server: append([]string(nil), v.Server...),
		}
	}
	return snap
}
