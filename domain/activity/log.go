// Package activity holds the operator activity logs: a bounded ring of
// locally produced lines and a mirror of the rover's own log.
package activity

import (
	"fmt"
	"sync"
	"time"
)

// Capacities of the local ring for the two console views.
const (
	DriveCapacity   = 30
	MissionCapacity = 50
)

// Entry is one timestamped local log line.
type Entry struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// Line renders the entry the way the operator sees it.
func (e Entry) Line() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Text)
}

// Listener is told about every change so a view can redraw and scroll to the end.
type Listener interface {
	LogChanged(view string, local []string, server []string)
}

// Log is one view's pair of logs. The two logs are never merged.
type Log struct {
	mu       sync.RWMutex
	view     string
	capacity int
	local    []Entry
	server   []string
	listener Listener
	now      func() time.Time
}

// NewLog creates a log for view with the given local capacity.
func NewLog(view string, capacity int, listener Listener) *Log {
	if capacity <= 0 {
		capacity = DriveCapacity
	}
	return &Log{
		view:     view,
		capacity: capacity,
		local:    make([]Entry, 0, capacity),
		server:   []string{},
		listener: listener,
		now:      time.Now,
	}
}

// AppendLocal timestamps text and pushes it, evicting the oldest entries
// while the ring is over capacity.
func (l *Log) AppendLocal(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.local = append(l.local, Entry{Time: l.now(), Text: text})
	for len(l.local) > l.capacity {
		copy(l.local, l.local[1:])
		l.local = l.local[:len(l.local)-1]
	}
	l.notifyLocked()
}

// AppendLocalf is AppendLocal with formatting.
func (l *Log) AppendLocalf(format string, args ...interface{}) {
	l.AppendLocal(fmt.Sprintf(format, args...))
}

// ReplaceFromServer discards the server mirror and substitutes lines verbatim.
func (l *Log) ReplaceFromServer(lines []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.server = append(make([]string, 0, len(lines)), lines...)
	l.notifyLocked()
}

// Entries returns a copy of the local ring, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.local...)
}

// Local returns the rendered local lines, oldest first.
func (l *Log) Local() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	local, _ := l.linesLocked()
	return local
}

// Server returns a copy of the server mirror.
func (l *Log) Server() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.server...)
}

// View names the console view this log belongs to.
func (l *Log) View() string {
	return l.view
}

// Capacity returns the local ring size.
func (l *Log) Capacity() int {
	return l.capacity
}

func (l *Log) linesLocked() ([]string, []string) {
	local := make([]string, len(l.local))
	for i, e := range l.local {
		local[i] = e.Line()
	}
	return local, append([]string(nil), l.server...)
}

// notifyLocked runs under mu so listeners see changes in order.
// Listeners must not call back into the Log.
func (l *Log) notifyLocked() {
	if l.listener == nil {
		return
	}
	local, server := l.linesLocked()
	l.listener.LogChanged(l.view, local, server)
}
