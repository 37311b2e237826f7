package tui

import (
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/open-teleop/rover-console/domain/drive"
	"github.com/open-teleop/rover-console/domain/telemetry"
	"github.com/open-teleop/rover-console/pkg/projection"
)

type eventLog struct {
	mu     sync.Mutex
	events []drive.Event
}

func (l *eventLog) send(ev drive.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) edges() []drive.Edge {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]drive.Edge, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Edge
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within 1s")
}

func TestKeyHoldCollapsesRepeats(t *testing.T) {
	log := &eventLog{}
	h := newKeyHold(50*time.Millisecond, log.send)

	h.press("ArrowUp")
	h.press("ArrowUp")
	h.press("ArrowUp")

	waitFor(t, func() bool { return len(log.edges()) == 2 })
	want := []drive.Edge{drive.EdgePress, drive.EdgeRelease}
	if got := log.edges(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestKeyHoldSwitchingKeysReleasesFirst(t *testing.T) {
	log := &eventLog{}
	h := newKeyHold(time.Hour, log.send)

	h.press("w")
	h.press("d")
	h.release()

	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.events) != 4 {
		t.Fatalf("expected 4 events, got %+v", log.events)
	}
	if log.events[1].Edge != drive.EdgeRelease || log.events[1].Key != "w" {
		t.Errorf("expected release of w, got %+v", log.events[1])
	}
	if log.events[2].Edge != drive.EdgePress || log.events[2].Key != "d" {
		t.Errorf("expected press of d, got %+v", log.events[2])
	}
}

func TestKeyHoldStopDropsHeldKey(t *testing.T) {
	log := &eventLog{}
	h := newKeyHold(time.Hour, log.send)

	h.press("s")
	h.stop()
	h.release()

	want := []drive.Edge{drive.EdgePress, drive.EdgePress, drive.EdgeRelease}
	if got := log.edges(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if log.events[1].Key != " " {
		t.Errorf("expected Stop to be sent as space, got %q", log.events[1].Key)
	}
}

func TestKeyNameMatchesArbiterKeys(t *testing.T) {
	cases := []struct {
		ev   *tcell.EventKey
		want drive.Command
	}{
		{tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), drive.Forward},
		{tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), drive.Backward},
		{tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), drive.Left},
		{tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), drive.Right},
		{tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), drive.Left},
		{tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), drive.Stop},
	}
	for _, tc := range cases {
		got, ok := drive.KeyCommand(keyName(tc.ev))
		if !ok || got != tc.want {
			t.Errorf("key %v: expected %s, got %s (%v)", tc.ev.Name(), tc.want, got, ok)
		}
	}

	if _, ok := drive.KeyCommand(keyName(tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone))); ok {
		t.Errorf("expected tab to be unmapped")
	}
}

func TestStatusLinesFallBackToNoValue(t *testing.T) {
	lines := statusLines(projection.NewBoard().Snapshot())
	if !strings.Contains(lines[0], "Position: "+telemetry.NoValue) {
		t.Fatalf("expected placeholder position, got %q", lines[0])
	}
	if lines[len(lines)-1] != " Active: none" {
		t.Fatalf("expected no active buttons, got %q", lines[len(lines)-1])
	}
}

func TestActiveButtonsSorted(t *testing.T) {
	board := projection.NewBoard()
	board.SetActive("right", true)
	board.SetActive("forward", true)
	board.SetActive("left", false)

	got := activeButtons(board.Snapshot())
	if want := []string{"forward", "right"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLogLinesAppendServerMirror(t *testing.T) {
	got := logLines(projection.LogView{Local: []string{"a"}, Server: []string{"b"}})
	if want := []string{"a", "rover: b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
