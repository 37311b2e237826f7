// Package tui is a terminal view of the console: it renders the board and
// turns arrow/wasd keys into keyboard input events.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/open-teleop/rover-console/domain/drive"
	"github.com/open-teleop/rover-console/domain/mission"
	"github.com/open-teleop/rover-console/domain/telemetry"
	customlog "github.com/open-teleop/rover-console/pkg/log"
	"github.com/open-teleop/rover-console/pkg/projection"
	"github.com/open-teleop/rover-console/services"
)

const (
	uiRefreshInterval = time.Second
	// Terminals report no key-up. A held key repeats, so silence this long
	// counts as a release.
	keyHoldTimeout = 600 * time.Millisecond
	speedStep      = 10
	minBoxHeight   = 4
)

// Controller is the part of the console the terminal view drives.
type Controller interface {
	HandleInput(ev drive.Event) error
	Board() *projection.Board
	SetSpeed(speed int) int
	Speed() int
}

// UI renders the console board and forwards key presses.
type UI struct {
	console Controller
	logger  customlog.Logger
	hold    *keyHold
}

// New returns a UI instance.
func New(console Controller, logger customlog.Logger) *UI {
	u := &UI{console: console, logger: logger}
	u.hold = newKeyHold(keyHoldTimeout, u.send)
	return u
}

// Run blocks until the context is cancelled or the user quits. A key still
// held on exit is released.
func (u *UI) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.HideCursor()
	defer screen.Fini()
	defer u.hold.release()

	eventCh := make(chan tcell.Event, 1)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	updates, cancel := u.console.Board().Subscribe()
	defer cancel()

	ticker := time.NewTicker(uiRefreshInterval)
	defer ticker.Stop()

	snap := u.console.Board().Snapshot()
	u.render(screen, snap)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-eventCh:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' {
					return context.Canceled
				}
				u.handleKey(ev)
			case *tcell.EventResize:
				screen.Sync()
				u.render(screen, snap)
			}
		case next, ok := <-updates:
			if !ok {
				return nil
			}
			snap = next
			u.render(screen, snap)
		case <-ticker.C:
			u.render(screen, snap)
		}
	}
}

func (u *UI) handleKey(ev *tcell.EventKey) {
	switch ev.Rune() {
	case '+', '=':
		u.console.SetSpeed(u.console.Speed() + speedStep)
		return
	case '-', '_':
		u.console.SetSpeed(u.console.Speed() - speedStep)
		return
	}

	key := keyName(ev)
	cmd, ok := drive.KeyCommand(key)
	if !ok {
		return
	}
	if cmd == drive.Stop {
		u.hold.stop()
		return
	}
	u.hold.press(key)
}

func (u *UI) send(ev drive.Event) {
	if err := u.console.HandleInput(ev); err != nil {
		u.logger.Warnf("Terminal input rejected: %v", err)
	}
}

// keyName maps a terminal key to the browser key name the arbiter knows.
func keyName(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyUp:
		return "ArrowUp"
	case tcell.KeyDown:
		return "ArrowDown"
	case tcell.KeyLeft:
		return "ArrowLeft"
	case tcell.KeyRight:
		return "ArrowRight"
	case tcell.KeyRune:
		return string(ev.Rune())
	}
	return ""
}

// keyHold turns repeating key presses into one press and one release.
type keyHold struct {
	mu      sync.Mutex
	key     string
	timer   *time.Timer
	timeout time.Duration
	send    func(drive.Event)
}

func newKeyHold(timeout time.Duration, send func(drive.Event)) *keyHold {
	return &keyHold{timeout: timeout, send: send}
}

func (h *keyHold) press(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.key == key {
		h.timer.Reset(h.timeout)
		return
	}
	if h.key != "" {
		h.releaseLocked()
	}
	h.key = key
	h.send(drive.Event{Source: drive.KeyboardSource, Edge: drive.EdgePress, Key: key})
	h.timer = time.AfterFunc(h.timeout, func() { h.expire(key) })
}

// stop sends Stop and drops any held key.
func (h *keyHold) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.send(drive.Event{Source: drive.KeyboardSource, Edge: drive.EdgePress, Key: " "})
	if h.key != "" {
		h.releaseLocked()
	}
}

func (h *keyHold) release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.key != "" {
		h.releaseLocked()
	}
}

func (h *keyHold) expire(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.key == key {
		h.releaseLocked()
	}
}

func (h *keyHold) releaseLocked() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	key := h.key
	h.key = ""
	h.send(drive.Event{Source: drive.KeyboardSource, Edge: drive.EdgeRelease, Key: key})
}

func (u *UI) render(screen tcell.Screen, snap projection.Snapshot) {
	screen.Clear()
	width, height := screen.Size()
	if width < 20 || height < 5 {
		screen.Show()
		return
	}

	header := fmt.Sprintf(" rover console  %s  (arrows/wasd drive, space stop, +/- speed, q quit)",
		time.Now().Format("15:04:05"))
	drawText(screen, 0, 0, width, header, tcell.StyleDefault.Bold(true))

	y := 1
	connStyle := tcell.StyleDefault.Foreground(tcell.ColorRed)
	if snap.Flags[projection.FlagConnected] {
		connStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	}
	drawText(screen, 0, y, width, " "+slotText(snap, services.SlotConnectionText), connStyle)
	y++
	for _, line := range statusLines(snap) {
		drawText(screen, 0, y, width, line, tcell.StyleDefault)
		y++
	}

	for _, view := range []string{services.ViewDrive, services.ViewMission} {
		if height-y < minBoxHeight {
			break
		}
		lines := logLines(snap.Logs[view])
		boxHeight := len(lines) + 2
		if boxHeight < minBoxHeight {
			boxHeight = minBoxHeight
		}
		if boxHeight > (height-y)/2 && view == services.ViewDrive {
			boxHeight = (height - y) / 2
		}
		if boxHeight > height-y {
			boxHeight = height - y
		}
		drawLogBox(screen, 0, y, width, boxHeight, view, lines)
		y += boxHeight
	}

	screen.Show()
}

// statusLines renders the board slots the terminal shows.
func statusLines(snap projection.Snapshot) []string {
	lines := []string{
		fmt.Sprintf(" Position: %s  GPS: %s", slotText(snap, telemetry.SlotPosition), slotText(snap, telemetry.SlotGPSStatus)),
		fmt.Sprintf(" Heading: %s  Speed: %s  Drive speed: %s",
			slotText(snap, telemetry.SlotHeading), slotText(snap, telemetry.SlotSpeed), slotText(snap, services.SlotDriveSpeed)),
		fmt.Sprintf(" Mission: %s  Waypoints: %s  Progress: %s  Distance: %s",
			slotText(snap, mission.SlotMode), slotText(snap, mission.SlotWaypointCount),
			slotText(snap, telemetry.SlotWaypoint), slotText(snap, telemetry.SlotDistanceToTarget)),
	}
	active := activeButtons(snap)
	if len(active) == 0 {
		lines = append(lines, " Active: none")
	} else {
		lines = append(lines, " Active: "+strings.Join(active, " "))
	}
	return lines
}

// activeButtons lists the highlighted control buttons in name order.
func activeButtons(snap projection.Snapshot) []string {
	prefix := projection.ActiveFlag("")
	var out []string
	for name, on := range snap.Flags {
		if on && strings.HasPrefix(name, prefix) {
			out = append(out, strings.TrimPrefix(name, prefix))
		}
	}
	sort.Strings(out)
	return out
}

func slotText(snap projection.Snapshot, name string) string {
	v, ok := snap.Slots[name]
	if !ok || v == nil {
		return telemetry.NoValue
	}
	return fmt.Sprint(v)
}

// logLines puts the server mirror after the local lines.
func logLines(view projection.LogView) []string {
	lines := append([]string(nil), view.Local...)
	for _, l := range view.Server {
		lines = append(lines, "rover: "+l)
	}
	return lines
}

func drawLogBox(screen tcell.Screen, x, y, width, height int, title string, lines []string) {
	drawBox(screen, x, y, width, height)
	drawText(screen, x+2, y, width-4, fmt.Sprintf(" %s log ", title), tcell.StyleDefault.Bold(true))

	rows := height - 2
	if rows <= 0 {
		return
	}
	// newest lines stay visible
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	for i, line := range lines {
		drawText(screen, x+1, y+1+i, width-2, line, tcell.StyleDefault)
	}
}

func drawBox(screen tcell.Screen, x, y, width, height int) {
	if width < 2 || height < 2 {
		return
	}
	right := x + width - 1
	bottom := y + height - 1

	screen.SetContent(x, y, '+', nil, tcell.StyleDefault)
	screen.SetContent(right, y, '+', nil, tcell.StyleDefault)
	screen.SetContent(x, bottom, '+', nil, tcell.StyleDefault)
	screen.SetContent(right, bottom, '+', nil, tcell.StyleDefault)

	for col := x + 1; col < right; col++ {
		screen.SetContent(col, y, '-', nil, tcell.StyleDefault)
		screen.SetContent(col, bottom, '-', nil, tcell.StyleDefault)
	}
	for row := y + 1; row < bottom; row++ {
		screen.SetContent(x, row, '|', nil, tcell.StyleDefault)
		screen.SetContent(right, row, '|', nil, tcell.StyleDefault)
	}
}

func drawText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	if width <= 0 {
		return
	}
	col := x
	for _, r := range text {
		if col >= x+width {
			return
		}
		screen.SetContent(col, y, r, nil, style)
		col++
	}
	for col < x+width {
		screen.SetContent(col, y, ' ', nil, tcell.StyleDefault)
		col++
	}
}
