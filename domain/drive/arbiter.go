package drive

import (
	"fmt"
	"sync"

	customlog "github.com/open-teleop/rover-console/pkg/log"
)

// Sender is where the arbiter sends the commands it decides on.
type Sender interface {
	Dispatch(cmd Command)
}

// Highlighter shows which control buttons are held.
type Highlighter interface {
	SetActive(button string, active bool)
}

// Arbiter folds press/release edges from every input source into the
// command stream. Each source is tracked independently, except the keyboard
// which holds at most one key.
type Arbiter struct {
	mu        sync.Mutex
	active    map[Source]Command
	lit       map[string]bool
	sender    Sender
	highlight Highlighter
	logger    customlog.Logger
}

// NewArbiter creates an arbiter with no active sources.
func NewArbiter(sender Sender, highlight Highlighter, logger customlog.Logger) *Arbiter {
	return &Arbiter{
		active:    make(map[Source]Command),
		lit:       make(map[string]bool),
		sender:    sender,
		highlight: highlight,
		logger:    logger,
	}
}

// Handle applies one input event. A keyboard press with an unmapped key is
// dropped; any keyboard release counts, whatever the key.
func (a *Arbiter) Handle(ev Event) error {
	if ev.Source == "" {
		return ErrMissingSource
	}

	switch ev.Edge {
	case EdgePress:
		cmd := ev.Command
		if ev.Source == KeyboardSource && ev.Key != "" {
			mapped, ok := KeyCommand(ev.Key)
			if !ok {
				a.logger.Debugf("Dropping unmapped key %q", ev.Key)
				return nil
			}
			cmd = mapped
		}
		parsed, err := ParseCommand(string(cmd))
		if err != nil {
			return err
		}
		a.OnPress(ev.Source, parsed)
	case EdgeRelease:
		a.OnRelease(ev.Source)
	case EdgeLeave:
		a.OnLeave(ev.Source)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEdge, ev.Edge)
	}
	return nil
}

// OnPress starts cmd from source.
func (a *Arbiter) OnPress(source Source, cmd Command) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cmd == None {
		return
	}
	if cmd == Stop {
		a.sender.Dispatch(Stop)
		a.setLitLocked(a.buttonFor(source, Stop), true)
		return
	}
	if held, ok := a.active[source]; ok {
		a.logger.Debugf("Suppressed %s from %s: %s still held", cmd, source, held)
		return
	}

	a.active[source] = cmd
	a.sender.Dispatch(cmd)
	a.setLitLocked(a.buttonFor(source, cmd), true)
}

// OnRelease ends whatever source was doing. A non-Stop release always
// produces exactly one Stop.
func (a *Arbiter) OnRelease(source Source) {
	a.mu.Lock()
	defer a.mu.Unlock()

	held, ok := a.forgetLocked(source)
	if ok && held != Stop {
		a.sender.Dispatch(Stop)
	}
}

// OnLeave is a pointer leaving its control while pressed.
func (a *Arbiter) OnLeave(source Source) {
	a.OnRelease(source)
}

// Disconnect forgets the sources of a view that went away and sends one
// final Stop, held or not. Other views keep their sources.
func (a *Arbiter) Disconnect(sources ...Source) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, source := range sources {
		a.forgetLocked(source)
	}
	a.sender.Dispatch(Stop)
}

// Teardown sends one final Stop and forgets every source.
func (a *Arbiter) Teardown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.active = make(map[Source]Command)
	for button := range a.lit {
		a.setLitLocked(button, false)
	}
	a.sender.Dispatch(Stop)
}

// Active returns a copy of the active source map.
func (a *Arbiter) Active() map[Source]Command {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[Source]Command, len(a.active))
	for s, c := range a.active {
		out[s] = c
	}
	return out
}

// forgetLocked drops the source's slot and darkens its controls. It returns
// what the source held.
func (a *Arbiter) forgetLocked(source Source) (Command, bool) {
	held, ok := a.active[source]
	if !ok {
		// A Stop button has no record but still lights while pressed.
		if source != KeyboardSource {
			a.setLitLocked(string(source), false)
		}
		return None, false
	}
	delete(a.active, source)

	if source == KeyboardSource {
		// Any keyup clears the slot, even one for a key that was never
		// tracked, and the whole movement pad goes dark.
		for _, c := range MovementCommands {
			a.setLitLocked(string(c), false)
		}
	} else {
		a.setLitLocked(string(source), false)
	}
	return held, true
}

// buttonFor names the control lit by a press. Keyboard presses light the
// button for their command; pointer presses light their own surface.
func (a *Arbiter) buttonFor(source Source, cmd Command) string {
	if source == KeyboardSource {
		return string(cmd)
	}
	return string(source)
}

func (a *Arbiter) setLitLocked(button string, on bool) {
	if on {
		a.lit[button] = true
	} else {
		if !a.lit[button] {
			return
		}
		delete(a.lit, button)
	}
	if a.highlight != nil {
		a.highlight.SetActive(button, on)
	}
}
