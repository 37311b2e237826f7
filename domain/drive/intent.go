// Package drive turns operator press/release edges into the rover's motion
// command stream. Losing an active input always produces a Stop.
package drive

import (
	"errors"
	"fmt"
	"strings"
)

// Command is a motion intent. None means no active source and is never sent.
type Command string

const (
	None     Command = ""
	Forward  Command = "forward"
	Backward Command = "backward"
	Left     Command = "left"
	Right    Command = "right"
	Stop     Command = "stop"
)

// MovementCommands are the commands that need a fail-safe Stop on release.
var MovementCommands = []Command{Forward, Backward, Left, Right}

// ParseCommand accepts the wire names in any case.
func ParseCommand(s string) (Command, error) {
	switch c := Command(strings.ToLower(strings.TrimSpace(s))); c {
	case Forward, Backward, Left, Right, Stop:
		return c, nil
	}
	return None, fmt.Errorf("unknown drive command %q", s)
}

func (c Command) String() string {
	if c == None {
		return "none"
	}
	return string(c)
}

// Source identifies an independent origin of intent. Each pointer/touch
// control surface is its own source; all keys share KeyboardSource.
type Source string

// KeyboardSource is the single shared keyboard slot.
const KeyboardSource Source = "keyboard"

// Edge is the kind of input transition.
type Edge string

const (
	EdgePress   Edge = "press"
	EdgeRelease Edge = "release"
	// EdgeLeave is a pointer leaving the control surface; it counts as a release.
	EdgeLeave Edge = "leave"
)

// Event is the tagged input variant delivered by every modality.
// Keyboard events carry Key instead of Command.
type Event struct {
	Source  Source  `json:"source"`
	Edge    Edge    `json:"edge"`
	Command Command `json:"command,omitempty"`
	Key     string  `json:"key,omitempty"`
}

var (
	ErrMissingSource = errors.New("input event has no source")
	ErrUnknownEdge   = errors.New("input event has an unknown edge")
)

// KeyCommand maps a browser key name to a command. Unmapped keys return false.
func KeyCommand(key string) (Command, bool) {
	if key == " " {
		return Stop, true
	}
	switch strings.ToLower(key) {
	case "arrowup", "w":
		return Forward, true
	case "arrowdown", "s":
		return Backward, true
	case "arrowleft", "a":
		return Left, true
	case "arrowright", "d":
		return Right, true
	case "space", "spacebar":
		return Stop, true
	}
	return None, false
}
