package device

import (
	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/dispatch"
	"github.com/voicetimer/voicetimer-go/pkg/timer"
)

// EventKind is the kind of a device event.
type EventKind uint8

const (
	// EventDispatched follows every handled input, NONE included.
	EventDispatched EventKind = iota

	// EventExpired reports timers that reached zero on a tick.
	EventExpired

	// EventReaped reports timers that finished ringing.
	EventReaped
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventDispatched:
		return "DISPATCHED"
	case EventExpired:
		return "EXPIRED"
	case EventReaped:
		return "REAPED"
	default:
		return "UNKNOWN"
	}
}

// Event describes a state change.
type Event struct {
	Kind EventKind

	// Input is set for EventDispatched.
	Input Input

	// Result is set for EventDispatched.
	Result dispatch.Result

	// Timers is set for EventExpired and EventReaped.
	Timers []timer.Timer
}

// Changed returns true if the event altered the timer table.
func (e Event) Changed() bool {
	if e.Kind != EventDispatched {
		return len(e.Timers) > 0
	}
	return e.Result.Status == dispatch.StatusOK && e.Result.Command.Cmd != command.CmdNone
}

// EventHandler receives device events. It runs outside the device lock and
// may call back into the Device.
type EventHandler func(Event)

// Origin identifies who sent an input.
type Origin struct {
	Source command.Source

	// SessionID is the link session, empty for demo input.
	SessionID string
}

// Demo is the origin of demo console input.
var Demo = Origin{Source: command.SourceDemo}

// Input describes one input event.
type Input struct {
	Origin

	// Text is the recognized text; empty for record input.
	Text string

	// Reason explains why the input parsed to NONE.
	Reason string

	// Truncated is set when the name was cut to fit.
	Truncated bool
}
