package timer

import (
	"fmt"

	"github.com/voicetimer/voicetimer-go/pkg/command"
)

// State is the lifecycle state of a timer.
type State uint8

const (
	// StateIdle is an empty slot.
	StateIdle State = iota

	// StateRunning is counting down.
	StateRunning

	// StateExpired has reached zero and is ringing.
	StateExpired

	// StateCancelled was removed by CANCEL or STOP.
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateExpired:
		return "EXPIRED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Timer is a snapshot of one named timer.
type Timer struct {
	Name command.Name

	// Remaining is the number of seconds left.
	Remaining uint32

	// Total is the duration the timer was last set to.
	Total uint32

	State State

	// ExpiredFor counts seconds spent ringing.
	ExpiredFor uint32

	// Seq orders timers by creation.
	Seq uint64
}

// IsRunning returns true if the timer is counting down.
func (t Timer) IsRunning() bool {
	return t.State == StateRunning
}

// IsExpired returns true if the timer reached zero.
func (t Timer) IsExpired() bool {
	return t.State == StateExpired
}

// String renders the timer, e.g. "tea 2:45 RUNNING".
func (t Timer) String() string {
	return fmt.Sprintf("%s %s %s", t.Name.Display(), FormatSeconds(t.Remaining), t.State)
}

// FormatSeconds formats seconds as m:ss, or h:mm:ss from one hour up.
func FormatSeconds(s uint32) string {
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
