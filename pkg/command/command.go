package command

import (
	"fmt"
	"strings"
)

// VoiceCommand is the kind of a parsed command.
// Values are fixed: they travel as a single byte in command packets.
type VoiceCommand uint8

const (
	// CmdNone means no valid command was recognized. It is never applied.
	CmdNone VoiceCommand = 0

	// CmdSet creates or resets a named timer.
	CmdSet VoiceCommand = 1

	// CmdCancel removes a named timer.
	CmdCancel VoiceCommand = 2

	// CmdAdd adds time to a named timer.
	CmdAdd VoiceCommand = 3

	// CmdMinus subtracts time from a named timer.
	CmdMinus VoiceCommand = 4

	// CmdStop removes every timer.
	CmdStop VoiceCommand = 5
)

// String returns the command name.
func (c VoiceCommand) String() string {
	switch c {
	case CmdNone:
		return "NONE"
	case CmdSet:
		return "SET"
	case CmdCancel:
		return "CANCEL"
	case CmdAdd:
		return "ADD"
	case CmdMinus:
		return "MINUS"
	case CmdStop:
		return "STOP"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", c)
	}
}

// IsValid returns true if c is a defined command kind.
func (c VoiceCommand) IsValid() bool {
	return c <= CmdStop
}

// TakesDuration returns true for the commands that carry a duration.
func (c VoiceCommand) TakesDuration() bool {
	return c == CmdSet || c == CmdAdd || c == CmdMinus
}

// ParsedCommand is the result of parsing one input event.
type ParsedCommand struct {
	Cmd      VoiceCommand
	Name     Name
	Duration uint32 // seconds; zero for CANCEL, STOP and NONE
}

// None returns the no-op command.
func None() ParsedCommand {
	return ParsedCommand{}
}

// IsNone returns true if the command must be ignored.
func (p ParsedCommand) IsNone() bool {
	return p.Cmd == CmdNone
}

// Sanitize returns a copy that is safe to dispatch.
//
// Packets decoded from the wire may carry an unknown kind, a name with
// unprintable bytes or a duration on a command that takes none. Unknown
// kinds become None(). Names are lowercased to match parsed text.
func (p ParsedCommand) Sanitize() ParsedCommand {
	if !p.Cmd.IsValid() || p.Cmd == CmdNone {
		return None()
	}
	out := ParsedCommand{
		Cmd:  p.Cmd,
		Name: NewName(strings.ToLower(p.Name.String())),
	}
	if p.Cmd.TakesDuration() {
		out.Duration = p.Duration
	}
	return out
}

// String renders the command, e.g. "SET kettle 120s".
func (p ParsedCommand) String() string {
	switch {
	case p.Cmd == CmdNone:
		return "NONE"
	case p.Cmd.TakesDuration():
		return fmt.Sprintf("%s %s %ds", p.Cmd, p.Name.Display(), p.Duration)
	case p.Cmd == CmdStop:
		return "STOP"
	default:
		return fmt.Sprintf("%s %s", p.Cmd, p.Name.Display())
	}
}
