package dispatch

import "fmt"

// Status is the outcome of dispatching one command.
type Status uint8

const (
	// StatusOK means the command was applied.
	StatusOK Status = iota

	// StatusNotFound means the named timer does not exist.
	StatusNotFound

	// StatusIgnored means the command was a no-op (NONE or refused by policy).
	StatusIgnored

	// StatusFull means a new timer would exceed the table capacity.
	StatusFull
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusIgnored:
		return "ignored"
	case StatusFull:
		return "full"
	default:
		return fmt.Sprintf("status(%d)", s)
	}
}

// IsSuccess returns true if the command was applied.
func (s Status) IsSuccess() bool {
	return s == StatusOK
}
