package wire

import "fmt"

// Status is the result code carried in a response.
type Status uint8

const (
	// StatusOK means the command was applied.
	StatusOK Status = 0

	// StatusNotFound means the named timer does not exist.
	StatusNotFound Status = 1

	// StatusIgnored means the input held no usable command.
	StatusIgnored Status = 2

	// StatusFull means the timer table is at capacity.
	StatusFull Status = 3

	// StatusBadRequest means the request could not be decoded.
	StatusBadRequest Status = 4
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
	case StatusBadRequest:
		return "bad_request"
	default:
		return fmt.Sprintf("status(%d)", s)
	}
}

// IsSuccess returns true for StatusOK.
func (s Status) IsSuccess() bool {
	return s == StatusOK
}
