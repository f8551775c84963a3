package wire

import "fmt"

// Operation is the kind of a request.
type Operation uint8

const (
	// OpText carries a line of recognized text.
	OpText Operation = 1

	// OpRecord carries a 24-byte command record.
	OpRecord Operation = 2

	// OpStatus lists the current timers.
	OpStatus Operation = 3
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpText:
		return "TEXT"
	case OpRecord:
		return "RECORD"
	case OpStatus:
		return "STATUS"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", o)
	}
}

// IsValid returns true if the operation is defined.
func (o Operation) IsValid() bool {
	return o >= OpText && o <= OpStatus
}

// NotifyEvent is the reason for a notification.
type NotifyEvent uint8

const (
	// NotifyExpired means timers reached zero and started ringing.
	NotifyExpired NotifyEvent = 1

	// NotifyReaped means ringing timers were removed.
	NotifyReaped NotifyEvent = 2

	// NotifyChanged means a command changed the timer table.
	NotifyChanged NotifyEvent = 3
)

// String returns the event name.
func (e NotifyEvent) String() string {
	switch e {
	case NotifyExpired:
		return "EXPIRED"
	case NotifyReaped:
		return "REAPED"
	case NotifyChanged:
		return "CHANGED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", e)
	}
}
