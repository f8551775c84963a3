package wire

import (
	"errors"
	"fmt"
)

// NotificationMessageID is reserved for notifications.
const NotificationMessageID uint32 = 0

// Request validation errors.
var (
	ErrReservedMessageID = errors.New("wire: messageId 0 is reserved for notifications")
	ErrInvalidOperation  = errors.New("wire: invalid operation")
	ErrMissingText       = errors.New("wire: text request without text")
)

// Request is sent by a link client.
//
// CBOR encoding:
//
//	{
//	  1: messageId,   // uint32, never 0
//	  2: operation,   // uint8: 1=Text, 2=Record, 3=Status
//	  3: text,        // string (Text)
//	  4: record       // bytes (Record)
//	}
type Request struct {
	MessageID uint32    `cbor:"1,keyasint"`
	Operation Operation `cbor:"2,keyasint"`
	Text      string    `cbor:"3,keyasint,omitempty"`
	Record    []byte    `cbor:"4,keyasint,omitempty"`
}

// Validate checks the envelope. Record contents are checked when decoded.
func (r *Request) Validate() error {
	if r.MessageID == NotificationMessageID {
		return ErrReservedMessageID
	}
	if !r.Operation.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidOperation, r.Operation)
	}
	if r.Operation == OpText && r.Text == "" {
		return ErrMissingText
	}
	if r.Operation == OpRecord && len(r.Record) != RecordSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrRecordSize, len(r.Record), RecordSize)
	}
	return nil
}

// CommandInfo describes the command a request resolved to.
type CommandInfo struct {
	Cmd      uint8  `cbor:"1,keyasint"`
	Name     string `cbor:"2,keyasint,omitempty"`
	Duration uint32 `cbor:"3,keyasint,omitempty"`
}

// TimerInfo describes one timer.
type TimerInfo struct {
	Name      string `cbor:"1,keyasint"`
	Remaining uint32 `cbor:"2,keyasint"`
	Total     uint32 `cbor:"3,keyasint"`
	State     uint8  `cbor:"4,keyasint"`
}

// Response answers a Request.
//
// CBOR encoding:
//
//	{
//	  1: messageId,   // uint32, matches the request
//	  2: status,      // uint8
//	  3: command,     // CommandInfo (Text and Record)
//	  4: timers,      // []TimerInfo
//	  5: message      // acknowledgement text
//	}
type Response struct {
	MessageID uint32       `cbor:"1,keyasint"`
	Status    Status       `cbor:"2,keyasint"`
	Command   *CommandInfo `cbor:"3,keyasint,omitempty"`
	Timers    []TimerInfo  `cbor:"4,keyasint,omitempty"`
	Message   string       `cbor:"5,keyasint,omitempty"`
}

// IsSuccess returns true if the response status is StatusOK.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// Notification is pushed by the device without a request.
//
// CBOR encoding:
//
//	{
//	  1: 0,           // messageId
//	  2: event,       // uint8
//	  3: timers,      // []TimerInfo
//	  4: message
//	}
type Notification struct {
	Event   NotifyEvent
	Timers  []TimerInfo
	Message string
}
