package log

import (
	"time"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/wire"
)

// Event is one protocol log record. CBOR encoding uses integer keys.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the link session (UUID). Empty for demo input
	// and ticks.
	SessionID string `cbor:"2,keyasint,omitempty"`

	Direction Direction `cbor:"3,keyasint"`
	Layer     Layer     `cbor:"4,keyasint"`
	Category  Category  `cbor:"5,keyasint"`

	// Source is the input path of a command.
	Source command.Source `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address of a link session.
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Exactly one of these is set.
	Packet  *PacketEvent    `cbor:"10,keyasint,omitempty"`
	Message *MessageEvent   `cbor:"11,keyasint,omitempty"`
	Command *CommandEvent   `cbor:"12,keyasint,omitempty"`
	Timer   *TimerEvent     `cbor:"13,keyasint,omitempty"`
	Error   *ErrorEventData `cbor:"14,keyasint,omitempty"`
}

// Direction indicates data flow relative to the device.
type Direction uint8

const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer is where the event was captured.
type Layer uint8

const (
	// LayerLink is packet framing.
	LayerLink Layer = 0
	// LayerWire is envelope decoding.
	LayerWire Layer = 1
	// LayerDevice is parsing, dispatch and timers.
	LayerDevice Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerLink:
		return "LINK"
	case LayerWire:
		return "WIRE"
	case LayerDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event.
type Category uint8

const (
	CategoryMessage Category = 0
	CategoryCommand Category = 1
	CategoryTimer   Category = 2
	CategoryError   Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryCommand:
		return "COMMAND"
	case CategoryTimer:
		return "TIMER"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// PacketEvent captures a raw link packet.
type PacketEvent struct {
	// Size is the packet size including the length prefix.
	Size int `cbor:"1,keyasint"`

	// Data is the packet payload, possibly truncated.
	Data []byte `cbor:"2,keyasint,omitempty"`

	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageType distinguishes envelopes.
type MessageType uint8

const (
	MessageTypeRequest      MessageType = 0
	MessageTypeResponse     MessageType = 1
	MessageTypeNotification MessageType = 2
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	case MessageTypeNotification:
		return "NOTIFICATION"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures a decoded envelope.
type MessageEvent struct {
	Type      MessageType `cbor:"1,keyasint"`
	MessageID uint32      `cbor:"2,keyasint"`

	// Requests only.
	Operation *wire.Operation `cbor:"3,keyasint,omitempty"`

	// Responses only.
	Status *wire.Status `cbor:"4,keyasint,omitempty"`

	// Notifications only.
	Event *wire.NotifyEvent `cbor:"5,keyasint,omitempty"`

	// ProcessingTime is from request receipt to response send.
	ProcessingTime *time.Duration `cbor:"6,keyasint,omitempty"`
}

// CommandEvent captures one parsed and dispatched command.
type CommandEvent struct {
	// Text is the raw input, empty for record packets.
	Text string `cbor:"1,keyasint,omitempty"`

	Cmd      command.VoiceCommand `cbor:"2,keyasint"`
	Name     string               `cbor:"3,keyasint,omitempty"`
	Duration uint32               `cbor:"4,keyasint,omitempty"`

	// Status is the dispatch status name ("ok", "not_found", ...).
	Status string `cbor:"5,keyasint"`

	// Reason explains a NONE result.
	Reason string `cbor:"6,keyasint,omitempty"`

	// Truncated is set when the name was cut to fit.
	Truncated bool `cbor:"7,keyasint,omitempty"`

	// Ack is the acknowledgement text.
	Ack string `cbor:"8,keyasint,omitempty"`
}

// TimerEvent captures a timer state change.
type TimerEvent struct {
	Name      string `cbor:"1,keyasint"`
	OldState  string `cbor:"2,keyasint,omitempty"`
	NewState  string `cbor:"3,keyasint"`
	Remaining uint32 `cbor:"4,keyasint"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`

	// Context describes the operation that failed.
	Context string `cbor:"3,keyasint,omitempty"`
}
