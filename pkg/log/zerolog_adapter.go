package log

import (
	"github.com/rs/zerolog"
)

// ZerologAdapter writes events to a zerolog.Logger. Errors are logged at
// Warn level, everything else at Debug.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates an adapter for logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// Log writes the event.
func (a *ZerologAdapter) Log(event Event) {
	e := a.logger.Debug()
	if event.Error != nil {
		e = a.logger.Warn()
	}
	e = e.Str("direction", event.Direction.String()).
		Str("layer", event.Layer.String()).
		Str("category", event.Category.String())
	if event.SessionID != "" {
		e = e.Str("session_id", event.SessionID)
	}
	if event.Source != 0 {
		e = e.Stringer("source", event.Source)
	}

	switch {
	case event.Packet != nil:
		e = e.Int("packet_size", event.Packet.Size).Bool("truncated", event.Packet.Truncated)
	case event.Message != nil:
		e = e.Uint32("msg_id", event.Message.MessageID).Stringer("msg_type", event.Message.Type)
		if event.Message.Operation != nil {
			e = e.Stringer("operation", *event.Message.Operation)
		}
		if event.Message.Status != nil {
			e = e.Stringer("status", *event.Message.Status)
		}
		if event.Message.Event != nil {
			e = e.Stringer("event", *event.Message.Event)
		}
	case event.Command != nil:
		e = e.Stringer("cmd", event.Command.Cmd).
			Str("name", event.Command.Name).
			Uint32("duration", event.Command.Duration).
			Str("status", event.Command.Status)
		if event.Command.Text != "" {
			e = e.Str("text", event.Command.Text)
		}
		if event.Command.Reason != "" {
			e = e.Str("reason", event.Command.Reason)
		}
		if event.Command.Truncated {
			e = e.Bool("truncated", true)
		}
	case event.Timer != nil:
		e = e.Str("timer", event.Timer.Name).
			Str("old_state", event.Timer.OldState).
			Str("new_state", event.Timer.NewState).
			Uint32("remaining", event.Timer.Remaining)
	case event.Error != nil:
		e = e.Stringer("error_layer", event.Error.Layer).
			Str("error_context", event.Error.Context)
		e.Msg(event.Error.Message)
		return
	}

	e.Msg("protocol")
}

var _ Logger = (*ZerologAdapter)(nil)
