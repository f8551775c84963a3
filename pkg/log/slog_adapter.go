package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates an adapter for logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}
	if event.Source != 0 {
		attrs = append(attrs, slog.String("source", event.Source.String()))
	}

	switch {
	case event.Packet != nil:
		attrs = append(attrs,
			slog.Int("packet_size", event.Packet.Size),
			slog.Bool("truncated", event.Packet.Truncated),
		)
	case event.Message != nil:
		attrs = append(attrs,
			slog.Uint64("msg_id", uint64(event.Message.MessageID)),
			slog.String("msg_type", event.Message.Type.String()),
		)
		if event.Message.Operation != nil {
			attrs = append(attrs, slog.String("operation", event.Message.Operation.String()))
		}
		if event.Message.Status != nil {
			attrs = append(attrs, slog.String("status", event.Message.Status.String()))
		}
		if event.Message.Event != nil {
			attrs = append(attrs, slog.String("event", event.Message.Event.String()))
		}
	case event.Command != nil:
		attrs = append(attrs,
			slog.String("cmd", event.Command.Cmd.String()),
			slog.String("name", event.Command.Name),
			slog.Uint64("duration", uint64(event.Command.Duration)),
			slog.String("status", event.Command.Status),
		)
		if event.Command.Text != "" {
			attrs = append(attrs, slog.String("text", event.Command.Text))
		}
		if event.Command.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Command.Reason))
		}
	case event.Timer != nil:
		attrs = append(attrs,
			slog.String("timer", event.Timer.Name),
			slog.String("old_state", event.Timer.OldState),
			slog.String("new_state", event.Timer.NewState),
			slog.Uint64("remaining", uint64(event.Timer.Remaining)),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "protocol", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
