package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/voicetimer/voicetimer-go/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)
	if session == "" {
		session = "-"
	}

	fmt.Fprintf(w, "%s [%s] %-3s %s %s\n", ts, session, event.Direction, event.Layer, typeLabel(event))

	switch {
	case event.Packet != nil:
		formatPacketDetails(w, event.Packet)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.Command != nil:
		formatCommandDetails(w, event)
	case event.Timer != nil:
		formatTimerDetails(w, event.Timer)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

func typeLabel(event log.Event) string {
	switch {
	case event.Packet != nil:
		return "Packet"
	case event.Message != nil:
		return event.Message.Type.String()
	case event.Command != nil:
		return "Command"
	case event.Timer != nil:
		return "Timer"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatPacketDetails(w io.Writer, p *log.PacketEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", p.Size)
	if len(p.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(p.Data))
		if p.Truncated {
			fmt.Fprint(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	if msg.Type != log.MessageTypeNotification {
		fmt.Fprintf(w, "  MessageID: %d\n", msg.MessageID)
	}

	switch msg.Type {
	case log.MessageTypeRequest:
		if msg.Operation != nil {
			fmt.Fprintf(w, "  Operation: %s\n", *msg.Operation)
		}
	case log.MessageTypeResponse:
		if msg.Status != nil {
			fmt.Fprintf(w, "  Status: %s (%d)\n", *msg.Status, uint8(*msg.Status))
		}
		if msg.ProcessingTime != nil {
			fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*msg.ProcessingTime))
		}
	case log.MessageTypeNotification:
		if msg.Event != nil {
			fmt.Fprintf(w, "  Event: %s\n", *msg.Event)
		}
	}
}

func formatCommandDetails(w io.Writer, event log.Event) {
	c := event.Command
	if event.Source != 0 {
		fmt.Fprintf(w, "  Source: %s\n", event.Source)
	}
	if c.Text != "" {
		fmt.Fprintf(w, "  Text: %q\n", c.Text)
	}
	fmt.Fprintf(w, "  Command: %s", c.Cmd)
	if c.Name != "" {
		fmt.Fprintf(w, " %s", c.Name)
	}
	if c.Cmd.TakesDuration() {
		fmt.Fprintf(w, " %ds", c.Duration)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Status: %s\n", c.Status)
	if c.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", c.Reason)
	}
	if c.Truncated {
		fmt.Fprintln(w, "  Name truncated")
	}
	if c.Ack != "" {
		fmt.Fprintf(w, "  Ack: %s\n", c.Ack)
	}
}

func formatTimerDetails(w io.Writer, tm *log.TimerEvent) {
	fmt.Fprintf(w, "  Timer: %s\n", tm.Name)
	if tm.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", tm.OldState, tm.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", tm.NewState)
	}
	fmt.Fprintf(w, "  Remaining: %ds\n", tm.Remaining)
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// RunView prints matching events.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}
