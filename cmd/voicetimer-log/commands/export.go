package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/voicetimer/voicetimer-go/pkg/log"
)

// RunExport writes matching events as jsonl or csv to output, or to
// stdout when output is empty.
func RunExport(path, format, output string, filter log.Filter) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return Export(path, format, filter, w)
}

// Export writes matching events to w.
func Export(path, format string, filter log.Filter, w io.Writer) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	if format == "csv" {
		return exportCSV(reader, w)
	}
	return exportJSONL(reader, w)
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{
	"timestamp", "session_id", "direction", "layer", "category", "source",
	"type", "message_id", "cmd", "name", "duration", "status", "detail",
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

func csvRow(event log.Event) []string {
	var msgID, cmd, name, duration, status, detail string

	switch {
	case event.Packet != nil:
		detail = strconv.Itoa(event.Packet.Size)
	case event.Message != nil:
		msgID = strconv.FormatUint(uint64(event.Message.MessageID), 10)
		if event.Message.Status != nil {
			status = event.Message.Status.String()
		}
		if event.Message.Operation != nil {
			detail = event.Message.Operation.String()
		}
		if event.Message.Event != nil {
			detail = event.Message.Event.String()
		}
	case event.Command != nil:
		c := event.Command
		cmd = c.Cmd.String()
		name = c.Name
		duration = strconv.FormatUint(uint64(c.Duration), 10)
		status = c.Status
		detail = c.Text
	case event.Timer != nil:
		name = event.Timer.Name
		status = event.Timer.NewState
		detail = event.Timer.OldState
	case event.Error != nil:
		detail = event.Error.Message
	}

	source := ""
	if event.Source != 0 {
		source = event.Source.String()
	}

	return []string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.SessionID,
		event.Direction.String(),
		event.Layer.String(),
		event.Category.String(),
		source,
		typeLabel(event),
		msgID,
		cmd,
		name,
		duration,
		status,
		detail,
	}
}
