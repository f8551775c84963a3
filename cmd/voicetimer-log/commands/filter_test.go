package commands

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/log"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	var events []log.Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		events = append(events, event)
	}
}

func TestFilterBySession(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.vtlog")

	var buf bytes.Buffer
	err := RunFilter(path, out, log.Filter{SessionID: "3f2c9a10-aaaa-bbbb-cccc-000000000001"}, &buf)
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	events := readAll(t, out)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for _, e := range events {
		if e.SessionID != "3f2c9a10-aaaa-bbbb-cccc-000000000001" {
			t.Errorf("unexpected session %q", e.SessionID)
		}
	}
	if !strings.Contains(buf.String(), "Filtered 3 events to ") {
		t.Errorf("unexpected summary: %q", buf.String())
	}
}

func TestFilterByCommandAndSource(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.vtlog")

	filter, err := FilterOptions{Cmd: "set", Source: "link"}.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := RunFilter(path, out, filter, io.Discard); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	events := readAll(t, out)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Command == nil || events[0].Command.Cmd != command.CmdSet {
		t.Errorf("expected the SET command event, got %+v", events[0])
	}
}

func TestFilterByTimeRange(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.vtlog")

	filter, err := FilterOptions{TimeStart: "2026-01-28T10:16:00Z"}.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if err := RunFilter(path, out, filter, io.Discard); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	events := readAll(t, out)
	if len(events) != 1 || events[0].Timer == nil {
		t.Fatalf("expected only the expiry event, got %d events", len(events))
	}
}

func TestFilterOptionsRejectBadValues(t *testing.T) {
	tests := []FilterOptions{
		{Layer: "transport"},
		{Direction: "sideways"},
		{Category: "state"},
		{Source: "radio"},
		{Cmd: "pause"},
		{TimeStart: "yesterday"},
		{TimeEnd: "2026-13-01"},
	}
	for _, opts := range tests {
		if _, err := opts.Build(); err == nil {
			t.Errorf("Build(%+v) succeeded, want error", opts)
		}
	}
}

func TestParseCommandIsCaseInsensitive(t *testing.T) {
	for _, s := range []string{"stop", "STOP", "Stop"} {
		c, err := ParseCommand(s)
		if err != nil || c != command.CmdStop {
			t.Errorf("ParseCommand(%q) = %v, %v", s, c, err)
		}
	}
}
