package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/wire"
)

func slogEntry(t *testing.T, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterCommandEvent(t *testing.T) {
	entry := slogEntry(t, Event{
		Timestamp: time.Now(),
		Layer:     LayerDevice,
		Category:  CategoryCommand,
		Source:    command.SourceDemo,
		Command:   &CommandEvent{Text: "set tea 60", Cmd: command.CmdSet, Name: "tea", Duration: 60, Status: "ok"},
	})

	want := map[string]any{
		"layer":    "DEVICE",
		"category": "COMMAND",
		"source":   "DEMO",
		"cmd":      "SET",
		"name":     "tea",
		"duration": float64(60),
		"status":   "ok",
		"text":     "set tea 60",
		"msg":      "protocol",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
	if _, ok := entry["session_id"]; ok {
		t.Error("session_id should be omitted for demo input")
	}
}

func TestSlogAdapterMessageEvent(t *testing.T) {
	op := wire.OpText
	entry := slogEntry(t, Event{
		SessionID: "s-1",
		Layer:     LayerWire,
		Message:   &MessageEvent{Type: MessageTypeRequest, MessageID: 9, Operation: &op},
	})
	if entry["operation"] != "TEXT" {
		t.Errorf("operation = %v, want TEXT", entry["operation"])
	}
	if entry["msg_id"] != float64(9) {
		t.Errorf("msg_id = %v, want 9", entry["msg_id"])
	}
	if entry["session_id"] != "s-1" {
		t.Errorf("session_id = %v, want s-1", entry["session_id"])
	}
}

func TestSlogAdapterTimerEvent(t *testing.T) {
	entry := slogEntry(t, Event{
		Layer:    LayerDevice,
		Category: CategoryTimer,
		Timer:    &TimerEvent{Name: "egg", OldState: "RUNNING", NewState: "EXPIRED"},
	})
	if entry["new_state"] != "EXPIRED" || entry["timer"] != "egg" {
		t.Errorf("entry = %v", entry)
	}
}
