// Package commands implements the voicetimer-log CLI commands.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/log"
)

// FilterOptions holds the filter flags shared by view, export and filter.
// Empty fields match everything.
type FilterOptions struct {
	SessionID string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
	Source    string
	Cmd       string
	Timer     string
}

// Build converts the flag values to a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	filter := log.Filter{
		SessionID: o.SessionID,
		TimerName: strings.ToLower(o.Timer),
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	if o.Layer != "" {
		l, err := ParseLayer(o.Layer)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Layer = &l
	}
	if o.Direction != "" {
		d, err := ParseDirection(o.Direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if o.Category != "" {
		c, err := ParseCategory(o.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	if o.Source != "" {
		s, err := ParseSource(o.Source)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Source = &s
	}
	if o.Cmd != "" {
		c, err := ParseCommand(o.Cmd)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Cmd = &c
	}
	return filter, nil
}

// ParseLayer parses a layer name (case-insensitive).
func ParseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "link":
		return log.LayerLink, nil
	case "wire":
		return log.LayerWire, nil
	case "device":
		return log.LayerDevice, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be link, wire, or device)", s)
	}
}

// ParseDirection parses a direction name (case-insensitive).
func ParseDirection(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategory parses a category name (case-insensitive).
func ParseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "command":
		return log.CategoryCommand, nil
	case "timer":
		return log.CategoryTimer, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, command, timer, or error)", s)
	}
}

// ParseSource parses an input source name (case-insensitive).
func ParseSource(s string) (command.Source, error) {
	switch strings.ToLower(s) {
	case "demo":
		return command.SourceDemo, nil
	case "link":
		return command.SourceLink, nil
	default:
		return 0, fmt.Errorf("invalid source: %s (must be demo or link)", s)
	}
}

// ParseCommand parses a command kind name (case-insensitive).
func ParseCommand(s string) (command.VoiceCommand, error) {
	for c := command.CmdNone; c <= command.CmdStop; c++ {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("invalid command: %s (must be none, set, cancel, add, minus, or stop)", s)
}
