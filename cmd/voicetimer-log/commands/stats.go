package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Sessions          map[string]*SessionStats

	// CommandsByKind counts dispatched commands by kind and status.
	CommandsByKind map[command.VoiceCommand]map[string]int

	// IgnoredReasons counts inputs that parsed to NONE.
	IgnoredReasons map[string]int

	Expired int
	Errors  int

	Responses       int
	TotalProcessing time.Duration
	MaxProcessing   time.Duration

	TimeRange struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single link session.
type SessionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	Commands   int
	RemoteAddr string
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Sessions:          make(map[string]*SessionStats),
		CommandsByKind:    make(map[command.VoiceCommand]map[string]int),
		IgnoredReasons:    make(map[string]int),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	var sess *SessionStats
	if event.SessionID != "" {
		sess = s.Sessions[event.SessionID]
		if sess == nil {
			sess = &SessionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			s.Sessions[event.SessionID] = sess
		}
		sess.Events++
		if event.Timestamp.After(sess.LastSeen) {
			sess.LastSeen = event.Timestamp
		}
		if sess.RemoteAddr == "" {
			sess.RemoteAddr = event.RemoteAddr
		}
	}

	switch {
	case event.Command != nil:
		c := event.Command
		byStatus := s.CommandsByKind[c.Cmd]
		if byStatus == nil {
			byStatus = make(map[string]int)
			s.CommandsByKind[c.Cmd] = byStatus
		}
		byStatus[c.Status]++
		if c.Reason != "" {
			s.IgnoredReasons[c.Reason]++
		}
		if sess != nil {
			sess.Commands++
		}

	case event.Timer != nil:
		if event.Timer.NewState == "EXPIRED" {
			s.Expired++
		}

	case event.Message != nil:
		if pt := event.Message.ProcessingTime; pt != nil {
			s.Responses++
			s.TotalProcessing += *pt
			if *pt > s.MaxProcessing {
				s.MaxProcessing = *pt
			}
		}

	case event.Error != nil:
		s.Errors++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Voice Timer Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerLink, log.LayerWire, log.LayerDevice} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryCommand, log.CategoryTimer, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}

	if len(stats.CommandsByKind) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Commands:")
		for c := command.CmdNone; c <= command.CmdStop; c++ {
			byStatus := stats.CommandsByKind[c]
			if len(byStatus) == 0 {
				continue
			}
			statuses := make([]string, 0, len(byStatus))
			total := 0
			for st, n := range byStatus {
				statuses = append(statuses, st)
				total += n
			}
			sort.Strings(statuses)
			fmt.Fprintf(w, "  %-12s %d", c.String()+":", total)
			for _, st := range statuses {
				fmt.Fprintf(w, " %s=%d", st, byStatus[st])
			}
			fmt.Fprintln(w)
		}
	}

	if len(stats.IgnoredReasons) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Ignored Input:")
		reasons := make([]string, 0, len(stats.IgnoredReasons))
		for r := range stats.IgnoredReasons {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		for _, r := range reasons {
			fmt.Fprintf(w, "  %-20s %d\n", r+":", stats.IgnoredReasons[r])
		}
	}

	if stats.Expired > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Timers Expired: %d\n", stats.Expired)
	}

	if stats.Responses > 0 {
		fmt.Fprintln(w)
		avg := stats.TotalProcessing / time.Duration(stats.Responses)
		fmt.Fprintf(w, "Responses: %d (avg %s, max %s)\n",
			stats.Responses, formatDuration(avg), formatDuration(stats.MaxProcessing))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, %d commands, duration %s\n",
				shortenSessionID(s.id), s.stats.Events, s.stats.Commands, duration)
			if s.stats.RemoteAddr != "" {
				fmt.Fprintf(w, "           Remote: %s\n", s.stats.RemoteAddr)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
