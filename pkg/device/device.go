package device

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/dispatch"
	"github.com/voicetimer/voicetimer-go/pkg/log"
	"github.com/voicetimer/voicetimer-go/pkg/timer"
)

// DefaultTickInterval is the countdown resolution.
const DefaultTickInterval = time.Second

// Config configures a Device.
type Config struct {
	// Capacity is the maximum number of timers (default 4).
	Capacity int

	// RingSeconds is how long expired timers ring before removal
	// (default timer.DefaultRingSeconds).
	RingSeconds uint32

	// TickInterval is how often Run ticks (default 1s).
	TickInterval time.Duration

	// Policy overrides dispatch.DefaultPolicy() when set.
	Policy *dispatch.Policy

	// Parser parses text input (default: command.NewParser()).
	Parser *command.Parser

	// Logger receives protocol events (optional).
	Logger log.Logger
}

// Device owns the timer table and serializes all access to it.
type Device struct {
	mu         sync.Mutex
	table      *timer.Table
	dispatcher *dispatch.Dispatcher
	parser     *command.Parser

	tickInterval time.Duration
	logger       log.Logger
	now          func() time.Time

	handlersMu sync.RWMutex
	handlers   []EventHandler
}

// New creates a Device.
func New(cfg Config) *Device {
	if cfg.Parser == nil {
		cfg.Parser = command.NewParser()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NoopLogger{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.RingSeconds == 0 {
		cfg.RingSeconds = timer.DefaultRingSeconds
	}
	policy := dispatch.DefaultPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	table := timer.NewTable(cfg.Capacity, cfg.RingSeconds)
	return &Device{
		table:        table,
		dispatcher:   dispatch.New(table, policy),
		parser:       cfg.Parser,
		tickInterval: cfg.TickInterval,
		logger:       cfg.Logger,
		now:          time.Now,
	}
}

// OnEvent registers a handler for device events.
func (d *Device) OnEvent(h EventHandler) {
	d.handlersMu.Lock()
	defer d.handlersMu.Unlock()
	d.handlers = append(d.handlers, h)
}

// HandleText parses text and dispatches the result.
func (d *Device) HandleText(origin Origin, text string) dispatch.Result {
	a := d.parser.Analyze(text)
	in := Input{Origin: origin, Text: text, Reason: a.Reason, Truncated: a.Truncated}
	return d.handle(in, a.Command)
}

// HandleCommand dispatches an already decoded command after sanitizing it.
func (d *Device) HandleCommand(origin Origin, cmd command.ParsedCommand) dispatch.Result {
	in := Input{Origin: origin}
	clean := cmd.Sanitize()
	if clean.IsNone() && cmd.Cmd != command.CmdNone {
		in.Reason = command.ReasonUnknownCommand
	}
	return d.handle(in, clean)
}

func (d *Device) handle(in Input, cmd command.ParsedCommand) dispatch.Result {
	d.mu.Lock()
	prior := make(map[command.Name]timer.State, d.table.Len())
	for _, tm := range d.table.Snapshot() {
		prior[tm.Name] = tm.State
	}
	res := d.dispatcher.Dispatch(cmd)
	d.mu.Unlock()

	d.logCommand(in, res)
	for _, tm := range res.Timers {
		old, ok := prior[tm.Name]
		if !ok {
			old = timer.StateIdle
		}
		d.logTimer(log.DirectionIn, tm, old)
	}
	d.emit(Event{Kind: EventDispatched, Input: in, Result: res})
	return res
}

// Tick advances all timers by elapsed seconds.
func (d *Device) Tick(elapsed uint32) timer.TickResult {
	d.mu.Lock()
	res := d.table.Tick(elapsed)
	d.mu.Unlock()

	if len(res.Expired) > 0 {
		for _, tm := range res.Expired {
			d.logTimer(log.DirectionOut, tm, timer.StateRunning)
		}
		d.emit(Event{Kind: EventExpired, Timers: res.Expired})
	}
	if len(res.Reaped) > 0 {
		for _, tm := range res.Reaped {
			d.logTimer(log.DirectionOut, tm, timer.StateExpired)
		}
		d.emit(Event{Kind: EventReaped, Timers: res.Reaped})
	}
	return res
}

// Run ticks the device until ctx is cancelled. Elapsed time is measured,
// so a delayed tick advances timers by the full time that passed.
func (d *Device) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.tickInterval)
	defer ticker.Stop()

	last := time.Now()
	var carry time.Duration
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			carry += now.Sub(last)
			last = now
			if secs := carry / time.Second; secs > 0 {
				carry -= secs * time.Second
				d.Tick(uint32(secs))
			}
		}
	}
}

// Timer returns a copy of the named timer. Names are matched the way the
// parser normalizes them.
func (d *Device) Timer(name string) (timer.Timer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.table.Get(command.NewName(strings.ToLower(name)))
}

// Timers returns copies of all timers in creation order.
func (d *Device) Timers() []timer.Timer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.table.Snapshot()
}

// Capacity returns the maximum number of timers.
func (d *Device) Capacity() int {
	return d.table.Capacity()
}

func (d *Device) emit(ev Event) {
	d.handlersMu.RLock()
	handlers := make([]EventHandler, len(d.handlers))
	copy(handlers, d.handlers)
	d.handlersMu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (d *Device) logCommand(in Input, res dispatch.Result) {
	d.logger.Log(log.Event{
		Timestamp: d.now(),
		SessionID: in.SessionID,
		Direction: log.DirectionIn,
		Layer:     log.LayerDevice,
		Category:  log.CategoryCommand,
		Source:    in.Source,
		Command: &log.CommandEvent{
			Text:      in.Text,
			Cmd:       res.Command.Cmd,
			Name:      res.Command.Name.String(),
			Duration:  res.Command.Duration,
			Status:    res.Status.String(),
			Reason:    in.Reason,
			Truncated: in.Truncated,
			Ack:       res.Message,
		},
	})
}

func (d *Device) logTimer(dir log.Direction, tm timer.Timer, old timer.State) {
	d.logger.Log(log.Event{
		Timestamp: d.now(),
		Direction: dir,
		Layer:     log.LayerDevice,
		Category:  log.CategoryTimer,
		Timer: &log.TimerEvent{
			Name:      tm.Name.String(),
			OldState:  old.String(),
			NewState:  tm.State.String(),
			Remaining: tm.Remaining,
		},
	})
}
