package dispatch

import (
	"errors"
	"fmt"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/timer"
)

// Policy selects the behaviors that are configurable.
type Policy struct {
	// CreateOnAdd makes ADD on an unknown name behave like SET.
	CreateOnAdd bool

	// ZeroDurationExpires makes SET with duration 0 create an expired
	// timer. When false such a SET is ignored.
	ZeroDurationExpires bool
}

// DefaultPolicy returns the default dispatch policy.
func DefaultPolicy() Policy {
	return Policy{
		CreateOnAdd:         true,
		ZeroDurationExpires: true,
	}
}

// Result is the outcome of one Dispatch call.
type Result struct {
	Status  Status
	Command command.ParsedCommand

	// Timers holds copies of the affected timers after the command.
	// Removed timers are reported in state CANCELLED.
	Timers []timer.Timer

	// Message is a short human-readable acknowledgement.
	Message string
}

// Dispatcher applies commands to a timer table.
// It is not safe for concurrent use; callers serialize Dispatch together
// with the table's Tick.
type Dispatcher struct {
	table  *timer.Table
	policy Policy
}

// New creates a Dispatcher over table.
func New(table *timer.Table, policy Policy) *Dispatcher {
	return &Dispatcher{table: table, policy: policy}
}

// Policy returns the dispatcher's policy.
func (d *Dispatcher) Policy() Policy {
	return d.policy
}

// Dispatch applies cmd and reports the outcome.
func (d *Dispatcher) Dispatch(cmd command.ParsedCommand) Result {
	switch cmd.Cmd {
	case command.CmdSet:
		return d.set(cmd)
	case command.CmdAdd:
		return d.add(cmd)
	case command.CmdMinus:
		return d.minus(cmd)
	case command.CmdCancel:
		return d.cancel(cmd)
	case command.CmdStop:
		return d.stop(cmd)
	default:
		return Result{Status: StatusIgnored, Command: cmd, Message: "ignored"}
	}
}

func (d *Dispatcher) set(cmd command.ParsedCommand) Result {
	label := cmd.Name.Display()
	if cmd.Duration == 0 && !d.policy.ZeroDurationExpires {
		return Result{Status: StatusIgnored, Command: cmd, Message: fmt.Sprintf("%s: zero duration ignored", label)}
	}
	tm, err := d.table.Set(cmd.Name, cmd.Duration)
	if err != nil {
		return d.failure(cmd, err)
	}
	msg := fmt.Sprintf("%s set for %s", label, timer.FormatSeconds(cmd.Duration))
	if tm.IsExpired() {
		msg = fmt.Sprintf("%s done", label)
	}
	return ok(cmd, msg, tm)
}

func (d *Dispatcher) add(cmd command.ParsedCommand) Result {
	tm, err := d.table.Add(cmd.Name, cmd.Duration)
	if errors.Is(err, timer.ErrTimerNotFound) && d.policy.CreateOnAdd {
		return d.set(cmd)
	}
	if err != nil {
		return d.failure(cmd, err)
	}
	return ok(cmd, fmt.Sprintf("%s: %s added, %s left",
		cmd.Name.Display(), timer.FormatSeconds(cmd.Duration), timer.FormatSeconds(tm.Remaining)), tm)
}

func (d *Dispatcher) minus(cmd command.ParsedCommand) Result {
	tm, err := d.table.Subtract(cmd.Name, cmd.Duration)
	if err != nil {
		return d.failure(cmd, err)
	}
	if tm.IsExpired() {
		return ok(cmd, fmt.Sprintf("%s done", cmd.Name.Display()), tm)
	}
	return ok(cmd, fmt.Sprintf("%s: %s removed, %s left",
		cmd.Name.Display(), timer.FormatSeconds(cmd.Duration), timer.FormatSeconds(tm.Remaining)), tm)
}

func (d *Dispatcher) cancel(cmd command.ParsedCommand) Result {
	tm, found := d.table.Remove(cmd.Name)
	if !found {
		return d.failure(cmd, timer.ErrTimerNotFound)
	}
	return ok(cmd, fmt.Sprintf("%s cancelled", cmd.Name.Display()), tm)
}

func (d *Dispatcher) stop(cmd command.ParsedCommand) Result {
	removed := d.table.Clear()
	msg := "no timers"
	switch len(removed) {
	case 0:
	case 1:
		msg = "1 timer stopped"
	default:
		msg = fmt.Sprintf("%d timers stopped", len(removed))
	}
	return Result{Status: StatusOK, Command: cmd, Timers: removed, Message: msg}
}

func (d *Dispatcher) failure(cmd command.ParsedCommand, err error) Result {
	switch {
	case errors.Is(err, timer.ErrTimerNotFound):
		return Result{Status: StatusNotFound, Command: cmd,
			Message: fmt.Sprintf("no timer named %s", cmd.Name.Display())}
	case errors.Is(err, timer.ErrCapacity):
		return Result{Status: StatusFull, Command: cmd,
			Message: fmt.Sprintf("cannot add %s: all %d timers in use", cmd.Name.Display(), d.table.Capacity())}
	default:
		return Result{Status: StatusIgnored, Command: cmd, Message: err.Error()}
	}
}

func ok(cmd command.ParsedCommand, msg string, tm timer.Timer) Result {
	return Result{Status: StatusOK, Command: cmd, Timers: []timer.Timer{tm}, Message: msg}
}
