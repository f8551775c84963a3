// Package interactive provides the demo console of voicetimer-device.
//
// Each line typed is handed to the device as recognized speech, exactly as
// the speech front end would. Lines starting with ':' are console commands.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/device"
	"github.com/voicetimer/voicetimer-go/pkg/dispatch"
	"github.com/voicetimer/voicetimer-go/pkg/log"
	"github.com/voicetimer/voicetimer-go/pkg/timer"
)

// Console is the interactive demo front end.
type Console struct {
	dev     *device.Device
	history *log.RingLogger
	rl      *readline.Instance
	out     io.Writer
}

// New creates a console reading from the terminal. history may be nil.
// Attach a device before calling Run.
func New(history *log.RingLogger) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "timer> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{history: history, rl: rl, out: rl.Stdout()}, nil
}

func newConsole(dev *device.Device, history *log.RingLogger, out io.Writer) *Console {
	c := &Console{history: history, out: out}
	c.Attach(dev)
	return c
}

// Attach connects the console to dev and starts printing its events.
func (c *Console) Attach(dev *device.Device) {
	c.dev = dev
	dev.OnEvent(c.handleEvent)
}

// Stdout returns a writer that does not garble the prompt.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Run reads lines until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if !c.Exec(line) {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Exec runs one input line and returns false when the console should quit.
func (c *Console) Exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	switch strings.ToLower(input) {
	case "help", "?", ":help":
		c.printHelp()
		return true
	case "quit", "exit", ":quit", ":q":
		return false
	}

	if !strings.HasPrefix(input, ":") {
		c.say(input)
		return true
	}

	parts := strings.Fields(input[1:])
	if len(parts) == 0 {
		return true
	}
	args := parts[1:]

	switch strings.ToLower(parts[0]) {
	case "status", "s":
		c.cmdStatus()
	case "tick", "t":
		c.cmdTick(args)
	case "history", "h":
		c.cmdHistory(args)
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", parts[0])
	}
	return true
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Voice Timer Demo:
  Type what you would say, e.g.
    set tea for three minutes
    add thirty seconds to tea
    minus one minute from eggs
    cancel tea
    stop

  Console commands:
    :status            - Show all timers
    :tick <seconds>    - Advance the clock
    :history [n]       - Show recent commands
    help               - Show this help
    quit               - Exit`)
}

func (c *Console) say(text string) {
	res := c.dev.HandleText(device.Demo, text)
	fmt.Fprintln(c.out, FormatResult(res))
}

// FormatResult renders a dispatch result as one console line.
func FormatResult(res dispatch.Result) string {
	if res.Command.IsNone() {
		return "(not a command)"
	}
	return fmt.Sprintf("%s -> %s: %s", res.Command, res.Status, res.Message)
}

func (c *Console) cmdStatus() {
	timers := c.dev.Timers()
	if len(timers) == 0 {
		fmt.Fprintf(c.out, "No timers (0 of %d)\n", c.dev.Capacity())
		return
	}
	fmt.Fprintf(c.out, "Timers (%d of %d):\n", len(timers), c.dev.Capacity())
	for _, tm := range timers {
		fmt.Fprintln(c.out, "  "+FormatTimer(tm))
	}
}

// FormatTimer renders one timer row.
func FormatTimer(tm timer.Timer) string {
	return fmt.Sprintf("%-15s %-8s %s / %s",
		tm.Name.Display(), tm.State, timer.FormatSeconds(tm.Remaining), timer.FormatSeconds(tm.Total))
}

func (c *Console) cmdTick(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: :tick <seconds>")
		return
	}
	secs, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid seconds: %s\n", args[0])
		return
	}
	c.dev.Tick(uint32(secs))
	c.cmdStatus()
}

func (c *Console) cmdHistory(args []string) {
	if c.history == nil {
		fmt.Fprintln(c.out, "History is not recorded")
		return
	}
	limit := 10
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			limit = n
		}
	}

	var lines []string
	for _, ev := range c.history.Events() {
		if ev.Command == nil {
			continue
		}
		cmd := ev.Command
		text := cmd.Text
		if text == "" {
			text = "<record>"
		}
		lines = append(lines, fmt.Sprintf("%s %-5s %q -> %s %s",
			ev.Timestamp.Format("15:04:05"), ev.Source, text, cmd.Cmd, cmd.Status))
	}
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	if len(lines) == 0 {
		fmt.Fprintln(c.out, "No commands yet")
		return
	}
	for _, l := range lines {
		fmt.Fprintln(c.out, "  "+l)
	}
}

func (c *Console) handleEvent(ev device.Event) {
	switch ev.Kind {
	case device.EventExpired:
		for _, tm := range ev.Timers {
			fmt.Fprintf(c.out, "\n[RING] %s done\n", tm.Name.Display())
		}
	case device.EventReaped:
		for _, tm := range ev.Timers {
			fmt.Fprintf(c.out, "[SILENT] %s\n", tm.Name.Display())
		}
	case device.EventDispatched:
		if ev.Input.Source == command.SourceLink && ev.Changed() {
			fmt.Fprintf(c.out, "\n[LINK] %s\n", FormatResult(ev.Result))
		}
	}
}
