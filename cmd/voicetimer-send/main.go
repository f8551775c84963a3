// Command voicetimer-send talks to a voicetimer device over the link.
//
// Usage:
//
//	voicetimer-send [flags] [text...]
//
// Without text it prints the timer table. With text it sends the words as
// recognized speech, or, with -record, parses them locally and sends the
// binary command record instead.
//
// Flags:
//
//	-addr string      Device address (default "127.0.0.1:7420")
//	-discover         Find the device over mDNS instead of -addr
//	-record           Parse locally and send a command record
//	-watch            Stay connected and print notifications
//	-timeout duration Request and discovery timeout (default 5s)
//	-v                Log link packets to stderr
//
// Examples:
//
//	voicetimer-send set tea for three minutes
//	voicetimer-send -record cancel tea
//	voicetimer-send -discover -watch
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/voicetimer/voicetimer-go/pkg/command"
	"github.com/voicetimer/voicetimer-go/pkg/link"
	"github.com/voicetimer/voicetimer-go/pkg/log"
	"github.com/voicetimer/voicetimer-go/pkg/timer"
	"github.com/voicetimer/voicetimer-go/pkg/wire"
)

var (
	addr     = flag.String("addr", "127.0.0.1:7420", "Device address")
	discover = flag.Bool("discover", false, "Find the device over mDNS instead of -addr")
	record   = flag.Bool("record", false, "Parse locally and send a command record")
	watch    = flag.Bool("watch", false, "Stay connected and print notifications")
	timeout  = flag.Duration("timeout", 5*time.Second, "Request and discovery timeout")
	verbose  = flag.Bool("v", false, "Log link packets to stderr")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, strings.Join(flag.Args(), " ")); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, text string) error {
	address := *addr
	if *discover {
		dctx, cancel := context.WithTimeout(ctx, *timeout)
		svc, err := link.BrowseFirst(dctx)
		cancel()
		if err != nil {
			return err
		}
		address = svc.Addresses[0]
		fmt.Fprintf(w, "Found %s at %s (%d timers)\n", svc.Instance, address, svc.Capacity)
	}

	opts := []link.ClientOption{
		link.WithRequestTimeout(*timeout),
		link.WithNotificationHandler(func(n *wire.Notification) {
			fmt.Fprintln(w, FormatNotification(n))
		}),
	}
	if *verbose {
		opts = append(opts, link.WithClientLogger(log.NewSlogAdapter(
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))))
	}

	client, err := link.Dial(ctx, address, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	var resp *wire.Response
	switch {
	case text == "":
		resp, err = client.Status(ctx)
	case *record:
		cmd := command.Parse(text)
		if cmd.IsNone() {
			return fmt.Errorf("%q is not a command", text)
		}
		resp, err = client.SendCommand(ctx, cmd)
	default:
		resp, err = client.SendText(ctx, text)
	}
	if err != nil {
		return err
	}
	PrintResponse(w, resp)

	if !*watch {
		return nil
	}
	select {
	case <-ctx.Done():
	case <-client.Done():
		if err := client.Err(); err != nil {
			return err
		}
		fmt.Fprintln(w, "Device closed the connection")
	}
	return nil
}

// PrintResponse writes a response and its timers.
func PrintResponse(w io.Writer, resp *wire.Response) {
	if resp.Command != nil {
		fmt.Fprintf(w, "%s: %s (%s)\n", resp.Status, resp.Message, FormatCommand(resp.Command))
	} else {
		fmt.Fprintf(w, "%s: %s\n", resp.Status, resp.Message)
	}
	for _, tm := range resp.Timers {
		fmt.Fprintln(w, "  "+FormatTimer(tm))
	}
}

// FormatCommand renders the command a request resolved to.
func FormatCommand(c *wire.CommandInfo) string {
	cmd := command.ParsedCommand{
		Cmd:      command.VoiceCommand(c.Cmd),
		Name:     command.NewName(c.Name),
		Duration: c.Duration,
	}
	return cmd.String()
}

// FormatTimer renders one timer row.
func FormatTimer(tm wire.TimerInfo) string {
	return fmt.Sprintf("%-15s %-9s %s / %s",
		tm.Name, timer.State(tm.State), timer.FormatSeconds(tm.Remaining), timer.FormatSeconds(tm.Total))
}

// FormatNotification renders a notification as one line plus timers.
func FormatNotification(n *wire.Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", n.Event, n.Message)
	for _, tm := range n.Timers {
		b.WriteString("\n  " + FormatTimer(tm))
	}
	return b.String()
}
