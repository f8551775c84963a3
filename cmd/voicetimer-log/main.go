// Command voicetimer-log views and analyzes voice timer protocol logs.
//
// Log files are written by voicetimer-device when run with -protocol-log.
//
// Usage:
//
//	voicetimer-log <command> [flags] <file.vtlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSONL or CSV
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all dispatched commands
//	voicetimer-log view -category command device.vtlog
//
//	# Follow one timer
//	voicetimer-log view -timer tea device.vtlog
//
//	# Export link-layer traffic as CSV
//	voicetimer-log export -format csv -layer link device.vtlog
//
//	# Keep one session
//	voicetimer-log filter -session 3f2c9a10 -o session.vtlog device.vtlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/voicetimer/voicetimer-go/cmd/voicetimer-log/commands"
	"github.com/voicetimer/voicetimer-go/pkg/log"
)

const usage = `voicetimer-log - Voice Timer Protocol Log Analyzer

Usage:
  voicetimer-log <command> [flags] <file.vtlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSONL or CSV
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "voicetimer-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func newFlagSet(name, summary, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "voicetimer-log %s - %s\n\nUsage:\n  voicetimer-log %s\n\nFlags:\n", name, summary, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	opts := &commands.FilterOptions{}
	fs.StringVar(&opts.SessionID, "session", "", "Filter by link session ID")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (link, wire, device)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (message, command, timer, error)")
	fs.StringVar(&opts.Source, "source", "", "Filter by input source (demo, link)")
	fs.StringVar(&opts.Cmd, "cmd", "", "Filter by command kind (set, cancel, add, minus, stop, none)")
	fs.StringVar(&opts.Timer, "timer", "", "Filter by timer name")
	return opts
}

func parseArgs(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func buildFilter(opts *commands.FilterOptions) log.Filter {
	filter, err := opts.Build()
	if err != nil {
		fail(err)
	}
	return filter
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := newFlagSet("view", "View log file in human-readable format", "view [flags] <file.vtlog>")
	opts := filterFlags(fs)
	path := parseArgs(fs, args)

	if err := commands.RunView(path, buildFilter(opts), os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export log file to JSONL or CSV", "export [flags] <file.vtlog>")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	opts := filterFlags(fs)
	path := parseArgs(fs, args)

	if err := commands.RunExport(path, *format, *output, buildFilter(opts)); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter log file and write to new file", "filter [flags] -o <out.vtlog> <file.vtlog>")
	output := fs.String("o", "", "Output file (required)")
	opts := filterFlags(fs)
	path := parseArgs(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunFilter(path, *output, buildFilter(opts), os.Stdout); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the log file", "stats <file.vtlog>")
	path := parseArgs(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
