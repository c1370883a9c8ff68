// Command rr-log views and analyzes rrbridge protocol log files.
//
// Log files are created when running rr-connect or rr-node with the
// -protocol-log flag.
//
// Usage:
//
//	rr-log <command> [flags] <file.cbor>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View the probes of one device
//	rr-log view --layer discovery --device robot-1 rr.cbor
//
//	# Export to CSV
//	rr-log export --format csv -o rr.csv rr.cbor
//
//	# Keep only one attempt
//	rr-log filter --conn-id 3f2a9c1e-... -o attempt.cbor rr.cbor
//
//	# Keep only the winning probes
//	rr-log filter --entity probe --state won -o winners.cbor rr.cbor
//
//	# Show attempt and probe outcomes
//	rr-log stats rr.cbor
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rrbridge/rrbridge-go/cmd/rr-log/commands"
)

const usage = `rr-log - rrbridge Protocol Log Analyzer

Usage:
  rr-log <command> [flags] <file.cbor>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "rr-log <command> -help" for more information about a command.
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

// newFlagSet returns a flag set whose usage prints summary and the flags.
func newFlagSet(name, summary, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "rr-log %s - %s\n\nUsage:\n  rr-log %s\n\nFlags:\n", name, summary, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// requirePath parses args and returns the log file argument.
func requirePath(fs *flag.FlagSet, args []string) string {
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

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := newFlagSet("view", "View log file in human-readable format", "view [flags] <file.cbor>")
	layer := fs.String("layer", "", "Filter by layer (transport, wire, discovery, bridge)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, state, error)")
	entity := fs.String("entity", "", "Filter state changes by entity (attempt, probe, session)")
	state := fs.String("state", "", "Filter state changes by new state (e.g. WON, FAILED)")
	matched := fs.String("matched", "", "Filter identity replies by match outcome (true, false)")
	device := fs.String("device", "", "Filter by device address")
	node := fs.String("node", "", "Filter by node name")

	path := requirePath(fs, args)

	filter := commands.ViewFilter{State: *state, Device: *device, Node: *node}

	if *entity != "" {
		e, err := commands.ParseEntityFlag(*entity)
		if err != nil {
			fail(err)
		}
		filter.Entity = &e
	}

	if *matched != "" {
		m, err := commands.ParseMatchedFlag(*matched)
		if err != nil {
			fail(err)
		}
		filter.Matched = &m
	}

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fail(err)
		}
		filter.Layer = &l
	}

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fail(err)
		}
		filter.Direction = &d
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export log file to JSON or CSV format", "export [flags] <file.cbor>")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	path := requirePath(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter log file and write to new file", "filter [flags] <file.cbor>")
	output := fs.String("o", "", "Output file (required)")
	connID := fs.String("conn-id", "", "Filter by attempt or session ID")
	device := fs.String("device", "", "Filter by device address")
	node := fs.String("node", "", "Filter by node name")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	layer := fs.String("layer", "", "Filter by layer (transport, wire, discovery, bridge)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, state, error)")
	entity := fs.String("entity", "", "Filter state changes by entity (attempt, probe, session)")
	state := fs.String("state", "", "Filter state changes by new state (e.g. WON, FAILED)")
	matched := fs.String("matched", "", "Filter identity replies by match outcome (true, false)")

	path := requirePath(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	count, err := commands.RunFilter(path, commands.FilterOptions{
		Output:    *output,
		ConnID:    *connID,
		Device:    *device,
		Node:      *node,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Layer:     *layer,
		Direction: *direction,
		Category:  *category,
		Entity:    *entity,
		State:     *state,
		Matched:   *matched,
	})
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, *output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the log file", "stats <file.cbor>")
	path := requirePath(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
