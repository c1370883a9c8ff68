package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rrbridge/rrbridge-go/pkg/log"
)

var csvHeader = []string{"timestamp", "connection_id", "direction", "layer", "category", "device", "node", "type", "detail"}

// RunExport writes the events of path to output ("" for stdout) as jsonl
// or csv.
func RunExport(path, format, output string) error {
	var write func(io.Writer, *log.Reader) error
	switch format {
	case "jsonl":
		write = exportJSONL
	case "csv":
		write = exportCSV
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return write(w, reader)
}

func exportJSONL(w io.Writer, reader *log.Reader) error {
	enc := json.NewEncoder(w)
	return reader.Each(func(event log.Event) error {
		return enc.Encode(event)
	})
}

func exportCSV(w io.Writer, reader *log.Reader) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	err := reader.Each(func(event log.Event) error {
		return cw.Write([]string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.ConnectionID,
			event.Direction.String(),
			event.Layer.String(),
			event.Category.String(),
			event.DeviceAddr,
			event.NodeName,
			typeLabel(event),
			eventDetail(event),
		})
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// eventDetail is the one-column summary of an event's payload: frame size,
// match outcome, new state or error text.
func eventDetail(event log.Event) string {
	switch {
	case event.Frame != nil:
		return strconv.Itoa(event.Frame.Size)
	case event.Message != nil && event.Message.Matched != nil:
		return strconv.FormatBool(*event.Message.Matched)
	case event.StateChange != nil:
		return event.StateChange.NewState
	case event.Error != nil:
		return event.Error.Message
	}
	return ""
}
