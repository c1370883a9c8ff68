package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/rrbridge/rrbridge-go/pkg/log"
)

// FilterOptions holds the filter command's flag values.
type FilterOptions struct {
	Output    string
	ConnID    string
	Device    string
	Node      string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
	Entity    string
	State     string
	Matched   string
}

// logFilter parses the flag values into a log.Filter.
func (o FilterOptions) logFilter() (log.Filter, error) {
	f := log.Filter{
		ConnectionID: o.ConnID,
		DeviceAddr:   o.Device,
		NodeName:     o.Node,
		State:        strings.ToUpper(o.State),
	}

	var err error
	if f.TimeStart, err = parseTimeFlag("time-start", o.TimeStart); err != nil {
		return f, err
	}
	if f.TimeEnd, err = parseTimeFlag("time-end", o.TimeEnd); err != nil {
		return f, err
	}
	if f.Layer, err = optional(o.Layer, ParseLayerFlag); err != nil {
		return f, err
	}
	if f.Direction, err = optional(o.Direction, ParseDirectionFlag); err != nil {
		return f, err
	}
	if f.Category, err = optional(o.Category, ParseCategoryFlag); err != nil {
		return f, err
	}
	if f.Entity, err = optional(o.Entity, ParseEntityFlag); err != nil {
		return f, err
	}
	if f.Matched, err = optional(o.Matched, ParseMatchedFlag); err != nil {
		return f, err
	}
	return f, nil
}

// optional parses s with parse, or returns nil when s is empty.
func optional[T any](s string, parse func(string) (T, error)) (*T, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parse(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseTimeFlag(name, s string) (*time.Time, error) {
	return optional(s, func(s string) (time.Time, error) {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return t, fmt.Errorf("invalid %s format: %w", name, err)
		}
		return t, nil
	})
}

// RunFilter copies the events of path that match opts into a new capture
// file and returns how many were written.
func RunFilter(path string, opts FilterOptions) (int, error) {
	filter, err := opts.logFilter()
	if err != nil {
		return 0, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	out, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer out.Close()

	count := 0
	err = reader.Each(func(event log.Event) error {
		out.Log(event)
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("failed to read event: %w", err)
	}
	return count, nil
}
