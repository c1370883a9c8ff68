package log

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func writeTestLog(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.rrlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()
	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		out = append(out, e)
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, ConnectionID: "a", Direction: DirectionOut, Layer: LayerTransport, Category: CategoryMessage, DeviceAddr: "dev-1"},
		{Timestamp: base.Add(time.Second), ConnectionID: "a", Direction: DirectionIn, Layer: LayerWire, Category: CategoryMessage, DeviceAddr: "dev-1", NodeName: "create"},
		{Timestamp: base.Add(2 * time.Second), ConnectionID: "b", Layer: LayerDiscovery, Category: CategoryState},
		{Timestamp: base.Add(3 * time.Second), ConnectionID: "b", Layer: LayerBridge, Category: CategoryError, DeviceAddr: "dev-2"},
	}
	path := writeTestLog(t, events)

	wire := LayerWire
	in := DirectionIn
	errCat := CategoryError
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{name: "none", filter: Filter{}, want: 4},
		{name: "connection", filter: Filter{ConnectionID: "b"}, want: 2},
		{name: "layer", filter: Filter{Layer: &wire}, want: 1},
		{name: "direction", filter: Filter{Direction: &in}, want: 1},
		{name: "category", filter: Filter{Category: &errCat}, want: 1},
		{name: "device", filter: Filter{DeviceAddr: "dev-1"}, want: 2},
		{name: "node", filter: Filter{NodeName: "create"}, want: 1},
		{name: "time range", filter: Filter{TimeStart: &start, TimeEnd: &end}, want: 2},
		{name: "combined", filter: Filter{ConnectionID: "a", DeviceAddr: "dev-1", Direction: &in}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer r.Close()

			if got := len(readAll(t, r)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestReaderEmptyFile(t *testing.T) {
	path := writeTestLog(t, nil)
	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.rrlog")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReaderOutcomeFilters(t *testing.T) {
	yes, no := true, false
	events := []Event{
		{ConnectionID: "a", Layer: LayerDiscovery, Category: CategoryState, StateChange: &StateChangeEvent{Entity: StateEntityAttempt, NewState: "DISCOVERING"}},
		{ConnectionID: "a", Layer: LayerDiscovery, Category: CategoryState, StateChange: &StateChangeEvent{Entity: StateEntityProbe, NewState: "FAILED"}},
		{ConnectionID: "a", Layer: LayerWire, Category: CategoryMessage, Message: &MessageEvent{NodeName: "webcam", Matched: &no}},
		{ConnectionID: "a", Layer: LayerWire, Category: CategoryMessage, Message: &MessageEvent{NodeName: "create", Matched: &yes}},
		{ConnectionID: "a", Layer: LayerWire, Category: CategoryMessage, Message: &MessageEvent{NodeName: "create"}},
		{ConnectionID: "a", Layer: LayerDiscovery, Category: CategoryState, StateChange: &StateChangeEvent{Entity: StateEntityProbe, NewState: "WON"}},
		{ConnectionID: "a", Layer: LayerDiscovery, Category: CategoryState, StateChange: &StateChangeEvent{Entity: StateEntityAttempt, NewState: "CONNECTED"}},
	}
	path := writeTestLog(t, events)

	probe := StateEntityProbe
	attempt := StateEntityAttempt

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{name: "probe entity", filter: Filter{Entity: &probe}, want: 2},
		{name: "attempt entity", filter: Filter{Entity: &attempt}, want: 2},
		{name: "state", filter: Filter{State: "WON"}, want: 1},
		{name: "entity and state", filter: Filter{Entity: &attempt, State: "WON"}, want: 0},
		{name: "matched", filter: Filter{Matched: &yes}, want: 1},
		{name: "mismatched", filter: Filter{Matched: &no}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer r.Close()

			if got := len(readAll(t, r)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestReaderEach(t *testing.T) {
	path := writeTestLog(t, []Event{{ConnectionID: "a"}, {ConnectionID: "b"}, {ConnectionID: "c"}})

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	var ids []string
	if err := r.Each(func(e Event) error {
		ids = append(ids, e.ConnectionID)
		return nil
	}); err != nil {
		t.Fatalf("Each failed: %v", err)
	}
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Errorf("ids = %v, want [a b c]", ids)
	}

	r2, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r2.Close()

	stop := errors.New("stop")
	seen := 0
	err = r2.Each(func(Event) error {
		seen++
		return stop
	})
	if !errors.Is(err, stop) || seen != 1 {
		t.Errorf("Each = %v after %d events, want stop after 1", err, seen)
	}
}
