package discovery

import (
	"context"
	"fmt"
	"log/slog"
)

// Enumerate lists the adapter's devices as candidates and asks every one of
// them to refresh its service metadata in the background.
//
// Refresh failures are logged at debug level and otherwise ignored; callers
// observe progress through Candidate.Advertises. The refresh goroutines stop
// with ctx. An empty device list fails with ErrNoDevices.
func Enumerate(ctx context.Context, adapter Adapter, logger *slog.Logger) ([]*Candidate, error) {
	devices, err := adapter.BondedDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}

	candidates := make([]*Candidate, 0, len(devices))
	for _, dev := range devices {
		if dev == nil {
			continue
		}
		candidates = append(candidates, &Candidate{Device: dev})

		go func(dev Device) {
			if err := dev.RefreshServices(ctx); err != nil && logger != nil {
				logger.Debug("service refresh failed", "device", dev.Address(), "error", err)
			}
		}(dev)
	}
	if len(candidates) == 0 {
		return nil, ErrNoDevices
	}

	return candidates, nil
}
