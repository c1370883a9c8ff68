package connector

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rrbridge/rrbridge-go/pkg/connection"
	"github.com/rrbridge/rrbridge-go/pkg/discovery"
	"github.com/rrbridge/rrbridge-go/pkg/log"
)

// attempt is the shared state of one top-level connection attempt.
type attempt struct {
	id      uuid.UUID
	params  ConnectionParams
	arbiter *Arbiter

	probes   *errgroup.Group
	probeCtx context.Context
}

func newAttempt(params ConnectionParams) *attempt {
	return &attempt{
		id:      uuid.New(),
		params:  params,
		arbiter: NewArbiter(),
	}
}

// start opens the probe group. Cancelling ctx tears down in-flight probes.
func (at *attempt) start(ctx context.Context) {
	at.probes, at.probeCtx = errgroup.WithContext(ctx)
}

// wait blocks until every probe has returned.
func (at *attempt) wait() {
	_ = at.probes.Wait()
}

// poll is the service filter loop.
//
// Every PollInterval it probes the candidates that now advertise the target
// service and drops them from the retry set; candidates without metadata
// stay for the next pass. It returns nil once a probe commits, and
// ErrNodeNotFound once Timeout has elapsed since the loop started.
func (c *Connector) poll(ctx context.Context, at *attempt, candidates []*discovery.Candidate) error {
	c.logAttempt(at, "STARTED", "POLLING", "")

	start := time.Now()
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	remaining := candidates
	for {
		if at.arbiter.State() == OutcomeCommitted {
			return nil
		}
		if time.Since(start) > c.config.Timeout {
			if at.arbiter.Reject() {
				return ErrNodeNotFound
			}
			// A probe committed after the check above.
			return nil
		}

		kept := remaining[:0]
		for _, cand := range remaining {
			if !cand.Advertises(c.config.ServiceID) {
				kept = append(kept, cand)
				continue
			}
			c.spawnProbe(at, cand)
		}
		remaining = kept

		select {
		case <-ctx.Done():
			if at.arbiter.Reject() {
				return ctx.Err()
			}
			return nil
		case <-at.arbiter.Done():
		case <-ticker.C:
		}
	}
}

// spawnProbe probes cand in the attempt's group without blocking the loop.
func (c *Connector) spawnProbe(at *attempt, cand *discovery.Candidate) {
	addr := cand.Address()
	c.debugLog("probing candidate", "attempt", at.id, "device", addr)

	at.probes.Go(func() error {
		c.probeCandidate(at.probeCtx, at, cand, addr)
		// Probe failures stay local to the probe.
		return nil
	})
}

// probeCandidate runs the handshake against one candidate and offers a match
// to the arbiter. Failed probes are retried up to ProbeRetries times while
// the attempt is still pending; identity mismatches are final.
func (c *Connector) probeCandidate(ctx context.Context, at *attempt, cand *discovery.Candidate, addr string) {
	probeID := at.id.String()
	retries := c.retryBackoff()

	for {
		c.logState(probeID, addr, log.StateEntityProbe, "", "PROBING", "")

		conn, node, err := c.prober.Probe(ctx, cand, at.params)
		if err == nil {
			if at.arbiter.TryCommit(Match{Conn: conn, Node: node, Device: addr}) {
				c.logState(probeID, addr, log.StateEntityProbe, "PROBING", "WON", node.String())
			} else {
				c.logState(probeID, addr, log.StateEntityProbe, "PROBING", "LOST", node.String())
				c.debugLog("matched node lost the race", "attempt", at.id, "device", addr)
			}
			return
		}

		c.logState(probeID, addr, log.StateEntityProbe, "PROBING", "FAILED", err.Error())
		c.debugLog("probe failed", "attempt", at.id, "device", addr, "error", err)

		if retries == nil || errors.Is(err, ErrNoMatch) || at.arbiter.State() != OutcomePending {
			return
		}
		if err := retries.Wait(ctx); err != nil {
			return
		}
		c.debugLog("retrying probe", "attempt", at.id, "device", addr, "retry", retries.Attempts())
	}
}

// retryBackoff returns the per-candidate retry pacing, or nil when probes
// are not retried.
func (c *Connector) retryBackoff() *connection.Backoff {
	if c.config.ProbeRetries <= 0 {
		return nil
	}
	cfg := c.config.RetryBackoff
	cfg.MaxRetries = c.config.ProbeRetries
	return connection.NewBackoffWithConfig(cfg)
}
