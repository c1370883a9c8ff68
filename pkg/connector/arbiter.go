package connector

import (
	"io"
	"sync/atomic"

	"github.com/rrbridge/rrbridge-go/pkg/wire"
)

// Outcome is the decision state of one connection attempt.
type Outcome int32

const (
	// OutcomePending means no prober has won and the attempt is still open.
	OutcomePending Outcome = iota

	// OutcomeCommitted means a prober's connection won.
	OutcomeCommitted

	// OutcomeRejected means the attempt ended without a winner.
	OutcomeRejected
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "PENDING"
	case OutcomeCommitted:
		return "COMMITTED"
	case OutcomeRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Match is a prober's matched connection.
type Match struct {
	// Conn is the open device connection.
	Conn io.ReadWriteCloser

	// Node is the identity the device reported.
	Node wire.NodeIdentity

	// Device is the candidate's address.
	Device string
}

// Arbiter decides which single matched connection, if any, wins an attempt.
//
// The state moves from pending to committed or rejected exactly once, through
// one compare-and-swap. No lock is held while probers do I/O.
type Arbiter struct {
	state atomic.Int32
	done  chan struct{}

	// Written once by the CAS winner before done is closed.
	winner Match
}

// NewArbiter returns a pending arbiter.
func NewArbiter() *Arbiter {
	return &Arbiter{done: make(chan struct{})}
}

// TryCommit offers a matched connection. It returns true if m won; a
// losing connection is closed before returning false.
func (a *Arbiter) TryCommit(m Match) bool {
	if !a.state.CompareAndSwap(int32(OutcomePending), int32(OutcomeCommitted)) {
		m.Conn.Close()
		return false
	}
	a.winner = m
	close(a.done)
	return true
}

// Reject ends the attempt without a winner. It returns false if a
// connection already committed.
func (a *Arbiter) Reject() bool {
	if !a.state.CompareAndSwap(int32(OutcomePending), int32(OutcomeRejected)) {
		return false
	}
	close(a.done)
	return true
}

// State returns the current outcome.
func (a *Arbiter) State() Outcome {
	return Outcome(a.state.Load())
}

// Done is closed once the outcome is decided and, for a commit, the winner
// is recorded.
func (a *Arbiter) Done() <-chan struct{} {
	return a.done
}

// Winner returns the committed match. It returns false until Done is
// closed, and always false after a reject.
func (a *Arbiter) Winner() (Match, bool) {
	select {
	case <-a.done:
		return a.winner, a.State() == OutcomeCommitted
	default:
		return Match{}, false
	}
}
