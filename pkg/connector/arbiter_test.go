package connector

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeConn(t *testing.T) *trackedConn {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { server.Close() })
	return &trackedConn{Conn: client}
}

func TestArbiterCommitOnce(t *testing.T) {
	a := NewArbiter()
	assert.Equal(t, OutcomePending, a.State())
	_, ok := a.Winner()
	assert.False(t, ok)

	first := pipeConn(t)
	second := pipeConn(t)

	assert.True(t, a.TryCommit(Match{Conn: first, Node: robot, Device: "a"}))
	assert.False(t, a.TryCommit(Match{Conn: second, Node: robot, Device: "b"}))

	assert.Equal(t, OutcomeCommitted, a.State())
	assert.False(t, first.closed.Load())
	assert.True(t, second.closed.Load())

	win, ok := a.Winner()
	require.True(t, ok)
	assert.Equal(t, "a", win.Device)
	assert.False(t, a.Reject())

	select {
	case <-a.Done():
	default:
		t.Fatal("Done not closed after commit")
	}
}

func TestArbiterRejectClosesLateMatch(t *testing.T) {
	a := NewArbiter()
	require.True(t, a.Reject())
	assert.False(t, a.Reject())
	assert.Equal(t, OutcomeRejected, a.State())

	late := pipeConn(t)
	assert.False(t, a.TryCommit(Match{Conn: late, Node: robot}))
	assert.True(t, late.closed.Load())

	_, ok := a.Winner()
	assert.False(t, ok)
}

func TestArbiterConcurrentCommits(t *testing.T) {
	const probers = 32

	for round := 0; round < 20; round++ {
		a := NewArbiter()
		conns := make([]*trackedConn, probers)
		for i := range conns {
			conns[i] = pipeConn(t)
		}

		var wins, rejects atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})

		for i := range conns {
			wg.Add(1)
			go func(c *trackedConn) {
				defer wg.Done()
				<-start
				if a.TryCommit(Match{Conn: c, Node: robot}) {
					wins.Add(1)
				}
			}(conns[i])
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if a.Reject() {
				rejects.Add(1)
			}
		}()

		close(start)
		wg.Wait()

		// Exactly one decision, and only a winner's conn stays open.
		assert.Equal(t, int32(1), wins.Load()+rejects.Load())
		open := 0
		for _, c := range conns {
			if !c.closed.Load() {
				open++
			}
		}
		assert.Equal(t, int(wins.Load()), open)
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "PENDING", OutcomePending.String())
	assert.Equal(t, "COMMITTED", OutcomeCommitted.String())
	assert.Equal(t, "REJECTED", OutcomeRejected.String())
	assert.Equal(t, "UNKNOWN", Outcome(9).String())
}
