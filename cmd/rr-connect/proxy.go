package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/rrbridge/rrbridge-go/pkg/connection"
	"github.com/rrbridge/rrbridge-go/pkg/connector"
	"github.com/rrbridge/rrbridge-go/pkg/transport"
)

// connectFunc runs one connection attempt bridged to local.
type connectFunc func(ctx context.Context, params connector.ConnectionParams, local io.ReadWriteCloser) (*transport.Session, error)

// proxy bridges every client of a local listener to the target node.
//
// Attempts run one at a time in accept order. After a failed attempt the
// proxy waits out a backoff before accepting the next client.
type proxy struct {
	connect connectFunc
	params  connector.ConnectionParams
	backoff *connection.Backoff

	mu       sync.Mutex
	sessions map[uuid.UUID]*transport.Session
}

func newProxy(connect connectFunc, params connector.ConnectionParams, backoff *connection.Backoff) *proxy {
	return &proxy{
		connect:  connect,
		params:   params,
		backoff:  backoff,
		sessions: make(map[uuid.UUID]*transport.Session),
	}
}

// target returns the params used for the next attempt.
func (p *proxy) target() connector.ConnectionParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// retarget changes the node later attempts look for.
func (p *proxy) retarget(params connector.ConnectionParams) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.params = params
}

// serve accepts clients until ctx ends.
func (p *proxy) serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	for {
		client, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				p.closeAll()
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		if err := p.handle(ctx, client); err != nil {
			delay := p.backoff.Peek()
			log.Printf("[PROXY] Attempt for %s failed: %v (next attempt in %v)", client.RemoteAddr(), err, delay)
			if p.backoff.Wait(ctx) != nil {
				p.closeAll()
				return nil
			}
			continue
		}
		p.backoff.Reset()
	}
}

// handle runs one attempt for client and tracks the resulting session.
func (p *proxy) handle(ctx context.Context, client net.Conn) error {
	params := p.target()
	log.Printf("[PROXY] Client %s connected, looking for %s", client.RemoteAddr(), params)

	session, err := p.connect(ctx, params, client)
	if err != nil {
		client.Close()
		return err
	}

	p.mu.Lock()
	p.sessions[session.ID()] = session
	p.mu.Unlock()
	log.Printf("[PROXY] Session %s open for %s", shortID(session.ID()), client.RemoteAddr())

	go func() {
		err := session.Wait()
		p.mu.Lock()
		delete(p.sessions, session.ID())
		p.mu.Unlock()

		stats := session.Stats()
		if err != nil {
			log.Printf("[PROXY] Session %s ended: %v", shortID(session.ID()), err)
		} else {
			log.Printf("[PROXY] Session %s closed (%d bytes in, %d bytes out)",
				shortID(session.ID()), stats.RemoteToLocal, stats.LocalToRemote)
		}
	}()
	return nil
}

// list returns the open sessions ordered by id.
func (p *proxy) list() []*transport.Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*transport.Session, 0, len(p.sessions))
	for _, s := range p.sessions {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *transport.Session) int {
		return strings.Compare(a.ID().String(), b.ID().String())
	})
	return out
}

// closeSession closes the session whose id starts with prefix.
func (p *proxy) closeSession(prefix string) error {
	var match *transport.Session
	for _, s := range p.list() {
		if strings.HasPrefix(s.ID().String(), prefix) {
			if match != nil {
				return fmt.Errorf("session prefix %q is ambiguous", prefix)
			}
			match = s
		}
	}
	if match == nil {
		return errSessionNotFound
	}
	return match.Close()
}

func (p *proxy) closeAll() {
	for _, s := range p.list() {
		s.Close()
	}
}

var errSessionNotFound = errors.New("session not found")

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
