package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/rrbridge/rrbridge-go/pkg/connector"
	"github.com/rrbridge/rrbridge-go/pkg/discovery"
)

// Console handles interactive mode for rr-connect.
type Console struct {
	adapter   discovery.Adapter
	connector *connector.Connector
	proxy     *proxy
	listen    string
	rl        *readline.Instance
}

// NewConsole creates a readline console over the running proxy.
func NewConsole(adapter discovery.Adapter, c *connector.Connector, p *proxy, listen string) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "rr> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Console{
		adapter:   adapter,
		connector: c,
		proxy:     p,
		listen:    listen,
		rl:        rl,
	}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "devices", "d":
			c.cmdDevices(ctx)

		case "target", "t":
			c.cmdTarget(args)

		case "find", "f":
			c.cmdFind(ctx)

		case "sessions", "s":
			c.cmdSessions()

		case "close":
			c.cmdClose(args)

		case "status":
			c.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
rr-connect Commands:
  Discovery:
    devices                 - List devices and the services they advertise
    find                    - Run one connection attempt and report the node

  Bridging:
    target <name> [node-id] - Change the node new clients are bridged to ('*' = any)
    sessions                - List open bridge sessions
    close <session-id>      - Close a session (id prefix is enough)

  General:
    status                  - Show listener and target
    help                    - Show this help
    quit                    - Exit`)
}

func (c *Console) cmdDevices(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.connector.Config().Timeout)
	defer cancel()

	devices, err := c.adapter.BondedDevices(ctx)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Device listing failed: %v\n", err)
		return
	}
	if len(devices) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No devices")
		return
	}

	fmt.Fprintf(c.rl.Stdout(), "\nDevices (%d):\n", len(devices))
	for _, d := range devices {
		if err := d.RefreshServices(ctx); err != nil {
			fmt.Fprintf(c.rl.Stdout(), "  %s: refresh failed: %v\n", d.Address(), err)
		}
		target := ""
		if (&discovery.Candidate{Device: d}).Advertises(c.connector.Config().ServiceID) {
			target = " [target service]"
		}
		fmt.Fprintf(c.rl.Stdout(), "  %s (%s)%s\n", d.Name(), d.Address(), target)
		for _, s := range d.ServiceIDs() {
			fmt.Fprintf(c.rl.Stdout(), "      service %s\n", s)
		}
	}
}

func (c *Console) cmdTarget(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(c.rl.Stdout(), "Target: %s\n", c.proxy.target())
		return
	}

	name := args[0]
	if name == "*" {
		name = ""
	}
	id := ""
	if len(args) > 1 {
		id = args[1]
	}

	params, err := connector.ParseConnectionParams(id, name)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid target: %v\n", err)
		return
	}
	if !params.IsSet() {
		fmt.Fprintln(c.rl.Stdout(), "Target needs a node name or id")
		return
	}
	c.proxy.retarget(params)
	fmt.Fprintf(c.rl.Stdout(), "Target set to %s\n", params)
}

func (c *Console) cmdFind(ctx context.Context) {
	params := c.proxy.target()
	fmt.Fprintf(c.rl.Stdout(), "Looking for %s...\n", params)

	start := time.Now()
	conn, err := c.connector.Connect(ctx, params)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Not found: %v\n", err)
		return
	}
	defer conn.Close()

	fmt.Fprintf(c.rl.Stdout(), "Found %s in %v\n", conn.Node, time.Since(start).Round(time.Millisecond))
}

func (c *Console) cmdSessions() {
	sessions := c.proxy.list()
	if len(sessions) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No open sessions")
		return
	}

	fmt.Fprintf(c.rl.Stdout(), "\nSessions (%d):\n", len(sessions))
	for _, s := range sessions {
		stats := s.Stats()
		fmt.Fprintf(c.rl.Stdout(), "  %s  %s  in=%d out=%d\n",
			shortID(s.ID()), s.State(), stats.RemoteToLocal, stats.LocalToRemote)
	}
}

func (c *Console) cmdClose(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: close <session-id>")
		return
	}
	if err := c.proxy.closeSession(args[0]); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Close failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Session %s closed\n", args[0])
}

func (c *Console) cmdStatus() {
	cfg := c.connector.Config()
	fmt.Fprintln(c.rl.Stdout(), "\nrr-connect Status:")
	fmt.Fprintf(c.rl.Stdout(), "  Listening:  %s\n", c.listen)
	fmt.Fprintf(c.rl.Stdout(), "  Target:     %s\n", c.proxy.target())
	fmt.Fprintf(c.rl.Stdout(), "  Service:    %s\n", cfg.ServiceID)
	fmt.Fprintf(c.rl.Stdout(), "  Timeout:    %v (poll %v)\n", cfg.Timeout, cfg.PollInterval)
	fmt.Fprintf(c.rl.Stdout(), "  Sessions:   %d\n", len(c.proxy.list()))
}
