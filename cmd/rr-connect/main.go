// Command rr-connect finds a node among nearby devices and exposes it on a
// local TCP port.
//
// Every client that connects to the local listener triggers one connection
// attempt. The first device whose node matches the target is bridged to the
// client until either side closes.
//
// Usage:
//
//	rr-connect [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-node-name string     Target node name
//	-node-id string       Target node id ('*' = any)
//	-adapter string       Device adapter: mdns, static
//	-interface string     Network interface for mDNS
//	-listen string        Local listen address (default "127.0.0.1:48654")
//	-timeout duration     Connection attempt timeout (default 5s)
//	-poll duration        Service filter poll interval (default 100ms)
//	-probe-retries int    Retries for failed probes (default 0)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  File path for protocol event logging (CBOR format)
//	-interactive          Enable interactive command mode
//
// Examples:
//
//	# Bridge local clients to the node named create-robot
//	rr-connect -node-name create-robot
//
//	# Use a static device list and capture protocol events
//	rr-connect -config rrbridge.yaml -protocol-log /tmp/rr.cbor -interactive
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rrbridge/rrbridge-go/internal/config"
	"github.com/rrbridge/rrbridge-go/pkg/connection"
	"github.com/rrbridge/rrbridge-go/pkg/connector"
	rrlog "github.com/rrbridge/rrbridge-go/pkg/log"
)

// DefaultListen is the local address clients connect to.
const DefaultListen = "127.0.0.1:48654"

var (
	configFile   = flag.String("config", "", "Configuration file path")
	nodeName     = flag.String("node-name", "", "Target node name")
	nodeID       = flag.String("node-id", "", "Target node id ('*' = any)")
	adapterKind  = flag.String("adapter", "", "Device adapter: mdns, static")
	iface        = flag.String("interface", "", "Network interface for mDNS")
	listenAddr   = flag.String("listen", DefaultListen, "Local listen address")
	timeout      = flag.Duration("timeout", connector.DefaultTimeout, "Connection attempt timeout")
	pollInterval = flag.Duration("poll", connector.DefaultPollInterval, "Service filter poll interval")
	probeRetries = flag.Int("probe-retries", 0, "Retries for failed probes")
	logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	protocolLog  = flag.String("protocol-log", "", "File path for protocol event logging (CBOR format)")
	interactive  = flag.Bool("interactive", false, "Enable interactive command mode")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setupLogging(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(stdlogWriter{}, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	log.Println("rr-connect")
	log.Println("==========")

	params, err := cfg.Params()
	if err != nil {
		log.Fatalf("Invalid target: %v", err)
	}
	if !params.IsSet() {
		log.Fatalf("No target: set -node-name or -node-id")
	}
	log.Printf("Target: %s", params)
	log.Printf("Adapter: %s", cfg.Adapter.Kind)

	var protocolLogger rrlog.Logger
	var fileLogger *rrlog.FileLogger
	if cfg.Log.ProtocolLog != "" {
		fileLogger, err = rrlog.NewFileLogger(cfg.Log.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to create protocol logger: %v", err)
		}
		defer func() {
			fileLogger.Close()
			log.Printf("Protocol log: %d events written, %d dropped", fileLogger.Events(), fileLogger.Dropped())
		}()
		log.Printf("Protocol logging to: %s", cfg.Log.ProtocolLog)
	}
	protocolLogger = buildProtocolLogger(fileLogger, logger, cfg.SlogLevel() == slog.LevelDebug)

	adapter, err := cfg.NewAdapter(logger)
	if err != nil {
		log.Fatalf("Failed to create adapter: %v", err)
	}

	cc, err := cfg.ConnectorConfig(logger, protocolLogger)
	if err != nil {
		log.Fatalf("Invalid connector settings: %v", err)
	}
	c := connector.New(adapter, cc)

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	log.Printf("Listening on %s", ln.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newProxy(c.ConnectTo, params, connection.NewBackoff())

	served := make(chan error, 1)
	go func() { served <- p.serve(ctx, ln) }()

	if *interactive {
		console, err := NewConsole(adapter, c, p, ln.Addr().String())
		if err != nil {
			log.Fatalf("Failed to create console: %v", err)
		}
		// Redirect log output through readline to avoid interfering with input
		log.SetOutput(console.Stdout())
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	case err := <-served:
		if err != nil {
			log.Printf("Listener failed: %v", err)
		}
	}

	log.Println("Shutting down...")
	cancel()

	select {
	case <-served:
	case <-time.After(2 * time.Second):
		log.Println("Timed out waiting for sessions to close")
	}

	log.Println("Goodbye!")
}

// loadConfig reads the config file and applies flags set on the command line.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, _, err = config.LoadFromPath(*configFile)
	} else {
		var path string
		cfg, path, err = config.Load()
		if path != "" {
			log.Printf("Using config file: %s", path)
		}
	}
	if err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "node-name":
			cfg.Target.NodeName = *nodeName
		case "node-id":
			cfg.Target.NodeID = *nodeID
		case "adapter":
			cfg.Adapter.Kind = *adapterKind
		case "interface":
			cfg.Adapter.Interface = *iface
		case "timeout":
			cfg.Timeout = config.Duration(*timeout)
		case "poll":
			cfg.PollInterval = config.Duration(*pollInterval)
		case "probe-retries":
			cfg.ProbeRetries = *probeRetries
		case "log-level":
			cfg.Log.Level = *logLevel
		case "protocol-log":
			cfg.Log.ProtocolLog = *protocolLog
		}
	})
	return cfg, nil
}

// buildProtocolLogger combines the file capture with a slog mirror at debug level.
func buildProtocolLogger(file *rrlog.FileLogger, logger *slog.Logger, debug bool) rrlog.Logger {
	var loggers []rrlog.Logger
	// Only append when non-nil to avoid typed-nil interface issue.
	if file != nil {
		loggers = append(loggers, file)
	}
	if debug {
		loggers = append(loggers, rrlog.NewSlogAdapter(logger))
	}

	switch len(loggers) {
	case 0:
		return nil
	case 1:
		return loggers[0]
	default:
		return rrlog.NewMultiLogger(loggers...)
	}
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}

// stdlogWriter forwards to the standard logger's current output so slog lines
// follow log.SetOutput.
type stdlogWriter struct{}

func (stdlogWriter) Write(p []byte) (int, error) {
	return log.Writer().Write(p)
}
