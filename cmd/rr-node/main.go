// Command rr-node is a demo node: it advertises itself over mDNS, answers
// identity requests and echoes every payload byte back.
//
// Usage:
//
//	rr-node [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-name string          Node name (default "rr-node")
//	-id string            Node id (random if empty)
//	-port int             Listen port (default 48653)
//	-interface string     Network interface for mDNS
//	-advertise            Advertise over mDNS (default true)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  File path for protocol event logging (CBOR format)
//
// SIGHUP re-reads the configuration and re-advertises the service id.
//
// Examples:
//
//	# Serve a node named create-robot
//	rr-node -name create-robot
//
//	# Fixed id, no advertisement (reach it through a static adapter)
//	rr-node -name webcam -id 11111111-2222-4333-8444-555555555555 -advertise=false
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/rrbridge/rrbridge-go/internal/config"
	"github.com/rrbridge/rrbridge-go/pkg/discovery"
	rrlog "github.com/rrbridge/rrbridge-go/pkg/log"
	"github.com/rrbridge/rrbridge-go/pkg/node"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	name        = flag.String("name", "rr-node", "Node name")
	id          = flag.String("id", "", "Node id (random if empty)")
	port        = flag.Int("port", discovery.DefaultPort, "Listen port")
	iface       = flag.String("interface", "", "Network interface for mDNS")
	advertise   = flag.Bool("advertise", true, "Advertise over mDNS")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	protocolLog = flag.String("protocol-log", "", "File path for protocol event logging (CBOR format)")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	setupLogging(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	identity, err := cfg.NodeIdentity()
	if err != nil {
		log.Fatalf("Invalid node identity: %v", err)
	}

	log.Println("rr-node")
	log.Println("=======")
	log.Printf("Node name: %s", identity.Name)
	log.Printf("Node id: %s", identity.ID)

	var protocolLogger rrlog.Logger
	if cfg.Log.ProtocolLog != "" {
		fileLogger, err := rrlog.NewFileLogger(cfg.Log.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to create protocol logger: %v", err)
		}
		defer func() {
			fileLogger.Close()
			log.Printf("Protocol log: %d events written, %d dropped", fileLogger.Events(), fileLogger.Dropped())
		}()
		protocolLogger = fileLogger
		log.Printf("Protocol logging to: %s", cfg.Log.ProtocolLog)
	}

	responder := node.NewResponder(node.Config{
		Identity:       identity,
		Handler:        node.EchoHandler,
		Logger:         logger,
		ProtocolLogger: protocolLogger,
	})

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Node.Port))
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	log.Printf("Listening on %s as %s", ln.Addr(), responder.Identity())

	var (
		advertiser *discovery.MDNSAdvertiser
		info       *discovery.NodeInfo
	)
	if *advertise {
		service, err := cfg.ServiceID()
		if err != nil {
			log.Fatalf("Invalid service: %v", err)
		}

		info = &discovery.NodeInfo{
			NodeName: identity.Name,
			NodeID:   identity.ID,
			Services: []uuid.UUID{service},
			Port:     uint16(ln.Addr().(*net.TCPAddr).Port),
		}
		advertiser = discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{Interface: cfg.Adapter.Interface})
		if err := advertiser.Advertise(info); err != nil {
			log.Printf("Warning: Failed to advertise: %v", err)
			advertiser = nil
		} else {
			log.Printf("Advertising %s", discovery.ServiceType)
			defer advertiser.Stop()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	served := make(chan error, 1)
	go func() { served <- responder.Serve(ctx, ln) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

loop:
	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				if advertiser == nil {
					continue
				}
				if err := reloadServices(advertiser, info, loadConfig); err != nil {
					log.Printf("Reload failed: %v", err)
				} else {
					log.Printf("Advertised services: %v", info.Services)
				}
				continue
			}
			log.Printf("Received signal: %v", sig)
			break loop
		case err := <-served:
			log.Printf("Listener failed: %v", err)
			break loop
		}
	}

	log.Println("Shutting down...")
	responder.Stop()
	cancel()

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
		cfg, _, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if cfg.Node.Name == "" {
		cfg.Node.Name = *name
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Node.Name = *name
		case "id":
			cfg.Node.ID = *id
		case "port":
			cfg.Node.Port = *port
		case "interface":
			cfg.Adapter.Interface = *iface
		case "log-level":
			cfg.Log.Level = *logLevel
		case "protocol-log":
			cfg.Log.ProtocolLog = *protocolLog
		}
	})
	return cfg, nil
}

// advertisementUpdater replaces the TXT records of a live advertisement.
type advertisementUpdater interface {
	Update(info *discovery.NodeInfo) error
}

// reloadServices re-reads the configured service id and pushes it to the
// live advertisement. The node identity is fixed for the process lifetime.
func reloadServices(adv advertisementUpdater, info *discovery.NodeInfo, load func() (*config.Config, error)) error {
	cfg, err := load()
	if err != nil {
		return err
	}
	service, err := cfg.ServiceID()
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	updated := *info
	updated.Services = []uuid.UUID{service}
	if err := adv.Update(&updated); err != nil {
		return fmt.Errorf("update advertisement: %w", err)
	}
	*info = updated
	return nil
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
