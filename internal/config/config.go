// Package config loads the YAML configuration shared by the rrbridge
// commands.
//
// Config file locations (priority order):
//  1. $RRBRIDGE_CONFIG
//  2. ./rrbridge.yaml
//  3. ~/.config/rrbridge/config.yaml
//  4. /etc/rrbridge/config.yaml
//
// Command-line flags override values from the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rrbridge/rrbridge-go/pkg/connector"
	"github.com/rrbridge/rrbridge-go/pkg/discovery"
	"github.com/rrbridge/rrbridge-go/pkg/log"
	"github.com/rrbridge/rrbridge-go/pkg/wire"
)

// ErrUnknownAdapter is returned for an adapter kind other than mdns or static.
var ErrUnknownAdapter = errors.New("unknown adapter kind")

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = Duration(connector.DefaultTimeout)
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(connector.DefaultPollInterval)
	}
	if c.Adapter.Kind == "" {
		c.Adapter.Kind = AdapterMDNS
		if len(c.Adapter.Devices) > 0 {
			c.Adapter.Kind = AdapterStatic
		}
	}
	if c.Adapter.BrowseWindow == 0 {
		c.Adapter.BrowseWindow = Duration(discovery.DefaultBrowseWindow)
	}
	if c.Node.Port == 0 {
		c.Node.Port = discovery.DefaultPort
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ServiceID returns the parsed target service id.
func (c *Config) ServiceID() (uuid.UUID, error) {
	if c.Service == "" {
		return discovery.DefaultServiceID, nil
	}
	id, err := uuid.Parse(c.Service)
	if err != nil {
		return uuid.Nil, fmt.Errorf("service: %w", err)
	}
	return id, nil
}

// Params returns the connection target.
func (c *Config) Params() (connector.ConnectionParams, error) {
	return connector.ParseConnectionParams(c.Target.NodeID, c.Target.NodeName)
}

// ConnectorConfig converts the file settings into a connector configuration.
func (c *Config) ConnectorConfig(logger *slog.Logger, protocolLogger log.Logger) (connector.Config, error) {
	service, err := c.ServiceID()
	if err != nil {
		return connector.Config{}, err
	}

	cc := connector.DefaultConfig()
	cc.ServiceID = service
	cc.Timeout = c.Timeout.Duration()
	cc.PollInterval = c.PollInterval.Duration()
	cc.ProbeRetries = c.ProbeRetries
	cc.Logger = logger
	cc.ProtocolLogger = protocolLogger
	return cc, nil
}

// StaticDevices converts the configured device list.
func (c *Config) StaticDevices() ([]discovery.StaticDevice, error) {
	devices := make([]discovery.StaticDevice, 0, len(c.Adapter.Devices))
	for i, d := range c.Adapter.Devices {
		services := make([]uuid.UUID, 0, len(d.Services))
		for _, s := range d.Services {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("device %d service %q: %w", i, s, err)
			}
			services = append(services, id)
		}
		devices = append(devices, discovery.StaticDevice{
			Name:     d.Name,
			Network:  d.Network,
			Address:  d.Address,
			Channel:  d.Channel,
			Services: services,
		})
	}
	return devices, nil
}

// NewAdapter builds the configured device adapter.
func (c *Config) NewAdapter(logger *slog.Logger) (discovery.Adapter, error) {
	switch c.Adapter.Kind {
	case AdapterMDNS:
		return discovery.NewMDNSAdapter(discovery.MDNSConfig{
			Interface:    c.Adapter.Interface,
			BrowseWindow: c.Adapter.BrowseWindow.Duration(),
			Logger:       logger,
		}), nil
	case AdapterStatic:
		devices, err := c.StaticDevices()
		if err != nil {
			return nil, err
		}
		adapter, err := discovery.NewStaticAdapter(devices)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, c.Adapter.Kind)
	}
}

// NodeIdentity returns rr-node's identity. An empty id generates a random one.
func (c *Config) NodeIdentity() (wire.NodeIdentity, error) {
	if c.Node.ID == "" {
		return wire.NodeIdentity{Name: c.Node.Name, ID: uuid.New()}, nil
	}
	id, err := uuid.Parse(c.Node.ID)
	if err != nil {
		return wire.NodeIdentity{}, fmt.Errorf("node id: %w", err)
	}
	return wire.NodeIdentity{Name: c.Node.Name, ID: id}, nil
}

// SlogLevel maps Log.Level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
