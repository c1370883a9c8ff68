package config

import (
	"time"
)

// Adapter kinds.
const (
	AdapterMDNS   = "mdns"
	AdapterStatic = "static"
)

// Config is the on-disk configuration shared by rr-connect and rr-node.
type Config struct {
	// Service is the target service id (empty = the well-known default).
	Service string `yaml:"service,omitempty"`

	// Timeout bounds one connection attempt.
	Timeout Duration `yaml:"timeout,omitempty"`

	// PollInterval is the pause between service filter passes.
	PollInterval Duration `yaml:"poll_interval,omitempty"`

	// ProbeRetries retries failed probes of advertising candidates.
	ProbeRetries int `yaml:"probe_retries,omitempty"`

	Target  TargetConfig  `yaml:"target"`
	Adapter AdapterConfig `yaml:"adapter"`
	Node    NodeConfig    `yaml:"node"`
	Log     LogConfig     `yaml:"log"`
}

// TargetConfig names the node rr-connect looks for.
type TargetConfig struct {
	NodeID   string `yaml:"node_id,omitempty"`
	NodeName string `yaml:"node_name,omitempty"`
}

// AdapterConfig selects where candidate devices come from.
type AdapterConfig struct {
	// Kind is AdapterMDNS or AdapterStatic.
	Kind string `yaml:"kind"`

	// Interface restricts mDNS to one network interface.
	Interface string `yaml:"interface,omitempty"`

	// BrowseWindow is how long one mDNS browse collects answers.
	BrowseWindow Duration `yaml:"browse_window,omitempty"`

	// Devices is the static device list.
	Devices []DeviceConfig `yaml:"devices,omitempty"`
}

// DeviceConfig declares one static device.
type DeviceConfig struct {
	Name     string   `yaml:"name,omitempty"`
	Network  string   `yaml:"network"`
	Address  string   `yaml:"address"`
	Channel  uint8    `yaml:"channel,omitempty"`
	Services []string `yaml:"services,omitempty"`
}

// NodeConfig is the identity and listener of rr-node.
type NodeConfig struct {
	Name string `yaml:"name,omitempty"`
	ID   string `yaml:"id,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level,omitempty"`

	// ProtocolLog is a file path for CBOR protocol events.
	ProtocolLog string `yaml:"protocol_log,omitempty"`
}

// Duration wraps time.Duration for YAML serialization as a string.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
