package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrbridge/rrbridge-go/pkg/connector"
	"github.com/rrbridge/rrbridge-go/pkg/discovery"
	"github.com/rrbridge/rrbridge-go/pkg/wire"
)

const sampleYAML = `
timeout: 2s
poll_interval: 50ms
probe_retries: 2
target:
  node_name: create-robot
  node_id: 6f1e2a3b-0c4d-4e5f-8a9b-0c1d2e3f4a5b
adapter:
  devices:
    - name: bench
      network: tcp
      address: 127.0.0.1:48653
    - network: rfcomm
      address: "00:11:22:33:44:55"
      channel: 3
      services: ["25bb0b62-861a-4974-a1b8-18ed5495aa07"]
log:
  level: debug
  protocol_log: /tmp/rr.cbor
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rrbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, connector.DefaultTimeout, cfg.Timeout.Duration())
	assert.Equal(t, connector.DefaultPollInterval, cfg.PollInterval.Duration())
	assert.Equal(t, AdapterMDNS, cfg.Adapter.Kind)
	assert.Equal(t, discovery.DefaultBrowseWindow, cfg.Adapter.BrowseWindow.Duration())
	assert.Equal(t, discovery.DefaultPort, cfg.Node.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Zero(t, cfg.ProbeRetries)
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, sampleYAML)

	cfg, got, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	assert.Equal(t, 2*time.Second, cfg.Timeout.Duration())
	assert.Equal(t, 50*time.Millisecond, cfg.PollInterval.Duration())
	assert.Equal(t, 2, cfg.ProbeRetries)
	assert.Equal(t, "create-robot", cfg.Target.NodeName)
	// Devices without an explicit kind select the static adapter.
	assert.Equal(t, AdapterStatic, cfg.Adapter.Kind)
	require.Len(t, cfg.Adapter.Devices, 2)
	assert.Equal(t, uint8(3), cfg.Adapter.Devices[1].Channel)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "/tmp/rr.cbor", cfg.Log.ProtocolLog)
}

func TestLoadFromPathErrors(t *testing.T) {
	_, _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, _, err = LoadFromPath(writeConfig(t, "timeout: [not, a, duration]\n"))
	assert.Error(t, err)

	_, _, err = LoadFromPath(writeConfig(t, "timeout: soon\n"))
	assert.Error(t, err)
}

func TestConnectorConfig(t *testing.T) {
	cfg, _, err := LoadFromPath(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	cc, err := cfg.ConnectorConfig(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, discovery.DefaultServiceID, cc.ServiceID)
	assert.Equal(t, 2*time.Second, cc.Timeout)
	assert.Equal(t, 50*time.Millisecond, cc.PollInterval)
	assert.Equal(t, 2, cc.ProbeRetries)

	params, err := cfg.Params()
	require.NoError(t, err)
	assert.True(t, params.Matches(wire.NodeIdentity{
		Name: "create-robot",
		ID:   uuid.MustParse("6f1e2a3b-0c4d-4e5f-8a9b-0c1d2e3f4a5b"),
	}))

	cfg.Service = "bogus"
	_, err = cfg.ConnectorConfig(nil, nil)
	assert.Error(t, err)
}

func TestNewAdapter(t *testing.T) {
	cfg, _, err := LoadFromPath(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	adapter, err := cfg.NewAdapter(nil)
	require.NoError(t, err)
	assert.IsType(t, &discovery.StaticAdapter{}, adapter)

	cfg.Adapter.Kind = AdapterMDNS
	adapter, err = cfg.NewAdapter(nil)
	require.NoError(t, err)
	assert.IsType(t, &discovery.MDNSAdapter{}, adapter)

	cfg.Adapter.Kind = "carrier-pigeon"
	_, err = cfg.NewAdapter(nil)
	assert.ErrorIs(t, err, ErrUnknownAdapter)
}

func TestStaticDevicesBadService(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Adapter.Devices = []DeviceConfig{{Network: "tcp", Address: "h:1", Services: []string{"nope"}}}

	_, err := cfg.StaticDevices()
	assert.Error(t, err)

	cfg.Adapter.Kind = AdapterStatic
	_, err = cfg.NewAdapter(nil)
	assert.Error(t, err)
}

func TestStaticDevicesBadNetwork(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Adapter.Kind = AdapterStatic
	cfg.Adapter.Devices = []DeviceConfig{{Network: "udp", Address: "h:1"}}

	adapter, err := cfg.NewAdapter(nil)
	assert.ErrorIs(t, err, discovery.ErrUnsupportedNetwork)
	assert.Nil(t, adapter)
}

func TestNodeIdentity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Node.Name = "create-robot"

	ident, err := cfg.NodeIdentity()
	require.NoError(t, err)
	assert.Equal(t, "create-robot", ident.Name)
	assert.NotEqual(t, uuid.Nil, ident.ID)

	cfg.Node.ID = "6f1e2a3b-0c4d-4e5f-8a9b-0c1d2e3f4a5b"
	ident, err = cfg.NodeIdentity()
	require.NoError(t, err)
	assert.Equal(t, cfg.Node.ID, ident.ID.String())

	cfg.Node.ID = "x"
	_, err = cfg.NodeIdentity()
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Target.NodeName = "webcam"
	cfg.Timeout = Duration(1500 * time.Millisecond)
	require.NoError(t, cfg.Save(path))

	loaded, _, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestFindConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, "target:\n  node_name: x\n")
	t.Setenv(EnvConfigPath, path)

	assert.Equal(t, path, FindConfigPath())

	cfg, got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, "x", cfg.Target.NodeName)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{Log: LogConfig{Level: tt.level}}
		assert.Equal(t, tt.want, cfg.SlogLevel(), tt.level)
	}
}
