package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/google/uuid"
)

// MDNSConfig configures the mDNS adapter.
type MDNSConfig struct {
	// Interface restricts browsing to one network interface (empty = all).
	Interface string

	// BrowseWindow is how long each browse collects answers.
	BrowseWindow time.Duration

	// Logger is the operational logger (nil disables).
	Logger *slog.Logger
}

// browseFunc runs one DNS-SD browse, delivering answers until ctx ends.
type browseFunc func(ctx context.Context, service string, entries, removed chan *zeroconf.ServiceEntry) error

// MDNSAdapter lists nodes advertising ServiceType on the local network.
type MDNSAdapter struct {
	config MDNSConfig
	browse browseFunc
	dialer net.Dialer
}

// NewMDNSAdapter creates a new mDNS adapter.
func NewMDNSAdapter(config MDNSConfig) *MDNSAdapter {
	if config.BrowseWindow <= 0 {
		config.BrowseWindow = DefaultBrowseWindow
	}
	a := &MDNSAdapter{config: config}
	a.browse = func(ctx context.Context, service string, entries, removed chan *zeroconf.ServiceEntry) error {
		return zeroconf.Browse(ctx, service, Domain, entries, removed, a.browserOptions()...)
	}
	return a
}

// BondedDevices browses for one window and returns one device per instance.
func (a *MDNSAdapter) BondedDevices(ctx context.Context) ([]Device, error) {
	found, err := a.collect(ctx)
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(found))
	for _, dev := range found {
		devices = append(devices, dev)
	}
	slices.SortFunc(devices, func(x, y Device) int {
		switch {
		case x.Address() < y.Address():
			return -1
		case x.Address() > y.Address():
			return 1
		}
		return 0
	})
	return devices, nil
}

// collect browses for one window and aggregates answers by instance name.
// Addresses from multiple interfaces are combined into a single entry.
func (a *MDNSAdapter) collect(ctx context.Context) (map[string]*mdnsDevice, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.BrowseWindow)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	browseErr := make(chan error, 1)
	go func() {
		browseErr <- a.browse(ctx, ServiceType, entries, removed)
	}()

	devices := make(map[string]*mdnsDevice)
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return devices, browseFailure(ctx, browseErr)
			}
			dev := a.entryToDevice(entry)
			if dev == nil {
				continue
			}
			if existing, found := devices[dev.instance]; found {
				existing.merge(dev)
			} else {
				devices[dev.instance] = dev
			}

		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			if existing, found := devices[entry.Instance]; found {
				existing.addresses = removeAddresses(existing.addresses, entry)
				if len(existing.addresses) == 0 {
					delete(devices, entry.Instance)
				}
			}

		case err := <-browseErr:
			if err != nil {
				return nil, fmt.Errorf("browse %s: %w", ServiceType, err)
			}
			// Browse returned early; keep collecting until the window closes.
			browseErr = nil

		case <-ctx.Done():
			return devices, nil
		}
	}
}

// browseFailure waits for the browse result once its entry channel has
// closed. A nil channel means the result was already consumed.
func browseFailure(ctx context.Context, browseErr <-chan error) error {
	if browseErr == nil {
		return nil
	}
	select {
	case err := <-browseErr:
		if err != nil {
			return fmt.Errorf("browse %s: %w", ServiceType, err)
		}
	case <-ctx.Done():
	}
	return nil
}

// browserOptions returns zeroconf client options based on config.
func (a *MDNSAdapter) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	// Select specific interface if configured
	if a.config.Interface != "" {
		iface, err := net.InterfaceByName(a.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// entryToDevice converts a zeroconf entry to a device.
func (a *MDNSAdapter) entryToDevice(entry *zeroconf.ServiceEntry) *mdnsDevice {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	info, err := DecodeNodeTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		a.debugLog("ignoring malformed advertisement", "instance", entry.Instance, "error", err)
		return nil
	}

	// Collect addresses
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &mdnsDevice{
		adapter:   a,
		instance:  entry.Instance,
		host:      entry.HostName,
		port:      entry.Port,
		addresses: addrs,
		nodeName:  info.NodeName,
		services:  info.Services,
	}
}

func (a *MDNSAdapter) debugLog(msg string, args ...any) {
	if a.config.Logger != nil {
		a.config.Logger.Debug(msg, args...)
	}
}

// mdnsDevice is a node instance found by browsing.
type mdnsDevice struct {
	adapter *MDNSAdapter

	mu        sync.Mutex
	instance  string
	host      string
	port      int
	addresses []string
	nodeName  string
	services  []uuid.UUID
}

func (d *mdnsDevice) Address() string {
	return d.instance
}

func (d *mdnsDevice) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.nodeName != "" {
		return d.nodeName
	}
	return d.instance
}

func (d *mdnsDevice) ServiceIDs() []uuid.UUID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.services)
}

// RefreshServices browses again and updates the metadata from this instance's
// latest answer.
func (d *mdnsDevice) RefreshServices(ctx context.Context) error {
	found, err := d.adapter.collect(ctx)
	if err != nil {
		return err
	}
	latest, ok := found[d.instance]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, d.instance)
	}
	d.merge(latest)
	return nil
}

// Dial connects over TCP to the first reachable advertised address.
func (d *mdnsDevice) Dial(ctx context.Context, service uuid.UUID) (io.ReadWriteCloser, error) {
	d.mu.Lock()
	services := d.services
	targets := slices.Clone(d.addresses)
	if d.host != "" {
		targets = append(targets, d.host)
	}
	port := strconv.Itoa(d.port)
	d.mu.Unlock()

	if services != nil && !slices.Contains(services, service) {
		return nil, fmt.Errorf("%w: %s on %s", ErrServiceNotFound, service, d.instance)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: %s has no address", ErrInvalidAddress, d.instance)
	}

	var lastErr error
	for _, host := range targets {
		conn, err := d.adapter.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("dial %s: %w", d.instance, lastErr)
}

// merge folds a newer answer for the same instance into d.
func (d *mdnsDevice) merge(other *mdnsDevice) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.addresses = mergeAddresses(d.addresses, other.addresses)
	if other.host != "" {
		d.host = other.host
	}
	if other.port != 0 {
		d.port = other.port
	}
	if other.nodeName != "" {
		d.nodeName = other.nodeName
	}
	if other.services != nil {
		d.services = other.services
	}
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, new []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range new {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses removes addresses from a zeroconf entry from the list.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	// Build set of addresses to remove
	toRemove := make(map[string]bool)
	for _, ip := range entry.AddrIPv4 {
		toRemove[ip.String()] = true
	}
	for _, ip := range entry.AddrIPv6 {
		toRemove[ip.String()] = true
	}

	// Filter out removed addresses
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}

// AdvertiserConfig configures the node advertiser.
type AdvertiserConfig struct {
	// Interface restricts advertising to one network interface (empty = all).
	Interface string

	// TTL is the record TTL (zero uses the library default).
	TTL time.Duration
}

// MDNSAdvertiser registers a node instance under ServiceType.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{config: config}
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise starts advertising info, replacing any previous registration.
func (a *MDNSAdvertiser) Advertise(info *NodeInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		info.instanceName(),
		ServiceType,
		Domain,
		port,
		TXTRecordsToStrings(EncodeNodeTXT(info)),
		a.getInterfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register node service: %w", err)
	}

	a.server = server
	return nil
}

// Update replaces the TXT records of the active registration.
func (a *MDNSAdvertiser) Update(info *NodeInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotFound
	}
	a.server.SetText(TXTRecordsToStrings(EncodeNodeTXT(info)))
	return nil
}

// Stop withdraws the registration.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// Ensure MDNSAdapter implements Adapter interface.
var _ Adapter = (*MDNSAdapter)(nil)
