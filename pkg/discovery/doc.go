// Package discovery finds candidate devices that may host the target node.
//
// An Adapter lists the devices the local stack already knows about; each
// Device reports the service ids it advertises once its metadata has
// arrived, and opens a duplex stream when dialed with a service id.
// Enumerate wraps the devices as Candidates and starts a best-effort
// metadata refresh for each.
//
// # mDNS (_rrbt._tcp)
//
// Nodes on an IP network advertise one instance under _rrbt._tcp.
// TXT records include: svc (comma-separated service ids) and optionally
// nodename and nodeid. The name and id are informational; the connector
// confirms identity with a handshake before trusting either.
//
// # Static devices
//
// StaticAdapter serves devices declared in configuration: tcp devices by
// host:port, rfcomm devices by bluetooth address and channel (Linux only).
package discovery
