// Package connector finds a specific node among nearby devices and bridges
// a local channel to it.
//
// One attempt runs these steps:
//
//  1. Enumerate: list the adapter's devices as candidates and request a
//     service metadata refresh for each. No devices fails immediately with
//     discovery.ErrNoDevices.
//  2. Filter: every PollInterval, probe each candidate that now advertises
//     ServiceID and drop it from the retry set. Candidates without metadata
//     wait for the next pass. After Timeout the attempt fails with
//     ErrNodeNotFound.
//  3. Probe: dial the candidate, send an identity request, read the
//     length-prefixed reply and compare the identity with ConnectionParams.
//  4. Arbitrate: the first matching probe commits; later matches are closed.
//  5. Bridge: splice the winning device connection to the local channel.
//
// Probe failures never reach the caller. Probes run in one task group whose
// context is cancelled when the attempt ends, so no probe outlives it.
//
// # Basic Usage
//
//	adapter := discovery.NewMDNSAdapter(discovery.MDNSConfig{})
//	c := connector.New(adapter, connector.DefaultConfig())
//
//	params, _ := connector.ParseConnectionParams("", "create-robot")
//	conn, err := c.Connect(ctx, params)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
package connector
