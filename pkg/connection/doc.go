// Package connection provides retry pacing for connection attempts.
//
// # Backoff
//
// Failed attempts are retried with exponential backoff:
//
//  1. Initial delay: 250 milliseconds
//  2. Exponential increase: 500ms, 1s
//  3. Maximum delay: 2 seconds
//  4. Reset on success
//
// BackoffConfig.MaxRetries caps the number of delays; Wait then reports
// ErrRetriesExhausted.
//
// # Jitter
//
// To keep concurrent probes from retrying in lockstep:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
package connection
