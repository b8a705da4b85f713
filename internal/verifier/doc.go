// Package verifier implements the periodic verification caller.
//
// A [Verifier] owns one background goroutine that repeatedly calls
// GET {peer}/verification, sleeps for a fixed interval measured from the end
// of one call to the start of the next, and tallies the outcomes into
// [Stats]. Transport failures and non-2xx answers are counted as errors and
// logged; they never terminate the loop.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeout and size limit
//   - [Verifier]: start/stop-controllable polling loop with statistics
//   - [Stats]: immutable snapshot of the statistics
//   - [TransportError], [RemoteError]: the two failure classes of a tick
package verifier
