// Package poller provides the HTTP polling machinery behind the live counter.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with per-request timeout and size limits
//   - [Scheduler]: Runs a job immediately, then on an interval while visible
//   - [Response]: Result of a single request
//
// Users of the livecounter library should not need to interact with this
// package directly. Configuration is done through the livecounter package.
package poller
