// Package state tracks the health of tally's poll streams.
//
// # Overview
//
// Each stream goroutine records the outcome of every cycle with Record. The
// UI reads a Snapshot on its own tick and renders it in the header. Poll data
// does not pass through here; it goes to the UI as messages and lives in the
// UI's mirror. The Store only answers "is this stream getting through?".
//
//	Stream "polls" ──Record()──┐
//	                            ├──> Store ──Snapshot()──> header
//	Stream "node"  ──Record()──┘
//
// # Semantics
//
// A successful cycle resets ConsecutiveFailures and stamps LastSuccess. A
// failed one keeps the last error and increments the counter. A stream with
// two or more consecutive failures is reported as offline; a single failure
// shows as retrying so one slow response does not flash the header red.
//
// Snapshots are copies. Holding one never blocks Record and later records
// never change it.
//
// # Thread Safety
//
// All Store methods are safe for concurrent use. The zero Store is ready.
package state
