// Package logtail reads the tail of tally's own log file for the logs command.
//
// # Reading
//
// Read returns the last N lines of a file using a ring buffer of N entries, so
// memory stays O(N) regardless of file size. A missing file yields nil, nil.
//
// # Parsing
//
// tally writes logfmt when logging to a file:
//
//	time=2026-10-19T12:00:00Z level=warn msg="poll cycle failed" stream=polls err="..."
//
// Parse splits such a line into time, level, message and the remaining
// fields. AtLeast filters lines by minimum level and keeps anything it cannot
// parse, so multi-line output is never hidden.
package logtail
