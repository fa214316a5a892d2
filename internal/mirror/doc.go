// Package mirror reconciles a locally held copy of a remote collection against
// freshly fetched snapshots.
//
// # Overview
//
// The node owns every record; tally only ever holds a mirror of them. Each
// poll cycle produces a snapshot, and Reconcile works out the smallest set of
// events that turns the previous mirror into the new one:
//
//	previous: [1 2 3]      fresh: [4 3 2']
//	events:   remove 1, append 4, replace 2
//	result:   [2' 3 4]
//
// Display order is discovery order. A record keeps its position for as long
// as it exists; updates replace it in place and new records always land at the
// tail in the order the snapshot listed them. The order of fresh only matters
// for where new records go.
//
// # Equality
//
// Whether a surviving record changed is decided by Schema.Equal, declared once
// per record type next to the type itself. Fields left out of the predicate
// can change remotely without producing a replace event.
//
// # State
//
// Mirror is a plain value. Sync returns the next mirror instead of mutating the
// receiver, so callers thread it from cycle to cycle and a rejected snapshot
// simply leaves them holding the old one.
//
// # Malformed snapshots
//
// Validate rejects snapshots with empty or repeated identity keys. Sync calls
// it first; a failed cycle returns ErrMalformedSnapshot and the unchanged
// mirror.
package mirror
