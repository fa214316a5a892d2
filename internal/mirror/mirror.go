package mirror

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedSnapshot reports a snapshot that cannot be reconciled, such as
// one with a missing or duplicated identity key.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Schema declares how records of one type are identified and compared.
// Declare it once per record type and pass it everywhere.
type Schema[R any] struct {
	// Key returns the record's identity key.
	Key func(R) string
	// Equal reports whether two versions of the same record are
	// indistinguishable for display purposes. A nil Equal treats every
	// surviving record as unchanged.
	Equal func(a, b R) bool
}

func (s Schema[R]) equal(a, b R) bool {
	if s.Equal == nil {
		return true
	}
	return s.Equal(a, b)
}

// Op identifies the kind of a diff event.
type Op string

const (
	OpRemove  Op = "remove"
	OpAppend  Op = "append"
	OpReplace Op = "replace"
)

// Event is a single mutation produced by Reconcile.
type Event[R any] struct {
	Op  Op
	Key string
	// Index is the record's position in the previous sequence for removals,
	// and its position in the reconciled sequence for appends and replacements.
	Index int
	// Record is the fresh version. Zero for removals.
	Record R
}

// Diff is an ordered list of events grouped as removals, then appends, then
// replacements.
type Diff[R any] struct {
	Events []Event[R]
}

// Empty reports whether the diff carries no events.
func (d Diff[R]) Empty() bool {
	return len(d.Events) == 0
}

// Count returns the number of events of the given kind.
func (d Diff[R]) Count(op Op) int {
	n := 0
	for _, ev := range d.Events {
		if ev.Op == op {
			n++
		}
	}
	return n
}

// Reconcile computes the events that turn previous into fresh while keeping
// the display order of previous. Surviving records keep their relative order,
// records new to fresh are appended after them in fresh's encounter order, and
// records whose versions differ according to schema.Equal are replaced in
// place. Reconcile does not modify its inputs.
//
// fresh is assumed to be valid (see Validate). Should a key repeat anyway, the
// last occurrence wins for replacement and the first decides append position.
func Reconcile[R any](previous, fresh []R, schema Schema[R]) Diff[R] {
	freshByKey := make(map[string]R, len(fresh))
	for _, rec := range fresh {
		freshByKey[schema.Key(rec)] = rec
	}

	var diff Diff[R]
	known := make(map[string]struct{}, len(previous)+len(fresh))
	surviving := make([]R, 0, len(previous))
	for i, old := range previous {
		key := schema.Key(old)
		known[key] = struct{}{}
		if _, ok := freshByKey[key]; !ok {
			diff.Events = append(diff.Events, Event[R]{Op: OpRemove, Key: key, Index: i})
			continue
		}
		surviving = append(surviving, old)
	}

	tail := len(surviving)
	for _, rec := range fresh {
		key := schema.Key(rec)
		if _, ok := known[key]; ok {
			continue
		}
		known[key] = struct{}{}
		diff.Events = append(diff.Events, Event[R]{Op: OpAppend, Key: key, Index: tail, Record: freshByKey[key]})
		tail++
	}

	for i, old := range surviving {
		key := schema.Key(old)
		cur := freshByKey[key]
		if schema.equal(old, cur) {
			continue
		}
		diff.Events = append(diff.Events, Event[R]{Op: OpReplace, Key: key, Index: i, Record: cur})
	}
	return diff
}

// Apply returns the sequence obtained by applying diff to previous. The result
// is a new slice; previous is left untouched.
func Apply[R any](previous []R, diff Diff[R], key func(R) string) []R {
	removed := make(map[string]struct{})
	replaced := make(map[string]R)
	var appended []R
	for _, ev := range diff.Events {
		switch ev.Op {
		case OpRemove:
			removed[ev.Key] = struct{}{}
		case OpAppend:
			appended = append(appended, ev.Record)
		case OpReplace:
			replaced[ev.Key] = ev.Record
		}
	}

	out := make([]R, 0, len(previous)-len(removed)+len(appended))
	for _, rec := range previous {
		k := key(rec)
		if _, gone := removed[k]; gone {
			continue
		}
		if next, ok := replaced[k]; ok {
			rec = next
		}
		out = append(out, rec)
	}
	return append(out, appended...)
}

// Validate checks that every record carries a non-empty identity key and that
// keys are unique within the snapshot.
func Validate[R any](snapshot []R, key func(R) string) error {
	seen := make(map[string]int, len(snapshot))
	for i, rec := range snapshot {
		k := key(rec)
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: record %d has no identity key", ErrMalformedSnapshot, i)
		}
		if first, dup := seen[k]; dup {
			return fmt.Errorf("%w: records %d and %d share key %q", ErrMalformedSnapshot, first, i, k)
		}
		seen[k] = i
	}
	return nil
}

// Mirror is the locally materialized copy of a remote collection, in display
// order. It is a value: Sync returns the next mirror and leaves the receiver
// as it was.
type Mirror[R any] struct {
	schema  Schema[R]
	records []R
}

// New returns an empty mirror for records described by schema.
func New[R any](schema Schema[R]) Mirror[R] {
	return Mirror[R]{schema: schema}
}

// Len returns the number of mirrored records.
func (m Mirror[R]) Len() int {
	return len(m.records)
}

// Records returns a copy of the mirrored records in display order.
func (m Mirror[R]) Records() []R {
	if len(m.records) == 0 {
		return nil
	}
	dup := make([]R, len(m.records))
	copy(dup, m.records)
	return dup
}

// Keys returns the identity keys in display order.
func (m Mirror[R]) Keys() []string {
	keys := make([]string, 0, len(m.records))
	for _, rec := range m.records {
		keys = append(keys, m.schema.Key(rec))
	}
	return keys
}

// Get returns the mirrored record with the given key.
func (m Mirror[R]) Get(key string) (R, bool) {
	for _, rec := range m.records {
		if m.schema.Key(rec) == key {
			return rec, true
		}
	}
	var zero R
	return zero, false
}

// Sync validates fresh, reconciles it against the mirror and returns the
// resulting mirror together with the diff that produced it. When fresh is
// malformed the receiver is returned unchanged along with the error.
func (m Mirror[R]) Sync(fresh []R) (Mirror[R], Diff[R], error) {
	if err := Validate(fresh, m.schema.Key); err != nil {
		return m, Diff[R]{}, err
	}
	diff := Reconcile(m.records, fresh, m.schema)
	if diff.Empty() {
		return m, diff, nil
	}
	return Mirror[R]{schema: m.schema, records: Apply(m.records, diff, m.schema.Key)}, diff, nil
}
