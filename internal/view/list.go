package view

import (
	"github.com/five82/tally/internal/mirror"
)

// Action names an interaction delegated to the list handler.
type Action string

// Handler receives interactions delegated by List.Dispatch. record is the
// version currently bound to key and input is the element's draft input.
type Handler[R any] func(key string, record R, action Action, input string)

// Element is one rendered row of a List.
type Element[R any] struct {
	key     string
	record  R
	content string
	input   string
	renders int
}

// Key returns the identity key the element is rendered for.
func (e *Element[R]) Key() string { return e.key }

// Record returns the record version last rendered into the element.
func (e *Element[R]) Record() R { return e.record }

// Content returns the rendered fragment.
func (e *Element[R]) Content() string { return e.content }

// Input returns the element's unsent draft input.
func (e *Element[R]) Input() string { return e.input }

// Renders counts how many times the element's content was produced.
func (e *Element[R]) Renders() int { return e.renders }

type binding[R any] struct {
	record     R
	generation int
}

// Stats counts the structural mutations performed by one Apply.
type Stats struct {
	Removed  int
	Appended int
	Replaced int
}

// Mutations returns the total number of touched elements.
func (s Stats) Mutations() int {
	return s.Removed + s.Appended + s.Replaced
}

// List is a rendered, identity-keyed sequence of elements kept in sync with a
// mirror by applying its diffs. The zero value is not usable; call New.
type List[R any] struct {
	render   func(R) string
	handler  Handler[R]
	elements []*Element[R]
	byKey    map[string]*Element[R]
	bindings map[string]binding[R]
	bindSeq  int
	cursor   string
}

// New returns an empty list that renders records with render and delegates
// interactions to handler. handler may be nil.
func New[R any](render func(R) string, handler Handler[R]) *List[R] {
	return &List[R]{
		render:   render,
		handler:  handler,
		byKey:    make(map[string]*Element[R]),
		bindings: make(map[string]binding[R]),
	}
}

// Apply performs the diff's events in order. Elements whose keys the diff
// does not name are left exactly as they were.
func (l *List[R]) Apply(diff mirror.Diff[R]) Stats {
	var stats Stats
	for _, ev := range diff.Events {
		switch ev.Op {
		case mirror.OpRemove:
			if l.remove(ev.Key) {
				stats.Removed++
			}
		case mirror.OpAppend:
			if _, exists := l.byKey[ev.Key]; exists {
				l.replace(ev.Key, ev.Record)
				stats.Replaced++
				continue
			}
			l.append(ev.Key, ev.Record)
			stats.Appended++
		case mirror.OpReplace:
			if l.replace(ev.Key, ev.Record) {
				stats.Replaced++
			}
		}
	}
	if l.cursor == "" && len(l.elements) > 0 {
		l.cursor = l.elements[0].key
	}
	return stats
}

func (l *List[R]) remove(key string) bool {
	idx := l.indexOf(key)
	if idx < 0 {
		return false
	}
	l.elements = append(l.elements[:idx], l.elements[idx+1:]...)
	delete(l.byKey, key)
	delete(l.bindings, key)

	if l.cursor == key {
		l.cursor = ""
		if n := len(l.elements); n > 0 {
			if idx >= n {
				idx = n - 1
			}
			l.cursor = l.elements[idx].key
		}
	}
	return true
}

func (l *List[R]) append(key string, record R) {
	el := &Element[R]{key: key}
	l.fill(el, record)
	l.elements = append(l.elements, el)
	l.byKey[key] = el
	l.bind(key, record)
}

func (l *List[R]) replace(key string, record R) bool {
	el, ok := l.byKey[key]
	if !ok {
		return false
	}
	l.fill(el, record)
	el.input = ""
	l.bind(key, record)
	return true
}

func (l *List[R]) fill(el *Element[R], record R) {
	el.record = record
	if l.render != nil {
		el.content = l.render(record)
	}
	el.renders++
}

func (l *List[R]) bind(key string, record R) {
	l.bindSeq++
	l.bindings[key] = binding[R]{record: record, generation: l.bindSeq}
}

func (l *List[R]) indexOf(key string) int {
	for i, el := range l.elements {
		if el.key == key {
			return i
		}
	}
	return -1
}

// Dispatch routes action to the handler with the record bound to key. It
// reports false when no element is bound to key.
func (l *List[R]) Dispatch(key string, action Action) bool {
	b, ok := l.bindings[key]
	if !ok || l.handler == nil {
		return false
	}
	l.handler(key, b.record, action, l.byKey[key].input)
	return true
}

// Binding returns the generation of the binding attached to key. A new
// generation is issued every time the binding is (re)attached.
func (l *List[R]) Binding(key string) (int, bool) {
	b, ok := l.bindings[key]
	return b.generation, ok
}

// SetInput stores draft input for the element with key.
func (l *List[R]) SetInput(key, value string) bool {
	el, ok := l.byKey[key]
	if !ok {
		return false
	}
	el.input = value
	return true
}

// Input returns the draft input of the element with key.
func (l *List[R]) Input(key string) string {
	if el, ok := l.byKey[key]; ok {
		return el.input
	}
	return ""
}

// Len returns the number of elements.
func (l *List[R]) Len() int { return len(l.elements) }

// At returns the element at display position i.
func (l *List[R]) At(i int) *Element[R] {
	if i < 0 || i >= len(l.elements) {
		return nil
	}
	return l.elements[i]
}

// Lookup returns the element rendered for key.
func (l *List[R]) Lookup(key string) (*Element[R], bool) {
	el, ok := l.byKey[key]
	return el, ok
}

// Keys returns the element keys in display order.
func (l *List[R]) Keys() []string {
	keys := make([]string, 0, len(l.elements))
	for _, el := range l.elements {
		keys = append(keys, el.key)
	}
	return keys
}

// Cursor returns the key of the focused element, or "" for an empty list.
func (l *List[R]) Cursor() string { return l.cursor }

// CursorIndex returns the display position of the focused element, or -1.
func (l *List[R]) CursorIndex() int {
	if l.cursor == "" {
		return -1
	}
	return l.indexOf(l.cursor)
}

// SetCursor focuses the element with key.
func (l *List[R]) SetCursor(key string) bool {
	if _, ok := l.byKey[key]; !ok {
		return false
	}
	l.cursor = key
	return true
}

// MoveCursor moves focus by delta positions, clamped to the list bounds.
func (l *List[R]) MoveCursor(delta int) {
	if len(l.elements) == 0 {
		return
	}
	idx := l.CursorIndex()
	if idx < 0 {
		idx = 0
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(l.elements) {
		idx = len(l.elements) - 1
	}
	l.cursor = l.elements[idx].key
}
