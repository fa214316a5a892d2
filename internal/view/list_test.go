package view

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/tally/internal/mirror"
)

type item struct {
	ID    string
	Count int
}

var itemSchema = mirror.Schema[item]{
	Key:   func(i item) string { return i.ID },
	Equal: func(a, b item) bool { return a.Count == b.Count },
}

func renderItem(i item) string {
	return fmt.Sprintf("#%s count=%d", i.ID, i.Count)
}

type call struct {
	Key    string
	Record item
	Action Action
	Input  string
}

// harness threads a mirror through successive snapshots the way the UI does.
type harness struct {
	mirror mirror.Mirror[item]
	list   *List[item]
	calls  []call
}

func newHarness() *harness {
	h := &harness{mirror: mirror.New(itemSchema)}
	h.list = New(renderItem, func(key string, record item, action Action, input string) {
		h.calls = append(h.calls, call{key, record, action, input})
	})
	return h
}

func (h *harness) sync(t *testing.T, fresh ...item) Stats {
	t.Helper()
	next, diff, err := h.mirror.Sync(fresh)
	require.NoError(t, err)
	h.mirror = next
	return h.list.Apply(diff)
}

func TestList_AppendRendersAtTail(t *testing.T) {
	h := newHarness()
	h.sync(t, item{ID: "1", Count: -1})

	stats := h.sync(t, item{ID: "1", Count: -1}, item{ID: "2", Count: -1})

	assert.Equal(t, Stats{Appended: 1}, stats)
	assert.Equal(t, []string{"1", "2"}, h.list.Keys())
	assert.Equal(t, "#2 count=-1", h.list.At(1).Content())
	_, bound := h.list.Binding("2")
	assert.True(t, bound)
}

func TestList_RemoveDestroysElementAndBinding(t *testing.T) {
	h := newHarness()
	h.sync(t, item{ID: "1"}, item{ID: "2"})

	stats := h.sync(t, item{ID: "2"})

	assert.Equal(t, Stats{Removed: 1}, stats)
	assert.Equal(t, []string{"2"}, h.list.Keys())
	_, ok := h.list.Lookup("1")
	assert.False(t, ok)
	_, bound := h.list.Binding("1")
	assert.False(t, bound)
	assert.False(t, h.list.Dispatch("1", "vote"))
	assert.Empty(t, h.calls)
}

func TestList_ReplaceKeepsPositionAndRebinds(t *testing.T) {
	h := newHarness()
	h.sync(t, item{ID: "1", Count: -1}, item{ID: "2", Count: -1})
	before, _ := h.list.Binding("1")
	require.True(t, h.list.SetInput("1", "yes"))

	stats := h.sync(t, item{ID: "1", Count: 5}, item{ID: "2", Count: -1})

	assert.Equal(t, Stats{Replaced: 1}, stats)
	assert.Equal(t, []string{"1", "2"}, h.list.Keys())
	el := h.list.At(0)
	assert.Equal(t, "#1 count=5", el.Content())
	assert.Equal(t, 2, el.Renders())
	assert.Empty(t, el.Input(), "replacing content discards the draft")

	after, _ := h.list.Binding("1")
	assert.Greater(t, after, before)

	require.True(t, h.list.Dispatch("1", "count"))
	assert.Equal(t, item{ID: "1", Count: 5}, h.calls[0].Record)
}

func TestList_EmptyDiffTouchesNothing(t *testing.T) {
	h := newHarness()
	assert.Equal(t, 0, h.sync(t).Mutations())
	assert.Equal(t, 0, h.list.Len())
	assert.Equal(t, "", h.list.Cursor())
	assert.Equal(t, -1, h.list.CursorIndex())
}

func TestList_UntouchedElementsSurvive(t *testing.T) {
	h := newHarness()
	h.sync(t, item{ID: "a", Count: 1}, item{ID: "b", Count: 1}, item{ID: "c", Count: 1})
	require.True(t, h.list.SetInput("c", "no"))
	genC, _ := h.list.Binding("c")
	elC, _ := h.list.Lookup("c")

	// Remove a, change b, add d; c is not named in the diff.
	stats := h.sync(t, item{ID: "b", Count: 2}, item{ID: "c", Count: 1}, item{ID: "d", Count: 1})
	assert.Equal(t, Stats{Removed: 1, Appended: 1, Replaced: 1}, stats)

	gotC, ok := h.list.Lookup("c")
	require.True(t, ok)
	assert.Same(t, elC, gotC, "element identity must survive")
	assert.Equal(t, 1, gotC.Renders())
	assert.Equal(t, "no", gotC.Input())
	gen, _ := h.list.Binding("c")
	assert.Equal(t, genC, gen)
}

func TestList_DispatchIsKeyedNotPositional(t *testing.T) {
	h := newHarness()
	h.sync(t, item{ID: "1"}, item{ID: "2"}, item{ID: "3"})
	require.True(t, h.list.SetInput("3", "yes"))

	// Removing the first element shifts positions; "3" must still get its
	// own record and input.
	h.sync(t, item{ID: "2"}, item{ID: "3"})
	require.True(t, h.list.Dispatch("3", "vote"))

	require.Len(t, h.calls, 1)
	assert.Equal(t, call{Key: "3", Record: item{ID: "3"}, Action: "vote", Input: "yes"}, h.calls[0])
}

func TestList_CursorFollowsIdentity(t *testing.T) {
	h := newHarness()
	h.sync(t, item{ID: "1"}, item{ID: "2"}, item{ID: "3"})
	assert.Equal(t, "1", h.list.Cursor(), "first element gets focus")

	require.True(t, h.list.SetCursor("3"))
	h.sync(t, item{ID: "2"}, item{ID: "3"})
	assert.Equal(t, "3", h.list.Cursor())
	assert.Equal(t, 1, h.list.CursorIndex())

	// Removing the focused element moves focus to the element that took its
	// place, or to the new tail.
	h.sync(t, item{ID: "2"})
	assert.Equal(t, "2", h.list.Cursor())

	h.sync(t, item{ID: "2"}, item{ID: "4"}, item{ID: "5"})
	require.True(t, h.list.SetCursor("4"))
	h.sync(t, item{ID: "2"}, item{ID: "5"})
	assert.Equal(t, "5", h.list.Cursor())

	h.sync(t)
	assert.Equal(t, "", h.list.Cursor())
}

func TestList_MoveCursorClamps(t *testing.T) {
	h := newHarness()
	h.list.MoveCursor(1)
	assert.Equal(t, "", h.list.Cursor())

	h.sync(t, item{ID: "1"}, item{ID: "2"}, item{ID: "3"})
	h.list.MoveCursor(10)
	assert.Equal(t, "3", h.list.Cursor())
	h.list.MoveCursor(-1)
	assert.Equal(t, "2", h.list.Cursor())
	h.list.MoveCursor(-10)
	assert.Equal(t, "1", h.list.Cursor())
	assert.False(t, h.list.SetCursor("missing"))
}

func TestList_RemovalCompleteness(t *testing.T) {
	h := newHarness()
	h.sync(t, item{ID: "1"}, item{ID: "2"}, item{ID: "3"}, item{ID: "4"})
	h.sync(t, item{ID: "4"}, item{ID: "2"})

	for _, gone := range []string{"1", "3"} {
		_, ok := h.list.Lookup(gone)
		assert.False(t, ok, "element %s should be destroyed", gone)
	}
	assert.Equal(t, []string{"2", "4"}, h.list.Keys())
	assert.Equal(t, h.mirror.Keys(), h.list.Keys())
}

func TestList_AppendOfExistingKeyReplaces(t *testing.T) {
	l := New(renderItem, nil)
	l.Apply(mirror.Diff[item]{Events: []mirror.Event[item]{{Op: mirror.OpAppend, Key: "1", Record: item{ID: "1"}}}})
	stats := l.Apply(mirror.Diff[item]{Events: []mirror.Event[item]{{Op: mirror.OpAppend, Key: "1", Record: item{ID: "1", Count: 3}}}})

	assert.Equal(t, Stats{Replaced: 1}, stats)
	assert.Equal(t, 1, l.Len())
	assert.False(t, l.Dispatch("1", "vote"), "nil handler dispatches nothing")
	assert.Nil(t, l.At(5))
	assert.Equal(t, "", l.Input("missing"))
	assert.False(t, l.SetInput("missing", "x"))
}
