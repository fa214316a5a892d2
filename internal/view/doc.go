// Package view keeps a rendered list in step with a mirror.
//
// List applies a mirror.Diff as structural mutations: removals destroy an
// element and its binding, appends render a new element at the tail, and
// replacements re-render one element in place. Elements the diff does not
// name keep their content, their draft input and their render count, so
// in-progress interaction survives a refresh.
//
// Interaction is delegated. The list holds one Handler and routes
// Dispatch(key, action) to it together with the record currently bound to
// that key. Nothing is looked up by position, so removing an earlier element
// can never hand an action to the wrong record. The cursor is tracked by key
// for the same reason.
package view
