// Package ui provides the Bubble Tea terminal interface for tally.
//
// # Data flow
//
// The poll streams run outside the program and hand their results in with
// tea.Program.Send as PollsMsg and NodeMsg. Every PollsMsg is reconciled
// against the model's mirror on the update goroutine and the resulting diff is
// applied to a view.List, so only polls that actually changed are re-rendered.
// A rejected snapshot is logged and leaves the screen untouched. Stream health
// is read from the shared state.Store on a short tick.
//
// # Interaction
//
// The list has one delegated action handler routed by poll id. The keys:
//
//   - j/k, g/G: move the cursor (it follows the poll, not the row)
//   - y/n: draft a yes or no vote on the selected poll
//   - v/enter: send the drafted vote
//   - c: ask the node to count the selected poll
//   - a: open the create-poll form (question plus one voter per line)
//   - T: cycle theme, h/?: help, q/ctrl+c: quit
//
// Commands go through the dispatcher and return immediately. Their effect
// shows up when a later poll reports it; a draft is cleared once the poll it
// belongs to changes.
//
// # Rendering
//
// Poll text comes from other nodes. It is passed through a bluemonday strict
// policy and stripped of control characters before it reaches the terminal.
// PlainList renders the same records as an aligned table for the list
// command.
package ui
