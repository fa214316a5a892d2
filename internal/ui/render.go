package ui

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"

	"github.com/five82/tally/internal/votenode"
)

// pollState summarizes what the local node may do with a poll.
type pollState int

const (
	stateWaiting pollState = iota
	stateVote
	stateCount
	stateBoth
	stateCounted
)

func (s pollState) String() string {
	switch s {
	case stateVote:
		return "vote"
	case stateCount:
		return "count"
	case stateBoth:
		return "vote+count"
	case stateCounted:
		return "counted"
	default:
		return "waiting"
	}
}

func stateOf(p votenode.Poll) pollState {
	switch {
	case p.Result.Available():
		return stateCounted
	case p.CanVote && p.CanCount:
		return stateBoth
	case p.CanVote:
		return stateVote
	case p.CanCount:
		return stateCount
	default:
		return stateWaiting
	}
}

// Poll text comes from other nodes and may carry markup or terminal escapes.
var textPolicy = bluemonday.StrictPolicy()

func sanitize(value string) string {
	clean := html.UnescapeString(textPolicy.Sanitize(value))
	clean = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, clean)
	return strings.TrimSpace(clean)
}

func resultLabel(r votenode.Result) string {
	if !r.Available() {
		return "-"
	}
	return strconv.FormatInt(r.Count, 10)
}

// renderPoll produces the element content for one poll.
func renderPoll(p votenode.Poll) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%s %s", p.ID, sanitize(p.Question))
	if origin := sanitize(p.Origin); origin != "" {
		fmt.Fprintf(&b, "  (%s)", origin)
	}
	if p.Result.Available() {
		fmt.Fprintf(&b, "  result: %d yes", p.Result.Count)
		if !p.Result.Timestamp.IsZero() {
			fmt.Fprintf(&b, " at %s", p.Result.Timestamp.Format("2006-01-02 15:04"))
		}
	}
	return b.String()
}

const plainRow = "%-6s %-10s %-7s %-10s %s\n"

// PlainList renders polls as an aligned text table for non-interactive output.
func PlainList(polls []votenode.Poll) string {
	var b strings.Builder
	fmt.Fprintf(&b, plainRow, "ID", "STATE", "RESULT", "ORIGIN", "QUESTION")
	for _, p := range polls {
		fmt.Fprintf(&b, plainRow,
			truncate(string(p.ID), 6),
			stateOf(p),
			resultLabel(p.Result),
			truncate(sanitize(p.Origin), 10),
			sanitize(p.Question),
		)
	}
	return b.String()
}
