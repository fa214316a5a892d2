package votenode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/five82/tally/internal/mirror"
)

// ID is a poll's identity key. The node serializes it as a JSON number;
// strings are accepted as well and both normalize to the same text.
type ID string

// UnmarshalJSON accepts a number, a string or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("poll id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes canonical numeric ids as numbers and everything else,
// including "007", as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseUint(string(id), 10, 64); err == nil && strconv.FormatUint(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Poll mirrors one entry of the polls collection.
type Poll struct {
	ID       ID     `json:"id"`
	Question string `json:"question"`
	Origin   string `json:"origin"`
	CanVote  bool   `json:"canVote"`
	CanCount bool   `json:"canCount"`
	Result   Result `json:"result"`
}

// UnmarshalJSON decodes a poll, treating a missing result as "not counted".
func (p *Poll) UnmarshalJSON(data []byte) error {
	type rawPoll Poll
	raw := rawPoll{Result: Result{Count: NoResult}}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Poll(raw)
	return nil
}

// NoResult is the count the node reports for polls that were not counted yet.
const NoResult int64 = -1

// Result is the outcome of a counted poll.
type Result struct {
	Count     int64     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// Available reports whether the poll has been counted.
func (r Result) Available() bool {
	return r.Count >= 0
}

// SamePoll reports whether two versions of a poll differ in anything the
// list displays as live state: the capability flags and the result.
func SamePoll(a, b Poll) bool {
	return a.CanVote == b.CanVote &&
		a.CanCount == b.CanCount &&
		a.Result.Count == b.Result.Count &&
		a.Result.Timestamp.Equal(b.Result.Timestamp)
}

// PollSchema identifies polls by ID and compares them with SamePoll.
var PollSchema = mirror.Schema[Poll]{
	Key:   func(p Poll) string { return string(p.ID) },
	Equal: SamePoll,
}

// PollListResponse mirrors the collection endpoint. Older nodes wrap the
// list in "polls", newer ones in "items".
type PollListResponse struct {
	Polls *[]Poll `json:"polls,omitempty"`
	Items *[]Poll `json:"items,omitempty"`
}

// Records returns the wrapped list and whether either key was present.
func (r PollListResponse) Records() ([]Poll, bool) {
	switch {
	case r.Items != nil:
		return *r.Items, true
	case r.Polls != nil:
		return *r.Polls, true
	}
	return nil, false
}

// NodeInfo mirrors the node identity endpoint.
type NodeInfo struct {
	ID string `json:"id"`
}

// voteRequest is the body of a vote command. The node expects "1" for yes
// and "0" for no.
type voteRequest struct {
	Vote string `json:"vote"`
}

// createPollRequest is the body of a create command. Voters are
// newline-separated.
type createPollRequest struct {
	Question string `json:"question"`
	Voters   string `json:"voters"`
}

// Vote values understood by the node.
const (
	VoteYes = "1"
	VoteNo  = "0"
)

// ParseVote maps user input to a vote value.
func ParseVote(value string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "y", "yes", "true":
		return VoteYes, nil
	case "0", "n", "no", "false":
		return VoteNo, nil
	}
	return "", fmt.Errorf("invalid vote %q: want yes or no", value)
}
