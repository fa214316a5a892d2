// Package devnode is an in-memory voting node for local demos and tests.
//
// It serves the same HTTP surface tally polls and commands, backed by a
// mutex-guarded map instead of a peer network: polls created here are
// immediately visible, votes are tallied locally and counting publishes the
// number of yes votes.
package devnode

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// ErrUnknownPoll is returned for ids the node has never issued.
	ErrUnknownPoll = errors.New("unknown poll")
	// ErrNotAllowed is returned when the node may not vote on or count a poll.
	ErrNotAllowed = errors.New("operation not allowed")
	// ErrEmptyQuestion rejects polls without a question.
	ErrEmptyQuestion = errors.New("question is empty")
)

// Poll is the node's view of one poll.
type Poll struct {
	ID       uint32
	Question string
	Origin   string
	Voters   []string
	CanVote  bool
	CanCount bool
	Result   *Result
}

// Result is a published count.
type Result struct {
	Count     int64
	Timestamp time.Time
}

type poll struct {
	id       uint32
	question string
	origin   string
	voters   []string
	votes    map[string]bool
	result   *Result
}

// Node holds polls in memory. Use New.
type Node struct {
	mu     sync.Mutex
	name   string
	nextID uint32
	polls  map[uint32]*poll
	order  []uint32
	now    func() time.Time
}

// New returns an empty node named name.
func New(name string) *Node {
	if strings.TrimSpace(name) == "" {
		name = "devnode"
	}
	return &Node{
		name:   name,
		nextID: 1,
		polls:  make(map[uint32]*poll),
		now:    time.Now,
	}
}

// Name is the node identity served on the node endpoint.
func (n *Node) Name() string {
	return n.name
}

// Create opens a poll originating from this node and returns its id. Blank
// voter entries are dropped.
func (n *Node) Create(question string, voters []string) (uint32, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return 0, ErrEmptyQuestion
	}
	var cleaned []string
	for _, v := range voters {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.polls[id] = &poll{
		id:       id,
		question: question,
		origin:   n.name,
		voters:   cleaned,
		votes:    make(map[string]bool),
	}
	n.order = append(n.order, id)
	return id, nil
}

// Vote records this node's vote. Each voter votes once and only before the
// poll is counted.
func (n *Node) Vote(id uint32, yes bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.polls[id]
	if !ok {
		return ErrUnknownPoll
	}
	if !n.canVote(p) {
		return ErrNotAllowed
	}
	p.votes[n.name] = yes
	return nil
}

// Count publishes the result of a poll this node originated.
func (n *Node) Count(id uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.polls[id]
	if !ok {
		return ErrUnknownPoll
	}
	if !n.canCount(p) {
		return ErrNotAllowed
	}
	var yes int64
	for _, v := range p.votes {
		if v {
			yes++
		}
	}
	p.result = &Result{Count: yes, Timestamp: n.now().UTC()}
	return nil
}

// Remove forgets a poll, as if it expired on the network.
func (n *Node) Remove(id uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.polls[id]; !ok {
		return ErrUnknownPoll
	}
	delete(n.polls, id)
	for i, existing := range n.order {
		if existing == id {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	return nil
}

// Polls returns every poll in creation order.
func (n *Node) Polls() []Poll {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Poll, 0, len(n.order))
	for _, id := range n.order {
		p := n.polls[id]
		view := Poll{
			ID:       p.id,
			Question: p.question,
			Origin:   p.origin,
			Voters:   append([]string(nil), p.voters...),
			CanVote:  n.canVote(p),
			CanCount: n.canCount(p),
		}
		if p.result != nil {
			r := *p.result
			view.Result = &r
		}
		out = append(out, view)
	}
	return out
}

// Voted returns the voters that have cast a vote on id, sorted.
func (n *Node) Voted(id uint32) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.polls[id]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(p.votes))
	for name := range p.votes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (n *Node) canVote(p *poll) bool {
	if p.result != nil {
		return false
	}
	if _, voted := p.votes[n.name]; voted {
		return false
	}
	for _, v := range p.voters {
		if v == n.name {
			return true
		}
	}
	return false
}

func (n *Node) canCount(p *poll) bool {
	return p.origin == n.name && p.result == nil
}
