// Package dispatch submits user commands to the voting node without waiting
// for them.
//
// Dispatch starts the request and returns its correlation id straight away.
// The outcome is logged and counted but never fed back into local state: the
// command's effect becomes visible when a later poll observes it, usually one
// or more cycles later. Commands are not deduplicated, so dispatching the
// same vote twice sends it twice.
package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/five82/tally/internal/logging"
	"github.com/five82/tally/internal/metrics"
	"github.com/five82/tally/internal/votenode"
)

// Sender performs commands against the node. *votenode.Client implements it.
type Sender interface {
	CastVote(ctx context.Context, id, value string) error
	RequestCount(ctx context.Context, id string) error
	CreatePoll(ctx context.Context, question string, voters []string) error
}

var _ Sender = (*votenode.Client)(nil)

// Command is one of CastVote, RequestCount or CreatePoll.
type Command interface {
	// Name labels the command in logs and metrics.
	Name() string
	send(ctx context.Context, s Sender) error
	logFields() []any
}

// CastVote votes on a poll. Value is votenode.VoteYes or votenode.VoteNo.
type CastVote struct {
	ID    string
	Value string
}

func (CastVote) Name() string { return "vote" }

func (c CastVote) send(ctx context.Context, s Sender) error {
	return s.CastVote(ctx, c.ID, c.Value)
}

func (c CastVote) logFields() []any { return []any{"poll", c.ID, "vote", c.Value} }

// RequestCount asks the node to count a poll.
type RequestCount struct {
	ID string
}

func (RequestCount) Name() string { return "count" }

func (c RequestCount) send(ctx context.Context, s Sender) error {
	return s.RequestCount(ctx, c.ID)
}

func (c RequestCount) logFields() []any { return []any{"poll", c.ID} }

// CreatePoll opens a new poll.
type CreatePoll struct {
	Question string
	Voters   []string
}

func (CreatePoll) Name() string { return "create" }

func (c CreatePoll) send(ctx context.Context, s Sender) error {
	return s.CreatePoll(ctx, c.Question, c.Voters)
}

func (c CreatePoll) logFields() []any {
	return []any{"question", c.Question, "voters", strings.Join(c.Voters, ",")}
}

// Options tune a Dispatcher.
type Options struct {
	Timeout time.Duration
	Logger  *log.Logger
	Metrics *metrics.Metrics
	// NewID overrides the correlation id generator.
	NewID func() string
}

const defaultTimeout = 5 * time.Second

// Dispatcher fires commands at a Sender.
type Dispatcher struct {
	ctx     context.Context
	sender  Sender
	timeout time.Duration
	logger  *log.Logger
	metrics *metrics.Metrics
	newID   func() string
	wg      sync.WaitGroup
}

// New returns a Dispatcher whose requests are bound to ctx.
func New(ctx context.Context, sender Sender, opts Options) *Dispatcher {
	if ctx == nil {
		ctx = context.Background()
	}
	d := &Dispatcher{
		ctx:     ctx,
		sender:  sender,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		newID:   opts.NewID,
	}
	if d.timeout <= 0 {
		d.timeout = defaultTimeout
	}
	if d.logger == nil {
		d.logger = logging.Discard()
	}
	if d.newID == nil {
		d.newID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
	return d
}

// Dispatch sends cmd in the background and returns its correlation id.
func (d *Dispatcher) Dispatch(cmd Command) string {
	id := d.newID()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.send(id, cmd)
	}()
	return id
}

func (d *Dispatcher) send(id string, cmd Command) {
	ctx, cancel := context.WithTimeout(votenode.WithRequestID(d.ctx, id), d.timeout)
	defer cancel()

	fields := append([]any{"command", cmd.Name(), "request_id", id}, cmd.logFields()...)
	err := cmd.send(ctx, d.sender)
	if err != nil {
		outcome := metrics.OutcomeNetwork
		var statusErr *votenode.StatusError
		if errors.As(err, &statusErr) {
			fields = append(fields, "status", statusErr.Code)
		}
		d.metrics.ObserveDispatch(cmd.Name(), outcome)
		d.logger.Warn("command failed", append(fields, "err", err)...)
		return
	}
	d.metrics.ObserveDispatch(cmd.Name(), metrics.OutcomeOK)
	d.logger.Info("command sent", fields...)
}

// Wait blocks until every dispatched command has finished. One-shot CLI
// commands call it before printing; the live view calls it on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
