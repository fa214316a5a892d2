package votenode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/tally/internal/mirror"
)

// Paths locates the node's endpoints relative to its base URL.
type Paths struct {
	Collection string // GET list, POST create
	Item       string // prefix for {id}/vote and {id}/count
	Node       string // GET node identity
}

// DefaultPaths matches the voting node's web server.
var DefaultPaths = Paths{
	Collection: "/voting/polls",
	Item:       "/voting/poll",
	Node:       "/id",
}

// Options configure a Client.
type Options struct {
	APIBind   string
	Paths     Paths
	Timeout   time.Duration
	UserAgent string
}

// Client talks to a voting node's HTTP API.
type Client struct {
	baseURL   *url.URL
	paths     Paths
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:8080"
	defaultUserAgent = "tally/0.1"
	requestTimeout   = 5 * time.Second

	requestIDHeader = "X-Request-Id"
)

// NewClient builds a Client for the node at opts.APIBind.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.APIBind)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:   base,
		paths:     withDefaultPaths(opts.Paths),
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}, nil
}

// BaseURL returns the normalized node address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchPolls retrieves the current polls snapshot. Payloads without a list,
// or with missing or duplicated ids, fail with ErrMalformedPayload.
func (c *Client) FetchPolls(ctx context.Context) ([]Poll, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload PollListResponse
	if err := c.do(ctx, http.MethodGet, c.paths.Collection, nil, &payload); err != nil {
		return nil, err
	}
	polls, ok := payload.Records()
	if !ok {
		return nil, fmt.Errorf("%w: response has neither items nor polls", ErrMalformedPayload)
	}
	if err := mirror.Validate(polls, PollSchema.Key); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return polls, nil
}

// FetchNodeID retrieves the node's name.
func (c *Client) FetchNodeID(ctx context.Context) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	var payload NodeInfo
	if err := c.do(ctx, http.MethodGet, c.paths.Node, nil, &payload); err != nil {
		return "", err
	}
	return payload.ID, nil
}

// CastVote submits a vote for the poll. value is VoteYes or VoteNo.
func (c *Client) CastVote(ctx context.Context, id, value string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("poll id required")
	}
	return c.do(ctx, http.MethodPost, c.itemPath(id, "vote"), voteRequest{Vote: value}, nil)
}

// RequestCount asks the node to count the poll's votes.
func (c *Client) RequestCount(ctx context.Context, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("poll id required")
	}
	return c.do(ctx, http.MethodPost, c.itemPath(id, "count"), nil, nil)
}

// CreatePoll asks the node to open a new poll. The poll's id is not returned;
// it shows up on a later fetch.
func (c *Client) CreatePoll(ctx context.Context, question string, voters []string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("question required")
	}
	body := createPollRequest{Question: question, Voters: strings.Join(voters, "\n")}
	return c.do(ctx, http.MethodPost, c.paths.Collection, body, nil)
}

func (c *Client) itemPath(id, verb string) string {
	return strings.TrimRight(c.paths.Item, "/") + "/" + url.PathEscape(id) + "/" + verb
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse path %q: %w", path, err)
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := RequestID(ctx); id != "" {
		req.Header.Set(requestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: rel.String(), Code: resp.StatusCode}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrMalformedPayload, err)
	}
	return nil
}

type requestIDKey struct{}

// WithRequestID attaches a correlation id that the client sends with every
// request made under ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id attached to ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func withDefaultPaths(p Paths) Paths {
	if strings.TrimSpace(p.Collection) == "" {
		p.Collection = DefaultPaths.Collection
	}
	if strings.TrimSpace(p.Item) == "" {
		p.Item = DefaultPaths.Item
	}
	if strings.TrimSpace(p.Node) == "" {
		p.Node = DefaultPaths.Node
	}
	return p
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
