// Package votenode provides an HTTP client for a voting node's web API.
//
// # Overview
//
// The node owns the polls; this package only reads them and submits
// commands. Reads feed the poll stream and the node identity header. Commands
// are sent by the dispatcher and their effects show up on a later read.
//
//   - client.go: HTTP client, request/response handling
//   - types.go: Poll, Result and the poll schema used for reconciliation
//   - errors.go: StatusError and ErrMalformedPayload
//
// # Client Usage
//
//	client, err := votenode.NewClient(votenode.Options{APIBind: "127.0.0.1:8080"})
//	if err != nil {
//		return err
//	}
//	polls, err := client.FetchPolls(ctx)
//
// # API Endpoints
//
// Paths are configurable; the defaults match the node's web server:
//
//   - GET  /voting/polls: {"polls": [...]} (or {"items": [...]})
//   - POST /voting/polls: {"question": "...", "voters": "a\nb"}
//   - POST /voting/poll/{id}/vote: {"vote": "1"|"0"}
//   - POST /voting/poll/{id}/count
//   - GET  /id: {"id": "nodeA"}
//
// Command responses are drained and ignored apart from the status code.
//
// # Error Handling
//
//   - Network errors: transport failures and timeouts, wrapped as
//     "execute request: ..."
//   - HTTP errors: any non-2xx status yields *StatusError
//   - Payload errors: undecodable bodies, a missing list, or polls without a
//     unique id yield ErrMalformedPayload
//
// Callers in the poll loop treat all of them as a lost cycle.
//
// # Identity
//
// Poll ids arrive as JSON numbers and are kept as strings (type ID). SamePoll
// is the equality predicate used to decide whether a poll changed; it compares
// the capability flags and the result and ignores the question and origin,
// which never change after creation.
package votenode
