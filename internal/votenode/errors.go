package votenode

import (
	"errors"
	"fmt"

	"github.com/five82/tally/internal/mirror"
)

// ErrMalformedPayload reports a response body that decoded into the wrong
// shape, or a snapshot with missing or duplicated poll ids.
var ErrMalformedPayload = errors.New("malformed payload")

// StatusError is returned when the node answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Code)
}

// IsMalformed reports whether err stems from an unusable payload rather than
// from the network.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedPayload) || errors.Is(err, mirror.ErrMalformedSnapshot)
}
