// Package assistant is the boundary to an external chat-completion service
// that answers questions about a detection report.
//
// A Bridge is stateless: conversation history is supplied by the caller on
// every call as an ordered list of prior turns, and the bridge never stores
// it. The report is read-only context; a failed or cancelled call leaves it
// untouched.
package assistant

import (
	"context"
	"errors"

	"vlanislands/internal/domain"
)

var (
	// ErrServiceUnavailable covers transport failures, timeouts, throttling and server errors
	ErrServiceUnavailable = errors.New("assistant service unavailable")
	// ErrAuthentication covers missing or rejected credentials
	ErrAuthentication = errors.New("assistant authentication failed")
	// ErrEmptyQuery is returned when the query is blank
	ErrEmptyQuery = errors.New("empty query")
)

// Turn is one prior exchange in a conversation
type Turn struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// Request carries everything a bridge needs to answer one query
type Request struct {
	History []Turn
	Query   string
	Report  *domain.Report
}

// Bridge answers a query about a report. Implementations must return
// errors wrapping ErrServiceUnavailable or ErrAuthentication for transport
// and credential failures, and the caller's context error on cancellation.
type Bridge interface {
	Answer(ctx context.Context, req Request) (string, error)
}

// TrimHistory keeps the most recent max turns; max <= 0 keeps everything
func TrimHistory(history []Turn, max int) []Turn {
	if max <= 0 || len(history) <= max {
		return history
	}
	return history[len(history)-max:]
}

// Kind names the error class for callers that report failures as text
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, ErrEmptyQuery):
		return "invalid_query"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "error"
	}
}
