package client

import "fmt"

// FailureKind classifies why a fetch produced no data. Used as a stable
// metric label; the presenter never branches on it.
type FailureKind string

const (
	// FailureTransport covers network unreachable, connection resets and
	// transport-level timeouts.
	FailureTransport FailureKind = "transport"
	// FailureStatus covers HTTP responses outside the 2xx range.
	FailureStatus FailureKind = "status"
	// FailureDecode covers malformed or unexpected JSON bodies on a 2xx response.
	FailureDecode FailureKind = "decode"
)

// FetchFailure describes a failed fetch. StatusCode is set only for
// FailureStatus.
type FetchFailure struct {
	Kind       FailureKind
	Reason     string
	StatusCode int
}

func (f *FetchFailure) Error() string {
	if f.Kind == FailureStatus {
		return fmt.Sprintf("%s: HTTP %d: %s", f.Kind, f.StatusCode, f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

// Outcome is the result contract of every client call: either a success
// payload or a FetchFailure. Constructed only at the client boundary; the
// client never lets an error or panic escape instead.
type Outcome[T any] struct {
	value   T
	failure *FetchFailure
}

// Success wraps a decoded payload.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Failed wraps a failure reason.
func Failed[T any](f *FetchFailure) Outcome[T] {
	return Outcome[T]{failure: f}
}

// OK reports whether the outcome carries a payload.
func (o Outcome[T]) OK() bool { return o.failure == nil }

// Value returns the payload. Zero value when the outcome is a failure.
func (o Outcome[T]) Value() T { return o.value }

// Failure returns the failure reason, nil on success.
func (o Outcome[T]) Failure() *FetchFailure { return o.failure }

func transportFailure(err error) *FetchFailure {
	return &FetchFailure{Kind: FailureTransport, Reason: err.Error()}
}

func statusFailure(code int) *FetchFailure {
	return &FetchFailure{Kind: FailureStatus, Reason: fmt.Sprintf("unexpected status %d", code), StatusCode: code}
}

func decodeFailure(err error) *FetchFailure {
	return &FetchFailure{Kind: FailureDecode, Reason: err.Error()}
}
