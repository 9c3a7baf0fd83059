package github

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies the result of a fetch attempt.
type Kind int

const (
	KindSuccess Kind = iota
	KindTransient
	KindRateLimited
	KindUnauthorized
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// FetchError is a classified adapter failure.
type FetchError struct {
	Kind       Kind
	RetryAfter time.Time // only meaningful for KindRateLimited
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindRateLimited && !e.RetryAfter.IsZero() {
		return fmt.Sprintf("%s until %s: %v", e.Kind, e.RetryAfter.Format("15:04:05"), e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err. Unclassified errors are transient.
func KindOf(err error) Kind {
	if err == nil {
		return KindSuccess
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransient
}

// Outcome is the result of one fetch attempt: either a Bundle or a classified
// failure.
type Outcome struct {
	AttemptID string
	Kind      Kind
	Bundle    *Bundle
	FetchedAt time.Time
	// RetryAfter is the earliest time the remote accepts another request.
	RetryAfter time.Time
	Err        error
	Manual     bool
}

// Success builds a successful Outcome.
func Success(b Bundle, fetchedAt time.Time) Outcome {
	return Outcome{Kind: KindSuccess, Bundle: &b, FetchedAt: fetchedAt}
}

// Failure builds a failed Outcome from err, pulling the retry hint out of a
// FetchError when present.
func Failure(err error) Outcome {
	out := Outcome{Kind: KindOf(err), Err: err}
	var fe *FetchError
	if errors.As(err, &fe) {
		out.RetryAfter = fe.RetryAfter
	}
	if out.Kind == KindSuccess {
		out.Kind = KindTransient
	}
	return out
}

// OK reports whether the outcome carries fresh data.
func (o Outcome) OK() bool {
	return o.Kind == KindSuccess && o.Bundle != nil
}
