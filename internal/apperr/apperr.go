package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags an error with the class callers branch on.
type Kind int

const (
	KindUnknown Kind = iota
	KindProviderUnavailable
	KindProviderError
	KindRateLimited
	KindQuotaExceeded
	KindAllProvidersExhausted
	KindValidation
	KindDeadlineExceeded
)

func (k Kind) String() string {
	switch k {
	case KindProviderUnavailable:
		return "provider_unavailable"
	case KindProviderError:
		return "provider_error"
	case KindRateLimited:
		return "rate_limited"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindAllProvidersExhausted:
		return "all_providers_exhausted"
	case KindValidation:
		return "validation_error"
	case KindDeadlineExceeded:
		return "deadline_exceeded"
	default:
		return "unknown"
	}
}

// Failure is one provider's reason for not producing a result.
type Failure struct {
	Provider string
	Err      error
}

// Error is the tagged error carried through the pipeline.
type Error struct {
	Kind     Kind
	Provider string
	Op       string
	Status   int
	Err      error
	Failures []Failure
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Provider != "" {
		b.WriteString(" [")
		b.WriteString(e.Provider)
		b.WriteString("]")
	}
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Failures) > 0 {
		parts := make([]string, 0, len(e.Failures))
		for _, f := range e.Failures {
			parts = append(parts, fmt.Sprintf("%s: %v", f.Provider, f.Err))
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(parts, "; "))
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the tag of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether an error class may be retried.
// Validation and unavailable providers never are.
func Retryable(kind Kind) bool {
	return kind == KindRateLimited || kind == KindProviderError
}

func Unavailable(provider, reason string) error {
	return &Error{Kind: KindProviderUnavailable, Provider: provider, Err: errors.New(reason)}
}

func Provider(provider, op string, status int, err error) error {
	return &Error{Kind: KindProviderError, Provider: provider, Op: op, Status: status, Err: err}
}

func RateLimited(provider, op string, err error) error {
	return &Error{Kind: KindRateLimited, Provider: provider, Op: op, Status: 429, Err: err}
}

func QuotaExceeded(op string, need, quota int64) error {
	return &Error{Kind: KindQuotaExceeded, Op: op, Err: fmt.Errorf("need %d bytes, quota %d", need, quota)}
}

func Exhausted(op string, failures []Failure) error {
	return &Error{Kind: KindAllProvidersExhausted, Op: op, Failures: failures}
}

func Validation(field, reason string) error {
	return &Error{Kind: KindValidation, Op: field, Err: errors.New(reason)}
}

func Deadline(op string, err error) error {
	return &Error{Kind: KindDeadlineExceeded, Op: op, Err: err}
}
