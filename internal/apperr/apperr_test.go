package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf_ThroughWrapping(t *testing.T) {
	base := RateLimited("finnhub", "quote", errors.New("429"))
	wrapped := fmt.Errorf("fetch quote: %w", base)
	if KindOf(wrapped) != KindRateLimited {
		t.Fatalf("expected rate_limited, got %s", KindOf(wrapped))
	}
	if !Is(wrapped, KindRateLimited) {
		t.Error("Is should match through %w")
	}
	if Is(nil, KindRateLimited) {
		t.Error("nil error must not match any kind")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain errors should be unknown")
	}
}

func TestExhausted_ListsEveryFailure(t *testing.T) {
	err := Exhausted("quote AAPL", []Failure{
		{Provider: "finnhub", Err: errors.New("status 500")},
		{Provider: "polygon", Err: errors.New("malformed payload")},
	})
	msg := err.Error()
	for _, want := range []string{"all_providers_exhausted", "finnhub: status 500", "polygon: malformed payload"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindRateLimited, true},
		{KindProviderError, true},
		{KindValidation, false},
		{KindProviderUnavailable, false},
		{KindQuotaExceeded, false},
	}
	for _, tt := range tests {
		if got := Retryable(tt.kind); got != tt.want {
			t.Errorf("Retryable(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}
