package resilience

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit", NewTransientError(errors.New("overloaded"), 503), true},
		{"wrapped", fmt.Errorf("call: %w", NewTransientError(errors.New("throttled"), 429)), true},
		{"econnreset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"econnrefused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"message pattern", errors.New("net/http: TLS handshake timeout"), true},
		{"plain", errors.New("invalid query"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	te := NewTransientError(inner, 502)
	if !errors.Is(te, inner) {
		t.Error("expected errors.Is to find inner error")
	}
	if te.Error() != "inner" {
		t.Errorf("unexpected message %q", te.Error())
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected %d transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected %d non-transient", code)
		}
	}
}

func TestStatusError(t *testing.T) {
	base := errors.New("unexpected status")
	if !IsTransient(StatusError(base, 503)) {
		t.Error("503 should be transient")
	}
	if !IsTransient(StatusError(base, 429)) {
		t.Error("429 should be transient")
	}
	if got := StatusError(base, 404); got != base || IsTransient(got) {
		t.Errorf("404 should pass through unchanged, got %v", got)
	}
}

func TestTransportError(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	if !IsTransient(TransportError(context.Background(), base)) {
		t.Error("expected transport failure to be transient")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var te *TransientError
	if errors.As(TransportError(ctx, errors.New("context canceled")), &te) {
		t.Error("cancelled request should not be transient")
	}
}
