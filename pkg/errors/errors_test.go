package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", New(ErrNotFound, http.StatusTeapot, "x"), http.StatusTeapot},
		{"not found", fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{"invalid", ErrInvalidInput, http.StatusBadRequest},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"corpus", fmt.Errorf("row 3: %w", ErrCorpusIO), http.StatusUnprocessableEntity},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Fatalf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := InvalidInput("word %q has digits", "abc1")
	if !Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput in chain")
	}
	if err.Error() != `invalid input: word "abc1" has digits` {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestEnvelopeStatus(t *testing.T) {
	if EnvelopeStatus(nil) != StatusOK {
		t.Fatalf("nil should be ok")
	}
	if EnvelopeStatus(ErrNotFound) != StatusOK {
		t.Fatalf("not found is soft")
	}
	if EnvelopeStatus(ErrInvalidInput) != StatusError {
		t.Fatalf("invalid input should be an error status")
	}
}
