package services_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"vigil/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrValidation, "router", "route", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"router", "route", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "store", "persist", "", errors.New("io"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected nil marker to default to transient, got %v", err)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", services.Wrap(services.ErrValidation, "api", "ingest", "bad payload", nil), http.StatusBadRequest},
		{"not found", services.Wrap(services.ErrNotFound, "api", "warnings", "missing", nil), http.StatusNotFound},
		{"unauthorized", services.ErrUnauthorized, http.StatusUnauthorized},
		{"timeout", services.ErrTimeout, http.StatusGatewayTimeout},
		{"transient", services.Wrap(services.ErrTransient, "store", "persist", "io", errors.New("io")), http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := services.HTTPStatus(tc.err); got != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.status, got)
		}
	}
}
