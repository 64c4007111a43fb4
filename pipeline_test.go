package agroSession

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func withFastRetry(b *Builder) {
	b.config.Retry.DefaultRetryAfter = 10 * time.Millisecond
	b.config.Retry.MaxRetryAfter = 50 * time.Millisecond
}

func TestRateLimitRetriesOnce(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusTooManyRequests, `{"message":"slow down"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})

	c, _, cleanup := newTestCoordinator(t, handler, withFastRetry)
	defer cleanup()
	seedCredentials(t, c, "access", "refresh")

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/fields"})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	if calls.Load() != 2 {
		t.Fatalf("backend called %d times, want 2", calls.Load())
	}
}

func TestRateLimitHonorsRetryAfterBound(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// Advertised hint far above the configured cap.
			w.Header().Set("Retry-After", "600")
			writeJSON(w, http.StatusTooManyRequests, `{"message":"slow down"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})

	c, _, cleanup := newTestCoordinator(t, handler, withFastRetry)
	defer cleanup()
	seedCredentials(t, c, "access", "refresh")

	start := time.Now()
	if _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/fields"}); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("waited %s, hint was not bounded by MaxRetryAfter", elapsed)
	}
}

func TestRateLimitSecondHitFails(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, `{"message":"slow down"}`)
	})

	c, _, cleanup := newTestCoordinator(t, handler, withFastRetry)
	defer cleanup()
	seedCredentials(t, c, "access", "refresh")

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/fields"})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("error %v, want ErrRateLimited", err)
	}
}

func TestAdvisoryDebounced(t *testing.T) {
	var seq atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every request is throttled once, then succeeds.
		if seq.Add(1)%2 == 1 {
			writeJSON(w, http.StatusTooManyRequests, `{"message":"slow down"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})

	var advisories atomic.Int64
	c, clock, cleanup := newTestCoordinator(t, handler, withFastRetry, func(b *Builder) {
		b.WithAdvisory(func(string) { advisories.Add(1) })
	})
	defer cleanup()
	seedCredentials(t, c, "access", "refresh")

	for i := 0; i < 3; i++ {
		if _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/fields"}); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if n := advisories.Load(); n != 1 {
		t.Fatalf("advisory shown %d times within the interval, want 1", n)
	}

	clock.Advance(time.Minute)
	if _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/fields"}); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if n := advisories.Load(); n != 2 {
		t.Fatalf("advisory shown %d times after the interval elapsed, want 2", n)
	}
}

func TestServerErrorBodyNeverLeaks(t *testing.T) {
	const leaked = "panic: nil pointer in billing.Reconcile"
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"message":"`+leaked+`"}`)
	})

	c, _, cleanup := newTestCoordinator(t, handler)
	defer cleanup()
	seedCredentials(t, c, "access", "refresh")

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/fields"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", apiErr.StatusCode)
	}
	if strings.Contains(apiErr.Message, "billing") || strings.Contains(apiErr.Message, "panic") {
		t.Fatalf("server body leaked into message: %q", apiErr.Message)
	}
}

func TestClientErrorSurfacesFieldMessages(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity,
			`{"errors":{"parcelId":["is required"],"area":["must be positive"]}}`)
	})

	c, _, cleanup := newTestCoordinator(t, handler)
	defer cleanup()
	seedCredentials(t, c, "access", "refresh")

	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/parcels"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v, want *APIError", err)
	}
	want := "area: must be positive; parcelId: is required"
	if apiErr.Message != want {
		t.Fatalf("message %q, want %q", apiErr.Message, want)
	}
}

func TestNetworkFailureMapsToErrNetwork(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	c, _, cleanup := newTestCoordinator(t, handler)
	seedCredentials(t, c, "access", "refresh")
	cleanup() // server is gone

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/fields"})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("error %v, want ErrNetwork", err)
	}
}

func TestRequestCarriesIdentityHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})

	c, _, cleanup := newTestCoordinator(t, handler)
	defer cleanup()
	seedCredentials(t, c, "access-token", "refresh")

	if _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/fields"}); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if gotAuth != "Bearer access-token" {
		t.Fatalf("Authorization %q, want bearer with current access token", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatal("X-Request-ID missing")
	}
}
