package agroSession

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
)

// renewalBackend simulates a rotating-refresh backend: exactly one access
// token is valid at a time, and each refresh invalidates the previous pair.
type renewalBackend struct {
	mu           sync.Mutex
	validAccess  string
	validRefresh string
	refreshCalls atomic.Int64
	refreshFail  bool
	generation   int
}

func (b *renewalBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if b.refreshFail {
			writeJSON(w, http.StatusUnauthorized, `{"message":"refresh token revoked"}`)
			return
		}
		var payload struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RefreshToken == "" {
			writeJSON(w, http.StatusBadRequest, `{"message":"bad refresh"}`)
			return
		}
		b.mu.Lock()
		if payload.RefreshToken != b.validRefresh {
			b.mu.Unlock()
			writeJSON(w, http.StatusUnauthorized, `{"message":"refresh token reused"}`)
			return
		}
		b.generation++
		b.validAccess = "access-" + strconv.Itoa(b.generation)
		b.validRefresh = "refresh-" + strconv.Itoa(b.generation)
		access, refresh := b.validAccess, b.validRefresh
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, `{"accessToken":"`+access+`","refreshToken":"`+refresh+`"}`)
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		valid := "Bearer "+b.validAccess == r.Header.Get("Authorization")
		b.mu.Unlock()
		if !valid {
			writeJSON(w, http.StatusUnauthorized, `{"message":"expired"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	})
	return mux
}

func TestRenewalSingleFlight(t *testing.T) {
	backend := &renewalBackend{validAccess: "access-live", validRefresh: "refresh-0"}
	c, _, cleanup := newTestCoordinator(t, backend.handler())
	defer cleanup()

	// Stored access token is already stale: every request 401s first.
	seedCredentials(t, c, "access-stale", "refresh-0")

	const concurrent = 8
	var wg sync.WaitGroup
	errs := make([]error, concurrent)
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/data"})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if calls := backend.refreshCalls.Load(); calls != 1 {
		t.Fatalf("refresh called %d times, want exactly 1", calls)
	}

	pair := storedCredentials(t, c)
	if pair.AccessToken != "access-1" || pair.RefreshToken != "refresh-1" {
		t.Fatalf("stored pair %+v, want rotated generation 1", pair)
	}
}

func TestRenewalFailureDrainsQueueAndRedirects(t *testing.T) {
	backend := &renewalBackend{validAccess: "access-live", validRefresh: "refresh-0", refreshFail: true}

	var navigated []string
	var navMu sync.Mutex
	c, _, cleanup := newTestCoordinator(t, backend.handler(), func(b *Builder) {
		b.WithNavigator(func(url string) {
			navMu.Lock()
			navigated = append(navigated, url)
			navMu.Unlock()
		})
	})
	defer cleanup()

	seedCredentials(t, c, "access-stale", "refresh-0")

	const concurrent = 5
	var wg sync.WaitGroup
	errs := make([]error, concurrent)
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/data"})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("request %d error %v, want ErrSessionExpired", i, err)
		}
	}

	// Credentials are wiped before any continuation resumes.
	if _, err := c.creds.Load(context.Background()); err == nil {
		t.Fatal("credentials still stored after fatal renewal failure")
	}

	navMu.Lock()
	defer navMu.Unlock()
	if len(navigated) == 0 {
		t.Fatal("navigator never invoked")
	}
	for _, url := range navigated {
		if url != "/login?expired=true" {
			t.Fatalf("navigated to %q, want /login?expired=true", url)
		}
	}

	// The renewal gate must be fully released for the next session.
	c.mu.Lock()
	renewing, pending := c.renewing, len(c.pending)
	c.mu.Unlock()
	if renewing || pending != 0 {
		t.Fatalf("renewal gate not cleared: renewing=%v pending=%d", renewing, pending)
	}
}

func TestSecondUnauthorizedIsHardFailure(t *testing.T) {
	// The backend rotates the pair but keeps rejecting the resource, so the
	// pipeline must fail after one renewal instead of looping.
	mux := http.NewServeMux()
	var refreshCalls atomic.Int64
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		writeJSON(w, http.StatusOK, `{"accessToken":"access-new","refreshToken":"refresh-new"}`)
	})
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"still expired"}`)
	})

	c, _, cleanup := newTestCoordinator(t, mux)
	defer cleanup()
	seedCredentials(t, c, "access-stale", "refresh-old")

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/data"})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("error %v, want ErrSessionExpired", err)
	}
	if calls := refreshCalls.Load(); calls != 1 {
		t.Fatalf("refresh called %d times, want 1", calls)
	}
}

func TestStrayUnauthorizedWithoutSessionDoesNotRedirect(t *testing.T) {
	// No credentials were ever stored: a 401 here is a stray, not an expired
	// session, and must not trigger the "session expired" navigation.
	mux := http.NewServeMux()
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"no token"}`)
	})

	var navigations atomic.Int64
	c, _, cleanup := newTestCoordinator(t, mux, func(b *Builder) {
		b.WithNavigator(func(string) { navigations.Add(1) })
	})
	defer cleanup()

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/data"})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("error %v, want ErrSessionExpired", err)
	}
	if n := navigations.Load(); n != 0 {
		t.Fatalf("navigator invoked %d times with no session to expire", n)
	}
}

func TestRenewRotatesBothCredentials(t *testing.T) {
	backend := &renewalBackend{validAccess: "access-live", validRefresh: "refresh-0"}
	c, _, cleanup := newTestCoordinator(t, backend.handler())
	defer cleanup()
	seedCredentials(t, c, "access-stale", "refresh-0")

	if _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/data"}); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	pair := storedCredentials(t, c)
	if pair.AccessToken == "access-stale" || pair.RefreshToken == "refresh-0" {
		t.Fatalf("pair not rotated: %+v", pair)
	}

	// The old refresh credential is dead: replaying it must fail.
	backend.refreshFail = false
	c2, _, cleanup2 := newTestCoordinator(t, backend.handler())
	defer cleanup2()
	seedCredentials(t, c2, "access-stale", "refresh-0")
	_, err := c2.Do(context.Background(), Request{Method: http.MethodGet, Path: "/data"})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("replayed refresh error %v, want ErrSessionExpired", err)
	}
}
