package agroSession

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/HarvestERP/agroSession/internal/stores"
)

type renewOutcome struct {
	accessToken string
	err         error
	// noSession marks a renewal attempted with no stored refresh credential
	// at all: a stray 401 outside any session, not an expired one.
	noSession bool
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// renewOrWait is the single-flight renewal gate. The first caller to observe
// an expired credential performs the renewal; every caller arriving while it
// is in flight suspends on a continuation and resumes with the same outcome.
// The continuation queue is drained completely — success or failure — before
// the in-progress flag clears, so no caller can ever be abandoned.
func (c *Coordinator) renewOrWait(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.renewing {
		resume := make(chan renewOutcome, 1)
		c.pending = append(c.pending, resume)
		c.mu.Unlock()
		c.metricInc(MetricRenewQueued)
		select {
		case out := <-resume:
			return out.accessToken, out.err
		case <-ctx.Done():
			// The buffered continuation still receives its outcome when
			// the renewal settles; only this caller stops waiting.
			return "", ctx.Err()
		}
	}
	c.renewing = true
	c.mu.Unlock()

	out := c.renew(ctx)

	if out.err != nil {
		// Fatal for the session: the refresh credential is gone. Wipe the
		// store before any continuation resumes so no replay can pick up
		// stale credentials.
		if clearErr := c.creds.Clear(context.WithoutCancel(ctx)); clearErr != nil {
			c.warn("agroSession: credential clear failed: %v", clearErr)
		}
		c.metricInc(MetricRenewFailure)
		c.metricInc(MetricSessionEvicted)
	} else {
		c.metricInc(MetricRenewSuccess)
	}

	c.mu.Lock()
	waiters := c.pending
	c.pending = nil
	for _, resume := range waiters {
		resume <- out
	}
	c.renewing = false
	c.mu.Unlock()

	if out.err != nil {
		// The coordinator is the only component that routes the application
		// to the re-authentication entry point. A 401 with no session to
		// expire stays silent: the "expired" banner would be a lie.
		if !out.noSession {
			c.navigate(c.config.API.LoginRedirect + "?expired=true")
		}
		return "", out.err
	}
	return out.accessToken, nil
}

// renew calls the renewal endpoint with the current refresh credential and
// atomically replaces the stored pair on success. Any failure is fatal for
// the session; nothing is retried silently after it.
func (c *Coordinator) renew(ctx context.Context) renewOutcome {
	pair, err := c.creds.Load(ctx)
	if err != nil || pair.RefreshToken == "" {
		return renewOutcome{err: fmt.Errorf("%w: no refresh credential", ErrSessionExpired), noSession: true}
	}

	status, body, err := c.plainCall(ctx, http.MethodPost, c.config.API.RefreshPath, map[string]string{
		"refreshToken": pair.RefreshToken,
	}, "")
	if err != nil {
		return renewOutcome{err: fmt.Errorf("%w: %w", ErrSessionExpired, err)}
	}
	if status < 200 || status >= 300 {
		return renewOutcome{err: fmt.Errorf("%w: %w", ErrSessionExpired, ErrRenewalFailed)}
	}

	var rotated refreshResponse
	if err := json.Unmarshal(body, &rotated); err != nil || rotated.AccessToken == "" || rotated.RefreshToken == "" {
		return renewOutcome{err: fmt.Errorf("%w: %w", ErrSessionExpired, ErrRenewalFailed)}
	}

	if err := c.creds.Save(ctx, stores.CredentialPair{
		AccessToken:  rotated.AccessToken,
		RefreshToken: rotated.RefreshToken,
	}); err != nil {
		return renewOutcome{err: fmt.Errorf("%w: %w", ErrSessionExpired, err)}
	}
	return renewOutcome{accessToken: rotated.AccessToken}
}
