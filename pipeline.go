package agroSession

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/HarvestERP/agroSession/internal/envelope"
)

// attempt marks how a request has already been recovered, so each recovery
// class fires at most once per logical request.
type attempt struct {
	renewed     bool
	rateLimited bool
}

// Do describes the do operation and its observable behavior.
//
// Do may return an error when input validation, dependency calls, or security checks fail.
// Do does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Do attaches the current access credential read immediately before dispatch,
// absorbs one expired-credential event through single-flight renewal, absorbs
// one rate-limit event through bounded backoff, and maps every other failure
// to a safe human-readable error.
func (c *Coordinator) Do(ctx context.Context, req Request) (*Response, error) {
	if c == nil {
		return nil, ErrCoordinatorNotReady
	}
	return c.do(ctx, req, attempt{})
}

func (c *Coordinator) do(ctx context.Context, req Request, att attempt) (*Response, error) {
	access := ""
	if pair, err := c.creds.Load(ctx); err == nil {
		access = pair.AccessToken
	}

	if access != "" && !att.renewed && c.config.Renewal.ExpirySkew > 0 &&
		tokenExpiringWithin(access, c.now(), c.config.Renewal.ExpirySkew) {
		c.metricInc(MetricRenewAhead)
		renewed, err := c.renewOrWait(ctx)
		if err != nil {
			return nil, err
		}
		access = renewed
		att.renewed = true
	}

	httpReq, err := c.buildRequest(ctx, req, access)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNetwork, envelope.GenericNetworkMessage)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNetwork, envelope.GenericNetworkMessage)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil

	case resp.StatusCode == http.StatusUnauthorized && !att.renewed:
		if _, err := c.renewOrWait(ctx); err != nil {
			return nil, err
		}
		att.renewed = true
		c.metricInc(MetricRequestRetried)
		return c.do(ctx, req, att)

	case resp.StatusCode == http.StatusUnauthorized:
		// A second authorization failure after a successful renewal is a
		// hard failure, never a loop.
		return nil, ErrSessionExpired

	case resp.StatusCode == http.StatusTooManyRequests && !att.rateLimited:
		c.advisoryOnce()
		c.metricInc(MetricRateLimitWait)
		if err := sleepContext(ctx, retryAfterDelay(resp.Header, c.config.Retry)); err != nil {
			return nil, err
		}
		att.rateLimited = true
		c.metricInc(MetricRequestRetried)
		return c.do(ctx, req, att)

	case resp.StatusCode == http.StatusTooManyRequests:
		c.metricInc(MetricRateLimitExhausted)
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, envelope.RateLimitedMessage)

	default:
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    envelope.Message(resp.StatusCode, body),
		}
	}
}

func (c *Coordinator) buildRequest(ctx context.Context, req Request, access string) (*http.Request, error) {
	var body io.Reader
	contentType := ""
	switch payload := req.Body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(payload)
	default:
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	target := c.config.API.BaseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.config.API.UserAgent)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}
	return httpReq, nil
}

// plainCall issues an unpiloted request outside the recovery pipeline, used
// by the auth endpoints themselves (login, refresh, verify). It never renews
// and never retries.
func (c *Coordinator) plainCall(ctx context.Context, method, path string, payload any, access string) (int, []byte, error) {
	httpReq, err := c.buildRequest(ctx, Request{Method: method, Path: path, Body: payload}, access)
	if err != nil {
		return 0, nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s", ErrNetwork, envelope.GenericNetworkMessage)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s", ErrNetwork, envelope.GenericNetworkMessage)
	}
	return resp.StatusCode, body, nil
}

// advisoryOnce shows the throttling advisory at most once per configured
// interval, no matter how many requests are throttled concurrently.
func (c *Coordinator) advisoryOnce() {
	now := c.now()
	c.mu.Lock()
	show := now.Sub(c.lastAdvisory) >= c.config.Retry.AdvisoryInterval
	if show {
		c.lastAdvisory = now
	}
	c.mu.Unlock()
	if show {
		c.metricInc(MetricRateLimitAdvisory)
		c.advisory(envelope.RateLimitedMessage)
	}
}

// retryAfterDelay reads the server's advertised retry hint, bounded to the
// configured maximum, falling back to the default when absent or garbled.
func retryAfterDelay(header http.Header, cfg RetryConfig) time.Duration {
	delay := cfg.DefaultRetryAfter
	if raw := header.Get("Retry-After"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			delay = time.Duration(secs) * time.Second
		}
	}
	if delay > cfg.MaxRetryAfter {
		delay = cfg.MaxRetryAfter
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
