package agroSession

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/HarvestERP/agroSession/internal/flows"
	"github.com/HarvestERP/agroSession/internal/stores"
)

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	MFARequired  bool   `json:"mfaRequired"`
	MFAToken     string `json:"mfaToken"`
	UserID       string `json:"userId"`
	EmailHint    string `json:"email"`
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// When the backend signals a second factor, no credentials are persisted; the
// challenge descriptor is cached immediately so a torn-down and recreated
// process can still resume verification.
func (c *Coordinator) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if c == nil {
		return nil, ErrCoordinatorNotReady
	}
	status, body, err := c.plainCall(ctx, http.MethodPost, c.config.API.LoginPath, map[string]string{
		"identifier": identifier,
		"password":   password,
	}, "")
	if err != nil {
		c.metricInc(MetricLoginFailure)
		return nil, err
	}
	if status < 200 || status >= 300 {
		c.metricInc(MetricLoginFailure)
		return nil, c.apiError(status, body)
	}

	var decoded loginResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		c.metricInc(MetricLoginFailure)
		return nil, c.apiError(status, nil)
	}

	if decoded.MFARequired {
		challenge := flows.Challenge{
			Token:    decoded.MFAToken,
			UserID:   decoded.UserID,
			Email:    decoded.EmailHint,
			CachedAt: c.now(),
		}
		if err := c.challenges.Save(ctx, challengeRecord(challenge)); err != nil {
			c.warn("agroSession: challenge cache write failed: %v", err)
		}
		c.mu.Lock()
		c.challenge = &challenge
		c.mu.Unlock()
		c.metricInc(MetricLoginMFARequired)
		return &LoginResult{
			MFARequired: true,
			MFAToken:    decoded.MFAToken,
			UserID:      decoded.UserID,
			EmailHint:   decoded.EmailHint,
		}, nil
	}

	if decoded.AccessToken == "" || decoded.RefreshToken == "" {
		c.metricInc(MetricLoginFailure)
		return nil, c.apiError(status, nil)
	}
	if err := c.creds.Save(ctx, stores.CredentialPair{
		AccessToken:  decoded.AccessToken,
		RefreshToken: decoded.RefreshToken,
	}); err != nil {
		c.metricInc(MetricLoginFailure)
		return nil, err
	}
	c.metricInc(MetricLoginSuccess)
	return &LoginResult{
		AccessToken:  decoded.AccessToken,
		RefreshToken: decoded.RefreshToken,
	}, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The server call is best-effort; local state is always destroyed.
func (c *Coordinator) Logout(ctx context.Context) error {
	if c == nil {
		return ErrCoordinatorNotReady
	}
	access := ""
	if pair, err := c.creds.Load(ctx); err == nil {
		access = pair.AccessToken
	}
	if access != "" {
		if _, _, err := c.plainCall(ctx, http.MethodPost, c.config.API.LogoutPath, nil, access); err != nil {
			c.warn("agroSession: logout call failed: %v", err)
		}
	}

	c.mu.Lock()
	c.challenge = nil
	c.mu.Unlock()

	if err := c.creds.Clear(ctx); err != nil {
		return err
	}
	_ = c.challenges.Delete(ctx)
	_ = c.setups.Delete(ctx)
	c.metricInc(MetricLogout)
	return nil
}

// Profile describes the profile operation and its observable behavior.
//
// Profile may return an error when input validation, dependency calls, or security checks fail.
// Profile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Coordinator) Profile(ctx context.Context) (*Profile, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: c.config.API.ProfilePath})
	if err != nil {
		return nil, err
	}
	var profile Profile
	if err := resp.JSON(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Coordinator) apiError(status int, body []byte) error {
	return &APIError{StatusCode: status, Message: apiMessage(status, body)}
}
