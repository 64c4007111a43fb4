package agroSession

import (
	"context"
	"errors"
	"net/http"

	"github.com/HarvestERP/agroSession/internal/stores"
)

type setupResponse struct {
	Secret string `json:"secret"`
	QRCode string `json:"qrCode"`
}

type setupConfirmResponse struct {
	BackupCodes []string `json:"backupCodes"`
}

// BeginTOTPSetup describes the begintotpsetup operation and its observable behavior.
//
// BeginTOTPSetup may return an error when input validation, dependency calls, or security checks fail.
// BeginTOTPSetup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The enrollment session is cached so a process discarded mid-setup can resume
// scanning the same secret instead of provisioning a second one.
func (c *Coordinator) BeginTOTPSetup(ctx context.Context) (*SetupSession, error) {
	if c == nil {
		return nil, ErrCoordinatorNotReady
	}
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, Path: c.config.API.SetupPath})
	if err != nil {
		return nil, err
	}
	var decoded setupResponse
	if err := resp.JSON(&decoded); err != nil || decoded.Secret == "" {
		return nil, c.apiError(resp.StatusCode, nil)
	}

	cachedAt := c.now()
	record := stores.SetupRecord{Secret: decoded.Secret, QRDataURL: decoded.QRCode, CachedAt: cachedAt}
	if err := c.setups.Save(ctx, record); err != nil {
		c.warn("agroSession: setup cache write failed: %v", err)
	}
	c.metricInc(MetricSetupStarted)
	return &SetupSession{
		Secret:        decoded.Secret,
		QRCodeDataURL: decoded.QRCode,
		ExpiresAt:     cachedAt.Add(c.setups.TTL()),
	}, nil
}

// ResumeTOTPSetup describes the resumetotpsetup operation and its observable behavior.
//
// ResumeTOTPSetup may return an error when input validation, dependency calls, or security checks fail.
// ResumeTOTPSetup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The remaining lifetime is re-derived from the cached creation time, so a
// session resumed after a long suspension reports its true expiry.
func (c *Coordinator) ResumeTOTPSetup(ctx context.Context) (*SetupSession, error) {
	if c == nil {
		return nil, ErrCoordinatorNotReady
	}
	record, err := c.setups.Get(ctx)
	if err != nil {
		switch {
		case errors.Is(err, stores.ErrSetupNotCached):
			return nil, ErrSetupNotFound
		case errors.Is(err, stores.ErrSetupExpired):
			c.metricInc(MetricSetupExpired)
			return nil, ErrSetupExpired
		default:
			return nil, err
		}
	}
	return &SetupSession{
		Secret:        record.Secret,
		QRCodeDataURL: record.QRDataURL,
		ExpiresAt:     record.CachedAt.Add(c.setups.TTL()),
	}, nil
}

// ConfirmTOTPSetup describes the confirmtotpsetup operation and its observable behavior.
//
// ConfirmTOTPSetup may return an error when input validation, dependency calls, or security checks fail.
// ConfirmTOTPSetup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// On success the cached secret is destroyed and the freshly issued backup
// codes are returned; they are shown once and never persisted locally.
func (c *Coordinator) ConfirmTOTPSetup(ctx context.Context, code string) ([]string, error) {
	if c == nil {
		return nil, ErrCoordinatorNotReady
	}
	resp, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   c.config.API.SetupConfirmPath,
		Body:   map[string]string{"code": code},
	})
	if err != nil {
		return nil, err
	}
	var decoded setupConfirmResponse
	if err := resp.JSON(&decoded); err != nil {
		return nil, c.apiError(resp.StatusCode, nil)
	}

	if err := c.setups.Delete(ctx); err != nil {
		c.warn("agroSession: setup cache clear failed: %v", err)
	}
	c.metricInc(MetricSetupConfirmed)
	return decoded.BackupCodes, nil
}

// CancelTOTPSetup discards the cached enrollment session.
func (c *Coordinator) CancelTOTPSetup(ctx context.Context) error {
	if c == nil {
		return ErrCoordinatorNotReady
	}
	return c.setups.Delete(ctx)
}
