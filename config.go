package agroSession

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by agroSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	API       APIConfig
	Renewal   RenewalConfig
	Retry     RetryConfig
	Challenge ChallengeConfig
	Setup     SetupConfig
	Store     StoreConfig
	Metrics   MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig defines a public type used by agroSession APIs.
//
// APIConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	LoginPath        string
	LogoutPath       string
	RefreshPath      string
	VerifyPath       string
	SetupPath        string
	SetupConfirmPath string
	ProfilePath      string

	// LoginRedirect is the re-authentication entry point the navigator is
	// pointed at on fatal session loss; "?expired=true" is appended.
	LoginRedirect string
}

/*
====================================
RENEWAL CONFIG
====================================
*/

// RenewalConfig defines a public type used by agroSession APIs.
//
// RenewalConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RenewalConfig struct {
	// ExpirySkew renews ahead of the access credential's exp claim; zero
	// disables renew-ahead and leaves only reactive 401 renewal.
	ExpirySkew time.Duration
}

/*
====================================
RETRY CONFIG
====================================
*/

// RetryConfig defines a public type used by agroSession APIs.
//
// RetryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RetryConfig struct {
	// MaxRetryAfter bounds the server's advertised retry hint.
	MaxRetryAfter time.Duration
	// DefaultRetryAfter applies when the hint is absent or unparseable.
	DefaultRetryAfter time.Duration
	// AdvisoryInterval debounces the user-facing throttling advisory across
	// all concurrently throttled requests.
	AdvisoryInterval time.Duration
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

// ChallengeConfig defines a public type used by agroSession APIs.
//
// ChallengeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ChallengeConfig struct {
	// TTL is the absolute challenge lifetime from first cache write; user
	// activity never extends it.
	TTL time.Duration
	// LockoutFallback applies when a lockout is detected without a
	// parseable duration.
	LockoutFallback time.Duration
	// BackupCodeMinLength is the minimum backup-code input length.
	BackupCodeMinLength int
}

/*
====================================
SETUP CONFIG
====================================
*/

// SetupConfig defines a public type used by agroSession APIs.
//
// SetupConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SetupConfig struct {
	// TTL is the absolute enrollment session lifetime.
	TTL time.Duration
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig defines a public type used by agroSession APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	// Namespace prefixes every persisted key, isolating coexisting
	// deployments sharing one backend.
	Namespace string
}

// MetricsConfig defines a public type used by agroSession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout:          30 * time.Second,
			UserAgent:        "agroSession",
			LoginPath:        "/auth/login",
			LogoutPath:       "/auth/logout",
			RefreshPath:      "/auth/refresh",
			VerifyPath:       "/auth/mfa/verify",
			SetupPath:        "/auth/mfa/setup",
			SetupConfirmPath: "/auth/mfa/setup/confirm",
			ProfilePath:      "/auth/profile",
			LoginRedirect:    "/login",
		},
		Renewal: RenewalConfig{
			ExpirySkew: 0,
		},
		Retry: RetryConfig{
			MaxRetryAfter:     30 * time.Second,
			DefaultRetryAfter: 2 * time.Second,
			AdvisoryInterval:  10 * time.Second,
		},
		Challenge: ChallengeConfig{
			TTL:                 5 * time.Minute,
			LockoutFallback:     60 * time.Second,
			BackupCodeMinLength: 8,
		},
		Setup: SetupConfig{
			TTL: 10 * time.Minute,
		},
		Store: StoreConfig{
			Namespace: "agsn",
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("API BaseURL required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return errors.New("API BaseURL must be http or https")
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be positive")
	}
	for _, p := range []string{
		c.API.LoginPath, c.API.LogoutPath, c.API.RefreshPath,
		c.API.VerifyPath, c.API.SetupPath, c.API.SetupConfirmPath,
		c.API.ProfilePath, c.API.LoginRedirect,
	} {
		if !strings.HasPrefix(p, "/") {
			return errors.New("API paths must be absolute")
		}
	}
	if c.Renewal.ExpirySkew < 0 {
		return errors.New("Renewal ExpirySkew must not be negative")
	}
	if c.Retry.MaxRetryAfter <= 0 {
		return errors.New("Retry MaxRetryAfter must be positive")
	}
	if c.Retry.DefaultRetryAfter <= 0 || c.Retry.DefaultRetryAfter > c.Retry.MaxRetryAfter {
		return errors.New("Retry DefaultRetryAfter must be positive and within MaxRetryAfter")
	}
	if c.Retry.AdvisoryInterval <= 0 {
		return errors.New("Retry AdvisoryInterval must be positive")
	}
	if c.Challenge.TTL <= 0 {
		return errors.New("Challenge TTL must be positive")
	}
	if c.Challenge.LockoutFallback <= 0 {
		return errors.New("Challenge LockoutFallback must be positive")
	}
	if c.Challenge.BackupCodeMinLength <= 0 {
		return errors.New("Challenge BackupCodeMinLength must be positive")
	}
	if c.Setup.TTL <= 0 {
		return errors.New("Setup TTL must be positive")
	}
	if c.Store.Namespace == "" {
		return errors.New("Store Namespace required")
	}
	return nil
}
