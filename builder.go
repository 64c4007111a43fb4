package agroSession

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HarvestERP/agroSession/internal/stores"
	"github.com/HarvestERP/agroSession/lifecycle"
)

// Builder defines a public type used by agroSession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	redis    *redis.Client
	boltPath string

	httpClient *http.Client
	navigate   func(url string)
	advisory   func(message string)
	lifecycle  *lifecycle.Dispatcher

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL describes the withbaseurl operation and its observable behavior.
//
// WithBaseURL may return an error when input validation, dependency calls, or security checks fail.
// WithBaseURL does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithBaseURL(url string) *Builder {
	b.config.API.BaseURL = url
	return b
}

// WithRedis selects the shared redis store backend.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithBoltPath selects the local single-file store backend.
func (b *Builder) WithBoltPath(path string) *Builder {
	b.boltPath = path
	return b
}

// WithHTTPClient describes the withhttpclient operation and its observable behavior.
//
// WithHTTPClient may return an error when input validation, dependency calls, or security checks fail.
// WithHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithNavigator installs the single application-navigation callback invoked
// on unrecoverable authorization failure.
func (b *Builder) WithNavigator(navigate func(url string)) *Builder {
	b.navigate = navigate
	return b
}

// WithAdvisory installs the debounced throttling-advisory callback.
func (b *Builder) WithAdvisory(advisory func(message string)) *Builder {
	b.advisory = advisory
	return b
}

// WithLifecycle subscribes the coordinator to page lifecycle signals.
func (b *Builder) WithLifecycle(d *lifecycle.Dispatcher) *Builder {
	b.lifecycle = d
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Coordinator, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var kv stores.KV
	var boltCloser func() error
	switch {
	case b.redis != nil && b.boltPath != "":
		return nil, errors.New("choose one store backend: redis or bolt")
	case b.redis != nil:
		kv = stores.NewRedisKV(b.redis, cfg.Store.Namespace)
	case b.boltPath != "":
		boltKV, err := stores.NewBoltKV(b.boltPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		kv = boltKV
		boltCloser = boltKV.Close
	default:
		return nil, errors.New("store backend required")
	}

	httpClient := b.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.Timeout}
	}
	navigate := b.navigate
	if navigate == nil {
		navigate = func(string) {}
	}
	advisory := b.advisory
	if advisory == nil {
		advisory = func(string) {}
	}

	c := &Coordinator{
		config:     cfg,
		httpClient: httpClient,
		navigate:   navigate,
		advisory:   advisory,
		warn:       log.Printf,
		now:        time.Now,
		boltCloser: boltCloser,
		creds:      stores.NewCredentialStore(kv, "credentials"),
		challenges: stores.NewChallengeCache(kv, "mfa:verify", cfg.Challenge.TTL),
		setups:     stores.NewSetupCache(kv, "mfa:setup", cfg.Setup.TTL),
		metrics:    NewMetrics(cfg.Metrics),
	}

	if b.lifecycle != nil {
		c.unsubscribe = b.lifecycle.Subscribe(c.onLifecycle)
	}

	b.built = true

	return c, nil
}
