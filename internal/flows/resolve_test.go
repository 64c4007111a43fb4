package flows

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolvePriorityOrder(t *testing.T) {
	explicit := &Challenge{Token: "from-login", CachedAt: time.Now()}
	memory := &Challenge{Token: "from-memory", CachedAt: time.Now()}
	cached := func() (Challenge, error) {
		return Challenge{Token: "from-cache"}, nil
	}

	ch, source := ResolveChallenge(explicit, memory, cached)
	assert.Equal(t, SourceDescriptor, source)
	assert.Equal(t, "from-login", ch.Token)

	ch, source = ResolveChallenge(nil, memory, cached)
	assert.Equal(t, SourceMemory, source)
	assert.Equal(t, "from-memory", ch.Token)

	ch, source = ResolveChallenge(nil, nil, cached)
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, "from-cache", ch.Token)

	_, source = ResolveChallenge(nil, nil, nil)
	assert.Equal(t, SourceNone, source)
}

func TestResolveReplayedDescriptorKeepsAnchor(t *testing.T) {
	anchor := time.Now().Add(-2 * time.Minute)
	replayed := &Challenge{Token: "mfa-1", CachedAt: time.Now()}

	memory := &Challenge{Token: "mfa-1", CachedAt: anchor, Digits: [DigitCount]byte{'1', '2', '3'}}
	ch, source := ResolveChallenge(replayed, memory, nil)
	assert.Equal(t, SourceMemory, source)
	assert.Equal(t, anchor, ch.CachedAt, "a re-passed descriptor must not re-anchor the deadline")
	assert.Equal(t, memory.Digits, ch.Digits, "digit progress survives the replay")

	cached := func() (Challenge, error) {
		return Challenge{Token: "mfa-1", CachedAt: anchor, Digits: [DigitCount]byte{'4', '5'}}, nil
	}
	ch, source = ResolveChallenge(replayed, nil, cached)
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, anchor, ch.CachedAt)

	// A different token is a genuinely new challenge.
	fresh := &Challenge{Token: "mfa-2", CachedAt: time.Now()}
	ch, source = ResolveChallenge(fresh, memory, cached)
	assert.Equal(t, SourceDescriptor, source)
	assert.Equal(t, "mfa-2", ch.Token)
}

func TestResolveSkipsEmptyTokens(t *testing.T) {
	// A descriptor without a token is absence, not an error.
	ch, source := ResolveChallenge(&Challenge{}, nil, func() (Challenge, error) {
		return Challenge{Token: "from-cache"}, nil
	})
	assert.Equal(t, SourceCache, source)
	assert.Equal(t, "from-cache", ch.Token)
}

func TestResolveSwallowsCacheErrors(t *testing.T) {
	_, source := ResolveChallenge(nil, nil, func() (Challenge, error) {
		return Challenge{}, errors.New("cache unreadable")
	})
	assert.Equal(t, SourceNone, source)
}
