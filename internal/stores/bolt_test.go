package stores

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltKVRoundTrip(t *testing.T) {
	kv := newTestBoltKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "credentials", []byte("payload"), 0))
	data, err := kv.Get(ctx, "credentials")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, kv.Delete(ctx, "credentials"))
	_, err = kv.Get(ctx, "credentials")
	assert.ErrorIs(t, err, ErrKVNotFound)
}

func TestBoltKVDeadlineEnforcedOnRead(t *testing.T) {
	kv := newTestBoltKV(t)
	ctx := context.Background()

	clock := newFixedClock()
	kv.now = clock.Now

	require.NoError(t, kv.Set(ctx, "mfa:verify", []byte("x"), 30*time.Second))

	// Still alive just inside the window.
	clock.Advance(29 * time.Second)
	_, err := kv.Get(ctx, "mfa:verify")
	require.NoError(t, err)

	// bbolt has no native TTL: the deadline prefix is checked on read and
	// the record deleted, exactly like a frozen process waking up late.
	clock.Advance(2 * time.Second)
	_, err = kv.Get(ctx, "mfa:verify")
	assert.ErrorIs(t, err, ErrKVNotFound)
}

func TestBoltKVZeroTTLNeverExpires(t *testing.T) {
	kv := newTestBoltKV(t)
	ctx := context.Background()

	clock := newFixedClock()
	kv.now = clock.Now

	require.NoError(t, kv.Set(ctx, "credentials", []byte("x"), 0))
	clock.Advance(1000 * time.Hour)
	_, err := kv.Get(ctx, "credentials")
	assert.NoError(t, err)
}
