package stores

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"
)

const (
	challengeRecordVersion1 = 1

	// DigitCount is the fixed width of the time-based code entry.
	DigitCount = 6
)

var (
	ErrChallengeNotCached = errors.New("challenge not cached")
	ErrChallengeExpired   = errors.New("cached challenge expired")
	ErrChallengeCorrupt   = errors.New("challenge record corrupt")
)

// ChallengeRecord is the persisted snapshot of an in-progress MFA challenge:
// the opaque challenge token, the identity hint shown to the user, the partial
// digit entry, and the absolute creation time the TTL is anchored to.
// Digit slots hold ASCII digits; zero means the slot is empty.
type ChallengeRecord struct {
	Token    string
	UserID   string
	Email    string
	Digits   [DigitCount]byte
	CachedAt time.Time
}

// ChallengeCache persists the live challenge so a discarded and recreated
// process can resume digit entry. The deadline is CachedAt+TTL, fixed at first
// write — re-saving partial progress never extends it.
type ChallengeCache struct {
	kv  KV
	key string
	ttl time.Duration
	now func() time.Time
}

func NewChallengeCache(kv KV, key string, ttl time.Duration) *ChallengeCache {
	if key == "" {
		key = "mfa:verify"
	}
	return &ChallengeCache{kv: kv, key: key, ttl: ttl, now: time.Now}
}

// Save writes the full record in one value. The backend TTL is set to the
// remaining window so the backend can evict on its own; Get re-checks the
// deadline regardless.
func (c *ChallengeCache) Save(ctx context.Context, record ChallengeRecord) error {
	remaining := record.CachedAt.Add(c.ttl).Sub(c.now())
	if remaining <= 0 {
		_ = c.kv.Delete(ctx, c.key)
		return ErrChallengeExpired
	}
	return c.kv.Set(ctx, c.key, encodeChallengeRecord(record), remaining)
}

// Get returns the cached challenge, deleting and rejecting it when the
// absolute deadline has passed.
func (c *ChallengeCache) Get(ctx context.Context) (ChallengeRecord, error) {
	data, err := c.kv.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, ErrKVNotFound) {
			return ChallengeRecord{}, ErrChallengeNotCached
		}
		return ChallengeRecord{}, err
	}
	record, err := decodeChallengeRecord(data)
	if err != nil {
		return ChallengeRecord{}, err
	}
	if c.now().After(record.CachedAt.Add(c.ttl)) {
		_ = c.kv.Delete(ctx, c.key)
		return ChallengeRecord{}, ErrChallengeExpired
	}
	return record, nil
}

func (c *ChallengeCache) Delete(ctx context.Context) error {
	return c.kv.Delete(ctx, c.key)
}

// TTL reports the absolute challenge lifetime the cache enforces.
func (c *ChallengeCache) TTL() time.Duration {
	return c.ttl
}

func encodeChallengeRecord(record ChallengeRecord) []byte {
	var buf bytes.Buffer
	buf.WriteByte(challengeRecordVersion1)
	writeUnix(&buf, record.CachedAt)
	buf.Write(record.Digits[:])
	writeString16(&buf, record.Token)
	writeString16(&buf, record.UserID)
	writeString16(&buf, record.Email)
	return buf.Bytes()
}

func decodeChallengeRecord(data []byte) (ChallengeRecord, error) {
	reader := bytes.NewReader(data)
	version, err := reader.ReadByte()
	if err != nil || version != challengeRecordVersion1 {
		return ChallengeRecord{}, ErrChallengeCorrupt
	}
	record := ChallengeRecord{}
	if record.CachedAt, err = readUnix(reader); err != nil {
		return ChallengeRecord{}, ErrChallengeCorrupt
	}
	if _, err := io.ReadFull(reader, record.Digits[:]); err != nil {
		return ChallengeRecord{}, ErrChallengeCorrupt
	}
	if record.Token, err = readString16(reader); err != nil {
		return ChallengeRecord{}, ErrChallengeCorrupt
	}
	if record.UserID, err = readString16(reader); err != nil {
		return ChallengeRecord{}, ErrChallengeCorrupt
	}
	if record.Email, err = readString16(reader); err != nil {
		return ChallengeRecord{}, ErrChallengeCorrupt
	}
	return record, nil
}
