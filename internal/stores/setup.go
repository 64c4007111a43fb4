package stores

import (
	"bytes"
	"context"
	"errors"
	"time"
)

const setupRecordVersion1 = 1

var (
	ErrSetupNotCached = errors.New("setup session not cached")
	ErrSetupExpired   = errors.New("cached setup session expired")
	ErrSetupCorrupt   = errors.New("setup record corrupt")
)

// SetupRecord is the persisted one-time enrollment session: the provisioned
// secret and its QR rendering, anchored to an absolute creation time. It uses
// a cache key distinct from the verification challenge.
type SetupRecord struct {
	Secret    string
	QRDataURL string
	CachedAt  time.Time
}

// SetupCache persists the enrollment session across process suspension with
// the same fixed-deadline rule as the verification challenge.
type SetupCache struct {
	kv  KV
	key string
	ttl time.Duration
	now func() time.Time
}

func NewSetupCache(kv KV, key string, ttl time.Duration) *SetupCache {
	if key == "" {
		key = "mfa:setup"
	}
	return &SetupCache{kv: kv, key: key, ttl: ttl, now: time.Now}
}

func (c *SetupCache) Save(ctx context.Context, record SetupRecord) error {
	remaining := record.CachedAt.Add(c.ttl).Sub(c.now())
	if remaining <= 0 {
		_ = c.kv.Delete(ctx, c.key)
		return ErrSetupExpired
	}
	return c.kv.Set(ctx, c.key, encodeSetupRecord(record), remaining)
}

func (c *SetupCache) Get(ctx context.Context) (SetupRecord, error) {
	data, err := c.kv.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, ErrKVNotFound) {
			return SetupRecord{}, ErrSetupNotCached
		}
		return SetupRecord{}, err
	}
	record, err := decodeSetupRecord(data)
	if err != nil {
		return SetupRecord{}, err
	}
	if c.now().After(record.CachedAt.Add(c.ttl)) {
		_ = c.kv.Delete(ctx, c.key)
		return SetupRecord{}, ErrSetupExpired
	}
	return record, nil
}

func (c *SetupCache) Delete(ctx context.Context) error {
	return c.kv.Delete(ctx, c.key)
}

// TTL reports the absolute setup session lifetime the cache enforces.
func (c *SetupCache) TTL() time.Duration {
	return c.ttl
}

func encodeSetupRecord(record SetupRecord) []byte {
	var buf bytes.Buffer
	buf.WriteByte(setupRecordVersion1)
	writeUnix(&buf, record.CachedAt)
	writeString16(&buf, record.Secret)
	writeString16(&buf, record.QRDataURL)
	return buf.Bytes()
}

func decodeSetupRecord(data []byte) (SetupRecord, error) {
	reader := bytes.NewReader(data)
	version, err := reader.ReadByte()
	if err != nil || version != setupRecordVersion1 {
		return SetupRecord{}, ErrSetupCorrupt
	}
	record := SetupRecord{}
	if record.CachedAt, err = readUnix(reader); err != nil {
		return SetupRecord{}, ErrSetupCorrupt
	}
	if record.Secret, err = readString16(reader); err != nil {
		return SetupRecord{}, ErrSetupCorrupt
	}
	if record.QRDataURL, err = readString16(reader); err != nil {
		return SetupRecord{}, ErrSetupCorrupt
	}
	return record, nil
}
