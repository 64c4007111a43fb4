package stores

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bktSession = []byte("session")

// BoltKV stores session records in a single-file bbolt database, the
// per-device analog of a browser's per-origin storage. bbolt has no native
// TTL, so each value carries an 8-byte absolute deadline prefix; expired
// records are deleted on read.
type BoltKV struct {
	db  *bolt.DB
	now func() time.Time
}

// NewBoltKV opens (or creates) the database file at path.
func NewBoltKV(path string) (*BoltKV, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKVUnavailable, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bktSession)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrKVUnavailable, err)
	}
	return &BoltKV{db: db, now: time.Now}, nil
}

// Close releases the underlying database file.
func (s *BoltKV) Close() error {
	return s.db.Close()
}

func (s *BoltKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var deadline int64
	if ttl > 0 {
		deadline = s.now().Add(ttl).Unix()
	}
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf[:8], uint64(deadline))
	copy(buf[8:], value)

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bktSession).Put([]byte(key), buf)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKVUnavailable, err)
	}
	return nil
}

func (s *BoltKV) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	var expired bool
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bktSession).Get([]byte(key))
		if raw == nil || len(raw) < 8 {
			return nil
		}
		deadline := int64(binary.BigEndian.Uint64(raw[:8]))
		if deadline > 0 && s.now().Unix() > deadline {
			expired = true
			return nil
		}
		out = make([]byte, len(raw)-8)
		copy(out, raw[8:])
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKVUnavailable, err)
	}
	if expired {
		_ = s.Delete(ctx, key)
		return nil, ErrKVNotFound
	}
	if out == nil {
		return nil, ErrKVNotFound
	}
	return out, nil
}

func (s *BoltKV) Delete(ctx context.Context, key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bktSession).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKVUnavailable, err)
	}
	return nil
}
