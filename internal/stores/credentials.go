package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const credentialRecordVersion1 = 1

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrCredentialsCorrupt  = errors.New("credential record corrupt")
)

// CredentialPair is the access/refresh credential pair. The refresh credential
// rotates: every renewal replaces both values and invalidates the old refresh
// credential server-side.
type CredentialPair struct {
	AccessToken  string
	RefreshToken string
}

// CredentialStore persists the credential pair as one record so both halves
// are always replaced together.
type CredentialStore struct {
	kv  KV
	key string
}

func NewCredentialStore(kv KV, key string) *CredentialStore {
	if key == "" {
		key = "credentials"
	}
	return &CredentialStore{kv: kv, key: key}
}

// Save atomically replaces the stored pair. The record has no TTL; its
// lifetime is bounded by logout and renewal failure, not by the clock.
func (s *CredentialStore) Save(ctx context.Context, pair CredentialPair) error {
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return ErrCredentialsCorrupt
	}
	return s.kv.Set(ctx, s.key, encodeCredentialPair(pair), 0)
}

func (s *CredentialStore) Load(ctx context.Context) (CredentialPair, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrKVNotFound) {
			return CredentialPair{}, ErrCredentialsNotFound
		}
		return CredentialPair{}, err
	}
	return decodeCredentialPair(data)
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key)
}

func encodeCredentialPair(pair CredentialPair) []byte {
	var buf bytes.Buffer
	buf.WriteByte(credentialRecordVersion1)
	writeString16(&buf, pair.AccessToken)
	writeString16(&buf, pair.RefreshToken)
	return buf.Bytes()
}

func decodeCredentialPair(data []byte) (CredentialPair, error) {
	reader := bytes.NewReader(data)
	version, err := reader.ReadByte()
	if err != nil || version != credentialRecordVersion1 {
		return CredentialPair{}, ErrCredentialsCorrupt
	}
	access, err := readString16(reader)
	if err != nil {
		return CredentialPair{}, ErrCredentialsCorrupt
	}
	refresh, err := readString16(reader)
	if err != nil {
		return CredentialPair{}, ErrCredentialsCorrupt
	}
	return CredentialPair{AccessToken: access, RefreshToken: refresh}, nil
}

func writeString16(buf *bytes.Buffer, s string) {
	if len(s) > 65535 {
		s = s[:65535]
	}
	_ = binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
}

func readString16(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		return "", err
	}
	return string(out), nil
}

func writeUnix(buf *bytes.Buffer, t time.Time) {
	_ = binary.Write(buf, binary.BigEndian, t.Unix())
}

func readUnix(reader *bytes.Reader) (time.Time, error) {
	var unix int64
	if err := binary.Read(reader, binary.BigEndian, &unix); err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0), nil
}
