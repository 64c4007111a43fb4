package flows

import "time"

// Challenge is the resolved "current challenge": a password-verified but not
// yet fully authenticated session. CachedAt anchors the absolute deadline.
type Challenge struct {
	Token    string
	UserID   string
	Email    string
	Digits   [DigitCount]byte
	CachedAt time.Time
}

// ChallengeSource identifies where the resolved challenge came from.
type ChallengeSource int

const (
	SourceNone ChallengeSource = iota
	// SourceDescriptor is the challenge handed over by the immediately
	// preceding login response.
	SourceDescriptor
	// SourceMemory is the challenge still held by this process.
	SourceMemory
	// SourceCache is a challenge restored from the persisted cache after the
	// process was torn down and recreated.
	SourceCache
)

// ResolveChallenge computes the single current challenge once at entry, in
// priority order: explicit descriptor, in-memory state, persisted cache.
// A descriptor whose token matches a challenge already tracked resolves to
// that prior record: the deadline anchor is fixed at first sight of the
// token, and re-passing the same descriptor must neither re-anchor it nor
// discard digit progress. The cache error is swallowed because an unreadable
// or expired cache is equivalent to absence.
func ResolveChallenge(explicit, memory *Challenge, cached func() (Challenge, error)) (Challenge, ChallengeSource) {
	if explicit != nil && explicit.Token != "" {
		if memory != nil && memory.Token == explicit.Token {
			return *memory, SourceMemory
		}
		if cached != nil {
			if ch, err := cached(); err == nil && ch.Token == explicit.Token {
				return ch, SourceCache
			}
		}
		return *explicit, SourceDescriptor
	}
	if memory != nil && memory.Token != "" {
		return *memory, SourceMemory
	}
	if cached != nil {
		if ch, err := cached(); err == nil && ch.Token != "" {
			return ch, SourceCache
		}
	}
	return Challenge{}, SourceNone
}
