package agroSession

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiringWithin inspects the access credential's exp claim without
// verifying the signature — the client never holds the signing key, and the
// claim is only a renewal hint; the server remains the authority on expiry.
// Opaque or claimless tokens report false and fall back to reactive renewal.
func tokenExpiringWithin(token string, now time.Time, skew time.Duration) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Add(skew).Before(exp.Time)
}
