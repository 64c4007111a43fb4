// Package envelope translates backend error payloads into safe,
// human-readable messages. Server-fault bodies (5xx) are never trusted for
// display text: every status in that family maps to fixed generic wording
// regardless of what the backend sent.
package envelope

import (
	"encoding/json"
	"sort"
	"strings"
)

// Envelope is the structured error payload of the ERP backend: either a
// single message or a map of field-level validation messages, optionally a
// structured lockout hint.
type Envelope struct {
	Message           string              `json:"message"`
	Errors            map[string][]string `json:"errors"`
	RetryAfterSeconds int                 `json:"retryAfterSeconds"`
}

const (
	// GenericServerMessage replaces any 5xx body.
	GenericServerMessage = "The server ran into a problem. Please try again shortly."
	// GenericClientMessage covers 4xx responses without a parseable envelope.
	GenericClientMessage = "The request could not be completed."
	// GenericNetworkMessage covers transport failures with no response.
	GenericNetworkMessage = "Cannot reach the server. Check your connection and try again."
	// RateLimitedMessage covers an exhausted rate-limit retry.
	RateLimitedMessage = "Too many requests. Please wait a moment and try again."
)

// Parse decodes the envelope from a response body. The second return is
// false when the body carries no usable structure.
func Parse(body []byte) (Envelope, bool) {
	var env Envelope
	if len(body) == 0 {
		return env, false
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, false
	}
	return env, env.Message != "" || len(env.Errors) > 0 || env.RetryAfterSeconds > 0
}

// Text flattens the envelope into one display string: the single message, or
// the field-level messages joined in stable field order.
func (e Envelope) Text() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Errors) == 0 {
		return ""
	}
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(e.Errors))
	for _, field := range fields {
		for _, msg := range e.Errors[field] {
			parts = append(parts, field+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

// Message returns the display text for a non-2xx response. 5xx statuses
// always yield the fixed generic message; 4xx statuses surface the envelope
// verbatim when present.
func Message(status int, body []byte) string {
	if status >= 500 {
		return GenericServerMessage
	}
	if env, ok := Parse(body); ok {
		if text := env.Text(); text != "" {
			return text
		}
	}
	return GenericClientMessage
}
