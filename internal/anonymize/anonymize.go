// Package anonymize replaces account identifiers with deterministic keyed
// tokens so the evidence can be shared without exposing the accounts.
package anonymize

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/pilgrimlyieu/starwatch/internal/domain"
)

// ErrMissingKey is returned when no anonymization key is configured.
var ErrMissingKey = errors.New("anonymization key is not set; export it via the configured environment variable")

// TokenFor maps a login to its opaque token: hex(HMAC-SHA256(key, login)).
// The same key and login always yield the same token, and the login cannot be
// recovered without the key.
func TokenFor(key, login string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(login))
	return hex.EncodeToString(mac.Sum(nil))
}

// Events rewrites the victim_user column of every event to its token. The
// transform is per-row and column-local: row count, row order, target_repo,
// and starred_at are left untouched.
func Events(key string, events []domain.StarEvent) ([]domain.StarEvent, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	out := make([]domain.StarEvent, len(events))
	for i, event := range events {
		event.VictimUser = TokenFor(key, event.VictimUser)
		out[i] = event
	}
	return out, nil
}
