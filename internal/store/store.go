// Package store keeps live game sessions between requests. Sessions are
// keyed by a digest of their token, so a leaked table or keyspace does not
// leak usable tokens.
package store

import (
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

func sessionKey(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
