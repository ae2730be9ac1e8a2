// Package credential implements the salt-and-hash password verification
// scheme described in spec.md §4.4: a per-user random salt and a
// SHA-256 hash of userhash||salt, with a legacy no-salt compatibility
// path for accounts created before salting existed.
package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/poolcore/ckdb/pkg/helpers"
	"github.com/poolcore/ckdb/pkg/logging"
)

const (
	saltBytes = 16
	hashBytes = 32
)

// MakeSalt returns 16 random bytes rendered as 32 lowercase hex
// characters, for a new user's USERS.salt field.
func MakeSalt() (string, error) {
	b, err := helpers.GenerateSecureRandom(saltBytes)
	if err != nil {
		return "", fmt.Errorf("credential: generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// PasswordHash computes the stored hash for a user: decode userhash
// (64 hex chars, 32 bytes) and salt (32 hex chars, 16 bytes), concatenate,
// SHA-256, render hex. A length mismatch on either input is an input
// error (spec.md §7 stratum 2): it logs and returns an empty hash rather
// than aborting, since a malformed credential string can arrive from a
// miner-facing client.
func PasswordHash(userhash, salt string) string {
	uh, err := hex.DecodeString(userhash)
	if err != nil || len(uh) != hashBytes {
		logging.Errorf("credential: userhash must be %d hex bytes, got %q", hashBytes, userhash)
		return ""
	}
	s, err := hex.DecodeString(salt)
	if err != nil || len(s) != saltBytes {
		logging.Errorf("credential: salt must be %d hex bytes, got %q", saltBytes, salt)
		return ""
	}
	sum := sha256.Sum256(append(append([]byte{}, uh...), s...))
	return hex.EncodeToString(sum[:])
}

// CheckHash implements check_hash (spec.md §4.4): if salt is non-empty,
// rehash candidateHex with salt and compare (case-insensitively) against
// storedHash; otherwise compare candidateHex directly against
// storedHash, for legacy no-salt accounts.
func CheckHash(salt, storedHash, candidateHex string) bool {
	if salt == "" {
		return constantTimeEqualFold(candidateHex, storedHash)
	}
	computed := PasswordHash(candidateHex, salt)
	if computed == "" {
		return false
	}
	return constantTimeEqualFold(computed, storedHash)
}

func constantTimeEqualFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if len(la) != len(lb) {
		return false
	}
	return helpers.ConstantTimeCompare([]byte(la), []byte(lb))
}
