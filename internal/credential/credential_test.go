package credential

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestMakeSaltShapeAndRandomness(t *testing.T) {
	s1, err := MakeSalt()
	if err != nil {
		t.Fatal(err)
	}
	if len(s1) != 32 {
		t.Fatalf("salt length = %d, want 32", len(s1))
	}
	if _, err := hex.DecodeString(s1); err != nil {
		t.Fatalf("salt not hex: %v", err)
	}
	s2, _ := MakeSalt()
	if s1 == s2 {
		t.Fatal("two salts should not collide")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	userhash := strings.Repeat("ab", 32)
	salt, _ := MakeSalt()
	h1 := PasswordHash(userhash, salt)
	if len(h1) != 64 {
		t.Fatalf("hash length = %d, want 64", len(h1))
	}
	h2 := PasswordHash(userhash, salt)
	if h1 != h2 {
		t.Fatal("hashing is not deterministic for the same inputs")
	}
}

func TestPasswordHashLengthMismatch(t *testing.T) {
	if got := PasswordHash("short", "alsoshort"); got != "" {
		t.Fatalf("expected empty hash on mismatch, got %q", got)
	}
}

func TestCheckHashWithSalt(t *testing.T) {
	userhash := strings.Repeat("cd", 32)
	salt, _ := MakeSalt()
	stored := PasswordHash(userhash, salt)

	if !CheckHash(salt, stored, userhash) {
		t.Fatal("expected check_hash to accept the correct candidate")
	}
	if CheckHash(salt, stored, strings.Repeat("ff", 32)) {
		t.Fatal("expected check_hash to reject a wrong candidate")
	}
	if !CheckHash(salt, strings.ToUpper(stored), userhash) {
		t.Fatal("expected check_hash to be case-insensitive")
	}
}

func TestCheckHashLegacyNoSalt(t *testing.T) {
	stored := strings.Repeat("11", 32)
	if !CheckHash("", stored, stored) {
		t.Fatal("expected direct comparison to succeed for no-salt accounts")
	}
	if CheckHash("", stored, strings.Repeat("22", 32)) {
		t.Fatal("expected direct comparison to fail for mismatched hash")
	}
}
