package security_test

import (
	"testing"

	"github.com/jobscout/jobscout/internal/security"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if hash == "hunter2hunter2" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := security.CheckPassword(hash, "hunter2hunter2"); err != nil {
		t.Errorf("correct password rejected: %v", err)
	}

	if err := security.CheckPassword(hash, "wrong-password"); err == nil {
		t.Error("wrong password accepted")
	}
}

func TestNewResetToken(t *testing.T) {
	raw, hash, err := security.NewResetToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}

	// 20 random bytes, hex encoded
	if len(raw) != 40 {
		t.Errorf("raw length = %d, want 40", len(raw))
	}

	if hash == raw {
		t.Error("stored hash must differ from the raw token")
	}

	if security.HashResetToken(raw) != hash {
		t.Error("hashing the raw token must reproduce the stored hash")
	}

	raw2, _, err := security.NewResetToken()
	if err != nil {
		t.Fatalf("second token: %v", err)
	}
	if raw2 == raw {
		t.Error("tokens must not repeat")
	}
}
