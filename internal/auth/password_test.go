package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)

	digest, err := h.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if digest == "pw123" || digest == "" {
		t.Fatalf("digest must not be empty or equal the plaintext")
	}

	if !h.Verify("pw123", digest) {
		t.Error("Verify(correct password) = false, want true")
	}
	if h.Verify("pw124", digest) {
		t.Error("Verify(wrong password) = true, want false")
	}
}

func TestPasswordHasher_SaltedDigests(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(bcrypt.MinCost)

	a, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	b, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password should differ (random salt)")
	}
	if !h.Verify("same-password", a) || !h.Verify("same-password", b) {
		t.Error("both digests should verify against the original password")
	}
}

func TestNewPasswordHasher_ClampsCost(t *testing.T) {
	t.Parallel()

	h := NewPasswordHasher(1000)
	digest, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("Hash with clamped cost error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		t.Fatalf("Cost error: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want bcrypt.DefaultCost", cost)
	}
}
