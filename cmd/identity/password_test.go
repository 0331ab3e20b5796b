package identity

import "testing"

func TestHashAndVerify_OK(t *testing.T) {
	h, err := HashPassword("this is a strong password 123!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if !VerifyPassword("this is a strong password 123!", h) {
		t.Fatalf("expected match")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	h, err := HashPassword("this is a strong password 123!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	if VerifyPassword("wrong password", h) {
		t.Fatalf("expected mismatch")
	}
}

func TestHash_EmptyRejected(t *testing.T) {
	if _, err := HashPassword("   "); !IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	if VerifyPassword("whatever", "not-a-hash") {
		t.Fatalf("expected false for malformed hash")
	}
}

func TestIsBcryptHash(t *testing.T) {
	h, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !IsBcryptHash(h) {
		t.Fatalf("expected bcrypt shape for %q", h)
	}
	for _, stored := range []string{"", "plaintext", "sha1$abc", "2a$10$..."} {
		if IsBcryptHash(stored) {
			t.Fatalf("expected non-bcrypt for %q", stored)
		}
	}
}

func TestLegacyVerify(t *testing.T) {
	if !LegacyVerify("hunter2", "hunter2") {
		t.Fatalf("expected match")
	}
	if LegacyVerify("hunter2", "hunter3") {
		t.Fatalf("expected mismatch")
	}
	if LegacyVerify("hunter2", "hunter22") {
		t.Fatalf("expected mismatch on length")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Grace@Example.COM "); got != "grace@example.com" {
		t.Fatalf("NormalizeEmail = %q", got)
	}
}
