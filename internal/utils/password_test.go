package utils

import "testing"

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret", 4) // min cost keeps the test fast
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash equals the plain password")
	}
	if !VerifyPassword(hash, "s3cret") {
		t.Error("VerifyPassword rejected the correct password")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("VerifyPassword accepted a wrong password")
	}
}

func TestVerifyPassword_GarbageHash(t *testing.T) {
	if VerifyPassword("not-a-bcrypt-hash", "anything") {
		t.Error("VerifyPassword accepted a garbage hash")
	}
}
