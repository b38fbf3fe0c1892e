package handlers

import "testing"

func TestPasswordHashing(t *testing.T) {
	password := "pass123"
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if err := verifyPassword(hash, password); err != nil {
		t.Fatalf("verifyPassword should succeed: %v", err)
	}
	if err := verifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("verifyPassword should fail for wrong password")
	}
}

func TestPasswordHashing_SaltsDiffer(t *testing.T) {
	a, err := hashPassword("pass123")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	b, err := hashPassword("pass123")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if a == b {
		t.Fatal("same password must hash differently under fresh salts")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	if err := verifyPassword("not-a-hash", "pass123"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
