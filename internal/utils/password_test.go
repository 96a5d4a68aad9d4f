package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret123!", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Secret123!" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !VerifyPassword(hash, "Secret123!") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordCostFallback(t *testing.T) {
	// A below-minimum cost falls back to the library default rather
	// than failing or producing a weak hash.
	hash, err := HashPassword("Secret123!", 0)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}
