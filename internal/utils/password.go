package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash of plain at the given cost.
// Costs below bcrypt's minimum fall back to the library default so a
// misconfigured cost can never produce a weak hash.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash against a plaintext candidate.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
