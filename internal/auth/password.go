package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher wraps bcrypt so the flows never touch plaintext handling
// details directly.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher builds a hasher at the default bcrypt cost.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcrypt.DefaultCost}
}

// Hash derives a one-way salted hash of the password.
func (h *PasswordHasher) Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), h.cost)
}

// Verify reports whether the password matches the stored hash. bcrypt's
// comparison is constant-time over the derived key.
func (h *PasswordHasher) Verify(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
