package utils

import "golang.org/x/crypto/bcrypt"

// HashStaffPassword hashes a plaintext password for storage. Never store plaintext.
func HashStaffPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckStaffPassword returns nil if plain matches stored bcrypt hash.
func CheckStaffPassword(plain, hashed string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
