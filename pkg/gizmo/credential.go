package gizmo

import "golang.org/x/crypto/bcrypt"

// bcrypt bakes a per-credential salt into the hash, so comparison only needs
// the stored hash and the candidate plaintext.
const credentialHashCost = 12

func hashCredential(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), credentialHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func compareCredential(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
