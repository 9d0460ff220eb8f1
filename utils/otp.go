package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateOTP returns a uniformly random six digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashSecret is used for OTP codes and reset tokens, which are short lived and
// only ever compared, so a plain SHA-256 is enough.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func SecretMatches(secret, hashed string) bool {
	return subtle.ConstantTimeCompare([]byte(HashSecret(secret)), []byte(hashed)) == 1
}

// ResetToken returns a random hex token and its hash for storage.
func ResetToken() (token, hashed string, err error) {
	b := make([]byte, 16)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(b)
	return token, HashSecret(token), nil
}
