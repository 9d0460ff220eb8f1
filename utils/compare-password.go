package utils

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrIncorrectPassword = errors.New("incorrect password")

func ComparePass(password, hashPassword string) error {
	parts := strings.Split(hashPassword, ".")
	if len(parts) != 2 {
		return errors.New("invalid format")
	}
	saltBase64 := parts[0]
	hashBase64 := parts[1]

	salt, err := base64.StdEncoding.DecodeString(saltBase64)
	if err != nil {
		return err
	}
	hash, err := base64.StdEncoding.DecodeString(hashBase64)
	if err != nil {
		return err
	}
	Hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	if subtle.ConstantTimeCompare(hash, Hash) != 1 {
		return ErrIncorrectPassword
	}
	return nil

}
