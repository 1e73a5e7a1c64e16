package utils

import (
	"github.com/matthewhartstonge/argon2"
)

// HashSecret produces the encoded argon2 hash stored in CRON_SECRET_HASH.
func HashSecret(secret string) (string, error) {
	argon := argon2.DefaultConfig()
	encoded, err := argon.HashEncoded([]byte(secret))
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func VerifySecret(encodedHash, secret string) (bool, error) {
	ok, err := argon2.VerifyEncoded([]byte(secret), []byte(encodedHash))
	if err != nil {
		return false, err
	}
	return ok, nil
}
