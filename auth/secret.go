package auth

import (
	"errors"
	"fmt"
)

// MinSecretLen is the minimum signing-secret length in bytes. HS256 keys
// shorter than the hash output weaken the MAC.
const MinSecretLen = 32

// ErrSecretTooShort is returned when the signing secret is below MinSecretLen.
var ErrSecretTooShort = errors.New("signing secret too short")

// ValidateSecret checks the signing secret meets the minimum length.
func ValidateSecret(secret []byte) error {
	if len(secret) < MinSecretLen {
		return fmt.Errorf("%w: %d bytes (min %d)", ErrSecretTooShort, len(secret), MinSecretLen)
	}
	return nil
}
