package identity

import "golang.org/x/crypto/argon2"

const (
	// Argon2id parameters for passphrase key derivation.
	Argon2Time        = 3
	Argon2Memory      = 64 * 1024 // 64 MB
	Argon2Parallelism = 4
	Argon2KeyLen      = 32

	// SaltLen is the minimum salt length for passphrase derivation.
	SaltLen = 16
)

// KeyPairFromPassphrase derives a deterministic key pair from a
// passphrase and salt using Argon2id. The same passphrase and salt
// always yield the same identity.
func KeyPairFromPassphrase(passphrase string, salt []byte) (*KeyPair, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if len(salt) < SaltLen {
		return nil, ErrShortSalt
	}

	seed := argon2.IDKey([]byte(passphrase), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)
	return KeyPairFromBytes(seed)
}
