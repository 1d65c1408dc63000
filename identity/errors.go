package identity

import "errors"

var (
	// ErrInvalidIdentity indicates the identity bytes are not a valid compressed public key.
	ErrInvalidIdentity = errors.New("identity: invalid identity")

	// ErrInvalidPrivateKey indicates the private key bytes are malformed.
	ErrInvalidPrivateKey = errors.New("identity: invalid private key")

	// ErrBadSignature indicates the signature does not verify against the identity.
	ErrBadSignature = errors.New("identity: bad signature")

	// ErrEmptyPassphrase indicates an empty passphrase was supplied for key derivation.
	ErrEmptyPassphrase = errors.New("identity: empty passphrase")

	// ErrShortSalt indicates the derivation salt is shorter than SaltLen.
	ErrShortSalt = errors.New("identity: salt too short")
)
