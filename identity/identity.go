// Package identity implements signer identities for the ticker ledger.
//
// An identity is a 33-byte compressed secp256k1 public key. Key pairs
// sign operation digests; the ledger engines verify those signatures
// against the authorizing identity before an operation body runs.
package identity

import (
	"bytes"
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// IDLen is the length of a compressed public key identity.
const IDLen = 33

// ID is a compressed secp256k1 public key identifying a party
// (owner, buyer, payer, subscriber, fee recipient).
type ID [IDLen]byte

// Zero reports whether the identity is the all-zero value.
func (id ID) Zero() bool {
	return id == ID{}
}

// Bytes returns the identity as a byte slice.
func (id ID) Bytes() []byte {
	return id[:]
}

// String returns the hex encoding of the identity.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IDFromBytes converts a 33-byte slice into an ID.
func IDFromBytes(b []byte) (ID, error) {
	var id ID
	if len(b) != IDLen {
		return id, fmt.Errorf("%w: %d bytes", ErrInvalidIdentity, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// IDFromString parses a hex-encoded identity.
func IDFromString(s string) (ID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	return IDFromBytes(b)
}

// KeyPair holds a secp256k1 key pair for signing operations.
type KeyPair struct {
	priv *ec.PrivateKey
	pub  *ec.PublicKey
}

// NewKeyPair generates a random key pair.
func NewKeyPair() (*KeyPair, error) {
	priv, err := ec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("identity: generate key: %w", err)
	}
	return &KeyPair{priv: priv, pub: priv.PubKey()}, nil
}

// KeyPairFromBytes builds a key pair from a 32-byte private key.
func KeyPairFromBytes(b []byte) (*KeyPair, error) {
	if len(b) != 32 || bytes.Equal(b, make([]byte, 32)) {
		return nil, ErrInvalidPrivateKey
	}
	priv, pub := ec.PrivateKeyFromBytes(b)
	return &KeyPair{priv: priv, pub: pub}, nil
}

// ID returns the key pair's identity (compressed public key).
func (kp *KeyPair) ID() ID {
	var id ID
	copy(id[:], kp.pub.Compressed())
	return id
}

// Sign signs a 32-byte operation digest.
func (kp *KeyPair) Sign(digest [32]byte) (*ec.Signature, error) {
	sig, err := kp.priv.Sign(digest[:])
	if err != nil {
		return nil, fmt.Errorf("identity: sign: %w", err)
	}
	return sig, nil
}

// Verify checks that sig is a valid signature by id over digest.
// Returns ErrBadSignature on mismatch.
func Verify(id ID, digest [32]byte, sig *ec.Signature) error {
	if sig == nil {
		return fmt.Errorf("%w: nil signature", ErrBadSignature)
	}
	pub, err := ec.PublicKeyFromBytes(id[:])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	if !sig.Verify(digest[:], pub) {
		return ErrBadSignature
	}
	return nil
}
