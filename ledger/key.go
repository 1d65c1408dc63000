package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Record namespace tags. Each record kind lives in its own keyspace.
const (
	NSTicker        = "ticker"
	NSPaymentConfig = "payment-config"
	NSSubscription  = "subscription"
	NSPaymentRecord = "payment-record"
)

// KeyLen is the length of a derived record key.
const KeyLen = 32

// Key addresses a single record.
type Key [KeyLen]byte

// String returns the hex encoding of the key.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// OpDigest derives the canonical signing digest for an operation from
// its tag and parameters. It uses the same length-prefixed hashing as
// record keys, under a separate "op/" namespace so digests can never
// collide with record addresses.
func OpDigest(op string, parts ...[]byte) [32]byte {
	return [32]byte(DeriveKey("op/"+op, parts...))
}

// DeriveKey derives a record key from a namespace tag and the parts of
// the record's natural key. Each part is length-prefixed before hashing
// so distinct part sequences can never collide.
func DeriveKey(namespace string, parts ...[]byte) Key {
	h := sha256.New()
	var lenBuf [4]byte

	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(namespace)))
	h.Write(lenBuf[:])
	h.Write([]byte(namespace))

	for _, part := range parts {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(part)))
		h.Write(lenBuf[:])
		h.Write(part)
	}

	var key Key
	copy(key[:], h.Sum(nil))
	return key
}
