package ledger

import (
	"encoding/binary"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/tickerorg/libticker-go/identity"
)

// Tx is a single ledger transaction. All reads and writes through a Tx
// are atomic with respect to the enclosing Update or View call.
type Tx struct {
	btx *bbolt.Tx
}

// Create allocates a record at key. It fails with ErrRecordExists if a
// record is already stored there; this is the only uniqueness guarantee
// the ledger provides for natural keys.
func (tx *Tx) Create(key Key, value []byte) error {
	b := tx.btx.Bucket(bucketRecords)
	if b.Get(key[:]) != nil {
		return fmt.Errorf("%w: %s", ErrRecordExists, key)
	}
	if err := b.Put(key[:], value); err != nil {
		return fmt.Errorf("ledger: put record: %w", err)
	}
	return nil
}

// Get returns the record stored at key, or ErrRecordNotFound.
func (tx *Tx) Get(key Key) ([]byte, error) {
	v := tx.btx.Bucket(bucketRecords).Get(key[:])
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put overwrites the record stored at key. The record must already
// exist; records are allocated only through Create.
func (tx *Tx) Put(key Key, value []byte) error {
	b := tx.btx.Bucket(bucketRecords)
	if b.Get(key[:]) == nil {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	if err := b.Put(key[:], value); err != nil {
		return fmt.Errorf("ledger: put record: %w", err)
	}
	return nil
}

// Has reports whether a record exists at key.
func (tx *Tx) Has(key Key) bool {
	return tx.btx.Bucket(bucketRecords).Get(key[:]) != nil
}

// Balance returns the native balance of id in smallest units.
// Unknown identities have balance zero.
func (tx *Tx) Balance(id identity.ID) uint64 {
	v := tx.btx.Bucket(bucketBalances).Get(id[:])
	if v == nil {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

// Deposit credits amount to id. This is the funding ingress for value
// entering the ledger from outside (the emulated runtime has no mint).
func (tx *Tx) Deposit(id identity.ID, amount uint64) error {
	return tx.setBalance(id, tx.Balance(id)+amount)
}

// Transfer moves amount from one identity to another. It fails with
// ErrInsufficientFunds if the sender's balance is below amount, leaving
// both balances untouched. A zero-amount transfer is a no-op.
func (tx *Tx) Transfer(from, to identity.ID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	fromBal := tx.Balance(from)
	if fromBal < amount {
		return fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, fromBal, amount)
	}
	if from == to {
		return nil
	}
	if err := tx.setBalance(from, fromBal-amount); err != nil {
		return err
	}
	return tx.setBalance(to, tx.Balance(to)+amount)
}

func (tx *Tx) setBalance(id identity.ID, amount uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], amount)
	if err := tx.btx.Bucket(bucketBalances).Put(id[:], buf[:]); err != nil {
		return fmt.Errorf("ledger: put balance: %w", err)
	}
	return nil
}
