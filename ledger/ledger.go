// Package ledger implements the keyed record store and native balance
// ledger the ticker protocol runs on.
//
// Records are durable byte values addressed by keys derived from a fixed
// namespace tag plus a natural key, so at most one record exists per
// natural key. All mutations run inside a single serialized read-write
// transaction: an operation either commits fully or leaves no trace.
// Record allocation is create-only-if-absent, which is what enforces
// natural-key uniqueness (duplicate ticker registrations, duplicate
// subscription slots) without any in-process check.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	bucketRecords  = []byte("records")
	bucketBalances = []byte("balances")
)

// Ledger wraps a bbolt database holding records and balances.
type Ledger struct {
	db *bbolt.DB
}

// Open opens or creates the ledger database at dbPath.
// The parent directory is created if it does not exist.
func Open(dbPath string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("ledger: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketBalances} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: create buckets: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error { return l.db.Close() }

// Update runs fn inside a single serialized read-write transaction.
// If fn returns an error the transaction is rolled back and no partial
// state is retained. bbolt admits one writer at a time, so transactions
// that touch the same records are serialized; a caller that lost a race
// observes the winner's committed state on its next transaction.
func (l *Ledger) Update(fn func(*Tx) error) error {
	return l.db.Update(func(btx *bbolt.Tx) error {
		return fn(&Tx{btx: btx})
	})
}

// View runs fn inside a read-only transaction.
func (l *Ledger) View(fn func(*Tx) error) error {
	return l.db.View(func(btx *bbolt.Tx) error {
		return fn(&Tx{btx: btx})
	})
}
