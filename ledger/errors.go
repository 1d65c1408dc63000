package ledger

import "errors"

var (
	// ErrRecordExists indicates an attempt to create a record at an occupied key.
	ErrRecordExists = errors.New("ledger: record already exists")

	// ErrRecordNotFound indicates no record is stored at the key.
	ErrRecordNotFound = errors.New("ledger: record not found")

	// ErrInsufficientFunds indicates the sender's balance cannot cover a transfer.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
)
