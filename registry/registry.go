package registry

import (
	"encoding/binary"
	"fmt"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/tickerorg/libticker-go/identity"
	"github.com/tickerorg/libticker-go/ledger"
)

// Registry executes ticker registry operations against a ledger.
type Registry struct {
	ledger *ledger.Ledger
	now    func() int64
}

// New creates a Registry over the given ledger.
func New(l *ledger.Ledger) *Registry {
	return &Registry{
		ledger: l,
		now:    func() int64 { return time.Now().Unix() },
	}
}

// RegistrationKey returns the record key for a ticker symbol.
func RegistrationKey(ticker string) ledger.Key {
	return ledger.DeriveKey(ledger.NSTicker, []byte(ticker))
}

// RegisterRequest registers a new ticker symbol.
type RegisterRequest struct {
	Ticker          string
	TargetURL       string
	Description     string
	ContractAddress string // optional
	Owner           identity.ID

	// FeeRecipient receives the registration fee. It is supplied by
	// the caller and is not checked against any trusted address.
	FeeRecipient identity.ID
}

// Digest returns the canonical signing digest for the request.
func (req *RegisterRequest) Digest() [32]byte {
	return ledger.OpDigest("register",
		[]byte(req.Ticker),
		[]byte(req.TargetURL),
		[]byte(req.Description),
		[]byte(req.ContractAddress),
		req.Owner[:],
		req.FeeRecipient[:],
	)
}

// Register creates a TickerRegistration for req.Ticker, transferring
// the fixed registration fee from the owner to the fee recipient. The
// signature must be by req.Owner over req.Digest(). A second
// registration of the same symbol fails with ledger.ErrRecordExists.
func (r *Registry) Register(req *RegisterRequest, sig *ec.Signature) (*TickerRegistration, error) {
	if len(req.Ticker) > MaxTickerLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTickerTooLong, len(req.Ticker))
	}
	if len(req.TargetURL) > MaxTargetURLLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrURLTooLong, len(req.TargetURL))
	}
	if len(req.Description) > MaxDescriptionLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrDescriptionTooLong, len(req.Description))
	}
	if len(req.ContractAddress) > MaxContractAddressLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrContractAddressTooLong, len(req.ContractAddress))
	}
	if err := identity.Verify(req.Owner, req.Digest(), sig); err != nil {
		return nil, err
	}

	reg := &TickerRegistration{
		Owner:           req.Owner,
		Ticker:          req.Ticker,
		TargetURL:       req.TargetURL,
		Description:     req.Description,
		ContractAddress: req.ContractAddress,
		IsForSale:       false,
		Price:           0,
		CreatedAt:       r.now(),
	}
	data, err := SerializeRegistration(reg)
	if err != nil {
		return nil, err
	}

	err = r.ledger.Update(func(tx *ledger.Tx) error {
		if err := tx.Transfer(req.Owner, req.FeeRecipient, RegistrationFee); err != nil {
			return err
		}
		return tx.Create(RegistrationKey(req.Ticker), data)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// UpdateRequest updates the mutable metadata of a registration.
// Nil fields are left untouched. ContractAddress can be overwritten
// but never cleared.
type UpdateRequest struct {
	Ticker          string
	Owner           identity.ID
	TargetURL       *string
	Description     *string
	ContractAddress *string
}

// Digest returns the canonical signing digest for the request.
func (req *UpdateRequest) Digest() [32]byte {
	return ledger.OpDigest("update",
		[]byte(req.Ticker),
		req.Owner[:],
		optField(req.TargetURL),
		optField(req.Description),
		optField(req.ContractAddress),
	)
}

// Update applies the supplied fields to an existing registration.
// The signature must be by the record's stored owner.
func (r *Registry) Update(req *UpdateRequest, sig *ec.Signature) (*TickerRegistration, error) {
	if req.TargetURL != nil && len(*req.TargetURL) > MaxTargetURLLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrURLTooLong, len(*req.TargetURL))
	}
	if req.Description != nil && len(*req.Description) > MaxDescriptionLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrDescriptionTooLong, len(*req.Description))
	}
	if req.ContractAddress != nil && len(*req.ContractAddress) > MaxContractAddressLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrContractAddressTooLong, len(*req.ContractAddress))
	}
	if err := identity.Verify(req.Owner, req.Digest(), sig); err != nil {
		return nil, err
	}

	var updated *TickerRegistration
	err := r.ledger.Update(func(tx *ledger.Tx) error {
		reg, err := r.loadOwned(tx, req.Ticker, req.Owner)
		if err != nil {
			return err
		}
		if req.TargetURL != nil {
			reg.TargetURL = *req.TargetURL
		}
		if req.Description != nil {
			reg.Description = *req.Description
		}
		if req.ContractAddress != nil && *req.ContractAddress != "" {
			// Overwrite only. A set contract address cannot be cleared.
			reg.ContractAddress = *req.ContractAddress
		}
		updated = reg
		return r.store(tx, reg)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListForSaleRequest lists a registration on the marketplace.
type ListForSaleRequest struct {
	Ticker string
	Owner  identity.ID
	Price  uint64 // smallest native units; zero is accepted
}

// Digest returns the canonical signing digest for the request.
func (req *ListForSaleRequest) Digest() [32]byte {
	return ledger.OpDigest("list-for-sale",
		[]byte(req.Ticker),
		req.Owner[:],
		u64Field(req.Price),
	)
}

// ListForSale marks the registration for sale at the given price.
// The signature must be by the record's stored owner. A price of zero
// is accepted: the first buyer takes the ticker for free.
func (r *Registry) ListForSale(req *ListForSaleRequest, sig *ec.Signature) (*TickerRegistration, error) {
	if err := identity.Verify(req.Owner, req.Digest(), sig); err != nil {
		return nil, err
	}

	var updated *TickerRegistration
	err := r.ledger.Update(func(tx *ledger.Tx) error {
		reg, err := r.loadOwned(tx, req.Ticker, req.Owner)
		if err != nil {
			return err
		}
		reg.IsForSale = true
		reg.Price = req.Price
		updated = reg
		return r.store(tx, reg)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BuyRequest purchases a listed registration.
type BuyRequest struct {
	Ticker string
	Buyer  identity.ID
}

// Digest returns the canonical signing digest for the request.
func (req *BuyRequest) Digest() [32]byte {
	return ledger.OpDigest("buy", []byte(req.Ticker), req.Buyer[:])
}

// Buy transfers the listed price from the buyer to the current owner
// and reassigns ownership, atomically. Fails with ErrNotForSale if the
// registration is not listed. The signature must be by req.Buyer.
func (r *Registry) Buy(req *BuyRequest, sig *ec.Signature) (*TickerRegistration, error) {
	if err := identity.Verify(req.Buyer, req.Digest(), sig); err != nil {
		return nil, err
	}

	var updated *TickerRegistration
	err := r.ledger.Update(func(tx *ledger.Tx) error {
		reg, err := r.load(tx, req.Ticker)
		if err != nil {
			return err
		}
		if !reg.IsForSale {
			return fmt.Errorf("%w: %s", ErrNotForSale, req.Ticker)
		}
		if err := tx.Transfer(req.Buyer, reg.Owner, reg.Price); err != nil {
			return err
		}
		reg.Owner = req.Buyer
		reg.IsForSale = false
		reg.Price = 0
		updated = reg
		return r.store(tx, reg)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CancelSaleRequest delists a registration.
type CancelSaleRequest struct {
	Ticker string
	Owner  identity.ID
}

// Digest returns the canonical signing digest for the request.
func (req *CancelSaleRequest) Digest() [32]byte {
	return ledger.OpDigest("cancel-sale", []byte(req.Ticker), req.Owner[:])
}

// CancelSale clears the for-sale state unconditionally. Safe to call
// on a registration that is not listed. The signature must be by the
// record's stored owner.
func (r *Registry) CancelSale(req *CancelSaleRequest, sig *ec.Signature) (*TickerRegistration, error) {
	if err := identity.Verify(req.Owner, req.Digest(), sig); err != nil {
		return nil, err
	}

	var updated *TickerRegistration
	err := r.ledger.Update(func(tx *ledger.Tx) error {
		reg, err := r.loadOwned(tx, req.Ticker, req.Owner)
		if err != nil {
			return err
		}
		reg.IsForSale = false
		reg.Price = 0
		updated = reg
		return r.store(tx, reg)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get returns the registration for a ticker symbol, or
// ledger.ErrRecordNotFound.
func (r *Registry) Get(ticker string) (*TickerRegistration, error) {
	var reg *TickerRegistration
	err := r.ledger.View(func(tx *ledger.Tx) error {
		var err error
		reg, err = r.load(tx, ticker)
		return err
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) load(tx *ledger.Tx, ticker string) (*TickerRegistration, error) {
	data, err := tx.Get(RegistrationKey(ticker))
	if err != nil {
		return nil, err
	}
	return DeserializeRegistration(data)
}

// loadOwned loads a registration and checks the signer against the
// stored owner before any mutation.
func (r *Registry) loadOwned(tx *ledger.Tx, ticker string, signer identity.ID) (*TickerRegistration, error) {
	reg, err := r.load(tx, ticker)
	if err != nil {
		return nil, err
	}
	if reg.Owner != signer {
		return nil, fmt.Errorf("%w: signer is not the owner of %s", ErrNotAuthorized, ticker)
	}
	return reg, nil
}

func (r *Registry) store(tx *ledger.Tx, reg *TickerRegistration) error {
	data, err := SerializeRegistration(reg)
	if err != nil {
		return err
	}
	return tx.Put(RegistrationKey(reg.Ticker), data)
}

// optField encodes an optional string for digest hashing: a presence
// byte followed by the value.
func optField(s *string) []byte {
	if s == nil {
		return []byte{0}
	}
	return append([]byte{1}, *s...)
}

// u64Field encodes a uint64 for digest hashing.
func u64Field(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}
