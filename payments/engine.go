package payments

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/tickerorg/libticker-go/identity"
	"github.com/tickerorg/libticker-go/ledger"
)

// Engine executes payment and subscription operations against a ledger.
type Engine struct {
	ledger *ledger.Ledger
	now    func() int64
}

// New creates an Engine over the given ledger.
func New(l *ledger.Ledger) *Engine {
	return &Engine{
		ledger: l,
		now:    func() int64 { return time.Now().Unix() },
	}
}

// ConfigKey returns the record key for a ticker's payment configuration.
func ConfigKey(ticker string) ledger.Key {
	return ledger.DeriveKey(ledger.NSPaymentConfig, []byte(ticker))
}

// SubscriptionKey returns the record key for a subscriber's slot on a
// configuration.
func SubscriptionKey(configKey ledger.Key, subscriber identity.ID) ledger.Key {
	return ledger.DeriveKey(ledger.NSSubscription, configKey[:], subscriber[:])
}

// receiptKey allocates a fresh key for a payment receipt. Receipts
// have no natural key; a random nonce keeps the log append-only.
func receiptKey() (ledger.Key, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return ledger.Key{}, fmt.Errorf("payments: receipt nonce: %w", err)
	}
	return ledger.DeriveKey(ledger.NSPaymentRecord, nonce), nil
}

// ConfigureRequest creates a payment configuration for a ticker.
// The configuration is independent of the registry's record for the
// same symbol; neither existence nor ownership is cross-checked.
type ConfigureRequest struct {
	Ticker              string
	Owner               identity.ID
	BaseFee             uint64
	RevenueShares       []RevenueShare
	SubscriptionEnabled bool
	SubscriptionPrice   uint64
	SubscriptionPeriod  uint64 // seconds
}

// Digest returns the canonical signing digest for the request.
func (req *ConfigureRequest) Digest() [32]byte {
	return ledger.OpDigest("configure",
		[]byte(req.Ticker),
		req.Owner[:],
		u64Field(req.BaseFee),
		sharesField(req.RevenueShares),
		boolField(req.SubscriptionEnabled),
		u64Field(req.SubscriptionPrice),
		u64Field(req.SubscriptionPeriod),
	)
}

// Configure creates the PaymentConfiguration for req.Ticker with
// zeroed counters. The signature must be by req.Owner. A second
// configuration of the same symbol fails with ledger.ErrRecordExists.
func (e *Engine) Configure(req *ConfigureRequest, sig *ec.Signature) (*PaymentConfiguration, error) {
	if len(req.Ticker) > MaxTickerLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTickerTooLong, len(req.Ticker))
	}
	if err := ValidateShares(req.RevenueShares); err != nil {
		return nil, err
	}
	if err := identity.Verify(req.Owner, req.Digest(), sig); err != nil {
		return nil, err
	}

	cfg := &PaymentConfiguration{
		Ticker:              req.Ticker,
		Owner:               req.Owner,
		BaseFee:             req.BaseFee,
		RevenueShares:       req.RevenueShares,
		SubscriptionEnabled: req.SubscriptionEnabled,
		SubscriptionPrice:   req.SubscriptionPrice,
		SubscriptionPeriod:  req.SubscriptionPeriod,
		CreatedAt:           e.now(),
	}
	data, err := SerializeConfig(cfg)
	if err != nil {
		return nil, err
	}

	err = e.ledger.Update(func(tx *ledger.Tx) error {
		return tx.Create(ConfigKey(req.Ticker), data)
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReconfigureRequest updates a payment configuration. Nil fields are
// left untouched; RevenueShares, when non-nil, wholesale-replaces the
// stored sequence.
type ReconfigureRequest struct {
	Ticker              string
	Owner               identity.ID
	BaseFee             *uint64
	RevenueShares       []RevenueShare // nil = unchanged
	SubscriptionEnabled *bool
	SubscriptionPrice   *uint64
	SubscriptionPeriod  *uint64
}

// Digest returns the canonical signing digest for the request.
func (req *ReconfigureRequest) Digest() [32]byte {
	shares := []byte{0}
	if req.RevenueShares != nil {
		shares = append([]byte{1}, sharesField(req.RevenueShares)...)
	}
	return ledger.OpDigest("reconfigure",
		[]byte(req.Ticker),
		req.Owner[:],
		optU64Field(req.BaseFee),
		shares,
		optBoolField(req.SubscriptionEnabled),
		optU64Field(req.SubscriptionPrice),
		optU64Field(req.SubscriptionPeriod),
	)
}

// Reconfigure applies the supplied fields to an existing
// configuration. The signature must be by the configuration's stored
// owner.
func (e *Engine) Reconfigure(req *ReconfigureRequest, sig *ec.Signature) (*PaymentConfiguration, error) {
	if req.RevenueShares != nil {
		if err := ValidateShares(req.RevenueShares); err != nil {
			return nil, err
		}
	}
	if err := identity.Verify(req.Owner, req.Digest(), sig); err != nil {
		return nil, err
	}

	var updated *PaymentConfiguration
	err := e.ledger.Update(func(tx *ledger.Tx) error {
		cfg, err := e.loadOwned(tx, req.Ticker, req.Owner)
		if err != nil {
			return err
		}
		if req.BaseFee != nil {
			cfg.BaseFee = *req.BaseFee
		}
		if req.RevenueShares != nil {
			cfg.RevenueShares = req.RevenueShares
		}
		if req.SubscriptionEnabled != nil {
			cfg.SubscriptionEnabled = *req.SubscriptionEnabled
		}
		if req.SubscriptionPrice != nil {
			cfg.SubscriptionPrice = *req.SubscriptionPrice
		}
		if req.SubscriptionPeriod != nil {
			cfg.SubscriptionPeriod = *req.SubscriptionPeriod
		}
		updated = cfg
		return e.store(tx, cfg)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// PayRequest makes a one-off payment against a ticker's configuration.
type PayRequest struct {
	// Ticker names the configuration to update and is recorded on the
	// receipt as supplied.
	Ticker string
	Payer  identity.ID

	// Recipient receives the payment. It is supplied by the caller
	// and is not cross-checked against the configuration's stored
	// owner.
	Recipient identity.ID

	// Amount is the payment in smallest native units. No relation to
	// the configuration's base fee is enforced.
	Amount uint64
}

// Digest returns the canonical signing digest for the request.
func (req *PayRequest) Digest() [32]byte {
	return ledger.OpDigest("pay",
		[]byte(req.Ticker),
		req.Payer[:],
		req.Recipient[:],
		u64Field(req.Amount),
	)
}

// Pay transfers req.Amount from the payer to the recipient, bumps the
// configuration's counters, and appends a receipt, atomically. The
// signature must be by req.Payer.
func (e *Engine) Pay(req *PayRequest, sig *ec.Signature) (*PaymentRecord, error) {
	if err := identity.Verify(req.Payer, req.Digest(), sig); err != nil {
		return nil, err
	}

	var receipt *PaymentRecord
	err := e.ledger.Update(func(tx *ledger.Tx) error {
		cfg, err := e.load(tx, req.Ticker)
		if err != nil {
			return err
		}
		if err := tx.Transfer(req.Payer, req.Recipient, req.Amount); err != nil {
			return err
		}
		cfg.TotalPayments++
		cfg.TotalRevenue += req.Amount
		if err := e.store(tx, cfg); err != nil {
			return err
		}
		receipt, err = e.writeReceipt(tx, req.Ticker, req.Payer, req.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// SubscribeRequest opens a subscription slot on a configuration.
type SubscribeRequest struct {
	Ticker     string
	Subscriber identity.ID

	// Recipient receives the subscription price; caller-supplied, not
	// cross-checked against the configuration's stored owner.
	Recipient identity.ID
}

// Digest returns the canonical signing digest for the request.
func (req *SubscribeRequest) Digest() [32]byte {
	return ledger.OpDigest("subscribe",
		[]byte(req.Ticker),
		req.Subscriber[:],
		req.Recipient[:],
	)
}

// Subscribe transfers the configuration's subscription price from the
// subscriber to the recipient and allocates the subscriber's slot with
// expires_at = now + period. Fails with ErrSubscriptionsNotEnabled if
// the configuration has subscriptions off, and with
// ledger.ErrRecordExists if the slot was ever allocated before,
// regardless of is_active or expiry. The signature must be by
// req.Subscriber.
func (e *Engine) Subscribe(req *SubscribeRequest, sig *ec.Signature) (*Subscription, error) {
	if err := identity.Verify(req.Subscriber, req.Digest(), sig); err != nil {
		return nil, err
	}

	var sub *Subscription
	err := e.ledger.Update(func(tx *ledger.Tx) error {
		cfg, err := e.load(tx, req.Ticker)
		if err != nil {
			return err
		}
		if !cfg.SubscriptionEnabled {
			return fmt.Errorf("%w: %s", ErrSubscriptionsNotEnabled, req.Ticker)
		}
		if err := tx.Transfer(req.Subscriber, req.Recipient, cfg.SubscriptionPrice); err != nil {
			return err
		}

		now := e.now()
		configKey := ConfigKey(req.Ticker)
		sub = &Subscription{
			PaymentConfig: configKey,
			Subscriber:    req.Subscriber,
			IsActive:      true,
			CreatedAt:     now,
			ExpiresAt:     now + int64(cfg.SubscriptionPeriod),
		}
		if err := tx.Create(SubscriptionKey(configKey, req.Subscriber), SerializeSubscription(sub)); err != nil {
			return err
		}

		cfg.TotalPayments++
		cfg.TotalRevenue += cfg.SubscriptionPrice
		if err := e.store(tx, cfg); err != nil {
			return err
		}
		_, err = e.writeReceipt(tx, req.Ticker, req.Subscriber, cfg.SubscriptionPrice)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// RenewRequest extends an active subscription.
type RenewRequest struct {
	Ticker     string
	Subscriber identity.ID

	// Recipient receives the renewal price; caller-supplied, not
	// cross-checked against the configuration's stored owner.
	Recipient identity.ID
}

// Digest returns the canonical signing digest for the request.
func (req *RenewRequest) Digest() [32]byte {
	return ledger.OpDigest("renew",
		[]byte(req.Ticker),
		req.Subscriber[:],
		req.Recipient[:],
	)
}

// Renew transfers the subscription price and extends the subscription:
// expires_at = max(expires_at, now) + period. A late renewal therefore
// extends from now rather than stacking on the lapsed expiry, and an
// early renewal keeps the unused paid time. Expiry itself is never
// checked: a subscription flagged active renews no matter how long ago
// it expired. The signature must be by req.Subscriber.
func (e *Engine) Renew(req *RenewRequest, sig *ec.Signature) (*Subscription, error) {
	if err := identity.Verify(req.Subscriber, req.Digest(), sig); err != nil {
		return nil, err
	}

	var sub *Subscription
	err := e.ledger.Update(func(tx *ledger.Tx) error {
		cfg, err := e.load(tx, req.Ticker)
		if err != nil {
			return err
		}
		if !cfg.SubscriptionEnabled {
			return fmt.Errorf("%w: %s", ErrSubscriptionsNotEnabled, req.Ticker)
		}

		subKey := SubscriptionKey(ConfigKey(req.Ticker), req.Subscriber)
		data, err := tx.Get(subKey)
		if err != nil {
			return err
		}
		if sub, err = DeserializeSubscription(data); err != nil {
			return err
		}
		if !sub.IsActive {
			return fmt.Errorf("%w: %s", ErrSubscriptionNotActive, req.Ticker)
		}

		if err := tx.Transfer(req.Subscriber, req.Recipient, cfg.SubscriptionPrice); err != nil {
			return err
		}

		base := sub.ExpiresAt
		if now := e.now(); now > base {
			base = now
		}
		sub.ExpiresAt = base + int64(cfg.SubscriptionPeriod)
		if err := tx.Put(subKey, SerializeSubscription(sub)); err != nil {
			return err
		}

		cfg.TotalPayments++
		cfg.TotalRevenue += cfg.SubscriptionPrice
		if err := e.store(tx, cfg); err != nil {
			return err
		}
		_, err = e.writeReceipt(tx, cfg.Ticker, req.Subscriber, cfg.SubscriptionPrice)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// UnsubscribeRequest deactivates a subscription.
type UnsubscribeRequest struct {
	Ticker     string
	Subscriber identity.ID
}

// Digest returns the canonical signing digest for the request.
func (req *UnsubscribeRequest) Digest() [32]byte {
	return ledger.OpDigest("unsubscribe", []byte(req.Ticker), req.Subscriber[:])
}

// Unsubscribe sets is_active to false. No refund is issued, expires_at
// is untouched, and the record is never deleted: the slot stays
// occupied, so the same subscriber can neither re-subscribe nor renew
// afterwards. The signature must be by the subscription's stored
// subscriber.
func (e *Engine) Unsubscribe(req *UnsubscribeRequest, sig *ec.Signature) (*Subscription, error) {
	if err := identity.Verify(req.Subscriber, req.Digest(), sig); err != nil {
		return nil, err
	}

	var sub *Subscription
	err := e.ledger.Update(func(tx *ledger.Tx) error {
		subKey := SubscriptionKey(ConfigKey(req.Ticker), req.Subscriber)
		data, err := tx.Get(subKey)
		if err != nil {
			return err
		}
		if sub, err = DeserializeSubscription(data); err != nil {
			return err
		}
		if sub.Subscriber != req.Subscriber {
			return fmt.Errorf("%w: signer is not the subscriber", ErrNotAuthorized)
		}
		sub.IsActive = false
		return tx.Put(subKey, SerializeSubscription(sub))
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// GetConfig returns the payment configuration for a ticker symbol, or
// ledger.ErrRecordNotFound.
func (e *Engine) GetConfig(ticker string) (*PaymentConfiguration, error) {
	var cfg *PaymentConfiguration
	err := e.ledger.View(func(tx *ledger.Tx) error {
		var err error
		cfg, err = e.load(tx, ticker)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetSubscription returns a subscriber's slot on a ticker's
// configuration, or ledger.ErrRecordNotFound.
func (e *Engine) GetSubscription(ticker string, subscriber identity.ID) (*Subscription, error) {
	var sub *Subscription
	err := e.ledger.View(func(tx *ledger.Tx) error {
		data, err := tx.Get(SubscriptionKey(ConfigKey(ticker), subscriber))
		if err != nil {
			return err
		}
		sub, err = DeserializeSubscription(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (e *Engine) load(tx *ledger.Tx, ticker string) (*PaymentConfiguration, error) {
	data, err := tx.Get(ConfigKey(ticker))
	if err != nil {
		return nil, err
	}
	return DeserializeConfig(data)
}

func (e *Engine) loadOwned(tx *ledger.Tx, ticker string, signer identity.ID) (*PaymentConfiguration, error) {
	cfg, err := e.load(tx, ticker)
	if err != nil {
		return nil, err
	}
	if cfg.Owner != signer {
		return nil, fmt.Errorf("%w: signer does not own the configuration for %s", ErrNotAuthorized, ticker)
	}
	return cfg, nil
}

func (e *Engine) store(tx *ledger.Tx, cfg *PaymentConfiguration) error {
	data, err := SerializeConfig(cfg)
	if err != nil {
		return err
	}
	return tx.Put(ConfigKey(cfg.Ticker), data)
}

// writeReceipt appends an immutable PaymentRecord for a completed
// transfer.
func (e *Engine) writeReceipt(tx *ledger.Tx, ticker string, payer identity.ID, amount uint64) (*PaymentRecord, error) {
	receipt := &PaymentRecord{
		Ticker:    ticker,
		Payer:     payer,
		Amount:    amount,
		Timestamp: e.now(),
	}
	data, err := SerializeReceipt(receipt)
	if err != nil {
		return nil, err
	}
	key, err := receiptKey()
	if err != nil {
		return nil, err
	}
	if err := tx.Create(key, data); err != nil {
		return nil, err
	}
	return receipt, nil
}

// u64Field encodes a uint64 for digest hashing.
func u64Field(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

// optU64Field encodes an optional uint64 for digest hashing: a
// presence byte followed by the value.
func optU64Field(v *uint64) []byte {
	if v == nil {
		return []byte{0}
	}
	return append([]byte{1}, u64Field(*v)...)
}

func boolField(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func optBoolField(v *bool) []byte {
	if v == nil {
		return []byte{0}
	}
	return append([]byte{1}, boolField(*v)...)
}

// sharesField encodes revenue shares for digest hashing.
func sharesField(shares []RevenueShare) []byte {
	buf := []byte{byte(len(shares))}
	for _, share := range shares {
		buf = append(buf, share.Recipient[:]...)
		buf = append(buf, share.Percentage)
	}
	return buf
}
