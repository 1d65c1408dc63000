package payments

import (
	"encoding/binary"
	"fmt"

	"github.com/tickerorg/libticker-go/identity"
	"github.com/tickerorg/libticker-go/ledger"
)

// Record layouts, declaration order, big-endian:
//
//	config:       ticker(u8+bytes) || owner(33) || base_fee(8) ||
//	              num_shares(u8) || shares(34 each: recipient 33 + pct 1) ||
//	              sub_enabled(1) || sub_price(8) || sub_period(8) ||
//	              total_payments(8) || total_revenue(8) || created_at(8)
//	subscription: payment_config(32) || subscriber(33) || is_active(1) ||
//	              created_at(8) || expires_at(8)
//	receipt:      ticker(u8+bytes) || payer(33) || amount(8) || timestamp(8)

const (
	shareEntrySize       = identity.IDLen + 1
	subscriptionDataSize = ledger.KeyLen + identity.IDLen + 1 + 8 + 8
)

// SerializeConfig serializes a PaymentConfiguration to its record format.
func SerializeConfig(cfg *PaymentConfiguration) ([]byte, error) {
	if len(cfg.Ticker) > MaxTickerLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTickerTooLong, len(cfg.Ticker))
	}
	if len(cfg.RevenueShares) > MaxRevenueShares {
		return nil, fmt.Errorf("%w: %d entries", ErrTooManyShares, len(cfg.RevenueShares))
	}

	size := 1 + len(cfg.Ticker) + identity.IDLen + 8 +
		1 + shareEntrySize*len(cfg.RevenueShares) +
		1 + 8 + 8 + 8 + 8 + 8
	buf := make([]byte, 0, size)

	buf = append(buf, byte(len(cfg.Ticker)))
	buf = append(buf, cfg.Ticker...)
	buf = append(buf, cfg.Owner[:]...)
	buf = binary.BigEndian.AppendUint64(buf, cfg.BaseFee)
	buf = append(buf, byte(len(cfg.RevenueShares)))
	for _, share := range cfg.RevenueShares {
		buf = append(buf, share.Recipient[:]...)
		buf = append(buf, share.Percentage)
	}
	if cfg.SubscriptionEnabled {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint64(buf, cfg.SubscriptionPrice)
	buf = binary.BigEndian.AppendUint64(buf, cfg.SubscriptionPeriod)
	buf = binary.BigEndian.AppendUint64(buf, cfg.TotalPayments)
	buf = binary.BigEndian.AppendUint64(buf, cfg.TotalRevenue)
	buf = binary.BigEndian.AppendUint64(buf, uint64(cfg.CreatedAt))

	return buf, nil
}

// DeserializeConfig deserializes record data into a PaymentConfiguration.
func DeserializeConfig(data []byte) (*PaymentConfiguration, error) {
	r := reader{data: data}
	cfg := &PaymentConfiguration{}

	var err error
	if cfg.Ticker, err = r.string8(); err != nil {
		return nil, err
	}
	if cfg.Owner, err = r.id(); err != nil {
		return nil, err
	}
	if cfg.BaseFee, err = r.uint64(); err != nil {
		return nil, err
	}

	numShares, err := r.byte()
	if err != nil {
		return nil, err
	}
	if int(numShares) > MaxRevenueShares {
		return nil, fmt.Errorf("%w: %d share entries", ErrInvalidRecordData, numShares)
	}
	if numShares > 0 {
		cfg.RevenueShares = make([]RevenueShare, numShares)
		for i := range cfg.RevenueShares {
			if cfg.RevenueShares[i].Recipient, err = r.id(); err != nil {
				return nil, err
			}
			if cfg.RevenueShares[i].Percentage, err = r.byte(); err != nil {
				return nil, err
			}
		}
	}

	enabled, err := r.byte()
	if err != nil {
		return nil, err
	}
	cfg.SubscriptionEnabled = enabled != 0

	if cfg.SubscriptionPrice, err = r.uint64(); err != nil {
		return nil, err
	}
	if cfg.SubscriptionPeriod, err = r.uint64(); err != nil {
		return nil, err
	}
	if cfg.TotalPayments, err = r.uint64(); err != nil {
		return nil, err
	}
	if cfg.TotalRevenue, err = r.uint64(); err != nil {
		return nil, err
	}
	createdAt, err := r.uint64()
	if err != nil {
		return nil, err
	}
	cfg.CreatedAt = int64(createdAt)

	if !r.done() {
		return nil, fmt.Errorf("%w: trailing bytes", ErrInvalidRecordData)
	}
	return cfg, nil
}

// SerializeSubscription serializes a Subscription to its record format.
func SerializeSubscription(sub *Subscription) []byte {
	buf := make([]byte, 0, subscriptionDataSize)
	buf = append(buf, sub.PaymentConfig[:]...)
	buf = append(buf, sub.Subscriber[:]...)
	if sub.IsActive {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint64(buf, uint64(sub.CreatedAt))
	buf = binary.BigEndian.AppendUint64(buf, uint64(sub.ExpiresAt))
	return buf
}

// DeserializeSubscription deserializes record data into a Subscription.
func DeserializeSubscription(data []byte) (*Subscription, error) {
	if len(data) != subscriptionDataSize {
		return nil, fmt.Errorf("%w: subscription is %d bytes, want %d",
			ErrInvalidRecordData, len(data), subscriptionDataSize)
	}
	r := reader{data: data}
	sub := &Subscription{}

	key, _ := r.bytes(ledger.KeyLen)
	copy(sub.PaymentConfig[:], key)
	sub.Subscriber, _ = r.id()
	active, _ := r.byte()
	sub.IsActive = active != 0
	createdAt, _ := r.uint64()
	sub.CreatedAt = int64(createdAt)
	expiresAt, _ := r.uint64()
	sub.ExpiresAt = int64(expiresAt)

	return sub, nil
}

// SerializeReceipt serializes a PaymentRecord to its record format.
func SerializeReceipt(rec *PaymentRecord) ([]byte, error) {
	if len(rec.Ticker) > MaxTickerLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTickerTooLong, len(rec.Ticker))
	}

	buf := make([]byte, 0, 1+len(rec.Ticker)+identity.IDLen+8+8)
	buf = append(buf, byte(len(rec.Ticker)))
	buf = append(buf, rec.Ticker...)
	buf = append(buf, rec.Payer[:]...)
	buf = binary.BigEndian.AppendUint64(buf, rec.Amount)
	buf = binary.BigEndian.AppendUint64(buf, uint64(rec.Timestamp))
	return buf, nil
}

// DeserializeReceipt deserializes record data into a PaymentRecord.
func DeserializeReceipt(data []byte) (*PaymentRecord, error) {
	r := reader{data: data}
	rec := &PaymentRecord{}

	var err error
	if rec.Ticker, err = r.string8(); err != nil {
		return nil, err
	}
	if rec.Payer, err = r.id(); err != nil {
		return nil, err
	}
	if rec.Amount, err = r.uint64(); err != nil {
		return nil, err
	}
	ts, err := r.uint64()
	if err != nil {
		return nil, err
	}
	rec.Timestamp = int64(ts)

	if !r.done() {
		return nil, fmt.Errorf("%w: trailing bytes", ErrInvalidRecordData)
	}
	return rec, nil
}

// reader is a cursor over record data that fails on truncation.
type reader struct {
	data []byte
	off  int
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.off+n > len(r.data) {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrInvalidRecordData, r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) byte() (byte, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) uint64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) string8() (string, error) {
	n, err := r.byte()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) id() (identity.ID, error) {
	b, err := r.bytes(identity.IDLen)
	if err != nil {
		return identity.ID{}, err
	}
	var id identity.ID
	copy(id[:], b)
	return id, nil
}

func (r *reader) done() bool { return r.off == len(r.data) }
