package registry

import (
	"encoding/binary"
	"fmt"

	"github.com/tickerorg/libticker-go/identity"
)

// Record layout, declaration order, big-endian:
//
//	owner(33) || ticker(u8+bytes) || target_url(u8+bytes) ||
//	description(u16+bytes) || contract_address(u8+bytes) ||
//	is_for_sale(1) || price(8) || created_at(8)

// SerializeRegistration serializes a TickerRegistration to its record
// format. Field lengths must already be validated.
func SerializeRegistration(reg *TickerRegistration) ([]byte, error) {
	if len(reg.Ticker) > MaxTickerLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTickerTooLong, len(reg.Ticker))
	}
	if len(reg.TargetURL) > MaxTargetURLLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrURLTooLong, len(reg.TargetURL))
	}
	if len(reg.Description) > MaxDescriptionLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrDescriptionTooLong, len(reg.Description))
	}
	if len(reg.ContractAddress) > MaxContractAddressLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrContractAddressTooLong, len(reg.ContractAddress))
	}

	size := identity.IDLen +
		1 + len(reg.Ticker) +
		1 + len(reg.TargetURL) +
		2 + len(reg.Description) +
		1 + len(reg.ContractAddress) +
		1 + 8 + 8
	buf := make([]byte, 0, size)

	buf = append(buf, reg.Owner[:]...)
	buf = append(buf, byte(len(reg.Ticker)))
	buf = append(buf, reg.Ticker...)
	buf = append(buf, byte(len(reg.TargetURL)))
	buf = append(buf, reg.TargetURL...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(reg.Description)))
	buf = append(buf, reg.Description...)
	buf = append(buf, byte(len(reg.ContractAddress)))
	buf = append(buf, reg.ContractAddress...)
	if reg.IsForSale {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.BigEndian.AppendUint64(buf, reg.Price)
	buf = binary.BigEndian.AppendUint64(buf, uint64(reg.CreatedAt))

	return buf, nil
}

// DeserializeRegistration deserializes record data into a
// TickerRegistration.
func DeserializeRegistration(data []byte) (*TickerRegistration, error) {
	r := recordReader{data: data}

	reg := &TickerRegistration{}
	owner, err := r.bytes(identity.IDLen)
	if err != nil {
		return nil, err
	}
	copy(reg.Owner[:], owner)

	if reg.Ticker, err = r.string8(); err != nil {
		return nil, err
	}
	if reg.TargetURL, err = r.string8(); err != nil {
		return nil, err
	}
	if reg.Description, err = r.string16(); err != nil {
		return nil, err
	}
	if reg.ContractAddress, err = r.string8(); err != nil {
		return nil, err
	}

	flag, err := r.byte()
	if err != nil {
		return nil, err
	}
	reg.IsForSale = flag != 0

	if reg.Price, err = r.uint64(); err != nil {
		return nil, err
	}
	createdAt, err := r.uint64()
	if err != nil {
		return nil, err
	}
	reg.CreatedAt = int64(createdAt)

	if !r.done() {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidRecordData, r.remaining())
	}
	return reg, nil
}

// recordReader is a cursor over record data that fails on truncation.
type recordReader struct {
	data []byte
	off  int
}

func (r *recordReader) bytes(n int) ([]byte, error) {
	if r.off+n > len(r.data) {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrInvalidRecordData, r.off)
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *recordReader) byte() (byte, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *recordReader) uint64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *recordReader) string8() (string, error) {
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

func (r *recordReader) string16() (string, error) {
	b, err := r.bytes(2)
	if err != nil {
		return "", err
	}
	n := int(binary.BigEndian.Uint16(b))
	s, err := r.bytes(n)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

func (r *recordReader) done() bool { return r.off == len(r.data) }

func (r *recordReader) remaining() int { return len(r.data) - r.off }
