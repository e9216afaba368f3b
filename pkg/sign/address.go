package sign

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AddressLength is the size of an address in bytes.
const AddressLength = common.AddressLength

// Address is the 20-byte identifier derived from a public key.
// The zero value is the all-zero address.
type Address struct{ common.Address }

// NewAddress wraps a go-ethereum address.
func NewAddress(addr common.Address) Address {
	return Address{addr}
}

// EncodeAddress returns the EIP-55 checksum form of addr, 0x-prefixed.
func EncodeAddress(addr Address) string {
	return addr.Address.Hex()
}

// DecodeAddress parses a hex address with or without the 0x prefix.
// All-lowercase and all-uppercase input is accepted as is; mixed-case input
// must match the EIP-55 checksum.
func DecodeAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	addr := common.HexToAddress(s)

	digits := s
	if has0xPrefix(digits) {
		digits = digits[2:]
	}
	if isMixedCase(digits) && addr.Hex()[2:] != digits {
		return Address{}, fmt.Errorf("%w: bad checksum for %q", ErrInvalidAddress, s)
	}
	return Address{addr}, nil
}

// String returns the checksum encoding.
func (a Address) String() string { return EncodeAddress(a) }

// Equals compares the raw bytes of both addresses.
func (a Address) Equals(other Address) bool {
	return a.Address == other.Address
}

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool {
	return a.Address == common.Address{}
}

// MarshalJSON encodes the address as a JSON string in checksum form.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeAddress(a))
}

// UnmarshalJSON decodes a JSON string with DecodeAddress.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	addr, err := DecodeAddress(s)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
