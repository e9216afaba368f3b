package sign

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
)

const (
	// SignatureLength is r (32 bytes) || s (32 bytes) || v (1 byte).
	SignatureLength = 65
	// EncodedSignatureLength is the length of the hex form of a signature.
	EncodedSignatureLength = SignatureLength * 2

	recoveryIDOffset = 27
)

// Signature is a 65-byte recoverable secp256k1 signature with v in {27, 28}.
type Signature []byte

// EncodeSignature returns sig as lowercase hex without a 0x prefix.
func EncodeSignature(sig Signature) string {
	return hex.EncodeToString(sig)
}

// DecodeSignature parses exactly EncodedSignatureLength lowercase hex characters.
// Anything else is ErrInvalidEncoding. Uppercase digits are rejected so that
// every textual signature maps to one byte string and back.
func DecodeSignature(s string) (Signature, error) {
	if len(s) != EncodedSignatureLength {
		return nil, fmt.Errorf("%w: got %d characters, want %d", ErrInvalidEncoding, len(s), EncodedSignatureLength)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return nil, fmt.Errorf("%w: unexpected character %q at %d", ErrInvalidEncoding, c, i)
		}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return Signature(b), nil
}

// String implements fmt.Stringer using EncodeSignature.
func (s Signature) String() string { return EncodeSignature(s) }

// R returns the r scalar. It returns nil if s is not SignatureLength bytes.
func (s Signature) R() *big.Int {
	if len(s) != SignatureLength {
		return nil
	}
	return new(big.Int).SetBytes(s[:32])
}

// S returns the s scalar. It returns nil if s is not SignatureLength bytes.
func (s Signature) S() *big.Int {
	if len(s) != SignatureLength {
		return nil
	}
	return new(big.Int).SetBytes(s[32:64])
}

// V returns the raw recovery byte, or 0 if s is not SignatureLength bytes.
func (s Signature) V() byte {
	if len(s) != SignatureLength {
		return 0
	}
	return s[64]
}

// recoveryID normalises v to 0/1. Both the 27/28 and the 0/1 conventions are accepted.
func (s Signature) recoveryID() (byte, bool) {
	switch v := s.V(); v {
	case 0, 1:
		return v, true
	case recoveryIDOffset, recoveryIDOffset + 1:
		return v - recoveryIDOffset, true
	default:
		return 0, false
	}
}

// MarshalJSON encodes the signature as a JSON string using EncodeSignature.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeSignature(s))
}

// UnmarshalJSON decodes a JSON string using DecodeSignature.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	decoded, err := DecodeSignature(str)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}
