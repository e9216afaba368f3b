package sign

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var _ Signer = (*MockSigner)(nil)

// MockSigner is a Signer for transport tests. Its signatures are predictable
// and do not verify; set Err to make every Sign call fail with it.
type MockSigner struct {
	address Address
	Err     error
}

// NewMockSigner creates a MockSigner reporting the address parsed from hexAddr.
func NewMockSigner(hexAddr string) *MockSigner {
	return &MockSigner{address: Address{common.HexToAddress(hexAddr)}}
}

// Address returns the configured address.
func (m *MockSigner) Address() Address {
	return m.address
}

// Sign returns Err when set. Otherwise it returns a 65-byte signature whose
// first bytes are the message hash and whose v is 27.
func (m *MockSigner) Sign(message []byte) (Signature, error) {
	if m.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureCreation, m.Err)
	}
	sig := make(Signature, SignatureLength)
	copy(sig, MessageHash(message).Bytes())
	sig[64] = recoveryIDOffset
	return sig, nil
}
