package sign

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// SigningService signs messages with the key held by a KeyStore.
type SigningService struct {
	keys *KeyStore
}

// NewSigningService returns a signing service backed by ks.
func NewSigningService(ks *KeyStore) *SigningService {
	return &SigningService{keys: ks}
}

// Address returns the address of the underlying key, or the zero address
// when there is no key store.
func (s *SigningService) Address() Address {
	if s.keys == nil {
		return Address{}
	}
	return s.keys.Address()
}

// Sign returns the recoverable signature of MessageHash(message), with v set to 27 or 28.
// Nonces are derived deterministically (RFC 6979), so equal messages yield equal signatures.
func (s *SigningService) Sign(message []byte) (Signature, error) {
	if s.keys == nil || s.keys.privateKey == nil {
		return nil, fmt.Errorf("%w: %w", ErrSignatureCreation, ErrNoKeyStore)
	}

	hash := MessageHash(message)
	sig, err := ethcrypto.Sign(hash.Bytes(), s.keys.privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureCreation, err)
	}
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrSignatureCreation, len(sig), SignatureLength)
	}

	// Keep the 27/28 convention expected by ecrecover and wallet tooling.
	if sig[64] < recoveryIDOffset {
		sig[64] += recoveryIDOffset
	}
	return Signature(sig), nil
}
