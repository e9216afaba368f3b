package sign

import (
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// VerificationService checks signatures against an expected address.
// It holds no mutable state; every call depends only on its inputs.
type VerificationService struct {
	keys *KeyStore
}

// NewVerificationService returns a verification service that uses ks for VerifyOwn.
func NewVerificationService(ks *KeyStore) *VerificationService {
	return &VerificationService{keys: ks}
}

// Verify decodes encoded, recovers the signer of message and compares it with expected.
//
// encoded must be exactly 130 lowercase hex characters with no 0x prefix.
// Uppercase digits are rejected with ErrInvalidEncoding even though they
// would decode, so each signature has a single accepted text form.
//
// Errors wrap ErrInvalidEncoding, ErrInvalidSignatureFormat or ErrSignatureMismatch.
func (v *VerificationService) Verify(message []byte, encoded string, expected Address) error {
	sig, err := DecodeSignature(encoded)
	if err != nil {
		return err
	}

	recovered, err := RecoverAddress(message, sig)
	if err != nil {
		return err
	}

	if !recovered.Equals(expected) {
		return fmt.Errorf("%w: recovered %s, expected %s", ErrSignatureMismatch, recovered, expected)
	}
	return nil
}

// VerifyOwn is Verify against the key store's address.
// It returns ErrNoKeyStore when the service has no key store.
func (v *VerificationService) VerifyOwn(message []byte, encoded string) error {
	if v.keys == nil {
		return ErrNoKeyStore
	}
	return v.Verify(message, encoded, v.keys.Address())
}

// RecoverAddress returns the address that produced sig over MessageHash(message).
func RecoverAddress(message []byte, sig Signature) (Address, error) {
	if len(sig) != SignatureLength {
		return Address{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSignatureFormat, len(sig), SignatureLength)
	}

	recID, ok := sig.recoveryID()
	if !ok {
		return Address{}, fmt.Errorf("%w: unsupported recovery byte %d", ErrInvalidSignatureFormat, sig.V())
	}
	if !ethcrypto.ValidateSignatureValues(recID, sig.R(), sig.S(), false) {
		return Address{}, fmt.Errorf("%w: r or s out of range", ErrInvalidSignatureFormat)
	}

	// SigToPub expects v in {0, 1}; never touch the caller's slice.
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)
	normalized[64] = recID

	hash := MessageHash(message)
	pub, err := ethcrypto.SigToPub(hash.Bytes(), normalized)
	if err != nil {
		return Address{}, fmt.Errorf("%w: recovery failed: %v", ErrInvalidSignatureFormat, err)
	}
	return Address{ethcrypto.PubkeyToAddress(*pub)}, nil
}
