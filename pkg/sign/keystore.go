package sign

import (
	"crypto/ecdsa"
	"fmt"
	"io"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/erc7824/receipt-signer/pkg/log"
)

// maxKeyDraws bounds the number of 32-byte draws made while generating a key.
// A draw is only rejected when it is zero or not below the curve order.
const maxKeyDraws = 16

// KeyStore owns the process signing key and the address derived from it.
// It is immutable after construction and safe for concurrent use.
type KeyStore struct {
	privateKey *ecdsa.PrivateKey
	address    Address
}

// NewKeyStore creates the key store.
//
// A non-empty signingKey must be a hex-encoded secp256k1 private key, with or
// without the 0x prefix; otherwise an error wrapping ErrKeyFormat is returned.
// An empty signingKey generates a new key from random, which is logged as
// unsuitable for production.
func NewKeyStore(signingKey string, random io.Reader, logger log.Logger) (*KeyStore, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	logger = logger.WithName("keystore")

	signingKey = strings.TrimSpace(signingKey)
	if signingKey != "" {
		key, err := parsePrivateKey(signingKey)
		if err != nil {
			return nil, err
		}
		ks := newKeyStore(key)
		logger.Info("signer created from the provided signing key", "address", ks.address)
		return ks, nil
	}

	key, err := generatePrivateKey(random)
	if err != nil {
		return nil, err
	}
	ks := newKeyStore(key)
	logger.Warn("random signer created, provide a signing key in production", "address", ks.address)
	return ks, nil
}

func newKeyStore(key *ecdsa.PrivateKey) *KeyStore {
	return &KeyStore{
		privateKey: key,
		address:    Address{ethcrypto.PubkeyToAddress(key.PublicKey)},
	}
}

// Address returns the cached address of the signing key.
func (ks *KeyStore) Address() Address {
	return ks.address
}

// PublicKey returns the 65-byte uncompressed public key.
func (ks *KeyStore) PublicKey() []byte {
	return ethcrypto.FromECDSAPub(&ks.privateKey.PublicKey)
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	if has0xPrefix(hexKey) {
		hexKey = hexKey[2:]
	}
	key, err := ethcrypto.HexToECDSA(hexKey)
	if err != nil {
		// The underlying error never echoes the key material.
		return nil, fmt.Errorf("%w: %v", ErrKeyFormat, err)
	}
	return key, nil
}

func generatePrivateKey(random io.Reader) (*ecdsa.PrivateKey, error) {
	if random == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrKeyGeneration)
	}

	buf := make([]byte, 32)
	for i := 0; i < maxKeyDraws; i++ {
		if _, err := io.ReadFull(random, buf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyGeneration, err)
		}
		key, err := ethcrypto.ToECDSA(buf)
		if err == nil {
			return key, nil
		}
	}
	return nil, fmt.Errorf("%w: no valid scalar after %d draws", ErrKeyGeneration, maxKeyDraws)
}
