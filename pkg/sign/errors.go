package sign

import "errors"

// Construction errors. Either one means the service must not start.
var (
	// ErrKeyFormat is returned when a supplied signing key is not a valid
	// hex-encoded secp256k1 private key.
	ErrKeyFormat = errors.New("invalid signing key format")
	// ErrKeyGeneration is returned when the random source fails while a new
	// key is being generated.
	ErrKeyGeneration = errors.New("failed to generate signing key")
)

// Call-time errors returned by the signing and verification services.
var (
	// ErrSignatureCreation means the signing primitive itself failed.
	ErrSignatureCreation = errors.New("signature creation failed")
	// ErrInvalidEncoding means the signature text is not 65 bytes of lowercase hex.
	ErrInvalidEncoding = errors.New("signature is not a valid hex string")
	// ErrInvalidSignatureFormat means the decoded bytes do not form a valid
	// recoverable signature (bad r, s or v).
	ErrInvalidSignatureFormat = errors.New("invalid signature format")
	// ErrSignatureMismatch means the signature recovers to a different address.
	ErrSignatureMismatch = errors.New("signature does not match address")
	// ErrInvalidAddress means an address string could not be decoded.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrNoKeyStore means a service was built without a key store.
	ErrNoKeyStore = errors.New("key store is not initialised")
)
