package sign

// Signer signs messages with the process key.
type Signer interface {
	// Address is the address every signature produced by Sign recovers to.
	Address() Address
	// Sign hashes message with the personal-message prefix and signs the hash.
	Sign(message []byte) (Signature, error)
}

// Verifier checks signatures produced by a Signer.
type Verifier interface {
	// Verify checks that the encoded signature over message recovers to expected.
	Verify(message []byte, encoded string, expected Address) error
	// VerifyOwn checks the signature against the key store's own address.
	VerifyOwn(message []byte, encoded string) error
}

var (
	_ Signer   = (*SigningService)(nil)
	_ Verifier = (*VerificationService)(nil)
)
