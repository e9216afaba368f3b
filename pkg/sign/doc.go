// Package sign holds the service's cryptographic identity.
//
// A KeyStore owns one secp256k1 key for the lifetime of the process. It is
// built either from a hex-encoded secret or from an explicit random source,
// and caches the Ethereum address derived from the public key.
//
// SigningService signs arbitrary messages. Messages are hashed with the
// personal-message prefix ("\x19Ethereum Signed Message:\n" followed by the
// decimal length) before signing, so a signed message can never be replayed
// as a transaction. Signatures are 65 bytes (r || s || v) with v in {27, 28},
// and travel as lowercase hex without a prefix.
//
// VerificationService decodes such a signature, recovers the signer address
// and compares it with the expected one.
//
// # Usage
//
//	ks, err := sign.NewKeyStore(os.Getenv("SIGNING_KEY"), rand.Reader, logger)
//	if err != nil {
//	    return err // ErrKeyFormat: refuse to start
//	}
//
//	signer := sign.NewSigningService(ks)
//	sig, err := signer.Sign([]byte("hello world"))
//
//	verifier := sign.NewVerificationService(ks)
//	err = verifier.Verify([]byte("hello world"), sig.String(), ks.Address())
//
// # Errors
//
// All errors wrap one of the sentinel values in this package and should be
// matched with errors.Is. Mapping them onto a transport is the caller's job.
//
// # Security
//
// The private key never leaves the KeyStore: no exported function or field
// returns it, and it is never logged.
package sign
