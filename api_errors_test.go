package main

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erc7824/receipt-signer/pkg/sign"
)

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedMessage string
	}{
		{"signature creation", fmt.Errorf("%w: hsm offline", sign.ErrSignatureCreation), http.StatusInternalServerError, "couldn't sign the receipt"},
		{"invalid encoding", fmt.Errorf("%w: odd length", sign.ErrInvalidEncoding), http.StatusBadRequest, "signature is not a valid hex string"},
		{"invalid format", fmt.Errorf("%w: bad v", sign.ErrInvalidSignatureFormat), http.StatusBadRequest, "couldn't create signature from string"},
		{"mismatch", fmt.Errorf("%w: recovered 0xabc", sign.ErrSignatureMismatch), http.StatusBadRequest, "couldn't create signature from string"},
		{"missing key store on sign", fmt.Errorf("%w: %w", sign.ErrSignatureCreation, sign.ErrNoKeyStore), http.StatusInternalServerError, "couldn't sign the receipt"},
		{"missing key store on verify", sign.ErrNoKeyStore, http.StatusInternalServerError, defaultAPIErrorMessage},
		{"invalid address", sign.ErrInvalidAddress, http.StatusBadRequest, "invalid address"},
		{"invalid request keeps detail", fmt.Errorf("%w: limit must be a non-negative integer", ErrInvalidRequest), http.StatusBadRequest, "invalid request: limit must be a non-negative integer"},
		{"store disabled", ErrReceiptStoreDisabled, http.StatusNotFound, "receipt store is disabled"},
		{"not found", ErrReceiptNotFound, http.StatusNotFound, "receipt not found"},
		{"unknown", errors.New("connection refused"), http.StatusInternalServerError, defaultAPIErrorMessage},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status, message := toAPIError(test.err)
			assert.Equal(t, test.expectedStatus, status)
			assert.Equal(t, test.expectedMessage, message)
		})
	}
}
