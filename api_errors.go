package main

import (
	"errors"
	"net/http"

	"github.com/erc7824/receipt-signer/pkg/sign"
)

const defaultAPIErrorMessage = "an error occurred while processing the request"

// apiErrorMapping ties a core error to the status and message a client sees.
// Messages never carry the wrapped cause.
type apiErrorMapping struct {
	target  error
	status  int
	message string
}

var apiErrorMappings = []apiErrorMapping{
	{sign.ErrSignatureCreation, http.StatusInternalServerError, "couldn't sign the receipt"},
	{sign.ErrInvalidEncoding, http.StatusBadRequest, "signature is not a valid hex string"},
	{sign.ErrInvalidSignatureFormat, http.StatusBadRequest, "couldn't create signature from string"},
	{sign.ErrSignatureMismatch, http.StatusBadRequest, "couldn't create signature from string"},
	{sign.ErrInvalidAddress, http.StatusBadRequest, "invalid address"},
	{ErrInvalidRequest, http.StatusBadRequest, "invalid request"},
	{ErrReceiptStoreDisabled, http.StatusNotFound, "receipt store is disabled"},
	{ErrReceiptNotFound, http.StatusNotFound, "receipt not found"},
}

// ErrInvalidRequest marks a malformed or incomplete request body.
var ErrInvalidRequest = errors.New("invalid request")

// toAPIError maps err to a transport status and client-facing message.
func toAPIError(err error) (int, string) {
	for _, m := range apiErrorMappings {
		if errors.Is(err, m.target) {
			if m.target == ErrInvalidRequest {
				return m.status, err.Error()
			}
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, defaultAPIErrorMessage
}
