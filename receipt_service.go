package main

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/erc7824/receipt-signer/pkg/log"
	"github.com/erc7824/receipt-signer/pkg/sign"
)

// ErrReceiptStoreDisabled is returned by store-backed queries when no database is configured.
var ErrReceiptStoreDisabled = errors.New("receipt store is disabled")

// Receipt is the result of signing a message.
type Receipt struct {
	RequestID string
	Address   sign.Address
	Signature sign.Signature
}

// ReceiptService signs and verifies receipts and keeps an audit trail of issued signatures.
// It is safe for concurrent use.
type ReceiptService struct {
	signer   sign.Signer
	verifier sign.Verifier
	store    ReceiptRecorder
	metrics  *Metrics
	logger   log.Logger
}

// NewReceiptService wires the core services together. store may be nil.
func NewReceiptService(signer sign.Signer, verifier sign.Verifier, store ReceiptRecorder, metrics *Metrics, logger log.Logger) *ReceiptService {
	return &ReceiptService{
		signer:   signer,
		verifier: verifier,
		store:    store,
		metrics:  metrics,
		logger:   logger.WithName("receipts"),
	}
}

// Address returns the address of the signing key.
func (s *ReceiptService) Address() sign.Address {
	return s.signer.Address()
}

// SignReceipt signs message and records the result. A failure to record is
// logged and does not fail the call, since the signature is already valid.
func (s *ReceiptService) SignReceipt(ctx context.Context, message []byte) (Receipt, error) {
	requestID := uuid.NewString()
	ctx = s.requestContext(ctx, "sign", requestID)
	logger := log.FromContext(ctx)

	sig, err := s.signer.Sign(message)
	s.metrics.SignRequests.WithLabelValues(transportFromContext(ctx), outcomeStatus(err)).Inc()
	if err != nil {
		logger.Error("failed to sign receipt", "error", err)
		return Receipt{}, err
	}

	receipt := Receipt{
		RequestID: requestID,
		Address:   s.signer.Address(),
		Signature: sig,
	}
	s.record(ctx, receipt, message)

	logger.Info("receipt signed", "messageHash", sign.MessageHash(message).Hex())
	return receipt, nil
}

func (s *ReceiptService) record(ctx context.Context, receipt Receipt, message []byte) {
	if s.store == nil {
		return
	}

	err := s.store.Store(ctx, &ReceiptRecord{
		RequestID:   receipt.RequestID,
		Signer:      receipt.Address.String(),
		MessageHash: sign.MessageHash(message).Hex(),
		Signature:   receipt.Signature.String(),
	})
	if err != nil {
		log.FromContext(ctx).Error("failed to record receipt", "error", err)
		return
	}
	s.metrics.ReceiptsStored.Inc()
}

// VerifyReceipt checks signature over message against address, or against the
// service's own address when address is nil.
func (s *ReceiptService) VerifyReceipt(ctx context.Context, message []byte, signature string, address *sign.Address) error {
	ctx = s.requestContext(ctx, "verify", uuid.NewString())
	logger := log.FromContext(ctx)

	var err error
	if address == nil {
		err = s.verifier.VerifyOwn(message, signature)
	} else {
		err = s.verifier.Verify(message, signature, *address)
	}

	status := outcomeStatus(err)
	s.metrics.VerifyRequests.WithLabelValues(transportFromContext(ctx), status).Inc()
	if err != nil {
		logger.Info("receipt rejected", "reason", status, "error", err)
		return err
	}

	logger.Debug("receipt verified")
	return nil
}

// ListReceipts returns receipts issued by this signer.
func (s *ReceiptService) ListReceipts(ctx context.Context, options *ListOptions) ([]ReceiptRecord, error) {
	if s.store == nil {
		return nil, ErrReceiptStoreDisabled
	}
	return s.store.List(ctx, s.signer.Address().String(), options)
}

// FindReceipt returns the recorded receipt for an encoded signature.
func (s *ReceiptService) FindReceipt(ctx context.Context, signature string) (*ReceiptRecord, error) {
	if s.store == nil {
		return nil, ErrReceiptStoreDisabled
	}
	if _, err := sign.DecodeSignature(signature); err != nil {
		return nil, err
	}
	return s.store.FindBySignature(ctx, signature)
}

// requestContext tags the request logger with requestID. Transports store
// their own logger in ctx first; direct callers get the service logger.
func (s *ReceiptService) requestContext(ctx context.Context, method, requestID string) context.Context {
	if _, ok := log.FromContext(ctx).(log.NoopLogger); ok {
		ctx = log.SetContextLogger(ctx, s.logger.WithKV("method", method))
	}
	return log.ContextWithKV(ctx, "requestID", requestID)
}

type transportKey struct{}

func withTransport(ctx context.Context, transport string) context.Context {
	return context.WithValue(ctx, transportKey{}, transport)
}

func transportFromContext(ctx context.Context) string {
	if t, ok := ctx.Value(transportKey{}).(string); ok {
		return t
	}
	return TransportCLI
}
