package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/erc7824/receipt-signer/pkg/log"
	"github.com/erc7824/receipt-signer/pkg/sign"
)

const (
	tracerName      = "github.com/erc7824/receipt-signer"
	maxRequestBytes = 1 << 20
)

func getValidator() *validator.Validate {
	validate := validator.New()

	if err := validate.RegisterValidation("ethaddr", func(fl validator.FieldLevel) bool {
		_, err := sign.DecodeAddress(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(fmt.Sprintf("failed to register ethaddr validation: %v", err))
	}
	return validate
}

type AddressResponse struct {
	Address string `json:"address"`
}

type SignRequest struct {
	Message *string `json:"message" validate:"required"`
}

type SignResponse struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	RequestID string `json:"request_id"`
}

// VerifyRequest checks a signature against Address, or the service's own
// address when Address is empty. Signature encoding is checked by the verifier.
type VerifyRequest struct {
	Message   *string `json:"message" validate:"required"`
	Signature string  `json:"signature"`
	Address   string  `json:"address,omitempty" validate:"omitempty,ethaddr"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}

type ReceiptsResponse struct {
	Receipts []ReceiptRecord `json:"receipts"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func newSignResponse(r Receipt) SignResponse {
	return SignResponse{
		Address:   sign.EncodeAddress(r.Address),
		Signature: sign.EncodeSignature(r.Signature),
		RequestID: r.RequestID,
	}
}

// verifyParams validates req and resolves its optional address.
func verifyParams(validate *validator.Validate, req *VerifyRequest) (*sign.Address, error) {
	if err := validateRequest(validate, req); err != nil {
		return nil, err
	}
	if req.Address == "" {
		return nil, nil
	}
	addr, err := sign.DecodeAddress(req.Address)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func validateRequest(validate *validator.Validate, req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, ", "))
}

// HTTPAPI serves the receipt service over plain HTTP with JSON bodies.
type HTTPAPI struct {
	service  *ReceiptService
	metrics  *Metrics
	validate *validator.Validate
	tracer   trace.Tracer
	logger   log.Logger
}

func NewHTTPAPI(service *ReceiptService, metrics *Metrics, logger log.Logger) *HTTPAPI {
	return &HTTPAPI{
		service:  service,
		metrics:  metrics,
		validate: getValidator(),
		tracer:   otel.Tracer(tracerName),
		logger:   logger.WithName("http-api"),
	}
}

// Register adds the API routes to mux.
func (a *HTTPAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /address", a.instrument("get_address", a.handleAddress))
	mux.HandleFunc("POST /sign", a.instrument("sign", a.handleSign))
	mux.HandleFunc("POST /verify", a.instrument("verify", a.handleVerify))
	mux.HandleFunc("GET /receipts", a.instrument("get_receipts", a.handleReceipts))
	mux.HandleFunc("GET /receipts/{signature}", a.instrument("get_receipt", a.handleReceipt))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// instrument opens a span per request, stores a span-aware logger in the
// request context and observes the request duration.
func (a *HTTPAPI) instrument(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, span := a.tracer.Start(r.Context(), "http."+method)
		defer span.End()

		ctx = withTransport(ctx, TransportHTTP)
		ctx = log.SetContextLogger(ctx, a.logger.WithKV("method", method))

		next(w, r.WithContext(ctx))
		a.metrics.RequestDuration.WithLabelValues(TransportHTTP, method).Observe(time.Since(start).Seconds())
	}
}

func (a *HTTPAPI) handleAddress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AddressResponse{Address: sign.EncodeAddress(a.service.Address())})
}

func (a *HTTPAPI) handleSign(w http.ResponseWriter, r *http.Request) {
	var req SignRequest
	if err := a.decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	receipt, err := a.service.SignReceipt(r.Context(), []byte(*req.Message))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSignResponse(receipt))
}

func (a *HTTPAPI) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	address, err := verifyParams(a.validate, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.service.VerifyReceipt(r.Context(), []byte(*req.Message), req.Signature, address); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, VerifyResponse{Valid: true})
}

func (a *HTTPAPI) handleReceipts(w http.ResponseWriter, r *http.Request) {
	options, err := parseListOptions(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	receipts, err := a.service.ListReceipts(r.Context(), options)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if receipts == nil {
		receipts = []ReceiptRecord{}
	}
	writeJSON(w, http.StatusOK, ReceiptsResponse{Receipts: receipts})
}

func (a *HTTPAPI) handleReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := a.service.FindReceipt(r.Context(), r.PathValue("signature"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (a *HTTPAPI) decodeBody(r *http.Request, req any) error {
	if err := decodeJSON(r, req); err != nil {
		return err
	}
	return validateRequest(a.validate, req)
}

func decodeJSON(r *http.Request, req any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(req); err != nil {
		return fmt.Errorf("%w: malformed JSON body", ErrInvalidRequest)
	}
	return nil
}

func parseListOptions(r *http.Request) (*ListOptions, error) {
	query := r.URL.Query()
	options := &ListOptions{}

	parseUint := func(name string) (uint32, error) {
		raw := query.Get(name)
		if raw == "" {
			return 0, nil
		}
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidRequest, name)
		}
		return uint32(v), nil
	}

	var err error
	if options.Offset, err = parseUint("offset"); err != nil {
		return nil, err
	}
	if options.Limit, err = parseUint("limit"); err != nil {
		return nil, err
	}
	if raw := query.Get("sort"); raw != "" {
		sortType, err := ParseSortType(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
		}
		options.Sort = &sortType
	}
	return options, nil
}

func (a *HTTPAPI) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := toAPIError(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).Error("request failed", "error", err)
	} else {
		log.FromContext(r.Context()).Debug("request rejected", "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
