package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/erc7824/receipt-signer/pkg/log"
	"github.com/erc7824/receipt-signer/pkg/sign"
)

const (
	WSMethodGetAddress  = "get_address"
	WSMethodSign        = "sign"
	WSMethodVerify      = "verify"
	WSMethodGetReceipts = "get_receipts"
)

var defaultWSWriteDuration = 5 * time.Second

// WSRequest is a single call on the WebSocket endpoint.
type WSRequest struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method" validate:"required"`
	Params json.RawMessage `json:"params,omitempty"`
}

// WSResponse carries either Result or Error for the request with the same ID.
type WSResponse struct {
	ID     uint64 `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type wsHandler func(ctx context.Context, params json.RawMessage) (any, error)

// WSNode serves the receipt service over WebSocket. Requests on one
// connection are handled in order.
type WSNode struct {
	upgrader websocket.Upgrader
	service  *ReceiptService
	metrics  *Metrics
	validate *validator.Validate
	tracer   trace.Tracer
	logger   log.Logger
	handlers map[string]wsHandler
}

func NewWSNode(service *ReceiptService, metrics *Metrics, logger log.Logger) *WSNode {
	n := &WSNode{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		service:  service,
		metrics:  metrics,
		validate: getValidator(),
		tracer:   otel.Tracer(tracerName),
		logger:   logger.WithName("ws-node"),
	}
	n.handlers = map[string]wsHandler{
		WSMethodGetAddress:  n.handleGetAddress,
		WSMethodSign:        n.handleSign,
		WSMethodVerify:      n.handleVerify,
		WSMethodGetReceipts: n.handleGetReceipts,
	}
	return n
}

// HandleConnection upgrades the request and serves calls until the client disconnects.
func (n *WSNode) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.logger.Error("failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBytes)

	connectionID := uuid.NewString()
	logger := n.logger.WithKV("connectionID", connectionID)
	n.metrics.ConnectedClients.Inc()
	logger.Info("connection opened")
	defer func() {
		n.metrics.ConnectedClients.Dec()
		logger.Info("connection closed")
	}()

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				logger.Warn("message exceeds read limit", "limit", maxRequestBytes)
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("connection read failed", "error", err)
			}
			return
		}

		res := n.process(r.Context(), logger, messageBytes)
		if err := conn.SetWriteDeadline(time.Now().Add(defaultWSWriteDuration)); err != nil {
			logger.Error("failed to set write deadline", "error", err)
			return
		}
		if err := conn.WriteJSON(res); err != nil {
			logger.Error("failed to write response", "error", err)
			return
		}
	}
}

func (n *WSNode) process(ctx context.Context, logger log.Logger, messageBytes []byte) WSResponse {
	var req WSRequest
	if err := json.Unmarshal(messageBytes, &req); err != nil {
		logger.Debug("invalid message format", "error", err)
		return WSResponse{Error: "invalid message format"}
	}
	if err := validateRequest(n.validate, &req); err != nil {
		_, message := toAPIError(err)
		return WSResponse{ID: req.ID, Error: message}
	}

	handler, ok := n.handlers[req.Method]
	if !ok {
		logger.Debug("no handler found for method", "method", req.Method)
		return WSResponse{ID: req.ID, Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}

	start := time.Now()
	ctx, span := n.tracer.Start(ctx, "ws."+req.Method)
	defer span.End()
	ctx = withTransport(ctx, TransportWS)
	ctx = log.SetContextLogger(ctx, logger.WithKV("method", req.Method))

	result, err := handler(ctx, req.Params)
	n.metrics.RequestDuration.WithLabelValues(TransportWS, req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		status, message := toAPIError(err)
		if status >= http.StatusInternalServerError {
			log.FromContext(ctx).Error("request failed", "error", err)
		}
		return WSResponse{ID: req.ID, Error: message}
	}
	return WSResponse{ID: req.ID, Result: result}
}

func (n *WSNode) handleGetAddress(ctx context.Context, _ json.RawMessage) (any, error) {
	return AddressResponse{Address: sign.EncodeAddress(n.service.Address())}, nil
}

func (n *WSNode) handleSign(ctx context.Context, params json.RawMessage) (any, error) {
	var req SignRequest
	if err := n.parseParams(params, &req); err != nil {
		return nil, err
	}

	receipt, err := n.service.SignReceipt(ctx, []byte(*req.Message))
	if err != nil {
		return nil, err
	}
	return newSignResponse(receipt), nil
}

func (n *WSNode) handleVerify(ctx context.Context, params json.RawMessage) (any, error) {
	var req VerifyRequest
	if err := unmarshalParams(params, &req); err != nil {
		return nil, err
	}
	address, err := verifyParams(n.validate, &req)
	if err != nil {
		return nil, err
	}

	if err := n.service.VerifyReceipt(ctx, []byte(*req.Message), req.Signature, address); err != nil {
		return nil, err
	}
	return VerifyResponse{Valid: true}, nil
}

func (n *WSNode) handleGetReceipts(ctx context.Context, params json.RawMessage) (any, error) {
	var options ListOptions
	if len(params) > 0 {
		if err := unmarshalParams(params, &options); err != nil {
			return nil, err
		}
	}
	if options.Sort != nil {
		sortType, err := ParseSortType(string(*options.Sort))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
		}
		options.Sort = &sortType
	}

	receipts, err := n.service.ListReceipts(ctx, &options)
	if err != nil {
		return nil, err
	}
	if receipts == nil {
		receipts = []ReceiptRecord{}
	}
	return ReceiptsResponse{Receipts: receipts}, nil
}

func (n *WSNode) parseParams(params json.RawMessage, req any) error {
	if err := unmarshalParams(params, req); err != nil {
		return err
	}
	return validateRequest(n.validate, req)
}

func unmarshalParams(params json.RawMessage, req any) error {
	if len(params) == 0 {
		return fmt.Errorf("%w: missing params", ErrInvalidRequest)
	}
	if err := json.Unmarshal(params, req); err != nil {
		return fmt.Errorf("%w: malformed params", ErrInvalidRequest)
	}
	return nil
}
