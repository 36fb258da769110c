package intakeservice

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/retailops/ticketworker/internal/ports"
	"github.com/retailops/ticketworker/internal/shared/contracts"
	"github.com/retailops/ticketworker/internal/shared/logger"
)

// orderScopePrefix selects the storefront webhook scopes that concern orders.
const orderScopePrefix = "store/order/"

// IntakeHTTPHandler adapts storefront webhooks to the IntakeService.
type IntakeHTTPHandler struct {
	svc    ports.IntakeService
	secret string
	logger *logger.Logger
}

// NewHandler wires an HTTP handler around the IntakeService. An empty secret disables the header check.
func NewHandler(svc ports.IntakeService, secret string, logger *logger.Logger) *IntakeHTTPHandler {
	return &IntakeHTTPHandler{svc: svc, secret: secret, logger: logger}
}

// Register mounts the intake routes on the provided router.
func (handler *IntakeHTTPHandler) Register(r chi.Router) {
	r.Post("/webhooks/orders", handler.handleWebhook)
	r.Post("/orders/{order_id}/ticket", handler.handleManual)
}

type enqueueResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// handleWebhook accepts {"scope":"store/order/created","data":{"type":"order","id":1001}}.
func (handler *IntakeHTTPHandler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	if !handler.authorized(r) {
		handler.httpError(ctx, w, http.StatusUnauthorized, "invalid webhook secret", errors.New("webhook secret mismatch"))
		return
	}

	// guard: size
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handler.httpError(ctx, w, http.StatusRequestEntityTooLarge, "payload too large", err)
			return
		}
		handler.httpError(ctx, w, http.StatusBadRequest, "failed to read body", err)
		return
	}

	var env contracts.OrderEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	// acknowledge scopes we do not act on so the storefront does not retry them
	if env.Scope != "" && !strings.HasPrefix(env.Scope, orderScopePrefix) {
		handler.logger.Debug(ctx, "webhook_ignored", "non-order webhook ignored", map[string]any{"scope": env.Scope})
		handler.jsonResponse(ctx, w, http.StatusOK, enqueueResponse{Status: "ignored"})
		return
	}

	orderID, err := contracts.ExtractOrderID(contracts.PayloadJSON, body)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
		return
	}

	handler.enqueue(ctx, w, orderID)
}

// handleManual queues a ticket for an order id given in the path.
func (handler *IntakeHTTPHandler) handleManual(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)
	if !handler.authorized(r) {
		handler.httpError(ctx, w, http.StatusUnauthorized, "invalid webhook secret", errors.New("webhook secret mismatch"))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "order_id"))
	if orderID == "" {
		handler.httpError(ctx, w, http.StatusBadRequest, "order_id is required", contracts.ErrMissingOrderID)
		return
	}
	handler.enqueue(ctx, w, orderID)
}

func (handler *IntakeHTTPHandler) enqueue(ctx context.Context, w http.ResponseWriter, orderID string) {
	// bound request time
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := handler.svc.Enqueue(ctxWithTimeout, orderID); err != nil {
		handler.httpError(ctx, w, http.StatusServiceUnavailable, "queue unavailable", err)
		return
	}
	handler.jsonResponse(ctx, w, http.StatusAccepted, enqueueResponse{OrderID: orderID, Status: "queued"})
}

func (handler *IntakeHTTPHandler) authorized(r *http.Request) bool {
	if handler.secret == "" {
		return true
	}
	got := r.Header.Get("X-Webhook-Secret")
	return subtle.ConstantTimeCompare([]byte(got), []byte(handler.secret)) == 1
}

// --- Helpers ---

// httpError sends a JSON error response with a message.
func (handler *IntakeHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	} else if status == http.StatusUnauthorized {
		action = "unauthorized"
	}
	handler.logger.Error(ctx, action, msg, err)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// jsonResponse encodes data as the JSON response body.
func (handler *IntakeHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	buf, err := json.Marshal(data)
	if err != nil {
		handler.logger.Error(ctx, "response_encode_failed", "failed to encode response", err)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *IntakeHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}
