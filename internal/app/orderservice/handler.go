package orderservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"order-flow/internal/ports"
	"order-flow/internal/shared/contracts"
	"order-flow/internal/shared/logger"
)

// Handler adapts HTTP requests to the OrderService.
type Handler struct {
	svc    ports.OrderService
	logger *logger.Logger
}

// NewRouter wires the HTTP boundary: POST /orders and GET /health.
func NewRouter(svc ports.OrderService, logger *logger.Logger) http.Handler {
	handler := &Handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/orders", handler.handleCreateOrder)
	r.Get("/health", handler.handleHealth)

	return r
}

// --- Request/Response DTOs (HTTP boundary) ---

type createOrderRequest struct {
	CustomerEmail string   `json:"customer_email"`
	Amount        *float64 `json:"amount"`
	Currency      string   `json:"currency,omitempty"`
}

type createOrderResponse struct {
	Message string                      `json:"message"`
	Order   contracts.OrderCreatedEvent `json:"order"`
}

// --- Handlers ---

func (handler *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	// propagate the chi request id into the logger context
	ctx := handler.logger.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))

	// check the size of the request body
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	// check the content type
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", errors.New("unsupported content type: "+ct))
		return
	}

	// decode strictly
	var req createOrderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	handler.logger.Debug(ctx, "order_received", "new order request received", map[string]any{
		"customer_email": req.CustomerEmail,
	})

	// bound request time
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event, err := handler.svc.Submit(ctxWithTimeout, ports.SubmitCommand{
		CustomerEmail: req.CustomerEmail,
		Amount:        req.Amount,
		Currency:      req.Currency,
	})
	if err != nil {
		// distinguish validation failures from broker failures
		if errors.Is(err, ErrValidation) {
			handler.httpError(ctxWithTimeout, w, http.StatusBadRequest, err.Error(), err)
			return
		}
		handler.httpError(ctxWithTimeout, w, http.StatusBadGateway, "failed to accept order", err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, createOrderResponse{
		Message: "Order accepted",
		Order:   event,
	})
}

func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	type healthBody struct {
		Status string `json:"status"`
	}
	handler.jsonResponse(r.Context(), w, http.StatusOK, healthBody{Status: "ok"})
}

// --- Helpers ---

// httpError sends a JSON error response with a message.
func (handler *Handler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	switch {
	case status >= 500:
		action = "http_internal_error"
	case status == http.StatusBadRequest:
		action = "validation_failed"
	case status == http.StatusUnsupportedMediaType:
		action = "unsupported_media_type"
	}
	handler.logger.Error(ctx, action, msg, err)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// jsonResponse takes any type of data and encodes it to an HTTP response.
func (handler *Handler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// Encode to buffer first so we can control status on failure.
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
