package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/chronoshop/storefront/internal/payment/application"
)

// Deduper claims and releases webhook delivery ids. pkg/idempotency.Store
// implements it on Redis.
type Deduper interface {
	WebhookKey(provider, eventID string) string
	Seen(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Handler struct {
	log     *slog.Logger
	service *application.Service
	poller  *application.Poller
	idem    Deduper
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service, poller *application.Poller, idem Deduper) *Handler {
	return &Handler{
		log:     log,
		service: service,
		poller:  poller,
		idem:    idem,
		tracer:  otel.Tracer("payment-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/verify", h.verify)
	r.Post("/webhook", h.webhook)
	return r
}

type verifyReq struct {
	OrderID   string `json:"orderId"`
	CFOrderID string `json:"cfOrderId"`
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "VerifyPayment")
	defer span.End()

	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		http.Error(w, "orderId is required", http.StatusBadRequest)
		return
	}

	verify := h.service.Verify
	if r.URL.Query().Get("wait") == "1" {
		verify = h.poller.Wait
	}

	res, err := verify(ctx, req.OrderID, req.CFOrderID)
	if errors.Is(err, application.ErrOrderNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("payment verify failed", "order_id", req.OrderID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// webhookPayload is the subset of the gateway's webhook body the transition
// logic needs.
type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID     string `json:"order_id"`
			OrderStatus string `json:"order_status"`
		} `json:"order"`
		Payment struct {
			CFPaymentID json.Number `json:"cf_payment_id"`
		} `json:"payment"`
	} `json:"data"`
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PaymentWebhook")
	defer span.End()

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Data.Order.OrderID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	eventID := r.Header.Get("x-webhook-id")
	if eventID == "" {
		eventID = payload.Type + ":" + payload.Data.Order.OrderID
	}
	key := h.idem.WebhookKey("cashfree", eventID)
	claimed := false
	seen, err := h.idem.Seen(ctx, key)
	if err != nil {
		h.log.Error("webhook dedup check failed", "err", err)
	} else if seen {
		h.log.Info("duplicate webhook skipped", "event_id", eventID)
		w.WriteHeader(http.StatusOK)
		return
	} else {
		claimed = true
	}

	// The webhook drives the same verify path as the client poll; the
	// gateway remains the source of truth for the final status.
	if _, err := h.service.Verify(ctx, payload.Data.Order.OrderID, ""); err != nil {
		// Give the claim back so the gateway's redelivery is not
		// swallowed by the dedup check.
		if claimed {
			if relErr := h.idem.Release(ctx, key); relErr != nil {
				h.log.Error("webhook claim release failed", "event_id", eventID, "err", relErr)
			}
		}
		if errors.Is(err, application.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		h.log.Error("webhook verify failed", "order_id", payload.Data.Order.OrderID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
