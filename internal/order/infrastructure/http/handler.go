package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	authhttp "github.com/chronoshop/storefront/internal/auth/infrastructure/http"
	"github.com/chronoshop/storefront/internal/order/application"
	"github.com/chronoshop/storefront/internal/order/domain"

	authdomain "github.com/chronoshop/storefront/internal/auth/domain"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	mw      *authhttp.Middleware
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service, mw *authhttp.Middleware) *Handler {
	return &Handler{
		log:     log,
		service: service,
		mw:      mw,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.mw.RequireAuth)
	r.Post("/", h.checkout)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	return r
}

type checkoutReq struct {
	ShippingAddress json.RawMessage `json:"shippingAddress"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Items           []domain.Item   `json:"items"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Checkout")
	defer span.End()

	claims, _ := authhttp.ClaimsFrom(ctx)
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	res, err := h.service.Checkout(ctx, claims.Subject, string(req.ShippingAddress), req.Email, req.Phone, req.Items)
	if errors.Is(err, application.ErrEmptyOrder) || errors.Is(err, application.ErrBadQuantity) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error("checkout failed", "user_id", claims.Subject, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	claims, _ := authhttp.ClaimsFrom(ctx)
	o, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, application.ErrOrderNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("get order failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if o.UserID != claims.Subject && claims.Role != authdomain.RoleAdmin {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	claims, _ := authhttp.ClaimsFrom(ctx)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	var (
		orders []domain.Order
		err    error
	)
	if claims.Role == authdomain.RoleAdmin && r.URL.Query().Get("all") == "1" {
		orders, err = h.service.List(ctx, limit, offset)
	} else {
		orders, err = h.service.ListByUser(ctx, claims.Subject, limit, offset)
	}
	if err != nil {
		h.log.Error("list orders failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
