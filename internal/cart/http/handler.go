package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authhttp "github.com/chronoshop/storefront/internal/auth/infrastructure/http"
	"github.com/chronoshop/storefront/internal/cart/domain"
)

type CartStore interface {
	Get(ctx context.Context, cartID string) (domain.Cart, error)
	SetItem(ctx context.Context, cartID string, item domain.Item) (domain.Cart, error)
	Clear(ctx context.Context, cartID string) error
}

type WishlistStore interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	List(ctx context.Context, userID string) ([]domain.WishlistEntry, error)
}

type Handler struct {
	log      *slog.Logger
	carts    CartStore
	wishlist WishlistStore
	mw       *authhttp.Middleware
}

func NewHandler(log *slog.Logger, carts CartStore, wishlist WishlistStore, mw *authhttp.Middleware) *Handler {
	return &Handler{log: log, carts: carts, wishlist: wishlist, mw: mw}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/cart/{cartID}", h.getCart)
	r.Put("/cart/{cartID}/items", h.setItem)
	r.Delete("/cart/{cartID}", h.clearCart)

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/wishlist", h.listWishlist)
		r.Put("/wishlist/{productID}", h.addWishlist)
		r.Delete("/wishlist/{productID}", h.removeWishlist)
	})
	return r
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Get(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		h.internal(w, "get cart", err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) setItem(w http.ResponseWriter, r *http.Request) {
	var item domain.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if item.ProductID == "" || item.Quantity < 0 {
		http.Error(w, "productId and a non-negative quantity are required", http.StatusBadRequest)
		return
	}
	cart, err := h.carts.SetItem(r.Context(), chi.URLParam(r, "cartID"), item)
	if err != nil {
		h.internal(w, "set cart item", err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), chi.URLParam(r, "cartID")); err != nil {
		h.internal(w, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listWishlist(w http.ResponseWriter, r *http.Request) {
	claims, _ := authhttp.ClaimsFrom(r.Context())
	entries, err := h.wishlist.List(r.Context(), claims.Subject)
	if err != nil {
		h.internal(w, "list wishlist", err)
		return
	}
	if entries == nil {
		entries = []domain.WishlistEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) addWishlist(w http.ResponseWriter, r *http.Request) {
	claims, _ := authhttp.ClaimsFrom(r.Context())
	if err := h.wishlist.Add(r.Context(), claims.Subject, chi.URLParam(r, "productID")); err != nil {
		h.internal(w, "add wishlist entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeWishlist(w http.ResponseWriter, r *http.Request) {
	claims, _ := authhttp.ClaimsFrom(r.Context())
	if err := h.wishlist.Remove(r.Context(), claims.Subject, chi.URLParam(r, "productID")); err != nil {
		h.internal(w, "remove wishlist entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) internal(w http.ResponseWriter, op string, err error) {
	h.log.Error(op+" failed", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
