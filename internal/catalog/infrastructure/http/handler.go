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
	"github.com/chronoshop/storefront/internal/catalog/application"
	"github.com/chronoshop/storefront/internal/catalog/domain"
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
		tracer:  otel.Tracer("catalog-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/{slug}", h.getBySlug)
	r.Get("/{slug}/reviews", h.listReviews)
	r.With(h.mw.RequireAuth).Post("/{slug}/reviews", h.addReview)
	return r
}

// AdminRoutes is the product/image CRUD surface, mounted behind RequireAdmin.
func (h *Handler) AdminRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.mw.RequireAdmin)
	r.Post("/products", h.create)
	r.Put("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
	r.Post("/products/{id}/images", h.addImage)
	r.Put("/products/{id}/images", h.reorderImages)
	r.Delete("/products/{id}/images/{imageID}", h.deleteImage)
	r.Put("/products/{id}/images/{imageID}/primary", h.setPrimaryImage)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListProducts")
	defer span.End()

	f, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	products, err := h.service.List(ctx, f)
	if errors.Is(err, application.ErrBadFilter) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.internal(w, "list products", err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func filterFromQuery(r *http.Request) (domain.Filter, error) {
	q := r.URL.Query()
	f := domain.Filter{
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		Gender:   domain.Gender(q.Get("gender")),
		Search:   q.Get("search"),
		Sort:     domain.Sort(q.Get("sort")),
		InStock:  q.Get("inStock") == "1",
		Featured: q.Get("featured") == "1",
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	for _, key := range []string{"minPrice", "maxPrice"} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		cents, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.Filter{}, errors.New(key + " must be an integer amount in cents")
		}
		if key == "minPrice" {
			f.MinPriceCents = &cents
		} else {
			f.MaxPriceCents = &cents
		}
	}
	return f, nil
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetProduct")
	defer span.End()

	p, err := h.service.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, application.ErrNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internal(w, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListReviews")
	defer span.End()

	p, err := h.service.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, application.ErrNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internal(w, "list reviews", err)
		return
	}
	reviews, err := h.service.ListReviews(ctx, p.ID)
	if err != nil {
		h.internal(w, "list reviews", err)
		return
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	writeJSON(w, http.StatusOK, reviews)
}

type reviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) addReview(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddReview")
	defer span.End()

	claims, _ := authhttp.ClaimsFrom(ctx)
	p, err := h.service.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if errors.Is(err, application.ErrNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internal(w, "add review", err)
		return
	}

	var req reviewReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	rv, err := h.service.AddReview(ctx, domain.Review{
		ProductID: p.ID,
		UserID:    claims.Subject,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if errors.Is(err, application.ErrBadReview) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.internal(w, "add review", err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateProduct")
	defer span.End()

	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	created, err := h.service.Create(ctx, p)
	if errors.Is(err, application.ErrBadProduct) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.internal(w, "create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateProduct")
	defer span.End()

	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	p.ID = chi.URLParam(r, "id")
	updated, err := h.service.Update(ctx, p)
	switch {
	case errors.Is(err, application.ErrBadProduct):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, application.ErrNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
	case err != nil:
		h.internal(w, "update product", err)
	default:
		writeJSON(w, http.StatusOK, updated)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteProduct")
	defer span.End()

	if err := h.service.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.internal(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addImage(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddProductImage")
	defer span.End()

	var img domain.ProductImage
	if err := json.NewDecoder(r.Body).Decode(&img); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	img.ProductID = chi.URLParam(r, "id")
	created, err := h.service.AddImage(ctx, img)
	if errors.Is(err, application.ErrBadImage) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.internal(w, "add image", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type reorderImagesReq struct {
	ImageIDs []string `json:"imageIds"`
}

func (h *Handler) reorderImages(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ReorderProductImages")
	defer span.End()

	var req reorderImagesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	err := h.service.ReorderImages(ctx, chi.URLParam(r, "id"), req.ImageIDs)
	switch {
	case errors.Is(err, application.ErrBadImage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, application.ErrNotFound):
		http.Error(w, "image not found", http.StatusNotFound)
	case err != nil:
		h.internal(w, "reorder images", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) deleteImage(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteProductImage")
	defer span.End()

	if err := h.service.DeleteImage(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "imageID")); err != nil {
		h.internal(w, "delete image", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setPrimaryImage(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SetPrimaryImage")
	defer span.End()

	if err := h.service.SetPrimaryImage(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "imageID")); err != nil {
		http.Error(w, "image not found", http.StatusNotFound)
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
