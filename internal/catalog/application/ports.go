package application

import (
	"context"

	"github.com/chronoshop/storefront/internal/catalog/domain"
)

type ProductRepository interface {
	List(ctx context.Context, f domain.Filter) ([]domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (domain.Product, error)
	Create(ctx context.Context, p domain.Product) error
	Update(ctx context.Context, p domain.Product) error
	Delete(ctx context.Context, id string) error
	AddImage(ctx context.Context, img domain.ProductImage) error
	DeleteImage(ctx context.Context, productID, imageID string) error
	SetPrimaryImage(ctx context.Context, productID, imageID string) error
	// ReorderImages rewrites positions to match the order of imageIDs.
	ReorderImages(ctx context.Context, productID string, imageIDs []string) error
	AddReview(ctx context.Context, rv domain.Review) error
	ListReviews(ctx context.Context, productID string) ([]domain.Review, error)
}
