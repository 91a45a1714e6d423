package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chronoshop/storefront/internal/catalog/domain"
)

var (
	ErrNotFound   = errors.New("product not found")
	ErrBadFilter  = errors.New("invalid filter parameter")
	ErrBadProduct = errors.New("invalid product")
	ErrBadImage   = errors.New("invalid image")
	ErrBadReview  = errors.New("rating must be between 1 and 5")
)

type Service struct {
	repo ProductRepository
}

func NewService(repo ProductRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, f domain.Filter) ([]domain.Product, error) {
	if f.Gender != "" && !domain.ValidGender(f.Gender) {
		return nil, fmt.Errorf("%w: gender %q", ErrBadFilter, f.Gender)
	}
	if f.Sort != "" && !domain.ValidSort(f.Sort) {
		return nil, fmt.Errorf("%w: sort %q", ErrBadFilter, f.Sort)
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 24
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return domain.Product{}, err
	}
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.Slug = Slugify(p.Name)
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.repo.Create(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		return domain.Product{}, ErrNotFound
	}
	if err := validateProduct(p); err != nil {
		return domain.Product{}, err
	}
	p.Slug = Slugify(p.Name)
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) AddImage(ctx context.Context, img domain.ProductImage) (domain.ProductImage, error) {
	u, err := url.Parse(img.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.ProductImage{}, fmt.Errorf("%w: url %q", ErrBadImage, img.URL)
	}
	img.ID = uuid.NewString()
	if err := s.repo.AddImage(ctx, img); err != nil {
		return domain.ProductImage{}, err
	}
	return img, nil
}

func (s *Service) DeleteImage(ctx context.Context, productID, imageID string) error {
	return s.repo.DeleteImage(ctx, productID, imageID)
}

func (s *Service) SetPrimaryImage(ctx context.Context, productID, imageID string) error {
	return s.repo.SetPrimaryImage(ctx, productID, imageID)
}

// ReorderImages sets each listed image's display position to its index in
// imageIDs. Every id must belong to the product.
func (s *Service) ReorderImages(ctx context.Context, productID string, imageIDs []string) error {
	if len(imageIDs) == 0 {
		return fmt.Errorf("%w: image id list is empty", ErrBadImage)
	}
	seen := make(map[string]struct{}, len(imageIDs))
	for _, id := range imageIDs {
		if id == "" {
			return fmt.Errorf("%w: empty image id", ErrBadImage)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate image id %q", ErrBadImage, id)
		}
		seen[id] = struct{}{}
	}
	if err := s.repo.ReorderImages(ctx, productID, imageIDs); err != nil {
		return ErrNotFound
	}
	return nil
}

func (s *Service) AddReview(ctx context.Context, rv domain.Review) (domain.Review, error) {
	if rv.Rating < 1 || rv.Rating > 5 {
		return domain.Review{}, ErrBadReview
	}
	rv.ID = uuid.NewString()
	rv.CreatedAt = time.Now().UTC()
	if err := s.repo.AddReview(ctx, rv); err != nil {
		return domain.Review{}, err
	}
	return rv, nil
}

func (s *Service) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	return s.repo.ListReviews(ctx, productID)
}

func validateProduct(p domain.Product) error {
	if p.Name == "" || p.Brand == "" {
		return fmt.Errorf("%w: name and brand are required", ErrBadProduct)
	}
	if p.PriceCents <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrBadProduct)
	}
	if p.DiscountPriceCents != nil && (*p.DiscountPriceCents <= 0 || *p.DiscountPriceCents >= p.PriceCents) {
		return fmt.Errorf("%w: discount price must be below the list price", ErrBadProduct)
	}
	if !domain.ValidGender(p.Gender) {
		return fmt.Errorf("%w: gender %q", ErrBadProduct, p.Gender)
	}
	return nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}
