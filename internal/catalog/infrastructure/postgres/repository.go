package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chronoshop/storefront/internal/catalog/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT UNIQUE NOT NULL,
			brand TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price_cents BIGINT NOT NULL,
			discount_price_cents BIGINT,
			category TEXT NOT NULL DEFAULT '',
			gender TEXT NOT NULL,
			movement TEXT NOT NULL DEFAULT '',
			strap_material TEXT NOT NULL DEFAULT '',
			stock INT NOT NULL DEFAULT 0,
			featured BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS product_images (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			alt TEXT NOT NULL DEFAULT '',
			position INT NOT NULL DEFAULT 0,
			is_primary BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE TABLE IF NOT EXISTS reviews (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			rating INT NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS products_category_idx ON products (category);
		CREATE INDEX IF NOT EXISTS products_brand_idx ON products (brand);
	`)
	return err
}

const productColumns = `p.id, p.name, p.slug, p.brand, p.description, p.price_cents, p.discount_price_cents,
	p.category, p.gender, p.movement, p.strap_material, p.stock, p.featured,
	COALESCE(r.avg_rating, 0), COALESCE(r.rating_count, 0), p.created_at, p.updated_at`

const reviewJoin = `LEFT JOIN (
	SELECT product_id, AVG(rating) AS avg_rating, COUNT(*) AS rating_count
	FROM reviews GROUP BY product_id
) r ON r.product_id = p.id`

// buildListQuery assembles the filtered listing statement. Each optional
// filter contributes one predicate with a positional argument.
func buildListQuery(f domain.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		where = append(where, "p.category = "+arg(f.Category))
	}
	if f.Brand != "" {
		where = append(where, "p.brand = "+arg(f.Brand))
	}
	if f.Gender != "" {
		where = append(where, "p.gender = "+arg(string(f.Gender)))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		where = append(where, fmt.Sprintf("(p.name ILIKE %s OR p.brand ILIKE %s OR p.description ILIKE %s)", p, p, p))
	}
	if f.MinPriceCents != nil {
		where = append(where, "COALESCE(p.discount_price_cents, p.price_cents) >= "+arg(*f.MinPriceCents))
	}
	if f.MaxPriceCents != nil {
		where = append(where, "COALESCE(p.discount_price_cents, p.price_cents) <= "+arg(*f.MaxPriceCents))
	}
	if f.InStock {
		where = append(where, "p.stock > 0")
	}
	if f.Featured {
		where = append(where, "p.featured")
	}

	q := "SELECT " + productColumns + " FROM products p " + reviewJoin
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	switch f.Sort {
	case domain.SortPriceAsc:
		q += " ORDER BY COALESCE(p.discount_price_cents, p.price_cents) ASC"
	case domain.SortPriceDesc:
		q += " ORDER BY COALESCE(p.discount_price_cents, p.price_cents) DESC"
	default:
		q += " ORDER BY p.created_at DESC"
	}
	q += " LIMIT " + arg(f.Limit) + " OFFSET " + arg(f.Offset)
	return q, args
}

func (r *Repository) List(ctx context.Context, f domain.Filter) ([]domain.Product, error) {
	query, args := buildListQuery(f)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (domain.Product, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products p "+reviewJoin+" WHERE p.slug=$1", slug)
	p, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, url, alt, position, is_primary
		FROM product_images WHERE product_id=$1 ORDER BY position`, p.ID)
	if err != nil {
		return domain.Product{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Alt, &img.Position, &img.Primary); err != nil {
			return domain.Product{}, err
		}
		p.Images = append(p.Images, img)
	}
	return p, rows.Err()
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Brand, &p.Description, &p.PriceCents, &p.DiscountPriceCents,
		&p.Category, &p.Gender, &p.Movement, &p.StrapMaterial, &p.Stock, &p.Featured,
		&p.RatingAvg, &p.RatingCount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repository) Create(ctx context.Context, p domain.Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, slug, brand, description, price_cents, discount_price_cents, category, gender, movement, strap_material, stock, featured, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		p.ID, p.Name, p.Slug, p.Brand, p.Description, p.PriceCents, p.DiscountPriceCents,
		p.Category, p.Gender, p.Movement, p.StrapMaterial, p.Stock, p.Featured, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *Repository) Update(ctx context.Context, p domain.Product) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE products SET name=$2, slug=$3, brand=$4, description=$5, price_cents=$6, discount_price_cents=$7,
			category=$8, gender=$9, movement=$10, strap_material=$11, stock=$12, featured=$13, updated_at=$14
		WHERE id=$1`,
		p.ID, p.Name, p.Slug, p.Brand, p.Description, p.PriceCents, p.DiscountPriceCents,
		p.Category, p.Gender, p.Movement, p.StrapMaterial, p.Stock, p.Featured, p.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	return err
}

func (r *Repository) AddImage(ctx context.Context, img domain.ProductImage) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO product_images (id, product_id, url, alt, position, is_primary)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		img.ID, img.ProductID, img.URL, img.Alt, img.Position, img.Primary)
	return err
}

func (r *Repository) DeleteImage(ctx context.Context, productID, imageID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM product_images WHERE id=$1 AND product_id=$2`, imageID, productID)
	return err
}

func (r *Repository) SetPrimaryImage(ctx context.Context, productID, imageID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx,
		`UPDATE product_images SET is_primary=FALSE WHERE product_id=$1`, productID); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx,
		`UPDATE product_images SET is_primary=TRUE WHERE id=$1 AND product_id=$2`, imageID, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func (r *Repository) ReorderImages(ctx context.Context, productID string, imageIDs []string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for i, id := range imageIDs {
		ct, err := tx.Exec(ctx,
			`UPDATE product_images SET position=$3 WHERE id=$1 AND product_id=$2`, id, productID, i)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) AddReview(ctx context.Context, rv domain.Review) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt)
	return err
}

func (r *Repository) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, user_id, rating, comment, created_at
		FROM reviews WHERE product_id=$1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
