package postgres

import (
	"strings"
	"testing"

	"github.com/chronoshop/storefront/internal/catalog/domain"
)

func TestBuildListQueryNoFilters(t *testing.T) {
	q, args := buildListQuery(domain.Filter{Limit: 24})
	if strings.Contains(q, "WHERE") {
		t.Fatalf("unfiltered query must have no WHERE clause: %s", q)
	}
	if !strings.Contains(q, "ORDER BY p.created_at DESC") {
		t.Fatalf("default sort missing: %s", q)
	}
	if len(args) != 2 {
		t.Fatalf("expected limit and offset args only, got %v", args)
	}
}

func TestBuildListQueryCombinedFilters(t *testing.T) {
	min := int64(100000)
	f := domain.Filter{
		Category:      "diver",
		Brand:         "Seastar",
		Gender:        domain.GenderMen,
		Search:        "automatic",
		MinPriceCents: &min,
		InStock:       true,
		Sort:          domain.SortPriceAsc,
		Limit:         10,
		Offset:        20,
	}
	q, args := buildListQuery(f)

	for _, frag := range []string{
		"p.category = $1",
		"p.brand = $2",
		"p.gender = $3",
		"ILIKE $4",
		"COALESCE(p.discount_price_cents, p.price_cents) >= $5",
		"p.stock > 0",
		"ORDER BY COALESCE(p.discount_price_cents, p.price_cents) ASC",
		"LIMIT $6 OFFSET $7",
	} {
		if !strings.Contains(q, frag) {
			t.Fatalf("query missing %q:\n%s", frag, q)
		}
	}
	if args[3] != "%automatic%" {
		t.Fatalf("search arg = %v", args[3])
	}
	if len(args) != 7 {
		t.Fatalf("expected 7 args, got %d: %v", len(args), args)
	}
}

func TestBuildListQuerySearchIsParameterized(t *testing.T) {
	q, args := buildListQuery(domain.Filter{Search: "'; DROP TABLE products; --", Limit: 5})
	if strings.Contains(q, "DROP TABLE") {
		t.Fatalf("search text leaked into SQL: %s", q)
	}
	if args[0] != "%'; DROP TABLE products; --%" {
		t.Fatalf("search arg = %v", args[0])
	}
}
