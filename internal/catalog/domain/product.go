package domain

import "time"

type Gender string

const (
	GenderMen    Gender = "MEN"
	GenderWomen  Gender = "WOMEN"
	GenderUnisex Gender = "UNISEX"
)

func ValidGender(g Gender) bool {
	switch g {
	case GenderMen, GenderWomen, GenderUnisex:
		return true
	}
	return false
}

type Product struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Slug               string         `json:"slug"`
	Brand              string         `json:"brand"`
	Description        string         `json:"description"`
	PriceCents         int64          `json:"priceCents"`
	DiscountPriceCents *int64         `json:"discountPriceCents,omitempty"`
	Category           string         `json:"category"`
	Gender             Gender         `json:"gender"`
	Movement           string         `json:"movement,omitempty"`
	StrapMaterial      string         `json:"strapMaterial,omitempty"`
	Stock              int            `json:"stock"`
	Featured           bool           `json:"featured"`
	Images             []ProductImage `json:"images,omitempty"`
	RatingAvg          float64        `json:"ratingAvg"`
	RatingCount        int            `json:"ratingCount"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

type ProductImage struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	URL       string `json:"url"`
	Alt       string `json:"alt,omitempty"`
	Position  int    `json:"position"`
	Primary   bool   `json:"primary"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

func ValidSort(s Sort) bool {
	switch s {
	case SortNewest, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

// Filter holds the optional catalog listing parameters. Zero values mean
// "no constraint".
type Filter struct {
	Category      string
	Brand         string
	Gender        Gender
	Search        string
	MinPriceCents *int64
	MaxPriceCents *int64
	InStock       bool
	Featured      bool
	Sort          Sort
	Limit         int
	Offset        int
}
