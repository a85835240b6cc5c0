package catalog

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryMakeup   Category = "Maquillaje"
	CategorySkincare Category = "Cuidado Personal"
	CategoryTools    Category = "Herramientas"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryMakeup, CategorySkincare, CategoryTools}

// NormalizeCategory maps a raw category onto a known one. Empty values default to makeup;
// unknown non-empty values are kept as-is.
func NormalizeCategory(raw string) Category {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CategoryMakeup
	}
	for _, c := range Categories {
		if strings.EqualFold(trimmed, string(c)) {
			return c
		}
	}
	return Category(trimmed)
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
	Rating      *float64        `json:"rating,omitempty"`
	SalesCount  *int            `json:"sales_count,omitempty"`
	IsFeatured  bool            `json:"is_featured"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

type productPayload struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Stock       int             `json:"stock"`
	Rating      *float64        `json:"rating"`
	SalesCount  *int            `json:"sales_count"`
	IsFeatured  bool            `json:"is_featured"`
	CreatedAt   string          `json:"created_at"`
}

// the catalog service emits naive timestamps (no zone) as well as RFC 3339
var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseCreatedAt(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func (p productPayload) normalize() Product {
	return Product{
		ID:          p.ID,
		Name:        strings.TrimSpace(p.Name),
		Category:    NormalizeCategory(p.Category),
		Price:       p.Price,
		Image:       p.Image,
		Description: p.Description,
		Stock:       p.Stock,
		Rating:      p.Rating,
		SalesCount:  p.SalesCount,
		IsFeatured:  p.IsFeatured,
		CreatedAt:   parseCreatedAt(p.CreatedAt),
	}
}

// decodeProductList accepts a bare array or an object wrapping it under products, items or data.
func decodeProductList(raw []byte) ([]Product, error) {
	var payloads []productPayload
	if err := json.Unmarshal(raw, &payloads); err != nil {
		var wrapped struct {
			Products []productPayload `json:"products"`
			Items    []productPayload `json:"items"`
			Data     []productPayload `json:"data"`
		}
		if werr := json.Unmarshal(raw, &wrapped); werr != nil {
			return nil, err
		}
		switch {
		case wrapped.Products != nil:
			payloads = wrapped.Products
		case wrapped.Items != nil:
			payloads = wrapped.Items
		default:
			payloads = wrapped.Data
		}
	}
	products := make([]Product, 0, len(payloads))
	for _, p := range payloads {
		products = append(products, p.normalize())
	}
	return products, nil
}

func decodeProduct(raw []byte) (Product, error) {
	var payload productPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Product{}, err
	}
	return payload.normalize(), nil
}
