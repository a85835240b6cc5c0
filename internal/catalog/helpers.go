package catalog

import (
	"sort"
	"strings"
)

type SortOrder string

const (
	SortFeatured  SortOrder = "featured"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortRating    SortOrder = "rating"
	SortNewest    SortOrder = "newest"
)

// ParseSortOrder maps user input onto a SortOrder, defaulting to featured.
func ParseSortOrder(raw string) SortOrder {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(raw))); order {
	case SortPriceLow, SortPriceHigh, SortRating, SortNewest:
		return order
	default:
		return SortFeatured
	}
}

func FilterByCategory(products []Product, category Category) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Search matches query case-insensitively against name and description. An empty query
// matches everything.
func Search(products []Product, query string) []Product {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return append([]Product(nil), products...)
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	return out
}

// Sort returns a sorted copy. Sorting is stable, so ties keep the input order.
func Sort(products []Product, order SortOrder) []Product {
	out := append([]Product(nil), products...)
	switch order {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool { return ratingOf(out[i]) > ratingOf(out[j]) })
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].CreatedAt, out[j].CreatedAt
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return a.After(*b)
		})
	}
	return out
}

func ratingOf(p Product) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}
