package checkout

import (
	"sort"
	"strings"
)

// PriceBook maps storefront product identities onto payment-processor price ids.
type PriceBook map[string]string

// NewPriceBook copies entries, dropping blank keys or values.
func NewPriceBook(entries map[string]string) PriceBook {
	book := make(PriceBook, len(entries))
	for id, price := range entries {
		id, price = strings.TrimSpace(id), strings.TrimSpace(price)
		if id == "" || price == "" {
			continue
		}
		book[id] = price
	}
	return book
}

func (b PriceBook) Lookup(id string) (string, bool) {
	price, ok := b[strings.TrimSpace(id)]
	return price, ok
}

// Resolve prices every line, returning the sorted unique ids it could not price.
func (b PriceBook) Resolve(items []LineItem) ([]PricedLine, []string) {
	lines := make([]PricedLine, 0, len(items))
	seen := map[string]struct{}{}
	var unknown []string
	for _, item := range items {
		price, ok := b.Lookup(item.ID)
		if !ok {
			if _, dup := seen[item.ID]; !dup {
				seen[item.ID] = struct{}{}
				unknown = append(unknown, item.ID)
			}
			continue
		}
		lines = append(lines, PricedLine{PriceID: price, Quantity: int64(item.Quantity)})
	}
	sort.Strings(unknown)
	return lines, unknown
}
