package cartsync

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Item is one cart line. ID is either the remote line id or a local-only id.
type Item struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	ProductID *int64          `json:"product_id,omitempty"`
}

// ProductRef identifies the catalog product being added to the cart.
type ProductRef struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Image string
}

// Snapshot is an ordered view of the cart. Aggregates are derived on read.
type Snapshot struct {
	Items []Item `json:"items"`
}

func (s Snapshot) TotalItems() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the sum of price times quantity over every line.
func (s Snapshot) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Clone returns a deep copy, including product references.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Items: cloneItems(s.Items)}
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return []Item{}
	}
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = item
		if item.ProductID != nil {
			id := *item.ProductID
			out[i].ProductID = &id
		}
	}
	return out
}

func formatProductID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func itemsFromRemote(cart RemoteCart) []Item {
	items := make([]Item, 0, len(cart.Items))
	for _, line := range cart.Items {
		productID := line.ProductID
		if productID == 0 {
			productID = line.Product.ID
		}
		items = append(items, Item{
			ID:        strconv.FormatInt(line.ID, 10),
			Name:      line.Product.Name,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
			Image:     line.Product.Image,
			ProductID: &productID,
		})
	}
	return items
}
