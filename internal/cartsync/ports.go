package cartsync

import (
	"context"

	"github.com/shopspring/decimal"
)

// RemoteProduct is the product snapshot embedded in a remote cart line.
type RemoteProduct struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Image       string
	Stock       int
}

type RemoteItem struct {
	ID        int64
	ProductID int64
	Quantity  int
	Product   RemoteProduct
}

type RemoteCart struct {
	Items []RemoteItem
}

// Remote is the remote cart service keyed by user identity.
type Remote interface {
	Fetch(ctx context.Context, userID string) (RemoteCart, error)
	AddItem(ctx context.Context, userID string, productID int64, quantity int) (RemoteCart, error)
	UpdateItem(ctx context.Context, userID, itemID string, quantity int) (RemoteCart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (RemoteCart, error)
	Clear(ctx context.Context, userID string) error
}

// Store is the local durable cache.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type CheckoutLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type CheckoutRequest struct {
	Items         []CheckoutLine    `json:"items"`
	CustomerEmail string            `json:"customerEmail"`
	CustomerName  string            `json:"customerName"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// CheckoutInitiator mints a hosted payment URL for a cart.
type CheckoutInitiator interface {
	Initiate(ctx context.Context, req CheckoutRequest) (string, error)
}
