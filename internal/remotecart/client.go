// Package remotecart talks to the remote cart service over REST/JSON.
package remotecart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/krislybeauty/storefront/internal/cartsync"
	pkgerrors "github.com/krislybeauty/storefront/pkg/errors"
)

const (
	defaultBaseURL             = "http://localhost:8000/api"
	responseBodyReadLimit int64 = 1024
)

// Client implements cartsync.Remote.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

var _ cartsync.Remote = (*Client)(nil)

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a cart service client rooted at baseURL (e.g. http://host/api).
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

type productPayload struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
}

type itemPayload struct {
	ID        int64          `json:"id"`
	ProductID int64          `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Product   productPayload `json:"product"`
}

type cartPayload struct {
	ID         int64           `json:"id"`
	UserID     string          `json:"user_id"`
	Items      []itemPayload   `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func (p cartPayload) toRemote() cartsync.RemoteCart {
	items := make([]cartsync.RemoteItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, cartsync.RemoteItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Product: cartsync.RemoteProduct{
				ID:          it.Product.ID,
				Name:        it.Product.Name,
				Description: it.Product.Description,
				Price:       it.Product.Price,
				Category:    it.Product.Category,
				Image:       it.Product.Image,
				Stock:       it.Product.Stock,
			},
		})
	}
	return cartsync.RemoteCart{Items: items}
}

// Fetch loads the cart of userID.
func (c *Client) Fetch(ctx context.Context, userID string) (cartsync.RemoteCart, error) {
	return c.cartRequest(ctx, http.MethodGet, c.cartPath(userID), nil, "fetch cart")
}

func (c *Client) AddItem(ctx context.Context, userID string, productID int64, quantity int) (cartsync.RemoteCart, error) {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	return c.cartRequest(ctx, http.MethodPost, c.cartPath(userID, "items"), body, "add cart item")
}

func (c *Client) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (cartsync.RemoteCart, error) {
	body := map[string]any{"quantity": quantity}
	return c.cartRequest(ctx, http.MethodPut, c.cartPath(userID, "items", itemID), body, "update cart item")
}

func (c *Client) RemoveItem(ctx context.Context, userID, itemID string) (cartsync.RemoteCart, error) {
	return c.cartRequest(ctx, http.MethodDelete, c.cartPath(userID, "items", itemID), nil, "remove cart item")
}

// Clear empties the remote cart; the confirmation body is ignored.
func (c *Client) Clear(ctx context.Context, userID string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.cartPath(userID, "clear"), nil, "clear cart")
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

func (c *Client) cartRequest(ctx context.Context, method, path string, body any, action string) (cartsync.RemoteCart, error) {
	resp, err := c.do(ctx, method, path, body, action)
	if err != nil {
		return cartsync.RemoteCart{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var payload cartPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return cartsync.RemoteCart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+action+" response")
	}
	return payload.toRemote(), nil
}

// do executes the request and returns the response for 2xx statuses only.
func (c *Client) do(ctx context.Context, method, path string, body any, action string) (*http.Response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal "+action+" request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+action+" request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+action+" request")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), action+" request failed").
			WithDetails(map[string]any{"status": resp.StatusCode})
	}
	return resp, nil
}

func (c *Client) cartPath(userID string, parts ...string) string {
	var b strings.Builder
	b.WriteString("/cart/")
	b.WriteString(url.PathEscape(userID))
	for _, part := range parts {
		b.WriteString("/")
		b.WriteString(url.PathEscape(part))
	}
	return b.String()
}
