package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/krislybeauty/storefront/internal/cartsync"
	pkgerrors "github.com/krislybeauty/storefront/pkg/errors"
	"github.com/krislybeauty/storefront/pkg/types"
)

const (
	defaultClientBaseURL       = "http://localhost:8080/api"
	responseReadLimit    int64 = 64 << 10
)

// Client calls POST /api/checkout on behalf of the cart container.
type Client struct {
	httpClient *http.Client
	baseURL    string
	origin     string
}

var _ cartsync.CheckoutInitiator = (*Client)(nil)

type ClientOption func(*Client)

func WithClientHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithOrigin sets the Origin header so redirect URLs point back at the storefront.
func WithOrigin(origin string) ClientOption {
	return func(c *Client) {
		c.origin = strings.TrimSpace(origin)
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if client.baseURL == "" {
		client.baseURL = defaultClientBaseURL
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Initiate returns the hosted checkout URL. Server-side failures come back with the server's
// message verbatim.
func (c *Client) Initiate(ctx context.Context, req cartsync.CheckoutRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal checkout request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout", bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build checkout request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.origin != "" {
		httpReq.Header.Set("Origin", c.origin)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout service unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read checkout response")
	}

	if resp.StatusCode != http.StatusOK {
		var failure types.FlatError
		if err := json.Unmarshal(body, &failure); err != nil || strings.TrimSpace(failure.Error) == "" {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency,
				fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "checkout request failed")
		}
		code := pkgerrors.Code(failure.Code)
		if code == "" {
			code = pkgerrors.CodeDependency
		}
		return "", pkgerrors.New(code, failure.Error).WithDetails(failure.Details)
	}

	var success types.CheckoutSessionResponse
	if err := json.Unmarshal(body, &success); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout response")
	}
	return success.CheckoutURL, nil
}
