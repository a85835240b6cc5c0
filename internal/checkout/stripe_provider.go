package checkout

import (
	"context"

	pkgstripe "github.com/krislybeauty/storefront/pkg/stripe"
)

// StripeProvider opens Stripe-hosted checkout sessions.
type StripeProvider struct {
	client *pkgstripe.Client
}

// NewStripeProvider returns nil when client is nil so the service reports missing configuration.
func NewStripeProvider(client *pkgstripe.Client) Provider {
	if client == nil {
		return nil
	}
	return &StripeProvider{client: client}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req ProviderRequest) (*Session, error) {
	lines := make([]pkgstripe.SessionLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, pkgstripe.SessionLine{PriceID: line.PriceID, Quantity: line.Quantity})
	}
	created, err := p.client.CreateCheckoutSession(ctx, pkgstripe.SessionInput{
		Lines:             lines,
		CustomerEmail:     req.CustomerEmail,
		ClientReferenceID: req.CustomerName,
		Metadata:          req.Metadata,
		SuccessURL:        req.SuccessURL,
		CancelURL:         req.CancelURL,
	})
	if err != nil {
		return nil, &ProviderError{Message: pkgstripe.ErrorMessage(err), Err: err}
	}
	return &Session{ID: created.ID, URL: created.URL}, nil
}
