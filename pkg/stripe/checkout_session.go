package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
)

// SessionLine is one priced line of a hosted checkout session.
type SessionLine struct {
	PriceID  string
	Quantity int64
}

// SessionInput carries everything needed to open a hosted checkout session.
type SessionInput struct {
	Lines             []SessionLine
	CustomerEmail     string
	ClientReferenceID string
	Metadata          map[string]string
	SuccessURL        string
	CancelURL         string
}

// Session is the subset of the created session the storefront cares about.
type Session struct {
	ID  string
	URL string
}

type sessionBackend interface {
	New(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type hostedSessions struct{}

func (hostedSessions) New(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return session.New(params)
}

// CreateCheckoutSession opens a hosted card checkout in payment mode.
func (c *Client) CreateCheckoutSession(ctx context.Context, in SessionInput) (*Session, error) {
	if c == nil || c.sessions == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if len(in.Lines) == 0 {
		return nil, errors.New("checkout session requires at least one line")
	}

	created, err := c.sessions.New(ctx, buildSessionParams(in))
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, errors.New("stripe returned an empty checkout session")
	}
	return &Session{ID: created.ID, URL: created.URL}, nil
}

func buildSessionParams(in SessionInput) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes:  stripe.StringSlice([]string{"card"}),
		Mode:                stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:          stripe.String(in.SuccessURL),
		CancelURL:           stripe.String(in.CancelURL),
		AllowPromotionCodes: stripe.Bool(true),
	}
	for _, line := range in.Lines {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(line.PriceID),
			Quantity: stripe.Int64(line.Quantity),
		})
	}
	if email := strings.TrimSpace(in.CustomerEmail); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	if ref := strings.TrimSpace(in.ClientReferenceID); ref != "" {
		params.ClientReferenceID = stripe.String(ref)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	return params
}
