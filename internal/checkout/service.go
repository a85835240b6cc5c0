// Package checkout mints hosted payment sessions for storefront carts.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/krislybeauty/storefront/pkg/errors"
	"github.com/krislybeauty/storefront/pkg/logger"
	"github.com/krislybeauty/storefront/pkg/metrics"
)

const defaultOrigin = "http://localhost:3000"

// LineItem is one requested product and its quantity.
type LineItem struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

// Request is the checkout initiation payload.
type Request struct {
	Items         []LineItem        `json:"items" validate:"required,min=1,dive"`
	CustomerEmail string            `json:"customerEmail" validate:"omitempty,email"`
	CustomerName  string            `json:"customerName"`
	Metadata      map[string]string `json:"metadata"`
	// Origin is the storefront base URL used for redirects; it never comes from the body.
	Origin string `json:"-"`
}

// PricedLine is a line resolved against the price book.
type PricedLine struct {
	PriceID  string
	Quantity int64
}

// ProviderRequest is what the payment provider needs to open a hosted session.
type ProviderRequest struct {
	Lines         []PricedLine
	CustomerEmail string
	CustomerName  string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Provider opens hosted checkout sessions with the payment processor.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req ProviderRequest) (*Session, error)
}

// Service creates checkout sessions.
type Service interface {
	CreateSession(ctx context.Context, req Request) (*Session, error)
}

type service struct {
	provider      Provider
	prices        PriceBook
	defaultOrigin string
	metrics       *metrics.CheckoutMetrics
	logg          *logger.Logger
	validate      *validator.Validate
	now           func() time.Time
}

// ServiceParams wires the checkout service. A nil Provider or empty Prices is reported as a
// configuration error per request rather than at construction.
type ServiceParams struct {
	Provider      Provider
	Prices        PriceBook
	DefaultOrigin string
	Metrics       *metrics.CheckoutMetrics
	Logger        *logger.Logger
}

func NewService(p ServiceParams) (Service, error) {
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	origin := strings.TrimRight(strings.TrimSpace(p.DefaultOrigin), "/")
	if origin == "" {
		origin = defaultOrigin
	}
	return &service{
		provider:      p.Provider,
		prices:        p.Prices,
		defaultOrigin: origin,
		metrics:       p.Metrics,
		logg:          p.Logger,
		validate:      validator.New(),
		now:           time.Now,
	}, nil
}

func (s *service) CreateSession(ctx context.Context, req Request) (*Session, error) {
	started := s.now()
	session, err := s.createSession(ctx, req)
	s.metrics.ObserveDuration(s.now().Sub(started))
	if err != nil {
		code := pkgerrors.CodeInternal
		if typed := pkgerrors.As(err); typed != nil {
			code = typed.Code()
		}
		s.metrics.IncFailure(string(code))
		return nil, err
	}
	s.metrics.IncCreated()
	return session, nil
}

func (s *service) createSession(ctx context.Context, req Request) (*Session, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout request")
	}
	if s.provider == nil || len(s.prices) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "payment provider is not configured")
	}

	lines, unknown := s.prices.Resolve(req.Items)
	if len(unknown) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown product").
			WithDetails(map[string]any{"unknown_ids": unknown})
	}

	origin := strings.TrimRight(strings.TrimSpace(req.Origin), "/")
	if origin == "" {
		origin = s.defaultOrigin
	}

	email := strings.TrimSpace(req.CustomerEmail)
	name := strings.TrimSpace(req.CustomerName)
	// Caller metadata wins over the derived customer keys.
	metadata := map[string]string{}
	if email != "" {
		metadata["customer_email"] = email
	}
	if name != "" {
		metadata["customer_name"] = name
	}
	maps.Copy(metadata, req.Metadata)

	session, err := s.provider.CreateCheckoutSession(ctx, ProviderRequest{
		Lines:         lines,
		CustomerEmail: email,
		CustomerName:  name,
		Metadata:      metadata,
		SuccessURL:    origin + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     origin + "/checkout",
	})
	if err != nil {
		s.logg.WarnErr(ctx, "checkout.provider_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentProvider, err, providerMessage(err))
	}
	if session == nil || strings.TrimSpace(session.URL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodePaymentProvider, "payment provider returned no checkout url")
	}

	s.logg.Info(s.logg.WithField(ctx, "session_id", session.ID), "checkout.session_created")
	return session, nil
}

// ProviderError carries the processor's own message alongside the underlying error.
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "payment provider error"
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func providerMessage(err error) string {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Error()
	}
	return err.Error()
}
