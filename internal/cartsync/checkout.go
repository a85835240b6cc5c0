package cartsync

import (
	"context"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/krislybeauty/storefront/pkg/errors"
)

const (
	msgEmptyCart   = "no items in cart"
	msgNoRedirect  = "checkout session returned no redirect url"
	msgInvalidForm = "please complete the required checkout fields"
)

// Customer is the checkout form.
type Customer struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

func (c Customer) trimmed() Customer {
	return Customer{
		Email:     strings.TrimSpace(c.Email),
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Address:   strings.TrimSpace(c.Address),
		City:      strings.TrimSpace(c.City),
		State:     strings.TrimSpace(c.State),
		ZipCode:   strings.TrimSpace(c.ZipCode),
		Country:   strings.TrimSpace(c.Country),
	}
}

func (c Customer) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

func (c Customer) metadata() map[string]string {
	fields := map[string]string{
		"customer_email": strings.TrimSpace(c.Email),
		"customer_name":  c.DisplayName(),
		"address":        strings.TrimSpace(c.Address),
		"city":           strings.TrimSpace(c.City),
		"state":          strings.TrimSpace(c.State),
		"zip_code":       strings.TrimSpace(c.ZipCode),
		"country":        strings.TrimSpace(c.Country),
	}
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	return fields
}

var customerValidator = newCustomerValidator()

func newCustomerValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Checkout hands the cart to the checkout initiator and returns the hosted payment URL.
// The cart is cleared only once a usable redirect URL has been received.
func (c *Container) Checkout(ctx context.Context, customer Customer) (string, error) {
	c.begin()
	defer c.end()
	if err := c.ensureInitialized(); err != nil {
		return "", err
	}
	ctx = c.logg.WithOperation(c.logg.WithUserID(ctx, c.UserID()), opCheckout)

	snapshot := c.Snapshot()
	if snapshot.IsEmpty() {
		c.setErr(msgEmptyCart)
		return "", pkgerrors.New(pkgerrors.CodeValidation, msgEmptyCart)
	}
	customer = customer.trimmed()
	if err := customerValidator.Struct(customer); err != nil {
		c.setErr(msgInvalidForm)
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidForm).WithDetails(validationDetails(err))
	}
	if c.checkout == nil {
		c.setErr("checkout is not configured")
		return "", pkgerrors.New(pkgerrors.CodeConfiguration, "checkout is not configured")
	}

	checkoutURL, err := c.checkout.Initiate(ctx, buildCheckoutRequest(snapshot, customer))
	if err != nil {
		c.setErr(errorMessage(err))
		c.logg.WarnErr(ctx, "cart.checkout_failed", err)
		return "", err
	}
	if !isRedirectURL(checkoutURL) {
		c.setErr(msgNoRedirect)
		return "", pkgerrors.New(pkgerrors.CodeDependency, msgNoRedirect)
	}

	if err := c.clear(ctx); err != nil {
		c.logg.WarnErr(ctx, "cart.clear_after_checkout_failed", err)
	}
	c.logg.Info(ctx, "cart.checkout_started")
	return checkoutURL, nil
}

func buildCheckoutRequest(snapshot Snapshot, customer Customer) CheckoutRequest {
	lines := make([]CheckoutLine, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		id := item.ID
		if item.ProductID != nil {
			id = formatProductID(*item.ProductID)
		}
		lines = append(lines, CheckoutLine{ID: id, Quantity: item.Quantity})
	}
	return CheckoutRequest{
		Items:         lines,
		CustomerEmail: strings.TrimSpace(customer.Email),
		CustomerName:  customer.DisplayName(),
		Metadata:      customer.metadata(),
	}
}

func isRedirectURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "https" || parsed.Scheme == "http") && parsed.Host != ""
}

// errorMessage returns the human message of err without the code prefix of typed errors.
func errorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return err.Error()
}

func validationDetails(err error) map[string]string {
	details := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return details
	}
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
