package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// CheckoutSessionResponse is the storefront-facing success body of POST /api/checkout.
type CheckoutSessionResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// FlatError is the storefront-facing failure body of POST /api/checkout.
type FlatError struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
