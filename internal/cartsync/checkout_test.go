package cartsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/krislybeauty/storefront/pkg/errors"
)

var validCustomer = Customer{
	Email:     "ana@example.com",
	FirstName: "Ana",
	LastName:  "Ruiz",
	Address:   "Av. Siempre Viva 742",
	City:      "Lima",
	Country:   "PE",
}

func TestCheckoutRejectsEmptyCartBeforeAnyCall(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.container.Initialize(ctx))
	calls := h.remote.totalCalls()

	_, err := h.container.Checkout(ctx, validCustomer)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, msgEmptyCart, h.container.Err())
	assert.Empty(t, h.initiator.reqs)
	assert.Equal(t, calls, h.remote.totalCalls())
}

func TestCheckoutValidatesCustomerBeforeAnyCall(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.container.Initialize(ctx))
	require.NoError(t, h.container.AddItem(ctx, labial, 1))

	_, err := h.container.Checkout(ctx, Customer{Email: "not-an-email", FirstName: "Ana"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "email", details["email"])
	assert.Equal(t, "required", details["address"])
	assert.Empty(t, h.initiator.reqs)
	assert.Equal(t, 1, h.container.Snapshot().TotalItems())
}

func TestCheckoutRejectsBlankRequiredFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.container.Initialize(ctx))
	require.NoError(t, h.container.AddItem(ctx, labial, 1))

	customer := validCustomer
	customer.FirstName = "   "
	customer.Address = "\t \n"
	_, err := h.container.Checkout(ctx, customer)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "required", details["first_name"])
	assert.Equal(t, "required", details["address"])
	assert.Empty(t, h.initiator.reqs)
	assert.Equal(t, msgInvalidForm, h.container.Err())
}

func TestCheckoutSuccessClearsCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.container.Initialize(ctx))
	require.NoError(t, h.container.AddItem(ctx, labial, 2))
	require.NoError(t, h.container.AddItem(ctx, serum, 1))
	h.initiator.url = "https://checkout.stripe.com/c/pay/cs_test_123"

	url, err := h.container.Checkout(ctx, validCustomer)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_123", url)
	assert.True(t, h.container.Snapshot().IsEmpty())
	assert.Empty(t, cachedItems(t, h.store))
	assert.Equal(t, 1, h.remote.callCount("clear"))

	require.Len(t, h.initiator.reqs, 1)
	req := h.initiator.reqs[0]
	assert.Equal(t, []CheckoutLine{{ID: "42", Quantity: 2}, {ID: "7", Quantity: 1}}, req.Items)
	assert.Equal(t, "ana@example.com", req.CustomerEmail)
	assert.Equal(t, "Ana Ruiz", req.CustomerName)
	assert.Equal(t, "Lima", req.Metadata["city"])
	assert.Equal(t, "Av. Siempre Viva 742", req.Metadata["address"])
	_, hasState := req.Metadata["state"]
	assert.False(t, hasState)
}

func TestCheckoutProcessorErrorLeavesCartUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.container.Initialize(ctx))
	require.NoError(t, h.container.AddItem(ctx, labial, 1))
	h.initiator.err = pkgerrors.New(pkgerrors.CodePaymentProvider, "No such price: 'price_missing'")

	_, err := h.container.Checkout(ctx, validCustomer)
	require.Error(t, err)
	assert.Equal(t, "No such price: 'price_missing'", h.container.Err())
	assert.Equal(t, 1, h.container.Snapshot().TotalItems())
	assert.Zero(t, h.remote.callCount("clear"))
}

func TestCheckoutWithoutRedirectURLLeavesCartUntouched(t *testing.T) {
	for _, url := range []string{"", "   ", "not a url", "/relative/path"} {
		h := newHarness(t)
		ctx := context.Background()
		require.NoError(t, h.container.Initialize(ctx))
		require.NoError(t, h.container.AddItem(ctx, labial, 1))
		h.initiator.url = url

		_, err := h.container.Checkout(ctx, validCustomer)
		require.Error(t, err, "url %q", url)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
		assert.Equal(t, msgNoRedirect, h.container.Err())
		assert.Equal(t, 1, h.container.Snapshot().TotalItems())
	}
}

func TestCheckoutUsesItemIDWhenProductRefMissing(t *testing.T) {
	snap := Snapshot{Items: []Item{{ID: "legacy-1", Quantity: 2}}}
	req := buildCheckoutRequest(snap, validCustomer)
	assert.Equal(t, []CheckoutLine{{ID: "legacy-1", Quantity: 2}}, req.Items)
}

func TestCheckoutWithoutInitiatorIsConfigurationError(t *testing.T) {
	c, err := NewContainer(Params{Remote: newFakeRemote(), Store: newFakeStore()})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, c.Initialize(ctx))
	require.NoError(t, c.AddItem(ctx, labial, 1))

	_, err = c.Checkout(ctx, validCustomer)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfiguration))
	assert.Equal(t, 1, c.Snapshot().TotalItems())
}
