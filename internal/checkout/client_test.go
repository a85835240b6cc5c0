package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/krislybeauty/storefront/internal/cartsync"
	pkgerrors "github.com/krislybeauty/storefront/pkg/errors"
)

func TestClientInitiateSuccess(t *testing.T) {
	var got cartsync.CheckoutRequest
	var origin string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/checkout" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		origin = r.Header.Get("Origin")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"checkoutUrl":"https://checkout.stripe.com/c/pay/cs_1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/api", WithClientHTTPClient(srv.Client()), WithOrigin("http://localhost:3000"))
	url, err := client.Initiate(context.Background(), cartsync.CheckoutRequest{
		Items:         []cartsync.CheckoutLine{{ID: "42", Quantity: 2}},
		CustomerEmail: "ana@example.com",
		CustomerName:  "Ana Ruiz",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://checkout.stripe.com/c/pay/cs_1" {
		t.Fatalf("unexpected url %s", url)
	}
	if origin != "http://localhost:3000" {
		t.Fatalf("expected origin header, got %q", origin)
	}
	if len(got.Items) != 1 || got.Items[0].ID != "42" || got.CustomerName != "Ana Ruiz" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestClientInitiateSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"No such price: 'price_a'","code":"PAYMENT_PROVIDER_ERROR"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL+"/api", WithClientHTTPClient(srv.Client())).Initiate(context.Background(), cartsync.CheckoutRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodePaymentProvider || typed.Message() != "No such price: 'price_a'" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestClientInitiateUnstructuredFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL+"/api", WithClientHTTPClient(srv.Client())).Initiate(context.Background(), cartsync.CheckoutRequest{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestPriceBookResolve(t *testing.T) {
	book := NewPriceBook(map[string]string{" 42 ": " price_a ", "7": ""})
	if _, ok := book.Lookup("7"); ok {
		t.Fatal("expected blank price to be dropped")
	}
	lines, unknown := book.Resolve([]LineItem{{ID: "42", Quantity: 1}, {ID: "9", Quantity: 1}, {ID: "9", Quantity: 2}})
	if len(lines) != 1 || lines[0].PriceID != "price_a" {
		t.Fatalf("unexpected lines %+v", lines)
	}
	if len(unknown) != 1 || unknown[0] != "9" {
		t.Fatalf("unexpected unknown %v", unknown)
	}
}
