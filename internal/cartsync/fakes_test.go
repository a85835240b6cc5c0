package cartsync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var errNetwork = errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")

type fakeRemote struct {
	mu       sync.Mutex
	carts    map[string][]RemoteItem
	products map[int64]RemoteProduct
	nextID   int64
	fail     map[string]error
	calls    map[string]int
	block    chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		carts: map[string][]RemoteItem{},
		products: map[int64]RemoteProduct{
			42: {ID: 42, Name: "Labial Mate", Price: decimal.RequireFromString("10.00"), Category: "Maquillaje"},
			7:  {ID: 7, Name: "Serum Facial", Price: decimal.RequireFromString("24.50"), Category: "Cuidado Personal"},
			9:  {ID: 9, Name: "Brocha Kabuki", Price: decimal.RequireFromString("8.25"), Category: "Herramientas"},
		},
		fail:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeRemote) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeRemote) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeRemote) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.fail[op]
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeRemote) snapshot(userID string) RemoteCart {
	items := make([]RemoteItem, len(f.carts[userID]))
	copy(items, f.carts[userID])
	return RemoteCart{Items: items}
}

func (f *fakeRemote) Fetch(ctx context.Context, userID string) (RemoteCart, error) {
	if err := f.enter(ctx, "fetch"); err != nil {
		return RemoteCart{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot(userID), nil
}

func (f *fakeRemote) AddItem(ctx context.Context, userID string, productID int64, quantity int) (RemoteCart, error) {
	if err := f.enter(ctx, "add"); err != nil {
		return RemoteCart{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	product, ok := f.products[productID]
	if !ok {
		return RemoteCart{}, fmt.Errorf("product %d not found", productID)
	}
	items := f.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += quantity
			return f.snapshot(userID), nil
		}
	}
	f.nextID++
	f.carts[userID] = append(items, RemoteItem{ID: f.nextID, ProductID: productID, Quantity: quantity, Product: product})
	return f.snapshot(userID), nil
}

func (f *fakeRemote) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (RemoteCart, error) {
	if err := f.enter(ctx, "update"); err != nil {
		return RemoteCart{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _ := strconv.ParseInt(itemID, 10, 64)
	for i := range f.carts[userID] {
		if f.carts[userID][i].ID == id {
			f.carts[userID][i].Quantity = quantity
		}
	}
	return f.snapshot(userID), nil
}

func (f *fakeRemote) RemoveItem(ctx context.Context, userID, itemID string) (RemoteCart, error) {
	if err := f.enter(ctx, "remove"); err != nil {
		return RemoteCart{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, _ := strconv.ParseInt(itemID, 10, 64)
	kept := f.carts[userID][:0:0]
	for _, item := range f.carts[userID] {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	f.carts[userID] = kept
	return f.snapshot(userID), nil
}

func (f *fakeRemote) Clear(ctx context.Context, userID string) error {
	if err := f.enter(ctx, "clear"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, userID)
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	data    map[string]string
	setErr  error
	getErr  error
	setCall int
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCall++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *fakeStore) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

type sequentialIDs struct {
	mu   sync.Mutex
	next int
}

func (s *sequentialIDs) UserID(time.Time) string {
	return "user_1700000000000_abcdefghi"
}

func (s *sequentialIDs) LocalItemID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("local-%d", s.next)
}

type fakeInitiator struct {
	url  string
	err  error
	reqs []CheckoutRequest
}

func (f *fakeInitiator) Initiate(_ context.Context, req CheckoutRequest) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.url, f.err
}
