// Package cartsync owns the session cart: one in-memory snapshot synchronized against the
// remote cart service, with a local durable cache taking over once the remote store fails.
package cartsync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	pkgerrors "github.com/krislybeauty/storefront/pkg/errors"
	"github.com/krislybeauty/storefront/pkg/logger"
	"github.com/krislybeauty/storefront/pkg/metrics"
)

const (
	// UserIDKey and CartKey are the local cache keys of the session.
	UserIDKey = "userId"
	CartKey   = "cart"

	DefaultRemoteTimeout = 10 * time.Second
)

const (
	opInitialize = "initialize"
	opAddItem    = "add_item"
	opRemoveItem = "remove_item"
	opUpdateItem = "update_quantity"
	opClear      = "clear"
	opCheckout   = "checkout"
)

// Transient error messages exposed through Err.
const (
	msgLoadFailed    = "failed to load cart"
	msgAddFailed     = "failed to add item to cart"
	msgRemoveFailed  = "failed to remove item from cart"
	msgUpdateFailed  = "failed to update quantity"
	msgClearFailed   = "failed to clear cart"
	msgPersistFailed = "failed to save cart locally"
)

// ErrNotInitialized is returned by every operation invoked before Initialize.
var ErrNotInitialized = pkgerrors.New(pkgerrors.CodeStateConflict, "cart container not initialized")

type Params struct {
	Remote   Remote
	Store    Store
	Checkout CheckoutInitiator
	Logger   *logger.Logger
	Metrics  *metrics.CartSyncMetrics
	IDs      IDGenerator
	Clock    func() time.Time
	// RemoteTimeout bounds every remote cart call. Zero means DefaultRemoteTimeout.
	RemoteTimeout time.Duration
}

// Container is the session cart. Operations are serialized; accessors never block on an
// in-flight operation.
type Container struct {
	remote        Remote
	store         Store
	checkout      CheckoutInitiator
	logg          *logger.Logger
	metrics       *metrics.CartSyncMetrics
	ids           IDGenerator
	now           func() time.Time
	remoteTimeout time.Duration

	opMu sync.Mutex
	busy atomic.Bool

	mu          sync.RWMutex
	machine     *Machine
	userID      string
	items       []Item
	lastErr     string
	initialized bool
}

// NewContainer builds a container. Remote and Store are required.
func NewContainer(p Params) (*Container, error) {
	if p.Remote == nil {
		return nil, fmt.Errorf("remote cart service required")
	}
	if p.Store == nil {
		return nil, fmt.Errorf("local cache store required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.IDs == nil {
		p.IDs = randomIDs{}
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}
	if p.RemoteTimeout <= 0 {
		p.RemoteTimeout = DefaultRemoteTimeout
	}
	return &Container{
		remote:        p.Remote,
		store:         p.Store,
		checkout:      p.Checkout,
		logg:          p.Logger,
		metrics:       p.Metrics,
		ids:           p.IDs,
		now:           p.Clock,
		remoteTimeout: p.RemoteTimeout,
		machine:       NewMachine(p.Clock),
		items:         []Item{},
	}, nil
}

// Initialize starts a session: it resolves the persisted user identity and loads the cart,
// remote first, then the local cache. Calling it again starts a fresh session.
func (c *Container) Initialize(ctx context.Context) error {
	c.begin()
	defer c.end()

	userID, err := c.resolveUserID(ctx)
	if err != nil {
		c.setErr(msgLoadFailed)
		return err
	}
	ctx = c.logg.WithUserID(ctx, userID)

	machine := NewMachine(c.now)
	var (
		items   []Item
		rewrite bool
	)

	cart, err := c.callRemote(ctx, opInitialize, func(rctx context.Context) (*RemoteCart, error) {
		fetched, err := c.remote.Fetch(rctx, userID)
		return &fetched, err
	})
	if err == nil {
		_ = machine.Activate()
		items = itemsFromRemote(*cart)
	} else {
		machine.Degrade(fmt.Sprintf("%s: %v", opInitialize, err))
		c.logg.WarnErr(ctx, "cart.remote_failed", err)
		c.metrics.IncRemoteFailure(opInitialize)
		items, rewrite = c.loadCachedItems(ctx)
	}

	c.mu.Lock()
	c.userID = userID
	c.machine = machine
	c.items = items
	c.initialized = true
	if err != nil {
		c.lastErr = msgLoadFailed
	}
	c.mu.Unlock()

	c.metrics.SetRemoteAvailable(machine.Mode() == ModeRemoteAvailable)
	c.logg.Info(c.logg.WithSyncMode(ctx, machine.Mode().String()), "cart.initialized")

	if err == nil || rewrite {
		return c.persist(ctx, items)
	}
	return nil
}

// AddItem adds quantity units of ref. Quantities below one default to one.
func (c *Container) AddItem(ctx context.Context, ref ProductRef, quantity int) error {
	c.begin()
	defer c.end()
	if err := c.ensureInitialized(); err != nil {
		return err
	}
	if ref.ID <= 0 {
		c.setErr("product reference must be positive")
		return pkgerrors.New(pkgerrors.CodeValidation, "product reference must be positive")
	}
	if quantity < 1 {
		quantity = 1
	}

	userID := c.UserID()
	return c.apply(ctx, operation{
		name:    opAddItem,
		failure: msgAddFailed,
		remote: func(rctx context.Context) (*RemoteCart, error) {
			cart, err := c.remote.AddItem(rctx, userID, ref.ID, quantity)
			return &cart, err
		},
		local: func(items []Item) []Item {
			return addLocal(items, ref, quantity, c.ids.LocalItemID)
		},
	})
}

func (c *Container) RemoveItem(ctx context.Context, itemID string) error {
	c.begin()
	defer c.end()
	if err := c.ensureInitialized(); err != nil {
		return err
	}
	return c.removeItem(ctx, itemID)
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or less removes it.
func (c *Container) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	c.begin()
	defer c.end()
	if err := c.ensureInitialized(); err != nil {
		return err
	}
	if quantity <= 0 {
		return c.removeItem(ctx, itemID)
	}
	if strings.TrimSpace(itemID) == "" {
		c.setErr("item id is required")
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	userID := c.UserID()
	return c.apply(ctx, operation{
		name:    opUpdateItem,
		failure: msgUpdateFailed,
		remote: func(rctx context.Context) (*RemoteCart, error) {
			cart, err := c.remote.UpdateItem(rctx, userID, itemID, quantity)
			return &cart, err
		},
		local: func(items []Item) []Item {
			return updateLocal(items, itemID, quantity)
		},
	})
}

// Clear empties the cart. A failed remote clear still clears local state.
func (c *Container) Clear(ctx context.Context) error {
	c.begin()
	defer c.end()
	if err := c.ensureInitialized(); err != nil {
		return err
	}
	return c.clear(ctx)
}

func (c *Container) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{Items: cloneItems(c.items)}
}

func (c *Container) Mode() SyncMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.machine.Mode()
}

// DegradedReason returns why the session left the remote store, if it did.
func (c *Container) DegradedReason() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.machine.Reason()
}

func (c *Container) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Err returns the transient error of the last operation, or "".
func (c *Container) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Busy reports whether an operation is in flight.
func (c *Container) Busy() bool {
	return c.busy.Load()
}

func (c *Container) removeItem(ctx context.Context, itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		c.setErr("item id is required")
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	userID := c.UserID()
	return c.apply(ctx, operation{
		name:    opRemoveItem,
		failure: msgRemoveFailed,
		remote: func(rctx context.Context) (*RemoteCart, error) {
			cart, err := c.remote.RemoveItem(rctx, userID, itemID)
			return &cart, err
		},
		local: func(items []Item) []Item {
			return removeLocal(items, itemID)
		},
	})
}

func (c *Container) clear(ctx context.Context) error {
	userID := c.UserID()
	return c.apply(ctx, operation{
		name:    opClear,
		failure: msgClearFailed,
		remote: func(rctx context.Context) (*RemoteCart, error) {
			return nil, c.remote.Clear(rctx, userID)
		},
		local: func([]Item) []Item {
			return []Item{}
		},
	})
}

// operation is one cart mutation expressed against both stores. A nil cart from a successful
// remote call means the local mutation describes the result.
type operation struct {
	name    string
	failure string
	remote  func(ctx context.Context) (*RemoteCart, error)
	local   func(items []Item) []Item
}

func (c *Container) apply(ctx context.Context, op operation) error {
	ctx = c.logg.WithOperation(c.logg.WithUserID(ctx, c.UserID()), op.name)

	c.mu.RLock()
	mode := c.machine.Mode()
	current := cloneItems(c.items)
	c.mu.RUnlock()

	if mode == ModeRemoteAvailable {
		cart, err := c.callRemote(ctx, op.name, op.remote)
		if err == nil {
			next := itemsFromCart(cart, current, op.local)
			return c.commit(ctx, next)
		}
		c.degrade(ctx, op.name, err)
		c.setErr(op.failure)
	}

	c.metrics.IncLocalFallback(op.name)
	return c.commit(ctx, op.local(current))
}

func itemsFromCart(cart *RemoteCart, current []Item, local func([]Item) []Item) []Item {
	if cart == nil {
		return local(current)
	}
	return itemsFromRemote(*cart)
}

func (c *Container) callRemote(ctx context.Context, op string, fn func(context.Context) (*RemoteCart, error)) (*RemoteCart, error) {
	rctx, cancel := context.WithTimeout(ctx, c.remoteTimeout)
	defer cancel()

	started := c.now()
	cart, err := fn(rctx)
	c.metrics.ObserveRemoteDuration(op, c.now().Sub(started))
	return cart, err
}

func (c *Container) degrade(ctx context.Context, op string, err error) {
	c.mu.Lock()
	changed := c.machine.Degrade(fmt.Sprintf("%s: %v", op, err))
	c.mu.Unlock()

	c.metrics.IncRemoteFailure(op)
	c.logg.WarnErr(c.logg.WithSyncMode(ctx, ModeRemoteUnavailable.String()), "cart.remote_failed", err)
	if changed {
		c.metrics.SetRemoteAvailable(false)
		c.logg.Info(ctx, "cart.sync_degraded")
	}
}

// commit installs items as the snapshot and writes it through to the local cache.
func (c *Container) commit(ctx context.Context, items []Item) error {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return c.persist(ctx, items)
}

func (c *Container) persist(ctx context.Context, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		c.setErr(msgPersistFailed)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart snapshot")
	}
	if err := c.store.Set(ctx, CartKey, string(raw)); err != nil {
		c.setErr(msgPersistFailed)
		c.logg.Error(ctx, "cart.persist_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart snapshot")
	}
	return nil
}

func (c *Container) resolveUserID(ctx context.Context) (string, error) {
	existing, found, err := c.store.Get(ctx, UserIDKey)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read user identity")
	}
	if found && strings.TrimSpace(existing) != "" {
		return existing, nil
	}
	userID := c.ids.UserID(c.now())
	if err := c.store.Set(ctx, UserIDKey, userID); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist user identity")
	}
	return userID, nil
}

// loadCachedItems reads the cached snapshot. Missing, unreadable or corrupt blobs yield an
// empty cart. rewrite reports that the blob was corrupt or held invalid lines, so the cache
// no longer matches the returned items.
func (c *Container) loadCachedItems(ctx context.Context) ([]Item, bool) {
	raw, found, err := c.store.Get(ctx, CartKey)
	if err != nil {
		c.logg.WarnErr(ctx, "cart.cache_read_failed", err)
		return []Item{}, false
	}
	if !found || strings.TrimSpace(raw) == "" {
		return []Item{}, false
	}
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.logg.WarnErr(ctx, "cart.cache_corrupt", err)
		return []Item{}, true
	}
	valid := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.Quantity < 1 {
			continue
		}
		valid = append(valid, item)
	}
	return valid, len(valid) != len(items)
}

func (c *Container) begin() {
	c.opMu.Lock()
	c.busy.Store(true)
	c.setErr("")
}

func (c *Container) end() {
	c.busy.Store(false)
	c.opMu.Unlock()
}

func (c *Container) setErr(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

func (c *Container) ensureInitialized() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.initialized {
		return ErrNotInitialized
	}
	return nil
}

func addLocal(items []Item, ref ProductRef, quantity int, newID func() string) []Item {
	next := cloneItems(items)
	for i := range next {
		if next[i].ProductID != nil && *next[i].ProductID == ref.ID {
			next[i].Quantity += quantity
			return next
		}
	}
	productID := ref.ID
	return append(next, Item{
		ID:        newID(),
		Name:      ref.Name,
		Price:     ref.Price,
		Quantity:  quantity,
		Image:     ref.Image,
		ProductID: &productID,
	})
}

func removeLocal(items []Item, itemID string) []Item {
	next := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID == itemID {
			continue
		}
		next = append(next, item)
	}
	return next
}

func updateLocal(items []Item, itemID string, quantity int) []Item {
	next := cloneItems(items)
	for i := range next {
		if next[i].ID == itemID {
			next[i].Quantity = quantity
		}
	}
	return next
}
