package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/homura-labs/storefront/internal/storage"
	pkgerrors "github.com/homura-labs/storefront/pkg/errors"
	"github.com/homura-labs/storefront/pkg/logger"
	"github.com/homura-labs/storefront/pkg/metrics"
	"github.com/homura-labs/storefront/pkg/shopify"
)

const (
	// CartIDKey holds the remote cart id in the session store.
	CartIDKey = "cartId"
	// BackupKey holds the JSON backup written after each successful load.
	BackupKey = "cartBackup"
)

const (
	fallbackNotConfigured = "not_configured"
	fallbackCreate        = "create_failed"
	fallbackAdd           = "add_failed"
	fallbackMerge         = "merge_failed"
	fallbackRefresh       = "refresh_failed"
)

// Synchronizer owns the cart of one browser session and reconciles it with the
// remote cart. Remote failures never escape as errors from AddItem; they
// degrade to local-only items instead.
type Synchronizer struct {
	remote  Remote
	store   storage.Store
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	now     func() time.Time
	newID   func() string

	mu    sync.RWMutex
	state State
}

// NewSynchronizer builds an uninitialized synchronizer. A nil remote runs the
// cart in local-only mode.
func NewSynchronizer(store storage.Store, remote Remote, logg *logger.Logger, m *metrics.CartMetrics) (*Synchronizer, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Synchronizer{
		remote:  remote,
		store:   store,
		logg:    logg,
		metrics: m,
		now:     time.Now,
		newID:   func() string { return TempIDPrefix + uuid.NewString() },
		state:   State{Status: StatusUninitialized, Mode: ModeSynced},
	}, nil
}

// Snapshot returns a copy of the current state.
func (s *Synchronizer) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// TotalPrice sums price times quantity over the current items.
func (s *Synchronizer) TotalPrice() decimal.Decimal {
	return s.Snapshot().TotalPrice()
}

// TotalItems sums quantities over the current items.
func (s *Synchronizer) TotalItems() int {
	return s.Snapshot().TotalItems()
}

func (s *Synchronizer) configured() bool {
	return s.remote != nil && s.remote.Configured()
}

func (s *Synchronizer) cartID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CartID
}

func (s *Synchronizer) setStatus(status Status) {
	s.mu.Lock()
	s.state.Status = status
	s.mu.Unlock()
}

// settle ends a mutation: READY while there is anything to show, EMPTY_LOCAL otherwise.
func (s *Synchronizer) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.CartID != "" || len(s.state.Items) > 0 {
		s.state.Status = StatusReady
	} else {
		s.state.Status = StatusEmptyLocal
	}
}

func (s *Synchronizer) logCtx(ctx context.Context) context.Context {
	if id := s.cartID(); id != "" {
		return s.logg.WithCartID(ctx, id)
	}
	return ctx
}

// Initialize loads the persisted cart id and, when present, the remote cart.
// Any failure clears the persisted id and leaves an empty local cart.
func (s *Synchronizer) Initialize(ctx context.Context) {
	s.setStatus(StatusLoading)

	cartID, err := s.store.Get(ctx, CartIDKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logg.Error(ctx, "cart.init.storage_read_failed", err)
	}
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		s.reset("")
		return
	}

	ctx = s.logg.WithCartID(ctx, cartID)
	if !s.configured() {
		s.logg.Warn(ctx, "cart.init.remote_not_configured")
		s.forget(ctx)
		s.reset("remote cart unavailable")
		return
	}

	cart, err := s.remote.GetCart(ctx, cartID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			s.logg.Warn(ctx, "cart.init.remote_not_found")
		} else {
			s.logg.Error(ctx, "cart.init.fetch_failed", err)
		}
		s.forget(ctx)
		s.reset(err.Error())
		return
	}
	s.adopt(ctx, cart)
}

// AddItem adds a variant to the cart, merging with an existing item of the same
// unique key. Only invalid input is returned as an error.
func (s *Synchronizer) AddItem(ctx context.Context, in NewItem) error {
	in.VariantID = strings.TrimSpace(in.VariantID)
	if in.VariantID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	if in.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if in.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	if !s.configured() {
		s.logg.Warn(ctx, "cart.add.remote_not_configured")
		s.appendLocal(in, fallbackNotConfigured, nil)
		return nil
	}

	s.setStatus(StatusMutating)
	defer s.settle()
	ctx = s.logCtx(ctx)

	cartID := s.cartID()
	if cartID == "" {
		cart, err := s.remote.CreateCart(ctx, []shopify.LineInput{lineInput(in)})
		if err != nil {
			s.logg.Error(ctx, "cart.add.create_failed", err)
			s.appendLocal(in, fallbackCreate, err)
			return nil
		}
		s.persistCartID(ctx, cart.ID, cart.CheckoutURL)
		s.refresh(s.logg.WithCartID(ctx, cart.ID), cart.ID, cart)
		return nil
	}

	key := UniqueKey(in.VariantID, in.Size)
	s.mu.RLock()
	existing, found := s.state.findByKey(key)
	s.mu.RUnlock()

	if found {
		if existing.Temporary() {
			s.mergeLocal(existing.ID, existing.Quantity+in.Quantity)
			return nil
		}
		if err := s.updateRemote(ctx, cartID, existing.ID, existing.Quantity+in.Quantity); err != nil {
			s.logg.Error(ctx, "cart.add.merge_failed", err)
			s.appendLocal(in, fallbackMerge, err)
		}
		return nil
	}

	cart, err := s.remote.AddLines(ctx, cartID, []shopify.LineInput{lineInput(in)})
	if err != nil {
		s.logg.Error(ctx, "cart.add.add_lines_failed", err)
		s.appendLocal(in, fallbackAdd, err)
		return nil
	}
	if cart.ID != "" && cart.ID != cartID {
		s.logg.Info(ctx, "cart.add.cart_id_changed")
		s.persistCartID(ctx, cart.ID, cart.CheckoutURL)
		cartID = cart.ID
	}
	s.refresh(ctx, cartID, cart)
	return nil
}

// RemoveItem deletes a line. Without a cart this is a no-op; local-only items
// are dropped locally. A remote failure leaves the state unchanged and is
// returned as a non-fatal dependency error.
func (s *Synchronizer) RemoveItem(ctx context.Context, lineID string) error {
	if strings.HasPrefix(lineID, TempIDPrefix) {
		s.removeLocal(lineID)
		return nil
	}
	cartID := s.cartID()
	if cartID == "" || !s.configured() {
		return nil
	}

	s.setStatus(StatusMutating)
	defer s.settle()
	ctx = s.logCtx(ctx)

	cart, err := s.remote.RemoveLines(ctx, cartID, []string{lineID})
	if err != nil {
		s.logg.Error(ctx, "cart.remove.failed", err)
		s.recordError(err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	s.refresh(ctx, cartID, cart)
	return nil
}

// UpdateQuantity sets the quantity of a line. Quantities are sent as given;
// callers route quantity <= 0 to RemoveItem.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if strings.HasPrefix(lineID, TempIDPrefix) {
		s.mergeLocal(lineID, quantity)
		return nil
	}
	cartID := s.cartID()
	if cartID == "" || !s.configured() {
		return nil
	}

	s.setStatus(StatusMutating)
	defer s.settle()
	ctx = s.logCtx(ctx)

	if err := s.updateRemote(ctx, cartID, lineID, quantity); err != nil {
		s.logg.Error(ctx, "cart.update.failed", err)
		return err
	}
	return nil
}

func (s *Synchronizer) updateRemote(ctx context.Context, cartID, lineID string, quantity int) error {
	cart, err := s.remote.UpdateLines(ctx, cartID, []shopify.LineUpdate{{ID: lineID, Quantity: quantity}})
	if err != nil {
		s.recordError(err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	s.refresh(ctx, cartID, cart)
	return nil
}

// Clear forgets the cart locally. The remote cart is abandoned, not deleted.
func (s *Synchronizer) Clear(ctx context.Context) {
	s.forget(ctx)
	if err := s.store.Delete(ctx, BackupKey); err != nil {
		s.logg.Error(ctx, "cart.clear.backup_delete_failed", err)
	}
	s.reset("")
}

// refresh replaces the state with the remote cart. A missing cart destroys the
// local cart. On any other failure the cart returned by the mutation is shown
// instead, or the prior items when there is none, and the state is marked stale.
func (s *Synchronizer) refresh(ctx context.Context, cartID string, mutated *shopify.Cart) {
	cart, err := s.remote.GetCart(ctx, cartID)
	if err == nil {
		s.adopt(ctx, cart)
		return
	}
	if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		s.logg.Warn(ctx, "cart.refresh.remote_not_found")
		s.forget(ctx)
		s.reset(err.Error())
		return
	}
	s.metrics.IncRefreshFailure()
	s.logg.Error(ctx, "cart.refresh.failed", err)

	if mutated != nil && mutated.ID != "" {
		s.metrics.IncFallback(fallbackRefresh)
		s.adoptAs(ctx, mutated, ModeStale)
	} else {
		s.markStale()
	}
	s.recordError(err)
}

func (s *Synchronizer) adopt(ctx context.Context, cart *shopify.Cart) {
	s.adoptAs(ctx, cart, ModeSynced)
}

func (s *Synchronizer) adoptAs(ctx context.Context, cart *shopify.Cart, mode Mode) {
	items := itemsFromCart(cart)
	s.mu.Lock()
	s.state = State{
		Status:      StatusReady,
		Mode:        mode,
		CartID:      cart.ID,
		CheckoutURL: cart.CheckoutURL,
		Items:       items,
	}
	s.mu.Unlock()
	s.writeBackup(ctx, items, cart.CheckoutURL)
}

func (s *Synchronizer) reset(lastErr string) {
	s.mu.Lock()
	s.state = State{Status: StatusEmptyLocal, Mode: ModeSynced, LastError: lastErr}
	s.mu.Unlock()
}

// markStale flags synced items as possibly outdated; local-only state already
// tells callers not to trust it.
func (s *Synchronizer) markStale() {
	s.mu.Lock()
	if s.state.Mode == ModeSynced {
		s.state.Mode = ModeStale
	}
	s.mu.Unlock()
}

func (s *Synchronizer) recordError(err error) {
	s.mu.Lock()
	s.state.LastError = err.Error()
	s.mu.Unlock()
}

func (s *Synchronizer) appendLocal(in NewItem, reason string, cause error) {
	s.metrics.IncFallback(reason)
	item := in.toItem(s.newID())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Items = append(s.state.Items, item)
	s.state.Mode = ModeLocalOnly
	if s.state.Status != StatusMutating {
		s.state.Status = StatusReady
	}
	if cause != nil {
		s.state.LastError = cause.Error()
	}
}

func (s *Synchronizer) mergeLocal(id string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := append([]Item(nil), s.state.Items...)
	for i := range items {
		if items[i].ID == id {
			items[i].Quantity = quantity
		}
	}
	s.state.Items = items
}

func (s *Synchronizer) removeLocal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]Item, 0, len(s.state.Items))
	for _, item := range s.state.Items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	s.state.Items = items
	if len(items) == 0 && s.state.CartID == "" {
		s.state.Status = StatusEmptyLocal
		s.state.Mode = ModeSynced
	}
}

func (s *Synchronizer) persistCartID(ctx context.Context, cartID, checkoutURL string) {
	s.mu.Lock()
	s.state.CartID = cartID
	s.state.CheckoutURL = checkoutURL
	s.mu.Unlock()
	if err := s.store.Set(ctx, CartIDKey, cartID); err != nil {
		s.logg.Error(ctx, "cart.persist_id_failed", err)
	}
}

func (s *Synchronizer) forget(ctx context.Context) {
	if err := s.store.Delete(ctx, CartIDKey); err != nil {
		s.logg.Error(ctx, "cart.forget_id_failed", err)
	}
}

func (s *Synchronizer) writeBackup(ctx context.Context, items []Item, checkoutURL string) {
	payload, err := json.Marshal(backup{Items: items, CheckoutURL: checkoutURL, Timestamp: s.now().UTC()})
	if err != nil {
		s.logg.Error(ctx, "cart.backup_marshal_failed", err)
		return
	}
	if err := s.store.Set(ctx, BackupKey, string(payload)); err != nil {
		s.logg.Warn(ctx, "cart.backup_write_failed")
	}
}
