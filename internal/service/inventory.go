package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/inventory"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/store"
	"fieldforce-backend/internal/visit"
)

// stockRetries bounds the read-modify-write loop on a contended stock
// document.
const stockRetries = 3

// Inventory manages item holdings and their movements.
type Inventory struct {
	env   Env
	users *Directory
}

func NewInventory(env Env, users *Directory) *Inventory {
	env.defaults()
	return &Inventory{env: env, users: users}
}

// SeedItems stores the default catalogue if it is empty. It returns the
// number of items written.
func (s *Inventory) SeedItems(ctx context.Context) (int, error) {
	existing, err := s.env.Store.Query(ctx, store.Items)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	n := 0
	for _, it := range inventory.DefaultItems() {
		_, err := store.PutJSON(ctx, s.env.Store, store.Items, it.ID, it, 0)
		if apperr.KindOf(err) == apperr.KindConflict {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Items lists the catalogue. An unseeded store falls back to the defaults.
func (s *Inventory) Items(ctx context.Context) ([]inventory.Item, error) {
	items, err := store.QueryJSON[inventory.Item](ctx, s.env.Store, store.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return inventory.DefaultItems(), nil
	}
	return items, nil
}

func (s *Inventory) item(ctx context.Context, id string) (inventory.Item, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return inventory.Item{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return inventory.Item{}, apperr.Newf(apperr.KindNotFound, "ITEM_NOT_FOUND", "Item %q does not exist", id)
}

// Stock lists what a user currently holds.
func (s *Inventory) Stock(ctx context.Context, actor roster.Actor, userID string) ([]inventory.Stock, error) {
	owner, err := s.users.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, owner) {
		return nil, forbidden("this stock")
	}
	return store.QueryJSON[inventory.Stock](ctx, s.env.Store, store.Stock, store.Eq("userId", userID))
}

// Issue hands qty units of an item to a user. Admins issue to anyone,
// managers to their direct reports.
func (s *Inventory) Issue(ctx context.Context, actor roster.Actor, toUserID, itemID string, qty int) (inventory.Stock, error) {
	if err := requireManager(actor); err != nil {
		return inventory.Stock{}, err
	}
	to, err := s.users.Profile(ctx, toUserID)
	if err != nil {
		return inventory.Stock{}, err
	}
	if !actor.IsAdmin() && !to.ReportsTo(actor.UserID) {
		return inventory.Stock{}, apperr.New(apperr.KindPermissionDenied, "NOT_DIRECT_REPORT", "Stock can only be issued to a direct report")
	}
	it, err := s.item(ctx, itemID)
	if err != nil {
		return inventory.Stock{}, err
	}

	saved, err := s.update(ctx, toUserID, itemID, func(st inventory.Stock) (inventory.Stock, int, error) {
		next, err := inventory.Issue(st, toUserID, it, qty)
		return next, qty, err
	})
	if err != nil {
		return inventory.Stock{}, err
	}
	if err := s.record(ctx, inventory.TxIssue, actor.UserID, toUserID, it.ID, it.Name, qty); err != nil {
		return inventory.Stock{}, err
	}
	return saved, nil
}

// Return sends qty units of the actor's own stock back to their manager.
// Unlike visit distribution it refuses to go below zero.
func (s *Inventory) Return(ctx context.Context, actor roster.Actor, itemID string, qty int) (inventory.Stock, error) {
	if qty <= 0 {
		return inventory.Stock{}, apperr.Newf(apperr.KindValidation, "INVALID_QUANTITY", "Quantity must be positive, got %d", qty)
	}
	me, err := s.users.Profile(ctx, actor.UserID)
	if err != nil {
		return inventory.Stock{}, err
	}
	var name string
	saved, err := s.update(ctx, actor.UserID, itemID, func(st inventory.Stock) (inventory.Stock, int, error) {
		if st.Quantity < qty {
			return inventory.Stock{}, 0, apperr.Newf(apperr.KindValidation, "INSUFFICIENT_STOCK", "Only %d units on hand", st.Quantity)
		}
		name = st.ItemName
		next, removed := inventory.Deduct(st, qty)
		return next, removed, nil
	})
	if err != nil {
		return inventory.Stock{}, err
	}
	if err := s.record(ctx, inventory.TxReturn, actor.UserID, me.ReportingManagerID, itemID, name, qty); err != nil {
		return inventory.Stock{}, err
	}
	return saved, nil
}

// DistributeOnVisit deducts the items handed out on a visit from the
// user's stock. Items the user holds no stock document for are skipped and
// shortfalls clamp at zero; the visit itself is already recorded.
func (s *Inventory) DistributeOnVisit(ctx context.Context, userID, customerID string, items []visit.Item) error {
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		removed := 0
		var name string
		_, err := s.update(ctx, userID, it.ItemID, func(st inventory.Stock) (inventory.Stock, int, error) {
			next, n := inventory.Deduct(st, it.Quantity)
			removed, name = n, st.ItemName
			return next, n, nil
		})
		if apperr.KindOf(err) == apperr.KindNotFound {
			continue
		}
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		if err := s.record(ctx, inventory.TxDistributeToDoctor, userID, customerID, it.ItemID, name, removed); err != nil {
			return err
		}
	}
	return nil
}

// Transactions lists stock movements newest first: all of them for admins,
// those the actor sent or received otherwise.
func (s *Inventory) Transactions(ctx context.Context, actor roster.Actor) ([]inventory.Transaction, error) {
	all, err := store.QueryJSON[inventory.Transaction](ctx, s.env.Store, store.StockTx)
	if err != nil {
		return nil, err
	}
	out := make([]inventory.Transaction, 0, len(all))
	for _, tx := range all {
		if actor.IsAdmin() || tx.Involves(actor.UserID) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// update runs a read-modify-write on one stock document, retrying on
// version conflicts. A missing document reaches fn as the zero Stock, and
// update reports NotFound unless fn initialized it.
func (s *Inventory) update(ctx context.Context, userID, itemID string, fn func(inventory.Stock) (inventory.Stock, int, error)) (inventory.Stock, error) {
	id := inventory.StockID(userID, itemID)
	var lastErr error
	for attempt := 0; attempt < stockRetries; attempt++ {
		st, version, err := store.GetJSON[inventory.Stock](ctx, s.env.Store, store.Stock, id)
		switch {
		case apperr.KindOf(err) == apperr.KindNotFound:
			st, version = inventory.Stock{}, 0
		case err != nil:
			return inventory.Stock{}, err
		}

		next, moved, err := fn(st)
		if err != nil {
			return inventory.Stock{}, err
		}
		if version == 0 && next.ID == "" {
			return inventory.Stock{}, store.NotFound(store.Stock, id)
		}
		if moved == 0 && version > 0 {
			st.Version = version
			return st, nil
		}
		newVersion, err := store.PutJSON(ctx, s.env.Store, store.Stock, id, next, version)
		if apperr.KindOf(err) == apperr.KindConflict {
			lastErr = err
			continue
		}
		if err != nil {
			return inventory.Stock{}, err
		}
		next.Version = newVersion
		return next, nil
	}
	s.env.Log.Warn("stock update gave up after conflicts", zap.String("stock", id))
	return inventory.Stock{}, lastErr
}

func (s *Inventory) record(ctx context.Context, typ inventory.TransactionType, from, to, itemID, itemName string, qty int) error {
	tx := inventory.Transaction{
		ID:         s.env.NewID(),
		Date:       s.env.Now(),
		FromUserID: from,
		ToUserID:   to,
		ItemID:     itemID,
		ItemName:   itemName,
		Quantity:   qty,
		Type:       typ,
	}
	if _, err := store.PutJSON(ctx, s.env.Store, store.StockTx, tx.ID, tx, 0); err != nil {
		return err
	}
	s.env.Metrics.AddStockMoved(string(typ), qty)
	s.env.Log.Info("stock moved",
		zap.String("type", string(typ)),
		zap.String("item", itemID),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("quantity", qty),
	)
	return nil
}
