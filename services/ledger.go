package services

import (
	"context"
	"strconv"

	"ebay-normalizer/storage"
)

// Ledger kinds, one KeySet each.
const (
	kindUser         = "user"
	kindCategory     = "category"
	kindItemCategory = "item_category"
)

// Ledger remembers which users, category labels and item/category pairs
// have already been emitted during one run. Membership only grows.
type Ledger struct {
	store      storage.KeyStore
	users      storage.KeySet
	categories storage.KeySet
	pairs      storage.KeySet
}

// NewLedger builds a Ledger on top of store. The store must be fresh for
// the run.
func NewLedger(store storage.KeyStore) *Ledger {
	return &Ledger{
		store:      store,
		users:      store.Set(kindUser),
		categories: store.Set(kindCategory),
		pairs:      store.Set(kindItemCategory),
	}
}

// NewMemoryLedger returns a Ledger kept in process memory.
func NewMemoryLedger() *Ledger {
	return NewLedger(storage.NewMemoryStore())
}

// FirstUser reports whether userID is seen for the first time.
func (l *Ledger) FirstUser(ctx context.Context, userID string) (bool, error) {
	return l.users.TestAndSet(ctx, userID)
}

// FirstCategory reports whether label is seen for the first time.
func (l *Ledger) FirstCategory(ctx context.Context, label string) (bool, error) {
	return l.categories.TestAndSet(ctx, label)
}

// FirstItemCategory reports whether the (itemID, label) pair is seen for
// the first time.
func (l *Ledger) FirstItemCategory(ctx context.Context, itemID, label string) (bool, error) {
	return l.pairs.TestAndSet(ctx, pairKey(itemID, label))
}

// pairKey length-prefixes the item id so no two pairs share a key.
func pairKey(itemID, label string) string {
	return strconv.Itoa(len(itemID)) + ":" + itemID + "|" + label
}

// Close drops the run's keys where the backend keeps them and releases it.
func (l *Ledger) Close(ctx context.Context) error {
	if c, ok := l.store.(interface{ Clear(context.Context) error }); ok {
		if err := c.Clear(ctx); err != nil {
			_ = l.store.Close()
			return err
		}
	}
	return l.store.Close()
}
