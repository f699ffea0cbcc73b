package storage

import (
	"context"

	"ebay-normalizer/models"
)

// KeySet is a grow-only membership set.
type KeySet interface {
	// TestAndSet records key and reports whether this was its first sight.
	TestAndSet(ctx context.Context, key string) (bool, error)
}

// KeyStore hands out independent KeySets by kind, all scoped to one run.
type KeyStore interface {
	Set(kind string) KeySet
	Close() error
}

// BatchWriter persists the lines derived from one document.
type BatchWriter interface {
	Reset() error
	Append(batch *models.Batch) error
}
