// Package store persists accepted items and serves the duplicate baseline.
package store

import (
	"context"
	"errors"

	"github.com/ppiankov/wellspring/internal/model"
)

// ErrNotFound is returned when an item id does not exist
var ErrNotFound = errors.New("item not found")

// Filter narrows List results
type Filter struct {
	Category        model.Category // empty means all
	IncludeArchived bool
	Limit           int // 0 means no limit
}

// Store is the content store used by the generator and the admin commands
type Store interface {
	// FetchBaseline returns every stored item, archived ones included
	FetchBaseline(ctx context.Context) ([]model.BaselineItem, error)

	// InsertAccepted writes a batch atomically: all items or none
	InsertAccepted(ctx context.Context, items []model.AcceptedItem) error

	// List returns stored items, newest first
	List(ctx context.Context, f Filter) ([]model.AcceptedItem, error)

	// Archive hides an item from List without removing it from the baseline
	Archive(ctx context.Context, id string) error

	Close() error
}
