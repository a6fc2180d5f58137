// Package store is the record store adapter the catalog persists to.
package store

import (
	"context"

	"github.com/Queneri/catalogotefi/internal/model"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no record matched the id within the brand
var ErrNotFound = errors.New("record not found")

// RecordStore is the remote collection of products, partitioned by brand.
// Every method touches at most one row except Select.
type RecordStore interface {
	// Select returns every product of brand ordered by display order
	// (rows without one first, newest first), then creation time descending.
	Select(ctx context.Context, brand string) ([]model.Product, error)
	// Insert stores p and returns it with its assigned id and display order.
	Insert(ctx context.Context, p model.Product) (model.Product, error)
	// UpdateByID applies patch to the row id of brand.
	UpdateByID(ctx context.Context, brand string, id uint, patch model.ProductPatch) error
	// DeleteByID removes the row id of brand.
	DeleteByID(ctx context.Context, brand string, id uint) error
}
