package catalog

import (
	"github.com/pkg/errors"
)

var (
	// ErrProductNotFound is returned when the id is not part of the loaded catalog
	ErrProductNotFound = errors.New("product not found")
	// ErrRowBusy is returned when a row already has a save in flight
	ErrRowBusy = errors.New("product is being saved")
	// ErrReorderInProgress is returned when a reorder is already being persisted
	ErrReorderInProgress = errors.New("a reorder is already in progress")
	// ErrNoMatchingProducts is returned by a bulk change whose filter selects nothing
	ErrNoMatchingProducts = errors.New("no products in this category")
	// ErrSuperseded is returned when the catalog was reloaded or switched brand
	// while the operation was in flight; its result was not applied in memory
	ErrSuperseded = errors.New("catalog changed while the operation was in flight")
	// ErrIllegalTransition is returned for a row state change the lifecycle does not allow
	ErrIllegalTransition = errors.New("illegal row state transition")
	// ErrUnknownBrand is returned for a brand slug that is not configured
	ErrUnknownBrand = errors.New("unknown brand")
	// ErrDepositNotSupported is returned when setting a deposit on a brand without deposits
	ErrDepositNotSupported = errors.New("brand does not take deposits")
)
