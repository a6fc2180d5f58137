package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/Queneri/catalogotefi/internal/model"
	"github.com/Queneri/catalogotefi/prometheus"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Direction of a bulk price change
type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
)

var (
	hundred  = decimal.NewFromInt(100)
	halfUnit = decimal.NewFromFloat(0.5)
)

// BulkPriceChange reprices every product matching Category by Percentage
type BulkPriceChange struct {
	Percentage decimal.Decimal
	Direction  Direction
	Category   string
}

// RowUpdate is one planned single-row write
type RowUpdate struct {
	ID    uint
	Patch model.ProductPatch
}

// ParsePercentage accepts "10", "10.5" or "10,5"
func ParsePercentage(s string) (decimal.Decimal, error) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	if s == "" {
		return decimal.Zero, model.NewValidationError("percentage", "percentage is required")
	}
	pct, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, model.NewValidationError("percentage", fmt.Sprintf("invalid percentage %q", s))
	}
	if !pct.IsPositive() {
		return decimal.Zero, model.NewValidationError("percentage", "percentage must be greater than zero")
	}
	return pct, nil
}

// Validate checks direction, percentage and category filter
func (b BulkPriceChange) Validate() error {
	if b.Direction != Increase && b.Direction != Decrease {
		return model.NewValidationError("direction", "direction must be increase or decrease")
	}
	if !b.Percentage.IsPositive() {
		return model.NewValidationError("percentage", "percentage must be greater than zero")
	}
	return validateFilter(b.Category)
}

// Multiplier returns 1 + pct/100 for increases and 1 - pct/100 for decreases
func (b BulkPriceChange) Multiplier() decimal.Decimal {
	delta := b.Percentage.Div(hundred)
	if b.Direction == Decrease {
		return decimal.NewFromInt(1).Sub(delta)
	}
	return decimal.NewFromInt(1).Add(delta)
}

// PlanBulkPrice computes the new price of every matching product, rounded to
// whole units. With deposit set the deposit is recomputed from the new price.
func PlanBulkPrice(list []model.Product, change BulkPriceChange, deposit bool) ([]RowUpdate, error) {
	if err := change.Validate(); err != nil {
		return nil, err
	}
	mult := change.Multiplier()

	var plan []RowUpdate
	for _, p := range list {
		if !p.Category.MatchesFilter(change.Category) {
			continue
		}
		price := p.Price.Mul(mult).Round(0)
		if err := model.ValidatePrice(price); err != nil {
			return nil, model.NewValidationError("percentage",
				fmt.Sprintf("%q would be priced at %s", p.Name, price.String()))
		}
		patch := model.ProductPatch{Price: &price}
		if deposit {
			d := price.Mul(halfUnit).Round(0)
			patch.Deposit = &d
		}
		plan = append(plan, RowUpdate{ID: p.ID, Patch: patch})
	}
	if len(plan) == 0 {
		return nil, ErrNoMatchingProducts
	}
	return plan, nil
}

// ApplyBulkPrice persists a bulk change with one write per product, concurrently.
// Memory is updated only when every write succeeded; writes that succeeded before
// a failure stay persisted until the next reload. Returns the number of products repriced.
func (c *Controller) ApplyBulkPrice(ctx context.Context, change BulkPriceChange) (int, error) {
	c.mu.Lock()
	brand := c.brand
	gen := c.generation
	plan, err := PlanBulkPrice(c.products, change, brand.Deposit)
	if err == nil {
		err = c.reserve(plan)
	}
	c.mu.Unlock()

	if err != nil {
		if err == ErrNoMatchingProducts {
			c.notifier.Notify(Notice{Kind: NoticeInfo, Brand: brand.Slug, Op: "bulk_price", Message: err.Error()})
		} else {
			c.fail(brand, "bulk_price", 0, "bulk price change rejected", err)
		}
		return 0, err
	}

	var g errgroup.Group
	if c.bulkLimit > 0 {
		g.SetLimit(c.bulkLimit)
	}
	for _, u := range plan {
		g.Go(func() error {
			return c.store.UpdateByID(ctx, brand.Slug, u.ID, u.Patch)
		})
	}
	err = g.Wait()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return 0, ErrSuperseded
	}
	for _, u := range plan {
		c.settle(u.ID)
	}
	if err == nil {
		next := make([]model.Product, len(c.products))
		copy(next, c.products)
		for _, u := range plan {
			if i := indexOf(next, u.ID); i >= 0 {
				next[i] = u.Patch.Apply(next[i])
			}
		}
		c.replace(next)
	}
	c.mu.Unlock()

	if err != nil {
		c.fail(brand, "bulk_price", 0, "bulk price change failed, reload to see stored prices", err)
		return 0, err
	}
	prometheus.RecordBulkPrice(brand.Slug, string(change.Direction), len(plan))
	c.succeed(brand, "bulk_price", 0, fmt.Sprintf("%d prices updated", len(plan)))
	return len(plan), nil
}

// reserve moves every planned row into Saving, or none if one is busy. Callers hold c.mu.
func (c *Controller) reserve(plan []RowUpdate) error {
	for _, u := range plan {
		if c.rows[u.ID] == Saving {
			return ErrRowBusy
		}
	}
	for _, u := range plan {
		next, _ := c.rows[u.ID].Next(EventSave)
		c.setRow(u.ID, next)
	}
	return nil
}
