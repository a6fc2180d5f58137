package catalog

import (
	"context"

	"github.com/Queneri/catalogotefi/internal/model"
)

// Move returns a new list with the item at from reinserted at to.
// Items in between shift by one; list is not modified.
func Move(list []model.Product, from, to int) []model.Product {
	out := make([]model.Product, 0, len(list))
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) || from == to {
		return append(out, list...)
	}
	moved := list[from]
	for i, p := range list {
		if i != from {
			out = append(out, p)
		}
	}
	out = append(out, model.Product{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}

// Reindex returns a copy of list with display_order set to each position,
// together with the writes needed for the entries whose order changed.
func Reindex(list []model.Product) ([]model.Product, []RowUpdate) {
	out := make([]model.Product, len(list))
	var changed []RowUpdate
	for i, p := range list {
		if p.DisplayOrder != nil && *p.DisplayOrder == i {
			out[i] = p
			continue
		}
		order := i
		patch := model.ProductPatch{DisplayOrder: &order}
		out[i] = patch.Apply(p)
		changed = append(changed, RowUpdate{ID: p.ID, Patch: patch})
	}
	return out, changed
}

// Reorder moves movedID to the position of targetID. The new order is applied
// in memory first and written one row at a time; on failure the list is
// reloaded from the store.
func (c *Controller) Reorder(ctx context.Context, movedID, targetID uint) error {
	c.mu.Lock()
	brand := c.brand
	from, to := indexOf(c.products, movedID), indexOf(c.products, targetID)
	if from < 0 || to < 0 {
		c.mu.Unlock()
		c.fail(brand, "reorder", movedID, "cannot reorder", ErrProductNotFound)
		return ErrProductNotFound
	}
	if from == to {
		c.mu.Unlock()
		return nil
	}
	if c.reordering {
		c.mu.Unlock()
		return ErrReorderInProgress
	}
	gen := c.generation
	next, writes := Reindex(Move(c.products, from, to))
	c.replace(next)
	c.reordering = true
	c.mu.Unlock()

	var err error
	for _, w := range writes {
		if err = c.store.UpdateByID(ctx, brand.Slug, w.ID, w.Patch); err != nil {
			break
		}
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.reordering = false
	c.mu.Unlock()

	if err != nil {
		c.fail(brand, "reorder", movedID, "failed to save order, reloading", err)
		if rerr := c.Reload(ctx); rerr != nil && rerr != ErrSuperseded {
			c.fail(brand, "load", 0, "failed to reload after reorder", rerr)
		}
		return err
	}
	c.succeed(brand, "reorder", movedID, "order saved")
	return nil
}
