// Package catalog keeps the in-memory product list of a brand consistent with
// the record store while admins edit, reprice and reorder it.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/Queneri/catalogotefi/internal/model"
	"github.com/Queneri/catalogotefi/internal/store"
	"github.com/Queneri/catalogotefi/prometheus"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Brand identifies the catalog partition a controller serves
type Brand struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Deposit bool   `json:"deposit"`
}

// Option configures a Controller
type Option func(*Controller)

// WithNotifier sets where notices are sent
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithBulkConcurrency bounds the number of concurrent writes of a bulk change.
// Zero or less means one goroutine per product.
func WithBulkConcurrency(limit int) Option {
	return func(c *Controller) { c.bulkLimit = limit }
}

// Controller owns the ordered product list of one brand. Store calls never
// run under the mutex; the list is only ever replaced, never edited in place.
type Controller struct {
	store     store.RecordStore
	notifier  Notifier
	bulkLimit int

	mu         sync.Mutex
	brand      Brand
	loaded     bool
	generation uint64
	products   []model.Product
	rows       map[uint]RowState
	reordering bool
}

// NewController returns a controller for brand. Call Load before use.
func NewController(rs store.RecordStore, brand Brand, opts ...Option) *Controller {
	c := &Controller{
		store:    rs,
		notifier: nopNotifier{},
		brand:    brand,
		rows:     make(map[uint]RowState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Brand returns the brand currently served
func (c *Controller) Brand() Brand {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brand
}

// Loaded reports whether a load has completed for the current brand
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Products returns a snapshot of the list in display order
func (c *Controller) Products() []model.Product {
	c.mu.Lock()
	list := c.products
	c.mu.Unlock()
	return cloneList(list)
}

// Filter returns the products matching category ("all" or a category label)
func (c *Controller) Filter(category string) ([]model.Product, error) {
	if err := validateFilter(category); err != nil {
		return nil, err
	}
	var out []model.Product
	for _, p := range c.Products() {
		if p.Category.MatchesFilter(category) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Load switches the controller to brand and replaces the list with the store's.
// Operations still in flight from before the call are discarded when they settle.
func (c *Controller) Load(ctx context.Context, brand Brand) error {
	c.mu.Lock()
	if brand.Slug != c.brand.Slug {
		c.products = nil
		c.loaded = false
	}
	c.brand = brand
	c.mu.Unlock()
	return c.Reload(ctx)
}

// Reload refetches the authoritative list of the current brand
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	brand := c.brand
	c.rows = make(map[uint]RowState)
	c.reordering = false
	c.mu.Unlock()

	rows, err := c.store.Select(ctx, brand.Slug)
	if err != nil {
		c.fail(brand, "load", 0, "failed to load products", err)
		return errors.Wrapf(err, "load %s", brand.Slug)
	}
	for i := range rows {
		if cat, ok := model.NormalizeCategory(string(rows[i].Category)); ok {
			rows[i].Category = cat
		}
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.replace(rows)
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// RowState returns the edit state of product id
func (c *Controller) RowState(id uint) (RowState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if indexOf(c.products, id) < 0 {
		return Viewing, ErrProductNotFound
	}
	return c.rows[id], nil
}

// RowStates returns the rows that are not Viewing
func (c *Controller) RowStates() map[uint]RowState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[uint]RowState, len(c.rows))
	for id, s := range c.rows {
		out[id] = s
	}
	return out
}

// BeginEdit moves a row into Editing
func (c *Controller) BeginEdit(id uint) error {
	return c.transition(id, EventEdit)
}

// CancelEdit returns an Editing row to Viewing
func (c *Controller) CancelEdit(id uint) error {
	return c.transition(id, EventCancel)
}

func (c *Controller) transition(id uint, ev RowEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if indexOf(c.products, id) < 0 {
		return ErrProductNotFound
	}
	next, err := c.rows[id].Next(ev)
	if err != nil {
		if c.rows[id] == Saving {
			return ErrRowBusy
		}
		return err
	}
	c.setRow(id, next)
	return nil
}

// AddProduct validates and inserts a new product, placing it first in the list
func (c *Controller) AddProduct(ctx context.Context, in model.NewProduct) (model.Product, error) {
	brand := c.Brand()
	p, err := in.Normalize(brand.Slug)
	if err != nil {
		c.fail(brand, "add", 0, "invalid product", err)
		return model.Product{}, err
	}
	switch {
	case !brand.Deposit:
		p.Deposit = nil
	case p.Deposit == nil:
		d := model.DefaultDeposit(p.Price)
		p.Deposit = &d
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	created, err := c.store.Insert(ctx, p)
	if err != nil {
		c.fail(brand, "add", 0, "failed to add product", err)
		return model.Product{}, err
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return created, ErrSuperseded
	}
	next := make([]model.Product, 0, len(c.products)+1)
	next = append(next, created.Clone())
	next = append(next, c.products...)
	c.replace(next)
	c.mu.Unlock()

	c.succeed(brand, "add", created.ID, "product added")
	return created.Clone(), nil
}

// UpdatePrice sets the price of one product
func (c *Controller) UpdatePrice(ctx context.Context, id uint, price decimal.Decimal) error {
	if err := model.ValidatePrice(price); err != nil {
		c.fail(c.Brand(), "update_price", id, "invalid price", err)
		return err
	}
	return c.mutate(ctx, "update_price", id, model.ProductPatch{Price: &price}, "price updated")
}

// UpdateName renames one product
func (c *Controller) UpdateName(ctx context.Context, id uint, name string) error {
	name, err := model.NormalizeName(name)
	if err != nil {
		c.fail(c.Brand(), "update_name", id, "invalid name", err)
		return err
	}
	return c.mutate(ctx, "update_name", id, model.ProductPatch{Name: &name}, "name updated")
}

// UpdateSizes replaces the sizes of one product
func (c *Controller) UpdateSizes(ctx context.Context, id uint, sizes []string) error {
	sizes, err := model.NormalizeSizes(sizes)
	if err != nil {
		c.fail(c.Brand(), "update_sizes", id, "invalid sizes", err)
		return err
	}
	return c.mutate(ctx, "update_sizes", id, model.ProductPatch{Sizes: sizes}, "sizes updated")
}

// UpdateImages replaces the images of one product
func (c *Controller) UpdateImages(ctx context.Context, id uint, images []string) error {
	if err := model.ValidateImages(images); err != nil {
		c.fail(c.Brand(), "update_images", id, "invalid images", err)
		return err
	}
	images = append([]string(nil), images...)
	return c.mutate(ctx, "update_images", id, model.ProductPatch{Images: images}, "images updated")
}

// UpdateDeposit sets the deposit of one product
func (c *Controller) UpdateDeposit(ctx context.Context, id uint, deposit decimal.Decimal) error {
	brand := c.Brand()
	if !brand.Deposit {
		err := model.NewValidationError("deposit", ErrDepositNotSupported.Error())
		c.fail(brand, "update_deposit", id, "invalid deposit", err)
		return err
	}
	if err := model.ValidateDeposit(deposit); err != nil {
		c.fail(brand, "update_deposit", id, "invalid deposit", err)
		return err
	}
	return c.mutate(ctx, "update_deposit", id, model.ProductPatch{Deposit: &deposit}, "deposit updated")
}

// DeleteProduct removes one product once the store confirms
func (c *Controller) DeleteProduct(ctx context.Context, id uint) error {
	gen, brand, err := c.beginSave(id)
	if err != nil {
		c.fail(brand, "delete", id, "cannot delete product", err)
		return err
	}

	err = c.store.DeleteByID(ctx, brand.Slug, id)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.settle(id)
	if err == nil {
		next := make([]model.Product, 0, len(c.products))
		for _, p := range c.products {
			if p.ID != id {
				next = append(next, p)
			}
		}
		c.replace(next)
		delete(c.rows, id)
	}
	c.mu.Unlock()

	if err != nil {
		c.fail(brand, "delete", id, "failed to delete product", err)
		return err
	}
	c.succeed(brand, "delete", id, "product deleted")
	return nil
}

// mutate persists patch for one row and reflects it in memory on success only
func (c *Controller) mutate(ctx context.Context, op string, id uint, patch model.ProductPatch, done string) error {
	gen, brand, err := c.beginSave(id)
	if err != nil {
		c.fail(brand, op, id, "cannot update product", err)
		return err
	}

	err = c.store.UpdateByID(ctx, brand.Slug, id, patch)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.settle(id)
	if err == nil {
		c.replaceOne(id, patch)
	}
	c.mu.Unlock()

	if err != nil {
		c.fail(brand, op, id, fmt.Sprintf("failed to %s", humanOp(op)), err)
		return err
	}
	c.succeed(brand, op, id, done)
	return nil
}

// beginSave moves a row into Saving and returns the generation it belongs to
func (c *Controller) beginSave(id uint) (uint64, Brand, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if indexOf(c.products, id) < 0 {
		return 0, c.brand, ErrProductNotFound
	}
	next, err := c.rows[id].Next(EventSave)
	if err != nil {
		return 0, c.brand, ErrRowBusy
	}
	c.setRow(id, next)
	return c.generation, c.brand, nil
}

// settle returns a Saving row to Viewing. Callers hold c.mu.
func (c *Controller) settle(id uint) {
	if next, err := c.rows[id].Next(EventSettle); err == nil {
		c.setRow(id, next)
	}
}

func (c *Controller) setRow(id uint, s RowState) {
	if s == Viewing {
		delete(c.rows, id)
		return
	}
	c.rows[id] = s
}

// replaceOne swaps in the patched entry for id. Callers hold c.mu.
func (c *Controller) replaceOne(id uint, patch model.ProductPatch) {
	next := make([]model.Product, len(c.products))
	copy(next, c.products)
	if i := indexOf(next, id); i >= 0 {
		next[i] = patch.Apply(next[i])
	}
	c.replace(next)
}

// replace installs a new list. Callers hold c.mu.
func (c *Controller) replace(list []model.Product) {
	c.products = list
	prometheus.SetCatalogSize(c.brand.Slug, len(list))
}

func (c *Controller) succeed(brand Brand, op string, id uint, msg string) {
	c.notifier.Notify(Notice{Kind: NoticeSuccess, Brand: brand.Slug, Op: op, ProductID: id, Message: msg})
}

func (c *Controller) fail(brand Brand, op string, id uint, msg string, err error) {
	c.notifier.Notify(Notice{Kind: NoticeFailure, Brand: brand.Slug, Op: op, ProductID: id, Message: msg, Err: err})
}

func humanOp(op string) string {
	switch op {
	case "update_price":
		return "update price"
	case "update_name":
		return "update name"
	case "update_sizes":
		return "update sizes"
	case "update_images":
		return "update images"
	case "update_deposit":
		return "update deposit"
	default:
		return op
	}
}

func indexOf(list []model.Product, id uint) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneList(list []model.Product) []model.Product {
	out := make([]model.Product, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}

func validateFilter(category string) error {
	if category == "" || category == model.CategoryAll {
		return nil
	}
	if _, ok := model.NormalizeCategory(category); !ok {
		return model.NewValidationError("category", "invalid category")
	}
	return nil
}
