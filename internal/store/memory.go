package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Queneri/catalogotefi/internal/model"

	"github.com/pkg/errors"
)

// MemoryStore keeps products in process memory. It backs STORE_DRIVER=memory
// and the package tests of its callers.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[uint]model.Product
	nextID uint
	now    func() time.Time
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:   make(map[uint]model.Product),
		nextID: 1,
		now:    time.Now,
	}
}

func (s *MemoryStore) Select(ctx context.Context, brand string) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Product
	for _, p := range s.rows {
		if p.Brand == brand {
			out = append(out, p.Clone())
		}
	}
	sortLoadOrder(out)
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, p model.Product) (model.Product, error) {
	if err := ctx.Err(); err != nil {
		return model.Product{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var brandRows []model.Product
	legacy := false
	for _, row := range s.rows {
		if row.Brand == p.Brand {
			brandRows = append(brandRows, row)
			legacy = legacy || row.DisplayOrder == nil
		}
	}

	order := 0
	if legacy {
		// Rows without an order get one so the new row can sort before them
		sortLoadOrder(brandRows)
		for i, row := range brandRows {
			o := i + 1
			row.DisplayOrder = &o
			s.rows[row.ID] = row
		}
	} else if len(brandRows) > 0 {
		first := *brandRows[0].DisplayOrder
		for _, row := range brandRows[1:] {
			if *row.DisplayOrder < first {
				first = *row.DisplayOrder
			}
		}
		order = first - 1
	}

	p = p.Clone()
	p.ID = s.nextID
	s.nextID++
	p.DisplayOrder = &order
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.rows[p.ID] = p
	return p.Clone(), nil
}

func (s *MemoryStore) UpdateByID(ctx context.Context, brand string, id uint, patch model.ProductPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || row.Brand != brand {
		return errors.Wrapf(ErrNotFound, "update product %d", id)
	}
	row = patch.Apply(row)
	row.UpdatedAt = s.now()
	s.rows[id] = row
	return nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, brand string, id uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || row.Brand != brand {
		return errors.Wrapf(ErrNotFound, "delete product %d", id)
	}
	delete(s.rows, id)
	return nil
}

// Seed stores products as given, keeping their ids, orders and timestamps
func (s *MemoryStore) Seed(products ...model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		if p.ID == 0 {
			p.ID = s.nextID
		}
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
		s.rows[p.ID] = p.Clone()
	}
}

// Get returns a copy of the stored row, for inspection
func (s *MemoryStore) Get(id uint) (model.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	return p.Clone(), ok
}

// sortLoadOrder sorts by display order with unordered rows first, then
// newest first, then by id
func sortLoadOrder(list []model.Product) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch {
		case a.DisplayOrder == nil && b.DisplayOrder != nil:
			return true
		case a.DisplayOrder != nil && b.DisplayOrder == nil:
			return false
		case a.DisplayOrder != nil && *a.DisplayOrder != *b.DisplayOrder:
			return *a.DisplayOrder < *b.DisplayOrder
		case !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.After(b.CreatedAt)
		default:
			return a.ID < b.ID
		}
	})
}
