package catalog

import (
	"context"
	"testing"

	"github.com/Queneri/catalogotefi/internal/model"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiveProducts() []model.Product {
	list := make([]model.Product, 5)
	for i := range list {
		list[i] = model.Product{ID: uint(i + 1)}
	}
	return list
}

func TestMove(t *testing.T) {
	list := fiveProducts()

	moved := Move(list, 3, 0)
	assert.Equal(t, []uint{4, 1, 2, 3, 5}, ids(moved))
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, ids(list))

	assert.Equal(t, []uint{2, 3, 4, 1, 5}, ids(Move(list, 0, 3)))
	assert.Equal(t, []uint{1, 2, 3, 5, 4}, ids(Move(list, 4, 3)))
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, ids(Move(list, 2, 2)))
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, ids(Move(list, 7, 0)))
}

func TestReindex(t *testing.T) {
	list := fiveProducts()
	last := 4
	list[4].DisplayOrder = &last

	out, writes := Reindex(Move(list, 3, 0))
	for i, p := range out {
		require.NotNil(t, p.DisplayOrder)
		assert.Equal(t, i, *p.DisplayOrder)
	}
	// id 5 already sits at order 4
	got := map[uint]int{}
	for _, w := range writes {
		got[w.ID] = *w.Patch.DisplayOrder
	}
	assert.Equal(t, map[uint]int{4: 0, 1: 1, 2: 2, 3: 3}, got)
	assert.Nil(t, list[0].DisplayOrder)
}

func TestController_Reorder(t *testing.T) {
	s := newFakeStore()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		seed(t, s, item(plainBrand.Slug, name, model.CategoryRemeras, "10"))
	}
	c := loaded(t, s, plainBrand)
	orig := ids(c.Products())

	require.NoError(t, c.Reorder(context.Background(), orig[3], orig[0]))

	want := []uint{orig[3], orig[0], orig[1], orig[2], orig[4]}
	list := c.Products()
	assert.Equal(t, want, ids(list))
	for i, p := range list {
		assert.Equal(t, i, *p.DisplayOrder)
	}

	stored, err := s.Select(context.Background(), plainBrand.Slug)
	require.NoError(t, err)
	assert.Equal(t, want, ids(stored))
}

func TestController_ReorderNoop(t *testing.T) {
	s := newFakeStore()
	seeded := seed(t, s, item(plainBrand.Slug, "a", model.CategoryRemeras, "10"))
	c := loaded(t, s, plainBrand)

	require.NoError(t, c.Reorder(context.Background(), seeded[0].ID, seeded[0].ID))
	assert.Zero(t, s.updateCount())

	assert.ErrorIs(t, c.Reorder(context.Background(), seeded[0].ID, 99), ErrProductNotFound)
	assert.Zero(t, s.updateCount())
}

func TestController_ReorderFailureReloads(t *testing.T) {
	s := newFakeStore()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		seed(t, s, item(plainBrand.Slug, name, model.CategoryRemeras, "10"))
	}
	c := loaded(t, s, plainBrand)
	orig := ids(c.Products())
	selects := s.selectCount()

	s.failUpdate[orig[1]] = errors.New("network down")
	err := c.Reorder(context.Background(), orig[3], orig[0])
	require.Error(t, err)

	assert.Equal(t, selects+1, s.selectCount())
	stored, err := s.Select(context.Background(), plainBrand.Slug)
	require.NoError(t, err)
	assert.Equal(t, ids(stored), ids(c.Products()))
}
