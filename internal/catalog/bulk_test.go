package catalog

import (
	"context"
	"testing"

	"github.com/Queneri/catalogotefi/internal/model"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePercentage(t *testing.T) {
	dot, err := ParsePercentage("10")
	require.NoError(t, err)
	comma, err := ParsePercentage("10,0")
	require.NoError(t, err)
	assert.True(t, dot.Equal(comma))
	assertDecimal(t, "10", comma)

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{" 7,5 ", "7.5", true},
		{"12.25", "12.25", true},
		{"150", "150", true},
		{"", "", false},
		{"abc", "", false},
		{"0", "", false},
		{"-5", "", false},
		{"1,2,3", "", false},
	}
	for _, tt := range tests {
		got, err := ParsePercentage(tt.in)
		if !tt.ok {
			assert.True(t, model.IsValidationError(err), tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assertDecimal(t, tt.want, got)
	}
}

func TestPlanBulkPrice(t *testing.T) {
	list := []model.Product{
		{ID: 1, Name: "tee", Category: model.CategoryRemeras, Price: decimal.NewFromInt(100)},
		{ID: 2, Name: "hoodie", Category: model.CategoryBuzos, Price: decimal.RequireFromString("99.99")},
	}

	plan, err := PlanBulkPrice(list, BulkPriceChange{
		Percentage: decimal.NewFromInt(10),
		Direction:  Increase,
		Category:   model.CategoryAll,
	}, true)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assertDecimal(t, "110", *plan[0].Patch.Price)
	assertDecimal(t, "55", *plan[0].Patch.Deposit)
	assertDecimal(t, "110", *plan[1].Patch.Price)

	plan, err = PlanBulkPrice(list, BulkPriceChange{
		Percentage: decimal.NewFromInt(25),
		Direction:  Decrease,
		Category:   "Buzos",
	}, false)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, uint(2), plan[0].ID)
	assertDecimal(t, "75", *plan[0].Patch.Price)
	assert.Nil(t, plan[0].Patch.Deposit)
}

func TestPlanBulkPrice_Rejects(t *testing.T) {
	list := []model.Product{
		{ID: 1, Name: "tee", Category: model.CategoryRemeras, Price: decimal.NewFromInt(100)},
	}

	_, err := PlanBulkPrice(list, BulkPriceChange{Percentage: decimal.NewFromInt(100), Direction: Decrease, Category: "all"}, false)
	assert.True(t, model.IsValidationError(err))

	_, err = PlanBulkPrice(list, BulkPriceChange{Percentage: decimal.NewFromInt(10), Direction: "sideways", Category: "all"}, false)
	assert.True(t, model.IsValidationError(err))

	_, err = PlanBulkPrice(list, BulkPriceChange{Percentage: decimal.NewFromInt(10), Direction: Increase, Category: "Vestidos"}, false)
	assert.True(t, model.IsValidationError(err))

	_, err = PlanBulkPrice(list, BulkPriceChange{Percentage: decimal.NewFromInt(10), Direction: Increase, Category: "Camperas"}, false)
	assert.ErrorIs(t, err, ErrNoMatchingProducts)
}

func TestController_ApplyBulkPrice(t *testing.T) {
	s := newFakeStore()
	tee := item(depositBrand.Slug, "tee", model.CategoryRemeras, "100")
	manual := decimal.NewFromInt(10)
	tee.Deposit = &manual
	seeded := seed(t, s,
		tee,
		item(depositBrand.Slug, "tank", model.CategoryRemeras, "49.99"),
		item(depositBrand.Slug, "hoodie", model.CategoryBuzos, "200"),
	)
	c := loaded(t, s, depositBrand, WithBulkConcurrency(2))

	n, err := c.ApplyBulkPrice(context.Background(), BulkPriceChange{
		Percentage: decimal.NewFromInt(10),
		Direction:  Increase,
		Category:   "Remeras",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	byID := map[uint]model.Product{}
	for _, p := range c.Products() {
		byID[p.ID] = p
	}
	assertDecimal(t, "110", byID[seeded[0].ID].Price)
	assertDecimal(t, "55", *byID[seeded[0].ID].Deposit)
	assertDecimal(t, "55", byID[seeded[1].ID].Price)
	assertDecimal(t, "28", *byID[seeded[1].ID].Deposit)
	assertDecimal(t, "200", byID[seeded[2].ID].Price)
	assert.Nil(t, byID[seeded[2].ID].Deposit)

	for _, p := range c.Products() {
		if p.Deposit != nil && p.Category == model.CategoryRemeras {
			assert.True(t, model.DefaultDeposit(p.Price).Equal(*p.Deposit))
		}
	}

	stored, _ := s.Get(seeded[0].ID)
	assertDecimal(t, "110", stored.Price)
}

func TestController_ApplyBulkPriceFailureReflectsNothing(t *testing.T) {
	s := newFakeStore()
	seeded := seed(t, s,
		item(plainBrand.Slug, "tee", model.CategoryRemeras, "100"),
		item(plainBrand.Slug, "hoodie", model.CategoryBuzos, "200"),
	)
	notices := &noticeLog{}
	c := loaded(t, s, plainBrand, WithNotifier(notices))
	before := c.Products()

	s.failUpdate[seeded[1].ID] = errors.New("rate limited")
	_, err := c.ApplyBulkPrice(context.Background(), BulkPriceChange{
		Percentage: decimal.NewFromInt(10),
		Direction:  Increase,
		Category:   model.CategoryAll,
	})
	require.Error(t, err)
	assert.Equal(t, before, c.Products())
	assert.Equal(t, NoticeFailure, notices.last().Kind)

	// the write that succeeded stays in the store until the next reload
	stored, _ := s.Get(seeded[0].ID)
	assertDecimal(t, "110", stored.Price)
	require.NoError(t, c.Reload(context.Background()))
	for _, p := range c.Products() {
		if p.ID == seeded[0].ID {
			assertDecimal(t, "110", p.Price)
		}
	}
}

func TestController_ApplyBulkPriceNoMatches(t *testing.T) {
	s := newFakeStore()
	seed(t, s, item(plainBrand.Slug, "tee", model.CategoryRemeras, "100"))
	notices := &noticeLog{}
	c := loaded(t, s, plainBrand, WithNotifier(notices))

	_, err := c.ApplyBulkPrice(context.Background(), BulkPriceChange{
		Percentage: decimal.NewFromInt(10),
		Direction:  Increase,
		Category:   "Camperas",
	})
	assert.ErrorIs(t, err, ErrNoMatchingProducts)
	assert.Zero(t, s.updateCount())
	assert.Equal(t, NoticeInfo, notices.last().Kind)
}

func TestController_ApplyBulkPriceBusyRow(t *testing.T) {
	s := newFakeStore()
	seeded := seed(t, s,
		item(plainBrand.Slug, "tee", model.CategoryRemeras, "100"),
		item(plainBrand.Slug, "tank", model.CategoryRemeras, "50"),
	)
	c := loaded(t, s, plainBrand)

	entered, release := s.hold()
	done := make(chan error, 1)
	go func() {
		done <- c.UpdateName(context.Background(), seeded[0].ID, "Tee")
	}()
	<-entered

	_, err := c.ApplyBulkPrice(context.Background(), BulkPriceChange{
		Percentage: decimal.NewFromInt(10),
		Direction:  Increase,
		Category:   model.CategoryAll,
	})
	assert.ErrorIs(t, err, ErrRowBusy)
	state, _ := c.RowState(seeded[1].ID)
	assert.Equal(t, Viewing, state)

	release()
	require.NoError(t, <-done)
	assert.Equal(t, 1, s.updateCount())
}
