package model

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"Remeras", CategoryRemeras, true},
		{"  buzos ", CategoryBuzos, true},
		{"Remera", CategoryRemeras, true},
		{"Pantalón", CategoryPantalones, true},
		{"campera", CategoryCamperas, true},
		{"Vestidos", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeCategory(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestCategory_MatchesFilter(t *testing.T) {
	assert.True(t, CategoryBuzos.MatchesFilter("all"))
	assert.True(t, CategoryBuzos.MatchesFilter(""))
	assert.True(t, CategoryBuzos.MatchesFilter("Buzos"))
	assert.True(t, CategoryBuzos.MatchesFilter("buzo"))
	assert.False(t, CategoryBuzos.MatchesFilter("Remeras"))
	assert.False(t, CategoryBuzos.MatchesFilter("unknown"))
}

func TestNormalizeSizes(t *testing.T) {
	sizes, err := NormalizeSizes([]string{" s", "m ", "", "xl"})
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "M", "XL"}, sizes)

	_, err = NormalizeSizes([]string{"S", "s"})
	assert.True(t, IsValidationError(err))

	_, err = NormalizeSizes([]string{" ", ""})
	assert.True(t, IsValidationError(err))

	sizes, err = ParseSizes("xs, S,m")
	require.NoError(t, err)
	assert.Equal(t, []string{"XS", "S", "M"}, sizes)
}

func TestValidateAmounts(t *testing.T) {
	assert.NoError(t, ValidatePrice(decimal.NewFromInt(50)))
	assert.Error(t, ValidatePrice(decimal.Zero))
	assert.Error(t, ValidatePrice(decimal.NewFromInt(-1)))
	assert.Error(t, ValidatePrice(decimal.NewFromInt(1000000)))

	assert.NoError(t, ValidateDeposit(decimal.Zero))
	assert.Error(t, ValidateDeposit(decimal.NewFromInt(-5)))
}

func TestDefaultDeposit(t *testing.T) {
	assert.True(t, decimal.NewFromInt(55).Equal(DefaultDeposit(decimal.NewFromInt(110))))
	assert.True(t, decimal.NewFromInt(51).Equal(DefaultDeposit(decimal.NewFromInt(101))))
	assert.True(t, decimal.NewFromInt(25).Equal(DefaultDeposit(decimal.RequireFromString("49.99"))))
}

func TestNewProduct_Normalize(t *testing.T) {
	valid := NewProduct{
		Name:     " Tee ",
		Category: "Remeras",
		Images:   []string{"https://cdn/x.jpg"},
		Sizes:    []string{"s", "M"},
		Price:    decimal.NewFromInt(50),
	}

	t.Run("valid", func(t *testing.T) {
		p, err := valid.Normalize("anine-bing")
		require.NoError(t, err)
		assert.Equal(t, "Tee", p.Name)
		assert.Equal(t, "anine-bing", p.Brand)
		assert.Equal(t, CategoryRemeras, p.Category)
		assert.Equal(t, []string{"S", "M"}, []string(p.Sizes))
		assert.Nil(t, p.Deposit)
	})

	cases := map[string]func(n *NewProduct){
		"empty_name":     func(n *NewProduct) { n.Name = "  " },
		"long_name":      func(n *NewProduct) { n.Name = strings.Repeat("x", 201) },
		"bad_category":   func(n *NewProduct) { n.Category = "Vestidos" },
		"no_images":      func(n *NewProduct) { n.Images = nil },
		"too_many":       func(n *NewProduct) { n.Images = make([]string, 11); fill(n.Images) },
		"no_sizes":       func(n *NewProduct) { n.Sizes = []string{""} },
		"dup_sizes":      func(n *NewProduct) { n.Sizes = []string{"m", "M"} },
		"zero_price":     func(n *NewProduct) { n.Price = decimal.Zero },
		"negative_depo":  func(n *NewProduct) { d := decimal.NewFromInt(-1); n.Deposit = &d },
		"empty_image_id": func(n *NewProduct) { n.Images = []string{""} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			n := valid
			n.Images = append([]string(nil), valid.Images...)
			n.Sizes = append([]string(nil), valid.Sizes...)
			mutate(&n)
			_, err := n.Normalize("anine-bing")
			require.Error(t, err)
			assert.True(t, IsValidationError(err), err.Error())
		})
	}
}

func fill(s []string) {
	for i := range s {
		s[i] = "img"
	}
}

func TestProductPatch(t *testing.T) {
	price := decimal.NewFromInt(10)
	order := 3
	patch := ProductPatch{Price: &price, Sizes: []string{"L"}, DisplayOrder: &order}

	cols := patch.Columns()
	assert.Len(t, cols, 3)
	assert.Contains(t, cols, "price")
	assert.Contains(t, cols, "sizes")
	assert.Contains(t, cols, "display_order")

	orig := Product{ID: 1, Name: "A", Sizes: []string{"S"}, Price: decimal.NewFromInt(5)}
	got := patch.Apply(orig)
	assert.True(t, price.Equal(got.Price))
	assert.Equal(t, []string{"L"}, []string(got.Sizes))
	assert.Equal(t, 3, *got.DisplayOrder)
	// original untouched
	assert.Equal(t, []string{"S"}, []string(orig.Sizes))
	assert.Nil(t, orig.DisplayOrder)

	assert.True(t, ProductPatch{}.IsEmpty())
	assert.False(t, patch.IsEmpty())
}
