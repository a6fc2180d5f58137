package model

import (
	"strings"
)

// Category is one of the fixed catalog categories
type Category string

const (
	CategoryRemeras    Category = "Remeras"
	CategoryBuzos      Category = "Buzos"
	CategoryZapatillas Category = "Zapatillas"
	CategoryPantalones Category = "Pantalones"
	CategoryCamperas   Category = "Camperas"
	CategoryAccesorios Category = "Accesorios"
)

// CategoryAll is the filter value that matches every category
const CategoryAll = "all"

// Categories lists the current categories in display order
var Categories = []Category{
	CategoryRemeras,
	CategoryBuzos,
	CategoryZapatillas,
	CategoryPantalones,
	CategoryCamperas,
	CategoryAccesorios,
}

// legacyCategories maps labels stored by older versions onto current ones
var legacyCategories = map[string]Category{
	"remera":    CategoryRemeras,
	"buzo":      CategoryBuzos,
	"zapatilla": CategoryZapatillas,
	"pantalon":  CategoryPantalones,
	"pantalón":  CategoryPantalones,
	"campera":   CategoryCamperas,
	"accesorio": CategoryAccesorios,
}

// NormalizeCategory resolves a current or legacy label. Matching is case-insensitive.
func NormalizeCategory(label string) (Category, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	for _, c := range Categories {
		if strings.ToLower(string(c)) == key {
			return c, true
		}
	}
	c, ok := legacyCategories[key]
	return c, ok
}

// MatchesFilter reports whether c is selected by filter ("all" or a category label)
func (c Category) MatchesFilter(filter string) bool {
	if filter == "" || filter == CategoryAll {
		return true
	}
	want, ok := NormalizeCategory(filter)
	return ok && want == c
}
