package model

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog item belonging to exactly one brand partition
type Product struct {
	ID           uint             `json:"id" gorm:"primarykey"`
	Brand        string           `json:"brand" gorm:"type:varchar(64);index;not null"`
	Name         string           `json:"name" gorm:"type:varchar(200);not null"`
	Category     Category         `json:"category" gorm:"type:varchar(50);index;not null"`
	Images       pq.StringArray   `json:"images" gorm:"type:text[];not null"`
	Sizes        pq.StringArray   `json:"sizes" gorm:"type:text[];not null"`
	Price        decimal.Decimal  `json:"price" gorm:"type:decimal(12,2);not null"`
	Deposit      *decimal.Decimal `json:"deposit,omitempty" gorm:"type:decimal(12,2)"`
	DisplayOrder *int             `json:"display_order,omitempty" gorm:"index"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `json:"-" gorm:"index"`
}

// PrimaryImage returns the first image, used by exports
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Clone returns a copy that shares no slices or pointers with p
func (p Product) Clone() Product {
	c := p
	c.Images = append(pq.StringArray(nil), p.Images...)
	c.Sizes = append(pq.StringArray(nil), p.Sizes...)
	if p.Deposit != nil {
		d := *p.Deposit
		c.Deposit = &d
	}
	if p.DisplayOrder != nil {
		o := *p.DisplayOrder
		c.DisplayOrder = &o
	}
	return c
}

// ProductPatch is a partial update of a single product. Nil fields are left untouched.
type ProductPatch struct {
	Name         *string
	Price        *decimal.Decimal
	Deposit      *decimal.Decimal
	Sizes        []string
	Images       []string
	DisplayOrder *int
}

// IsEmpty reports whether the patch changes nothing
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Deposit == nil &&
		p.Sizes == nil && p.Images == nil && p.DisplayOrder == nil
}

// Columns maps the patch onto column names for the record store
func (p ProductPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Price != nil {
		cols["price"] = *p.Price
	}
	if p.Deposit != nil {
		cols["deposit"] = *p.Deposit
	}
	if p.Sizes != nil {
		cols["sizes"] = pq.StringArray(p.Sizes)
	}
	if p.Images != nil {
		cols["images"] = pq.StringArray(p.Images)
	}
	if p.DisplayOrder != nil {
		cols["display_order"] = *p.DisplayOrder
	}
	return cols
}

// Apply returns a copy of prod with the patch applied
func (p ProductPatch) Apply(prod Product) Product {
	out := prod.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Price != nil {
		out.Price = *p.Price
	}
	if p.Deposit != nil {
		d := *p.Deposit
		out.Deposit = &d
	}
	if p.Sizes != nil {
		out.Sizes = append(pq.StringArray(nil), p.Sizes...)
	}
	if p.Images != nil {
		out.Images = append(pq.StringArray(nil), p.Images...)
	}
	if p.DisplayOrder != nil {
		o := *p.DisplayOrder
		out.DisplayOrder = &o
	}
	return out
}

// NewProduct holds the admin input for creating a product
type NewProduct struct {
	Name     string           `json:"name" validate:"required,max=200"`
	Category string           `json:"category" validate:"required,category"`
	Images   []string         `json:"images" validate:"min=1,max=10,dive,required"`
	Sizes    []string         `json:"sizes" validate:"min=1,dive,required"`
	Price    decimal.Decimal  `json:"price"`
	Deposit  *decimal.Decimal `json:"deposit,omitempty"`
}
