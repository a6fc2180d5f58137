package export

import (
	"context"
	"io"
	"strings"

	"github.com/Queneri/catalogotefi/internal/catalog"
	"github.com/Queneri/catalogotefi/internal/model"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type csvRow struct {
	ID       uint   `csv:"id"`
	Name     string `csv:"name"`
	Category string `csv:"category"`
	Sizes    string `csv:"sizes"`
	Price    string `csv:"price"`
	Deposit  string `csv:"deposit"`
	Image    string `csv:"image"`
}

// CSVExporter writes one row per product in display order
type CSVExporter struct{}

func (CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

func (CSVExporter) Format() string { return "csv" }

func (CSVExporter) FileName(brand catalog.Brand) string {
	return brand.Slug + "-catalogo.csv"
}

func (CSVExporter) Export(_ context.Context, w io.Writer, _ catalog.Brand, products []model.Product) error {
	rows := make([]csvRow, 0, len(products))
	for _, p := range products {
		row := csvRow{
			ID:       p.ID,
			Name:     p.Name,
			Category: string(p.Category),
			Sizes:    strings.Join(p.Sizes, ", "),
			Price:    p.Price.StringFixed(2),
		}
		if p.Deposit != nil {
			row.Deposit = p.Deposit.StringFixed(2)
		}
		// data URLs are too large for a spreadsheet cell
		if img := p.PrimaryImage(); !strings.HasPrefix(img, "data:") {
			row.Image = img
		}
		rows = append(rows, row)
	}
	return errors.Wrap(gocsv.Marshal(&rows, w), "write csv")
}
