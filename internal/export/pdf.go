// Package export renders a brand's catalog as downloadable files.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Queneri/catalogotefi/internal/catalog"
	"github.com/Queneri/catalogotefi/internal/imaging"
	"github.com/Queneri/catalogotefi/internal/model"
	"github.com/Queneri/catalogotefi/pkg/logger"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Exporter writes products of a brand in one file format
type Exporter interface {
	Export(ctx context.Context, w io.Writer, brand catalog.Brand, products []model.Product) error
	ContentType() string
	FileName(brand catalog.Brand) string
	Format() string
}

// Page layout in millimetres
const (
	margin      = 15.0
	imageWidth  = 50.0
	imageHeight = 65.0
	lineHeight  = 8.0
	sectionGap  = 15.0
	bottomSpace = 80.0
)

// fpdf only embeds these formats
var pdfImageTypes = map[string]string{
	"image/jpeg": "JPG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
}

// PDFExporter lays out one product per block: first image on the left,
// name, category, sizes and price next to it.
type PDFExporter struct {
	images   ImageFetcher
	now      func() time.Time
	compress bool
}

// NewPDFExporter creates a PDF exporter that loads images through images
func NewPDFExporter(images ImageFetcher) *PDFExporter {
	return &PDFExporter{images: images, now: time.Now, compress: true}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Format() string { return "pdf" }

func (e *PDFExporter) FileName(brand catalog.Brand) string {
	return brand.Slug + "-catalogo.pdf"
}

func (e *PDFExporter) Export(ctx context.Context, w io.Writer, brand catalog.Brand, products []model.Product) error {
	log := logger.FromCtx(ctx)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(e.compress)
	pdf.SetAutoPageBreak(false, margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, pageHeight := pdf.GetPageSize()

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(0, 12)
	pdf.CellFormat(pageWidth, 10, tr(strings.ToUpper(brand.Name)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(0)
	pdf.CellFormat(pageWidth, 6, tr("CATÁLOGO DE PRODUCTOS"), "", 1, "C", false, 0, "")

	y := 40.0
	for i, p := range products {
		if y > pageHeight-bottomSpace {
			pdf.AddPage()
			y = 20
		}

		if err := e.placeImage(ctx, pdf, fmt.Sprintf("product-%d-%d", i, p.ID), p.PrimaryImage(), y); err != nil {
			log.Warn("Skipping product image in export",
				zap.Uint("product_id", p.ID),
				zap.String("brand", brand.Slug),
				zap.Error(err))
		}

		textX := margin + imageWidth + 10
		textY := y + 5

		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(0, 0, 0)
		pdf.Text(textX, textY, tr(p.Name))
		textY += lineHeight

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.Text(textX, textY, tr(strings.ToUpper(string(p.Category))))
		textY += lineHeight

		pdf.SetTextColor(0, 0, 0)
		pdf.Text(textX, textY, tr("Talles: "+strings.Join(p.Sizes, ", ")))
		textY += lineHeight

		pdf.SetFont("Helvetica", "B", 11)
		pdf.Text(textX, textY, "$"+p.Price.StringFixed(2))

		y += imageHeight + sectionGap
		pdf.SetDrawColor(200, 200, 200)
		pdf.Line(margin, y, pageWidth-margin, y)
		y += sectionGap
	}

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.SetXY(0, pageHeight-13)
	pdf.CellFormat(pageWidth, 6, "Generado el "+e.now().Format("02/01/2006"), "", 0, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "render pdf")
	}
	return nil
}

// placeImage draws ref at the left margin. A failed image leaves the pdf usable.
func (e *PDFExporter) placeImage(ctx context.Context, pdf *fpdf.Fpdf, name, ref string, y float64) error {
	if ref == "" {
		return errors.New("product has no image")
	}
	data, err := e.images.Fetch(ctx, ref)
	if err != nil {
		return err
	}
	mime, err := imaging.Detect(data)
	if err != nil {
		return err
	}
	imageType, ok := pdfImageTypes[mime]
	if !ok {
		return errors.Errorf("cannot embed %s", mime)
	}

	opts := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if !pdf.Ok() {
		err := pdf.Error()
		pdf.ClearError()
		return errors.Wrap(err, "decode image")
	}
	pdf.ImageOptions(name, margin, y, imageWidth, imageHeight, false, opts, 0, "")
	return nil
}
