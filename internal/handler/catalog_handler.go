package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/Queneri/catalogotefi/internal/catalog"
	"github.com/Queneri/catalogotefi/internal/export"
	"github.com/Queneri/catalogotefi/internal/imaging"
	"github.com/Queneri/catalogotefi/internal/model"
	"github.com/Queneri/catalogotefi/pkg/logger"
	"github.com/Queneri/catalogotefi/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// CatalogHandler serves the brand catalogs
type CatalogHandler struct {
	registry      *catalog.Registry
	exporters     map[string]export.Exporter
	maxImageBytes int64
}

// NewCatalogHandler creates the catalog handler. Exporters are keyed by their format.
func NewCatalogHandler(registry *catalog.Registry, maxImageBytes int64, exporters ...export.Exporter) *CatalogHandler {
	h := &CatalogHandler{
		registry:      registry,
		exporters:     make(map[string]export.Exporter, len(exporters)),
		maxImageBytes: maxImageBytes,
	}
	for _, e := range exporters {
		h.exporters[e.Format()] = e
	}
	return h
}

type priceRequest struct {
	Price decimal.Decimal `json:"price"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type sizesRequest struct {
	Sizes []string `json:"sizes"`
}

type imagesRequest struct {
	Images []string `json:"images"`
}

type depositRequest struct {
	Deposit *decimal.Decimal `json:"deposit"`
}

type bulkPriceRequest struct {
	Percentage interface{} `json:"percentage" validate:"required"`
	Direction  string      `json:"direction" validate:"required,oneof=increase decrease"`
	Category   string      `json:"category"`
}

type reorderRequest struct {
	MovedID  uint `json:"moved_id" validate:"required"`
	TargetID uint `json:"target_id" validate:"required"`
}

// ListBrands returns the configured brands
func (h *CatalogHandler) ListBrands(c echo.Context) error {
	return c.JSON(http.StatusOK, h.registry.Brands())
}

// ListProducts returns the brand's products in display order, optionally
// filtered by ?category=
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return brandError(c, err)
	}
	products, err := ctrl.Filter(c.QueryParam("category"))
	if err != nil {
		return respondError(c, err, http.StatusBadRequest, "invalid filter")
	}
	if products == nil {
		products = []model.Product{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"brand":    ctrl.Brand(),
		"products": products,
		"rows":     ctrl.RowStates(),
	})
}

// Export renders the brand's products in the format named by the route
func (h *CatalogHandler) Export(format string) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)
		exp, ok := h.exporters[format]
		if !ok {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown export format"})
		}
		ctrl, err := h.controller(c)
		if err != nil {
			return brandError(c, err)
		}
		products, err := ctrl.Filter(c.QueryParam("category"))
		if err != nil {
			return respondError(c, err, http.StatusBadRequest, "invalid filter")
		}

		var buf bytes.Buffer
		brand := ctrl.Brand()
		if err := exp.Export(c.Request().Context(), &buf, brand, products); err != nil {
			log.Error("Export failed", zap.String("format", format), zap.Error(err))
			prometheus.RecordExport(format, "failure")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "export failed"})
		}

		prometheus.RecordExport(format, "success")
		log.Info("Catalog exported",
			zap.String("brand", brand.Slug),
			zap.String("format", format),
			zap.Int("count", len(products)))
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=%q", exp.FileName(brand)))
		return c.Blob(http.StatusOK, exp.ContentType(), buf.Bytes())
	}
}

// AddProduct creates a product at the top of the list
func (h *CatalogHandler) AddProduct(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return brandError(c, err)
	}
	var req model.NewProduct
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	created, err := ctrl.AddProduct(c.Request().Context(), req)
	if err != nil {
		logger.FromContext(c).Warn("Failed to add product", zap.Error(err))
		return respondError(c, err, http.StatusBadGateway, "failed to add product")
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) UpdatePrice(c echo.Context) error {
	var req priceRequest
	return h.mutate(c, &req, func(ctrl *catalog.Controller, id uint) error {
		return ctrl.UpdatePrice(c.Request().Context(), id, req.Price)
	})
}

func (h *CatalogHandler) UpdateName(c echo.Context) error {
	var req nameRequest
	return h.mutate(c, &req, func(ctrl *catalog.Controller, id uint) error {
		return ctrl.UpdateName(c.Request().Context(), id, req.Name)
	})
}

func (h *CatalogHandler) UpdateSizes(c echo.Context) error {
	var req sizesRequest
	return h.mutate(c, &req, func(ctrl *catalog.Controller, id uint) error {
		return ctrl.UpdateSizes(c.Request().Context(), id, req.Sizes)
	})
}

func (h *CatalogHandler) UpdateImages(c echo.Context) error {
	var req imagesRequest
	return h.mutate(c, &req, func(ctrl *catalog.Controller, id uint) error {
		return ctrl.UpdateImages(c.Request().Context(), id, req.Images)
	})
}

func (h *CatalogHandler) UpdateDeposit(c echo.Context) error {
	var req depositRequest
	return h.mutate(c, &req, func(ctrl *catalog.Controller, id uint) error {
		if req.Deposit == nil {
			return model.NewValidationError("deposit", "deposit is required")
		}
		return ctrl.UpdateDeposit(c.Request().Context(), id, *req.Deposit)
	})
}

func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	return h.mutate(c, nil, func(ctrl *catalog.Controller, id uint) error {
		return ctrl.DeleteProduct(c.Request().Context(), id)
	})
}

func (h *CatalogHandler) BeginEdit(c echo.Context) error {
	return h.mutate(c, nil, func(ctrl *catalog.Controller, id uint) error {
		return ctrl.BeginEdit(id)
	})
}

func (h *CatalogHandler) CancelEdit(c echo.Context) error {
	return h.mutate(c, nil, func(ctrl *catalog.Controller, id uint) error {
		return ctrl.CancelEdit(id)
	})
}

// BulkPrice applies a percentage change to every product of a category
func (h *CatalogHandler) BulkPrice(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return brandError(c, err)
	}
	var req bulkPriceRequest
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err, http.StatusBadRequest, "invalid request")
	}
	raw, err := cast.ToStringE(req.Percentage)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid percentage", "field": "percentage"})
	}
	pct, err := catalog.ParsePercentage(raw)
	if err != nil {
		return respondError(c, err, http.StatusBadRequest, "invalid percentage")
	}
	category := req.Category
	if category == "" {
		category = model.CategoryAll
	}

	n, err := ctrl.ApplyBulkPrice(c.Request().Context(), catalog.BulkPriceChange{
		Percentage: pct,
		Direction:  catalog.Direction(req.Direction),
		Category:   category,
	})
	if err != nil {
		logger.FromContext(c).Warn("Bulk price change failed", zap.Error(err))
		return respondError(c, err, http.StatusBadGateway, "failed to update prices")
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}

// Reorder moves a product to the position of another
func (h *CatalogHandler) Reorder(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return brandError(c, err)
	}
	var req reorderRequest
	if err := bindValid(c, &req); err != nil {
		return respondError(c, err, http.StatusBadRequest, "invalid request")
	}
	if err := ctrl.Reorder(c.Request().Context(), req.MovedID, req.TargetID); err != nil {
		logger.FromContext(c).Warn("Reorder failed", zap.Error(err))
		return respondError(c, err, http.StatusBadGateway, "failed to save order")
	}
	return c.NoContent(http.StatusNoContent)
}

// Reload refetches the brand from the store
func (h *CatalogHandler) Reload(c echo.Context) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return brandError(c, err)
	}
	if err := ctrl.Reload(c.Request().Context()); err != nil {
		logger.FromContext(c).Error("Reload failed", zap.Error(err))
		return respondError(c, err, http.StatusBadGateway, "failed to load products")
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage turns the multipart "file" field into a data URL usable as a product image
func (h *CatalogHandler) UploadImage(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "file is required"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read file"})
	}
	defer src.Close()

	url, err := imaging.ToDataURL(src, h.maxImageBytes)
	if err != nil {
		logger.FromContext(c).Warn("Rejected image upload", zap.String("filename", file.Filename), zap.Error(err))
		return respondError(c, err, http.StatusBadRequest, "invalid image")
	}
	return c.JSON(http.StatusCreated, echo.Map{"url": url})
}

// mutate resolves brand and id, binds req when given and runs op
func (h *CatalogHandler) mutate(c echo.Context, req interface{}, op func(*catalog.Controller, uint) error) error {
	ctrl, err := h.controller(c)
	if err != nil {
		return brandError(c, err)
	}
	id, err := cast.ToUintE(c.Param("id"))
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	if req != nil {
		if err := c.Bind(req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
	}
	if err := op(ctrl, id); err != nil {
		logger.FromContext(c).Warn("Product change failed", zap.Uint("product_id", id), zap.Error(err))
		return respondError(c, err, http.StatusBadGateway, "failed to save changes")
	}
	if req == nil {
		return c.NoContent(http.StatusNoContent)
	}
	for _, p := range ctrl.Products() {
		if p.ID == id {
			return c.JSON(http.StatusOK, p)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// controller resolves the :brand route parameter
func (h *CatalogHandler) controller(c echo.Context) (*catalog.Controller, error) {
	return h.registry.Get(c.Request().Context(), c.Param("brand"))
}

func brandError(c echo.Context, err error) error {
	logger.FromContext(c).Warn("Brand unavailable", zap.String("brand", c.Param("brand")), zap.Error(err))
	return respondError(c, err, http.StatusBadGateway, "failed to load products")
}

// bindValid binds and validates req; failures are validation errors
func bindValid(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return model.NewValidationError("", "invalid request")
	}
	return c.Validate(req)
}
