package handler

import (
	"github.com/Queneri/catalogotefi/internal/middleware"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts every endpoint on e
func RegisterRoutes(e *echo.Echo, auth *AuthHandler, cat *CatalogHandler, authenticator middleware.Authenticator) {
	requireAuth := middleware.AuthMiddleware(authenticator)

	// Public routes - no authentication required
	e.GET("/health", HealthCheck)
	e.GET("/metrics", MetricsHandler)

	authGroup := e.Group("/api/auth")
	authGroup.POST("/register", auth.Register)
	authGroup.POST("/login", auth.Login)
	authGroup.POST("/logout", auth.Logout, requireAuth)
	authGroup.GET("/session", auth.Session, requireAuth)

	api := e.Group("/api")
	api.GET("/brands", cat.ListBrands)

	// Catalog browsing and export are public
	brand := api.Group("/catalog/:brand")
	brand.GET("/products", cat.ListProducts)
	brand.GET("/export.pdf", cat.Export("pdf"))
	brand.GET("/export.csv", cat.Export("csv"))

	// Mutations require the admin role
	admin := []echo.MiddlewareFunc{requireAuth, middleware.RequireAdmin}
	brand.POST("/products", cat.AddProduct, admin...)
	brand.PATCH("/products/:id/price", cat.UpdatePrice, admin...)
	brand.PATCH("/products/:id/name", cat.UpdateName, admin...)
	brand.PATCH("/products/:id/sizes", cat.UpdateSizes, admin...)
	brand.PATCH("/products/:id/images", cat.UpdateImages, admin...)
	brand.PATCH("/products/:id/deposit", cat.UpdateDeposit, admin...)
	brand.DELETE("/products/:id", cat.DeleteProduct, admin...)
	brand.POST("/products/:id/edit", cat.BeginEdit, admin...)
	brand.DELETE("/products/:id/edit", cat.CancelEdit, admin...)
	brand.POST("/bulk-price", cat.BulkPrice, admin...)
	brand.POST("/reorder", cat.Reorder, admin...)
	brand.POST("/reload", cat.Reload, admin...)
	api.POST("/images", cat.UploadImage, admin...)
}
