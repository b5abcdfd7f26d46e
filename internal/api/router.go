package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/parcelmarket/shipping-marketplace/internal/api/handler"
	"github.com/parcelmarket/shipping-marketplace/internal/api/middleware"
	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

// RouterDeps carries the constructed handlers the router wires up. Building
// the dependency graph is the composition root's job; the router only maps
// routes to handlers and layers the middleware.
type RouterDeps struct {
	JWTSecret string
	Log       zerolog.Logger

	Auth     *handler.AuthHandler
	Quote    *handler.QuoteHandler
	Shipment *handler.ShipmentHandler
	Checkout *handler.CheckoutHandler
	Admin    *handler.AdminHandler
	Health   *handler.HealthHandler
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("marketplace"))

	authMiddleware := middleware.Auth(deps.JWTSecret)

	// --- Auth routes ---
	e.POST("/auth/register", deps.Auth.Register)
	e.POST("/auth/login", deps.Auth.Login)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", deps.Health.Live)
	e.GET("/health/ready", deps.Health.Ready)
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Client API ---
	v1 := e.Group("/v1", authMiddleware, middleware.RBAC(domain.RoleAdmin, domain.RoleClient))
	v1.POST("/quotes", deps.Quote.Quote)
	v1.POST("/shipments", deps.Shipment.Create)
	v1.GET("/shipments/:id", deps.Shipment.Get)
	v1.POST("/checkout", deps.Checkout.Checkout)

	// --- Admin API ---
	admin := e.Group("/v1/admin", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	admin.GET("/commissions", deps.Admin.ListCommissions)
	admin.PUT("/commissions", deps.Admin.UpsertCommission)
	admin.GET("/markup-rules", deps.Admin.ListMarkupRules)
	admin.POST("/markup-rules", deps.Admin.UpsertMarkupRule)
	admin.DELETE("/markup-rules/:id", deps.Admin.DeleteMarkupRule)
	admin.GET("/addons", deps.Admin.ListAddons)
	admin.POST("/addons", deps.Admin.UpsertAddon)
	admin.DELETE("/addons/:id", deps.Admin.DeleteAddon)
	admin.GET("/audit/:reference", deps.Admin.AuditTrail)
	admin.POST("/shipments/:id/resubmit", deps.Checkout.Resubmit)

	return e
}
