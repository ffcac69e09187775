package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/kopi-pos/internal/config"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	domainRepo "github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/internal/presentation/http/handler"
	"github.com/sangkips/kopi-pos/internal/presentation/http/middleware"
	"github.com/sangkips/kopi-pos/pkg/utils"
	"github.com/sirupsen/logrus"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Customer *handler.CustomerHandler
	Supplier *handler.SupplierHandler
	Sale     *handler.SaleHandler
	Payment  *handler.PaymentHandler
	Shift    *handler.ShiftHandler
	Purchase *handler.PurchaseHandler
	Printer  *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	Log             *logrus.Logger
	IdempotencyRepo domainRepo.IdempotencyRepository
	Locker          middleware.KeyLocker
	RateLimiter     *middleware.RateLimiter
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		auth := v1.Group("/auth")
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)

		// Authenticated by the gateway signature
		v1.POST("/payments/webhook", h.Payment.Webhook)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(deps.JWTManager))
		if deps.RateLimiter != nil {
			protected.Use(deps.RateLimiter.Middleware())
		}

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerProtectedRoutes(rg *gin.RouterGroup, h *Handlers, deps *Deps) {
	adminOnly := middleware.RequireRole(enum.RoleAdmin)

	rg.GET("/profile", h.Auth.GetProfile)
	rg.POST("/users", adminOnly, h.Auth.CreateUser)

	products := rg.Group("/products")
	{
		products.GET("", h.Product.List)
		products.GET("/lookup", h.Product.Lookup)
		products.GET("/:id", h.Product.Get)
		products.POST("", adminOnly, h.Product.Create)
		products.PUT("/:id", adminOnly, h.Product.Update)
		products.POST("/:id/deactivate", adminOnly, h.Product.Deactivate)
		products.POST("/:id/restock", adminOnly, h.Product.Restock)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", h.Product.ListCategories)
		categories.POST("", adminOnly, h.Product.CreateCategory)
	}

	customers := rg.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
	}

	suppliers := rg.Group("/suppliers")
	{
		suppliers.GET("", h.Supplier.List)
		suppliers.POST("", adminOnly, h.Supplier.Create)
		suppliers.GET("/:id", h.Supplier.Get)
	}

	idem := middleware.IdempotencyConfig{Repo: deps.IdempotencyRepo, Locker: deps.Locker, Log: deps.Log}
	optionalKey := middleware.Idempotency(idem)
	idem.Required = true
	requiredKey := middleware.Idempotency(idem)

	sales := rg.Group("/sales")
	{
		sales.GET("", adminOnly, h.Sale.List)
		sales.GET("/mine", h.Sale.ListMine)
		sales.POST("", optionalKey, h.Sale.Create)
		sales.GET("/:id", h.Sale.Get)
		sales.POST("/:id/charge", requiredKey, h.Sale.Charge)
		sales.GET("/:id/payment-status", h.Sale.PaymentStatus)
		sales.POST("/:id/receipt", h.Sale.PrintReceipt)
	}

	shifts := rg.Group("/shifts")
	{
		shifts.GET("", h.Shift.List)
		shifts.GET("/active", h.Shift.Active)
		shifts.POST("/open", h.Shift.Open)
		shifts.POST("/:id/close", h.Shift.Close)
		shifts.GET("/:id/summary", h.Shift.Summary)
	}

	purchases := rg.Group("/purchase-orders", adminOnly)
	{
		purchases.GET("", h.Purchase.List)
		purchases.POST("", h.Purchase.Create)
		purchases.GET("/:id", h.Purchase.Get)
		purchases.DELETE("/:id", h.Purchase.Delete)
	}

	printer := rg.Group("/printer")
	{
		printer.GET("/status", h.Printer.Status)
		printer.POST("/test", adminOnly, h.Printer.TestPrint)
	}
}
