package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/kopi-pos/internal/application/service"
	"github.com/sangkips/kopi-pos/internal/config"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	domainRepo "github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/internal/infrastructure/database"
	"github.com/sangkips/kopi-pos/internal/infrastructure/memory"
	"github.com/sangkips/kopi-pos/internal/infrastructure/payment"
	"github.com/sangkips/kopi-pos/internal/infrastructure/repository"
	"github.com/sangkips/kopi-pos/internal/presentation/http/handler"
	"github.com/sangkips/kopi-pos/internal/presentation/http/middleware"
	"github.com/sangkips/kopi-pos/internal/presentation/http/routes"
	"github.com/sangkips/kopi-pos/pkg/email"
	"github.com/sangkips/kopi-pos/pkg/lock"
	"github.com/sangkips/kopi-pos/pkg/logger"
	"github.com/sangkips/kopi-pos/pkg/printer"
	"github.com/sangkips/kopi-pos/pkg/utils"
	"github.com/sirupsen/logrus"
)

// repositories is the storage surface shared by both drivers.
type repositories struct {
	tx             domainRepo.Transactor
	users          domainRepo.UserRepository
	products       domainRepo.ProductRepository
	categories     domainRepo.CategoryRepository
	customers      domainRepo.CustomerRepository
	suppliers      domainRepo.SupplierRepository
	sales          domainRepo.SaleRepository
	payments       domainRepo.PaymentRepository
	shifts         domainRepo.ShiftRepository
	purchaseOrders domainRepo.PurchaseOrderRepository
	idempotency    domainRepo.IdempotencyRepository
}

func openStorage(cfg *config.Config, log *logrus.Logger) (*repositories, bool) {
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory storage, data is lost on restart")
		store := memory.New()
		return &repositories{
			tx:             store.Transactor(),
			users:          store.Users(),
			products:       store.Products(),
			categories:     store.Categories(),
			customers:      store.Customers(),
			suppliers:      store.Suppliers(),
			sales:          store.Sales(),
			payments:       store.Payments(),
			shifts:         store.Shifts(),
			purchaseOrders: store.PurchaseOrders(),
			idempotency:    store.Idempotency(),
		}, true
	}

	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.AutoMigrate(db, log); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	return &repositories{
		tx:             repository.NewTransactor(db),
		users:          repository.NewUserRepository(db),
		products:       repository.NewProductRepository(db),
		categories:     repository.NewCategoryRepository(db),
		customers:      repository.NewCustomerRepository(db),
		suppliers:      repository.NewSupplierRepository(db),
		sales:          repository.NewSaleRepository(db),
		payments:       repository.NewPaymentRepository(db),
		shifts:         repository.NewShiftRepository(db),
		purchaseOrders: repository.NewPurchaseOrderRepository(db),
		idempotency:    repository.NewIdempotencyRepository(db),
	}, false
}

func newLocker(ctx context.Context, cfg config.RedisConfig, log *logrus.Logger) service.Locker {
	if !cfg.Enabled() {
		log.Info("REDIS_ADDR not set, using process-local locks")
		return lock.NewLocalLocker()
	}
	client, err := lock.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, using process-local locks")
		return lock.NewLocalLocker()
	}
	return lock.NewRedisLocker(client)
}

// purgeIdempotencyKeys deletes expired keys every hour until ctx is done.
func purgeIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, log *logrus.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.Purge(ctx, time.Now())
			if err != nil {
				log.WithError(err).Warn("failed to purge idempotency keys")
				continue
			}
			if n > 0 {
				log.WithField("deleted", n).Debug("purged idempotency keys")
			}
		}
	}
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, inMemory := openStorage(cfg, log)

	seeder := &database.Seeder{Users: repos.users, Categories: repos.categories, Products: repos.products, Log: log}
	if err := seeder.SeedAdmin(ctx, cfg.Seed); err != nil {
		log.WithError(err).Warn("failed to seed admin user")
	}
	if inMemory {
		if err := seeder.SeedDemo(ctx); err != nil {
			log.WithError(err).Warn("failed to seed demo data")
		}
	}

	loc := cfg.App.Location()
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.App.Name,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)
	locker := newLocker(ctx, cfg.Redis, log)

	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
	})
	if !emailService.Enabled() {
		log.Info("SMTP_HOST not set, payment confirmation emails are disabled")
	}

	gateway := payment.NewMidtransGateway(cfg.Midtrans)
	if cfg.Midtrans.ServerKey == "" {
		log.Warn("MIDTRANS_SERVER_KEY not set, digital payments and webhooks will be rejected")
	}

	thermalPrinter, err := printer.New(cfg.Printer.Type, cfg.Printer.USBPath, cfg.Printer.Address)
	if err != nil {
		log.WithError(err).Warn("failed to initialize printer, receipts will not be printed")
		thermalPrinter = printer.Discard{}
	}

	// Services
	ledger := service.NewInventoryLedger(repos.products)
	authService := service.NewAuthService(repos.users, jwtManager, log)
	productService := service.NewProductService(repos.products, repos.categories, ledger)
	customerService := service.NewCustomerService(repos.customers)
	supplierService := service.NewSupplierService(repos.suppliers)
	saleService := service.NewSaleService(repos.tx, repos.sales, repos.products, repos.customers, ledger,
		service.NewInvoiceGenerator(service.InvoicePrefixSale, cfg.Invoice, loc), log)
	paymentService := service.NewPaymentService(repos.tx, repos.sales, repos.payments, gateway,
		cfg.Midtrans.ServerKey, locker, emailService, log)
	shiftService := service.NewShiftService(repos.tx, repos.shifts, repos.sales, locker, log)
	purchaseService := service.NewPurchaseService(repos.tx, repos.purchaseOrders, repos.products, repos.suppliers, ledger,
		service.NewInvoiceGenerator(service.InvoicePrefixPurchase, cfg.Invoice, loc), log)
	receiptService := service.NewReceiptService(thermalPrinter, repos.sales, entity.ReceiptHeader{
		StoreName: cfg.Printer.StoreName,
		Address:   cfg.Printer.StoreAddress,
		Phone:     cfg.Printer.StorePhone,
	}, cfg.Printer.PaperWidth, loc, log)

	handlers := &routes.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Product:  handler.NewProductHandler(productService),
		Customer: handler.NewCustomerHandler(customerService),
		Supplier: handler.NewSupplierHandler(supplierService),
		Sale:     handler.NewSaleHandler(saleService, paymentService, receiptService),
		Payment:  handler.NewPaymentHandler(paymentService, log),
		Shift:    handler.NewShiftHandler(shiftService),
		Purchase: handler.NewPurchaseHandler(purchaseService),
		Printer:  handler.NewPrinterHandler(receiptService),
	}

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfigFrom(cfg.RateLimit.Requests, cfg.RateLimit.Duration))
	go rateLimiter.Run(ctx)
	go purgeIdempotencyKeys(ctx, repos.idempotency, log)

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		Log:             log,
		IdempotencyRepo: repos.idempotency,
		Locker:          locker,
		RateLimiter:     rateLimiter,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": port, "env": cfg.App.Env}).Infof("starting %s", cfg.App.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
