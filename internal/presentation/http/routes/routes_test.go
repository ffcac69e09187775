package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/application/service"
	"github.com/sangkips/kopi-pos/internal/config"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/sangkips/kopi-pos/internal/infrastructure/memory"
	"github.com/sangkips/kopi-pos/internal/infrastructure/payment"
	"github.com/sangkips/kopi-pos/internal/presentation/http/handler"
	"github.com/sangkips/kopi-pos/internal/presentation/http/middleware"
	"github.com/sangkips/kopi-pos/internal/presentation/http/routes"
	"github.com/sangkips/kopi-pos/pkg/email"
	"github.com/sangkips/kopi-pos/pkg/lock"
	"github.com/sangkips/kopi-pos/pkg/printer"
	"github.com/sangkips/kopi-pos/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverKey = "server-key"

type stubGateway struct{}

func (stubGateway) Charge(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	return &payment.ChargeResult{
		OrderID:           req.OrderID,
		TransactionID:     "trx-" + req.OrderID,
		TransactionStatus: "pending",
		PaymentType:       string(req.Method),
	}, nil
}

func (stubGateway) Status(_ context.Context, orderID string) (*payment.Notification, error) {
	return &payment.Notification{OrderID: orderID, TransactionStatus: "pending"}, nil
}

type app struct {
	router  *gin.Engine
	store   *memory.Store
	admin   string
	cashier string
	latte   *entity.Product
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	log, _ := test.NewNullLogger()
	jwt := utils.NewJWTManager("test-secret", "kopi-pos", time.Hour, 24*time.Hour)
	invoices := config.InvoiceConfig{MaxAttempts: 10, BaseBackoff: time.Microsecond}
	locker := lock.NewLocalLocker()

	ledger := service.NewInventoryLedger(store.Products())
	sales := service.NewSaleService(store.Transactor(), store.Sales(), store.Products(), store.Customers(), ledger,
		service.NewInvoiceGenerator(service.InvoicePrefixSale, invoices, time.UTC), log)
	payments := service.NewPaymentService(store.Transactor(), store.Sales(), store.Payments(), stubGateway{},
		serverKey, locker, email.NewEmailService(email.EmailConfig{}), log)
	receipts := service.NewReceiptService(printer.Discard{}, store.Sales(), entity.ReceiptHeader{StoreName: "Kopi"}, 32, time.UTC, log)

	handlers := &routes.Handlers{
		Auth:     handler.NewAuthHandler(service.NewAuthService(store.Users(), jwt, log)),
		Product:  handler.NewProductHandler(service.NewProductService(store.Products(), store.Categories(), ledger)),
		Customer: handler.NewCustomerHandler(service.NewCustomerService(store.Customers())),
		Supplier: handler.NewSupplierHandler(service.NewSupplierService(store.Suppliers())),
		Sale:     handler.NewSaleHandler(sales, payments, receipts),
		Payment:  handler.NewPaymentHandler(payments, log),
		Shift:    handler.NewShiftHandler(service.NewShiftService(store.Transactor(), store.Shifts(), store.Sales(), locker, log)),
		Purchase: handler.NewPurchaseHandler(service.NewPurchaseService(store.Transactor(), store.PurchaseOrders(), store.Products(),
			store.Suppliers(), ledger, service.NewInvoiceGenerator(service.InvoicePrefixPurchase, invoices, time.UTC), log)),
		Printer: handler.NewPrinterHandler(receipts),
	}

	a := &app{store: store}
	a.router = routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwt,
		Cfg:             &config.Config{App: config.AppConfig{Name: "kopi-pos"}},
		Log:             log,
		IdempotencyRepo: store.Idempotency(),
		Locker:          locker,
		RateLimiter:     middleware.NewRateLimiter(middleware.RateLimiterConfigFrom(1000, 1)),
	})

	a.admin = a.token(t, jwt, "admin@kopi.test", enum.RoleAdmin)
	a.cashier = a.token(t, jwt, "kasir@kopi.test", enum.RoleCashier)

	a.latte = &entity.Product{
		SKU:     "KP-LATTE",
		Name:    "Latte",
		Price:   decimal.NewFromInt(10000),
		TaxRate: decimal.RequireFromString("0.11"),
		Stock:   10,
		Active:  true,
	}
	require.NoError(t, store.Products().Create(context.Background(), a.latte))
	return a
}

func (a *app) token(t *testing.T, jwt *utils.JWTManager, addr string, role enum.Role) string {
	t.Helper()
	user := &entity.User{Name: addr, Email: addr, Password: "x", Role: role, Active: true}
	require.NoError(t, a.store.Users().Create(context.Background(), user))
	token, err := jwt.GenerateAccessToken(user.ID, user.Email, string(role))
	require.NoError(t, err)
	return token
}

func (a *app) do(method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *app) stock(t *testing.T) int {
	t.Helper()
	p, err := a.store.Products().GetByID(context.Background(), a.latte.ID)
	require.NoError(t, err)
	return p.Stock
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func saleID(t *testing.T, w *httptest.ResponseRecorder) uuid.UUID {
	t.Helper()
	var sale struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &sale))
	return sale.ID
}

func (a *app) cart(method string, qty int, paid int64) gin.H {
	return gin.H{
		"payment_type": method,
		"paid":         paid,
		"items":        []gin.H{{"product_id": a.latte.ID, "quantity": qty}},
	}
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	w := a.do(http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthAndRoles(t *testing.T) {
	a := newApp(t)

	w := a.do(http.MethodGet, "/api/v1/products", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/v1/products", "not-a-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/v1/products", a.cashier, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	product := gin.H{"name": "Mocha", "sku": "KP-MOCHA", "price": 25000, "stock": 5}
	w = a.do(http.MethodPost, "/api/v1/products", a.cashier, product, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodPost, "/api/v1/products", a.admin, product, nil)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/api/v1/sales", a.cashier, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(http.MethodGet, "/api/v1/sales/mine", a.cashier, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateSale(t *testing.T) {
	a := newApp(t)

	w := a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("cash", 2, 25000), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var sale struct {
		Total  decimal.Decimal `json:"total"`
		Change decimal.Decimal `json:"change"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &sale))
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(22200)), sale.Total.String())
	assert.True(t, sale.Change.Equal(decimal.NewFromInt(2800)), sale.Change.String())
	assert.Equal(t, 8, a.stock(t))

	w = a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("cash", 2, 20000), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, 8, a.stock(t))

	w = a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("cash", 50, 10000000), nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, 8, a.stock(t))
}

func TestCreateSaleIdempotencyKey(t *testing.T) {
	a := newApp(t)
	key := map[string]string{middleware.IdempotencyKeyHeader: "checkout-1"}

	first := a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("cash", 2, 25000), key)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("cash", 2, 25000), key)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, saleID(t, first), saleID(t, second))
	assert.Equal(t, 8, a.stock(t))

	w := a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("cash", 1, 25000), key)
	assert.Equal(t, http.StatusConflict, w.Code)

	// keys are scoped per user
	w = a.do(http.MethodPost, "/api/v1/sales", a.admin, a.cart("cash", 2, 25000), key)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 6, a.stock(t))
}

func TestFailedSaleDoesNotConsumeIdempotencyKey(t *testing.T) {
	a := newApp(t)
	key := map[string]string{middleware.IdempotencyKeyHeader: "checkout-2"}

	w := a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("cash", 2, 20000), key)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("cash", 2, 20000), key)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, w.Header().Get("X-Idempotency-Replayed"))
}

func TestConcurrentRetriesCreateOneSale(t *testing.T) {
	a := newApp(t)
	key := map[string]string{middleware.IdempotencyKeyHeader: "checkout-3"}

	var wg sync.WaitGroup
	results := make([]*httptest.ResponseRecorder, 4)
	for i := range results {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			results[i] = a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("cash", 2, 25000), key)
		}()
	}
	wg.Wait()

	var replayed int
	for _, w := range results {
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, saleID(t, results[0]), saleID(t, w))
		if w.Header().Get("X-Idempotency-Replayed") == "true" {
			replayed++
		}
	}
	assert.Equal(t, len(results)-1, replayed)
	assert.Equal(t, 8, a.stock(t))
}

func TestChargeKeyIsScopedToSale(t *testing.T) {
	a := newApp(t)
	key := map[string]string{middleware.IdempotencyKeyHeader: "charge-1"}

	charge := func(id uuid.UUID, headers map[string]string) *httptest.ResponseRecorder {
		return a.do(http.MethodPost, "/api/v1/sales/"+id.String()+"/charge", a.cashier, nil, headers)
	}
	orderID := func(w *httptest.ResponseRecorder) string {
		var res payment.ChargeResult
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
		return res.OrderID
	}

	w := a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("qris", 1, 0), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := saleID(t, w)
	w = a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("qris", 1, 0), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	second := saleID(t, w)

	w = charge(first, key)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	firstOrder := orderID(w)

	retry := charge(first, key)
	require.Equal(t, http.StatusCreated, retry.Code)
	assert.Equal(t, "true", retry.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, firstOrder, orderID(retry))

	w = charge(second, key)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Empty(t, w.Header().Get("X-Idempotency-Replayed"))

	w = charge(second, map[string]string{middleware.IdempotencyKeyHeader: "charge-2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEqual(t, firstOrder, orderID(w))

	p, err := a.store.Payments().GetBySaleID(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, *p.Reference, orderID(w))
}

func TestChargeRequiresIdempotencyKey(t *testing.T) {
	a := newApp(t)
	w := a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("qris", 1, 0), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/v1/sales/"+saleID(t, w).String()+"/charge", a.cashier, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentWebhook(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	w := a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("qris", 2, 0), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := saleID(t, w)

	p, err := a.store.Payments().GetBySaleID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p.Reference)
	assert.Equal(t, enum.PaymentStatusPending, p.Status)

	n := payment.Notification{
		OrderID:           *p.Reference,
		StatusCode:        "200",
		GrossAmount:       "22200.00",
		TransactionStatus: "settlement",
		TransactionID:     "trx-1",
		PaymentType:       "qris",
	}

	forged := n
	forged.SignatureKey = payment.Signature(n.OrderID, n.StatusCode, n.GrossAmount, "wrong-key")
	w = a.do(http.MethodPost, "/api/v1/payments/webhook", "", forged, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid signature"}`, w.Body.String())

	n.SignatureKey = payment.Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	for i := 0; i < 2; i++ {
		w = a.do(http.MethodPost, "/api/v1/payments/webhook", "", n, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
	}

	p, err = a.store.Payments().GetBySaleID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusCompleted, p.Status)
	assert.Equal(t, 8, a.stock(t))

	unknown := n
	unknown.OrderID = "INV-19700101-0000-1"
	unknown.SignatureKey = payment.Signature(unknown.OrderID, n.StatusCode, n.GrossAmount, serverKey)
	w = a.do(http.MethodPost, "/api/v1/payments/webhook", "", unknown, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShiftFlow(t *testing.T) {
	a := newApp(t)

	w := a.do(http.MethodPost, "/api/v1/shifts/open", a.cashier, gin.H{"opening_cash": 100000}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var shift struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &shift))

	w = a.do(http.MethodPost, "/api/v1/shifts/open", a.cashier, gin.H{"opening_cash": 100000}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("cash", 1, 50000), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(http.MethodPost, "/api/v1/shifts/"+shift.ID.String()+"/close", a.cashier, gin.H{"closing_cash": 150000}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/api/v1/shifts/"+shift.ID.String()+"/summary", a.cashier, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary service.ShiftSummary
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &summary))
	assert.True(t, summary.Summary.ExpectedCash.Equal(decimal.NewFromInt(150000)), summary.Summary.ExpectedCash.String())
	assert.True(t, summary.Summary.Difference.IsZero())

	w = a.do(http.MethodGet, "/api/v1/shifts/not-a-uuid/summary", a.cashier, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrintReceiptWithoutPrinter(t *testing.T) {
	a := newApp(t)
	w := a.do(http.MethodPost, "/api/v1/sales", a.cashier, a.cart("cash", 1, 20000), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(http.MethodPost, "/api/v1/sales/"+saleID(t, w).String()+"/receipt", a.cashier, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Printed bool           `json:"printed"`
		Receipt entity.Receipt `json:"receipt"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &body))
	assert.False(t, body.Printed)
	assert.Equal(t, "Rp 11.100", body.Receipt.Total)
}
