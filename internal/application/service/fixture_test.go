package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kopi-pos/internal/config"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/sangkips/kopi-pos/internal/infrastructure/memory"
	"github.com/sangkips/kopi-pos/internal/infrastructure/payment"
	"github.com/sangkips/kopi-pos/pkg/email"
	"github.com/sangkips/kopi-pos/pkg/lock"
	"github.com/sangkips/kopi-pos/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const testServerKey = "SB-Mid-server-test"

type fakeGateway struct {
	mu      sync.Mutex
	charges []payment.ChargeRequest
	status  *payment.Notification
	err     error
}

func (g *fakeGateway) Charge(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.charges = append(g.charges, req)
	return &payment.ChargeResult{
		OrderID:           req.OrderID,
		TransactionID:     "trx-" + req.OrderID,
		TransactionStatus: "pending",
		PaymentType:       string(req.Method),
		QRString:          "00020101021226",
	}, nil
}

func (g *fakeGateway) Status(_ context.Context, orderID string) (*payment.Notification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	n := *g.status
	n.OrderID = orderID
	return &n, nil
}

type sentMail struct {
	to   string
	data email.PaymentConfirmation
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
}

func (n *fakeNotifier) Enabled() bool { return true }

func (n *fakeNotifier) SendPaymentConfirmation(to string, data email.PaymentConfirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{to: to, data: data})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fixture struct {
	store    *memory.Store
	log      *logrus.Logger
	hook     *test.Hook
	gateway  *fakeGateway
	notifier *fakeNotifier

	ledger    *InventoryLedger
	sales     *SaleService
	payments  *PaymentService
	shifts    *ShiftService
	purchases *PurchaseService
	products  *ProductService
	customers *CustomerService
	auth      *AuthService

	admin   *Actor
	cashier *Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	log, hook := test.NewNullLogger()
	cfg := config.InvoiceConfig{MaxAttempts: 10, BaseBackoff: time.Microsecond}
	locker := lock.NewLocalLocker()

	f := &fixture{
		store:    store,
		log:      log,
		hook:     hook,
		gateway:  &fakeGateway{status: &payment.Notification{TransactionStatus: "pending"}},
		notifier: &fakeNotifier{},
	}
	f.ledger = NewInventoryLedger(store.Products())
	f.sales = NewSaleService(store.Transactor(), store.Sales(), store.Products(), store.Customers(),
		f.ledger, NewInvoiceGenerator(InvoicePrefixSale, cfg, time.UTC), log)
	f.payments = NewPaymentService(store.Transactor(), store.Sales(), store.Payments(),
		f.gateway, testServerKey, locker, f.notifier, log)
	f.shifts = NewShiftService(store.Transactor(), store.Shifts(), store.Sales(), locker, log)
	f.purchases = NewPurchaseService(store.Transactor(), store.PurchaseOrders(), store.Products(), store.Suppliers(),
		f.ledger, NewInvoiceGenerator(InvoicePrefixPurchase, cfg, time.UTC), log)
	f.products = NewProductService(store.Products(), store.Categories(), f.ledger)
	f.customers = NewCustomerService(store.Customers())
	f.auth = NewAuthService(store.Users(), utils.NewJWTManager("test-secret", "kopi-pos", time.Hour, 24*time.Hour), log)

	f.admin = f.addUser(t, "admin@kopi.test", enum.RoleAdmin)
	f.cashier = f.addUser(t, "kasir@kopi.test", enum.RoleCashier)
	return f
}

func (f *fixture) addUser(t *testing.T, email string, role enum.Role) *Actor {
	t.Helper()
	user := &entity.User{Name: email, Email: email, Password: "x", Role: role, Active: true}
	require.NoError(t, f.store.Users().Create(context.Background(), user))
	return &Actor{UserID: user.ID, Role: role}
}

func (f *fixture) addProduct(t *testing.T, name, price string, stock int) *entity.Product {
	t.Helper()
	p := &entity.Product{
		SKU:     "SKU-" + uuid.NewString()[:8],
		Name:    name,
		Price:   decimal.RequireFromString(price),
		TaxRate: DefaultTaxRate,
		Stock:   stock,
		Active:  true,
	}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
	return p
}

func (f *fixture) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
