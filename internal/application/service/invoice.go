package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sangkips/kopi-pos/internal/config"
	"github.com/sangkips/kopi-pos/pkg/apperror"
)

const (
	InvoicePrefixSale     = "INV"
	InvoicePrefixPurchase = "PO"

	// invoiceSpace is the number of NNNN values per prefix and day.
	invoiceSpace = 10000
)

// InvoiceExistsFunc reports whether a code is already persisted.
type InvoiceExistsFunc func(ctx context.Context, code string) (bool, error)

// InvoiceGenerator produces {PREFIX}-{YYYYMMDD}-{NNNN} codes. The date is taken in
// the business timezone and NNNN is random, so a code is only unique once the
// caller's persistence layer accepts it.
type InvoiceGenerator struct {
	prefix      string
	loc         *time.Location
	maxAttempts int
	baseBackoff time.Duration

	now    func() time.Time
	random func() int
}

func NewInvoiceGenerator(prefix string, cfg config.InvoiceConfig, loc *time.Location) *InvoiceGenerator {
	if loc == nil {
		loc = time.UTC
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 10
	}
	return &InvoiceGenerator{
		prefix:      prefix,
		loc:         loc,
		maxAttempts: attempts,
		baseBackoff: cfg.BaseBackoff,
		now:         time.Now,
		random:      func() int { return rand.Intn(invoiceSpace) },
	}
}

func (g *InvoiceGenerator) Prefix() string {
	return g.prefix
}

// MaxAttempts bounds both candidate generation and insert retries.
func (g *InvoiceGenerator) MaxAttempts() int {
	return g.maxAttempts
}

// Format renders a code for t and sequence n.
func (g *InvoiceGenerator) Format(t time.Time, n int) string {
	return fmt.Sprintf("%s-%s-%04d", g.prefix, t.In(g.loc).Format("20060102"), n%invoiceSpace)
}

// Next returns a code that exists reports as unused. Up to MaxAttempts random
// candidates are tried with exponential backoff. After that the day's sequence
// space is walked from a random offset, so InvoiceExhausted is returned only
// when every NNNN for the day is taken.
func (g *InvoiceGenerator) Next(ctx context.Context, exists InvoiceExistsFunc) (string, error) {
	now := g.now()
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := g.backoff(ctx, attempt); err != nil {
				return "", err
			}
		}

		code, ok, err := g.try(ctx, exists, now, g.random())
		if err != nil || ok {
			return code, err
		}
	}

	start := g.random()
	for i := 0; i < invoiceSpace; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}
		code, ok, err := g.try(ctx, exists, now, (start+i)%invoiceSpace)
		if err != nil || ok {
			return code, err
		}
	}
	return "", apperror.NewInvoiceExhaustedError(g.prefix, g.maxAttempts)
}

func (g *InvoiceGenerator) try(ctx context.Context, exists InvoiceExistsFunc, now time.Time, n int) (string, bool, error) {
	code := g.Format(now, n)
	taken, err := exists(ctx, code)
	if err != nil {
		return "", false, apperror.Persistence(err)
	}
	return code, !taken, nil
}

func (g *InvoiceGenerator) backoff(ctx context.Context, attempt int) error {
	if g.baseBackoff <= 0 {
		return ctx.Err()
	}
	wait := g.baseBackoff << min(attempt-2, 6)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
