package database

import (
	"context"
	"fmt"

	"github.com/sangkips/kopi-pos/internal/config"
	"github.com/sangkips/kopi-pos/internal/domain/entity"
	"github.com/sangkips/kopi-pos/internal/domain/enum"
	"github.com/sangkips/kopi-pos/internal/domain/repository"
	"github.com/sangkips/kopi-pos/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ppn = decimal.RequireFromString("0.11")

// Seeder creates bootstrap data through the repositories so it works for
// every storage driver.
type Seeder struct {
	Users      repository.UserRepository
	Categories repository.CategoryRepository
	Products   repository.ProductRepository
	Log        *logrus.Logger
}

// SeedAdmin creates the configured admin account unless it already exists.
func (s *Seeder) SeedAdmin(ctx context.Context, cfg config.SeedConfig) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		s.Log.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}
	return s.seedUser(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword, enum.RoleAdmin)
}

func (s *Seeder) seedUser(ctx context.Context, name, email, password string, role enum.Role) error {
	existing, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("look up %s: %w", email, err)
	}
	if existing != nil {
		return nil
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &entity.User{Name: name, Email: email, Password: hashed, Role: role, Active: true}
	if err := s.Users.Create(ctx, user); err != nil {
		return fmt.Errorf("create %s: %w", email, err)
	}
	s.Log.WithFields(logrus.Fields{"email": email, "role": role}).Info("seeded user")
	return nil
}

// SeedDemo adds a cashier and a small menu. Used with the in-memory driver so a
// fresh process is usable straight away.
func (s *Seeder) SeedDemo(ctx context.Context) error {
	if err := s.seedUser(ctx, "Kasir", "kasir@kopi.local", "kasir12345", enum.RoleCashier); err != nil {
		return err
	}

	categories, err := s.Categories.List(ctx)
	if err != nil {
		return err
	}
	if len(categories) > 0 {
		return nil
	}

	menu := []struct {
		category string
		items    []entity.Product
	}{
		{"Kopi", []entity.Product{
			{SKU: "KP-001", Name: "Espresso", Price: decimal.NewFromInt(15000)},
			{SKU: "KP-002", Name: "Kopi Susu Gula Aren", Price: decimal.NewFromInt(18000)},
			{SKU: "KP-003", Name: "Cafe Latte", Price: decimal.NewFromInt(20000)},
		}},
		{"Makanan", []entity.Product{
			{SKU: "MK-001", Name: "Croissant", Price: decimal.NewFromInt(22000)},
			{SKU: "MK-002", Name: "Roti Bakar", Price: decimal.NewFromInt(17000)},
		}},
	}

	for _, group := range menu {
		category := &entity.Category{Name: group.category}
		if err := s.Categories.Create(ctx, category); err != nil {
			return fmt.Errorf("create category %s: %w", group.category, err)
		}
		for i := range group.items {
			p := group.items[i]
			p.CategoryID = &category.ID
			p.TaxRate = ppn
			p.Stock = 50
			p.Active = true
			if err := s.Products.Create(ctx, &p); err != nil {
				return fmt.Errorf("create product %s: %w", p.SKU, err)
			}
		}
	}
	s.Log.Info("seeded demo menu")
	return nil
}
