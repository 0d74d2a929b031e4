package products

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/andreshoyos/gymdesk-backend/pkg/db/models"
	"github.com/andreshoyos/gymdesk-backend/pkg/enums"
)

func mustCreateProduct(t *testing.T, tx *gorm.DB, name string, stock int, status enums.ProductStatus) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		Name:      name,
		UnitPrice: decimal.RequireFromString("10.00"),
		Stock:     stock,
		Status:    status,
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create test product: %v", err)
	}
	return product
}

func TestRepositoryCatalogFlow(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	active := mustCreateProduct(t, tx, "Protein Bar", 5, enums.ProductStatusActive)
	mustCreateProduct(t, tx, "Retired Shaker", 3, enums.ProductStatusInactive)

	list, err := repo.ListActive(ctx, "")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	for _, row := range list {
		if row.Status != enums.ProductStatusActive {
			t.Fatalf("inactive product leaked into active list: %+v", row)
		}
	}

	filtered, err := repo.ListActive(ctx, "protein")
	if err != nil {
		t.Fatalf("list active with query: %v", err)
	}
	found := false
	for _, row := range filtered {
		if row.ID == active.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected case-insensitive name match")
	}

	fetched, err := repo.FindByID(ctx, active.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if !fetched.UnitPrice.Equal(active.UnitPrice) {
		t.Fatalf("unexpected unit price: %s", fetched.UnitPrice)
	}
}

func TestRepositoryAdjustStockGuard(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	product := mustCreateProduct(t, tx, "Towel", 2, enums.ProductStatusActive)

	if err := repo.AdjustStock(ctx, tx, product.ID, -2); err != nil {
		t.Fatalf("adjust stock: %v", err)
	}

	err := repo.AdjustStock(ctx, tx, product.ID, -1)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected guard to reject negative stock, got %v", err)
	}

	fetched, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", fetched.Stock)
	}
}
