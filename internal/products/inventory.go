package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/srejanashetty/efarm-backend/pkg/db/models"
)

// Inventory adapts the product repository to the order service's stock
// ledger. Every call runs on the caller's transaction.
type Inventory struct {
	repo *Repository
}

func NewInventory(repo *Repository) *Inventory {
	return &Inventory{repo: repo}
}

func (i *Inventory) Product(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	return i.repo.WithTx(tx).FindByID(ctx, productID)
}

func (i *Inventory) Decrement(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	return i.repo.WithTx(tx).DecrementStock(ctx, productID, qty)
}

func (i *Inventory) Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	return i.repo.WithTx(tx).RestoreStock(ctx, productID, qty)
}
