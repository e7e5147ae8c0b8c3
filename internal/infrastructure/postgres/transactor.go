package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/rigsync/backend/internal/domain"
)

// Transactor implements domain.Transactor with a database transaction. The
// repositories handed to fn share it, so their writes commit together.
type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores domain.Stores) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, domain.Stores{
			Catalog:  NewCatalogRepository(tx),
			Stock:    NewStockRepository(tx),
			Sessions: NewSessionRepository(tx),
		})
	})
}
