package usecase

import (
	"context"
	"fmt"

	"github.com/rigsync/backend/internal/domain"
)

// identifierCodeLockKey guards the read-max-then-insert sequence
const identifierCodeLockKey = "catalog:identifier_code"

// CodeAllocator creates catalog products with the next free identifier code.
// CreateWithNextCode is the only place codes are allocated.
type CodeAllocator struct {
	locker domain.Locker
}

func NewCodeAllocator(locker domain.Locker) *CodeAllocator {
	return &CodeAllocator{locker: locker}
}

// Lock takes the allocation lock. It must be held until the transaction that
// stores the new product has committed.
func (a *CodeAllocator) Lock(ctx context.Context) (func(), error) {
	release, err := a.locker.Lock(ctx, identifierCodeLockKey)
	if err != nil {
		return nil, fmt.Errorf("failed to lock identifier codes: %w", err)
	}
	return release, nil
}

// CreateWithNextCode assigns PSM(max+1) to product and stores it through
// catalog. The caller holds the allocation lock.
func (a *CodeAllocator) CreateWithNextCode(ctx context.Context, catalog domain.CatalogRepository, product *domain.CatalogProduct) error {
	maxSuffix, err := catalog.MaxIdentifierSuffix(ctx)
	if err != nil {
		return fmt.Errorf("failed to read highest identifier code: %w", err)
	}

	product.IdentifierCode = domain.FormatIdentifierCode(maxSuffix + 1)
	if err := catalog.CreateProduct(ctx, product); err != nil {
		return fmt.Errorf("failed to create product %s: %w", product.IdentifierCode, err)
	}
	return nil
}
