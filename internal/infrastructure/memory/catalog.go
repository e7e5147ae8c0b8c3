package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rigsync/backend/internal/domain"
)

// CatalogStore is a thread-safe in-memory catalog kept in insertion order
type CatalogStore struct {
	products []domain.CatalogProduct
	index    map[uuid.UUID]int
	mutex    sync.RWMutex
}

// NewCatalogStore creates a catalog seeded with products. Two seeds with the
// same id are rejected.
func NewCatalogStore(products ...domain.CatalogProduct) (*CatalogStore, error) {
	s := &CatalogStore{index: make(map[uuid.UUID]int)}
	for i := range products {
		if err := s.add(&products[i]); err != nil {
			return nil, fmt.Errorf("failed to seed product %s: %w", products[i].ID, err)
		}
	}
	return s, nil
}

func (s *CatalogStore) ListProducts(ctx context.Context) ([]domain.CatalogProduct, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]domain.CatalogProduct(nil), s.products...), nil
}

func (s *CatalogStore) FindProductByID(ctx context.Context, id uuid.UUID) (*domain.CatalogProduct, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	idx, ok := s.index[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	p := s.products[idx]
	return &p, nil
}

func (s *CatalogStore) FindProductsByIdentifierCode(ctx context.Context, code string) ([]domain.CatalogProduct, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var out []domain.CatalogProduct
	for _, p := range s.products {
		if p.IdentifierCode == code {
			out = append(out, p)
		}
	}
	return out, nil
}

// MaxIdentifierSuffix ignores codes that are not PSM plus digits
func (s *CatalogStore) MaxIdentifierSuffix(ctx context.Context) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	highest := 0
	for _, p := range s.products {
		if n, ok := domain.ParseIdentifierCode(p.IdentifierCode); ok && n > highest {
			highest = n
		}
	}
	return highest, nil
}

// CreateProduct assigns an id when none is set
func (s *CatalogStore) CreateProduct(ctx context.Context, product *domain.CatalogProduct) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.add(product)
}

func (s *CatalogStore) add(product *domain.CatalogProduct) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if _, exists := s.index[product.ID]; exists {
		return domain.ErrDuplicateKey
	}
	s.index[product.ID] = len(s.products)
	s.products = append(s.products, *product)
	return nil
}

func (s *CatalogStore) remove(id uuid.UUID) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	idx, ok := s.index[id]
	if !ok {
		return
	}
	s.products = append(s.products[:idx], s.products[idx+1:]...)
	delete(s.index, id)
	for i := idx; i < len(s.products); i++ {
		s.index[s.products[i].ID] = i
	}
}
