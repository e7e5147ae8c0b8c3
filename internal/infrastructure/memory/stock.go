package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rigsync/backend/internal/domain"
)

type stockKey struct {
	userID, companyID, productID uuid.UUID
}

// StockStore keeps one stock record per (user, company, product)
type StockStore struct {
	records map[stockKey]domain.StockRecord
	mutex   sync.RWMutex
}

func NewStockStore() *StockStore {
	return &StockStore{records: make(map[stockKey]domain.StockRecord)}
}

func (s *StockStore) FindStock(ctx context.Context, userID, companyID, productID uuid.UUID) (*domain.StockRecord, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, ok := s.records[stockKey{userID, companyID, productID}]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	return copyStock(record), nil
}

func (s *StockStore) CreateStock(ctx context.Context, record *domain.StockRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := stockKey{record.UserID, record.CompanyID, record.ProductID}
	if _, exists := s.records[key]; exists {
		return domain.ErrDuplicateKey
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.records[key] = *copyStock(*record)
	return nil
}

func (s *StockStore) UpdateStock(ctx context.Context, record *domain.StockRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := stockKey{record.UserID, record.CompanyID, record.ProductID}
	if _, exists := s.records[key]; !exists {
		return domain.ErrStockNotFound
	}
	s.records[key] = *copyStock(*record)
	return nil
}

// restore puts back record under key, or drops the key when record is nil
func (s *StockStore) restore(key stockKey, record *domain.StockRecord) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if record == nil {
		delete(s.records, key)
		return
	}
	s.records[key] = *copyStock(*record)
}

// copyStock detaches the price pointer from the caller's value
func copyStock(record domain.StockRecord) *domain.StockRecord {
	if record.Price != nil {
		price := *record.Price
		record.Price = &price
	}
	return &record
}
