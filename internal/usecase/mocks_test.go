package usecase

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/rigsync/backend/internal/domain"
)

// MockCatalogRepository is a mock implementation of domain.CatalogRepository
type MockCatalogRepository struct {
	products  []domain.CatalogProduct
	listError error
}

func NewMockCatalogRepository(products ...domain.CatalogProduct) *MockCatalogRepository {
	return &MockCatalogRepository{products: products}
}

func (m *MockCatalogRepository) ListProducts(ctx context.Context) ([]domain.CatalogProduct, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return append([]domain.CatalogProduct(nil), m.products...), nil
}

func (m *MockCatalogRepository) FindProductByID(ctx context.Context, id uuid.UUID) (*domain.CatalogProduct, error) {
	for _, p := range m.products {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (m *MockCatalogRepository) FindProductsByIdentifierCode(ctx context.Context, code string) ([]domain.CatalogProduct, error) {
	var out []domain.CatalogProduct
	for _, p := range m.products {
		if p.IdentifierCode == code {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockCatalogRepository) MaxIdentifierSuffix(ctx context.Context) (int, error) {
	highest := 0
	for _, p := range m.products {
		if n, ok := domain.ParseIdentifierCode(p.IdentifierCode); ok && n > highest {
			highest = n
		}
	}
	return highest, nil
}

func (m *MockCatalogRepository) CreateProduct(ctx context.Context, product *domain.CatalogProduct) error {
	m.products = append(m.products, *product)
	return nil
}

type stockKey struct {
	user, company, product uuid.UUID
}

// MockStockRepository is a mock implementation of domain.StockRepository
type MockStockRepository struct {
	records map[stockKey]domain.StockRecord
	// writeError fails writes for failProduct, or for every product when unset
	failProduct uuid.UUID
	writeError  error
}

func NewMockStockRepository() *MockStockRepository {
	return &MockStockRepository{records: make(map[stockKey]domain.StockRecord)}
}

func (m *MockStockRepository) FindStock(ctx context.Context, userID, companyID, productID uuid.UUID) (*domain.StockRecord, error) {
	record, ok := m.records[stockKey{userID, companyID, productID}]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	return &record, nil
}

func (m *MockStockRepository) CreateStock(ctx context.Context, record *domain.StockRecord) error {
	if m.writeError != nil && (m.failProduct == uuid.Nil || record.ProductID == m.failProduct) {
		return m.writeError
	}
	m.records[stockKey{record.UserID, record.CompanyID, record.ProductID}] = *record
	return nil
}

func (m *MockStockRepository) UpdateStock(ctx context.Context, record *domain.StockRecord) error {
	return m.CreateStock(ctx, record)
}

func (m *MockStockRepository) get(userID, companyID, productID uuid.UUID) (domain.StockRecord, bool) {
	record, ok := m.records[stockKey{userID, companyID, productID}]
	return record, ok
}

// MockSessionRepository is a mock implementation of domain.SessionRepository
type MockSessionRepository struct {
	sessions   map[uuid.UUID]domain.ImportSession
	rows       map[uuid.UUID][]domain.ImportRow
	candidates map[uuid.UUID][]domain.MatchCandidate

	updateRowError error
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		sessions:   make(map[uuid.UUID]domain.ImportSession),
		rows:       make(map[uuid.UUID][]domain.ImportRow),
		candidates: make(map[uuid.UUID][]domain.MatchCandidate),
	}
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, session *domain.ImportSession) error {
	m.sessions[session.ID] = *session
	return nil
}

func (m *MockSessionRepository) FindSession(ctx context.Context, id uuid.UUID) (*domain.ImportSession, error) {
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (m *MockSessionRepository) UpdateSession(ctx context.Context, session *domain.ImportSession) error {
	if _, ok := m.sessions[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	m.sessions[session.ID] = *session
	return nil
}

func (m *MockSessionRepository) ReplaceRows(ctx context.Context, sessionID uuid.UUID, rows []domain.ImportRow) error {
	for _, old := range m.rows[sessionID] {
		delete(m.candidates, old.ID)
	}
	stored := make([]domain.ImportRow, len(rows))
	for i, row := range rows {
		row.Candidates = nil
		stored[i] = row
	}
	m.rows[sessionID] = stored
	return nil
}

func (m *MockSessionRepository) ListRows(ctx context.Context, sessionID uuid.UUID) ([]domain.ImportRow, error) {
	return append([]domain.ImportRow(nil), m.rows[sessionID]...), nil
}

func (m *MockSessionRepository) UpdateRow(ctx context.Context, row *domain.ImportRow) error {
	if m.updateRowError != nil {
		return m.updateRowError
	}
	rows := m.rows[row.SessionID]
	for i := range rows {
		if rows[i].ID == row.ID {
			updated := *row
			updated.Candidates = nil
			rows[i] = updated
			return nil
		}
	}
	return domain.ErrRowNotFound
}

func (m *MockSessionRepository) ReplaceCandidates(ctx context.Context, rowID uuid.UUID, candidates []domain.MatchCandidate) error {
	m.candidates[rowID] = append([]domain.MatchCandidate(nil), candidates...)
	return nil
}

func (m *MockSessionRepository) ListCandidates(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID][]domain.MatchCandidate, error) {
	out := make(map[uuid.UUID][]domain.MatchCandidate)
	for _, row := range m.rows[sessionID] {
		if c, ok := m.candidates[row.ID]; ok {
			out[row.ID] = c
		}
	}
	return out, nil
}

// MockTransactor is a mock implementation of domain.Transactor. It restores
// the mock stores to their state before fn when fn fails.
type MockTransactor struct {
	catalog  *MockCatalogRepository
	stock    *MockStockRepository
	sessions *MockSessionRepository

	commits   int
	rollbacks int
}

func NewMockTransactor(catalog *MockCatalogRepository, stock *MockStockRepository, sessions *MockSessionRepository) *MockTransactor {
	return &MockTransactor{catalog: catalog, stock: stock, sessions: sessions}
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores domain.Stores) error) error {
	products := slices.Clone(m.catalog.products)
	records := maps.Clone(m.stock.records)
	sessions := maps.Clone(m.sessions.sessions)
	rows := make(map[uuid.UUID][]domain.ImportRow, len(m.sessions.rows))
	for id, r := range m.sessions.rows {
		rows[id] = slices.Clone(r)
	}

	err := fn(ctx, domain.Stores{Catalog: m.catalog, Stock: m.stock, Sessions: m.sessions})
	if err != nil {
		m.catalog.products = products
		m.stock.records = records
		m.sessions.sessions = sessions
		m.sessions.rows = rows
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

// MockLocker is a mock implementation of domain.Locker backed by one mutex per key
type MockLocker struct {
	mu       sync.Mutex
	keys     map[string]*sync.Mutex
	acquired []string
	lockErr  error
}

func NewMockLocker() *MockLocker {
	return &MockLocker{keys: make(map[string]*sync.Mutex)}
}

func (m *MockLocker) Lock(ctx context.Context, key string) (func(), error) {
	if m.lockErr != nil {
		return nil, m.lockErr
	}
	m.mu.Lock()
	km, ok := m.keys[key]
	if !ok {
		km = &sync.Mutex{}
		m.keys[key] = km
	}
	m.acquired = append(m.acquired, key)
	m.mu.Unlock()

	km.Lock()
	return km.Unlock, nil
}
