package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rigsync/backend/internal/domain"
)

// Transactor gives the in-memory stores all-or-nothing writes by undoing,
// newest first, every write fn made when it fails. Transactions run one at a
// time; writes made outside a transaction are not isolated from them.
type Transactor struct {
	catalog  *CatalogStore
	stock    *StockStore
	sessions *SessionStore
	mutex    sync.Mutex
}

func NewTransactor(catalog *CatalogStore, stock *StockStore, sessions *SessionStore) *Transactor {
	return &Transactor{catalog: catalog, stock: stock, sessions: sessions}
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores domain.Stores) error) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	j := &journal{}
	stores := domain.Stores{
		Catalog:  &txCatalog{CatalogStore: t.catalog, journal: j},
		Stock:    &txStock{StockStore: t.stock, journal: j},
		Sessions: &txSessions{SessionStore: t.sessions, journal: j},
	}
	if err := fn(ctx, stores); err != nil {
		j.rollback()
		return err
	}
	return nil
}

type journal struct {
	undo []func()
}

func (j *journal) record(undo func()) {
	j.undo = append(j.undo, undo)
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

type txCatalog struct {
	*CatalogStore
	journal *journal
}

func (c *txCatalog) CreateProduct(ctx context.Context, product *domain.CatalogProduct) error {
	if err := c.CatalogStore.CreateProduct(ctx, product); err != nil {
		return err
	}
	id := product.ID
	c.journal.record(func() { c.CatalogStore.remove(id) })
	return nil
}

type txStock struct {
	*StockStore
	journal *journal
}

func (s *txStock) CreateStock(ctx context.Context, record *domain.StockRecord) error {
	if err := s.StockStore.CreateStock(ctx, record); err != nil {
		return err
	}
	key := stockKey{record.UserID, record.CompanyID, record.ProductID}
	s.journal.record(func() { s.StockStore.restore(key, nil) })
	return nil
}

func (s *txStock) UpdateStock(ctx context.Context, record *domain.StockRecord) error {
	previous, err := s.StockStore.FindStock(ctx, record.UserID, record.CompanyID, record.ProductID)
	if err != nil {
		return err
	}
	if err := s.StockStore.UpdateStock(ctx, record); err != nil {
		return err
	}
	key := stockKey{record.UserID, record.CompanyID, record.ProductID}
	s.journal.record(func() { s.StockStore.restore(key, previous) })
	return nil
}

type txSessions struct {
	*SessionStore
	journal *journal
}

func (s *txSessions) CreateSession(ctx context.Context, session *domain.ImportSession) error {
	if err := s.SessionStore.CreateSession(ctx, session); err != nil {
		return err
	}
	id := session.ID
	s.journal.record(func() { s.SessionStore.restoreSession(id, nil) })
	return nil
}

func (s *txSessions) UpdateSession(ctx context.Context, session *domain.ImportSession) error {
	previous, err := s.SessionStore.FindSession(ctx, session.ID)
	if err != nil {
		return err
	}
	if err := s.SessionStore.UpdateSession(ctx, session); err != nil {
		return err
	}
	s.journal.record(func() { s.SessionStore.restoreSession(previous.ID, previous) })
	return nil
}

func (s *txSessions) ReplaceRows(ctx context.Context, sessionID uuid.UUID, rows []domain.ImportRow) error {
	state := s.SessionStore.saveRows(sessionID)
	if err := s.SessionStore.ReplaceRows(ctx, sessionID, rows); err != nil {
		return err
	}
	s.journal.record(func() { s.SessionStore.restoreRows(sessionID, state) })
	return nil
}

func (s *txSessions) UpdateRow(ctx context.Context, row *domain.ImportRow) error {
	sessionID := row.SessionID
	state := s.SessionStore.saveRows(sessionID)
	if err := s.SessionStore.UpdateRow(ctx, row); err != nil {
		return err
	}
	s.journal.record(func() { s.SessionStore.restoreRows(sessionID, state) })
	return nil
}

func (s *txSessions) ReplaceCandidates(ctx context.Context, rowID uuid.UUID, candidates []domain.MatchCandidate) error {
	previous := s.SessionStore.rowCandidates(rowID)
	if err := s.SessionStore.ReplaceCandidates(ctx, rowID, candidates); err != nil {
		return err
	}
	s.journal.record(func() { _ = s.SessionStore.ReplaceCandidates(context.Background(), rowID, previous) })
	return nil
}
