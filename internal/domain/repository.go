package domain

import (
	"context"

	"github.com/google/uuid"
)

// CatalogRepository is read access to the product catalog plus product creation.
// Products are never mutated through it.
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]CatalogProduct, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*CatalogProduct, error)
	FindProductsByIdentifierCode(ctx context.Context, code string) ([]CatalogProduct, error)
	// MaxIdentifierSuffix returns the highest numeric PSM suffix in use, or 0
	MaxIdentifierSuffix(ctx context.Context) (int, error)
	CreateProduct(ctx context.Context, product *CatalogProduct) error
}

// StockRepository stores (user, company, product) quantities
type StockRepository interface {
	// FindStock returns ErrStockNotFound when the user/company does not stock the product
	FindStock(ctx context.Context, userID, companyID, productID uuid.UUID) (*StockRecord, error)
	CreateStock(ctx context.Context, record *StockRecord) error
	UpdateStock(ctx context.Context, record *StockRecord) error
}

// SessionRepository persists import sessions, their rows and match candidates
type SessionRepository interface {
	CreateSession(ctx context.Context, session *ImportSession) error
	FindSession(ctx context.Context, id uuid.UUID) (*ImportSession, error)
	UpdateSession(ctx context.Context, session *ImportSession) error

	// ReplaceRows deletes every existing row (and candidate) of the session first
	ReplaceRows(ctx context.Context, sessionID uuid.UUID, rows []ImportRow) error
	ListRows(ctx context.Context, sessionID uuid.UUID) ([]ImportRow, error)
	UpdateRow(ctx context.Context, row *ImportRow) error

	// ReplaceCandidates overwrites the candidates of a row; they are never merged
	ReplaceCandidates(ctx context.Context, rowID uuid.UUID, candidates []MatchCandidate) error
	ListCandidates(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID][]MatchCandidate, error)
}

// Locker serializes work on a key across goroutines (and, for shared backends, processes)
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned func releases it.
	Lock(ctx context.Context, key string) (release func(), err error)
}

// Stores groups the repositories bound to one transaction
type Stores struct {
	Catalog  CatalogRepository
	Stock    StockRepository
	Sessions SessionRepository
}

// Transactor runs fn so that the writes it makes through stores are committed
// together, or not at all when fn returns an error
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}
