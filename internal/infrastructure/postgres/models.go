package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rigsync/backend/internal/domain"
)

// ProductModel is the catalog_products row
type ProductModel struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Category       string    `gorm:"type:varchar(128);index"`
	SubCategory    string    `gorm:"type:varchar(128)"`
	Brand          string    `gorm:"type:varchar(128);index"`
	Model          string    `gorm:"type:varchar(255);not null"`
	IdentifierCode string    `gorm:"type:varchar(16);index"`
	Verified       bool      `gorm:"not null"`
	CreatedAt      time.Time
}

func (ProductModel) TableName() string { return "catalog_products" }

// StockModel is the stock_records row, unique per user, company and product
type StockModel struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_stock_owner_product"`
	CompanyID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_stock_owner_product"`
	ProductID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_stock_owner_product"`
	Quantity  int              `gorm:"not null"`
	Price     *decimal.Decimal `gorm:"type:numeric(12,2)"`
	UpdatedAt time.Time
}

func (StockModel) TableName() string { return "stock_records" }

// SessionModel is the import_sessions row
type SessionModel struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index"`
	CompanyID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Status           string    `gorm:"type:varchar(16);not null"`
	FileName         string    `gorm:"type:varchar(255)"`
	TotalRows        int
	ValidRows        int
	RejectedRows     int
	ProductsCreated  int
	ProductsAttached int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

func (SessionModel) TableName() string { return "import_sessions" }

// RowModel is the import_rows row
type RowModel struct {
	ID                    uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID             uuid.UUID        `gorm:"type:uuid;not null;index"`
	RowNumber             int              `gorm:"not null"`
	Description           string           `gorm:"type:text"`
	Quantity              int              `gorm:"not null"`
	SoftwareCode          string           `gorm:"type:varchar(128)"`
	Price                 *decimal.Decimal `gorm:"type:numeric(12,2)"`
	ModelCode             string           `gorm:"type:varchar(64)"`
	NormalizedModel       string           `gorm:"type:varchar(64)"`
	NormalizedDescription string           `gorm:"type:text"`
	Status                string           `gorm:"type:varchar(16);not null;index"`
	Skipped               bool             `gorm:"not null"`
	Action                string           `gorm:"type:varchar(16)"`
	ProductID             *uuid.UUID       `gorm:"type:uuid"`
	RejectionReason       string           `gorm:"type:text"`
}

func (RowModel) TableName() string { return "import_rows" }

// CandidateModel is the match_candidates row. Rank keeps the matcher's order.
type CandidateModel struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RowID          uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null"`
	IdentifierCode string    `gorm:"type:varchar(16)"`
	Confidence     float64   `gorm:"not null"`
	MatchType      string    `gorm:"type:varchar(32);not null"`
	Rank           int       `gorm:"not null"`
}

func (CandidateModel) TableName() string { return "match_candidates" }

func productFromDomain(p *domain.CatalogProduct) ProductModel {
	return ProductModel{
		ID:             p.ID,
		Category:       p.Category,
		SubCategory:    p.SubCategory,
		Brand:          p.Brand,
		Model:          p.Model,
		IdentifierCode: p.IdentifierCode,
		Verified:       p.Verified,
		CreatedAt:      p.CreatedAt,
	}
}

func (m ProductModel) toDomain() domain.CatalogProduct {
	return domain.CatalogProduct{
		ID:             m.ID,
		Category:       m.Category,
		SubCategory:    m.SubCategory,
		Brand:          m.Brand,
		Model:          m.Model,
		IdentifierCode: m.IdentifierCode,
		Verified:       m.Verified,
		CreatedAt:      m.CreatedAt,
	}
}

func stockFromDomain(r *domain.StockRecord) StockModel {
	return StockModel{
		ID:        r.ID,
		UserID:    r.UserID,
		CompanyID: r.CompanyID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Price:     r.Price,
		UpdatedAt: r.UpdatedAt,
	}
}

func (m StockModel) toDomain() *domain.StockRecord {
	return &domain.StockRecord{
		ID:        m.ID,
		UserID:    m.UserID,
		CompanyID: m.CompanyID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		Price:     m.Price,
		UpdatedAt: m.UpdatedAt,
	}
}

func sessionFromDomain(s *domain.ImportSession) SessionModel {
	return SessionModel{
		ID:               s.ID,
		UserID:           s.UserID,
		CompanyID:        s.CompanyID,
		Status:           string(s.Status),
		FileName:         s.FileName,
		TotalRows:        s.TotalRows,
		ValidRows:        s.ValidRows,
		RejectedRows:     s.RejectedRows,
		ProductsCreated:  s.ProductsCreated,
		ProductsAttached: s.ProductsAttached,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		CompletedAt:      s.CompletedAt,
	}
}

func (m SessionModel) toDomain() *domain.ImportSession {
	return &domain.ImportSession{
		ID:               m.ID,
		UserID:           m.UserID,
		CompanyID:        m.CompanyID,
		Status:           domain.SessionStatus(m.Status),
		FileName:         m.FileName,
		TotalRows:        m.TotalRows,
		ValidRows:        m.ValidRows,
		RejectedRows:     m.RejectedRows,
		ProductsCreated:  m.ProductsCreated,
		ProductsAttached: m.ProductsAttached,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		CompletedAt:      m.CompletedAt,
	}
}

func rowFromDomain(r *domain.ImportRow) RowModel {
	return RowModel{
		ID:                    r.ID,
		SessionID:             r.SessionID,
		RowNumber:             r.RowNumber,
		Description:           r.Description,
		Quantity:              r.Quantity,
		SoftwareCode:          r.SoftwareCode,
		Price:                 r.Price,
		ModelCode:             r.ModelCode,
		NormalizedModel:       r.NormalizedModel,
		NormalizedDescription: r.NormalizedDescription,
		Status:                string(r.Status),
		Skipped:               r.Skipped,
		Action:                string(r.Action),
		ProductID:             r.ProductID,
		RejectionReason:       r.RejectionReason,
	}
}

func (m RowModel) toDomain() domain.ImportRow {
	return domain.ImportRow{
		ID:                    m.ID,
		SessionID:             m.SessionID,
		RowNumber:             m.RowNumber,
		Description:           m.Description,
		Quantity:              m.Quantity,
		SoftwareCode:          m.SoftwareCode,
		Price:                 m.Price,
		ModelCode:             m.ModelCode,
		NormalizedModel:       m.NormalizedModel,
		NormalizedDescription: m.NormalizedDescription,
		Status:                domain.RowStatus(m.Status),
		Skipped:               m.Skipped,
		Action:                domain.RowAction(m.Action),
		ProductID:             m.ProductID,
		RejectionReason:       m.RejectionReason,
	}
}

func (m CandidateModel) toDomain() domain.MatchCandidate {
	return domain.MatchCandidate{
		ProductID:      m.ProductID,
		IdentifierCode: m.IdentifierCode,
		Confidence:     m.Confidence,
		MatchType:      domain.MatchType(m.MatchType),
	}
}
