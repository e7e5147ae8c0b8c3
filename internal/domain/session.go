package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus is the lifecycle state of an import session
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionConfirmed SessionStatus = "confirmed"
	SessionCancelled SessionStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed
func (s SessionStatus) IsTerminal() bool {
	return s == SessionConfirmed || s == SessionCancelled
}

// RowStatus is the lifecycle state of a single imported row
type RowStatus string

const (
	RowPending   RowStatus = "pending"
	RowAnalyzed  RowStatus = "analyzed"
	RowConfirmed RowStatus = "confirmed"
	RowRejected  RowStatus = "rejected"
)

// IsTerminal reports whether the row can no longer change status
func (s RowStatus) IsTerminal() bool {
	return s == RowConfirmed || s == RowRejected
}

// RowAction is what the operator chose to do with a row at confirm time
type RowAction string

const (
	ActionAttach RowAction = "attach"
	ActionCreate RowAction = "create"
)

// MatchType labels which matching strategy produced a candidate
type MatchType string

const (
	MatchExactDescription     MatchType = "exact_description"
	MatchPSMCode              MatchType = "psm_code"
	MatchExactModel           MatchType = "exact_model"
	MatchPartialModel         MatchType = "partial_model"
	MatchNormalizedPartial    MatchType = "normalized_partial"
	MatchNormalizedSimilarity MatchType = "normalized_similarity"
	MatchDescription          MatchType = "description_match"
	MatchFuzzy                MatchType = "fuzzy"
)

// ImportSession is one uploaded batch
type ImportSession struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"userId"`
	CompanyID uuid.UUID     `json:"companyId"`
	Status    SessionStatus `json:"status"`
	FileName  string        `json:"fileName,omitempty"`

	TotalRows        int `json:"totalRows"`
	ValidRows        int `json:"validRows"`
	RejectedRows     int `json:"rejectedRows"`
	ProductsCreated  int `json:"productsCreated"`
	ProductsAttached int `json:"productsAttached"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ImportRow is one spreadsheet line inside a session
type ImportRow struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"sessionId"`
	RowNumber int       `json:"rowNumber"`

	Description  string           `json:"description"`
	Quantity     int              `json:"quantity"`
	SoftwareCode string           `json:"softwareCode,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`

	ModelCode             string `json:"modelCode,omitempty"`
	NormalizedModel       string `json:"normalizedModel,omitempty"`
	NormalizedDescription string `json:"normalizedDescription,omitempty"`

	Status          RowStatus  `json:"status"`
	Skipped         bool       `json:"skipped"`
	Action          RowAction  `json:"action,omitempty"`
	ProductID       *uuid.UUID `json:"productId,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`

	Candidates []MatchCandidate `json:"candidates,omitempty"`
}

// IsBlocking reports whether the row still keeps its session from confirming
func (r ImportRow) IsBlocking() bool {
	return !r.Status.IsTerminal() && !r.Skipped
}

// MatchCandidate links a row to a catalog product it may refer to
type MatchCandidate struct {
	ProductID      uuid.UUID `json:"productId"`
	IdentifierCode string    `json:"identifierCode,omitempty"`
	Confidence     float64   `json:"confidence"`
	MatchType      MatchType `json:"matchType"`
}

// RawRow is a spreadsheet data row before validation
type RawRow struct {
	RowNumber    int
	Quantity     int
	Description  string
	SoftwareCode string
	Price        *decimal.Decimal
}
