package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdentifierCodePrefix is the literal prefix of every shared identifier code
const IdentifierCodePrefix = "PSM"

var identifierCodePattern = regexp.MustCompile(`^PSM(\d+)$`)

// CatalogProduct is one catalog entry. Entries sharing an IdentifierCode are
// the same real-world item listed under different brand or model spellings.
type CatalogProduct struct {
	ID             uuid.UUID `json:"id"`
	Category       string    `json:"category,omitempty"`
	SubCategory    string    `json:"subCategory,omitempty"`
	Brand          string    `json:"brand,omitempty"`
	Model          string    `json:"model"`
	IdentifierCode string    `json:"identifierCode,omitempty"`
	Verified       bool      `json:"verified"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DisplayName returns "brand model", or just the model when no brand is set
func (p CatalogProduct) DisplayName() string {
	if p.Brand == "" {
		return p.Model
	}
	return p.Brand + " " + p.Model
}

// FormatIdentifierCode renders n as PSM plus five zero-padded digits
func FormatIdentifierCode(n int) string {
	return fmt.Sprintf("%s%05d", IdentifierCodePrefix, n)
}

// ParseIdentifierCode returns the numeric suffix of a PSM code
func ParseIdentifierCode(code string) (int, bool) {
	m := identifierCodePattern.FindStringSubmatch(code)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// InferredTypes is the taxonomy chosen for a newly created catalog product.
// Empty strings mean unresolved.
type InferredTypes struct {
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"subCategory,omitempty"`
	Brand       string `json:"brand,omitempty"`
}

// StockRecord is how many units of a product a user/company holds
type StockRecord struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"userId"`
	CompanyID uuid.UUID        `json:"companyId"`
	ProductID uuid.UUID        `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
