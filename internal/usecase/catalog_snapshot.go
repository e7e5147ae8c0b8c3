package usecase

import (
	"strings"

	"github.com/google/uuid"

	"github.com/rigsync/backend/internal/domain"
)

// indexedProduct is a catalog product with the derived text forms matching needs
type indexedProduct struct {
	product domain.CatalogProduct

	lowerModel     string // lower-cased, whitespace collapsed
	lowerFull      string // same for "brand model"
	canonicalModel string

	normModel  string
	normFull   string
	termsModel []string
	termsFull  []string
}

// CatalogSnapshot is a read-only view of the catalog indexed for matching.
// It is built once per analyze or confirm call; products created during a
// confirm batch are added with Add so later rows in the batch see them.
type CatalogSnapshot struct {
	normalizer *Normalizer
	products   []indexedProduct
	byID       map[uuid.UUID]int
	byCode     map[string][]int
}

// NewCatalogSnapshot indexes products in the given order
func NewCatalogSnapshot(normalizer *Normalizer, products []domain.CatalogProduct) *CatalogSnapshot {
	s := &CatalogSnapshot{
		normalizer: normalizer,
		products:   make([]indexedProduct, 0, len(products)),
		byID:       make(map[uuid.UUID]int, len(products)),
		byCode:     make(map[string][]int),
	}
	for _, p := range products {
		s.Add(p)
	}
	return s
}

// Add indexes one more product. Re-adding a known id is a no-op.
func (s *CatalogSnapshot) Add(p domain.CatalogProduct) {
	if _, ok := s.byID[p.ID]; ok {
		return
	}

	full := p.DisplayName()
	ip := indexedProduct{
		product:        p,
		lowerModel:     lowerCollapsed(p.Model),
		lowerFull:      lowerCollapsed(full),
		canonicalModel: CanonicalModelKey(p.Model),
		normModel:      s.normalizer.Normalize(p.Model),
		normFull:       s.normalizer.Normalize(full),
	}
	ip.termsModel = s.normalizer.keyTerms(ip.normModel)
	ip.termsFull = s.normalizer.keyTerms(ip.normFull)

	idx := len(s.products)
	s.products = append(s.products, ip)
	s.byID[p.ID] = idx
	if p.IdentifierCode != "" {
		s.byCode[p.IdentifierCode] = append(s.byCode[p.IdentifierCode], idx)
	}
}

// Len returns the number of indexed products
func (s *CatalogSnapshot) Len() int {
	return len(s.products)
}

// Products returns the indexed products in snapshot order
func (s *CatalogSnapshot) Products() []domain.CatalogProduct {
	out := make([]domain.CatalogProduct, len(s.products))
	for i, ip := range s.products {
		out[i] = ip.product
	}
	return out
}

// Product looks a product up by id
func (s *CatalogSnapshot) Product(id uuid.UUID) (domain.CatalogProduct, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return domain.CatalogProduct{}, false
	}
	return s.products[idx].product, true
}

// WithIdentifierCode returns every product sharing code, in snapshot order
func (s *CatalogSnapshot) WithIdentifierCode(code string) []domain.CatalogProduct {
	indexes := s.byCode[code]
	out := make([]domain.CatalogProduct, len(indexes))
	for i, idx := range indexes {
		out[i] = s.products[idx].product
	}
	return out
}

func lowerCollapsed(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
