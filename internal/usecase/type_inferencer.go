package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rigsync/backend/internal/domain"
)

// TypeInferencer picks category, sub-category and brand for a new product
// from its closest existing relatives in the catalog
type TypeInferencer struct {
	normalizer *Normalizer
}

func NewTypeInferencer(normalizer *Normalizer) *TypeInferencer {
	return &TypeInferencer{normalizer: normalizer}
}

// InferTypes votes over matched products first. An unresolved brand is
// looked up in the description; a brand without a category inherits that
// brand's most common category in the catalog.
func (t *TypeInferencer) InferTypes(description string, matched []domain.CatalogProduct, snapshot *CatalogSnapshot) domain.InferredTypes {
	var types domain.InferredTypes
	if len(matched) > 0 {
		types.Category = plurality(matched, func(p domain.CatalogProduct) string { return p.Category })
		types.SubCategory = plurality(matched, func(p domain.CatalogProduct) string { return p.SubCategory })
		types.Brand = plurality(matched, func(p domain.CatalogProduct) string { return p.Brand })
	}

	var catalog []domain.CatalogProduct
	if snapshot != nil {
		catalog = snapshot.Products()
	}

	if types.Brand == "" {
		types.Brand = t.brandInDescription(description, catalog)
	}
	if types.Brand != "" && types.Category == "" {
		brandKey := t.normalizer.Normalize(types.Brand)
		var sameBrand []domain.CatalogProduct
		for _, p := range catalog {
			if p.Brand != "" && t.normalizer.Normalize(p.Brand) == brandKey {
				sameBrand = append(sameBrand, p)
			}
		}
		types.Category = plurality(sameBrand, func(p domain.CatalogProduct) string { return p.Category })
	}
	return types
}

// brandInDescription returns the catalog spelling of the longest brand found
// as whole words in the normalized description. Aliases already collapse to
// the canonical token during normalization, so "KT" finds "Klark-Teknik".
func (t *TypeInferencer) brandInDescription(description string, catalog []domain.CatalogProduct) string {
	normalized := t.normalizer.Normalize(description)
	if normalized == "" {
		return ""
	}

	spelling := make(map[string]string) // normalized brand -> first catalog spelling
	var keys []string
	for _, p := range catalog {
		if p.Brand == "" {
			continue
		}
		key := t.normalizer.Normalize(p.Brand)
		if key == "" {
			continue
		}
		if _, ok := spelling[key]; !ok {
			spelling[key] = p.Brand
			keys = append(keys, key)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	for _, key := range keys {
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\b`)
		if pattern.MatchString(normalized) {
			return spelling[key]
		}
	}
	return ""
}

// plurality returns the most frequent non-empty value, first seen wins ties
func plurality(products []domain.CatalogProduct, field func(domain.CatalogProduct) string) string {
	counts := make(map[string]int)
	var order []string
	for _, p := range products {
		v := strings.TrimSpace(field(p))
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
