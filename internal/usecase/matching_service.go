package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rigsync/backend/internal/domain"
)

// Confidence levels assigned by the matching stages
const (
	ExactMatchConfidence         = 1.0
	SharedCodeConfidence         = 1.0
	ExactModelConfidence         = 0.95
	ModelSubstringConfidence     = 0.90
	CanonicalSubstringConfidence = 0.85
)

// Acceptance thresholds
const (
	SimilarityThreshold      = 0.70 // normalized similarity stage
	DescriptionOnlyThreshold = 0.75 // rows without a model code
	FuzzyThreshold           = 0.70
	StrongMatchConfidence    = 0.85 // anything at or above this skips the fuzzy sweep

	AnalyzeMinConfidence = 0.70
	CreateMinConfidence  = 0.85
	DuplicateConfidence  = 0.90
)

// MaxCandidates caps the ranked list returned for a row
const MaxCandidates = 10

// Candidate set bounds per stage
const (
	modelNarrowLimit       = 100
	termNarrowLimit        = 500
	descriptionNarrowLimit = 200
	fuzzySampleLimit       = 500
)

// MatchQuery is the part of a row the matcher looks at
type MatchQuery struct {
	Description string
	// ModelCode is extracted from Description when empty
	ModelCode string
}

// ProductMatcher ranks catalog products against an imported description
type ProductMatcher struct {
	normalizer *Normalizer
	logger     *zap.Logger
}

// NewProductMatcher creates a matcher sharing the given normalizer
func NewProductMatcher(normalizer *Normalizer, logger *zap.Logger) *ProductMatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductMatcher{normalizer: normalizer, logger: logger}
}

// matchInput is the query with every derived form computed once
type matchInput struct {
	lower     string
	norm      string
	terms     []string
	code      string
	codeLower string
	codeKey   string
}

// FindMatches returns at most MaxCandidates candidates with confidence >=
// minConfidence, best first, each product at most once.
func (m *ProductMatcher) FindMatches(
	ctx context.Context,
	snapshot *CatalogSnapshot,
	query MatchQuery,
	minConfidence float64,
) ([]domain.MatchCandidate, error) {
	in := m.prepare(query)
	if in.norm == "" || snapshot.Len() == 0 {
		return nil, nil
	}

	// Exact identity wins outright
	pool := m.exactMatches(snapshot, in)
	if len(pool) > 0 {
		m.logger.Debug("exact description match",
			zap.String("description", query.Description),
			zap.Int("candidates", len(pool)))
		return finalize(pool, minConfidence), nil
	}

	if in.codeKey != "" {
		modelPool, err := m.modelMatches(ctx, snapshot, in)
		if err != nil {
			return nil, err
		}
		pool = append(pool, modelPool...)
	}

	similar, err := m.similarityMatches(ctx, snapshot, in)
	if err != nil {
		return nil, err
	}
	pool = append(pool, similar...)

	if in.codeKey == "" {
		described, err := m.descriptionMatches(ctx, snapshot, in)
		if err != nil {
			return nil, err
		}
		pool = append(pool, described...)
	}

	if !hasStrongMatch(pool) {
		fuzzy, err := m.fuzzyMatches(ctx, snapshot, in)
		if err != nil {
			return nil, err
		}
		pool = append(pool, fuzzy...)
	}

	result := finalize(pool, minConfidence)
	m.logger.Debug("matched description",
		zap.String("description", query.Description),
		zap.String("model_code", in.code),
		zap.Int("pool", len(pool)),
		zap.Int("candidates", len(result)))
	return result, nil
}

func (m *ProductMatcher) prepare(query MatchQuery) matchInput {
	code := strings.TrimSpace(query.ModelCode)
	if code == "" {
		code = m.normalizer.ExtractModelCode(query.Description)
	}
	norm := m.normalizer.Normalize(query.Description)
	return matchInput{
		lower:     lowerCollapsed(query.Description),
		norm:      norm,
		terms:     m.normalizer.keyTerms(norm),
		code:      code,
		codeLower: lowerCollapsed(code),
		codeKey:   CanonicalModelKey(code),
	}
}

// exactMatches compares against the raw and normalized model and brand+model
// texts, then pulls in every product sharing a matched identifier code.
func (m *ProductMatcher) exactMatches(snapshot *CatalogSnapshot, in matchInput) []domain.MatchCandidate {
	var pool []domain.MatchCandidate
	var codes []string
	for _, ip := range snapshot.products {
		if in.lower != ip.lowerModel && in.lower != ip.lowerFull &&
			in.norm != ip.normModel && in.norm != ip.normFull {
			continue
		}
		pool = append(pool, candidate(ip.product, ExactMatchConfidence, domain.MatchExactDescription))
		if ip.product.IdentifierCode != "" {
			codes = append(codes, ip.product.IdentifierCode)
		}
	}
	for _, code := range codes {
		pool = append(pool, sharedCodeMatches(snapshot, code)...)
	}
	return pool
}

// modelMatches scores canonical model keys, then propagates identifier codes
// of exact model hits to all their variants.
func (m *ProductMatcher) modelMatches(ctx context.Context, snapshot *CatalogSnapshot, in matchInput) ([]domain.MatchCandidate, error) {
	var pool []domain.MatchCandidate
	seenCodes := make(map[string]bool)
	var codes []string

	for i, ip := range snapshot.products {
		if err := checkContext(ctx, i); err != nil {
			return nil, err
		}
		if ip.canonicalModel == "" {
			continue
		}

		switch {
		case ip.canonicalModel == in.codeKey:
			pool = append(pool, candidate(ip.product, ExactModelConfidence, domain.MatchExactModel))
			if code := ip.product.IdentifierCode; code != "" && !seenCodes[code] {
				seenCodes[code] = true
				codes = append(codes, code)
			}
		case in.codeLower != "" && strings.Contains(ip.lowerModel, in.codeLower):
			pool = append(pool, candidate(ip.product, ModelSubstringConfidence, domain.MatchPartialModel))
		case strings.Contains(ip.canonicalModel, in.codeKey) ||
			(len(ip.canonicalModel) >= 2 && strings.Contains(in.codeKey, ip.canonicalModel)):
			pool = append(pool, candidate(ip.product, CanonicalSubstringConfidence, domain.MatchPartialModel))
		}
	}

	for _, code := range codes {
		pool = append(pool, sharedCodeMatches(snapshot, code)...)
	}
	return pool, nil
}

// similarityMatches compares the row against products narrowed by model
// substring, or by key terms when the row has no model code.
func (m *ProductMatcher) similarityMatches(ctx context.Context, snapshot *CatalogSnapshot, in matchInput) ([]domain.MatchCandidate, error) {
	var narrowed []indexedProduct
	if in.codeKey != "" {
		narrowed = narrow(snapshot, modelNarrowLimit, func(ip indexedProduct) bool {
			return strings.Contains(ip.lowerModel, in.codeLower) || strings.Contains(ip.canonicalModel, in.codeKey)
		})
	} else {
		narrowed = narrow(snapshot, termNarrowLimit, func(ip indexedProduct) bool {
			return matchesAnyTerm(ip, in.terms)
		})
	}
	return m.scoreAll(ctx, narrowed, in, SimilarityThreshold, "")
}

// descriptionMatches is the weaker text-only pass for rows without a model code
func (m *ProductMatcher) descriptionMatches(ctx context.Context, snapshot *CatalogSnapshot, in matchInput) ([]domain.MatchCandidate, error) {
	words := make([]string, 0, len(in.terms))
	for _, term := range in.terms {
		// codes are upper-cased, words are not
		if term == strings.ToLower(term) {
			words = append(words, term)
		}
	}
	if len(words) == 0 {
		return nil, nil
	}
	narrowed := narrow(snapshot, descriptionNarrowLimit, func(ip indexedProduct) bool {
		for _, w := range words {
			if strings.Contains(ip.normFull, w) {
				return true
			}
		}
		return false
	})
	return m.scoreAll(ctx, narrowed, in, DescriptionOnlyThreshold, domain.MatchDescription)
}

// fuzzyMatches sweeps a bounded sample of the catalog with no narrowing
func (m *ProductMatcher) fuzzyMatches(ctx context.Context, snapshot *CatalogSnapshot, in matchInput) ([]domain.MatchCandidate, error) {
	sample := snapshot.products
	if len(sample) > fuzzySampleLimit {
		sample = sample[:fuzzySampleLimit]
	}
	return m.scoreAll(ctx, sample, in, FuzzyThreshold, domain.MatchFuzzy)
}

// scoreAll keeps products whose better similarity (brand+model or model
// only) reaches threshold. An empty matchType tags each candidate by whether
// the normalized texts contain one another.
func (m *ProductMatcher) scoreAll(
	ctx context.Context,
	products []indexedProduct,
	in matchInput,
	threshold float64,
	matchType domain.MatchType,
) ([]domain.MatchCandidate, error) {
	var pool []domain.MatchCandidate
	for i, ip := range products {
		if err := checkContext(ctx, i); err != nil {
			return nil, err
		}

		fullScore := similarity(in.norm, in.terms, ip.normFull, ip.termsFull)
		modelScore := similarity(in.norm, in.terms, ip.normModel, ip.termsModel)
		score, target := fullScore, ip.normFull
		if modelScore > fullScore {
			score, target = modelScore, ip.normModel
		}
		if score < threshold {
			continue
		}

		tag := matchType
		if tag == "" {
			tag = domain.MatchNormalizedSimilarity
			if containsEither(in.norm, target) {
				tag = domain.MatchNormalizedPartial
			}
		}
		pool = append(pool, candidate(ip.product, score, tag))
	}
	return pool, nil
}

func sharedCodeMatches(snapshot *CatalogSnapshot, code string) []domain.MatchCandidate {
	variants := snapshot.WithIdentifierCode(code)
	pool := make([]domain.MatchCandidate, 0, len(variants))
	for _, p := range variants {
		pool = append(pool, candidate(p, SharedCodeConfidence, domain.MatchPSMCode))
	}
	return pool
}

func narrow(snapshot *CatalogSnapshot, limit int, keep func(indexedProduct) bool) []indexedProduct {
	var out []indexedProduct
	for _, ip := range snapshot.products {
		if len(out) == limit {
			break
		}
		if keep(ip) {
			out = append(out, ip)
		}
	}
	return out
}

func matchesAnyTerm(ip indexedProduct, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(ip.normFull, strings.ToLower(term)) || strings.Contains(ip.canonicalModel, term) {
			return true
		}
	}
	return false
}

func hasStrongMatch(pool []domain.MatchCandidate) bool {
	for _, c := range pool {
		if c.Confidence >= StrongMatchConfidence {
			return true
		}
	}
	return false
}

// finalize dedupes by product keeping the highest confidence (earlier wins
// ties), drops anything under minConfidence, sorts and truncates.
func finalize(pool []domain.MatchCandidate, minConfidence float64) []domain.MatchCandidate {
	best := make(map[uuid.UUID]int, len(pool))
	var merged []domain.MatchCandidate
	for _, c := range pool {
		c.Confidence = clamp01(c.Confidence)
		if idx, ok := best[c.ProductID]; ok {
			if c.Confidence > merged[idx].Confidence {
				merged[idx] = c
			}
			continue
		}
		best[c.ProductID] = len(merged)
		merged = append(merged, c)
	}

	result := merged[:0]
	for _, c := range merged {
		if c.Confidence >= minConfidence {
			result = append(result, c)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Confidence > result[j].Confidence
	})
	if len(result) > MaxCandidates {
		result = result[:MaxCandidates]
	}
	return result
}

func candidate(p domain.CatalogProduct, confidence float64, matchType domain.MatchType) domain.MatchCandidate {
	return domain.MatchCandidate{
		ProductID:      p.ID,
		IdentifierCode: p.IdentifierCode,
		Confidence:     confidence,
		MatchType:      matchType,
	}
}

// checkContext polls ctx every 64 iterations
func checkContext(ctx context.Context, i int) error {
	if i%64 != 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
