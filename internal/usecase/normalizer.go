package usecase

import (
	"regexp"
	"sort"
	"strings"
)

// Compiled regex patterns for normalization
var (
	// Matches bracketed or parenthesized metadata like "[Amazon]" or "(source)"
	bracketedMetadataPattern = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

	// Anything that is not a letter, digit or whitespace
	punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

	multiSpacePattern = regexp.MustCompile(`\s+`)

	// 1-5 letters, optional space or hyphen, 1-5 digits: "DN-360", "SM58", "R5"
	modelCodePattern = regexp.MustCompile(`(?i)\b[a-z]{1,5}[\s-]?\d{1,5}`)

	nonAlphanumericPattern = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// DefaultBrandAliases maps a canonical brand token to the spellings staff use for it
var DefaultBrandAliases = map[string][]string{
	"klarkteknik":    {"kt", "klark teknik", "klark-teknik"},
	"allenheath":     {"allen & heath", "allen and heath", "allen heath"},
	"electrovoice":   {"ev", "electro-voice", "electro voice"},
	"dbtechnologies": {"db technologies", "dbtech"},
	"dbaudiotechnik": {"d&b audiotechnik", "d and b audiotechnik"},
}

// DefaultSynonyms contracts common long forms into the short form used in catalogs
var DefaultSynonyms = map[string]string{
	"professional": "pro",
	"equalizer":    "eq",
	"equaliser":    "eq",
	"amplifier":    "amp",
}

// keyTermStopWords are dropped from key terms; only words of 4+ characters are kept anyway
var keyTermStopWords = map[string]bool{
	"with": true, "from": true, "incl": true, "including": true,
	"pair": true, "pack": true, "piece": true, "pieces": true,
	"black": true, "white": true, "used": true, "item": true,
	"unit": true, "units": true, "set": true, "the": true, "and": true,
}

// NormalizerConfig holds the injected alias and synonym tables
type NormalizerConfig struct {
	BrandAliases map[string][]string
	Synonyms     map[string]string
}

// Normalizer canonicalizes free-text product descriptions and model tokens.
// It is safe for concurrent use and holds no mutable state.
type Normalizer struct {
	aliases  map[string]string
	aliasRe  *regexp.Regexp
	synonyms map[string]string
	synRe    *regexp.Regexp
}

// NewNormalizer builds a normalizer. Nil tables fall back to the defaults.
func NewNormalizer(config NormalizerConfig) *Normalizer {
	brandAliases := config.BrandAliases
	if brandAliases == nil {
		brandAliases = DefaultBrandAliases
	}
	synonyms := config.Synonyms
	if synonyms == nil {
		synonyms = DefaultSynonyms
	}

	n := &Normalizer{
		aliases:  make(map[string]string),
		synonyms: make(map[string]string),
	}

	// Alias keys go through the same cleanup as the text they are matched
	// against, so "Klark-Teknik" and "klarkteknik" end up as the same key.
	for canonical, spellings := range brandAliases {
		canon := strings.ReplaceAll(clean(canonical), " ", "")
		if canon == "" {
			continue
		}
		n.aliases[canon] = canon
		for _, spelling := range spellings {
			if key := clean(spelling); key != "" {
				n.aliases[key] = canon
			}
		}
	}
	for from, to := range synonyms {
		if key := clean(from); key != "" {
			n.synonyms[key] = clean(to)
		}
	}

	n.aliasRe = wordAlternation(n.aliases)
	n.synRe = wordAlternation(n.synonyms)
	return n
}

// Normalize lower-cases text, strips bracketed metadata and punctuation,
// unifies brand aliases, contracts synonyms and collapses whitespace.
// Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(text string) string {
	result := clean(text)
	if result == "" {
		return ""
	}

	if n.aliasRe != nil {
		result = n.aliasRe.ReplaceAllStringFunc(result, func(m string) string {
			return n.aliases[m]
		})
	}
	if n.synRe != nil {
		result = n.synRe.ReplaceAllStringFunc(result, func(m string) string {
			return n.synonyms[m]
		})
	}

	result = multiSpacePattern.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// ExtractModelCode returns the first model-code-looking substring, or "" when none
func (n *Normalizer) ExtractModelCode(text string) string {
	return strings.TrimSpace(modelCodePattern.FindString(text))
}

// ExtractModelCodes returns every model-code-looking substring in order
func (n *Normalizer) ExtractModelCodes(text string) []string {
	return modelCodePattern.FindAllString(text, -1)
}

// CanonicalModelKey strips separators and upper-cases, so "DN-360", "DN 360"
// and "dn360" compare equal.
func CanonicalModelKey(code string) string {
	return strings.ToUpper(nonAlphanumericPattern.ReplaceAllString(code, ""))
}

// KeyTerms extracts the terms used for overlap scoring: canonical model codes
// first, then significant words of 4+ characters that are not stop words.
func (n *Normalizer) KeyTerms(text string) []string {
	return n.keyTerms(n.Normalize(text))
}

func (n *Normalizer) keyTerms(normalized string) []string {
	if normalized == "" {
		return nil
	}

	seen := make(map[string]bool)
	var terms []string
	add := func(term string) {
		if term != "" && !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}

	for _, code := range n.ExtractModelCodes(normalized) {
		add(CanonicalModelKey(code))
	}
	// Words already consumed by a model code are not counted twice
	remainder := modelCodePattern.ReplaceAllString(normalized, " ")
	for _, word := range strings.Fields(remainder) {
		if len([]rune(word)) < 4 || keyTermStopWords[word] {
			continue
		}
		add(word)
	}
	return terms
}

// BrandAliasTokens returns every canonical brand token known to the normalizer
func (n *Normalizer) BrandAliasTokens() []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, canon := range n.aliases {
		if !seen[canon] {
			seen[canon] = true
			tokens = append(tokens, canon)
		}
	}
	sort.Strings(tokens)
	return tokens
}

// clean is the alias-independent part of normalization
func clean(text string) string {
	result := strings.ToLower(text)
	result = bracketedMetadataPattern.ReplaceAllString(result, " ")
	result = punctuationPattern.ReplaceAllString(result, "")
	result = multiSpacePattern.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// wordAlternation compiles a whole-word alternation of the map keys, longest first
func wordAlternation(table map[string]string) *regexp.Regexp {
	if len(table) == 0 {
		return nil
	}
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
