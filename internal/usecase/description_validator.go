package usecase

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rigsync/backend/internal/domain"
)

// Description length bounds (characters, after trimming)
const (
	minDescriptionLength = 10
	maxDescriptionLength = 200
)

// Gibberish thresholds
const (
	maxRepeatedChars         = 3 // 4+ identical characters in a row is rejected
	maxConsecutiveConsonants = 5 // 6+ consonants in a row is rejected
	minWordCount             = 2
	longWordMinLength        = 4
)

// Validation rule names, reported in ValidationError.Rule
const (
	RuleLength      = "length"
	RuleRepetition  = "repetition"
	RuleKeyboard    = "keyboard_pattern"
	RuleWordCount   = "word_count"
	RuleMeaningless = "meaningful_content"
)

// keyboardSequences are common keyboard-mashing runs
var keyboardSequences = []string{"qwerty", "asdf", "zxcv", "hjkl", "uiop"}

// productKeywords are words that mark a description as rental equipment.
// Keywords of 4+ letters also match inside longer words ("movinghead").
var productKeywords = []string{
	// Audio
	"speaker", "monitor", "mixer", "console", "amp", "amplifier", "microphone", "mic",
	"subwoofer", "sub", "wireless", "receiver", "transmitter", "processor", "interface",
	"equalizer", "eq", "di", "stagebox", "snake", "headphone", "audio",
	// Lighting
	"light", "lighting", "moving", "head", "spot", "wash", "beam", "led", "par",
	"dimmer", "strobe", "laser", "hazer", "fog", "smoke", "fixture", "fresnel", "profile",
	// Video
	"projector", "screen", "camera", "lens", "video", "switcher", "display",
	// Rigging and power
	"truss", "stand", "tripod", "clamp", "hoist", "motor", "cable", "power", "distro",
	"generator", "rack", "case", "flightcase", "controller", "stage",
}

// DescriptionValidator rejects rows whose text is too short, too long,
// gibberish, or lacks meaningful product content
type DescriptionValidator struct {
	normalizer *Normalizer
	shortKeys  map[string]bool
	longKeys   []string
}

// NewDescriptionValidator creates a validator that uses the normalizer for model-code detection
func NewDescriptionValidator(normalizer *Normalizer) *DescriptionValidator {
	v := &DescriptionValidator{
		normalizer: normalizer,
		shortKeys:  make(map[string]bool),
	}
	for _, k := range productKeywords {
		if len(k) >= longWordMinLength {
			v.longKeys = append(v.longKeys, k)
		} else {
			v.shortKeys[k] = true
		}
	}
	return v
}

// Validate returns nil for an acceptable description, or a *domain.ValidationError
// for the first rule that failed. Model numbers are never required.
func (v *DescriptionValidator) Validate(description string) error {
	text := strings.TrimSpace(description)

	// Step 1: length
	length := utf8.RuneCountInString(text)
	if length < minDescriptionLength {
		return reject(RuleLength, fmt.Sprintf("description is too short (%d characters, minimum %d)", length, minDescriptionLength))
	}
	if length > maxDescriptionLength {
		return reject(RuleLength, fmt.Sprintf("description is too long (%d characters, maximum %d)", length, maxDescriptionLength))
	}

	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	// Step 2: repetitive content
	if c, ok := repeatedCharacter(lower); ok {
		return reject(RuleRepetition, fmt.Sprintf("character %q repeats more than %d times in a row", c, maxRepeatedChars))
	}
	if duplicateWordRatioTooHigh(words) {
		return reject(RuleRepetition, "more than half of the words are duplicates")
	}

	// Step 3: keyboard mashing
	letters := lettersOnly(lower)
	for _, seq := range keyboardSequences {
		if strings.Contains(letters, seq) {
			return reject(RuleKeyboard, fmt.Sprintf("contains keyboard pattern %q", seq))
		}
	}
	for _, word := range words {
		if consonantRun(word) > maxConsecutiveConsonants {
			return reject(RuleKeyboard, fmt.Sprintf("word %q has too many consecutive consonants", word))
		}
	}

	// Step 4: word count
	if len(words) < minWordCount {
		return reject(RuleWordCount, fmt.Sprintf("description needs at least %d words", minWordCount))
	}

	// Step 5: meaningful content
	if !v.hasMeaningfulContent(text, words) {
		return reject(RuleMeaningless, "description does not look like a product")
	}

	return nil
}

// hasMeaningfulContent requires at least one long word and then accepts, in
// decreasing order of evidence: a domain keyword, a model code, 3+ long words,
// and as the lowest bar any 2 long words.
func (v *DescriptionValidator) hasMeaningfulContent(text string, words []string) bool {
	longWords := 0
	for _, word := range words {
		stripped := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, word)
		if utf8.RuneCountInString(stripped) >= longWordMinLength {
			longWords++
		}
	}
	if longWords == 0 {
		return false
	}

	hasKeyword := v.containsKeyword(words)
	hasModel := v.normalizer.ExtractModelCode(text) != ""

	switch {
	case hasKeyword:
		return true
	case hasModel && longWords >= 1:
		return true
	case longWords >= 3:
		return true
	default:
		return longWords >= 2
	}
}

// containsKeyword checks short keywords as whole words and long ones as substrings
func (v *DescriptionValidator) containsKeyword(words []string) bool {
	for _, word := range words {
		clean := punctuationPattern.ReplaceAllString(word, "")
		if v.shortKeys[clean] {
			return true
		}
		for _, k := range v.longKeys {
			if strings.Contains(clean, k) {
				return true
			}
		}
	}
	return false
}

func reject(rule, reason string) error {
	return &domain.ValidationError{Rule: rule, Reason: reason}
}

// repeatedCharacter finds a non-space character repeated more than maxRepeatedChars times
func repeatedCharacter(s string) (rune, bool) {
	var prev rune
	run := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			run = 0
			continue
		}
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run > maxRepeatedChars {
			return r, true
		}
	}
	return 0, false
}

// duplicateWordRatioTooHigh reports whether more than half the words repeat an earlier word
func duplicateWordRatioTooHigh(words []string) bool {
	if len(words) < 2 {
		return false
	}
	seen := make(map[string]bool, len(words))
	duplicates := 0
	for _, w := range words {
		if seen[w] {
			duplicates++
		}
		seen[w] = true
	}
	return duplicates*2 > len(words)
}

func lettersOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, s)
}

// consonantRun returns the longest run of consonant letters in a word.
// Digits and punctuation break a run; y counts as a vowel.
func consonantRun(word string) int {
	longest, run := 0, 0
	for _, r := range word {
		if unicode.IsLetter(r) && !strings.ContainsRune("aeiouyäöüéèáàóòíì", r) {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}
	return longest
}
