package textnorm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/contract-review/internal/model"
)

var (
	slashDateRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	isoDateRe   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	longDateRe  = regexp.MustCompile(`(?i)(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),?\s+(\d{4})`)
	currencyRe  = regexp.MustCompile(`\$?([\d,]+\.?\d*)`)
	digitsRe    = regexp.MustCompile(`\d`)

	affirmativeWords = []string{"yes", "true", "agreed", "confirmed"}
	negativeWords    = []string{"no", "false", "denied", "rejected"}

	entityCaser = cases.Title(language.English)
)

// Normalize converts a cleaned value into its type-canonical representation.
// Failure is not fatal: an unparseable DATE keeps its cleaned form (callers
// lower confidence via the validation factor), an ambiguous BOOLEAN yields
// "" (no normalized value).
func Normalize(value string, fieldType model.FieldType) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	switch fieldType {
	case model.FieldTypeDate:
		return normalizeDate(value)
	case model.FieldTypeCurrency:
		return normalizeCurrency(value)
	case model.FieldTypeBoolean:
		return normalizeBoolean(value)
	case model.FieldTypeEntity:
		return entityCaser.String(strings.ToLower(value))
	default:
		return value
	}
}

// normalizeDate tries slash, ISO, and long-form month patterns in that
// order; the first successful parse wins. Total failure returns the input
// unchanged.
func normalizeDate(value string) string {
	if m := slashDateRe.FindStringSubmatch(value); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
	}
	if m := isoDateRe.FindString(value); m != "" {
		return m
	}
	if m := longDateRe.FindStringSubmatch(value); m != nil {
		month := capitalizeWord(m[1])
		t, err := time.Parse("January 2 2006", fmt.Sprintf("%s %s %s", month, m[2], m[3]))
		if err == nil {
			return t.Format("2006-01-02")
		}
	}
	return value
}

// normalizeCurrency extracts the first numeric token, strips commas, and
// prefixes "USD ".
func normalizeCurrency(value string) string {
	m := currencyRe.FindStringSubmatch(value)
	if m == nil || !digitsRe.MatchString(m[1]) {
		return value
	}
	return "USD " + strings.ReplaceAll(m[1], ",", "")
}

// normalizeBoolean does case-insensitive substring matching against the
// affirmative and negative keyword sets. Ambiguous text maps to neither.
func normalizeBoolean(value string) string {
	lower := strings.ToLower(value)
	for _, w := range affirmativeWords {
		if strings.Contains(lower, w) {
			return "true"
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			return "false"
		}
	}
	return ""
}

// ValidationFactor scores how well a normalized value conforms to its
// type's canonical format. The extractor multiplies tier confidence by this
// factor: canonical output keeps full confidence, non-canonical output is
// penalized, a missing value zeroes it.
func ValidationFactor(extracted, normalized string, fieldType model.FieldType) float64 {
	if extracted == "" {
		return 0.0
	}
	if normalized == "" {
		return 0.5
	}

	switch fieldType {
	case model.FieldTypeDate:
		if isoDateRe.MatchString(normalized) {
			return 1.0
		}
		return 0.6
	case model.FieldTypeCurrency:
		if strings.Contains(normalized, "USD") && digitsRe.MatchString(normalized) {
			return 1.0
		}
		return 0.6
	case model.FieldTypeBoolean:
		if normalized == "true" || normalized == "false" {
			return 1.0
		}
		return 0.5
	default:
		return 1.0
	}
}

// IsNoise reports whether a raw value is one of the fixed noise phrases
// ("n/a", "not found", ...) after trimming and lowercasing.
func IsNoise(value string) bool {
	v := strings.TrimRight(strings.TrimSpace(strings.ToLower(value)), ".")
	switch v {
	case "n/a", "none", "not found", "no information found", "unknown", "not specified", "not stated":
		return true
	}
	return false
}
