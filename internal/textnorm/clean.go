// Package textnorm cleans raw extracted snippets (OCR repair, bracket and
// quote stripping, case normalization, noise rejection) and converts cleaned
// text into field-type-specific canonical values.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/contract-review/internal/model"
)

var (
	whitespaceRe      = regexp.MustCompile(`\s+`)
	leadingConjRe     = regexp.MustCompile(`(?i)^(?:and|or|but|because|so)\s+`)
	leadingAndInRe    = regexp.MustCompile(`(?i)^(?:and,?\s*In)\s+`)
	leadingAndIIRe    = regexp.MustCompile(`(?i)^(?:and\s+ii\s+from)\s+`)
	leadingNumDotsRe  = regexp.MustCompile(`^\d+\.+\.+`)
	leadingDotsRe     = regexp.MustCompile(`^\.+\s*`)
	leadingDigitsRe   = regexp.MustCompile(`^\d{2,}\s+`)
	llmPreambleRe     = regexp.MustCompile(`(?i)^(?:Here is the |The )?(?:extracted )?(?:value|answer)(?: is)?[:\s-]*`)
	llmExtractedRe    = regexp.MustCompile(`(?i)^Extracted[:\s-]*`)
	llmAnswerRe       = regexp.MustCompile(`(?i)^Answer[:\s-]*`)
	squareBracketRe   = regexp.MustCompile(`\[\s*(.*?)\s*\]`)
	parenWrapperRe    = regexp.MustCompile(`\(\s*(.*?)\s*\)`)
	curlyBraceRe      = regexp.MustCompile(`\{\s*(.*?)\s*\}`)
	splitThreeRe      = regexp.MustCompile(`\b([A-Z])\s+([A-Z])\s+([A-Z])\b`)
	splitTwoRe        = regexp.MustCompile(`\b([A-Z])\s+([A-Z])\b`)
	enumerationRe     = regexp.MustCompile(`(?i)^[\divx]+\.\s*`)
	sectionHeadingRe  = regexp.MustCompile(`(?i)^(?:SECTION|ARTICLE)\s+[\d.]+\s*`)
	bulletRe          = regexp.MustCompile(`^[-•*]\s*`)
	leadingLabelRe    = regexp.MustCompile(`(?i)^(?:title|name|date|amount|price)[:\s]+`)
	sentenceStartRe   = regexp.MustCompile(`(?i)\b(These|This|The)\b`)
	wordRe            = regexp.MustCompile(`[A-Za-z]+`)
	shortCodeRe       = regexp.MustCompile(`^[A-Z0-9]+$`)
	smartQuoteReplace = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// noisePhrases are cleaned values treated as equivalent to "no value".
var noisePhrases = map[string]bool{
	"execution version":    true,
	"confidential":         true,
	"page":                 true,
	"of":                   true,
	"unknown":              true,
	"not found":            true,
	"none":                 true,
	"n/a":                  true,
	"undefined":            true,
	"no information found": true,
	"not specified":        true,
	"not stated":           true,
}

// strayConnectives reject a TEXT value that is nothing but a connective.
var strayConnectives = map[string]bool{
	"and": true, "or": true, "the": true, "a": true,
	"an": true, "of": true, "to": true, "by": true,
}

// ocrRepair is one known OCR split-word pattern and its replacement,
// applied case-insensitively and in order.
type ocrRepair struct {
	re          *regexp.Regexp
	replacement string
}

var ocrRepairs = buildOCRRepairs([][2]string{
	{"GIGAF ACT ORY", "GIGAFACTORY"},
	{"GIGA FACTORY", "GIGAFACTORY"},
	{"R ESTATED", "RESTATED"},
	{"REST ATED", "RESTATED"},
	{"F ACT ORY", "FACTORY"},
	{"F ACTORY", "FACTORY"},
	{"FACT ORY", "FACTORY"},
	{"L EASE", "LEASE"},
	{"A GREEMENT", "AGREEMENT"},
	{"C ONTRACT", "CONTRACT"},
	{"P ARTY", "PARTY"},
	{"E XECUTION", "EXECUTION"},
	{"E FFECTIVE", "EFFECTIVE"},
	{"S ERVICES", "SERVICES"},
	{"L ICENSE", "LICENSE"},
	{"A M E N D E D", "AMENDED"},
	{"T E R M S", "TERMS"},
	{"C O N D I T I O N S", "CONDITIONS"},
	{"AMENDED AND RESTATED", "Amended and Restated"},
	{"BETWE EN", "BETWEEN"},
	{"WHET HER", "WHETHER"},
	{"STATUT ORY", "STATUTORY"},
	{"HEREB Y", "HEREBY"},
	{"REPRESENT ATIONS", "REPRESENTATIONS"},
	{"IN WITNESS WHEREOF", "In Witness Whereof"},
})

func buildOCRRepairs(pairs [][2]string) []ocrRepair {
	out := make([]ocrRepair, len(pairs))
	for i, p := range pairs {
		out[i] = ocrRepair{
			re:          regexp.MustCompile(`(?i)` + regexp.QuoteMeta(p[0])),
			replacement: p[1],
		}
	}
	return out
}

// acronyms are re-uppercased after case conversion demotes an all-caps value.
var acronyms = []string{"LLC", "INC", "LP", "LTD", "USA", "US", "UK", "EU", "GTC", "CEO", "CFO", "CTO", "II", "III", "IV"}

// properWords survive sentence-case demotion of heavily title-cased text.
var properWords = map[string]bool{
	"GTC": true, "LLC": true, "INC": true, "LP": true, "USA": true,
	"US": true, "UK": true, "EU": true, "CEO": true, "CFO": true,
	"CTO": true, "II": true, "III": true, "IV": true,
	"TESLA": true, "SELLER": true,
}

var acronymRes = buildAcronymRes()

func buildAcronymRes() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(acronyms))
	for i, a := range acronyms {
		out[i] = regexp.MustCompile(`(?i)\b` + a + `\b`)
	}
	return out
}

// Clean runs the ordered cleaning pipeline on a raw extracted snippet and
// returns the cleaned value, or "" when the input reduces to noise. Each
// step is idempotent.
func Clean(raw string, fieldType model.FieldType) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	cleaned := whitespaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")

	// Leading punctuation, conjunctions, and enumeration junk.
	cleaned = strings.TrimLeft(cleaned, ".,;:-")
	cleaned = leadingConjRe.ReplaceAllString(strings.TrimSpace(cleaned), "")
	cleaned = leadingAndInRe.ReplaceAllString(cleaned, "In ")
	cleaned = leadingAndIIRe.ReplaceAllString(cleaned, "From ")
	cleaned = leadingNumDotsRe.ReplaceAllString(cleaned, "")
	cleaned = leadingDotsRe.ReplaceAllString(cleaned, "")
	cleaned = leadingDigitsRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(strings.TrimLeft(cleaned, ".,;:-"))

	// Markdown emphasis markers.
	cleaned = strings.NewReplacer("**", "", "*", "", "`", "").Replace(cleaned)

	// LLM preamble phrases.
	cleaned = llmPreambleRe.ReplaceAllString(cleaned, "")
	cleaned = llmExtractedRe.ReplaceAllString(cleaned, "")
	cleaned = llmAnswerRe.ReplaceAllString(cleaned, "")

	// Smart quotes.
	cleaned = smartQuoteReplace.Replace(cleaned)

	// Bracket/paren/brace wrappers; keep inner content.
	cleaned = squareBracketRe.ReplaceAllString(cleaned, "$1")
	cleaned = parenWrapperRe.ReplaceAllString(cleaned, "$1")
	cleaned = curlyBraceRe.ReplaceAllString(cleaned, "$1")

	// A single pair of enclosing quotes.
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) >= 2 {
		if (cleaned[0] == '"' && cleaned[len(cleaned)-1] == '"') ||
			(cleaned[0] == '\'' && cleaned[len(cleaned)-1] == '\'') {
			cleaned = strings.TrimSpace(cleaned[1 : len(cleaned)-1])
		}
	}

	// Known OCR split-word repairs, then the generic isolated-letter
	// collapse. The two-letter rule is a known false-positive risk for
	// legitimate initials ("J D Smith" becomes "JD Smith").
	for _, r := range ocrRepairs {
		cleaned = r.re.ReplaceAllString(cleaned, r.replacement)
	}
	cleaned = splitThreeRe.ReplaceAllString(cleaned, "$1$2$3")
	cleaned = splitTwoRe.ReplaceAllString(cleaned, "$1$2")

	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimRight(cleaned, ".,;:")

	// Balance an unmatched open parenthesis near the end of the string.
	if strings.Count(cleaned, "(") > strings.Count(cleaned, ")") {
		if lastOpen := strings.LastIndex(cleaned, "("); lastOpen >= 0 && len(cleaned)-lastOpen < 50 {
			cleaned += ")"
		}
	}

	if noisePhrases[strings.ToLower(cleaned)] {
		return ""
	}

	if fieldType == model.FieldTypeText {
		cleaned = cleanText(cleaned)
	}

	return cleaned
}

// cleanText applies the TEXT-only structural cleanup: enumeration stripping,
// duplicated-header excision, and case normalization.
func cleanText(cleaned string) string {
	if strayConnectives[strings.ToLower(cleaned)] {
		return ""
	}

	cleaned = enumerationRe.ReplaceAllString(cleaned, "")
	cleaned = sectionHeadingRe.ReplaceAllString(cleaned, "")
	cleaned = bulletRe.ReplaceAllString(cleaned, "")
	cleaned = leadingLabelRe.ReplaceAllString(cleaned, "")

	cleaned = exciseHeaderPreamble(cleaned)
	cleaned = normalizeCase(cleaned)

	// Ensure a capitalized first character.
	if cleaned != "" && cleaned[0] >= 'a' && cleaned[0] <= 'z' {
		cleaned = strings.ToUpper(cleaned[:1]) + cleaned[1:]
	}

	if len(cleaned) < 3 && !shortCodeRe.MatchString(cleaned) {
		return ""
	}
	return cleaned
}

// exciseHeaderPreamble removes a duplicated header preceding the true
// sentence start ("These"/"This"/"The"), a common artifact when a model
// echoes a document title before the sentence it extracted.
func exciseHeaderPreamble(cleaned string) string {
	if len(strings.Fields(cleaned)) <= 10 || len(cleaned) <= 5 {
		return cleaned
	}
	loc := sentenceStartRe.FindStringIndex(cleaned[5:])
	if loc == nil {
		return cleaned
	}
	start := loc[0] + 5
	preamble := strings.TrimSpace(cleaned[:start])
	if isUpper(preamble) || len(preamble) < 100 {
		return cleaned[start:]
	}
	return cleaned
}

// normalizeCase demotes predominantly-uppercase text to word-capitalized
// form (restoring acronyms), and heavily title-cased sentences to sentence
// case (first word and known proper nouns excepted).
func normalizeCase(cleaned string) string {
	letters, uppers := 0, 0
	for _, r := range cleaned {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
	}
	if letters > 0 && float64(uppers)/float64(letters) > 0.6 {
		cleaned = wordRe.ReplaceAllStringFunc(strings.ToLower(cleaned), capitalizeWord)
		for _, re := range acronymRes {
			cleaned = re.ReplaceAllStringFunc(cleaned, strings.ToUpper)
		}
	}

	words := strings.Fields(cleaned)
	if len(words) > 8 {
		titled := 0
		for _, w := range words {
			r := []rune(w)
			if len(r) > 0 && unicode.IsUpper(r[0]) {
				titled++
			}
		}
		if float64(titled)/float64(len(words)) > 0.6 {
			for i, w := range words {
				if i == 0 || properWords[strings.ToUpper(w)] {
					continue
				}
				words[i] = strings.ToLower(w)
			}
			cleaned = strings.Join(words, " ")
		}
	}
	return cleaned
}

func capitalizeWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}

func isUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}
